package ui

import (
	"autosuggest/internal/domain"
)

// searchResultMsg carries a provider response back to Update
type searchResultMsg struct {
	term    string
	items   []domain.Item
	err     error
	deliver func([]domain.Item)
}

// helpPagerMsg contains the result of a help pager command
type helpPagerMsg struct {
	err error
}

// EventMsg wraps a bus event forwarded to the UI
type EventMsg struct {
	Event domain.DomainEvent
}
