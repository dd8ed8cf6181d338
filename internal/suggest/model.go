package suggest

import (
	"unicode/utf8"

	"autosuggest/internal/domain"
)

// DefaultMinLength is the term length that triggers a search when none is configured
const DefaultMinLength = 3

// Callbacks receive model changes. They run synchronously on the caller's
// goroutine and fire on every mutation, including reassignment of an equal value.
type Callbacks struct {
	// OnTermChange signals that a search for term should begin. seq tags the
	// request; pass it back through SetItemsFor.
	OnTermChange func(term string, seq uint64)
	// OnItemsChange fires after the result set is replaced
	OnItemsChange func(items []domain.Item)
	// OnHighlightChange fires after the highlighted index is stored
	OnHighlightChange func(index int)
}

// Model owns the term, the result set and the highlighted index of one widget.
// It holds no rendering state.
type Model struct {
	callbacks   Callbacks
	minLength   int
	term        string
	items       []domain.Item
	highlighted int
	seq         uint64
	phase       domain.Phase
}

// NewModel creates a model. A negative minLength is treated as zero.
func NewModel(callbacks Callbacks, minLength int) *Model {
	if minLength < 0 {
		minLength = 0
	}
	return &Model{
		callbacks:   callbacks,
		minLength:   minLength,
		highlighted: -1,
		phase:       domain.PhaseIdle,
	}
}

// SetTerm stores value and either starts a search or clears stale results.
// Every call supersedes earlier in-flight searches.
func (m *Model) SetTerm(value string) {
	m.term = value
	m.seq++

	if utf8.RuneCountInString(value) >= m.minLength {
		m.phase = domain.PhaseSearching
		if m.callbacks.OnTermChange != nil {
			m.callbacks.OnTermChange(value, m.seq)
		}
		return
	}

	m.ClearItems()
	m.phase = domain.PhaseIdle
}

// SetItems replaces the result set and resets the highlight
func (m *Model) SetItems(items []domain.Item) {
	m.items = items
	if len(items) > 0 {
		m.phase = domain.PhaseResultsShown
	} else {
		m.phase = domain.PhaseEmpty
	}
	m.ClearHighlight()
	if m.callbacks.OnItemsChange != nil {
		m.callbacks.OnItemsChange(m.items)
	}
}

// SetItemsFor applies items only if seq is the latest search request.
// It reports whether the items were applied.
func (m *Model) SetItemsFor(seq uint64, items []domain.Item) bool {
	if seq != m.seq {
		return false
	}
	m.SetItems(items)
	return true
}

// SetHighlightedIndex stores index without bounds checks
func (m *Model) SetHighlightedIndex(index int) {
	m.highlighted = index
	if m.callbacks.OnHighlightChange != nil {
		m.callbacks.OnHighlightChange(m.highlighted)
	}
}

// MoveHighlightPrevious steps back one row. From no highlight it jumps to the
// last row; from the first row it leaves the list.
func (m *Model) MoveHighlightPrevious() {
	if m.highlighted >= 0 {
		m.SetHighlightedIndex(m.highlighted - 1)
		return
	}
	m.SetHighlightedIndex(len(m.items) - 1)
}

// MoveHighlightNext steps forward one row. From the last row it clears the
// highlight rather than wrapping to the first row.
func (m *Model) MoveHighlightNext() {
	if m.highlighted < len(m.items)-1 {
		m.SetHighlightedIndex(m.highlighted + 1)
		return
	}
	m.ClearHighlight()
}

// ClearItems empties the result set
func (m *Model) ClearItems() {
	m.SetItems(nil)
}

// ClearHighlight removes the highlight
func (m *Model) ClearHighlight() {
	m.SetHighlightedIndex(-1)
}

func (m *Model) Term() string          { return m.term }
func (m *Model) Items() []domain.Item  { return m.items }
func (m *Model) ItemsCount() int       { return len(m.items) }
func (m *Model) HasItems() bool        { return len(m.items) > 0 }
func (m *Model) HasNoItems() bool      { return len(m.items) == 0 }
func (m *Model) HighlightedIndex() int { return m.highlighted }
func (m *Model) MinLength() int        { return m.minLength }
func (m *Model) Phase() domain.Phase   { return m.phase }

// Sequence returns the tag of the latest search request
func (m *Model) Sequence() uint64 { return m.seq }

// HighlightedItem returns the item under the highlight, if any
func (m *Model) HighlightedItem() (domain.Item, bool) {
	return m.ItemAt(m.highlighted)
}

// ItemAt returns the item at index, if it exists
func (m *Model) ItemAt(index int) (domain.Item, bool) {
	if index < 0 || index >= len(m.items) {
		return domain.Item{}, false
	}
	return m.items[index], true
}
