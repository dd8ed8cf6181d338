package domain

// EventType represents the type of domain event
type EventType string

// Event types
const (
	EventSearchRequested     EventType = "SearchRequested"
	EventResultsDelivered    EventType = "ResultsDelivered"
	EventStaleResultsDropped EventType = "StaleResultsDropped"
	EventSelectionCommitted  EventType = "SelectionCommitted"
	EventSourceReloaded      EventType = "SourceReloaded"
	EventError               EventType = "Error"
)

// DomainEvent is the interface for all domain events
type DomainEvent interface {
	Type() EventType
}

// SearchRequestedEvent is emitted when a term reaches the minimum length
type SearchRequestedEvent struct {
	Term string
	Seq  uint64
}

func (e SearchRequestedEvent) Type() EventType { return EventSearchRequested }

// ResultsDeliveredEvent is emitted when a provider response is applied
type ResultsDeliveredEvent struct {
	Term  string
	Seq   uint64
	Count int
}

func (e ResultsDeliveredEvent) Type() EventType { return EventResultsDelivered }

// StaleResultsDroppedEvent is emitted when a response arrives for a superseded term
type StaleResultsDroppedEvent struct {
	Term    string
	Seq     uint64
	Current uint64
}

func (e StaleResultsDroppedEvent) Type() EventType { return EventStaleResultsDropped }

// SelectionMethod tells how a selection was committed
type SelectionMethod string

const (
	SelectedByKeyboard SelectionMethod = "keyboard"
	SelectedByPointer  SelectionMethod = "pointer"
)

// SelectionCommittedEvent is emitted when the user commits a suggestion
type SelectionCommittedEvent struct {
	Item   Item
	Method SelectionMethod
}

func (e SelectionCommittedEvent) Type() EventType { return EventSelectionCommitted }

// SourceReloadedEvent is emitted when a suggestion source is re-read from disk
type SourceReloadedEvent struct {
	Path  string
	Count int
}

func (e SourceReloadedEvent) Type() EventType { return EventSourceReloaded }

// ErrorEvent is emitted when an error occurs
type ErrorEvent struct {
	Message string
	Err     error
}

func (e ErrorEvent) Type() EventType { return EventError }
