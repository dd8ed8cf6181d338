package domain

// Item is one candidate suggestion.
// A plain-label item leaves Fields nil; a field-mapping item carries
// structured data such as an id next to its display label.
type Item struct {
	Label  string
	Fields map[string]string
}

// Text creates a plain-label item
func Text(label string) Item {
	return Item{Label: label}
}

// Texts converts a list of labels into plain-label items
func Texts(labels ...string) []Item {
	items := make([]Item, len(labels))
	for i, label := range labels {
		items[i] = Text(label)
	}
	return items
}

// IsMapping reports whether the item carries structured fields
func (it Item) IsMapping() bool {
	return it.Fields != nil
}

// Value returns the named field, falling back to the label for "label"
// and for plain-label items.
func (it Item) Value(name string) string {
	if v, ok := it.Fields[name]; ok {
		return v
	}
	if name == "" || name == "label" || it.Fields == nil {
		return it.Label
	}
	return ""
}

// Phase is the interaction state of a widget instance
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseSearching
	PhaseResultsShown
	PhaseEmpty
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseSearching:
		return "searching"
	case PhaseResultsShown:
		return "results"
	case PhaseEmpty:
		return "empty"
	default:
		return "unknown"
	}
}
