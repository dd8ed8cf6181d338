package suggest

import (
	"log"

	"autosuggest/internal/domain"
	"autosuggest/internal/eventbus"
)

// SearchFunc starts a search for term. deliver may be called once, at any
// later point, on the controller's goroutine.
type SearchFunc func(term string, deliver func(items []domain.Item))

// SelectFunc receives the committed item unchanged
type SelectFunc func(item domain.Item)

// RenderFunc maps an item to its display text
type RenderFunc func(item domain.Item) string

// DefaultRender displays the item label
func DefaultRender(item domain.Item) string {
	return item.Label
}

// Key identifies the keys the controller reacts to
type Key int

const (
	KeyOther Key = iota
	KeyDown
	KeyUp
	KeyTab
	KeyEnter
	KeyEscape
)

// KeyEvent is a key press on the anchor input
type KeyEvent struct {
	Key   Key
	Shift bool
}

// Options configures a Controller
type Options struct {
	Search    SearchFunc
	Select    SelectFunc
	Render    RenderFunc
	MinLength int
	// Debounce schedules input changes. It must run fn on the controller's
	// goroutine; nil applies each change immediately.
	Debounce func(fn func())
	// Bus receives search and selection events. Optional.
	Bus eventbus.EventBus
}

// Controller mediates input events through a Model and mirrors the model
// onto a Surface
type Controller struct {
	model    *Model
	surface  Surface
	search   SearchFunc
	onSelect SelectFunc
	render   RenderFunc
	debounce func(fn func())
	bus      eventbus.EventBus
}

// NewController wires a new model to surface
func NewController(surface Surface, opts Options) *Controller {
	c := &Controller{
		surface:  surface,
		search:   opts.Search,
		onSelect: opts.Select,
		render:   opts.Render,
		debounce: opts.Debounce,
		bus:      opts.Bus,
	}
	if c.render == nil {
		c.render = DefaultRender
	}

	c.model = NewModel(Callbacks{
		OnTermChange:      c.startSearch,
		OnItemsChange:     c.showItems,
		OnHighlightChange: c.showHighlight,
	}, opts.MinLength)

	return c
}

// Model exposes the underlying state for queries
func (c *Controller) Model() *Model {
	return c.model
}

// InputChanged records a new anchor value
func (c *Controller) InputChanged(value string) {
	if c.debounce == nil {
		c.model.SetTerm(value)
		return
	}
	c.debounce(func() {
		c.model.SetTerm(value)
	})
}

// HandleKey applies a key press. It returns true when the widget consumed
// the key and the host must not apply its default action.
func (c *Controller) HandleKey(ev KeyEvent) bool {
	switch ev.Key {
	case KeyDown:
		return c.navigate(c.model.MoveHighlightNext)
	case KeyUp:
		return c.navigate(c.model.MoveHighlightPrevious)
	case KeyTab:
		if ev.Shift {
			return c.navigate(c.model.MoveHighlightPrevious)
		}
		return c.navigate(c.model.MoveHighlightNext)
	case KeyEscape:
		c.model.ClearItems()
		return true
	case KeyEnter:
		item, ok := c.model.HighlightedItem()
		if !ok {
			return false
		}
		c.commit(item, domain.SelectedByKeyboard)
		return true
	default:
		return false
	}
}

func (c *Controller) navigate(move func()) bool {
	if c.model.HasNoItems() {
		return false
	}
	move()
	return true
}

// HoverRow highlights the row under the pointer
func (c *Controller) HoverRow(index int) {
	c.model.SetHighlightedIndex(index)
}

// LeaveRow clears the highlight when the pointer leaves a row
func (c *Controller) LeaveRow(index int) {
	c.model.ClearHighlight()
}

// PressRow commits the row under the pointer
func (c *Controller) PressRow(index int) {
	item, ok := c.model.ItemAt(index)
	if !ok {
		return
	}
	c.commit(item, domain.SelectedByPointer)
}

// FocusLost hides the panel when the anchor loses focus
func (c *Controller) FocusLost() {
	c.model.ClearItems()
}

// OutsideInteraction hides the panel when an interaction starts outside it
func (c *Controller) OutsideInteraction() {
	c.model.ClearItems()
}

// ViewportResized hides the panel; its position is no longer valid
func (c *Controller) ViewportResized() {
	c.model.ClearItems()
}

func (c *Controller) commit(item domain.Item, method domain.SelectionMethod) {
	if c.onSelect != nil {
		c.onSelect(item)
	}
	c.publish(domain.SelectionCommittedEvent{Item: item, Method: method})
	c.model.ClearItems()
}

func (c *Controller) startSearch(term string, seq uint64) {
	c.publish(domain.SearchRequestedEvent{Term: term, Seq: seq})
	if c.search == nil {
		return
	}
	c.search(term, func(items []domain.Item) {
		if !c.model.SetItemsFor(seq, items) {
			log.Printf("Dropping stale results for %q (request %d, current %d)", term, seq, c.model.Sequence())
			c.publish(domain.StaleResultsDroppedEvent{Term: term, Seq: seq, Current: c.model.Sequence()})
			return
		}
		c.publish(domain.ResultsDeliveredEvent{Term: term, Seq: seq, Count: len(items)})
	})
}

func (c *Controller) showItems(items []domain.Item) {
	if len(items) == 0 {
		c.surface.Hide()
		return
	}
	rows := make([]Row, len(items))
	for i, item := range items {
		rows[i] = Row{Label: c.render(item), Item: item}
	}
	c.surface.ShowRows(rows)
}

func (c *Controller) showHighlight(index int) {
	c.surface.ClearRowHighlight()
	if index >= 0 {
		c.surface.HighlightRow(index)
	}
}

func (c *Controller) publish(event domain.DomainEvent) {
	if c.bus != nil {
		c.bus.Publish(event)
	}
}
