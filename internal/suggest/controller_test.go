package suggest

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"autosuggest/internal/domain"
	"autosuggest/internal/eventbus"
)

// mockSurface is a testify mock of the rendering surface
type mockSurface struct {
	mock.Mock
}

func (m *mockSurface) ShowRows(rows []Row)    { m.Called(rows) }
func (m *mockSurface) Hide()                  { m.Called() }
func (m *mockSurface) HighlightRow(index int) { m.Called(index) }
func (m *mockSurface) ClearRowHighlight()     { m.Called() }

// fakeSurface tracks what a panel would display
type fakeSurface struct {
	rows        []Row
	visible     bool
	highlighted int
	hides       int
}

func newFakeSurface() *fakeSurface {
	return &fakeSurface{highlighted: -1}
}

func (s *fakeSurface) ShowRows(rows []Row) {
	s.rows = rows
	s.visible = true
}

func (s *fakeSurface) Hide() {
	s.visible = false
	s.hides++
}

func (s *fakeSurface) HighlightRow(index int) { s.highlighted = index }
func (s *fakeSurface) ClearRowHighlight()     { s.highlighted = -1 }

// filterSearch answers synchronously with labels containing the term
func filterSearch(calls *[]string, labels ...string) SearchFunc {
	return func(term string, deliver func([]domain.Item)) {
		*calls = append(*calls, term)
		var out []domain.Item
		for _, l := range labels {
			if strings.Contains(l, term) {
				out = append(out, domain.Text(l))
			}
		}
		deliver(out)
	}
}

type harness struct {
	ctrl     *Controller
	surface  *fakeSurface
	searches []string
	selected []domain.Item
}

func newHarness(opts Options) *harness {
	h := &harness{surface: newFakeSurface()}
	if opts.Search == nil {
		opts.Search = filterSearch(&h.searches, "suggest11", "suggest12", "suggest21", "suggest22")
	}
	opts.Select = func(item domain.Item) { h.selected = append(h.selected, item) }
	if opts.MinLength == 0 {
		opts.MinLength = DefaultMinLength
	}
	h.ctrl = NewController(h.surface, opts)
	return h
}

func TestKeyboardSelectionScenario(t *testing.T) {
	h := newHarness(Options{})

	h.ctrl.InputChanged("sug")
	require.True(t, h.surface.visible)
	require.Len(t, h.surface.rows, 4)

	assert.True(t, h.ctrl.HandleKey(KeyEvent{Key: KeyDown}))
	assert.Equal(t, 0, h.surface.highlighted)

	assert.True(t, h.ctrl.HandleKey(KeyEvent{Key: KeyEnter}))
	require.Len(t, h.selected, 1)
	assert.Equal(t, "suggest11", h.selected[0].Label)
	assert.False(t, h.surface.visible)
	assert.True(t, h.ctrl.Model().HasNoItems())
}

func TestShortTermDoesNotSearch(t *testing.T) {
	h := newHarness(Options{})

	h.ctrl.InputChanged("su")

	assert.Empty(t, h.searches)
	assert.False(t, h.surface.visible)
	assert.Empty(t, h.surface.rows)
}

func TestHoverThenLeaveRow(t *testing.T) {
	h := newHarness(Options{})
	h.ctrl.InputChanged("sug")

	h.ctrl.HoverRow(2)
	assert.Equal(t, 2, h.ctrl.Model().HighlightedIndex())
	assert.Equal(t, 2, h.surface.highlighted)

	h.ctrl.LeaveRow(2)
	assert.Equal(t, -1, h.ctrl.Model().HighlightedIndex())
	assert.Equal(t, -1, h.surface.highlighted)
}

func TestArrowUpFromUnhighlightedSelectsLastRow(t *testing.T) {
	h := newHarness(Options{})
	h.ctrl.InputChanged("sug")

	assert.True(t, h.ctrl.HandleKey(KeyEvent{Key: KeyUp}))
	assert.Equal(t, 3, h.surface.highlighted)
}

func TestTabNavigatesOnlyWhenItemsPresent(t *testing.T) {
	h := newHarness(Options{})

	assert.False(t, h.ctrl.HandleKey(KeyEvent{Key: KeyTab}), "tab must traverse focus when the panel is empty")
	assert.False(t, h.ctrl.HandleKey(KeyEvent{Key: KeyTab, Shift: true}))
	assert.False(t, h.ctrl.HandleKey(KeyEvent{Key: KeyDown}))
	assert.False(t, h.ctrl.HandleKey(KeyEvent{Key: KeyUp}))

	h.ctrl.InputChanged("sug")
	assert.True(t, h.ctrl.HandleKey(KeyEvent{Key: KeyTab}))
	assert.Equal(t, 0, h.surface.highlighted)
	assert.True(t, h.ctrl.HandleKey(KeyEvent{Key: KeyTab}))
	assert.Equal(t, 1, h.surface.highlighted)
	assert.True(t, h.ctrl.HandleKey(KeyEvent{Key: KeyTab, Shift: true}))
	assert.Equal(t, 0, h.surface.highlighted)
}

func TestEscapeAlwaysConsumedAndClears(t *testing.T) {
	h := newHarness(Options{})

	assert.True(t, h.ctrl.HandleKey(KeyEvent{Key: KeyEscape}))

	h.ctrl.InputChanged("sug")
	require.True(t, h.surface.visible)
	assert.True(t, h.ctrl.HandleKey(KeyEvent{Key: KeyEscape}))
	assert.False(t, h.surface.visible)
	assert.True(t, h.ctrl.Model().HasNoItems())
}

func TestEnterWithoutHighlightFallsThrough(t *testing.T) {
	h := newHarness(Options{})
	h.ctrl.InputChanged("sug")

	assert.False(t, h.ctrl.HandleKey(KeyEvent{Key: KeyEnter}))
	assert.Empty(t, h.selected)
	assert.True(t, h.surface.visible, "panel stays open")
}

func TestOtherKeysAreNotConsumed(t *testing.T) {
	h := newHarness(Options{})
	h.ctrl.InputChanged("sug")

	assert.False(t, h.ctrl.HandleKey(KeyEvent{Key: KeyOther}))
	assert.Equal(t, 4, h.ctrl.Model().ItemsCount())
}

func TestPressRowSelectsAndClears(t *testing.T) {
	h := newHarness(Options{})
	h.ctrl.InputChanged("sug")

	h.ctrl.PressRow(1)

	require.Len(t, h.selected, 1)
	assert.Equal(t, "suggest12", h.selected[0].Label)
	assert.False(t, h.surface.visible)
	assert.True(t, h.ctrl.Model().HasNoItems())
}

func TestPressRowOutOfRangeIsIgnored(t *testing.T) {
	h := newHarness(Options{})
	h.ctrl.InputChanged("sug")

	h.ctrl.PressRow(9)

	assert.Empty(t, h.selected)
	assert.True(t, h.surface.visible)
}

func TestLossOfRelevanceClearsItems(t *testing.T) {
	cases := map[string]func(*Controller){
		"focus lost":          (*Controller).FocusLost,
		"outside interaction": (*Controller).OutsideInteraction,
		"viewport resized":    (*Controller).ViewportResized,
	}
	for name, event := range cases {
		t.Run(name, func(t *testing.T) {
			h := newHarness(Options{})
			h.ctrl.InputChanged("sug")
			h.ctrl.HoverRow(1)

			event(h.ctrl)

			assert.True(t, h.ctrl.Model().HasNoItems())
			assert.False(t, h.surface.visible)
			assert.Equal(t, -1, h.surface.highlighted)
		})
	}
}

func TestRenderAppliesToRowsButSelectGetsRawItem(t *testing.T) {
	h := newHarness(Options{
		Search: func(term string, deliver func([]domain.Item)) {
			deliver([]domain.Item{
				{Label: "suggest11", Fields: map[string]string{"id": "1"}},
				{Label: "suggest12", Fields: map[string]string{"id": "2"}},
			})
		},
		Render: func(item domain.Item) string { return "result: " + item.Label },
	})

	h.ctrl.InputChanged("sugg")
	require.Len(t, h.surface.rows, 2)
	assert.Equal(t, "result: suggest11", h.surface.rows[0].Label)

	h.ctrl.PressRow(0)
	require.Len(t, h.selected, 1)
	assert.Equal(t, "suggest11", h.selected[0].Label)
	assert.Equal(t, "1", h.selected[0].Value("id"))
}

func TestMinLengthOption(t *testing.T) {
	h := newHarness(Options{MinLength: 5})

	h.ctrl.InputChanged("sug")
	assert.Empty(t, h.searches)
	assert.False(t, h.surface.visible)

	h.ctrl.InputChanged("sugge")
	assert.Equal(t, []string{"sugge"}, h.searches)
}

func TestStaleResponseIsDropped(t *testing.T) {
	var pending []func([]domain.Item)
	h := newHarness(Options{
		Search: func(term string, deliver func([]domain.Item)) {
			pending = append(pending, deliver)
		},
	})

	h.ctrl.InputChanged("sug")
	h.ctrl.InputChanged("sugg")
	require.Len(t, pending, 2)

	pending[1](domain.Texts("suggest11"))
	pending[0](domain.Texts("suggest11", "suggest12", "suggest21", "suggest22"))

	require.Len(t, h.surface.rows, 1)
	assert.Equal(t, 1, h.ctrl.Model().ItemsCount())
}

func TestEmptyResultsHidePanel(t *testing.T) {
	h := newHarness(Options{})

	h.ctrl.InputChanged("sug")
	require.True(t, h.surface.visible)

	h.ctrl.InputChanged("zzz")
	assert.False(t, h.surface.visible)
	assert.Equal(t, domain.PhaseEmpty, h.ctrl.Model().Phase())
}

func TestDebounceSchedulerCoalescesInput(t *testing.T) {
	var scheduled []func()
	h := newHarness(Options{
		Debounce: func(fn func()) { scheduled = append(scheduled, fn) },
	})

	h.ctrl.InputChanged("s")
	h.ctrl.InputChanged("su")
	h.ctrl.InputChanged("sug")
	assert.Empty(t, h.searches, "nothing runs before the scheduler fires")

	// last call wins
	scheduled[len(scheduled)-1]()
	assert.Equal(t, []string{"sug"}, h.searches)
	assert.Equal(t, "sug", h.ctrl.Model().Term())
}

func TestHighlightForwardingClearsPreviousRowFirst(t *testing.T) {
	surface := &mockSurface{}
	surface.On("ClearRowHighlight").Return()
	surface.On("ShowRows", mock.Anything).Return()
	surface.On("HighlightRow", 0).Return().Once()
	surface.On("HighlightRow", 1).Return().Once()

	ctrl := NewController(surface, Options{
		MinLength: 3,
		Search: func(term string, deliver func([]domain.Item)) {
			deliver(domain.Texts("suggest11", "suggest12"))
		},
	})

	ctrl.InputChanged("sug")
	ctrl.HandleKey(KeyEvent{Key: KeyDown})
	ctrl.HandleKey(KeyEvent{Key: KeyDown})
	ctrl.HandleKey(KeyEvent{Key: KeyDown})

	surface.AssertExpectations(t)
	// one reset from SetItems plus one per move
	surface.AssertNumberOfCalls(t, "ClearRowHighlight", 4)
	surface.AssertNotCalled(t, "Hide")
}

func TestShowRowsReceivesRenderedRows(t *testing.T) {
	surface := &mockSurface{}
	surface.On("ClearRowHighlight").Return()
	surface.On("ShowRows", []Row{
		{Label: "suggest21", Item: domain.Text("suggest21")},
		{Label: "suggest22", Item: domain.Text("suggest22")},
	}).Return().Once()
	surface.On("Hide").Return().Once()

	ctrl := NewController(surface, Options{
		MinLength: 3,
		Search: func(term string, deliver func([]domain.Item)) {
			deliver(domain.Texts("suggest21", "suggest22"))
		},
	})

	ctrl.InputChanged("suggest2")
	ctrl.InputChanged("")

	surface.AssertExpectations(t)
}

func TestControllersDoNotShareHighlight(t *testing.T) {
	a := newHarness(Options{})
	b := newHarness(Options{})

	a.ctrl.InputChanged("sug")
	b.ctrl.InputChanged("sug")
	a.ctrl.HandleKey(KeyEvent{Key: KeyDown})
	b.ctrl.HandleKey(KeyEvent{Key: KeyUp})

	a.ctrl.HandleKey(KeyEvent{Key: KeyEnter})
	b.ctrl.HandleKey(KeyEvent{Key: KeyEnter})

	require.Len(t, a.selected, 1)
	require.Len(t, b.selected, 1)
	assert.Equal(t, "suggest11", a.selected[0].Label)
	assert.Equal(t, "suggest22", b.selected[0].Label)
}

func TestControllerPublishesEvents(t *testing.T) {
	bus := eventbus.New()
	defer bus.Close()

	var mu sync.Mutex
	seen := map[eventbus.EventType]int{}
	for _, et := range []eventbus.EventType{
		eventbus.EventSearchRequested,
		eventbus.EventResultsDelivered,
		eventbus.EventStaleResultsDropped,
		eventbus.EventSelectionCommitted,
	} {
		bus.Subscribe(et, func(e eventbus.DomainEvent) {
			mu.Lock()
			seen[e.Type()]++
			mu.Unlock()
		})
	}

	var pending []func([]domain.Item)
	h := newHarness(Options{
		Bus: bus,
		Search: func(term string, deliver func([]domain.Item)) {
			pending = append(pending, deliver)
		},
	})

	h.ctrl.InputChanged("sug")
	h.ctrl.InputChanged("sugg")
	pending[1](domain.Texts("suggest11"))
	pending[0](domain.Texts("suggest11"))
	h.ctrl.PressRow(0)

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return seen[eventbus.EventSearchRequested] == 2 &&
			seen[eventbus.EventResultsDelivered] == 1 &&
			seen[eventbus.EventStaleResultsDropped] == 1 &&
			seen[eventbus.EventSelectionCommitted] == 1
	}, time.Second, 5*time.Millisecond)
}
