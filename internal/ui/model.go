package ui

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"autosuggest/internal/config"
	"autosuggest/internal/debounce"
	"autosuggest/internal/domain"
	"autosuggest/internal/eventbus"
	"autosuggest/internal/provider"
	"autosuggest/internal/suggest"
	"autosuggest/internal/ui/views"
)

// panelTop is the screen line of the panel's top border, right under the input
const panelTop = 1

// Result is what the prompt produced when it exited
type Result struct {
	Value     string
	Item      *domain.Item
	Cancelled bool
}

// Option customizes a Model
type Option func(*Model)

// WithRender sets how suggestions are displayed
func WithRender(render suggest.RenderFunc) Option {
	return func(m *Model) {
		m.render = render
	}
}

// Model represents the UI state
type Model struct {
	ctx      context.Context
	cfg      *config.Config
	provider provider.Provider
	bus      eventbus.EventBus

	input   textinput.Model
	panel   *views.Panel
	styles  *views.Styles
	ctrl    *suggest.Controller
	gate    *debounce.Gate
	render  suggest.RenderFunc
	keys    keyMap
	help    help.Model
	helpOps *HelpOps

	width  int
	height int

	// row under the pointer, valid for hoverGen
	hoverRow int
	hoverGen int

	selected  *domain.Item
	noMatches bool
	notice    string
	result    Result

	// commands queued by controller callbacks during the current Update
	pending []tea.Cmd
}

// NewModel creates a new UI model
func NewModel(ctx context.Context, cfg *config.Config, p provider.Provider, bus eventbus.EventBus, opts ...Option) *Model {
	styles := views.NewStyles()

	ti := textinput.New()
	ti.Prompt = styles.Prompt.Render(cfg.UI.Prompt)
	ti.Placeholder = cfg.UI.Placeholder
	ti.Focus()

	m := &Model{
		ctx:      ctx,
		cfg:      cfg,
		provider: p,
		bus:      bus,
		input:    ti,
		panel:    views.NewPanel(styles, cfg.UI.Width),
		styles:   styles,
		keys:     newKeyMap(),
		help:     help.New(),
		hoverRow: -1,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.panel.Place(0, panelTop)

	var schedule func(fn func())
	if d := cfg.Debounce(); d > 0 {
		m.gate = debounce.NewGate(d)
		schedule = func(fn func()) {
			m.queue(m.gate.Arm(fn))
		}
	}

	m.ctrl = suggest.NewController(m.panel, suggest.Options{
		Search:    m.search,
		Select:    m.selectItem,
		Render:    m.render,
		MinLength: cfg.MinLength,
		Debounce:  schedule,
		Bus:       bus,
	})

	return m
}

// SetProgram sets the program reference for terminal management
func (m *Model) SetProgram(p *tea.Program) {
	m.helpOps = NewHelpOps(p)
}

// Result returns the outcome once the program has exited
func (m *Model) Result() Result {
	return m.result
}

// Controller exposes the interaction controller
func (m *Model) Controller() *suggest.Controller {
	return m.ctrl
}

// Init returns an initial command
func (m *Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.panel.SetWidth(min(m.cfg.UI.Width, msg.Width))
		m.cancelPending()
		m.ctrl.ViewportResized()
		return m, m.flush()

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		m.handleMouse(msg)
		return m, m.flush()

	case tea.FocusMsg:
		return m, m.input.Focus()

	case tea.BlurMsg:
		m.input.Blur()
		m.cancelPending()
		m.ctrl.FocusLost()
		return m, m.flush()

	case debounce.FireMsg:
		if m.gate != nil {
			m.gate.Fire(msg)
		}
		return m, m.flush()

	case searchResultMsg:
		items := msg.items
		if msg.err != nil {
			log.Printf("Search for %q failed: %v", msg.term, msg.err)
			m.publish(domain.ErrorEvent{Message: fmt.Sprintf("search for %q failed", msg.term), Err: msg.err})
			items = nil
		}
		msg.deliver(items)
		m.noMatches = len(items) == 0 && m.ctrl.Model().Phase() == domain.PhaseEmpty
		return m, m.flush()

	case helpPagerMsg:
		if msg.err != nil {
			log.Printf("Help pager failed: %v", msg.err)
		}
		return m, nil

	case EventMsg:
		m.handleEvent(msg.Event)
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.noMatches = false
	m.notice = ""

	switch {
	case key.Matches(msg, m.keys.Quit):
		m.result = Result{Cancelled: true}
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		if m.helpOps == nil {
			return m, nil
		}
		return m, m.fetchHelpPager()
	}

	if ev, ok := toKeyEvent(msg); ok {
		if ev.Key == suggest.KeyEscape {
			m.cancelPending()
		}
		if m.ctrl.HandleKey(ev) {
			return m, m.flush()
		}
	}

	if msg.Type == tea.KeyEnter {
		return m.submit()
	}

	before := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if value := m.input.Value(); value != before {
		m.selected = nil
		m.ctrl.InputChanged(value)
	}
	return m, m.flush(cmd)
}

// submit accepts the typed value when Enter was not taken by the list
func (m *Model) submit() (tea.Model, tea.Cmd) {
	m.result = Result{Value: m.input.Value()}
	if m.selected != nil && m.selected.Label == m.result.Value {
		item := *m.selected
		m.result.Item = &item
	}
	return m, tea.Quit
}

func (m *Model) handleMouse(msg tea.MouseMsg) {
	row, onRow := m.panel.RowAt(msg.X, msg.Y)
	if m.hoverGen != m.panel.Generation() {
		m.hoverRow = -1
		m.hoverGen = m.panel.Generation()
	}

	switch msg.Action {
	case tea.MouseActionMotion:
		if onRow && row != m.hoverRow {
			m.hoverRow = row
			m.ctrl.HoverRow(row)
		} else if !onRow && m.hoverRow >= 0 {
			left := m.hoverRow
			m.hoverRow = -1
			m.ctrl.LeaveRow(left)
		}

	case tea.MouseActionPress:
		if msg.Button != tea.MouseButtonLeft {
			return
		}
		if onRow {
			m.ctrl.PressRow(row)
			return
		}
		if !m.panel.Contains(msg.X, msg.Y) {
			m.cancelPending()
			m.ctrl.OutsideInteraction()
		}
	}
}

// handleEvent turns background events into a status notice
func (m *Model) handleEvent(event domain.DomainEvent) {
	switch e := event.(type) {
	case domain.SourceReloadedEvent:
		m.notice = fmt.Sprintf("reloaded %d suggestions from %s", e.Count, filepath.Base(e.Path))
	case domain.ErrorEvent:
		m.notice = e.Message
	}
}

// toKeyEvent maps terminal keys onto the controller's key set
func toKeyEvent(msg tea.KeyMsg) (suggest.KeyEvent, bool) {
	switch msg.String() {
	case "down":
		return suggest.KeyEvent{Key: suggest.KeyDown}, true
	case "up":
		return suggest.KeyEvent{Key: suggest.KeyUp}, true
	case "tab":
		return suggest.KeyEvent{Key: suggest.KeyTab}, true
	case "shift+tab":
		return suggest.KeyEvent{Key: suggest.KeyTab, Shift: true}, true
	case "enter":
		return suggest.KeyEvent{Key: suggest.KeyEnter}, true
	case "esc":
		return suggest.KeyEvent{Key: suggest.KeyEscape}, true
	default:
		return suggest.KeyEvent{}, false
	}
}

// search runs the provider off the UI goroutine and hands the response
// back through a message
func (m *Model) search(term string, deliver func([]domain.Item)) {
	ctx := m.ctx
	timeout := m.cfg.SearchTimeout()
	p := m.provider

	m.queue(func() tea.Msg {
		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}
		items, err := p.Search(ctx, term)
		return searchResultMsg{term: term, items: items, err: err, deliver: deliver}
	})
}

// selectItem writes the chosen suggestion into the input without searching again
func (m *Model) selectItem(item domain.Item) {
	m.cancelPending()
	m.input.SetValue(item.Label)
	m.input.CursorEnd()
	m.selected = &item
	log.Printf("Selected %q", item.Label)
}

// cancelPending drops a debounced term so a dismissed list stays closed
func (m *Model) cancelPending() {
	if m.gate != nil {
		m.gate.Cancel()
	}
}

func (m *Model) queue(cmd tea.Cmd) {
	if cmd != nil {
		m.pending = append(m.pending, cmd)
	}
}

// flush batches extra with everything queued during this Update
func (m *Model) flush(extra ...tea.Cmd) tea.Cmd {
	cmds := append(m.pending, extra...)
	m.pending = nil
	return tea.Batch(cmds...)
}

func (m *Model) publish(event domain.DomainEvent) {
	if m.bus != nil {
		m.bus.Publish(event)
	}
}

// View renders the UI
func (m *Model) View() string {
	var b strings.Builder

	b.WriteString(m.input.View())
	b.WriteString("\n")

	if panel := m.panel.View(); panel != "" {
		b.WriteString(panel)
		b.WriteString("\n")
	}

	b.WriteString(m.statusLine())
	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))

	return b.String()
}

func (m *Model) statusLine() string {
	model := m.ctrl.Model()

	if m.selected != nil {
		text := "selected " + m.selected.Label
		if id := m.selected.Value("id"); m.selected.IsMapping() && id != "" {
			text += fmt.Sprintf(" (id %s)", id)
		}
		return m.styles.Selected.Render(text)
	}

	switch model.Phase() {
	case domain.PhaseSearching:
		return m.styles.StatusBusy.Render("searching…")
	case domain.PhaseResultsShown:
		return m.styles.Status.Render(fmt.Sprintf("%d suggestions", model.ItemsCount()))
	case domain.PhaseEmpty:
		if m.noMatches {
			return m.styles.StatusEmpty.Render("no suggestions")
		}
		return m.styles.Status.Render("")
	default:
		if m.notice != "" {
			return m.styles.Dim.Render(m.notice)
		}
		remaining := model.MinLength() - len([]rune(model.Term()))
		if remaining > 0 {
			return m.styles.Dim.Render(fmt.Sprintf("type %d more character(s) for suggestions", remaining))
		}
		return m.styles.Status.Render("")
	}
}
