package debounce

import (
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// Debouncer delays a call until no newer call arrives for the configured
// quiet period. Only the last scheduled function runs.
type Debouncer struct {
	mu      sync.Mutex
	delay   time.Duration
	timer   *time.Timer
	gen     uint64
	pending func()
}

// New creates a debouncer with the given quiet period
func New(delay time.Duration) *Debouncer {
	return &Debouncer{delay: delay}
}

// Do schedules fn, replacing any call that has not fired yet.
// fn runs on its own goroutine.
func (d *Debouncer) Do(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
	d.gen++
	d.pending = fn
	gen := d.gen
	d.timer = time.AfterFunc(d.delay, func() { d.fire(gen) })
}

// Stop drops the pending call
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
	d.gen++
	d.pending = nil
}

// fire runs the pending call if gen is still the latest schedule. A timer
// that lost the race with Do or Stop finds a newer gen and does nothing.
func (d *Debouncer) fire(gen uint64) {
	d.mu.Lock()
	if gen != d.gen {
		d.mu.Unlock()
		return
	}
	fn := d.pending
	d.pending = nil
	d.mu.Unlock()

	if fn != nil {
		fn()
	}
}

// FireMsg is delivered when a Gate's quiet period elapses
type FireMsg struct {
	ID int
}

// Gate is the Bubble Tea form of a debouncer. The delayed function runs
// inside Update, so it may touch model state directly.
type Gate struct {
	delay   time.Duration
	id      int
	pending func()
}

// NewGate creates a gate with the given quiet period
func NewGate(delay time.Duration) *Gate {
	return &Gate{delay: delay}
}

// Arm records fn as the latest call and returns the tick that fires it
func (g *Gate) Arm(fn func()) tea.Cmd {
	g.id++
	g.pending = fn
	id := g.id
	return tea.Tick(g.delay, func(time.Time) tea.Msg {
		return FireMsg{ID: id}
	})
}

// Cancel drops the pending function; ticks already in flight become no-ops
func (g *Gate) Cancel() {
	g.id++
	g.pending = nil
}

// Fire runs the pending function if msg belongs to the latest Arm.
// It reports whether anything ran.
func (g *Gate) Fire(msg FireMsg) bool {
	if msg.ID != g.id || g.pending == nil {
		return false
	}
	fn := g.pending
	g.pending = nil
	fn()
	return true
}
