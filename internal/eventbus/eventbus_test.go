package eventbus

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"autosuggest/internal/domain"
)

type recorder struct {
	mu     sync.Mutex
	events []DomainEvent
}

func (r *recorder) handle(e DomainEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

func TestPublishReachesSubscribersOfThatTypeOnly(t *testing.T) {
	b := New()
	defer b.Close()

	var searches, selections recorder
	b.Subscribe(EventSearchRequested, searches.handle)
	b.Subscribe(EventSelectionCommitted, selections.handle)

	b.Publish(SearchRequestedEvent{Term: "sug", Seq: 1})
	b.Publish(SearchRequestedEvent{Term: "sugg", Seq: 2})
	b.Publish(SelectionCommittedEvent{Item: domain.Text("suggest11"), Method: domain.SelectedByKeyboard})

	require.Eventually(t, func() bool {
		return searches.count() == 2 && selections.count() == 1
	}, time.Second, 5*time.Millisecond)

	searches.mu.Lock()
	defer searches.mu.Unlock()
	assert.Equal(t, "sug", searches.events[0].(SearchRequestedEvent).Term)
	assert.Equal(t, "sugg", searches.events[1].(SearchRequestedEvent).Term)
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	b := New()
	defer b.Close()

	var first, second recorder
	unsubscribe := b.Subscribe(EventError, first.handle)
	b.Subscribe(EventError, second.handle)

	unsubscribe()
	b.Publish(ErrorEvent{Message: "boom"})

	require.Eventually(t, func() bool { return second.count() == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 0, first.count())
}

func TestHandlerPanicDoesNotStopDispatch(t *testing.T) {
	b := New()
	defer b.Close()

	var after recorder
	b.Subscribe(EventSourceReloaded, func(DomainEvent) { panic("bad subscriber") })
	b.Subscribe(EventSourceReloaded, after.handle)

	b.Publish(SourceReloadedEvent{Path: "words.txt", Count: 3})
	b.Publish(SourceReloadedEvent{Path: "words.txt", Count: 4})

	require.Eventually(t, func() bool { return after.count() == 2 }, time.Second, 5*time.Millisecond)
}

func TestPublishAfterCloseIsDropped(t *testing.T) {
	b := New()
	var rec recorder
	b.Subscribe(EventError, rec.handle)
	b.Close()

	assert.NotPanics(t, func() { b.Publish(ErrorEvent{Message: "late"}) })
	assert.NotPanics(t, b.Close)
	assert.Equal(t, 0, rec.count())
}
