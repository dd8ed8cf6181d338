package metrics

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"autosuggest/internal/domain"
	"autosuggest/internal/eventbus"
)

// Metrics counts widget activity observed on the event bus
type Metrics struct {
	Searches      prometheus.Counter
	Deliveries    prometheus.Counter
	StaleDropped  prometheus.Counter
	ResultSize    prometheus.Histogram
	Selections    *prometheus.CounterVec
	SourceReloads prometheus.Counter
	Errors        prometheus.Counter
}

// New registers the collectors on reg
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Searches: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "autosuggest",
			Name:      "searches_total",
			Help:      "Searches started after the term reached the minimum length.",
		}),
		Deliveries: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "autosuggest",
			Name:      "results_delivered_total",
			Help:      "Provider responses applied to the suggestion list.",
		}),
		StaleDropped: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "autosuggest",
			Name:      "results_stale_dropped_total",
			Help:      "Provider responses discarded because a newer term was typed.",
		}),
		ResultSize: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "autosuggest",
			Name:      "result_size",
			Help:      "Number of suggestions per applied response.",
			Buckets:   []float64{0, 1, 2, 5, 10, 20, 50, 100},
		}),
		Selections: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "autosuggest",
			Name:      "selections_total",
			Help:      "Committed selections by input method.",
		}, []string{"method"}),
		SourceReloads: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "autosuggest",
			Name:      "source_reloads_total",
			Help:      "Times the suggestion source was reloaded from disk.",
		}),
		Errors: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "autosuggest",
			Name:      "errors_total",
			Help:      "Errors reported on the event bus.",
		}),
	}
}

// Attach subscribes the counters to bus and returns a function that detaches them
func (m *Metrics) Attach(bus eventbus.EventBus) func() {
	unsubs := []func(){
		bus.Subscribe(eventbus.EventSearchRequested, func(eventbus.DomainEvent) {
			m.Searches.Inc()
		}),
		bus.Subscribe(eventbus.EventResultsDelivered, func(e eventbus.DomainEvent) {
			m.Deliveries.Inc()
			if ev, ok := e.(domain.ResultsDeliveredEvent); ok {
				m.ResultSize.Observe(float64(ev.Count))
			}
		}),
		bus.Subscribe(eventbus.EventStaleResultsDropped, func(eventbus.DomainEvent) {
			m.StaleDropped.Inc()
		}),
		bus.Subscribe(eventbus.EventSelectionCommitted, func(e eventbus.DomainEvent) {
			if ev, ok := e.(domain.SelectionCommittedEvent); ok {
				m.Selections.WithLabelValues(string(ev.Method)).Inc()
			}
		}),
		bus.Subscribe(eventbus.EventSourceReloaded, func(eventbus.DomainEvent) {
			m.SourceReloads.Inc()
		}),
		bus.Subscribe(eventbus.EventError, func(eventbus.DomainEvent) {
			m.Errors.Inc()
		}),
	}

	return func() {
		for _, unsub := range unsubs {
			unsub()
		}
	}
}

// Handler exposes the collectors gathered by g
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

// Router serves /metrics and a /healthz probe
func Router(g prometheus.Gatherer) chi.Router {
	r := chi.NewRouter()
	r.Method(http.MethodGet, "/metrics", Handler(g))
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return r
}

// Serve runs Router on addr until ctx is cancelled
func Serve(ctx context.Context, addr string, g prometheus.Gatherer) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           Router(g),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("Metrics server shutdown: %v", err)
		}
	}()

	log.Printf("Serving metrics on %s", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
