package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"treecare/internal/storage"
)

// Collector owns the process-level Prometheus series.
type Collector struct {
	registry    *prometheus.Registry
	slotOps     *prometheus.CounterVec
	advisor     prometheus.Histogram
	transitions *prometheus.CounterVec
}

// NewCollector registers all series on a private registry so tests can
// create as many collectors as they like.
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		slotOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "treecare",
			Name:      "slot_operations_total",
			Help:      "Slot store operations by slot, operation and result.",
		}, []string{"slot", "op", "result"}),
		advisor: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "treecare",
			Name:      "advisor_request_seconds",
			Help:      "Latency of advisor chat completions.",
			Buckets:   prometheus.ExponentialBuckets(0.25, 2, 8),
		}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "treecare",
			Name:      "guide_transitions_total",
			Help:      "Guide progress transitions by kind.",
		}, []string{"kind"}),
	}
	c.registry.MustRegister(
		c.slotOps,
		c.advisor,
		c.transitions,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return c
}

// Registry exposes the underlying registry.
func (c *Collector) Registry() *prometheus.Registry { return c.registry }

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// ObserveSlotOp counts one slot store call.
func (c *Collector) ObserveSlotOp(slot, op string, err error) {
	result := "ok"
	switch {
	case err == nil:
	case errors.Is(err, storage.ErrSlotNotFound):
		result = "miss"
	default:
		result = "error"
	}
	c.slotOps.WithLabelValues(slot, op, result).Inc()
}

// ObserveAdvisor records one advisor round-trip.
func (c *Collector) ObserveAdvisor(d time.Duration) {
	c.advisor.Observe(d.Seconds())
}

// GuideTransition counts a start, complete_step, completed or reset.
func (c *Collector) GuideTransition(kind string) {
	c.transitions.WithLabelValues(kind).Inc()
}

// instrumentedStore decorates a SlotStore with operation counters.
type instrumentedStore struct {
	next storage.SlotStore
	c    *Collector
}

// InstrumentSlots wraps store so every call is counted by c.
func InstrumentSlots(store storage.SlotStore, c *Collector) storage.SlotStore {
	if c == nil {
		return store
	}
	return &instrumentedStore{next: store, c: c}
}

func (s *instrumentedStore) Get(ctx context.Context, slot string) ([]byte, error) {
	data, err := s.next.Get(ctx, slot)
	s.c.ObserveSlotOp(slot, "get", err)
	return data, err
}

func (s *instrumentedStore) Put(ctx context.Context, slot string, data []byte) error {
	err := s.next.Put(ctx, slot, data)
	s.c.ObserveSlotOp(slot, "put", err)
	return err
}

func (s *instrumentedStore) Delete(ctx context.Context, slot string) error {
	err := s.next.Delete(ctx, slot)
	s.c.ObserveSlotOp(slot, "delete", err)
	return err
}
