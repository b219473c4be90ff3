package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// SyncMetrics records engine and channel activity.
type SyncMetrics struct {
	refetches       *prometheus.CounterVec
	mutations       *prometheus.CounterVec
	optimisticBumps prometheus.Counter
	realtimeEvents  *prometheus.CounterVec
	reconnects      prometheus.Counter
	refetchDuration prometheus.Histogram
}

// NewSyncMetrics registers the sync metrics on the provided registerer.
func NewSyncMetrics(reg prometheus.Registerer) *SyncMetrics {
	if reg == nil {
		return &SyncMetrics{}
	}
	refetches := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_refetch_total",
		Help: "Authoritative cart refetches by outcome.",
	}, []string{"outcome"})
	mutations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_mutation_total",
		Help: "Cart mutations by operation and outcome.",
	}, []string{"op", "outcome"})
	optimisticBumps := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cart_optimistic_bump_total",
		Help: "Optimistic counter pre-increments applied before server confirmation.",
	})
	realtimeEvents := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "realtime_event_total",
		Help: "Inbound realtime events by topic.",
	}, []string{"topic"})
	reconnects := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "realtime_connect_total",
		Help: "Realtime connection attempts.",
	})
	refetchDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cart_refetch_duration_seconds",
		Help:    "Duration of authoritative refetches in seconds.",
		Buckets: prometheus.DefBuckets,
	})
	reg.MustRegister(refetches, mutations, optimisticBumps, realtimeEvents, reconnects, refetchDuration)
	return &SyncMetrics{
		refetches:       refetches,
		mutations:       mutations,
		optimisticBumps: optimisticBumps,
		realtimeEvents:  realtimeEvents,
		reconnects:      reconnects,
		refetchDuration: refetchDuration,
	}
}

// IncRefetch increments the refetch counter for the given outcome.
func (m *SyncMetrics) IncRefetch(outcome string) {
	if m == nil || m.refetches == nil {
		return
	}
	m.refetches.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// IncMutation increments the mutation counter for the operation/outcome pair.
func (m *SyncMetrics) IncMutation(op, outcome string) {
	if m == nil || m.mutations == nil {
		return
	}
	m.mutations.WithLabelValues(normalizeLabel(op), normalizeLabel(outcome)).Inc()
}

// IncOptimisticBump increments the optimistic pre-increment counter.
func (m *SyncMetrics) IncOptimisticBump() {
	if m == nil || m.optimisticBumps == nil {
		return
	}
	m.optimisticBumps.Inc()
}

// IncRealtimeEvent increments the inbound event counter for the topic.
func (m *SyncMetrics) IncRealtimeEvent(topic string) {
	if m == nil || m.realtimeEvents == nil {
		return
	}
	m.realtimeEvents.WithLabelValues(normalizeLabel(topic)).Inc()
}

// IncReconnect increments the connection attempt counter.
func (m *SyncMetrics) IncReconnect() {
	if m == nil || m.reconnects == nil {
		return
	}
	m.reconnects.Inc()
}

// ObserveRefetchDuration records how long a refetch took.
func (m *SyncMetrics) ObserveRefetchDuration(duration time.Duration) {
	if m == nil || m.refetchDuration == nil {
		return
	}
	m.refetchDuration.Observe(duration.Seconds())
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
