// Package metrics exports entity lifecycle events as Prometheus metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/roach88/fieldset/internal/catalog"
	"github.com/roach88/fieldset/internal/entity"
)

const namespace = "fieldset"

// Recorder implements entity.Observer with Prometheus collectors.
// Safe for concurrent use.
type Recorder struct {
	Pushes           *prometheus.CounterVec
	Pops             *prometheus.CounterVec
	Condensed        *prometheus.CounterVec
	Depth            *prometheus.HistogramVec
	StateTransitions *prometheus.CounterVec
	ValidationErrors *prometheus.CounterVec
}

var _ entity.Observer = (*Recorder)(nil)

// NewRecorder registers the collectors with reg. Pass
// prometheus.NewRegistry() in tests so runs do not collide.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		Pushes: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "history",
			Name:      "pushes_total",
			Help:      "History steps pushed, by entity type.",
		}, []string{"type"}),
		Pops: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "history",
			Name:      "pops_total",
			Help:      "History steps popped, including discarded no-op edits.",
		}, []string{"type"}),
		Condensed: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "history",
			Name:      "condensed_snapshots_total",
			Help:      "Snapshots discarded by condense and trim.",
		}, []string{"type"}),
		Depth: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "history",
			Name:      "depth",
			Help:      "History depth observed after each push.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 8),
		}, []string{"type"}),
		StateTransitions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "entity",
			Name:      "state_transitions_total",
			Help:      "Data state transitions, by entity type and states.",
		}, []string{"type", "from", "to"}),
		ValidationErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "entity",
			Name:      "validation_errors_total",
			Help:      "Validation messages recorded, by entity type and field.",
		}, []string{"type", "field"}),
	}
}

func (r *Recorder) HistoryPushed(typ catalog.TypeID, depth int) {
	r.Pushes.WithLabelValues(string(typ)).Inc()
	r.Depth.WithLabelValues(string(typ)).Observe(float64(depth))
}

func (r *Recorder) HistoryPopped(typ catalog.TypeID, _ int) {
	r.Pops.WithLabelValues(string(typ)).Inc()
}

func (r *Recorder) HistoryCondensed(typ catalog.TypeID, removed int) {
	r.Condensed.WithLabelValues(string(typ)).Add(float64(removed))
}

func (r *Recorder) StateChanged(typ catalog.TypeID, from, to entity.DataState) {
	r.StateTransitions.WithLabelValues(string(typ), from.String(), to.String()).Inc()
}

func (r *Recorder) ErrorAdded(typ catalog.TypeID, field catalog.FieldID) {
	r.ValidationErrors.WithLabelValues(string(typ), string(field)).Inc()
}
