// Package metrics exposes Prometheus collectors for the prediction engine.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Notification outcomes.
const (
	NotifySent       = "sent"
	NotifySuppressed = "suppressed"
	NotifyFailed     = "failed"
)

// Recorder records engine activity in Prometheus metrics.
type Recorder struct {
	runs          *prometheus.CounterVec
	runDuration   prometheus.Histogram
	typeFailures  *prometheus.CounterVec
	notifications *prometheus.CounterVec
	predictions   *prometheus.CounterVec
	sweeps        prometheus.Counter
}

// New registers on the default registerer.
func New() (*Recorder, error) {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry registers the collectors on reg. If they are already
// registered the existing ones are reused.
func NewWithRegistry(reg prometheus.Registerer) (*Recorder, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	r := &Recorder{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "maintenance",
			Name:      "recalculations_total",
			Help:      "Vehicle recalculations by outcome (ok, partial, not_found, failed).",
		}, []string{"outcome"}),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "maintenance",
			Name:      "recalculation_duration_seconds",
			Help:      "Wall time of a full vehicle recalculation.",
			Buckets:   prometheus.DefBuckets,
		}),
		typeFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "maintenance",
			Name:      "type_failures_total",
			Help:      "Per maintenance type pipeline failures by error kind.",
		}, []string{"maintenance_type", "kind"}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "maintenance",
			Name:      "notifications_total",
			Help:      "Alert decisions by result.",
		}, []string{"maintenance_type", "result"}),
		predictions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "maintenance",
			Name:      "predictions_written_total",
			Help:      "Active predictions written.",
		}, []string{"maintenance_type"}),
		sweeps: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "maintenance",
			Name:      "sweeps_total",
			Help:      "Completed periodic sweeps.",
		}),
	}

	var err error
	if r.runs, err = register(reg, r.runs); err != nil {
		return nil, err
	}
	if r.runDuration, err = register(reg, r.runDuration); err != nil {
		return nil, err
	}
	if r.typeFailures, err = register(reg, r.typeFailures); err != nil {
		return nil, err
	}
	if r.notifications, err = register(reg, r.notifications); err != nil {
		return nil, err
	}
	if r.predictions, err = register(reg, r.predictions); err != nil {
		return nil, err
	}
	if r.sweeps, err = register(reg, r.sweeps); err != nil {
		return nil, err
	}
	return r, nil
}

func register[T prometheus.Collector](reg prometheus.Registerer, c T) (T, error) {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

func (r *Recorder) ObserveRun(outcome string, d time.Duration) {
	r.runs.WithLabelValues(outcome).Inc()
	r.runDuration.Observe(d.Seconds())
}

func (r *Recorder) TypeFailure(maintenanceType, kind string) {
	r.typeFailures.WithLabelValues(maintenanceType, kind).Inc()
}

func (r *Recorder) Notification(maintenanceType, result string) {
	r.notifications.WithLabelValues(maintenanceType, result).Inc()
}

func (r *Recorder) PredictionWritten(maintenanceType string) {
	r.predictions.WithLabelValues(maintenanceType).Inc()
}

func (r *Recorder) SweepCompleted() {
	r.sweeps.Inc()
}
