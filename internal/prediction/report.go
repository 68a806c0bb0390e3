package prediction

import (
	"fmt"
	"time"

	"github.com/ukydev/fleet-maintenance/internal/models"
)

// Kind classifies a stage failure.
type Kind int

const (
	KindNotFound Kind = iota + 1
	KindStore
	KindDelivery
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindStore:
		return "store"
	case KindDelivery:
		return "delivery"
	default:
		return "unknown"
	}
}

// StageError records which step of a run failed.
type StageError struct {
	Kind            Kind
	Stage           string
	MaintenanceType string
	Err             error
}

func (e *StageError) Error() string {
	if e.MaintenanceType != "" {
		return fmt.Sprintf("%s [%s] %s: %v", e.Stage, e.MaintenanceType, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Stage, e.Kind, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// Run outcomes, also used as metric labels.
const (
	OutcomeOK       = "ok"
	OutcomePartial  = "partial"
	OutcomeNotFound = "not_found"
	OutcomeFailed   = "failed"
)

// TypeResult is the result of one maintenance type pipeline.
type TypeResult struct {
	MaintenanceType string
	Prediction      *models.MaintenancePrediction
	RemainingKm     int
	Notified        bool
	Suppressed      bool
	// Err is set when a store stage failed. Prediction is nil unless the
	// failure came after the prediction was written.
	Err *StageError
	// DeliveryErr is set when an alert failed; the prediction is still written.
	DeliveryErr *StageError
}

// Report summarises one Engine.Run.
type Report struct {
	RunID     string
	VehicleID string
	StartedAt time.Time
	Duration  time.Duration
	// Err is a vehicle-level failure; no type was processed.
	Err      *StageError
	Warnings []*StageError
	Results  []TypeResult
}

// Errors returns every stage error in the report.
func (r *Report) Errors() []*StageError {
	var out []*StageError
	if r.Err != nil {
		out = append(out, r.Err)
	}
	out = append(out, r.Warnings...)
	for _, res := range r.Results {
		if res.Err != nil {
			out = append(out, res.Err)
		}
		if res.DeliveryErr != nil {
			out = append(out, res.DeliveryErr)
		}
	}
	return out
}

// Outcome condenses the report into one label.
func (r *Report) Outcome() string {
	if r.Err != nil {
		if r.Err.Kind == KindNotFound {
			return OutcomeNotFound
		}
		return OutcomeFailed
	}
	if len(r.Errors()) > 0 {
		return OutcomePartial
	}
	return OutcomeOK
}

// Result returns the result for maintenanceType.
func (r *Report) Result(maintenanceType string) (TypeResult, bool) {
	for _, res := range r.Results {
		if res.MaintenanceType == maintenanceType {
			return res, true
		}
	}
	return TypeResult{}, false
}

// Notifications counts alerts delivered during the run.
func (r *Report) Notifications() int {
	n := 0
	for _, res := range r.Results {
		if res.Notified {
			n++
		}
	}
	return n
}
