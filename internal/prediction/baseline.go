package prediction

import "github.com/ukydev/fleet-maintenance/internal/models"

// Confidence levels attached to a prediction.
const (
	ConfidenceHistory   = 0.9
	ConfidenceMilestone = 0.5
)

// Baseline is the odometer reading at which a maintenance type is next due.
type Baseline struct {
	NextDue     int
	Confidence  float64
	FromHistory bool
}

// ResolveBaseline derives the next due reading. With a prior service the
// interval is added to its reading. Without one the odometer is snapped to
// the next multiple of interval strictly above current, so a vehicle with no
// history is not reported as long overdue.
func ResolveBaseline(last *models.ServiceRecord, current, interval int) Baseline {
	if last != nil {
		return Baseline{
			NextDue:     last.MileageAtService + interval,
			Confidence:  ConfidenceHistory,
			FromHistory: true,
		}
	}
	next := interval
	if current > 0 {
		next = (current/interval + 1) * interval
	}
	return Baseline{NextDue: next, Confidence: ConfidenceMilestone}
}
