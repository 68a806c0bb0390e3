package prediction

import (
	"time"

	"github.com/ukydev/fleet-maintenance/internal/models"
)

// GatePolicy decides when an alert fires.
type GatePolicy struct {
	// DueWithinDays and DueWithinKm open the alert window; either is enough.
	DueWithinDays float64
	DueWithinKm   int
	// RearmAfter re-sends an alert for the same due reading once this much
	// time passed since the last one. Zero disables it.
	RearmAfter time.Duration
	// RearmDistance re-sends once the vehicle drove this far since the last
	// alert. Zero disables it.
	RearmDistance int
}

// DefaultGatePolicy is one week or 500 km, re-armed weekly or every 1000 km.
func DefaultGatePolicy() GatePolicy {
	return GatePolicy{
		DueWithinDays: 7,
		DueWithinKm:   500,
		RearmAfter:    7 * 24 * time.Hour,
		RearmDistance: 1000,
	}
}

// Decision is the gate outcome for one maintenance type.
type Decision struct {
	// Eligible means the channel is linked and the item is inside the window.
	Eligible bool
	// Fire means an alert should be sent now.
	Fire bool
	// Carry means the prior sent state applies to the new prediction.
	Carry bool
	// Dismissed means the driver cancelled an alert for this due reading.
	Dismissed bool
}

// Suppressed reports an eligible alert held back by a prior one.
func (d Decision) Suppressed() bool { return d.Eligible && !d.Fire }

// Dismiss holds back an alert the driver cancelled. Re-arming does not
// apply; a new service record moves the due reading and opens a new window.
func (d Decision) Dismiss() Decision {
	return Decision{Eligible: d.Eligible, Carry: d.Carry, Dismissed: true}
}

// Decide evaluates the gate. prior is the currently active prediction for
// the same vehicle and type, or nil.
func (g GatePolicy) Decide(channel string, proj Projection, nextDue, current int, prior *models.MaintenancePrediction, now time.Time) Decision {
	eligible := channel != "" &&
		(proj.Days <= g.DueWithinDays || proj.RemainingKm <= g.DueWithinKm)

	alreadySent := prior != nil &&
		prior.NotificationStatus == models.StatusSent &&
		prior.PredictedMileage == nextDue

	if alreadySent && !g.rearmed(prior, current, now) {
		return Decision{Eligible: eligible, Carry: true}
	}
	return Decision{Eligible: eligible, Fire: eligible}
}

func (g GatePolicy) rearmed(prior *models.MaintenancePrediction, current int, now time.Time) bool {
	if g.RearmAfter > 0 && prior.LastNotificationSent != nil &&
		now.Sub(*prior.LastNotificationSent) >= g.RearmAfter {
		return true
	}
	if g.RearmDistance > 0 && prior.LastNotifiedMileage > 0 &&
		current-prior.LastNotifiedMileage >= g.RearmDistance {
		return true
	}
	return false
}
