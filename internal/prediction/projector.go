package prediction

import "time"

const (
	// NoUsageDays is the horizon used when the usage rate is not positive.
	NoUsageDays = 365
	// MaxProjectionDays caps projections so very low usage rates cannot
	// overflow time.Duration.
	MaxProjectionDays = 100 * 365
)

// Projection is where and when a maintenance type becomes due.
type Projection struct {
	RemainingKm int
	Days        float64
	Date        time.Time
}

// Overdue reports whether the due reading has already been passed.
func (p Projection) Overdue() bool { return p.RemainingKm < 0 }

// Project converts the remaining distance into a calendar date. Overdue
// items are dated now.
func Project(nextDue, current int, rate float64, now time.Time) Projection {
	remaining := nextDue - current

	days := float64(NoUsageDays)
	if rate > 0 {
		days = float64(remaining) / rate
	}
	if days < 0 {
		days = 0
	}
	if days > MaxProjectionDays {
		days = MaxProjectionDays
	}

	return Projection{
		RemainingKm: remaining,
		Days:        days,
		Date:        now.Add(time.Duration(days * float64(24*time.Hour))),
	}
}
