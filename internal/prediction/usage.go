package prediction

import "time"

const (
	// MinOwnershipDays is how long a vehicle must be owned before its own
	// history is trusted for the usage rate.
	MinOwnershipDays = 7
	// DefaultAnnualDistance is the fallback yearly distance in km.
	DefaultAnnualDistance = 15000
)

// DefaultDailyRate is DefaultAnnualDistance spread over a year.
const DefaultDailyRate = float64(DefaultAnnualDistance) / 365

// UsageRate returns the average km per day driven since the vehicle was
// registered. Young vehicles and vehicles with no accumulated distance fall
// back to DefaultDailyRate.
func UsageRate(createdAt time.Time, initial, current int, now time.Time) float64 {
	daysOwned := int(now.Sub(createdAt) / (24 * time.Hour))
	accumulated := current - initial
	if daysOwned > MinOwnershipDays && accumulated > 0 {
		return float64(accumulated) / float64(daysOwned)
	}
	return DefaultDailyRate
}
