package notify

import (
	"fmt"
	"strings"
	"time"
)

// Alert carries the data rendered into a maintenance message.
type Alert struct {
	DriverName      string
	VehicleLabel    string
	MaintenanceType string
	DueDate         time.Time
	RemainingKm     int
}

// Format renders a into the plain-text message sent to the driver.
func Format(a Alert) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\n\n", a.DriverName)
	fmt.Fprintf(&b, "Maintenance reminder for your %s.\n", a.VehicleLabel)
	fmt.Fprintf(&b, "Service: %s\n", HumanType(a.MaintenanceType))
	fmt.Fprintf(&b, "Expected by: %s\n", a.DueDate.Format("2006-01-02"))
	if a.RemainingKm >= 0 {
		fmt.Fprintf(&b, "Remaining: %d km\n", a.RemainingKm)
	} else {
		fmt.Fprintf(&b, "Overdue by: %d km\n", -a.RemainingKm)
	}
	b.WriteString("\nPlease book a workshop visit soon.")
	return b.String()
}

// HumanType turns "tire_rotation" into "Tire rotation".
func HumanType(t string) string {
	s := strings.ReplaceAll(strings.TrimSpace(t), "_", " ")
	if s == "" {
		return "Maintenance"
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
