// Package events publishes prediction changes for downstream consumers
// (dashboards, fleet reporting). Publication is best effort: the engine logs
// failures and carries on.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// TypePredictionUpdated is emitted after an active prediction is replaced.
const TypePredictionUpdated = "prediction.updated"

// Event is the JSON payload written to every transport.
type Event struct {
	Type             string    `json:"type"`
	RunID            string    `json:"run_id"`
	VehicleID        string    `json:"vehicle_id"`
	MaintenanceType  string    `json:"maintenance_type"`
	PredictedDate    time.Time `json:"predicted_date"`
	PredictedMileage int       `json:"predicted_mileage"`
	RemainingKm      int       `json:"remaining_km"`
	Status           string    `json:"notification_status"`
	Confidence       float64   `json:"confidence_level"`
	Notified         bool      `json:"notified"`
	OccurredAt       time.Time `json:"occurred_at"`
}

// Key is used as the Kafka message key so one vehicle's events stay ordered.
func (e Event) Key() string {
	return e.VehicleID
}

func (e Event) payload() ([]byte, error) {
	return json.Marshal(e)
}

// Publisher emits events to a transport.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// Nop discards every event.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }

// Multi fans an event out to several publishers and joins their errors.
type Multi []Publisher

func (m Multi) Publish(ctx context.Context, e Event) error {
	var errs []error
	for _, p := range m {
		if err := p.Publish(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
