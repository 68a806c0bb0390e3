package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// NotificationStatus tracks the alert lifecycle of a prediction.
type NotificationStatus string

const (
	StatusPending   NotificationStatus = "pending"
	StatusSent      NotificationStatus = "sent"
	StatusCompleted NotificationStatus = "completed"
	StatusCancelled NotificationStatus = "cancelled"
)

// IsValid reports whether s is one of the known statuses.
func (s NotificationStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusSent, StatusCompleted, StatusCancelled:
		return true
	default:
		return false
	}
}

// MaintenancePrediction is one computed estimate of when a maintenance type
// next becomes due. Superseded predictions stay in the collection with
// IsActive=false.
type MaintenancePrediction struct {
	ID                   primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	VehicleID            primitive.ObjectID `bson:"vehicle_id" json:"vehicle_id"`
	MaintenanceType      string             `bson:"maintenance_type" json:"maintenance_type"`
	PredictedDate        time.Time          `bson:"predicted_date" json:"predicted_date"`
	PredictedMileage     int                `bson:"predicted_mileage" json:"predicted_mileage"`
	CalculatedAt         time.Time          `bson:"calculated_at" json:"calculated_at"`
	NotificationStatus   NotificationStatus `bson:"notification_status" json:"notification_status"`
	LastNotificationSent *time.Time         `bson:"last_notification_sent,omitempty" json:"last_notification_sent,omitempty"`
	LastNotifiedMileage  int                `bson:"last_notified_mileage,omitempty" json:"last_notified_mileage,omitempty"`
	ConfidenceLevel      float64            `bson:"confidence_level" json:"confidence_level"`
	IsActive             bool               `bson:"is_active" json:"is_active"`
}
