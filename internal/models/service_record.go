package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
	"time"
)

// Maintenance type tags shared by service records and predictions.
const (
	ServiceOilChange    = "oil_change"
	ServiceTireRotation = "tire_rotation"
	ServiceAirFilter    = "air_filter"
	ServiceBrakeService = "brake_service"
	ServiceBattery      = "battery"
	ServiceTimingBelt   = "timing_belt"
	ServiceOther        = "other"
)

// ServiceRecord represents a maintenance event performed on a vehicle.
type ServiceRecord struct {
	ID               primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	VehicleID        primitive.ObjectID `json:"vehicle_id" bson:"vehicle_id"`
	ServiceType      string             `json:"service_type" bson:"service_type"` // "oil_change", "tire_rotation", "brake_service", ...
	ServiceDate      time.Time          `json:"service_date" bson:"service_date"`
	MileageAtService int                `json:"mileage_at_service" bson:"mileage_at_service"` // in kilometers
	Cost             float64            `json:"cost" bson:"cost"`
	ServiceProvider  string             `json:"service_provider,omitempty" bson:"service_provider,omitempty"`
	ServiceLocation  string             `json:"service_location,omitempty" bson:"service_location,omitempty"`
	Notes            string             `json:"notes,omitempty" bson:"notes,omitempty"`
	CreatedAt        time.Time          `json:"created_at" bson:"created_at"`
	CreatedBy        primitive.ObjectID `json:"created_by" bson:"created_by,omitempty"`
}
