package models

import (
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Vehicle represents a tracked vehicle and its odometer state.
type Vehicle struct {
	ID                primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID            primitive.ObjectID `bson:"user_id" json:"user_id"`
	Manufacturer      string             `bson:"manufacturer" json:"manufacturer"`
	Model             string             `bson:"model" json:"model"`
	Year              int                `bson:"year" json:"year"`
	LicensePlate      string             `bson:"license_plate" json:"license_plate"`
	InitialMileage    int                `bson:"initial_mileage" json:"initial_mileage"` // in kilometers
	CurrentMileage    int                `bson:"current_mileage" json:"current_mileage"` // in kilometers
	LastMileageUpdate time.Time          `bson:"last_mileage_update" json:"last_mileage_update"`
	IsActive          bool               `bson:"is_active" json:"is_active"`
	CreatedAt         time.Time          `bson:"created_at" json:"created_at"`
}

// Label returns a short human-readable name such as "Toyota Corolla (ABC-123)".
func (v *Vehicle) Label() string {
	name := strings.TrimSpace(v.Manufacturer + " " + v.Model)
	if name == "" {
		name = "Vehicle"
	}
	if v.LicensePlate == "" {
		return name
	}
	return fmt.Sprintf("%s (%s)", name, v.LicensePlate)
}
