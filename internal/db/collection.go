package db

import (
	"context"
	"time"

	"github.com/ukydev/fleet-maintenance/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// VehicleCollection defines the vehicle operations the prediction service needs.
type VehicleCollection interface {
	FindVehicleByID(ctx context.Context, id string) (*models.Vehicle, error)
	FindActiveVehicleIDs(ctx context.Context) ([]string, error)
	UpdateMileage(ctx context.Context, id primitive.ObjectID, mileage int) error
}

// UserCollection defines the interface for user lookups.
type UserCollection interface {
	FindUserByID(ctx context.Context, id string) (*models.User, error)
}

// ServiceRecordCollection defines the interface for service history operations.
type ServiceRecordCollection interface {
	InsertServiceRecord(ctx context.Context, record *models.ServiceRecord) error
	FindServiceRecordByID(ctx context.Context, id string) (*models.ServiceRecord, error)
	FindServiceRecords(ctx context.Context, vehicleID primitive.ObjectID) ([]models.ServiceRecord, error)
	FindLatestServiceRecord(ctx context.Context, vehicleID primitive.ObjectID, serviceType string) (*models.ServiceRecord, error)
	FindHighestServiceMileage(ctx context.Context, vehicleID primitive.ObjectID) (int, bool, error)
	DeleteServiceRecord(ctx context.Context, id primitive.ObjectID) error
}

// PredictionCollection defines the interface for maintenance prediction operations.
type PredictionCollection interface {
	FindPredictionByID(ctx context.Context, id string) (*models.MaintenancePrediction, error)
	FindPredictions(ctx context.Context, vehicleID primitive.ObjectID, activeOnly bool) ([]models.MaintenancePrediction, error)
	FindActivePrediction(ctx context.Context, vehicleID primitive.ObjectID, maintenanceType string) (*models.MaintenancePrediction, error)
	FindDismissedPrediction(ctx context.Context, vehicleID primitive.ObjectID, maintenanceType string, predictedMileage int) (*models.MaintenancePrediction, error)
	ReplaceActivePrediction(ctx context.Context, prediction *models.MaintenancePrediction) error
	MarkPredictionNotified(ctx context.Context, id primitive.ObjectID, sentAt time.Time, mileage int) error
	ClosePrediction(ctx context.Context, id primitive.ObjectID, status models.NotificationStatus) error
}
