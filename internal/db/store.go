package db

import (
	"context"
	"time"

	"github.com/ukydev/fleet-maintenance/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Store groups the collections behind a single value so callers can depend
// on one narrow interface instead of four collections.
type Store struct {
	Vehicles       VehicleCollection
	Users          UserCollection
	ServiceRecords ServiceRecordCollection
	Predictions    PredictionCollection
}

func (s *Store) FindVehicleByID(ctx context.Context, id string) (*models.Vehicle, error) {
	return s.Vehicles.FindVehicleByID(ctx, id)
}

func (s *Store) FindActiveVehicleIDs(ctx context.Context) ([]string, error) {
	return s.Vehicles.FindActiveVehicleIDs(ctx)
}

func (s *Store) UpdateMileage(ctx context.Context, id primitive.ObjectID, mileage int) error {
	return s.Vehicles.UpdateMileage(ctx, id, mileage)
}

func (s *Store) FindUserByID(ctx context.Context, id string) (*models.User, error) {
	return s.Users.FindUserByID(ctx, id)
}

func (s *Store) InsertServiceRecord(ctx context.Context, record *models.ServiceRecord) error {
	return s.ServiceRecords.InsertServiceRecord(ctx, record)
}

func (s *Store) FindServiceRecordByID(ctx context.Context, id string) (*models.ServiceRecord, error) {
	return s.ServiceRecords.FindServiceRecordByID(ctx, id)
}

func (s *Store) FindServiceRecords(ctx context.Context, vehicleID primitive.ObjectID) ([]models.ServiceRecord, error) {
	return s.ServiceRecords.FindServiceRecords(ctx, vehicleID)
}

func (s *Store) FindLatestServiceRecord(ctx context.Context, vehicleID primitive.ObjectID, serviceType string) (*models.ServiceRecord, error) {
	return s.ServiceRecords.FindLatestServiceRecord(ctx, vehicleID, serviceType)
}

func (s *Store) FindHighestServiceMileage(ctx context.Context, vehicleID primitive.ObjectID) (int, bool, error) {
	return s.ServiceRecords.FindHighestServiceMileage(ctx, vehicleID)
}

func (s *Store) DeleteServiceRecord(ctx context.Context, id primitive.ObjectID) error {
	return s.ServiceRecords.DeleteServiceRecord(ctx, id)
}

func (s *Store) FindPredictionByID(ctx context.Context, id string) (*models.MaintenancePrediction, error) {
	return s.Predictions.FindPredictionByID(ctx, id)
}

func (s *Store) FindPredictions(ctx context.Context, vehicleID primitive.ObjectID, activeOnly bool) ([]models.MaintenancePrediction, error) {
	return s.Predictions.FindPredictions(ctx, vehicleID, activeOnly)
}

func (s *Store) FindActivePrediction(ctx context.Context, vehicleID primitive.ObjectID, maintenanceType string) (*models.MaintenancePrediction, error) {
	return s.Predictions.FindActivePrediction(ctx, vehicleID, maintenanceType)
}

func (s *Store) ReplaceActivePrediction(ctx context.Context, p *models.MaintenancePrediction) error {
	return s.Predictions.ReplaceActivePrediction(ctx, p)
}

func (s *Store) FindDismissedPrediction(ctx context.Context, vehicleID primitive.ObjectID, maintenanceType string, predictedMileage int) (*models.MaintenancePrediction, error) {
	return s.Predictions.FindDismissedPrediction(ctx, vehicleID, maintenanceType, predictedMileage)
}

func (s *Store) MarkPredictionNotified(ctx context.Context, id primitive.ObjectID, sentAt time.Time, mileage int) error {
	return s.Predictions.MarkPredictionNotified(ctx, id, sentAt, mileage)
}

func (s *Store) ClosePrediction(ctx context.Context, id primitive.ObjectID, status models.NotificationStatus) error {
	return s.Predictions.ClosePrediction(ctx, id, status)
}
