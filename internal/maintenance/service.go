// Package maintenance holds the operations that change a vehicle's odometer,
// service history or predictions, and re-trigger the prediction engine.
package maintenance

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/fleet-maintenance/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	// ErrMileageNotIncreasing is returned when an odometer update does not
	// move forward.
	ErrMileageNotIncreasing = errors.New("new mileage must be greater than current mileage")
	// ErrInvalidRecord is returned for a service record with missing fields.
	ErrInvalidRecord = errors.New("invalid service record")
	// ErrAccessDenied is returned when the caller does not own the vehicle.
	ErrAccessDenied = errors.New("access denied")
)

// Store is the record store capability used by the service.
type Store interface {
	FindVehicleByID(ctx context.Context, id string) (*models.Vehicle, error)
	UpdateMileage(ctx context.Context, id primitive.ObjectID, mileage int) error
	InsertServiceRecord(ctx context.Context, record *models.ServiceRecord) error
	FindServiceRecordByID(ctx context.Context, id string) (*models.ServiceRecord, error)
	FindServiceRecords(ctx context.Context, vehicleID primitive.ObjectID) ([]models.ServiceRecord, error)
	FindHighestServiceMileage(ctx context.Context, vehicleID primitive.ObjectID) (int, bool, error)
	DeleteServiceRecord(ctx context.Context, id primitive.ObjectID) error
	FindPredictionByID(ctx context.Context, id string) (*models.MaintenancePrediction, error)
	FindPredictions(ctx context.Context, vehicleID primitive.ObjectID, activeOnly bool) ([]models.MaintenancePrediction, error)
	ClosePrediction(ctx context.Context, id primitive.ObjectID, status models.NotificationStatus) error
}

// Recalculator re-runs predictions for a vehicle.
type Recalculator interface {
	Recalculate(ctx context.Context, vehicleID string)
}

// Service implements the maintenance triggers.
type Service struct {
	store  Store
	engine Recalculator
	logger log.FieldLogger
	now    func() time.Time
}

// NewService creates a Service. A nil logger uses the standard logger.
func NewService(store Store, engine Recalculator, logger log.FieldLogger) *Service {
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Service{
		store:  store,
		engine: engine,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// ServiceRecordInput is the caller-supplied part of a service record.
type ServiceRecordInput struct {
	ServiceType      string
	ServiceDate      time.Time
	MileageAtService int
	Cost             float64
	ServiceProvider  string
	ServiceLocation  string
	Notes            string
	CreatedBy        primitive.ObjectID
}

func (in ServiceRecordInput) validate() error {
	if strings.TrimSpace(in.ServiceType) == "" {
		return fmt.Errorf("%w: service_type is required", ErrInvalidRecord)
	}
	if in.MileageAtService < 0 {
		return fmt.Errorf("%w: mileage_at_service must not be negative", ErrInvalidRecord)
	}
	if in.Cost < 0 {
		return fmt.Errorf("%w: cost must not be negative", ErrInvalidRecord)
	}
	return nil
}

// vehicle loads a vehicle and, when ownerID is set, checks ownership.
func (s *Service) vehicle(ctx context.Context, vehicleID, ownerID string) (*models.Vehicle, error) {
	v, err := s.store.FindVehicleByID(ctx, vehicleID)
	if err != nil {
		return nil, err
	}
	if ownerID != "" && v.UserID.Hex() != ownerID {
		return nil, ErrAccessDenied
	}
	return v, nil
}

// ListPredictions returns a vehicle's predictions, soonest first.
func (s *Service) ListPredictions(ctx context.Context, vehicleID, ownerID string, activeOnly bool) ([]models.MaintenancePrediction, error) {
	v, err := s.vehicle(ctx, vehicleID, ownerID)
	if err != nil {
		return nil, err
	}
	return s.store.FindPredictions(ctx, v.ID, activeOnly)
}

// ListServiceRecords returns a vehicle's service history, newest first.
func (s *Service) ListServiceRecords(ctx context.Context, vehicleID, ownerID string) ([]models.ServiceRecord, error) {
	v, err := s.vehicle(ctx, vehicleID, ownerID)
	if err != nil {
		return nil, err
	}
	return s.store.FindServiceRecords(ctx, v.ID)
}

// UpdateMileage records a new odometer reading and recalculates.
func (s *Service) UpdateMileage(ctx context.Context, vehicleID string, mileage int) (*models.Vehicle, error) {
	v, err := s.store.FindVehicleByID(ctx, vehicleID)
	if err != nil {
		return nil, err
	}
	if mileage <= v.CurrentMileage {
		return nil, ErrMileageNotIncreasing
	}
	if err := s.store.UpdateMileage(ctx, v.ID, mileage); err != nil {
		return nil, fmt.Errorf("update mileage: %w", err)
	}
	v.CurrentMileage = mileage
	v.LastMileageUpdate = s.now()

	s.logger.WithFields(log.Fields{"vehicle_id": vehicleID, "mileage": mileage}).Info("Mileage updated")
	s.engine.Recalculate(ctx, vehicleID)
	return v, nil
}

// AddServiceRecord stores a completed service. A reading above the current
// odometer moves the odometer forward.
func (s *Service) AddServiceRecord(ctx context.Context, vehicleID string, in ServiceRecordInput) (*models.ServiceRecord, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	v, err := s.store.FindVehicleByID(ctx, vehicleID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	record := &models.ServiceRecord{
		VehicleID:        v.ID,
		ServiceType:      strings.TrimSpace(in.ServiceType),
		ServiceDate:      in.ServiceDate,
		MileageAtService: in.MileageAtService,
		Cost:             in.Cost,
		ServiceProvider:  in.ServiceProvider,
		ServiceLocation:  in.ServiceLocation,
		Notes:            in.Notes,
		CreatedAt:        now,
		CreatedBy:        in.CreatedBy,
	}
	if record.ServiceDate.IsZero() {
		record.ServiceDate = now
	}
	if err := s.store.InsertServiceRecord(ctx, record); err != nil {
		return nil, fmt.Errorf("insert service record: %w", err)
	}

	if record.MileageAtService > v.CurrentMileage {
		if err := s.store.UpdateMileage(ctx, v.ID, record.MileageAtService); err != nil {
			return nil, fmt.Errorf("update mileage: %w", err)
		}
	}

	s.logger.WithFields(log.Fields{
		"vehicle_id":   vehicleID,
		"service_type": record.ServiceType,
		"mileage":      record.MileageAtService,
	}).Info("Service record added")
	s.engine.Recalculate(ctx, vehicleID)
	return record, nil
}

// DeleteServiceRecord removes a record and rolls the odometer back to the
// highest remaining record, never below the initial reading. It returns the
// new odometer reading.
func (s *Service) DeleteServiceRecord(ctx context.Context, recordID string) (int, error) {
	record, err := s.store.FindServiceRecordByID(ctx, recordID)
	if err != nil {
		return 0, err
	}
	v, err := s.store.FindVehicleByID(ctx, record.VehicleID.Hex())
	if err != nil {
		return 0, err
	}
	if err := s.store.DeleteServiceRecord(ctx, record.ID); err != nil {
		return 0, fmt.Errorf("delete service record: %w", err)
	}

	highest, _, err := s.store.FindHighestServiceMileage(ctx, v.ID)
	if err != nil {
		return 0, fmt.Errorf("highest service mileage: %w", err)
	}
	mileage := max(v.InitialMileage, highest)
	if err := s.store.UpdateMileage(ctx, v.ID, mileage); err != nil {
		return 0, fmt.Errorf("update mileage: %w", err)
	}

	s.logger.WithFields(log.Fields{
		"vehicle_id": v.ID.Hex(),
		"record_id":  recordID,
		"mileage":    mileage,
	}).Info("Service record deleted, mileage rolled back")
	s.engine.Recalculate(ctx, v.ID.Hex())
	return mileage, nil
}

// CompletePrediction marks a prediction done: a service record is created at
// the current odometer reading, the prediction is closed as completed and
// the next one is calculated.
func (s *Service) CompletePrediction(ctx context.Context, predictionID, ownerID string) (*models.ServiceRecord, error) {
	p, err := s.store.FindPredictionByID(ctx, predictionID)
	if err != nil {
		return nil, err
	}
	v, err := s.vehicle(ctx, p.VehicleID.Hex(), ownerID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	record := &models.ServiceRecord{
		VehicleID:        v.ID,
		ServiceType:      p.MaintenanceType,
		ServiceDate:      now,
		MileageAtService: v.CurrentMileage,
		ServiceProvider:  "Self/Unknown",
		Notes:            "Completed from maintenance reminder",
		CreatedAt:        now,
	}
	if ownerID != "" {
		if oid, err := primitive.ObjectIDFromHex(ownerID); err == nil {
			record.CreatedBy = oid
		}
	}
	if err := s.store.InsertServiceRecord(ctx, record); err != nil {
		return nil, fmt.Errorf("insert service record: %w", err)
	}
	if err := s.store.ClosePrediction(ctx, p.ID, models.StatusCompleted); err != nil {
		return nil, fmt.Errorf("close prediction: %w", err)
	}

	s.logger.WithFields(log.Fields{
		"vehicle_id":       v.ID.Hex(),
		"maintenance_type": p.MaintenanceType,
	}).Info("Prediction completed")
	s.engine.Recalculate(ctx, v.ID.Hex())
	return record, nil
}

// CancelPrediction dismisses a prediction without recalculating.
func (s *Service) CancelPrediction(ctx context.Context, predictionID, ownerID string) error {
	p, err := s.store.FindPredictionByID(ctx, predictionID)
	if err != nil {
		return err
	}
	if _, err := s.vehicle(ctx, p.VehicleID.Hex(), ownerID); err != nil {
		return err
	}
	if err := s.store.ClosePrediction(ctx, p.ID, models.StatusCancelled); err != nil {
		return fmt.Errorf("close prediction: %w", err)
	}
	s.logger.WithFields(log.Fields{
		"vehicle_id":       p.VehicleID.Hex(),
		"maintenance_type": p.MaintenanceType,
	}).Info("Prediction cancelled")
	return nil
}
