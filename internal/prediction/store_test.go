package prediction

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/ukydev/fleet-maintenance/internal/db"
	"github.com/ukydev/fleet-maintenance/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// memStore is an in-memory Store used by the engine tests.
type memStore struct {
	mu          sync.Mutex
	vehicles    map[string]*models.Vehicle
	users       map[string]*models.User
	records     []models.ServiceRecord
	predictions []models.MaintenancePrediction

	failReplace map[string]error
	failHistory map[string]error
	failUser    error
	failMark    error
}

func newMemStore() *memStore {
	return &memStore{
		vehicles:    make(map[string]*models.Vehicle),
		users:       make(map[string]*models.User),
		failReplace: make(map[string]error),
		failHistory: make(map[string]error),
	}
}

func (s *memStore) addVehicle(v *models.Vehicle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vehicles[v.ID.Hex()] = v
}

func (s *memStore) addUser(u *models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID.Hex()] = u
}

func (s *memStore) addRecord(r models.ServiceRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r.ID = primitive.NewObjectID()
	s.records = append(s.records, r)
}

func (s *memStore) FindVehicleByID(_ context.Context, id string) (*models.Vehicle, error) {
	if _, err := primitive.ObjectIDFromHex(id); err != nil {
		return nil, fmt.Errorf("vehicle ID %q: %w", id, db.ErrInvalidID)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.vehicles[id]
	if !ok {
		return nil, fmt.Errorf("vehicle: %w", db.ErrNotFound)
	}
	cp := *v
	return &cp, nil
}

func (s *memStore) FindUserByID(_ context.Context, id string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failUser != nil {
		return nil, s.failUser
	}
	u, ok := s.users[id]
	if !ok {
		return nil, fmt.Errorf("user: %w", db.ErrNotFound)
	}
	cp := *u
	return &cp, nil
}

func (s *memStore) FindLatestServiceRecord(_ context.Context, vehicleID primitive.ObjectID, serviceType string) (*models.ServiceRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failHistory[serviceType]; err != nil {
		return nil, err
	}
	var latest *models.ServiceRecord
	for i := range s.records {
		r := s.records[i]
		if r.VehicleID != vehicleID || r.ServiceType != serviceType {
			continue
		}
		if latest == nil || r.ServiceDate.After(latest.ServiceDate) {
			latest = &r
		}
	}
	return latest, nil
}

func (s *memStore) FindActivePrediction(_ context.Context, vehicleID primitive.ObjectID, maintenanceType string) (*models.MaintenancePrediction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.predictions {
		p := s.predictions[i]
		if p.IsActive && p.VehicleID == vehicleID && p.MaintenanceType == maintenanceType {
			return &p, nil
		}
	}
	return nil, nil
}

func (s *memStore) ReplaceActivePrediction(_ context.Context, p *models.MaintenancePrediction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failReplace[p.MaintenanceType]; err != nil {
		return err
	}
	for i := range s.predictions {
		q := &s.predictions[i]
		if q.IsActive && q.VehicleID == p.VehicleID && q.MaintenanceType == p.MaintenanceType {
			q.IsActive = false
		}
	}
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	p.IsActive = true
	s.predictions = append(s.predictions, *p)
	return nil
}

func (s *memStore) FindDismissedPrediction(_ context.Context, vehicleID primitive.ObjectID, maintenanceType string, predictedMileage int) (*models.MaintenancePrediction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.predictions) - 1; i >= 0; i-- {
		p := s.predictions[i]
		if p.VehicleID == vehicleID && p.MaintenanceType == maintenanceType &&
			p.PredictedMileage == predictedMileage && p.NotificationStatus == models.StatusCancelled {
			return &p, nil
		}
	}
	return nil, nil
}

func (s *memStore) MarkPredictionNotified(_ context.Context, id primitive.ObjectID, sentAt time.Time, mileage int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failMark != nil {
		return s.failMark
	}
	for i := range s.predictions {
		q := &s.predictions[i]
		if q.ID == id && q.IsActive {
			q.NotificationStatus = models.StatusSent
			q.LastNotificationSent = &sentAt
			q.LastNotifiedMileage = mileage
			return nil
		}
	}
	return fmt.Errorf("active prediction: %w", db.ErrNotFound)
}

// cancel closes the active prediction for t the way a dismissed reminder does.
func (s *memStore) cancel(vehicleID primitive.ObjectID, t string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.predictions {
		q := &s.predictions[i]
		if q.IsActive && q.VehicleID == vehicleID && q.MaintenanceType == t {
			q.IsActive = false
			q.NotificationStatus = models.StatusCancelled
		}
	}
}

func (s *memStore) active(vehicleID primitive.ObjectID) []models.MaintenancePrediction {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.MaintenancePrediction
	for _, p := range s.predictions {
		if p.IsActive && p.VehicleID == vehicleID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MaintenanceType < out[j].MaintenanceType })
	return out
}

func (s *memStore) activeFor(vehicleID primitive.ObjectID, t string) []models.MaintenancePrediction {
	var out []models.MaintenancePrediction
	for _, p := range s.active(vehicleID) {
		if p.MaintenanceType == t {
			out = append(out, p)
		}
	}
	return out
}

func (s *memStore) total() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.predictions)
}

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) Send(ctx context.Context, channel, text string) error {
	args := m.Called(ctx, channel, text)
	return args.Error(0)
}
