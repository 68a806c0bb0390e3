// Package simulator drives odometers of active vehicles forward one
// simulated day at a time, feeding readings through the maintenance
// triggers so predictions and alerts can be exercised without real drivers.
package simulator

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/fleet-maintenance/internal/models"
)

// Fleet lists and loads vehicles.
type Fleet interface {
	FindActiveVehicleIDs(ctx context.Context) ([]string, error)
	FindVehicleByID(ctx context.Context, id string) (*models.Vehicle, error)
}

// MileageUpdater records a new odometer reading.
type MileageUpdater interface {
	UpdateMileage(ctx context.Context, vehicleID string, mileage int) (*models.Vehicle, error)
}

// VehicleState is the per-vehicle driving profile.
type VehicleState struct {
	VehicleID string
	Odometer  int
	DailyKm   float64
}

// Simulator advances a fleet day by day.
type Simulator struct {
	fleet   Fleet
	updater MileageUpdater
	minKm   int
	maxKm   int
	logger  log.FieldLogger

	mu     sync.Mutex
	rng    *rand.Rand
	states map[string]*VehicleState
}

// New creates a simulator. Daily distances drift between minKm and maxKm.
func New(fleet Fleet, updater MileageUpdater, minKm, maxKm int, seed int64, logger log.FieldLogger) *Simulator {
	if maxKm < minKm {
		maxKm = minKm
	}
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Simulator{
		fleet:   fleet,
		updater: updater,
		minKm:   minKm,
		maxKm:   maxKm,
		logger:  logger,
		rng:     rand.New(rand.NewSource(seed)),
		states:  make(map[string]*VehicleState),
	}
}

// state returns the profile for v, creating one with a random starting
// daily distance on first sight.
func (s *Simulator) state(v *models.Vehicle) *VehicleState {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := v.ID.Hex()
	st, ok := s.states[id]
	if !ok {
		st = &VehicleState{
			VehicleID: id,
			DailyKm:   float64(s.minKm) + s.rng.Float64()*float64(s.maxKm-s.minKm),
		}
		s.states[id] = st
	}
	if v.CurrentMileage > st.Odometer {
		st.Odometer = v.CurrentMileage
	}
	return st
}

// drive advances st by one day with a small random drift in daily usage.
func (s *Simulator) drive(st *VehicleState) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	span := float64(s.maxKm - s.minKm)
	st.DailyKm += (s.rng.Float64()*2 - 1) * span * 0.1
	if st.DailyKm < float64(s.minKm) {
		st.DailyKm = float64(s.minKm)
	}
	if st.DailyKm > float64(s.maxKm) {
		st.DailyKm = float64(s.maxKm)
	}
	km := int(st.DailyKm + 0.5)
	if km < 1 {
		km = 1
	}
	st.Odometer += km
	return st.Odometer
}

// Step simulates one day for every active vehicle and returns the number
// of readings accepted.
func (s *Simulator) Step(ctx context.Context) (int, error) {
	ids, err := s.fleet.FindActiveVehicleIDs(ctx)
	if err != nil {
		return 0, err
	}

	accepted := 0
	for _, id := range ids {
		v, err := s.fleet.FindVehicleByID(ctx, id)
		if err != nil {
			s.logger.WithError(err).WithField("vehicle_id", id).Error("Failed to load vehicle")
			continue
		}
		reading := s.drive(s.state(v))
		if _, err := s.updater.UpdateMileage(ctx, id, reading); err != nil {
			s.logger.WithError(err).WithField("vehicle_id", id).Error("Failed to update mileage")
			continue
		}
		accepted++
		s.logger.WithFields(log.Fields{"vehicle_id": id, "mileage": reading}).Debug("Simulated day")
	}
	return accepted, nil
}

// ErrInvalidTick is returned by Run for a non-positive tick.
var ErrInvalidTick = errors.New("simulator tick must be positive")

// Run calls Step every tick. days limits the number of simulated days;
// zero or less runs until ctx is cancelled.
func (s *Simulator) Run(ctx context.Context, tick time.Duration, days int) error {
	if tick <= 0 {
		return ErrInvalidTick
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for day := 1; days <= 0 || day <= days; day++ {
		n, err := s.Step(ctx)
		if err != nil {
			return err
		}
		s.logger.WithFields(log.Fields{"day": day, "vehicles": n}).Info("Simulated fleet day")

		if days > 0 && day == days {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
	return nil
}

// State returns a copy of a vehicle's profile.
func (s *Simulator) State(vehicleID string) (VehicleState, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.states[vehicleID]
	if !ok {
		return VehicleState{}, false
	}
	return *st, true
}
