// Package sweep periodically recalculates every active vehicle.
package sweep

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// VehicleLister lists vehicles eligible for a sweep.
type VehicleLister interface {
	FindActiveVehicleIDs(ctx context.Context) ([]string, error)
}

// Recalculator re-runs predictions for a vehicle.
type Recalculator interface {
	Recalculate(ctx context.Context, vehicleID string)
}

// Observer is notified after each completed sweep.
type Observer interface {
	SweepCompleted()
}

// Sweeper walks all active vehicles on a fixed interval.
type Sweeper struct {
	vehicles    VehicleLister
	engine      Recalculator
	interval    time.Duration
	concurrency int
	observer    Observer
	logger      log.FieldLogger
}

// New creates a Sweeper. observer may be nil.
func New(vehicles VehicleLister, engine Recalculator, interval time.Duration, concurrency int, observer Observer, logger log.FieldLogger) *Sweeper {
	if concurrency < 1 {
		concurrency = 1
	}
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Sweeper{
		vehicles:    vehicles,
		engine:      engine,
		interval:    interval,
		concurrency: concurrency,
		observer:    observer,
		logger:      logger,
	}
}

// Run sweeps once immediately and then on every tick until ctx is done.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		if _, err := s.SweepOnce(ctx); err != nil && ctx.Err() == nil {
			s.logger.WithError(err).Error("Sweep failed")
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// SweepOnce recalculates every active vehicle with bounded concurrency and
// returns how many were processed.
func (s *Sweeper) SweepOnce(ctx context.Context) (int, error) {
	start := time.Now()
	ids, err := s.vehicles.FindActiveVehicleIDs(ctx)
	if err != nil {
		return 0, err
	}

	jobs := make(chan string)
	var wg sync.WaitGroup
	var mu sync.Mutex
	done := 0
	for i := 0; i < s.concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for id := range jobs {
				s.engine.Recalculate(ctx, id)
				mu.Lock()
				done++
				mu.Unlock()
			}
		}()
	}

feed:
	for _, id := range ids {
		select {
		case jobs <- id:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	if s.observer != nil {
		s.observer.SweepCompleted()
	}
	s.logger.WithFields(log.Fields{
		"vehicles": done,
		"duration": time.Since(start),
	}).Info("Sweep completed")
	return done, ctx.Err()
}
