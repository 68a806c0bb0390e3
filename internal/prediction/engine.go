// Package prediction estimates when each maintenance type of a vehicle next
// becomes due and decides when the owner is alerted.
//
// A run loads the vehicle and its owner, computes the usage rate once, then
// for every registered maintenance type: takes the per-key lock, resolves the
// baseline from the latest service record, projects the due date, evaluates
// the alert gate against the active prediction, delivers the alert if needed
// and replaces the active prediction. Failures in one type never stop the
// others.
package prediction

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/ukydev/fleet-maintenance/internal/db"
	"github.com/ukydev/fleet-maintenance/internal/events"
	"github.com/ukydev/fleet-maintenance/internal/lock"
	"github.com/ukydev/fleet-maintenance/internal/metrics"
	"github.com/ukydev/fleet-maintenance/internal/models"
	"github.com/ukydev/fleet-maintenance/internal/notify"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Store is the record store capability the engine needs.
type Store interface {
	FindVehicleByID(ctx context.Context, id string) (*models.Vehicle, error)
	FindUserByID(ctx context.Context, id string) (*models.User, error)
	FindLatestServiceRecord(ctx context.Context, vehicleID primitive.ObjectID, serviceType string) (*models.ServiceRecord, error)
	FindActivePrediction(ctx context.Context, vehicleID primitive.ObjectID, maintenanceType string) (*models.MaintenancePrediction, error)
	FindDismissedPrediction(ctx context.Context, vehicleID primitive.ObjectID, maintenanceType string, predictedMileage int) (*models.MaintenancePrediction, error)
	ReplaceActivePrediction(ctx context.Context, p *models.MaintenancePrediction) error
	MarkPredictionNotified(ctx context.Context, id primitive.ObjectID, sentAt time.Time, mileage int) error
}

// Notifier delivers a text alert to a channel.
type Notifier interface {
	Send(ctx context.Context, channel, text string) error
}

// Metrics receives engine activity.
type Metrics interface {
	ObserveRun(outcome string, d time.Duration)
	TypeFailure(maintenanceType, kind string)
	Notification(maintenanceType, result string)
	PredictionWritten(maintenanceType string)
}

// Options configures an Engine. Zero values get defaults.
type Options struct {
	Registry        *Registry
	Gate            *GatePolicy
	Locker          lock.Locker
	Notifier        Notifier
	Publisher       events.Publisher
	Metrics         Metrics
	Logger          logrus.FieldLogger
	StoreTimeout    time.Duration
	NotifyTimeout   time.Duration
	TypeConcurrency int
	Now             func() time.Time
}

// Engine runs maintenance predictions.
type Engine struct {
	store         Store
	registry      *Registry
	gate          GatePolicy
	locker        lock.Locker
	notifier      Notifier
	publisher     events.Publisher
	metrics       Metrics
	log           logrus.FieldLogger
	storeTimeout  time.Duration
	notifyTimeout time.Duration
	concurrency   int
	now           func() time.Time
}

// NewEngine builds an engine over store.
func NewEngine(store Store, opts Options) *Engine {
	e := &Engine{
		store:         store,
		registry:      opts.Registry,
		locker:        opts.Locker,
		notifier:      opts.Notifier,
		publisher:     opts.Publisher,
		metrics:       opts.Metrics,
		log:           opts.Logger,
		storeTimeout:  opts.StoreTimeout,
		notifyTimeout: opts.NotifyTimeout,
		concurrency:   opts.TypeConcurrency,
		now:           opts.Now,
	}
	if e.registry == nil {
		e.registry = DefaultRegistry()
	}
	if opts.Gate != nil {
		e.gate = *opts.Gate
	} else {
		e.gate = DefaultGatePolicy()
	}
	if e.locker == nil {
		e.locker = lock.NewKeyedMutex()
	}
	if e.publisher == nil {
		e.publisher = events.Nop{}
	}
	if e.metrics == nil {
		e.metrics = nopMetrics{}
	}
	if e.log == nil {
		e.log = logrus.StandardLogger()
	}
	if e.storeTimeout <= 0 {
		e.storeTimeout = 5 * time.Second
	}
	if e.notifyTimeout <= 0 {
		e.notifyTimeout = 5 * time.Second
	}
	if e.concurrency <= 0 {
		e.concurrency = 1
	}
	if e.now == nil {
		e.now = func() time.Time { return time.Now().UTC() }
	}
	return e
}

// Registry returns the engine's maintenance type registry.
func (e *Engine) Registry() *Registry { return e.registry }

// Recalculate runs the engine and logs the report. It never fails; callers
// that need the outcome use Run.
func (e *Engine) Recalculate(ctx context.Context, vehicleID string) {
	LogReport(e.log, e.Run(ctx, vehicleID))
}

// Run recalculates every maintenance type of vehicleID.
func (e *Engine) Run(ctx context.Context, vehicleID string) *Report {
	start := time.Now()
	now := e.now()
	rep := &Report{RunID: uuid.NewString(), VehicleID: vehicleID, StartedAt: now}
	log := e.log.WithFields(logrus.Fields{"run_id": rep.RunID, "vehicle_id": vehicleID})
	defer func() {
		rep.Duration = time.Since(start)
		e.metrics.ObserveRun(rep.Outcome(), rep.Duration)
	}()

	var vehicle *models.Vehicle
	err := e.storeCall(ctx, func(ctx context.Context) (err error) {
		vehicle, err = e.store.FindVehicleByID(ctx, vehicleID)
		return err
	})
	if err != nil {
		kind := KindStore
		if errors.Is(err, db.ErrNotFound) || errors.Is(err, db.ErrInvalidID) {
			kind = KindNotFound
		}
		rep.Err = &StageError{Kind: kind, Stage: "load_vehicle", Err: err}
		return rep
	}

	var owner *models.User
	if !vehicle.UserID.IsZero() {
		err = e.storeCall(ctx, func(ctx context.Context) (err error) {
			owner, err = e.store.FindUserByID(ctx, vehicle.UserID.Hex())
			return err
		})
		if err != nil {
			kind := KindStore
			if errors.Is(err, db.ErrNotFound) {
				kind = KindNotFound
			}
			rep.Warnings = append(rep.Warnings, &StageError{Kind: kind, Stage: "load_owner", Err: err})
			owner = nil
		}
	}

	rate := UsageRate(vehicle.CreatedAt, vehicle.InitialMileage, vehicle.CurrentMileage, now)
	log.WithField("km_per_day", rate).Debug("usage rate computed")

	types := e.registry.Types()
	rep.Results = make([]TypeResult, len(types))

	sem := make(chan struct{}, e.concurrency)
	var wg sync.WaitGroup
	for i, t := range types {
		interval, _ := e.registry.Interval(t)
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, t string, interval int) {
			defer wg.Done()
			defer func() { <-sem }()
			rep.Results[i] = e.runType(ctx, log.WithField("maintenance_type", t), rep.RunID, vehicle, owner, rate, now, t, interval)
		}(i, t, interval)
	}
	wg.Wait()

	for _, res := range rep.Results {
		if res.Err != nil {
			e.metrics.TypeFailure(res.MaintenanceType, res.Err.Kind.String())
		}
		if res.DeliveryErr != nil {
			e.metrics.TypeFailure(res.MaintenanceType, res.DeliveryErr.Kind.String())
		}
	}
	return rep
}

func (e *Engine) runType(ctx context.Context, log logrus.FieldLogger, runID string, v *models.Vehicle, owner *models.User, rate float64, now time.Time, t string, interval int) TypeResult {
	res := TypeResult{MaintenanceType: t}
	fail := func(stage string, err error) TypeResult {
		res.Err = &StageError{Kind: KindStore, Stage: stage, MaintenanceType: t, Err: err}
		return res
	}

	release, err := e.locker.Acquire(ctx, lock.Key(v.ID.Hex(), t))
	if err != nil {
		return fail("lock", err)
	}
	defer release()

	var last *models.ServiceRecord
	err = e.storeCall(ctx, func(ctx context.Context) (err error) {
		last, err = e.store.FindLatestServiceRecord(ctx, v.ID, t)
		return err
	})
	if err != nil {
		return fail("load_history", err)
	}

	base := ResolveBaseline(last, v.CurrentMileage, interval)
	proj := Project(base.NextDue, v.CurrentMileage, rate, now)
	res.RemainingKm = proj.RemainingKm

	var prior *models.MaintenancePrediction
	err = e.storeCall(ctx, func(ctx context.Context) (err error) {
		prior, err = e.store.FindActivePrediction(ctx, v.ID, t)
		return err
	})
	if err != nil {
		return fail("load_prior", err)
	}

	channel := owner.NotificationChannel()
	decision := e.gate.Decide(channel, proj, base.NextDue, v.CurrentMileage, prior, now)

	if decision.Fire {
		var dismissed *models.MaintenancePrediction
		err = e.storeCall(ctx, func(ctx context.Context) (err error) {
			dismissed, err = e.store.FindDismissedPrediction(ctx, v.ID, t, base.NextDue)
			return err
		})
		if err != nil {
			return fail("load_dismissed", err)
		}
		if dismissed != nil {
			decision = decision.Dismiss()
		}
	}

	p := &models.MaintenancePrediction{
		VehicleID:          v.ID,
		MaintenanceType:    t,
		PredictedDate:      proj.Date,
		PredictedMileage:   base.NextDue,
		CalculatedAt:       now,
		NotificationStatus: models.StatusPending,
		ConfidenceLevel:    base.Confidence,
		IsActive:           true,
	}
	if decision.Carry {
		p.NotificationStatus = models.StatusSent
		p.LastNotificationSent = prior.LastNotificationSent
		p.LastNotifiedMileage = prior.LastNotifiedMileage
	}
	if decision.Suppressed() {
		res.Suppressed = true
		e.metrics.Notification(t, metrics.NotifySuppressed)
	}

	// Stored before delivery: no alert goes out for an unrecorded prediction.
	err = e.storeCall(ctx, func(ctx context.Context) error {
		return e.store.ReplaceActivePrediction(ctx, p)
	})
	if err != nil {
		return fail("replace_prediction", err)
	}
	res.Prediction = p
	e.metrics.PredictionWritten(t)

	if decision.Fire {
		e.fire(ctx, log, &res, p, owner, v, channel, proj)
	}

	log.WithFields(logrus.Fields{
		"predicted_mileage": p.PredictedMileage,
		"predicted_date":    p.PredictedDate.Format("2006-01-02"),
		"status":            p.NotificationStatus,
	}).Debug("prediction updated")

	e.publish(ctx, log, events.Event{
		Type:             events.TypePredictionUpdated,
		RunID:            runID,
		VehicleID:        v.ID.Hex(),
		MaintenanceType:  t,
		PredictedDate:    p.PredictedDate,
		PredictedMileage: p.PredictedMileage,
		RemainingKm:      proj.RemainingKm,
		Status:           string(p.NotificationStatus),
		Confidence:       p.ConfidenceLevel,
		Notified:         res.Notified,
		OccurredAt:       now,
	})
	return res
}

// fire delivers the alert for p and records it. A failed delivery leaves p
// pending so the next run retries.
func (e *Engine) fire(ctx context.Context, log logrus.FieldLogger, res *TypeResult, p *models.MaintenancePrediction, owner *models.User, v *models.Vehicle, channel string, proj Projection) {
	t := p.MaintenanceType
	text := notify.Format(notify.Alert{
		DriverName:      owner.DisplayName(),
		VehicleLabel:    v.Label(),
		MaintenanceType: t,
		DueDate:         proj.Date,
		RemainingKm:     proj.RemainingKm,
	})
	if err := e.deliver(ctx, channel, text); err != nil {
		res.DeliveryErr = &StageError{Kind: KindDelivery, Stage: "notify", MaintenanceType: t, Err: err}
		e.metrics.Notification(t, metrics.NotifyFailed)
		log.WithError(err).Warn("maintenance alert not delivered")
		return
	}
	res.Notified = true
	e.metrics.Notification(t, metrics.NotifySent)
	log.WithField("remaining_km", proj.RemainingKm).Info("maintenance alert sent")

	sentAt := p.CalculatedAt
	err := e.storeCall(ctx, func(ctx context.Context) error {
		return e.store.MarkPredictionNotified(ctx, p.ID, sentAt, v.CurrentMileage)
	})
	if err != nil {
		res.Err = &StageError{Kind: KindStore, Stage: "mark_notified", MaintenanceType: t, Err: err}
		return
	}
	p.NotificationStatus = models.StatusSent
	p.LastNotificationSent = &sentAt
	p.LastNotifiedMileage = v.CurrentMileage
}

func (e *Engine) deliver(ctx context.Context, channel, text string) error {
	if e.notifier == nil {
		return errors.New("no notifier configured")
	}
	ctx, cancel := context.WithTimeout(ctx, e.notifyTimeout)
	defer cancel()
	return e.notifier.Send(ctx, channel, text)
}

func (e *Engine) publish(ctx context.Context, log logrus.FieldLogger, ev events.Event) {
	ctx, cancel := context.WithTimeout(ctx, e.storeTimeout)
	defer cancel()
	if err := e.publisher.Publish(ctx, ev); err != nil {
		log.WithError(err).Warn("prediction event not published")
	}
}

func (e *Engine) storeCall(ctx context.Context, fn func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, e.storeTimeout)
	defer cancel()
	return fn(ctx)
}

// LogReport writes a run summary and each stage error to log.
func LogReport(log logrus.FieldLogger, rep *Report) {
	entry := log.WithFields(logrus.Fields{
		"run_id":        rep.RunID,
		"vehicle_id":    rep.VehicleID,
		"outcome":       rep.Outcome(),
		"notifications": rep.Notifications(),
		"duration":      rep.Duration,
	})
	for _, se := range rep.Errors() {
		fields := logrus.Fields{"stage": se.Stage, "kind": se.Kind.String()}
		if se.MaintenanceType != "" {
			fields["maintenance_type"] = se.MaintenanceType
		}
		if se.Kind == KindStore {
			entry.WithFields(fields).WithError(se.Err).Error("recalculation stage failed")
		} else {
			entry.WithFields(fields).WithError(se.Err).Warn("recalculation stage failed")
		}
	}
	entry.Info("recalculation finished")
}

type nopMetrics struct{}

func (nopMetrics) ObserveRun(string, time.Duration) {}
func (nopMetrics) TypeFailure(string, string)       {}
func (nopMetrics) Notification(string, string)      {}
func (nopMetrics) PredictionWritten(string)         {}
