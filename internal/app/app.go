// Package app wires configuration into running components.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"
	"github.com/ukydev/fleet-maintenance/internal/config"
	"github.com/ukydev/fleet-maintenance/internal/db"
	"github.com/ukydev/fleet-maintenance/internal/events"
	"github.com/ukydev/fleet-maintenance/internal/lock"
	"github.com/ukydev/fleet-maintenance/internal/maintenance"
	"github.com/ukydev/fleet-maintenance/internal/metrics"
	"github.com/ukydev/fleet-maintenance/internal/notify"
	"github.com/ukydev/fleet-maintenance/internal/prediction"
	"github.com/ukydev/fleet-maintenance/internal/simulator"
	"github.com/ukydev/fleet-maintenance/internal/sweep"
	"go.mongodb.org/mongo-driver/mongo"
)

// App holds the wired components of the service.
type App struct {
	Config      *config.Config
	Store       *db.Store
	Engine      *prediction.Engine
	Maintenance *maintenance.Service
	Metrics     *metrics.Recorder
	Registry    *prometheus.Registry
	Log         *logrus.Logger

	mongo   *mongo.Client
	db      *mongo.Database
	checks  map[string]func(context.Context) error
	closers []func() error
}

// New connects to MongoDB and the optional backends named in cfg.
func New(ctx context.Context, cfg *config.Config, log *logrus.Logger) (*App, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	cfg.ConfigureLogger(log)

	a := &App{Config: cfg, Log: log, checks: map[string]func(context.Context) error{}}

	client, err := db.ConnectMongo(ctx, cfg.Mongo.URI)
	if err != nil {
		return nil, err
	}
	a.mongo = client
	a.db = client.Database(cfg.Mongo.Database)
	a.closers = append(a.closers, func() error { return client.Disconnect(context.Background()) })
	a.checks["mongo"] = func(ctx context.Context) error { return client.Ping(ctx, nil) }
	a.Store = db.NewStore(client, a.db, cfg.Mongo.UseTransactions)

	a.Registry = prometheus.NewRegistry()
	a.Registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	if a.Metrics, err = metrics.NewWithRegistry(a.Registry); err != nil {
		a.Close()
		return nil, fmt.Errorf("metrics: %w", err)
	}

	registry, err := prediction.RegistryWithOverrides(cfg.Intervals)
	if err != nil {
		a.Close()
		return nil, err
	}

	locker, err := a.buildLocker(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}

	publisher, err := a.buildPublisher()
	if err != nil {
		a.Close()
		return nil, err
	}

	if cfg.Telegram.BotToken == "" {
		log.Warn("Telegram bot token not set; maintenance alerts will not be delivered")
	}
	notifier := notify.NewTelegram(cfg.Telegram.BotToken, cfg.Telegram.Timeout, nil, log)

	gate := prediction.GatePolicy{
		DueWithinDays: cfg.Engine.DueWithinDays,
		DueWithinKm:   cfg.Engine.DueWithinKm,
		RearmAfter:    cfg.Engine.RearmAfter,
		RearmDistance: cfg.Engine.RearmDistance,
	}
	a.Engine = prediction.NewEngine(a.Store, prediction.Options{
		Registry:        registry,
		Gate:            &gate,
		Locker:          locker,
		Notifier:        notifier,
		Publisher:       publisher,
		Metrics:         a.Metrics,
		Logger:          log,
		StoreTimeout:    cfg.Engine.StoreTimeout,
		NotifyTimeout:   cfg.Telegram.Timeout,
		TypeConcurrency: cfg.Engine.TypeConcurrency,
	})
	a.Maintenance = maintenance.NewService(a.Store, a.Engine, log)
	return a, nil
}

func (a *App) buildLocker(ctx context.Context) (lock.Locker, error) {
	if a.Config.Redis.Addr == "" {
		return lock.NewKeyedMutex(), nil
	}
	rl := lock.NewRedisLocker(a.Config.Redis.Addr, a.Config.Redis.LockTTL, a.Config.Redis.LockPoll)
	if err := rl.Ping(ctx); err != nil {
		_ = rl.Close()
		return nil, err
	}
	a.closers = append(a.closers, rl.Close)
	a.checks["redis"] = rl.Ping
	a.Log.WithField("addr", a.Config.Redis.Addr).Info("Using Redis prediction lock")
	return rl, nil
}

func (a *App) buildPublisher() (events.Publisher, error) {
	var pubs events.Multi

	if a.Config.MQTT.Broker != "" {
		client, err := events.NewMQTTClient(a.Config.MQTT.Broker, a.Config.MQTT.ClientID)
		if err != nil {
			return nil, err
		}
		p := events.NewMQTTPublisher(client, a.Config.MQTT.TopicPrefix, byte(a.Config.MQTT.QoS))
		a.closers = append(a.closers, func() error { p.Close(); return nil })
		pubs = append(pubs, p)
		a.Log.WithField("broker", a.Config.MQTT.Broker).Info("Publishing prediction events to MQTT")
	}

	if len(a.Config.Kafka.Brokers) > 0 {
		p := events.NewKafkaPublisher(events.NewKafkaWriter(a.Config.Kafka.Brokers), a.Config.Kafka.Topic)
		a.closers = append(a.closers, p.Close)
		pubs = append(pubs, p)
		a.Log.WithField("topic", a.Config.Kafka.Topic).Info("Publishing prediction events to Kafka")
	}

	switch len(pubs) {
	case 0:
		return events.Nop{}, nil
	case 1:
		return pubs[0], nil
	default:
		return pubs, nil
	}
}

// EnsureIndexes creates the collection indexes.
func (a *App) EnsureIndexes(ctx context.Context) error {
	return db.EnsureIndexes(ctx, a.db)
}

// Sweeper builds the periodic sweeper from config.
func (a *App) Sweeper() *sweep.Sweeper {
	return sweep.New(a.Store, a.Engine, a.Config.Sweep.Interval, a.Config.Sweep.Concurrency, a.Metrics, a.Log)
}

// Simulator builds a fleet simulator driving the maintenance triggers.
func (a *App) Simulator(seed int64) *simulator.Simulator {
	return simulator.New(a.Store, a.Maintenance, a.Config.Simulator.MinDailyKm, a.Config.Simulator.MaxDailyKm, seed, a.Log)
}

// Handler returns the operations HTTP handler.
func (a *App) Handler() http.Handler {
	return NewRouter(a.checks, a.Registry)
}

// Serve runs the ops endpoints and, if enabled, the sweeper until ctx is done.
func (a *App) Serve(ctx context.Context) error {
	if err := a.EnsureIndexes(ctx); err != nil {
		return err
	}

	if a.Config.Sweep.Enabled {
		go a.Sweeper().Run(ctx)
		a.Log.WithField("interval", a.Config.Sweep.Interval).Info("Periodic sweep enabled")
	}

	srv := &http.Server{
		Addr:              a.Config.Metrics.Addr,
		Handler:           a.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		a.Log.WithField("addr", srv.Addr).Info("Ops server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// Close releases every backend connection, newest first.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
