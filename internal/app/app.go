// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package app

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/AccelByte/extend-laundry-pet/internal/bootstrap"
	"github.com/AccelByte/extend-laundry-pet/internal/config"
	"github.com/AccelByte/extend-laundry-pet/internal/console"
	"github.com/AccelByte/extend-laundry-pet/internal/server"
	"github.com/AccelByte/extend-laundry-pet/pkg/alert"
	"github.com/AccelByte/extend-laundry-pet/pkg/clock"
	"github.com/AccelByte/extend-laundry-pet/pkg/lifecycle"
	"github.com/AccelByte/extend-laundry-pet/pkg/metrics"
	"github.com/AccelByte/extend-laundry-pet/pkg/roster"
	"github.com/AccelByte/extend-laundry-pet/pkg/service"
	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
)

// App holds all application dependencies and manages the application lifecycle.
type App struct {
	cfg               *config.Config
	clock             clock.Clock
	metricsServer     *server.MetricsServer
	redisClient       *redis.Client
	petStore          *service.SQLitePetStore
	scheduler         *alert.LocalScheduler
	manager           *lifecycle.Manager
	broadcaster       *lifecycle.Broadcaster
	roster            *roster.Config
	console           *console.Console
	shutdownTelemetry func(context.Context) error
}

// New creates and initializes a new application instance.
//
// Components are initialized in dependency order:
// 1. Redis (countdown and alert tracking records)
// 2. SQLite pet store
// 3. Pet roster (YAML)
// 4. Alert delivery and the threshold notifier
// 5. Lifecycle manager and broadcaster
// 6. Metrics server
// 7. Telemetry (OpenTelemetry tracing)
//
// Pets are seeded and attached in Run, once everything is in place.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	logrus.Info("initializing application...")

	app := &App{cfg: cfg, clock: clock.Real{}}

	// ============================================================
	// Step 1: Initialize Redis
	// ============================================================
	client, err := bootstrap.InitRedis(ctx, bootstrap.RedisOptions{
		Addr:       cfg.RedisHost + ":" + cfg.RedisPort,
		Password:   cfg.RedisPassword,
		MaxRetries: cfg.RedisMaxRetries,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to init Redis: %w", err)
	}
	app.redisClient = client

	// ============================================================
	// Step 2: Open the pet store
	// ============================================================
	app.petStore, err = bootstrap.InitPetStore(cfg.SQLitePath)
	if err != nil {
		app.closeStores()
		return nil, fmt.Errorf("failed to open pet store: %w", err)
	}

	// ============================================================
	// Step 3: Load the pet roster
	// ============================================================
	app.roster, err = roster.LoadConfig(cfg.PetsPath)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		logrus.Warnf("no roster at %s, starting with stored pets only", cfg.PetsPath)
		app.roster = &roster.Config{Defaults: roster.DefaultDefaults}
	case err != nil:
		app.closeStores()
		return nil, fmt.Errorf("failed to load roster from %s: %w", cfg.PetsPath, err)
	default:
		logrus.Infof("loaded roster with %d pets from %s", len(app.roster.Pets), cfg.PetsPath)
	}

	// ============================================================
	// Step 4: Alert delivery
	// ============================================================
	timers, tracking := bootstrap.InitRecordStores(client, service.RecordStoreConfig{
		KeyPrefix: cfg.RedisKeyPrefix,
		TTL:       cfg.RedisRecordTTL,
	})

	alertOpts := bootstrap.AlertOptions{
		Enabled:      cfg.AlertsEnabled,
		MQTTBroker:   cfg.MQTTBroker,
		MQTTClientID: cfg.MQTTClientID,
		MQTTTopic:    cfg.MQTTTopic,
		Thresholds:   cfg.AlertThresholds,
	}
	publisher, err := bootstrap.InitPublisher(alertOpts)
	if err != nil {
		app.closeStores()
		return nil, fmt.Errorf("failed to init alert publisher: %w", err)
	}

	notifier, scheduler, err := bootstrap.InitNotifier(alertOpts, publisher, tracking, app.clock)
	if err != nil {
		app.closeStores()
		return nil, fmt.Errorf("failed to init notifier: %w", err)
	}
	app.scheduler = scheduler

	// ============================================================
	// Step 5: Lifecycle
	// ============================================================
	lcCfg := lifecycle.DefaultConfig()
	lcCfg.MaxExtendMinutes = cfg.MaxExtendMinutes
	lcCfg.CountdownInterval = cfg.CountdownInterval

	app.manager, app.broadcaster = bootstrap.InitLifecycle(lifecycle.Deps{
		Pets:     app.petStore,
		Timers:   timers,
		Notifier: notifier,
		Clock:    app.clock,
	}, lcCfg, cfg.TickInterval)

	if cfg.Console {
		app.console = console.New(app.manager, app.petStore, app.roster, app.clock, os.Stdin, os.Stdout)
	}

	// ============================================================
	// Step 6: Setup metrics server
	// ============================================================
	app.metricsServer = server.NewMetricsServer(cfg.MetricsPort, "/metrics", service.NewHealthChecker(client).WithStore("pets", app.petStore))
	if err := app.metricsServer.Setup(metrics.Collectors()...); err != nil {
		app.closeStores()
		return nil, fmt.Errorf("failed to setup metrics server: %w", err)
	}

	// ============================================================
	// Step 7: Setup telemetry
	// ============================================================
	shutdownTelemetry, err := server.SetupTelemetry(ctx, cfg.ServiceName, cfg.Environment, cfg.ZipkinURL)
	if err != nil {
		app.closeStores()
		return nil, fmt.Errorf("failed to setup telemetry: %w", err)
	}
	app.shutdownTelemetry = shutdownTelemetry

	logrus.Info("application initialized successfully")

	return app, nil
}

// closeStores releases the connections opened so far. Used on failed start-up
// and at the end of Shutdown.
func (a *App) closeStores() {
	if a.scheduler != nil {
		if err := a.scheduler.Close(); err != nil {
			logrus.Errorf("alert scheduler close error: %v", err)
		}
	}
	if a.petStore != nil {
		if err := a.petStore.Close(); err != nil {
			logrus.Errorf("pet store close error: %v", err)
		}
	}
	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			logrus.Errorf("Redis close error: %v", err)
		}
	}
}
