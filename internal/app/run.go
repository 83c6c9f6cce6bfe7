// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package app

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/AccelByte/extend-laundry-pet/internal/console"
	"github.com/AccelByte/extend-laundry-pet/pkg/roster"
	"github.com/sirupsen/logrus"
)

const shutdownTimeout = 10 * time.Second

// Run seeds and attaches the pets, starts the servers and the broadcaster and
// blocks until a shutdown signal is received or the console quits.
func (a *App) Run(ctx context.Context) error {
	if err := a.metricsServer.Start(ctx); err != nil {
		return err
	}

	created, err := roster.Seed(ctx, a.petStore, a.roster, a.clock.Now())
	if err != nil {
		logrus.Errorf("roster seeding stopped after %d pets: %v", created, err)
	}

	// A pet that fails to attach is logged and skipped. The rest keep running.
	if err := a.manager.AttachAll(ctx); err != nil {
		logrus.Errorf("some pets could not be attached: %v", err)
	}
	logrus.Infof("attached %d pets", len(a.manager.IDs()))

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	go a.broadcaster.Run(ctx)

	if a.console != nil {
		go func() {
			err := a.console.Run(ctx)
			switch {
			case errors.Is(err, console.ErrQuit):
				stop()
			case err != nil:
				logrus.Errorf("console stopped: %v", err)
			default:
				logrus.Info("console input closed")
			}
		}()
	}

	logrus.Info("application started successfully")
	<-ctx.Done()

	logrus.Info("shutdown signal received")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return a.Shutdown(shutdownCtx)
}

// Shutdown gracefully shuts down all application components.
//
// Components are shut down in reverse dependency order:
// 1. Stop serving metrics
// 2. Detach every controller (countdowns stay persisted for the next start)
// 3. Close alert delivery, the pet store and Redis
// 4. Flush telemetry data
//
// Shutdown errors are logged but don't stop the shutdown sequence.
func (a *App) Shutdown(ctx context.Context) error {
	logrus.Info("shutting down application...")

	if err := a.metricsServer.Shutdown(ctx); err != nil {
		logrus.Errorf("metrics server shutdown error: %v", err)
	}

	a.manager.Shutdown()

	a.closeStores()

	if a.shutdownTelemetry != nil {
		if err := a.shutdownTelemetry(ctx); err != nil {
			logrus.Errorf("telemetry shutdown error: %v", err)
		}
	}

	logrus.Info("application shutdown complete")
	return nil
}
