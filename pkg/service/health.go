// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
)

const healthCheckTimeout = 2 * time.Second

// Pinger is anything that can report whether its backend answers.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthChecker checks Redis and any registered stores.
type HealthChecker struct {
	client redis.UniversalClient
	stores map[string]Pinger
}

// NewHealthChecker creates a checker for client.
func NewHealthChecker(client redis.UniversalClient) *HealthChecker {
	return &HealthChecker{client: client, stores: make(map[string]Pinger)}
}

// WithStore adds a named store to the check.
func (h *HealthChecker) WithStore(name string, p Pinger) *HealthChecker {
	h.stores[name] = p
	return h
}

// Check pings Redis, then each store in name order. The first failure is
// returned.
func (h *HealthChecker) Check(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()

	if err := h.client.Ping(ctx).Err(); err != nil {
		logrus.Errorf("Redis health check failed: %v", err)
		return fmt.Errorf("redis: %w", err)
	}

	names := make([]string, 0, len(h.stores))
	for name := range h.stores {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if err := h.stores[name].Ping(ctx); err != nil {
			logrus.Errorf("%s health check failed: %v", name, err)
			return fmt.Errorf("%s: %w", name, err)
		}
	}

	logrus.Debugf("health check passed")
	return nil
}

// IsHealthy returns true if every backend is accessible
func (h *HealthChecker) IsHealthy(ctx context.Context) bool {
	return h.Check(ctx) == nil
}
