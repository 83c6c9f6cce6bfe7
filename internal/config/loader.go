// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Load reads configuration from environment variables.
// It attempts to load from .env file first (for local development),
// then parses environment variables into the Config struct.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logrus.Warnf("no .env file found or error loading it: %v (this is normal in production)", err)
	} else {
		logrus.Infof("loaded environment variables from .env file")
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config from environment: %w", err)
	}

	return cfg, nil
}

// Validate performs custom validation on the configuration.
func (c *Config) Validate() error {
	if c.MetricsPort < 1 || c.MetricsPort > 65535 {
		return fmt.Errorf("invalid METRICS_PORT: %d (must be 1-65535)", c.MetricsPort)
	}

	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}

	if c.SQLitePath == "" {
		return fmt.Errorf("SQLITE_PATH is required")
	}

	if c.TickInterval < time.Second {
		return fmt.Errorf("invalid TICK_INTERVAL: %v (must be at least 1s)", c.TickInterval)
	}

	if c.CountdownInterval <= 0 {
		return fmt.Errorf("invalid COUNTDOWN_INTERVAL: %v (must be positive)", c.CountdownInterval)
	}

	if c.MaxExtendMinutes < 1 {
		return fmt.Errorf("invalid MAX_EXTEND_MINUTES: %d (must be positive)", c.MaxExtendMinutes)
	}

	// Records must outlive any countdown they describe.
	if c.RedisRecordTTL < 0 || (c.RedisRecordTTL > 0 && c.RedisRecordTTL < MinRecordTTL) {
		return fmt.Errorf("invalid REDIS_RECORD_TTL: %v (must be 0 or at least %v)", c.RedisRecordTTL, MinRecordTTL)
	}

	for _, th := range c.AlertThresholds {
		if th < 0 || th >= 100 {
			return fmt.Errorf("invalid ALERT_THRESHOLDS entry %d (must be 0-99)", th)
		}
	}

	return nil
}
