// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package config

import "time"

// MinRecordTTL is the shortest non-zero REDIS_RECORD_TTL accepted.
const MinRecordTTL = 24 * time.Hour

// Config holds all application configuration loaded from environment variables.
// This struct uses github.com/caarlos0/env for automatic environment variable parsing.
//
// After adding fields here, update loader.go Validate() if custom
// validation is needed.
type Config struct {
	// ============================================================
	// Process configuration
	// ============================================================
	MetricsPort int    `env:"METRICS_PORT" envDefault:"8080"`
	Environment string `env:"ENVIRONMENT" envDefault:"dev"`
	ServiceName string `env:"SERVICE_NAME" envDefault:"LaundryPetEngine"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	Console     bool   `env:"CONSOLE_ENABLED" envDefault:"true"`

	// ============================================================
	// Redis configuration (timer and alert tracking records)
	// ============================================================
	RedisHost       string        `env:"REDIS_HOST" envDefault:"localhost"`
	RedisPort       string        `env:"REDIS_PORT" envDefault:"6379"`
	RedisPassword   string        `env:"REDIS_PASSWORD"`
	RedisMaxRetries uint64        `env:"REDIS_MAX_RETRIES" envDefault:"5"`
	RedisKeyPrefix  string        `env:"REDIS_KEY_PREFIX" envDefault:"laundry_pet:"`
	RedisRecordTTL  time.Duration `env:"REDIS_RECORD_TTL" envDefault:"0s"`

	// ============================================================
	// Pet storage
	// ============================================================
	SQLitePath string `env:"SQLITE_PATH" envDefault:"data/pets.db"`
	PetsPath   string `env:"PETS_CONFIG_PATH" envDefault:"config/pets.yaml"`

	// ============================================================
	// Scheduling
	// ============================================================
	TickInterval      time.Duration `env:"TICK_INTERVAL" envDefault:"30s"`
	CountdownInterval time.Duration `env:"COUNTDOWN_INTERVAL" envDefault:"1s"`
	MaxExtendMinutes  int           `env:"MAX_EXTEND_MINUTES" envDefault:"240"`
	AlertThresholds   []int         `env:"ALERT_THRESHOLDS" envDefault:"25,10,5,0" envSeparator:","`

	// ============================================================
	// Alert delivery
	// ============================================================
	AlertsEnabled bool   `env:"ALERTS_ENABLED" envDefault:"true"`
	MQTTBroker    string `env:"MQTT_BROKER"`
	MQTTClientID  string `env:"MQTT_CLIENT_ID" envDefault:"laundry-pet"`
	MQTTTopic     string `env:"MQTT_TOPIC" envDefault:"laundry-pet/alerts"`

	// ============================================================
	// Telemetry configuration
	// ============================================================
	ZipkinURL string `env:"OTEL_EXPORTER_ZIPKIN_ENDPOINT"`
}
