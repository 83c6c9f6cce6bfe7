// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

// Package roster loads the pets a deployment starts with from YAML and seeds
// them into the pet store.
package roster

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/AccelByte/extend-laundry-pet/pkg/decay"
	"github.com/AccelByte/extend-laundry-pet/pkg/pet"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Config is the roster file.
type Config struct {
	Defaults Defaults    `yaml:"defaults"`
	Pets     []PetConfig `yaml:"pets"`
}

// Defaults apply to every pet that leaves a field unset.
type Defaults struct {
	CycleLengthDays int `yaml:"cycleLengthDays"`
	WashMinutes     int `yaml:"washMinutes"`
	DryMinutes      int `yaml:"dryMinutes"`
}

// PetConfig is one roster entry. A nil field falls back to Defaults;
// cycleLengthDays 0 selects fast decay.
type PetConfig struct {
	ID              string `yaml:"id"`
	Name            string `yaml:"name"`
	CycleLengthDays *int   `yaml:"cycleLengthDays,omitempty"`
	WashMinutes     *int   `yaml:"washMinutes,omitempty"`
	DryMinutes      *int   `yaml:"dryMinutes,omitempty"`
}

// DefaultDefaults are used when the file has no defaults section.
var DefaultDefaults = Defaults{
	CycleLengthDays: 7,
	WashMinutes:     45,
	DryMinutes:      60,
}

// LoadConfig loads a roster from a YAML file.
// Supports environment variable expansion in the form ${VAR_NAME} or ${VAR_NAME:default}.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read roster file %s: %w", path, err)
	}

	return ParseConfig(data)
}

// ParseConfig parses roster YAML.
func ParseConfig(data []byte) (*Config, error) {
	config := Config{Defaults: DefaultDefaults}
	if err := yaml.Unmarshal([]byte(expandEnvVars(string(data))), &config); err != nil {
		return nil, fmt.Errorf("failed to parse roster YAML: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid roster: %w", err)
	}

	return &config, nil
}

// Validate validates the roster for common errors.
func (c *Config) Validate() error {
	if c.Defaults.CycleLengthDays < 0 || c.Defaults.CycleLengthDays > decay.MaxCycleLengthDays {
		return fmt.Errorf("defaults: cycleLengthDays must be within 0..%d", decay.MaxCycleLengthDays)
	}
	if c.Defaults.WashMinutes <= 0 || c.Defaults.DryMinutes <= 0 {
		return fmt.Errorf("defaults: washMinutes and dryMinutes must be positive")
	}

	ids := make(map[string]bool)
	for _, p := range c.Pets {
		if p.ID == "" {
			return fmt.Errorf("pet with empty ID found")
		}
		if ids[p.ID] {
			return fmt.Errorf("duplicate pet ID: %s", p.ID)
		}
		ids[p.ID] = true

		if p.CycleLengthDays != nil && (*p.CycleLengthDays < 0 || *p.CycleLengthDays > decay.MaxCycleLengthDays) {
			return fmt.Errorf("pet %s has cycleLengthDays outside 0..%d", p.ID, decay.MaxCycleLengthDays)
		}
		if p.WashMinutes != nil && *p.WashMinutes <= 0 {
			return fmt.Errorf("pet %s has non-positive washMinutes", p.ID)
		}
		if p.DryMinutes != nil && *p.DryMinutes <= 0 {
			return fmt.Errorf("pet %s has non-positive dryMinutes", p.ID)
		}
	}

	return nil
}

// NewPet builds a full-health pet for entry p, created at now.
func (c *Config) NewPet(p PetConfig, now time.Time) *pet.Pet {
	name := p.Name
	if name == "" {
		name = p.ID
	}

	return &pet.Pet{
		ID:                    p.ID,
		Name:                  name,
		Health:                100,
		CreatedDate:           now,
		CycleLengthDays:       valueOr(p.CycleLengthDays, c.Defaults.CycleLengthDays),
		StageADurationMinutes: valueOr(p.WashMinutes, c.Defaults.WashMinutes),
		StageBDurationMinutes: valueOr(p.DryMinutes, c.Defaults.DryMinutes),
	}
}

// Seed creates every roster pet missing from the store. Pets already present
// are left alone. It returns how many pets were created.
func Seed(ctx context.Context, store pet.Store, c *Config, now time.Time) (int, error) {
	created := 0
	for _, entry := range c.Pets {
		err := store.Create(ctx, c.NewPet(entry, now))
		if errors.Is(err, pet.ErrAlreadyExists) {
			logrus.Debugf("pet %s already exists, not seeding", entry.ID)
			continue
		}
		if err != nil {
			return created, fmt.Errorf("failed to seed pet %s: %w", entry.ID, err)
		}
		created++
		logrus.Infof("seeded pet %s", entry.ID)
	}
	return created, nil
}

func valueOr(v *int, fallback int) int {
	if v == nil {
		return fallback
	}
	return *v
}

// expandEnvVars expands environment variables in the format ${VAR} or ${VAR:default}.
func expandEnvVars(s string) string {
	return os.Expand(s, func(key string) string {
		parts := strings.SplitN(key, ":", 2)
		varName := parts[0]
		defaultValue := ""
		if len(parts) == 2 {
			defaultValue = parts[1]
		}

		value := os.Getenv(varName)
		if value == "" {
			return defaultValue
		}
		return value
	})
}
