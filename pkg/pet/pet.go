// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

// Package pet defines the laundry pet entity and the store it lives in.
package pet

import (
	"context"
	"fmt"
	"time"

	"github.com/AccelByte/extend-laundry-pet/pkg/decay"
	"github.com/AccelByte/extend-laundry-pet/pkg/stage"
)

// Stats are cycle counters. They only change when a cycle completes.
type Stats struct {
	TotalCyclesCompleted int `json:"totalCyclesCompleted" yaml:"totalCyclesCompleted"`
	CurrentStreak        int `json:"currentStreak" yaml:"currentStreak"`
	LongestStreak        int `json:"longestStreak" yaml:"longestStreak"`
}

// Pet is a laundry pet. Health is the last computed decay value and may be
// stale between ticks.
type Pet struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Health       int        `json:"health"`
	LastCareDate *time.Time `json:"lastCareDate,omitempty"`
	CreatedDate  time.Time  `json:"createdDate"`

	// CycleLengthDays of 0 selects the five minute fast decay mode.
	CycleLengthDays       int `json:"cycleLengthDays"`
	StageADurationMinutes int `json:"stageADurationMinutes"`
	StageBDurationMinutes int `json:"stageBDurationMinutes"`

	Stats Stats       `json:"stats"`
	Task  *stage.Task `json:"task,omitempty"`
}

// ReferenceTime is the instant decay is measured from.
func (p *Pet) ReferenceTime() time.Time {
	if p.LastCareDate != nil {
		return *p.LastCareDate
	}
	return p.CreatedDate
}

// StageADuration returns the wash duration.
func (p *Pet) StageADuration() time.Duration {
	return time.Duration(p.StageADurationMinutes) * time.Minute
}

// StageBDuration returns the dry duration.
func (p *Pet) StageBDuration() time.Duration {
	return time.Duration(p.StageBDurationMinutes) * time.Minute
}

// ActiveTask returns the task if it is still in progress.
func (p *Pet) ActiveTask() *stage.Task {
	if p.Task.Active() {
		return p.Task
	}
	return nil
}

// Validate checks the entity invariants.
func (p *Pet) Validate() error {
	switch {
	case p.ID == "":
		return fmt.Errorf("%w: id is required", ErrInvalidPet)
	case p.Health < 0 || p.Health > 100:
		return fmt.Errorf("%w: health %d out of range", ErrInvalidPet, p.Health)
	case p.CycleLengthDays < 0 || p.CycleLengthDays > decay.MaxCycleLengthDays:
		return fmt.Errorf("%w: cycleLengthDays %d out of range 0..%d",
			ErrInvalidPet, p.CycleLengthDays, decay.MaxCycleLengthDays)
	case p.StageADurationMinutes <= 0 || p.StageBDurationMinutes <= 0:
		return fmt.Errorf("%w: stage durations must be positive", ErrInvalidPet)
	case p.Stats.TotalCyclesCompleted < 0 || p.Stats.CurrentStreak < 0:
		return fmt.Errorf("%w: negative stats", ErrInvalidPet)
	case p.Stats.CurrentStreak > p.Stats.LongestStreak:
		return fmt.Errorf("%w: current streak %d exceeds longest %d",
			ErrInvalidPet, p.Stats.CurrentStreak, p.Stats.LongestStreak)
	}

	if p.Task != nil {
		if p.Task.EntityID != p.ID {
			return fmt.Errorf("%w: task belongs to %q", ErrInvalidPet, p.Task.EntityID)
		}
		if !p.Task.Stage.Valid() {
			return fmt.Errorf("%w: unknown task stage %d", ErrInvalidPet, p.Task.Stage)
		}
	}
	return nil
}

// Clone returns a deep copy.
func (p *Pet) Clone() *Pet {
	if p == nil {
		return nil
	}
	cp := *p
	if p.LastCareDate != nil {
		t := *p.LastCareDate
		cp.LastCareDate = &t
	}
	cp.Task = p.Task.Clone()
	return &cp
}

// Store is the entity object store. Update replaces the whole record.
type Store interface {
	Get(ctx context.Context, id string) (*Pet, error)
	Update(ctx context.Context, p *Pet) error
	Delete(ctx context.Context, id string) error
	Create(ctx context.Context, p *Pet) error
	List(ctx context.Context) ([]*Pet, error)
}
