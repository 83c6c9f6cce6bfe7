// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package timer

import (
	"context"
	"time"
)

// Kind identifies what a countdown is timing.
type Kind string

const (
	KindStageA       Kind = "stage_a"
	KindStageB       Kind = "stage_b"
	KindExtraStageB  Kind = "extra_stage_b"
	KindGenericCycle Kind = "generic_cycle"
)

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	switch k {
	case KindStageA, KindStageB, KindExtraStageB, KindGenericCycle:
		return true
	}
	return false
}

// Record is the persisted form of an active countdown. Only EndTime matters for
// accuracy; StartedAt is kept for diagnostics.
type Record struct {
	EntityID  string    `json:"entityId"`
	EndTime   time.Time `json:"endTime"`
	Kind      Kind      `json:"kind"`
	StartedAt time.Time `json:"startedAt"`
}

// Valid reports whether the record can be trusted.
func (r *Record) Valid() bool {
	return r != nil && r.EntityID != "" && !r.EndTime.IsZero() && r.Kind.Valid()
}

// Store persists one Record per entity. Writes must be atomic.
//
// Load returns (nil, nil) when there is no record or the stored bytes can't be
// decoded; an error means the store itself failed.
type Store interface {
	Load(ctx context.Context, entityID string) (*Record, error)
	Save(ctx context.Context, rec *Record) error
	Delete(ctx context.Context, entityID string) error
}

// Completion is delivered once per started countdown.
type Completion struct {
	EntityID string
	Kind     Kind
	EndTime  time.Time
	FiredAt  time.Time
	// Restored is true when the countdown had already elapsed at Restore.
	Restored bool
}

// CompletionFunc receives completions. It is called without the timer's lock
// held and may call back into the timer.
type CompletionFunc func(Completion)
