// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package notify

import (
	"context"
	"fmt"
	"sort"
	"time"
)

// Mark records that an alert for a threshold has been handed to the scheduler.
type Mark struct {
	AlertID string    `json:"alertId"`
	FireAt  time.Time `json:"fireAt"`
}

// Tracking is the persisted per-entity alert state. Marks are keyed by
// threshold. ReferenceTime and CycleLengthDays are the decay inputs the marks
// were computed from.
type Tracking struct {
	EntityID        string       `json:"entityId"`
	Marks           map[int]Mark `json:"marks"`
	ReferenceTime   time.Time    `json:"referenceTime"`
	CycleLengthDays int          `json:"cycleLengthDays"`
	LastHealth      int          `json:"lastHealth"`
}

// NewTracking returns an empty tracking record.
func NewTracking(entityID string) *Tracking {
	return &Tracking{
		EntityID:   entityID,
		Marks:      make(map[int]Mark),
		LastHealth: 100,
	}
}

// Marked reports whether threshold has been handed to the scheduler.
func (t *Tracking) Marked(threshold int) bool {
	_, ok := t.Marks[threshold]
	return ok
}

// Thresholds returns the marked thresholds in descending order.
func (t *Tracking) Thresholds() []int {
	out := make([]int, 0, len(t.Marks))
	for th := range t.Marks {
		out = append(out, th)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(out)))
	return out
}

// TrackingStore persists one Tracking per entity. Load returns (nil, nil) when
// nothing usable is stored.
type TrackingStore interface {
	Load(ctx context.Context, entityID string) (*Tracking, error)
	Save(ctx context.Context, t *Tracking) error
	Delete(ctx context.Context, entityID string) error
}

// Payload is what the scheduler delivers when an alert fires.
type Payload struct {
	EntityID  string `json:"entityId"`
	Name      string `json:"name"`
	Threshold int    `json:"threshold"`
	Title     string `json:"title"`
	Body      string `json:"body"`
}

// Scheduler delivers payloads at an instant. Delivery is fire-and-forget.
type Scheduler interface {
	ScheduleAt(ctx context.Context, id string, at time.Time, p Payload) error
	Cancel(ctx context.Context, id string) error
}

// AlertID is the scheduler id used for an entity's threshold alert.
func AlertID(entityID string, threshold int) string {
	return fmt.Sprintf("%s:decay:%d", entityID, threshold)
}

func newPayload(entityID, name string, threshold int) Payload {
	if name == "" {
		name = "Your laundry pet"
	}

	p := Payload{EntityID: entityID, Name: name, Threshold: threshold}
	switch {
	case threshold <= 0:
		p.Title = fmt.Sprintf("%s has run out of clean clothes", name)
		p.Body = "Health is at 0%. Start a laundry cycle to bring it back."
	case threshold <= 10:
		p.Title = fmt.Sprintf("%s is feeling sick", name)
		p.Body = fmt.Sprintf("Health dropped to %d%%. Laundry is overdue.", threshold)
	default:
		p.Title = fmt.Sprintf("%s needs laundry soon", name)
		p.Body = fmt.Sprintf("Health dropped to %d%%.", threshold)
	}
	return p
}
