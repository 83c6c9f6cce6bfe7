// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

// Package timer implements a per-entity countdown that is anchored to an
// absolute end time. The remaining time is always derived from the persisted
// end time, so suspending or restarting the process never introduces drift.
package timer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/AccelByte/extend-laundry-pet/pkg/clock"
	"github.com/AccelByte/extend-laundry-pet/pkg/metrics"
	"github.com/sirupsen/logrus"
)

// DefaultTickInterval is how often an armed countdown checks its end time.
const DefaultTickInterval = time.Second

// storeTimeout bounds record deletion when a countdown fires from the ticker.
const storeTimeout = 3 * time.Second

// Timer owns at most one countdown for a single entity.
type Timer struct {
	entityID   string
	clock      clock.Clock
	store      Store
	onComplete CompletionFunc
	interval   time.Duration

	mu     sync.Mutex
	active *Record
	stop   chan struct{}
}

// Option configures a Timer.
type Option func(*Timer)

// WithTickInterval sets the internal tick period. Zero disables the internal
// ticker; the owner must then call Tick itself.
func WithTickInterval(d time.Duration) Option {
	return func(t *Timer) {
		t.interval = d
	}
}

// New creates an idle timer for entityID. onComplete may be nil.
func New(entityID string, clk clock.Clock, store Store, onComplete CompletionFunc, opts ...Option) *Timer {
	t := &Timer{
		entityID:   entityID,
		clock:      clk,
		store:      store,
		onComplete: onComplete,
		interval:   DefaultTickInterval,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Start arms a countdown of d. The record is persisted before Start returns;
// if persisting fails nothing is armed. A running countdown is left untouched
// and ErrAlreadyActive is returned.
func (t *Timer) Start(ctx context.Context, d time.Duration, kind Kind) error {
	if d <= 0 {
		return fmt.Errorf("%w: %v", ErrInvalidDuration, d)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.active != nil {
		logrus.Warnf("timer for %s already active until %v, ignoring start of %s",
			t.entityID, t.active.EndTime, kind)
		return ErrAlreadyActive
	}

	now := t.clock.Now()
	rec := &Record{
		EntityID:  t.entityID,
		EndTime:   now.Add(d),
		Kind:      kind,
		StartedAt: now,
	}

	if err := t.store.Save(ctx, rec); err != nil {
		return fmt.Errorf("failed to persist timer for %s: %w", t.entityID, err)
	}

	t.armLocked(rec)
	metrics.TimersStarted.WithLabelValues(string(kind)).Inc()
	logrus.Infof("timer for %s started: kind=%s duration=%v endTime=%v", t.entityID, kind, d, rec.EndTime)
	return nil
}

// Stop cancels the countdown and deletes the persisted record. It is safe to
// call when nothing is armed. If the record can't be deleted the countdown is
// left running and the error is returned.
func (t *Timer) Stop(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.store.Delete(ctx, t.entityID); err != nil {
		return fmt.Errorf("failed to delete timer for %s: %w", t.entityID, err)
	}

	if t.active != nil {
		logrus.Infof("timer for %s stopped with %v remaining",
			t.entityID, t.active.EndTime.Sub(t.clock.Now()))
		t.disarmLocked()
	}
	return nil
}

// Tick recomputes the remaining time from the end time. When the countdown has
// elapsed it fires the completion callback exactly once and returns 0.
func (t *Timer) Tick() time.Duration {
	t.mu.Lock()
	if t.active == nil {
		t.mu.Unlock()
		return 0
	}

	now := t.clock.Now()
	remaining := t.active.EndTime.Sub(now)
	if remaining > 0 {
		t.mu.Unlock()
		return remaining
	}

	rec := *t.active
	t.disarmLocked()
	t.deleteLocked()
	t.mu.Unlock()

	t.fire(rec, now, false)
	return 0
}

// Restore re-arms a countdown from the store. A countdown whose end time has
// already passed completes immediately instead of being re-armed. Records that
// can't be decoded or don't belong to this entity are dropped.
func (t *Timer) Restore(ctx context.Context) error {
	t.mu.Lock()

	if t.active != nil {
		t.mu.Unlock()
		return nil
	}

	rec, err := t.store.Load(ctx, t.entityID)
	if err != nil {
		t.mu.Unlock()
		return fmt.Errorf("failed to load timer for %s: %w", t.entityID, err)
	}
	if rec == nil {
		t.mu.Unlock()
		return nil
	}

	if !rec.Valid() || rec.EntityID != t.entityID {
		logrus.Warnf("dropping unusable timer record for %s: %+v", t.entityID, rec)
		metrics.CorruptRecords.WithLabelValues("timer").Inc()
		t.deleteLocked()
		t.mu.Unlock()
		return nil
	}

	now := t.clock.Now()
	if !now.Before(rec.EndTime) {
		logrus.Infof("timer for %s elapsed while away (endTime=%v), completing now", t.entityID, rec.EndTime)
		t.deleteLocked()
		t.mu.Unlock()
		t.fire(*rec, now, true)
		return nil
	}

	t.armLocked(rec)
	t.mu.Unlock()

	logrus.Infof("timer for %s restored: kind=%s remaining=%v", t.entityID, rec.Kind, rec.EndTime.Sub(now))
	return nil
}

// Remaining returns the time left and whether a countdown is armed.
func (t *Timer) Remaining() (time.Duration, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.active == nil {
		return 0, false
	}
	remaining := t.active.EndTime.Sub(t.clock.Now())
	if remaining < 0 {
		remaining = 0
	}
	return remaining, true
}

// Active returns a copy of the armed record.
func (t *Timer) Active() (Record, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.active == nil {
		return Record{}, false
	}
	return *t.active, true
}

// Detach stops the internal ticker but keeps the persisted record, so a later
// Restore resumes the countdown. Used at shutdown.
func (t *Timer) Detach() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.active != nil {
		t.disarmLocked()
	}
}

func (t *Timer) armLocked(rec *Record) {
	t.active = rec
	metrics.ActiveTimers.Inc()

	if t.interval <= 0 {
		return
	}

	stop := make(chan struct{})
	t.stop = stop
	go t.run(stop, t.interval)
}

func (t *Timer) disarmLocked() {
	t.active = nil
	metrics.ActiveTimers.Dec()

	if t.stop != nil {
		close(t.stop)
		t.stop = nil
	}
}

// deleteLocked removes the persisted record after the countdown has been
// consumed. A failure leaves a stale record that will complete again on the
// next Restore; the owner ignores completions that don't match its stage.
func (t *Timer) deleteLocked() {
	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()

	if err := t.store.Delete(ctx, t.entityID); err != nil {
		logrus.Errorf("failed to delete elapsed timer for %s: %v", t.entityID, err)
	}
}

func (t *Timer) run(stop <-chan struct{}, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if t.Tick() <= 0 {
				return
			}
		}
	}
}

func (t *Timer) fire(rec Record, now time.Time, restored bool) {
	source := "tick"
	if restored {
		source = "restore"
	}
	metrics.TimerCompletions.WithLabelValues(string(rec.Kind), source).Inc()
	logrus.Infof("timer for %s completed: kind=%s endTime=%v", t.entityID, rec.Kind, rec.EndTime)

	if t.onComplete == nil {
		return
	}
	t.onComplete(Completion{
		EntityID: rec.EntityID,
		Kind:     rec.Kind,
		EndTime:  rec.EndTime,
		FiredAt:  now,
		Restored: restored,
	})
}
