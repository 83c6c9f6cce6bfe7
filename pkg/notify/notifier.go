// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

// Package notify keeps decay alerts in step with an entity's health. Each
// threshold alerts once per decay cycle; alerts for thresholds still ahead are
// scheduled for the instant health is projected to cross them.
package notify

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/AccelByte/extend-laundry-pet/pkg/clock"
	"github.com/AccelByte/extend-laundry-pet/pkg/decay"
	"github.com/AccelByte/extend-laundry-pet/pkg/metrics"
	"github.com/sirupsen/logrus"
)

// DefaultThresholds are the health levels that raise an alert.
var DefaultThresholds = []int{25, 10, 5, 0}

// Subject is the decay input of one entity.
type Subject struct {
	EntityID        string
	Name            string
	ReferenceTime   time.Time
	CycleLengthDays int
}

// Result summarises one reconciliation.
type Result struct {
	Health    int
	Scheduled []int
	Cancelled []int
	Failed    []int
	// Rearmed lists pending thresholds handed to the scheduler again after a
	// restart.
	Rearmed []int
	// Overdue lists thresholds that were already crossed when first seen.
	Overdue []int
	// Immediate is the overdue threshold that was alerted right away, or -1.
	Immediate int
}

// Notifier reconciles tracking records against the scheduler.
type Notifier struct {
	thresholds []int
	store      TrackingStore
	scheduler  Scheduler
	clock      clock.Clock

	// armed holds entities whose pending alerts were handed to the scheduler
	// by this process. The scheduler may not keep alerts across restarts.
	armed map[string]bool
	mu    sync.Mutex
}

// New creates a notifier. With no thresholds DefaultThresholds is used.
func New(store TrackingStore, scheduler Scheduler, clk clock.Clock, thresholds ...int) (*Notifier, error) {
	if len(thresholds) == 0 {
		thresholds = DefaultThresholds
	}

	seen := make(map[int]bool, len(thresholds))
	sorted := make([]int, 0, len(thresholds))
	for _, th := range thresholds {
		if th < 0 || th >= 100 {
			return nil, fmt.Errorf("%w: %d", ErrInvalidThresholds, th)
		}
		if !seen[th] {
			seen[th] = true
			sorted = append(sorted, th)
		}
	}
	sort.Sort(sort.Reverse(sort.IntSlice(sorted)))

	return &Notifier{
		thresholds: sorted,
		store:      store,
		scheduler:  scheduler,
		clock:      clk,
		armed:      make(map[string]bool),
	}, nil
}

// Thresholds returns the configured thresholds, highest first.
func (n *Notifier) Thresholds() []int {
	return append([]int(nil), n.thresholds...)
}

// Reconcile brings the scheduled alerts for s in line with its current health.
// Scheduler failures are not returned; the affected threshold stays unmarked
// and is retried on the next call. Only tracking store failures are errors.
func (n *Notifier) Reconcile(ctx context.Context, s Subject) (Result, error) {
	tr, err := n.store.Load(ctx, s.EntityID)
	if err != nil {
		return Result{Immediate: -1}, fmt.Errorf("failed to load alert tracking for %s: %w", s.EntityID, err)
	}
	if tr == nil {
		tr = NewTracking(s.EntityID)
	}
	if tr.Marks == nil {
		tr.Marks = make(map[int]Mark)
	}

	return n.reconcile(ctx, s, tr)
}

// ResetAll cancels every marked alert and rebuilds tracking from scratch.
// Called when a cycle completes and health is back at 100.
func (n *Notifier) ResetAll(ctx context.Context, s Subject) (Result, error) {
	tr, err := n.store.Load(ctx, s.EntityID)
	if err != nil {
		logrus.Warnf("failed to load alert tracking for %s before reset: %v", s.EntityID, err)
		tr = nil
	}
	if tr != nil {
		n.cancelAll(ctx, tr)
	}

	return n.reconcile(ctx, s, NewTracking(s.EntityID))
}

// Forget cancels every marked alert and deletes the tracking record.
func (n *Notifier) Forget(ctx context.Context, entityID string) error {
	tr, err := n.store.Load(ctx, entityID)
	if err != nil {
		return fmt.Errorf("failed to load alert tracking for %s: %w", entityID, err)
	}
	if tr != nil {
		n.cancelAll(ctx, tr)
	}

	if err := n.store.Delete(ctx, entityID); err != nil {
		return fmt.Errorf("failed to delete alert tracking for %s: %w", entityID, err)
	}
	n.setArmed(entityID, false)
	return nil
}

func (n *Notifier) reconcile(ctx context.Context, s Subject, tr *Tracking) (Result, error) {
	now := n.clock.Now()
	health := decay.Calculate(s.ReferenceTime, s.CycleLengthDays, now).Health
	res := Result{Health: health, Immediate: -1}

	inputsChanged := !tr.ReferenceTime.Equal(s.ReferenceTime) || tr.CycleLengthDays != s.CycleLengthDays
	if inputsChanged || health > tr.LastHealth {
		for _, th := range tr.Thresholds() {
			mark := tr.Marks[th]
			// Pending alerts were projected from the old inputs.
			stale := inputsChanged && mark.FireAt.After(now)
			if th < health || stale {
				n.cancel(ctx, mark.AlertID)
				delete(tr.Marks, th)
				res.Cancelled = append(res.Cancelled, th)
			}
		}
	}

	if !n.isArmed(s.EntityID) {
		n.rearm(ctx, s, tr, health, now, &res)
	}

	for _, th := range n.thresholds {
		if th >= health || tr.Marked(th) {
			continue
		}

		at := decay.CrossingTime(s.ReferenceTime, s.CycleLengthDays, th)
		id := AlertID(s.EntityID, th)
		tr.Marks[th] = Mark{AlertID: id, FireAt: at}

		if err := n.scheduler.ScheduleAt(ctx, id, at, newPayload(s.EntityID, s.Name, th)); err != nil {
			delete(tr.Marks, th)
			res.Failed = append(res.Failed, th)
			metrics.AlertScheduleFailures.Inc()
			logrus.Warnf("failed to schedule %d%% alert for %s: %v", th, s.EntityID, err)
			continue
		}
		res.Scheduled = append(res.Scheduled, th)
		metrics.AlertsScheduled.WithLabelValues(strconv.Itoa(th)).Inc()
	}

	for _, th := range n.thresholds {
		if th < health || tr.Marked(th) {
			continue
		}
		tr.Marks[th] = Mark{AlertID: AlertID(s.EntityID, th), FireAt: now}
		res.Overdue = append(res.Overdue, th)
	}

	// Thresholds are descending, so the last overdue one is the most severe.
	// Only that one is announced; the rest are marked silently.
	if len(res.Overdue) > 0 {
		th := res.Overdue[len(res.Overdue)-1]
		id := AlertID(s.EntityID, th)
		if err := n.scheduler.ScheduleAt(ctx, id, now, newPayload(s.EntityID, s.Name, th)); err != nil {
			delete(tr.Marks, th)
			res.Failed = append(res.Failed, th)
			metrics.AlertScheduleFailures.Inc()
			logrus.Warnf("failed to deliver overdue %d%% alert for %s: %v", th, s.EntityID, err)
		} else {
			res.Immediate = th
			metrics.AlertsScheduled.WithLabelValues(strconv.Itoa(th)).Inc()
		}
	}

	tr.EntityID = s.EntityID
	tr.ReferenceTime = s.ReferenceTime
	tr.CycleLengthDays = s.CycleLengthDays
	tr.LastHealth = health

	if err := n.store.Save(ctx, tr); err != nil {
		return res, fmt.Errorf("failed to save alert tracking for %s: %w", s.EntityID, err)
	}
	n.setArmed(s.EntityID, true)

	if len(res.Scheduled)+len(res.Cancelled)+len(res.Overdue)+len(res.Rearmed) > 0 {
		logrus.Debugf("reconciled alerts for %s: health=%d scheduled=%v cancelled=%v overdue=%v rearmed=%v",
			s.EntityID, health, res.Scheduled, res.Cancelled, res.Overdue, res.Rearmed)
	}
	return res, nil
}

// rearm hands marked alerts that are still ahead back to the scheduler. A mark
// that can't be rescheduled is dropped so the main pass schedules it again.
func (n *Notifier) rearm(ctx context.Context, s Subject, tr *Tracking, health int, now time.Time, res *Result) {
	for _, th := range tr.Thresholds() {
		mark := tr.Marks[th]
		if th >= health || !mark.FireAt.After(now) {
			continue
		}
		if err := n.scheduler.ScheduleAt(ctx, mark.AlertID, mark.FireAt, newPayload(s.EntityID, s.Name, th)); err != nil {
			logrus.Warnf("failed to re-arm %d%% alert for %s: %v", th, s.EntityID, err)
			delete(tr.Marks, th)
			continue
		}
		res.Rearmed = append(res.Rearmed, th)
	}
}

func (n *Notifier) isArmed(entityID string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.armed[entityID]
}

func (n *Notifier) setArmed(entityID string, armed bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if armed {
		n.armed[entityID] = true
	} else {
		delete(n.armed, entityID)
	}
}

func (n *Notifier) cancelAll(ctx context.Context, tr *Tracking) {
	for _, th := range tr.Thresholds() {
		n.cancel(ctx, tr.Marks[th].AlertID)
	}
}

func (n *Notifier) cancel(ctx context.Context, id string) {
	if id == "" {
		return
	}
	if err := n.scheduler.Cancel(ctx, id); err != nil {
		logrus.Warnf("failed to cancel alert %s: %v", id, err)
	}
}
