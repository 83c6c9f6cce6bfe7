// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package alert

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/AccelByte/extend-laundry-pet/pkg/clock"
	"github.com/AccelByte/extend-laundry-pet/pkg/metrics"
	"github.com/AccelByte/extend-laundry-pet/pkg/notify"
	"github.com/sirupsen/logrus"
)

const publishTimeout = 5 * time.Second

type pending struct {
	timer  *time.Timer
	fireAt time.Time
}

// LocalScheduler implements notify.Scheduler with one runtime timer per
// pending alert. Pending alerts do not survive a restart; the notifier
// re-marks crossed thresholds on the next reconcile.
type LocalScheduler struct {
	publisher Publisher
	clock     clock.Clock
	enabled   bool

	mu      sync.Mutex
	pending map[string]*pending
	closed  bool
}

var _ notify.Scheduler = (*LocalScheduler)(nil)

// NewLocalScheduler creates a scheduler. When enabled is false every
// ScheduleAt fails with ErrPermissionDenied.
func NewLocalScheduler(publisher Publisher, clk clock.Clock, enabled bool) *LocalScheduler {
	return &LocalScheduler{
		publisher: publisher,
		clock:     clk,
		enabled:   enabled,
		pending:   make(map[string]*pending),
	}
}

// ScheduleAt arms an alert. An existing alert with the same id is replaced.
// Instants in the past are delivered right away.
func (s *LocalScheduler) ScheduleAt(_ context.Context, id string, at time.Time, p notify.Payload) error {
	if !s.enabled {
		return ErrPermissionDenied
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	if old, ok := s.pending[id]; ok {
		old.timer.Stop()
	}

	delay := at.Sub(s.clock.Now())
	if delay < 0 {
		delay = 0
	}

	entry := &pending{fireAt: at}
	entry.timer = time.AfterFunc(delay, func() {
		s.deliver(id, entry, p)
	})
	s.pending[id] = entry

	logrus.Debugf("alert %s scheduled at %v", id, at)
	return nil
}

// Cancel drops a pending alert. Unknown ids are ignored.
func (s *LocalScheduler) Cancel(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry, ok := s.pending[id]; ok {
		entry.timer.Stop()
		delete(s.pending, id)
	}
	return nil
}

// Pending returns the ids of alerts not yet delivered, sorted.
func (s *LocalScheduler) Pending() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]string, 0, len(s.pending))
	for id := range s.pending {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Close stops every pending alert and closes the publisher.
func (s *LocalScheduler) Close() error {
	s.mu.Lock()
	s.closed = true
	for id, entry := range s.pending {
		entry.timer.Stop()
		delete(s.pending, id)
	}
	s.mu.Unlock()

	return s.publisher.Close()
}

func (s *LocalScheduler) deliver(id string, entry *pending, p notify.Payload) {
	s.mu.Lock()
	if s.pending[id] != entry {
		// Replaced or cancelled after the runtime timer fired.
		s.mu.Unlock()
		return
	}
	delete(s.pending, id)
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	a := Alert{
		ID:          id,
		FireAt:      entry.fireAt,
		DeliveredAt: s.clock.Now(),
		Payload:     p,
	}
	if err := s.publisher.Publish(ctx, a); err != nil {
		metrics.AlertsDelivered.WithLabelValues("error").Inc()
		logrus.Errorf("failed to publish alert %s: %v", id, err)
		return
	}
	metrics.AlertsDelivered.WithLabelValues("ok").Inc()
}
