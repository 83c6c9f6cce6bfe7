// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package mock

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/AccelByte/extend-laundry-pet/pkg/notify"
)

// ScheduledAlert is one pending alert held by Scheduler
type ScheduledAlert struct {
	At      time.Time
	Payload notify.Payload
}

// Scheduler is a notify.Scheduler that only records calls
type Scheduler struct {
	mu      sync.Mutex
	pending map[string]ScheduledAlert

	// ScheduleError, if set, is returned by ScheduleAt
	ScheduleError error

	// Call tracking
	ScheduleCalls []string
	CancelCalls   []string
}

// NewScheduler creates an empty scheduler
func NewScheduler() *Scheduler {
	return &Scheduler{pending: make(map[string]ScheduledAlert)}
}

func (s *Scheduler) ScheduleAt(_ context.Context, id string, at time.Time, p notify.Payload) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.ScheduleCalls = append(s.ScheduleCalls, id)
	if s.ScheduleError != nil {
		return s.ScheduleError
	}
	s.pending[id] = ScheduledAlert{At: at, Payload: p}
	return nil
}

func (s *Scheduler) Cancel(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.CancelCalls = append(s.CancelCalls, id)
	delete(s.pending, id)
	return nil
}

// Pending returns the ids of scheduled alerts, sorted
func (s *Scheduler) Pending() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]string, 0, len(s.pending))
	for id := range s.pending {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Alert returns a pending alert by id
func (s *Scheduler) Alert(id string) (ScheduledAlert, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.pending[id]
	return a, ok
}

// ScheduleCount returns how many times ScheduleAt was called
func (s *Scheduler) ScheduleCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.ScheduleCalls)
}
