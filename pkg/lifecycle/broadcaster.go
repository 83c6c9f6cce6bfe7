// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package lifecycle

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/AccelByte/extend-laundry-pet/pkg/clock"
	"github.com/sirupsen/logrus"
)

// DefaultTickInterval is the period of the global decay tick.
const DefaultTickInterval = 30 * time.Second

// Listener receives periodic ticks. OnPeriodicTick must not block.
type Listener interface {
	OnPeriodicTick(now time.Time)
}

// Broadcaster fans one global ticker out to every registered listener.
type Broadcaster struct {
	interval time.Duration
	clock    clock.Clock

	listeners map[string]Listener
	mu        sync.RWMutex
}

// NewBroadcaster creates a broadcaster ticking every interval.
func NewBroadcaster(interval time.Duration, clk clock.Clock) *Broadcaster {
	if interval <= 0 {
		interval = DefaultTickInterval
	}
	return &Broadcaster{
		interval:  interval,
		clock:     clk,
		listeners: make(map[string]Listener),
	}
}

// Register adds or replaces the listener for id.
func (b *Broadcaster) Register(id string, l Listener) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.listeners[id] = l
}

// Deregister removes the listener for id.
func (b *Broadcaster) Deregister(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	delete(b.listeners, id)
}

// IDs returns the registered ids, sorted.
func (b *Broadcaster) IDs() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	ids := make([]string, 0, len(b.listeners))
	for id := range b.listeners {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Broadcast delivers one tick to every listener.
func (b *Broadcaster) Broadcast(now time.Time) {
	b.mu.RLock()
	listeners := make([]Listener, 0, len(b.listeners))
	for _, l := range b.listeners {
		listeners = append(listeners, l)
	}
	b.mu.RUnlock()

	for _, l := range listeners {
		l.OnPeriodicTick(now)
	}
}

// Run ticks until ctx is cancelled.
func (b *Broadcaster) Run(ctx context.Context) {
	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()

	logrus.Infof("broadcasting decay ticks every %v", b.interval)
	for {
		select {
		case <-ctx.Done():
			logrus.Infof("tick broadcaster stopped")
			return
		case <-ticker.C:
			b.Broadcast(b.clock.Now())
		}
	}
}
