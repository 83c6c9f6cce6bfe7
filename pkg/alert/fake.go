// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package alert

import (
	"context"
	"sync"
)

// FakePublisher records published alerts for test assertions.
type FakePublisher struct {
	mu sync.Mutex

	alerts []Alert

	// PublishError, if set, is returned by Publish.
	PublishError error

	// Delivered receives every successfully published alert when non-nil.
	Delivered chan Alert

	Closed bool
}

// NewFakePublisher creates a FakePublisher with a buffered Delivered channel.
func NewFakePublisher() *FakePublisher {
	return &FakePublisher{Delivered: make(chan Alert, 32)}
}

// Publish records the alert.
func (f *FakePublisher) Publish(_ context.Context, a Alert) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.PublishError != nil {
		return f.PublishError
	}
	f.alerts = append(f.alerts, a)
	if f.Delivered != nil {
		select {
		case f.Delivered <- a:
		default:
		}
	}
	return nil
}

// Alerts returns a copy of everything published so far.
func (f *FakePublisher) Alerts() []Alert {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Alert(nil), f.alerts...)
}

// Close marks the publisher closed.
func (f *FakePublisher) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Closed = true
	return nil
}
