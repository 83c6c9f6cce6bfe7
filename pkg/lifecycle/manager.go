// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/sirupsen/logrus"
)

// Manager keeps one Controller per attached pet and registers each with the
// broadcaster.
type Manager struct {
	deps        Deps
	cfg         Config
	broadcaster *Broadcaster

	controllers map[string]*Controller
	mu          sync.RWMutex
}

// NewManager creates an empty manager.
func NewManager(deps Deps, cfg Config, broadcaster *Broadcaster) *Manager {
	return &Manager{
		deps:        deps,
		cfg:         cfg,
		broadcaster: broadcaster,
		controllers: make(map[string]*Controller),
	}
}

// Attach starts a controller for id. Attaching an attached pet returns the
// existing controller.
func (m *Manager) Attach(ctx context.Context, id string) (*Controller, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if c, ok := m.controllers[id]; ok {
		return c, nil
	}

	c, err := Start(ctx, id, m.deps, m.cfg)
	if err != nil {
		return nil, err
	}

	m.controllers[id] = c
	m.broadcaster.Register(id, c)
	return c, nil
}

// AttachAll attaches every pet in the store. Pets that fail to attach are
// reported together; the rest stay attached.
func (m *Manager) AttachAll(ctx context.Context) error {
	pets, err := m.deps.Pets.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list pets: %w", err)
	}

	var errs []error
	for _, p := range pets {
		if _, err := m.Attach(ctx, p.ID); err != nil {
			logrus.Errorf("failed to attach pet %s: %v", p.ID, err)
			errs = append(errs, err)
		}
	}

	logrus.Infof("attached %d of %d pets", len(pets)-len(errs), len(pets))
	return errors.Join(errs...)
}

// Get returns the controller for id.
func (m *Manager) Get(id string) (*Controller, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	c, ok := m.controllers[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotAttached, id)
	}
	return c, nil
}

// IDs returns the attached pet ids, sorted.
func (m *Manager) IDs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make([]string, 0, len(m.controllers))
	for id := range m.controllers {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Detach stops the controller for id, keeping all persisted state.
func (m *Manager) Detach(id string) error {
	m.mu.Lock()
	c, ok := m.controllers[id]
	delete(m.controllers, id)
	m.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrNotAttached, id)
	}

	m.broadcaster.Deregister(id)
	c.Close()
	return nil
}

// Delete removes a pet with its countdown and alert tracking.
func (m *Manager) Delete(ctx context.Context, id string) error {
	c, err := m.Get(id)
	if err != nil {
		return err
	}

	m.broadcaster.Deregister(id)
	if err := c.destroy(ctx); err != nil {
		m.broadcaster.Register(id, c)
		return err
	}

	m.mu.Lock()
	delete(m.controllers, id)
	m.mu.Unlock()

	logrus.Infof("pet %s deleted", id)
	return nil
}

// Shutdown detaches every controller.
func (m *Manager) Shutdown() {
	for _, id := range m.IDs() {
		if err := m.Detach(id); err != nil {
			logrus.Warnf("failed to detach pet %s: %v", id, err)
		}
	}
}
