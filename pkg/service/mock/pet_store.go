// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package mock

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/AccelByte/extend-laundry-pet/pkg/pet"
)

// PetStore is an in-memory pet.Store for testing
type PetStore struct {
	mu   sync.Mutex
	pets map[string]*pet.Pet

	// UpdateError, if set, is returned by Update without storing anything
	UpdateError error
	// GetError, if set, is returned by Get
	GetError error

	// Call tracking
	UpdateCalls int
}

// NewPetStore creates an empty store
func NewPetStore(pets ...*pet.Pet) *PetStore {
	s := &PetStore{pets: make(map[string]*pet.Pet)}
	for _, p := range pets {
		s.pets[p.ID] = p.Clone()
	}
	return s
}

func (s *PetStore) Get(_ context.Context, id string) (*pet.Pet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.GetError != nil {
		return nil, s.GetError
	}
	p, ok := s.pets[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", pet.ErrNotFound, id)
	}
	return p.Clone(), nil
}

func (s *PetStore) Update(_ context.Context, p *pet.Pet) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.UpdateCalls++
	if s.UpdateError != nil {
		return s.UpdateError
	}
	if err := p.Validate(); err != nil {
		return err
	}
	if _, ok := s.pets[p.ID]; !ok {
		return fmt.Errorf("%w: %s", pet.ErrNotFound, p.ID)
	}
	s.pets[p.ID] = p.Clone()
	return nil
}

func (s *PetStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.pets[id]; !ok {
		return fmt.Errorf("%w: %s", pet.ErrNotFound, id)
	}
	delete(s.pets, id)
	return nil
}

func (s *PetStore) Create(_ context.Context, p *pet.Pet) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := p.Validate(); err != nil {
		return err
	}
	if _, ok := s.pets[p.ID]; ok {
		return fmt.Errorf("%w: %s", pet.ErrAlreadyExists, p.ID)
	}
	s.pets[p.ID] = p.Clone()
	return nil
}

func (s *PetStore) List(_ context.Context) ([]*pet.Pet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*pet.Pet, 0, len(s.pets))
	for _, p := range s.pets {
		out = append(out, p.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// SetUpdateError changes UpdateError under the store lock
func (s *PetStore) SetUpdateError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.UpdateError = err
}

// Updates returns how many times Update was called
func (s *PetStore) Updates() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.UpdateCalls
}

// Stored returns a copy of the stored pet, or nil
func (s *PetStore) Stored(id string) *pet.Pet {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pets[id].Clone()
}
