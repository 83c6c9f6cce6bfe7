// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/AccelByte/extend-laundry-pet/pkg/metrics"
	"github.com/AccelByte/extend-laundry-pet/pkg/notify"
	"github.com/AccelByte/extend-laundry-pet/pkg/timer"
	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
)

const (
	timerConcern    = "timer"
	trackingConcern = "notif"
)

// RecordStoreConfig configures a RecordStore.
type RecordStoreConfig struct {
	// KeyPrefix is prepended to every key, e.g. "laundry_pet:".
	KeyPrefix string
	// TTL of each record. Zero keeps records until deleted.
	TTL time.Duration
}

// RecordStore keeps one JSON record of type T per entity under
// "<prefix><concern>:<entityID>". A single SET replaces the whole record.
type RecordStore[T any] struct {
	client  redis.UniversalClient
	concern string
	cfg     RecordStoreConfig
}

// NewRecordStore creates a store for one concern.
func NewRecordStore[T any](client redis.UniversalClient, concern string, cfg RecordStoreConfig) *RecordStore[T] {
	return &RecordStore[T]{
		client:  client,
		concern: concern,
		cfg:     cfg,
	}
}

// Key returns the Redis key for entityID.
func (r *RecordStore[T]) Key(entityID string) string {
	return fmt.Sprintf("%s%s:%s", r.cfg.KeyPrefix, r.concern, entityID)
}

// Get returns the record, or nil when it is missing or can't be decoded.
// Undecodable records are deleted.
func (r *RecordStore[T]) Get(ctx context.Context, entityID string) (*T, error) {
	key := r.Key(entityID)

	data, err := r.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		logrus.Errorf("failed to get %s record for %s: %v", r.concern, entityID, err)
		return nil, fmt.Errorf("failed to get %s record: %w", r.concern, err)
	}

	var rec T
	if err := json.Unmarshal(data, &rec); err != nil {
		logrus.Warnf("discarding corrupt %s record for %s: %v", r.concern, entityID, err)
		metrics.CorruptRecords.WithLabelValues(r.concern).Inc()
		if err := r.client.Del(ctx, key).Err(); err != nil {
			logrus.Errorf("failed to delete corrupt %s record for %s: %v", r.concern, entityID, err)
		}
		return nil, nil
	}

	return &rec, nil
}

// Set writes the record.
func (r *RecordStore[T]) Set(ctx context.Context, entityID string, rec *T) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal %s record: %w", r.concern, err)
	}

	if err := r.client.Set(ctx, r.Key(entityID), data, r.cfg.TTL).Err(); err != nil {
		logrus.Errorf("failed to set %s record for %s: %v", r.concern, entityID, err)
		return fmt.Errorf("failed to set %s record: %w", r.concern, err)
	}

	logrus.Debugf("updated %s record for %s", r.concern, entityID)
	return nil
}

// Delete removes the record. Missing records are not an error.
func (r *RecordStore[T]) Delete(ctx context.Context, entityID string) error {
	if err := r.client.Del(ctx, r.Key(entityID)).Err(); err != nil {
		logrus.Errorf("failed to delete %s record for %s: %v", r.concern, entityID, err)
		return fmt.Errorf("failed to delete %s record: %w", r.concern, err)
	}
	return nil
}

// RedisTimerStore implements timer.Store.
type RedisTimerStore struct {
	records *RecordStore[timer.Record]
}

var _ timer.Store = (*RedisTimerStore)(nil)

// NewRedisTimerStore creates a timer store keyed "timer:<entityID>".
func NewRedisTimerStore(client redis.UniversalClient, cfg RecordStoreConfig) *RedisTimerStore {
	return &RedisTimerStore{records: NewRecordStore[timer.Record](client, timerConcern, cfg)}
}

func (s *RedisTimerStore) Load(ctx context.Context, entityID string) (*timer.Record, error) {
	return s.records.Get(ctx, entityID)
}

func (s *RedisTimerStore) Save(ctx context.Context, rec *timer.Record) error {
	return s.records.Set(ctx, rec.EntityID, rec)
}

func (s *RedisTimerStore) Delete(ctx context.Context, entityID string) error {
	return s.records.Delete(ctx, entityID)
}

// RedisTrackingStore implements notify.TrackingStore.
type RedisTrackingStore struct {
	records *RecordStore[notify.Tracking]
}

var _ notify.TrackingStore = (*RedisTrackingStore)(nil)

// NewRedisTrackingStore creates a tracking store keyed "notif:<entityID>".
func NewRedisTrackingStore(client redis.UniversalClient, cfg RecordStoreConfig) *RedisTrackingStore {
	return &RedisTrackingStore{records: NewRecordStore[notify.Tracking](client, trackingConcern, cfg)}
}

func (s *RedisTrackingStore) Load(ctx context.Context, entityID string) (*notify.Tracking, error) {
	return s.records.Get(ctx, entityID)
}

func (s *RedisTrackingStore) Save(ctx context.Context, t *notify.Tracking) error {
	return s.records.Set(ctx, t.EntityID, t)
}

func (s *RedisTrackingStore) Delete(ctx context.Context, entityID string) error {
	return s.records.Delete(ctx, entityID)
}
