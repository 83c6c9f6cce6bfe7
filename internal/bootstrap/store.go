// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package bootstrap

import (
	"context"
	"time"

	"github.com/AccelByte/extend-laundry-pet/pkg/service"
	"github.com/cenkalti/backoff/v4"
	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
)

// RedisOptions describes how to reach Redis.
type RedisOptions struct {
	Addr       string
	Password   string
	MaxRetries uint64
}

// InitRedis creates the Redis client and pings it with exponential backoff
// until it answers or MaxRetries is exhausted.
func InitRedis(ctx context.Context, opts RedisOptions) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         opts.Addr,
		Password:     opts.Password,
		DB:           0,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	b := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), opts.MaxRetries), ctx)
	err := backoff.Retry(
		func() error {
			_, err := client.Ping(ctx).Result()
			if err != nil {
				logrus.Warnf("Redis connection failed: %v, retrying...", err)
				return err
			}
			return nil
		},
		b,
	)
	if err != nil {
		_ = client.Close()
		return nil, err
	}

	logrus.Infof("Redis client initialized (%s)", opts.Addr)
	return client, nil
}

// InitRecordStores creates the countdown and alert tracking stores sharing one
// client and key prefix.
func InitRecordStores(client redis.UniversalClient, cfg service.RecordStoreConfig) (*service.RedisTimerStore, *service.RedisTrackingStore) {
	timers := service.NewRedisTimerStore(client, cfg)
	tracking := service.NewRedisTrackingStore(client, cfg)
	logrus.Infof("initialized record stores (prefix %q, ttl %v)", cfg.KeyPrefix, cfg.TTL)
	return timers, tracking
}

// InitPetStore opens the SQLite pet store.
func InitPetStore(path string) (*service.SQLitePetStore, error) {
	return service.NewSQLitePetStore(path)
}
