// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package bootstrap

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/AccelByte/extend-laundry-pet/pkg/alert"
	"github.com/AccelByte/extend-laundry-pet/pkg/clock"
	"github.com/AccelByte/extend-laundry-pet/pkg/lifecycle"
	"github.com/AccelByte/extend-laundry-pet/pkg/service"
	"github.com/alicebob/miniredis/v2"
)

func TestInitRedis(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	defer mr.Close()

	client, err := InitRedis(context.Background(), RedisOptions{Addr: mr.Addr(), MaxRetries: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer client.Close()

	timers, tracking := InitRecordStores(client, service.RecordStoreConfig{KeyPrefix: "test:"})
	if timers == nil || tracking == nil {
		t.Fatal("expected both record stores")
	}
}

func TestInitRedis_Unreachable(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	addr := mr.Addr()
	mr.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if _, err := InitRedis(ctx, RedisOptions{Addr: addr, MaxRetries: 0}); err == nil {
		t.Fatal("expected an error for an unreachable server")
	}
}

func TestInitNotifier(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	defer mr.Close()

	client, err := InitRedis(context.Background(), RedisOptions{Addr: mr.Addr()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer client.Close()
	_, tracking := InitRecordStores(client, service.RecordStoreConfig{})

	pub, err := InitPublisher(AlertOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := pub.(alert.LogPublisher); !ok {
		t.Fatalf("expected log publisher without a broker, got %T", pub)
	}

	notifier, scheduler, err := InitNotifier(AlertOptions{Enabled: true, Thresholds: []int{10, 50}}, pub, tracking, clock.Real{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer scheduler.Close()
	if got := notifier.Thresholds(); len(got) != 2 || got[0] != 50 {
		t.Errorf("expected thresholds sorted descending, got %v", got)
	}

	if _, _, err := InitNotifier(AlertOptions{Thresholds: []int{120}}, pub, tracking, clock.Real{}); err == nil {
		t.Error("expected invalid thresholds to be rejected")
	}
}

func TestInitLifecycle(t *testing.T) {
	pets, err := InitPetStore(filepath.Join(t.TempDir(), "pets.db"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer pets.Close()

	manager, broadcaster := InitLifecycle(lifecycle.Deps{Pets: pets, Clock: clock.Real{}}, lifecycle.DefaultConfig(), time.Minute)
	if manager == nil || broadcaster == nil {
		t.Fatal("expected manager and broadcaster")
	}
	if len(manager.IDs()) != 0 {
		t.Errorf("expected no attached pets, got %v", manager.IDs())
	}
}
