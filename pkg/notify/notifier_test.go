// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package notify

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/AccelByte/extend-laundry-pet/pkg/clock"
)

type scheduled struct {
	at      time.Time
	payload Payload
}

type fakeScheduler struct {
	pending   map[string]scheduled
	calls     int
	cancelled []string
	fail      map[string]error
}

func newFakeScheduler() *fakeScheduler {
	return &fakeScheduler{pending: make(map[string]scheduled), fail: make(map[string]error)}
}

func (f *fakeScheduler) ScheduleAt(_ context.Context, id string, at time.Time, p Payload) error {
	f.calls++
	if err := f.fail[id]; err != nil {
		return err
	}
	f.pending[id] = scheduled{at: at, payload: p}
	return nil
}

func (f *fakeScheduler) Cancel(_ context.Context, id string) error {
	f.cancelled = append(f.cancelled, id)
	delete(f.pending, id)
	return nil
}

type fakeTrackingStore struct {
	records map[string]*Tracking
	saves   int
	saveErr error
}

func newFakeTrackingStore() *fakeTrackingStore {
	return &fakeTrackingStore{records: make(map[string]*Tracking)}
}

func (f *fakeTrackingStore) Load(_ context.Context, entityID string) (*Tracking, error) {
	tr, ok := f.records[entityID]
	if !ok {
		return nil, nil
	}
	cp := *tr
	cp.Marks = make(map[int]Mark, len(tr.Marks))
	for k, v := range tr.Marks {
		cp.Marks[k] = v
	}
	return &cp, nil
}

func (f *fakeTrackingStore) Save(_ context.Context, t *Tracking) error {
	f.saves++
	if f.saveErr != nil {
		return f.saveErr
	}
	f.records[t.EntityID] = t
	return nil
}

func (f *fakeTrackingStore) Delete(_ context.Context, entityID string) error {
	delete(f.records, entityID)
	return nil
}

var reference = time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

const day = 24 * time.Hour

func newTestNotifier(t *testing.T, clk clock.Clock) (*Notifier, *fakeTrackingStore, *fakeScheduler) {
	t.Helper()
	store := newFakeTrackingStore()
	sched := newFakeScheduler()
	n, err := New(store, sched, clk)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return n, store, sched
}

func weekly(ref time.Time) Subject {
	return Subject{EntityID: "pet-1", Name: "Sudsy", ReferenceTime: ref, CycleLengthDays: 7}
}

func TestReconcile_SchedulesFutureCrossings(t *testing.T) {
	clk := clock.NewFake(reference)
	n, store, sched := newTestNotifier(t, clk)

	res, err := n.Reconcile(context.Background(), weekly(reference))
	if err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}

	if res.Health != 100 {
		t.Errorf("Health = %d, expected 100", res.Health)
	}
	if !reflect.DeepEqual(res.Scheduled, []int{25, 10, 5, 0}) {
		t.Errorf("Scheduled = %v", res.Scheduled)
	}

	expected := map[int]time.Duration{
		25: 7 * day * 75 / 100,
		10: 7 * day * 90 / 100,
		5:  7 * day * 95 / 100,
		0:  7 * day,
	}
	for th, offset := range expected {
		got, ok := sched.pending[AlertID("pet-1", th)]
		if !ok {
			t.Errorf("threshold %d not scheduled", th)
			continue
		}
		if !got.at.Equal(reference.Add(offset)) {
			t.Errorf("threshold %d at %v, expected %v", th, got.at, reference.Add(offset))
		}
		if got.payload.Threshold != th || got.payload.Name != "Sudsy" {
			t.Errorf("threshold %d payload = %+v", th, got.payload)
		}
	}

	tr := store.records["pet-1"]
	if tr == nil || len(tr.Marks) != 4 {
		t.Fatalf("tracking = %+v, expected 4 marks", tr)
	}
	if store.saves != 1 {
		t.Errorf("tracking saved %d times, expected 1", store.saves)
	}
}

func TestReconcile_Idempotent(t *testing.T) {
	clk := clock.NewFake(reference)
	n, _, sched := newTestNotifier(t, clk)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := n.Reconcile(ctx, weekly(reference)); err != nil {
			t.Fatalf("Reconcile() #%d error = %v", i+1, err)
		}
		clk.Advance(30 * time.Second)
	}

	// Health falls past 25 but the alert was already scheduled for that crossing.
	clk.Set(reference.Add(6 * day))
	res, err := n.Reconcile(ctx, weekly(reference))
	if err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}
	if len(res.Scheduled) != 0 || len(res.Overdue) != 0 {
		t.Errorf("unexpected work on repeat reconcile: %+v", res)
	}

	if sched.calls != 4 {
		t.Errorf("scheduler called %d times, expected 4", sched.calls)
	}
	if len(sched.cancelled) != 0 {
		t.Errorf("cancelled = %v, expected none", sched.cancelled)
	}
}

func TestReconcile_RearmsAfterRestart(t *testing.T) {
	clk := clock.NewFake(reference)
	n, store, _ := newTestNotifier(t, clk)
	ctx := context.Background()

	if _, err := n.Reconcile(ctx, weekly(reference)); err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}

	// New process: tracking survived, the in-memory scheduler did not.
	clk.Set(reference.Add(6 * day))
	sched := newFakeScheduler()
	restarted, err := New(store, sched, clk)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	res, err := restarted.Reconcile(ctx, weekly(reference))
	if err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}
	if !reflect.DeepEqual(res.Rearmed, []int{10, 5, 0}) {
		t.Errorf("Rearmed = %v, expected the thresholds still ahead", res.Rearmed)
	}
	if len(res.Scheduled) != 0 || len(res.Overdue) != 0 {
		t.Errorf("unexpected work after restart: %+v", res)
	}
	if _, ok := sched.pending[AlertID("pet-1", 25)]; ok {
		t.Error("the 25% alert already fired before the restart and must not be re-armed")
	}
	if got := sched.pending[AlertID("pet-1", 0)].at; !got.Equal(reference.Add(7 * day)) {
		t.Errorf("0%% alert re-armed at %v", got)
	}

	if _, err := restarted.Reconcile(ctx, weekly(reference)); err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}
	if sched.calls != 3 {
		t.Errorf("scheduler called %d times, expected re-arming only once", sched.calls)
	}
}

func TestReconcile_CrossedWhileOffline(t *testing.T) {
	// 6.5 days into a 7 day cycle: health 8.
	now := reference.Add(6*day + 12*time.Hour)
	clk := clock.NewFake(now)
	n, store, sched := newTestNotifier(t, clk)

	res, err := n.Reconcile(context.Background(), weekly(reference))
	if err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}

	if res.Health != 8 {
		t.Fatalf("Health = %d, expected 8", res.Health)
	}
	if !reflect.DeepEqual(res.Overdue, []int{25, 10}) {
		t.Errorf("Overdue = %v, expected [25 10]", res.Overdue)
	}
	if res.Immediate != 10 {
		t.Errorf("Immediate = %d, expected 10", res.Immediate)
	}
	if !reflect.DeepEqual(res.Scheduled, []int{5, 0}) {
		t.Errorf("Scheduled = %v, expected [5 0]", res.Scheduled)
	}

	if _, ok := sched.pending[AlertID("pet-1", 25)]; ok {
		t.Error("less severe overdue threshold should be marked silently")
	}
	if got := sched.pending[AlertID("pet-1", 10)]; !got.at.Equal(now) {
		t.Errorf("overdue alert at %v, expected now", got.at)
	}
	if len(store.records["pet-1"].Marks) != 4 {
		t.Errorf("all thresholds should be marked, got %v", store.records["pet-1"].Thresholds())
	}
}

func TestReconcile_RiseClearsMarks(t *testing.T) {
	clk := clock.NewFake(reference.Add(6 * day))
	n, store, sched := newTestNotifier(t, clk)
	ctx := context.Background()

	if _, err := n.Reconcile(ctx, weekly(reference)); err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}

	// Cycle completed: reference moves to now and health is back at 100.
	newRef := clk.Now()
	res, err := n.Reconcile(ctx, weekly(newRef))
	if err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}

	if res.Health != 100 {
		t.Fatalf("Health = %d, expected 100", res.Health)
	}
	if !reflect.DeepEqual(res.Cancelled, []int{25, 10, 5, 0}) {
		t.Errorf("Cancelled = %v", res.Cancelled)
	}
	if !reflect.DeepEqual(res.Scheduled, []int{25, 10, 5, 0}) {
		t.Errorf("Scheduled = %v", res.Scheduled)
	}
	if got := sched.pending[AlertID("pet-1", 25)].at; !got.Equal(newRef.Add(7 * day * 75 / 100)) {
		t.Errorf("25%% alert at %v, expected projection from new reference", got)
	}
	if store.records["pet-1"].LastHealth != 100 {
		t.Errorf("LastHealth = %d", store.records["pet-1"].LastHealth)
	}
}

func TestReconcile_SchedulerFailureRetriedLater(t *testing.T) {
	clk := clock.NewFake(reference)
	n, store, sched := newTestNotifier(t, clk)
	ctx := context.Background()

	sched.fail[AlertID("pet-1", 10)] = errors.New("permission denied")

	res, err := n.Reconcile(ctx, weekly(reference))
	if err != nil {
		t.Fatalf("Reconcile() error = %v, scheduler failures must not fail reconcile", err)
	}
	if !reflect.DeepEqual(res.Failed, []int{10}) {
		t.Errorf("Failed = %v, expected [10]", res.Failed)
	}
	if store.records["pet-1"].Marked(10) {
		t.Error("failed threshold must stay unmarked")
	}

	delete(sched.fail, AlertID("pet-1", 10))
	res, err = n.Reconcile(ctx, weekly(reference))
	if err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}
	if !reflect.DeepEqual(res.Scheduled, []int{10}) {
		t.Errorf("Scheduled = %v, expected retry of [10]", res.Scheduled)
	}
}

func TestReconcile_StoreFailure(t *testing.T) {
	clk := clock.NewFake(reference)
	n, store, _ := newTestNotifier(t, clk)
	store.saveErr = errors.New("redis down")

	if _, err := n.Reconcile(context.Background(), weekly(reference)); err == nil {
		t.Fatal("Reconcile() expected error when tracking can't be saved")
	}
}

func TestResetAll(t *testing.T) {
	clk := clock.NewFake(reference.Add(5 * day))
	n, store, sched := newTestNotifier(t, clk)
	ctx := context.Background()

	if _, err := n.Reconcile(ctx, weekly(reference)); err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}

	res, err := n.ResetAll(ctx, weekly(clk.Now()))
	if err != nil {
		t.Fatalf("ResetAll() error = %v", err)
	}

	if len(sched.cancelled) != 4 {
		t.Errorf("cancelled %v, expected every marked alert", sched.cancelled)
	}
	if len(res.Overdue) != 0 || !reflect.DeepEqual(res.Scheduled, []int{25, 10, 5, 0}) {
		t.Errorf("ResetAll result = %+v", res)
	}
	tr := store.records["pet-1"]
	if !tr.ReferenceTime.Equal(clk.Now()) || len(tr.Marks) != 4 {
		t.Errorf("tracking after reset = %+v", tr)
	}
}

func TestForget(t *testing.T) {
	clk := clock.NewFake(reference)
	n, store, sched := newTestNotifier(t, clk)
	ctx := context.Background()

	if _, err := n.Reconcile(ctx, weekly(reference)); err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}
	if err := n.Forget(ctx, "pet-1"); err != nil {
		t.Fatalf("Forget() error = %v", err)
	}

	if len(sched.pending) != 0 {
		t.Errorf("pending alerts left: %v", sched.pending)
	}
	if _, ok := store.records["pet-1"]; ok {
		t.Error("tracking should be deleted")
	}
	if err := n.Forget(ctx, "pet-1"); err != nil {
		t.Errorf("Forget() on unknown entity error = %v", err)
	}
}

func TestNew_Thresholds(t *testing.T) {
	tests := []struct {
		name     string
		input    []int
		expected []int
		wantErr  bool
	}{
		{name: "default", input: nil, expected: []int{25, 10, 5, 0}},
		{name: "sorted and deduplicated", input: []int{5, 50, 5, 20}, expected: []int{50, 20, 5}},
		{name: "negative", input: []int{10, -1}, wantErr: true},
		{name: "full health", input: []int{100}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, err := New(newFakeTrackingStore(), newFakeScheduler(), clock.Real{}, tt.input...)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidThresholds) {
					t.Errorf("New() error = %v, expected ErrInvalidThresholds", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			if !reflect.DeepEqual(n.Thresholds(), tt.expected) {
				t.Errorf("Thresholds() = %v, expected %v", n.Thresholds(), tt.expected)
			}
		})
	}
}
