// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

// Package lifecycle drives each pet through its laundry cycle. A Controller
// owns one pet and runs as a single actor: caller operations, countdown
// completions and periodic ticks are all executed one at a time from the same
// mailbox.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/AccelByte/extend-laundry-pet/pkg/clock"
	"github.com/AccelByte/extend-laundry-pet/pkg/common"
	"github.com/AccelByte/extend-laundry-pet/pkg/decay"
	"github.com/AccelByte/extend-laundry-pet/pkg/metrics"
	"github.com/AccelByte/extend-laundry-pet/pkg/notify"
	"github.com/AccelByte/extend-laundry-pet/pkg/pet"
	"github.com/AccelByte/extend-laundry-pet/pkg/stage"
	"github.com/AccelByte/extend-laundry-pet/pkg/timer"
	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	DefaultMaxExtendMinutes  = 240
	DefaultMailboxSize       = 16
	DefaultCompletionRetries = 5
)

// Deps are the collaborators shared by every controller.
type Deps struct {
	Pets     pet.Store
	Timers   timer.Store
	Notifier *notify.Notifier
	Clock    clock.Clock
	// NewID generates task ids. Defaults to uuid.NewString.
	NewID func() string
}

// Config tunes controller behaviour.
type Config struct {
	MaxExtendMinutes int
	// CountdownInterval is the countdown tick period. Zero disables the
	// internal ticker.
	CountdownInterval time.Duration
	MailboxSize       int
	// CompletionRetries bounds how often a countdown completion is retried
	// against the pet store.
	CompletionRetries uint64
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		MaxExtendMinutes:  DefaultMaxExtendMinutes,
		CountdownInterval: timer.DefaultTickInterval,
		MailboxSize:       DefaultMailboxSize,
		CompletionRetries: DefaultCompletionRetries,
	}
}

// Status is a point-in-time view of a pet.
type Status struct {
	Pet         *pet.Pet
	Decay       decay.Result
	Stage       stage.Stage
	TimerActive bool
	TimerKind   timer.Kind
	Remaining   time.Duration
	Allowed     []stage.Action
}

// Controller owns one pet. All exported methods are safe for concurrent use.
type Controller struct {
	id    string
	deps  Deps
	cfg   Config
	timer *timer.Timer

	// pet is the last state known to be persisted. Only the actor goroutine
	// touches it after start.
	pet *pet.Pet
	// unsaved holds a completion whose stage change could not be persisted.
	unsaved *timer.Completion

	mailbox chan func()
	ctx     context.Context
	cancel  context.CancelFunc
	done    chan struct{}
}

// Start loads the pet, restores its countdown and starts the actor.
func Start(ctx context.Context, id string, deps Deps, cfg Config) (*Controller, error) {
	if deps.NewID == nil {
		deps.NewID = uuid.NewString
	}
	if cfg.MaxExtendMinutes <= 0 {
		cfg.MaxExtendMinutes = DefaultMaxExtendMinutes
	}
	if cfg.MailboxSize <= 0 {
		cfg.MailboxSize = DefaultMailboxSize
	}

	p, err := deps.Pets.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load pet %s: %w", id, err)
	}

	lifeCtx, cancel := context.WithCancel(context.Background())
	c := &Controller{
		id:      id,
		deps:    deps,
		cfg:     cfg,
		pet:     p,
		mailbox: make(chan func(), cfg.MailboxSize),
		ctx:     lifeCtx,
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	c.timer = timer.New(id, deps.Clock, deps.Timers, c.OnTimerCompleted,
		timer.WithTickInterval(cfg.CountdownInterval))

	go c.run()

	// A countdown that elapsed while the process was down completes here and
	// its completion is queued ahead of everything else.
	if err := c.timer.Restore(ctx); err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to restore timer for %s: %w", id, err)
	}
	c.mailbox <- c.reconcileTimer
	c.mailbox <- c.tick

	logrus.Infof("controller for pet %s started in stage %s", id, c.stageOf(p))
	return c, nil
}

// ID returns the pet id.
func (c *Controller) ID() string {
	return c.id
}

// StartCycle begins washing. A completed task from the previous cycle is
// acknowledged and replaced.
func (c *Controller) StartCycle(ctx context.Context) error {
	return c.do(ctx, "StartCycle", c.startCycle)
}

// AdvanceAfterStageA moves a washed load into the dryer.
func (c *Controller) AdvanceAfterStageA(ctx context.Context) error {
	return c.do(ctx, "AdvanceAfterStageA", c.advanceAfterStageA)
}

// AdvanceAfterStageB acknowledges a dried load, which completes the cycle.
func (c *Controller) AdvanceAfterStageB(ctx context.Context) error {
	return c.do(ctx, "AdvanceAfterStageB", c.completeCycle)
}

// ExtendStageB re-enters drying for extraMinutes.
func (c *Controller) ExtendStageB(ctx context.Context, extraMinutes int) error {
	return c.do(ctx, "ExtendStageB", func(scope *common.Scope) error {
		return c.extendStageB(scope, extraMinutes)
	})
}

// CompleteCycle finishes a dried load and restores the pet to full health.
func (c *Controller) CompleteCycle(ctx context.Context) error {
	return c.do(ctx, "CompleteCycle", c.completeCycle)
}

// CancelActiveTimer stops a running wash or dry. Without a running countdown it
// does nothing.
func (c *Controller) CancelActiveTimer(ctx context.Context) error {
	return c.do(ctx, "CancelActiveTimer", c.cancelActiveTimer)
}

// Status returns a snapshot of the pet with live decay applied.
func (c *Controller) Status(ctx context.Context) (Status, error) {
	var st Status
	err := c.do(ctx, "Status", func(*common.Scope) error {
		st = c.status()
		return nil
	})
	return st, err
}

// Remaining returns the time left on the running countdown.
func (c *Controller) Remaining(ctx context.Context) (time.Duration, error) {
	st, err := c.Status(ctx)
	if err != nil {
		return 0, err
	}
	if !st.TimerActive {
		return 0, ErrNoActiveTimer
	}
	return st.Remaining, nil
}

// OnPeriodicTick queues a decay recomputation. It never blocks; when the
// mailbox is full the tick is dropped and the next one catches up.
func (c *Controller) OnPeriodicTick(now time.Time) {
	select {
	case c.mailbox <- c.tick:
	case <-c.done:
	default:
		logrus.Debugf("mailbox for pet %s full, dropping tick at %v", c.id, now)
	}
}

// OnTimerCompleted queues a countdown completion.
func (c *Controller) OnTimerCompleted(comp timer.Completion) {
	select {
	case c.mailbox <- func() { c.timerCompleted(comp) }:
	case <-c.done:
		logrus.Warnf("controller for pet %s closed, completion of %s left for next restore", c.id, comp.Kind)
	}
}

// Close stops the actor and detaches the countdown. The persisted countdown
// is kept so a later Start resumes it.
func (c *Controller) Close() {
	c.cancel()
	<-c.done
	c.timer.Detach()
}

// destroy removes the countdown, alert tracking and the pet itself.
func (c *Controller) destroy(ctx context.Context) error {
	err := c.do(ctx, "Delete", func(scope *common.Scope) error {
		if err := c.timer.Stop(scope.Ctx); err != nil {
			return fmt.Errorf("%w: %w", ErrPersistence, err)
		}
		if err := c.deps.Notifier.Forget(scope.Ctx, c.id); err != nil {
			scope.Log.Warnf("failed to forget alerts for pet %s: %v", c.id, err)
		}
		if err := c.deps.Pets.Delete(scope.Ctx, c.id); err != nil && !errors.Is(err, pet.ErrNotFound) {
			return fmt.Errorf("%w: %w", ErrPersistence, err)
		}
		metrics.PetHealth.DeleteLabelValues(c.id)
		return nil
	})
	if err != nil {
		return err
	}
	c.Close()
	return nil
}

func (c *Controller) run() {
	defer close(c.done)

	for {
		select {
		case <-c.ctx.Done():
			return
		case job := <-c.mailbox:
			job()
		}
	}
}

// do runs op on the actor and waits for its result.
func (c *Controller) do(ctx context.Context, name string, op func(scope *common.Scope) error) error {
	result := make(chan error, 1)
	job := func() {
		scope := common.ChildScopeFromRemoteScope(ctx, "lifecycle."+name)
		defer scope.Finish()
		scope.TraceTag("petId", c.id)

		err := op(scope)
		if err != nil {
			scope.TraceError(err)
			scope.Log.Warnf("%s rejected for pet %s: %v", name, c.id, err)
		}
		scope.SetAttributes("stage", c.stageOf(c.pet).String())
		scope.SetAttributes("health", c.pet.Health)
		result <- err
	}

	select {
	case c.mailbox <- job:
	case <-c.done:
		return ErrControllerClosed
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-result:
		return err
	case <-c.done:
		return ErrControllerClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Controller) startCycle(scope *common.Scope) error {
	if c.pet.ActiveTask() != nil {
		return ErrCycleActive
	}

	now := c.deps.Clock.Now()
	next := c.pet.Clone()
	if next.Task != nil && next.Task.Stage == stage.Completed {
		if err := next.Task.Apply(stage.Acknowledge, now); err != nil {
			return err
		}
	}

	task := stage.NewTask(c.deps.NewID(), c.id, now)
	if err := task.Apply(stage.Start, now); err != nil {
		return err
	}
	next.Task = task

	if err := c.startTimer(scope, next.StageADuration(), timer.KindStageA); err != nil {
		return err
	}
	if err := c.commitOrStopTimer(scope, next); err != nil {
		return err
	}

	scope.Log.Infof("pet %s started washing for %v (task %s)", c.id, next.StageADuration(), task.ID)
	return nil
}

func (c *Controller) advanceAfterStageA(scope *common.Scope) error {
	next, err := c.applyToTask(stage.Advance)
	if err != nil {
		return err
	}

	if err := c.startTimer(scope, next.StageBDuration(), timer.KindStageB); err != nil {
		return err
	}
	if err := c.commitOrStopTimer(scope, next); err != nil {
		return err
	}

	scope.Log.Infof("pet %s started drying for %v", c.id, next.StageBDuration())
	return nil
}

func (c *Controller) extendStageB(scope *common.Scope, extraMinutes int) error {
	if extraMinutes <= 0 || extraMinutes > c.cfg.MaxExtendMinutes {
		return fmt.Errorf("%w: %d minutes, allowed 1..%d", ErrInvalidExtension, extraMinutes, c.cfg.MaxExtendMinutes)
	}

	next, err := c.applyToTask(stage.Extend)
	if err != nil {
		return err
	}
	next.Task.ExtraStageBMinutes += extraMinutes

	if err := c.startTimer(scope, time.Duration(extraMinutes)*time.Minute, timer.KindExtraStageB); err != nil {
		return err
	}
	if err := c.commitOrStopTimer(scope, next); err != nil {
		return err
	}

	scope.Log.Infof("pet %s drying extended by %d minutes (total extra %d)",
		c.id, extraMinutes, next.Task.ExtraStageBMinutes)
	return nil
}

func (c *Controller) completeCycle(scope *common.Scope) error {
	next, err := c.applyToTask(stage.Finish)
	if err != nil {
		return err
	}

	now := *next.Task.CompletedAt
	next.LastCareDate = &now
	next.Health = 100
	next.Stats.TotalCyclesCompleted++
	next.Stats.CurrentStreak++
	if next.Stats.CurrentStreak > next.Stats.LongestStreak {
		next.Stats.LongestStreak = next.Stats.CurrentStreak
	}

	if err := c.commit(scope.Ctx, next); err != nil {
		return err
	}
	metrics.CyclesCompleted.Inc()
	metrics.PetHealth.WithLabelValues(c.id).Set(100)

	if _, err := c.deps.Notifier.ResetAll(scope.Ctx, c.subject()); err != nil {
		scope.Log.Warnf("failed to reset alerts for pet %s: %v", c.id, err)
	}

	scope.Log.Infof("pet %s completed cycle #%d (streak %d)",
		c.id, next.Stats.TotalCyclesCompleted, next.Stats.CurrentStreak)
	return nil
}

func (c *Controller) cancelActiveTimer(scope *common.Scope) error {
	if !c.pet.Task.Active() || !c.pet.Task.Stage.Timed() {
		scope.Log.Debugf("no running countdown for pet %s, nothing to cancel", c.id)
		return nil
	}

	rec, active := c.timer.Active()
	action := cancelAction(rec, active)

	next, err := c.applyToTask(action)
	if err != nil {
		return err
	}
	if action == stage.CancelExtension {
		planned := int(rec.EndTime.Sub(rec.StartedAt) / time.Minute)
		next.Task.ExtraStageBMinutes = max(next.Task.ExtraStageBMinutes-planned, 0)
	}

	// The pet is written first. If the countdown can't be stopped afterwards
	// its completion is ignored because the stage no longer expects one.
	if err := c.commit(scope.Ctx, next); err != nil {
		return err
	}
	if err := c.timer.Stop(scope.Ctx); err != nil {
		scope.Log.Errorf("pet %s cancelled but its countdown could not be stopped: %v", c.id, err)
	}

	scope.Log.Infof("pet %s countdown cancelled, now %s", c.id, next.Task.Stage)
	return nil
}

func (c *Controller) tick() {
	scope := common.ChildScopeFromRemoteScope(c.ctx, "lifecycle.tick")
	defer scope.Finish()
	scope.TraceTag("petId", c.id)

	now := c.deps.Clock.Now()
	result := decay.Calculate(c.pet.ReferenceTime(), c.pet.CycleLengthDays, now)
	metrics.PetHealth.WithLabelValues(c.id).Set(float64(result.Health))
	scope.SetAttributes("health", result.Health)

	if result.Health != c.pet.Health {
		next := c.pet.Clone()
		next.Health = result.Health
		if err := c.commit(scope.Ctx, next); err != nil {
			scope.Log.Warnf("failed to persist health %d for pet %s: %v", result.Health, c.id, err)
		} else {
			scope.Log.Debugf("pet %s health %d (%s)", c.id, result.Health, result.Mood)
		}
	}

	if _, err := c.deps.Notifier.Reconcile(scope.Ctx, c.subject()); err != nil {
		scope.Log.Warnf("failed to reconcile alerts for pet %s: %v", c.id, err)
	}

	if c.unsaved != nil {
		comp := *c.unsaved
		c.unsaved = nil
		scope.TraceEvent("retrying unsaved completion")
		c.timerCompleted(comp)
	}
}

func (c *Controller) timerCompleted(comp timer.Completion) {
	scope := common.ChildScopeFromRemoteScope(c.ctx, "lifecycle.timerCompleted")
	defer scope.Finish()
	scope.TraceTag("petId", c.id)
	scope.TraceTag("kind", string(comp.Kind))

	if comp.EntityID != c.id {
		scope.Log.Errorf("controller for pet %s received completion for %s, ignoring", c.id, comp.EntityID)
		return
	}
	if _, active := c.timer.Active(); active {
		scope.Log.Warnf("pet %s received stale %s completion while another countdown runs, ignoring", c.id, comp.Kind)
		return
	}

	task := c.pet.ActiveTask()
	if task == nil || !task.Stage.Timed() || !kindMatches(task.Stage, comp.Kind) {
		scope.Log.Warnf("pet %s received %s completion in stage %s, ignoring", c.id, comp.Kind, c.stageOf(c.pet))
		return
	}

	next := c.pet.Clone()
	if err := next.Task.Apply(stage.TimerElapsed, comp.EndTime); err != nil {
		scope.Log.Errorf("pet %s could not apply completion: %v", c.id, err)
		return
	}

	// Nobody is waiting on this result, so persistence is retried here.
	attempt := func() error {
		err := c.commit(scope.Ctx, next)
		if errors.Is(err, pet.ErrNotFound) || errors.Is(err, pet.ErrInvalidPet) {
			return backoff.Permanent(err)
		}
		return err
	}
	b := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), c.cfg.CompletionRetries), scope.Ctx)
	err := backoff.RetryNotify(attempt, b, func(err error, d time.Duration) {
		scope.Log.Warnf("retrying completion of pet %s in %v: %v", c.id, d, err)
	})
	if err != nil {
		scope.TraceError(err)
		scope.Log.Errorf("pet %s countdown %s elapsed but could not be saved, will retry on next tick: %v", c.id, comp.Kind, err)
		c.unsaved = &comp
		return
	}

	scope.TraceEvent("countdown elapsed")
	scope.SetAttributes("stage", next.Task.Stage.String())
	scope.Log.Infof("pet %s %s finished (restored=%v), now %s", c.id, comp.Kind, comp.Restored, next.Task.Stage)
}

// reconcileTimer repairs a task and countdown that disagree, e.g. after a
// crash between writing one and the other. A timed stage without a countdown
// moves on to its waiting stage; a countdown without a timed stage is stopped.
func (c *Controller) reconcileTimer() {
	scope := common.ChildScopeFromRemoteScope(c.ctx, "lifecycle.reconcileTimer")
	defer scope.Finish()
	scope.TraceTag("petId", c.id)

	_, active := c.timer.Active()
	task := c.pet.ActiveTask()
	timed := task != nil && task.Stage.Timed()

	switch {
	case timed && !active:
		scope.Log.Warnf("pet %s is %s without a countdown, treating it as elapsed", c.id, task.Stage)
		next := c.pet.Clone()
		if err := next.Task.Apply(stage.TimerElapsed, c.deps.Clock.Now()); err != nil {
			scope.Log.Errorf("pet %s could not be repaired: %v", c.id, err)
			return
		}
		if err := c.commit(scope.Ctx, next); err != nil {
			scope.TraceError(err)
			scope.Log.Warnf("failed to repair pet %s: %v", c.id, err)
			return
		}
		scope.TraceEvent("timed stage without countdown treated as elapsed")
	case !timed && active:
		scope.Log.Warnf("pet %s has an orphaned countdown in stage %s, stopping it", c.id, c.stageOf(c.pet))
		if err := c.timer.Stop(scope.Ctx); err != nil {
			scope.TraceError(err)
			scope.Log.Warnf("failed to stop orphaned countdown for pet %s: %v", c.id, err)
			return
		}
		scope.TraceEvent("orphaned countdown stopped")
	}
}

func (c *Controller) status() Status {
	now := c.deps.Clock.Now()
	st := Status{
		Pet:   c.pet.Clone(),
		Decay: decay.Calculate(c.pet.ReferenceTime(), c.pet.CycleLengthDays, now),
		Stage: c.stageOf(c.pet),
	}
	rec, active := c.timer.Active()
	skip := stage.CancelExtension
	if cancelAction(rec, active) == stage.CancelExtension {
		skip = stage.Cancel
	}
	for _, a := range stage.Allowed(st.Stage) {
		if a != skip {
			st.Allowed = append(st.Allowed, a)
		}
	}
	if active {
		st.TimerActive = true
		st.TimerKind = rec.Kind
		st.Remaining, _ = c.timer.Remaining()
	}
	return st
}

// applyToTask clones the pet and applies action to its task.
func (c *Controller) applyToTask(action stage.Action) (*pet.Pet, error) {
	next := c.pet.Clone()
	if next.Task == nil {
		return nil, &stage.TransitionError{From: stage.Idle, Action: action}
	}
	if err := next.Task.Apply(action, c.deps.Clock.Now()); err != nil {
		return nil, err
	}
	return next, nil
}

func (c *Controller) startTimer(scope *common.Scope, d time.Duration, kind timer.Kind) error {
	child := scope.NewChildScope("lifecycle.startTimer")
	defer child.Finish()
	child.SetAttributes("kind", string(kind))
	child.SetAttributes("seconds", int64(d/time.Second))

	if err := c.timer.Start(child.Ctx, d, kind); err != nil {
		child.TraceError(err)
		if errors.Is(err, timer.ErrAlreadyActive) {
			return ErrCycleActive
		}
		if errors.Is(err, timer.ErrInvalidDuration) {
			return err
		}
		return fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	return nil
}

// commitOrStopTimer writes next and undoes the countdown that was just started
// when the write fails.
func (c *Controller) commitOrStopTimer(scope *common.Scope, next *pet.Pet) error {
	child := scope.NewChildScope("lifecycle.commit")
	defer child.Finish()

	err := c.commit(child.Ctx, next)
	if err == nil {
		return nil
	}
	child.TraceError(err)
	if stopErr := c.timer.Stop(child.Ctx); stopErr != nil {
		scope.Log.Errorf("failed to roll back countdown for pet %s: %v", c.id, stopErr)
	}
	return err
}

// commit writes next and adopts it as the last known good state.
func (c *Controller) commit(ctx context.Context, next *pet.Pet) error {
	if err := c.deps.Pets.Update(ctx, next); err != nil {
		return fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	c.pet = next
	return nil
}

func (c *Controller) subject() notify.Subject {
	return notify.Subject{
		EntityID:        c.id,
		Name:            c.pet.Name,
		ReferenceTime:   c.pet.ReferenceTime(),
		CycleLengthDays: c.pet.CycleLengthDays,
	}
}

func (c *Controller) stageOf(p *pet.Pet) stage.Stage {
	if p.Task == nil {
		return stage.Idle
	}
	return p.Task.Stage
}

// cancelAction picks how the running countdown is cancelled. Cancelling an
// extension keeps the drying already done.
func cancelAction(rec timer.Record, active bool) stage.Action {
	if active && rec.Kind == timer.KindExtraStageB {
		return stage.CancelExtension
	}
	return stage.Cancel
}

// kindMatches reports whether a countdown of kind belongs to stage s.
func kindMatches(s stage.Stage, kind timer.Kind) bool {
	switch s {
	case stage.StageA:
		return kind == timer.KindStageA || kind == timer.KindGenericCycle
	case stage.StageB:
		return kind == timer.KindStageB || kind == timer.KindExtraStageB || kind == timer.KindGenericCycle
	}
	return false
}
