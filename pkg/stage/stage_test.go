// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package stage

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

type pair struct {
	from   Stage
	action Action
}

var allowed = map[pair]Stage{
	{Idle, Start}:             StageA,
	{StageA, TimerElapsed}:    StageAComplete,
	{StageA, Cancel}:          Idle,
	{StageAComplete, Advance}: StageB,
	{StageB, TimerElapsed}:    StageBComplete,
	{StageB, Cancel}:          StageAComplete,
	{StageB, CancelExtension}: StageBComplete,
	{StageBComplete, Extend}:  StageB,
	{StageBComplete, Finish}:  Completed,
	{Completed, Acknowledge}:  Idle,
}

func TestNext_Totality(t *testing.T) {
	for from := Stage(0); from < numStages; from++ {
		for action := Action(0); action < numActions; action++ {
			to, err := Next(from, action)
			expected, ok := allowed[pair{from, action}]

			if ok {
				if err != nil {
					t.Errorf("Next(%s, %s) error = %v, expected %s", from, action, err, expected)
				}
				if to != expected {
					t.Errorf("Next(%s, %s) = %s, expected %s", from, action, to, expected)
				}
				continue
			}

			if !errors.Is(err, ErrInvalidTransition) {
				t.Errorf("Next(%s, %s) error = %v, expected ErrInvalidTransition", from, action, err)
			}
			if to != from {
				t.Errorf("Next(%s, %s) = %s on rejection, expected unchanged", from, action, to)
			}
		}
	}
}

func TestNext_UnknownValues(t *testing.T) {
	if _, err := Next(Stage(42), Start); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Next(unknown stage) error = %v, expected ErrInvalidTransition", err)
	}
	if _, err := Next(Idle, Action(42)); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Next(unknown action) error = %v, expected ErrInvalidTransition", err)
	}
}

func stamps(t *Task) map[string]*time.Time {
	return map[string]*time.Time{
		"stageAStartedAt": t.StageAStartedAt,
		"stageAEndedAt":   t.StageAEndedAt,
		"stageBStartedAt": t.StageBStartedAt,
		"stageBEndedAt":   t.StageBEndedAt,
		"lastExtendedAt":  t.LastExtendedAt,
		"cancelledAt":     t.CancelledAt,
		"completedAt":     t.CompletedAt,
	}
}

func TestTask_Apply_Timestamps(t *testing.T) {
	base := time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		setup  []Action
		action Action
		field  string
	}{
		{"start stamps stage A start", nil, Start, "stageAStartedAt"},
		{"wash elapsed stamps stage A end", []Action{Start}, TimerElapsed, "stageAEndedAt"},
		{"advance stamps stage B start", []Action{Start, TimerElapsed}, Advance, "stageBStartedAt"},
		{"dry elapsed stamps stage B end", []Action{Start, TimerElapsed, Advance}, TimerElapsed, "stageBEndedAt"},
		{"extend stamps last extension", []Action{Start, TimerElapsed, Advance, TimerElapsed}, Extend, "lastExtendedAt"},
		{"finish stamps completion", []Action{Start, TimerElapsed, Advance, TimerElapsed}, Finish, "completedAt"},
		{"cancel wash stamps cancellation", []Action{Start}, Cancel, "cancelledAt"},
		{"cancel dry stamps cancellation", []Action{Start, TimerElapsed, Advance}, Cancel, "cancelledAt"},
		{"cancel extension stamps cancellation", []Action{Start, TimerElapsed, Advance, TimerElapsed, Extend}, CancelExtension, "cancelledAt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			task := NewTask("task-1", "pet-1", base)
			for i, a := range tt.setup {
				if err := task.Apply(a, base.Add(time.Duration(i)*time.Minute)); err != nil {
					t.Fatalf("setup Apply(%s) error = %v", a, err)
				}
			}

			before := stamps(task.Clone())
			at := base.Add(time.Hour)
			if err := task.Apply(tt.action, at); err != nil {
				t.Fatalf("Apply(%s) error = %v", tt.action, err)
			}

			for name, got := range stamps(task) {
				if name == tt.field {
					if got == nil || !got.Equal(at) {
						t.Errorf("%s = %v, expected %v", name, got, at)
					}
					continue
				}
				prev := before[name]
				if (prev == nil) != (got == nil) || (prev != nil && !prev.Equal(*got)) {
					t.Errorf("%s changed from %v to %v", name, prev, got)
				}
			}
		})
	}
}

func TestTask_Apply_RejectedLeavesTaskUnchanged(t *testing.T) {
	now := time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)
	task := NewTask("task-1", "pet-1", now)
	if err := task.Apply(Start, now); err != nil {
		t.Fatalf("Apply(Start) error = %v", err)
	}

	before := task.Clone()
	err := task.Apply(Finish, now.Add(time.Minute))
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("Apply(Finish) error = %v, expected ErrInvalidTransition", err)
	}

	var te *TransitionError
	if !errors.As(err, &te) || te.From != StageA || te.Action != Finish {
		t.Errorf("TransitionError = %+v, expected from washing with finish", te)
	}

	a, _ := json.Marshal(before)
	b, _ := json.Marshal(task)
	if string(a) != string(b) {
		t.Errorf("task changed after rejected transition:\nbefore %s\nafter  %s", a, b)
	}
}

func TestTask_ExtendKeepsStageATimestamps(t *testing.T) {
	now := time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)
	task := NewTask("task-1", "pet-1", now)
	for i, a := range []Action{Start, TimerElapsed, Advance, TimerElapsed} {
		if err := task.Apply(a, now.Add(time.Duration(i)*time.Minute)); err != nil {
			t.Fatalf("Apply(%s) error = %v", a, err)
		}
	}
	startedA := *task.StageAStartedAt
	endedA := *task.StageAEndedAt

	if err := task.Apply(Extend, now.Add(time.Hour)); err != nil {
		t.Fatalf("Apply(Extend) error = %v", err)
	}
	if task.Stage != StageB {
		t.Errorf("Stage = %s, expected %s", task.Stage, StageB)
	}
	if !task.StageAStartedAt.Equal(startedA) || !task.StageAEndedAt.Equal(endedA) {
		t.Errorf("stage A timestamps changed on extend")
	}
}

func TestAllowed(t *testing.T) {
	got := Allowed(StageBComplete)
	if len(got) != 2 || got[0] != Extend || got[1] != Finish {
		t.Errorf("Allowed(dry_complete) = %v, expected [extend finish]", got)
	}
	if got := Allowed(Stage(99)); got != nil {
		t.Errorf("Allowed(unknown) = %v, expected nil", got)
	}
}

func TestStage_TextRoundTrip(t *testing.T) {
	for s := Stage(0); s < numStages; s++ {
		text, err := s.MarshalText()
		if err != nil {
			t.Fatalf("MarshalText(%d) error = %v", s, err)
		}
		var got Stage
		if err := got.UnmarshalText(text); err != nil {
			t.Fatalf("UnmarshalText(%s) error = %v", text, err)
		}
		if got != s {
			t.Errorf("round trip = %s, expected %s", got, s)
		}
	}

	var s Stage
	if err := s.UnmarshalText([]byte("spinning")); err == nil {
		t.Error("expected error for unknown stage name")
	}
}
