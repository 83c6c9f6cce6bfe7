// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

// Package stage is the state machine for a single laundry task.
//
// The machine is a closed set of stages and actions with an explicit
// transition table. A stage-advancing action that is not in the table for the
// current stage is rejected.
package stage

import (
	"fmt"
	"time"
)

// Stage is a step in a laundry cycle.
type Stage uint8

const (
	Idle Stage = iota
	StageA
	StageAComplete
	StageB
	StageBComplete
	Completed

	numStages
)

var stageNames = [numStages]string{
	Idle:           "idle",
	StageA:         "washing",
	StageAComplete: "wash_complete",
	StageB:         "drying",
	StageBComplete: "dry_complete",
	Completed:      "completed",
}

func (s Stage) String() string {
	if s >= numStages {
		return fmt.Sprintf("stage(%d)", uint8(s))
	}
	return stageNames[s]
}

// Valid reports whether s is a known stage.
func (s Stage) Valid() bool {
	return s < numStages
}

// Timed reports whether the stage owns a running countdown.
func (s Stage) Timed() bool {
	return s == StageA || s == StageB
}

// Action is an input to the machine.
type Action uint8

const (
	Start Action = iota
	TimerElapsed
	Advance
	Extend
	Finish
	Cancel
	Acknowledge
	CancelExtension

	numActions
)

var actionNames = [numActions]string{
	Start:           "start",
	TimerElapsed:    "timer_elapsed",
	Advance:         "advance",
	Extend:          "extend",
	Finish:          "finish",
	Cancel:          "cancel",
	Acknowledge:     "acknowledge",
	CancelExtension: "cancel_extension",
}

func (a Action) String() string {
	if a >= numActions {
		return fmt.Sprintf("action(%d)", uint8(a))
	}
	return actionNames[a]
}

// invalid marks a missing table entry. It is outside the stage range.
const invalid = numStages

// transitions[from][action] is the destination stage, or invalid.
var transitions = func() [numStages][numActions]Stage {
	var t [numStages][numActions]Stage
	for from := range t {
		for action := range t[from] {
			t[from][action] = invalid
		}
	}

	t[Idle][Start] = StageA
	t[StageA][TimerElapsed] = StageAComplete
	t[StageA][Cancel] = Idle
	t[StageAComplete][Advance] = StageB
	t[StageB][TimerElapsed] = StageBComplete
	t[StageB][Cancel] = StageAComplete
	t[StageB][CancelExtension] = StageBComplete
	t[StageBComplete][Extend] = StageB
	t[StageBComplete][Finish] = Completed
	t[Completed][Acknowledge] = Idle

	return t
}()

// Next returns the stage reached by applying action in from.
func Next(from Stage, action Action) (Stage, error) {
	if !from.Valid() || action >= numActions {
		return from, &TransitionError{From: from, Action: action}
	}
	to := transitions[from][action]
	if to == invalid {
		return from, &TransitionError{From: from, Action: action}
	}
	return to, nil
}

// Allowed lists the actions accepted in s, in declaration order.
func Allowed(s Stage) []Action {
	if !s.Valid() {
		return nil
	}
	var actions []Action
	for a := Action(0); a < numActions; a++ {
		if transitions[s][a] != invalid {
			actions = append(actions, a)
		}
	}
	return actions
}

// Task is one laundry cycle for a pet. The timestamps are an audit trail and
// are never used to compute countdowns.
type Task struct {
	ID                 string     `json:"id"`
	EntityID           string     `json:"entityId"`
	Stage              Stage      `json:"stage"`
	CreatedAt          time.Time  `json:"createdAt"`
	StageAStartedAt    *time.Time `json:"stageAStartedAt,omitempty"`
	StageAEndedAt      *time.Time `json:"stageAEndedAt,omitempty"`
	StageBStartedAt    *time.Time `json:"stageBStartedAt,omitempty"`
	StageBEndedAt      *time.Time `json:"stageBEndedAt,omitempty"`
	LastExtendedAt     *time.Time `json:"lastExtendedAt,omitempty"`
	CancelledAt        *time.Time `json:"cancelledAt,omitempty"`
	CompletedAt        *time.Time `json:"completedAt,omitempty"`
	ExtraStageBMinutes int        `json:"extraStageBMinutes"`
	Completed          bool       `json:"completed"`
}

// NewTask creates a task in Idle, ready for Start.
func NewTask(id, entityID string, now time.Time) *Task {
	return &Task{
		ID:        id,
		EntityID:  entityID,
		Stage:     Idle,
		CreatedAt: now,
	}
}

// Apply performs action at now. On error the task is unchanged.
func (t *Task) Apply(action Action, now time.Time) error {
	to, err := Next(t.Stage, action)
	if err != nil {
		return err
	}

	ts := now
	switch action {
	case Start:
		t.StageAStartedAt = &ts
	case TimerElapsed:
		if t.Stage == StageA {
			t.StageAEndedAt = &ts
		} else {
			t.StageBEndedAt = &ts
		}
	case Advance:
		t.StageBStartedAt = &ts
	case Extend:
		t.LastExtendedAt = &ts
	case Finish:
		t.CompletedAt = &ts
		t.Completed = true
	case Cancel, CancelExtension:
		t.CancelledAt = &ts
	case Acknowledge:
	}

	t.Stage = to
	return nil
}

// Active reports whether the task still blocks a new cycle.
func (t *Task) Active() bool {
	return t != nil && !t.Completed && t.Stage != Idle
}

// Clone returns a deep copy.
func (t *Task) Clone() *Task {
	if t == nil {
		return nil
	}
	c := *t
	c.StageAStartedAt = cloneTime(t.StageAStartedAt)
	c.StageAEndedAt = cloneTime(t.StageAEndedAt)
	c.StageBStartedAt = cloneTime(t.StageBStartedAt)
	c.StageBEndedAt = cloneTime(t.StageBEndedAt)
	c.LastExtendedAt = cloneTime(t.LastExtendedAt)
	c.CancelledAt = cloneTime(t.CancelledAt)
	c.CompletedAt = cloneTime(t.CompletedAt)
	return &c
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}

// MarshalText encodes the stage by name.
func (s Stage) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("unknown stage %d", uint8(s))
	}
	return []byte(stageNames[s]), nil
}

// UnmarshalText decodes a stage name.
func (s *Stage) UnmarshalText(text []byte) error {
	for i, name := range stageNames {
		if name == string(text) {
			*s = Stage(i)
			return nil
		}
	}
	return fmt.Errorf("unknown stage %q", string(text))
}
