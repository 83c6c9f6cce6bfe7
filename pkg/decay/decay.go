// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

// Package decay computes a pet's health from the time elapsed since it was last
// cared for. Everything here is a pure function of its inputs.
package decay

import (
	"math/bits"
	"time"
)

const (
	// FastCycle is the full-decay duration used when a pet's cycle length is 0
	// days. This is a demo/test mode: a pet goes from 100 to 0 in five minutes
	// of wall-clock time.
	FastCycle = 5 * time.Minute

	// MaxCycleLengthDays is the longest accepted cycle, about ten years.
	MaxCycleLengthDays = 3650

	day = 24 * time.Hour
)

// Mood is the tier derived from health.
type Mood int

const (
	MoodHappy Mood = iota + 1
	MoodContent
	MoodSad
	MoodSick
	MoodDead
)

func (m Mood) String() string {
	switch m {
	case MoodHappy:
		return "happy"
	case MoodContent:
		return "content"
	case MoodSad:
		return "sad"
	case MoodSick:
		return "sick"
	case MoodDead:
		return "dead"
	default:
		return "unknown"
	}
}

// Result is the outcome of a decay calculation.
type Result struct {
	Health       int
	Mood         Mood
	DecayPercent float64
}

// CycleDuration returns the wall-clock time it takes to decay from 100 to 0.
// Non-positive cycle lengths select FastCycle and longer ones are capped at
// MaxCycleLengthDays.
func CycleDuration(cycleLengthDays int) time.Duration {
	if cycleLengthDays <= 0 {
		return FastCycle
	}
	return time.Duration(min(cycleLengthDays, MaxCycleLengthDays)) * day
}

// Calculate returns health and mood for a pet whose decay started at reference.
//
//	decayPercent = elapsed / cycle * 100
//	health       = clamp(100 - floor(decayPercent), 0, 100)
//
// A reference in the future (clock moved backwards) yields full health.
func Calculate(reference time.Time, cycleLengthDays int, now time.Time) Result {
	cycle := CycleDuration(cycleLengthDays)
	elapsed := now.Sub(reference)

	res := Result{DecayPercent: elapsed.Seconds() * 100 / cycle.Seconds()}

	switch {
	case elapsed <= 0:
		res.Health = 100
	case elapsed >= cycle:
		res.Health = 0
	default:
		res.Health = 100 - floorPercent(elapsed, cycle)
	}

	res.Health = clamp(res.Health)
	res.Mood = MoodFor(res.Health)
	return res
}

// MoodFor maps health onto mood tiers:
//
//	[75,100] happy, [50,75) content, [25,50) sad, [1,25) sick, 0 dead.
//
// Anything outside [0,100] falls back to content.
func MoodFor(health int) Mood {
	switch {
	case health > 100 || health < 0:
		return MoodContent
	case health >= 75:
		return MoodHappy
	case health >= 50:
		return MoodContent
	case health >= 25:
		return MoodSad
	case health >= 1:
		return MoodSick
	default:
		return MoodDead
	}
}

// CrossingTime returns the earliest instant at which health is at or below
// threshold. It is the inverse of Calculate: Calculate(reference, days,
// CrossingTime(reference, days, t)).Health <= t, and one nanosecond earlier the
// health is still above t.
func CrossingTime(reference time.Time, cycleLengthDays int, threshold int) time.Time {
	if threshold >= 100 {
		return reference
	}
	if threshold < 0 {
		threshold = 0
	}
	cycle := CycleDuration(cycleLengthDays)

	// ceil(cycle * (100-threshold) / 100)
	hi, lo := bits.Mul64(uint64(cycle), uint64(100-threshold))
	q, r := bits.Div64(hi, lo, 100)
	if r > 0 {
		q++
	}
	return reference.Add(time.Duration(q))
}

// floorPercent returns floor(elapsed*100/cycle) for 0 < elapsed < cycle using
// 128-bit math so that long cycles don't overflow and boundaries agree with
// CrossingTime exactly.
func floorPercent(elapsed, cycle time.Duration) int {
	hi, lo := bits.Mul64(uint64(elapsed), 100)
	q, _ := bits.Div64(hi, lo, uint64(cycle))
	return int(q)
}

func clamp(health int) int {
	if health < 0 {
		return 0
	}
	if health > 100 {
		return 100
	}
	return health
}
