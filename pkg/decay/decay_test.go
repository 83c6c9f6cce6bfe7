// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package decay

import (
	"testing"
	"time"
)

func TestCalculate(t *testing.T) {
	ref := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

	tests := []struct {
		name         string
		cycleDays    int
		now          time.Time
		expectHealth int
		expectMood   Mood
	}{
		{
			name:         "just cared for",
			cycleDays:    7,
			now:          ref,
			expectHealth: 100,
			expectMood:   MoodHappy,
		},
		{
			name:         "one day into a seven day cycle",
			cycleDays:    7,
			now:          ref.Add(24 * time.Hour),
			expectHealth: 86,
			expectMood:   MoodHappy,
		},
		{
			name:         "half way",
			cycleDays:    7,
			now:          ref.Add(84 * time.Hour),
			expectHealth: 50,
			expectMood:   MoodContent,
		},
		{
			name:         "full cycle elapsed",
			cycleDays:    7,
			now:          ref.Add(7 * 24 * time.Hour),
			expectHealth: 0,
			expectMood:   MoodDead,
		},
		{
			name:         "long past full cycle",
			cycleDays:    7,
			now:          ref.Add(400 * 24 * time.Hour),
			expectHealth: 0,
			expectMood:   MoodDead,
		},
		{
			name:         "reference in the future",
			cycleDays:    7,
			now:          ref.Add(-time.Hour),
			expectHealth: 100,
			expectMood:   MoodHappy,
		},
		{
			name:         "fast mode one minute",
			cycleDays:    0,
			now:          ref.Add(time.Minute),
			expectHealth: 80,
			expectMood:   MoodHappy,
		},
		{
			name:         "fast mode four minutes",
			cycleDays:    0,
			now:          ref.Add(4 * time.Minute),
			expectHealth: 20,
			expectMood:   MoodSick,
		},
		{
			name:         "fast mode five minutes",
			cycleDays:    0,
			now:          ref.Add(5 * time.Minute),
			expectHealth: 0,
			expectMood:   MoodDead,
		},
		{
			name:         "longest cycle half way",
			cycleDays:    MaxCycleLengthDays,
			now:          ref.Add(1825 * 24 * time.Hour),
			expectHealth: 50,
			expectMood:   MoodContent,
		},
		{
			name:         "cycle past the maximum is capped",
			cycleDays:    100000,
			now:          ref.Add(1825 * 24 * time.Hour),
			expectHealth: 50,
			expectMood:   MoodContent,
		},
		{
			name:         "cycle long enough to overflow a duration",
			cycleDays:    200000,
			now:          ref.Add(time.Hour),
			expectHealth: 100,
			expectMood:   MoodHappy,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Calculate(ref, tt.cycleDays, tt.now)
			if got.Health != tt.expectHealth {
				t.Errorf("Health = %d, expected %d", got.Health, tt.expectHealth)
			}
			if got.Mood != tt.expectMood {
				t.Errorf("Mood = %s, expected %s", got.Mood, tt.expectMood)
			}
		})
	}
}

func TestCalculate_Deterministic(t *testing.T) {
	ref := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	now := ref.Add(53*time.Hour + 17*time.Minute)

	first := Calculate(ref, 5, now)
	for i := 0; i < 100; i++ {
		if got := Calculate(ref, 5, now); got != first {
			t.Fatalf("Calculate() = %+v on call %d, expected %+v", got, i, first)
		}
	}
}

func TestMoodFor(t *testing.T) {
	tests := []struct {
		health int
		mood   Mood
	}{
		{100, MoodHappy},
		{75, MoodHappy},
		{74, MoodContent},
		{50, MoodContent},
		{49, MoodSad},
		{25, MoodSad},
		{24, MoodSick},
		{1, MoodSick},
		{0, MoodDead},
		{-1, MoodContent},
		{101, MoodContent},
	}

	for _, tt := range tests {
		if got := MoodFor(tt.health); got != tt.mood {
			t.Errorf("MoodFor(%d) = %s, expected %s", tt.health, got, tt.mood)
		}
	}
}

func TestCrossingTime(t *testing.T) {
	ref := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

	for _, cycleDays := range []int{0, 1, 3, 7, 30} {
		for _, threshold := range []int{25, 10, 5, 0} {
			at := CrossingTime(ref, cycleDays, threshold)

			if got := Calculate(ref, cycleDays, at).Health; got > threshold {
				t.Errorf("cycle=%d threshold=%d: health at crossing = %d, expected <= %d",
					cycleDays, threshold, got, threshold)
			}
			if got := Calculate(ref, cycleDays, at.Add(-time.Nanosecond)).Health; got <= threshold {
				t.Errorf("cycle=%d threshold=%d: health just before crossing = %d, expected > %d",
					cycleDays, threshold, got, threshold)
			}
		}
	}
}

func TestCrossingTime_KnownValues(t *testing.T) {
	ref := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

	if got := CrossingTime(ref, 7, 0); !got.Equal(ref.Add(7 * 24 * time.Hour)) {
		t.Errorf("CrossingTime(7d, 0) = %v, expected %v", got, ref.Add(7*24*time.Hour))
	}
	if got := CrossingTime(ref, 0, 25); !got.Equal(ref.Add(225 * time.Second)) {
		t.Errorf("CrossingTime(fast, 25) = %v, expected %v", got, ref.Add(225*time.Second))
	}
	if got := CrossingTime(ref, 7, 100); !got.Equal(ref) {
		t.Errorf("CrossingTime(7d, 100) = %v, expected %v", got, ref)
	}
}
