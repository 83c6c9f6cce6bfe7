// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package clock

import (
	"testing"
	"time"
)

func TestFake_SetAndAdvance(t *testing.T) {
	start := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	c := NewFake(start)

	if !c.Now().Equal(start) {
		t.Errorf("Now() = %v, expected %v", c.Now(), start)
	}

	got := c.Advance(90 * time.Second)
	if !got.Equal(start.Add(90 * time.Second)) {
		t.Errorf("Advance() = %v, expected %v", got, start.Add(90*time.Second))
	}

	c.Set(start.Add(-time.Hour))
	if !c.Now().Equal(start.Add(-time.Hour)) {
		t.Errorf("Now() after Set = %v, expected %v", c.Now(), start.Add(-time.Hour))
	}
}

func TestReal_Now(t *testing.T) {
	before := time.Now()
	got := Real{}.Now()
	if got.Before(before) {
		t.Errorf("Real.Now() = %v, expected not before %v", got, before)
	}
}
