// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package timer

import "errors"

var (
	// ErrAlreadyActive indicates Start was called while a countdown is running.
	ErrAlreadyActive = errors.New("timer already active")

	// ErrInvalidDuration indicates a non-positive countdown duration.
	ErrInvalidDuration = errors.New("timer duration must be positive")
)
