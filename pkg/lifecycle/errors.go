// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package lifecycle

import (
	"errors"

	"github.com/AccelByte/extend-laundry-pet/pkg/stage"
)

var (
	ErrCycleActive      = errors.New("a cycle is already in progress")
	ErrNoActiveTimer    = errors.New("no timer is running")
	ErrInvalidExtension = errors.New("extension out of range")
	ErrPersistence      = errors.New("failed to persist pet")
	ErrControllerClosed = errors.New("controller closed")
	ErrNotAttached      = errors.New("pet not attached")
)

const genericUserMessage = "Something went wrong, please try again."

// UserMessage turns an operation error into text that can be shown to the
// user. Rejected operations get a specific message; everything else is
// reported as recoverable.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrCycleActive):
		return "A laundry cycle is already running."
	case errors.Is(err, ErrInvalidExtension):
		return "That much extra drying time isn't allowed."
	case errors.Is(err, ErrNoActiveTimer):
		return "No timer is running."
	case errors.Is(err, stage.ErrInvalidTransition):
		return "That isn't possible right now."
	default:
		return genericUserMessage
	}
}
