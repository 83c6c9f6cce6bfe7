// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package stage

import (
	"errors"
	"fmt"
)

// ErrInvalidTransition indicates an action was applied in a stage that doesn't accept it.
var ErrInvalidTransition = errors.New("invalid stage transition")

// TransitionError describes a rejected transition.
type TransitionError struct {
	From   Stage
	Action Action
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot %s while %s", e.Action, e.From)
}

// Unwrap lets errors.Is match ErrInvalidTransition.
func (e *TransitionError) Unwrap() error {
	return ErrInvalidTransition
}
