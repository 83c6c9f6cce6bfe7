// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package alert

import "errors"

var (
	// ErrPermissionDenied is returned when alerts are turned off.
	ErrPermissionDenied = errors.New("alert delivery not permitted")

	// ErrClosed is returned after the scheduler has been closed.
	ErrClosed = errors.New("alert scheduler closed")
)
