// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package notify

import "errors"

var (
	// ErrInvalidThresholds is returned by New for an empty or out-of-range
	// threshold list.
	ErrInvalidThresholds = errors.New("thresholds must be non-empty and within [0,100)")
)
