// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package alert

import (
	"context"

	"github.com/sirupsen/logrus"
)

// LogPublisher writes alerts to the log. Used when no broker is configured.
type LogPublisher struct{}

// Publish logs the alert.
func (LogPublisher) Publish(_ context.Context, a Alert) error {
	logrus.WithFields(logrus.Fields{
		"alertId":   a.ID,
		"petId":     a.Payload.EntityID,
		"threshold": a.Payload.Threshold,
		"fireAt":    a.FireAt,
	}).Infof("ALERT %s: %s", a.Payload.Title, a.Payload.Body)
	return nil
}

// Close does nothing.
func (LogPublisher) Close() error {
	return nil
}
