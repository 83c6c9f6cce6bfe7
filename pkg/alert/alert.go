// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

// Package alert delivers decay alerts. A LocalScheduler holds pending alerts in
// process and hands them to a Publisher when they are due.
package alert

import (
	"context"
	"encoding/json"
	"time"

	"github.com/AccelByte/extend-laundry-pet/pkg/notify"
)

// Alert is a due notification.
type Alert struct {
	ID          string
	FireAt      time.Time
	DeliveredAt time.Time
	Payload     notify.Payload
}

// Publisher sends alerts to the user. Errors are logged by the caller and
// never retried.
type Publisher interface {
	Publish(ctx context.Context, a Alert) error
	Close() error
}

type wireAlert struct {
	ID          string `json:"id"`
	EntityID    string `json:"entityId"`
	Name        string `json:"name"`
	Threshold   int    `json:"threshold"`
	Title       string `json:"title"`
	Body        string `json:"body"`
	FireAt      string `json:"fireAt"`
	DeliveredAt string `json:"deliveredAt"`
}

// FormatPayload encodes an alert as JSON.
func FormatPayload(a Alert) ([]byte, error) {
	return json.Marshal(wireAlert{
		ID:          a.ID,
		EntityID:    a.Payload.EntityID,
		Name:        a.Payload.Name,
		Threshold:   a.Payload.Threshold,
		Title:       a.Payload.Title,
		Body:        a.Payload.Body,
		FireAt:      a.FireAt.UTC().Format(time.RFC3339),
		DeliveredAt: a.DeliveredAt.UTC().Format(time.RFC3339),
	})
}
