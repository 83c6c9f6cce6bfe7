// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package bootstrap

import (
	"github.com/AccelByte/extend-laundry-pet/pkg/alert"
	"github.com/AccelByte/extend-laundry-pet/pkg/clock"
	"github.com/AccelByte/extend-laundry-pet/pkg/notify"
	"github.com/sirupsen/logrus"
)

// AlertOptions selects how due alerts are delivered.
type AlertOptions struct {
	Enabled      bool
	MQTTBroker   string
	MQTTClientID string
	MQTTTopic    string
	Thresholds   []int
}

// InitPublisher returns an MQTT publisher when a broker is configured and the
// log publisher otherwise.
func InitPublisher(opts AlertOptions) (alert.Publisher, error) {
	if opts.MQTTBroker == "" {
		logrus.Info("no MQTT broker configured, alerts will be logged")
		return alert.LogPublisher{}, nil
	}

	pub, err := alert.NewMQTTPublisher(opts.MQTTBroker, opts.MQTTClientID, opts.MQTTTopic)
	if err != nil {
		return nil, err
	}
	logrus.Infof("publishing alerts to %s on topic %s", opts.MQTTBroker, opts.MQTTTopic)
	return pub, nil
}

// InitNotifier builds the alert scheduler around pub and the threshold
// notifier on top of it.
func InitNotifier(
	opts AlertOptions,
	pub alert.Publisher,
	tracking notify.TrackingStore,
	clk clock.Clock,
) (*notify.Notifier, *alert.LocalScheduler, error) {
	scheduler := alert.NewLocalScheduler(pub, clk, opts.Enabled)
	if !opts.Enabled {
		logrus.Warn("alerts are disabled, decay alerts will not be scheduled")
	}

	notifier, err := notify.New(tracking, scheduler, clk, opts.Thresholds...)
	if err != nil {
		_ = scheduler.Close()
		return nil, nil, err
	}
	logrus.Infof("initialized notifier with thresholds %v", notifier.Thresholds())

	return notifier, scheduler, nil
}
