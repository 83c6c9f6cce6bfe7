// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package bootstrap

import (
	"time"

	"github.com/AccelByte/extend-laundry-pet/pkg/lifecycle"
	"github.com/sirupsen/logrus"
)

// InitLifecycle creates the broadcaster and the controller manager.
// Controllers are attached later, once the roster has been seeded.
func InitLifecycle(deps lifecycle.Deps, cfg lifecycle.Config, tickInterval time.Duration) (*lifecycle.Manager, *lifecycle.Broadcaster) {
	broadcaster := lifecycle.NewBroadcaster(tickInterval, deps.Clock)
	manager := lifecycle.NewManager(deps, cfg, broadcaster)

	logrus.Infof("initialized lifecycle manager (tick %v, countdown %v, max extension %dm)",
		tickInterval, cfg.CountdownInterval, cfg.MaxExtendMinutes)

	return manager, broadcaster
}
