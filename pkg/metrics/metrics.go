// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

// Package metrics holds the Prometheus collectors for the laundry pet engine.
// They are registered on the metrics server registry at start-up.
package metrics

import "github.com/prometheus/client_golang/prometheus"

const namespace = "laundry_pet"

var (
	TimersStarted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "timers_started_total",
			Help:      "Total number of countdowns started, by kind.",
		},
		[]string{"kind"},
	)

	TimerCompletions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "timer_completions_total",
			Help:      "Total number of countdowns that elapsed, by kind and by whether they were found elapsed on restore.",
		},
		[]string{"kind", "source"},
	)

	ActiveTimers = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_timers",
			Help:      "Number of countdowns currently armed in this process.",
		},
	)

	AlertsScheduled = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alerts_scheduled_total",
			Help:      "Total number of decay alerts handed to the scheduler, by threshold.",
		},
		[]string{"threshold"},
	)

	AlertScheduleFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alert_schedule_failures_total",
			Help:      "Total number of decay alerts the scheduler refused.",
		},
	)

	AlertsDelivered = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alerts_delivered_total",
			Help:      "Total number of alerts handed to a publisher, by result.",
		},
		[]string{"result"},
	)

	CyclesCompleted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cycles_completed_total",
			Help:      "Total number of laundry cycles completed.",
		},
	)

	CorruptRecords = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "corrupt_records_total",
			Help:      "Persisted records dropped because they could not be decoded, by concern.",
		},
		[]string{"concern"},
	)

	PetHealth = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "health",
			Help:      "Last computed health per pet.",
		},
		[]string{"pet_id"},
	)
)

// Collectors returns every collector in this package.
func Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		TimersStarted,
		TimerCompletions,
		ActiveTimers,
		AlertsScheduled,
		AlertScheduleFailures,
		AlertsDelivered,
		CyclesCompleted,
		CorruptRecords,
		PetHealth,
	}
}
