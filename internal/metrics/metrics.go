// Package metrics exposes the process's Prometheus instrumentation (A6).
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	TickDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "dogwalk_tick_duration_seconds",
		Help:    "Duration of one world tick across all sessions",
		Buckets: prometheus.DefBuckets,
	})

	ActiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "dogwalk_active_sessions",
		Help: "Number of live game sessions (one per map with at least one join)",
	})

	ActiveDogs = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "dogwalk_active_dogs",
		Help: "Number of dogs currently on the map across all sessions",
	})

	LootOnMap = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "dogwalk_loot_on_map",
		Help: "Number of lost objects currently on the map across all sessions",
	})

	PlayersRetired = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dogwalk_players_retired_total",
		Help: "Total number of players retired and persisted to the leaderboard",
	})

	JoinsAccepted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dogwalk_joins_accepted_total",
		Help: "Total number of successful /game/join calls",
	})

	JoinsRateLimited = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dogwalk_joins_rate_limited_total",
		Help: "Total number of /game/join calls rejected by the rate limiter",
	})

	TelemetryQueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "dogwalk_telemetry_queue_depth",
		Help: "Current depth of the async telemetry event queue",
	})

	TelemetryEventsIngested = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dogwalk_telemetry_events_ingested_total",
		Help: "Total number of gameplay events accepted into the telemetry queue",
	})

	TelemetryEventsLoadShed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dogwalk_telemetry_events_load_shed_total",
		Help: "Total number of gameplay events dropped due to telemetry load shedding",
	})
)
