// Package metrics exposes the minimal counters needed to detect starvation
// and stuck pairings.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PairingsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "spinmatch_pairings_total",
		Help: "Pairings committed by the pairing engine",
	})

	OutcomesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "spinmatch_outcomes_total",
		Help: "Resolved vote outcomes by kind",
	}, []string{"outcome"})

	ContentionSkipsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "spinmatch_contention_skips_total",
		Help: "Pairing attempts abandoned because a lock or candidate was taken",
	})

	RepairResetsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "spinmatch_repair_resets_total",
		Help: "Participants force-reset to idle by the repair sweep",
	})

	SweepRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "spinmatch_sweep_runs_total",
		Help: "Background sweep executions by sweep name",
	}, []string{"sweep"})

	QueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "spinmatch_queue_depth",
		Help: "Participants currently in the waiting pool",
	})

	OpenPairings = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "spinmatch_open_pairings",
		Help: "Pairings currently in the voting phase",
	})

	LongestWaitSeconds = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "spinmatch_longest_wait_seconds",
		Help: "Wait duration of the longest-waiting participant, for starvation detection",
	})
)
