package conversation

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricStateTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "coord_state_transitions_total",
		Help: "Coordinator state transitions",
	}, []string{"from", "to"})

	metricTurns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "coord_turns_total",
		Help: "Interaction turns by outcome",
	}, []string{"outcome"})

	metricIDsMinted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "coord_interaction_ids_minted_total",
		Help: "Total interaction ids minted (turns plus interrupts)",
	})

	metricInterrupts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "coord_interrupts_total",
		Help: "Interrupt sequences executed, by signal kind",
	}, []string{"kind"})

	metricBargeIns = promauto.NewCounter(prometheus.CounterOpts{
		Name: "coord_barge_ins_total",
		Help: "Interrupts that hard-killed in-progress playback",
	})

	metricInterruptLatencyMS = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "coord_interrupt_latency_ms",
		Help:    "Latency of the interrupt sequence from recognition to listening (ms)",
		Buckets: prometheus.ExponentialBuckets(1, 1.6, 10),
	})

	metricStaleCallbacks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "coord_stale_callbacks_total",
		Help: "Asynchronous completions dropped because their interaction id was stale",
	})

	metricSignalsAccepted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "coord_signals_accepted_total",
		Help: "Signals accepted into the mailbox, by kind",
	}, []string{"kind"})

	metricSignalsDiscarded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "coord_signals_discarded_total",
		Help: "Signals discarded by priority arbitration or mid-turn, by kind",
	}, []string{"kind"})
)
