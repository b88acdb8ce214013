package storage

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	remoteOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "agendasmart",
		Subsystem: "storage",
		Name:      "remote_operations_total",
		Help:      "Remote table operations by operation and result.",
	}, []string{"operation", "result"})

	payloadDecodes = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "agendasmart",
		Subsystem: "storage",
		Name:      "payload_decodes_total",
		Help:      "Remote payloads decoded, by kind and repair rule.",
	}, []string{"kind", "rule"})

	writeRetries = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "agendasmart",
		Subsystem: "storage",
		Name:      "write_retries_total",
		Help:      "Remote upsert retries by outcome.",
	}, []string{"outcome"})

	validationRejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "agendasmart",
		Subsystem: "storage",
		Name:      "validation_rejections_total",
		Help:      "Values rejected by the validator, by logical key and source.",
	}, []string{"key", "source"})

	syncRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "agendasmart",
		Subsystem: "storage",
		Name:      "sync_runs_total",
		Help:      "Synchronizer runs by mode and result.",
	}, []string{"mode", "result"})
)

func resultLabel(ok bool) string {
	if ok {
		return "success"
	}
	return "failure"
}
