// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package attach

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/samber/oops"
)

// Status labels for attachment operation metrics.
const (
	StatusSuccess       = "success"
	StatusError         = "error"
	StatusNotFound      = "not_found"
	StatusAlreadyExists = "already_exists"
)

// Operation labels.
const (
	OpRegister = "register"
	OpRemove   = "remove"
	OpReapply  = "reapply"
	OpDetach   = "detach"
	OpPurge    = "purge"
	OpCopy     = "copy"
)

// Operations counts registry operations by outcome.
// Use RegisterMetrics to register this with a Prometheus registry.
var Operations = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "nodegraft_attach_operations_total",
		Help: "Total number of attachment registry operations",
	},
	[]string{"op", "status"},
)

// ReapplyRecords observes how many records each reapply pass processed.
// Use RegisterMetrics to register this with a Prometheus registry.
var ReapplyRecords = prometheus.NewHistogram(
	prometheus.HistogramOpts{
		Name:    "nodegraft_attach_reapply_records",
		Help:    "Number of records processed per reapply pass",
		Buckets: prometheus.ExponentialBuckets(1, 2, 10),
	},
)

// RegisterMetrics registers attach package metrics with the given registry.
// Panics if registration fails (following prometheus convention).
func RegisterMetrics(reg prometheus.Registerer) {
	reg.MustRegister(Operations)
	reg.MustRegister(ReapplyRecords)
}

// RecordOperation increments the operation counter.
func RecordOperation(op, status string) {
	Operations.WithLabelValues(op, status).Inc()
}

// StatusFor maps an operation error to a status label.
func StatusFor(err error) string {
	if err == nil {
		return StatusSuccess
	}
	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return StatusError
	}
	switch oopsErr.Code() {
	case CodeNotFound:
		return StatusNotFound
	case CodeAlreadyExists:
		return StatusAlreadyExists
	default:
		return StatusError
	}
}
