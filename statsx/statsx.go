// Package statsx is the pipeline's metrics registry, exposed over
// /metrics in `serve` mode only (SPEC_FULL.md §4.J wiring of
// prometheus/client_golang).
//
// Naming follows the teacher's stats/target_stats.go convention --
// "*.n" counter, "*.ns" latency, "*.size" bytes -- translated into
// Prometheus's underscore-separated naming (dots aren't legal in metric
// names) while keeping the same three suffixes as a recognizable family.
/*
 * Copyright (c) 2024, Statistics Canada WDS Mirror Project.
 */
package statsx

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metric name constants, grouped the same way stats/target_stats.go
// groups its KindCounter/KindLatency/KindSize blocks.
const (
	namespace = "wds_pipeline"

	labelFamily = "family"
)

// Stats bundles every Prometheus collector the pipeline registers. One
// instance is built per process and shared across the scheduler, registry
// builder, and verifier, following the teacher's "single stats runner
// instance" pattern.
type Stats struct {
	FetchCount   *prometheus.CounterVec // fetch_n
	FetchLatency *prometheus.HistogramVec // fetch_ns (seconds, Prometheus convention)
	FetchSize    *prometheus.CounterVec // fetch_size

	ErrTransientCount *prometheus.CounterVec // err_transient_n
	ErrCorruptCount   *prometheus.CounterVec // err_corrupt_n
	ErrSchemaCount    *prometheus.CounterVec // err_schema_n

	RegistryBuildLatency prometheus.Histogram // registry_build_ns
	RegistryDimCount     prometheus.Gauge     // registry_dim_count
	RegistryMemberCount  prometheus.Gauge     // registry_member_count

	VerifierRepairCount *prometheus.CounterVec // verifier_repair_n
	VerifierCheckCount  *prometheus.CounterVec // verifier_check_n
}

// New constructs and registers every collector against reg.
func New(reg prometheus.Registerer) *Stats {
	s := &Stats{
		FetchCount: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "fetch_n", Help: "fetch-loop passes by family",
		}, []string{labelFamily}),
		FetchLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Name: "fetch_ns", Help: "fetch latency seconds by family",
			Buckets: prometheus.DefBuckets,
		}, []string{labelFamily}),
		FetchSize: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "fetch_size", Help: "artifacts fetched successfully by family",
		}, []string{labelFamily}),

		ErrTransientCount: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "err_transient_n", Help: "transient fetch errors by family",
		}, []string{labelFamily}),
		ErrCorruptCount: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "err_corrupt_n", Help: "corrupt content detections by family",
		}, []string{labelFamily}),
		ErrSchemaCount: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "err_schema_n", Help: "schema/parse errors by family",
		}, []string{labelFamily}),

		RegistryBuildLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Name: "registry_build_ns", Help: "registry build latency seconds",
			Buckets: prometheus.DefBuckets,
		}),
		RegistryDimCount: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "registry_dim_count", Help: "canonical dimension count",
		}),
		RegistryMemberCount: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "registry_member_count", Help: "canonical member count",
		}),

		VerifierRepairCount: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "verifier_repair_n", Help: "verifier repairs by family",
		}, []string{labelFamily}),
		VerifierCheckCount: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "verifier_check_n", Help: "verifier checks by family",
		}, []string{labelFamily}),
	}

	reg.MustRegister(
		s.FetchCount, s.FetchLatency, s.FetchSize,
		s.ErrTransientCount, s.ErrCorruptCount, s.ErrSchemaCount,
		s.RegistryBuildLatency, s.RegistryDimCount, s.RegistryMemberCount,
		s.VerifierRepairCount, s.VerifierCheckCount,
	)
	return s
}

// IncTransientError, IncCorruptError, and IncSchemaError implement
// cmn.StatsSink, letting cmn's error constructors count error kinds by
// family without cmn importing this package's collector types.
func (s *Stats) IncTransientError(family string) { s.ErrTransientCount.WithLabelValues(family).Inc() }
func (s *Stats) IncCorruptError(family string)   { s.ErrCorruptCount.WithLabelValues(family).Inc() }
func (s *Stats) IncSchemaError(family string)    { s.ErrSchemaCount.WithLabelValues(family).Inc() }

// ObserveFetch records one fetch-loop pass for family: succeeded counts
// toward fetch_size (a proxy for volume moved, since the scheduler's pool
// result doesn't carry per-artifact byte counts) and dur toward latency.
func (s *Stats) ObserveFetch(family string, succeeded int, dur time.Duration) {
	s.FetchCount.WithLabelValues(family).Inc()
	s.FetchSize.WithLabelValues(family).Add(float64(succeeded))
	s.FetchLatency.WithLabelValues(family).Observe(dur.Seconds())
}
