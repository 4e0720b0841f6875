package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// EngineMetrics records the transaction engine's operational signals:
// finalize outcomes and exchange-rate refresh health.
type EngineMetrics struct {
	finalizeDuration *prometheus.HistogramVec
	finalizeSuccess  *prometheus.CounterVec
	finalizeFailure  *prometheus.CounterVec
	rateRefresh      *prometheus.CounterVec
}

// NewEngineMetrics registers the engine metrics on the provided registerer.
func NewEngineMetrics(reg prometheus.Registerer) *EngineMetrics {
	if reg == nil {
		return &EngineMetrics{}
	}
	finalizeDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "sale_finalize_duration_seconds",
		Help:    "Duration of sale finalization including persistence.",
		Buckets: prometheus.DefBuckets,
	}, []string{"kind"})
	finalizeSuccess := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sale_finalize_success",
		Help: "Successfully finalized carts.",
	}, []string{"kind"})
	finalizeFailure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sale_finalize_failure",
		Help: "Finalize attempts aborted by validation or persistence.",
	}, []string{"kind"})
	rateRefresh := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "exchange_rate_refresh_total",
		Help: "Exchange-rate refresh attempts by outcome.",
	}, []string{"outcome"})
	reg.MustRegister(finalizeDuration, finalizeSuccess, finalizeFailure, rateRefresh)
	return &EngineMetrics{
		finalizeDuration: finalizeDuration,
		finalizeSuccess:  finalizeSuccess,
		finalizeFailure:  finalizeFailure,
		rateRefresh:      rateRefresh,
	}
}

// ObserveFinalizeDuration records how long a finalize took for the sale kind.
func (m *EngineMetrics) ObserveFinalizeDuration(kind string, duration time.Duration) {
	if m == nil || m.finalizeDuration == nil {
		return
	}
	m.finalizeDuration.WithLabelValues(normalizeLabel(kind)).Observe(duration.Seconds())
}

// IncFinalizeSuccess increments the success counter for the sale kind.
func (m *EngineMetrics) IncFinalizeSuccess(kind string) {
	if m == nil || m.finalizeSuccess == nil {
		return
	}
	m.finalizeSuccess.WithLabelValues(normalizeLabel(kind)).Inc()
}

// IncFinalizeFailure increments the failure counter for the sale kind.
func (m *EngineMetrics) IncFinalizeFailure(kind string) {
	if m == nil || m.finalizeFailure == nil {
		return
	}
	m.finalizeFailure.WithLabelValues(normalizeLabel(kind)).Inc()
}

// IncRateRefresh counts a refresh attempt by outcome ("success"/"failure").
func (m *EngineMetrics) IncRateRefresh(outcome string) {
	if m == nil || m.rateRefresh == nil {
		return
	}
	m.rateRefresh.WithLabelValues(normalizeLabel(outcome)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
