// Package metrics — Prometheus-метрики генерации.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "orange"

// Статусы генерации для метки outcome.
const (
	OutcomeOK       = "ok"
	OutcomeUpstream = "upstream_failure"
	OutcomeTimeout  = "upstream_timeout"
	OutcomeCanceled = "canceled"
)

// Generation собирает метрики вызовов внешних API.
type Generation struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	costUSD  *prometheus.CounterVec
	chars    *prometheus.CounterVec
	softFail *prometheus.CounterVec
}

// NewGeneration создаёт и регистрирует метрики в reg.
// Повторная регистрация (например, в тестах с общим реестром) — ошибка.
func NewGeneration(reg prometheus.Registerer) (*Generation, error) {
	g := &Generation{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generation_requests_total",
			Help:      "Upstream generation calls by kind, backend and outcome.",
		}, []string{"kind", "backend", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "generation_duration_seconds",
			Help:      "Upstream generation latency.",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 20, 40, 60, 120},
		}, []string{"kind", "backend"}),
		costUSD: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generation_cost_usd_total",
			Help:      "Estimated generation cost in USD (character based).",
		}, []string{"kind", "backend"}),
		chars: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generation_chars_total",
			Help:      "Prompt and completion characters.",
		}, []string{"kind", "direction"}),
		softFail: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "soft_failures_total",
			Help:      "Recovered failures of optional dependencies (history, insights).",
		}, []string{"dependency", "operation"}),
	}

	for _, c := range []prometheus.Collector{g.requests, g.duration, g.costUSD, g.chars, g.softFail} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}

	return g, nil
}

// ObserveCall фиксирует результат вызова внешнего API.
func (g *Generation) ObserveCall(kind, backend, outcome string, d time.Duration) {
	if g == nil {
		return
	}

	g.requests.WithLabelValues(kind, backend, outcome).Inc()
	g.duration.WithLabelValues(kind, backend).Observe(d.Seconds())
}

// ObserveCost фиксирует оценку стоимости и объём текста.
func (g *Generation) ObserveCost(kind, backend string, inputChars, outputChars int, usd float64) {
	if g == nil {
		return
	}

	g.costUSD.WithLabelValues(kind, backend).Add(usd)
	g.chars.WithLabelValues(kind, "input").Add(float64(inputChars))
	g.chars.WithLabelValues(kind, "output").Add(float64(outputChars))
}

// SoftFailure фиксирует проглоченную ошибку необязательной зависимости.
func (g *Generation) SoftFailure(dependency, operation string) {
	if g == nil {
		return
	}

	g.softFail.WithLabelValues(dependency, operation).Inc()
}
