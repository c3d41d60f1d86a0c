// Package metrics содержит prometheus-метрики поиска и модерации вопросов
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Режимы выборки для метки mode
const (
	ModeOrdered = "ordered"
	ModeSampled = "sampled"
)

// Metrics хранит коллекторы сервиса. Нулевой указатель допустим: все методы становятся no-op.
type Metrics struct {
	registry *prometheus.Registry

	searchLatency   *prometheus.HistogramVec
	searchResults   *prometheus.HistogramVec
	searchFailures  *prometheus.CounterVec
	reports         *prometheus.CounterVec
	recategorized   *prometheus.CounterVec
	statsPropagated *prometheus.CounterVec
}

// New создает метрики и регистрирует их в собственном реестре
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		searchLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "questionbank",
			Name:      "search_latency_ms",
			Help:      "Latency of question searches in milliseconds",
			Buckets:   []float64{5, 10, 25, 50, 100, 200, 400, 800, 1600, 3200},
		}, []string{"type", "mode"}),

		searchResults: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "questionbank",
			Name:      "search_results",
			Help:      "Number of questions returned by a search",
			Buckets:   []float64{0, 1, 5, 10, 25, 50, 100, 500, 1000, 10000},
		}, []string{"type", "mode"}),

		searchFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "questionbank",
			Name:      "search_failures_total",
			Help:      "Searches degraded to an empty result because of a store error",
		}, []string{"type"}),

		reports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "questionbank",
			Name:      "reports_total",
			Help:      "Question reports by reason",
		}, []string{"reason"}),

		recategorized: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "questionbank",
			Name:      "recategorizations_total",
			Help:      "Moderator recategorizations by question type",
		}, []string{"type"}),

		statsPropagated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "questionbank",
			Name:      "stats_propagated_total",
			Help:      "Statistics records updated by recategorizations",
		}, []string{"type"}),
	}

	m.registry.MustRegister(
		m.searchLatency, m.searchResults, m.searchFailures,
		m.reports, m.recategorized, m.statsPropagated,
	)
	return m
}

// Collectors возвращает все коллекторы для регистрации во внешнем реестре
func (m *Metrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.searchLatency, m.searchResults, m.searchFailures,
		m.reports, m.recategorized, m.statsPropagated,
	}
}

// Handler отдает метрики в формате prometheus
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveSearch записывает длительность и размер выдачи одной половины поиска
func (m *Metrics) ObserveSearch(kind, mode string, start time.Time, results int) {
	if m == nil {
		return
	}
	m.searchLatency.WithLabelValues(kind, mode).Observe(float64(time.Since(start).Milliseconds()))
	m.searchResults.WithLabelValues(kind, mode).Observe(float64(results))
}

// IncSearchFailure учитывает поиск, деградировавший до пустого результата
func (m *Metrics) IncSearchFailure(kind string) {
	if m == nil {
		return
	}
	m.searchFailures.WithLabelValues(kind).Inc()
}

// IncReport учитывает жалобу на вопрос
func (m *Metrics) IncReport(reason string) {
	if m == nil {
		return
	}
	m.reports.WithLabelValues(reason).Inc()
}

// ObserveRecategorization учитывает перекатегоризацию и число обновленных записей статистики
func (m *Metrics) ObserveRecategorization(kind string, statsUpdated int64) {
	if m == nil {
		return
	}
	m.recategorized.WithLabelValues(kind).Inc()
	m.statsPropagated.WithLabelValues(kind).Add(float64(statsUpdated))
}
