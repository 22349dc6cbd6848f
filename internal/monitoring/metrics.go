package monitoring

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/assist-by/sentinel/internal/domain"
)

const namespace = "sentinel"

// Metrics는 실행 엔진의 Prometheus 지표를 모읍니다
type Metrics struct {
	intentsTotal      *prometheus.CounterVec
	violationsTotal   *prometheus.CounterVec
	venueErrorsTotal  *prometheus.CounterVec
	stageLatency      *prometheus.HistogramVec
	catalogRefreshes  *prometheus.CounterVec
	catalogInstrument prometheus.Gauge
	gatherer          prometheus.Gatherer
}

// NewMetrics는 지표를 생성해 reg에 등록합니다
// reg가 nil이면 전용 레지스트리를 사용합니다
func NewMetrics(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	m := &Metrics{
		// Execution metrics
		intentsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "intents_total",
				Help:      "Total number of processed trade intents",
			},
			[]string{"action", "status"},
		),
		violationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "risk_violations_total",
				Help:      "Total number of risk rule violations",
			},
			[]string{"rule"},
		),
		stageLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "stage_duration_seconds",
				Help:      "Time spent reaching each execution stage",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"stage"},
		),

		// Venue metrics
		venueErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "venue_errors_total",
				Help:      "Total number of venue rejections by kind",
			},
			[]string{"kind"},
		),

		// Catalog metrics
		catalogRefreshes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "catalog_refresh_total",
				Help:      "Total number of instrument catalog refreshes",
			},
			[]string{"result"},
		),
		catalogInstrument: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "catalog_instruments",
				Help:      "Number of instruments in the active catalog snapshot",
			},
		),
		gatherer: reg,
	}

	reg.MustRegister(
		m.intentsTotal,
		m.violationsTotal,
		m.venueErrorsTotal,
		m.stageLatency,
		m.catalogRefreshes,
		m.catalogInstrument,
	)
	return m
}

// Handler는 /metrics 엔드포인트 핸들러를 반환합니다
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// ObserveResult는 의도 처리 결과를 기록합니다
func (m *Metrics) ObserveResult(result *domain.ExecutionResult) {
	m.intentsTotal.WithLabelValues(result.Action, string(result.Status)).Inc()

	if result.Validation != nil {
		for _, v := range result.Validation.Violations {
			m.violationsTotal.WithLabelValues(string(v.Rule)).Inc()
		}
	}
	for _, e := range result.Errors {
		if e.Category == domain.CategoryVenue {
			m.venueErrorsTotal.WithLabelValues(e.Kind).Inc()
		}
	}
}

// ObserveStage는 의도 접수부터 단계 도달까지 걸린 시간을 기록합니다
func (m *Metrics) ObserveStage(stage domain.Stage, elapsed time.Duration) {
	m.stageLatency.WithLabelValues(string(stage)).Observe(elapsed.Seconds())
}

// ObserveCatalogRefresh는 카탈로그 갱신 결과를 기록합니다
func (m *Metrics) ObserveCatalogRefresh(err error, instruments int) {
	if err != nil {
		m.catalogRefreshes.WithLabelValues("error").Inc()
		return
	}
	m.catalogRefreshes.WithLabelValues("ok").Inc()
	m.catalogInstrument.Set(float64(instruments))
}
