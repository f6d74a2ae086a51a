// Package metrics は画像生成の試行・リトライ・フォールバックを Prometheus の指標として記録します。
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/shouni/gemini-image-studio/pkg/generator"
)

const (
	resultSuccess = "success"
	outcomeOK     = "ok"
)

// Collector は generator.Observer を実装する指標収集器です。
type Collector struct {
	registry *prometheus.Registry

	attemptsTotal  *prometheus.CounterVec
	retriesTotal   *prometheus.CounterVec
	backoffSeconds prometheus.Histogram
	fallbacksTotal *prometheus.CounterVec
	requestsTotal  *prometheus.CounterVec
}

var _ generator.Observer = (*Collector)(nil)

// NewCollector は namespace 付きの指標を reg に登録して Collector を作ります。
// reg が nil の場合は専用のレジストリを作成します。
func NewCollector(namespace string, reg *prometheus.Registry) *Collector {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	factory := promauto.With(reg)

	return &Collector{
		registry: reg,
		attemptsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "backend_attempts_total",
				Help:      "Total number of image backend calls",
			},
			[]string{"model", "tier", "result"},
		),
		retriesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rate_limit_retries_total",
				Help:      "Total number of rate-limit retries",
			},
			[]string{"model"},
		),
		backoffSeconds: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "backoff_seconds",
				Help:      "Backoff delay before a retry in seconds",
				Buckets:   []float64{0.5, 1, 2, 4, 8, 16},
			},
		),
		fallbacksTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "fallbacks_total",
				Help:      "Total number of fallbacks from the high tier to the standard tier",
			},
			[]string{"from", "to"},
		),
		requestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "requests_total",
				Help:      "Total number of image generation requests by outcome",
			},
			[]string{"model", "outcome"},
		),
	}
}

// ObserveAttempt は1回のバックエンド呼び出しを記録します。
func (c *Collector) ObserveAttempt(a generator.Attempt) {
	result := resultSuccess
	if a.Kind != "" {
		result = string(a.Kind)
	}
	c.attemptsTotal.WithLabelValues(a.Model, a.Tier.String(), result).Inc()
}

// ObserveRetry はバックオフ付きの再試行を記録します。
func (c *Collector) ObserveRetry(model string, _ int, delay time.Duration) {
	c.retriesTotal.WithLabelValues(model).Inc()
	c.backoffSeconds.Observe(delay.Seconds())
}

// ObserveFallback はフォールバックを記録します。
func (c *Collector) ObserveFallback(from, to string) {
	c.fallbacksTotal.WithLabelValues(from, to).Inc()
}

// ObserveOutcome はリクエストの最終結果を記録します。
func (c *Collector) ObserveOutcome(model string, kind generator.ErrorKind) {
	outcome := outcomeOK
	if kind != "" {
		outcome = string(kind)
	}
	c.requestsTotal.WithLabelValues(model, outcome).Inc()
}

// Registry は指標を登録したレジストリを返します。
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// WriteTextfile は node_exporter の textfile collector 形式で指標を書き出します。
func (c *Collector) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, c.registry); err != nil {
		return fmt.Errorf("メトリクスの書き出しに失敗しました: %w", err)
	}
	return nil
}
