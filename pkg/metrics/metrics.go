// Package metrics 定义推荐与训练链路的 Prometheus 指标。
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/push"
)

var (
	// 离线训练
	TrainingDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "recommend_training_duration_seconds",
			Help:    "Duration of a full ALS training run",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600, 1800},
		},
	)

	TrainingStageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "recommend_training_stage_duration_seconds",
			Help:    "Duration of each training stage",
			Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60, 300},
		},
		[]string{"stage"}, // load, build, factorize, persist
	)

	TrainingMatrixSize = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "recommend_training_matrix_size",
			Help: "Dimensions of the last trained interaction matrix",
		},
		[]string{"dimension"}, // users, items, interactions
	)

	TrainingLoss = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "recommend_training_loss",
			Help: "Final training loss of the last ALS run",
		},
	)

	TrainingLastSuccess = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "recommend_training_last_success_timestamp",
			Help: "Unix timestamp of the last successful training run",
		},
	)

	// 在线召回
	RecallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "recommend_recall_duration_seconds",
			Help:    "Latency of a single recall source",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"source"},
	)

	RecallFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommend_recall_failures_total",
			Help: "Recall source failures degraded to an empty list",
		},
		[]string{"source", "reason"}, // reason: timeout, error
	)

	RecallCandidates = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "recommend_recall_candidates",
			Help:    "Number of candidates returned per source",
			Buckets: []float64{0, 1, 5, 10, 25, 50, 100},
		},
		[]string{"source"},
	)

	MergedSetSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "recommend_merged_set_size",
			Help:    "Size of the merged recommendation set",
			Buckets: []float64{0, 1, 5, 10, 25, 50},
		},
	)

	FactorReloads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommend_factor_reloads_total",
			Help: "Factor table reload attempts",
		},
		[]string{"result"}, // success, failure
	)

	FactorTableRows = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "recommend_factor_table_rows",
			Help: "Rows in the currently served factor tables",
		},
		[]string{"table"}, // users, items
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "recommend_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	FilteredItems = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommend_filtered_items_total",
			Help: "Items removed after merge, by filter",
		},
		[]string{"filter"},
	)

	CatalogLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommend_catalog_lookups_total",
			Help: "Catalog lookups by result",
		},
		[]string{"backend", "result"}, // result: hit, miss, error
	)
)

// Push 把默认 registry 中的全部指标推送到 Pushgateway，供批处理任务使用。
// url 为空时不做任何事。
func Push(url, job string) error {
	if url == "" {
		return nil
	}
	if err := push.New(url, job).Gatherer(prometheus.DefaultGatherer).Push(); err != nil {
		return fmt.Errorf("push metrics to %s: %w", url, err)
	}
	return nil
}
