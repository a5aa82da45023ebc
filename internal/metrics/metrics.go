// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// 同期ワーカーやサービス層から利用する。
type MetricsCollector interface {
	RecordSyncSuccess(platform string)
	RecordSyncFailure(platform string, reason string)
	RecordSyncLatency(duration time.Duration)
	RecordSnapshotAppended(platform string)
	RecordRealtimePublish(topicKind string)
	RecordHTTPStatus(statusCode int)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	syncSuccess      *prometheus.CounterVec
	syncFail         *prometheus.CounterVec
	syncLatency      prometheus.Histogram
	snapshotAppended *prometheus.CounterVec
	realtimePublish  *prometheus.CounterVec
	httpStatus       *prometheus.CounterVec
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		syncSuccess: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "contentpulse_sync_success_total",
			Help: "メトリクス同期成功の合計数",
		}, []string{"platform"}),
		syncFail: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "contentpulse_sync_fail_total",
			Help: "メトリクス同期失敗の合計数",
		}, []string{"platform"}),
		syncLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "contentpulse_sync_latency_seconds",
			Help:    "コンテンツ1件あたりの同期レイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		snapshotAppended: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "contentpulse_snapshot_appended_total",
			Help: "時系列ストアに追記されたスナップショットの合計数",
		}, []string{"platform"}),
		realtimePublish: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "contentpulse_realtime_publish_total",
			Help: "リアルタイム更新メッセージの発行数",
		}, []string{"topic_kind"}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "contentpulse_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
	}

	reg.MustRegister(
		c.syncSuccess,
		c.syncFail,
		c.syncLatency,
		c.snapshotAppended,
		c.realtimePublish,
		c.httpStatus,
	)

	return c
}

// RecordSyncSuccess は同期成功を記録する。
func (c *Collector) RecordSyncSuccess(platform string) {
	c.syncSuccess.WithLabelValues(platform).Inc()
}

// RecordSyncFailure は同期失敗を記録する。
func (c *Collector) RecordSyncFailure(platform string, reason string) {
	c.syncFail.WithLabelValues(platform).Inc()
}

// RecordSyncLatency はコンテンツ1件の同期レイテンシを記録する。
func (c *Collector) RecordSyncLatency(duration time.Duration) {
	c.syncLatency.Observe(duration.Seconds())
}

// RecordSnapshotAppended はスナップショット追記を記録する。
func (c *Collector) RecordSnapshotAppended(platform string) {
	c.snapshotAppended.WithLabelValues(platform).Inc()
}

// RecordRealtimePublish はリアルタイムメッセージの発行を記録する。
// topicKindはplatform/content/platform_contentsのいずれか。
func (c *Collector) RecordRealtimePublish(topicKind string) {
	c.realtimePublish.WithLabelValues(topicKind).Inc()
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// SetupMetricsRoute は/metricsエンドポイントを提供するHTTPハンドラーを返す。
// Prometheusスクレイプに対応する。
func SetupMetricsRoute(gatherer prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler(gatherer))
	return mux
}
