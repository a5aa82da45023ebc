package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/contentpulse/internal/metrics"
	"github.com/hitoshi/contentpulse/internal/middleware"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	Logger            *slog.Logger
	Collector         metrics.MetricsCollector

	// コンテンツ管理
	ContentService ContentServiceInterface

	// 時系列メトリクス・手動同期
	SnapshotReader SnapshotReaderInterface
	ManualSync     ManualSyncInterface

	// 分析
	AnalyticsService AnalyticsServiceInterface
	ForecastService  ForecastServiceInterface

	// リアルタイム配信
	RealtimeTrigger  RealtimeTriggerInterface
	StreamSubscriber StreamSubscriberInterface
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	RequestID → CORS → Logging → Recovery → RateLimit
//
// ヘルスチェック（/health）はレート制限の外に配置する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewRequestIDMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewLoggingMiddleware(deps.Logger, deps.Collector))
	r.Use(middleware.NewRecoveryMiddleware(deps.Logger))

	contentHandler := NewContentHandler(deps.ContentService)
	metricsHandler := NewMetricsHandler(deps.ContentService, deps.SnapshotReader, deps.ManualSync)
	analyticsHandler := NewAnalyticsHandler(deps.AnalyticsService, deps.ForecastService)
	realtimeHandler := NewRealtimeHandler(deps.RealtimeTrigger, deps.StreamSubscriber)

	// ヘルスチェック（レート制限対象外）
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Group(func(r chi.Router) {
		r.Use(deps.RateLimiter.Middleware())

		// コンテンツ管理
		r.Route("/api/contents", func(r chi.Router) {
			r.Get("/", contentHandler.ListContents)
			r.Post("/", contentHandler.CreateContent)

			// POST /api/contents/import - URL貼り付けによる取り込み
			r.Post("/import", contentHandler.ImportContent)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", contentHandler.GetContent)
				r.Put("/", contentHandler.UpdateContent)
				r.Delete("/", contentHandler.DeleteContent)

				// GET /api/contents/{id}/with-metrics - コンテンツと時系列メトリクス
				r.Get("/with-metrics", contentHandler.GetContentWithMetrics)

				// 時系列メトリクスと手動同期
				r.Get("/metrics", metricsHandler.ListMetricsHistory)
				r.Get("/metrics/latest", metricsHandler.GetLatestMetrics)
				r.Post("/sync", metricsHandler.SyncContent)
			})
		})

		// 分析
		r.Route("/api/analytics", func(r chi.Router) {
			r.Get("/overall", analyticsHandler.GetOverallAnalytics)
			r.Get("/platform-performance", analyticsHandler.GetPlatformPerformance)
			r.Get("/growth", analyticsHandler.GetGrowth)
			r.Get("/needing-attention", analyticsHandler.GetNeedingAttention)
			r.Get("/trending", analyticsHandler.GetTrending)

			r.Route("/platforms/{platform}", func(r chi.Router) {
				r.Get("/", analyticsHandler.GetPlatformAnalytics)
				r.Get("/viral", analyticsHandler.GetViralContent)
				r.Get("/best-hours", analyticsHandler.GetBestPostingHours)
			})

			r.Route("/contents/{id}", func(r chi.Router) {
				r.Get("/", analyticsHandler.GetContentPerformance)
				r.Get("/forecast", analyticsHandler.GetForecast)
			})
		})

		// リアルタイム配信
		r.Route("/api/realtime", func(r chi.Router) {
			r.Get("/stream", realtimeHandler.Stream)
			r.Post("/platforms/{platform}/trigger", realtimeHandler.TriggerPlatformUpdate)
			r.Post("/contents/{id}/trigger", realtimeHandler.TriggerContentUpdate)
		})
	})

	return r
}
