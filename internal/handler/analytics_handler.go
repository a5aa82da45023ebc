package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/contentpulse/internal/analytics"
	"github.com/hitoshi/contentpulse/internal/middleware"
	"github.com/hitoshi/contentpulse/internal/model"
	"github.com/hitoshi/contentpulse/internal/repository"
)

// AnalyticsServiceInterface は分析ハンドラーが必要とするサービスインターフェース。
type AnalyticsServiceInterface interface {
	// GetContentPerformance はコンテンツ1件のパフォーマンス指標を返す。
	GetContentPerformance(ctx context.Context, contentID int64) (*analytics.ContentPerformance, error)
	// GetPlatformAnalytics は指定プラットフォームの集計を返す。
	GetPlatformAnalytics(ctx context.Context, p model.Platform) (*analytics.PlatformAnalytics, error)
	// GetOverallAnalytics は全対応プラットフォーム横断の集計を返す。
	GetOverallAnalytics(ctx context.Context) (*analytics.OverallAnalytics, error)
	// PlatformPerformance はプラットフォーム別の平均指標を返す。
	PlatformPerformance(ctx context.Context) ([]analytics.PlatformInsight, error)
	// ViralContent は指定プラットフォーム内でバイラル閾値を超えたコンテンツを返す。
	ViralContent(ctx context.Context, p model.Platform) (*analytics.ViralResult, error)
	// BestPostingHours は投稿時間帯別の平均ビュー数を返す。
	BestPostingHours(ctx context.Context, p model.Platform) ([]repository.HourlyViewsRow, error)
	// Growth は過去N日間の日別コンテンツ作成数を返す。
	Growth(ctx context.Context, days int) ([]repository.DailyCountRow, error)
	// NeedingAttention は要注意コンテンツを返す。
	NeedingAttention(ctx context.Context) ([]*analytics.ContentPerformance, error)
	// Trending は直近の高エンゲージメントコンテンツを返す。
	Trending(ctx context.Context, days int) ([]*analytics.ContentPerformance, error)
}

// ForecastServiceInterface はビュー数予測のインターフェース。
type ForecastServiceInterface interface {
	// ForecastViews はスナップショット履歴からdaysAhead日後のビュー数を予測する。
	ForecastViews(ctx context.Context, contentID int64, daysAhead int) (*analytics.Forecast, error)
}

// AnalyticsHandler は集計・分析クエリのHTTPハンドラー。
type AnalyticsHandler struct {
	service    AnalyticsServiceInterface
	forecaster ForecastServiceInterface
}

// NewAnalyticsHandler はAnalyticsHandlerを生成する。
func NewAnalyticsHandler(service AnalyticsServiceInterface, forecaster ForecastServiceInterface) *AnalyticsHandler {
	return &AnalyticsHandler{
		service:    service,
		forecaster: forecaster,
	}
}

// hourlyViewsResponse は投稿時間帯別集計の1行のAPIレスポンス。
type hourlyViewsResponse struct {
	Hour     int     `json:"hour"`
	AvgViews float64 `json:"avgViews"`
}

// dailyCountResponse は日別コンテンツ作成数の1行のAPIレスポンス。
type dailyCountResponse struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}

// GetContentPerformance はコンテンツ1件のパフォーマンス指標を取得する。
// GET /api/analytics/contents/{id}
func (h *AnalyticsHandler) GetContentPerformance(w http.ResponseWriter, r *http.Request) {
	id, ok := contentIDFromRequest(w, r)
	if !ok {
		return
	}

	perf, err := h.service.GetContentPerformance(r.Context(), id)
	if err != nil {
		middleware.WriteAPIError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, perf)
}

// GetPlatformAnalytics はプラットフォーム1つ分の集計を取得する。
// GET /api/analytics/platforms/{platform}
func (h *AnalyticsHandler) GetPlatformAnalytics(w http.ResponseWriter, r *http.Request) {
	p := model.Platform(chi.URLParam(r, "platform"))

	result, err := h.service.GetPlatformAnalytics(r.Context(), p)
	if err != nil {
		middleware.WriteAPIError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, result)
}

// GetOverallAnalytics は全プラットフォーム横断の集計を取得する。
// GET /api/analytics/overall
func (h *AnalyticsHandler) GetOverallAnalytics(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.GetOverallAnalytics(r.Context())
	if err != nil {
		middleware.WriteAPIError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, result)
}

// GetPlatformPerformance はプラットフォーム別の平均指標を取得する。
// GET /api/analytics/platform-performance
func (h *AnalyticsHandler) GetPlatformPerformance(w http.ResponseWriter, r *http.Request) {
	insights, err := h.service.PlatformPerformance(r.Context())
	if err != nil {
		middleware.WriteAPIError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, insights)
}

// GetViralContent は指定プラットフォーム内のバイラルコンテンツを取得する。
// GET /api/analytics/platforms/{platform}/viral
func (h *AnalyticsHandler) GetViralContent(w http.ResponseWriter, r *http.Request) {
	p := model.Platform(chi.URLParam(r, "platform"))

	result, err := h.service.ViralContent(r.Context(), p)
	if err != nil {
		middleware.WriteAPIError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, result)
}

// GetBestPostingHours は投稿時間帯別の平均ビュー数を取得する。
// GET /api/analytics/platforms/{platform}/best-hours
func (h *AnalyticsHandler) GetBestPostingHours(w http.ResponseWriter, r *http.Request) {
	p := model.Platform(chi.URLParam(r, "platform"))

	rows, err := h.service.BestPostingHours(r.Context(), p)
	if err != nil {
		middleware.WriteAPIError(w, err)
		return
	}

	results := make([]hourlyViewsResponse, len(rows))
	for i, row := range rows {
		results[i] = hourlyViewsResponse{Hour: row.Hour, AvgViews: row.AvgViews}
	}
	writeJSONResponse(w, http.StatusOK, results)
}

// GetGrowth は日別のコンテンツ作成数を取得する。
// GET /api/analytics/growth?days=30
func (h *AnalyticsHandler) GetGrowth(w http.ResponseWriter, r *http.Request) {
	days, _ := strconv.Atoi(r.URL.Query().Get("days"))

	rows, err := h.service.Growth(r.Context(), days)
	if err != nil {
		middleware.WriteAPIError(w, err)
		return
	}

	results := make([]dailyCountResponse, len(rows))
	for i, row := range rows {
		results[i] = dailyCountResponse{Date: row.Date, Count: row.Count}
	}
	writeJSONResponse(w, http.StatusOK, results)
}

// GetNeedingAttention は要注意コンテンツを取得する。
// GET /api/analytics/needing-attention
func (h *AnalyticsHandler) GetNeedingAttention(w http.ResponseWriter, r *http.Request) {
	results, err := h.service.NeedingAttention(r.Context())
	if err != nil {
		middleware.WriteAPIError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, results)
}

// GetTrending は直近の高エンゲージメントコンテンツを取得する。
// GET /api/analytics/trending?days=7
func (h *AnalyticsHandler) GetTrending(w http.ResponseWriter, r *http.Request) {
	days, _ := strconv.Atoi(r.URL.Query().Get("days"))

	results, err := h.service.Trending(r.Context(), days)
	if err != nil {
		middleware.WriteAPIError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, results)
}

// GetForecast はスナップショット履歴からのビュー数予測を取得する。
// GET /api/analytics/contents/{id}/forecast?days=7
func (h *AnalyticsHandler) GetForecast(w http.ResponseWriter, r *http.Request) {
	id, ok := contentIDFromRequest(w, r)
	if !ok {
		return
	}

	days, _ := strconv.Atoi(r.URL.Query().Get("days"))

	forecast, err := h.forecaster.ForecastViews(r.Context(), id, days)
	if err != nil {
		middleware.WriteAPIError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, forecast)
}
