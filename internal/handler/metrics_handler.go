package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/hitoshi/contentpulse/internal/middleware"
	"github.com/hitoshi/contentpulse/internal/model"
)

// ContentFinderInterface はメトリクスハンドラーが必要とするコンテンツ取得インターフェース。
type ContentFinderInterface interface {
	// GetByID はコンテンツ1件を取得する。存在しない場合はCONTENT_NOT_FOUNDを返す。
	GetByID(ctx context.Context, id int64) (*model.Content, error)
}

// SnapshotReaderInterface は時系列スナップショットの読み取りインターフェース。
type SnapshotReaderInterface interface {
	// ListByContentID は指定コンテンツの全スナップショットをタイムスタンプ昇順で返す。
	ListByContentID(ctx context.Context, contentID int64) ([]*model.MetricsSnapshot, error)
	// LatestByContentID は指定コンテンツの最新スナップショットを返す。
	LatestByContentID(ctx context.Context, contentID int64) (*model.MetricsSnapshot, error)
}

// ManualSyncInterface はコンテンツ1件の即時同期インターフェース。
type ManualSyncInterface interface {
	// SyncContent はコンテンツ1件のメトリクスを即時取得・永続化する。
	SyncContent(ctx context.Context, content *model.Content) (*model.NormalizedMetrics, error)
}

// MetricsHandler は時系列メトリクスと手動同期のHTTPハンドラー。
type MetricsHandler struct {
	contents  ContentFinderInterface
	snapshots SnapshotReaderInterface
	syncer    ManualSyncInterface
}

// NewMetricsHandler はMetricsHandlerを生成する。
func NewMetricsHandler(contents ContentFinderInterface, snapshots SnapshotReaderInterface, syncer ManualSyncInterface) *MetricsHandler {
	return &MetricsHandler{
		contents:  contents,
		snapshots: snapshots,
		syncer:    syncer,
	}
}

// syncResultResponse は手動同期結果のAPIレスポンス。
type syncResultResponse struct {
	ContentID int64          `json:"contentId"`
	Platform  string         `json:"platform"`
	Views     int64          `json:"views"`
	Likes     int64          `json:"likes"`
	Comments  int64          `json:"comments"`
	Shares    int64          `json:"shares"`
	FetchedAt time.Time      `json:"fetchedAt"`
	Extra     map[string]any `json:"extra,omitempty"`
}

// ListMetricsHistory はコンテンツの時系列スナップショットを取得する。
// GET /api/contents/{id}/metrics
func (h *MetricsHandler) ListMetricsHistory(w http.ResponseWriter, r *http.Request) {
	id, ok := contentIDFromRequest(w, r)
	if !ok {
		return
	}

	if _, err := h.contents.GetByID(r.Context(), id); err != nil {
		middleware.WriteAPIError(w, err)
		return
	}

	history, err := h.snapshots.ListByContentID(r.Context(), id)
	if err != nil {
		middleware.WriteAPIError(w, err)
		return
	}

	results := make([]snapshotResponse, len(history))
	for i, s := range history {
		results[i] = toSnapshotResponse(s)
	}
	writeJSONResponse(w, http.StatusOK, results)
}

// GetLatestMetrics はコンテンツの最新スナップショットを取得する。
// スナップショットが1件も存在しない場合はMETRICS_NOT_FOUNDを返す。
// GET /api/contents/{id}/metrics/latest
func (h *MetricsHandler) GetLatestMetrics(w http.ResponseWriter, r *http.Request) {
	id, ok := contentIDFromRequest(w, r)
	if !ok {
		return
	}

	if _, err := h.contents.GetByID(r.Context(), id); err != nil {
		middleware.WriteAPIError(w, err)
		return
	}

	latest, err := h.snapshots.LatestByContentID(r.Context(), id)
	if err != nil {
		middleware.WriteAPIError(w, err)
		return
	}
	if latest == nil {
		middleware.WriteAPIError(w, model.NewMetricsNotFoundError(id))
		return
	}

	writeJSONResponse(w, http.StatusOK, toSnapshotResponse(latest))
}

// SyncContent はコンテンツ1件の手動同期を処理する。
// スケジューラーを待たずに即時取得・永続化し、正規化済みメトリクスを返す。
// POST /api/contents/{id}/sync
func (h *MetricsHandler) SyncContent(w http.ResponseWriter, r *http.Request) {
	id, ok := contentIDFromRequest(w, r)
	if !ok {
		return
	}

	found, err := h.contents.GetByID(r.Context(), id)
	if err != nil {
		middleware.WriteAPIError(w, err)
		return
	}

	metrics, err := h.syncer.SyncContent(r.Context(), found)
	if err != nil {
		middleware.WriteAPIError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, syncResultResponse{
		ContentID: found.ID,
		Platform:  string(metrics.Platform),
		Views:     metrics.Views,
		Likes:     metrics.Likes,
		Comments:  metrics.Comments,
		Shares:    metrics.Shares,
		FetchedAt: metrics.FetchedAt,
		Extra:     metrics.Extra,
	})
}
