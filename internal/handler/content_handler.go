package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/contentpulse/internal/analytics"
	"github.com/hitoshi/contentpulse/internal/content"
	"github.com/hitoshi/contentpulse/internal/middleware"
	"github.com/hitoshi/contentpulse/internal/model"
)

// ContentServiceInterface はコンテンツハンドラーが必要とするサービスインターフェース。
type ContentServiceInterface interface {
	// Create はコンテンツを検証・サニタイズして登録する。
	Create(ctx context.Context, c *model.Content) (*model.Content, error)
	// GetByID はコンテンツ1件を取得する。
	GetByID(ctx context.Context, id int64) (*model.Content, error)
	// Update は既存コンテンツの情報を部分更新する。
	Update(ctx context.Context, id int64, updated *model.Content) (*model.Content, error)
	// Delete はコンテンツ行と時系列メトリクスをまとめて削除する。
	Delete(ctx context.Context, id int64) error
	// List はコンテンツ一覧をページングして返す。
	List(ctx context.Context, limit, offset int) ([]*model.Content, error)
	// ListByPlatform は指定プラットフォームのコンテンツ一覧を返す。
	ListByPlatform(ctx context.Context, p model.Platform) ([]*model.Content, error)
	// ListByStatus は指定状態のコンテンツ一覧を返す。
	ListByStatus(ctx context.Context, status model.ContentStatus) ([]*model.Content, error)
	// ListByDateRange は作成日時範囲のコンテンツ一覧を返す。
	ListByDateRange(ctx context.Context, start, end time.Time) ([]*model.Content, error)
	// Search はタイトル部分一致でコンテンツを検索する。
	Search(ctx context.Context, titlePart string) ([]*model.Content, error)
	// GetWithMetrics はコンテンツと時系列メトリクスをまとめて返す。
	GetWithMetrics(ctx context.Context, id int64) (*content.ContentWithMetrics, error)
	// ImportFromURL はURLを解析してコンテンツを登録し初回同期をトリガーする。
	ImportFromURL(ctx context.Context, rawURL, title string) (*model.Content, error)
}

// ContentHandler はコンテンツ管理のHTTPハンドラー。
type ContentHandler struct {
	service ContentServiceInterface
}

// NewContentHandler はContentHandlerを生成する。
func NewContentHandler(service ContentServiceInterface) *ContentHandler {
	return &ContentHandler{service: service}
}

// createContentRequest はコンテンツ登録リクエストのボディ。
type createContentRequest struct {
	Title             string `json:"title"`
	Platform          string `json:"platform"`
	ContentIdentifier string `json:"contentIdentifier"`
	ContentURL        string `json:"contentUrl"`
	Description       string `json:"description"`
	Status            string `json:"status"`
}

// updateContentRequest はコンテンツ更新リクエストのボディ。
// 空のフィールドは更新対象外とする。
type updateContentRequest struct {
	Title       string `json:"title"`
	ContentURL  string `json:"contentUrl"`
	Description string `json:"description"`
	Status      string `json:"status"`
}

// importContentRequest はURL取り込みリクエストのボディ。
type importContentRequest struct {
	URL   string `json:"url"`
	Title string `json:"title"`
}

// contentResponse はコンテンツ情報のAPIレスポンス。
type contentResponse struct {
	ID                int64      `json:"id"`
	Title             string     `json:"title"`
	Platform          string     `json:"platform"`
	ContentIdentifier string     `json:"contentIdentifier"`
	ContentURL        string     `json:"contentUrl"`
	Description       string     `json:"description"`
	Views             int64      `json:"views"`
	Likes             int64      `json:"likes"`
	Comments          int64      `json:"comments"`
	Shares            int64      `json:"shares"`
	EngagementRate    float64    `json:"engagementRate"`
	SourceType        string     `json:"sourceType"`
	Status            string     `json:"status"`
	CreatedAt         time.Time  `json:"createdAt"`
	UpdatedAt         time.Time  `json:"updatedAt"`
	LastSyncedAt      *time.Time `json:"lastSyncedAt"`
}

// snapshotResponse は時系列スナップショット1件のAPIレスポンス。
type snapshotResponse struct {
	ID           string             `json:"id"`
	ContentID    int64              `json:"contentId"`
	Timestamp    time.Time          `json:"timestamp"`
	Metrics      map[string]int64   `json:"metrics"`
	PlatformData map[string]any     `json:"platformData,omitempty"`
	Engagement   map[string]float64 `json:"engagementMetrics,omitempty"`
}

// contentWithMetricsResponse はコンテンツと時系列メトリクスのAPIレスポンス。
type contentWithMetricsResponse struct {
	Content        contentResponse   `json:"content"`
	LatestSnapshot *snapshotResponse `json:"latestSnapshot"`
	History        []snapshotResponse `json:"history"`
}

// CreateContent はコンテンツ登録を処理する。
// POST /api/contents
func (h *ContentHandler) CreateContent(w http.ResponseWriter, r *http.Request) {
	var req createContentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError())
		return
	}

	c := &model.Content{
		Title:             req.Title,
		Platform:          model.Platform(req.Platform),
		ContentIdentifier: req.ContentIdentifier,
		ContentURL:        req.ContentURL,
		Description:       req.Description,
		Status:            model.ContentStatus(req.Status),
	}

	created, err := h.service.Create(r.Context(), c)
	if err != nil {
		middleware.WriteAPIError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusCreated, toContentResponse(created))
}

// GetContent はコンテンツ詳細を取得する。
// GET /api/contents/{id}
func (h *ContentHandler) GetContent(w http.ResponseWriter, r *http.Request) {
	id, ok := contentIDFromRequest(w, r)
	if !ok {
		return
	}

	found, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		middleware.WriteAPIError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, toContentResponse(found))
}

// UpdateContent はコンテンツの部分更新を処理する。
// PUT /api/contents/{id}
func (h *ContentHandler) UpdateContent(w http.ResponseWriter, r *http.Request) {
	id, ok := contentIDFromRequest(w, r)
	if !ok {
		return
	}

	var req updateContentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError())
		return
	}

	updated, err := h.service.Update(r.Context(), id, &model.Content{
		Title:       req.Title,
		ContentURL:  req.ContentURL,
		Description: req.Description,
		Status:      model.ContentStatus(req.Status),
	})
	if err != nil {
		middleware.WriteAPIError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, toContentResponse(updated))
}

// DeleteContent はコンテンツ削除を処理する。
// DELETE /api/contents/{id}
func (h *ContentHandler) DeleteContent(w http.ResponseWriter, r *http.Request) {
	id, ok := contentIDFromRequest(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		middleware.WriteAPIError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListContents はコンテンツ一覧を取得する。
// クエリパラメータで絞り込みを切り替える:
//
//	?platform=youtube          プラットフォーム別
//	?status=active             状態別
//	?start=...&end=...         作成日時範囲（RFC 3339）
//	?q=キーワード               タイトル部分一致検索
//	?limit=50&offset=0         ページング（絞り込みなしの場合のみ）
//
// GET /api/contents
func (h *ContentHandler) ListContents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var (
		contents []*model.Content
		err      error
	)
	switch {
	case q.Get("platform") != "":
		contents, err = h.service.ListByPlatform(r.Context(), model.Platform(q.Get("platform")))
	case q.Get("status") != "":
		contents, err = h.service.ListByStatus(r.Context(), model.ContentStatus(q.Get("status")))
	case q.Get("start") != "" || q.Get("end") != "":
		var start, end time.Time
		start, end, err = parseDateRange(q.Get("start"), q.Get("end"))
		if err != nil {
			middleware.WriteAPIError(w, err)
			return
		}
		contents, err = h.service.ListByDateRange(r.Context(), start, end)
	case q.Get("q") != "":
		contents, err = h.service.Search(r.Context(), q.Get("q"))
	default:
		limit, _ := strconv.Atoi(q.Get("limit"))
		offset, _ := strconv.Atoi(q.Get("offset"))
		contents, err = h.service.List(r.Context(), limit, offset)
	}
	if err != nil {
		middleware.WriteAPIError(w, err)
		return
	}

	results := make([]contentResponse, len(contents))
	for i, c := range contents {
		results[i] = toContentResponse(c)
	}
	writeJSONResponse(w, http.StatusOK, results)
}

// GetContentWithMetrics はコンテンツと時系列メトリクスをまとめて取得する。
// GET /api/contents/{id}/with-metrics
func (h *ContentHandler) GetContentWithMetrics(w http.ResponseWriter, r *http.Request) {
	id, ok := contentIDFromRequest(w, r)
	if !ok {
		return
	}

	result, err := h.service.GetWithMetrics(r.Context(), id)
	if err != nil {
		middleware.WriteAPIError(w, err)
		return
	}

	resp := contentWithMetricsResponse{
		Content: toContentResponse(result.Content),
		History: make([]snapshotResponse, len(result.History)),
	}
	for i, s := range result.History {
		resp.History[i] = toSnapshotResponse(s)
	}
	if result.LatestSnapshot != nil {
		latest := toSnapshotResponse(result.LatestSnapshot)
		resp.LatestSnapshot = &latest
	}
	writeJSONResponse(w, http.StatusOK, resp)
}

// ImportContent はURL貼り付けによるコンテンツ取り込みを処理する。
// POST /api/contents/import
func (h *ContentHandler) ImportContent(w http.ResponseWriter, r *http.Request) {
	var req importContentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError())
		return
	}

	if req.URL == "" {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewInvalidURLError("URLが空です"))
		return
	}

	imported, err := h.service.ImportFromURL(r.Context(), req.URL, req.Title)
	if err != nil {
		middleware.WriteAPIError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusCreated, toContentResponse(imported))
}

// --- ヘルパー関数 ---

// contentIDFromRequest はURLパスのidパラメータを解析する。
// 解析に失敗した場合はエラーレスポンスを書き込みfalseを返す。
func contentIDFromRequest(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewValidationError("コンテンツIDが不正です"))
		return 0, false
	}
	return id, true
}

// parseDateRange はRFC 3339形式の日時範囲パラメータを解析する。
func parseDateRange(startStr, endStr string) (time.Time, time.Time, error) {
	start, err := time.Parse(time.RFC3339, startStr)
	if err != nil {
		return time.Time{}, time.Time{}, model.NewValidationError("開始日時の形式が不正です")
	}
	end, err := time.Parse(time.RFC3339, endStr)
	if err != nil {
		return time.Time{}, time.Time{}, model.NewValidationError("終了日時の形式が不正です")
	}
	return start, end, nil
}

// writeJSONResponse はJSONレスポンスを書き込む。
func writeJSONResponse(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(body)
}

// toContentResponse はmodel.ContentからAPIレスポンスに変換する。
func toContentResponse(c *model.Content) contentResponse {
	resp := contentResponse{
		ID:                c.ID,
		Title:             c.Title,
		Platform:          string(c.Platform),
		ContentIdentifier: c.ContentIdentifier,
		ContentURL:        c.ContentURL,
		Description:       c.Description,
		Views:             c.Views,
		Likes:             c.Likes,
		Comments:          c.Comments,
		Shares:            c.Shares,
		SourceType:        string(c.SourceType),
		Status:            string(c.Status),
		CreatedAt:         c.CreatedAt,
		UpdatedAt:         c.UpdatedAt,
		LastSyncedAt:      c.LastSyncedAt,
		EngagementRate:    analytics.EngagementRate(c),
	}
	return resp
}

// toSnapshotResponse はmodel.MetricsSnapshotからAPIレスポンスに変換する。
func toSnapshotResponse(s *model.MetricsSnapshot) snapshotResponse {
	return snapshotResponse{
		ID:           s.ID,
		ContentID:    s.ContentID,
		Timestamp:    s.Timestamp,
		Metrics:      s.Metrics,
		PlatformData: s.PlatformData,
		Engagement:   s.EngagementMetrics,
	}
}
