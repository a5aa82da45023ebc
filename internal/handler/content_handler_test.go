package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/contentpulse/internal/analytics"
	"github.com/hitoshi/contentpulse/internal/content"
	"github.com/hitoshi/contentpulse/internal/model"
)

// --- モック定義 ---

// mockContentService はContentServiceInterfaceのモック実装。
type mockContentService struct {
	createFn          func(ctx context.Context, c *model.Content) (*model.Content, error)
	getByIDFn         func(ctx context.Context, id int64) (*model.Content, error)
	updateFn          func(ctx context.Context, id int64, updated *model.Content) (*model.Content, error)
	deleteFn          func(ctx context.Context, id int64) error
	listFn            func(ctx context.Context, limit, offset int) ([]*model.Content, error)
	listByPlatformFn  func(ctx context.Context, p model.Platform) ([]*model.Content, error)
	listByStatusFn    func(ctx context.Context, status model.ContentStatus) ([]*model.Content, error)
	listByDateRangeFn func(ctx context.Context, start, end time.Time) ([]*model.Content, error)
	searchFn          func(ctx context.Context, titlePart string) ([]*model.Content, error)
	getWithMetricsFn  func(ctx context.Context, id int64) (*content.ContentWithMetrics, error)
	importFromURLFn   func(ctx context.Context, rawURL, title string) (*model.Content, error)
}

func (m *mockContentService) Create(ctx context.Context, c *model.Content) (*model.Content, error) {
	if m.createFn != nil {
		return m.createFn(ctx, c)
	}
	return c, nil
}

func (m *mockContentService) GetByID(ctx context.Context, id int64) (*model.Content, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, model.NewContentNotFoundError(id)
}

func (m *mockContentService) Update(ctx context.Context, id int64, updated *model.Content) (*model.Content, error) {
	if m.updateFn != nil {
		return m.updateFn(ctx, id, updated)
	}
	return updated, nil
}

func (m *mockContentService) Delete(ctx context.Context, id int64) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

func (m *mockContentService) List(ctx context.Context, limit, offset int) ([]*model.Content, error) {
	if m.listFn != nil {
		return m.listFn(ctx, limit, offset)
	}
	return nil, nil
}

func (m *mockContentService) ListByPlatform(ctx context.Context, p model.Platform) ([]*model.Content, error) {
	if m.listByPlatformFn != nil {
		return m.listByPlatformFn(ctx, p)
	}
	return nil, nil
}

func (m *mockContentService) ListByStatus(ctx context.Context, status model.ContentStatus) ([]*model.Content, error) {
	if m.listByStatusFn != nil {
		return m.listByStatusFn(ctx, status)
	}
	return nil, nil
}

func (m *mockContentService) ListByDateRange(ctx context.Context, start, end time.Time) ([]*model.Content, error) {
	if m.listByDateRangeFn != nil {
		return m.listByDateRangeFn(ctx, start, end)
	}
	return nil, nil
}

func (m *mockContentService) Search(ctx context.Context, titlePart string) ([]*model.Content, error) {
	if m.searchFn != nil {
		return m.searchFn(ctx, titlePart)
	}
	return nil, nil
}

func (m *mockContentService) GetWithMetrics(ctx context.Context, id int64) (*content.ContentWithMetrics, error) {
	if m.getWithMetricsFn != nil {
		return m.getWithMetricsFn(ctx, id)
	}
	return nil, model.NewContentNotFoundError(id)
}

func (m *mockContentService) ImportFromURL(ctx context.Context, rawURL, title string) (*model.Content, error) {
	if m.importFromURLFn != nil {
		return m.importFromURLFn(ctx, rawURL, title)
	}
	return nil, nil
}

// --- テストヘルパー ---

// withChiURLParam はテスト用にchiのURLパラメータを注入するヘルパー。
func withChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	ctx := context.WithValue(r.Context(), chi.RouteCtxKey, rctx)
	return r.WithContext(ctx)
}

// parseAPIErrorResponse はレスポンスボディからAPIErrorレスポンスをパースするヘルパー。
func parseAPIErrorResponse(t *testing.T, w *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var result map[string]string
	if err := json.NewDecoder(w.Body).Decode(&result); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}
	return result
}

func testContent(id int64) *model.Content {
	return &model.Content{
		ID:                id,
		Title:             "動画タイトル",
		Platform:          model.PlatformYouTube,
		ContentIdentifier: "dQw4w9WgXcQ",
		ContentURL:        "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
		Views:             1000,
		Likes:             100,
		Comments:          50,
		Shares:            25,
		SourceType:        model.SourceTypeManual,
		Status:            model.ContentStatusActive,
	}
}

// --- POST /api/contents テスト ---

func TestContentHandler_CreateContent_Success(t *testing.T) {
	svc := &mockContentService{
		createFn: func(ctx context.Context, c *model.Content) (*model.Content, error) {
			if c.Title != "動画タイトル" {
				t.Errorf("Title = %q, want %q", c.Title, "動画タイトル")
			}
			if c.Platform != model.PlatformYouTube {
				t.Errorf("Platform = %q, want %q", c.Platform, model.PlatformYouTube)
			}
			c.ID = 1
			return c, nil
		},
	}
	h := NewContentHandler(svc)

	body := bytes.NewBufferString(`{"title":"動画タイトル","platform":"youtube","contentIdentifier":"dQw4w9WgXcQ"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/contents", body)
	w := httptest.NewRecorder()

	h.CreateContent(w, req)

	if w.Code != http.StatusCreated {
		t.Errorf("ステータスコード = %d, want %d", w.Code, http.StatusCreated)
	}

	var resp contentResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("レスポンスのデコードに失敗: %v", err)
	}
	if resp.ID != 1 {
		t.Errorf("ID = %d, want 1", resp.ID)
	}
	if resp.Platform != "youtube" {
		t.Errorf("Platform = %q, want %q", resp.Platform, "youtube")
	}
}

func TestContentHandler_CreateContent_InvalidJSON(t *testing.T) {
	h := NewContentHandler(&mockContentService{})

	req := httptest.NewRequest(http.MethodPost, "/api/contents", bytes.NewBufferString("{不正なJSON"))
	w := httptest.NewRecorder()

	h.CreateContent(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("ステータスコード = %d, want %d", w.Code, http.StatusBadRequest)
	}
	result := parseAPIErrorResponse(t, w)
	if result["code"] != "INVALID_REQUEST" {
		t.Errorf("code = %q, want %q", result["code"], "INVALID_REQUEST")
	}
}

func TestContentHandler_CreateContent_ValidationError(t *testing.T) {
	svc := &mockContentService{
		createFn: func(ctx context.Context, c *model.Content) (*model.Content, error) {
			return nil, model.NewValidationError("タイトルは必須です")
		},
	}
	h := NewContentHandler(svc)

	req := httptest.NewRequest(http.MethodPost, "/api/contents", bytes.NewBufferString(`{"platform":"youtube"}`))
	w := httptest.NewRecorder()

	h.CreateContent(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("ステータスコード = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

// --- GET /api/contents/{id} テスト ---

func TestContentHandler_GetContent_Success(t *testing.T) {
	svc := &mockContentService{
		getByIDFn: func(ctx context.Context, id int64) (*model.Content, error) {
			if id != 42 {
				t.Errorf("id = %d, want 42", id)
			}
			return testContent(42), nil
		},
	}
	h := NewContentHandler(svc)

	req := withChiURLParam(httptest.NewRequest(http.MethodGet, "/api/contents/42", nil), "id", "42")
	w := httptest.NewRecorder()

	h.GetContent(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("ステータスコード = %d, want %d", w.Code, http.StatusOK)
	}

	var resp contentResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("レスポンスのデコードに失敗: %v", err)
	}
	if resp.ID != 42 {
		t.Errorf("ID = %d, want 42", resp.ID)
	}
	// (100+25+50)/1000*100 = 17.5
	if resp.EngagementRate != 17.5 {
		t.Errorf("EngagementRate = %f, want 17.5", resp.EngagementRate)
	}
}

func TestToContentResponse_UsesSharedEngagementRate(t *testing.T) {
	c := testContent(1)

	resp := toContentResponse(c)
	if resp.EngagementRate != analytics.EngagementRate(c) {
		t.Errorf("EngagementRate = %f, 共通の算出結果 %f と一致すべき",
			resp.EngagementRate, analytics.EngagementRate(c))
	}

	// ビュー0のときは0（ゼロ除算しない）
	zero := testContent(2)
	zero.Views = 0
	if got := toContentResponse(zero).EngagementRate; got != 0 {
		t.Errorf("ビュー0のEngagementRate = %f, want 0", got)
	}
}

func TestContentHandler_GetContent_NotFound(t *testing.T) {
	h := NewContentHandler(&mockContentService{})

	req := withChiURLParam(httptest.NewRequest(http.MethodGet, "/api/contents/999", nil), "id", "999")
	w := httptest.NewRecorder()

	h.GetContent(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("ステータスコード = %d, want %d", w.Code, http.StatusNotFound)
	}
	result := parseAPIErrorResponse(t, w)
	if result["code"] != "CONTENT_NOT_FOUND" {
		t.Errorf("code = %q, want %q", result["code"], "CONTENT_NOT_FOUND")
	}
}

func TestContentHandler_GetContent_InvalidID(t *testing.T) {
	h := NewContentHandler(&mockContentService{})

	req := withChiURLParam(httptest.NewRequest(http.MethodGet, "/api/contents/abc", nil), "id", "abc")
	w := httptest.NewRecorder()

	h.GetContent(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("ステータスコード = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

// --- PUT /api/contents/{id} テスト ---

func TestContentHandler_UpdateContent_Success(t *testing.T) {
	svc := &mockContentService{
		updateFn: func(ctx context.Context, id int64, updated *model.Content) (*model.Content, error) {
			if updated.Title != "新タイトル" {
				t.Errorf("Title = %q, want %q", updated.Title, "新タイトル")
			}
			c := testContent(id)
			c.Title = updated.Title
			return c, nil
		},
	}
	h := NewContentHandler(svc)

	body := bytes.NewBufferString(`{"title":"新タイトル"}`)
	req := withChiURLParam(httptest.NewRequest(http.MethodPut, "/api/contents/42", body), "id", "42")
	w := httptest.NewRecorder()

	h.UpdateContent(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("ステータスコード = %d, want %d", w.Code, http.StatusOK)
	}
}

// --- DELETE /api/contents/{id} テスト ---

func TestContentHandler_DeleteContent_Success(t *testing.T) {
	deleted := false
	svc := &mockContentService{
		deleteFn: func(ctx context.Context, id int64) error {
			deleted = true
			return nil
		},
	}
	h := NewContentHandler(svc)

	req := withChiURLParam(httptest.NewRequest(http.MethodDelete, "/api/contents/42", nil), "id", "42")
	w := httptest.NewRecorder()

	h.DeleteContent(w, req)

	if w.Code != http.StatusNoContent {
		t.Errorf("ステータスコード = %d, want %d", w.Code, http.StatusNoContent)
	}
	if !deleted {
		t.Error("Deleteが呼ばれていない")
	}
}

// --- GET /api/contents テスト ---

func TestContentHandler_ListContents_Default(t *testing.T) {
	svc := &mockContentService{
		listFn: func(ctx context.Context, limit, offset int) ([]*model.Content, error) {
			return []*model.Content{testContent(1), testContent(2)}, nil
		},
	}
	h := NewContentHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/contents", nil)
	w := httptest.NewRecorder()

	h.ListContents(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("ステータスコード = %d, want %d", w.Code, http.StatusOK)
	}

	var resp []contentResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("レスポンスのデコードに失敗: %v", err)
	}
	if len(resp) != 2 {
		t.Errorf("件数 = %d, want 2", len(resp))
	}
}

func TestContentHandler_ListContents_ByPlatform(t *testing.T) {
	svc := &mockContentService{
		listByPlatformFn: func(ctx context.Context, p model.Platform) ([]*model.Content, error) {
			if p != model.PlatformMedium {
				t.Errorf("platform = %q, want %q", p, model.PlatformMedium)
			}
			return []*model.Content{testContent(1)}, nil
		},
	}
	h := NewContentHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/contents?platform=medium", nil)
	w := httptest.NewRecorder()

	h.ListContents(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("ステータスコード = %d, want %d", w.Code, http.StatusOK)
	}
}

func TestContentHandler_ListContents_Search(t *testing.T) {
	svc := &mockContentService{
		searchFn: func(ctx context.Context, titlePart string) ([]*model.Content, error) {
			if titlePart != "動画" {
				t.Errorf("titlePart = %q, want %q", titlePart, "動画")
			}
			return []*model.Content{testContent(1)}, nil
		},
	}
	h := NewContentHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/contents?q=%E5%8B%95%E7%94%BB", nil)
	w := httptest.NewRecorder()

	h.ListContents(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("ステータスコード = %d, want %d", w.Code, http.StatusOK)
	}
}

func TestContentHandler_ListContents_DateRange_Invalid(t *testing.T) {
	h := NewContentHandler(&mockContentService{})

	req := httptest.NewRequest(http.MethodGet, "/api/contents?start=not-a-date&end=2026-01-01T00:00:00Z", nil)
	w := httptest.NewRecorder()

	h.ListContents(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("ステータスコード = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

// --- GET /api/contents/{id}/with-metrics テスト ---

func TestContentHandler_GetContentWithMetrics_Success(t *testing.T) {
	now := time.Now()
	svc := &mockContentService{
		getWithMetricsFn: func(ctx context.Context, id int64) (*content.ContentWithMetrics, error) {
			snap := &model.MetricsSnapshot{
				ID:        "snap-1",
				ContentID: id,
				Timestamp: now,
				Metrics:   map[string]int64{"views": 1000},
			}
			return &content.ContentWithMetrics{
				Content:        testContent(id),
				LatestSnapshot: snap,
				History:        []*model.MetricsSnapshot{snap},
			}, nil
		},
	}
	h := NewContentHandler(svc)

	req := withChiURLParam(httptest.NewRequest(http.MethodGet, "/api/contents/42/with-metrics", nil), "id", "42")
	w := httptest.NewRecorder()

	h.GetContentWithMetrics(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("ステータスコード = %d, want %d", w.Code, http.StatusOK)
	}

	var resp contentWithMetricsResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("レスポンスのデコードに失敗: %v", err)
	}
	if resp.LatestSnapshot == nil {
		t.Fatal("LatestSnapshotがnil")
	}
	if resp.LatestSnapshot.Metrics["views"] != 1000 {
		t.Errorf("views = %d, want 1000", resp.LatestSnapshot.Metrics["views"])
	}
	if len(resp.History) != 1 {
		t.Errorf("履歴件数 = %d, want 1", len(resp.History))
	}
}

// --- POST /api/contents/import テスト ---

func TestContentHandler_ImportContent_Success(t *testing.T) {
	svc := &mockContentService{
		importFromURLFn: func(ctx context.Context, rawURL, title string) (*model.Content, error) {
			if rawURL != "https://www.youtube.com/watch?v=dQw4w9WgXcQ" {
				t.Errorf("rawURL = %q", rawURL)
			}
			c := testContent(7)
			c.SourceType = model.SourceTypeURLImport
			return c, nil
		},
	}
	h := NewContentHandler(svc)

	body := bytes.NewBufferString(`{"url":"https://www.youtube.com/watch?v=dQw4w9WgXcQ"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/contents/import", body)
	w := httptest.NewRecorder()

	h.ImportContent(w, req)

	if w.Code != http.StatusCreated {
		t.Errorf("ステータスコード = %d, want %d", w.Code, http.StatusCreated)
	}

	var resp contentResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("レスポンスのデコードに失敗: %v", err)
	}
	if resp.SourceType != string(model.SourceTypeURLImport) {
		t.Errorf("SourceType = %q, want %q", resp.SourceType, model.SourceTypeURLImport)
	}
}

func TestContentHandler_ImportContent_EmptyURL(t *testing.T) {
	h := NewContentHandler(&mockContentService{})

	req := httptest.NewRequest(http.MethodPost, "/api/contents/import", bytes.NewBufferString(`{"url":""}`))
	w := httptest.NewRecorder()

	h.ImportContent(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("ステータスコード = %d, want %d", w.Code, http.StatusBadRequest)
	}
	result := parseAPIErrorResponse(t, w)
	if result["code"] != "INVALID_URL" {
		t.Errorf("code = %q, want %q", result["code"], "INVALID_URL")
	}
}
