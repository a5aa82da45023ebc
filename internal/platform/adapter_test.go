package platform

import (
	"context"
	"testing"

	"github.com/hitoshi/contentpulse/internal/model"
)

func TestNewDefaultRegistry_RegistersActivePlatforms(t *testing.T) {
	r := NewDefaultRegistry()

	for _, p := range model.ActivePlatforms() {
		if _, ok := r.Lookup(p); !ok {
			t.Errorf("%s のアダプターが登録されていない", p)
		}
	}
}

func TestNewDefaultRegistry_BetaPlatformsNotRegistered(t *testing.T) {
	r := NewDefaultRegistry()

	for _, p := range model.AllPlatforms() {
		if !p.IsBeta() {
			continue
		}
		if _, ok := r.Lookup(p); ok {
			t.Errorf("ベータプラットフォーム %s にアダプターが登録されている", p)
		}
	}
}

func TestRegistry_Register_Overwrites(t *testing.T) {
	r := NewRegistry()
	first := NewYouTubeAdapter()
	second := NewYouTubeAdapter()

	r.Register(first)
	r.Register(second)

	got, ok := r.Lookup(model.PlatformYouTube)
	if !ok {
		t.Fatal("登録したアダプターが見つからない")
	}
	if got != second {
		t.Error("再登録で上書きされていない")
	}
}

func TestYouTubeAdapter_Fetch_DemoValues(t *testing.T) {
	a := NewYouTubeAdapter()

	m, err := a.Fetch(context.Background(), "dQw4w9WgXcQ")
	if err != nil {
		t.Fatalf("予期しないエラー: %v", err)
	}

	if m.Platform != model.PlatformYouTube {
		t.Errorf("Platform = %q, want %q", m.Platform, model.PlatformYouTube)
	}
	if m.ContentIdentifier != "dQw4w9WgXcQ" {
		t.Errorf("ContentIdentifier = %q, want %q", m.ContentIdentifier, "dQw4w9WgXcQ")
	}
	if m.Views != 1000 || m.Likes != 100 || m.Comments != 50 || m.Shares != 25 {
		t.Errorf("カウンター = (%d, %d, %d, %d), want (1000, 100, 50, 25)",
			m.Views, m.Likes, m.Comments, m.Shares)
	}
	if m.FetchedAt.IsZero() {
		t.Error("FetchedAtが設定されていない")
	}
	if _, ok := m.Extra["duration"]; !ok {
		t.Error("Extraにdurationが含まれていない")
	}
}

func TestMediumAdapter_Fetch_MapsClapsToLikes(t *testing.T) {
	a := NewMediumAdapter()

	m, err := a.Fetch(context.Background(), "abc123def456")
	if err != nil {
		t.Fatalf("予期しないエラー: %v", err)
	}

	if m.Views != 500 {
		t.Errorf("Views = %d, want 500", m.Views)
	}
	// claps→likesの名称マッピング
	if m.Likes != 75 {
		t.Errorf("Likes = %d, want 75", m.Likes)
	}
	if m.Shares != 0 {
		t.Errorf("Shares = %d, want 0", m.Shares)
	}
	if reads, ok := m.Extra["reads"]; !ok || reads != int64(200) {
		t.Errorf("Extra[reads] = %v, want 200", reads)
	}
}

func TestWordPressAdapter_Fetch_DemoValues(t *testing.T) {
	a := NewWordPressAdapter()

	m, err := a.Fetch(context.Background(), "123")
	if err != nil {
		t.Fatalf("予期しないエラー: %v", err)
	}

	if m.Views != 300 || m.Likes != 45 || m.Comments != 20 || m.Shares != 15 {
		t.Errorf("カウンター = (%d, %d, %d, %d), want (300, 45, 20, 15)",
			m.Views, m.Likes, m.Comments, m.Shares)
	}
}

func TestWebsiteAdapter_Fetch_ViewsOnly(t *testing.T) {
	a := NewWebsiteAdapter()

	m, err := a.Fetch(context.Background(), "https://example.com/page")
	if err != nil {
		t.Fatalf("予期しないエラー: %v", err)
	}

	if m.Views != 250 {
		t.Errorf("Views = %d, want 250", m.Views)
	}
	if m.Likes != 0 || m.Comments != 0 || m.Shares != 0 {
		t.Errorf("ビュー以外のカウンターは0であるべき: (%d, %d, %d)",
			m.Likes, m.Comments, m.Shares)
	}
}

func TestAdapter_Fetch_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewYouTubeAdapter().Fetch(ctx, "dQw4w9WgXcQ")
	if err == nil {
		t.Fatal("キャンセル済みコンテキストでエラーが返らない")
	}

	// トランスポート固有のエラー型ではなく共通のプラットフォーム操作エラーに写像されること
	apiErr, ok := err.(*model.APIError)
	if !ok {
		t.Fatalf("エラー型 = %T, want *model.APIError", err)
	}
	if apiErr.Code != model.ErrCodePlatformOperation {
		t.Errorf("code = %q, want %q", apiErr.Code, model.ErrCodePlatformOperation)
	}
}
