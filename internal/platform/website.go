package platform

import (
	"context"
	"time"

	"github.com/hitoshi/contentpulse/internal/model"
)

// websitePageStats は汎用Webサイトのアクセス統計の生データ。
// ビュー数のみ取得可能で、いいね・コメント・シェアの概念はない。
type websitePageStats struct {
	Views          int64
	UniqueVisitors int64
	AvgTimeOnPage  string
}

// WebsiteAdapter は汎用Webサイトページのメトリクスアダプター。
type WebsiteAdapter struct{}

// NewWebsiteAdapter はWebsiteAdapterを生成する。
func NewWebsiteAdapter() *WebsiteAdapter {
	return &WebsiteAdapter{}
}

// Platform はPlatformCustomWebsiteを返す。
func (a *WebsiteAdapter) Platform() model.Platform {
	return model.PlatformCustomWebsite
}

// Fetch はページ識別子のメトリクスを取得して共通形式に正規化する。
// ビュー数以外のカウンターは常に0となる。
// 現状はデモ用の固定値を返すスタブ。
func (a *WebsiteAdapter) Fetch(ctx context.Context, pageID string) (*model.NormalizedMetrics, error) {
	if err := ctx.Err(); err != nil {
		return nil, wrapFetchError(a.Platform(), err)
	}

	stats := a.fetchPageStats(pageID)

	return &model.NormalizedMetrics{
		ContentIdentifier: pageID,
		Platform:          a.Platform(),
		Views:             clampNonNegative(stats.Views),
		FetchedAt:         time.Now(),
		Extra: map[string]any{
			"uniqueVisitors": stats.UniqueVisitors,
			"avgTimeOnPage":  stats.AvgTimeOnPage,
		},
	}, nil
}

// fetchPageStats はページ統計を取得する。
// 本番実装ではサイト側の解析エンドポイントを呼び出す。
func (a *WebsiteAdapter) fetchPageStats(pageID string) websitePageStats {
	return websitePageStats{
		Views:          250,
		UniqueVisitors: 180,
		AvgTimeOnPage:  "2m15s",
	}
}

// compile-time interface check
var _ Adapter = (*WebsiteAdapter)(nil)
