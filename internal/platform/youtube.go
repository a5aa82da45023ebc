package platform

import (
	"context"
	"time"

	"github.com/hitoshi/contentpulse/internal/model"
)

// youtubeVideoStats はYouTube Data APIのstatisticsパートに対応する生データ。
type youtubeVideoStats struct {
	ViewCount     int64
	LikeCount     int64
	CommentCount  int64
	ShareCount    int64
	FavoriteCount int64
	Duration      string // ISO 8601形式（例: PT5M30S）
}

// YouTubeAdapter はYouTube動画のメトリクスアダプター。
type YouTubeAdapter struct{}

// NewYouTubeAdapter はYouTubeAdapterを生成する。
func NewYouTubeAdapter() *YouTubeAdapter {
	return &YouTubeAdapter{}
}

// Platform はPlatformYouTubeを返す。
func (a *YouTubeAdapter) Platform() model.Platform {
	return model.PlatformYouTube
}

// Fetch は動画IDのメトリクスを取得して共通形式に正規化する。
// 現状はデモ用の固定値を返すスタブ。
func (a *YouTubeAdapter) Fetch(ctx context.Context, videoID string) (*model.NormalizedMetrics, error) {
	if err := ctx.Err(); err != nil {
		return nil, wrapFetchError(a.Platform(), err)
	}

	stats := a.fetchVideoStats(videoID)

	return &model.NormalizedMetrics{
		ContentIdentifier: videoID,
		Platform:          a.Platform(),
		Views:             clampNonNegative(stats.ViewCount),
		Likes:             clampNonNegative(stats.LikeCount),
		Comments:          clampNonNegative(stats.CommentCount),
		Shares:            clampNonNegative(stats.ShareCount),
		FetchedAt:         time.Now(),
		Extra: map[string]any{
			"favoriteCount": stats.FavoriteCount,
			"duration":      stats.Duration,
		},
	}, nil
}

// fetchVideoStats は動画統計を取得する。
// 本番実装ではYouTube Data API v3のvideos.listを呼び出す。
func (a *YouTubeAdapter) fetchVideoStats(videoID string) youtubeVideoStats {
	return youtubeVideoStats{
		ViewCount:     1000,
		LikeCount:     100,
		CommentCount:  50,
		ShareCount:    25,
		FavoriteCount: 75,
		Duration:      "PT5M30S",
	}
}

// compile-time interface check
var _ Adapter = (*YouTubeAdapter)(nil)
