package platform

import (
	"context"
	"fmt"
	"time"

	"github.com/hitoshi/contentpulse/internal/model"
)

// wordpressPostMetrics はWordPress投稿統計の生データ。
type wordpressPostMetrics struct {
	Views       int64
	Likes       int64
	Comments    int64
	Shares      int64
	Title       string
	WordCount   int
	ReadingTime string
	Categories  []string
	Author      string
	PublishedAt time.Time
}

// WordPressAdapter はWordPress投稿のメトリクスアダプター。
type WordPressAdapter struct{}

// NewWordPressAdapter はWordPressAdapterを生成する。
func NewWordPressAdapter() *WordPressAdapter {
	return &WordPressAdapter{}
}

// Platform はPlatformWordPressを返す。
func (a *WordPressAdapter) Platform() model.Platform {
	return model.PlatformWordPress
}

// Fetch は投稿IDのメトリクスを取得して共通形式に正規化する。
// 現状はデモ用の固定値を返すスタブ。
func (a *WordPressAdapter) Fetch(ctx context.Context, postID string) (*model.NormalizedMetrics, error) {
	if err := ctx.Err(); err != nil {
		return nil, wrapFetchError(a.Platform(), err)
	}

	metrics := a.fetchPostMetrics(postID)

	return &model.NormalizedMetrics{
		ContentIdentifier: postID,
		Platform:          a.Platform(),
		Views:             clampNonNegative(metrics.Views),
		Likes:             clampNonNegative(metrics.Likes),
		Comments:          clampNonNegative(metrics.Comments),
		Shares:            clampNonNegative(metrics.Shares),
		FetchedAt:         time.Now(),
		Extra: map[string]any{
			"postId":      postID,
			"title":       metrics.Title,
			"wordCount":   metrics.WordCount,
			"readingTime": metrics.ReadingTime,
			"categories":  metrics.Categories,
			"author":      metrics.Author,
			"publishDate": metrics.PublishedAt,
		},
	}, nil
}

// fetchPostMetrics は投稿統計を取得する。
// 本番実装ではWordPress REST API（wp-json）を呼び出す。
func (a *WordPressAdapter) fetchPostMetrics(postID string) wordpressPostMetrics {
	return wordpressPostMetrics{
		Views:       300,
		Likes:       45,
		Comments:    20,
		Shares:      15,
		Title:       fmt.Sprintf("Sample WordPress Post #%s", postID),
		WordCount:   850,
		ReadingTime: "4 min",
		Categories:  []string{"Technology", "Analytics"},
		Author:      "John Doe",
		PublishedAt: time.Now().AddDate(0, 0, -7),
	}
}

// compile-time interface check
var _ Adapter = (*WordPressAdapter)(nil)
