package platform

import (
	"context"
	"time"

	"github.com/hitoshi/contentpulse/internal/model"
)

// mediumPostStats はMediumの記事統計の生データ。
// Mediumではいいねに相当するものがclaps、コメントに相当するものがresponses。
type mediumPostStats struct {
	Views     int64
	Reads     int64
	Claps     int64
	Responses int64
}

// MediumAdapter はMedium記事のメトリクスアダプター。
type MediumAdapter struct{}

// NewMediumAdapter はMediumAdapterを生成する。
func NewMediumAdapter() *MediumAdapter {
	return &MediumAdapter{}
}

// Platform はPlatformMediumを返す。
func (a *MediumAdapter) Platform() model.Platform {
	return model.PlatformMedium
}

// Fetch は記事IDのメトリクスを取得して共通形式に正規化する。
// claps→likes、responses→commentsの名称マッピングを行う。
// 現状はデモ用の固定値を返すスタブ。
func (a *MediumAdapter) Fetch(ctx context.Context, postID string) (*model.NormalizedMetrics, error) {
	if err := ctx.Err(); err != nil {
		return nil, wrapFetchError(a.Platform(), err)
	}

	stats := a.fetchPostStats(postID)

	var readRatio float64
	if stats.Views > 0 {
		readRatio = float64(stats.Reads) / float64(stats.Views)
	}

	return &model.NormalizedMetrics{
		ContentIdentifier: postID,
		Platform:          a.Platform(),
		Views:             clampNonNegative(stats.Views),
		Likes:             clampNonNegative(stats.Claps),
		Comments:          clampNonNegative(stats.Responses),
		FetchedAt:         time.Now(),
		Extra: map[string]any{
			"reads":     stats.Reads,
			"readRatio": readRatio,
		},
	}, nil
}

// fetchPostStats は記事統計を取得する。
// 本番実装ではMediumの統計APIを呼び出す。
func (a *MediumAdapter) fetchPostStats(postID string) mediumPostStats {
	return mediumPostStats{
		Views: 500,
		Reads: 200,
		Claps: 75,
	}
}

// compile-time interface check
var _ Adapter = (*MediumAdapter)(nil)
