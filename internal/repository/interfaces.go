// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"time"

	"github.com/hitoshi/contentpulse/internal/model"
)

// ContentRepository はコンテンツデータの永続化インターフェース。
type ContentRepository interface {
	// FindByID は指定IDのコンテンツを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id int64) (*model.Content, error)

	// Create はコンテンツを作成し、採番されたIDをcontent.IDに設定する。
	Create(ctx context.Context, content *model.Content) error

	// Update はコンテンツ情報を更新する。updated_atはnow()に更新される。
	Update(ctx context.Context, content *model.Content) error

	// DeleteByID は指定IDのコンテンツ行を削除する。
	// 時系列メトリクスの削除は呼び出し側（contentサービス）の責務。
	DeleteByID(ctx context.Context, id int64) error

	// List はコンテンツ一覧をID昇順でlimit/offsetページングして返す。
	List(ctx context.Context, limit, offset int) ([]*model.Content, error)

	// ListByPlatform は指定プラットフォームのコンテンツ一覧を返す。
	ListByPlatform(ctx context.Context, platform model.Platform) ([]*model.Content, error)

	// ListByStatus は指定状態のコンテンツ一覧を返す。
	ListByStatus(ctx context.Context, status model.ContentStatus) ([]*model.Content, error)

	// ListByCreatedAtRange は作成日時が[start, end]に含まれるコンテンツ一覧を返す。
	ListByCreatedAtRange(ctx context.Context, start, end time.Time) ([]*model.Content, error)

	// SearchByTitle はタイトル部分一致（大文字小文字無視）でコンテンツを検索する。
	SearchByTitle(ctx context.Context, titlePart string) ([]*model.Content, error)

	// UpdateSyncedCounters は同期結果のカウンターとlast_synced_atのみを更新する。
	// updated_atも同時にnow()へ更新される。対象が存在しない場合はmodel.APIError
	// （CONTENT_NOT_FOUND）を返す。
	UpdateSyncedCounters(ctx context.Context, id int64, views, likes, comments, shares int64, syncedAt time.Time) error
}

// PlatformPerformanceRow はプラットフォーム別パフォーマンス集計の1行。
type PlatformPerformanceRow struct {
	Platform     model.Platform
	ContentCount int64
	AvgViews     float64
	AvgLikes     float64
}

// HourlyViewsRow は投稿時間帯別の平均ビュー数集計の1行。
type HourlyViewsRow struct {
	Hour     int // 0〜23
	AvgViews float64
}

// DailyCountRow は日別のコンテンツ作成数集計の1行。
type DailyCountRow struct {
	Date  string // YYYY-MM-DD
	Count int64
}

// AnalyticsRepository はコンテンツストア上の集計クエリのインターフェース。
// すべて読み取り専用でステートレス。
type AnalyticsRepository interface {
	// PlatformPerformance はプラットフォーム別の件数・平均ビュー・平均いいねを集計する。
	PlatformPerformance(ctx context.Context) ([]PlatformPerformanceRow, error)

	// BestPostingHours は指定プラットフォームの作成時間帯別平均ビュー数を
	// 平均ビュー数の降順で返す。
	BestPostingHours(ctx context.Context, platform model.Platform) ([]HourlyViewsRow, error)

	// GrowthSince は指定日時以降の日別コンテンツ作成数を返す。
	GrowthSince(ctx context.Context, since time.Time) ([]DailyCountRow, error)

	// ListNeedingAttention は要注意コンテンツを返す。
	// 条件: last_synced_atがstaleBeforeより古い、または views=0、または likes=0。
	ListNeedingAttention(ctx context.Context, staleBefore time.Time) ([]*model.Content, error)

	// ListTrendingSince は指定日時以降に作成されたコンテンツを
	// (views + likes + shares) の降順で返す。
	ListTrendingSince(ctx context.Context, since time.Time) ([]*model.Content, error)
}
