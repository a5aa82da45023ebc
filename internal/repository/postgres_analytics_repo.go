package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hitoshi/contentpulse/internal/model"
)

// PostgresAnalyticsRepo はPostgreSQLを使用した集計クエリの実装。
// contentテーブルに対する読み取り専用のGROUP BY集計のみを行う。
type PostgresAnalyticsRepo struct {
	db *sql.DB
}

// NewPostgresAnalyticsRepo はPostgresAnalyticsRepoを生成する。
func NewPostgresAnalyticsRepo(db *sql.DB) *PostgresAnalyticsRepo {
	return &PostgresAnalyticsRepo{db: db}
}

// PlatformPerformance はプラットフォーム別の件数・平均ビュー・平均いいねを集計する。
func (r *PostgresAnalyticsRepo) PlatformPerformance(ctx context.Context) ([]PlatformPerformanceRow, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT platform, COUNT(*), AVG(views), AVG(likes)
		 FROM content GROUP BY platform ORDER BY platform`)
	if err != nil {
		return nil, fmt.Errorf("プラットフォーム別パフォーマンスの集計に失敗しました: %w", err)
	}
	defer rows.Close()

	var result []PlatformPerformanceRow
	for rows.Next() {
		var row PlatformPerformanceRow
		if err := rows.Scan(&row.Platform, &row.ContentCount, &row.AvgViews, &row.AvgLikes); err != nil {
			return nil, fmt.Errorf("パフォーマンス集計行の読み取りに失敗しました: %w", err)
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("パフォーマンス集計行の走査に失敗しました: %w", err)
	}
	return result, nil
}

// BestPostingHours は指定プラットフォームの作成時間帯別平均ビュー数を
// 平均ビュー数の降順で返す。
func (r *PostgresAnalyticsRepo) BestPostingHours(ctx context.Context, platform model.Platform) ([]HourlyViewsRow, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT EXTRACT(HOUR FROM created_at)::int AS hour, AVG(views) AS avg_views
		 FROM content WHERE platform = $1
		 GROUP BY hour ORDER BY avg_views DESC`,
		platform)
	if err != nil {
		return nil, fmt.Errorf("投稿時間帯別集計に失敗しました: %w", err)
	}
	defer rows.Close()

	var result []HourlyViewsRow
	for rows.Next() {
		var row HourlyViewsRow
		if err := rows.Scan(&row.Hour, &row.AvgViews); err != nil {
			return nil, fmt.Errorf("時間帯別集計行の読み取りに失敗しました: %w", err)
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("時間帯別集計行の走査に失敗しました: %w", err)
	}
	return result, nil
}

// GrowthSince は指定日時以降の日別コンテンツ作成数を返す。
func (r *PostgresAnalyticsRepo) GrowthSince(ctx context.Context, since time.Time) ([]DailyCountRow, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT to_char(created_at::date, 'YYYY-MM-DD') AS date, COUNT(*)
		 FROM content WHERE created_at >= $1
		 GROUP BY created_at::date ORDER BY date ASC`,
		since)
	if err != nil {
		return nil, fmt.Errorf("成長推移の集計に失敗しました: %w", err)
	}
	defer rows.Close()

	var result []DailyCountRow
	for rows.Next() {
		var row DailyCountRow
		if err := rows.Scan(&row.Date, &row.Count); err != nil {
			return nil, fmt.Errorf("成長推移行の読み取りに失敗しました: %w", err)
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("成長推移行の走査に失敗しました: %w", err)
	}
	return result, nil
}

// ListNeedingAttention は要注意コンテンツを返す。
// 条件: last_synced_atがstaleBeforeより古い、または views=0、または likes=0。
// 一度も同期されていない（last_synced_at IS NULL）コンテンツも対象に含める。
func (r *PostgresAnalyticsRepo) ListNeedingAttention(ctx context.Context, staleBefore time.Time) ([]*model.Content, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+contentColumns+` FROM content
		 WHERE last_synced_at < $1 OR last_synced_at IS NULL
		    OR views = 0 OR likes = 0
		 ORDER BY id ASC`,
		staleBefore)
	if err != nil {
		return nil, fmt.Errorf("要注意コンテンツの取得に失敗しました: %w", err)
	}
	return scanContents(rows)
}

// ListTrendingSince は指定日時以降に作成されたコンテンツを
// (views + likes + shares) の降順で返す。
func (r *PostgresAnalyticsRepo) ListTrendingSince(ctx context.Context, since time.Time) ([]*model.Content, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+contentColumns+` FROM content
		 WHERE created_at >= $1
		 ORDER BY (views + likes + shares) DESC`,
		since)
	if err != nil {
		return nil, fmt.Errorf("トレンドコンテンツの取得に失敗しました: %w", err)
	}
	return scanContents(rows)
}

// compile-time interface check
var _ AnalyticsRepository = (*PostgresAnalyticsRepo)(nil)
