package analytics

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/hitoshi/contentpulse/internal/model"
	"github.com/hitoshi/contentpulse/internal/repository"
)

// PlatformInsight はプラットフォーム別パフォーマンス指標の1行。
// ViewsPerLikeは平均ビュー数÷平均いいね数。いいね1件あたりに必要な
// ビュー数を表し、小さいほど反応率が高い。
type PlatformInsight struct {
	Platform     string  `json:"platform"`
	ContentCount int64   `json:"contentCount"`
	AvgViews     float64 `json:"avgViews"`
	AvgLikes     float64 `json:"avgLikes"`
	ViewsPerLike float64 `json:"viewsPerLike"`
}

// ViralResult はバイラルコンテンツ抽出の結果。
type ViralResult struct {
	Platform  string                `json:"platform"`
	Threshold int64                 `json:"threshold"`
	Contents  []*ContentPerformance `json:"contents"`
}

// PlatformPerformance はプラットフォーム別の平均指標を集計して返す。
func (s *Service) PlatformPerformance(ctx context.Context) ([]PlatformInsight, error) {
	rows, err := s.analyticsRepo.PlatformPerformance(ctx)
	if err != nil {
		return nil, err
	}

	insights := make([]PlatformInsight, 0, len(rows))
	for _, row := range rows {
		insight := PlatformInsight{
			Platform:     string(row.Platform),
			ContentCount: row.ContentCount,
			AvgViews:     row.AvgViews,
			AvgLikes:     row.AvgLikes,
		}
		// 平均いいねが0のときは比率を定義できないため0とする
		if row.AvgLikes > 0 {
			insight.ViewsPerLike = row.AvgViews / row.AvgLikes
		}
		insights = append(insights, insight)
	}
	return insights, nil
}

// ViralThreshold はビュー数のリストからバイラル判定の閾値を算出する。
// ビュー数を昇順に並べた90パーセンタイル位置の値を採用する。
// リストが空の場合はデフォルト閾値を返す。
func (s *Service) ViralThreshold(views []int64) int64 {
	if len(views) == 0 {
		return s.viralDefaultThreshold
	}

	sorted := make([]int64, len(views))
	copy(sorted, views)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	idx := int(math.Ceil(float64(len(sorted))*0.9)) - 1
	if idx < 0 {
		idx = 0
	}
	return sorted[idx]
}

// ViralContent は指定プラットフォーム内で閾値を超えるビュー数を持つ
// コンテンツを抽出する。閾値は同一プラットフォームのビュー数分布から算出し、
// 判定は厳密に「ビュー数 > 閾値」であり、閾値ちょうどは含まない。
func (s *Service) ViralContent(ctx context.Context, p model.Platform) (*ViralResult, error) {
	if !p.IsValid() {
		return nil, model.NewUnsupportedPlatformError(p)
	}

	contents, err := s.contentRepo.ListByPlatform(ctx, p)
	if err != nil {
		return nil, err
	}

	views := make([]int64, 0, len(contents))
	for _, c := range contents {
		views = append(views, c.Views)
	}
	threshold := s.ViralThreshold(views)

	result := &ViralResult{
		Platform:  string(p),
		Threshold: threshold,
		Contents:  []*ContentPerformance{},
	}
	for _, c := range contents {
		if c.Views > threshold {
			result.Contents = append(result.Contents, toPerformance(c))
		}
	}

	sort.Slice(result.Contents, func(i, j int) bool {
		return result.Contents[i].Views > result.Contents[j].Views
	})

	return result, nil
}

// BestPostingHours は指定プラットフォームの投稿時間帯別平均ビュー数を
// 平均ビュー数の降順で返す。
func (s *Service) BestPostingHours(ctx context.Context, p model.Platform) ([]repository.HourlyViewsRow, error) {
	if !p.IsValid() {
		return nil, model.NewUnsupportedPlatformError(p)
	}
	return s.analyticsRepo.BestPostingHours(ctx, p)
}

// Growth は過去N日間の日別コンテンツ作成数を返す。
// daysが0以下の場合はデフォルト日数を使用する。
func (s *Service) Growth(ctx context.Context, days int) ([]repository.DailyCountRow, error) {
	if days <= 0 {
		days = s.growthDefaultDays
	}
	since := time.Now().AddDate(0, 0, -days)
	return s.analyticsRepo.GrowthSince(ctx, since)
}

// NeedingAttention は要注意コンテンツを返す。
// 条件: 最終同期が規定日数より古い、またはビュー数0、またはいいね数0。
func (s *Service) NeedingAttention(ctx context.Context) ([]*ContentPerformance, error) {
	staleBefore := time.Now().AddDate(0, 0, -s.attentionStaleDays)
	contents, err := s.analyticsRepo.ListNeedingAttention(ctx, staleBefore)
	if err != nil {
		return nil, err
	}

	result := make([]*ContentPerformance, 0, len(contents))
	for _, c := range contents {
		result = append(result, toPerformance(c))
	}
	return result, nil
}

// Trending は過去N日間に作成されたコンテンツを
// 総エンゲージメント（views + likes + shares）の降順で返す。
func (s *Service) Trending(ctx context.Context, days int) ([]*ContentPerformance, error) {
	if days <= 0 {
		days = s.growthDefaultDays
	}
	since := time.Now().AddDate(0, 0, -days)

	contents, err := s.analyticsRepo.ListTrendingSince(ctx, since)
	if err != nil {
		return nil, err
	}

	result := make([]*ContentPerformance, 0, len(contents))
	for _, c := range contents {
		result = append(result, toPerformance(c))
	}
	return result, nil
}
