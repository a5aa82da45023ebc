// Package analytics はコンテンツストア上の集計・分析機能を提供する。
package analytics

import (
	"context"
	"log/slog"
	"sort"

	"github.com/hitoshi/contentpulse/internal/model"
	"github.com/hitoshi/contentpulse/internal/repository"
)

// ContentPerformance はコンテンツ1件のパフォーマンス指標。
type ContentPerformance struct {
	ContentID      int64   `json:"contentId"`
	Title          string  `json:"title"`
	Platform       string  `json:"platform"`
	Views          int64   `json:"views"`
	Likes          int64   `json:"likes"`
	Comments       int64   `json:"comments"`
	Shares         int64   `json:"shares"`
	EngagementRate float64 `json:"engagementRate"`
}

// PlatformAnalytics はプラットフォーム1つ分の集計。
type PlatformAnalytics struct {
	Platform      string                `json:"platform"`
	TotalContent  int64                 `json:"totalContent"`
	TotalViews    int64                 `json:"totalViews"`
	TotalLikes    int64                 `json:"totalLikes"`
	TotalComments int64                 `json:"totalComments"`
	TotalShares   int64                 `json:"totalShares"`
	AvgViews      float64               `json:"avgViews"`
	TopContent    []*ContentPerformance `json:"topContent"`
}

// OverallAnalytics は全対応プラットフォーム横断の集計。
type OverallAnalytics struct {
	TotalContent  int64                         `json:"totalContent"`
	TotalViews    int64                         `json:"totalViews"`
	TotalLikes    int64                         `json:"totalLikes"`
	TotalComments int64                         `json:"totalComments"`
	TotalShares   int64                         `json:"totalShares"`
	ByPlatform    map[string]*PlatformAnalytics `json:"byPlatform"`
}

// Service は集計・分析クエリのサービス。読み取り専用でステートレス。
type Service struct {
	contentRepo   repository.ContentRepository
	analyticsRepo repository.AnalyticsRepository
	logger        *slog.Logger

	viralDefaultThreshold int64
	attentionStaleDays    int
	growthDefaultDays     int
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	contentRepo repository.ContentRepository,
	analyticsRepo repository.AnalyticsRepository,
	logger *slog.Logger,
	viralDefaultThreshold int64,
	attentionStaleDays int,
	growthDefaultDays int,
) *Service {
	if viralDefaultThreshold <= 0 {
		viralDefaultThreshold = 1000
	}
	if attentionStaleDays <= 0 {
		attentionStaleDays = 7
	}
	if growthDefaultDays <= 0 {
		growthDefaultDays = 30
	}
	return &Service{
		contentRepo:           contentRepo,
		analyticsRepo:         analyticsRepo,
		logger:                logger,
		viralDefaultThreshold: viralDefaultThreshold,
		attentionStaleDays:    attentionStaleDays,
		growthDefaultDays:     growthDefaultDays,
	}
}

// EngagementRate はエンゲージメント率を算出する。
// (いいね + シェア + コメント) / ビュー × 100。ビューが0の場合は0。
func EngagementRate(c *model.Content) float64 {
	if c.Views == 0 {
		return 0
	}
	return float64(c.Likes+c.Shares+c.Comments) / float64(c.Views) * 100
}

// GetContentPerformance はコンテンツ1件のパフォーマンス指標を返す。
func (s *Service) GetContentPerformance(ctx context.Context, contentID int64) (*ContentPerformance, error) {
	content, err := s.contentRepo.FindByID(ctx, contentID)
	if err != nil {
		return nil, err
	}
	if content == nil {
		return nil, model.NewContentNotFoundError(contentID)
	}
	return toPerformance(content), nil
}

// GetPlatformAnalytics は指定プラットフォームの集計を返す。
// トップコンテンツはビュー数降順で最大5件。
func (s *Service) GetPlatformAnalytics(ctx context.Context, p model.Platform) (*PlatformAnalytics, error) {
	if !p.IsValid() {
		return nil, model.NewUnsupportedPlatformError(p)
	}

	contents, err := s.contentRepo.ListByPlatform(ctx, p)
	if err != nil {
		return nil, err
	}
	return aggregatePlatform(p, contents), nil
}

// GetOverallAnalytics は全対応プラットフォーム横断の集計を返す。
// ベータプラットフォームはメトリクスを持たないため対象外。
func (s *Service) GetOverallAnalytics(ctx context.Context) (*OverallAnalytics, error) {
	overall := &OverallAnalytics{
		ByPlatform: make(map[string]*PlatformAnalytics),
	}

	for _, p := range model.ActivePlatforms() {
		contents, err := s.contentRepo.ListByPlatform(ctx, p)
		if err != nil {
			return nil, err
		}

		pa := aggregatePlatform(p, contents)
		overall.ByPlatform[string(p)] = pa
		overall.TotalContent += pa.TotalContent
		overall.TotalViews += pa.TotalViews
		overall.TotalLikes += pa.TotalLikes
		overall.TotalComments += pa.TotalComments
		overall.TotalShares += pa.TotalShares
	}

	return overall, nil
}

// toPerformance はContentからContentPerformanceを構築する。
func toPerformance(c *model.Content) *ContentPerformance {
	return &ContentPerformance{
		ContentID:      c.ID,
		Title:          c.Title,
		Platform:       string(c.Platform),
		Views:          c.Views,
		Likes:          c.Likes,
		Comments:       c.Comments,
		Shares:         c.Shares,
		EngagementRate: EngagementRate(c),
	}
}

// aggregatePlatform はコンテンツ一覧からプラットフォーム集計を構築する。
func aggregatePlatform(p model.Platform, contents []*model.Content) *PlatformAnalytics {
	pa := &PlatformAnalytics{
		Platform:     string(p),
		TotalContent: int64(len(contents)),
	}

	for _, c := range contents {
		pa.TotalViews += c.Views
		pa.TotalLikes += c.Likes
		pa.TotalComments += c.Comments
		pa.TotalShares += c.Shares
	}

	if len(contents) > 0 {
		pa.AvgViews = float64(pa.TotalViews) / float64(len(contents))
	}

	sorted := make([]*model.Content, len(contents))
	copy(sorted, contents)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Views > sorted[j].Views
	})

	top := sorted
	if len(top) > 5 {
		top = top[:5]
	}
	pa.TopContent = make([]*ContentPerformance, 0, len(top))
	for _, c := range top {
		pa.TopContent = append(pa.TopContent, toPerformance(c))
	}

	return pa
}
