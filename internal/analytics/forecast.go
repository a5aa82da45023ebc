package analytics

import (
	"context"

	"github.com/hitoshi/contentpulse/internal/metricstore"
	"github.com/hitoshi/contentpulse/internal/model"
)

// Forecast はスナップショット履歴からの線形予測の結果。
type Forecast struct {
	ContentID       int64   `json:"contentId"`
	CurrentViews    int64   `json:"currentViews"`
	DailyViewGrowth float64 `json:"dailyViewGrowth"`
	ProjectedViews  int64   `json:"projectedViews"`
	DaysAhead       int     `json:"daysAhead"`
	SampleCount     int     `json:"sampleCount"`
}

// Forecaster はスナップショット履歴に基づくビュー数予測を提供する。
type Forecaster struct {
	contentRepo contentFinder
	snapshots   metricstore.SnapshotStore
}

// contentFinder はコンテンツ存在確認に必要な最小インターフェース。
type contentFinder interface {
	FindByID(ctx context.Context, id int64) (*model.Content, error)
}

// NewForecaster はForecasterの新しいインスタンスを生成する。
func NewForecaster(contentRepo contentFinder, snapshots metricstore.SnapshotStore) *Forecaster {
	return &Forecaster{
		contentRepo: contentRepo,
		snapshots:   snapshots,
	}
}

// ForecastViews は最古と最新のスナップショットの差分から1日あたりの
// ビュー増加率を求め、daysAhead日後のビュー数を線形予測する。
// スナップショットが2件未満の場合は予測できないためMETRICS_NOT_FOUNDを返す。
func (f *Forecaster) ForecastViews(ctx context.Context, contentID int64, daysAhead int) (*Forecast, error) {
	if daysAhead <= 0 {
		daysAhead = 7
	}

	content, err := f.contentRepo.FindByID(ctx, contentID)
	if err != nil {
		return nil, err
	}
	if content == nil {
		return nil, model.NewContentNotFoundError(contentID)
	}

	history, err := f.snapshots.ListByContentID(ctx, contentID)
	if err != nil {
		return nil, err
	}
	if len(history) < 2 {
		return nil, model.NewMetricsNotFoundError(contentID)
	}

	first := history[0]
	last := history[len(history)-1]

	elapsedDays := last.Timestamp.Sub(first.Timestamp).Hours() / 24
	if elapsedDays <= 0 {
		return nil, model.NewMetricsNotFoundError(contentID)
	}

	currentViews := last.Metrics["views"]
	growth := float64(currentViews-first.Metrics["views"]) / elapsedDays

	projected := currentViews + int64(growth*float64(daysAhead))
	if projected < 0 {
		projected = 0
	}

	return &Forecast{
		ContentID:       contentID,
		CurrentViews:    currentViews,
		DailyViewGrowth: growth,
		ProjectedViews:  projected,
		DaysAhead:       daysAhead,
		SampleCount:     len(history),
	}, nil
}
