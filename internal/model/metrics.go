package model

import "time"

// NormalizedMetrics はアダプターが返すプラットフォーム固有の値を
// 共通形式に正規化したメトリクスを表す。
type NormalizedMetrics struct {
	ContentIdentifier string
	Platform          Platform
	Views             int64
	Likes             int64
	Comments          int64
	Shares            int64
	FetchedAt         time.Time
	// Extra はプラットフォーム固有の追加メトリクス（再生時間、読了率など）。
	Extra map[string]any
}

// Normalize は負値を0に切り上げ、プラットフォーム規則に従って
// 提供されないカウンターを0に落とす。
// Mediumはコメント数を提供せず、CustomWebsiteはビュー数のみ、
// ベータプラットフォームは全カウンター未提供として扱う。
func (m *NormalizedMetrics) Normalize() {
	if m.Views < 0 {
		m.Views = 0
	}
	if m.Likes < 0 {
		m.Likes = 0
	}
	if m.Comments < 0 {
		m.Comments = 0
	}
	if m.Shares < 0 {
		m.Shares = 0
	}

	switch {
	case m.Platform == PlatformMedium:
		m.Comments = 0
	case m.Platform == PlatformCustomWebsite:
		m.Likes = 0
		m.Comments = 0
		m.Shares = 0
	case m.Platform.IsBeta():
		m.Views = 0
		m.Likes = 0
		m.Comments = 0
		m.Shares = 0
	}
}

// MetricsSnapshot はあるコンテンツのある時点での観測値を表す時系列エントリ。
// 追記専用であり、同期は既存スナップショットを上書きせず常に新規追加する。
type MetricsSnapshot struct {
	ID        string
	ContentID int64
	Timestamp time.Time
	// Metrics は共通カウンター（views/likes/comments/sharesなど）。
	Metrics map[string]int64
	// PlatformData はプラットフォーム固有の追加データ。
	PlatformData map[string]any
	// EngagementMetrics は比率・パーセンテージ系の派生指標。
	// 分析パスが算出した場合のみ値を持つ。
	EngagementMetrics map[string]float64
	// DemographicData は視聴者属性の分布。取得できた場合のみ値を持つ。
	DemographicData map[string]int
	// GeographicData は視聴者の地域分布。取得できた場合のみ値を持つ。
	GeographicData map[string]int
}

// NewSnapshot はNormalizedMetricsからMetricsSnapshotを構築する。
// IDは保存時にストア側で採番される。
func NewSnapshot(contentID int64, m *NormalizedMetrics) *MetricsSnapshot {
	return &MetricsSnapshot{
		ContentID: contentID,
		Timestamp: m.FetchedAt,
		Metrics: map[string]int64{
			"views":    m.Views,
			"likes":    m.Likes,
			"comments": m.Comments,
			"shares":   m.Shares,
		},
		PlatformData: m.Extra,
	}
}
