package platform

import (
	"context"
	"log/slog"
	"time"

	"github.com/hitoshi/contentpulse/internal/model"
)

// MetricsPersister は正規化メトリクスの永続化インターフェース。
// syncerパッケージのWriterが実装する。
type MetricsPersister interface {
	// Persist は正規化メトリクスをリレーショナル行と時系列ストアの両方に書き込む。
	Persist(ctx context.Context, contentID int64, metrics *model.NormalizedMetrics) error
}

// Router はプラットフォームタグに応じてアダプターへディスパッチし、
// 結果を共通のメトリクス形式で返す。
//
// FetchAndPersistは取得した結果をそのまま永続化する。この「取得＝同期」の
// 結合は意図的な設計であり、メトリクス取得APIの呼び出しが暗黙に同期を
// 伴うという元の振る舞いを保存している。永続化なしの参照にはFetchを使う。
type Router struct {
	registry *Registry
	writer   MetricsPersister
	logger   *slog.Logger
}

// NewRouter はRouterを生成する。
func NewRouter(registry *Registry, writer MetricsPersister, logger *slog.Logger) *Router {
	return &Router{
		registry: registry,
		writer:   writer,
		logger:   logger,
	}
}

// Fetch は指定識別子・プラットフォームのメトリクスを取得して返す。永続化は行わない。
//
// ベータプラットフォームは全カウンター0のメトリクスを返し、決してエラーにならない。
// 未対応の非ベータプラットフォームはUNSUPPORTED_PLATFORMエラーを返す。
func (r *Router) Fetch(ctx context.Context, identifier string, p model.Platform) (*model.NormalizedMetrics, error) {
	adapter, ok := r.registry.Lookup(p)
	if !ok {
		if p.IsBeta() {
			r.logger.Warn("ベータプラットフォームのためメトリクスは取得できません",
				slog.String("platform", string(p)),
				slog.String("content_identifier", identifier),
			)
			return emptyMetrics(identifier, p), nil
		}
		return nil, model.NewUnsupportedPlatformError(p)
	}

	metrics, err := adapter.Fetch(ctx, identifier)
	if err != nil {
		return nil, err
	}
	return metrics, nil
}

// FetchAndPersist はメトリクスを取得し、そのままWriterで永続化して返す。
// 取得と永続化のどちらが失敗してもエラーとなる。
func (r *Router) FetchAndPersist(ctx context.Context, content *model.Content) (*model.NormalizedMetrics, error) {
	metrics, err := r.Fetch(ctx, content.ContentIdentifier, content.Platform)
	if err != nil {
		return nil, err
	}

	if err := r.writer.Persist(ctx, content.ID, metrics); err != nil {
		return nil, err
	}
	return metrics, nil
}

// emptyMetrics は全カウンター0の正規化メトリクスを生成する。
func emptyMetrics(identifier string, p model.Platform) *model.NormalizedMetrics {
	return &model.NormalizedMetrics{
		ContentIdentifier: identifier,
		Platform:          p,
		FetchedAt:         time.Now(),
		Extra:             map[string]any{},
	}
}
