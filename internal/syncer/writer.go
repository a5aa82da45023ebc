// Package syncer はプラットフォームメトリクスの定期同期処理を提供する。
// スケジューラ、二重書き込みライター、並列制御を含む。
package syncer

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hitoshi/contentpulse/internal/metrics"
	"github.com/hitoshi/contentpulse/internal/metricstore"
	"github.com/hitoshi/contentpulse/internal/model"
	"github.com/hitoshi/contentpulse/internal/platform"
	"github.com/hitoshi/contentpulse/internal/repository"
)

// Writer は正規化メトリクスをリレーショナル行と時系列ストアの両方へ書き込む。
//
// 書き込み順序はスナップショット追記が先、リレーショナル行の更新が後。
// 両ストアをまたぐトランザクションは存在しないため、どちらかが失敗した場合は
// 操作全体をエラーとし、次回の同期サイクルで収束させる。
type Writer struct {
	contentRepo repository.ContentRepository
	snapshots   metricstore.SnapshotStore
	collector   metrics.MetricsCollector
	logger      *slog.Logger
}

// NewWriter はWriterの新しいインスタンスを生成する。
func NewWriter(
	contentRepo repository.ContentRepository,
	snapshots metricstore.SnapshotStore,
	collector metrics.MetricsCollector,
	logger *slog.Logger,
) *Writer {
	return &Writer{
		contentRepo: contentRepo,
		snapshots:   snapshots,
		collector:   collector,
		logger:      logger,
	}
}

// Persist は正規化メトリクスを両ストアに書き込む。
// platform.MetricsPersisterインターフェースを実装する。
func (w *Writer) Persist(ctx context.Context, contentID int64, m *model.NormalizedMetrics) error {
	m.Normalize()

	snapshot := model.NewSnapshot(contentID, m)

	if err := w.snapshots.Append(ctx, snapshot); err != nil {
		w.logger.Error("スナップショットの追記に失敗しました",
			slog.Int64("content_id", contentID),
			slog.String("platform", string(m.Platform)),
			slog.String("error", err.Error()),
		)
		return model.NewPlatformOperationError(
			fmt.Sprintf("スナップショットの追記に失敗しました: %s", err.Error()))
	}
	w.collector.RecordSnapshotAppended(string(m.Platform))

	if err := w.contentRepo.UpdateSyncedCounters(ctx, contentID, m.Views, m.Likes, m.Comments, m.Shares, m.FetchedAt); err != nil {
		w.logger.Error("コンテンツカウンターの更新に失敗しました",
			slog.Int64("content_id", contentID),
			slog.String("platform", string(m.Platform)),
			slog.String("error", err.Error()),
		)
		return err
	}

	return nil
}

var _ platform.MetricsPersister = (*Writer)(nil)
