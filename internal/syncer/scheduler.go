package syncer

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/hitoshi/contentpulse/internal/metrics"
	"github.com/hitoshi/contentpulse/internal/model"
	"github.com/hitoshi/contentpulse/internal/repository"
)

// MetricsFetcher はコンテンツ1件のメトリクス取得＋永続化の実行インターフェース。
// platform.Routerが実装する。
type MetricsFetcher interface {
	FetchAndPersist(ctx context.Context, content *model.Content) (*model.NormalizedMetrics, error)
}

// Scheduler はメトリクス同期のスケジューリングと並列制御を行う。
// 一定間隔のティッカーで全コンテンツをバッチ走査し、
// semaphoreパターンで最大並列数を制御しながら同期を実行する。
type Scheduler struct {
	contentRepo    repository.ContentRepository
	fetcher        MetricsFetcher
	collector      metrics.MetricsCollector
	logger         *slog.Logger
	maxConcurrency int
	batchSize      int
	itemTimeout    time.Duration
}

// NewScheduler はSchedulerの新しいインスタンスを生成する。
// maxConcurrencyが0以下の場合はデフォルト値10、batchSizeが0以下の場合は200を使用する。
func NewScheduler(
	contentRepo repository.ContentRepository,
	fetcher MetricsFetcher,
	collector metrics.MetricsCollector,
	logger *slog.Logger,
	maxConcurrency int,
	batchSize int,
	itemTimeout time.Duration,
) *Scheduler {
	if maxConcurrency <= 0 {
		maxConcurrency = 10
	}
	if batchSize <= 0 {
		batchSize = 200
	}
	if itemTimeout <= 0 {
		itemTimeout = 10 * time.Second
	}
	return &Scheduler{
		contentRepo:    contentRepo,
		fetcher:        fetcher,
		collector:      collector,
		logger:         logger,
		maxConcurrency: maxConcurrency,
		batchSize:      batchSize,
		itemTimeout:    itemTimeout,
	}
}

// Start は指定間隔のティッカーでスケジューラを起動する。
// コンテキストがキャンセルされるまで実行を継続する。
func (s *Scheduler) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.logger.Info("同期スケジューラを開始しました",
		slog.Duration("interval", interval),
		slog.Int("max_concurrency", s.maxConcurrency),
		slog.Int("batch_size", s.batchSize),
	)

	// 起動直後に1回実行
	if err := s.RunOnce(ctx); err != nil {
		s.logger.Error("同期サイクルの実行に失敗しました",
			slog.String("error", err.Error()),
		)
	}

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("同期スケジューラを停止しました")
			return
		case <-ticker.C:
			if err := s.RunOnce(ctx); err != nil {
				s.logger.Error("同期サイクルの実行に失敗しました",
					slog.String("error", err.Error()),
				)
			}
		}
	}
}

// RunOnce は全コンテンツをバッチ単位で走査し、並列で同期を実行する。
// 個々のコンテンツの失敗はログに記録して継続し、サイクル全体は失敗させない。
func (s *Scheduler) RunOnce(ctx context.Context) error {
	start := time.Now()
	total := 0

	// バッチ走査中の作成・削除による取りこぼしや重複同期は許容する。
	// 次回サイクルで収束する。
	for offset := 0; ; offset += s.batchSize {
		contents, err := s.contentRepo.List(ctx, s.batchSize, offset)
		if err != nil {
			return err
		}
		if len(contents) == 0 {
			break
		}

		s.syncBatch(ctx, contents)
		total += len(contents)

		if len(contents) < s.batchSize {
			break
		}
	}

	if total == 0 {
		s.logger.Info("同期対象のコンテンツはありません")
		return nil
	}

	duration := time.Since(start)
	s.logger.Info("同期サイクルが完了しました",
		slog.Int("content_count", total),
		slog.Float64("duration_ms", float64(duration.Milliseconds())),
	)

	return nil
}

// syncBatch は1バッチぶんのコンテンツをsemaphoreパターンで並列同期する。
func (s *Scheduler) syncBatch(ctx context.Context, contents []*model.Content) {
	sem := make(chan struct{}, s.maxConcurrency)
	var wg sync.WaitGroup

	for _, content := range contents {
		wg.Add(1)
		sem <- struct{}{} // semaphore取得（ブロック）

		go func(c *model.Content) {
			defer wg.Done()
			defer func() { <-sem }() // semaphore解放

			s.syncOne(ctx, c)
		}(content)
	}

	wg.Wait()
}

// syncOne はコンテンツ1件を個別タイムアウト付きで同期する。
func (s *Scheduler) syncOne(ctx context.Context, content *model.Content) {
	itemCtx, cancel := context.WithTimeout(ctx, s.itemTimeout)
	defer cancel()

	start := time.Now()

	if _, err := s.fetcher.FetchAndPersist(itemCtx, content); err != nil {
		s.logger.Error("コンテンツの同期に失敗しました",
			slog.Int64("content_id", content.ID),
			slog.String("platform", string(content.Platform)),
			slog.String("content_identifier", content.ContentIdentifier),
			slog.String("error", err.Error()),
		)
		s.collector.RecordSyncFailure(string(content.Platform), err.Error())
		return
	}

	s.collector.RecordSyncSuccess(string(content.Platform))
	s.collector.RecordSyncLatency(time.Since(start))
}

// SyncContent は単一コンテンツを即時同期する。APIからの手動トリガーに使用する。
// 成功時は同期後のメトリクスを返す。
func (s *Scheduler) SyncContent(ctx context.Context, content *model.Content) (*model.NormalizedMetrics, error) {
	start := time.Now()

	m, err := s.fetcher.FetchAndPersist(ctx, content)
	if err != nil {
		s.collector.RecordSyncFailure(string(content.Platform), err.Error())
		return nil, err
	}

	s.collector.RecordSyncSuccess(string(content.Platform))
	s.collector.RecordSyncLatency(time.Since(start))
	return m, nil
}
