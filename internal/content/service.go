package content

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/hitoshi/contentpulse/internal/metricstore"
	"github.com/hitoshi/contentpulse/internal/model"
	"github.com/hitoshi/contentpulse/internal/repository"
)

// SyncTrigger はコンテンツ1件の即時同期インターフェース。
// syncer.Schedulerが実装する。
type SyncTrigger interface {
	SyncContent(ctx context.Context, content *model.Content) (*model.NormalizedMetrics, error)
}

// StateForgetter は削除済みコンテンツの配信状態破棄インターフェース。
type StateForgetter interface {
	ForgetContent(contentID int64)
}

// ContentWithMetrics はコンテンツと時系列メトリクスをまとめた読み取り結果。
type ContentWithMetrics struct {
	Content        *model.Content          `json:"content"`
	LatestSnapshot *model.MetricsSnapshot  `json:"latestSnapshot"`
	History        []*model.MetricsSnapshot `json:"history"`
}

// Service はコンテンツ登録・管理のサービス層。
// 検証 → サニタイズ → 保存のフローと、削除時のカスケード処理を統括する。
type Service struct {
	contentRepo repository.ContentRepository
	snapshots   metricstore.SnapshotStore
	sanitizer   Sanitizer
	syncTrigger SyncTrigger
	forgetter   StateForgetter
	logger      *slog.Logger
}

// NewService はServiceの新しいインスタンスを生成する。
// syncTriggerとforgetterはnil許容（ワーカー未接続の構成で使用）。
func NewService(
	contentRepo repository.ContentRepository,
	snapshots metricstore.SnapshotStore,
	sanitizer Sanitizer,
	syncTrigger SyncTrigger,
	forgetter StateForgetter,
	logger *slog.Logger,
) *Service {
	return &Service{
		contentRepo: contentRepo,
		snapshots:   snapshots,
		sanitizer:   sanitizer,
		syncTrigger: syncTrigger,
		forgetter:   forgetter,
		logger:      logger,
	}
}

// Create はコンテンツを検証・サニタイズして登録する。
// 状態未指定の場合はactive、登録経路未指定の場合はmanualを設定する。
func (s *Service) Create(ctx context.Context, c *model.Content) (*model.Content, error) {
	if err := s.validate(c); err != nil {
		return nil, err
	}

	if c.Status == "" {
		c.Status = model.ContentStatusActive
	}
	if c.SourceType == "" {
		c.SourceType = model.SourceTypeManual
	}
	c.Description = s.sanitizer.Sanitize(c.Description)
	c.NormalizeCounters()

	now := time.Now()
	c.CreatedAt = now
	c.UpdatedAt = now

	if err := s.contentRepo.Create(ctx, c); err != nil {
		return nil, err
	}

	s.logger.Info("コンテンツを登録しました",
		slog.Int64("content_id", c.ID),
		slog.String("platform", string(c.Platform)),
		slog.String("source_type", string(c.SourceType)),
	)
	return c, nil
}

// GetByID は指定IDのコンテンツを取得する。
func (s *Service) GetByID(ctx context.Context, id int64) (*model.Content, error) {
	content, err := s.contentRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if content == nil {
		return nil, model.NewContentNotFoundError(id)
	}
	return content, nil
}

// Update は既存コンテンツの情報を更新する。
// プラットフォームとコンテンツ識別子の組は登録後不変とする。
func (s *Service) Update(ctx context.Context, id int64, updated *model.Content) (*model.Content, error) {
	existing, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(updated.Title) != "" {
		existing.Title = updated.Title
	}
	if updated.ContentURL != "" {
		existing.ContentURL = updated.ContentURL
	}
	if updated.Description != "" {
		existing.Description = s.sanitizer.Sanitize(updated.Description)
	}
	if updated.Status != "" {
		if !updated.Status.IsValid() {
			return nil, model.NewValidationError("無効なステータスです: " + string(updated.Status))
		}
		existing.Status = updated.Status
	}

	existing.NormalizeCounters()

	if err := s.contentRepo.Update(ctx, existing); err != nil {
		return nil, err
	}
	return existing, nil
}

// Delete はコンテンツ行と時系列メトリクスをまとめて削除する。
// 行削除後のスナップショット削除失敗は孤児データとして残るが、
// 参照経路が存在しないためログ記録のみで完了とする。
func (s *Service) Delete(ctx context.Context, id int64) error {
	if _, err := s.GetByID(ctx, id); err != nil {
		return err
	}

	if err := s.contentRepo.DeleteByID(ctx, id); err != nil {
		return err
	}

	if err := s.snapshots.DeleteByContentID(ctx, id); err != nil {
		s.logger.Error("時系列メトリクスの削除に失敗しました",
			slog.Int64("content_id", id),
			slog.String("error", err.Error()),
		)
	}

	if s.forgetter != nil {
		s.forgetter.ForgetContent(id)
	}

	s.logger.Info("コンテンツを削除しました", slog.Int64("content_id", id))
	return nil
}

// List はコンテンツ一覧をページングして返す。
func (s *Service) List(ctx context.Context, limit, offset int) ([]*model.Content, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.contentRepo.List(ctx, limit, offset)
}

// ListByPlatform は指定プラットフォームのコンテンツ一覧を返す。
func (s *Service) ListByPlatform(ctx context.Context, p model.Platform) ([]*model.Content, error) {
	if !p.IsValid() {
		return nil, model.NewUnsupportedPlatformError(p)
	}
	return s.contentRepo.ListByPlatform(ctx, p)
}

// ListByStatus は指定状態のコンテンツ一覧を返す。
func (s *Service) ListByStatus(ctx context.Context, status model.ContentStatus) ([]*model.Content, error) {
	if !status.IsValid() {
		return nil, model.NewValidationError("無効なステータスです: " + string(status))
	}
	return s.contentRepo.ListByStatus(ctx, status)
}

// ListByDateRange は作成日時範囲のコンテンツ一覧を返す。
func (s *Service) ListByDateRange(ctx context.Context, start, end time.Time) ([]*model.Content, error) {
	if end.Before(start) {
		return nil, model.NewValidationError("終了日時が開始日時より前です")
	}
	return s.contentRepo.ListByCreatedAtRange(ctx, start, end)
}

// Search はタイトル部分一致でコンテンツを検索する。
func (s *Service) Search(ctx context.Context, titlePart string) ([]*model.Content, error) {
	if strings.TrimSpace(titlePart) == "" {
		return nil, model.NewValidationError("検索キーワードが空です")
	}
	return s.contentRepo.SearchByTitle(ctx, titlePart)
}

// GetWithMetrics はコンテンツと時系列メトリクスをまとめて返す。
// スナップショットが存在しない場合、LatestSnapshotはnil、Historyは空となる。
func (s *Service) GetWithMetrics(ctx context.Context, id int64) (*ContentWithMetrics, error) {
	content, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	history, err := s.snapshots.ListByContentID(ctx, id)
	if err != nil {
		return nil, err
	}

	result := &ContentWithMetrics{
		Content: content,
		History: history,
	}
	if len(history) > 0 {
		result.LatestSnapshot = history[len(history)-1]
	}
	return result, nil
}

// ImportFromURL は貼り付けられたURLを解析してコンテンツを登録し、
// 初回同期をトリガーする。初回同期の失敗は登録を取り消さない。
func (s *Service) ImportFromURL(ctx context.Context, rawURL, title string) (*model.Content, error) {
	parsed, err := ParseContentURL(rawURL)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(title) == "" {
		title = parsed.ContentIdentifier
	}

	c := &model.Content{
		Title:             title,
		Platform:          parsed.Platform,
		ContentIdentifier: parsed.ContentIdentifier,
		ContentURL:        strings.TrimSpace(rawURL),
		SourceType:        model.SourceTypeURLImport,
	}

	created, err := s.Create(ctx, c)
	if err != nil {
		return nil, err
	}

	if s.syncTrigger != nil {
		if _, err := s.syncTrigger.SyncContent(ctx, created); err != nil {
			s.logger.Error("URL取り込み後の初回同期に失敗しました",
				slog.Int64("content_id", created.ID),
				slog.String("error", err.Error()),
			)
		} else if refreshed, ferr := s.contentRepo.FindByID(ctx, created.ID); ferr == nil && refreshed != nil {
			created = refreshed
		}
	}

	return created, nil
}

// validate は登録時の必須項目を検証する。
func (s *Service) validate(c *model.Content) error {
	if strings.TrimSpace(c.Title) == "" {
		return model.NewValidationError("タイトルは必須です")
	}
	if c.Platform == "" {
		return model.NewValidationError("プラットフォームは必須です")
	}
	if !c.Platform.IsValid() {
		return model.NewUnsupportedPlatformError(c.Platform)
	}
	if strings.TrimSpace(c.ContentIdentifier) == "" {
		return model.NewValidationError("コンテンツ識別子は必須です")
	}
	return nil
}
