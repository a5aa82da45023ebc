package realtime

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hitoshi/contentpulse/internal/analytics"
	"github.com/hitoshi/contentpulse/internal/metrics"
	"github.com/hitoshi/contentpulse/internal/model"
	"github.com/hitoshi/contentpulse/internal/repository"
)

// contentCompareKeys はコンテンツ更新の変化検知に使用する比較キー。
// これ以外のキー（タイトル変更など）の変化だけでは再配信しない。
var contentCompareKeys = []string{"views", "likes", "comments", "shares", "engagementRate"}

// PlatformAggregator はプラットフォーム集計の取得インターフェース。
type PlatformAggregator interface {
	GetPlatformAnalytics(ctx context.Context, p model.Platform) (*analytics.PlatformAnalytics, error)
}

// Notifier は定期的に集計とコンテンツを走査し、前回配信から変化があった
// 場合のみメッセージを発行する変化検知ノーティファイア。
// プラットフォームループとコンテンツループは独立して動作する。
type Notifier struct {
	contentRepo repository.ContentRepository
	aggregator  PlatformAggregator
	publisher   Publisher
	state       *StateStore
	collector   metrics.MetricsCollector
	logger      *slog.Logger
}

// NewNotifier はNotifierの新しいインスタンスを生成する。
// stateは外部から注入し、テストと手動トリガーで共有できるようにする。
func NewNotifier(
	contentRepo repository.ContentRepository,
	aggregator PlatformAggregator,
	publisher Publisher,
	state *StateStore,
	collector metrics.MetricsCollector,
	logger *slog.Logger,
) *Notifier {
	return &Notifier{
		contentRepo: contentRepo,
		aggregator:  aggregator,
		publisher:   publisher,
		state:       state,
		collector:   collector,
		logger:      logger,
	}
}

// StartPlatformLoop はプラットフォーム集計の変化検知ループを起動する。
// コンテキストがキャンセルされるまで実行を継続する。
func (n *Notifier) StartPlatformLoop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	n.logger.Info("プラットフォーム通知ループを開始しました",
		slog.Duration("interval", interval),
	)

	n.NotifyPlatforms(ctx)

	for {
		select {
		case <-ctx.Done():
			n.logger.Info("プラットフォーム通知ループを停止しました")
			return
		case <-ticker.C:
			n.NotifyPlatforms(ctx)
		}
	}
}

// StartContentLoop はコンテンツ個別の変化検知ループを起動する。
// コンテキストがキャンセルされるまで実行を継続する。
func (n *Notifier) StartContentLoop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	n.logger.Info("コンテンツ通知ループを開始しました",
		slog.Duration("interval", interval),
	)

	n.NotifyContents(ctx)

	for {
		select {
		case <-ctx.Done():
			n.logger.Info("コンテンツ通知ループを停止しました")
			return
		case <-ticker.C:
			n.NotifyContents(ctx)
		}
	}
}

// NotifyPlatforms は全対応プラットフォームの集計を走査し、
// 変化があったものだけを配信する。個別の失敗はログに記録して継続する。
func (n *Notifier) NotifyPlatforms(ctx context.Context) {
	for _, p := range model.ActivePlatforms() {
		pa, err := n.aggregator.GetPlatformAnalytics(ctx, p)
		if err != nil {
			n.logger.Error("プラットフォーム集計の取得に失敗しました",
				slog.String("platform", string(p)),
				slog.String("error", err.Error()),
			)
			continue
		}

		payload := platformPayload(pa)
		if !n.state.ChangedAndUpdate(platformStateKey(p), payload, nil) {
			continue
		}

		if err := n.publisher.Publish(PlatformTopic(p), NewPlatformUpdate(p, payload)); err != nil {
			n.logger.Error("プラットフォーム更新の配信に失敗しました",
				slog.String("platform", string(p)),
				slog.String("error", err.Error()),
			)
			continue
		}
		n.collector.RecordRealtimePublish("platform")
	}
}

// NotifyContents は全コンテンツを走査し、比較キーに変化があったものだけを
// 配信する。個別の失敗はログに記録して継続する。
func (n *Notifier) NotifyContents(ctx context.Context) {
	const batchSize = 500

	for offset := 0; ; offset += batchSize {
		contents, err := n.contentRepo.List(ctx, batchSize, offset)
		if err != nil {
			n.logger.Error("コンテンツ一覧の取得に失敗しました",
				slog.String("error", err.Error()),
			)
			return
		}
		if len(contents) == 0 {
			return
		}

		for _, c := range contents {
			payload := contentPayload(c)
			if !n.state.ChangedAndUpdate(contentStateKey(c.ID), payload, contentCompareKeys) {
				continue
			}
			n.publishContentUpdate(c, payload)
		}

		if len(contents) < batchSize {
			return
		}
	}
}

// TriggerPlatformUpdate は差分の有無にかかわらずプラットフォーム集計を
// 即時配信する。APIからの手動トリガーに使用する。
func (n *Notifier) TriggerPlatformUpdate(ctx context.Context, p model.Platform) error {
	if !p.IsValid() {
		return model.NewUnsupportedPlatformError(p)
	}

	pa, err := n.aggregator.GetPlatformAnalytics(ctx, p)
	if err != nil {
		return err
	}

	payload := platformPayload(pa)
	if err := n.publisher.Publish(PlatformTopic(p), NewPlatformUpdate(p, payload)); err != nil {
		return err
	}
	n.state.ForceUpdate(platformStateKey(p), payload)
	n.collector.RecordRealtimePublish("platform")
	return nil
}

// TriggerContentUpdate は差分の有無にかかわらずコンテンツ更新を即時配信する。
// APIからの手動トリガーに使用する。
func (n *Notifier) TriggerContentUpdate(ctx context.Context, contentID int64) error {
	content, err := n.contentRepo.FindByID(ctx, contentID)
	if err != nil {
		return err
	}
	if content == nil {
		return model.NewContentNotFoundError(contentID)
	}

	payload := contentPayload(content)
	n.publishContentUpdate(content, payload)
	n.state.ForceUpdate(contentStateKey(content.ID), payload)
	return nil
}

// ForgetContent は削除済みコンテンツの配信状態を破棄する。
func (n *Notifier) ForgetContent(contentID int64) {
	n.state.Forget(contentStateKey(contentID))
}

// publishContentUpdate はコンテンツ更新をコンテンツ個別トピックと
// プラットフォーム内コンテンツトピックの両方へ配信する。
func (n *Notifier) publishContentUpdate(c *model.Content, payload map[string]any) {
	msg := NewContentUpdate(c.Platform, payload)

	if err := n.publisher.Publish(ContentTopic(c.ID), msg); err != nil {
		n.logger.Error("コンテンツ更新の配信に失敗しました",
			slog.Int64("content_id", c.ID),
			slog.String("error", err.Error()),
		)
	} else {
		n.collector.RecordRealtimePublish("content")
	}

	if err := n.publisher.Publish(PlatformContentsTopic(c.Platform), msg); err != nil {
		n.logger.Error("プラットフォーム内コンテンツ更新の配信に失敗しました",
			slog.Int64("content_id", c.ID),
			slog.String("platform", string(c.Platform)),
			slog.String("error", err.Error()),
		)
	} else {
		n.collector.RecordRealtimePublish("platform_contents")
	}
}

func platformStateKey(p model.Platform) string {
	return "platform:" + string(p)
}

func contentStateKey(contentID int64) string {
	return fmt.Sprintf("content:%d", contentID)
}

// platformPayload はプラットフォーム集計から配信ペイロードを構築する。
func platformPayload(pa *analytics.PlatformAnalytics) map[string]any {
	return map[string]any{
		"platform":      pa.Platform,
		"totalContent":  pa.TotalContent,
		"totalViews":    pa.TotalViews,
		"totalLikes":    pa.TotalLikes,
		"totalComments": pa.TotalComments,
		"totalShares":   pa.TotalShares,
		"avgViews":      pa.AvgViews,
		"topContent":    pa.TopContent,
	}
}

// contentPayload はコンテンツから配信ペイロードを構築する。
// lastSyncedAtは配信にのみ含め、比較キーには含めない（同期のたびの
// タイムスタンプ更新だけでは再配信しない）。
func contentPayload(c *model.Content) map[string]any {
	payload := map[string]any{
		"contentId":      c.ID,
		"title":          c.Title,
		"platform":       string(c.Platform),
		"views":          c.Views,
		"likes":          c.Likes,
		"comments":       c.Comments,
		"shares":         c.Shares,
		"engagementRate": analytics.EngagementRate(c),
	}
	if c.LastSyncedAt != nil {
		payload["lastSyncedAt"] = *c.LastSyncedAt
	}
	return payload
}
