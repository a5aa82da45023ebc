package realtime

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/hitoshi/contentpulse/internal/analytics"
	"github.com/hitoshi/contentpulse/internal/model"
)

// --- モック定義 ---

// mockPublisher はPublisherのテスト用モック。発行されたメッセージを記録する。
type mockPublisher struct {
	mu        sync.Mutex
	published []publishedMessage
	publishFn func(topic string, msg *AnalyticsMessage) error
}

type publishedMessage struct {
	topic string
	msg   *AnalyticsMessage
}

func (m *mockPublisher) Publish(topic string, msg *AnalyticsMessage) error {
	if m.publishFn != nil {
		if err := m.publishFn(topic, msg); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.published = append(m.published, publishedMessage{topic: topic, msg: msg})
	return nil
}

func (m *mockPublisher) topics() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	topics := make([]string, 0, len(m.published))
	for _, p := range m.published {
		topics = append(topics, p.topic)
	}
	return topics
}

func (m *mockPublisher) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.published)
}

// mockContentRepo はContentRepositoryのテスト用モック。
type mockContentRepo struct {
	findByIDFunc func(ctx context.Context, id int64) (*model.Content, error)
	listFunc     func(ctx context.Context, limit, offset int) ([]*model.Content, error)
}

func (m *mockContentRepo) FindByID(ctx context.Context, id int64) (*model.Content, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *mockContentRepo) Create(ctx context.Context, content *model.Content) error { return nil }
func (m *mockContentRepo) Update(ctx context.Context, content *model.Content) error { return nil }
func (m *mockContentRepo) DeleteByID(ctx context.Context, id int64) error           { return nil }

func (m *mockContentRepo) List(ctx context.Context, limit, offset int) ([]*model.Content, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx, limit, offset)
	}
	return nil, nil
}

func (m *mockContentRepo) ListByPlatform(ctx context.Context, platform model.Platform) ([]*model.Content, error) {
	return nil, nil
}

func (m *mockContentRepo) ListByStatus(ctx context.Context, status model.ContentStatus) ([]*model.Content, error) {
	return nil, nil
}

func (m *mockContentRepo) ListByCreatedAtRange(ctx context.Context, start, end time.Time) ([]*model.Content, error) {
	return nil, nil
}

func (m *mockContentRepo) SearchByTitle(ctx context.Context, titlePart string) ([]*model.Content, error) {
	return nil, nil
}

func (m *mockContentRepo) UpdateSyncedCounters(ctx context.Context, id int64, views, likes, comments, shares int64, syncedAt time.Time) error {
	return nil
}

// mockAggregator はPlatformAggregatorのテスト用モック。
type mockAggregator struct {
	getPlatformAnalyticsFunc func(ctx context.Context, p model.Platform) (*analytics.PlatformAnalytics, error)
}

func (m *mockAggregator) GetPlatformAnalytics(ctx context.Context, p model.Platform) (*analytics.PlatformAnalytics, error) {
	if m.getPlatformAnalyticsFunc != nil {
		return m.getPlatformAnalyticsFunc(ctx, p)
	}
	return &analytics.PlatformAnalytics{Platform: string(p)}, nil
}

// mockCollector はMetricsCollectorのテスト用モック。
type mockCollector struct{}

func (m *mockCollector) RecordSyncSuccess(platform string)                {}
func (m *mockCollector) RecordSyncFailure(platform string, reason string) {}
func (m *mockCollector) RecordSyncLatency(duration time.Duration)         {}
func (m *mockCollector) RecordSnapshotAppended(platform string)           {}
func (m *mockCollector) RecordRealtimePublish(topicKind string)           {}
func (m *mockCollector) RecordHTTPStatus(statusCode int)                  {}

func newTestNotifier(repo *mockContentRepo, agg *mockAggregator, pub *mockPublisher) *Notifier {
	logger := slog.New(slog.NewJSONHandler(&bytes.Buffer{}, nil))
	return NewNotifier(repo, agg, pub, NewStateStore(), &mockCollector{}, logger)
}

// --- プラットフォーム変化検知のテスト ---

func TestNotifyPlatforms_PublishesOnFirstObservation(t *testing.T) {
	pub := &mockPublisher{}
	n := newTestNotifier(&mockContentRepo{}, &mockAggregator{}, pub)

	n.NotifyPlatforms(context.Background())

	// 初回は全対応プラットフォーム分（4件）配信される
	if pub.count() != 4 {
		t.Errorf("配信数 = %d, want 4", pub.count())
	}
}

func TestNotifyPlatforms_NoRepublishWhenUnchanged(t *testing.T) {
	pub := &mockPublisher{}
	n := newTestNotifier(&mockContentRepo{}, &mockAggregator{}, pub)

	n.NotifyPlatforms(context.Background())
	first := pub.count()

	// 集計が変わらなければ再配信しない
	n.NotifyPlatforms(context.Background())
	if pub.count() != first {
		t.Errorf("無変化時の再配信: %d → %d", first, pub.count())
	}
}

func TestNotifyPlatforms_PublishesOnChange(t *testing.T) {
	views := int64(100)
	agg := &mockAggregator{
		getPlatformAnalyticsFunc: func(ctx context.Context, p model.Platform) (*analytics.PlatformAnalytics, error) {
			if p != model.PlatformYouTube {
				return &analytics.PlatformAnalytics{Platform: string(p)}, nil
			}
			return &analytics.PlatformAnalytics{Platform: string(p), TotalViews: views}, nil
		},
	}

	pub := &mockPublisher{}
	n := newTestNotifier(&mockContentRepo{}, agg, pub)

	n.NotifyPlatforms(context.Background())
	first := pub.count()

	views = 200
	n.NotifyPlatforms(context.Background())

	// 変化したyoutubeの1件だけ追加配信される
	if pub.count() != first+1 {
		t.Errorf("配信数 = %d, want %d", pub.count(), first+1)
	}
}

func TestNotifyPlatforms_PayloadIncludesTopContent(t *testing.T) {
	top := []*analytics.ContentPerformance{
		{ContentID: 1, Views: 1000},
		{ContentID: 2, Views: 800},
	}
	agg := &mockAggregator{
		getPlatformAnalyticsFunc: func(ctx context.Context, p model.Platform) (*analytics.PlatformAnalytics, error) {
			return &analytics.PlatformAnalytics{Platform: string(p), TopContent: top}, nil
		},
	}

	pub := &mockPublisher{}
	n := newTestNotifier(&mockContentRepo{}, agg, pub)

	n.NotifyPlatforms(context.Background())

	pub.mu.Lock()
	msg := pub.published[0].msg
	pub.mu.Unlock()

	got, ok := msg.Data["topContent"].([]*analytics.ContentPerformance)
	if !ok {
		t.Fatalf("topContentがペイロードに含まれていない: %T", msg.Data["topContent"])
	}
	if len(got) != 2 || got[0].ContentID != 1 {
		t.Errorf("topContent = %+v, want 2件でID=1が先頭", got)
	}
}

func TestNotifyPlatforms_TopContentChangePublishes(t *testing.T) {
	top := []*analytics.ContentPerformance{{ContentID: 1, Views: 1000}}
	agg := &mockAggregator{
		getPlatformAnalyticsFunc: func(ctx context.Context, p model.Platform) (*analytics.PlatformAnalytics, error) {
			if p != model.PlatformYouTube {
				return &analytics.PlatformAnalytics{Platform: string(p)}, nil
			}
			return &analytics.PlatformAnalytics{
				Platform:   string(p),
				TotalViews: 1000,
				TopContent: top,
			}, nil
		},
	}

	pub := &mockPublisher{}
	n := newTestNotifier(&mockContentRepo{}, agg, pub)

	n.NotifyPlatforms(context.Background())
	first := pub.count()

	// 合計値は同一のままトップ5の構成だけ入れ替わる
	top = []*analytics.ContentPerformance{{ContentID: 2, Views: 1000}}
	n.NotifyPlatforms(context.Background())

	if pub.count() != first+1 {
		t.Errorf("トップコンテンツの変化で再配信されるべき: %d → %d", first, pub.count())
	}
}

func TestNotifyPlatforms_AggregatorErrorDoesNotStopOthers(t *testing.T) {
	agg := &mockAggregator{
		getPlatformAnalyticsFunc: func(ctx context.Context, p model.Platform) (*analytics.PlatformAnalytics, error) {
			if p == model.PlatformYouTube {
				return nil, errors.New("db down")
			}
			return &analytics.PlatformAnalytics{Platform: string(p)}, nil
		},
	}

	pub := &mockPublisher{}
	n := newTestNotifier(&mockContentRepo{}, agg, pub)

	n.NotifyPlatforms(context.Background())

	// youtube以外の3件は配信される
	if pub.count() != 3 {
		t.Errorf("配信数 = %d, want 3", pub.count())
	}
}

// --- コンテンツ変化検知のテスト ---

func contentListRepo(contents []*model.Content) *mockContentRepo {
	return &mockContentRepo{
		listFunc: func(ctx context.Context, limit, offset int) ([]*model.Content, error) {
			if offset == 0 {
				return contents, nil
			}
			return nil, nil
		},
	}
}

func TestNotifyContents_PublishesToBothTopics(t *testing.T) {
	contents := []*model.Content{
		{ID: 1, Platform: model.PlatformYouTube, Views: 100},
	}

	pub := &mockPublisher{}
	n := newTestNotifier(contentListRepo(contents), &mockAggregator{}, pub)

	n.NotifyContents(context.Background())

	topics := pub.topics()
	if len(topics) != 2 {
		t.Fatalf("配信数 = %d, want 2", len(topics))
	}
	if topics[0] != "analytics.content.1" {
		t.Errorf("トピック = %s, want analytics.content.1", topics[0])
	}
	if topics[1] != "analytics.platform.youtube.contents" {
		t.Errorf("トピック = %s, want analytics.platform.youtube.contents", topics[1])
	}
}

func TestNotifyContents_NoRepublishWhenUnchanged(t *testing.T) {
	contents := []*model.Content{
		{ID: 1, Platform: model.PlatformYouTube, Views: 100},
	}

	pub := &mockPublisher{}
	n := newTestNotifier(contentListRepo(contents), &mockAggregator{}, pub)

	n.NotifyContents(context.Background())
	first := pub.count()

	n.NotifyContents(context.Background())
	if pub.count() != first {
		t.Errorf("無変化時の再配信: %d → %d", first, pub.count())
	}
}

func TestNotifyContents_TitleChangeAloneDoesNotPublish(t *testing.T) {
	content := &model.Content{ID: 1, Platform: model.PlatformYouTube, Title: "旧タイトル", Views: 100}

	pub := &mockPublisher{}
	n := newTestNotifier(contentListRepo([]*model.Content{content}), &mockAggregator{}, pub)

	n.NotifyContents(context.Background())
	first := pub.count()

	// 比較キー外のタイトルだけ変化しても再配信しない
	content.Title = "新タイトル"
	n.NotifyContents(context.Background())
	if pub.count() != first {
		t.Errorf("タイトルのみの変化で再配信された: %d → %d", first, pub.count())
	}
}

func TestNotifyContents_CounterChangePublishes(t *testing.T) {
	content := &model.Content{ID: 1, Platform: model.PlatformYouTube, Views: 100}

	pub := &mockPublisher{}
	n := newTestNotifier(contentListRepo([]*model.Content{content}), &mockAggregator{}, pub)

	n.NotifyContents(context.Background())
	first := pub.count()

	content.Views = 150
	n.NotifyContents(context.Background())

	// 2トピックへ追加配信される
	if pub.count() != first+2 {
		t.Errorf("配信数 = %d, want %d", pub.count(), first+2)
	}
}

func TestNotifyContents_MessageShape(t *testing.T) {
	contents := []*model.Content{
		{ID: 7, Platform: model.PlatformMedium, Title: "記事", Views: 500, Likes: 75},
	}

	pub := &mockPublisher{}
	n := newTestNotifier(contentListRepo(contents), &mockAggregator{}, pub)

	n.NotifyContents(context.Background())

	pub.mu.Lock()
	msg := pub.published[0].msg
	pub.mu.Unlock()

	if msg.MessageType != MessageTypeContentUpdate {
		t.Errorf("MessageType = %s, want %s", msg.MessageType, MessageTypeContentUpdate)
	}
	if msg.Platform != "medium" {
		t.Errorf("Platform = %s, want medium", msg.Platform)
	}
	if msg.Data["views"] != int64(500) {
		t.Errorf("views = %v, want 500", msg.Data["views"])
	}
	if msg.Data["engagementRate"] != 15.0 {
		t.Errorf("engagementRate = %v, want 15", msg.Data["engagementRate"])
	}
	if msg.Timestamp.IsZero() {
		t.Error("Timestampが設定されていない")
	}
}

func TestNotifyContents_PayloadIncludesLastSyncedAt(t *testing.T) {
	syncedAt := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	contents := []*model.Content{
		{ID: 1, Platform: model.PlatformYouTube, Views: 100, LastSyncedAt: &syncedAt},
	}

	pub := &mockPublisher{}
	n := newTestNotifier(contentListRepo(contents), &mockAggregator{}, pub)

	n.NotifyContents(context.Background())

	pub.mu.Lock()
	msg := pub.published[0].msg
	pub.mu.Unlock()

	if msg.Data["lastSyncedAt"] != syncedAt {
		t.Errorf("lastSyncedAt = %v, want %v", msg.Data["lastSyncedAt"], syncedAt)
	}
}

func TestNotifyContents_LastSyncedAtChangeAloneDoesNotPublish(t *testing.T) {
	syncedAt := time.Now()
	content := &model.Content{ID: 1, Platform: model.PlatformYouTube, Views: 100, LastSyncedAt: &syncedAt}

	pub := &mockPublisher{}
	n := newTestNotifier(contentListRepo([]*model.Content{content}), &mockAggregator{}, pub)

	n.NotifyContents(context.Background())
	first := pub.count()

	// カウンターが同じままの同期は配信にのみ反映され、再配信はしない
	later := syncedAt.Add(time.Hour)
	content.LastSyncedAt = &later
	n.NotifyContents(context.Background())
	if pub.count() != first {
		t.Errorf("同期時刻のみの変化で再配信された: %d → %d", first, pub.count())
	}
}

// --- 手動トリガーのテスト ---

func TestTriggerPlatformUpdate_AlwaysPublishes(t *testing.T) {
	pub := &mockPublisher{}
	n := newTestNotifier(&mockContentRepo{}, &mockAggregator{}, pub)

	// 差分がなくても毎回配信される
	for i := 0; i < 3; i++ {
		if err := n.TriggerPlatformUpdate(context.Background(), model.PlatformYouTube); err != nil {
			t.Fatalf("TriggerPlatformUpdate() がエラーを返した: %v", err)
		}
	}
	if pub.count() != 3 {
		t.Errorf("配信数 = %d, want 3", pub.count())
	}
}

func TestTriggerPlatformUpdate_InvalidPlatform(t *testing.T) {
	pub := &mockPublisher{}
	n := newTestNotifier(&mockContentRepo{}, &mockAggregator{}, pub)

	err := n.TriggerPlatformUpdate(context.Background(), model.Platform("myspace"))
	if err == nil {
		t.Fatal("無効なプラットフォームではエラーが返るべき")
	}
}

func TestTriggerPlatformUpdate_UpdatesState(t *testing.T) {
	pub := &mockPublisher{}
	n := newTestNotifier(&mockContentRepo{}, &mockAggregator{}, pub)

	if err := n.TriggerPlatformUpdate(context.Background(), model.PlatformYouTube); err != nil {
		t.Fatalf("TriggerPlatformUpdate() がエラーを返した: %v", err)
	}
	first := pub.count()

	// 手動トリガー後のループは差分なしとみなしyoutubeを再配信しない
	n.NotifyPlatforms(context.Background())
	for _, topic := range pub.topics()[first:] {
		if topic == PlatformTopic(model.PlatformYouTube) {
			t.Error("手動トリガー後の無変化ループでyoutubeが再配信された")
		}
	}
}

func TestTriggerContentUpdate_AlwaysPublishes(t *testing.T) {
	repo := &mockContentRepo{
		findByIDFunc: func(ctx context.Context, id int64) (*model.Content, error) {
			return &model.Content{ID: id, Platform: model.PlatformYouTube, Views: 100}, nil
		},
	}

	pub := &mockPublisher{}
	n := newTestNotifier(repo, &mockAggregator{}, pub)

	for i := 0; i < 2; i++ {
		if err := n.TriggerContentUpdate(context.Background(), 1); err != nil {
			t.Fatalf("TriggerContentUpdate() がエラーを返した: %v", err)
		}
	}

	// 毎回2トピックへ配信される
	if pub.count() != 4 {
		t.Errorf("配信数 = %d, want 4", pub.count())
	}
}

func TestTriggerContentUpdate_NotFound(t *testing.T) {
	repo := &mockContentRepo{
		findByIDFunc: func(ctx context.Context, id int64) (*model.Content, error) {
			return nil, nil
		},
	}

	pub := &mockPublisher{}
	n := newTestNotifier(repo, &mockAggregator{}, pub)

	err := n.TriggerContentUpdate(context.Background(), 99)
	if err == nil {
		t.Fatal("存在しないコンテンツではエラーが返るべき")
	}

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeContentNotFound {
		t.Errorf("CONTENT_NOT_FOUNDエラーであるべき: %v", err)
	}
}
