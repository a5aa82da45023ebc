package realtime

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/goccy/go-json"
)

// Publisher はトピックへのメッセージ発行インターフェース。
type Publisher interface {
	Publish(topic string, msg *AnalyticsMessage) error
}

// Broadcaster はwatermillのgochannelを使用したプロセス内pub/subの実装。
// 配信保証はat-most-once: 購読者が存在しない間の発行は破棄され、
// 発行側は購読者の有無を関知しない。
type Broadcaster struct {
	pubSub *gochannel.GoChannel
	logger *slog.Logger
}

// NewBroadcaster はBroadcasterの新しいインスタンスを生成する。
func NewBroadcaster(logger *slog.Logger) *Broadcaster {
	pubSub := gochannel.NewGoChannel(gochannel.Config{
		OutputChannelBuffer: 64,
	}, NewWatermillLogger(logger))

	return &Broadcaster{
		pubSub: pubSub,
		logger: logger,
	}
}

// Publish はメッセージをJSONエンコードして指定トピックへ発行する。
func (b *Broadcaster) Publish(topic string, msg *AnalyticsMessage) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("メッセージのエンコードに失敗しました: %w", err)
	}

	wmMsg := message.NewMessage(watermill.NewUUID(), payload)
	if err := b.pubSub.Publish(topic, wmMsg); err != nil {
		return fmt.Errorf("メッセージの発行に失敗しました: %w", err)
	}
	return nil
}

// Subscribe は指定トピックの購読チャネルを返す。
// コンテキストのキャンセルで購読は終了する。
func (b *Broadcaster) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	ch, err := b.pubSub.Subscribe(ctx, topic)
	if err != nil {
		return nil, fmt.Errorf("トピックの購読に失敗しました: %w", err)
	}
	return ch, nil
}

// Close はpub/subを停止し、全購読チャネルを閉じる。
func (b *Broadcaster) Close() error {
	return b.pubSub.Close()
}

var _ Publisher = (*Broadcaster)(nil)
