// Package realtime はメトリクス変化のpub/subファンアウトを提供する。
// ブロードキャスター、前回配信状態ストア、変化検知ノーティファイアを含む。
package realtime

import (
	"fmt"
	"time"

	"github.com/hitoshi/contentpulse/internal/model"
)

// メッセージ種別
const (
	MessageTypePlatformUpdate = "PLATFORM_UPDATE"
	MessageTypeContentUpdate  = "CONTENT_UPDATE"
)

// AnalyticsMessage はリアルタイム更新の配信メッセージ。
type AnalyticsMessage struct {
	Platform    string         `json:"platform"`
	MessageType string         `json:"messageType"`
	Timestamp   time.Time      `json:"timestamp"`
	Data        map[string]any `json:"data"`
}

// NewPlatformUpdate はプラットフォーム集計更新メッセージを生成する。
func NewPlatformUpdate(p model.Platform, data map[string]any) *AnalyticsMessage {
	return &AnalyticsMessage{
		Platform:    string(p),
		MessageType: MessageTypePlatformUpdate,
		Timestamp:   time.Now(),
		Data:        data,
	}
}

// NewContentUpdate はコンテンツ個別更新メッセージを生成する。
func NewContentUpdate(p model.Platform, data map[string]any) *AnalyticsMessage {
	return &AnalyticsMessage{
		Platform:    string(p),
		MessageType: MessageTypeContentUpdate,
		Timestamp:   time.Now(),
		Data:        data,
	}
}

// PlatformTopic はプラットフォーム集計更新の配信トピック名を返す。
func PlatformTopic(p model.Platform) string {
	return fmt.Sprintf("analytics.platform.%s", p)
}

// ContentTopic はコンテンツ個別更新の配信トピック名を返す。
func ContentTopic(contentID int64) string {
	return fmt.Sprintf("analytics.content.%d", contentID)
}

// PlatformContentsTopic はプラットフォーム内コンテンツ更新の配信トピック名を返す。
func PlatformContentsTopic(p model.Platform) string {
	return fmt.Sprintf("analytics.platform.%s.contents", p)
}
