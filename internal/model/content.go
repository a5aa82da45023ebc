// Package model はドメインモデルを定義する。
package model

import "time"

// Content は外部プラットフォーム上で公開された1件のコンテンツを表す。
// views/likes/comments/sharesは最終同期時点のカウンター値を保持する。
type Content struct {
	ID                int64
	Title             string
	Platform          Platform
	ContentIdentifier string // プラットフォーム固有のID（動画ID、記事IDなど）
	ContentURL        string
	Description       string
	Views             int64
	Likes             int64
	Comments          int64
	Shares            int64
	SourceType        SourceType
	Status            ContentStatus
	CreatedAt         time.Time
	UpdatedAt         time.Time
	LastSyncedAt      *time.Time // 初回同期まではnil
}

// ContentStatus はコンテンツの状態を表す。
type ContentStatus string

const (
	// ContentStatusActive はアクティブな状態。
	ContentStatusActive ContentStatus = "active"
	// ContentStatusInactive は非アクティブな状態。
	ContentStatusInactive ContentStatus = "inactive"
	// ContentStatusArchived はアーカイブ済みの状態。
	ContentStatusArchived ContentStatus = "archived"
	// ContentStatusDeleted は削除予定の状態。
	ContentStatusDeleted ContentStatus = "deleted"
)

// IsValid はContentStatusが定義済みの値かどうかを返す。
func (s ContentStatus) IsValid() bool {
	switch s {
	case ContentStatusActive, ContentStatusInactive, ContentStatusArchived, ContentStatusDeleted:
		return true
	}
	return false
}

// SourceType はコンテンツの登録経路を表す。
type SourceType string

const (
	// SourceTypeManual は手動APIで登録されたことを示す。
	SourceTypeManual SourceType = "manual"
	// SourceTypeURLImport はURL解析で登録されたことを示す。
	SourceTypeURLImport SourceType = "url_import"
	// SourceTypeAPIImport は外部API連携で登録されたことを示す。
	SourceTypeAPIImport SourceType = "api_import"
)

// NormalizeCounters はカウンターを保存前の正常な状態に整える。
// 負のカウンターは0にクランプし、プラットフォーム固有のゼロ埋めルールを適用する。
//
// ルール:
//   - Mediumにはコメント機能がないため comments は常に0
//   - CustomWebsiteはビュー数のみ取得可能なため likes/comments/shares は常に0
//   - ベータプラットフォームは実メトリクスを受け付けないため全カウンター0
func (c *Content) NormalizeCounters() {
	if c.Views < 0 {
		c.Views = 0
	}
	if c.Likes < 0 {
		c.Likes = 0
	}
	if c.Comments < 0 {
		c.Comments = 0
	}
	if c.Shares < 0 {
		c.Shares = 0
	}

	switch c.Platform {
	case PlatformMedium:
		c.Comments = 0
	case PlatformCustomWebsite:
		c.Likes = 0
		c.Comments = 0
		c.Shares = 0
	default:
		if c.Platform.IsBeta() {
			c.Views = 0
			c.Likes = 0
			c.Comments = 0
			c.Shares = 0
		}
	}
}
