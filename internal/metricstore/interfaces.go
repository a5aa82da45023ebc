// Package metricstore はメトリクススナップショットの時系列永続化を提供する。
//
// ストアは追記専用であり、同期のたびに新しいスナップショットを追加する。
// 「最新」は同一コンテンツIDの中でタイムスタンプが最大のエントリを指す。
package metricstore

import (
	"context"

	"github.com/hitoshi/contentpulse/internal/model"
)

// SnapshotStore はメトリクススナップショットの永続化インターフェース。
type SnapshotStore interface {
	// Append はスナップショットを追記する。既存エントリは決して上書きしない。
	// snapshot.IDが空の場合はストア側で採番する。
	Append(ctx context.Context, snapshot *model.MetricsSnapshot) error

	// ListByContentID は指定コンテンツの全スナップショットを
	// タイムスタンプ昇順で返す。存在しない場合は空スライスを返す。
	ListByContentID(ctx context.Context, contentID int64) ([]*model.MetricsSnapshot, error)

	// LatestByContentID は指定コンテンツの最新スナップショットを返す。
	// 存在しない場合はnilを返す。
	LatestByContentID(ctx context.Context, contentID int64) (*model.MetricsSnapshot, error)

	// DeleteByContentID は指定コンテンツの全スナップショットを削除する。
	// コンテンツ削除時のカスケード削除に使用する。
	DeleteByContentID(ctx context.Context, contentID int64) error
}
