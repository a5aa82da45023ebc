// Package platform はプラットフォームアダプターとそのディスパッチを提供する。
//
// 各アダプターは1つの外部プラットフォームからエンゲージメントカウンターを取得し、
// 共通のNormalizedMetrics形式に正規化して返す。アダプターの追加はレジストリへの
// 登録のみで完結し、ルーターの制御フローに変更は不要。
package platform

import (
	"context"
	"fmt"

	"github.com/hitoshi/contentpulse/internal/model"
)

// Adapter は1プラットフォームのメトリクス取得インターフェース。
//
// 現在の実装はすべて固定のデモ値を返すスタブであり、外部APIへの通信は行わない。
// 本番実装ではFetchの中身を実APIコールに置き換えるが、契約は変わらない:
// カウンターは非負整数、プラットフォーム固有値はExtraマップ、取得時刻はFetchedAt。
// 通信・パース失敗はPLATFORM_OPERATION_FAILEDエラーに写像し、
// トランスポート固有のエラー型を呼び出し側に漏らさない。
type Adapter interface {
	// Platform はこのアダプターが担当するプラットフォームを返す。
	Platform() model.Platform

	// Fetch は指定識別子のメトリクスを取得し、共通形式に正規化して返す。
	Fetch(ctx context.Context, identifier string) (*model.NormalizedMetrics, error)
}

// Registry はプラットフォームタグからアダプターへのマッピングを保持する。
type Registry struct {
	adapters map[model.Platform]Adapter
}

// NewRegistry は空のRegistryを生成する。
func NewRegistry() *Registry {
	return &Registry{adapters: make(map[model.Platform]Adapter)}
}

// NewDefaultRegistry は全対応プラットフォームのアダプターを登録したRegistryを生成する。
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(NewYouTubeAdapter())
	r.Register(NewMediumAdapter())
	r.Register(NewWordPressAdapter())
	r.Register(NewWebsiteAdapter())
	return r
}

// Register はアダプターを登録する。同一プラットフォームへの再登録は上書きとなる。
func (r *Registry) Register(a Adapter) {
	r.adapters[a.Platform()] = a
}

// Lookup は指定プラットフォームのアダプターを返す。
// 未登録の場合は第2戻り値がfalseとなる。
func (r *Registry) Lookup(p model.Platform) (Adapter, bool) {
	a, ok := r.adapters[p]
	return a, ok
}

// clampNonNegative は負のカウンターを0にクランプする。
func clampNonNegative(v int64) int64 {
	if v < 0 {
		return 0
	}
	return v
}

// wrapFetchError はアダプター内部のエラーを共通のプラットフォーム操作エラーに写像する。
func wrapFetchError(p model.Platform, err error) error {
	return model.NewPlatformOperationError(fmt.Sprintf("%s: %v", p, err))
}
