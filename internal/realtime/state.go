package realtime

import (
	"reflect"
	"sync"
)

// StateStore は前回配信したペイロードを保持するメモリ上の状態ストア。
// 配信ループ間で共有されるためミューテックスで保護する。
// プロセス再起動で状態は失われ、次のループで再配信される。
type StateStore struct {
	mu   sync.Mutex
	last map[string]map[string]any
}

// NewStateStore はStateStoreの新しいインスタンスを生成する。
func NewStateStore() *StateStore {
	return &StateStore{
		last: make(map[string]map[string]any),
	}
}

// ChangedAndUpdate は前回配信ペイロードと比較し、差分がある場合のみ
// 状態を更新してtrueを返す。初回（前回値なし）は常に差分ありとみなす。
//
// compareKeysが空の場合は全キーの完全一致で比較する。キー指定がある場合は
// そのキーのみを比較し、片方にだけ存在するキーも差分として扱う。
func (s *StateStore) ChangedAndUpdate(key string, next map[string]any, compareKeys []string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, ok := s.last[key]
	if !ok {
		s.last[key] = next
		return true
	}

	if !equalPayloads(prev, next, compareKeys) {
		s.last[key] = next
		return true
	}
	return false
}

// ForceUpdate は比較を行わず状態を上書きする。手動トリガー用。
func (s *StateStore) ForceUpdate(key string, next map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last[key] = next
}

// Forget は指定キーの状態を破棄する。コンテンツ削除時に使用する。
func (s *StateStore) Forget(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.last, key)
}

// equalPayloads は2つのペイロードを比較する。
func equalPayloads(prev, next map[string]any, compareKeys []string) bool {
	if len(compareKeys) == 0 {
		return reflect.DeepEqual(prev, next)
	}

	for _, k := range compareKeys {
		pv, pok := prev[k]
		nv, nok := next[k]
		if pok != nok {
			return false
		}
		if !reflect.DeepEqual(pv, nv) {
			return false
		}
	}
	return true
}
