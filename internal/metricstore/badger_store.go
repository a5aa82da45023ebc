package metricstore

import (
	"context"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/hitoshi/contentpulse/internal/model"
)

// snapshotKeyPrefix はBadgerDBのキープレフィックス。
const snapshotKeyPrefix = "snapshot:"

// BadgerSnapshotStore はBadgerDBを使用したスナップショットストア。
// キーは "snapshot:{コンテンツID 20桁}:{UnixNano 20桁}:{uuid}" の形式で、
// プレフィックス走査がタイムスタンプ昇順になるようゼロ埋めする。
type BadgerSnapshotStore struct {
	db *badger.DB
}

// NewBadgerSnapshotStore はBadgerSnapshotStoreを生成する。
func NewBadgerSnapshotStore(db *badger.DB) *BadgerSnapshotStore {
	return &BadgerSnapshotStore{db: db}
}

// OpenBadger は指定パスのBadgerDBを開く。
// プロセス内ストアのためBadger自体のログ出力は抑止する。
func OpenBadger(path string) (*badger.DB, error) {
	opts := badger.DefaultOptions(path).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("メトリクスストアのオープンに失敗しました: %w", err)
	}
	return db, nil
}

// contentPrefix は指定コンテンツIDのキープレフィックスを返す。
func contentPrefix(contentID int64) []byte {
	return []byte(fmt.Sprintf("%s%020d:", snapshotKeyPrefix, contentID))
}

// snapshotKey はスナップショットの格納キーを返す。
// 同一タイムスタンプの衝突を避けるためuuidサフィックスを付与する。
func snapshotKey(s *model.MetricsSnapshot) []byte {
	return []byte(fmt.Sprintf("%s%020d:%020d:%s",
		snapshotKeyPrefix, s.ContentID, s.Timestamp.UnixNano(), s.ID))
}

// Append はスナップショットを追記する。既存エントリは決して上書きしない。
func (s *BadgerSnapshotStore) Append(ctx context.Context, snapshot *model.MetricsSnapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if snapshot.ID == "" {
		snapshot.ID = uuid.NewString()
	}

	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("スナップショットのエンコードに失敗しました: %w", err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(snapshotKey(snapshot), data)
	})
	if err != nil {
		return fmt.Errorf("スナップショットの追記に失敗しました: %w", err)
	}
	return nil
}

// ListByContentID は指定コンテンツの全スナップショットをタイムスタンプ昇順で返す。
func (s *BadgerSnapshotStore) ListByContentID(ctx context.Context, contentID int64) ([]*model.MetricsSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var snapshots []*model.MetricsSnapshot

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		prefix := contentPrefix(contentID)
		opts.Prefix = prefix

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var snapshot model.MetricsSnapshot
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &snapshot)
			})
			if err != nil {
				return fmt.Errorf("スナップショットのデコードに失敗しました: %w", err)
			}
			snapshots = append(snapshots, &snapshot)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("スナップショット一覧の取得に失敗しました: %w", err)
	}
	return snapshots, nil
}

// LatestByContentID は指定コンテンツの最新スナップショットを返す。
// キーがタイムスタンプ昇順のため、逆順イテレーションの先頭が最新となる。
func (s *BadgerSnapshotStore) LatestByContentID(ctx context.Context, contentID int64) (*model.MetricsSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var latest *model.MetricsSnapshot

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		prefix := contentPrefix(contentID)
		opts.Prefix = prefix

		it := txn.NewIterator(opts)
		defer it.Close()

		// 逆順Seekにはプレフィックス範囲の上限キーを渡す
		seekKey := append(append([]byte{}, prefix...), 0xff)
		it.Seek(seekKey)
		if !it.ValidForPrefix(prefix) {
			return nil
		}

		var snapshot model.MetricsSnapshot
		err := it.Item().Value(func(val []byte) error {
			return json.Unmarshal(val, &snapshot)
		})
		if err != nil {
			return fmt.Errorf("スナップショットのデコードに失敗しました: %w", err)
		}
		latest = &snapshot
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("最新スナップショットの取得に失敗しました: %w", err)
	}
	return latest, nil
}

// DeleteByContentID は指定コンテンツの全スナップショットを削除する。
func (s *BadgerSnapshotStore) DeleteByContentID(ctx context.Context, contentID int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	// キーを収集してから削除する（イテレーション中の削除を避ける）
	var keys [][]byte

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		prefix := contentPrefix(contentID)
		opts.Prefix = prefix

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			keys = append(keys, it.Item().KeyCopy(nil))
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("削除対象スナップショットの取得に失敗しました: %w", err)
	}

	if len(keys) == 0 {
		return nil
	}

	wb := s.db.NewWriteBatch()
	defer wb.Cancel()

	for _, key := range keys {
		if err := wb.Delete(key); err != nil {
			return fmt.Errorf("スナップショットの削除に失敗しました: %w", err)
		}
	}
	if err := wb.Flush(); err != nil {
		return fmt.Errorf("スナップショット削除の反映に失敗しました: %w", err)
	}
	return nil
}

// compile-time interface check
var _ SnapshotStore = (*BadgerSnapshotStore)(nil)
