package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hitoshi/contentpulse/internal/model"
)

// contentColumns はcontentテーブルのSELECT対象カラム。
const contentColumns = `id, title, platform, content_identifier, content_url, description,
        views, likes, comments, shares, source_type, status,
        created_at, updated_at, last_synced_at`

// PostgresContentRepo はPostgreSQLを使用したコンテンツリポジトリ。
type PostgresContentRepo struct {
	db *sql.DB
}

// NewPostgresContentRepo はPostgresContentRepoを生成する。
func NewPostgresContentRepo(db *sql.DB) *PostgresContentRepo {
	return &PostgresContentRepo{db: db}
}

// FindByID は指定IDのコンテンツを取得する。見つからない場合はnilを返す。
func (r *PostgresContentRepo) FindByID(ctx context.Context, id int64) (*model.Content, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+contentColumns+` FROM content WHERE id = $1`, id)

	content, err := scanContent(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("コンテンツの取得に失敗しました: %w", err)
	}
	return content, nil
}

// Create はコンテンツを作成し、採番されたIDをcontent.IDに設定する。
func (r *PostgresContentRepo) Create(ctx context.Context, content *model.Content) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO content (title, platform, content_identifier, content_url, description,
		                      views, likes, comments, shares, source_type, status,
		                      created_at, updated_at, last_synced_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		 RETURNING id`,
		content.Title, content.Platform, content.ContentIdentifier, content.ContentURL,
		content.Description, content.Views, content.Likes, content.Comments, content.Shares,
		content.SourceType, content.Status,
		content.CreatedAt, content.UpdatedAt, nullTime(content.LastSyncedAt),
	).Scan(&content.ID)
	if err != nil {
		return fmt.Errorf("コンテンツの作成に失敗しました: %w", err)
	}
	return nil
}

// Update はコンテンツ情報を更新する。updated_atはnow()に更新される。
func (r *PostgresContentRepo) Update(ctx context.Context, content *model.Content) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE content SET
		    title = $2, content_url = $3, description = $4, status = $5,
		    views = $6, likes = $7, comments = $8, shares = $9,
		    updated_at = now()
		 WHERE id = $1`,
		content.ID, content.Title, content.ContentURL, content.Description, content.Status,
		content.Views, content.Likes, content.Comments, content.Shares,
	)
	if err != nil {
		return fmt.Errorf("コンテンツの更新に失敗しました: %w", err)
	}
	return nil
}

// DeleteByID は指定IDのコンテンツ行を削除する。
func (r *PostgresContentRepo) DeleteByID(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM content WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("コンテンツの削除に失敗しました: %w", err)
	}
	return nil
}

// List はコンテンツ一覧をID昇順でlimit/offsetページングして返す。
func (r *PostgresContentRepo) List(ctx context.Context, limit, offset int) ([]*model.Content, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+contentColumns+` FROM content ORDER BY id ASC LIMIT $1 OFFSET $2`,
		limit, offset)
	if err != nil {
		return nil, fmt.Errorf("コンテンツ一覧の取得に失敗しました: %w", err)
	}
	return scanContents(rows)
}

// ListByPlatform は指定プラットフォームのコンテンツ一覧を返す。
func (r *PostgresContentRepo) ListByPlatform(ctx context.Context, platform model.Platform) ([]*model.Content, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+contentColumns+` FROM content WHERE platform = $1 ORDER BY id ASC`,
		platform)
	if err != nil {
		return nil, fmt.Errorf("プラットフォーム別コンテンツの取得に失敗しました: %w", err)
	}
	return scanContents(rows)
}

// ListByStatus は指定状態のコンテンツ一覧を返す。
func (r *PostgresContentRepo) ListByStatus(ctx context.Context, status model.ContentStatus) ([]*model.Content, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+contentColumns+` FROM content WHERE status = $1 ORDER BY id ASC`,
		status)
	if err != nil {
		return nil, fmt.Errorf("状態別コンテンツの取得に失敗しました: %w", err)
	}
	return scanContents(rows)
}

// ListByCreatedAtRange は作成日時が[start, end]に含まれるコンテンツ一覧を返す。
func (r *PostgresContentRepo) ListByCreatedAtRange(ctx context.Context, start, end time.Time) ([]*model.Content, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+contentColumns+` FROM content
		 WHERE created_at BETWEEN $1 AND $2 ORDER BY created_at ASC`,
		start, end)
	if err != nil {
		return nil, fmt.Errorf("期間指定コンテンツの取得に失敗しました: %w", err)
	}
	return scanContents(rows)
}

// SearchByTitle はタイトル部分一致（大文字小文字無視）でコンテンツを検索する。
func (r *PostgresContentRepo) SearchByTitle(ctx context.Context, titlePart string) ([]*model.Content, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+contentColumns+` FROM content
		 WHERE title ILIKE '%' || $1 || '%' ORDER BY id ASC`,
		titlePart)
	if err != nil {
		return nil, fmt.Errorf("タイトル検索に失敗しました: %w", err)
	}
	return scanContents(rows)
}

// UpdateSyncedCounters は同期結果のカウンターとlast_synced_atのみを更新する。
func (r *PostgresContentRepo) UpdateSyncedCounters(ctx context.Context, id int64, views, likes, comments, shares int64, syncedAt time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE content SET
		    views = $2, likes = $3, comments = $4, shares = $5,
		    last_synced_at = $6, updated_at = now()
		 WHERE id = $1`,
		id, views, likes, comments, shares, syncedAt)
	if err != nil {
		return fmt.Errorf("同期カウンターの更新に失敗しました: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("同期カウンターの更新結果の取得に失敗しました: %w", err)
	}
	if affected == 0 {
		return model.NewContentNotFoundError(id)
	}
	return nil
}

// scanContent は1行のスキャン結果をmodel.Contentに変換する。
func scanContent(row *sql.Row) (*model.Content, error) {
	content := &model.Content{}
	var lastSyncedAt sql.NullTime

	err := row.Scan(
		&content.ID, &content.Title, &content.Platform, &content.ContentIdentifier,
		&content.ContentURL, &content.Description,
		&content.Views, &content.Likes, &content.Comments, &content.Shares,
		&content.SourceType, &content.Status,
		&content.CreatedAt, &content.UpdatedAt, &lastSyncedAt,
	)
	if err != nil {
		return nil, err
	}

	if lastSyncedAt.Valid {
		t := lastSyncedAt.Time
		content.LastSyncedAt = &t
	}
	return content, nil
}

// scanContents は複数行のスキャン結果をmodel.Contentのスライスに変換する。
func scanContents(rows *sql.Rows) ([]*model.Content, error) {
	defer rows.Close()

	var contents []*model.Content
	for rows.Next() {
		content := &model.Content{}
		var lastSyncedAt sql.NullTime

		if err := rows.Scan(
			&content.ID, &content.Title, &content.Platform, &content.ContentIdentifier,
			&content.ContentURL, &content.Description,
			&content.Views, &content.Likes, &content.Comments, &content.Shares,
			&content.SourceType, &content.Status,
			&content.CreatedAt, &content.UpdatedAt, &lastSyncedAt,
		); err != nil {
			return nil, fmt.Errorf("コンテンツ行の読み取りに失敗しました: %w", err)
		}

		if lastSyncedAt.Valid {
			t := lastSyncedAt.Time
			content.LastSyncedAt = &t
		}
		contents = append(contents, content)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("コンテンツ行の走査に失敗しました: %w", err)
	}
	return contents, nil
}

// nullTime は*time.Timeをsql.NullTimeに変換する。
func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

// compile-time interface check
var _ ContentRepository = (*PostgresContentRepo)(nil)
