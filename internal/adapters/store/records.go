package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"xknowledge/internal/domain"
)

const recordColumns = `
	id, author_name, author_handle, author_avatar, text, media_json, created_at,
	reply_count, retweet_count, like_count, bookmark_count,
	analysis_json, captured_at, batch_id`

// SaveNew inserts records whose ID is not stored yet and returns how many
// were inserted. Existing rows, and any analysis on them, are untouched.
func (s *SQLiteStore) SaveNew(ctx context.Context, records []domain.Record, batchID string) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin save: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO records (`+recordColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING`)
	if err != nil {
		return 0, fmt.Errorf("prepare save: %w", err)
	}
	defer stmt.Close()

	capturedAt := s.now().UnixMilli()
	inserted := 0
	for _, r := range records {
		mediaJSON, err := marshalMedia(r.Media)
		if err != nil {
			return 0, err
		}
		analysisJSON, err := marshalAnalysis(r.Analysis)
		if err != nil {
			return 0, err
		}

		res, err := stmt.ExecContext(ctx,
			r.ID, r.AuthorName, r.AuthorHandle, r.AuthorAvatar, r.Text, mediaJSON, r.CreatedAt,
			r.Metrics.ReplyCount, r.Metrics.RetweetCount, r.Metrics.LikeCount, r.Metrics.BookmarkCount,
			analysisJSON, capturedAt, toNullString(batchID),
		)
		if err != nil {
			return 0, fmt.Errorf("insert record %s: %w", r.ID, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("insert record %s: %w", r.ID, err)
		}
		inserted += int(n)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit save: %w", err)
	}
	return inserted, nil
}

// Get returns one record or domain.ErrRecordNotFound.
func (s *SQLiteStore) Get(ctx context.Context, id string) (*domain.Record, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+recordColumns+` FROM records WHERE id = ?`, id)
	r, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrRecordNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get record %s: %w", id, err)
	}
	return r, nil
}

// GetMany returns the stored records among ids, in ids order. Unknown IDs
// are skipped.
func (s *SQLiteStore) GetMany(ctx context.Context, ids []string) ([]domain.Record, error) {
	out := make([]domain.Record, 0, len(ids))
	for _, id := range ids {
		r, err := s.Get(ctx, id)
		if errors.Is(err, domain.ErrRecordNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, *r)
	}
	return out, nil
}

// List returns records newest capture first. Records of one capture keep
// their extraction order.
func (s *SQLiteStore) List(ctx context.Context, f domain.ListFilter) ([]domain.Record, error) {
	var where []string
	var args []any

	if f.Category != "" {
		where = append(where, `json_extract(analysis_json, '$.category') = ?`)
		args = append(args, f.Category)
	}
	if f.Handle != "" {
		where = append(where, `author_handle = ? COLLATE NOCASE`)
		args = append(args, strings.TrimPrefix(f.Handle, "@"))
	}
	if f.Query != "" {
		like := "%" + escapeLike(f.Query) + "%"
		where = append(where, `(text LIKE ? ESCAPE '\' OR author_name LIKE ? ESCAPE '\' OR author_handle LIKE ? ESCAPE '\')`)
		args = append(args, like, like, like)
	}

	query := `SELECT ` + recordColumns + ` FROM records`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY captured_at DESC, rowid ASC`

	limit := f.Limit
	if limit <= 0 {
		limit = -1
	}
	query += ` LIMIT ? OFFSET ?`
	args = append(args, limit, max(f.Offset, 0))

	return s.queryRecords(ctx, query, args...)
}

// Pending returns records with text and no analysis yet, newest first.
func (s *SQLiteStore) Pending(ctx context.Context, limit int) ([]domain.Record, error) {
	if limit <= 0 {
		limit = -1
	}
	return s.queryRecords(ctx, `
		SELECT `+recordColumns+` FROM records
		WHERE analysis_json IS NULL AND text != ''
		ORDER BY captured_at DESC, rowid ASC
		LIMIT ?`, limit)
}

// SetAnalysis attaches an analysis to a stored record.
func (s *SQLiteStore) SetAnalysis(ctx context.Context, id string, a domain.Analysis) error {
	data, err := marshalAnalysis(&a)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `UPDATE records SET analysis_json = ? WHERE id = ?`, data, id)
	if err != nil {
		return fmt.Errorf("set analysis %s: %w", id, err)
	}
	return requireAffected(res, id)
}

// Delete removes a record.
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM records WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete record %s: %w", id, err)
	}
	return requireAffected(res, id)
}

// Categories returns the distinct analysis categories in use.
func (s *SQLiteStore) Categories(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT json_extract(analysis_json, '$.category')
		FROM records
		WHERE json_extract(analysis_json, '$.category') != ''
		ORDER BY 1`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) queryRecords(ctx context.Context, query string, args ...any) ([]domain.Record, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	out := []domain.Record{}
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (*domain.Record, error) {
	var (
		r            domain.Record
		mediaJSON    string
		analysisJSON sql.NullString
		capturedAt   int64
		batchID      sql.NullString
	)
	err := row.Scan(
		&r.ID, &r.AuthorName, &r.AuthorHandle, &r.AuthorAvatar, &r.Text, &mediaJSON, &r.CreatedAt,
		&r.Metrics.ReplyCount, &r.Metrics.RetweetCount, &r.Metrics.LikeCount, &r.Metrics.BookmarkCount,
		&analysisJSON, &capturedAt, &batchID,
	)
	if err != nil {
		return nil, err
	}

	r.Media = []domain.Media{}
	if err := json.Unmarshal([]byte(mediaJSON), &r.Media); err != nil {
		return nil, fmt.Errorf("decode media of %s: %w", r.ID, err)
	}
	if analysisJSON.Valid {
		var a domain.Analysis
		if err := json.Unmarshal([]byte(analysisJSON.String), &a); err != nil {
			return nil, fmt.Errorf("decode analysis of %s: %w", r.ID, err)
		}
		r.Analysis = &a
	}
	r.CapturedAt = time.UnixMilli(capturedAt).UTC()
	r.BatchID = batchID.String
	return &r, nil
}

func marshalMedia(media []domain.Media) (string, error) {
	if media == nil {
		media = []domain.Media{}
	}
	data, err := json.Marshal(media)
	if err != nil {
		return "", fmt.Errorf("encode media: %w", err)
	}
	return string(data), nil
}

func marshalAnalysis(a *domain.Analysis) (sql.NullString, error) {
	if a == nil {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(a)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("encode analysis: %w", err)
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

func requireAffected(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected for %s: %w", id, err)
	}
	if n == 0 {
		return domain.ErrRecordNotFound
	}
	return nil
}

func toNullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
