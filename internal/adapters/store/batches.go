package store

import (
	"context"
	"fmt"
	"time"

	"xknowledge/internal/domain"
)

// RecordBatch stores the summary of one capture.
func (s *SQLiteStore) RecordBatch(ctx context.Context, b domain.CaptureBatch) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO capture_batches (id, source_url, payload_count, extracted, inserted, received_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		b.ID, toNullString(b.SourceURL), b.PayloadCount, b.Extracted, b.Inserted, b.ReceivedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("record batch %s: %w", b.ID, err)
	}
	return nil
}

// ListBatches returns the most recent captures first.
func (s *SQLiteStore) ListBatches(ctx context.Context, limit int) ([]domain.CaptureBatch, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, COALESCE(source_url, ''), payload_count, extracted, inserted, received_at
		FROM capture_batches
		ORDER BY received_at DESC, id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list batches: %w", err)
	}
	defer rows.Close()

	out := []domain.CaptureBatch{}
	for rows.Next() {
		var b domain.CaptureBatch
		var receivedAt int64
		if err := rows.Scan(&b.ID, &b.SourceURL, &b.PayloadCount, &b.Extracted, &b.Inserted, &receivedAt); err != nil {
			return nil, fmt.Errorf("scan batch: %w", err)
		}
		b.ReceivedAt = time.UnixMilli(receivedAt).UTC()
		out = append(out, b)
	}
	return out, rows.Err()
}
