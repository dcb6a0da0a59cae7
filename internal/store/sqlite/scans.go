package sqlite

import (
	"context"
	"fmt"

	"github.com/lu-zhengda/mailsweep/internal/domain"
)

func (s *DB) RecordScan(ctx context.Context, record *domain.ScanRecord) error {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO scan_history (account_id, started_at, finished_at, total_messages, total_size, sender_count, domain_count)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		record.AccountID, record.StartedAt, record.FinishedAt,
		record.TotalMessages, record.TotalSize, record.SenderCount, record.DomainCount,
	)
	if err != nil {
		return fmt.Errorf("failed to record scan: %w", err)
	}
	if id, err := res.LastInsertId(); err == nil {
		record.ID = id
	}
	return nil
}

func (s *DB) ListScans(ctx context.Context, accountID string, limit int) ([]domain.ScanRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, account_id, started_at, finished_at, total_messages, total_size, sender_count, domain_count
		 FROM scan_history WHERE account_id = ? ORDER BY started_at DESC LIMIT ?`,
		accountID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list scans: %w", err)
	}
	defer rows.Close()

	var records []domain.ScanRecord
	for rows.Next() {
		var r domain.ScanRecord
		if err := rows.Scan(&r.ID, &r.AccountID, &r.StartedAt, &r.FinishedAt,
			&r.TotalMessages, &r.TotalSize, &r.SenderCount, &r.DomainCount); err != nil {
			return nil, fmt.Errorf("failed to scan history row: %w", err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}
