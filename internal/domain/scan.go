package domain

import "time"

// ScanRecord captures the outcome of one completed account scan.
type ScanRecord struct {
	ID            int64
	AccountID     string
	StartedAt     time.Time
	FinishedAt    time.Time
	TotalMessages int
	TotalSize     int64
	SenderCount   int
	DomainCount   int
}
