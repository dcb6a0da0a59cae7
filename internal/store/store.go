package store

import (
	"context"

	"github.com/lu-zhengda/mailsweep/internal/domain"
)

// Store defines the persistence interface for the application.
type Store interface {
	// Accounts
	CreateAccount(ctx context.Context, account *domain.Account) error
	GetAccount(ctx context.Context, id string) (*domain.Account, error)
	ListAccounts(ctx context.Context) ([]domain.Account, error)
	DeleteAccount(ctx context.Context, id string) error

	// Scan history
	RecordScan(ctx context.Context, record *domain.ScanRecord) error
	ListScans(ctx context.Context, accountID string, limit int) ([]domain.ScanRecord, error)

	// Lifecycle
	Close() error
}
