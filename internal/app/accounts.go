package app

import (
	"context"
	"fmt"
	"sync"

	"github.com/lu-zhengda/mailsweep/internal/agg"
	"github.com/lu-zhengda/mailsweep/internal/domain"
	"github.com/lu-zhengda/mailsweep/internal/provider"
	"github.com/lu-zhengda/mailsweep/internal/provider/gmail"
	"github.com/lu-zhengda/mailsweep/internal/store"
)

// Manager resolves registered accounts to live message sources. It implements
// agg.Accounts over the account table and the OS keyring, constructing Gmail
// clients on demand and caching them per account.
type Manager struct {
	store      store.Store
	tokenStore *store.KeyringTokenStore

	mu       sync.Mutex
	accounts []domain.Account
	sources  map[string]provider.MessageSource
}

var _ agg.Accounts = (*Manager)(nil)

// NewManager creates a Manager backed by the given store and keyring.
func NewManager(s store.Store, tokenStore *store.KeyringTokenStore) *Manager {
	return &Manager{
		store:      s,
		tokenStore: tokenStore,
		sources:    make(map[string]provider.MessageSource),
	}
}

// Refresh reloads the account list from the store.
func (m *Manager) Refresh(ctx context.Context) error {
	accounts, err := m.store.ListAccounts(ctx)
	if err != nil {
		return fmt.Errorf("failed to refresh accounts: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.accounts = accounts
	return nil
}

// Accounts returns the cached account list.
func (m *Manager) Accounts() []domain.Account {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Account, len(m.accounts))
	copy(out, m.accounts)
	return out
}

// IDs lists known account ids in registration order.
func (m *Manager) IDs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.accounts))
	for _, a := range m.accounts {
		ids = append(ids, a.ID)
	}
	return ids
}

// Source returns the message source for an account, creating and caching a
// Gmail client on first use. Unknown ids report false.
func (m *Manager) Source(accountID string) (provider.MessageSource, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if src, ok := m.sources[accountID]; ok {
		return src, true
	}
	for _, a := range m.accounts {
		if a.ID == accountID {
			src := gmail.New(a.ID, a.Email, m.tokenStore)
			m.sources[accountID] = src
			return src, true
		}
	}
	return nil, false
}
