package app

import (
	"context"
	"fmt"
	"log"

	"github.com/lu-zhengda/mailsweep/internal/agg"
	"github.com/lu-zhengda/mailsweep/internal/provider"
)

// ActionService executes bulk actions against a provider using message ids
// collected by a previous scan.
type ActionService struct {
	accounts   agg.Accounts
	aggregator *agg.Aggregator
}

// NewActionService creates an ActionService over the given accounts and
// aggregator.
func NewActionService(accounts agg.Accounts, aggregator *agg.Aggregator) *ActionService {
	return &ActionService{accounts: accounts, aggregator: aggregator}
}

// TrashSender moves every scanned message from the sender to trash and
// returns how many messages were affected.
func (s *ActionService) TrashSender(ctx context.Context, accountID, senderEmail string) (int, error) {
	ids := s.aggregator.MessageIDsForSender(accountID, senderEmail)
	return s.apply(ctx, accountID, ids, "trash", func(src provider.MessageSource) error {
		return src.TrashMessages(ctx, ids)
	})
}

// SpamSender marks every scanned message from the sender as spam.
func (s *ActionService) SpamSender(ctx context.Context, accountID, senderEmail string) (int, error) {
	ids := s.aggregator.MessageIDsForSender(accountID, senderEmail)
	return s.apply(ctx, accountID, ids, "spam", func(src provider.MessageSource) error {
		return src.MarkAsSpam(ctx, ids)
	})
}

// TrashDomain moves every scanned message from the domain to trash.
func (s *ActionService) TrashDomain(ctx context.Context, accountID, domain string) (int, error) {
	ids := s.aggregator.MessageIDsForDomain(accountID, domain)
	return s.apply(ctx, accountID, ids, "trash", func(src provider.MessageSource) error {
		return src.TrashMessages(ctx, ids)
	})
}

// SpamDomain marks every scanned message from the domain as spam.
func (s *ActionService) SpamDomain(ctx context.Context, accountID, domain string) (int, error) {
	ids := s.aggregator.MessageIDsForDomain(accountID, domain)
	return s.apply(ctx, accountID, ids, "spam", func(src provider.MessageSource) error {
		return src.MarkAsSpam(ctx, ids)
	})
}

// CreateSenderFilter installs a server-side filter for all future mail from
// the sender and returns the filter id.
func (s *ActionService) CreateSenderFilter(ctx context.Context, accountID, senderEmail string, action provider.FilterAction) (string, error) {
	src, ok := s.accounts.Source(accountID)
	if !ok {
		return "", fmt.Errorf("%w: %s", agg.ErrAccountNotFound, accountID)
	}
	id, err := src.CreateFilter(ctx, provider.FilterCriteria{SenderEmail: senderEmail, Action: action})
	if err != nil {
		return "", fmt.Errorf("failed to create filter for sender %s: %w", senderEmail, err)
	}
	return id, nil
}

// CreateDomainFilter installs a server-side filter for all future mail from
// the domain and returns the filter id.
func (s *ActionService) CreateDomainFilter(ctx context.Context, accountID, domain string, action provider.FilterAction) (string, error) {
	src, ok := s.accounts.Source(accountID)
	if !ok {
		return "", fmt.Errorf("%w: %s", agg.ErrAccountNotFound, accountID)
	}
	id, err := src.CreateFilter(ctx, provider.FilterCriteria{Domain: domain, Action: action})
	if err != nil {
		return "", fmt.Errorf("failed to create filter for domain %s: %w", domain, err)
	}
	return id, nil
}

// apply runs one bulk operation. An empty id list is a no-op that reports
// zero affected messages.
func (s *ActionService) apply(ctx context.Context, accountID string, ids []string, name string, op func(provider.MessageSource) error) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	src, ok := s.accounts.Source(accountID)
	if !ok {
		return 0, fmt.Errorf("%w: %s", agg.ErrAccountNotFound, accountID)
	}
	if err := op(src); err != nil {
		return 0, fmt.Errorf("failed to %s %d messages: %w", name, len(ids), err)
	}
	log.Printf("[action] %s applied to %d messages for account %s", name, len(ids), accountID)
	return len(ids), nil
}
