package agg

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"

	"github.com/lu-zhengda/mailsweep/internal/provider"
)

// ErrAccountNotFound is returned when a scan references an account id the
// account source does not know. It is the only hard failure a scan can
// produce; fetch-level problems degrade to fewer results instead.
var ErrAccountNotFound = errors.New("account not found")

// Accounts resolves account ids to their message sources.
type Accounts interface {
	// IDs lists the known account ids in a stable order.
	IDs() []string
	// Source returns the message source for an account, or false when the
	// id is unknown.
	Source(accountID string) (provider.MessageSource, bool)
}

// ProgressFunc reports scan progress for a single account. It is invoked
// once per processed message id, possibly from a worker goroutine; callers
// driving UI state must marshal back to their own context.
type ProgressFunc func(processed, total int)

// AccountProgressFunc additionally reports which account a multi-account
// scan is currently working on.
type AccountProgressFunc func(accountID string, processed, total int)

// defaultBatchSize is the number of ids requested per detail fetch.
const defaultBatchSize = 100

// ScanOptions configures one account scan.
type ScanOptions struct {
	// MaxEmails bounds the id listing; 0 means unbounded.
	MaxEmails int
	// Query filters messages server-side (provider query syntax).
	Query string
	// BatchSize overrides the detail-fetch batch size; 0 means the default.
	BatchSize int
	// Progress, when non-nil, receives per-message progress updates.
	Progress ProgressFunc
}

// Aggregator drives ingestion and holds the per-account aggregation store.
// Results are rebuilt in memory on every scan; a completed scan atomically
// replaces the previous result for its account. Concurrent scans of
// different accounts are safe; concurrently scanning the same account is
// the caller's responsibility to prevent.
type Aggregator struct {
	accounts Accounts

	mu           sync.RWMutex
	aggregations map[string]*AccountAggregation
	order        []string // account ids in first-publish order
}

// New creates an Aggregator over the given account source.
func New(accounts Accounts) *Aggregator {
	return &Aggregator{
		accounts:     accounts,
		aggregations: make(map[string]*AccountAggregation),
	}
}

// AggregateAccount scans one account: lists candidate message ids, fetches
// details in fixed-size batches, folds every parsed message into sender and
// domain aggregates, and publishes the finished result. Messages whose
// details cannot be fetched are skipped silently; a listing failure keeps
// whatever ids were gathered and proceeds best-effort.
func (a *Aggregator) AggregateAccount(ctx context.Context, accountID string, opts ScanOptions) (*AccountAggregation, error) {
	src, ok := a.accounts.Source(accountID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrAccountNotFound, accountID)
	}

	ids, err := src.ListMessageIDs(ctx, opts.MaxEmails, opts.Query)
	if err != nil {
		// Partial listings still produce a usable partial scan.
		log.Printf("[scan] listing for account %s incomplete, continuing with %d ids: %v", accountID, len(ids), err)
	}

	batchSize := opts.BatchSize
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}

	total := len(ids)
	processed := 0
	senders := make(map[string]*SenderAggregation)
	var senderOrder []string

	for start := 0; start < len(ids); start += batchSize {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		end := min(start+batchSize, len(ids))
		batchIDs := ids[start:end]

		details, err := src.GetMessageDetails(ctx, batchIDs)
		if err != nil {
			// The whole batch is skipped; its ids still count as processed.
			log.Printf("[scan] batch fetch failed for account %s (%d ids skipped): %v", accountID, len(batchIDs), err)
			details = make([]*provider.MessageDetail, len(batchIDs))
		}

		for i, id := range batchIDs {
			processed++
			if opts.Progress != nil {
				opts.Progress(processed, total)
			}

			var detail *provider.MessageDetail
			if i < len(details) {
				detail = details[i]
			}

			identity, info, ok := BuildMessageInfo(id, detail)
			if !ok {
				continue
			}

			s, ok := senders[identity.Email]
			if !ok {
				s = NewSenderAggregation(identity)
				senders[identity.Email] = s
				senderOrder = append(senderOrder, identity.Email)
			}
			s.AddEmail(info)
		}
	}

	result := NewAccountAggregation(accountID, src.EmailAddress())
	for _, email := range senderOrder {
		result.addSender(senders[email])
	}

	a.publish(accountID, result)
	return result, nil
}

// AggregateAll scans every known account sequentially. The per-account
// progress callback is wrapped to report which account is active.
func (a *Aggregator) AggregateAll(ctx context.Context, opts ScanOptions, progress AccountProgressFunc) (map[string]*AccountAggregation, error) {
	for _, accountID := range a.accounts.IDs() {
		accountOpts := opts
		if progress != nil {
			id := accountID
			accountOpts.Progress = func(processed, total int) {
				progress(id, processed, total)
			}
		}
		if _, err := a.AggregateAccount(ctx, accountID, accountOpts); err != nil {
			return nil, fmt.Errorf("failed to aggregate account %s: %w", accountID, err)
		}
	}
	return a.Aggregations(), nil
}

func (a *Aggregator) publish(accountID string, result *AccountAggregation) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, seen := a.aggregations[accountID]; !seen {
		a.order = append(a.order, accountID)
	}
	a.aggregations[accountID] = result
}

// Aggregation returns the last published result for an account.
func (a *Aggregator) Aggregation(accountID string) (*AccountAggregation, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	agg, ok := a.aggregations[accountID]
	return agg, ok
}

// Aggregations returns a snapshot of all published results keyed by
// account id.
func (a *Aggregator) Aggregations() map[string]*AccountAggregation {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make(map[string]*AccountAggregation, len(a.aggregations))
	for id, agg := range a.aggregations {
		out[id] = agg
	}
	return out
}

// RankedSender pairs a sender aggregate with its owning account.
type RankedSender struct {
	AccountID string
	Sender    *SenderAggregation
}

// RankedDomain pairs a domain aggregate with its owning account.
type RankedDomain struct {
	AccountID string
	Domain    *DomainAggregation
}

// TopSenders flattens senders across one account (or all accounts when
// accountID is "") sorted descending by message count. Ties keep the
// original encounter order.
func (a *Aggregator) TopSenders(accountID string, limit int) []RankedSender {
	a.mu.RLock()
	defer a.mu.RUnlock()

	var results []RankedSender
	for _, id := range a.accountIDsLocked(accountID) {
		agg, ok := a.aggregations[id]
		if !ok {
			continue
		}
		for _, s := range agg.SendersInOrder() {
			results = append(results, RankedSender{AccountID: id, Sender: s})
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Sender.Count > results[j].Sender.Count
	})
	return truncate(results, limit)
}

// TopDomains flattens domains across one or all accounts sorted descending
// by total message count, ties stable.
func (a *Aggregator) TopDomains(accountID string, limit int) []RankedDomain {
	a.mu.RLock()
	defer a.mu.RUnlock()

	var results []RankedDomain
	for _, id := range a.accountIDsLocked(accountID) {
		agg, ok := a.aggregations[id]
		if !ok {
			continue
		}
		for _, d := range agg.DomainsInOrder() {
			results = append(results, RankedDomain{AccountID: id, Domain: d})
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Domain.TotalCount > results[j].Domain.TotalCount
	})
	return truncate(results, limit)
}

// MessageIDsForSender returns every message id aggregated under a sender,
// in ingestion order. Unknown account or sender yields an empty list, not
// an error.
func (a *Aggregator) MessageIDsForSender(accountID, senderEmail string) []string {
	a.mu.RLock()
	defer a.mu.RUnlock()

	agg, ok := a.aggregations[accountID]
	if !ok {
		return nil
	}
	s, ok := agg.Senders[senderEmail]
	if !ok {
		return nil
	}
	return s.MessageIDs()
}

// MessageIDsForDomain returns every message id aggregated under a domain,
// flattened across its senders. Unknown account or domain yields an empty
// list.
func (a *Aggregator) MessageIDsForDomain(accountID, domain string) []string {
	a.mu.RLock()
	defer a.mu.RUnlock()

	agg, ok := a.aggregations[accountID]
	if !ok {
		return nil
	}
	d, ok := agg.Domains[domain]
	if !ok {
		return nil
	}
	return d.MessageIDs()
}

// accountIDsLocked resolves the account filter to a concrete id list in
// publish order. Callers must hold at least a read lock.
func (a *Aggregator) accountIDsLocked(accountID string) []string {
	if accountID != "" {
		return []string{accountID}
	}
	return a.order
}

func truncate[T any](items []T, limit int) []T {
	if limit > 0 && len(items) > limit {
		return items[:limit]
	}
	return items
}
