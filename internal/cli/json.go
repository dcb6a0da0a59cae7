package cli

import (
	"time"

	"github.com/lu-zhengda/mailsweep/internal/agg"
	"github.com/lu-zhengda/mailsweep/internal/domain"
)

// ---------------------------------------------------------------------------
// Account JSON types (account list)
// ---------------------------------------------------------------------------

type jsonAccount struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Provider  string `json:"provider"`
	CreatedAt string `json:"created_at"`
}

func toJSONAccounts(accounts []domain.Account) []jsonAccount {
	out := make([]jsonAccount, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, jsonAccount{
			ID:        a.ID,
			Email:     a.Email,
			Provider:  a.Provider,
			CreatedAt: a.CreatedAt.Format(time.DateOnly),
		})
	}
	return out
}

// ---------------------------------------------------------------------------
// Sender JSON type (senders report)
// ---------------------------------------------------------------------------

type jsonSender struct {
	AccountID       string         `json:"account_id"`
	Email           string         `json:"email"`
	Name            string         `json:"name,omitempty"`
	Domain          string         `json:"domain"`
	Count           int            `json:"count"`
	TotalSize       int64          `json:"total_size"`
	UnsubscribeLink string         `json:"unsubscribe_link,omitempty"`
	AgeDistribution map[string]int `json:"age_distribution"`
}

func toJSONSenders(ranked []agg.RankedSender) []jsonSender {
	out := make([]jsonSender, 0, len(ranked))
	for _, r := range ranked {
		out = append(out, jsonSender{
			AccountID:       r.AccountID,
			Email:           r.Sender.Email,
			Name:            r.Sender.Name,
			Domain:          r.Sender.Domain,
			Count:           r.Sender.Count,
			TotalSize:       r.Sender.TotalSize,
			UnsubscribeLink: r.Sender.UnsubscribeLink,
			AgeDistribution: r.Sender.AgeDistribution,
		})
	}
	return out
}

// ---------------------------------------------------------------------------
// Domain JSON type (domains report)
// ---------------------------------------------------------------------------

type jsonDomain struct {
	AccountID       string         `json:"account_id"`
	Domain          string         `json:"domain"`
	SenderCount     int            `json:"sender_count"`
	TotalCount      int            `json:"total_count"`
	TotalSize       int64          `json:"total_size"`
	AgeDistribution map[string]int `json:"age_distribution"`
}

func toJSONDomains(ranked []agg.RankedDomain) []jsonDomain {
	out := make([]jsonDomain, 0, len(ranked))
	for _, r := range ranked {
		out = append(out, jsonDomain{
			AccountID:       r.AccountID,
			Domain:          r.Domain.Domain,
			SenderCount:     len(r.Domain.Senders),
			TotalCount:      r.Domain.TotalCount,
			TotalSize:       r.Domain.TotalSize,
			AgeDistribution: r.Domain.AgeDistribution,
		})
	}
	return out
}

// ---------------------------------------------------------------------------
// Scan history JSON type (history)
// ---------------------------------------------------------------------------

type jsonScan struct {
	AccountID     string `json:"account_id"`
	StartedAt     string `json:"started_at"`
	FinishedAt    string `json:"finished_at"`
	TotalMessages int    `json:"total_messages"`
	TotalSize     int64  `json:"total_size"`
	SenderCount   int    `json:"sender_count"`
	DomainCount   int    `json:"domain_count"`
}

func toJSONScans(records []domain.ScanRecord) []jsonScan {
	out := make([]jsonScan, 0, len(records))
	for _, r := range records {
		out = append(out, jsonScan{
			AccountID:     r.AccountID,
			StartedAt:     r.StartedAt.Format(time.RFC3339),
			FinishedAt:    r.FinishedAt.Format(time.RFC3339),
			TotalMessages: r.TotalMessages,
			TotalSize:     r.TotalSize,
			SenderCount:   r.SenderCount,
			DomainCount:   r.DomainCount,
		})
	}
	return out
}

// ---------------------------------------------------------------------------
// Action JSON type (trash, spam, filter, account add/remove)
// ---------------------------------------------------------------------------

type jsonAction struct {
	OK        bool   `json:"ok"`
	Action    string `json:"action"`
	AccountID string `json:"account_id,omitempty"`
	Email     string `json:"email,omitempty"`
	Sender    string `json:"sender,omitempty"`
	Domain    string `json:"domain,omitempty"`
	Affected  int    `json:"affected,omitempty"`
	FilterID  string `json:"filter_id,omitempty"`
}
