package agg

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/lu-zhengda/mailsweep/internal/provider"
)

// fakeSource serves canned message details keyed by id. Ids without an
// entry come back as nil placeholders, mimicking per-id fetch failures.
type fakeSource struct {
	email    string
	ids      []string
	details  map[string]*provider.MessageDetail
	listErr  error
	fetchErr error

	batchCalls int
}

func (f *fakeSource) ListMessageIDs(ctx context.Context, maxResults int, query string) ([]string, error) {
	ids := f.ids
	if maxResults > 0 && len(ids) > maxResults {
		ids = ids[:maxResults]
	}
	return ids, f.listErr
}

func (f *fakeSource) GetMessageDetails(ctx context.Context, ids []string) ([]*provider.MessageDetail, error) {
	f.batchCalls++
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	out := make([]*provider.MessageDetail, len(ids))
	for i, id := range ids {
		out[i] = f.details[id]
	}
	return out, nil
}

func (f *fakeSource) MarkAsSpam(ctx context.Context, ids []string) error    { return nil }
func (f *fakeSource) TrashMessages(ctx context.Context, ids []string) error { return nil }
func (f *fakeSource) CreateFilter(ctx context.Context, c provider.FilterCriteria) (string, error) {
	return "filter-1", nil
}
func (f *fakeSource) EmailAddress() string { return f.email }

type fakeAccounts struct {
	ids     []string
	sources map[string]*fakeSource
}

func (f *fakeAccounts) IDs() []string { return f.ids }

func (f *fakeAccounts) Source(accountID string) (provider.MessageSource, bool) {
	src, ok := f.sources[accountID]
	return src, ok
}

func detailFrom(id, from string) *provider.MessageDetail {
	return &provider.MessageDetail{
		ID: id,
		Headers: []provider.Header{
			{Name: "From", Value: from},
			{Name: "Subject", Value: "subject " + id},
			{Name: "Date", Value: "Mon, 01 Jan 2024 12:00:00 +0000"},
		},
		SizeEstimate: 100,
	}
}

func newFixture() (*fakeAccounts, *Aggregator) {
	src := &fakeSource{
		email: "me@gmail.com",
		ids:   []string{"m1", "m2", "m3", "m4", "m5"},
		details: map[string]*provider.MessageDetail{
			"m1": detailFrom("m1", "a@x.com"),
			"m2": detailFrom("m2", "b@y.com"),
			"m3": detailFrom("m3", "a@x.com"),
			"m4": detailFrom("m4", "b@y.com"),
			"m5": detailFrom("m5", "a@x.com"),
		},
	}
	accounts := &fakeAccounts{
		ids:     []string{"acct-1"},
		sources: map[string]*fakeSource{"acct-1": src},
	}
	return accounts, New(accounts)
}

func TestAggregateAccount(t *testing.T) {
	_, a := newFixture()
	ctx := context.Background()

	result, err := a.AggregateAccount(ctx, "acct-1", ScanOptions{})
	if err != nil {
		t.Fatalf("AggregateAccount() error: %v", err)
	}

	if result.TotalEmails != 5 {
		t.Errorf("total_emails = %d, want 5", result.TotalEmails)
	}
	if result.EmailAddress != "me@gmail.com" {
		t.Errorf("email_address = %q", result.EmailAddress)
	}
	if len(result.Senders) != 2 {
		t.Errorf("got %d senders, want 2", len(result.Senders))
	}
	if result.Senders["a@x.com"].Count != 3 {
		t.Errorf("a@x.com count = %d, want 3", result.Senders["a@x.com"].Count)
	}
	if result.Domains["x.com"].TotalCount != 3 {
		t.Errorf("x.com total = %d, want 3", result.Domains["x.com"].TotalCount)
	}
}

func TestAggregateAccount_UnknownAccount(t *testing.T) {
	_, a := newFixture()

	_, err := a.AggregateAccount(context.Background(), "nope", ScanOptions{})
	if !errors.Is(err, ErrAccountNotFound) {
		t.Fatalf("err = %v, want ErrAccountNotFound", err)
	}
}

func TestAggregateAccount_SkipsFailedDetails(t *testing.T) {
	accounts, a := newFixture()
	src := accounts.sources["acct-1"]
	// Two of five ids have no detail: silently skipped, no error.
	delete(src.details, "m2")
	delete(src.details, "m5")

	result, err := a.AggregateAccount(context.Background(), "acct-1", ScanOptions{})
	if err != nil {
		t.Fatalf("AggregateAccount() error: %v", err)
	}
	if result.TotalEmails != 3 {
		t.Errorf("total_emails = %d, want 3 (2 skipped)", result.TotalEmails)
	}
	if result.Senders["b@y.com"].Count != 1 {
		t.Errorf("b@y.com count = %d, want 1", result.Senders["b@y.com"].Count)
	}
}

func TestAggregateAccount_ProgressCountsEveryID(t *testing.T) {
	accounts, a := newFixture()
	delete(accounts.sources["acct-1"].details, "m3")

	var calls [][2]int
	_, err := a.AggregateAccount(context.Background(), "acct-1", ScanOptions{
		Progress: func(processed, total int) {
			calls = append(calls, [2]int{processed, total})
		},
	})
	if err != nil {
		t.Fatalf("AggregateAccount() error: %v", err)
	}

	// Skipped ids still count toward progress.
	if len(calls) != 5 {
		t.Fatalf("progress called %d times, want 5", len(calls))
	}
	for i, c := range calls {
		if c[0] != i+1 || c[1] != 5 {
			t.Errorf("call %d = %v, want (%d, 5)", i, c, i+1)
		}
	}
}

func TestAggregateAccount_Batching(t *testing.T) {
	accounts, a := newFixture()
	src := accounts.sources["acct-1"]

	_, err := a.AggregateAccount(context.Background(), "acct-1", ScanOptions{BatchSize: 2})
	if err != nil {
		t.Fatalf("AggregateAccount() error: %v", err)
	}
	if src.batchCalls != 3 {
		t.Errorf("batch calls = %d, want 3 for 5 ids at size 2", src.batchCalls)
	}
}

func TestAggregateAccount_WholeBatchFailure(t *testing.T) {
	accounts, a := newFixture()
	accounts.sources["acct-1"].fetchErr = errors.New("rate limited")

	result, err := a.AggregateAccount(context.Background(), "acct-1", ScanOptions{})
	if err != nil {
		t.Fatalf("batch failure must not fail the scan: %v", err)
	}
	if result.TotalEmails != 0 {
		t.Errorf("total_emails = %d, want 0", result.TotalEmails)
	}
}

func TestAggregateAccount_PartialListing(t *testing.T) {
	accounts, a := newFixture()
	// Listing failed mid-pagination but still returned some ids.
	accounts.sources["acct-1"].ids = []string{"m1", "m2"}
	accounts.sources["acct-1"].listErr = errors.New("pagination aborted")

	result, err := a.AggregateAccount(context.Background(), "acct-1", ScanOptions{})
	if err != nil {
		t.Fatalf("partial listing must not fail the scan: %v", err)
	}
	if result.TotalEmails != 2 {
		t.Errorf("total_emails = %d, want 2", result.TotalEmails)
	}
}

func TestAggregateAccount_ReplacesPreviousResult(t *testing.T) {
	accounts, a := newFixture()
	ctx := context.Background()

	if _, err := a.AggregateAccount(ctx, "acct-1", ScanOptions{}); err != nil {
		t.Fatal(err)
	}
	accounts.sources["acct-1"].ids = []string{"m1"}
	if _, err := a.AggregateAccount(ctx, "acct-1", ScanOptions{}); err != nil {
		t.Fatal(err)
	}

	got, ok := a.Aggregation("acct-1")
	if !ok {
		t.Fatal("aggregation missing after rescan")
	}
	if got.TotalEmails != 1 {
		t.Errorf("rescan did not replace result: total = %d, want 1", got.TotalEmails)
	}
}

func TestAggregateAll(t *testing.T) {
	src1 := &fakeSource{
		email: "one@gmail.com",
		ids:   []string{"a1"},
		details: map[string]*provider.MessageDetail{
			"a1": detailFrom("a1", "x@x.com"),
		},
	}
	src2 := &fakeSource{
		email: "two@gmail.com",
		ids:   []string{"b1", "b2"},
		details: map[string]*provider.MessageDetail{
			"b1": detailFrom("b1", "y@y.com"),
			"b2": detailFrom("b2", "y@y.com"),
		},
	}
	accounts := &fakeAccounts{
		ids:     []string{"acct-1", "acct-2"},
		sources: map[string]*fakeSource{"acct-1": src1, "acct-2": src2},
	}
	a := New(accounts)

	var seen []string
	results, err := a.AggregateAll(context.Background(), ScanOptions{}, func(accountID string, processed, total int) {
		seen = append(seen, fmt.Sprintf("%s:%d/%d", accountID, processed, total))
	})
	if err != nil {
		t.Fatalf("AggregateAll() error: %v", err)
	}

	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	want := []string{"acct-1:1/1", "acct-2:1/2", "acct-2:2/2"}
	if len(seen) != len(want) {
		t.Fatalf("progress calls = %v, want %v", seen, want)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Errorf("progress[%d] = %q, want %q", i, seen[i], want[i])
		}
	}
}

func TestTopSenders(t *testing.T) {
	accounts, a := newFixture()
	src := accounts.sources["acct-1"]
	// Three from a@x.com, two from b@y.com.
	_ = src

	if _, err := a.AggregateAccount(context.Background(), "acct-1", ScanOptions{}); err != nil {
		t.Fatal(err)
	}

	top := a.TopSenders("", 10)
	if len(top) != 2 {
		t.Fatalf("got %d senders, want 2", len(top))
	}
	if top[0].Sender.Email != "a@x.com" || top[0].Sender.Count != 3 {
		t.Errorf("top[0] = %s/%d, want a@x.com/3", top[0].Sender.Email, top[0].Sender.Count)
	}
	if top[1].Sender.Email != "b@y.com" || top[1].Sender.Count != 2 {
		t.Errorf("top[1] = %s/%d, want b@y.com/2", top[1].Sender.Email, top[1].Sender.Count)
	}

	limited := a.TopSenders("", 1)
	if len(limited) != 1 || limited[0].Sender.Email != "a@x.com" {
		t.Errorf("limit not applied: %v", limited)
	}
}

func TestTopSenders_TiesKeepEncounterOrder(t *testing.T) {
	src := &fakeSource{
		email: "me@gmail.com",
		ids:   []string{"m1", "m2", "m3", "m4"},
		details: map[string]*provider.MessageDetail{
			"m1": detailFrom("m1", "first@x.com"),
			"m2": detailFrom("m2", "second@y.com"),
			"m3": detailFrom("m3", "first@x.com"),
			"m4": detailFrom("m4", "second@y.com"),
		},
	}
	accounts := &fakeAccounts{ids: []string{"acct-1"}, sources: map[string]*fakeSource{"acct-1": src}}
	a := New(accounts)
	if _, err := a.AggregateAccount(context.Background(), "acct-1", ScanOptions{}); err != nil {
		t.Fatal(err)
	}

	top := a.TopSenders("acct-1", 10)
	if top[0].Sender.Email != "first@x.com" || top[1].Sender.Email != "second@y.com" {
		t.Errorf("equal counts must preserve encounter order, got %s then %s",
			top[0].Sender.Email, top[1].Sender.Email)
	}
}

func TestTopDomains(t *testing.T) {
	_, a := newFixture()
	if _, err := a.AggregateAccount(context.Background(), "acct-1", ScanOptions{}); err != nil {
		t.Fatal(err)
	}

	top := a.TopDomains("acct-1", 10)
	if len(top) != 2 {
		t.Fatalf("got %d domains, want 2", len(top))
	}
	if top[0].Domain.Domain != "x.com" || top[0].Domain.TotalCount != 3 {
		t.Errorf("top[0] = %s/%d, want x.com/3", top[0].Domain.Domain, top[0].Domain.TotalCount)
	}
	if top[1].Domain.Domain != "y.com" || top[1].Domain.TotalCount != 2 {
		t.Errorf("top[1] = %s/%d, want y.com/2", top[1].Domain.Domain, top[1].Domain.TotalCount)
	}
}

func TestMessageIDLookups(t *testing.T) {
	_, a := newFixture()
	if _, err := a.AggregateAccount(context.Background(), "acct-1", ScanOptions{}); err != nil {
		t.Fatal(err)
	}

	ids := a.MessageIDsForSender("acct-1", "a@x.com")
	want := []string{"m1", "m3", "m5"}
	if len(ids) != len(want) {
		t.Fatalf("sender ids = %v, want %v", ids, want)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Errorf("sender ids[%d] = %q, want %q", i, ids[i], want[i])
		}
	}

	domainIDs := a.MessageIDsForDomain("acct-1", "y.com")
	if len(domainIDs) != 2 || domainIDs[0] != "m2" || domainIDs[1] != "m4" {
		t.Errorf("domain ids = %v, want [m2 m4]", domainIDs)
	}

	// Unknown keys are empty results, not errors.
	if got := a.MessageIDsForSender("acct-1", "nobody@x.com"); len(got) != 0 {
		t.Errorf("unknown sender ids = %v, want empty", got)
	}
	if got := a.MessageIDsForSender("missing", "a@x.com"); len(got) != 0 {
		t.Errorf("unknown account ids = %v, want empty", got)
	}
	if got := a.MessageIDsForDomain("acct-1", "nope.com"); len(got) != 0 {
		t.Errorf("unknown domain ids = %v, want empty", got)
	}
}
