package tui

import (
	"testing"

	"github.com/lu-zhengda/mailsweep/internal/agg"
)

func testSender(email, name, domain string, ages map[string]int) *agg.SenderAggregation {
	s := agg.NewSenderAggregation(agg.SenderIdentity{Email: email, Name: name, Domain: domain})
	for cat, n := range ages {
		s.AgeDistribution[cat] = n
	}
	return s
}

func TestMatchSender(t *testing.T) {
	s := testSender("deals@acme.com", "Acme Deals", "acme.com", map[string]int{"week": 2})

	tests := []struct {
		name   string
		age    string
		search string
		want   bool
	}{
		{"no filters", "", "", true},
		{"age with mail", "week", "", true},
		{"age without mail", "older", "", false},
		{"search matches email", "", "deals", true},
		{"search matches name case-insensitive", "", "acme deals", true},
		{"search matches domain", "", "acme.com", true},
		{"search misses", "", "newsletter", false},
		{"age and search must both match", "week", "deals", true},
		{"age matches but search misses", "week", "zzz", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := matchSender(s, tt.age, tt.search); got != tt.want {
				t.Errorf("matchSender(age=%q, search=%q) = %v, want %v", tt.age, tt.search, got, tt.want)
			}
		})
	}
}

func TestMatchDomain(t *testing.T) {
	d := agg.NewDomainAggregation("acme.com")
	d.AddSender(testSender("deals@acme.com", "", "acme.com", map[string]int{"today": 1}))

	if !matchDomain(d, "", "acme") {
		t.Error("substring on domain should match")
	}
	if matchDomain(d, "older", "") {
		t.Error("empty age bucket should not match")
	}
	// The domain histogram is derived from member senders.
	if !matchDomain(d, "today", "acme") {
		t.Error("age bucket filled by a member sender should match")
	}
}
