package agg

// SenderAggregation accumulates messages for one sender identity within a
// single account scan. The same object is shared by reference between the
// account-level sender map and its domain's sender map, so updates are
// visible from both indices.
type SenderAggregation struct {
	Email  string
	Name   string
	Domain string

	Count     int
	TotalSize int64
	// Emails preserves ingestion order.
	Emails          []MessageInfo
	UnsubscribeLink string
	AgeDistribution map[string]int
}

// NewSenderAggregation creates an empty aggregate for a sender identity
// with every age bucket pre-populated at zero.
func NewSenderAggregation(identity SenderIdentity) *SenderAggregation {
	return &SenderAggregation{
		Email:           identity.Email,
		Name:            identity.Name,
		Domain:          identity.Domain,
		AgeDistribution: NewAgeDistribution(),
	}
}

// AddEmail folds one message into the aggregate. The last non-empty
// unsubscribe link seen during the scan wins.
func (s *SenderAggregation) AddEmail(info MessageInfo) {
	s.Count++
	s.TotalSize += info.Size
	s.Emails = append(s.Emails, info)
	s.AgeDistribution[info.AgeCategory]++
	if info.UnsubscribeLink != "" {
		s.UnsubscribeLink = info.UnsubscribeLink
	}
}

// MessageIDs returns the ids of all folded messages in ingestion order.
func (s *SenderAggregation) MessageIDs() []string {
	ids := make([]string, 0, len(s.Emails))
	for _, e := range s.Emails {
		ids = append(ids, e.MessageID)
	}
	return ids
}

// merge absorbs another aggregate for the same sender email: counts and
// sizes are summed, message lists concatenated, histograms added, and the
// incoming unsubscribe link overrides only when present.
func (s *SenderAggregation) merge(other *SenderAggregation) {
	s.Count += other.Count
	s.TotalSize += other.TotalSize
	s.Emails = append(s.Emails, other.Emails...)
	for cat, n := range other.AgeDistribution {
		s.AgeDistribution[cat] += n
	}
	if other.UnsubscribeLink != "" {
		s.UnsubscribeLink = other.UnsubscribeLink
	}
}

// DomainAggregation accumulates sender aggregates for one domain.
type DomainAggregation struct {
	Domain string

	TotalCount int
	TotalSize  int64
	// Senders holds the same *SenderAggregation objects referenced by the
	// account-level map; entries are merged, never copied.
	Senders         map[string]*SenderAggregation
	AgeDistribution map[string]int

	order []string // sender emails in first-seen order
}

// NewDomainAggregation creates an empty aggregate for a domain.
func NewDomainAggregation(domain string) *DomainAggregation {
	return &DomainAggregation{
		Domain:          domain,
		Senders:         make(map[string]*SenderAggregation),
		AgeDistribution: NewAgeDistribution(),
	}
}

// AddSender inserts a sender by reference, or merges it into the existing
// entry when the email was already seen for this domain. The domain's own
// totals are re-derived from current members rather than drifted
// incrementally.
func (d *DomainAggregation) AddSender(sender *SenderAggregation) {
	if existing, ok := d.Senders[sender.Email]; ok {
		existing.merge(sender)
	} else {
		d.Senders[sender.Email] = sender
		d.order = append(d.order, sender.Email)
	}
	d.recompute()
}

// SendersInOrder returns the domain's senders in first-seen order.
func (d *DomainAggregation) SendersInOrder() []*SenderAggregation {
	out := make([]*SenderAggregation, 0, len(d.order))
	for _, email := range d.order {
		out = append(out, d.Senders[email])
	}
	return out
}

// MessageIDs flattens the ids of every member sender in first-seen order.
func (d *DomainAggregation) MessageIDs() []string {
	var ids []string
	for _, s := range d.SendersInOrder() {
		ids = append(ids, s.MessageIDs()...)
	}
	return ids
}

func (d *DomainAggregation) recompute() {
	d.TotalCount = 0
	d.TotalSize = 0
	d.AgeDistribution = NewAgeDistribution()
	for _, s := range d.Senders {
		d.TotalCount += s.Count
		d.TotalSize += s.TotalSize
		for cat, n := range s.AgeDistribution {
			d.AgeDistribution[cat] += n
		}
	}
}

// AccountAggregation is the completed result of one account scan. It is
// built fresh per scan and replaces any prior result for the account only
// after the scan finishes.
type AccountAggregation struct {
	AccountID    string
	EmailAddress string

	TotalEmails int
	TotalSize   int64
	Senders     map[string]*SenderAggregation
	Domains     map[string]*DomainAggregation

	senderOrder []string
	domainOrder []string
}

// NewAccountAggregation creates an empty result for one account scan.
func NewAccountAggregation(accountID, emailAddress string) *AccountAggregation {
	return &AccountAggregation{
		AccountID:    accountID,
		EmailAddress: emailAddress,
		Senders:      make(map[string]*SenderAggregation),
		Domains:      make(map[string]*DomainAggregation),
	}
}

// addSender registers a completed sender aggregate with the account and its
// domain. The sender object is shared between both maps.
func (a *AccountAggregation) addSender(s *SenderAggregation) {
	a.Senders[s.Email] = s
	a.senderOrder = append(a.senderOrder, s.Email)
	a.TotalEmails += s.Count
	a.TotalSize += s.TotalSize

	dom, ok := a.Domains[s.Domain]
	if !ok {
		dom = NewDomainAggregation(s.Domain)
		a.Domains[s.Domain] = dom
		a.domainOrder = append(a.domainOrder, s.Domain)
	}
	dom.AddSender(s)
}

// SendersInOrder returns the account's senders in first-encounter order.
func (a *AccountAggregation) SendersInOrder() []*SenderAggregation {
	out := make([]*SenderAggregation, 0, len(a.senderOrder))
	for _, email := range a.senderOrder {
		out = append(out, a.Senders[email])
	}
	return out
}

// DomainsInOrder returns the account's domains in first-encounter order.
func (a *AccountAggregation) DomainsInOrder() []*DomainAggregation {
	out := make([]*DomainAggregation, 0, len(a.domainOrder))
	for _, domain := range a.domainOrder {
		out = append(out, a.Domains[domain])
	}
	return out
}
