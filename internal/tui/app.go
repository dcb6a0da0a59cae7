package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/lu-zhengda/mailsweep/internal/agg"
	"github.com/lu-zhengda/mailsweep/internal/app"
	"github.com/lu-zhengda/mailsweep/internal/provider"
)

// Options carries the scan and display settings the TUI starts with.
type Options struct {
	MaxEmails   int
	BatchSize   int
	Query       string
	DefaultView string
}

type viewTab int

const (
	tabSenders viewTab = iota
	tabDomains
)

// Async messages.
type scanProgressMsg struct {
	accountID string
	processed int
	total     int
}

type scanDoneMsg struct {
	err error
}

type actionDoneMsg struct {
	verb     string
	target   string
	affected int
	filterID string
	err      error
}

type statusMsg struct {
	text  string
	isErr bool
}

type model struct {
	manager    *app.Manager
	aggregator *agg.Aggregator
	actions    *app.ActionService
	opts       Options

	tab    viewTab
	list   listModel
	status statusBar
	search textinput.Model

	searching  bool
	ageIdx     int // index into agg.AgeCategories, -1 for all buckets
	accountIdx int // index into accountIDs, -1 for all accounts
	accountIDs []string

	scanning   bool
	progressCh chan scanProgressMsg
	initCmd    tea.Cmd

	width  int
	height int
}

func newModel(manager *app.Manager, aggregator *agg.Aggregator, actions *app.ActionService, opts Options) model {
	search := textinput.New()
	search.Placeholder = "search"
	search.Prompt = "/"
	search.CharLimit = 80

	tab := tabSenders
	if opts.DefaultView == "domains" {
		tab = tabDomains
	}

	m := model{
		manager:    manager,
		aggregator: aggregator,
		actions:    actions,
		opts:       opts,
		tab:        tab,
		list:       newListModel(),
		status:     newStatusBar(),
		search:     search,
		ageIdx:     -1,
		accountIdx: -1,
		accountIDs: manager.IDs(),
	}
	m.status.multiAccount = len(m.accountIDs) > 1
	// The scan command is built here so the progress channel lives in the
	// model value handed to the program, not in a copy.
	m.initCmd = m.startScan()
	return m
}

func (m model) Init() tea.Cmd {
	return m.initCmd
}

// startScan kicks off a full scan of every account in the background and
// begins draining progress updates. Progress sends never block the scan; a
// full channel just drops the update.
func (m *model) startScan() tea.Cmd {
	m.scanning = true
	m.status.scanning = true
	m.status.setMessage("Scanning...")

	ch := make(chan scanProgressMsg, 16)
	m.progressCh = ch

	aggregator := m.aggregator
	opts := agg.ScanOptions{
		MaxEmails: m.opts.MaxEmails,
		Query:     m.opts.Query,
		BatchSize: m.opts.BatchSize,
	}

	scan := func() tea.Msg {
		_, err := aggregator.AggregateAll(context.Background(), opts, func(accountID string, processed, total int) {
			select {
			case ch <- scanProgressMsg{accountID: accountID, processed: processed, total: total}:
			default:
			}
		})
		close(ch)
		return scanDoneMsg{err: err}
	}

	return tea.Batch(scan, waitForProgress(ch))
}

// waitForProgress delivers the next progress update, or nothing once the
// scan closes the channel.
func waitForProgress(ch chan scanProgressMsg) tea.Cmd {
	return func() tea.Msg {
		p, ok := <-ch
		if !ok {
			return nil
		}
		return p
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.status.width = msg.Width
		m.list.SetSize(msg.Width, msg.Height-3)
		return m, nil

	case scanProgressMsg:
		m.status.setMessage(fmt.Sprintf("Scanning %s: %d/%d", msg.accountID, msg.processed, msg.total))
		return m, waitForProgress(m.progressCh)

	case scanDoneMsg:
		m.scanning = false
		m.status.scanning = false
		if msg.err != nil {
			m.status.setError(fmt.Sprintf("Scan failed: %v", msg.err))
		} else {
			m.status.setMessage(m.scanSummary())
		}
		m.refreshRows()
		return m, nil

	case statusMsg:
		if msg.isErr {
			m.status.setError(msg.text)
		} else {
			m.status.setMessage(msg.text)
		}
		return m, nil

	case actionDoneMsg:
		if msg.err != nil {
			m.status.setError(fmt.Sprintf("%s failed: %v", msg.verb, msg.err))
		} else if msg.filterID != "" {
			m.status.setMessage(fmt.Sprintf("Created filter %s for %s", msg.filterID, msg.target))
		} else {
			m.status.setMessage(fmt.Sprintf("%s %d messages from %s (rescan with r)", msg.verb, msg.affected, msg.target))
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.searching {
		switch msg.Type {
		case tea.KeyEsc:
			m.searching = false
			m.search.Blur()
			m.search.SetValue("")
			m.refreshRows()
			return m, nil
		case tea.KeyEnter:
			m.searching = false
			m.search.Blur()
			return m, nil
		}
		var cmd tea.Cmd
		m.search, cmd = m.search.Update(msg)
		m.refreshRows()
		return m, cmd
	}

	switch {
	case key.Matches(msg, keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, keys.Up), key.Matches(msg, keys.Down):
		var cmd tea.Cmd
		m.list, cmd = m.list.Update(msg)
		return m, cmd

	case key.Matches(msg, keys.Tab):
		if m.tab == tabSenders {
			m.tab = tabDomains
		} else {
			m.tab = tabSenders
		}
		m.refreshRows()
		return m, nil

	case key.Matches(msg, keys.Age):
		m.ageIdx++
		if m.ageIdx >= len(agg.AgeCategories) {
			m.ageIdx = -1
		}
		m.refreshRows()
		return m, nil

	case key.Matches(msg, keys.SwitchAccount):
		if len(m.accountIDs) > 1 {
			m.accountIdx++
			if m.accountIdx >= len(m.accountIDs) {
				m.accountIdx = -1
			}
			m.refreshRows()
		}
		return m, nil

	case key.Matches(msg, keys.Search):
		m.searching = true
		m.search.Focus()
		return m, textinput.Blink

	case key.Matches(msg, keys.Back):
		if m.search.Value() != "" {
			m.search.SetValue("")
			m.refreshRows()
		}
		return m, nil

	case key.Matches(msg, keys.Rescan):
		if m.scanning {
			return m, nil
		}
		return m, m.startScan()

	case key.Matches(msg, keys.Trash):
		return m, m.runAction("Trashed",
			(*app.ActionService).TrashSender, (*app.ActionService).TrashDomain)

	case key.Matches(msg, keys.Spam):
		return m, m.runAction("Marked as spam",
			(*app.ActionService).SpamSender, (*app.ActionService).SpamDomain)

	case key.Matches(msg, keys.Filter):
		return m, m.createFilter()

	case key.Matches(msg, keys.Unsubscribe):
		return m, m.openUnsubscribe()
	}

	return m, nil
}

// runAction applies a bulk mailbox operation to the selected row.
func (m *model) runAction(verb string, senderOp, domainOp func(*app.ActionService, context.Context, string, string) (int, error)) tea.Cmd {
	if m.scanning {
		m.status.setError("Scan in progress")
		return nil
	}
	row, ok := m.list.selected()
	if !ok {
		return nil
	}

	actions := m.actions
	return func() tea.Msg {
		var n int
		var err error
		var target string
		if row.isDomain() {
			target = row.domain
			n, err = domainOp(actions, context.Background(), row.accountID, row.domain)
		} else {
			target = row.email
			n, err = senderOp(actions, context.Background(), row.accountID, row.email)
		}
		return actionDoneMsg{verb: verb, target: target, affected: n, err: err}
	}
}

// createFilter sets up a server-side filter that trashes future mail from
// the selected sender or domain.
func (m *model) createFilter() tea.Cmd {
	row, ok := m.list.selected()
	if !ok {
		return nil
	}

	actions := m.actions
	return func() tea.Msg {
		var id string
		var err error
		var target string
		if row.isDomain() {
			target = row.domain
			id, err = actions.CreateDomainFilter(context.Background(), row.accountID, row.domain, provider.FilterActionTrash)
		} else {
			target = row.email
			id, err = actions.CreateSenderFilter(context.Background(), row.accountID, row.email, provider.FilterActionTrash)
		}
		return actionDoneMsg{verb: "Filter", target: target, filterID: id, err: err}
	}
}

func (m *model) openUnsubscribe() tea.Cmd {
	row, ok := m.list.selected()
	if !ok {
		return nil
	}
	if row.isDomain() || row.unsubLink == "" {
		m.status.setMessage("No unsubscribe link for this row")
		return nil
	}

	link := row.unsubLink
	return func() tea.Msg {
		if err := openBrowser(link); err != nil {
			return statusMsg{text: fmt.Sprintf("Could not open browser: %v", err), isErr: true}
		}
		return statusMsg{text: "Opened " + link}
	}
}

// refreshRows rebuilds the visible list from the current aggregations and
// active filters.
func (m *model) refreshRows() {
	accountID := ""
	if m.accountIdx >= 0 && m.accountIdx < len(m.accountIDs) {
		accountID = m.accountIDs[m.accountIdx]
	}
	age := m.ageKey()
	search := strings.ToLower(m.search.Value())

	var rows []listRow
	if m.tab == tabSenders {
		for _, r := range m.aggregator.TopSenders(accountID, 0) {
			if !matchSender(r.Sender, age, search) {
				continue
			}
			rows = append(rows, listRow{
				accountID: r.AccountID,
				email:     r.Sender.Email,
				name:      r.Sender.Name,
				domain:    r.Sender.Domain,
				count:     r.Sender.Count,
				size:      r.Sender.TotalSize,
				unsubLink: r.Sender.UnsubscribeLink,
			})
		}
	} else {
		for _, r := range m.aggregator.TopDomains(accountID, 0) {
			if !matchDomain(r.Domain, age, search) {
				continue
			}
			rows = append(rows, listRow{
				accountID:   r.AccountID,
				domain:      r.Domain.Domain,
				count:       r.Domain.TotalCount,
				size:        r.Domain.TotalSize,
				senderCount: len(r.Domain.Senders),
			})
		}
	}
	m.list.SetRows(rows)
}

func matchSender(s *agg.SenderAggregation, age, search string) bool {
	if age != "" && s.AgeDistribution[age] == 0 {
		return false
	}
	if search == "" {
		return true
	}
	return strings.Contains(strings.ToLower(s.Email), search) ||
		strings.Contains(strings.ToLower(s.Name), search) ||
		strings.Contains(strings.ToLower(s.Domain), search)
}

func matchDomain(d *agg.DomainAggregation, age, search string) bool {
	if age != "" && d.AgeDistribution[age] == 0 {
		return false
	}
	return search == "" || strings.Contains(strings.ToLower(d.Domain), search)
}

func (m model) ageKey() string {
	if m.ageIdx < 0 || m.ageIdx >= len(agg.AgeCategories) {
		return ""
	}
	return agg.AgeCategories[m.ageIdx].Key
}

func (m model) scanSummary() string {
	var total int
	var accounts int
	for _, a := range m.aggregator.Aggregations() {
		total += a.TotalEmails
		accounts++
	}
	return fmt.Sprintf("Scanned %d messages across %d account(s)", total, accounts)
}

func (m model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	header := m.renderHeader()
	list := m.list.View()
	status := m.status.View()

	return lipgloss.JoinVertical(lipgloss.Left, header, list, status)
}

func (m model) renderHeader() string {
	title := titleStyle.Render("mailsweep")

	sendersTab := tabStyle.Render("Senders")
	domainsTab := tabStyle.Render("Domains")
	if m.tab == tabSenders {
		sendersTab = activeTabStyle.Render("Senders")
	} else {
		domainsTab = activeTabStyle.Render("Domains")
	}

	var scope []string
	if m.accountIdx >= 0 && m.accountIdx < len(m.accountIDs) {
		scope = append(scope, m.accountIDs[m.accountIdx])
	}
	if age := m.ageKey(); age != "" {
		scope = append(scope, "age:"+age)
	}

	right := mutedTextStyle.Render(strings.Join(scope, "  "))
	if m.searching || m.search.Value() != "" {
		right = m.search.View()
	}

	left := lipgloss.JoinHorizontal(lipgloss.Center, title, "  ", sendersTab, domainsTab)
	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	return left + strings.Repeat(" ", gap) + right
}

// Run starts the interactive triage UI and blocks until the user quits.
func Run(manager *app.Manager, aggregator *agg.Aggregator, actions *app.ActionService, opts Options) error {
	m := newModel(manager, aggregator, actions, opts)
	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("failed to run UI: %w", err)
	}
	return nil
}
