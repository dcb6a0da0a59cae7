package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

// listRow is one renderable line in the sender or domain list. Sender rows
// carry an email; domain rows leave it empty and set senderCount.
type listRow struct {
	accountID string
	email     string
	name      string
	domain    string
	count     int
	size      int64
	unsubLink string

	senderCount int
}

func (r listRow) isDomain() bool { return r.email == "" }

// listModel is a scrollable table of aggregate rows.
type listModel struct {
	rows   []listRow
	cursor int
	offset int
	width  int
	height int
}

func newListModel() listModel {
	return listModel{}
}

func (l *listModel) SetSize(width, height int) {
	l.width = width
	l.height = height
	l.adjustScroll()
}

// SetRows replaces the list contents, keeping the cursor on a valid row.
func (l *listModel) SetRows(rows []listRow) {
	l.rows = rows
	l.clampCursor()
	l.adjustScroll()
}

func (l listModel) selected() (listRow, bool) {
	if l.cursor < 0 || l.cursor >= len(l.rows) {
		return listRow{}, false
	}
	return l.rows[l.cursor], true
}

func (l listModel) Update(msg tea.Msg) (listModel, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return l, nil
	}

	switch {
	case key.Matches(keyMsg, keys.Up):
		l.cursor--
	case key.Matches(keyMsg, keys.Down):
		l.cursor++
	}
	l.clampCursor()
	l.adjustScroll()
	return l, nil
}

func (l *listModel) clampCursor() {
	if l.cursor >= len(l.rows) {
		l.cursor = len(l.rows) - 1
	}
	if l.cursor < 0 {
		l.cursor = 0
	}
}

// visibleRows is the number of data lines that fit below the header.
func (l listModel) visibleRows() int {
	rows := l.height - 3 // border and header
	if rows < 1 {
		rows = 1
	}
	return rows
}

func (l *listModel) adjustScroll() {
	visible := l.visibleRows()
	if l.cursor < l.offset {
		l.offset = l.cursor
	}
	if l.cursor >= l.offset+visible {
		l.offset = l.cursor - visible + 1
	}
	if l.offset < 0 {
		l.offset = 0
	}
}

func (l listModel) View() string {
	innerWidth := l.width - 4
	if innerWidth < 20 {
		innerWidth = 20
	}

	var b strings.Builder
	b.WriteString(headerRowStyle.Render(l.renderHeader(innerWidth)))
	b.WriteString("\n")

	if len(l.rows) == 0 {
		b.WriteString(mutedTextStyle.Render("No matches."))
	}

	visible := l.visibleRows()
	end := l.offset + visible
	if end > len(l.rows) {
		end = len(l.rows)
	}
	for i := l.offset; i < end; i++ {
		line := l.renderRow(l.rows[i], innerWidth)
		if i == l.cursor {
			line = selectedStyle.Width(innerWidth).Render(line)
		}
		b.WriteString(line)
		if i < end-1 {
			b.WriteString("\n")
		}
	}

	return listStyle.Width(l.width - 2).Height(l.height - 2).Render(b.String())
}

func (l listModel) renderHeader(width int) string {
	nameW, countW, sizeW, tailW := columnWidths(width)
	tail := "UNSUB"
	if len(l.rows) > 0 && l.rows[0].isDomain() {
		tail = "SENDERS"
	}
	return fmt.Sprintf("%-*s %*s %*s %*s", nameW, "SENDER / DOMAIN", countW, "COUNT", sizeW, "SIZE", tailW, tail)
}

func (l listModel) renderRow(r listRow, width int) string {
	nameW, countW, sizeW, tailW := columnWidths(width)

	label := r.domain
	if !r.isDomain() {
		label = r.email
		if r.name != "" {
			label = fmt.Sprintf("%s <%s>", r.name, r.email)
		}
	}

	tail := ""
	if r.isDomain() {
		tail = fmt.Sprintf("%d", r.senderCount)
	} else if r.unsubLink != "" {
		tail = unsubStyle.Render("yes")
	}

	return fmt.Sprintf("%-*s %*d %*s %*s",
		nameW, truncate(label, nameW), countW, r.count, sizeW, humanSize(r.size), tailW, tail)
}

func columnWidths(total int) (name, count, size, tail int) {
	count = 6
	size = 9
	tail = 7
	name = total - count - size - tail - 3
	if name < 10 {
		name = 10
	}
	return name, count, size, tail
}

// truncate shortens s to maxLen runes, appending an ellipsis when cut.
func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen <= 1 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-1]) + "…"
}

// humanSize formats a byte count for a table cell.
func humanSize(n int64) string {
	switch {
	case n >= 1<<30:
		return fmt.Sprintf("%.1f GB", float64(n)/(1<<30))
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}
