package tui

import "github.com/charmbracelet/lipgloss"

type statusBar struct {
	message      string
	width        int
	isError      bool
	scanning     bool
	multiAccount bool
}

func newStatusBar() statusBar {
	return statusBar{message: "Ready"}
}

func (s *statusBar) setMessage(msg string) {
	s.message = msg
	s.isError = false
}

func (s *statusBar) setError(msg string) {
	s.message = msg
	s.isError = true
}

func (s statusBar) View() string {
	msgStyle := statusBarStyle
	if s.isError {
		msgStyle = msgStyle.Foreground(errorColor)
	}

	left := s.message
	shortcuts := s.shortcuts()

	gap := s.width - lipgloss.Width(left) - lipgloss.Width(shortcuts) - 2
	if gap < 0 {
		gap = 0
	}

	content := left + lipgloss.NewStyle().Width(gap).Render("") + mutedTextStyle.Render(shortcuts)
	return msgStyle.Width(s.width).Render(content)
}

func (s statusBar) shortcuts() string {
	if s.scanning {
		return "q:quit"
	}
	base := "j/k:nav  d:trash  s:spam  f:filter  u:unsub  a:age  /:search  r:rescan"
	if s.multiAccount {
		return base + "  @:account"
	}
	return base
}
