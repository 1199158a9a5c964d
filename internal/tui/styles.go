package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/pdfsum/cli/internal/documents"
	"github.com/pdfsum/cli/internal/lifecycle"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205"))

	helpStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	boldStyle  = lipgloss.NewStyle().Bold(true)

	cursorStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(0, 1)

	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(lipgloss.Color("99")).
			PaddingLeft(1)

	phaseLabelStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
)

// badge colors follow the web dashboard palette
var badgeColors = map[documents.Status]lipgloss.Color{
	documents.StatusPendingUpload: lipgloss.Color("244"),
	documents.StatusProcessing:    lipgloss.Color("33"),
	documents.StatusExtracted:     lipgloss.Color("34"),
	documents.StatusSummarizing:   lipgloss.Color("93"),
	documents.StatusCompleted:     lipgloss.Color("36"),
	documents.StatusFailed:        lipgloss.Color("160"),
}

func badge(status documents.Status) string {
	color, ok := badgeColors[status]
	if !ok {
		color = badgeColors[documents.StatusPendingUpload]
	}
	icon := "✓"
	switch {
	case status == documents.StatusFailed:
		icon = "✗"
	case status.InFlight() || !status.Valid():
		icon = "…"
	}
	return lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("231")).
		Background(color).
		Padding(0, 1).
		Render(icon + " " + status.Label())
}

func noticeStyle(level lifecycle.Level) lipgloss.Style {
	switch level {
	case lifecycle.LevelSuccess:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	case lifecycle.LevelWarning:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	case lifecycle.LevelError:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	default:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	}
}
