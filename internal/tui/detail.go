package tui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var phaseHeadings = [3]string{"Core Message", "Main Concepts", "Practical Takeaways"}

// DetailView renders the full summary of the selected document
type DetailView struct {
	app *App
}

// NewDetailView creates a new detail view
func NewDetailView(app *App) *DetailView {
	return &DetailView{app: app}
}

// Update handles keys on the detail page
func (v *DetailView) Update(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "backspace", "enter":
		v.app.orch.Deselect()
		v.app.page = pageDocuments
	case "r":
		return v.app.refreshCmd()
	}
	return nil
}

// View renders the detail view. Nothing is shown when the selection has no summary.
func (v *DetailView) View() string {
	doc, ok := v.app.orch.SelectedSummary()
	if !ok {
		return ""
	}
	s := doc.Summary

	width := v.app.width - 6
	if width < 20 {
		width = 20
	}
	body := lipgloss.NewStyle().Width(width)

	meta := fmt.Sprintf("%d min read  ·  %s", s.ReadingTimeMinutes, doc.Filename)
	if at, ok := doc.CompletedTime(); ok {
		meta += "  ·  " + at.Local().Format("Jan 2, 2006 15:04")
	}
	lines := []string{
		boldStyle.Render(s.Title),
		mutedStyle.Render(meta),
		"",
	}
	for i, text := range []string{s.Phase1, s.Phase2, s.Phase3} {
		lines = append(lines,
			phaseLabelStyle.Render(fmt.Sprintf("Phase %d  %s", i+1, phaseHeadings[i])),
			body.Render(text),
			"",
		)
	}
	lines = append(lines, helpStyle.Render("Esc: Close | r: Refresh | q: Quit"))
	return panelStyle.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}
