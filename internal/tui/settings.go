package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/pdfsum/cli/config"
)

// SettingsView displays the active configuration and sign-in state
type SettingsView struct {
	app *App
}

// NewSettingsView creates a new settings view
func NewSettingsView(app *App) *SettingsView {
	return &SettingsView{app: app}
}

// View renders the settings view
func (sv *SettingsView) View() string {
	cfg := sv.app.cfg

	signedIn := "no (run pdfsum login)"
	if sv.app.session != nil && sv.app.session.IsAuthenticated() {
		signedIn = "yes"
	}

	rows := [][2]string{
		{"API", cfg.API.BaseURL},
		{"Timeout", cfg.API.Timeout.String()},
		{"Signed in", signedIn},
		{"Token file", cfg.Auth.TokenFile},
		{"Refresh after upload", cfg.Refresh.UploadDelay.String()},
		{"Log file", cfg.Log.File},
		{"Log level", cfg.Log.Level},
	}

	label := lipgloss.NewStyle().Width(22).Foreground(lipgloss.Color("39"))
	lines := []string{boldStyle.Render("Current Settings"), ""}
	for _, r := range rows {
		lines = append(lines, label.Render(r[0])+r[1])
	}
	lines = append(lines, "", helpStyle.Render("Edit "+config.Path()+" to change | Esc: Back"))
	return panelStyle.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}
