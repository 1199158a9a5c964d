package tui

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/pdfsum/cli/internal/documents"
	"github.com/pdfsum/cli/internal/lifecycle"
)

const maxPhasePreview = 160

// DocumentsView shows the upload panel and the document list
type DocumentsView struct {
	app       *App
	cursor    int
	prompting bool
	input     []rune
}

// NewDocumentsView creates a new documents view
func NewDocumentsView(app *App) *DocumentsView {
	return &DocumentsView{app: app}
}

// Update handles keys for the list and the path prompt
func (dv *DocumentsView) Update(msg tea.KeyMsg) tea.Cmd {
	if dv.prompting {
		return dv.updatePrompt(msg)
	}

	// terminals deliver a dropped file as a pasted path
	if msg.Paste {
		return dv.app.chooseCmd(normalizeDroppedPath(string(msg.Runes)))
	}

	st := dv.app.orch.Snapshot()
	docs := st.Documents
	switch msg.String() {
	case "j", "down":
		if dv.cursor < len(docs)-1 {
			dv.cursor++
		}
	case "k", "up":
		if dv.cursor > 0 {
			dv.cursor--
		}
	case "o", "a":
		dv.prompting = true
		dv.input = dv.input[:0]
	case "x":
		dv.app.orch.ClearCandidate()
	case "u":
		return dv.app.uploadCmd()
	case "r":
		return dv.app.refreshCmd()
	case "s":
		if doc, ok := dv.current(docs); ok && !st.Summarizing[doc.ID] {
			return dv.app.summarizeCmd(doc.ID)
		}
	case "enter":
		if doc, ok := dv.current(docs); ok && !dv.app.openDetail(doc.ID) {
			dv.app.setNotice(lifecycle.Notice{Level: lifecycle.LevelInfo, Text: "No summary available for " + doc.Filename})
		}
	}
	return nil
}

func (dv *DocumentsView) updatePrompt(msg tea.KeyMsg) tea.Cmd {
	switch msg.Type {
	case tea.KeyEsc:
		dv.prompting = false
		dv.input = dv.input[:0]
	case tea.KeyEnter:
		path := normalizeDroppedPath(string(dv.input))
		dv.prompting = false
		dv.input = dv.input[:0]
		if path == "" {
			return nil
		}
		return dv.app.chooseCmd(path)
	case tea.KeyBackspace:
		if len(dv.input) > 0 {
			dv.input = dv.input[:len(dv.input)-1]
		}
	case tea.KeySpace:
		dv.input = append(dv.input, ' ')
	case tea.KeyRunes:
		dv.input = append(dv.input, msg.Runes...)
	}
	return nil
}

func (dv *DocumentsView) current(docs []documents.Document) (documents.Document, bool) {
	if dv.cursor < 0 || dv.cursor >= len(docs) {
		return documents.Document{}, false
	}
	return docs[dv.cursor], true
}

func (dv *DocumentsView) clampCursor() {
	n := len(dv.app.orch.Snapshot().Documents)
	if dv.cursor >= n {
		dv.cursor = n - 1
	}
	if dv.cursor < 0 {
		dv.cursor = 0
	}
}

// View renders the documents view
func (dv *DocumentsView) View() string {
	st := dv.app.orch.Snapshot()
	lines := []string{dv.uploadPanel(st), ""}

	header := boldStyle.Render("Your Documents")
	if st.Loading {
		header += mutedStyle.Render("  refreshing...")
	}
	lines = append(lines, header, "")

	if len(st.Documents) == 0 {
		lines = append(lines, mutedStyle.Render("No documents yet. Upload your first PDF!"))
	}
	for i, doc := range st.Documents {
		lines = append(lines, dv.row(doc, i == dv.cursor, st.Summarizing[doc.ID]))
	}

	lines = append(lines, "")
	help := "j/k: Navigate | o: Choose PDF | u: Upload | s: Generate Summary | Enter: View | r: Refresh | c: Settings | q: Quit"
	if dv.prompting {
		help = "Enter: Select file | Esc: Cancel"
	}
	lines = append(lines, helpStyle.Render(help))
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func (dv *DocumentsView) uploadPanel(st lifecycle.State) string {
	var lines []string
	switch {
	case dv.prompting:
		lines = append(lines,
			boldStyle.Render("Drop a PDF here or type its path"),
			"> "+string(dv.input)+"█",
		)
	case st.Candidate != nil:
		c := st.Candidate
		info := fmt.Sprintf("%s  %.2f MB", c.Name, c.SizeMB())
		if c.Pages > 0 {
			info += fmt.Sprintf("  %d pages", c.Pages)
		}
		lines = append(lines, boldStyle.Render(info))
		if c.Excerpt != "" {
			lines = append(lines, mutedStyle.Render(truncate(c.Excerpt, maxPhasePreview)))
		}
		if st.Uploading {
			lines = append(lines, mutedStyle.Render("Uploading..."))
		} else {
			lines = append(lines, helpStyle.Render("u: Upload & Process | x: Clear"))
		}
	default:
		lines = append(lines,
			boldStyle.Render("Upload a PDF"),
			mutedStyle.Render("Drop a file into the terminal or press o to type a path"),
		)
	}
	return panelStyle.Width(dv.app.width - 4).Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

func (dv *DocumentsView) row(doc documents.Document, selected, summarizing bool) string {
	marker := "  "
	name := doc.Filename
	if selected {
		marker = cursorStyle.Render("> ")
		name = cursorStyle.Render(name)
	}
	line := marker + name + "  " + badge(doc.Status)
	switch {
	case summarizing:
		line += mutedStyle.Render("  Generating...")
	case doc.Status.CanSummarize():
		line += helpStyle.Render("  [s] Generate Summary")
	}
	if !doc.HasSummary() {
		return line
	}

	s := doc.Summary
	card := lipgloss.JoinVertical(lipgloss.Left,
		boldStyle.Render(s.Title)+mutedStyle.Render(fmt.Sprintf("  %d min read", s.ReadingTimeMinutes)),
		truncate(s.Phase1, maxPhasePreview),
	)
	return lipgloss.JoinVertical(lipgloss.Left, line, "    "+cardStyle.Render(card))
}

// normalizeDroppedPath turns what a terminal pastes on file drop into a path.
// Terminals quote it, shell-escape spaces, or send a file:// URL.
func normalizeDroppedPath(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && (s[0] == '\'' || s[0] == '"') && s[len(s)-1] == s[0] {
		s = s[1 : len(s)-1]
	}
	if strings.HasPrefix(s, "file://") {
		if u, err := url.Parse(s); err == nil {
			s = u.Path
		}
	}
	s = strings.ReplaceAll(s, `\ `, " ")
	if strings.HasPrefix(s, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			s = filepath.Join(home, s[2:])
		}
	}
	return s
}

func truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
