package tui

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/pdfsum/cli/config"
	"github.com/pdfsum/cli/internal/lifecycle"
	"github.com/pdfsum/cli/internal/session"
)

type page int

const (
	pageDocuments page = iota
	pageDetail
	pageSettings
)

// App is the root bubbletea model. It routes keys to the active view and turns
// async results into notices.
type App struct {
	ctx     context.Context
	orch    *lifecycle.Orchestrator
	cfg     *config.Config
	session session.Session

	page   page
	width  int
	height int
	notice *lifecycle.Notice

	// Views
	documentsView *DocumentsView
	detailView    *DetailView
	settingsView  *SettingsView
}

// NewApp creates the TUI model around an orchestrator
func NewApp(ctx context.Context, orch *lifecycle.Orchestrator, cfg *config.Config, s session.Session) *App {
	if cfg == nil {
		cfg = config.Default()
	}
	app := &App{
		ctx:     ctx,
		orch:    orch,
		cfg:     cfg,
		session: s,
		width:   80,
		height:  24,
	}
	app.documentsView = NewDocumentsView(app)
	app.detailView = NewDetailView(app)
	app.settingsView = NewSettingsView(app)
	return app
}

// Run starts the TUI and blocks until the user quits. The orchestrator is closed on exit.
func Run(ctx context.Context, orch *lifecycle.Orchestrator, cfg *config.Config, s session.Session) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	app := NewApp(ctx, orch, cfg, s)
	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(ctx))
	orch.SetOnChange(func() { p.Send(stateChangedMsg{}) })
	defer orch.Close()

	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}

// Init loads the collection
func (a *App) Init() tea.Cmd {
	if a.session == nil || !a.session.IsAuthenticated() {
		a.setNotice(lifecycle.ErrorNotice(session.ErrUnauthenticated))
		return nil
	}
	return a.refreshCmd()
}

// Update handles updates
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		return a, nil
	case tea.KeyMsg:
		cmd = a.handleKey(msg)
	case refreshedMsg:
		if msg.err != nil && !errors.Is(msg.err, lifecycle.ErrClosed) {
			a.setNotice(lifecycle.ErrorNotice(msg.err))
		}
	case fileChosenMsg:
		if msg.err != nil {
			a.setNotice(lifecycle.ErrorNotice(msg.err))
		} else {
			a.notice = nil
		}
	case uploadedMsg:
		if msg.err != nil {
			a.setNotice(lifecycle.ErrorNotice(msg.err))
		} else {
			a.setNotice(lifecycle.UploadedNotice(msg.id))
		}
	case summarizedMsg:
		if msg.err != nil {
			a.setNotice(lifecycle.ErrorNotice(msg.err))
		} else {
			a.setNotice(lifecycle.SummarizedNotice())
		}
	case stateChangedMsg:
	}

	a.documentsView.clampCursor()
	// the selected document can vanish on any refresh
	if a.page == pageDetail {
		if _, ok := a.orch.SelectedSummary(); !ok {
			a.page = pageDocuments
		}
	}
	return a, cmd
}

func (a *App) handleKey(msg tea.KeyMsg) tea.Cmd {
	if msg.Type == tea.KeyCtrlC {
		return tea.Quit
	}
	// the path prompt swallows everything else, including q
	if a.page == pageDocuments && a.documentsView.prompting {
		return a.documentsView.Update(msg)
	}

	switch msg.String() {
	case "q":
		return tea.Quit
	case "c":
		if a.page == pageSettings {
			a.page = pageDocuments
		} else {
			a.page = pageSettings
		}
		return nil
	case "esc":
		switch a.page {
		case pageDetail:
			a.orch.Deselect()
			a.page = pageDocuments
			return nil
		case pageSettings:
			a.page = pageDocuments
			return nil
		}
		a.notice = nil
		return nil
	}

	switch a.page {
	case pageDetail:
		return a.detailView.Update(msg)
	case pageSettings:
		// read-only page; only the global keys above apply
		return nil
	default:
		return a.documentsView.Update(msg)
	}
}

// View renders the active page
func (a *App) View() string {
	var body string
	switch a.page {
	case pageDetail:
		body = a.detailView.View()
	case pageSettings:
		body = a.settingsView.View()
	default:
		body = a.documentsView.View()
	}

	lines := []string{titleStyle.Render("PDF Summarizer"), ""}
	if a.notice != nil {
		lines = append(lines, noticeStyle(a.notice.Level).Render(a.notice.Text), "")
	}
	lines = append(lines, body)
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func (a *App) setNotice(n lifecycle.Notice) {
	a.notice = &n
}

func (a *App) openDetail(documentID string) bool {
	a.orch.Select(documentID)
	if _, ok := a.orch.SelectedSummary(); !ok {
		a.orch.Deselect()
		return false
	}
	a.page = pageDetail
	return true
}

func (a *App) refreshCmd() tea.Cmd {
	return func() tea.Msg {
		return refreshedMsg{err: a.orch.Refresh(a.ctx)}
	}
}

func (a *App) chooseCmd(path string) tea.Cmd {
	return func() tea.Msg {
		c, err := a.orch.ChooseFile(path)
		return fileChosenMsg{candidate: c, err: err}
	}
}

func (a *App) uploadCmd() tea.Cmd {
	return func() tea.Msg {
		id, err := a.orch.Upload(a.ctx)
		return uploadedMsg{id: id, err: err}
	}
}

func (a *App) summarizeCmd(documentID string) tea.Cmd {
	return func() tea.Msg {
		return summarizedMsg{id: documentID, err: a.orch.Summarize(a.ctx, documentID)}
	}
}
