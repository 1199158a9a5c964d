package tui

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/pdfsum/cli/config"
	"github.com/pdfsum/cli/internal/api"
	"github.com/pdfsum/cli/internal/documents"
	"github.com/pdfsum/cli/internal/lifecycle"
	"github.com/pdfsum/cli/internal/session"
)

type stubTransport struct {
	mu             sync.Mutex
	docs           []documents.Document
	afterSummarize []documents.Document
	summarizeCalls int
}

func (s *stubTransport) RequestUploadURL(ctx context.Context, filename string) (*api.UploadTicket, error) {
	return &api.UploadTicket{UploadURL: "https://store/x", ID: "abc123"}, nil
}

func (s *stubTransport) UploadFile(ctx context.Context, uploadURL string, body io.Reader, size int64) error {
	_, err := io.Copy(io.Discard, body)
	return err
}

func (s *stubTransport) NotifySummarize(ctx context.Context, documentID string) (json.RawMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.summarizeCalls++
	if s.afterSummarize != nil {
		s.docs = s.afterSummarize
	}
	return json.RawMessage(`{}`), nil
}

func (s *stubTransport) ListDocuments(ctx context.Context) ([]documents.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return documents.CloneAll(s.docs), nil
}

type noopTimer struct{}

func (noopTimer) Stop() bool { return true }

func newTestApp(t *testing.T, tr *stubTransport, s session.Session) *App {
	t.Helper()
	return newTestAppWith(t, tr, s)
}

func newTestAppWith(t *testing.T, tr lifecycle.Transport, s session.Session) *App {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	orch := lifecycle.New(lifecycle.Options{
		Transport: tr,
		Inspector: documents.NewInspectorWithParser(func(string) (*documents.Preview, error) {
			return &documents.Preview{Pages: 3}, nil
		}),
		AfterFunc: func(time.Duration, func()) lifecycle.Timer { return noopTimer{} },
	})
	t.Cleanup(orch.Close)
	return NewApp(context.Background(), orch, config.Default(), s)
}

// run feeds msg through Update and resolves returned commands synchronously
func run(a *App, msg tea.Msg) {
	_, cmd := a.Update(msg)
	for cmd != nil {
		next := cmd()
		if next == nil {
			return
		}
		if _, ok := next.(tea.QuitMsg); ok {
			return
		}
		_, cmd = a.Update(next)
	}
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func initApp(a *App) {
	if cmd := a.Init(); cmd != nil {
		run(a, cmd())
	}
}

func TestInitLoadsDocuments(t *testing.T) {
	tr := &stubTransport{docs: []documents.Document{
		{ID: "a", Filename: "ready.pdf", Status: documents.StatusExtracted},
		{ID: "b", Filename: "busy.pdf", Status: documents.StatusProcessing},
	}}
	a := newTestApp(t, tr, session.NewStatic("tok"))
	initApp(a)

	view := a.View()
	for _, want := range []string{"ready.pdf", "Ready", "busy.pdf", "Processing", "Generate Summary"} {
		if !strings.Contains(view, want) {
			t.Fatalf("expected view to contain %q:\n%s", want, view)
		}
	}
}

func TestUnauthenticatedShowsSignIn(t *testing.T) {
	tr := &stubTransport{docs: []documents.Document{{ID: "a", Filename: "a.pdf", Status: documents.StatusExtracted}}}
	a := newTestApp(t, tr, session.Anonymous{})
	if cmd := a.Init(); cmd != nil {
		t.Fatalf("expected no command without a session")
	}
	if !strings.Contains(a.View(), "Not authenticated. Please sign in.") {
		t.Fatalf("expected sign-in notice:\n%s", a.View())
	}
}

func TestSummarizeThenOpenDetail(t *testing.T) {
	tr := &stubTransport{
		docs: []documents.Document{{ID: "a", Filename: "go.pdf", Status: documents.StatusExtracted}},
		afterSummarize: []documents.Document{{
			ID: "a", Filename: "go.pdf", Status: documents.StatusCompleted,
			Summary: &documents.Summary{Title: "Go Basics", Phase1: "core", Phase2: "concepts", Phase3: "takeaways", ReadingTimeMinutes: 4},
		}},
	}
	a := newTestApp(t, tr, session.NewStatic("tok"))
	initApp(a)

	run(a, key("s"))
	if tr.summarizeCalls != 1 {
		t.Fatalf("expected one summarize call, got %d", tr.summarizeCalls)
	}
	view := a.View()
	if !strings.Contains(view, "Summary generated successfully!") || !strings.Contains(view, "4 min read") {
		t.Fatalf("expected success notice and summary card:\n%s", view)
	}

	run(a, key("enter"))
	if a.page != pageDetail {
		t.Fatalf("expected detail page")
	}
	view = a.View()
	for _, want := range []string{"Go Basics", "Core Message", "Main Concepts", "Practical Takeaways", "takeaways", "go.pdf"} {
		if !strings.Contains(view, want) {
			t.Fatalf("expected detail to contain %q:\n%s", want, view)
		}
	}

	run(a, key("esc"))
	if a.page != pageDocuments {
		t.Fatalf("expected esc to close detail")
	}
	if _, ok := a.orch.Selected(); ok {
		t.Fatalf("closing detail should deselect")
	}
}

func TestSummarizeNotReadyShowsWarning(t *testing.T) {
	tr := &stubTransport{docs: []documents.Document{{ID: "b", Filename: "busy.pdf", Status: documents.StatusProcessing}}}
	a := newTestApp(t, tr, session.NewStatic("tok"))
	initApp(a)

	run(a, key("s"))
	if tr.summarizeCalls != 0 {
		t.Fatalf("expected no summarize call")
	}
	if !strings.Contains(a.View(), "Document is not ready. Status: processing") {
		t.Fatalf("expected not-ready warning:\n%s", a.View())
	}

	run(a, key("enter"))
	if a.page != pageDocuments {
		t.Fatalf("document without summary must not open detail")
	}
}

func TestChooseAndUpload(t *testing.T) {
	tr := &stubTransport{}
	a := newTestApp(t, tr, session.NewStatic("tok"))
	dir := t.TempDir()
	path := filepath.Join(dir, "report.pdf")
	if err := os.WriteFile(path, []byte("%PDF-1.4\n%%EOF\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	run(a, key("o"))
	if !a.documentsView.prompting {
		t.Fatalf("expected path prompt")
	}
	run(a, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(path)})
	run(a, key("enter"))

	st := a.orch.Snapshot()
	if st.Candidate == nil || st.Candidate.Name != "report.pdf" {
		t.Fatalf("expected candidate, got %+v", st.Candidate)
	}
	view := a.View()
	if !strings.Contains(view, "report.pdf") || !strings.Contains(view, "0.00 MB") || !strings.Contains(view, "3 pages") {
		t.Fatalf("expected candidate preview:\n%s", view)
	}

	run(a, key("u"))
	if a.orch.Snapshot().Candidate != nil {
		t.Fatalf("candidate should be cleared after upload")
	}
	if !strings.Contains(a.View(), "Upload successful! Document ID: abc123") {
		t.Fatalf("expected upload notice:\n%s", a.View())
	}
}

func TestDroppedNonPDFIsRejected(t *testing.T) {
	tr := &stubTransport{}
	a := newTestApp(t, tr, session.NewStatic("tok"))
	path := filepath.Join(t.TempDir(), "my notes.txt")
	if err := os.WriteFile(path, []byte("hello"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	run(a, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("'" + path + "'"), Paste: true})
	if a.orch.Snapshot().Candidate != nil {
		t.Fatalf("non-PDF must not become a candidate")
	}
	if !strings.Contains(a.View(), "Please upload a PDF file") {
		t.Fatalf("expected rejection notice:\n%s", a.View())
	}
}

func TestDetailClosesWhenDocumentVanishes(t *testing.T) {
	tr := &stubTransport{docs: []documents.Document{{
		ID: "a", Filename: "a.pdf", Status: documents.StatusCompleted,
		Summary: &documents.Summary{Title: "A", ReadingTimeMinutes: 1},
	}}}
	a := newTestApp(t, tr, session.NewStatic("tok"))
	initApp(a)
	run(a, key("enter"))
	if a.page != pageDetail {
		t.Fatalf("expected detail page")
	}

	tr.mu.Lock()
	tr.docs = nil
	tr.mu.Unlock()
	run(a, key("r"))
	if a.page != pageDocuments {
		t.Fatalf("expected detail to close once the document is gone")
	}
}

func TestSettingsPageIgnoresListKeys(t *testing.T) {
	tr := &stubTransport{docs: []documents.Document{{ID: "a", Filename: "a.pdf", Status: documents.StatusExtracted}}}
	a := newTestApp(t, tr, session.NewStatic("tok"))
	initApp(a)

	run(a, key("c"))
	if !strings.Contains(a.View(), "Current Settings") {
		t.Fatalf("expected settings page:\n%s", a.View())
	}
	if _, cmd := a.Update(key("s")); cmd != nil {
		t.Fatalf("settings page should not trigger commands")
	}
	if tr.summarizeCalls != 0 {
		t.Fatalf("expected no summarize from settings page")
	}
	run(a, key("esc"))
	if !strings.Contains(a.View(), "Your Documents") {
		t.Fatalf("expected documents page after esc:\n%s", a.View())
	}
}

func TestSummarizeKeyIgnoredWhileInFlight(t *testing.T) {
	tr := &blockingSummarize{
		stubTransport: stubTransport{docs: []documents.Document{{ID: "a", Filename: "a.pdf", Status: documents.StatusExtracted}}},
		entered:       make(chan struct{}),
		release:       make(chan struct{}),
	}
	a := newTestAppWith(t, tr, session.NewStatic("tok"))
	initApp(a)

	_, cmd := a.Update(key("s"))
	if cmd == nil {
		t.Fatalf("expected summarize command")
	}
	done := make(chan tea.Msg, 1)
	go func() { done <- cmd() }()
	<-tr.entered

	if !strings.Contains(a.View(), "Generating...") {
		t.Fatalf("expected in-flight marker:\n%s", a.View())
	}
	if _, again := a.Update(key("s")); again != nil {
		t.Fatalf("second press should be ignored while in flight")
	}
	close(tr.release)
	run(a, <-done)
	if tr.summarizeCalls != 1 {
		t.Fatalf("expected one summarize call, got %d", tr.summarizeCalls)
	}
}

// blockingSummarize holds NotifySummarize until release is closed
type blockingSummarize struct {
	stubTransport
	release chan struct{}
	entered chan struct{}
	once    sync.Once
}

func (b *blockingSummarize) NotifySummarize(ctx context.Context, documentID string) (json.RawMessage, error) {
	b.once.Do(func() { close(b.entered) })
	<-b.release
	return b.stubTransport.NotifySummarize(ctx, documentID)
}

func TestQuit(t *testing.T) {
	a := newTestApp(t, &stubTransport{}, session.NewStatic("tok"))
	_, cmd := a.Update(key("q"))
	if cmd == nil {
		t.Fatalf("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatalf("expected QuitMsg")
	}
}

func TestNormalizeDroppedPath(t *testing.T) {
	home, _ := os.UserHomeDir()
	cases := map[string]string{
		"  /tmp/a.pdf \n":          "/tmp/a.pdf",
		"'/tmp/my file.pdf'":       "/tmp/my file.pdf",
		`"/tmp/my file.pdf"`:       "/tmp/my file.pdf",
		`/tmp/my\ file.pdf`:        "/tmp/my file.pdf",
		"file:///tmp/my%20doc.pdf": "/tmp/my doc.pdf",
		"~/docs/a.pdf":             filepath.Join(home, "docs", "a.pdf"),
	}
	for in, want := range cases {
		if got := normalizeDroppedPath(in); got != want {
			t.Fatalf("normalizeDroppedPath(%q)=%q want %q", in, got, want)
		}
	}
}
