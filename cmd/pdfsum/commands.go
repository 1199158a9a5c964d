package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/pdfsum/cli/config"
	"github.com/pdfsum/cli/internal/documents"
	"github.com/pdfsum/cli/internal/lifecycle"
	"github.com/pdfsum/cli/internal/session"
)

var phaseHeadings = [3]string{"Core Message", "Main Concepts", "Practical Takeaways"}

func runHeadless(ctx context.Context, orch *lifecycle.Orchestrator, cmd string, args []string, stdout, stderr io.Writer) int {
	var err error
	switch cmd {
	case "list":
		err = listDocuments(ctx, orch, stdout)
	case "upload":
		if len(args) != 1 {
			fmt.Fprintln(stderr, "usage: pdfsum upload <file>")
			return 2
		}
		err = uploadFile(ctx, orch, args[0], stdout)
	case "summarize":
		if len(args) != 1 {
			fmt.Fprintln(stderr, "usage: pdfsum summarize <id>")
			return 2
		}
		err = summarizeDocument(ctx, orch, args[0], stdout)
	case "show":
		if len(args) != 1 {
			fmt.Fprintln(stderr, "usage: pdfsum show <id>")
			return 2
		}
		err = showDocument(ctx, orch, args[0], stdout)
	}
	if err != nil {
		fmt.Fprintf(stderr, "Error: %s\n", lifecycle.UserMessage(err))
		return 1
	}
	return 0
}

func listDocuments(ctx context.Context, orch *lifecycle.Orchestrator, w io.Writer) error {
	if err := orch.Refresh(ctx); err != nil {
		return err
	}
	docs := orch.Snapshot().Documents
	if len(docs) == 0 {
		fmt.Fprintln(w, "No documents yet. Upload your first PDF!")
		return nil
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("ID", "FILE", "STATUS", "SUMMARY")
	for _, d := range docs {
		title := ""
		if d.HasSummary() {
			title = fmt.Sprintf("%s (%d min read)", d.Summary.Title, d.Summary.ReadingTimeMinutes)
		}
		t.Row(d.ID, d.Filename, d.Status.Label(), title)
	}
	fmt.Fprintln(w, t.Render())
	return nil
}

func uploadFile(ctx context.Context, orch *lifecycle.Orchestrator, path string, w io.Writer) error {
	cand, err := orch.ChooseFile(path)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Uploading %s (%.2f MB)...\n", cand.Name, cand.SizeMB())

	id, err := orch.Upload(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintln(w, lifecycle.UploadedNotice(id).Text)
	return nil
}

func summarizeDocument(ctx context.Context, orch *lifecycle.Orchestrator, id string, w io.Writer) error {
	// eligibility is checked against the server's current view
	if err := orch.Refresh(ctx); err != nil {
		return err
	}
	if err := orch.Summarize(ctx, id); err != nil {
		return err
	}
	fmt.Fprintln(w, lifecycle.SummarizedNotice().Text)

	orch.Select(id)
	if doc, ok := orch.SelectedSummary(); ok {
		fmt.Fprintln(w)
		printSummary(w, doc)
		return nil
	}
	if doc, ok := orch.Selected(); ok {
		fmt.Fprintf(w, "Status: %s. Run `pdfsum show %s` later.\n", doc.Status.Label(), id)
	}
	return nil
}

func showDocument(ctx context.Context, orch *lifecycle.Orchestrator, id string, w io.Writer) error {
	if err := orch.Refresh(ctx); err != nil {
		return err
	}
	orch.Select(id)
	doc, ok := orch.Selected()
	if !ok {
		return fmt.Errorf("document not found: %s", id)
	}
	if !doc.HasSummary() {
		fmt.Fprintf(w, "%s  %s\nNo summary available yet.\n", doc.Filename, doc.Status.Label())
		return nil
	}
	printSummary(w, doc)
	return nil
}

func printSummary(w io.Writer, doc documents.Document) {
	s := doc.Summary
	fmt.Fprintf(w, "%s\n%d min read · %s\n", s.Title, s.ReadingTimeMinutes, doc.Filename)
	for i, text := range []string{s.Phase1, s.Phase2, s.Phase3} {
		fmt.Fprintf(w, "\nPhase %d  %s\n%s\n", i+1, phaseHeadings[i], text)
	}
}

func runLogin(cfg *config.Config, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	token := ""
	if len(args) > 0 {
		token = args[0]
	} else {
		fmt.Fprint(stderr, "Paste your access token: ")
		line, err := bufio.NewReader(stdin).ReadString('\n')
		if err != nil && err != io.EOF {
			fmt.Fprintf(stderr, "Error reading token: %v\n", err)
			return 1
		}
		token = line
	}
	token = strings.TrimSpace(token)
	if token == "" {
		fmt.Fprintln(stderr, "Error: empty token")
		return 1
	}

	fileSession := session.NewFileSession(cfg.Auth.TokenFile)
	if err := fileSession.Store(token); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	fmt.Fprintf(stdout, "Signed in. Token stored in %s\n", fileSession.Path())
	return 0
}

func runLogout(cfg *config.Config, stdout, stderr io.Writer) int {
	if err := session.NewFileSession(cfg.Auth.TokenFile).Clear(); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	fmt.Fprintln(stdout, "Signed out.")
	return 0
}
