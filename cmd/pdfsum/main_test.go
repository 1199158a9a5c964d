package main

import (
	"bytes"
	"context"
	"net/http/httptest"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/pdfsum/cli/config"
	"github.com/pdfsum/cli/internal/mockapi"
)

type cli struct {
	t       *testing.T
	baseURL string
	cfgPath string
}

func (c cli) run(stdin string, args ...string) (int, string, string) {
	c.t.Helper()
	var stdout, stderr bytes.Buffer
	full := append([]string{"-config", c.cfgPath, "-api", c.baseURL}, args...)
	code := run(context.Background(), full, strings.NewReader(stdin), &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func newCLI(t *testing.T) cli {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	for _, k := range []string{config.EnvBaseURL, config.EnvToken, config.EnvTokenFile, config.EnvLogLevel} {
		t.Setenv(k, "")
	}

	gin.SetMode(gin.TestMode)
	backend := mockapi.NewServer(mockapi.Options{
		Token: "tok",
		Extract: func(data []byte) (*mockapi.Extraction, error) {
			return &mockapi.Extraction{Text: "Field Guide\nBirds sing. Trees grow. Rivers flow.", Pages: 1}, nil
		},
	})
	ts := httptest.NewServer(backend.Handler())
	t.Cleanup(func() {
		ts.Close()
		backend.Close()
	})
	return cli{t: t, baseURL: ts.URL, cfgPath: filepath.Join(t.TempDir(), "config.yaml")}
}

var idPattern = regexp.MustCompile(`Document ID: (\S+)`)

func TestHeadlessLifecycle(t *testing.T) {
	c := newCLI(t)

	code, _, stderr := c.run("", "list")
	if code != 1 || !strings.Contains(stderr, "Not authenticated. Please sign in.") {
		t.Fatalf("expected unauthenticated failure, got code=%d stderr=%s", code, stderr)
	}

	if code, out, _ := c.run("tok\n", "login"); code != 0 || !strings.Contains(out, "Signed in") {
		t.Fatalf("login failed: code=%d out=%s", code, out)
	}

	code, out, _ := c.run("", "list")
	if code != 0 || !strings.Contains(out, "No documents yet") {
		t.Fatalf("expected empty list, got code=%d out=%s", code, out)
	}

	pdf := filepath.Join(t.TempDir(), "guide.pdf")
	if err := os.WriteFile(pdf, []byte("%PDF-1.4\n%%EOF\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	code, out, stderr = c.run("", "upload", pdf)
	if code != 0 {
		t.Fatalf("upload failed: %s", stderr)
	}
	m := idPattern.FindStringSubmatch(out)
	if m == nil {
		t.Fatalf("expected document id in output: %s", out)
	}
	id := m[1]

	code, out, _ = c.run("", "list")
	if code != 0 || !strings.Contains(out, "guide.pdf") || !strings.Contains(out, "Ready") {
		t.Fatalf("expected extracted document in list: %s", out)
	}

	code, out, stderr = c.run("", "summarize", id)
	if code != 0 {
		t.Fatalf("summarize failed: %s", stderr)
	}
	if !strings.Contains(out, "Summary generated successfully!") || !strings.Contains(out, "Field Guide") {
		t.Fatalf("unexpected summarize output: %s", out)
	}

	code, out, _ = c.run("", "show", id)
	if code != 0 || !strings.Contains(out, "Core Message") || !strings.Contains(out, "Practical Takeaways") {
		t.Fatalf("unexpected show output: %s", out)
	}

	code, _, stderr = c.run("", "summarize", id)
	if code != 1 || !strings.Contains(stderr, "Document is not ready. Status: completed") {
		t.Fatalf("expected local rejection, got code=%d stderr=%s", code, stderr)
	}

	if code, out, _ := c.run("", "logout"); code != 0 || !strings.Contains(out, "Signed out") {
		t.Fatalf("logout failed: %s", out)
	}
	if code, _, _ := c.run("", "list"); code != 1 {
		t.Fatalf("expected list to fail after logout")
	}
}

func TestUploadRejectsNonPDF(t *testing.T) {
	c := newCLI(t)
	if code, _, _ := c.run("", "login", "tok"); code != 0 {
		t.Fatalf("login failed")
	}
	txt := filepath.Join(t.TempDir(), "notes.pdf")
	if err := os.WriteFile(txt, []byte("just some text"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	code, _, stderr := c.run("", "upload", txt)
	if code != 1 || !strings.Contains(stderr, "Please upload a PDF file") {
		t.Fatalf("expected rejection, got code=%d stderr=%s", code, stderr)
	}
}

func TestUsageErrors(t *testing.T) {
	c := newCLI(t)
	if code, _, _ := c.run("", "frobnicate"); code != 2 {
		t.Fatalf("expected usage error for unknown command")
	}
	if code, _, _ := c.run("", "upload"); code != 2 {
		t.Fatalf("expected usage error for missing file")
	}
	if code, _, _ := c.run("", "login", "   "); code != 1 {
		t.Fatalf("expected empty token to be rejected")
	}
}
