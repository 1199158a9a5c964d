package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestFileWritesJSONLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "pdfsum.log")
	logger, closer, err := File(path, zerolog.InfoLevel)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	logger.Debug().Msg("hidden")
	logger.Info().Str("document_id", "abc").Msg("uploaded")
	if err := closer.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected one line, got %d: %s", len(lines), data)
	}
	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("not json: %v", err)
	}
	if entry["document_id"] != "abc" || entry["message"] != "uploaded" || entry["time"] == nil {
		t.Fatalf("unexpected entry %v", entry)
	}
}

func TestConsoleRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := Console(&buf, zerolog.WarnLevel)
	logger.Info().Msg("quiet")
	logger.Warn().Msg("loud")
	if strings.Contains(buf.String(), "quiet") || !strings.Contains(buf.String(), "loud") {
		t.Fatalf("unexpected output %q", buf.String())
	}
}
