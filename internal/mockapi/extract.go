package mockapi

import (
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gen2brain/go-fitz"

	"github.com/pdfsum/cli/internal/documents"
)

const (
	wordsPerMinute = 200
	maxTitleLen    = 80
)

var errNoText = errors.New("no extractable text")

// Extraction is the text pulled out of an uploaded PDF
type Extraction struct {
	Text  string
	Pages int
}

// ExtractFunc turns uploaded bytes into text
type ExtractFunc func(data []byte) (*Extraction, error)

// ExtractPDF sniffs the body and reads every page's text with MuPDF
func ExtractPDF(data []byte) (*Extraction, error) {
	if mtype := mimetype.Detect(data); mtype.String() != documents.MIMETypePDF {
		return nil, fmt.Errorf("unsupported content %s", mtype.String())
	}

	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer doc.Close()

	var sb strings.Builder
	for i := 0; i < doc.NumPage(); i++ {
		text, err := doc.Text(i)
		if err != nil {
			continue
		}
		sb.WriteString(text)
		sb.WriteString("\n")
	}
	text := strings.TrimSpace(sb.String())
	if text == "" {
		return nil, errNoText
	}
	return &Extraction{Text: text, Pages: doc.NumPage()}, nil
}

// BuildSummary produces a three-phase reading guide from extracted text.
// Sentences are split evenly across the phases in document order.
func BuildSummary(filename, text string) documents.Summary {
	words := strings.Fields(text)
	minutes := int(math.Ceil(float64(len(words)) / wordsPerMinute))
	if minutes < 1 {
		minutes = 1
	}

	sentences := splitSentences(strings.Join(words, " "))
	var phases [3]string
	if len(sentences) > 0 {
		per := int(math.Ceil(float64(len(sentences)) / 3))
		for i := range phases {
			lo := i * per
			if lo >= len(sentences) {
				break
			}
			hi := min(lo+per, len(sentences))
			phases[i] = strings.Join(sentences[lo:hi], " ")
		}
	}
	fallback := [3]string{
		"Skim the document to find its core argument.",
		"Work through the key concepts section by section.",
		"Note the conclusions and how they apply to you.",
	}
	for i := range phases {
		if phases[i] == "" {
			phases[i] = fallback[i]
		}
	}

	return documents.Summary{
		Title:              summaryTitle(filename, text),
		Phase1:             phases[0],
		Phase2:             phases[1],
		Phase3:             phases[2],
		ReadingTimeMinutes: minutes,
	}
}

func summaryTitle(filename, text string) string {
	for _, line := range strings.Split(text, "\n") {
		line = strings.Join(strings.Fields(line), " ")
		if line == "" {
			continue
		}
		if len(line) > maxTitleLen {
			line = strings.TrimSpace(line[:maxTitleLen]) + "..."
		}
		return line
	}
	return strings.TrimSuffix(filename, filepath.Ext(filename))
}

func splitSentences(text string) []string {
	var out []string
	start := 0
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '.', '!', '?':
			if i+1 == len(text) || text[i+1] == ' ' {
				if s := strings.TrimSpace(text[start : i+1]); s != "" {
					out = append(out, s)
				}
				start = i + 1
			}
		}
	}
	if s := strings.TrimSpace(text[start:]); s != "" {
		out = append(out, s)
	}
	return out
}
