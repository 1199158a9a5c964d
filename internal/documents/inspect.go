package documents

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gen2brain/go-fitz"
)

// MIMETypePDF is the only content type accepted for upload
const MIMETypePDF = "application/pdf"

const excerptLen = 240

var (
	ErrNotPDF    = errors.New("please upload a PDF file")
	ErrEmptyFile = errors.New("file is empty")
	ErrNotFile   = errors.New("not a regular file")
)

// Candidate is a local file chosen for upload
type Candidate struct {
	Path     string
	Name     string
	Size     int64
	MIMEType string
	Pages    int
	Excerpt  string
}

// SizeMB returns the size in megabytes, as shown in the upload preview
func (c *Candidate) SizeMB() float64 {
	return float64(c.Size) / 1024 / 1024
}

// Open returns the file body for the storage upload
func (c *Candidate) Open() (io.ReadCloser, error) {
	f, err := os.Open(c.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", c.Name, err)
	}
	return f, nil
}

// Preview holds what a PDF parser could learn about a candidate
type Preview struct {
	Pages   int
	Excerpt string
}

// Inspector validates and previews local files before upload
type Inspector struct {
	parse func(filePath string) (*Preview, error)
}

// NewInspector creates an inspector backed by MuPDF
func NewInspector() *Inspector {
	return &Inspector{parse: parsePDF}
}

// NewInspectorWithParser creates an inspector with a custom preview parser
func NewInspectorWithParser(parse func(filePath string) (*Preview, error)) *Inspector {
	return &Inspector{parse: parse}
}

// Inspect checks that filePath is a non-empty PDF and builds a Candidate.
// The content type is sniffed from the bytes, not taken from the extension.
func (in *Inspector) Inspect(filePath string) (*Candidate, error) {
	filePath = strings.TrimSpace(filePath)
	info, err := os.Stat(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}
	if !info.Mode().IsRegular() {
		return nil, ErrNotFile
	}
	if info.Size() == 0 {
		return nil, ErrEmptyFile
	}

	mtype, err := mimetype.DetectFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to detect file type: %w", err)
	}
	if mtype.String() != MIMETypePDF {
		return nil, ErrNotPDF
	}

	c := &Candidate{
		Path:     filePath,
		Name:     filepath.Base(filePath),
		Size:     info.Size(),
		MIMEType: mtype.String(),
	}

	// The server does the real extraction; a local parse failure only costs the preview.
	if in.parse != nil {
		if preview, err := in.parse(filePath); err == nil && preview != nil {
			c.Pages = preview.Pages
			c.Excerpt = preview.Excerpt
		}
	}
	return c, nil
}

// parsePDF counts pages and takes a short excerpt of the first page with text
func parsePDF(filePath string) (*Preview, error) {
	doc, err := fitz.New(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer doc.Close()

	preview := &Preview{Pages: doc.NumPage()}
	for i := 0; i < doc.NumPage(); i++ {
		text, err := doc.Text(i)
		if err != nil {
			continue
		}
		text = strings.Join(strings.Fields(text), " ")
		if text == "" {
			continue
		}
		preview.Excerpt = excerpt(text)
		break
	}
	return preview, nil
}

// excerpt cuts text to excerptLen runes
func excerpt(text string) string {
	r := []rune(text)
	if len(r) <= excerptLen {
		return text
	}
	return string(r[:excerptLen]) + "..."
}
