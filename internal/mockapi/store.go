package mockapi

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pdfsum/cli/internal/documents"
)

var (
	ErrNotFound      = errors.New("document not found")
	ErrBadTransition = errors.New("invalid status transition")
)

type record struct {
	doc       documents.Document
	seq       int64
	createdAt time.Time
	signature string
	text      string
	pages     int
}

// Store keeps documents in memory, keyed by id
type Store struct {
	mu      sync.RWMutex
	records map[string]*record
	seq     int64
	now     func() time.Time
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{
		records: make(map[string]*record),
		now:     time.Now,
	}
}

// Create registers a new pending_upload document and returns it with its upload signature
func (s *Store) Create(filename string) (documents.Document, string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	r := &record{
		doc: documents.Document{
			ID:       uuid.NewString(),
			Filename: filename,
			Status:   documents.StatusPendingUpload,
		},
		seq:       s.seq,
		createdAt: s.now(),
		signature: uuid.NewString(),
	}
	s.records[r.doc.ID] = r
	return r.doc.Clone(), r.signature
}

// Get returns a copy of a document
func (s *Store) Get(id string) (documents.Document, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.records[id]
	if !ok {
		return documents.Document{}, false
	}
	return r.doc.Clone(), true
}

// Signature returns the upload signature issued for a document
func (s *Store) Signature(id string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.records[id]
	if !ok {
		return "", false
	}
	return r.signature, true
}

// Advance moves a document to the next status. Only forward edges and failures are allowed.
func (s *Store) Advance(id string, to documents.Status) (documents.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.records[id]
	if !ok {
		return documents.Document{}, ErrNotFound
	}
	if !documents.CanAdvance(r.doc.Status, to) {
		return r.doc.Clone(), fmt.Errorf("%w: %s -> %s", ErrBadTransition, r.doc.Status, to)
	}
	r.doc.Status = to
	if to == documents.StatusFailed {
		r.doc.Summary = nil
	}
	return r.doc.Clone(), nil
}

// SetExtraction records the text pulled out of an uploaded file and marks it extracted
func (s *Store) SetExtraction(id string, text string, pages int) (documents.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.records[id]
	if !ok {
		return documents.Document{}, ErrNotFound
	}
	if !documents.CanAdvance(r.doc.Status, documents.StatusExtracted) {
		return r.doc.Clone(), fmt.Errorf("%w: %s -> %s", ErrBadTransition, r.doc.Status, documents.StatusExtracted)
	}
	r.text = text
	r.pages = pages
	r.doc.Status = documents.StatusExtracted
	return r.doc.Clone(), nil
}

// Text returns the extracted text of a document
func (s *Store) Text(id string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.records[id]
	if !ok {
		return "", false
	}
	return r.text, true
}

// Complete attaches a summary and marks the document completed
func (s *Store) Complete(id string, summary documents.Summary) (documents.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.records[id]
	if !ok {
		return documents.Document{}, ErrNotFound
	}
	if !documents.CanAdvance(r.doc.Status, documents.StatusCompleted) {
		return r.doc.Clone(), fmt.Errorf("%w: %s -> %s", ErrBadTransition, r.doc.Status, documents.StatusCompleted)
	}
	r.doc.Status = documents.StatusCompleted
	r.doc.CompletedAt = float64(s.now().UnixMilli())
	r.doc.Summary = &summary
	return r.doc.Clone(), nil
}

// List returns all documents, newest first
func (s *Store) List() []documents.Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	records := make([]*record, 0, len(s.records))
	for _, r := range s.records {
		records = append(records, r)
	}
	sort.Slice(records, func(i, j int) bool { return records[i].seq > records[j].seq })

	out := make([]documents.Document, 0, len(records))
	for _, r := range records {
		out = append(out, r.doc.Clone())
	}
	return out
}
