// Package lifecycle drives documents through the remote upload and summarize
// pipeline. The server is the only source of truth: every write is followed by a
// full list refresh and local state is never advanced by prediction.
package lifecycle

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/pdfsum/cli/internal/api"
	"github.com/pdfsum/cli/internal/documents"
)

const (
	// DefaultUploadRefreshDelay is how long after an upload the one-shot refresh runs.
	// Extraction takes 30-60s server side and there is no push channel.
	DefaultUploadRefreshDelay = 40 * time.Second

	deferredRefreshTimeout = 30 * time.Second
)

// ErrClosed is returned by operations started after Close
var ErrClosed = errors.New("orchestrator closed")

// Transport is the remote side of the lifecycle
type Transport interface {
	RequestUploadURL(ctx context.Context, filename string) (*api.UploadTicket, error)
	UploadFile(ctx context.Context, uploadURL string, body io.Reader, size int64) error
	NotifySummarize(ctx context.Context, documentID string) (json.RawMessage, error)
	ListDocuments(ctx context.Context) ([]documents.Document, error)
}

// FileInspector validates local files picked for upload
type FileInspector interface {
	Inspect(filePath string) (*documents.Candidate, error)
}

// Timer is a scheduled one-shot continuation
type Timer interface {
	Stop() bool
}

// Options configures an Orchestrator
type Options struct {
	Transport          Transport
	Inspector          FileInspector
	UploadRefreshDelay time.Duration
	// AfterFunc schedules f after d; defaults to time.AfterFunc
	AfterFunc func(d time.Duration, f func()) Timer
	// OnChange is called after state changes that happen off the caller's flow
	OnChange func()
	Logger   *zerolog.Logger
}

// State is an immutable view of the client session for presentation
type State struct {
	Documents  []documents.Document
	SelectedID string
	Candidate  *documents.Candidate
	Uploading  bool
	Loading    bool
	// Summarizing holds ids with a summarize call in flight
	Summarizing map[string]bool
}

// Selected resolves the selection against the documents in the snapshot
func (s State) Selected() (documents.Document, bool) {
	if s.SelectedID == "" {
		return documents.Document{}, false
	}
	return documents.Find(s.Documents, s.SelectedID)
}

// Orchestrator owns the observed document collection and mediates user intent
type Orchestrator struct {
	transport   Transport
	inspector   FileInspector
	uploadDelay time.Duration
	afterFunc   func(d time.Duration, f func()) Timer
	log         zerolog.Logger

	mu          sync.Mutex
	docs        []documents.Document
	selectedID  string
	candidate   *documents.Candidate
	uploading   bool
	summarizing map[string]bool
	loading     int
	closed      bool
	timers      map[uint64]Timer
	timerSeq    uint64
	onChange    func()
}

// New creates an orchestrator with an empty collection
func New(opts Options) *Orchestrator {
	if opts.UploadRefreshDelay <= 0 {
		opts.UploadRefreshDelay = DefaultUploadRefreshDelay
	}
	if opts.AfterFunc == nil {
		opts.AfterFunc = func(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }
	}
	if opts.Inspector == nil {
		opts.Inspector = documents.NewInspector()
	}
	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	return &Orchestrator{
		transport:   opts.Transport,
		inspector:   opts.Inspector,
		uploadDelay: opts.UploadRefreshDelay,
		afterFunc:   opts.AfterFunc,
		onChange:    opts.OnChange,
		log:         logger.With().Str("component", "lifecycle").Logger(),
		docs:        []documents.Document{},
		summarizing: map[string]bool{},
		timers:      map[uint64]Timer{},
	}
}

// SetOnChange replaces the change hook
func (o *Orchestrator) SetOnChange(fn func()) {
	o.mu.Lock()
	o.onChange = fn
	o.mu.Unlock()
}

// Snapshot returns a deep copy of the current state
func (o *Orchestrator) Snapshot() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	st := State{
		Documents:  documents.CloneAll(o.docs),
		SelectedID: o.selectedID,
		Uploading:  o.uploading,
		Loading:    o.loading > 0,
	}
	if len(o.summarizing) > 0 {
		st.Summarizing = make(map[string]bool, len(o.summarizing))
		for id := range o.summarizing {
			st.Summarizing[id] = true
		}
	}
	if o.candidate != nil {
		c := *o.candidate
		st.Candidate = &c
	}
	return st
}

// ChooseFile validates a dropped or picked file and makes it the upload candidate.
// Non-PDF files are rejected and leave the current candidate untouched.
func (o *Orchestrator) ChooseFile(filePath string) (*documents.Candidate, error) {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return nil, ErrClosed
	}
	if o.uploading {
		o.mu.Unlock()
		return nil, api.Precondition("An upload is already in progress")
	}
	o.mu.Unlock()

	cand, err := o.inspector.Inspect(filePath)
	if err != nil {
		o.log.Info().Str("path", filePath).Err(err).Msg("file rejected")
		return nil, &api.Error{Kind: api.KindLocalPrecondition, Op: "choose_file", Message: capitalize(err.Error()), Err: err}
	}

	o.mu.Lock()
	o.candidate = cand
	o.mu.Unlock()
	o.log.Info().Str("file", cand.Name).Int64("bytes", cand.Size).Int("pages", cand.Pages).Msg("file selected for upload")

	c := *cand
	return &c, nil
}

// ClearCandidate drops the pending upload candidate
func (o *Orchestrator) ClearCandidate() {
	o.mu.Lock()
	if !o.uploading {
		o.candidate = nil
	}
	o.mu.Unlock()
}

// Upload sends the candidate: request a presigned URL, then PUT the bytes.
// On success the candidate is cleared and one deferred refresh is scheduled.
// On failure the candidate stays so the user can retry.
func (o *Orchestrator) Upload(ctx context.Context) (string, error) {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return "", ErrClosed
	}
	cand := o.candidate
	if cand == nil {
		o.mu.Unlock()
		return "", api.Precondition("No file selected")
	}
	if o.uploading {
		o.mu.Unlock()
		return "", api.Precondition("An upload is already in progress")
	}
	o.uploading = true
	o.mu.Unlock()

	defer func() {
		o.mu.Lock()
		o.uploading = false
		o.mu.Unlock()
	}()

	ticket, err := o.transport.RequestUploadURL(ctx, cand.Name)
	if err != nil {
		o.log.Warn().Str("file", cand.Name).Err(err).Msg("upload URL request failed")
		return "", err
	}

	body, err := cand.Open()
	if err != nil {
		return "", &api.Error{Kind: api.KindUploadTransport, Op: "upload_file", Message: "upload to storage failed", Err: err}
	}
	defer body.Close()

	if err := o.transport.UploadFile(ctx, ticket.UploadURL, body, cand.Size); err != nil {
		o.log.Warn().Str("file", cand.Name).Str("document_id", ticket.ID).Err(err).Msg("storage upload failed")
		return "", err
	}

	o.mu.Lock()
	if !o.closed {
		o.candidate = nil
		o.scheduleRefreshLocked()
	}
	o.mu.Unlock()

	o.log.Info().Str("file", cand.Name).Str("document_id", ticket.ID).Msg("document uploaded")
	return ticket.ID, nil
}

// Summarize triggers summarization of an extracted document and then re-reads
// the collection. Documents in any other status are rejected without I/O.
func (o *Orchestrator) Summarize(ctx context.Context, documentID string) error {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return ErrClosed
	}
	doc, ok := documents.Find(o.docs, documentID)
	if !ok {
		o.mu.Unlock()
		return api.Precondition("Document not found: %s", documentID)
	}
	if !doc.Status.CanSummarize() {
		o.mu.Unlock()
		return api.Precondition("Document is not ready. Status: %s", doc.Status)
	}
	// the cached status stays extracted until the refresh lands
	if o.summarizing[documentID] {
		o.mu.Unlock()
		return api.Precondition("Summary generation is already in progress")
	}
	o.summarizing[documentID] = true
	o.loading++
	o.mu.Unlock()

	defer func() {
		o.mu.Lock()
		delete(o.summarizing, documentID)
		o.mu.Unlock()
	}()
	defer o.endLoading()

	_, sumErr := o.transport.NotifySummarize(ctx, documentID)
	if sumErr != nil {
		o.log.Warn().Str("document_id", documentID).Err(sumErr).Msg("summarize failed")
	} else {
		o.log.Info().Str("document_id", documentID).Msg("summarize accepted")
	}

	// re-read regardless of outcome; the server decides what the status is now
	refreshErr := o.Refresh(ctx)
	if sumErr != nil {
		return sumErr
	}
	return refreshErr
}

// Refresh replaces the whole collection with the server's list.
// On failure the collection is left as it was.
func (o *Orchestrator) Refresh(ctx context.Context) error {
	if o.isClosed() {
		return ErrClosed
	}

	o.beginLoading()
	defer o.endLoading()

	docs, err := o.transport.ListDocuments(ctx)
	if err != nil {
		o.log.Warn().Err(err).Msg("refresh failed")
		return err
	}
	docs = o.dedupe(docs)

	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return nil
	}
	o.docs = docs
	if o.selectedID != "" {
		if _, ok := documents.Find(o.docs, o.selectedID); !ok {
			o.selectedID = ""
		}
	}
	o.log.Debug().Int("documents", len(o.docs)).Msg("collection refreshed")
	return nil
}

// Select stores a reference to a document for the detail view.
// Unknown ids are ignored.
func (o *Orchestrator) Select(documentID string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if _, ok := documents.Find(o.docs, documentID); ok {
		o.selectedID = documentID
	}
}

// Deselect clears the selection
func (o *Orchestrator) Deselect() {
	o.mu.Lock()
	o.selectedID = ""
	o.mu.Unlock()
}

// Selected resolves the selection against the latest collection
func (o *Orchestrator) Selected() (documents.Document, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.selectedID == "" {
		return documents.Document{}, false
	}
	doc, ok := documents.Find(o.docs, o.selectedID)
	if !ok {
		return documents.Document{}, false
	}
	return doc.Clone(), true
}

// SelectedSummary returns the selected document only if it has a summary to show
func (o *Orchestrator) SelectedSummary() (documents.Document, bool) {
	doc, ok := o.Selected()
	if !ok || !doc.HasSummary() {
		return documents.Document{}, false
	}
	return doc, true
}

// Close tears the orchestrator down. Pending timers are stopped and results of
// calls that resolve afterwards are dropped.
func (o *Orchestrator) Close() {
	o.mu.Lock()
	o.closed = true
	timers := o.timers
	o.timers = map[uint64]Timer{}
	o.mu.Unlock()
	for _, t := range timers {
		t.Stop()
	}
}

func (o *Orchestrator) scheduleRefreshLocked() {
	delay := o.uploadDelay
	o.timerSeq++
	seq := o.timerSeq
	t := o.afterFunc(delay, func() {
		o.mu.Lock()
		delete(o.timers, seq)
		o.mu.Unlock()

		ctx, cancel := context.WithTimeout(context.Background(), deferredRefreshTimeout)
		defer cancel()
		// failure here is acceptable; the next manual refresh corrects it
		if err := o.Refresh(ctx); err != nil {
			if !errors.Is(err, ErrClosed) {
				o.log.Warn().Err(err).Msg("deferred refresh after upload failed")
			}
			return
		}
		o.notify()
	})
	o.timers[seq] = t
	o.log.Debug().Dur("delay", delay).Msg("deferred refresh scheduled")
}

func (o *Orchestrator) notify() {
	o.mu.Lock()
	fn := o.onChange
	closed := o.closed
	o.mu.Unlock()
	if fn != nil && !closed {
		fn()
	}
}

func (o *Orchestrator) isClosed() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.closed
}

func (o *Orchestrator) beginLoading() {
	o.mu.Lock()
	o.loading++
	o.mu.Unlock()
}

func (o *Orchestrator) endLoading() {
	o.mu.Lock()
	if o.loading > 0 {
		o.loading--
	}
	o.mu.Unlock()
}

// dedupe keeps the first occurrence of each id, preserving server order
func (o *Orchestrator) dedupe(in []documents.Document) []documents.Document {
	seen := make(map[string]struct{}, len(in))
	out := make([]documents.Document, 0, len(in))
	for _, d := range in {
		if _, dup := seen[d.ID]; dup {
			o.log.Warn().Str("document_id", d.ID).Msg("duplicate document id in list response")
			continue
		}
		seen[d.ID] = struct{}{}
		out = append(out, d.Clone())
	}
	return out
}
