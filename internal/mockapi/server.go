// Package mockapi is an in-memory stand-in for the document summarizer backend.
// It serves the same routes the client talks to, with a fake presigned storage
// endpoint and timed status transitions.
package mockapi

import (
	"crypto/subtle"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/pdfsum/cli/internal/documents"
)

const maxUploadBytes = 50 << 20

// Options configures the stand-in server
type Options struct {
	// Token is the accepted bearer; empty accepts any
	Token string
	// PublicURL is the base used in upload URLs; defaults to the request host
	PublicURL      string
	ExtractDelay   time.Duration
	SummarizeDelay time.Duration
	Extract        ExtractFunc
	Logger         *zerolog.Logger
}

type uploadRequest struct {
	Filename string `json:"filename"`
}

type uploadResponse struct {
	UploadURL string `json:"uploadUrl"`
	ID        string `json:"id"`
}

type summarizeRequest struct {
	ID string `json:"id"`
}

type summarizeResponse struct {
	Message string           `json:"message"`
	ID      string           `json:"id"`
	Status  documents.Status `json:"status"`
}

type listResponse struct {
	Summaries []documents.Document `json:"summaries"`
	Count     int                  `json:"count"`
}

// Server handles the remote API
type Server struct {
	store *Store
	opts  Options
	log   zerolog.Logger

	mu     sync.Mutex
	timers []*time.Timer
	closed bool
	wg     sync.WaitGroup
}

// NewServer creates a server with an empty store
func NewServer(opts Options) *Server {
	if opts.Extract == nil {
		opts.Extract = ExtractPDF
	}
	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	return &Server{
		store: NewStore(),
		opts:  opts,
		log:   logger.With().Str("component", "mockapi").Logger(),
	}
}

// Store exposes the backing store
func (s *Server) Store() *Store {
	return s.store
}

// Handler returns a gin engine with recovery, request logging and all routes
func (s *Server) Handler() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(ZerologLogger(s.log))
	s.RegisterRoutes(r)
	return r
}

// RegisterRoutes registers API routes on the provided gin engine
func (s *Server) RegisterRoutes(router *gin.Engine) {
	// storage is reached through the signed URL only
	router.PUT("/storage/:id", s.PutObject)

	authed := router.Group("/", BearerAuth(s.opts.Token))
	{
		authed.POST("/upload", s.CreateUpload)
		authed.POST("/summaries/summarize", s.Summarize)
		authed.GET("/summaries", s.ListSummaries)
	}
}

// CreateUpload registers a document and hands out a signed storage URL
func (s *Server) CreateUpload(c *gin.Context) {
	var req uploadRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Filename) == "" {
		s.log.Warn().Err(err).Msg("invalid upload request")
		c.JSON(http.StatusBadRequest, gin.H{"error": "filename is required"})
		return
	}

	doc, sig := s.store.Create(strings.TrimSpace(req.Filename))
	uploadURL := s.baseURL(c) + "/storage/" + doc.ID + "?sig=" + sig
	s.log.Info().Str("document_id", doc.ID).Str("filename", doc.Filename).Msg("upload URL issued")
	c.JSON(http.StatusOK, uploadResponse{UploadURL: uploadURL, ID: doc.ID})
}

// PutObject receives the file bytes and starts extraction
func (s *Server) PutObject(c *gin.Context) {
	id := c.Param("id")
	sig, ok := s.store.Signature(id)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	if subtle.ConstantTimeCompare([]byte(c.Query("sig")), []byte(sig)) != 1 {
		s.log.Warn().Str("document_id", id).Msg("storage signature mismatch")
		c.JSON(http.StatusForbidden, gin.H{"error": "signature does not match"})
		return
	}
	if ct := c.ContentType(); ct != documents.MIMETypePDF {
		c.JSON(http.StatusUnsupportedMediaType, gin.H{"error": "content type must be application/pdf"})
		return
	}

	data, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadBytes))
	if err != nil {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "upload too large"})
		return
	}

	if _, err := s.store.Advance(id, documents.StatusProcessing); err != nil {
		s.log.Warn().Str("document_id", id).Err(err).Msg("duplicate storage upload")
		c.JSON(http.StatusConflict, gin.H{"error": "object already uploaded"})
		return
	}
	s.log.Info().Str("document_id", id).Int("bytes", len(data)).Msg("object stored")

	s.after(s.opts.ExtractDelay, func() { s.extract(id, data) })
	c.Status(http.StatusOK)
}

// Summarize starts summarization of an extracted document
func (s *Server) Summarize(c *gin.Context) {
	var req summarizeRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.ID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id is required"})
		return
	}

	doc, ok := s.store.Get(req.ID)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Document not found"})
		return
	}
	if !doc.Status.CanSummarize() {
		s.log.Warn().Str("document_id", doc.ID).Str("status", string(doc.Status)).Msg("summarize rejected")
		c.JSON(http.StatusConflict, gin.H{"error": "Document is not ready for summarization"})
		return
	}
	if _, err := s.store.Advance(doc.ID, documents.StatusSummarizing); err != nil {
		// lost a race with a concurrent summarize
		c.JSON(http.StatusConflict, gin.H{"error": "Document is not ready for summarization"})
		return
	}

	s.after(s.opts.SummarizeDelay, func() { s.summarize(doc.ID) })

	current, _ := s.store.Get(doc.ID)
	c.JSON(http.StatusOK, summarizeResponse{Message: "Summarization started", ID: doc.ID, Status: current.Status})
}

// ListSummaries returns every document, newest first
func (s *Server) ListSummaries(c *gin.Context) {
	docs := s.store.List()
	c.JSON(http.StatusOK, listResponse{Summaries: docs, Count: len(docs)})
}

// Close stops pending transitions and waits for running ones
func (s *Server) Close() {
	s.mu.Lock()
	s.closed = true
	timers := s.timers
	s.timers = nil
	s.mu.Unlock()
	for _, t := range timers {
		if t.Stop() {
			s.wg.Done()
		}
	}
	s.wg.Wait()
}

func (s *Server) extract(id string, data []byte) {
	if len(data) == 0 {
		s.fail(id, errors.New("empty upload"))
		return
	}
	ex, err := s.opts.Extract(data)
	if err != nil {
		s.fail(id, err)
		return
	}
	if _, err := s.store.SetExtraction(id, ex.Text, ex.Pages); err != nil {
		s.log.Warn().Str("document_id", id).Err(err).Msg("failed to record extraction")
		return
	}
	s.log.Info().Str("document_id", id).Int("pages", ex.Pages).Msg("text extracted")
}

func (s *Server) summarize(id string) {
	doc, ok := s.store.Get(id)
	if !ok {
		return
	}
	text, _ := s.store.Text(id)
	summary := BuildSummary(doc.Filename, text)
	if _, err := s.store.Complete(id, summary); err != nil {
		s.log.Warn().Str("document_id", id).Err(err).Msg("failed to record summary")
		return
	}
	s.log.Info().Str("document_id", id).Int("reading_minutes", summary.ReadingTimeMinutes).Msg("summary completed")
}

func (s *Server) fail(id string, cause error) {
	if _, err := s.store.Advance(id, documents.StatusFailed); err != nil {
		s.log.Warn().Str("document_id", id).Err(err).Msg("failed to mark document failed")
		return
	}
	s.log.Warn().Str("document_id", id).Err(cause).Msg("extraction failed")
}

// after runs fn once d has elapsed; a zero delay runs it inline
func (s *Server) after(d time.Duration, fn func()) {
	if d <= 0 {
		fn()
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.wg.Add(1)
	s.timers = append(s.timers, time.AfterFunc(d, func() {
		defer s.wg.Done()
		fn()
	}))
}

func (s *Server) baseURL(c *gin.Context) string {
	if s.opts.PublicURL != "" {
		return strings.TrimRight(s.opts.PublicURL, "/")
	}
	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	return scheme + "://" + c.Request.Host
}
