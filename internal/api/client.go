// Package api is the HTTP client for the summarization service.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/pdfsum/cli/internal/documents"
	"github.com/pdfsum/cli/internal/session"
)

const (
	defaultTimeout = 30 * time.Second
	// uploads can be large; the storage PUT gets its own, longer budget
	defaultUploadTimeout = 10 * time.Minute

	requestIDHeader = "X-Request-ID"
)

// Options configures a Client
type Options struct {
	BaseURL       string
	Session       session.Session
	Timeout       time.Duration
	UploadTimeout time.Duration
	Logger        *zerolog.Logger
}

// Client wraps the summarization API
type Client struct {
	baseURL      string
	session      session.Session
	httpClient   *http.Client
	uploadClient *http.Client
	log          zerolog.Logger
}

// NewClient creates a new API client
func NewClient(opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.UploadTimeout <= 0 {
		opts.UploadTimeout = defaultUploadTimeout
	}
	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	return &Client{
		baseURL:      strings.TrimRight(opts.BaseURL, "/"),
		session:      opts.Session,
		httpClient:   &http.Client{Timeout: opts.Timeout},
		uploadClient: &http.Client{Timeout: opts.UploadTimeout},
		log:          logger.With().Str("component", "api").Logger(),
	}
}

// BaseURL returns the configured API base URL
func (c *Client) BaseURL() string {
	return c.baseURL
}

// RequestUploadURL asks the API for a presigned storage URL for filename.
// The returned id is the document's permanent identifier.
func (c *Client) RequestUploadURL(ctx context.Context, filename string) (*UploadTicket, error) {
	const op = "request_upload_url"

	resp, err := c.doJSON(ctx, op, http.MethodPost, "/upload", uploadRequest{Filename: filename})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if !isSuccess(resp.StatusCode) {
		return nil, &Error{
			Kind:    KindRequestRejected,
			Op:      op,
			Status:  resp.StatusCode,
			Message: fmt.Sprintf("failed to create upload URL: %s", http.StatusText(resp.StatusCode)),
		}
	}

	var ticket UploadTicket
	if err := json.NewDecoder(resp.Body).Decode(&ticket); err != nil {
		return nil, &Error{Kind: KindRequestRejected, Op: op, Status: resp.StatusCode,
			Message: "failed to decode upload URL response", Err: err}
	}
	if ticket.UploadURL == "" || ticket.ID == "" {
		return nil, &Error{Kind: KindRequestRejected, Op: op, Status: resp.StatusCode,
			Message: "upload URL response is missing uploadUrl or id"}
	}
	return &ticket, nil
}

// UploadFile PUTs the PDF body to a presigned URL.
// No bearer token is sent; the URL itself is the capability.
func (c *Client) UploadFile(ctx context.Context, uploadURL string, body io.Reader, size int64) error {
	const op = "upload_file"

	if uploadURL == "" {
		return &Error{Kind: KindUploadTransport, Op: op, Message: "upload to storage failed: empty upload URL"}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, uploadURL, body)
	if err != nil {
		return &Error{Kind: KindUploadTransport, Op: op, Message: "upload to storage failed", Err: err}
	}
	// presigned PUTs reject chunked bodies
	if size > 0 {
		req.ContentLength = size
	}
	req.Header.Set("Content-Type", documents.MIMETypePDF)

	start := time.Now()
	resp, err := c.uploadClient.Do(req)
	if err != nil {
		c.log.Warn().Str("op", op).Err(err).Msg("storage upload failed")
		return &Error{Kind: KindUploadTransport, Op: op, Message: "upload to storage failed", Err: err}
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	c.log.Debug().Str("op", op).Int("status", resp.StatusCode).Int64("bytes", size).
		Dur("latency", time.Since(start)).Msg("storage upload completed")

	if !isSuccess(resp.StatusCode) {
		return &Error{
			Kind:    KindUploadTransport,
			Op:      op,
			Status:  resp.StatusCode,
			Message: fmt.Sprintf("upload to storage failed: %s", http.StatusText(resp.StatusCode)),
		}
	}
	return nil
}

// NotifySummarize triggers summarization of an extracted document.
// Eligibility is not checked here; the server rejects ineligible documents.
func (c *Client) NotifySummarize(ctx context.Context, documentID string) (json.RawMessage, error) {
	const op = "notify_summarize"

	resp, err := c.doJSON(ctx, op, http.MethodPost, "/summaries/summarize", summarizeRequest{ID: documentID})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, readErr := io.ReadAll(resp.Body)
	if !isSuccess(resp.StatusCode) {
		msg := fmt.Sprintf("failed to generate summary: %s", http.StatusText(resp.StatusCode))
		var eb errorBody
		if readErr == nil && json.Unmarshal(body, &eb) == nil && eb.Error != "" {
			msg = eb.Error
		}
		return nil, &Error{Kind: KindRequestRejected, Op: op, Status: resp.StatusCode, Message: msg}
	}
	if readErr != nil {
		return nil, &Error{Kind: KindRequestRejected, Op: op, Status: resp.StatusCode,
			Message: "failed to read summarize response", Err: readErr}
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return json.RawMessage("{}"), nil
	}
	if !json.Valid(body) {
		return nil, &Error{Kind: KindRequestRejected, Op: op, Status: resp.StatusCode,
			Message: "summarize response is not valid JSON"}
	}
	return json.RawMessage(body), nil
}

// ListDocuments fetches the live document collection in server order
func (c *Client) ListDocuments(ctx context.Context) ([]documents.Document, error) {
	const op = "list_documents"

	resp, err := c.do(ctx, op, http.MethodGet, "/summaries", nil, func(req *http.Request) {
		// status values are volatile; a cached read would hide transitions
		req.Header.Set("Cache-Control", "no-cache, no-store")
		req.Header.Set("Pragma", "no-cache")
	})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if !isSuccess(resp.StatusCode) {
		return nil, &Error{
			Kind:    KindRequestRejected,
			Op:      op,
			Status:  resp.StatusCode,
			Message: fmt.Sprintf("failed to load documents: %s", http.StatusText(resp.StatusCode)),
		}
	}

	var result ListResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, &Error{Kind: KindRequestRejected, Op: op, Status: resp.StatusCode,
			Message: "failed to decode documents response", Err: err}
	}
	if result.Summaries == nil {
		return []documents.Document{}, nil
	}
	return result.Summaries, nil
}

// doJSON issues an authenticated request with a JSON body
func (c *Client) doJSON(ctx context.Context, op, method, path string, payload any) (*http.Response, error) {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return nil, &Error{Kind: KindRequestRejected, Op: op, Message: "failed to marshal request", Err: err}
	}
	return c.do(ctx, op, method, path, bytes.NewReader(jsonData), func(req *http.Request) {
		req.Header.Set("Content-Type", "application/json")
	})
}

// do checks the session, then issues an authenticated request
func (c *Client) do(ctx context.Context, op, method, path string, body io.Reader, decorate func(*http.Request)) (*http.Response, error) {
	cred, err := session.RequireAuth(c.session)
	if err != nil {
		return nil, &Error{Kind: KindUnauthenticated, Op: op, Message: "not authenticated", Err: err}
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, &Error{Kind: KindRequestRejected, Op: op, Message: "failed to create request", Err: err}
	}
	requestID := uuid.NewString()
	httpReq.Header.Set("Authorization", cred.AuthorizationHeader())
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set(requestIDHeader, requestID)
	if decorate != nil {
		decorate(httpReq)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.log.Warn().Str("op", op).Str("request_id", requestID).Err(err).Msg("request failed")
		return nil, &Error{Kind: KindRequestRejected, Op: op, Message: "failed to execute request", Err: err}
	}

	evt := c.log.Debug()
	if !isSuccess(resp.StatusCode) {
		evt = c.log.Warn()
	}
	evt.Str("op", op).
		Str("method", method).
		Str("path", path).
		Str("request_id", requestID).
		Int("status", resp.StatusCode).
		Dur("latency", time.Since(start)).
		Msg("api request completed")
	return resp, nil
}

func isSuccess(code int) bool {
	return code >= 200 && code < 300
}
