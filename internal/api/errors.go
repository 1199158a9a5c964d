package api

import (
	"errors"
	"fmt"
	"strings"

	"github.com/pdfsum/cli/internal/session"
)

// Kind classifies failures of the document lifecycle
type Kind int

const (
	KindUnknown Kind = iota
	// KindUnauthenticated means no credential was available; raised before any I/O
	KindUnauthenticated
	// KindRequestRejected means the API answered non-2xx or could not be reached
	KindRequestRejected
	// KindUploadTransport means the storage PUT failed
	KindUploadTransport
	// KindLocalPrecondition means client-side validation failed; no I/O happened
	KindLocalPrecondition
)

func (k Kind) String() string {
	switch k {
	case KindUnauthenticated:
		return "unauthenticated"
	case KindRequestRejected:
		return "request_rejected"
	case KindUploadTransport:
		return "upload_transport_error"
	case KindLocalPrecondition:
		return "local_precondition"
	default:
		return "unknown"
	}
}

// Error is a classified failure
type Error struct {
	Kind    Kind
	Op      string
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Message != "" {
		if e.Err != nil && !strings.EqualFold(e.Err.Error(), e.Message) {
			return e.Message + ": " + e.Err.Error()
		}
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Kind.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Precondition builds a LocalPrecondition error
func Precondition(format string, args ...any) *Error {
	return &Error{Kind: KindLocalPrecondition, Message: fmt.Sprintf(format, args...)}
}

// KindOf classifies any error produced by this package or the session gate
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	if errors.Is(err, session.ErrUnauthenticated) {
		return KindUnauthenticated
	}
	return KindUnknown
}

// IsKind reports whether err is classified as k
func IsKind(err error, k Kind) bool {
	return KindOf(err) == k
}
