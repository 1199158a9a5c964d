package lifecycle

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/pdfsum/cli/internal/api"
)

// Level is the severity of a user notification
type Level int

const (
	LevelInfo Level = iota
	LevelSuccess
	LevelWarning
	LevelError
)

// Notice is a user-visible notification
type Notice struct {
	Level Level
	Text  string
}

// UploadedNotice is shown after a successful upload
func UploadedNotice(documentID string) Notice {
	return Notice{
		Level: LevelSuccess,
		Text:  fmt.Sprintf("Upload successful! Document ID: %s\n\nProcessing will take about 30-60 seconds.", documentID),
	}
}

// SummarizedNotice is shown after a successful summarize call
func SummarizedNotice() Notice {
	return Notice{Level: LevelSuccess, Text: "Summary generated successfully!"}
}

// ErrorNotice converts a failed user action into a notification
func ErrorNotice(err error) Notice {
	level := LevelError
	if api.IsKind(err, api.KindLocalPrecondition) {
		level = LevelWarning
	}
	return Notice{Level: level, Text: UserMessage(err)}
}

// UserMessage renders an error the way it is shown to the user
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, ErrClosed) {
		return "The session has ended"
	}

	msg := err.Error()
	var apiErr *api.Error
	op := ""
	if errors.As(err, &apiErr) {
		op = apiErr.Op
	}

	switch api.KindOf(err) {
	case api.KindUnauthenticated:
		return "Not authenticated. Please sign in."
	case api.KindLocalPrecondition:
		return msg
	}

	switch op {
	case "request_upload_url", "upload_file":
		return "Upload failed: " + msg
	case "notify_summarize":
		if strings.HasPrefix(msg, "failed to generate summary") {
			return capitalize(msg)
		}
		return "Failed to generate summary: " + msg
	}
	return capitalize(msg)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}
