package documents

import (
	"math"
	"time"
)

// Summary is the three-phase digest attached to a completed document.
// It is produced by the remote service and never built locally.
type Summary struct {
	Title              string `json:"title"`
	Phase1             string `json:"phase1"`
	Phase2             string `json:"phase2"`
	Phase3             string `json:"phase3"`
	ReadingTimeMinutes int    `json:"readingTimeMinutes"`
}

// Document represents one uploaded file and its processing record
type Document struct {
	ID          string   `json:"id"`
	Filename    string   `json:"filename"`
	Status      Status   `json:"status"`
	CompletedAt float64  `json:"completedAt,omitempty"`
	Summary     *Summary `json:"summary,omitempty"`
}

// HasSummary reports whether the detail view has anything to render
func (d Document) HasSummary() bool {
	return d.Summary != nil
}

// epochMillisFloor separates millisecond timestamps from second ones.
// 1e11 seconds is far past year 5000, 1e11 millis is March 1973.
const epochMillisFloor = 1e11

// CompletedTime converts CompletedAt to a time. The server sends a plain
// number that may be epoch seconds or millis, possibly fractional.
func (d Document) CompletedTime() (time.Time, bool) {
	v := d.CompletedAt
	if v <= 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return time.Time{}, false
	}
	if v < epochMillisFloor {
		v *= 1000
	}
	return time.UnixMicro(int64(math.Round(v * 1000))), true
}

// Clone returns a deep copy so callers cannot mutate cached state
func (d Document) Clone() Document {
	out := d
	if d.Summary != nil {
		s := *d.Summary
		out.Summary = &s
	}
	return out
}

// CloneAll deep-copies a collection, preserving order
func CloneAll(docs []Document) []Document {
	if docs == nil {
		return nil
	}
	out := make([]Document, len(docs))
	for i, d := range docs {
		out[i] = d.Clone()
	}
	return out
}

// Find returns the document with the given id
func Find(docs []Document, id string) (Document, bool) {
	for _, d := range docs {
		if d.ID == id {
			return d, true
		}
	}
	return Document{}, false
}
