package documents

// Status is the server-authoritative processing stage of a document
type Status string

const (
	StatusPendingUpload Status = "pending_upload"
	StatusProcessing    Status = "processing"
	StatusExtracted     Status = "extracted"
	StatusSummarizing   Status = "summarizing"
	StatusCompleted     Status = "completed"
	StatusFailed        Status = "failed"
)

var statusLabels = map[Status]string{
	StatusPendingUpload: "Pending",
	StatusProcessing:    "Processing",
	StatusExtracted:     "Ready",
	StatusSummarizing:   "Summarizing",
	StatusCompleted:     "Completed",
	StatusFailed:        "Failed",
}

// forward edges of the pipeline; failed is handled separately
var nextStatus = map[Status]Status{
	StatusPendingUpload: StatusProcessing,
	StatusProcessing:    StatusExtracted,
	StatusExtracted:     StatusSummarizing,
	StatusSummarizing:   StatusCompleted,
}

// Valid reports whether s is part of the known status vocabulary
func (s Status) Valid() bool {
	_, ok := statusLabels[s]
	return ok
}

// IsTerminal reports whether no further transitions are possible
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// CanSummarize reports whether a summarize trigger is legal from s
func (s Status) CanSummarize() bool {
	return s == StatusExtracted
}

// InFlight reports whether the server is still working on the document
func (s Status) InFlight() bool {
	return s == StatusPendingUpload || s == StatusProcessing || s == StatusSummarizing
}

// Label returns the display text for a status. Unknown values render as pending.
func (s Status) Label() string {
	if label, ok := statusLabels[s]; ok {
		return label
	}
	return statusLabels[StatusPendingUpload]
}

// CanAdvance reports whether the pipeline allows moving from one status to another.
// Any non-terminal status may fail.
func CanAdvance(from, to Status) bool {
	if from.IsTerminal() || !from.Valid() {
		return false
	}
	if to == StatusFailed {
		return true
	}
	return nextStatus[from] == to
}
