package tui

import "github.com/pdfsum/cli/internal/documents"

// refreshedMsg signals a list refresh finished
type refreshedMsg struct {
	err error
}

// fileChosenMsg signals a dropped or typed path was inspected
type fileChosenMsg struct {
	candidate *documents.Candidate
	err       error
}

// uploadedMsg signals the upload flow finished
type uploadedMsg struct {
	id  string
	err error
}

// summarizedMsg signals the summarize flow finished, refresh included
type summarizedMsg struct {
	id  string
	err error
}

// stateChangedMsg is sent from outside the update loop, e.g. by the deferred refresh
type stateChangedMsg struct{}
