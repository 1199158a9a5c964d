package api

import "github.com/pdfsum/cli/internal/documents"

// UploadTicket is the response to an upload URL request
type UploadTicket struct {
	UploadURL string `json:"uploadUrl"`
	ID        string `json:"id"`
}

type uploadRequest struct {
	Filename string `json:"filename"`
}

type summarizeRequest struct {
	ID string `json:"id"`
}

// ListResponse is the payload of GET /summaries
type ListResponse struct {
	Summaries []documents.Document `json:"summaries"`
	Count     *int                 `json:"count,omitempty"`
}

type errorBody struct {
	Error string `json:"error"`
}
