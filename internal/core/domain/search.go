package domain

import "time"

// WebResult is one organic result returned by a web search backend.
type WebResult struct {
	Position      int
	Title         string
	Link          string
	Snippet       string
	DisplayedLink string
}

// PaperQuery describes an academic search request.
type PaperQuery struct {
	// SearchQuery is the backend query expression, possibly field-qualified.
	SearchQuery string

	// MaxResults bounds how many entries the backend returns.
	MaxResults int

	// SortBySubmitted orders results by submission date, newest first.
	SortBySubmitted bool
}

// Paper is one preprint returned by an academic search backend.
type Paper struct {
	Title       string    `json:"title"`
	Summary     string    `json:"summary"`
	Authors     []string  `json:"authors"`
	URL         string    `json:"url"`
	PDFURL      string    `json:"pdf_url,omitempty"`
	Published   string    `json:"published"`
	Categories  []string  `json:"categories,omitempty"`
	ArxivID     string    `json:"arxiv_id"`

	// PublishedAt is the parsed form of Published, used for date filtering.
	// It is not serialised and is cleared before a paper enters a trace.
	PublishedAt time.Time `json:"-"`
}
