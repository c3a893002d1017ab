package domain

// Trace is the structured explanation of how an answer was produced.
// Each answering strategy fills the fields relevant to it; unset fields
// are omitted when serialised. A Trace is never mutated after it is returned.
type Trace struct {
	// Query is the text that was searched for.
	Query string `json:"query,omitempty"`

	// Retrieval.
	RetrievedDocs   []RetrievedDoc `json:"retrieved_docs,omitempty"`
	RetrieverFilter string         `json:"retriever_filter,omitempty"`
	IndexSize       int            `json:"index_size,omitempty"`

	// Web search.
	Sources      []SourceSummary `json:"sources,omitempty"`
	SearchEngine string          `json:"search_engine,omitempty"`
	ResultsCount *int            `json:"results_count,omitempty"`

	// Paper search.
	Papers       []Paper `json:"papers,omitempty"`
	CleanedQuery string  `json:"cleaned_query,omitempty"`
	SearchQuery  string  `json:"search_query,omitempty"`
	TotalFound   *int    `json:"total_found,omitempty"`
	SortOrder    string  `json:"sort_order,omitempty"`
	DateRange    string  `json:"date_range,omitempty"`

	// Timing in seconds.
	Duration    float64 `json:"duration,omitempty"`
	LLMDuration float64 `json:"llm_duration,omitempty"`

	// Error carries the raw cause when the answer is degraded.
	Error string `json:"error,omitempty"`
}

// HasError reports whether the trace records a failure.
func (t Trace) HasError() bool {
	return t.Error != ""
}

// ErrorTrace returns a trace carrying only the query and failure cause.
func ErrorTrace(query string, err error) Trace {
	return Trace{Query: query, Error: err.Error()}
}

// RetrievedDoc summarises one chunk used as retrieval context.
type RetrievedDoc struct {
	DocID          string `json:"doc_id"`
	ChunkID        string `json:"chunk_id"`
	Sequence       int    `json:"sequence"`
	ContentPreview string `json:"content_preview"`
}

// SourceSummary summarises one web search result.
type SourceSummary struct {
	Position      int    `json:"position"`
	Title         string `json:"title"`
	Link          string `json:"link"`
	Snippet       string `json:"snippet"`
	DisplayedLink string `json:"displayed_link,omitempty"`
}

// FilterAllDocs is the retriever filter recorded for unscoped retrieval.
const FilterAllDocs = "all_docs"

// DocFilter renders the retriever filter for a scoped retrieval.
func DocFilter(docID string) string {
	if docID == "" {
		return FilterAllDocs
	}
	return "doc_id:" + docID
}

// IntPtr returns a pointer to n, for optional count fields.
func IntPtr(n int) *int {
	return &n
}
