// Package arxiv searches preprints through the arXiv export API.
//
// The API answers with an Atom feed. Entries are mapped onto domain.Paper
// with the abstract left untruncated; shaping for prompts happens in the
// paper answerer.
package arxiv

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/triage/internal/core/domain"
	"github.com/custodia-labs/triage/internal/core/ports/driven"
	"github.com/custodia-labs/triage/internal/ratelimit"
)

// Ensure Client implements the interface.
var _ driven.PaperSearcher = (*Client)(nil)

// Default configuration values.
const (
	DefaultBaseURL    = "https://export.arxiv.org/api/query"
	DefaultTimeout    = 30 * time.Second
	DefaultMaxResults = 16
)

// Config holds configuration for the arXiv client.
type Config struct {
	BaseURL string
	Timeout time.Duration
	Limiter *ratelimit.Limiter
}

// Client queries the arXiv export API.
type Client struct {
	client  *http.Client
	baseURL string
	limiter *ratelimit.Limiter
}

type feed struct {
	XMLName xml.Name `xml:"feed"`
	Entries []entry  `xml:"entry"`
}

type entry struct {
	ID         string     `xml:"id"`
	Title      string     `xml:"title"`
	Summary    string     `xml:"summary"`
	Published  string     `xml:"published"`
	Authors    []author   `xml:"author"`
	Links      []link     `xml:"link"`
	Categories []category `xml:"category"`
}

type author struct {
	Name string `xml:"name"`
}

type link struct {
	Href  string `xml:"href,attr"`
	Rel   string `xml:"rel,attr"`
	Title string `xml:"title,attr"`
	Type  string `xml:"type,attr"`
}

type category struct {
	Term string `xml:"term,attr"`
}

// New creates an arXiv client.
func New(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Limiter == nil {
		cfg.Limiter = ratelimit.New(ratelimit.ServiceArxiv)
	}
	return &Client{
		client:  &http.Client{Timeout: cfg.Timeout},
		baseURL: cfg.BaseURL,
		limiter: cfg.Limiter,
	}
}

// Search runs q.SearchQuery and returns matching papers in feed order.
func (c *Client) Search(ctx context.Context, q domain.PaperQuery) ([]domain.Paper, error) {
	if strings.TrimSpace(q.SearchQuery) == "" {
		return nil, fmt.Errorf("%w: empty arXiv query", domain.ErrInvalidInput)
	}
	maxResults := q.MaxResults
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}

	params := url.Values{}
	params.Set("search_query", searchQuery(q.SearchQuery))
	params.Set("start", "0")
	params.Set("max_results", strconv.Itoa(maxResults))
	if q.SortBySubmitted {
		params.Set("sortBy", "submittedDate")
		params.Set("sortOrder", "descending")
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("arxiv: create request: %w", err)
	}
	req.Header.Set("Accept", "application/atom+xml")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("arxiv: send request: %w", err)
	}
	defer resp.Body.Close()

	c.limiter.Observe(resp)
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, domain.HTTPStatusError("arxiv", resp.StatusCode, string(body))
	}

	var f feed
	if err := xml.NewDecoder(resp.Body).Decode(&f); err != nil {
		return nil, fmt.Errorf("%w: arxiv: decode feed: %v", domain.ErrUpstream, err)
	}

	papers := make([]domain.Paper, 0, len(f.Entries))
	for _, e := range f.Entries {
		// The API reports query errors as a single entry pointing at /api/errors.
		if strings.Contains(e.ID, "/api/errors") {
			return nil, fmt.Errorf("%w: arxiv: %s", domain.ErrInvalidInput, collapse(e.Summary))
		}
		papers = append(papers, toPaper(e))
	}
	return papers, nil
}

// searchQuery passes field-prefixed queries (cat:, ti:, abs:) through and
// searches plain text across all fields.
func searchQuery(q string) string {
	q = strings.TrimSpace(q)
	if strings.Contains(q, ":") {
		return q
	}
	return "all:" + q
}

func toPaper(e entry) domain.Paper {
	p := domain.Paper{
		Title:   collapse(e.Title),
		Summary: strings.TrimSpace(e.Summary),
		URL:     strings.TrimSpace(e.ID),
		ArxivID: arxivID(e.ID),
	}

	for _, a := range e.Authors {
		if name := strings.TrimSpace(a.Name); name != "" {
			p.Authors = append(p.Authors, name)
		}
	}
	for _, c := range e.Categories {
		if c.Term != "" {
			p.Categories = append(p.Categories, c.Term)
		}
	}
	for _, l := range e.Links {
		if l.Title == "pdf" || l.Type == "application/pdf" {
			p.PDFURL = l.Href
			break
		}
	}

	p.Published = "Unknown"
	if t, err := time.Parse(time.RFC3339, strings.TrimSpace(e.Published)); err == nil {
		p.PublishedAt = t
		p.Published = t.Format("2006-01-02")
	}
	return p
}

// arxivID returns the last path segment of an entry id,
// e.g. http://arxiv.org/abs/2510.05102v1 -> 2510.05102v1.
func arxivID(entryID string) string {
	entryID = strings.TrimRight(strings.TrimSpace(entryID), "/")
	if i := strings.LastIndex(entryID, "/"); i >= 0 {
		return entryID[i+1:]
	}
	return entryID
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
