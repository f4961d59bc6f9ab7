// Package feed fetches the published cartelera payload and exposes it to
// the rest of the tracker as raw rows per show.  Per-provider HTML scraping
// lives on the other side of the Provider interface; this package only
// understands the aggregated payload the dashboard publishes and the one
// flag source (Fever) that is plain-text extractable.
package feed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"time"

	"encoding/json"

	"github.com/magiaym/cartelera/internal/normalize"
)

// ErrNoPayload indicates the fetched page carried no recognizable payload.
var ErrNoPayload = errors.New("payload not found in feed HTML")

// Table is the positional row table the feed publishes per show.
type Table struct {
	Headers []string           `json:"headers"`
	Rows    []normalize.RawRow `json:"rows"`
}

// SectionTable wraps a table nested under a named section.
type SectionTable struct {
	Table *Table `json:"table"`
}

// EventTables holds the per-show tables as published.  Historically the
// payload carried a flat "table" only; newer payloads add a "proximas"
// (upcoming) section and may add "pasadas" (past).
type EventTables struct {
	Table    *Table        `json:"table"`
	Upcoming *SectionTable `json:"proximas"`
	Past     *SectionTable `json:"pasadas"`
}

// sectionPreference is the single place that encodes which section of a
// show's payload feeds the tracker: upcoming sessions when published,
// otherwise the flat table.  Past sessions never feed the diff.
var sectionPreference = []func(EventTables) *Table{
	func(e EventTables) *Table {
		if e.Upcoming != nil {
			return e.Upcoming.Table
		}
		return nil
	},
	func(e EventTables) *Table { return e.Table },
}

// Rows returns the show's rows from the preferred available section, or nil
// when no section carries data.
func (e EventTables) Rows() []normalize.RawRow {
	for _, pick := range sectionPreference {
		if t := pick(e); t != nil && len(t.Rows) > 0 {
			return t.Rows
		}
	}
	return nil
}

// Payload is the full aggregated snapshot document.
type Payload struct {
	GeneratedAt string                 `json:"generated_at"`
	Eventos     map[string]EventTables `json:"eventos"`
	FeverURLs   map[string]string      `json:"fever_urls"`
}

// GeneratedTime parses the payload timestamp; the zero time signals an
// absent or unparsable value and callers fall back to "now".
func (p *Payload) GeneratedTime() time.Time {
	if p == nil || p.GeneratedAt == "" {
		return time.Time{}
	}
	if t, err := time.Parse(time.RFC3339, p.GeneratedAt); err == nil {
		return t
	}
	return time.Time{}
}

// The payload is embedded in the published page in one of three shapes,
// tried in order: a script tag with id="PAYLOAD", a script tag marked with a
// data-payload attribute, or a window.PAYLOAD assignment inside any script.
var (
	payloadIDPattern     = regexp.MustCompile(`(?is)<script[^>]*\bid\s*=\s*"PAYLOAD"[^>]*>(.*?)</script>`)
	payloadAttrPattern   = regexp.MustCompile(`(?is)<script[^>]*\bdata-payload\b[^>]*>(.*?)</script>`)
	payloadAssignPattern = regexp.MustCompile(`(?s)window\.PAYLOAD\s*=\s*(\{.*?\})\s*;`)
)

// ExtractPayload locates and decodes the payload JSON inside the page HTML.
func ExtractPayload(html string) (*Payload, error) {
	for _, pat := range []*regexp.Regexp{payloadIDPattern, payloadAttrPattern, payloadAssignPattern} {
		m := pat.FindStringSubmatch(html)
		if m == nil {
			continue
		}
		var p Payload
		if err := json.Unmarshal([]byte(m[1]), &p); err != nil {
			return nil, fmt.Errorf("decode payload: %w", err)
		}
		return &p, nil
	}
	return nil, ErrNoPayload
}

// Client fetches the published feed page over HTTP.
type Client struct {
	HTTPClient *http.Client
	URL        string
	UserAgent  string
}

// NewClient builds a feed client with a sane request timeout.
func NewClient(url, userAgent string) *Client {
	return &Client{
		HTTPClient: &http.Client{Timeout: 20 * time.Second},
		URL:        url,
		UserAgent:  userAgent,
	}
}

// Fetch downloads the feed page and extracts the payload.  Any network,
// status or extraction failure surfaces as an error; the caller treats it
// as an empty contribution for the cycle.
func (c *Client) Fetch(ctx context.Context) (*Payload, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("build feed request: %w", err)
	}
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch feed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch feed: unexpected status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read feed body: %w", err)
	}
	return ExtractPayload(string(body))
}
