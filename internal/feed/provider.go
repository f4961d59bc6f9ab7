package feed

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"sort"
	"time"

	"github.com/magiaym/cartelera/internal/model"
	"github.com/magiaym/cartelera/internal/normalize"
)

// Provider yields the raw session rows of one source, grouped by show.  The
// diff engine and the state store only ever see this interface, so swapping
// or adding a scraper never touches them.
type Provider interface {
	Name() string
	FetchSessions(ctx context.Context) (map[string][]normalize.RawRow, error)
}

// PayloadProvider serves rows from the aggregated published payload,
// through the TTL cache.
type PayloadProvider struct {
	Cache *Cache
}

// Name identifies the provider in logs.
func (p *PayloadProvider) Name() string { return "payload" }

// FetchSessions returns each show's rows from its preferred section.
func (p *PayloadProvider) FetchSessions(ctx context.Context) (map[string][]normalize.RawRow, error) {
	payload, err := p.Cache.GetOrRefresh(ctx, false)
	if err != nil {
		return nil, err
	}
	out := make(map[string][]normalize.RawRow, len(payload.Eventos))
	for show, tables := range payload.Eventos {
		if rows := tables.Rows(); len(rows) > 0 {
			out[show] = rows
		}
	}
	return out, nil
}

// ShowNames lists the payload's show names in a stable order.
func ShowNames(p *Payload) []string {
	names := make([]string, 0, len(p.Eventos))
	for name := range p.Eventos {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// feverDatesPattern locates the embedded session-date list on a Fever event
// page; the dates themselves are plain quoted ISO strings inside it.
var (
	feverDatesPattern = regexp.MustCompile(`"datesWithSessions"\s*:\s*\[(.*?)\]`)
	feverDatePattern  = regexp.MustCompile(`"(\d{4}-\d{2}-\d{2})"`)
)

// FeverProvider refreshes the per-date Fever availability flag for the
// shows it has URLs for.  It is a flag source, not a session source: it can
// only say whether a date is on sale on Fever.
type FeverProvider struct {
	HTTPClient *http.Client
	URLs       map[string]string // show name -> Fever event page
	UserAgent  string
}

// NewFeverProvider builds a Fever flag provider for the given show URLs.
func NewFeverProvider(urls map[string]string, userAgent string) *FeverProvider {
	return &FeverProvider{
		HTTPClient: &http.Client{Timeout: 15 * time.Second},
		URLs:       urls,
		UserAgent:  userAgent,
	}
}

// FetchDates returns the set of ISO dates with Fever sessions for one show.
// A show without a configured URL yields an empty set and no error.
func (f *FeverProvider) FetchDates(ctx context.Context, show string) (map[string]bool, error) {
	url, ok := f.URLs[show]
	if !ok {
		return map[string]bool{}, nil
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build fever request: %w", err)
	}
	if f.UserAgent != "" {
		req.Header.Set("User-Agent", f.UserAgent)
	}
	resp, err := f.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch fever %s: %w", show, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch fever %s: unexpected status %d", show, resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read fever body: %w", err)
	}
	return ExtractFeverDates(string(body)), nil
}

// ExtractFeverDates pulls the on-sale dates out of a Fever page body.  A
// page without the marker yields an empty set.
func ExtractFeverDates(body string) map[string]bool {
	out := map[string]bool{}
	m := feverDatesPattern.FindStringSubmatch(body)
	if m == nil {
		return out
	}
	for _, d := range feverDatePattern.FindAllStringSubmatch(m[1], -1) {
		out[d[1]] = true
	}
	return out
}

// ApplyFeverFlags overwrites the fever flag on the given show's records
// from a freshly fetched date set: on sale when the session date appears in
// the set, sold out otherwise.
func ApplyFeverFlags(records []model.SessionRecord, show string, dates map[string]bool) {
	for i := range records {
		if records[i].Show != show {
			continue
		}
		if records[i].External == nil {
			records[i].External = map[string]model.ExternalStatus{}
		}
		if dates[records[i].DateISO] {
			records[i].External["fever"] = model.ExternalOnSale
		} else {
			records[i].External["fever"] = model.ExternalSoldOut
		}
	}
}
