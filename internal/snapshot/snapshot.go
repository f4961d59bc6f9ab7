// Package snapshot assigns identity keys to normalized session records and
// builds the ordered per-cycle snapshot the diff engine and the query
// commands read.  A snapshot is immutable once built; queries never touch
// the persisted state.
package snapshot

import (
	"strings"
	"time"

	"github.com/magiaym/cartelera/internal/model"
)

// Snapshot maps identity keys to the session records observed in one
// polling cycle.  Order preserves the feed's show/date/time sequence, which
// downstream uses for stable alert and listing order.
type Snapshot struct {
	GeneratedAt time.Time // when the feed says the data was produced
	Order       []string  // identity keys in first-seen order
	ByKey       map[string]model.SessionRecord
}

// Build produces a snapshot from the records of one cycle.  Duplicate keys
// within a scrape overwrite (last one wins) while keeping the position of
// the first occurrence; a provider should not emit the same date+time twice
// per show, so this is a tolerance, not a merge strategy.
func Build(generatedAt time.Time, records []model.SessionRecord) *Snapshot {
	s := &Snapshot{
		GeneratedAt: generatedAt,
		Order:       make([]string, 0, len(records)),
		ByKey:       make(map[string]model.SessionRecord, len(records)),
	}
	for _, rec := range records {
		key := rec.Key()
		if _, seen := s.ByKey[key]; !seen {
			s.Order = append(s.Order, key)
		}
		s.ByKey[key] = rec
	}
	return s
}

// Entry is one (key, record) pair yielded by Flatten and the query helpers.
type Entry struct {
	Key    string
	Record model.SessionRecord
}

// Flatten yields all sessions as a single linear sequence in snapshot order.
func (s *Snapshot) Flatten() []Entry {
	out := make([]Entry, 0, len(s.Order))
	for _, key := range s.Order {
		out = append(out, Entry{Key: key, Record: s.ByKey[key]})
	}
	return out
}

// Shows returns the distinct show names in snapshot order.
func (s *Snapshot) Shows() []string {
	var out []string
	seen := map[string]bool{}
	for _, key := range s.Order {
		show := s.ByKey[key].Show
		if !seen[show] {
			seen[show] = true
			out = append(out, show)
		}
	}
	return out
}

// Filter returns the sessions whose show name contains the given substring,
// case-insensitively.  An empty filter returns everything.
func (s *Snapshot) Filter(show string) []Entry {
	if show == "" {
		return s.Flatten()
	}
	want := strings.ToLower(show)
	var out []Entry
	for _, e := range s.Flatten() {
		if strings.Contains(strings.ToLower(e.Record.Show), want) {
			out = append(out, e)
		}
	}
	return out
}

// ByDate returns the sessions scheduled on the exact ISO date.
func (s *Snapshot) ByDate(dateISO string) []Entry {
	var out []Entry
	for _, e := range s.Flatten() {
		if e.Record.DateISO == dateISO {
			out = append(out, e)
		}
	}
	return out
}

// LowStock returns sessions with a known remaining stock at or below the
// threshold.  Unknown stock never qualifies.
func (s *Snapshot) LowStock(threshold int) []Entry {
	var out []Entry
	for _, e := range s.Flatten() {
		r := e.Record.Remaining
		if r != nil && *r >= 0 && *r <= threshold {
			out = append(out, e)
		}
	}
	return out
}

// SoldOut returns sessions whose remaining stock is exactly zero.
func (s *Snapshot) SoldOut() []Entry {
	var out []Entry
	for _, e := range s.Flatten() {
		if e.Record.Remaining != nil && *e.Record.Remaining == 0 {
			out = append(out, e)
		}
	}
	return out
}
