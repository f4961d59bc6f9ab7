// Package notify turns change events into alert text and fans the text out
// to subscribers.  User-facing strings are Spanish, matching the audience of
// the tracked shows.
package notify

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/magiaym/cartelera/internal/model"
	"github.com/magiaym/cartelera/internal/snapshot"
)

// AlertHeader opens every combined change alert.
const AlertHeader = "🔔 *Actualizaciones de cartelera*"

// FormatExtra renders the numeric tail of a session line: "12/80 (15%)",
// "vendidas 12", "quedan 5", joined with " · " and prefixed with " · " when
// non-empty.  Unknown values simply drop out of the string.
func FormatExtra(sold, capacity, remaining *int) string {
	var parts []string
	switch {
	case sold != nil && capacity != nil:
		if pct, ok := safePct(*sold, *capacity); ok {
			parts = append(parts, fmt.Sprintf("%d/%d (%d%%)", *sold, *capacity, pct))
		} else {
			parts = append(parts, fmt.Sprintf("%d/%d", *sold, *capacity))
		}
	case sold != nil:
		parts = append(parts, fmt.Sprintf("vendidas %d", *sold))
	}
	if remaining != nil {
		parts = append(parts, fmt.Sprintf("quedan %d", *remaining))
	}
	if len(parts) == 0 {
		return ""
	}
	return " · " + strings.Join(parts, " · ")
}

// safePct computes the rounded occupancy percentage; a zero capacity has no
// meaningful percentage.
func safePct(sold, capacity int) (int, bool) {
	if capacity == 0 {
		return 0, false
	}
	return int(float64(sold)/float64(capacity)*100 + 0.5), true
}

// FormatEvent renders one change event as a two-line alert block.
func FormatEvent(ev model.ChangeEvent) string {
	line := "• " + ev.DateLabel + " " + ev.Time
	switch ev.Kind {
	case model.ChangeNewSession:
		return "🆕 *Nueva función* — " + ev.Show + "\n" + line
	case model.ChangeSalesIncreased:
		return fmt.Sprintf("📈 *Nuevas ventas* (+%d) — %s\n%s%s",
			ev.Delta, ev.Show, line, FormatExtra(ev.Sold, ev.Capacity, ev.Remaining))
	case model.ChangeSalesDecreased:
		return fmt.Sprintf("📉 *Menos ventas* (-%d) — %s\n%s%s",
			ev.Delta, ev.Show, line, FormatExtra(ev.Sold, ev.Capacity, ev.Remaining))
	case model.ChangeSessionRemoved:
		return "🗑 *Función retirada* — " + ev.Show + "\n" + line
	}
	return ""
}

// RenderAlert builds the combined alert for one poll cycle: the fixed header
// followed by every event block, blocks separated by blank lines.  An empty
// event list yields an empty string, which the dispatcher treats as
// "nothing to send".
func RenderAlert(events []model.ChangeEvent) string {
	if len(events) == 0 {
		return ""
	}
	blocks := make([]string, 0, len(events))
	for _, ev := range events {
		if b := FormatEvent(ev); b != "" {
			blocks = append(blocks, b)
		}
	}
	if len(blocks) == 0 {
		return ""
	}
	return AlertHeader + "\n\n" + strings.Join(blocks, "\n\n")
}

// RenderSummary lists the snapshot grouped by show, at most top sessions per
// show, optionally narrowed to shows whose name contains filter.  This is
// the shared presentation behind /status and /evento.
func RenderSummary(snap *snapshot.Snapshot, filter string, top int) string {
	gen := snap.GeneratedAt
	if gen.IsZero() {
		gen = time.Now()
	}
	lines := []string{"🪄 Cartelera (actualizado " + gen.Format("02/01 15:04") + ")"}

	shows := snap.Shows()
	if filter != "" {
		want := strings.ToLower(filter)
		var kept []string
		for _, name := range shows {
			if strings.Contains(strings.ToLower(name), want) {
				kept = append(kept, name)
			}
		}
		if len(kept) == 0 {
			return "No encontré un evento que contenga “" + filter + "”."
		}
		shows = kept
	}

	for _, name := range shows {
		count := 0
		var block []string
		for _, e := range snap.Flatten() {
			if e.Record.Show != name || count >= top {
				continue
			}
			count++
			rec := e.Record
			block = append(block, "• "+rec.DateLabel+" "+rec.Time+
				FormatExtra(rec.Sold, rec.Capacity, rec.Remaining))
		}
		if len(block) == 0 {
			continue
		}
		lines = append(lines, "\n— "+name+" —")
		lines = append(lines, block...)
	}
	if len(lines) == 1 {
		return "Sin funciones."
	}
	return strings.Join(lines, "\n")
}

// RenderEntries lists arbitrary query results (by date, low stock, sold
// out) as plain session lines under the given title.
func RenderEntries(title string, entries []snapshot.Entry) string {
	if len(entries) == 0 {
		return title + "\n(ninguna)"
	}
	lines := []string{title}
	for _, e := range entries {
		rec := e.Record
		lines = append(lines, "• "+rec.Show+" — "+rec.DateLabel+" "+rec.Time+
			FormatExtra(rec.Sold, rec.Capacity, rec.Remaining))
	}
	return strings.Join(lines, "\n")
}

// IntOrDefault parses a numeric command argument falling back to def, used
// by the /stock threshold and listing limits.
func IntOrDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if n, err := strconv.Atoi(strings.TrimSpace(s)); err == nil && n >= 0 {
		return n
	}
	return def
}
