// Package normalize converts loose feed rows into canonical SessionRecords.
// It is the only place that knows the positional layout of upstream rows;
// everything downstream works with named fields.
package normalize

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/magiaym/cartelera/internal/model"
)

// RawRow is one positional row as decoded from the feed JSON.  Cells are
// loosely typed: numbers arrive as float64, labels as string, absent values
// as nil.  Rows may be shorter than the full layout.
type RawRow []any

// Positional offsets of the feed row layout.  Trailing cells are optional.
const (
	colDateLabel = iota // human date label, e.g. "01 Dic 2025"
	colTime             // session time in a source-specific format
	colSold             // tickets sold on the primary channel
	colDateISO          // YYYY-MM-DD
	colCapacity         // total seats
	colRemaining        // stock left
	colAbono            // AbonoTeatro flag ("venta"/"agotado")
	colFever            // Fever flag ("venta"/"agotado")
	colKulturCap        // capacity as reported by Kultur
	colKulturStock      // stock as reported by Kultur
)

// countSentinels are the upstream spellings of "no count available".  They
// normalize to an absent value, never to zero: a sold count of 0 is a real
// observation, a dash is not.
var countSentinels = map[string]bool{
	"": true, "—": true, "-": true, "N/A": true, "NA": true,
}

// ParseCount normalizes one numeric cell.  nil and sentinel strings yield
// nil; "1.234" and "1,234" both yield 1234; anything unparsable also yields
// nil rather than an error, since a bad cell is a tolerated partial failure.
func ParseCount(v any) *int {
	switch x := v.(type) {
	case nil:
		return nil
	case float64:
		n := int(x)
		if n < 0 {
			return nil
		}
		return &n
	case int:
		if x < 0 {
			return nil
		}
		n := x
		return &n
	case string:
		s := strings.TrimSpace(x)
		if countSentinels[s] {
			return nil
		}
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", "")
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			return nil
		}
		return &n
	default:
		return nil
	}
}

// timePattern matches an hour with an optional two-digit minute once
// separators are stripped: "18", "18:30", "1830".
var timePattern = regexp.MustCompile(`^(\d{1,2}):?(\d{2})?$`)

// NormalizeTime collapses the time spellings seen across providers ("18h",
// "18h30", "18:30", "18 30", "1830") into zero-padded "HH:MM".  Values that
// match no recognized pattern pass through unchanged; callers treat the
// field as an opaque label in that case.
func NormalizeTime(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, "h", ":")
	m := timePattern.FindStringSubmatch(s)
	if m == nil {
		return raw
	}
	hh, _ := strconv.Atoi(m[1])
	mm := 0
	if m[2] != "" {
		mm, _ = strconv.Atoi(m[2])
	}
	if hh > 23 || mm > 59 {
		return raw
	}
	return pad2(hh) + ":" + pad2(mm)
}

func pad2(n int) string {
	if n < 10 {
		return "0" + strconv.Itoa(n)
	}
	return strconv.Itoa(n)
}

// Record maps one positional row to a SessionRecord for the given show.
// Rows without an ISO date or a time are dropped (ok=false); that is the
// normal partial-failure mode for malformed upstream data, not an error.
func Record(show string, row RawRow) (model.SessionRecord, bool) {
	dateISO := cellString(row, colDateISO)
	timeRaw := cellString(row, colTime)
	if dateISO == "" || strings.TrimSpace(timeRaw) == "" {
		return model.SessionRecord{}, false
	}

	rec := model.SessionRecord{
		Show:      show,
		DateLabel: cellString(row, colDateLabel),
		DateISO:   dateISO,
		Time:      NormalizeTime(timeRaw),
		Sold:      ParseCount(cell(row, colSold)),
		Capacity:  ParseCount(cell(row, colCapacity)),
		Remaining: ParseCount(cell(row, colRemaining)),
		External:  map[string]model.ExternalStatus{},
	}

	if st, ok := externalStatus(cell(row, colAbono)); ok {
		rec.External["abono"] = st
	}
	if st, ok := externalStatus(cell(row, colFever)); ok {
		rec.External["fever"] = st
	}

	// Kultur reports its own capacity/stock for the same physical session.
	// They only fill in when the primary channel reported nothing.
	if rec.Capacity == nil {
		rec.Capacity = ParseCount(cell(row, colKulturCap))
	}
	if rec.Remaining == nil {
		rec.Remaining = ParseCount(cell(row, colKulturStock))
	}
	return rec, true
}

// Records maps a whole batch of rows for one show, silently skipping the
// rows Record rejects.
func Records(show string, rows []RawRow) []model.SessionRecord {
	out := make([]model.SessionRecord, 0, len(rows))
	for _, row := range rows {
		if rec, ok := Record(show, row); ok {
			out = append(out, rec)
		}
	}
	return out
}

// externalStatus interprets a channel flag cell.  A nil cell means the
// channel does not apply to this show, so no entry is recorded at all;
// unrecognized non-empty values map to ExternalUnknown.
func externalStatus(v any) (model.ExternalStatus, bool) {
	s, isStr := v.(string)
	if v == nil || (isStr && strings.TrimSpace(s) == "") {
		return "", false
	}
	if !isStr {
		return model.ExternalUnknown, true
	}
	switch strings.ToLower(strings.TrimSpace(s)) {
	case string(model.ExternalOnSale):
		return model.ExternalOnSale, true
	case string(model.ExternalSoldOut):
		return model.ExternalSoldOut, true
	default:
		return model.ExternalUnknown, true
	}
}

func cell(row RawRow, i int) any {
	if i < len(row) {
		return row[i]
	}
	return nil
}

func cellString(row RawRow, i int) string {
	if s, ok := cell(row, i).(string); ok {
		return strings.TrimSpace(s)
	}
	return ""
}
