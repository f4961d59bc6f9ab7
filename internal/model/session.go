package model

// ExternalStatus describes what a secondary sales channel reports about a
// session.  The primary feed carries these as loose strings ("venta",
// "agotado" or nothing); they are normalized once at ingestion.
type ExternalStatus string

const (
	ExternalOnSale  ExternalStatus = "venta"   // channel is selling tickets for the session
	ExternalSoldOut ExternalStatus = "agotado" // channel reports the session as sold out
	ExternalUnknown ExternalStatus = "unknown" // channel gave no usable signal
)

// SessionRecord is one scheduled performance of a show at a specific date
// and time, in canonical form.  Counts use pointers so that an unknown
// value ("—", "N/A", empty) stays distinguishable from a real zero.
//
// Fields:
//
//	Show      – name of the production the session belongs to.
//	DateLabel – human label from the feed (e.g. "01 Dic 2025"), used in alerts.
//	DateISO   – calendar date, YYYY-MM-DD.
//	Time      – local time HH:MM (24h), normalized from the source format.
//	Sold      – tickets sold; nil when the source reports no count.
//	Capacity  – total seats; nil when unknown.
//	Remaining – stock left; nil when unknown.  When both Capacity and Sold
//	            are present the feed usually satisfies Remaining =
//	            Capacity - Sold, but sources may disagree and the last
//	            reported value wins.
//	External  – per-channel availability flags (e.g. "abono", "fever").
type SessionRecord struct {
	Show      string
	DateLabel string
	DateISO   string
	Time      string
	Sold      *int
	Capacity  *int
	Remaining *int
	External  map[string]ExternalStatus
}

// Key returns the stable identity of the session across polling cycles:
// show, ISO date and time joined with "::".  The feed is assumed to make
// date+time unique per show, so collisions are not handled.
func (s SessionRecord) Key() string {
	return SessionKey(s.Show, s.DateISO, s.Time)
}

// SessionKey builds an identity key from its three parts.  Kept as a free
// function so stored count maps can be keyed without a full record.
func SessionKey(show, dateISO, timeHM string) string {
	return show + "::" + dateISO + "::" + timeHM
}
