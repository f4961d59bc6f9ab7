package model

// ChangeKind tags the semantic change a poll cycle derived for one session.
type ChangeKind string

const (
	ChangeNewSession     ChangeKind = "NEW_SESSION"     // identity key seen for the first time
	ChangeSalesIncreased ChangeKind = "SALES_INCREASED" // sold count went up since the last cycle
	ChangeSalesDecreased ChangeKind = "SALES_DECREASED" // sold count went down (refunds, corrections)
	ChangeSessionRemoved ChangeKind = "SESSION_REMOVED" // key disappeared from the feed
)

// ChangeEvent is one detected change, carrying enough display data to render
// a human-readable alert without consulting any store.  Delta is the
// absolute sold-count difference and is only meaningful for the two sales
// variants.  Sold/Capacity/Remaining reflect the current cycle and are nil
// when the feed did not report them.
type ChangeEvent struct {
	Kind      ChangeKind
	Key       string
	Show      string
	DateLabel string
	Time      string
	Delta     int
	Sold      *int
	Capacity  *int
	Remaining *int
}
