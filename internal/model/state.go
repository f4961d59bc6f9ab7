package model

// PersistedState is the durable part of the tracker: who gets alerts and the
// last sold count seen per session key.  It serializes to the state file as
// {"subscribers": [...], "counts": {...}} and must survive hand edits, so
// both fields tolerate being absent from the JSON.
type PersistedState struct {
	Subscribers []int64        `json:"subscribers"` // Telegram chat IDs registered for alerts
	Counts      map[string]int `json:"counts"`      // session key -> last-known sold count
}

// NewPersistedState returns an empty state with both containers allocated,
// the value used whenever the state file is missing or unreadable.
func NewPersistedState() PersistedState {
	return PersistedState{Subscribers: []int64{}, Counts: map[string]int{}}
}
