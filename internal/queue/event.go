// Package queue defines message payloads exchanged over the message broker.
package queue

// ChangeEventPayload is one detected change as published for downstream
// consumers (dashboards, analytics) that should not depend on the tracker's
// internal model.  Optional counts use pointers so unknown stays unknown.
type ChangeEventPayload struct {
	Kind      string `json:"kind"`
	Key       string `json:"key"`
	Show      string `json:"show"`
	DateLabel string `json:"date_label"`
	Time      string `json:"time"`
	Delta     int    `json:"delta,omitempty"`
	Sold      *int   `json:"sold,omitempty"`
	Capacity  *int   `json:"capacity,omitempty"`
	Remaining *int   `json:"remaining,omitempty"`
}

// ChangeBatchEvent is published once per poll cycle that detected changes.
// It contains everything a consumer needs without querying the tracker.
type ChangeBatchEvent struct {
	CycleAt string               `json:"cycle_at"`
	Events  []ChangeEventPayload `json:"events"`
}
