// Package diff compares the current snapshot against the previously stored
// sold counts and derives typed change events.  It is pure: it never reads
// or writes storage, it only receives the prior counts and returns the
// events plus the counts to persist next.
package diff

import (
	"sort"
	"strings"

	"github.com/magiaym/cartelera/internal/model"
	"github.com/magiaym/cartelera/internal/snapshot"
)

// Engine holds the diff policy knobs.  The zero value matches the tracker's
// default behavior: sessions that vanish from the feed are purged from the
// stored counts without alerting anyone.
type Engine struct {
	// EmitRemovals additionally surfaces a SessionRemoved event for each
	// purged key.  Off by default; the stored counts are purged either way.
	EmitRemovals bool
}

// Diff walks the snapshot in order and classifies every session against the
// prior counts:
//
//	absent key            -> NewSession
//	sold greater          -> SalesIncreased with the positive delta
//	sold smaller          -> SalesDecreased with the positive delta
//	equal                 -> nothing
//
// A session with an unknown sold count stores as 0, so a later real count
// becomes visible as an increase instead of being lost.  Keys present in
// prior but gone from the snapshot are dropped from the returned counts so
// the state file never grows unbounded.
func (e Engine) Diff(prior map[string]int, snap *snapshot.Snapshot) ([]model.ChangeEvent, map[string]int) {
	events := []model.ChangeEvent{}
	next := make(map[string]int, len(snap.Order))

	for _, key := range snap.Order {
		rec := snap.ByKey[key]
		sold := 0
		if rec.Sold != nil {
			sold = *rec.Sold
		}
		next[key] = sold

		prev, seen := prior[key]
		switch {
		case !seen:
			events = append(events, event(model.ChangeNewSession, key, rec, 0))
		case sold > prev:
			events = append(events, event(model.ChangeSalesIncreased, key, rec, sold-prev))
		case sold < prev:
			events = append(events, event(model.ChangeSalesDecreased, key, rec, prev-sold))
		}
	}

	if e.EmitRemovals {
		removed := make([]string, 0)
		for key := range prior {
			if _, still := next[key]; !still {
				removed = append(removed, key)
			}
		}
		sort.Strings(removed)
		for _, key := range removed {
			sold := prior[key]
			ev := model.ChangeEvent{Kind: model.ChangeSessionRemoved, Key: key, Sold: &sold}
			// Display fields come from the key itself; the record is gone.
			if parts := strings.SplitN(key, "::", 3); len(parts) == 3 {
				ev.Show, ev.DateLabel, ev.Time = parts[0], parts[1], parts[2]
			}
			events = append(events, ev)
		}
	}
	return events, next
}

func event(kind model.ChangeKind, key string, rec model.SessionRecord, delta int) model.ChangeEvent {
	return model.ChangeEvent{
		Kind:      kind,
		Key:       key,
		Show:      rec.Show,
		DateLabel: rec.DateLabel,
		Time:      rec.Time,
		Delta:     delta,
		Sold:      rec.Sold,
		Capacity:  rec.Capacity,
		Remaining: rec.Remaining,
	}
}
