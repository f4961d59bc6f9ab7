// Package poller runs the polling cycle: fetch the feed, normalize it into
// a snapshot, diff against the stored counts, persist the new counts and
// fan alerts out to subscribers.  Each step degrades on its own — a failed
// fetch skips the cycle, a failed save or send is logged and the loop keeps
// going.
package poller

import (
	"context"
	"log"
	"sort"
	"time"

	"github.com/magiaym/cartelera/internal/diff"
	"github.com/magiaym/cartelera/internal/feed"
	"github.com/magiaym/cartelera/internal/model"
	"github.com/magiaym/cartelera/internal/normalize"
	"github.com/magiaym/cartelera/internal/notify"
	"github.com/magiaym/cartelera/internal/snapshot"
	"github.com/magiaym/cartelera/internal/state"
)

// Archiver records change events durably for the history endpoint.
type Archiver interface {
	Record(ctx context.Context, cycleAt time.Time, events []model.ChangeEvent) error
}

// PublishFunc forwards a cycle's change events to the message broker.
type PublishFunc func(ctx context.Context, cycleAt time.Time, events []model.ChangeEvent) error

// Poller wires the cycle's collaborators.  Archive and Publish are
// optional; a nil value disables that step.
type Poller struct {
	Cache      *feed.Cache
	Providers  []feed.Provider
	Fever      *feed.FeverProvider
	Store      *state.Store
	Engine     diff.Engine
	Dispatcher *notify.Dispatcher
	Archive    Archiver
	Publish    PublishFunc

	FirstDelay time.Duration
	Interval   time.Duration

	trigger chan struct{}
}

// New builds a poller with the standard cadence: first run shortly after
// startup, then a fixed interval.
func New(cache *feed.Cache, providers []feed.Provider, store *state.Store, dispatcher *notify.Dispatcher) *Poller {
	return &Poller{
		Cache:      cache,
		Providers:  providers,
		Store:      store,
		Dispatcher: dispatcher,
		FirstDelay: 5 * time.Second,
		Interval:   120 * time.Second,
		trigger:    make(chan struct{}, 1),
	}
}

// Trigger requests an immediate cycle without waiting for the interval.  It
// never blocks; a pending trigger coalesces with the next one.
func (p *Poller) Trigger() {
	select {
	case p.trigger <- struct{}{}:
	default:
	}
}

// Run executes cycles until the context is cancelled.  There is no
// cancellation of an in-flight cycle beyond the context the cycle itself
// receives.
func (p *Poller) Run(ctx context.Context) {
	timer := time.NewTimer(p.FirstDelay)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		case <-p.trigger:
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
		}
		if err := p.RunOnce(ctx); err != nil {
			log.Printf("poller: cycle skipped: %v", err)
		}
		timer.Reset(p.Interval)
	}
}

// RunOnce performs one full cycle.  Only a failure to produce any snapshot
// at all returns an error; everything after that point degrades in place.
func (p *Poller) RunOnce(ctx context.Context) error {
	snap, err := p.Current(ctx, true)
	if err != nil {
		return err
	}

	st := p.Store.Load()
	events, nextCounts := p.Engine.Diff(st.Counts, snap)
	st.Counts = nextCounts

	// The state is rewritten every successful cycle, changes or not, so a
	// removed session's key is purged even on quiet cycles.
	if err := p.Store.Save(st); err != nil {
		log.Printf("poller: state save failed: %v", err)
	}

	if len(events) > 0 {
		log.Printf("poller: %d change(s) detected", len(events))
		if n := p.Dispatcher.Dispatch(ctx, events, st.Subscribers); n > 0 {
			log.Printf("poller: alert delivered to %d subscriber(s)", n)
		}
		cycleAt := time.Now().UTC()
		if p.Archive != nil {
			if err := p.Archive.Record(ctx, cycleAt, events); err != nil {
				log.Printf("poller: archive failed: %v", err)
			}
		}
		if p.Publish != nil {
			if err := p.Publish(ctx, cycleAt, events); err != nil {
				log.Printf("poller: publish failed: %v", err)
			}
		}
	}
	return nil
}

// Current builds a snapshot from whatever the providers can deliver right
// now.  force bypasses the feed cache's TTL.  A provider failure is logged
// and contributes nothing; the snapshot is built from the rest.  Only a
// total failure (payload unavailable and no provider rows) is an error.
func (p *Poller) Current(ctx context.Context, force bool) (*snapshot.Snapshot, error) {
	payload, payloadErr := p.Cache.GetOrRefresh(ctx, force)
	if payloadErr != nil {
		log.Printf("poller: payload fetch failed: %v", payloadErr)
	}

	byShow := map[string][]normalize.RawRow{}
	for _, prov := range p.Providers {
		rows, err := prov.FetchSessions(ctx)
		if err != nil {
			log.Printf("poller: provider %s failed: %v", prov.Name(), err)
			continue
		}
		for show, r := range rows {
			byShow[show] = append(byShow[show], r...)
		}
	}

	shows := make([]string, 0, len(byShow))
	for show := range byShow {
		shows = append(shows, show)
	}
	sort.Strings(shows)

	var records []model.SessionRecord
	for _, show := range shows {
		recs := normalize.Records(show, byShow[show])
		if p.Fever != nil {
			if dates, err := p.Fever.FetchDates(ctx, show); err != nil {
				log.Printf("poller: fever flags for %s failed: %v", show, err)
			} else if len(dates) > 0 {
				feed.ApplyFeverFlags(recs, show, dates)
			}
		}
		records = append(records, recs...)
	}

	// With the primary feed down and nothing scraped there is no snapshot
	// to diff against; the cycle is skipped rather than treated as "all
	// sessions removed".
	if payloadErr != nil && len(records) == 0 {
		return nil, payloadErr
	}
	return snapshot.Build(payload.GeneratedTime(), records), nil
}
