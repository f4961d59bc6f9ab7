// This file defines the public query endpoints.  They are read-only views
// over the latest snapshot; nothing here touches the persisted state.
package handler

import (
	"context"
	"net/http"
	"regexp"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/magiaym/cartelera/internal/model"
	"github.com/magiaym/cartelera/internal/snapshot"
)

// SnapshotSource supplies the latest snapshot; the poller implements it.
type SnapshotSource interface {
	Current(ctx context.Context, force bool) (*snapshot.Snapshot, error)
}

// PublicHandler serves the unauthenticated session queries.
type PublicHandler struct {
	Source SnapshotSource
}

// PublicSession is a session as exposed over the API.
type PublicSession struct {
	Key       string            `json:"key"`
	Show      string            `json:"show"`
	Date      string            `json:"date"`
	DateLabel string            `json:"date_label"`
	Time      string            `json:"time"`
	Sold      *int              `json:"sold"`
	Capacity  *int              `json:"capacity,omitempty"`
	Remaining *int              `json:"remaining,omitempty"`
	External  map[string]string `json:"external,omitempty"`
}

var isoDatePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// GetSessions lists all sessions, optionally narrowed by a case-insensitive
// show-name substring (?show=) and/or an exact ISO date (?date=).
func (h *PublicHandler) GetSessions(c echo.Context) error {
	snap, err := h.snapshot(c)
	if snap == nil {
		return err
	}
	if date := c.QueryParam("date"); date != "" && !isoDatePattern.MatchString(date) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid date, expected YYYY-MM-DD"})
	}
	entries := snap.Filter(c.QueryParam("show"))
	if date := c.QueryParam("date"); date != "" {
		var kept []snapshot.Entry
		for _, e := range entries {
			if e.Record.DateISO == date {
				kept = append(kept, e)
			}
		}
		entries = kept
	}
	return c.JSON(http.StatusOK, echo.Map{"items": publicSessions(entries)})
}

// GetLowStock lists sessions whose known remaining stock is at or below the
// threshold (?threshold=, default 10).
func (h *PublicHandler) GetLowStock(c echo.Context) error {
	snap, err := h.snapshot(c)
	if snap == nil {
		return err
	}
	threshold := 10
	if raw := c.QueryParam("threshold"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid threshold"})
		}
		threshold = n
	}
	return c.JSON(http.StatusOK, echo.Map{"items": publicSessions(snap.LowStock(threshold))})
}

// GetSoldOut lists sessions with exactly zero remaining stock.
func (h *PublicHandler) GetSoldOut(c echo.Context) error {
	snap, err := h.snapshot(c)
	if snap == nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"items": publicSessions(snap.SoldOut())})
}

// GetShows lists the distinct show names in the latest snapshot.
func (h *PublicHandler) GetShows(c echo.Context) error {
	snap, err := h.snapshot(c)
	if snap == nil {
		return err
	}
	shows := snap.Shows()
	if shows == nil {
		shows = []string{}
	}
	return c.JSON(http.StatusOK, echo.Map{"items": shows})
}

// snapshot fetches the current snapshot, answering 502 when no provider
// could deliver data.  A nil snapshot tells the caller the response has
// already been written; the returned error is whatever c.JSON produced.
func (h *PublicHandler) snapshot(c echo.Context) (*snapshot.Snapshot, error) {
	snap, err := h.Source.Current(c.Request().Context(), false)
	if err != nil {
		return nil, c.JSON(http.StatusBadGateway, echo.Map{"error": "feed unavailable"})
	}
	return snap, nil
}

func publicSessions(entries []snapshot.Entry) []PublicSession {
	out := make([]PublicSession, 0, len(entries))
	for _, e := range entries {
		out = append(out, toPublic(e.Key, e.Record))
	}
	return out
}

func toPublic(key string, rec model.SessionRecord) PublicSession {
	p := PublicSession{
		Key:       key,
		Show:      rec.Show,
		Date:      rec.DateISO,
		DateLabel: rec.DateLabel,
		Time:      rec.Time,
		Sold:      rec.Sold,
		Capacity:  rec.Capacity,
		Remaining: rec.Remaining,
	}
	if len(rec.External) > 0 {
		p.External = make(map[string]string, len(rec.External))
		for ch, st := range rec.External {
			p.External[ch] = string(st)
		}
	}
	return p
}
