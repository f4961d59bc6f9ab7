package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/magiaym/cartelera/internal/archive"
)

// HistoryHandler serves archived change events.  Archive may be nil when
// the MySQL archive is disabled; the endpoint then answers 503.
type HistoryHandler struct {
	Archive *archive.Archive
}

// HistoryItem is one archived change event as exposed over the API.
type HistoryItem struct {
	ID        uint64 `json:"id"`
	CycleAt   string `json:"cycle_at"`
	Kind      string `json:"kind"`
	Key       string `json:"key"`
	Show      string `json:"show"`
	DateLabel string `json:"date_label"`
	Time      string `json:"time"`
	Delta     int    `json:"delta"`
	Sold      *int64 `json:"sold,omitempty"`
	Capacity  *int64 `json:"capacity,omitempty"`
	Remaining *int64 `json:"remaining,omitempty"`
}

// GetHistory lists the newest archived change events (?limit=, default 50).
func (h *HistoryHandler) GetHistory(c echo.Context) error {
	if h.Archive == nil {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "history archive disabled"})
	}
	limit := 50
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid limit"})
		}
		limit = n
	}
	rows, err := h.Archive.ListRecent(c.Request().Context(), limit)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	items := make([]HistoryItem, 0, len(rows))
	for _, r := range rows {
		item := HistoryItem{
			ID:        r.ID,
			CycleAt:   r.CycleAt,
			Kind:      r.Kind,
			Key:       r.SessionKey,
			Show:      r.Show,
			DateLabel: r.DateLabel,
			Time:      r.Time,
			Delta:     r.Delta,
		}
		if r.Sold.Valid {
			item.Sold = &r.Sold.Int64
		}
		if r.Capacity.Valid {
			item.Capacity = &r.Capacity.Int64
		}
		if r.Remaining.Valid {
			item.Remaining = &r.Remaining.Int64
		}
		items = append(items, item)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}
