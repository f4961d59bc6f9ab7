package notify

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magiaym/cartelera/internal/model"
	"github.com/magiaym/cartelera/internal/snapshot"
)

func ip(n int) *int { return &n }

func TestFormatExtra(t *testing.T) {
	assert.Equal(t, " · 12/80 (15%)", FormatExtra(ip(12), ip(80), nil))
	assert.Equal(t, " · 12/80 (15%) · quedan 68", FormatExtra(ip(12), ip(80), ip(68)))
	assert.Equal(t, " · vendidas 12", FormatExtra(ip(12), nil, nil))
	assert.Equal(t, " · quedan 5", FormatExtra(nil, nil, ip(5)))
	assert.Equal(t, "", FormatExtra(nil, nil, nil))
	assert.Equal(t, " · 3/0", FormatExtra(ip(3), ip(0), nil), "zero capacity has no percentage")
}

func TestFormatEventKinds(t *testing.T) {
	base := model.ChangeEvent{
		Show:      "Escondido",
		DateLabel: "01 Dic",
		Time:      "18:00",
		Sold:      ip(9),
		Capacity:  ip(80),
	}

	ev := base
	ev.Kind = model.ChangeNewSession
	assert.Equal(t, "🆕 *Nueva función* — Escondido\n• 01 Dic 18:00", FormatEvent(ev))

	ev = base
	ev.Kind = model.ChangeSalesIncreased
	ev.Delta = 4
	got := FormatEvent(ev)
	assert.True(t, strings.HasPrefix(got, "📈 *Nuevas ventas* (+4) — Escondido\n"), got)
	assert.Contains(t, got, "9/80")

	ev = base
	ev.Kind = model.ChangeSalesDecreased
	ev.Delta = 2
	assert.Contains(t, FormatEvent(ev), "📉 *Menos ventas* (-2)")

	ev = base
	ev.Kind = model.ChangeSessionRemoved
	assert.Equal(t, "🗑 *Función retirada* — Escondido\n• 01 Dic 18:00", FormatEvent(ev))
}

func TestRenderAlert(t *testing.T) {
	assert.Equal(t, "", RenderAlert(nil))

	events := []model.ChangeEvent{
		{Kind: model.ChangeNewSession, Show: "A", DateLabel: "01 Dic", Time: "18:00"},
		{Kind: model.ChangeSalesIncreased, Delta: 1, Show: "B", DateLabel: "02 Dic", Time: "20:00"},
	}
	got := RenderAlert(events)
	require.True(t, strings.HasPrefix(got, AlertHeader+"\n\n"))
	assert.Equal(t, 2, strings.Count(got, "\n\n"), "header and blocks separated by blank lines")
}

func summarySnap() *snapshot.Snapshot {
	recs := []model.SessionRecord{
		{Show: "Escondido", DateLabel: "01 Dic", DateISO: "2025-12-01", Time: "18:00", Sold: ip(12), Capacity: ip(80)},
		{Show: "Escondido", DateLabel: "02 Dic", DateISO: "2025-12-02", Time: "20:00"},
		{Show: "Magia de Cerca", DateLabel: "05 Dic", DateISO: "2025-12-05", Time: "19:00", Remaining: ip(4)},
	}
	return snapshot.Build(time.Date(2025, 12, 1, 15, 4, 0, 0, time.UTC), recs)
}

func TestRenderSummary(t *testing.T) {
	got := RenderSummary(summarySnap(), "", 10)

	assert.True(t, strings.HasPrefix(got, "🪄 Cartelera (actualizado 01/12 15:04)"), got)
	assert.Contains(t, got, "— Escondido —")
	assert.Contains(t, got, "— Magia de Cerca —")
	assert.Contains(t, got, "• 01 Dic 18:00 · 12/80 (15%)")
	assert.Contains(t, got, "• 05 Dic 19:00 · quedan 4")
}

func TestRenderSummaryFilter(t *testing.T) {
	got := RenderSummary(summarySnap(), "magia", 10)
	assert.Contains(t, got, "— Magia de Cerca —")
	assert.NotContains(t, got, "Escondido")

	got = RenderSummary(summarySnap(), "inexistente", 10)
	assert.Equal(t, "No encontré un evento que contenga “inexistente”.", got)
}

func TestRenderSummaryTopLimitsPerShow(t *testing.T) {
	got := RenderSummary(summarySnap(), "escondido", 1)
	assert.Contains(t, got, "01 Dic 18:00")
	assert.NotContains(t, got, "02 Dic 20:00")
}

func TestRenderSummaryEmpty(t *testing.T) {
	empty := snapshot.Build(time.Now(), nil)
	assert.Equal(t, "Sin funciones.", RenderSummary(empty, "", 10))
}

func TestRenderEntries(t *testing.T) {
	assert.Equal(t, "Título\n(ninguna)", RenderEntries("Título", nil))

	entries := summarySnap().LowStock(10)
	got := RenderEntries("⚠️ Poco stock", entries)
	assert.True(t, strings.HasPrefix(got, "⚠️ Poco stock\n"))
	assert.Contains(t, got, "• Magia de Cerca — 05 Dic 19:00 · quedan 4")
}

func TestIntOrDefault(t *testing.T) {
	assert.Equal(t, 10, IntOrDefault("", 10))
	assert.Equal(t, 5, IntOrDefault("5", 10))
	assert.Equal(t, 5, IntOrDefault(" 5 ", 10))
	assert.Equal(t, 10, IntOrDefault("abc", 10))
	assert.Equal(t, 10, IntOrDefault("-3", 10))
}
