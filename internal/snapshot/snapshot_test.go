package snapshot

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magiaym/cartelera/internal/model"
)

func ip(n int) *int { return &n }

func rec(show, dateISO, hm string, sold, remaining *int) model.SessionRecord {
	return model.SessionRecord{
		Show:      show,
		DateLabel: dateISO,
		DateISO:   dateISO,
		Time:      hm,
		Sold:      sold,
		Remaining: remaining,
	}
}

func TestBuildPreservesOrderAndDedupes(t *testing.T) {
	now := time.Now()
	s := Build(now, []model.SessionRecord{
		rec("A", "2025-12-01", "18:00", ip(5), nil),
		rec("B", "2025-12-02", "20:00", ip(1), nil),
		rec("A", "2025-12-01", "18:00", ip(7), nil), // duplicate key, last wins
	})

	require.Equal(t, []string{"A::2025-12-01::18:00", "B::2025-12-02::20:00"}, s.Order)
	got := s.ByKey["A::2025-12-01::18:00"]
	require.NotNil(t, got.Sold)
	assert.Equal(t, 7, *got.Sold, "duplicate within a scrape overwrites")
	assert.Equal(t, now, s.GeneratedAt)
}

func TestFlattenFollowsOrder(t *testing.T) {
	s := Build(time.Now(), []model.SessionRecord{
		rec("B", "2025-12-02", "20:00", nil, nil),
		rec("A", "2025-12-01", "18:00", nil, nil),
	})
	entries := s.Flatten()
	require.Len(t, entries, 2)
	assert.Equal(t, "B", entries[0].Record.Show)
	assert.Equal(t, "A", entries[1].Record.Show)
}

func TestShows(t *testing.T) {
	s := Build(time.Now(), []model.SessionRecord{
		rec("Escondido", "2025-12-01", "18:00", nil, nil),
		rec("Escondido", "2025-12-01", "20:00", nil, nil),
		rec("Magia de Cerca", "2025-12-05", "19:00", nil, nil),
	})
	assert.Equal(t, []string{"Escondido", "Magia de Cerca"}, s.Shows())
}

func TestFilterCaseInsensitiveSubstring(t *testing.T) {
	s := Build(time.Now(), []model.SessionRecord{
		rec("Escondido", "2025-12-01", "18:00", nil, nil),
		rec("Magia de Cerca", "2025-12-05", "19:00", nil, nil),
	})

	got := s.Filter("escond")
	require.Len(t, got, 1)
	assert.Equal(t, "Escondido", got[0].Record.Show)

	assert.Len(t, s.Filter(""), 2, "empty filter returns everything")
	assert.Empty(t, s.Filter("nope"))
}

func TestByDate(t *testing.T) {
	s := Build(time.Now(), []model.SessionRecord{
		rec("A", "2025-12-01", "18:00", nil, nil),
		rec("A", "2025-12-02", "18:00", nil, nil),
	})
	got := s.ByDate("2025-12-02")
	require.Len(t, got, 1)
	assert.Equal(t, "A::2025-12-02::18:00", got[0].Key)
}

func TestLowStockAndSoldOut(t *testing.T) {
	s := Build(time.Now(), []model.SessionRecord{
		rec("A", "2025-12-01", "18:00", ip(80), ip(0)),
		rec("A", "2025-12-02", "18:00", ip(75), ip(5)),
		rec("A", "2025-12-03", "18:00", ip(10), ip(70)),
		rec("A", "2025-12-04", "18:00", ip(10), nil), // unknown stock never qualifies
	})

	low := s.LowStock(10)
	require.Len(t, low, 2)
	assert.Equal(t, "A::2025-12-01::18:00", low[0].Key)
	assert.Equal(t, "A::2025-12-02::18:00", low[1].Key)

	out := s.SoldOut()
	require.Len(t, out, 1)
	assert.Equal(t, "A::2025-12-01::18:00", out[0].Key)
}
