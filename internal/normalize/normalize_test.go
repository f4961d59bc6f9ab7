package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magiaym/cartelera/internal/model"
)

func TestParseCountSentinels(t *testing.T) {
	for _, v := range []any{nil, "", "—", "-", "N/A", "NA", " N/A "} {
		assert.Nil(t, ParseCount(v), "value %#v should normalize to absent", v)
	}
}

func TestParseCountThousandsSeparators(t *testing.T) {
	for _, v := range []string{"1.234", "1,234"} {
		got := ParseCount(v)
		require.NotNil(t, got)
		assert.Equal(t, 1234, *got)
	}
}

func TestParseCountValues(t *testing.T) {
	got := ParseCount(float64(42)) // JSON numbers decode as float64
	require.NotNil(t, got)
	assert.Equal(t, 42, *got)

	got = ParseCount("0")
	require.NotNil(t, got)
	assert.Equal(t, 0, *got, "an explicit zero is a real observation")

	assert.Nil(t, ParseCount("abc"), "garbage normalizes to absent, not zero")
	assert.Nil(t, ParseCount(float64(-3)), "negative counts are rejected")
	assert.Nil(t, ParseCount([]any{1}))
}

func TestNormalizeTime(t *testing.T) {
	cases := map[string]string{
		"18h":     "18:00",
		"18h30":   "18:30",
		"18:30":   "18:30",
		"1830":    "18:30",
		"18 30":   "18:30",
		" 9:05 ":  "09:05",
		"9":       "09:00",
		"18H30":   "18:30",
		"matinée": "matinée", // unrecognized passes through unchanged
		"25:00":   "25:00",   // out of range, left alone
	}
	for in, want := range cases {
		assert.Equal(t, want, NormalizeTime(in), "input %q", in)
	}
}

func TestRecordMapsPositionalRow(t *testing.T) {
	row := RawRow{"01 Dic 2025", "18h30", float64(12), "2025-12-01", float64(80), float64(68), "venta", "agotado"}
	rec, ok := Record("Escondido", row)
	require.True(t, ok)

	assert.Equal(t, "Escondido", rec.Show)
	assert.Equal(t, "01 Dic 2025", rec.DateLabel)
	assert.Equal(t, "2025-12-01", rec.DateISO)
	assert.Equal(t, "18:30", rec.Time)
	require.NotNil(t, rec.Sold)
	assert.Equal(t, 12, *rec.Sold)
	require.NotNil(t, rec.Capacity)
	assert.Equal(t, 80, *rec.Capacity)
	require.NotNil(t, rec.Remaining)
	assert.Equal(t, 68, *rec.Remaining)
	assert.Equal(t, model.ExternalOnSale, rec.External["abono"])
	assert.Equal(t, model.ExternalSoldOut, rec.External["fever"])
}

func TestRecordDropsIncompleteRows(t *testing.T) {
	_, ok := Record("X", RawRow{"label", "18:00"}) // no ISO date
	assert.False(t, ok)

	_, ok = Record("X", RawRow{"label", "", float64(1), "2025-12-01"}) // no time
	assert.False(t, ok)

	_, ok = Record("X", RawRow{})
	assert.False(t, ok)
}

func TestRecordShortRowTolerated(t *testing.T) {
	rec, ok := Record("X", RawRow{"label", "20:00", nil, "2025-12-02"})
	require.True(t, ok)
	assert.Nil(t, rec.Sold)
	assert.Nil(t, rec.Capacity)
	assert.Nil(t, rec.Remaining)
	assert.Empty(t, rec.External)
}

func TestRecordKulturFallback(t *testing.T) {
	// Primary capacity/stock absent; Kultur's values fill in.
	row := RawRow{"label", "20:00", float64(5), "2025-12-02", nil, nil, nil, nil, float64(60), float64(55)}
	rec, ok := Record("Escondido", row)
	require.True(t, ok)
	require.NotNil(t, rec.Capacity)
	assert.Equal(t, 60, *rec.Capacity)
	require.NotNil(t, rec.Remaining)
	assert.Equal(t, 55, *rec.Remaining)
}

func TestRecordsSkipsBadRows(t *testing.T) {
	rows := []RawRow{
		{"a", "18:00", float64(1), "2025-12-01"},
		{"b", "19:00"}, // dropped
		{"c", "20:00", float64(2), "2025-12-02"},
	}
	recs := Records("Show", rows)
	require.Len(t, recs, 2)
	assert.Equal(t, "2025-12-01", recs[0].DateISO)
	assert.Equal(t, "2025-12-02", recs[1].DateISO)
}
