package diff

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magiaym/cartelera/internal/model"
	"github.com/magiaym/cartelera/internal/snapshot"
)

func ip(n int) *int { return &n }

func rec(show, dateISO, hm string, sold *int) model.SessionRecord {
	return model.SessionRecord{
		Show:      show,
		DateLabel: dateISO,
		DateISO:   dateISO,
		Time:      hm,
		Sold:      sold,
	}
}

func snap(records ...model.SessionRecord) *snapshot.Snapshot {
	return snapshot.Build(time.Now(), records)
}

func TestDiffFullCycle(t *testing.T) {
	prior := map[string]int{"ShowA::2025-12-01::18:00": 5}
	s := snap(
		rec("ShowA", "2025-12-01", "18:00", ip(9)),
		rec("ShowA", "2025-12-02", "18:00", ip(2)),
	)

	events, next := Engine{}.Diff(prior, s)

	require.Len(t, events, 2)
	assert.Equal(t, model.ChangeSalesIncreased, events[0].Kind)
	assert.Equal(t, "ShowA::2025-12-01::18:00", events[0].Key)
	assert.Equal(t, 4, events[0].Delta)
	assert.Equal(t, model.ChangeNewSession, events[1].Kind)
	assert.Equal(t, "ShowA::2025-12-02::18:00", events[1].Key)

	assert.Equal(t, map[string]int{
		"ShowA::2025-12-01::18:00": 9,
		"ShowA::2025-12-02::18:00": 2,
	}, next)
}

func TestDiffIdempotent(t *testing.T) {
	s := snap(rec("A", "2025-12-01", "18:00", ip(5)))

	events, next := Engine{}.Diff(map[string]int{}, s)
	require.Len(t, events, 1)

	again, next2 := Engine{}.Diff(next, s)
	assert.Empty(t, again, "same snapshot twice yields no events")
	assert.Equal(t, next, next2)
}

func TestDiffIncreaseAndDecrease(t *testing.T) {
	key := "A::2025-12-01::18:00"

	events, _ := Engine{}.Diff(map[string]int{key: 5}, snap(rec("A", "2025-12-01", "18:00", ip(8))))
	require.Len(t, events, 1)
	assert.Equal(t, model.ChangeSalesIncreased, events[0].Kind)
	assert.Equal(t, 3, events[0].Delta)

	events, _ = Engine{}.Diff(map[string]int{key: 8}, snap(rec("A", "2025-12-01", "18:00", ip(5))))
	require.Len(t, events, 1)
	assert.Equal(t, model.ChangeSalesDecreased, events[0].Kind)
	assert.Equal(t, 3, events[0].Delta, "decrease deltas are reported positive")

	events, _ = Engine{}.Diff(map[string]int{key: 5}, snap(rec("A", "2025-12-01", "18:00", ip(5))))
	assert.Empty(t, events)
}

func TestDiffUnknownSoldStoresZero(t *testing.T) {
	key := "A::2025-12-01::18:00"
	s := snap(rec("A", "2025-12-01", "18:00", nil))

	events, next := Engine{}.Diff(map[string]int{}, s)
	require.Len(t, events, 1)
	assert.Equal(t, model.ChangeNewSession, events[0].Kind)
	assert.Nil(t, events[0].Sold)
	assert.Equal(t, 0, next[key])

	// When the count later materializes it surfaces as an increase.
	events, next = Engine{}.Diff(next, snap(rec("A", "2025-12-01", "18:00", ip(7))))
	require.Len(t, events, 1)
	assert.Equal(t, model.ChangeSalesIncreased, events[0].Kind)
	assert.Equal(t, 7, events[0].Delta)
	assert.Equal(t, 7, next[key])
}

func TestDiffPurgesVanishedSilentlyByDefault(t *testing.T) {
	prior := map[string]int{
		"A::2025-12-01::18:00": 5,
		"A::2025-12-09::18:00": 3, // no longer in the feed
	}
	s := snap(rec("A", "2025-12-01", "18:00", ip(5)))

	events, next := Engine{}.Diff(prior, s)
	assert.Empty(t, events)
	assert.Equal(t, map[string]int{"A::2025-12-01::18:00": 5}, next)
}

func TestDiffEmitRemovals(t *testing.T) {
	prior := map[string]int{
		"B::2025-12-09::18:00": 3,
		"A::2025-12-08::20:00": 1,
	}
	events, next := Engine{EmitRemovals: true}.Diff(prior, snap())

	require.Len(t, events, 2)
	// Removals come out in sorted key order for determinism.
	assert.Equal(t, model.ChangeSessionRemoved, events[0].Kind)
	assert.Equal(t, "A::2025-12-08::20:00", events[0].Key)
	assert.Equal(t, "A", events[0].Show)
	assert.Equal(t, "2025-12-08", events[0].DateLabel)
	assert.Equal(t, "20:00", events[0].Time)
	require.NotNil(t, events[0].Sold)
	assert.Equal(t, 1, *events[0].Sold)
	assert.Equal(t, "B::2025-12-09::18:00", events[1].Key)

	assert.Empty(t, next, "purged keys never linger in the stored counts")
}

func TestDiffEventOrderFollowsSnapshot(t *testing.T) {
	s := snap(
		rec("Z", "2025-12-01", "18:00", ip(1)),
		rec("A", "2025-12-01", "18:00", ip(1)),
	)
	events, _ := Engine{}.Diff(map[string]int{}, s)
	require.Len(t, events, 2)
	assert.Equal(t, "Z", events[0].Show, "events follow snapshot order, not key order")
	assert.Equal(t, "A", events[1].Show)
}
