package feed

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordFresh(t *testing.T) {
	base := time.Date(2025, 12, 1, 12, 0, 0, 0, time.UTC)
	rec := Record{FetchedAt: base, Payload: &Payload{}}

	assert.True(t, rec.Fresh(base.Add(30*time.Second), time.Minute))
	assert.False(t, rec.Fresh(base.Add(time.Minute), time.Minute))
	assert.False(t, Record{FetchedAt: base}.Fresh(base, time.Minute), "empty record is never fresh")
}

func TestCacheServesWithinTTL(t *testing.T) {
	now := time.Date(2025, 12, 1, 12, 0, 0, 0, time.UTC)
	fetches := 0
	c := NewCache(time.Minute, func(ctx context.Context) (*Payload, error) {
		fetches++
		return &Payload{GeneratedAt: "first"}, nil
	})
	c.now = func() time.Time { return now }

	p1, err := c.GetOrRefresh(context.Background(), false)
	require.NoError(t, err)

	now = now.Add(30 * time.Second)
	p2, err := c.GetOrRefresh(context.Background(), false)
	require.NoError(t, err)
	assert.Same(t, p1, p2)
	assert.Equal(t, 1, fetches)

	now = now.Add(31 * time.Second)
	_, err = c.GetOrRefresh(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, 2, fetches, "expired record triggers a refetch")
}

func TestCacheForceBypassesTTL(t *testing.T) {
	fetches := 0
	c := NewCache(time.Hour, func(ctx context.Context) (*Payload, error) {
		fetches++
		return &Payload{}, nil
	})

	_, err := c.GetOrRefresh(context.Background(), false)
	require.NoError(t, err)
	_, err = c.GetOrRefresh(context.Background(), true)
	require.NoError(t, err)
	assert.Equal(t, 2, fetches)
}

func TestCacheFetchErrorPropagates(t *testing.T) {
	boom := errors.New("feed down")
	ok := true
	c := NewCache(time.Nanosecond, func(ctx context.Context) (*Payload, error) {
		if ok {
			return &Payload{}, nil
		}
		return nil, boom
	})

	_, err := c.GetOrRefresh(context.Background(), false)
	require.NoError(t, err)

	ok = false
	_, err = c.GetOrRefresh(context.Background(), true)
	assert.ErrorIs(t, err, boom, "stale record is not served on fetch failure")
}
