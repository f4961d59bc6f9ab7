package archive

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magiaym/cartelera/internal/model"
)

func ip(n int) *int { return &n }

func newMock(t *testing.T) (*Archive, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return New(db), mock
}

func TestEnsureSchema(t *testing.T) {
	a, mock := newMock(t)
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS change_events").
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, a.EnsureSchema(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordInsertsAllEventsInOneTx(t *testing.T) {
	a, mock := newMock(t)
	cycleAt := time.Date(2025, 12, 1, 15, 4, 5, 0, time.UTC)
	events := []model.ChangeEvent{
		{Kind: model.ChangeSalesIncreased, Key: "A::2025-12-01::18:00", Show: "A",
			DateLabel: "01 Dic", Time: "18:00", Delta: 4, Sold: ip(9), Capacity: ip(80)},
		{Kind: model.ChangeNewSession, Key: "A::2025-12-02::18:00", Show: "A",
			DateLabel: "02 Dic", Time: "18:00", Sold: ip(2)},
	}

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO change_events").
		WithArgs("2025-12-01 15:04:05", "SALES_INCREASED", "A::2025-12-01::18:00",
			"A", "01 Dic", "18:00", 4,
			sql.NullInt64{Int64: 9, Valid: true},
			sql.NullInt64{Int64: 80, Valid: true},
			sql.NullInt64{}).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO change_events").
		WithArgs("2025-12-01 15:04:05", "NEW_SESSION", "A::2025-12-02::18:00",
			"A", "02 Dic", "18:00", 0,
			sql.NullInt64{Int64: 2, Valid: true},
			sql.NullInt64{},
			sql.NullInt64{}).
		WillReturnResult(sqlmock.NewResult(2, 1))
	mock.ExpectCommit()

	require.NoError(t, a.Record(context.Background(), cycleAt, events))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordRollsBackOnInsertFailure(t *testing.T) {
	a, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO change_events").
		WillReturnError(errors.New("table gone"))
	mock.ExpectRollback()

	err := a.Record(context.Background(), time.Now(),
		[]model.ChangeEvent{{Kind: model.ChangeNewSession, Key: "k"}})
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordEmptyBatchIsNoop(t *testing.T) {
	a, mock := newMock(t)
	require.NoError(t, a.Record(context.Background(), time.Now(), nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListRecent(t *testing.T) {
	a, mock := newMock(t)
	cols := []string{"id", "cycle_at", "kind", "session_key", "show_name",
		"date_label", "time_hm", "delta", "sold", "capacity", "remaining"}
	mock.ExpectQuery("SELECT (.+) FROM change_events").
		WithArgs(2).
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow(12, "2025-12-01 15:04:05", "SALES_INCREASED", "A::2025-12-01::18:00",
				"A", "01 Dic", "18:00", 4, 9, 80, nil).
			AddRow(11, "2025-12-01 15:04:05", "NEW_SESSION", "A::2025-12-02::18:00",
				"A", "02 Dic", "18:00", 0, nil, nil, nil))

	rows, err := a.ListRecent(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, uint64(12), rows[0].ID)
	assert.Equal(t, "SALES_INCREASED", rows[0].Kind)
	assert.True(t, rows[0].Sold.Valid)
	assert.Equal(t, int64(9), rows[0].Sold.Int64)
	assert.False(t, rows[1].Sold.Valid)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListRecentClampsLimit(t *testing.T) {
	a, mock := newMock(t)
	cols := []string{"id", "cycle_at", "kind", "session_key", "show_name",
		"date_label", "time_hm", "delta", "sold", "capacity", "remaining"}
	mock.ExpectQuery("SELECT (.+) FROM change_events").
		WithArgs(50).
		WillReturnRows(sqlmock.NewRows(cols))

	rows, err := a.ListRecent(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, rows)
	assert.NotNil(t, rows, "no rows yields an empty slice, not nil")
	assert.NoError(t, mock.ExpectationsWereMet())
}
