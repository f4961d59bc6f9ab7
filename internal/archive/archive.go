// Package archive persists change events to MySQL so operators can review
// what the tracker detected and when.  It is optional: without a configured
// database the tracker runs exactly the same, minus the /v1/history
// endpoint.
package archive

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/magiaym/cartelera/internal/model"
)

// ErrDisabled is returned by handlers when no archive is configured.
var ErrDisabled = errors.New("archive disabled")

// ChangeRow is one archived change event as stored.
type ChangeRow struct {
	ID         uint64        // change_events.id
	CycleAt    string        // change_events.cycle_at ("2006-01-02 15:04:05" UTC)
	Kind       string        // change_events.kind
	SessionKey string        // change_events.session_key
	Show       string        // change_events.show_name
	DateLabel  string        // change_events.date_label
	Time       string        // change_events.time_hm
	Delta      int           // change_events.delta
	Sold       sql.NullInt64 // change_events.sold
	Capacity   sql.NullInt64 // change_events.capacity
	Remaining  sql.NullInt64 // change_events.remaining
}

// Archive manages persistence for change events.
type Archive struct {
	db *sql.DB
}

// New constructs an Archive with the given DB handle.
func New(db *sql.DB) *Archive {
	return &Archive{db: db}
}

// EnsureSchema creates the change_events table when it does not exist yet.
// The tracker owns this table alone, so an idempotent create at startup
// replaces a migration tool.
func (a *Archive) EnsureSchema(ctx context.Context) error {
	const q = `CREATE TABLE IF NOT EXISTS change_events (
        id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
        cycle_at DATETIME NOT NULL,
        kind VARCHAR(32) NOT NULL,
        session_key VARCHAR(255) NOT NULL,
        show_name VARCHAR(191) NOT NULL,
        date_label VARCHAR(64) NOT NULL,
        time_hm VARCHAR(16) NOT NULL,
        delta INT NOT NULL DEFAULT 0,
        sold INT NULL,
        capacity INT NULL,
        remaining INT NULL,
        KEY idx_change_events_cycle (cycle_at),
        KEY idx_change_events_session (session_key)
    )`
	if _, err := a.db.ExecContext(ctx, q); err != nil {
		return fmt.Errorf("create change_events: %w", err)
	}
	return nil
}

// Record inserts all events of one cycle inside a single transaction, so a
// cycle is archived completely or not at all.
func (a *Archive) Record(ctx context.Context, cycleAt time.Time, events []model.ChangeEvent) error {
	if len(events) == 0 {
		return nil
	}
	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	const q = `INSERT INTO change_events
        (cycle_at, kind, session_key, show_name, date_label, time_hm, delta, sold, capacity, remaining)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	at := cycleAt.UTC().Format("2006-01-02 15:04:05")
	for _, ev := range events {
		_, err = tx.ExecContext(ctx, q,
			at, string(ev.Kind), ev.Key, ev.Show, ev.DateLabel, ev.Time, ev.Delta,
			nullable(ev.Sold), nullable(ev.Capacity), nullable(ev.Remaining),
		)
		if err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("insert change event: %w", err)
		}
	}
	return tx.Commit()
}

// ListRecent returns the newest archived events, newest first, up to limit.
// When no rows exist it returns an empty slice and nil error.
func (a *Archive) ListRecent(ctx context.Context, limit int) ([]ChangeRow, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	const q = `SELECT id, cycle_at, kind, session_key, show_name, date_label, time_hm, delta, sold, capacity, remaining
               FROM change_events
               ORDER BY id DESC
               LIMIT ?`
	rows, err := a.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	result := []ChangeRow{}
	for rows.Next() {
		var r ChangeRow
		if err := rows.Scan(
			&r.ID, &r.CycleAt, &r.Kind, &r.SessionKey, &r.Show, &r.DateLabel,
			&r.Time, &r.Delta, &r.Sold, &r.Capacity, &r.Remaining,
		); err != nil {
			return nil, err
		}
		result = append(result, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func nullable(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}
