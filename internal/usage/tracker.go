// Package usage tracks per-user, per-period consumption counters
// (downloads, AI generations). All increments are best-effort: callers log
// failures and move on.
package usage

import (
	"database/sql"
	"time"
)

// Tracker increments monthly usage counters backed by the usage_counters
// table. Period rollover is implicit in the period key; counters are never
// reset in place.
type Tracker struct {
	db *sql.DB

	// now is swappable in tests.
	now func() time.Time
}

func NewTracker(db *sql.DB) *Tracker {
	return &Tracker{db: db, now: time.Now}
}

// Increment bumps the counter for (userID, category, action) in the current
// monthly period, creating it at 1 when absent.
func (t *Tracker) Increment(userID, category, action string) error {
	period := t.now().UTC().Format("2006-01")
	_, err := t.db.Exec(`
		INSERT INTO usage_counters (user_id, category, action, period, count)
		VALUES (?, ?, ?, ?, 1)
		ON CONFLICT(user_id, category, action, period) DO UPDATE SET count = count + 1`,
		userID, category, action, period,
	)
	return err
}

// Count returns the counter value for the current period, 0 when absent.
func (t *Tracker) Count(userID, category, action string) (int, error) {
	period := t.now().UTC().Format("2006-01")
	var n int
	err := t.db.QueryRow(
		`SELECT count FROM usage_counters WHERE user_id = ? AND category = ? AND action = ? AND period = ?`,
		userID, category, action, period,
	).Scan(&n)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	return n, err
}
