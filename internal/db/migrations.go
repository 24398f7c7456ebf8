package db

import (
	"database/sql"
	"fmt"
)

// migrations are executed in order. Each statement must be idempotent
// (CREATE TABLE IF NOT EXISTS) since there is no migration version table.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL DEFAULT '',
		upgrade_discount_eligible INTEGER NOT NULL DEFAULT 0,
		upgrade_discount_used INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL DEFAULT (datetime('now'))
	)`,

	`CREATE TABLE IF NOT EXISTS resumes (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL REFERENCES users(id),
		title TEXT NOT NULL DEFAULT '',
		template_id TEXT NOT NULL DEFAULT '',
		resume_data TEXT NOT NULL DEFAULT '{}',
		payment_status TEXT NOT NULL DEFAULT 'unpaid',
		created_at TEXT NOT NULL DEFAULT (datetime('now'))
	)`,

	// Guest resumes belong to no account; the purchaser is identified by
	// contact email only.
	`CREATE TABLE IF NOT EXISTS guest_resumes (
		id TEXT PRIMARY KEY,
		email TEXT NOT NULL DEFAULT '',
		title TEXT NOT NULL DEFAULT '',
		template_id TEXT NOT NULL DEFAULT '',
		resume_data TEXT NOT NULL DEFAULT '{}',
		payment_status TEXT NOT NULL DEFAULT 'unpaid',
		created_at TEXT NOT NULL DEFAULT (datetime('now'))
	)`,

	`CREATE TABLE IF NOT EXISTS subscriptions (
		user_id TEXT PRIMARY KEY REFERENCES users(id),
		plan_type TEXT NOT NULL DEFAULT 'free',
		status TEXT NOT NULL DEFAULT 'active',
		current_period_end TEXT,
		updated_at TEXT NOT NULL DEFAULT (datetime('now'))
	)`,

	// One row per initialized gateway transaction. Status tracks the local
	// view only; verification updates it after reconciliation.
	`CREATE TABLE IF NOT EXISTS payments (
		id TEXT PRIMARY KEY,
		user_id TEXT,
		reference TEXT NOT NULL UNIQUE,
		status TEXT NOT NULL DEFAULT 'pending',
		amount REAL NOT NULL,
		currency TEXT NOT NULL,
		plan TEXT,
		description TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL DEFAULT (datetime('now'))
	)`,

	// Idempotency guard: a row exists iff the reference's entitlement has
	// been applied. INSERT OR IGNORE on the primary key is the atomic claim.
	`CREATE TABLE IF NOT EXISTS applied_payments (
		reference TEXT PRIMARY KEY,
		user_id TEXT,
		is_guest INTEGER NOT NULL DEFAULT 0,
		payment_type TEXT NOT NULL,
		resume_id TEXT,
		amount REAL NOT NULL DEFAULT 0,
		currency TEXT NOT NULL DEFAULT '',
		applied_at TEXT NOT NULL DEFAULT (datetime('now'))
	)`,

	`CREATE TABLE IF NOT EXISTS user_activity (
		id TEXT PRIMARY KEY,
		user_id TEXT,
		activity_type TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		metadata TEXT NOT NULL DEFAULT '{}',
		created_at TEXT NOT NULL DEFAULT (datetime('now'))
	)`,

	`CREATE TABLE IF NOT EXISTS usage_counters (
		user_id TEXT NOT NULL,
		category TEXT NOT NULL,
		action TEXT NOT NULL,
		period TEXT NOT NULL,
		count INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (user_id, category, action, period)
	)`,

	`CREATE INDEX IF NOT EXISTS idx_payments_user ON payments(user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_activity_user ON user_activity(user_id)`,
}

// Migrate applies the schema to the given database.
func Migrate(conn *sql.DB) error {
	for i, stmt := range migrations {
		if _, err := conn.Exec(stmt); err != nil {
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return nil
}
