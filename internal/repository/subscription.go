package repository

import (
	"database/sql"
	"time"
)

// Subscription plan types. Anything but "free" counts as a paid plan.
const (
	PlanFree         = "free"
	PlanProfessional = "professional"
)

// ActivePlanType returns the plan type of the user's active subscription, or
// "" when there is none.
func ActivePlanType(db *sql.DB, userID string) (string, error) {
	var plan string
	err := db.QueryRow(
		`SELECT plan_type FROM subscriptions WHERE user_id = ? AND status = 'active'`, userID,
	).Scan(&plan)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return plan, err
}

// UpsertSubscription activates (or extends) a user's paid plan with the
// given validity window end.
func UpsertSubscription(db *sql.DB, userID, planType string, periodEnd time.Time) error {
	_, err := db.Exec(`
		INSERT INTO subscriptions (user_id, plan_type, status, current_period_end, updated_at)
		VALUES (?, ?, 'active', ?, datetime('now'))
		ON CONFLICT(user_id) DO UPDATE SET
			plan_type = excluded.plan_type,
			status = 'active',
			current_period_end = excluded.current_period_end,
			updated_at = datetime('now')`,
		userID, planType, periodEnd.UTC().Format(time.RFC3339),
	)
	return err
}

// SubscriptionPeriodEnd returns the current validity window end for a user's
// subscription, or the zero time when none exists.
func SubscriptionPeriodEnd(db *sql.DB, userID string) (time.Time, error) {
	var raw sql.NullString
	err := db.QueryRow(`SELECT current_period_end FROM subscriptions WHERE user_id = ?`, userID).Scan(&raw)
	if err == sql.ErrNoRows {
		return time.Time{}, nil
	}
	if err != nil || !raw.Valid {
		return time.Time{}, err
	}
	t, err := time.Parse(time.RFC3339, raw.String)
	return t, err
}
