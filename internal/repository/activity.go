package repository

import (
	"database/sql"
	"encoding/json"

	"github.com/google/uuid"
)

// InsertActivity appends an audit entry. userID may be empty for guest
// actions. metadata is stored as JSON.
func InsertActivity(db *sql.DB, userID, activityType, description string, metadata map[string]interface{}) error {
	raw, err := json.Marshal(metadata)
	if err != nil {
		return err
	}
	var userVal interface{}
	if userID != "" {
		userVal = userID
	}
	id := uuid.New().String()
	_, err = db.Exec(
		`INSERT INTO user_activity (id, user_id, activity_type, description, metadata) VALUES (?, ?, ?, ?, ?)`,
		id, userVal, activityType, description, string(raw),
	)
	return err
}

// CountActivities returns the number of audit entries of a given type.
// Used by tests asserting exactly-once reconciliation.
func CountActivities(db *sql.DB, activityType string) (int, error) {
	var n int
	err := db.QueryRow(`SELECT COUNT(*) FROM user_activity WHERE activity_type = ?`, activityType).Scan(&n)
	return n, err
}
