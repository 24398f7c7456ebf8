package seeds

import (
	"database/sql"
	"fmt"

	"kazinest/api/internal/repository"
)

// Run clears seed-related data and inserts fresh seed data.
// Safe to run multiple times (resets to seed state).
func Run(db *sql.DB) error {
	if err := clear(db); err != nil {
		return fmt.Errorf("clear: %w", err)
	}
	if err := insert(db); err != nil {
		return fmt.Errorf("insert: %w", err)
	}
	return nil
}

func clear(db *sql.DB) error {
	tables := []string{
		"user_activity", "usage_counters", "applied_payments", "payments",
		"subscriptions", "resumes", "guest_resumes", "users",
	}
	for _, t := range tables {
		if _, err := db.Exec("DELETE FROM " + t); err != nil {
			return fmt.Errorf("delete %s: %w", t, err)
		}
	}
	return nil
}

func insert(db *sql.DB) error {
	userID, err := repository.CreateUser(db, "jane@example.com", "Jane Wanjiru")
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}

	if _, err := repository.CreateResume(db, userID, "Software Engineer CV", "classic", `{"personalInfo":{"fullName":"Jane Wanjiru"}}`); err != nil {
		return fmt.Errorf("create resume: %w", err)
	}
	if _, err := repository.CreateResume(db, userID, "Product Manager CV", "modern", `{"personalInfo":{"fullName":"Jane Wanjiru"}}`); err != nil {
		return fmt.Errorf("create resume: %w", err)
	}

	if _, err := repository.CreateGuestResume(db, "guest@example.com", "Guest CV", "classic", `{"personalInfo":{"fullName":"Guest User"}}`); err != nil {
		return fmt.Errorf("create guest resume: %w", err)
	}

	return nil
}
