package repository

import (
	"database/sql"

	"github.com/google/uuid"
)

// PaymentStatusPaid is the access flag value for an unlocked resume.
const PaymentStatusPaid = "paid"

// CreateResume inserts a resume owned by a user. Used by seeding and tests.
func CreateResume(db *sql.DB, userID, title, templateID, resumeData string) (string, error) {
	id := uuid.New().String()
	_, err := db.Exec(
		`INSERT INTO resumes (id, user_id, title, template_id, resume_data) VALUES (?, ?, ?, ?, ?)`,
		id, userID, title, templateID, resumeData,
	)
	return id, err
}

// CreateGuestResume inserts a guest resume identified only by contact email.
func CreateGuestResume(db *sql.DB, email, title, templateID, resumeData string) (string, error) {
	id := uuid.New().String()
	_, err := db.Exec(
		`INSERT INTO guest_resumes (id, email, title, template_id, resume_data) VALUES (?, ?, ?, ?, ?)`,
		id, email, title, templateID, resumeData,
	)
	return id, err
}

// MarkResumePaid unlocks a user's resume. The owner check is part of the
// WHERE clause so a paid reference can never unlock someone else's document.
// Returns false when no matching resume exists.
func MarkResumePaid(db *sql.DB, resumeID, userID string) (bool, error) {
	res, err := db.Exec(
		`UPDATE resumes SET payment_status = ? WHERE id = ? AND user_id = ?`,
		PaymentStatusPaid, resumeID, userID,
	)
	if err != nil {
		return false, err
	}
	ra, err := res.RowsAffected()
	return ra == 1, err
}

// MarkGuestResumePaid unlocks a guest resume.
func MarkGuestResumePaid(db *sql.DB, resumeID string) (bool, error) {
	res, err := db.Exec(
		`UPDATE guest_resumes SET payment_status = ? WHERE id = ?`,
		PaymentStatusPaid, resumeID,
	)
	if err != nil {
		return false, err
	}
	ra, err := res.RowsAffected()
	return ra == 1, err
}

// ResumePaymentStatus returns the access flag of a resume, looking at the
// user table or the guest table depending on isGuest.
func ResumePaymentStatus(db *sql.DB, resumeID string, isGuest bool) (string, error) {
	table := "resumes"
	if isGuest {
		table = "guest_resumes"
	}
	var status string
	err := db.QueryRow(`SELECT payment_status FROM `+table+` WHERE id = ?`, resumeID).Scan(&status)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return status, err
}
