package repository

import (
	"database/sql"

	"github.com/google/uuid"
)

// Local payment record statuses. These track the platform's view of an
// initialized transaction; the gateway remains the authority on outcome.
const (
	PaymentPending   = "pending"
	PaymentCompleted = "completed"
	PaymentFailed    = "failed"
)

// InsertPayment records an initialized transaction so the frontend can poll
// its status without hitting the gateway.
func InsertPayment(db *sql.DB, userID, reference string, amount float64, currency, plan, description string) error {
	id := uuid.New().String()
	var planVal interface{}
	if plan != "" {
		planVal = plan
	}
	var userVal interface{}
	if userID != "" {
		userVal = userID
	}
	_, err := db.Exec(
		`INSERT INTO payments (id, user_id, reference, status, amount, currency, plan, description) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id, userVal, reference, PaymentPending, amount, currency, planVal, description,
	)
	return err
}

// SetPaymentStatus updates the local status of a payment record. Verification
// may see references initialized elsewhere, so a missing row is not an error.
func SetPaymentStatus(db *sql.DB, reference, status string) error {
	_, err := db.Exec(`UPDATE payments SET status = ? WHERE reference = ?`, status, reference)
	return err
}

// PaymentStatusByReference returns the local status of a payment, "" when
// the reference is unknown.
func PaymentStatusByReference(db *sql.DB, reference string) (string, error) {
	var status string
	err := db.QueryRow(`SELECT status FROM payments WHERE reference = ?`, reference).Scan(&status)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return status, err
}

// ---------- Idempotency guard ----------

// AppliedPayment is the durable mark that a reference's entitlement has been
// applied, carrying enough of the intent to answer replayed verifications.
type AppliedPayment struct {
	Reference   string
	UserID      string
	IsGuest     bool
	PaymentType string
	ResumeID    string
	Amount      float64
	Currency    string
}

// ClaimApplied atomically marks a reference as applied. Returns false when
// another verification already holds the mark; the INSERT OR IGNORE on the
// primary key is what makes concurrent claims safe.
func ClaimApplied(db *sql.DB, p *AppliedPayment) (bool, error) {
	guest := 0
	if p.IsGuest {
		guest = 1
	}
	res, err := db.Exec(
		`INSERT OR IGNORE INTO applied_payments (reference, user_id, is_guest, payment_type, resume_id, amount, currency) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.Reference, p.UserID, guest, p.PaymentType, p.ResumeID, p.Amount, p.Currency,
	)
	if err != nil {
		return false, err
	}
	ra, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return ra == 1, nil
}

// ReleaseApplied removes the applied mark for a reference. Called only when
// the primary entitlement write failed after a successful claim, so a later
// re-verification can apply it.
func ReleaseApplied(db *sql.DB, reference string) error {
	_, err := db.Exec(`DELETE FROM applied_payments WHERE reference = ?`, reference)
	return err
}

// AppliedByReference returns the applied mark for a reference, nil when the
// reference has not been applied.
func AppliedByReference(db *sql.DB, reference string) (*AppliedPayment, error) {
	var p AppliedPayment
	var userID, resumeID sql.NullString
	var guest int
	err := db.QueryRow(
		`SELECT reference, user_id, is_guest, payment_type, resume_id, amount, currency FROM applied_payments WHERE reference = ?`,
		reference,
	).Scan(&p.Reference, &userID, &guest, &p.PaymentType, &resumeID, &p.Amount, &p.Currency)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	p.UserID = userID.String
	p.ResumeID = resumeID.String
	p.IsGuest = guest == 1
	return &p, nil
}
