package repository

import (
	"database/sql"

	"github.com/google/uuid"
)

type UserRow struct {
	ID                      string
	Email                   string
	Name                    string
	UpgradeDiscountEligible bool
	UpgradeDiscountUsed     bool
}

func UserByID(db *sql.DB, id string) (*UserRow, error) {
	var u UserRow
	var eligible, used int
	err := db.QueryRow(
		`SELECT id, email, name, upgrade_discount_eligible, upgrade_discount_used FROM users WHERE id = ?`, id,
	).Scan(&u.ID, &u.Email, &u.Name, &eligible, &used)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	u.UpgradeDiscountEligible = eligible == 1
	u.UpgradeDiscountUsed = used == 1
	return &u, nil
}

func CreateUser(db *sql.DB, email, name string) (string, error) {
	id := uuid.New().String()
	_, err := db.Exec(`INSERT INTO users (id, email, name) VALUES (?, ?, ?)`, id, email, name)
	return id, err
}

// SetUpgradeDiscountEligible flags a user as entitled to the one-time
// discounted plan upgrade offered after a à-la-carte purchase.
func SetUpgradeDiscountEligible(db *sql.DB, userID string) error {
	_, err := db.Exec(`UPDATE users SET upgrade_discount_eligible = 1 WHERE id = ?`, userID)
	return err
}

// ConsumeUpgradeDiscount marks the discount as spent so it cannot be used
// for a second discounted upgrade.
func ConsumeUpgradeDiscount(db *sql.DB, userID string) error {
	_, err := db.Exec(`UPDATE users SET upgrade_discount_used = 1 WHERE id = ?`, userID)
	return err
}
