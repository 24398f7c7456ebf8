package billing

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"kazinest/api/internal/logger"
	"kazinest/api/internal/paystack"
	"kazinest/api/internal/repository"
	"kazinest/api/internal/usage"
)

var (
	// ErrUnknownPaymentType means a confirmed payment carries a type the
	// platform does not sell. Reported to the caller, never swallowed: like
	// malformed metadata, it is money received with no entitlement to give.
	ErrUnknownPaymentType = errors.New("billing: unknown payment type")

	// ErrResumeNotFound means the resume a paid reference should unlock does
	// not exist (or belongs to a different user).
	ErrResumeNotFound = errors.New("billing: resume not found")
)

// Entitlement describes the durable effect of a reconciled payment.
type Entitlement struct {
	Action string // audit activity type
	Target string // resume id or plan type
}

// Reconciler applies the entitlement a confirmed payment bought: a resume
// unlock, a subscription upgrade, or a discounted upgrade. Exactly one
// primary write per call; failures there are surfaced. Secondary writes
// (discount flag, usage counter, audit entry) are best-effort and only
// logged.
//
// The reconciler does not re-check idempotency; the orchestrator claims the
// reference before calling Apply.
type Reconciler struct {
	db    *sql.DB
	usage *usage.Tracker
}

func NewReconciler(db *sql.DB, tracker *usage.Tracker) *Reconciler {
	return &Reconciler{db: db, usage: tracker}
}

// Apply performs the state transition for a verified-successful payment.
func (r *Reconciler) Apply(intent *paystack.PaymentIntent, reference string) (*Entitlement, error) {
	switch intent.PaymentType {
	case paystack.PaymentTypeResumeDownload, paystack.PaymentTypeExtraResumeDownload:
		return r.applyResumeDownload(intent, reference)
	case paystack.PaymentTypeProfessionalUpgrade, paystack.PaymentTypeDiscountedUpgrade:
		return r.applyUpgrade(intent, reference)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownPaymentType, intent.PaymentType)
}

func (r *Reconciler) applyResumeDownload(intent *paystack.PaymentIntent, reference string) (*Entitlement, error) {
	if intent.ResumeID == "" {
		return nil, fmt.Errorf("%w: resume purchase without resume_id", paystack.ErrMalformedMetadata)
	}

	// Primary write: the access flag the user is waiting on.
	var unlocked bool
	var err error
	if intent.IsGuest {
		unlocked, err = repository.MarkGuestResumePaid(r.db, intent.ResumeID)
	} else {
		unlocked, err = repository.MarkResumePaid(r.db, intent.ResumeID, intent.UserID)
	}
	if err != nil {
		return nil, fmt.Errorf("unlock resume %s: %w", intent.ResumeID, err)
	}
	if !unlocked {
		return nil, fmt.Errorf("%w: %s", ErrResumeNotFound, intent.ResumeID)
	}

	action := "resume_download_paid"
	if intent.IsGuest {
		action = "guest_resume_download_paid"
	}

	if !intent.IsGuest {
		// A one-off purchase by a user without a paid plan earns a discount
		// on a later upgrade. Never fatal: the unlock already happened.
		if err := r.markDiscountEligible(intent.UserID); err != nil {
			logger.Warnf("billing: could not mark discount eligibility for user %s: %v", intent.UserID, err)
		}

		if err := r.usage.Increment(intent.UserID, "resumes", "downloaded"); err != nil {
			logger.Warnf("billing: usage increment failed for user %s: %v", intent.UserID, err)
		}
	}

	r.audit(intent, reference, action, fmt.Sprintf("Downloaded resume for %s %.2f", intent.Currency, intent.Amount))

	return &Entitlement{Action: action, Target: intent.ResumeID}, nil
}

func (r *Reconciler) markDiscountEligible(userID string) error {
	plan, err := repository.ActivePlanType(r.db, userID)
	if err != nil {
		return err
	}
	if plan != "" && plan != repository.PlanFree {
		return nil
	}
	return repository.SetUpgradeDiscountEligible(r.db, userID)
}

func (r *Reconciler) applyUpgrade(intent *paystack.PaymentIntent, reference string) (*Entitlement, error) {
	if intent.IsGuest || intent.UserID == "" {
		return nil, fmt.Errorf("%w: upgrade without user_id", paystack.ErrMalformedMetadata)
	}

	periodEnd := time.Now().Add(30 * 24 * time.Hour)
	if intent.Plan == "annual" || intent.Plan == "yearly" {
		periodEnd = time.Now().Add(365 * 24 * time.Hour)
	}

	if err := repository.UpsertSubscription(r.db, intent.UserID, repository.PlanProfessional, periodEnd); err != nil {
		return nil, fmt.Errorf("upgrade subscription for user %s: %w", intent.UserID, err)
	}

	action := "subscription_upgraded"
	if intent.PaymentType == paystack.PaymentTypeDiscountedUpgrade {
		action = "discounted_subscription_upgraded"
		if err := repository.ConsumeUpgradeDiscount(r.db, intent.UserID); err != nil {
			logger.Warnf("billing: could not consume upgrade discount for user %s: %v", intent.UserID, err)
		}
	}

	r.audit(intent, reference, action, fmt.Sprintf("Upgraded to professional for %s %.2f", intent.Currency, intent.Amount))

	return &Entitlement{Action: action, Target: repository.PlanProfessional}, nil
}

// audit appends the user_activity entry for a reconciled payment. Failure
// never rolls back the entitlement; it is logged and the engine moves on.
func (r *Reconciler) audit(intent *paystack.PaymentIntent, reference, action, description string) {
	userID := ""
	if !intent.IsGuest {
		userID = intent.UserID
	}
	err := repository.InsertActivity(r.db, userID, action, description, map[string]interface{}{
		"resume_id": intent.ResumeID,
		"amount":    intent.Amount,
		"currency":  intent.Currency,
		"reference": reference,
		"is_guest":  intent.IsGuest,
	})
	if err != nil {
		logger.Warnf("billing: audit write failed for reference %s: %v", reference, err)
	}
}
