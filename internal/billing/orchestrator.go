package billing

import (
	"context"
	"database/sql"
	"fmt"

	"kazinest/api/internal/logger"
	"kazinest/api/internal/paystack"
	"kazinest/api/internal/repository"
)

// Service is the single entry point for payment verification. It sequences
// gateway verification, metadata normalization, the idempotency guard and
// entitlement reconciliation, and produces the uniform Result regardless of
// which trigger path (redirect callback, webhook, manual re-check) invoked
// it.
type Service struct {
	db              *sql.DB
	verifier        *paystack.Verifier
	reconciler      *Reconciler
	defaultCurrency string
}

func NewService(db *sql.DB, verifier *paystack.Verifier, reconciler *Reconciler, defaultCurrency string) *Service {
	return &Service{
		db:              db,
		verifier:        verifier,
		reconciler:      reconciler,
		defaultCurrency: defaultCurrency,
	}
}

// VerifyAndReconcile confirms a transaction reference against the gateway
// and applies its entitlement exactly once.
//
// A nil error with Success=false is a definitive business failure (the
// gateway said no). A non-nil error means the engine could not determine or
// apply an outcome; callers may retry later with the same reference.
func (s *Service) VerifyAndReconcile(ctx context.Context, reference string) (*Result, error) {
	resp, err := s.verifier.Verify(ctx, reference)
	if err != nil {
		return nil, err
	}

	if !resp.Status || resp.Data == nil || resp.Data.Status != paystack.TxStatusSuccess {
		message := resp.Message
		if resp.Data != nil && resp.Data.Terminal() {
			// Definitive no from the gateway. Reflect it locally so status
			// polling stops showing pending.
			if err := repository.SetPaymentStatus(s.db, reference, repository.PaymentFailed); err != nil {
				logger.Warnf("billing: could not mark payment %s failed: %v", reference, err)
			}
			if message == "" {
				message = fmt.Sprintf("Payment %s", resp.Data.Status)
			}
		}
		logger.Infof("billing: reference %s not successful (status=%v)", reference, txStatus(resp))
		return failureResult(message), nil
	}

	intent, err := paystack.NormalizeIntent(resp.Data, s.defaultCurrency)
	if err != nil {
		// Money was received but nothing can be unlocked for it. Loudest
		// log level we have; this needs a human.
		logger.Errorf("billing: verified payment %s has unusable metadata: %v", reference, err)
		return nil, err
	}

	logger.Infof("billing: payment verified - processing reference=%s type=%s user=%s guest=%v resume=%s",
		reference, intent.PaymentType, intent.UserID, intent.IsGuest, intent.ResumeID)

	// Idempotency guard: a previously applied reference replays the recorded
	// intent without touching the reconciler.
	if prior, err := repository.AppliedByReference(s.db, reference); err != nil {
		return nil, fmt.Errorf("idempotency lookup for %s: %w", reference, err)
	} else if prior != nil {
		logger.Infof("billing: reference %s already applied, replaying result", reference)
		return successResult(resp.Data, metadataFromApplied(prior)), nil
	}

	claimed, err := repository.ClaimApplied(s.db, &repository.AppliedPayment{
		Reference:   reference,
		UserID:      intent.UserID,
		IsGuest:     intent.IsGuest,
		PaymentType: intent.PaymentType,
		ResumeID:    intent.ResumeID,
		Amount:      intent.Amount,
		Currency:    intent.Currency,
	})
	if err != nil {
		return nil, fmt.Errorf("claim reference %s: %w", reference, err)
	}
	if !claimed {
		// A concurrent verification won the claim between our lookup and
		// insert. Same replay path. Claiming happens before the primary
		// write, so the loser can report success while the winner's write is
		// still in flight; if that write fails the winner releases the claim
		// and a later re-verification applies the entitlement.
		prior, err := repository.AppliedByReference(s.db, reference)
		if err != nil || prior == nil {
			return nil, fmt.Errorf("reference %s claimed concurrently but mark unreadable: %w", reference, err)
		}
		logger.Infof("billing: reference %s claimed by concurrent verification, replaying result", reference)
		return successResult(resp.Data, metadataFromApplied(prior)), nil
	}

	if _, err := s.reconciler.Apply(intent, reference); err != nil {
		// Release the claim so a later re-verification can apply the
		// entitlement. The release itself failing leaves the reference
		// stuck as applied; log it loudly.
		if relErr := repository.ReleaseApplied(s.db, reference); relErr != nil {
			logger.Errorf("billing: failed to release claim on %s after reconcile error: %v", reference, relErr)
		}
		return nil, err
	}

	if err := repository.SetPaymentStatus(s.db, reference, repository.PaymentCompleted); err != nil {
		logger.Warnf("billing: could not mark payment %s completed: %v", reference, err)
	}

	return successResult(resp.Data, &ResultMetadata{
		ResumeID:    intent.ResumeID,
		IsGuest:     intent.IsGuest,
		PaymentType: intent.PaymentType,
		UserID:      intent.UserID,
	}), nil
}

func metadataFromApplied(p *repository.AppliedPayment) *ResultMetadata {
	return &ResultMetadata{
		ResumeID:    p.ResumeID,
		IsGuest:     p.IsGuest,
		PaymentType: p.PaymentType,
		UserID:      p.UserID,
	}
}

func txStatus(resp *paystack.VerifyResponse) string {
	if resp.Data == nil {
		return "<none>"
	}
	return resp.Data.Status
}
