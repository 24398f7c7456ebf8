package paystack

import (
	"context"
	"errors"
	"fmt"
	"time"

	"kazinest/api/internal/logger"
)

var (
	// ErrInvalidReference is returned for an empty reference before any
	// network call is made.
	ErrInvalidReference = errors.New("paystack: empty transaction reference")

	// ErrVerificationExhausted is returned when every attempt failed without
	// the gateway ever producing a payload.
	ErrVerificationExhausted = errors.New("paystack: transaction verification failed after all retries")
)

// TransactionVerifier is the single gateway call the Verifier retries over.
// *Client implements it; tests substitute stubs.
type TransactionVerifier interface {
	VerifyTransaction(ctx context.Context, reference string) (*VerifyResponse, error)
}

// Verifier owns the retry policy for transaction verification. The gateway
// settles PIX-style redirects asynchronously, so the first attempts routinely
// see "pending" before the terminal status lands.
type Verifier struct {
	API      TransactionVerifier
	Attempts int
	Delay    time.Duration
}

// NewVerifier creates a Verifier with the given policy. A non-positive
// attempts falls back to 5; a negative delay falls back to 3s. A zero delay
// is honored so callers can retry without waiting.
func NewVerifier(api TransactionVerifier, attempts int, delay time.Duration) *Verifier {
	if attempts <= 0 {
		attempts = 5
	}
	if delay < 0 {
		delay = 3 * time.Second
	}
	return &Verifier{API: api, Attempts: attempts, Delay: delay}
}

// Verify polls the gateway until it reports a terminal transaction status or
// attempts run out. A terminal status (success, failed, abandoned) ends the
// loop immediately. If attempts are exhausted the last payload seen, if any,
// is returned as the best-known outcome; only a run with no payload at all
// fails.
func (v *Verifier) Verify(ctx context.Context, reference string) (*VerifyResponse, error) {
	if reference == "" {
		return nil, ErrInvalidReference
	}

	var lastErr error
	var lastResp *VerifyResponse

	for attempt := 1; attempt <= v.Attempts; attempt++ {
		logger.Debugf("paystack: verification attempt %d/%d for reference %s", attempt, v.Attempts, reference)

		resp, err := v.API.VerifyTransaction(ctx, reference)
		if err != nil {
			logger.Warnf("paystack: verification attempt %d error: %v", attempt, err)
			lastErr = err
		} else {
			lastResp = resp
			if resp.Status && resp.Data != nil && resp.Data.Terminal() {
				return resp, nil
			}
			if !resp.Status {
				// API-level refusal (e.g. reference not found yet). Retryable:
				// redirects can land before the gateway has indexed the
				// transaction.
				lastErr = fmt.Errorf("paystack: %s", orDefault(resp.Message, "transaction not found"))
			}
		}

		if attempt < v.Attempts {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(v.Delay):
			}
		}
	}

	if lastResp != nil && lastResp.Data != nil {
		return lastResp, nil
	}
	if lastErr != nil {
		return nil, lastErr
	}
	return nil, ErrVerificationExhausted
}
