package paystack

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// scriptedGateway returns one canned response (or error) per call, counting
// the calls it receives.
type scriptedGateway struct {
	calls     int
	responses []*VerifyResponse
	errs      []error
}

func (s *scriptedGateway) VerifyTransaction(ctx context.Context, reference string) (*VerifyResponse, error) {
	i := s.calls
	s.calls++
	if i >= len(s.responses) {
		i = len(s.responses) - 1
	}
	if s.errs != nil && s.errs[i] != nil {
		return nil, s.errs[i]
	}
	return s.responses[i], nil
}

func pendingResponse() *VerifyResponse {
	return &VerifyResponse{Status: true, Data: &TransactionData{Status: TxStatusPending}}
}

func terminalResponse(status string) *VerifyResponse {
	return &VerifyResponse{Status: true, Data: &TransactionData{Status: status, Amount: 29900}}
}

func TestNewVerifierDefaults(t *testing.T) {
	gw := &scriptedGateway{}

	v := NewVerifier(gw, 0, -1)
	require.Equal(t, 5, v.Attempts)
	require.Equal(t, 3*time.Second, v.Delay)

	// A zero delay is a valid policy, not a request for the default.
	v = NewVerifier(gw, 2, 0)
	require.Equal(t, 2, v.Attempts)
	require.Zero(t, v.Delay)
}

func TestVerifyEmptyReference(t *testing.T) {
	gw := &scriptedGateway{responses: []*VerifyResponse{terminalResponse(TxStatusSuccess)}}
	v := NewVerifier(gw, 5, 0)

	_, err := v.Verify(context.Background(), "")
	require.ErrorIs(t, err, ErrInvalidReference)
	require.Zero(t, gw.calls, "no network call for an empty reference")
}

func TestVerifyRetriesUntilSuccess(t *testing.T) {
	gw := &scriptedGateway{responses: []*VerifyResponse{
		pendingResponse(),
		pendingResponse(),
		pendingResponse(),
		terminalResponse(TxStatusSuccess),
	}}
	v := NewVerifier(gw, 5, 0)

	resp, err := v.Verify(context.Background(), "ref-1")
	require.NoError(t, err)
	require.Equal(t, TxStatusSuccess, resp.Data.Status)
	require.Equal(t, 4, gw.calls, "one call per pending attempt plus the success")
}

func TestVerifyTerminalFailureShortCircuits(t *testing.T) {
	for _, status := range []string{TxStatusFailed, TxStatusAbandoned} {
		gw := &scriptedGateway{responses: []*VerifyResponse{terminalResponse(status)}}
		v := NewVerifier(gw, 5, 0)

		resp, err := v.Verify(context.Background(), "ref-1")
		require.NoError(t, err)
		require.Equal(t, status, resp.Data.Status)
		require.Equal(t, 1, gw.calls, "a definitive %s must not be retried", status)
	}
}

func TestVerifyExhaustedReturnsLastPayload(t *testing.T) {
	gw := &scriptedGateway{responses: []*VerifyResponse{pendingResponse()}}
	v := NewVerifier(gw, 3, 0)

	resp, err := v.Verify(context.Background(), "ref-1")
	require.NoError(t, err, "a best-known payload beats an error")
	require.Equal(t, TxStatusPending, resp.Data.Status)
	require.Equal(t, 3, gw.calls)
}

func TestVerifyExhaustedWithoutPayload(t *testing.T) {
	transport := errors.New("connection refused")
	gw := &scriptedGateway{
		responses: []*VerifyResponse{nil, nil, nil},
		errs:      []error{transport, transport, transport},
	}
	v := NewVerifier(gw, 3, 0)

	_, err := v.Verify(context.Background(), "ref-1")
	require.ErrorIs(t, err, transport)
	require.Equal(t, 3, gw.calls)
}

func TestVerifyAPIRefusalIsRetried(t *testing.T) {
	// The gateway can answer status=false ("transaction not found") before
	// it has indexed a fresh transaction.
	gw := &scriptedGateway{responses: []*VerifyResponse{
		{Status: false, Message: "Transaction reference not found"},
		terminalResponse(TxStatusSuccess),
	}}
	v := NewVerifier(gw, 5, 0)

	resp, err := v.Verify(context.Background(), "ref-1")
	require.NoError(t, err)
	require.Equal(t, TxStatusSuccess, resp.Data.Status)
	require.Equal(t, 2, gw.calls)
}

func TestVerifyContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	gw := &scriptedGateway{responses: []*VerifyResponse{pendingResponse()}}
	v := NewVerifier(gw, 5, time.Hour)

	_, err := v.Verify(ctx, "ref-1")
	require.ErrorIs(t, err, context.Canceled)
}
