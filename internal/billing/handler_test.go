package billing

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"kazinest/api/internal/config"
	"kazinest/api/internal/middleware"
	"kazinest/api/internal/paystack"
	"kazinest/api/internal/repository"
)

func newTestHandler(t *testing.T, gw *stubGateway) (*Handler, *Service) {
	t.Helper()
	conn := newTestDB(t)
	insertUser(t, conn, "u1")
	insertResume(t, conn, "doc-1", "u1")
	svc := newTestService(t, conn, gw)
	cfg := &config.Config{PaystackSecretKey: "sk_test_secret", DefaultCurrency: "KES"}
	return NewHandler(conn, svc, paystack.NewClient("sk_test_secret", ""), cfg), svc
}

func TestVerifyPaymentEndpointStatuses(t *testing.T) {
	h, _ := newTestHandler(t, &stubGateway{resp: successfulDownloadResponse("u1", "doc-1")})

	// GET success
	rec := httptest.NewRecorder()
	h.VerifyPayment(rec, httptest.NewRequest(http.MethodGet, "/api/verify-payment?reference=ref-100", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var result Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	require.True(t, result.Success)
	require.Equal(t, "doc-1", result.Metadata.ResumeID)

	// Missing reference
	rec = httptest.NewRecorder()
	h.VerifyPayment(rec, httptest.NewRequest(http.MethodGet, "/api/verify-payment", nil))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestVerifyPaymentPostBody(t *testing.T) {
	h, _ := newTestHandler(t, &stubGateway{resp: successfulDownloadResponse("u1", "doc-1")})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/verify-payment", strings.NewReader(`{"reference":"ref-100"}`))
	h.VerifyPayment(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestVerifyPaymentDeclined(t *testing.T) {
	h, _ := newTestHandler(t, &stubGateway{resp: &paystack.VerifyResponse{
		Status: true,
		Data:   &paystack.TransactionData{Status: paystack.TxStatusAbandoned},
	}})

	rec := httptest.NewRecorder()
	h.VerifyPayment(rec, httptest.NewRequest(http.MethodGet, "/api/verify-payment?reference=ref-100", nil))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var result Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	require.False(t, result.Success)
	require.NotEmpty(t, result.Message)
}

func TestInitializePaymentRoundsAmountToMinorUnits(t *testing.T) {
	var gotAmount int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var params struct {
			Amount int64 `json:"amount"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&params))
		gotAmount = params.Amount
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status": true,
			"data": map[string]interface{}{
				"authorization_url": "https://checkout.example/x",
				"access_code":       "ac-1",
				"reference":         "ref-init-1",
			},
		})
	}))
	defer srv.Close()

	conn := newTestDB(t)
	insertUser(t, conn, "u1")
	svc := newTestService(t, conn, &stubGateway{})
	cfg := &config.Config{PaystackSecretKey: "sk_test_secret", DefaultCurrency: "KES", SiteURL: "https://example.com"}
	h := NewHandler(conn, svc, paystack.NewClient("sk_test_secret", srv.URL), cfg)

	body := `{"amount":19.99,"type":"resume_download","resumeId":"doc-1"}`
	req := httptest.NewRequest(http.MethodPost, "/api/initialize-payment", strings.NewReader(body))
	req = req.WithContext(middleware.WithUserID(req.Context(), "u1"))

	rec := httptest.NewRecorder()
	h.InitializePayment(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, int64(1999), gotAmount, "19.99 is 1999 minor units; truncation would send 1998")
}

func TestWebhookSignature(t *testing.T) {
	h, _ := newTestHandler(t, &stubGateway{resp: successfulDownloadResponse("u1", "doc-1")})
	body := `{"event":"charge.success","data":{"reference":"ref-100"}}`

	// No signature
	rec := httptest.NewRecorder()
	h.Webhook(rec, httptest.NewRequest(http.MethodPost, "/api/paystack/webhook", strings.NewReader(body)))
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	// Wrong signature
	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/paystack/webhook", strings.NewReader(body))
	req.Header.Set("x-paystack-signature", "deadbeef")
	h.Webhook(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestWebhookProcessesChargeSuccess(t *testing.T) {
	h, _ := newTestHandler(t, &stubGateway{resp: successfulDownloadResponse("u1", "doc-1")})
	body := `{"event":"charge.success","data":{"reference":"ref-100"}}`

	mac := hmac.New(sha512.New, []byte("sk_test_secret"))
	mac.Write([]byte(body))
	signature := hex.EncodeToString(mac.Sum(nil))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/paystack/webhook", strings.NewReader(body))
	req.Header.Set("x-paystack-signature", signature)
	h.Webhook(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	// Processing is fire-and-forget; wait for the entitlement to land.
	require.Eventually(t, func() bool {
		applied, err := repository.AppliedByReference(h.db, "ref-100")
		return err == nil && applied != nil
	}, 2*time.Second, 10*time.Millisecond)
}

func TestPaymentStatusReadsLocalDBOnly(t *testing.T) {
	gw := &stubGateway{resp: successfulDownloadResponse("u1", "doc-1")}
	h, _ := newTestHandler(t, gw)
	require.NoError(t, repository.InsertPayment(h.db, "u1", "ref-100", 299, "KES", "", "resume_download payment"))

	rec := httptest.NewRecorder()
	h.PaymentStatus(rec, httptest.NewRequest(http.MethodGet, "/api/payment-status?reference=ref-100", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Zero(t, gw.calls, "status polling must not hit the gateway")

	var out struct {
		Status string `json:"status"`
		Paid   bool   `json:"paid"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.Equal(t, repository.PaymentPending, out.Status)
	require.False(t, out.Paid)

	// Unknown reference
	rec = httptest.NewRecorder()
	h.PaymentStatus(rec, httptest.NewRequest(http.MethodGet, "/api/payment-status?reference=nope", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
}
