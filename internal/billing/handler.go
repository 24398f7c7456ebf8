package billing

import (
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"

	"kazinest/api/internal/config"
	"kazinest/api/internal/logger"
	"kazinest/api/internal/middleware"
	"kazinest/api/internal/paystack"
	"kazinest/api/internal/repository"
)

// Handler provides the billing REST endpoints: payment initialization,
// verification (redirect callback and manual re-check), local status
// polling, and the gateway webhook.
type Handler struct {
	db     *sql.DB
	svc    *Service
	client *paystack.Client
	cfg    *config.Config
}

func NewHandler(db *sql.DB, svc *Service, client *paystack.Client, cfg *config.Config) *Handler {
	return &Handler{db: db, svc: svc, client: client, cfg: cfg}
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]interface{}{"success": false, "status": "failed", "message": message})
}

// VerifyPayment handles GET /api/verify-payment?reference=... and
// POST /api/verify-payment with {"reference": "..."}.
//
// 200 when the payment verified and reconciled (or was already applied),
// 400 when the gateway definitively declined, 500 when the engine could not
// determine an outcome. The 500 case is safe to retry with the same
// reference.
func (h *Handler) VerifyPayment(w http.ResponseWriter, r *http.Request) {
	var reference string
	switch r.Method {
	case http.MethodGet:
		reference = r.URL.Query().Get("reference")
	case http.MethodPost:
		var body struct {
			Reference string `json:"reference"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		reference = body.Reference
	default:
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	if reference == "" {
		respondError(w, http.StatusBadRequest, "Reference not found")
		return
	}

	result, err := h.svc.VerifyAndReconcile(r.Context(), reference)
	if err != nil {
		if errors.Is(err, paystack.ErrInvalidReference) {
			respondError(w, http.StatusBadRequest, "Reference not found")
			return
		}
		logger.Errorf("billing: verify payment error for %s: %v", reference, err)
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	status := http.StatusOK
	if !result.Success {
		status = http.StatusBadRequest
	}
	respondJSON(w, status, result)
}

// InitializePayment handles POST /api/initialize-payment. Requires an
// authenticated user; guests initialize through the guest checkout flow.
func (h *Handler) InitializePayment(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	userID := middleware.UserID(r.Context())
	if userID == "" {
		respondError(w, http.StatusUnauthorized, "Unauthorized: invalid or unauthenticated user")
		return
	}

	var req struct {
		Amount      float64 `json:"amount"`
		Currency    string  `json:"currency"`
		Type        string  `json:"type"`
		ResumeID    string  `json:"resumeId"`
		Description string  `json:"description"`
		Plan        string  `json:"plan"`
		Email       string  `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Amount <= 0 {
		respondError(w, http.StatusBadRequest, "Invalid amount")
		return
	}

	// Upgrade purchases are recognized by the plan selector, not the type
	// field. Mirrored by the normalizer on the verification side.
	effectiveType := req.Type
	if req.Plan != "" {
		effectiveType = paystack.PaymentTypeProfessionalUpgrade
	}
	if err := paystack.ValidatePaymentType(effectiveType); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid payment type")
		return
	}

	currency := strings.ToUpper(req.Currency)
	if currency == "" {
		currency = h.cfg.DefaultCurrency
	}
	if err := paystack.ValidateCurrency(currency); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid currency")
		return
	}

	user, err := repository.UserByID(h.db, userID)
	if err != nil || user == nil {
		respondError(w, http.StatusInternalServerError, "User not found")
		return
	}

	description := req.Description
	if description == "" {
		description = effectiveType + " payment"
	}

	customFields := []map[string]interface{}{
		{"display_name": "User ID", "variable_name": "user_id", "value": userID},
		{"display_name": "Payment Type", "variable_name": "payment_type", "value": effectiveType},
	}
	if req.Plan != "" {
		customFields = append(customFields, map[string]interface{}{
			"display_name": "Plan", "variable_name": "plan", "value": req.Plan,
		})
	}
	if req.ResumeID != "" {
		customFields = append(customFields, map[string]interface{}{
			"display_name": "Resume ID", "variable_name": "resume_id", "value": req.ResumeID,
		})
	}

	metadata := map[string]interface{}{
		"user_id":           userID,
		"payment_type":      effectiveType,
		"description":       description,
		"original_currency": currency,
		"original_amount":   req.Amount,
		"custom_fields":     customFields,
	}
	if req.Plan != "" {
		metadata["plan"] = req.Plan
	}
	if req.ResumeID != "" {
		metadata["resume_id"] = req.ResumeID
	}

	callback := fmt.Sprintf("%s/payment/callback?type=%s", h.cfg.SiteURL, effectiveType)
	if req.ResumeID != "" {
		callback += "&resumeId=" + req.ResumeID
	}

	initResult, err := h.client.InitializeTransaction(r.Context(), paystack.InitializeParams{
		Email:       user.Email,
		Amount:      int64(math.Round(req.Amount * 100)),
		Currency:    currency,
		CallbackURL: callback,
		Metadata:    metadata,
	})
	if err != nil {
		logger.Errorf("billing: initialize transaction error for user %s: %v", userID, err)
		respondError(w, http.StatusInternalServerError, "Payment initialization failed")
		return
	}

	if err := repository.InsertPayment(h.db, userID, initResult.Reference, req.Amount, currency, req.Plan, description); err != nil {
		logger.Errorf("billing: could not record payment %s: %v", initResult.Reference, err)
	}

	logger.Infof("billing: payment initialized user=%s reference=%s type=%s amount=%.2f %s",
		userID, initResult.Reference, effectiveType, req.Amount, currency)

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    initResult,
		"message": "Payment initialized successfully",
	})
}

// PaymentStatus handles GET /api/payment-status?reference=...
// Status comes from the local database only, never the gateway, so the
// frontend cannot see "paid" before reconciliation has run.
func (h *Handler) PaymentStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	reference := r.URL.Query().Get("reference")
	if reference == "" {
		respondError(w, http.StatusBadRequest, "Reference not found")
		return
	}

	status, err := repository.PaymentStatusByReference(h.db, reference)
	if err != nil {
		logger.Errorf("billing: payment status lookup error for %s: %v", reference, err)
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if status == "" {
		respondError(w, http.StatusNotFound, "Payment not found")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"reference": reference,
		"status":    status,
		"paid":      status == repository.PaymentCompleted,
	})
}

// Webhook handles POST /api/paystack/webhook. The signature is an
// HMAC-SHA512 of the raw body keyed with the secret key. Verification runs
// fire-and-forget: the gateway only needs the 200, and the redirect callback
// or a manual re-check will pick up anything a crashed goroutine dropped.
func (h *Handler) Webhook(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<16))
	if err != nil {
		respondError(w, http.StatusBadRequest, "could not read body")
		return
	}

	if !h.validSignature(body, r.Header.Get("x-paystack-signature")) {
		logger.Warnf("billing: webhook with bad signature rejected")
		respondError(w, http.StatusUnauthorized, "invalid signature")
		return
	}

	var event struct {
		Event string `json:"event"`
		Data  struct {
			Reference string `json:"reference"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &event); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}

	logger.Infof("billing: webhook received event=%s reference=%s", event.Event, event.Data.Reference)

	if event.Event == "charge.success" && event.Data.Reference != "" {
		reference := event.Data.Reference
		go func() {
			result, err := h.svc.VerifyAndReconcile(context.Background(), reference)
			if err != nil {
				logger.Errorf("billing: webhook verification failed for %s: %v", reference, err)
				return
			}
			logger.Infof("billing: webhook verification for %s finished success=%v", reference, result.Success)
		}()
	}

	w.WriteHeader(http.StatusOK)
}

func (h *Handler) validSignature(body []byte, signature string) bool {
	if signature == "" {
		return false
	}
	mac := hmac.New(sha512.New, []byte(h.cfg.PaystackSecretKey))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
