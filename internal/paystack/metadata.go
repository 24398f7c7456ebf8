package paystack

import (
	"errors"
	"fmt"
	"strconv"
)

// ErrMalformedMetadata means a verified-successful transaction carries
// metadata that cannot be resolved to an entitlement. Callers must treat
// this as a high-priority anomaly: money was received but nothing can be
// unlocked for it.
var ErrMalformedMetadata = errors.New("paystack: transaction metadata is missing required fields")

// PaymentIntent is the normalized view of a transaction's metadata: who
// paid, for what, and how much. It is recomputed on every verification call
// and never stored as its own record.
type PaymentIntent struct {
	UserID      string
	Email       string
	IsGuest     bool
	PaymentType string
	ResumeID    string
	Plan        string
	Currency    string
	Amount      float64
}

// ActorID identifies the purchaser for audit purposes: the user id for
// registered users, the contact email for guests.
func (p *PaymentIntent) ActorID() string {
	if p.IsGuest {
		return p.Email
	}
	return p.UserID
}

// flattenMetadata merges the custom_fields array into a single map and then
// overlays the known top-level keys. Top-level values win on collision;
// absent top-level keys leave the custom-field value in place.
func flattenMetadata(metadata map[string]interface{}) map[string]interface{} {
	out := map[string]interface{}{}

	if fields, ok := metadata["custom_fields"].([]interface{}); ok {
		for _, f := range fields {
			field, ok := f.(map[string]interface{})
			if !ok {
				continue
			}
			name, _ := field["variable_name"].(string)
			if name != "" && field["value"] != nil {
				out[name] = field["value"]
			}
		}
	}

	topLevel := []string{
		"user_id", "plan", "payment_type", "resume_id", "resumeId",
		"email", "is_guest", "original_currency", "original_amount",
	}
	for _, key := range topLevel {
		if v, ok := metadata[key]; ok && v != nil {
			out[key] = v
		}
	}
	return out
}

// NormalizeIntent turns the raw transaction metadata into a PaymentIntent.
// defaultCurrency fills in when the metadata carries no original currency.
//
// Two rules from the checkout side are mirrored here:
//   - a present "plan" selector forces professional_upgrade regardless of the
//     payment_type field (upgrades are recognized by the plan, not the type);
//   - guest purchases are flagged by is_guest being boolean true or the
//     literal string "true".
func NormalizeIntent(data *TransactionData, defaultCurrency string) (*PaymentIntent, error) {
	if data == nil {
		return nil, ErrMalformedMetadata
	}
	m := flattenMetadata(data.Metadata)

	intent := &PaymentIntent{
		UserID:      asString(m["user_id"]),
		Email:       asString(m["email"]),
		IsGuest:     asBool(m["is_guest"]),
		PaymentType: asString(m["payment_type"]),
		Plan:        asString(m["plan"]),
		Currency:    asString(m["original_currency"]),
	}

	intent.ResumeID = asString(m["resume_id"])
	if intent.ResumeID == "" {
		intent.ResumeID = asString(m["resumeId"])
	}

	if intent.Plan != "" {
		intent.PaymentType = PaymentTypeProfessionalUpgrade
	}

	if intent.Currency == "" {
		intent.Currency = defaultCurrency
	}
	if amount, ok := asFloat(m["original_amount"]); ok {
		intent.Amount = amount
	} else {
		// Gateway amounts are in minor units.
		intent.Amount = float64(data.Amount) / 100
	}

	if intent.PaymentType == "" {
		return nil, fmt.Errorf("%w: no payment_type", ErrMalformedMetadata)
	}
	if !intent.IsGuest && intent.UserID == "" {
		return nil, fmt.Errorf("%w: no user_id for non-guest payment", ErrMalformedMetadata)
	}
	return intent, nil
}

func asString(v interface{}) string {
	switch s := v.(type) {
	case string:
		return s
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	}
	return ""
}

func asBool(v interface{}) bool {
	switch b := v.(type) {
	case bool:
		return b
	case string:
		return b == "true"
	}
	return false
}

func asFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case string:
		if f, err := strconv.ParseFloat(n, 64); err == nil {
			return f, true
		}
	}
	return 0, false
}
