package paystack

import "fmt"

// Payment types the platform sells. The values travel through gateway
// metadata and come back verbatim on verification.
const (
	PaymentTypeResumeDownload      = "resume_download"
	PaymentTypeExtraResumeDownload = "extra_resume_download"
	PaymentTypeProfessionalUpgrade = "professional_upgrade"
	PaymentTypeDiscountedUpgrade   = "discounted_upgrade"
)

// Currencies accepted at initialization time.
var allowedCurrencies = map[string]bool{
	"KES": true,
	"USD": true,
}

// ValidatePaymentType checks that a payment type is one the platform sells.
func ValidatePaymentType(t string) error {
	switch t {
	case PaymentTypeResumeDownload, PaymentTypeExtraResumeDownload,
		PaymentTypeProfessionalUpgrade, PaymentTypeDiscountedUpgrade:
		return nil
	case "":
		return fmt.Errorf("payment type must not be empty")
	}
	return fmt.Errorf("invalid payment type: %q", t)
}

// ValidateCurrency checks that a currency code is accepted for checkout.
func ValidateCurrency(c string) error {
	if c == "" {
		return fmt.Errorf("currency must not be empty")
	}
	if !allowedCurrencies[c] {
		return fmt.Errorf("invalid currency: %q (allowed: KES, USD)", c)
	}
	return nil
}
