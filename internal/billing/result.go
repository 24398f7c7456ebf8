package billing

import "kazinest/api/internal/paystack"

// ResultMetadata echoes the normalized intent back to the caller. The JSON
// field names are a frontend contract; webhook and redirect callers see the
// same shape.
type ResultMetadata struct {
	ResumeID    string `json:"resumeId"`
	IsGuest     bool   `json:"isGuest"`
	PaymentType string `json:"paymentType"`
	UserID      string `json:"userId"`
}

// Result is the uniform outcome of one verification request.
type Result struct {
	Success  bool                      `json:"success"`
	Status   string                    `json:"status"`
	Message  string                    `json:"message"`
	Data     *paystack.TransactionData `json:"data,omitempty"`
	Metadata *ResultMetadata           `json:"metadata,omitempty"`
}

func successResult(data *paystack.TransactionData, meta *ResultMetadata) *Result {
	return &Result{
		Success:  true,
		Status:   "success",
		Message:  "Payment verified successfully",
		Data:     data,
		Metadata: meta,
	}
}

func failureResult(message string) *Result {
	if message == "" {
		message = "Payment not successful"
	}
	return &Result{
		Success: false,
		Status:  "failed",
		Message: message,
	}
}
