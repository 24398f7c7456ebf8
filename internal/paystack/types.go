package paystack

// Transaction statuses reported by the gateway. Success, failed and
// abandoned are terminal; anything else means the gateway has not settled.
const (
	TxStatusSuccess   = "success"
	TxStatusFailed    = "failed"
	TxStatusAbandoned = "abandoned"
	TxStatusPending   = "pending"
)

// VerifyResponse is the envelope returned by GET /transaction/verify/{reference}.
// Status reports whether the API call itself succeeded; the transaction's
// own outcome lives in Data.Status.
type VerifyResponse struct {
	Status  bool             `json:"status"`
	Message string           `json:"message"`
	Data    *TransactionData `json:"data"`
}

// TransactionData carries the fields of a gateway transaction this engine
// reads. Amount is in minor units (cents). Metadata is the free-form object
// attached at initialization time; it is only inspected by the normalizer.
type TransactionData struct {
	Reference string                 `json:"reference"`
	Status    string                 `json:"status"`
	Amount    int64                  `json:"amount"`
	Currency  string                 `json:"currency"`
	Metadata  map[string]interface{} `json:"metadata"`
}

// Terminal reports whether the transaction status is definitive, i.e. no
// amount of waiting will change it.
func (d *TransactionData) Terminal() bool {
	switch d.Status {
	case TxStatusSuccess, TxStatusFailed, TxStatusAbandoned:
		return true
	}
	return false
}

// InitializeResult is the subset of POST /transaction/initialize the
// platform needs to redirect a customer to checkout.
type InitializeResult struct {
	AuthorizationURL string `json:"authorization_url"`
	AccessCode       string `json:"access_code"`
	Reference        string `json:"reference"`
}
