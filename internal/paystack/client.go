package paystack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultBaseURL = "https://api.paystack.co"

// Client is a thin wrapper around the Paystack REST API, authenticated with
// the account's secret key.
type Client struct {
	secretKey string
	baseURL   string
	http      *http.Client
}

// NewClient creates a Paystack API client. baseURL may be empty to use the
// production API; tests point it at a local server.
func NewClient(secretKey, baseURL string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		secretKey: secretKey,
		baseURL:   baseURL,
		http:      &http.Client{Timeout: 20 * time.Second},
	}
}

// do performs an authenticated request and decodes the JSON response into out.
func (c *Client) do(ctx context.Context, method, path string, body interface{}, out interface{}) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("paystack %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response (http %d): %w", resp.StatusCode, err)
	}
	return nil
}

// VerifyTransaction fetches the authoritative state of a transaction. This is
// a single attempt; the retry policy lives in Verifier.
func (c *Client) VerifyTransaction(ctx context.Context, reference string) (*VerifyResponse, error) {
	var out VerifyResponse
	if err := c.do(ctx, http.MethodGet, "/transaction/verify/"+reference, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// InitializeParams holds the fields sent to POST /transaction/initialize.
type InitializeParams struct {
	Email       string                 `json:"email"`
	Amount      int64                  `json:"amount"` // minor units
	Currency    string                 `json:"currency"`
	CallbackURL string                 `json:"callback_url,omitempty"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
	Plan        string                 `json:"plan,omitempty"`
}

// InitializeTransaction creates a new transaction and returns the checkout
// authorization URL plus the gateway-issued reference.
func (c *Client) InitializeTransaction(ctx context.Context, params InitializeParams) (*InitializeResult, error) {
	var out struct {
		Status  bool              `json:"status"`
		Message string            `json:"message"`
		Data    *InitializeResult `json:"data"`
	}
	if err := c.do(ctx, http.MethodPost, "/transaction/initialize", params, &out); err != nil {
		return nil, err
	}
	if !out.Status || out.Data == nil {
		return nil, fmt.Errorf("initialize transaction: %s", orDefault(out.Message, "gateway rejected request"))
	}
	return out.Data, nil
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
