// Package payment talks to the Razorpay orders REST API.
package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"codeprep/internal/common"
	"codeprep/internal/common/security"
)

type OrderRequest struct {
	Amount   int64             `json:"amount"` // minor units
	Currency string            `json:"currency"`
	Receipt  string            `json:"receipt"`
	Notes    map[string]string `json:"notes,omitempty"`
}

type Order struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Status   string `json:"status"`
}

// Gateway creates orders and checks checkout signatures.
type Gateway interface {
	CreateOrder(ctx context.Context, req OrderRequest) (*Order, error)
	VerifySignature(orderID, paymentID, signature string) bool
	KeyID() string
}

type RazorpayClient struct {
	baseURL    string
	keyID      string
	keySecret  string
	httpClient *http.Client
}

func NewRazorpayClient(baseURL, keyID, keySecret string, timeout time.Duration) *RazorpayClient {
	return &RazorpayClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		keyID:      keyID,
		keySecret:  keySecret,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *RazorpayClient) KeyID() string {
	return c.keyID
}

func (c *RazorpayClient) CreateOrder(ctx context.Context, req OrderRequest) (*Order, error) {
	if c.keyID == "" || c.keySecret == "" {
		return nil, fmt.Errorf("razorpay: credentials not configured: %w", common.ErrServiceUnavailable)
	}
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("razorpay: marshal order: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/orders", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("razorpay: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.SetBasicAuth(c.keyID, c.keySecret)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("razorpay: %v: %w", err, common.ErrServiceUnavailable)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("razorpay: status %d: %s: %w", resp.StatusCode, strings.TrimSpace(string(snippet)), common.ErrServiceUnavailable)
	}

	var order Order
	if err := json.NewDecoder(resp.Body).Decode(&order); err != nil {
		return nil, fmt.Errorf("razorpay: decode order: %v: %w", err, common.ErrServiceUnavailable)
	}
	if order.ID == "" {
		return nil, fmt.Errorf("razorpay: order without id: %w", common.ErrServiceUnavailable)
	}
	return &order, nil
}

// VerifySignature checks the checkout signature against the key secret.
func (c *RazorpayClient) VerifySignature(orderID, paymentID, signature string) bool {
	return security.VerifyPaymentSignature(orderID, paymentID, signature, c.keySecret)
}
