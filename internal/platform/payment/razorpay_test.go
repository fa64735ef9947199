package payment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"codeprep/internal/common"
	"codeprep/internal/common/security"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateOrder(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/orders", r.URL.Path)
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "key_id", user)
		assert.Equal(t, "key_secret", pass)

		var req OrderRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, int64(49900), req.Amount)
		assert.Equal(t, "INR", req.Currency)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"id": "order_123", "amount": req.Amount, "currency": req.Currency, "receipt": req.Receipt, "status": "created",
		})
	}))
	defer server.Close()

	client := NewRazorpayClient(server.URL+"/", "key_id", "key_secret", time.Second)
	order, err := client.CreateOrder(context.Background(), OrderRequest{Amount: 49900, Currency: "INR", Receipt: "rcpt_1"})
	require.NoError(t, err)
	assert.Equal(t, "order_123", order.ID)
	assert.Equal(t, "created", order.Status)
	assert.Equal(t, "key_id", client.KeyID())
}

func TestCreateOrderGatewayError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"description":"bad key"}}`, http.StatusUnauthorized)
	}))
	defer server.Close()

	client := NewRazorpayClient(server.URL, "key_id", "key_secret", time.Second)
	_, err := client.CreateOrder(context.Background(), OrderRequest{Amount: 100, Currency: "INR"})
	assert.ErrorIs(t, err, common.ErrServiceUnavailable)
}

func TestCreateOrderTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	client := NewRazorpayClient(server.URL, "key_id", "key_secret", 20*time.Millisecond)
	_, err := client.CreateOrder(context.Background(), OrderRequest{Amount: 100, Currency: "INR"})
	assert.ErrorIs(t, err, common.ErrServiceUnavailable)
}

func TestCreateOrderWithoutCredentials(t *testing.T) {
	client := NewRazorpayClient("http://127.0.0.1:0", "", "", time.Second)
	_, err := client.CreateOrder(context.Background(), OrderRequest{Amount: 100, Currency: "INR"})
	assert.ErrorIs(t, err, common.ErrServiceUnavailable)
}

func TestVerifySignature(t *testing.T) {
	client := NewRazorpayClient("http://unused", "key_id", "key_secret", time.Second)
	sig := security.SignPayment("order_1", "pay_1", "key_secret")

	assert.True(t, client.VerifySignature("order_1", "pay_1", sig))
	assert.False(t, client.VerifySignature("order_1", "pay_2", sig))
	tampered := []byte(sig)
	if tampered[0] == 'a' {
		tampered[0] = 'b'
	} else {
		tampered[0] = 'a'
	}
	assert.False(t, client.VerifySignature("order_1", "pay_1", string(tampered)))
}
