package security

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// SignPayment returns the hex HMAC-SHA256 of "orderID|paymentID" the gateway
// attaches to a completed checkout.
func SignPayment(orderID, paymentID, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifyPaymentSignature compares in constant time. An empty secret never verifies.
func VerifyPaymentSignature(orderID, paymentID, signature, secret string) bool {
	if secret == "" || signature == "" {
		return false
	}
	expected := SignPayment(orderID, paymentID, secret)
	return hmac.Equal([]byte(expected), []byte(signature))
}
