package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
)

func sign(payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

func TestVerifyWebhookSignature(t *testing.T) {
	payload := []byte(`{"type":"user.created","data":{"id":"user_123"}}`)
	secret := "whsec_test"

	assert.True(t, VerifyWebhookSignature(payload, sign(payload, secret), secret))
	assert.False(t, VerifyWebhookSignature(payload, sign(payload, "wrong"), secret))
	assert.False(t, VerifyWebhookSignature([]byte("tampered"), sign(payload, secret), secret))
	assert.False(t, VerifyWebhookSignature(payload, "", secret))
}
