package mailer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSend_UnconfiguredReturnsFalse(t *testing.T) {
	m := New(Config{})

	// No relay and no fallback; delivery must fail without panicking.
	assert.False(t, m.Send("someone@example.com", "Subject", "Body"))
}

func TestSend_EmptyRecipientReturnsFalse(t *testing.T) {
	m := New(Config{
		SMTPHost: "smtp.example.com",
		SMTPUser: "user",
		SMTPPass: "pass",
	})

	assert.False(t, m.Send("", "Subject", "Body"))
}
