// Package mailer delivers notification emails. Delivery is best effort: the
// caller gets a boolean, never an error, so a failed send can not undo the
// state change that triggered it.
package mailer

import (
	"bytes"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/smtp"
	"os"
	"strconv"
	"time"

	// Load env file into environments.
	_ "github.com/joho/godotenv/autoload"
)

const resendEndpoint = "https://api.resend.com/emails"

// Config holds the SMTP relay and the Resend fallback settings.
type Config struct {
	SMTPHost string
	SMTPPort int
	SMTPUser string
	SMTPPass string
	SMTPFrom string

	ResendAPIKey string
	ResendFrom   string
}

// ConfigFromEnv reads the mail configuration from environment variables.
func ConfigFromEnv() Config {
	port, err := strconv.Atoi(os.Getenv("SMTP_PORT"))
	if err != nil {
		port = 587
	}
	return Config{
		SMTPHost:     os.Getenv("SMTP_HOST"),
		SMTPPort:     port,
		SMTPUser:     os.Getenv("SMTP_USER"),
		SMTPPass:     os.Getenv("SMTP_PASS"),
		SMTPFrom:     os.Getenv("SMTP_FROM"),
		ResendAPIKey: os.Getenv("RESEND_API_KEY"),
		ResendFrom:   os.Getenv("RESEND_FROM"),
	}
}

// Mailer sends mail through an authenticated SMTP relay, falling back to the
// Resend HTTP API when the relay fails or is unconfigured.
type Mailer struct {
	cfg    Config
	client *http.Client
}

// New creates a Mailer from the given config.
func New(cfg Config) *Mailer {
	return &Mailer{
		cfg:    cfg,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// Send attempts delivery and reports whether any transport succeeded.
func (m *Mailer) Send(to string, subject string, body string) bool {
	if subject == "" {
		subject = "Message from TPO"
	}

	if err := m.sendSMTP(to, subject, body); err == nil {
		return true
	} else if m.cfg.SMTPHost != "" {
		log.Printf("Email send failed: %v", err)
	}

	if err := m.sendResend(to, subject, body); err != nil {
		if m.cfg.ResendAPIKey != "" {
			log.Printf("Resend send failed: %v", err)
		}
		return false
	}
	return true
}

func (m *Mailer) sendSMTP(to string, subject string, body string) error {
	cfg := m.cfg
	if cfg.SMTPHost == "" || cfg.SMTPUser == "" || cfg.SMTPPass == "" || to == "" {
		return fmt.Errorf("smtp relay is not configured")
	}

	from := cfg.SMTPFrom
	if from == "" {
		from = cfg.SMTPUser
	}

	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s\r\n", from, to, subject, body)
	addr := fmt.Sprintf("%s:%d", cfg.SMTPHost, cfg.SMTPPort)
	auth := smtp.PlainAuth("", cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPHost)

	// Port 465 means implicit TLS; everything else goes through STARTTLS.
	if cfg.SMTPPort == 465 {
		return m.sendSMTPImplicitTLS(addr, auth, from, to, []byte(msg))
	}
	return smtp.SendMail(addr, auth, from, []string{to}, []byte(msg))
}

func (m *Mailer) sendSMTPImplicitTLS(addr string, auth smtp.Auth, from string, to string, msg []byte) error {
	conn, err := tls.Dial("tcp", addr, &tls.Config{ServerName: m.cfg.SMTPHost})
	if err != nil {
		return err
	}
	defer conn.Close()

	client, err := smtp.NewClient(conn, m.cfg.SMTPHost)
	if err != nil {
		return err
	}
	defer client.Close()

	if err := client.Auth(auth); err != nil {
		return err
	}
	if err := client.Mail(from); err != nil {
		return err
	}
	if err := client.Rcpt(to); err != nil {
		return err
	}
	w, err := client.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(msg); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return client.Quit()
}

func (m *Mailer) sendResend(to string, subject string, body string) error {
	cfg := m.cfg
	from := cfg.ResendFrom
	if from == "" {
		from = cfg.SMTPFrom
	}
	if cfg.ResendAPIKey == "" || from == "" {
		return fmt.Errorf("resend fallback is not configured")
	}

	payload, err := json.Marshal(map[string]string{
		"from":    from,
		"to":      to,
		"subject": subject,
		"html":    fmt.Sprintf("<p>%s</p>", body),
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequest(http.MethodPost, resendEndpoint, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+cfg.ResendAPIKey)

	resp, err := m.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("resend returned status %d", resp.StatusCode)
	}
	return nil
}
