// Package notify delivers candidate invite emails.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/lshigami/skillcheck/config"
	"github.com/rs/zerolog/log"
)

// Result is the delivery outcome reported by a Mailer.
type Result string

const (
	Sent    Result = "sent"
	Skipped Result = "skipped"
	Failed  Result = "failed"
)

// InviteEmail is one queued invitation.
type InviteEmail struct {
	InviteID string
	Email    string
	URL      string
}

// Mailer sends a single invite email.
type Mailer interface {
	SendInviteEmail(ctx context.Context, email, url string) (Result, error)
}

const brevoEndpoint = "https://api.brevo.com/v3/smtp/email"

// BrevoMailer sends through Brevo's transactional email API.
type BrevoMailer struct {
	APIKey      string
	SenderEmail string
	SenderName  string
	Endpoint    string
	Client      *http.Client
}

type brevoPayload struct {
	Sender      map[string]string   `json:"sender"`
	To          []map[string]string `json:"to"`
	Subject     string              `json:"subject"`
	HTMLContent string              `json:"htmlContent"`
}

// NewMailer returns a Brevo mailer when an API key is configured, otherwise a mailer that only logs.
func NewMailer(cfg *config.Config) Mailer {
	if cfg.Email.BrevoAPIKey == "" || cfg.Email.SenderEmail == "" {
		log.Warn().Msg("Email service not configured, invite emails will be skipped")
		return LogMailer{}
	}
	return &BrevoMailer{
		APIKey:      cfg.Email.BrevoAPIKey,
		SenderEmail: cfg.Email.SenderEmail,
		SenderName:  cfg.Email.SenderName,
		Endpoint:    brevoEndpoint,
		Client:      &http.Client{Timeout: 10 * time.Second},
	}
}

func (m *BrevoMailer) SendInviteEmail(ctx context.Context, email, url string) (Result, error) {
	at := strings.Index(email, "@")
	if at <= 0 {
		return Skipped, fmt.Errorf("invalid recipient email: %q", email)
	}

	payload := brevoPayload{
		Sender:  map[string]string{"name": m.SenderName, "email": m.SenderEmail},
		To:      []map[string]string{{"email": email, "name": email[:at]}},
		Subject: "You have been invited to a skill assessment",
		HTMLContent: fmt.Sprintf(
			`<p>You have been invited to complete a timed skill assessment.</p><p><a href="%s">Start the assessment</a></p><p>The link can be used once.</p>`,
			html.EscapeString(url)),
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return Failed, fmt.Errorf("failed to marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.Endpoint, bytes.NewReader(body))
	if err != nil {
		return Failed, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("accept", "application/json")
	req.Header.Set("api-key", m.APIKey)
	req.Header.Set("content-type", "application/json")

	resp, err := m.Client.Do(req)
	if err != nil {
		return Failed, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return Failed, fmt.Errorf("brevo returned status %d: %s", resp.StatusCode, string(respBody))
	}
	return Sent, nil
}

// LogMailer records the invite instead of sending it.
type LogMailer struct{}

func (LogMailer) SendInviteEmail(_ context.Context, email, url string) (Result, error) {
	log.Info().Str("email", email).Str("url", url).Msg("Invite email not sent, no mail provider configured")
	return Skipped, nil
}
