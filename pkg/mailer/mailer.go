package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Config holds the transactional email API settings.
type Config struct {
	APIURL      string // e.g. https://api.resend.com/emails
	APIKey      string
	FromAddress string
	FromName    string
}

// Mailer sends transactional email through an HTTP mail API.
type Mailer struct {
	cfg    Config
	client *http.Client
	logger *zap.Logger
}

// New creates a mailer. A zero APIKey produces a disabled mailer whose Send
// returns an error, so callers can treat mail as best-effort.
func New(cfg Config, logger *zap.Logger) *Mailer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Mailer{
		cfg:    cfg,
		client: &http.Client{Timeout: 15 * time.Second},
		logger: logger,
	}
}

// Enabled reports whether the mailer has credentials configured.
func (m *Mailer) Enabled() bool {
	return m.cfg.APIKey != "" && m.cfg.APIURL != ""
}

type sendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

// Send delivers one email. Errors are returned for the caller's retry policy;
// the sender never panics on API failures.
func (m *Mailer) Send(ctx context.Context, to, subject, bodyHTML string) error {
	if !m.Enabled() {
		return fmt.Errorf("mailer disabled: no api key configured")
	}

	from := m.cfg.FromAddress
	if m.cfg.FromName != "" {
		from = fmt.Sprintf("%s <%s>", m.cfg.FromName, m.cfg.FromAddress)
	}
	payload, err := json.Marshal(sendRequest{
		From:    from,
		To:      []string{to},
		Subject: subject,
		HTML:    bodyHTML,
	})
	if err != nil {
		return fmt.Errorf("marshal email: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.cfg.APIURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+m.cfg.APIKey)

	resp, err := m.client.Do(req)
	if err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("mail api status %d: %s", resp.StatusCode, string(body))
	}

	m.logger.Debug("email sent", zap.String("to", to), zap.String("subject", subject))
	return nil
}
