package crm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Config for the CRM webhook.
type Config struct {
	WebhookURL string
	APIKey     string
}

// Client pushes membership contact updates to the external CRM. Sync is
// best effort; the membership database is the source of truth.
type Client struct {
	cfg        Config
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a CRM client.
func NewClient(cfg Config, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		logger:     logger,
	}
}

// Enabled reports whether a webhook URL is configured.
func (c *Client) Enabled() bool {
	return c.cfg.WebhookURL != ""
}

// Contact is the payload pushed to the CRM on membership events.
type Contact struct {
	UserID           string `json:"user_id"`
	Email            string `json:"email"`
	FullName         string `json:"full_name"`
	MembershipStatus string `json:"membership_status"`
	Event            string `json:"event"`
}

// SyncContact posts a contact update to the CRM webhook.
func (c *Client) SyncContact(ctx context.Context, contact Contact) error {
	if !c.Enabled() {
		return nil
	}
	body, err := json.Marshal(contact)
	if err != nil {
		return fmt.Errorf("marshal contact: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.WebhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("crm webhook: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("crm webhook: status %d", resp.StatusCode)
	}
	c.logger.Debug("crm contact synced", zap.String("email", contact.Email), zap.String("event", contact.Event))
	return nil
}
