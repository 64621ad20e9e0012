package brevo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"puzzle2profit/config"
	"puzzle2profit/providers"

	"go.uber.org/zap"
)

// Contact ist ein Newsletter-Kontakt für POST /contacts.
type Contact struct {
	Email     string
	FirstName string
	ListIDs   []int
}

// Email ist eine transaktionale Mail für POST /smtp/email.
type Email struct {
	To          []Recipient
	Subject     string
	HTMLContent string
}

// Recipient ist ein Empfänger einer Mail.
type Recipient struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

// Client kapselt die Brevo-REST-API (Kontakte und transaktionale Mails).
type Client struct {
	Config     *config.Config
	Logger     *zap.Logger
	HTTPClient *http.Client
}

// NewClient erstellt einen neuen Brevo-Client.
func NewClient(cfg *config.Config, logger *zap.Logger) *Client {
	return &Client{
		Config:     cfg,
		Logger:     logger,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// CreateContact legt einen Kontakt an oder aktualisiert ihn (updateEnabled).
func (c *Client) CreateContact(ctx context.Context, contact Contact) error {
	payload := map[string]any{
		"email":         contact.Email,
		"updateEnabled": true,
	}
	if contact.FirstName != "" {
		payload["attributes"] = map[string]string{"FIRSTNAME": contact.FirstName}
	}
	if len(contact.ListIDs) > 0 {
		payload["listIds"] = contact.ListIDs
	}
	_, err := c.post(ctx, "/contacts", payload)
	return err
}

// SendEmail verschickt eine Mail und gibt die Brevo-Message-ID zurück.
func (c *Client) SendEmail(ctx context.Context, email Email) (string, error) {
	payload := map[string]any{
		"sender":      Recipient{Email: c.Config.BrevoSenderEmail, Name: c.Config.BrevoSenderName},
		"to":          email.To,
		"subject":     email.Subject,
		"htmlContent": email.HTMLContent,
	}
	body, err := c.post(ctx, "/smtp/email", payload)
	if err != nil {
		return "", err
	}

	var result struct {
		MessageID string `json:"messageId"`
	}
	if len(body) > 0 {
		if err := json.Unmarshal(body, &result); err != nil {
			return "", fmt.Errorf("brevo response decode failed: %w", err)
		}
	}
	return result.MessageID, nil
}

func (c *Client) post(ctx context.Context, path string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	url := strings.TrimRight(c.Config.BrevoBaseURL, "/") + path
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("api-key", c.Config.BrevoAPIKey)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("brevo request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.Logger.Warn("Brevo antwortete mit Fehlerstatus", zap.String("path", path), zap.Int("status", resp.StatusCode))
		return nil, &providers.UpstreamError{Provider: "Brevo", StatusCode: resp.StatusCode, Body: string(body)}
	}
	return body, nil
}
