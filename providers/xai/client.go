package xai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"puzzle2profit/config"
	"puzzle2profit/providers"

	"go.uber.org/zap"
)

const providerName = "Grok"

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Client spricht die OpenAI-kompatible Chat-Completions-API von xAI (Grok) an.
type Client struct {
	Config     *config.Config
	Logger     *zap.Logger
	HTTPClient *http.Client
}

// NewClient erstellt einen neuen xAI-Client mit dem konfigurierten Timeout.
func NewClient(cfg *config.Config, logger *zap.Logger) *Client {
	return &Client{
		Config:     cfg,
		Logger:     logger,
		HTTPClient: &http.Client{Timeout: cfg.LLMTimeout},
	}
}

// Name gibt den Namen des Providers zurück.
func (c *Client) Name() string {
	return "xai"
}

// Complete schickt System-Nachricht und Prompt an /chat/completions.
func (c *Client) Complete(ctx context.Context, req providers.CompletionRequest) (string, error) {
	var messages []chatMessage
	if req.System != "" {
		messages = append(messages, chatMessage{Role: "system", Content: req.System})
	}
	messages = append(messages, chatMessage{Role: "user", Content: req.Prompt})

	body, err := json.Marshal(chatRequest{
		Model:       c.Config.XAIModel,
		Messages:    messages,
		Temperature: req.Temperature,
	})
	if err != nil {
		return "", err
	}

	url := strings.TrimRight(c.Config.XAIBaseURL, "/") + "/chat/completions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.Config.XAIAPIKey)

	log := c.Logger.With(zap.String("model", c.Config.XAIModel))
	log.Debug("Sende Completion an xAI")

	resp, err := c.HTTPClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("xAI request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("xAI response read failed: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		log.Warn("xAI antwortete mit Fehlerstatus", zap.Int("status", resp.StatusCode))
		return "", &providers.UpstreamError{Provider: providerName, StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	var result chatResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("xAI response decode failed: %w", err)
	}
	if len(result.Choices) == 0 {
		return "", fmt.Errorf("xAI response contained no choices")
	}
	return result.Choices[0].Message.Content, nil
}
