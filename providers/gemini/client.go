package gemini

import (
	"context"
	"errors"
	"fmt"

	"puzzle2profit/config"
	"puzzle2profit/providers"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

// Client nutzt das Google GenAI SDK als alternativen Completion-Provider.
type Client struct {
	Config *config.Config
	Logger *zap.Logger
	genai  *genai.Client
}

// NewClient erstellt einen Gemini-Client. Ein leerer API-Key ist ein Fehler.
func NewClient(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Client, error) {
	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      cfg.GeminiAPIKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{BaseURL: cfg.GeminiBaseURL},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return &Client{Config: cfg, Logger: logger, genai: client}, nil
}

// Name gibt den Namen des Providers zurück.
func (c *Client) Name() string {
	return "gemini"
}

// Complete führt eine einzelne GenerateContent-Anfrage aus.
func (c *Client) Complete(ctx context.Context, req providers.CompletionRequest) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.Config.LLMTimeout)
	defer cancel()

	cfg := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(req.Temperature)),
	}
	if req.System != "" {
		cfg.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}

	resp, err := c.genai.Models.GenerateContent(ctx, c.Config.GeminiModel,
		[]*genai.Content{genai.NewContentFromText(req.Prompt, genai.RoleUser)}, cfg)
	if err != nil {
		return "", c.wrapError(err)
	}
	if resp == nil || len(resp.Candidates) == 0 {
		return "", fmt.Errorf("no response from Gemini API")
	}

	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("empty response from Gemini API")
	}
	return text, nil
}

// wrapError übersetzt API-Fehler des SDK in providers.UpstreamError.
func (c *Client) wrapError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return &providers.UpstreamError{Provider: "Gemini", StatusCode: apiErr.Code, Body: apiErr.Message}
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return &providers.UpstreamError{Provider: "Gemini", StatusCode: apiErrPtr.Code, Body: apiErrPtr.Message}
	}
	c.Logger.Warn("Gemini-Anfrage fehlgeschlagen", zap.Error(err))
	return fmt.Errorf("gemini request failed: %w", err)
}
