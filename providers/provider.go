package providers

import (
	"context"
	"fmt"
)

// CompletionRequest beschreibt eine einzelne Chat-Completion mit
// System-Nachricht, User-Prompt und Temperatur.
type CompletionRequest struct {
	System      string
	Prompt      string
	Temperature float64
}

// Provider ist das Interface, das jeder LLM-Provider (z.B. xAI/Grok, Gemini) implementieren muss.
type Provider interface {
	// Complete schickt einen Prompt an das Modell und gibt den reinen Antworttext zurück.
	Complete(ctx context.Context, req CompletionRequest) (string, error)

	// Name gibt den eindeutigen Namen des Providers zurück (z.B. "xai").
	Name() string
}

// UpstreamError wird zurückgegeben, wenn ein externer Dienst mit einem
// Nicht-2xx-Status antwortet. Status und Body werden unverändert weitergereicht.
type UpstreamError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s API request failed (%d): %s", e.Provider, e.StatusCode, e.Body)
}

// Retryable meldet, ob ein erneuter Versuch sinnvoll ist (429 und 5xx).
func (e *UpstreamError) Retryable() bool {
	return e.StatusCode == 429 || e.StatusCode >= 500
}
