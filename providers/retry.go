package providers

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

// RetryPolicy steuert das Wiederholen fehlgeschlagener Completions.
// MaxAttempts <= 1 bedeutet: kein Retry.
type RetryPolicy struct {
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// DefaultRetryPolicy führt genau einen Versuch aus.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:    1,
		InitialBackoff: time.Second,
		MaxBackoff:     8 * time.Second,
	}
}

type retryingProvider struct {
	next   Provider
	policy RetryPolicy
	logger *zap.Logger
}

// WithRetry umhüllt einen Provider mit exponentiellem Backoff. Wiederholt
// werden Transportfehler sowie 429/5xx-Antworten, andere Upstream-Fehler nicht.
func WithRetry(p Provider, policy RetryPolicy, logger *zap.Logger) Provider {
	if policy.MaxAttempts <= 1 {
		return p
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &retryingProvider{next: p, policy: policy, logger: logger}
}

func (r *retryingProvider) Name() string { return r.next.Name() }

func (r *retryingProvider) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	var lastErr error
	for attempt := 0; attempt < r.policy.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		text, err := r.next.Complete(ctx, req)
		if err == nil {
			if attempt > 0 {
				r.logger.Info("completion succeeded after retry",
					zap.String("provider", r.next.Name()), zap.Int("attempt", attempt+1))
			}
			return text, nil
		}
		lastErr = err
		if !isRetryable(err) || attempt == r.policy.MaxAttempts-1 {
			break
		}

		wait := Backoff(r.policy, attempt)
		r.logger.Warn("completion failed, retrying",
			zap.String("provider", r.next.Name()),
			zap.Int("attempt", attempt+1),
			zap.Duration("backoff", wait),
			zap.Error(err))

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(wait):
		}
	}
	return "", lastErr
}

// Backoff berechnet die Wartezeit vor dem Versuch attempt+1.
func Backoff(policy RetryPolicy, attempt int) time.Duration {
	d := policy.InitialBackoff
	for i := 0; i < attempt; i++ {
		d *= 2
		if policy.MaxBackoff > 0 && d >= policy.MaxBackoff {
			return policy.MaxBackoff
		}
	}
	if policy.MaxBackoff > 0 && d > policy.MaxBackoff {
		return policy.MaxBackoff
	}
	return d
}

func isRetryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var upstream *UpstreamError
	if errors.As(err, &upstream) {
		return upstream.Retryable()
	}
	// Transportfehler
	return true
}
