package translation

import (
	"context"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/goliatone/go-cms-composer/pkg/interfaces"
)

// Retrying retries failed translations with exponential backoff. Context
// errors are returned immediately.
type Retrying struct {
	next     interfaces.Translator
	attempts uint64
	base     time.Duration
}

// WithRetry returns a decorator for Chain.
func WithRetry(attempts uint64, base time.Duration) func(interfaces.Translator) interfaces.Translator {
	return func(next interfaces.Translator) interfaces.Translator {
		return NewRetrying(next, attempts, base)
	}
}

func NewRetrying(next interfaces.Translator, attempts uint64, base time.Duration) *Retrying {
	if base <= 0 {
		base = 100 * time.Millisecond
	}
	return &Retrying{next: next, attempts: attempts, base: base}
}

func (r *Retrying) Translate(ctx context.Context, text, from, to string) (string, error) {
	var out string
	backoff := retry.WithMaxRetries(r.attempts, retry.NewExponential(r.base))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		translated, err := r.next.Translate(ctx, text, from, to)
		if err == nil {
			out = translated
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return retry.RetryableError(err)
	})
	if err != nil {
		return "", err
	}
	return out, nil
}
