// Package translation provides Translator implementations and decorators
// consumed by the sync engine.
package translation

import (
	"context"
	"fmt"
	"strings"

	"github.com/goliatone/go-cms-composer/pkg/interfaces"
)

const (
	ProviderPassthrough = "passthrough"
	ProviderUnavailable = "unavailable"
	ProviderOpenAI      = "openai"
)

// Passthrough copies the source text unchanged. It keeps structure sync
// usable without a provider; every copied prop still lands in needs review.
type Passthrough struct{}

func (Passthrough) Translate(ctx context.Context, text, _, _ string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return text, nil
}

// Unavailable fails every call, leaving inserted text blank.
type Unavailable struct{}

func (Unavailable) Translate(ctx context.Context, _, from, to string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return "", fmt.Errorf("%w: no provider for %s->%s", interfaces.ErrTranslationUnavailable, from, to)
}

// Chain applies decorators around base, outermost first.
func Chain(base interfaces.Translator, decorators ...func(interfaces.Translator) interfaces.Translator) interfaces.Translator {
	out := base
	for i := len(decorators) - 1; i >= 0; i-- {
		if decorators[i] != nil {
			out = decorators[i](out)
		}
	}
	return out
}

func normalizeLocale(locale string) string {
	return strings.ToLower(strings.TrimSpace(locale))
}
