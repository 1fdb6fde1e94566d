package interfaces

import (
	"context"
	"errors"
)

// ErrTranslationUnavailable is returned by translators that cannot produce a
// value for the requested locale pair.
var ErrTranslationUnavailable = errors.New("translation unavailable")

// Translator is the machine translation capability consumed by the sync engine.
// Implementations must be safe for concurrent use.
type Translator interface {
	Translate(ctx context.Context, text, from, to string) (string, error)
}

// TranslatorFunc adapts a function to the Translator interface.
type TranslatorFunc func(ctx context.Context, text, from, to string) (string, error)

// Translate calls f.
func (f TranslatorFunc) Translate(ctx context.Context, text, from, to string) (string, error) {
	return f(ctx, text, from, to)
}
