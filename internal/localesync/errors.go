package localesync

import (
	"errors"
	"fmt"
)

var (
	// ErrTranslationUnavailable marks translatable props left empty because
	// the translator failed. It never aborts a propagation.
	ErrTranslationUnavailable = errors.New("localesync: translation unavailable")
	ErrUnknownStrategy        = errors.New("localesync: unknown sync strategy")
	ErrSourceRequired         = errors.New("localesync: source tree and locale are required")
)

// TranslationFailure records one prop the translator could not fill.
type TranslationFailure struct {
	Locale string
	NodeID string
	Prop   string
	Err    error
}

func (f TranslationFailure) Error() string {
	return fmt.Sprintf("localesync: translate %s.%s into %s: %v", f.NodeID, f.Prop, f.Locale, f.Err)
}

func (f TranslationFailure) Unwrap() []error {
	return []error{ErrTranslationUnavailable, f.Err}
}
