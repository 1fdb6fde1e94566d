package runtimeconfig

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
)

// NormalizeLocale returns the canonical BCP 47 form of code ("en-us" becomes
// "en-US").
func NormalizeLocale(code string) (string, error) {
	trimmed := strings.TrimSpace(code)
	if trimmed == "" {
		return "", fmt.Errorf("%w: empty", ErrLocaleInvalid)
	}
	tag, err := language.Parse(strings.ReplaceAll(trimmed, "_", "-"))
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrLocaleInvalid, code)
	}
	return tag.String(), nil
}

// Normalize rewrites every locale code in cfg to canonical form and drops
// blank entries.
func (cfg *Config) Normalize() error {
	locales := make([]string, 0, len(cfg.Locales))
	for _, locale := range cfg.Locales {
		if strings.TrimSpace(locale) == "" {
			continue
		}
		normalized, err := NormalizeLocale(locale)
		if err != nil {
			return err
		}
		locales = append(locales, normalized)
	}
	cfg.Locales = locales
	if strings.TrimSpace(cfg.DefaultLocale) == "" {
		return nil
	}
	normalized, err := NormalizeLocale(cfg.DefaultLocale)
	if err != nil {
		return err
	}
	cfg.DefaultLocale = normalized
	return nil
}
