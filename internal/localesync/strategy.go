package localesync

import (
	"fmt"
	"strings"
)

// Strategy selects how an edit reaches sibling locales.
type Strategy string

const (
	// StructureOnly replays the structural diff and keeps every locale's
	// authored text. Only inserted nodes are translated.
	StructureOnly Strategy = "structure-only"
	// FullOverride rebuilds every target from the source and re-translates
	// all translatable props, starting a new automatic pass for each node.
	FullOverride Strategy = "full-override"
)

// ParseStrategy maps request values onto a Strategy. Blank selects StructureOnly.
func ParseStrategy(value string) (Strategy, error) {
	switch Strategy(strings.ToLower(strings.TrimSpace(value))) {
	case "", StructureOnly:
		return StructureOnly, nil
	case FullOverride:
		return FullOverride, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownStrategy, value)
}
