package translationstatus

import (
	"encoding/json"
	"maps"
	"slices"
)

// LocaleSet is an unordered set of locale codes. It encodes as a sorted JSON
// array.
type LocaleSet map[string]struct{}

// NewLocaleSet builds a set from locales, skipping blanks.
func NewLocaleSet(locales ...string) LocaleSet {
	set := make(LocaleSet, len(locales))
	for _, locale := range locales {
		if locale != "" {
			set[locale] = struct{}{}
		}
	}
	return set
}

func (s LocaleSet) Has(locale string) bool {
	_, ok := s[locale]
	return ok
}

func (s LocaleSet) Len() int {
	return len(s)
}

func (s LocaleSet) Sorted() []string {
	return slices.Sorted(maps.Keys(s))
}

func (s LocaleSet) Clone() LocaleSet {
	if s == nil {
		return LocaleSet{}
	}
	return maps.Clone(s)
}

func (s LocaleSet) MarshalJSON() ([]byte, error) {
	sorted := s.Sorted()
	if sorted == nil {
		sorted = []string{}
	}
	return json.Marshal(sorted)
}

func (s *LocaleSet) UnmarshalJSON(data []byte) error {
	var locales []string
	if err := json.Unmarshal(data, &locales); err != nil {
		return err
	}
	*s = NewLocaleSet(locales...)
	return nil
}
