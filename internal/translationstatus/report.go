package translationstatus

import (
	"slices"

	"github.com/goliatone/go-cms-composer/internal/nodes"
)

// State is the per-node, per-locale translation state.
type State string

const (
	StateSource   State = "source"
	StateAuto     State = "auto_translated"
	StateFailed   State = "translation_failed"
	StateReviewed State = "reviewed"
	StateAuthored State = "authored"
)

// NodeStatus is the state of one node in one locale.
type NodeStatus struct {
	NodeID        string `json:"node_id"`
	ComponentType string `json:"component_type"`
	State         State  `json:"state"`
}

// LocaleStatus summarises one locale of a page.
type LocaleStatus struct {
	Locale      string       `json:"locale"`
	Present     bool         `json:"present"`
	Nodes       []NodeStatus `json:"nodes,omitempty"`
	NeedsReview []string     `json:"needs_review,omitempty"`
	Failed      []string     `json:"failed,omitempty"`
}

// Report is the translation status of a page across locales.
type Report struct {
	PageID        string         `json:"page_id"`
	DefaultLocale string         `json:"default_locale"`
	Version       int64          `json:"version"`
	Locales       []LocaleStatus `json:"locales"`
	Missing       []string       `json:"missing"`
}

// MissingLocales returns the configured locales with no tree, in configured order.
func MissingLocales(configured []string, trees map[string]*nodes.Tree) []string {
	var missing []string
	for _, locale := range configured {
		if trees[locale] == nil {
			missing = append(missing, locale)
		}
	}
	return missing
}

// BuildReport derives per-locale, per-node status. Locales are reported in
// configured order followed by any stored locale not configured.
func BuildReport(snapshot Snapshot, configured []string) Report {
	report := Report{
		PageID:        snapshot.PageID.String(),
		DefaultLocale: snapshot.DefaultLocale,
		Version:       snapshot.Version,
		Missing:       MissingLocales(configured, snapshot.Trees),
	}

	locales := slices.Clone(configured)
	for _, locale := range sortedLocales(snapshot.Trees) {
		if !slices.Contains(locales, locale) {
			locales = append(locales, locale)
		}
	}

	for _, locale := range locales {
		tree := snapshot.Trees[locale]
		status := LocaleStatus{Locale: locale, Present: tree != nil}
		if tree == nil {
			report.Locales = append(report.Locales, status)
			continue
		}
		for _, id := range tree.PreOrder() {
			status.Nodes = append(status.Nodes, NodeStatus{
				NodeID:        id,
				ComponentType: tree.Type(id),
				State:         nodeState(snapshot.Meta[id], locale),
			})
		}
		status.NeedsReview = snapshot.Meta.NeedsReview(locale)
		status.Failed = snapshot.Meta.FailedIn(locale)
		report.Locales = append(report.Locales, status)
	}
	return report
}

func nodeState(meta *BlockMeta, locale string) State {
	switch {
	case meta == nil:
		return StateAuthored
	case meta.DefaultLocale == locale:
		return StateSource
	case meta.ManuallyReviewed.Has(locale):
		return StateReviewed
	case meta.Failed.Has(locale):
		return StateFailed
	case meta.AutoTranslated.Has(locale):
		return StateAuto
	default:
		return StateAuthored
	}
}

func sortedLocales(trees map[string]*nodes.Tree) []string {
	out := make([]string, 0, len(trees))
	for locale, tree := range trees {
		if tree != nil {
			out = append(out, locale)
		}
	}
	slices.Sort(out)
	return out
}
