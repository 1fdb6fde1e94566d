package translationstatus

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"time"
)

var (
	// ErrMetaNotFound reports a node without translation metadata.
	ErrMetaNotFound = errors.New("translationstatus: node has no translation metadata")
	// ErrNotAutoTranslated reports a review request for a locale that has not
	// been through an automatic pass.
	ErrNotAutoTranslated = errors.New("translationstatus: locale is not auto-translated")
)

// BlockMeta tracks translation provenance of one node across locales.
//
// A locale is in at most one of AutoTranslated and ManuallyReviewed. Failed is
// a subset of AutoTranslated holding locales whose last automatic pass could
// not reach the translator.
type BlockMeta struct {
	NodeID           string     `json:"node_id"`
	DefaultLocale    string     `json:"default_locale"`
	AutoTranslated   LocaleSet  `json:"auto_translated"`
	ManuallyReviewed LocaleSet  `json:"manually_reviewed"`
	Failed           LocaleSet  `json:"failed"`
	LastTranslatedAt *time.Time `json:"last_translated_at,omitempty"`
}

func (m *BlockMeta) Clone() *BlockMeta {
	if m == nil {
		return nil
	}
	clone := *m
	clone.AutoTranslated = m.AutoTranslated.Clone()
	clone.ManuallyReviewed = m.ManuallyReviewed.Clone()
	clone.Failed = m.Failed.Clone()
	if m.LastTranslatedAt != nil {
		at := *m.LastTranslatedAt
		clone.LastTranslatedAt = &at
	}
	return &clone
}

// NeedsReview reports whether locale was auto-translated and not yet reviewed.
func (m *BlockMeta) NeedsReview(locale string) bool {
	return m != nil && m.AutoTranslated.Has(locale) && !m.ManuallyReviewed.Has(locale)
}

// PageMeta holds the BlockMeta of every tracked node of a page, keyed by node id.
type PageMeta map[string]*BlockMeta

func (p PageMeta) Clone() PageMeta {
	out := make(PageMeta, len(p))
	for id, meta := range p {
		out[id] = meta.Clone()
	}
	return out
}

// Get returns the metadata of nodeID.
func (p PageMeta) Get(nodeID string) (*BlockMeta, bool) {
	meta, ok := p[nodeID]
	return meta, ok && meta != nil
}

// RecordAutoTranslation registers an automatic pass of nodeID into locale.
// It starts a new pass: locale leaves ManuallyReviewed. failed marks a pass
// whose translator call did not succeed.
func (p PageMeta) RecordAutoTranslation(nodeID, sourceLocale, locale string, at time.Time, failed bool) {
	meta, ok := p.Get(nodeID)
	if !ok {
		meta = &BlockMeta{
			NodeID:           nodeID,
			DefaultLocale:    sourceLocale,
			AutoTranslated:   LocaleSet{},
			ManuallyReviewed: LocaleSet{},
			Failed:           LocaleSet{},
		}
		p[nodeID] = meta
	}
	if meta.AutoTranslated == nil {
		meta.AutoTranslated = LocaleSet{}
	}
	if meta.Failed == nil {
		meta.Failed = LocaleSet{}
	}
	meta.AutoTranslated[locale] = struct{}{}
	delete(meta.ManuallyReviewed, locale)
	if failed {
		meta.Failed[locale] = struct{}{}
	} else {
		delete(meta.Failed, locale)
	}
	stamp := at.UTC()
	meta.LastTranslatedAt = &stamp
}

// Remove drops the metadata of deleted nodes.
func (p PageMeta) Remove(nodeIDs ...string) {
	for _, id := range nodeIDs {
		delete(p, id)
	}
}

// MarkReviewed moves locale from AutoTranslated to ManuallyReviewed.
func (p PageMeta) MarkReviewed(nodeID, locale string) error {
	meta, ok := p.Get(nodeID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrMetaNotFound, nodeID)
	}
	if !meta.AutoTranslated.Has(locale) {
		return fmt.Errorf("%w: node %s locale %s", ErrNotAutoTranslated, nodeID, locale)
	}
	delete(meta.AutoTranslated, locale)
	delete(meta.Failed, locale)
	if meta.ManuallyReviewed == nil {
		meta.ManuallyReviewed = LocaleSet{}
	}
	meta.ManuallyReviewed[locale] = struct{}{}
	return nil
}

// NeedsReview lists node ids awaiting review in locale, sorted.
func (p PageMeta) NeedsReview(locale string) []string {
	var out []string
	for _, id := range slices.Sorted(maps.Keys(p)) {
		if p[id].NeedsReview(locale) {
			out = append(out, id)
		}
	}
	return out
}

// FailedIn lists node ids whose last pass into locale failed, sorted.
func (p PageMeta) FailedIn(locale string) []string {
	var out []string
	for _, id := range slices.Sorted(maps.Keys(p)) {
		if meta := p[id]; meta != nil && meta.Failed.Has(locale) {
			out = append(out, id)
		}
	}
	return out
}

// Retain drops metadata for nodes not accepted by keep.
func (p PageMeta) Retain(keep func(nodeID string) bool) []string {
	var dropped []string
	for _, id := range slices.Sorted(maps.Keys(p)) {
		if !keep(id) {
			dropped = append(dropped, id)
			delete(p, id)
		}
	}
	return dropped
}
