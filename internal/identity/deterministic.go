package identity

import (
	"strings"

	hashid "github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
)

// UUID derives a deterministic UUID from a stable key using go-hashid.
//
// Keys must be prefixed by entity type so two entities never share a key.
func UUID(key string) uuid.UUID {
	trimmed := strings.TrimSpace(key)
	if trimmed == "" {
		return uuid.Nil
	}
	uid, err := hashid.NewUUID(trimmed, hashid.WithHashAlgorithm(hashid.SHA256), hashid.WithNormalization(true))
	if err != nil || uid == uuid.Nil {
		return uuid.NewSHA1(uuid.NameSpaceOID, []byte(trimmed))
	}
	return uid
}

// LocaleContentUUID names the draft row holding one locale of a page.
func LocaleContentUUID(pageID uuid.UUID, locale string) uuid.UUID {
	return UUID("composer:locale_content:" + pageID.String() + ":" + normalizeLocale(locale))
}

// LiveContentUUID names the published snapshot row for one locale of a page.
func LiveContentUUID(pageID uuid.UUID, locale string) uuid.UUID {
	return UUID("composer:live_content:" + pageID.String() + ":" + normalizeLocale(locale))
}

// BlockMetaUUID names the translation meta row for a node of a page.
func BlockMetaUUID(pageID uuid.UUID, nodeID string) uuid.UUID {
	return UUID("composer:block_meta:" + pageID.String() + ":" + strings.TrimSpace(nodeID))
}

func normalizeLocale(locale string) string {
	return strings.ToLower(strings.TrimSpace(locale))
}
