package knowledge

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// CollectionKey derives the storage collection name for an identity.
//
// The key is deterministic and namespace-safe: the identity is lowercased
// and reduced to [a-z0-9_], then suffixed with a short digest of the
// original string so distinct identities that sanitize identically still
// map to distinct collections.
func CollectionKey(identity string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(identity)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}

	sanitized := b.String()
	if len(sanitized) > 40 {
		sanitized = sanitized[:40]
	}
	if sanitized == "" {
		sanitized = "anonymous"
	}

	sum := sha256.Sum256([]byte(identity))
	return sanitized + "_" + hex.EncodeToString(sum[:4])
}
