package tts

import (
	"crypto/md5" //nolint:gosec // cache key fingerprint, not a security boundary
	"encoding/hex"
	"strings"
)

const (
	// maxKeyLength bounds derived keys so cache filenames stay short.
	maxKeyLength = 50
	// minKeyLength is the degeneracy threshold below which the hash
	// fallback is used instead of the sanitized name.
	minKeyLength = 2
	// hashKeyLength is the truncated hex length of fallback keys. It
	// matches the worker's own naming so both sides address one file.
	hashKeyLength = 12
)

// DeriveKey maps arbitrary input text to a stable, filesystem-safe cache
// key. The scheme mirrors the worker's: lowercase and trim, keep only
// ASCII letters, digits and spaces, join words with underscores, and cap
// the length. Inputs that sanitize to fewer than two characters (symbols,
// non-Latin scripts) fall back to a truncated MD5 of the normalized text
// so they still get distinct, usable keys.
func DeriveKey(text string) string {
	normalized := strings.ToLower(strings.TrimSpace(text))

	var b strings.Builder
	b.Grow(len(normalized))
	for _, r := range normalized {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == ' ' {
			b.WriteRune(r)
		}
	}

	key := strings.ReplaceAll(b.String(), " ", "_")
	if len(key) > maxKeyLength {
		key = key[:maxKeyLength]
	}

	if len(key) < minKeyLength {
		sum := md5.Sum([]byte(normalized)) //nolint:gosec
		key = hex.EncodeToString(sum[:])[:hashKeyLength]
	}

	return key
}
