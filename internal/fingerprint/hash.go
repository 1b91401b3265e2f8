package fingerprint

import (
	"crypto/sha256"
	"fmt"
	"strings"

	"github.com/conorfennell/studybuddy/internal/domain"
)

// Normalize concatenates the draft's content after cleaning each part.
// It trims whitespace, lowercases, and normalizes line endings for each field
// before joining them.
func Normalize(d domain.Draft) string {
	normalizePart := func(part string) string {
		p := strings.ToLower(part)
		p = strings.ReplaceAll(p, "\r\n", "\n")
		p = strings.TrimSpace(p)
		return p
	}

	// Subject and test lead so drafts group the same way the backend does.
	return strings.Join([]string{
		normalizePart(d.Subject),
		normalizePart(d.Test),
		normalizePart(d.Front),
		normalizePart(d.Back),
	}, "\n")
}

// Hash normalizes a draft and returns its SHA-256 hash as a hex string.
func Hash(d domain.Draft) string {
	hashBytes := sha256.Sum256([]byte(Normalize(d)))
	return fmt.Sprintf("%x", hashBytes)
}

// Batch returns the SHA-256 hash of an ordered sequence of drafts.
// The same drafts in the same order always produce the same key, which makes
// it usable as an idempotency key for a batch upload.
func Batch(drafts []domain.Draft) string {
	h := sha256.New()
	for _, d := range drafts {
		// Fixed-width per-draft digests keep field boundaries unambiguous.
		fmt.Fprintf(h, "%s\n", Hash(d))
	}
	return fmt.Sprintf("%x", h.Sum(nil))
}
