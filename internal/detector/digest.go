package detector

import (
	"crypto/sha256"
	"encoding/hex"
)

// Digest returns the hex-encoded SHA-256 of canonicalized text, used both
// as the CrawlTarget's content digest and as each ClaimVersion's snippet
// digest.
func Digest(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
