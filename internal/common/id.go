package common

import (
	"github.com/google/uuid"
)

// NewID generates a unique identifier of the form "<prefix>_<uuid>". Every
// entity ID in this engine (companies, crawl targets, claims, claim
// versions, change events, evidence rows, queue jobs, crawl runs, and
// scheduler replica holder IDs) is minted through this one helper so the
// prefix convention stays in one place.
func NewID(prefix string) string {
	return prefix + "_" + uuid.New().String()
}
