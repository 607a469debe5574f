package dto

import (
	"fmt"
	"time"
)

// pendingPrefixLen bounds how much content participates in a pending key.
const pendingPrefixLen = 32

// EventKey returns the canonical dedup identity for a message or reaction.
// Rows that have a durable store id key on that id alone; rows that do not
// (client-side optimistic echoes) fall back to a composite of the author, a
// content prefix and the creation time rounded to the second. Receivers must
// prefer the durable-id form once both arrive for the same row.
func EventKey(id uint, authorID uint, content string, createdAt time.Time) string {
	if id != 0 {
		return fmt.Sprintf("id:%d", id)
	}
	prefix := content
	if len(prefix) > pendingPrefixLen {
		prefix = prefix[:pendingPrefixLen]
	}
	return fmt.Sprintf("pending:%d:%s:%d", authorID, prefix, createdAt.Unix())
}
