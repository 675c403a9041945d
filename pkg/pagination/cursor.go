// Package pagination implements opaque keyset cursors for reverse-chronological feeds.
package pagination

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
)

const (
	// MessageDefaultLimit is the default page size for message feeds
	MessageDefaultLimit = 25

	// MessageMaxLimit caps a single page
	MessageMaxLimit = 100
)

// ErrInvalidCursor is returned for cursors that do not decode
var ErrInvalidCursor = errors.New("invalid cursor")

// CursorPayload is the position after which the next page starts.
// Feeds are ordered by id descending, so the next page holds ids < LastID.
type CursorPayload struct {
	LastID uint64 `json:"last_id"`
}

// EncodeCursor serializes a cursor; the zero payload encodes to ""
func EncodeCursor(payload CursorPayload) string {
	if payload.LastID == 0 {
		return ""
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return ""
	}
	return base64.RawURLEncoding.EncodeToString(b)
}

// DecodeCursor parses a cursor; "" is the start of the feed
func DecodeCursor(cursor string) (CursorPayload, error) {
	var cp CursorPayload
	if cursor == "" {
		return cp, nil
	}
	data, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return cp, fmt.Errorf("%w: decode base64: %v", ErrInvalidCursor, err)
	}
	if err := json.Unmarshal(data, &cp); err != nil {
		return cp, fmt.Errorf("%w: decode JSON: %v", ErrInvalidCursor, err)
	}
	return cp, nil
}

// ClampLimit applies the default and maximum page size
func ClampLimit(limit int) int {
	if limit <= 0 {
		return MessageDefaultLimit
	}
	if limit > MessageMaxLimit {
		return MessageMaxLimit
	}
	return limit
}
