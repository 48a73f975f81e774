package chat

import (
	"time"

	"github.com/oklog/ulid/v2"
)

// NewChatID returns a 26-char ULID. IDs are time-ordered and unique, so the
// recency listing can fall back to id order for chats created within the
// same millisecond.
func NewChatID() (string, error) {
	id, err := ulid.New(ulid.Timestamp(time.Now()), ulid.DefaultEntropy())
	if err != nil {
		return "", err
	}
	return id.String(), nil
}
