package redisstore

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/chatterbox-app/chatterbox/internal/chat"
)

const (
	listingKey = "chatterbox:chats:recent"
	listingTTL = 30 * time.Second
)

// Store caches the sidebar listing in redis. All operations are best effort:
// a miss or a redis failure just sends the caller back to the database.
type Store struct {
	rdb *redis.Client
}

func New(addr, password string, db int) *Store {
	return &Store{rdb: redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})}
}

func (s *Store) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

func (s *Store) GetListing(ctx context.Context) ([]chat.Chat, bool) {
	raw, err := s.rdb.Get(ctx, listingKey).Bytes()
	if err != nil {
		return nil, false
	}
	var chats []chat.Chat
	if err := json.Unmarshal(raw, &chats); err != nil {
		return nil, false
	}
	return chats, true
}

func (s *Store) SetListing(ctx context.Context, chats []chat.Chat) {
	raw, err := json.Marshal(chats)
	if err != nil {
		return
	}
	s.rdb.Set(ctx, listingKey, raw, listingTTL)
}

func (s *Store) Invalidate(ctx context.Context) {
	s.rdb.Del(ctx, listingKey)
}
