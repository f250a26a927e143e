package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stemsi/examforge/internal/config"
	"github.com/stemsi/examforge/internal/editor"
)

// ErrDraftNotFound is returned for a draft that does not exist, belongs to
// another author, or has expired.
var ErrDraftNotFound = errors.New("draft not found")

// DraftStore parks editor drafts between requests.
type DraftStore interface {
	Save(ctx context.Context, d *editor.Draft) error
	Load(ctx context.Context, authorID, draftID string) (*editor.Draft, error)
	List(ctx context.Context, authorID string) ([]*editor.Draft, error)
	Delete(ctx context.Context, authorID, draftID string) error
}

// RedisDraftStore keeps each draft as JSON under its own key with a sliding
// TTL, plus a per-author set indexing the draft IDs.
type RedisDraftStore struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisDraftStore creates a new RedisDraftStore.
func NewRedisDraftStore(rdb *redis.Client, ttl time.Duration) *RedisDraftStore {
	return &RedisDraftStore{rdb: rdb, ttl: ttl}
}

func (s *RedisDraftStore) Save(ctx context.Context, d *editor.Draft) error {
	data, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("encode draft: %w", err)
	}

	indexKey := config.CacheKey.DraftIndexKey(d.AuthorID)
	_, err = s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, config.CacheKey.DraftKey(d.AuthorID, d.ID), string(data), s.ttl)
		pipe.SAdd(ctx, indexKey, d.ID)
		pipe.Expire(ctx, indexKey, s.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("save draft: %w", err)
	}
	return nil
}

func (s *RedisDraftStore) Load(ctx context.Context, authorID, draftID string) (*editor.Draft, error) {
	raw, err := s.rdb.Get(ctx, config.CacheKey.DraftKey(authorID, draftID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrDraftNotFound
		}
		return nil, fmt.Errorf("load draft: %w", err)
	}
	return decodeDraft(raw)
}

// List returns the author's drafts, most recently edited first. Index
// entries whose draft expired are pruned.
func (s *RedisDraftStore) List(ctx context.Context, authorID string) ([]*editor.Draft, error) {
	indexKey := config.CacheKey.DraftIndexKey(authorID)
	ids, err := s.rdb.SMembers(ctx, indexKey).Result()
	if err != nil {
		return nil, fmt.Errorf("list drafts: %w", err)
	}
	if len(ids) == 0 {
		return []*editor.Draft{}, nil
	}
	sort.Strings(ids)

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = config.CacheKey.DraftKey(authorID, id)
	}
	vals, err := s.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("load drafts: %w", err)
	}

	drafts := make([]*editor.Draft, 0, len(vals))
	var stale []interface{}
	for i, v := range vals {
		raw, ok := v.(string)
		if !ok {
			stale = append(stale, ids[i])
			continue
		}
		d, err := decodeDraft(raw)
		if err != nil {
			return nil, err
		}
		drafts = append(drafts, d)
	}
	if len(stale) > 0 {
		_ = s.rdb.SRem(ctx, indexKey, stale...).Err()
	}

	sort.SliceStable(drafts, func(i, j int) bool {
		return drafts[i].UpdatedAt.After(drafts[j].UpdatedAt)
	})
	return drafts, nil
}

func (s *RedisDraftStore) Delete(ctx context.Context, authorID, draftID string) error {
	_, err := s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, config.CacheKey.DraftKey(authorID, draftID))
		pipe.SRem(ctx, config.CacheKey.DraftIndexKey(authorID), draftID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete draft: %w", err)
	}
	return nil
}

func decodeDraft(raw string) (*editor.Draft, error) {
	var d editor.Draft
	if err := json.Unmarshal([]byte(raw), &d); err != nil {
		return nil, fmt.Errorf("decode draft: %w", err)
	}
	d.Normalize()
	return &d, nil
}
