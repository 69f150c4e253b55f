package ancform

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

var (
	ErrDraftNotFound = errors.New("anc session not found or expired")
	ErrDraftConflict = errors.New("anc session was modified concurrently, retry the change")
)

// DraftStore keeps in-progress sessions between requests.
type DraftStore interface {
	Get(ctx context.Context, id uuid.UUID) (*Session, error)
	Save(ctx context.Context, s *Session) error
	// Update loads the draft, runs fn on it and stores the result only if
	// nobody else wrote the draft in between. An error from fn is returned
	// as is and nothing is stored.
	Update(ctx context.Context, id uuid.UUID, fn func(*Session) error) (*Session, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

const (
	draftKeyPrefix = "anc:draft:"

	maxUpdateAttempts = 5
)

// RedisDraftStore stores sessions as JSON. Every save refreshes the TTL so
// abandoned drafts expire on their own.
type RedisDraftStore struct {
	c   *redis.Client
	ttl time.Duration
}

func NewRedisDraftStore(c *redis.Client, ttl time.Duration) *RedisDraftStore {
	return &RedisDraftStore{c: c, ttl: ttl}
}

func draftKey(id uuid.UUID) string {
	return draftKeyPrefix + id.String()
}

func (r *RedisDraftStore) Get(ctx context.Context, id uuid.UUID) (*Session, error) {
	val, err := r.c.Get(ctx, draftKey(id)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrDraftNotFound
		}
		return nil, fmt.Errorf("get draft: %w", err)
	}
	return decodeDraft(id, val)
}

func (r *RedisDraftStore) Save(ctx context.Context, s *Session) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode draft: %w", err)
	}
	return r.c.Set(ctx, draftKey(s.ID), data, r.ttl).Err()
}

// Update runs fn under WATCH on the draft key. When another client writes the
// draft before EXEC the attempt is discarded and fn runs again on the fresh
// copy.
func (r *RedisDraftStore) Update(ctx context.Context, id uuid.UUID, fn func(*Session) error) (*Session, error) {
	key := draftKey(id)
	var out *Session
	txf := func(tx *redis.Tx) error {
		val, err := tx.Get(ctx, key).Bytes()
		if err != nil {
			if err == redis.Nil {
				return ErrDraftNotFound
			}
			return fmt.Errorf("get draft: %w", err)
		}
		sess, err := decodeDraft(id, val)
		if err != nil {
			return err
		}
		if err := fn(sess); err != nil {
			return err
		}
		data, err := json.Marshal(sess)
		if err != nil {
			return fmt.Errorf("encode draft: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
			p.Set(ctx, key, data, r.ttl)
			return nil
		})
		if err != nil {
			return err
		}
		out = sess
		return nil
	}

	for attempt := 0; attempt < maxUpdateAttempts; attempt++ {
		err := r.c.Watch(ctx, txf, key)
		if err == nil {
			return out, nil
		}
		if !errors.Is(err, redis.TxFailedErr) {
			return nil, err
		}
	}
	return nil, ErrDraftConflict
}

func decodeDraft(id uuid.UUID, data []byte) (*Session, error) {
	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode draft %s: %w", id, err)
	}
	return &s, nil
}

func (r *RedisDraftStore) Delete(ctx context.Context, id uuid.UUID) error {
	n, err := r.c.Del(ctx, draftKey(id)).Result()
	if err != nil {
		return fmt.Errorf("delete draft: %w", err)
	}
	if n == 0 {
		return ErrDraftNotFound
	}
	return nil
}
