package cache

import (
	"context"
	"encoding/json"
	"time"

	applog "easybake/internal/log"
)

// Backend is a shared second-level store for values that are identical for
// every session, such as catalog listings.
type Backend interface {
	Load(ctx context.Context, key string) ([]byte, bool, error)
	Save(ctx context.Context, key string, data []byte, ttl time.Duration) error
}

const l2Timeout = 500 * time.Millisecond

type sharedValue[T any] struct {
	FetchedAt time.Time `json:"fetched_at"`
	Data      T         `json:"data"`
}

func loadShared[T any](ctx context.Context, s *Store, id string) (sharedValue[T], bool) {
	ctx, cancel := context.WithTimeout(ctx, l2Timeout)
	defer cancel()
	var v sharedValue[T]
	raw, ok, err := s.l2.Load(ctx, id)
	if err != nil {
		applog.Warn().Err(err).Str("key", id).Msg("cache: l2 load failed")
		return v, false
	}
	if !ok {
		return v, false
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		applog.Warn().Err(err).Str("key", id).Msg("cache: l2 payload undecodable")
		return v, false
	}
	return v, true
}

func saveShared(ctx context.Context, s *Store, id string, data any, o Options) {
	ttl := o.Retain
	if ttl <= 0 {
		ttl = defaultRetain
	}
	raw, err := json.Marshal(sharedValue[any]{FetchedAt: s.now(), Data: data})
	if err != nil {
		applog.Warn().Err(err).Str("key", id).Msg("cache: l2 encode failed")
		return
	}
	ctx, cancel := context.WithTimeout(ctx, l2Timeout)
	defer cancel()
	if err := s.l2.Save(ctx, id, raw, ttl); err != nil {
		applog.Warn().Err(err).Str("key", id).Msg("cache: l2 save failed")
	}
}
