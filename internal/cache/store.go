// Package cache is the process-wide query cache: a key/value store with
// per-key freshness and retention, single-flight fetching and
// compare-and-set updates.
package cache

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

type Status int

const (
	// StatusIdle means no fetch was ever attempted for the key.
	StatusIdle Status = iota
	StatusPending
	StatusSuccess
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusSuccess:
		return "success"
	case StatusError:
		return "error"
	}
	return "idle"
}

// Options describe how long a cached value may be trusted and kept.
type Options struct {
	// Fresh is how long a value is served without refetching. Zero means
	// every read revalidates.
	Fresh time.Duration
	// Retain is how long an unused value survives before eviction.
	Retain time.Duration
	// Shared values are also written to the L2 backend, when one is set.
	Shared bool
}

const defaultRetain = 5 * time.Minute

type entry struct {
	value     any
	hasValue  bool
	err       error
	status    Status
	version   uint64
	updatedAt time.Time
	usedAt    time.Time
	stale     bool
	retain    time.Duration
	inflight  int
}

// Snapshot is a point-in-time copy of an entry.
type Snapshot struct {
	Value     any
	HasValue  bool
	Err       error
	Status    Status
	Version   uint64
	UpdatedAt time.Time
	Stale     bool
}

type Store struct {
	mu      sync.Mutex
	entries map[string]*entry
	keys    map[string]Key
	group   singleflight.Group
	now     func() time.Time
	l2      Backend
}

type StoreOption func(*Store)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) StoreOption { return func(s *Store) { s.now = now } }

// WithBackend enables the shared L2 for queries with Options.Shared.
func WithBackend(b Backend) StoreOption { return func(s *Store) { s.l2 = b } }

func New(opts ...StoreOption) *Store {
	s := &Store{
		entries: map[string]*entry{},
		keys:    map[string]Key{},
		now:     time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// entry returns the entry for k, creating an idle one. Caller holds mu.
func (s *Store) entry(k Key) *entry {
	id := k.String()
	e, ok := s.entries[id]
	if !ok {
		e = &entry{retain: defaultRetain}
		s.entries[id] = e
		s.keys[id] = k
	}
	return e
}

func (e *entry) snapshot() Snapshot {
	return Snapshot{
		Value:     e.value,
		HasValue:  e.hasValue,
		Err:       e.err,
		Status:    e.status,
		Version:   e.version,
		UpdatedAt: e.updatedAt,
		Stale:     e.stale,
	}
}

// Peek returns the current state of k without fetching. Absent keys report
// StatusIdle.
func (s *Store) Peek(k Key) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[k.String()]
	if !ok {
		return Snapshot{}
	}
	return e.snapshot()
}

func (s *Store) isFresh(e *entry, fresh time.Duration) bool {
	return e.hasValue && !e.stale && e.status == StatusSuccess && fresh > 0 &&
		s.now().Sub(e.updatedAt) < fresh
}

// Fetch returns the cached value for k while it is fresh, and otherwise runs
// fn. Concurrent fetches of one key share a single call to fn. fn runs
// detached from ctx cancellation so an abandoned read still refreshes the
// cache; the caller stops waiting when ctx ends.
func Fetch[T any](ctx context.Context, s *Store, k Key, o Options, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	id := k.String()

	s.mu.Lock()
	e := s.entry(k)
	e.usedAt = s.now()
	if o.Retain > 0 {
		e.retain = o.Retain
	}
	if s.isFresh(e, o.Fresh) {
		if v, ok := e.value.(T); ok {
			s.mu.Unlock()
			return v, nil
		}
	}
	start := e.version
	if e.status == StatusIdle {
		e.status = StatusPending
	}
	empty := !e.hasValue
	s.mu.Unlock()

	if empty && o.Shared && s.l2 != nil {
		if v, ok := loadShared[T](ctx, s, id); ok && s.commit(k, start, v.Data, nil, v.FetchedAt, o) {
			start++
			if s.now().Sub(v.FetchedAt) < o.Fresh {
				return v.Data, nil
			}
		}
	}

	detached := context.WithoutCancel(ctx)
	ch := s.group.DoChan(id, func() (any, error) {
		s.track(id, 1)
		defer s.track(id, -1)
		v, err := fn(detached)
		s.commit(k, start, v, err, s.now(), o)
		if err == nil && o.Shared && s.l2 != nil {
			saveShared(detached, s, id, v, o)
		}
		return v, err
	})

	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case r := <-ch:
		if r.Err != nil {
			return zero, r.Err
		}
		v, _ := r.Val.(T)
		return v, nil
	}
}

func (s *Store) track(id string, d int) {
	s.mu.Lock()
	if e, ok := s.entries[id]; ok {
		e.inflight += d
	}
	s.mu.Unlock()
}

// commit stores a fetch outcome unless the entry changed since the fetch began.
func (s *Store) commit(k Key, start uint64, v any, err error, at time.Time, o Options) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[k.String()]
	if !ok || e.version != start {
		return false
	}
	if err != nil {
		e.err = err
		e.status = StatusError
		return true
	}
	e.value, e.hasValue = v, true
	e.err = nil
	e.status = StatusSuccess
	e.updatedAt = at
	e.stale = false
	e.version++
	if o.Retain > 0 {
		e.retain = o.Retain
	}
	return true
}

// Set stores v as a fresh successful value and returns the new version.
func (s *Store) Set(k Key, v any) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.entry(k)
	s.put(e, v)
	return e.version
}

func (s *Store) put(e *entry, v any) {
	now := s.now()
	e.value, e.hasValue = v, true
	e.err = nil
	e.status = StatusSuccess
	e.updatedAt = now
	e.usedAt = now
	e.stale = false
	e.version++
}

// Update atomically replaces the value of k with fn's result. fn receives the
// current value; returning false leaves the entry untouched. The snapshot
// taken before the change and the resulting version are returned.
func (s *Store) Update(k Key, fn func(cur any, ok bool) (any, bool)) (prev Snapshot, version uint64, applied bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.entry(k)
	prev = e.snapshot()
	next, ok := fn(e.value, e.hasValue)
	if !ok {
		return prev, e.version, false
	}
	s.put(e, next)
	return prev, e.version, true
}

// CompareAndSwap stores v only if k is still at version.
func (s *Store) CompareAndSwap(k Key, version uint64, v any) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[k.String()]
	if !ok || e.version != version {
		return false
	}
	s.put(e, v)
	return true
}

// restore puts back a previous snapshot if k is still at version.
func (s *Store) restore(k Key, version uint64, prev Snapshot) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[k.String()]
	if !ok || e.version != version {
		return false
	}
	e.value, e.hasValue = prev.Value, prev.HasValue
	e.err = prev.Err
	e.status = prev.Status
	e.updatedAt = prev.UpdatedAt
	e.stale = prev.Stale
	e.version++
	return true
}

// Invalidate marks every entry under prefix stale so the next read refetches.
// In-flight fetches under prefix are forgotten and their results discarded.
func (s *Store) Invalidate(prefix Key) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for id, e := range s.entries {
		if !s.keys[id].HasPrefix(prefix) {
			continue
		}
		e.stale = true
		e.version++
		s.group.Forget(id)
		n++
	}
	return n
}

// Remove drops every entry under prefix.
func (s *Store) Remove(prefix Key) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for id := range s.entries {
		if s.keys[id].HasPrefix(prefix) {
			delete(s.entries, id)
			delete(s.keys, id)
			s.group.Forget(id)
			n++
		}
	}
	return n
}

// Sweep evicts entries unused for longer than their retention window.
func (s *Store) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	n := 0
	for id, e := range s.entries {
		if e.inflight > 0 || now.Sub(e.usedAt) < e.retain {
			continue
		}
		delete(s.entries, id)
		delete(s.keys, id)
		n++
	}
	return n
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
