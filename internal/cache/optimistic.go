package cache

// Optimistic is the handle of an optimistic cache write. Commit and Rollback
// only take effect while the entry is still at the version the write
// produced, so they never clobber a newer change to the same key.
type Optimistic struct {
	store   *Store
	key     Key
	prev    Snapshot
	version uint64
	applied bool
}

// Apply computes the post-mutation value from the current one and stores it
// immediately. fn returning false leaves the cache untouched, e.g. when
// nothing is cached yet to patch.
func Apply[T any](s *Store, k Key, fn func(cur T, ok bool) (T, bool)) *Optimistic {
	prev, version, applied := s.Update(k, func(cur any, ok bool) (any, bool) {
		v, typed := cur.(T)
		return fn(v, ok && typed)
	})
	return &Optimistic{store: s, key: k, prev: prev, version: version, applied: applied}
}

func (o *Optimistic) Applied() bool { return o.applied }

// Previous is the snapshot captured before the optimistic write.
func (o *Optimistic) Previous() Snapshot { return o.prev }

// Commit replaces the optimistic value with the server's canonical one.
func (o *Optimistic) Commit(v any) bool {
	if !o.applied {
		return false
	}
	return o.store.CompareAndSwap(o.key, o.version, v)
}

// Rollback restores the pre-mutation snapshot.
func (o *Optimistic) Rollback() bool {
	if !o.applied {
		return false
	}
	return o.store.restore(o.key, o.version, o.prev)
}
