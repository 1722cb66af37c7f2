package cell

import (
	"sync"

	"github.com/turtacn/HexaTopo/pkg/errors"
)

// ─────────────────────────────────────────────────────────────────────────────
// AncestorResolver — the ancestor-lookup capability
// ─────────────────────────────────────────────────────────────────────────────

// AncestorResolver answers "which cell at resolution r contains this cell?".
// Two interchangeable backends exist: StructuralResolver computes the answer
// from the identifier's encoding, and the feature store's table-backed
// resolver serves it from precomputed ancestor columns covering a bounded
// resolution window.  The topology engine is written against this interface
// only and behaves identically with either backend.
type AncestorResolver interface {
	// AncestorAt returns the unique ancestor of id at target.  It is defined
	// only for target <= id.Resolution(); asking for a "finer ancestor" is
	// meaningless (a coarse cell has many descendants, not one) and yields an
	// ErrCodeUnsupportedResolution error, as does a target outside the
	// backend's supported window.
	//
	// AncestorAt is referentially transparent: same inputs always produce the
	// same output, so results are safe to cache.  Implementations have no
	// observable side effects.
	AncestorAt(id ID, target Resolution) (ID, error)
}

// ─────────────────────────────────────────────────────────────────────────────
// StructuralResolver — compute-on-access backend
// ─────────────────────────────────────────────────────────────────────────────

// StructuralResolver derives ancestors directly from the identifier's bit
// encoding.  It covers the full resolution range, allocates nothing, and is
// safe for unbounded concurrent use.
type StructuralResolver struct{}

// NewStructuralResolver returns the compute-on-access resolver backend.
func NewStructuralResolver() StructuralResolver { return StructuralResolver{} }

// AncestorAt implements AncestorResolver.
func (StructuralResolver) AncestorAt(id ID, target Resolution) (ID, error) {
	if !target.Valid() {
		return 0, errors.Newf(errors.ErrCodeUnsupportedResolution,
			"target resolution %d outside the supported 0..15 window", target)
	}
	if target > id.Resolution() {
		return 0, errors.Newf(errors.ErrCodeUnsupportedResolution,
			"target resolution %d finer than cell resolution %d", target, id.Resolution())
	}
	return ancestorAt(id, target), nil
}

// ─────────────────────────────────────────────────────────────────────────────
// MemoResolver — explicit, injectable memoization decorator
// ─────────────────────────────────────────────────────────────────────────────

// MemoResolver wraps another resolver with a process-lifetime lookup cache.
// Ancestor resolution is referentially transparent, so entries never go
// stale; Purge exists for callers that scope the cache per query instead.
//
// The cache is an explicit collaborator wired in by the application
// bootstrap, never hidden shared state: a caller that wants no memoization
// simply keeps the undecorated backend.
type MemoResolver struct {
	inner AncestorResolver

	mu    sync.RWMutex
	cache map[memoKey]ID
}

type memoKey struct {
	id     ID
	target Resolution
}

// NewMemoResolver wraps inner with memoization.
func NewMemoResolver(inner AncestorResolver) *MemoResolver {
	return &MemoResolver{
		inner: inner,
		cache: make(map[memoKey]ID),
	}
}

// AncestorAt implements AncestorResolver.  Errors are never cached: a failed
// lookup is re-attempted on the next call so a transient backend fault does
// not leak staleness.
func (m *MemoResolver) AncestorAt(id ID, target Resolution) (ID, error) {
	key := memoKey{id: id, target: target}

	m.mu.RLock()
	anc, ok := m.cache[key]
	m.mu.RUnlock()
	if ok {
		return anc, nil
	}

	anc, err := m.inner.AncestorAt(id, target)
	if err != nil {
		return 0, err
	}

	m.mu.Lock()
	m.cache[key] = anc
	m.mu.Unlock()
	return anc, nil
}

// Purge drops every memoized entry.
func (m *MemoResolver) Purge() {
	m.mu.Lock()
	m.cache = make(map[memoKey]ID)
	m.mu.Unlock()
}

// Len returns the number of memoized entries, for metrics and tests.
func (m *MemoResolver) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.cache)
}
