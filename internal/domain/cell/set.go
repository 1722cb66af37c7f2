package cell

import (
	"sort"

	"github.com/turtacn/HexaTopo/pkg/types/common"
)

// ─────────────────────────────────────────────────────────────────────────────
// Record
// ─────────────────────────────────────────────────────────────────────────────

// Record is one (cell id, resolution, owner feature) triple as stored by the
// feature store.  Records are created during import and read-only afterwards;
// nothing in this module mutates or deletes them.
//
// Resolution is carried explicitly even though it is derivable from the id,
// mirroring the storage layout where it is a filterable column.
type Record struct {
	Cell       ID
	Resolution Resolution
	Feature    common.FeatureID
}

// NewRecord builds a Record, deriving the resolution from the id.
func NewRecord(id ID, feature common.FeatureID) Record {
	return Record{Cell: id, Resolution: id.Resolution(), Feature: feature}
}

// ─────────────────────────────────────────────────────────────────────────────
// Set — immutable, deduplicated, bucketed by resolution
// ─────────────────────────────────────────────────────────────────────────────

// Set is the deduplicated collection of cells gathered from all features
// matched by one attribute predicate.  A Set may hold cells at heterogeneous
// resolutions because different owner features may have been tessellated at
// different resolutions.
//
// Sets are immutable snapshots constructed fresh per query; they have no
// persistent identity and are safe for concurrent use by any number of
// evaluations.
type Set struct {
	buckets     map[Resolution]Bucket
	resolutions []Resolution // ascending, coarse to fine
	size        int
}

// Bucket is the subset of a Set sharing one resolution, materialized as a
// hash set so membership tests cost O(1) regardless of bucket size.
type Bucket struct {
	resolution Resolution
	members    map[ID]struct{}
}

// NewSet builds an immutable Set from records, dropping duplicate cell ids.
// The record's own resolution field is ignored in favour of the id's encoded
// resolution, which is authoritative.
func NewSet(records []Record) *Set {
	s := &Set{buckets: make(map[Resolution]Bucket)}
	for _, rec := range records {
		res := rec.Cell.Resolution()
		b, ok := s.buckets[res]
		if !ok {
			b = Bucket{resolution: res, members: make(map[ID]struct{})}
			s.buckets[res] = b
		}
		if _, dup := b.members[rec.Cell]; dup {
			continue
		}
		b.members[rec.Cell] = struct{}{}
		s.size++
	}
	s.resolutions = make([]Resolution, 0, len(s.buckets))
	for res := range s.buckets {
		s.resolutions = append(s.resolutions, res)
	}
	sort.Slice(s.resolutions, func(i, j int) bool { return s.resolutions[i] < s.resolutions[j] })
	return s
}

// NewSetOfIDs is NewSet for callers that have bare identifiers without owner
// features (fixtures, intersection results fed back in as inputs).
func NewSetOfIDs(ids []ID) *Set {
	records := make([]Record, len(ids))
	for i, id := range ids {
		records[i] = Record{Cell: id, Resolution: id.Resolution()}
	}
	return NewSet(records)
}

// Size returns the number of distinct cells across all buckets.
func (s *Set) Size() int { return s.size }

// Empty reports whether the set holds no cells.
func (s *Set) Empty() bool { return s.size == 0 }

// Resolutions returns the resolutions present, ascending (coarsest first).
// The returned slice is shared; callers must not modify it.
func (s *Set) Resolutions() []Resolution { return s.resolutions }

// Bucket returns the bucket at res.  The zero Bucket (empty, Len 0) is
// returned when no cell of that resolution is present.
func (s *Set) Bucket(res Resolution) Bucket { return s.buckets[res] }

// ResolutionRange returns the coarsest and finest resolutions present.
// ok is false for an empty set.
func (s *Set) ResolutionRange() (min, max Resolution, ok bool) {
	if len(s.resolutions) == 0 {
		return ResolutionNone, ResolutionNone, false
	}
	return s.resolutions[0], s.resolutions[len(s.resolutions)-1], true
}

// Contains reports whether the exact identifier is a member of the set.
func (s *Set) Contains(id ID) bool {
	return s.buckets[id.Resolution()].Contains(id)
}

// Resolution returns the bucket's resolution level.
func (b Bucket) Resolution() Resolution { return b.resolution }

// Len returns the number of cells in the bucket.
func (b Bucket) Len() int { return len(b.members) }

// Contains reports whether id is a member of the bucket.
func (b Bucket) Contains(id ID) bool {
	_, ok := b.members[id]
	return ok
}

// Each calls fn for every member until fn returns false.  Iteration order is
// unspecified; callers needing determinism sort the collected output.
func (b Bucket) Each(fn func(ID) bool) {
	for id := range b.members {
		if !fn(id) {
			return
		}
	}
}

// IDs returns the members as a freshly allocated, sorted slice.
func (b Bucket) IDs() []ID {
	out := make([]ID, 0, len(b.members))
	for id := range b.members {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
