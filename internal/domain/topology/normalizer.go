// Package topology implements the resolution-normalized predicate engine over
// hierarchical cell sets: the algorithms answering whether two pre-tiled
// regions overlap, whether one lies inside the other, and what their overlap
// is, without ever degrading precision across mixed tessellation resolutions.
package topology

import (
	"github.com/turtacn/HexaTopo/internal/domain/cell"
)

// ─────────────────────────────────────────────────────────────────────────────
// Normalizer — aligns mixed-resolution cell sets pair by pair
// ─────────────────────────────────────────────────────────────────────────────

// Normalizer determines, for two cell sets that may each span multiple
// resolutions, which cells denote overlapping regions and at which resolution
// that overlap is expressed.
//
// The algorithm works on resolution buckets.  For a bucket pair (A_r, B_s):
//
//   - r == s: overlap is direct hash-set membership; the overlapping cells
//     are exactly the identical ids.
//   - r <  s (A coarser): a fine cell b in B_s overlaps A_r iff b's ancestor
//     at r is a member of A_r.  The overlap is expressed at s, the finer
//     resolution, using b itself.
//   - r >  s: symmetric.
//
// Only ancestor lookups toward coarser resolutions are ever issued, so a
// correctly wired resolver can never see an unsupported-resolution request;
// if one surfaces it is a defect and the error propagates unretried.  Each
// bucket pair costs time proportional to the finer bucket, not the product
// of both bucket sizes, and the only allocations are the bucket hash sets
// built when the inputs were materialized.
type Normalizer struct {
	resolver cell.AncestorResolver
}

// NewNormalizer builds a Normalizer on top of the given resolver backend.
func NewNormalizer(resolver cell.AncestorResolver) *Normalizer {
	return &Normalizer{resolver: resolver}
}

// Overlap is one confirmed overlap finding: the covering cell expressed at
// the finer resolution of the bucket pair that produced it.
type Overlap struct {
	Cell       cell.ID
	Resolution cell.Resolution
}

// EachOverlap calls visit for every overlap found across all bucket pairs of
// a and b, stopping early when visit returns false.  The same cell may be
// reported more than once when several bucket pairs confirm it; callers that
// materialize results deduplicate by id.
func (n *Normalizer) EachOverlap(a, b *cell.Set, visit func(Overlap) bool) error {
	if a.Empty() || b.Empty() {
		return nil
	}
	for _, r := range a.Resolutions() {
		for _, s := range b.Resolutions() {
			proceed, err := n.overlapBuckets(a.Bucket(r), b.Bucket(s), visit)
			if err != nil {
				return err
			}
			if !proceed {
				return nil
			}
		}
	}
	return nil
}

// overlapBuckets resolves one bucket pair, reporting overlaps at the finer
// of the two resolutions.  It returns false when visit requested a stop.
func (n *Normalizer) overlapBuckets(ba, bb cell.Bucket, visit func(Overlap) bool) (bool, error) {
	r, s := ba.Resolution(), bb.Resolution()

	switch {
	case r == s:
		// Identical resolution: iterate the smaller side, membership-test the
		// larger, so cost follows the smaller bucket.
		small, large := ba, bb
		if bb.Len() < ba.Len() {
			small, large = bb, ba
		}
		proceed := true
		small.Each(func(id cell.ID) bool {
			if large.Contains(id) {
				proceed = visit(Overlap{Cell: id, Resolution: r})
			}
			return proceed
		})
		return proceed, nil

	case r < s:
		// A is coarser: walk the fine bucket and test each cell's ancestor.
		return n.fineAgainstCoarse(bb, ba, visit)

	default:
		return n.fineAgainstCoarse(ba, bb, visit)
	}
}

// fineAgainstCoarse reports each cell of fine whose ancestor at coarse's
// resolution is a member of coarse.  The overlap is expressed with the fine
// cell itself, preserving precision.
func (n *Normalizer) fineAgainstCoarse(fine, coarse cell.Bucket, visit func(Overlap) bool) (bool, error) {
	target := coarse.Resolution()
	proceed := true
	var resolveErr error
	fine.Each(func(id cell.ID) bool {
		anc, err := n.resolver.AncestorAt(id, target)
		if err != nil {
			resolveErr = err
			return false
		}
		if coarse.Contains(anc) {
			proceed = visit(Overlap{Cell: id, Resolution: fine.Resolution()})
		}
		return proceed
	})
	return proceed, resolveErr
}

// Covered reports whether every cell of a is covered (ancestor-or-self) by
// some cell of b.  For each bucket A_r only the B_s buckets with s <= r can
// cover, since a covering cell is never finer than the covered one.
//
// Vacuous truth for empty a and falsity for empty b against non-empty a are
// the caller's concern; Covered assumes both sets are non-empty.
func (n *Normalizer) Covered(a, b *cell.Set) (bool, error) {
	coarser := b.Resolutions()

	for _, r := range a.Resolutions() {
		// Candidate covering resolutions, coarse to fine, capped at r.
		var candidates []cell.Resolution
		for _, s := range coarser {
			if s <= r {
				candidates = append(candidates, s)
			}
		}
		if len(candidates) == 0 {
			return false, nil
		}

		bucket := a.Bucket(r)
		covered := true
		var resolveErr error
		bucket.Each(func(id cell.ID) bool {
			ok, err := n.coveredAt(id, b, candidates)
			if err != nil {
				resolveErr = err
				return false
			}
			if !ok {
				covered = false
				return false
			}
			return true
		})
		if resolveErr != nil {
			return false, resolveErr
		}
		if !covered {
			return false, nil
		}
	}
	return true, nil
}

// coveredAt reports whether some candidate bucket of b holds id's
// ancestor-or-self.
func (n *Normalizer) coveredAt(id cell.ID, b *cell.Set, candidates []cell.Resolution) (bool, error) {
	for _, s := range candidates {
		if s == id.Resolution() {
			if b.Bucket(s).Contains(id) {
				return true, nil
			}
			continue
		}
		anc, err := n.resolver.AncestorAt(id, s)
		if err != nil {
			return false, err
		}
		if b.Bucket(s).Contains(anc) {
			return true, nil
		}
	}
	return false, nil
}
