package topology

import (
	"sort"

	"github.com/turtacn/HexaTopo/internal/domain/cell"
	"github.com/turtacn/HexaTopo/internal/infrastructure/monitoring/logging"
)

// ─────────────────────────────────────────────────────────────────────────────
// Evaluator — the four predicate operations
// ─────────────────────────────────────────────────────────────────────────────

// Evaluator exposes the four topology operations over two cell sets.  Each
// call is a pure function of its inputs: no state is carried between calls,
// and the inputs are immutable snapshots, so any number of evaluations may
// run concurrently (subject only to the resolver backend being safe, which
// both shipped backends are).
//
// Errors can originate only in the resolver backend; they propagate to the
// caller unretried because the computation is deterministic and in-memory.
// Every operation either fully succeeds or fails with no partial result.
type Evaluator struct {
	norm   *Normalizer
	logger logging.Logger
}

// NewEvaluator builds an Evaluator on the given resolver backend.
func NewEvaluator(resolver cell.AncestorResolver, logger logging.Logger) *Evaluator {
	return &Evaluator{
		norm:   NewNormalizer(resolver),
		logger: logger.Named("topology"),
	}
}

// Intersects reports whether at least one overlapping cell pair exists across
// all resolution-bucket combinations of a and b.  It short-circuits on the
// first confirmed overlap.  An empty a or b never intersects anything.
func (e *Evaluator) Intersects(a, b *cell.Set) (bool, error) {
	if a.Empty() || b.Empty() {
		return false, nil
	}
	found := false
	err := e.norm.EachOverlap(a, b, func(Overlap) bool {
		found = true
		return false
	})
	if err != nil {
		return false, err
	}
	return found, nil
}

// Within reports whether every cell of a is covered (ancestor-or-self) by
// some cell of b.  An empty a is vacuously within anything, including an
// empty b; a non-empty a is never within an empty b.
func (e *Evaluator) Within(a, b *cell.Set) (bool, error) {
	if a.Empty() {
		return true, nil
	}
	if b.Empty() {
		return false, nil
	}
	return e.norm.Covered(a, b)
}

// Contains is the definitional inverse of Within: Contains(a, b) == Within(b, a).
// There is deliberately no independent algorithm behind it.
func (e *Evaluator) Contains(a, b *cell.Set) (bool, error) {
	return e.Within(b, a)
}

// IntersectionResult carries the overlap of two cell sets, expressed at the
// single finest resolution among all confirmed overlaps.  When no overlap
// exists, Cells is empty and Resolution is cell.ResolutionNone; callers must
// test Empty(), not the resolution.
type IntersectionResult struct {
	Cells      []cell.ID
	Resolution cell.Resolution
}

// Empty reports whether the intersection found no overlap.
func (r *IntersectionResult) Empty() bool { return len(r.Cells) == 0 }

// Intersection collects the cells participating in a confirmed overlap,
// each expressed at the finer resolution of the bucket pair that confirmed
// it.  When overlaps occur at several distinct finer resolutions at once
// (mixed-resolution inputs), only the single finest of those resolutions is
// reported and cells confirmed at coarser levels are excluded, so the result
// is never coarser than the data allows.  Duplicate findings of one cell
// across bucket pairs collapse to a single result entry.
func (e *Evaluator) Intersection(a, b *cell.Set) (*IntersectionResult, error) {
	byRes := make(map[cell.Resolution]map[cell.ID]struct{})
	finest := cell.ResolutionNone

	err := e.norm.EachOverlap(a, b, func(o Overlap) bool {
		members, ok := byRes[o.Resolution]
		if !ok {
			members = make(map[cell.ID]struct{})
			byRes[o.Resolution] = members
		}
		members[o.Cell] = struct{}{}
		if o.Resolution > finest {
			finest = o.Resolution
		}
		return true
	})
	if err != nil {
		return nil, err
	}

	if finest == cell.ResolutionNone {
		return &IntersectionResult{Cells: []cell.ID{}, Resolution: cell.ResolutionNone}, nil
	}

	cells := make([]cell.ID, 0, len(byRes[finest]))
	for id := range byRes[finest] {
		cells = append(cells, id)
	}
	sort.Slice(cells, func(i, j int) bool { return cells[i] < cells[j] })

	e.logger.Debug("intersection computed",
		logging.Int("cells_a", a.Size()),
		logging.Int("cells_b", b.Size()),
		logging.Int("result_cells", len(cells)),
		logging.Int("result_resolution", int(finest)),
	)
	return &IntersectionResult{Cells: cells, Resolution: finest}, nil
}
