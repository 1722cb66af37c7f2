package repositories

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/turtacn/HexaTopo/internal/domain/cell"
	"github.com/turtacn/HexaTopo/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/HexaTopo/pkg/errors"
)

// ─────────────────────────────────────────────────────────────────────────────
// AncestorStore — the precomputed-table resolver backend
// ─────────────────────────────────────────────────────────────────────────────

// AncestorStore serves ancestor lookups from the cell_ancestors table written
// by the import pipeline, covering a bounded resolution window.  It is the
// storage-backed alternative to cell.StructuralResolver; the topology engine
// behaves identically with either.
//
// Because predicate evaluation must stay free of I/O, the store does not
// resolve per lookup.  Instead ResolverFor bulk-loads the ancestor rows for
// the cells of a query's two sets in one round trip and returns an in-memory
// resolver over them.
type AncestorStore struct {
	db        querier
	windowMin cell.Resolution
	windowMax cell.Resolution
	logger    logging.Logger
}

// NewAncestorStore builds an AncestorStore serving the [windowMin, windowMax]
// resolution window.
func NewAncestorStore(pool *pgxpool.Pool, windowMin, windowMax cell.Resolution, log logging.Logger) *AncestorStore {
	return &AncestorStore{
		db:        poolQuerier{pool: pool},
		windowMin: windowMin,
		windowMax: windowMax,
		logger:    log.Named("ancestors"),
	}
}

const ancestorRowsSQL = `
SELECT cell_id, window_min, ancestors
FROM cell_ancestors
WHERE cell_id = ANY($1)`

// ResolverFor loads the precomputed ancestor rows for every cell of the
// given sets and returns a resolver answering from that snapshot.  Cells at
// the window's coarse edge need no row (their only in-window ancestor is
// themselves), so missing rows for them are not an error; any other cell
// without a row fails at lookup time with ErrCodeAncestorNotFound.
func (s *AncestorStore) ResolverFor(ctx context.Context, sets ...*cell.Set) (cell.AncestorResolver, error) {
	var ids []int64
	for _, set := range sets {
		for _, res := range set.Resolutions() {
			set.Bucket(res).Each(func(id cell.ID) bool {
				ids = append(ids, int64(id))
				return true
			})
		}
	}

	table := make(map[cell.ID][]cell.ID, len(ids))
	if len(ids) > 0 {
		rows, err := s.db.Query(ctx, ancestorRowsSQL, ids)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeStoreQuery, "ancestor row load failed")
		}
		defer rows.Close()

		for rows.Next() {
			var (
				rawCell   int64
				rowMin    int16
				ancestors []int64
			)
			if err := rows.Scan(&rawCell, &rowMin, &ancestors); err != nil {
				return nil, errors.Wrap(err, errors.ErrCodeStoreScan, "failed to scan ancestor row")
			}
			if cell.Resolution(rowMin) != s.windowMin {
				return nil, errors.Newf(errors.ErrCodeStoreScan,
					"ancestor row window starts at %d, store configured for %d", rowMin, s.windowMin)
			}
			chain := make([]cell.ID, len(ancestors))
			for i, a := range ancestors {
				chain[i] = cell.ID(a)
			}
			table[cell.ID(rawCell)] = chain
		}
		if err := rows.Err(); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeStoreScan, "ancestor row iteration failed")
		}
	}

	s.logger.Debug("ancestor snapshot loaded",
		logging.Int("cells", len(ids)),
		logging.Int("rows", len(table)),
	)
	return &tableResolver{
		windowMin: s.windowMin,
		windowMax: s.windowMax,
		table:     table,
	}, nil
}

// tableResolver answers AncestorAt from a loaded snapshot.  It is immutable
// after construction and safe for concurrent use.
type tableResolver struct {
	windowMin cell.Resolution
	windowMax cell.Resolution
	table     map[cell.ID][]cell.ID
}

// AncestorAt implements cell.AncestorResolver.
func (t *tableResolver) AncestorAt(id cell.ID, target cell.Resolution) (cell.ID, error) {
	if target > id.Resolution() {
		return 0, errors.Newf(errors.ErrCodeUnsupportedResolution,
			"target resolution %d finer than cell resolution %d", target, id.Resolution())
	}
	// Self-ancestry is the identity regardless of the window.
	if target == id.Resolution() {
		return id, nil
	}
	if target < t.windowMin || target > t.windowMax {
		return 0, errors.Newf(errors.ErrCodeUnsupportedResolution,
			"target resolution %d outside the precomputed window %d..%d", target, t.windowMin, t.windowMax)
	}

	chain, ok := t.table[id]
	if !ok {
		return 0, errors.New(errors.ErrCodeAncestorNotFound, "no precomputed ancestor row for cell").
			WithDetail(id.String())
	}
	idx := int(target - t.windowMin)
	if idx >= len(chain) {
		return 0, errors.Newf(errors.ErrCodeAncestorNotFound,
			"ancestor row for cell too short for resolution %d", target).WithDetail(id.String())
	}
	return chain[idx], nil
}
