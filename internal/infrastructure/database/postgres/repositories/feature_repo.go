// Package repositories provides the PostgreSQL-backed implementations of the
// feature-store ports: the attribute-query engine that materializes cell sets
// from opaque predicates, and the precomputed ancestor-table resolver backend.
package repositories

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/turtacn/HexaTopo/internal/domain/cell"
	"github.com/turtacn/HexaTopo/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/HexaTopo/pkg/errors"
	"github.com/turtacn/HexaTopo/pkg/types/common"
)

// querier matches the pgxpool.Pool query surface the repositories use,
// allowing tests to substitute a mock.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgxRows, error)
}

// pgxRows mirrors pgx.Rows minus the bits the repositories never touch.
type pgxRows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close()
}

// poolQuerier adapts *pgxpool.Pool to the querier interface.
type poolQuerier struct{ pool *pgxpool.Pool }

func (p poolQuerier) Query(ctx context.Context, sql string, args ...any) (pgxRows, error) {
	return p.pool.Query(ctx, sql, args...)
}

// ─────────────────────────────────────────────────────────────────────────────
// FeatureRepository — the attribute-query engine
// ─────────────────────────────────────────────────────────────────────────────

// FeatureRepository materializes the cell set of all features matching one
// attribute predicate.  The predicate is an opaque SQL WHERE fragment over
// the features table; it is handed to PostgreSQL verbatim and never
// reinterpreted here, so a malformed predicate surfaces as the store's own
// error wrapped once with query context.
//
// Results are deterministic for a fixed predicate and dataset.  A predicate
// matching no features yields an empty set, not an error.
type FeatureRepository struct {
	db     querier
	logger logging.Logger
}

// NewFeatureRepository builds a FeatureRepository over the shared pool.
func NewFeatureRepository(pool *pgxpool.Pool, log logging.Logger) *FeatureRepository {
	return &FeatureRepository{db: poolQuerier{pool: pool}, logger: log.Named("features")}
}

// cellsMatchingSQL joins each matched feature to its tessellation cells.
// The predicate filters features only, mirroring the import layout where the
// attribute columns live on features and the cells on feature_cells.
const cellsMatchingSQL = `
SELECT fc.cell_id, fc.resolution, fc.feature_id
FROM feature_cells fc
JOIN features f ON f.feature_id = fc.feature_id
WHERE %s`

// CellsMatching returns the deduplicated cell set of every feature matched
// by predicate.
func (r *FeatureRepository) CellsMatching(ctx context.Context, predicate common.Predicate) (*cell.Set, error) {
	where := strings.TrimSpace(string(predicate))
	if where == "" {
		return nil, errors.New(errors.ErrCodeEmptyPredicate, "attribute predicate must not be blank")
	}

	rows, err := r.db.Query(ctx, fmt.Sprintf(cellsMatchingSQL, where))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodePredicateFailed, "attribute predicate rejected by feature store").
			WithDetail(where)
	}
	defer rows.Close()

	var records []cell.Record
	for rows.Next() {
		var (
			rawCell    int64
			resolution int16
			featureID  int64
		)
		if err := rows.Scan(&rawCell, &resolution, &featureID); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeStoreScan, "failed to scan cell row")
		}
		records = append(records, cell.Record{
			Cell:       cell.ID(rawCell),
			Resolution: cell.Resolution(resolution),
			Feature:    common.FeatureID(featureID),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeStoreScan, "cell row iteration failed")
	}

	set := cell.NewSet(records)
	r.logger.Debug("cell set materialized",
		logging.String("predicate", where),
		logging.Int("rows", len(records)),
		logging.Int("cells", set.Size()),
	)
	return set, nil
}
