// Package common defines the small shared scalar and carrier types used
// across HexaTopo's layers.  Domain-specific types (cell identifiers,
// cell sets) live in internal/domain/cell; only cross-cutting plumbing
// types belong here.
package common

import (
	"time"

	"github.com/google/uuid"
)

// FeatureID identifies one imported geographic feature.  Assigned by the
// import pipeline, stable for the lifetime of the dataset.
type FeatureID int64

// QueryID identifies one facade invocation for logging, metrics and audit
// correlation.  It has no persistence; a fresh one is minted per call.
type QueryID string

// NewQueryID mints a random QueryID.
func NewQueryID() QueryID {
	return QueryID(uuid.NewString())
}

// Predicate is an opaque attribute selection handed verbatim to the
// attribute-query engine (a SQL WHERE fragment over the features table, in
// the PostgreSQL backend).  The topology core never inspects it.
type Predicate string

// Operation names one of the four topology predicate operations exposed by
// the query facade.
type Operation string

const (
	OpIntersects   Operation = "intersects"
	OpWithin       Operation = "within"
	OpContains     Operation = "contains"
	OpIntersection Operation = "intersection"
)

// Valid reports whether op is one of the four known operations.
func (op Operation) Valid() bool {
	switch op {
	case OpIntersects, OpWithin, OpContains, OpIntersection:
		return true
	}
	return false
}

// QueryAudit is the event published to the audit topic after every facade
// call, successful or not.
type QueryAudit struct {
	QueryID    QueryID       `json:"query_id"`
	Operation  Operation     `json:"operation"`
	PredicateA Predicate     `json:"predicate_a"`
	PredicateB Predicate     `json:"predicate_b"`
	CellsA     int           `json:"cells_a"`
	CellsB     int           `json:"cells_b"`
	ResultSize int           `json:"result_size"`
	Matched    bool          `json:"matched"`
	Duration   time.Duration `json:"duration_ns"`
	Error      string        `json:"error,omitempty"`
	At         time.Time     `json:"at"`
}
