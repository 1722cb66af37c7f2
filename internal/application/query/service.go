// Package query provides the application-level facade for topology
// predicate queries.  It is the interface between HTTP/CLI handlers and the
// domain engine: the facade materializes both predicate cell sets, prepares
// an ancestor resolver, runs the requested operation and emits audit and
// metrics around it.
package query

import (
	"context"
	"time"

	"github.com/turtacn/HexaTopo/internal/domain/cell"
	"github.com/turtacn/HexaTopo/internal/domain/topology"
	"github.com/turtacn/HexaTopo/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/HexaTopo/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/HexaTopo/pkg/errors"
	"github.com/turtacn/HexaTopo/pkg/types/common"
)

// FeatureSource materializes the cell set of every feature matching an
// attribute predicate.  The PostgreSQL repository is the production
// implementation.
type FeatureSource interface {
	CellsMatching(ctx context.Context, predicate common.Predicate) (*cell.Set, error)
}

// ResolverProvider prepares an ancestor resolver covering the given sets.
// The structural provider ignores the sets; the table-backed provider
// bulk-loads their ancestor rows so evaluation stays free of I/O.
type ResolverProvider interface {
	ResolverFor(ctx context.Context, sets ...*cell.Set) (cell.AncestorResolver, error)
}

// StructuralProvider serves the structural resolver, optionally wrapped with
// the memoization decorator shared across queries.
type StructuralProvider struct {
	resolver cell.AncestorResolver
}

func NewStructuralProvider(memoize bool) *StructuralProvider {
	var r cell.AncestorResolver = cell.NewStructuralResolver()
	if memoize {
		r = cell.NewMemoResolver(r)
	}
	return &StructuralProvider{resolver: r}
}

func (p *StructuralProvider) ResolverFor(context.Context, ...*cell.Set) (cell.AncestorResolver, error) {
	return p.resolver, nil
}

// CellSetCache caches materialized cell sets keyed by predicate.  Optional;
// a nil cache means every query hits the feature source.
type CellSetCache interface {
	GetOrLoad(ctx context.Context, predicate common.Predicate, ttl time.Duration, loader func(ctx context.Context) (*cell.Set, error)) (*cell.Set, error)
}

// Auditor receives one event per facade call.  Optional.
type Auditor interface {
	Publish(ctx context.Context, event *common.QueryAudit) error
}

// Result is the uniform outcome of any of the four operations.  Matched is
// set for the boolean predicates; Cells and Resolution for intersection.
type Result struct {
	QueryID   common.QueryID   `json:"query_id"`
	Operation common.Operation `json:"operation"`
	Matched   *bool            `json:"matched,omitempty"`
	Cells     []string         `json:"cells,omitempty"`
	// Resolution is the single resolution of the intersection cells, or
	// -1 when the intersection is empty.
	Resolution *int          `json:"resolution,omitempty"`
	CellsA     int           `json:"cells_a"`
	CellsB     int           `json:"cells_b"`
	Duration   time.Duration `json:"duration_ns"`
}

// Service executes topology predicate queries.
type Service interface {
	Intersects(ctx context.Context, a, b common.Predicate) (*Result, error)
	Within(ctx context.Context, a, b common.Predicate) (*Result, error)
	Contains(ctx context.Context, a, b common.Predicate) (*Result, error)
	Intersection(ctx context.Context, a, b common.Predicate) (*Result, error)
	Execute(ctx context.Context, op common.Operation, a, b common.Predicate) (*Result, error)
}

type service struct {
	features  FeatureSource
	resolvers ResolverProvider
	cache     CellSetCache
	audit     Auditor
	metrics   *prometheus.AppMetrics
	logger    logging.Logger
	cacheTTL  time.Duration
}

// Option configures optional collaborators on the service.
type Option func(*service)

func WithCache(cache CellSetCache, ttl time.Duration) Option {
	return func(s *service) {
		s.cache = cache
		s.cacheTTL = ttl
	}
}

func WithAuditor(audit Auditor) Option {
	return func(s *service) { s.audit = audit }
}

func WithMetrics(metrics *prometheus.AppMetrics) Option {
	return func(s *service) { s.metrics = metrics }
}

// NewService builds the query facade over its two required ports.
func NewService(features FeatureSource, resolvers ResolverProvider, log logging.Logger, opts ...Option) Service {
	s := &service{
		features:  features,
		resolvers: resolvers,
		logger:    log.Named("query"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *service) Intersects(ctx context.Context, a, b common.Predicate) (*Result, error) {
	return s.run(ctx, common.OpIntersects, a, b)
}

func (s *service) Within(ctx context.Context, a, b common.Predicate) (*Result, error) {
	return s.run(ctx, common.OpWithin, a, b)
}

func (s *service) Contains(ctx context.Context, a, b common.Predicate) (*Result, error) {
	return s.run(ctx, common.OpContains, a, b)
}

func (s *service) Intersection(ctx context.Context, a, b common.Predicate) (*Result, error) {
	return s.run(ctx, common.OpIntersection, a, b)
}

// Execute dispatches by operation name, for handlers that carry the
// operation as data.
func (s *service) Execute(ctx context.Context, op common.Operation, a, b common.Predicate) (*Result, error) {
	if !op.Valid() {
		return nil, errors.Newf(errors.ErrCodeUnknownOperation, "unknown operation %q", op)
	}
	return s.run(ctx, op, a, b)
}

func (s *service) run(ctx context.Context, op common.Operation, a, b common.Predicate) (*Result, error) {
	queryID := common.NewQueryID()
	start := time.Now()

	result, err := s.evaluate(ctx, op, a, b)
	elapsed := time.Since(start)

	s.observe(op, result, err, elapsed)
	s.publishAudit(ctx, queryID, op, a, b, result, err, elapsed)

	if err != nil {
		s.logger.Warn("query failed",
			logging.String("query_id", string(queryID)),
			logging.String("operation", string(op)),
			logging.Duration("elapsed", elapsed),
			logging.Err(err),
		)
		return nil, err
	}

	result.QueryID = queryID
	result.Operation = op
	result.Duration = elapsed
	s.logger.Info("query evaluated",
		logging.String("query_id", string(queryID)),
		logging.String("operation", string(op)),
		logging.Int("cells_a", result.CellsA),
		logging.Int("cells_b", result.CellsB),
		logging.Duration("elapsed", elapsed),
	)
	return result, nil
}

func (s *service) evaluate(ctx context.Context, op common.Operation, a, b common.Predicate) (*Result, error) {
	setA, err := s.materialize(ctx, a)
	if err != nil {
		return nil, err
	}
	setB, err := s.materialize(ctx, b)
	if err != nil {
		return nil, err
	}

	resolver, err := s.resolvers.ResolverFor(ctx, setA, setB)
	if err != nil {
		return nil, err
	}
	eval := topology.NewEvaluator(resolver, s.logger)

	result := &Result{CellsA: setA.Size(), CellsB: setB.Size()}
	switch op {
	case common.OpIntersects:
		matched, err := eval.Intersects(setA, setB)
		if err != nil {
			return nil, err
		}
		result.Matched = &matched
	case common.OpWithin:
		matched, err := eval.Within(setA, setB)
		if err != nil {
			return nil, err
		}
		result.Matched = &matched
	case common.OpContains:
		matched, err := eval.Contains(setA, setB)
		if err != nil {
			return nil, err
		}
		result.Matched = &matched
	case common.OpIntersection:
		overlap, err := eval.Intersection(setA, setB)
		if err != nil {
			return nil, err
		}
		res := int(overlap.Resolution)
		result.Resolution = &res
		result.Cells = make([]string, len(overlap.Cells))
		for i, id := range overlap.Cells {
			result.Cells[i] = id.String()
		}
	default:
		return nil, errors.Newf(errors.ErrCodeUnknownOperation, "unknown operation %q", op)
	}
	return result, nil
}

// materialize resolves a predicate to its cell set, through the cache when
// one is configured.
func (s *service) materialize(ctx context.Context, predicate common.Predicate) (*cell.Set, error) {
	if s.cache == nil {
		return s.loadTimed(ctx, predicate)
	}
	missed := false
	set, err := s.cache.GetOrLoad(ctx, predicate, s.cacheTTL, func(ctx context.Context) (*cell.Set, error) {
		missed = true
		return s.loadTimed(ctx, predicate)
	})
	if s.metrics != nil && err == nil {
		if missed {
			s.metrics.CacheMissesTotal.WithLabelValues().Inc()
		} else {
			s.metrics.CacheHitsTotal.WithLabelValues().Inc()
		}
	}
	return set, err
}

func (s *service) loadTimed(ctx context.Context, predicate common.Predicate) (*cell.Set, error) {
	var timer *prometheus.Timer
	if s.metrics != nil {
		timer = prometheus.NewTimer(s.metrics.StoreQueryDuration.WithLabelValues())
	}
	set, err := s.features.CellsMatching(ctx, predicate)
	if timer != nil {
		timer.ObserveDuration()
	}
	return set, err
}

func (s *service) observe(op common.Operation, result *Result, err error, elapsed time.Duration) {
	if s.metrics == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	s.metrics.QueriesTotal.WithLabelValues(string(op), outcome).Inc()
	s.metrics.QueryDuration.WithLabelValues(string(op)).Observe(elapsed.Seconds())
	if result != nil {
		s.metrics.CellSetSize.WithLabelValues("a").Observe(float64(result.CellsA))
		s.metrics.CellSetSize.WithLabelValues("b").Observe(float64(result.CellsB))
		if op == common.OpIntersection {
			s.metrics.IntersectionCells.WithLabelValues().Observe(float64(len(result.Cells)))
		}
	}
}

// publishAudit emits the audit event.  Audit is best effort; a failed
// publish is logged and never fails the query.
func (s *service) publishAudit(ctx context.Context, queryID common.QueryID, op common.Operation, a, b common.Predicate, result *Result, evalErr error, elapsed time.Duration) {
	if s.audit == nil {
		return
	}
	event := &common.QueryAudit{
		QueryID:    queryID,
		Operation:  op,
		PredicateA: a,
		PredicateB: b,
		Duration:   elapsed,
		At:         time.Now().UTC(),
	}
	if result != nil {
		event.CellsA = result.CellsA
		event.CellsB = result.CellsB
		event.ResultSize = len(result.Cells)
		if result.Matched != nil {
			event.Matched = *result.Matched
		} else {
			event.Matched = len(result.Cells) > 0
		}
	}
	if evalErr != nil {
		event.Error = evalErr.Error()
	}

	outcome := "ok"
	if err := s.audit.Publish(ctx, event); err != nil {
		outcome = "error"
		s.logger.Warn("audit publish failed",
			logging.String("query_id", string(queryID)),
			logging.Err(err),
		)
	}
	if s.metrics != nil {
		s.metrics.AuditPublishTotal.WithLabelValues(outcome).Inc()
	}
}
