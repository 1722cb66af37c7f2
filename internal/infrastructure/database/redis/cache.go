package redis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"github.com/turtacn/HexaTopo/internal/domain/cell"
	"github.com/turtacn/HexaTopo/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/HexaTopo/pkg/errors"
	"github.com/turtacn/HexaTopo/pkg/types/common"
)

var (
	ErrCacheMiss           = errors.New(errors.ErrCodeNotFound, "cache miss")
	ErrSerializationFailed = errors.New(errors.ErrCodeSerialization, "cell set serialization failed")
)

// CellSetCache caches materialized cell sets keyed by their attribute
// predicate.  The predicate text is hashed into the key, so arbitrarily long
// WHERE fragments stay within redis key limits and never leak raw SQL into
// key listings.
type CellSetCache interface {
	// Get returns the cached set for predicate, or ErrCacheMiss.
	Get(ctx context.Context, predicate common.Predicate) (*cell.Set, error)
	// Set stores the materialized set for predicate.
	Set(ctx context.Context, predicate common.Predicate, set *cell.Set, ttl time.Duration) error
	// GetOrLoad returns the cached set or materializes it through loader,
	// collapsing concurrent loads of the same predicate into one call.
	GetOrLoad(ctx context.Context, predicate common.Predicate, ttl time.Duration, loader func(ctx context.Context) (*cell.Set, error)) (*cell.Set, error)
	// Invalidate drops every cached cell set, for use after a dataset
	// import changes what predicates resolve to.
	Invalidate(ctx context.Context) (int64, error)
	Ping(ctx context.Context) error
}

// cellSetEnvelope is the wire form of a cached set.  Cell ids are hex
// strings rather than JSON numbers because ids use the full 64-bit range
// and would lose precision as float64.
type cellSetEnvelope struct {
	Cells []string `json:"cells"`
}

type cellSetCache struct {
	client       *Client
	logger       logging.Logger
	prefix       string
	defaultTTL   time.Duration
	singleflight singleflight.Group
}

type CacheOption func(*cellSetCache)

func WithPrefix(prefix string) CacheOption {
	return func(c *cellSetCache) { c.prefix = prefix }
}

func WithDefaultTTL(ttl time.Duration) CacheOption {
	return func(c *cellSetCache) { c.defaultTTL = ttl }
}

func NewCellSetCache(client *Client, log logging.Logger, opts ...CacheOption) CellSetCache {
	c := &cellSetCache{
		client:     client,
		logger:     log.Named("cellset-cache"),
		prefix:     "hexatopo:",
		defaultTTL: 15 * time.Minute,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// keyFor hashes the predicate into a stable cache key.
func (c *cellSetCache) keyFor(predicate common.Predicate) string {
	sum := sha256.Sum256([]byte(predicate))
	return c.prefix + "cellset:" + hex.EncodeToString(sum[:16])
}

// jitterTTL spreads expirations +/- 10% so a burst of identical queries does
// not expire in the same instant.
func (c *cellSetCache) jitterTTL(ttl time.Duration) time.Duration {
	if ttl == 0 {
		return 0
	}
	jitter := float64(ttl) * 0.1 * (rand.Float64()*2 - 1)
	return ttl + time.Duration(jitter)
}

func (c *cellSetCache) Get(ctx context.Context, predicate common.Predicate) (*cell.Set, error) {
	data, err := c.client.Get(ctx, c.keyFor(predicate)).Bytes()
	if err == redis.Nil {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeCacheError, "failed to get cell set from cache")
	}
	return decodeCellSet(data)
}

func (c *cellSetCache) Set(ctx context.Context, predicate common.Predicate, set *cell.Set, ttl time.Duration) error {
	if ttl == 0 {
		ttl = c.defaultTTL
	}
	data, err := encodeCellSet(set)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.keyFor(predicate), data, c.jitterTTL(ttl)).Err()
}

func (c *cellSetCache) GetOrLoad(ctx context.Context, predicate common.Predicate, ttl time.Duration, loader func(ctx context.Context) (*cell.Set, error)) (*cell.Set, error) {
	set, err := c.Get(ctx, predicate)
	if err == nil {
		return set, nil
	}
	if !errors.IsCode(err, errors.ErrCodeNotFound) {
		c.logger.Warn("cache read failed, falling through to loader", logging.Err(err))
	}

	val, err, _ := c.singleflight.Do(c.keyFor(predicate), func() (interface{}, error) {
		loaded, loadErr := loader(ctx)
		if loadErr != nil {
			return nil, loadErr
		}
		if setErr := c.Set(ctx, predicate, loaded, ttl); setErr != nil {
			c.logger.Warn("failed to store cell set in cache", logging.Err(setErr))
		}
		return loaded, nil
	})
	if err != nil {
		return nil, err
	}
	return val.(*cell.Set), nil
}

func (c *cellSetCache) Invalidate(ctx context.Context) (int64, error) {
	var deleted int64
	var cursor uint64
	match := c.prefix + "cellset:*"
	for {
		keys, nextCursor, err := c.client.Scan(ctx, cursor, match, 100).Result()
		if err != nil {
			return deleted, err
		}
		if len(keys) > 0 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				return deleted, err
			}
			deleted += int64(len(keys))
		}
		cursor = nextCursor
		if cursor == 0 {
			break
		}
	}
	return deleted, nil
}

func (c *cellSetCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx)
}

func encodeCellSet(set *cell.Set) ([]byte, error) {
	env := cellSetEnvelope{Cells: make([]string, 0, set.Size())}
	for _, res := range set.Resolutions() {
		for _, id := range set.Bucket(res).IDs() {
			env.Cells = append(env.Cells, id.String())
		}
	}
	data, err := json.Marshal(env)
	if err != nil {
		return nil, ErrSerializationFailed.WithCause(err)
	}
	return data, nil
}

func decodeCellSet(data []byte) (*cell.Set, error) {
	var env cellSetEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, ErrSerializationFailed.WithCause(err)
	}
	ids := make([]cell.ID, 0, len(env.Cells))
	for _, raw := range env.Cells {
		id, err := cell.Parse(raw)
		if err != nil {
			return nil, ErrSerializationFailed.WithCause(err)
		}
		ids = append(ids, id)
	}
	return cell.NewSetOfIDs(ids), nil
}
