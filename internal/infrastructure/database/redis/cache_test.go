package redis

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/turtacn/HexaTopo/internal/domain/cell"
	"github.com/turtacn/HexaTopo/internal/infrastructure/monitoring/logging"
	pkgerrors "github.com/turtacn/HexaTopo/pkg/errors"
	"github.com/turtacn/HexaTopo/pkg/types/common"
)

type CacheTestSuite struct {
	suite.Suite
	client *Client
	mock   redismock.ClientMock
	cache  CellSetCache
}

func (s *CacheTestSuite) SetupTest() {
	db, mock := redismock.NewClientMock()
	s.mock = mock
	s.client = &Client{rdb: db, logger: logging.NewNopLogger()}
	s.cache = NewCellSetCache(s.client, logging.NewNopLogger(), WithPrefix("test:"))
}

func (s *CacheTestSuite) TearDownTest() {
	assert.NoError(s.T(), s.mock.ExpectationsWereMet())
}

// keyUnderTest mirrors cellSetCache.keyFor so expectations can address the
// hashed key.
func (s *CacheTestSuite) keyUnderTest(predicate common.Predicate) string {
	return s.cache.(*cellSetCache).keyFor(predicate)
}

func encodedFixture(t *testing.T, ids ...cell.ID) (string, *cell.Set) {
	t.Helper()
	set := cell.NewSetOfIDs(ids)
	data, err := encodeCellSet(set)
	require.NoError(t, err)
	return string(data), set
}

func (s *CacheTestSuite) TestGet_CacheHit() {
	forest := cell.MustNew(20, 1, 1, 1, 1, 1, 1)
	child, err := forest.ChildAt(3)
	s.Require().NoError(err)
	payload, want := encodedFixture(s.T(), forest, child)

	predicate := common.Predicate("category = 'forest'")
	s.mock.ExpectGet(s.keyUnderTest(predicate)).SetVal(payload)

	got, err := s.cache.Get(context.Background(), predicate)
	s.Require().NoError(err)
	s.Equal(want.Size(), got.Size())
	s.True(got.Contains(forest))
	s.True(got.Contains(child))
}

func (s *CacheTestSuite) TestGet_CacheMiss() {
	predicate := common.Predicate("category = 'absent'")
	s.mock.ExpectGet(s.keyUnderTest(predicate)).RedisNil()

	_, err := s.cache.Get(context.Background(), predicate)
	s.ErrorIs(err, ErrCacheMiss)
}

func (s *CacheTestSuite) TestGet_CorruptPayload() {
	predicate := common.Predicate("category = 'forest'")
	s.mock.ExpectGet(s.keyUnderTest(predicate)).SetVal("not json")

	_, err := s.cache.Get(context.Background(), predicate)
	s.True(pkgerrors.IsCode(err, pkgerrors.ErrCodeSerialization))
}

func (s *CacheTestSuite) TestSet_RoundTripEncoding() {
	forest := cell.MustNew(20, 1, 1, 1, 1, 1, 1)
	payload, set := encodedFixture(s.T(), forest)

	predicate := common.Predicate("category = 'forest'")
	// TTL carries jitter, so only the payload is matched exactly.
	s.mock.CustomMatch(func(expected, actual []interface{}) error {
		return nil
	}).ExpectSet(s.keyUnderTest(predicate), []byte(payload), time.Minute).SetVal("OK")

	s.NoError(s.cache.Set(context.Background(), predicate, set, time.Minute))
}

func (s *CacheTestSuite) TestGetOrLoad_HitSkipsLoader() {
	forest := cell.MustNew(20, 1, 1, 1, 1, 1, 1)
	payload, _ := encodedFixture(s.T(), forest)

	predicate := common.Predicate("category = 'forest'")
	s.mock.ExpectGet(s.keyUnderTest(predicate)).SetVal(payload)

	got, err := s.cache.GetOrLoad(context.Background(), predicate, time.Minute,
		func(context.Context) (*cell.Set, error) {
			s.Fail("loader must not run on a cache hit")
			return nil, nil
		})
	s.Require().NoError(err)
	s.True(got.Contains(forest))
}

func (s *CacheTestSuite) TestGetOrLoad_MissRunsLoaderAndStores() {
	forest := cell.MustNew(20, 1, 1, 1, 1, 1, 1)
	payload, set := encodedFixture(s.T(), forest)

	predicate := common.Predicate("category = 'forest'")
	key := s.keyUnderTest(predicate)
	s.mock.ExpectGet(key).RedisNil()
	s.mock.CustomMatch(func(expected, actual []interface{}) error {
		return nil
	}).ExpectSet(key, []byte(payload), time.Minute).SetVal("OK")

	var loaderCalls int
	got, err := s.cache.GetOrLoad(context.Background(), predicate, time.Minute,
		func(context.Context) (*cell.Set, error) {
			loaderCalls++
			return set, nil
		})
	s.Require().NoError(err)
	s.Equal(1, loaderCalls)
	s.True(got.Contains(forest))
}

func (s *CacheTestSuite) TestGetOrLoad_LoaderErrorPropagates() {
	predicate := common.Predicate("category == 'forest'")
	s.mock.ExpectGet(s.keyUnderTest(predicate)).RedisNil()

	boom := pkgerrors.New(pkgerrors.ErrCodePredicateFailed, "store rejected predicate")
	_, err := s.cache.GetOrLoad(context.Background(), predicate, time.Minute,
		func(context.Context) (*cell.Set, error) { return nil, boom })
	s.True(pkgerrors.IsCode(err, pkgerrors.ErrCodePredicateFailed))
}

func (s *CacheTestSuite) TestInvalidate() {
	s.mock.ExpectScan(0, "test:cellset:*", 100).SetVal([]string{"test:cellset:a", "test:cellset:b"}, 0)
	s.mock.ExpectDel("test:cellset:a", "test:cellset:b").SetVal(2)

	deleted, err := s.cache.Invalidate(context.Background())
	s.Require().NoError(err)
	s.Equal(int64(2), deleted)
}

func (s *CacheTestSuite) TestKeyIsStableAndHashed() {
	predicate := common.Predicate("category = 'forest' AND area > 100")
	k1 := s.keyUnderTest(predicate)
	k2 := s.keyUnderTest(predicate)
	s.Equal(k1, k2)
	s.NotContains(k1, "forest", "raw predicate text must not appear in keys")
	s.NotEqual(k1, s.keyUnderTest("category = 'wetland'"))
}

func TestCacheTestSuite(t *testing.T) {
	suite.Run(t, new(CacheTestSuite))
}

func TestEncodeDecodePreservesResolutions(t *testing.T) {
	coarse := cell.MustNew(5, 2, 3)
	fine := cell.MustNew(5, 2, 3, 4, 5, 6)
	data, err := encodeCellSet(cell.NewSetOfIDs([]cell.ID{coarse, fine}))
	require.NoError(t, err)

	var env cellSetEnvelope
	require.NoError(t, json.Unmarshal(data, &env))
	require.Len(t, env.Cells, 2)

	set, err := decodeCellSet(data)
	require.NoError(t, err)
	assert.Equal(t, []cell.Resolution{coarse.Resolution(), fine.Resolution()}, set.Resolutions())
}
