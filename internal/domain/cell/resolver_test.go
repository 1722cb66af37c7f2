package cell

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/HexaTopo/pkg/errors"
)

func TestStructuralResolverAncestorAt(t *testing.T) {
	r := NewStructuralResolver()
	fine := MustNew(60, 2, 4, 6, 1)

	anc, err := r.AncestorAt(fine, 2)
	require.NoError(t, err)
	assert.Equal(t, MustNew(60, 2, 4), anc)
	assert.True(t, anc.Covers(fine))

	// Self resolution is the identity.
	self, err := r.AncestorAt(fine, fine.Resolution())
	require.NoError(t, err)
	assert.Equal(t, fine, self)
}

func TestStructuralResolverRejectsFinerTarget(t *testing.T) {
	r := NewStructuralResolver()
	id := MustNew(60, 2)

	_, err := r.AncestorAt(id, 5)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeUnsupportedResolution))

	_, err = r.AncestorAt(id, ResolutionNone)
	assert.True(t, errors.IsCode(err, errors.ErrCodeUnsupportedResolution))

	_, err = r.AncestorAt(id, 16)
	assert.True(t, errors.IsCode(err, errors.ErrCodeUnsupportedResolution))
}

func TestStructuralResolverDeterministic(t *testing.T) {
	r := NewStructuralResolver()
	id := MustNew(12, 6, 6, 6, 6, 6, 6)

	first, err := r.AncestorAt(id, 3)
	require.NoError(t, err)
	second, err := r.AncestorAt(id, 3)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

// countingResolver records how many times the wrapped backend is consulted.
type countingResolver struct {
	inner AncestorResolver
	mu    sync.Mutex
	calls int
}

func (c *countingResolver) AncestorAt(id ID, target Resolution) (ID, error) {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()
	return c.inner.AncestorAt(id, target)
}

func TestMemoResolverCachesHits(t *testing.T) {
	counting := &countingResolver{inner: NewStructuralResolver()}
	memo := NewMemoResolver(counting)
	id := MustNew(5, 3, 3)

	for i := 0; i < 4; i++ {
		anc, err := memo.AncestorAt(id, 1)
		require.NoError(t, err)
		assert.Equal(t, MustNew(5, 3), anc)
	}
	assert.Equal(t, 1, counting.calls)
	assert.Equal(t, 1, memo.Len())
}

func TestMemoResolverDoesNotCacheErrors(t *testing.T) {
	counting := &countingResolver{inner: NewStructuralResolver()}
	memo := NewMemoResolver(counting)
	id := MustNew(5, 3)

	for i := 0; i < 2; i++ {
		_, err := memo.AncestorAt(id, 9)
		assert.True(t, errors.IsCode(err, errors.ErrCodeUnsupportedResolution))
	}
	assert.Equal(t, 2, counting.calls, "errors are retried, never served from cache")
	assert.Equal(t, 0, memo.Len())
}

func TestMemoResolverPurge(t *testing.T) {
	memo := NewMemoResolver(NewStructuralResolver())
	_, err := memo.AncestorAt(MustNew(5, 3, 3), 1)
	require.NoError(t, err)
	require.Equal(t, 1, memo.Len())

	memo.Purge()
	assert.Equal(t, 0, memo.Len())
}

func TestMemoResolverConcurrentAccess(t *testing.T) {
	memo := NewMemoResolver(NewStructuralResolver())
	ids := []ID{
		MustNew(1, 0, 0, 0),
		MustNew(1, 0, 0, 1),
		MustNew(1, 0, 1, 0),
	}

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				for _, id := range ids {
					anc, err := memo.AncestorAt(id, 1)
					assert.NoError(t, err)
					assert.Equal(t, MustNew(1, 0), anc)
				}
			}
		}()
	}
	wg.Wait()
}
