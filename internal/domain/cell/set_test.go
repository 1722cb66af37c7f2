package cell

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/HexaTopo/pkg/types/common"
)

func TestNewSetDeduplicatesAndBuckets(t *testing.T) {
	coarse := MustNew(5, 1)
	fineA := MustNew(5, 1, 0)
	fineB := MustNew(5, 1, 1)

	set := NewSet([]Record{
		NewRecord(coarse, common.FeatureID(1)),
		NewRecord(fineA, common.FeatureID(1)),
		NewRecord(fineB, common.FeatureID(2)),
		// Same cell owned by a different feature: still one member.
		NewRecord(fineA, common.FeatureID(3)),
	})

	assert.Equal(t, 3, set.Size())
	assert.False(t, set.Empty())
	assert.Equal(t, []Resolution{1, 2}, set.Resolutions())

	b1 := set.Bucket(1)
	assert.Equal(t, 1, b1.Len())
	assert.True(t, b1.Contains(coarse))

	b2 := set.Bucket(2)
	assert.Equal(t, 2, b2.Len())
	assert.True(t, b2.Contains(fineA))
	assert.True(t, b2.Contains(fineB))
}

func TestSetResolutionAuthoritativeFromID(t *testing.T) {
	id := MustNew(8, 3, 3, 3) // resolution 3
	// A record carrying a wrong resolution column still buckets by the id.
	set := NewSet([]Record{{Cell: id, Resolution: 9, Feature: 4}})

	assert.Equal(t, 1, set.Bucket(3).Len())
	assert.Equal(t, 0, set.Bucket(9).Len())
}

func TestEmptySet(t *testing.T) {
	set := NewSet(nil)

	assert.True(t, set.Empty())
	assert.Equal(t, 0, set.Size())
	assert.Empty(t, set.Resolutions())

	_, _, ok := set.ResolutionRange()
	assert.False(t, ok)

	// The zero bucket behaves as an empty membership set.
	assert.Equal(t, 0, set.Bucket(7).Len())
	assert.False(t, set.Bucket(7).Contains(MustNew(0)))
}

func TestResolutionRange(t *testing.T) {
	set := NewSetOfIDs([]ID{
		MustNew(2, 0, 0, 0, 0, 0, 0, 0, 0),       // resolution 8
		MustNew(2, 1),                             // resolution 1
		MustNew(2, 0, 0, 0, 0),                    // resolution 4
	})

	min, max, ok := set.ResolutionRange()
	require.True(t, ok)
	assert.Equal(t, Resolution(1), min)
	assert.Equal(t, Resolution(8), max)
}

func TestSetContains(t *testing.T) {
	member := MustNew(33, 2, 2)
	set := NewSetOfIDs([]ID{member})

	assert.True(t, set.Contains(member))
	assert.False(t, set.Contains(MustNew(33, 2, 3)))
	// Ancestor of a member is not itself a member.
	assert.False(t, set.Contains(MustNew(33, 2)))
}

func TestBucketIDsSorted(t *testing.T) {
	a := MustNew(1, 5)
	b := MustNew(1, 2)
	c := MustNew(1, 6)
	set := NewSetOfIDs([]ID{a, b, c})

	ids := set.Bucket(1).IDs()
	require.Len(t, ids, 3)
	assert.True(t, ids[0] < ids[1] && ids[1] < ids[2])
}

func TestBucketEachStops(t *testing.T) {
	set := NewSetOfIDs([]ID{MustNew(1, 0), MustNew(1, 1), MustNew(1, 2)})

	visited := 0
	set.Bucket(1).Each(func(ID) bool {
		visited++
		return false
	})
	assert.Equal(t, 1, visited)
}
