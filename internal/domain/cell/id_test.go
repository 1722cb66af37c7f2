package cell

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/HexaTopo/pkg/errors"
)

func TestNewEncodesFields(t *testing.T) {
	id, err := New(17, 3, 0, 6)
	require.NoError(t, err)

	assert.Equal(t, Resolution(3), id.Resolution())
	assert.Equal(t, 17, id.BaseCell())
	assert.Equal(t, 3, id.digit(1))
	assert.Equal(t, 0, id.digit(2))
	assert.Equal(t, 6, id.digit(3))
	// Digits finer than the id's resolution hold the sentinel.
	assert.Equal(t, digitSentinel, id.digit(4))
	assert.Equal(t, digitSentinel, id.digit(15))
	assert.NoError(t, id.Validate())
}

func TestNewRejectsBadInput(t *testing.T) {
	tests := []struct {
		name   string
		base   int
		digits []int
		code   errors.ErrorCode
	}{
		{"negative base", -1, nil, errors.ErrCodeInvalidCellID},
		{"base beyond range", NumBaseCells, nil, errors.ErrCodeInvalidCellID},
		{"digit beyond range", 0, []int{7}, errors.ErrCodeInvalidCellID},
		{"negative digit", 0, []int{-1}, errors.ErrCodeInvalidCellID},
		{"too many digits", 0, make([]int, 16), errors.ErrCodeInvalidResolution},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.base, tt.digits...)
			require.Error(t, err)
			assert.True(t, errors.IsCode(err, tt.code))
		})
	}
}

func TestResolutionZeroID(t *testing.T) {
	id := MustNew(121)
	assert.Equal(t, Resolution(0), id.Resolution())
	assert.Equal(t, 121, id.BaseCell())
	assert.NoError(t, id.Validate())
}

func TestAncestorAtBitContract(t *testing.T) {
	fine := MustNew(42, 1, 2, 3, 4, 5)

	// Walking up one level at a time must agree with jumping directly.
	direct := ancestorAt(fine, 2)
	step := ancestorAt(ancestorAt(fine, 4), 2)
	assert.Equal(t, direct, step)

	assert.Equal(t, MustNew(42, 1, 2), direct)
	assert.Equal(t, MustNew(42), ancestorAt(fine, 0))
	// Self-ancestry is the identity.
	assert.Equal(t, fine, ancestorAt(fine, 5))
}

func TestCovers(t *testing.T) {
	parent := MustNew(9, 4, 4)
	child := MustNew(9, 4, 4, 0)
	grandchild := MustNew(9, 4, 4, 0, 6)
	sibling := MustNew(9, 4, 5)

	assert.True(t, parent.Covers(parent), "a cell covers itself")
	assert.True(t, parent.Covers(child))
	assert.True(t, parent.Covers(grandchild))
	assert.False(t, parent.Covers(sibling))
	assert.False(t, child.Covers(parent), "a descendant never covers its ancestor")
	assert.False(t, sibling.Covers(grandchild))
}

func TestChildAt(t *testing.T) {
	parent := MustNew(3, 2)

	seen := make(map[ID]struct{})
	for i := 0; i < ChildrenPerCell; i++ {
		child, err := parent.ChildAt(i)
		require.NoError(t, err)
		assert.Equal(t, parent.Resolution()+1, child.Resolution())
		assert.True(t, parent.Covers(child))
		assert.NoError(t, child.Validate())
		seen[child] = struct{}{}
	}
	assert.Len(t, seen, ChildrenPerCell, "all children are distinct")

	_, err := parent.ChildAt(7)
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidCellID))

	leaf := MustNew(3, 2, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0)
	require.Equal(t, MaxResolution, leaf.Resolution())
	_, err = leaf.ChildAt(0)
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidResolution))
}

func TestSameResolutionCellsNeverCoverEachOther(t *testing.T) {
	a := MustNew(7, 1, 2)
	b := MustNew(7, 1, 3)
	assert.False(t, a.Covers(b))
	assert.False(t, b.Covers(a))
}

func TestStringParseRoundTrip(t *testing.T) {
	ids := []ID{
		MustNew(0),
		MustNew(121, 6),
		MustNew(58, 0, 1, 2, 3, 4, 5, 6, 0, 1),
	}
	for _, id := range ids {
		parsed, err := Parse(id.String())
		require.NoError(t, err)
		assert.Equal(t, id, parsed)
	}
}

func TestParseRejectsMalformedInput(t *testing.T) {
	_, err := Parse("not-hex")
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidCellID))

	// Valid hex whose bits violate the encoding: reserved high nibble set.
	_, err = Parse("f000000000000000")
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidCellID))
}

func TestValidateCatchesCorruptDigits(t *testing.T) {
	// A resolution-2 id whose resolution-5 digit is not the sentinel.
	corrupt := MustNew(10, 1, 2) &^ (ID(digitSentinel) << digitShift(5))
	err := corrupt.Validate()
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidCellID))
}
