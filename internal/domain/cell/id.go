// Package cell defines the hierarchical cell identifier, the immutable cell
// set, and the ancestor-resolution capability that HexaTopo's topology engine
// is built on.
//
// A cell names a hexagonal region of the earth at one of sixteen granularity
// levels (resolution 0, coarsest, through 15, finest).  Every cell at
// resolution r is the exact union of its seven children at resolution r+1,
// so a cell at a coarse resolution has exactly one ancestor at every coarser
// resolution and fully contains every one of its descendants.  Two distinct
// cells at the same resolution never overlap.
//
// Identifiers are created once, at tessellation time, outside this module;
// the packages here only ever read them.
package cell

import (
	"strconv"

	"github.com/turtacn/HexaTopo/pkg/errors"
)

// ─────────────────────────────────────────────────────────────────────────────
// Resolution
// ─────────────────────────────────────────────────────────────────────────────

// Resolution is the granularity level of a cell identifier.  Lower numbers
// mean larger cells: a resolution-5 cell strictly contains every
// resolution-10 cell nested within it.
type Resolution int8

const (
	// MinResolution is the coarsest level in the hierarchy.
	MinResolution Resolution = 0

	// MaxResolution is the finest level in the hierarchy.
	MaxResolution Resolution = 15

	// ResolutionNone is the sentinel returned alongside an empty
	// intersection result.  It is never a valid cell resolution.
	ResolutionNone Resolution = -1
)

// Valid reports whether r lies in the closed [MinResolution, MaxResolution]
// range.
func (r Resolution) Valid() bool {
	return r >= MinResolution && r <= MaxResolution
}

// ─────────────────────────────────────────────────────────────────────────────
// ID — the 64-bit hierarchical cell identifier
// ─────────────────────────────────────────────────────────────────────────────

// ID is the opaque fixed-width encoding of one cell.  Bit layout, most
// significant first:
//
//	bits 63..60  reserved, always zero
//	bits 59..56  resolution (0..15)
//	bits 55..49  base cell (0..121), the resolution-0 ancestor
//	bits 48..45  reserved, always zero
//	bits 44..0   fifteen 3-bit child digits for resolutions 1..15
//
// The digit for resolution d occupies bits (15-d)*3 .. (15-d)*3+2.  Digits
// for resolutions 1..Resolution() hold a value in 0..6 (the seven children of
// the parent); digits finer than the id's own resolution hold the sentinel 7.
// This placement makes the ancestor relationship a pure bit operation:
// clearing the trailing digits to the sentinel and rewriting the resolution
// field yields the unique ancestor at any coarser level.
//
// Equality is bitwise; IDs have pure value semantics and are safe map keys.
type ID uint64

const (
	resShift  = 56
	resMask   = ID(0xF) << resShift
	baseShift = 49
	baseMask  = ID(0x7F) << baseShift

	// reservedMask covers bits 63..60 and 48..45, which must stay zero.
	reservedMask = ID(0xF)<<60 | ID(0xF)<<45

	digitBits     = 3
	digitValueMax = 6
	digitSentinel = 7

	// NumBaseCells is the count of resolution-0 cells tiling the globe.
	NumBaseCells = 122

	// ChildrenPerCell is the hierarchy's branching factor: every cell at
	// resolution r < MaxResolution has exactly this many children at r+1.
	ChildrenPerCell = 7
)

// digitShift returns the bit offset of the child digit for resolution d
// (1 <= d <= 15).
func digitShift(d Resolution) uint {
	return uint(MaxResolution-d) * digitBits
}

// New assembles an identifier from a base cell and the child digits for
// resolutions 1..len(digits).  The resulting resolution equals len(digits).
// It is the fixture-building entry point for tests and import tooling; the
// query path only ever decodes ids produced elsewhere.
func New(baseCell int, digits ...int) (ID, error) {
	if baseCell < 0 || baseCell >= NumBaseCells {
		return 0, errors.Newf(errors.ErrCodeInvalidCellID, "base cell %d out of range", baseCell)
	}
	if len(digits) > int(MaxResolution) {
		return 0, errors.Newf(errors.ErrCodeInvalidResolution, "resolution %d out of range", len(digits))
	}

	id := ID(len(digits))<<resShift | ID(baseCell)<<baseShift
	for d := Resolution(1); d <= MaxResolution; d++ {
		digit := digitSentinel
		if int(d) <= len(digits) {
			digit = digits[d-1]
			if digit < 0 || digit > digitValueMax {
				return 0, errors.Newf(errors.ErrCodeInvalidCellID, "digit %d at resolution %d out of range", digit, d)
			}
		}
		id |= ID(digit) << digitShift(d)
	}
	return id, nil
}

// MustNew is New for tests and fixtures; it panics on invalid input.
func MustNew(baseCell int, digits ...int) ID {
	id, err := New(baseCell, digits...)
	if err != nil {
		panic(err)
	}
	return id
}

// Resolution returns the granularity level encoded in the identifier.
func (id ID) Resolution() Resolution {
	return Resolution(id & resMask >> resShift)
}

// BaseCell returns the resolution-0 ancestor index encoded in the identifier.
func (id ID) BaseCell() int {
	return int(id & baseMask >> baseShift)
}

// digit returns the child digit for resolution d (1 <= d <= 15).
func (id ID) digit(d Resolution) int {
	return int(id >> digitShift(d) & digitSentinel)
}

// Validate checks the full encoding contract: reserved bits zero, base cell
// in range, in-use digits in 0..6, and unused digits holding the sentinel.
func (id ID) Validate() error {
	if id&reservedMask != 0 {
		return errors.New(errors.ErrCodeInvalidCellID, "reserved bits set").WithDetail(id.String())
	}
	if id.BaseCell() >= NumBaseCells {
		return errors.Newf(errors.ErrCodeInvalidCellID, "base cell %d out of range", id.BaseCell()).WithDetail(id.String())
	}
	res := id.Resolution()
	for d := Resolution(1); d <= MaxResolution; d++ {
		digit := id.digit(d)
		if d <= res && digit > digitValueMax {
			return errors.Newf(errors.ErrCodeInvalidCellID, "digit at resolution %d holds the unused sentinel", d).WithDetail(id.String())
		}
		if d > res && digit != digitSentinel {
			return errors.Newf(errors.ErrCodeInvalidCellID, "digit at resolution %d set beyond the id's resolution", d).WithDetail(id.String())
		}
	}
	return nil
}

// ancestorAt computes the unique ancestor of id at target, which the caller
// guarantees to be valid and coarser-or-equal.  The operation clears every
// digit finer than target to the sentinel and rewrites the resolution field.
func ancestorAt(id ID, target Resolution) ID {
	out := id&^resMask | ID(target)<<resShift
	for d := target + 1; d <= MaxResolution; d++ {
		out |= ID(digitSentinel) << digitShift(d)
	}
	return out
}

// Covers reports whether id is an ancestor-or-self of other: id's resolution
// is coarser or equal, and other's ancestor at id's resolution is exactly id.
// A cell always covers itself; a cell and its ancestor always overlap.
func (id ID) Covers(other ID) bool {
	if id.Resolution() > other.Resolution() {
		return false
	}
	return ancestorAt(other, id.Resolution()) == id
}

// ChildAt returns the i-th child (0 <= i <= 6) of id at the next finer
// resolution.  Used by fixtures and import tooling; the query path never
// enumerates descendants.
func (id ID) ChildAt(i int) (ID, error) {
	if i < 0 || i > digitValueMax {
		return 0, errors.Newf(errors.ErrCodeInvalidCellID, "child index %d out of range", i)
	}
	res := id.Resolution()
	if res >= MaxResolution {
		return 0, errors.Newf(errors.ErrCodeInvalidResolution, "cell at resolution %d has no children", res)
	}
	child := res + 1
	out := id&^resMask | ID(child)<<resShift
	out &^= ID(digitSentinel) << digitShift(child)
	out |= ID(i) << digitShift(child)
	return out, nil
}

// String renders the identifier as lowercase hex, the textual form used in
// logs, CLI output, and HTTP payloads.
func (id ID) String() string {
	return strconv.FormatUint(uint64(id), 16)
}

// Parse decodes the hex textual form produced by String and validates the
// encoding contract.
func Parse(s string) (ID, error) {
	v, err := strconv.ParseUint(s, 16, 64)
	if err != nil {
		return 0, errors.Wrap(err, errors.ErrCodeInvalidCellID, "malformed cell id").WithDetail(s)
	}
	id := ID(v)
	if err := id.Validate(); err != nil {
		return 0, err
	}
	return id, nil
}
