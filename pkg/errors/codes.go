package errors

import "net/http"

// ErrorCode is a string representation of a specific error condition.
type ErrorCode string

func (c ErrorCode) String() string {
	return string(c)
}

// Common error codes shared by every layer of the platform.
const (
	ErrCodeInternal           ErrorCode = "COMMON_001"
	ErrCodeBadRequest         ErrorCode = "COMMON_002"
	ErrCodeNotFound           ErrorCode = "COMMON_003"
	ErrCodeTimeout            ErrorCode = "COMMON_004"
	ErrCodeValidation         ErrorCode = "COMMON_005"
	ErrCodeSerialization      ErrorCode = "COMMON_006"
	ErrCodeDatabaseError      ErrorCode = "COMMON_007"
	ErrCodeCacheError         ErrorCode = "COMMON_008"
	ErrCodeServiceUnavailable ErrorCode = "COMMON_009"
	ErrCodeNotImplemented     ErrorCode = "COMMON_010"
)

// Cell module error codes.
const (
	// ErrCodeInvalidCellID marks a 64-bit value that violates the identifier
	// encoding contract (reserved bits set, digit out of range, bad sentinel).
	ErrCodeInvalidCellID ErrorCode = "CELL_001"

	// ErrCodeInvalidResolution marks a resolution outside the closed 0..15 range.
	ErrCodeInvalidResolution ErrorCode = "CELL_002"

	// ErrCodeUnsupportedResolution is raised by an AncestorResolver backend when
	// asked for an ancestor at a resolution finer than the cell's own, or
	// outside the backend's supported window.  The topology layer never
	// triggers it by construction; seeing it there indicates a defect.
	ErrCodeUnsupportedResolution ErrorCode = "CELL_003"

	// ErrCodeAncestorNotFound is raised by the table-backed resolver when the
	// precomputed ancestor row for a cell is missing from the store.
	ErrCodeAncestorNotFound ErrorCode = "CELL_004"
)

// Query module error codes.
const (
	// ErrCodeEmptyPredicate marks a blank attribute predicate.  An empty
	// predicate *result* is never an error; an empty predicate string is.
	ErrCodeEmptyPredicate ErrorCode = "QRY_001"

	// ErrCodePredicateFailed wraps an attribute-query engine failure
	// (malformed predicate, store unreachable).  The underlying engine error
	// is carried unchanged as the cause.
	ErrCodePredicateFailed ErrorCode = "QRY_002"

	ErrCodeUnknownOperation ErrorCode = "QRY_003"
)

// Feature store error codes.
const (
	ErrCodeStoreConnection ErrorCode = "STORE_001"
	ErrCodeStoreQuery      ErrorCode = "STORE_002"
	ErrCodeStoreScan       ErrorCode = "STORE_003"
)

// Aliases kept short for call-site readability.
const (
	CodeInternal     = ErrCodeInternal
	CodeInvalidParam = ErrCodeBadRequest
	CodeNotFound     = ErrCodeNotFound
	CodeUnknown      = ErrorCode("UNKNOWN")
	CodeOK           = ErrorCode("OK")
)

// HTTPStatus maps an ErrorCode to the HTTP status the interfaces layer should
// respond with.  Codes not listed map to 500.
func HTTPStatus(code ErrorCode) int {
	switch code {
	case CodeOK:
		return http.StatusOK
	case ErrCodeBadRequest, ErrCodeValidation, ErrCodeEmptyPredicate,
		ErrCodePredicateFailed, ErrCodeUnknownOperation,
		ErrCodeInvalidCellID, ErrCodeInvalidResolution:
		return http.StatusBadRequest
	case ErrCodeNotFound, ErrCodeAncestorNotFound:
		return http.StatusNotFound
	case ErrCodeTimeout:
		return http.StatusGatewayTimeout
	case ErrCodeServiceUnavailable, ErrCodeStoreConnection:
		return http.StatusServiceUnavailable
	case ErrCodeNotImplemented:
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}
