package errors

// ErrorCode is a typed, stable identifier for a failure category.
// Codes are namespaced by the layer that raises them so that log
// aggregation and metric labels stay meaningful across releases.
type ErrorCode string

// Common codes shared by every layer.
const (
	ErrCodeInternal       ErrorCode = "COMMON_001"
	ErrCodeValidation     ErrorCode = "COMMON_002"
	ErrCodeNotFound       ErrorCode = "COMMON_003"
	ErrCodeSerialization  ErrorCode = "COMMON_004"
	ErrCodeNotImplemented ErrorCode = "COMMON_005"
	ErrCodeUnknown        ErrorCode = "COMMON_999"
)

// Input/data-plane codes.
const (
	// ErrCodeEmptyInput marks a run aborted because a required input
	// stream contained no usable records.
	ErrCodeEmptyInput ErrorCode = "DATA_001"

	// ErrCodeMalformedRecord marks a single unparseable input line.
	// Callers recover locally from this code (skip and count).
	ErrCodeMalformedRecord ErrorCode = "DATA_002"

	// ErrCodeInputUnavailable marks a missing or unreadable input file.
	ErrCodeInputUnavailable ErrorCode = "DATA_003"
)

// Clustering/analysis codes.
const (
	ErrCodeClusteringFailed  ErrorCode = "CLUST_001"
	ErrCodeNoClusters        ErrorCode = "CLUST_002"
	ErrCodeDistanceMatrix    ErrorCode = "CLUST_003"
	ErrCodeSignificanceInput ErrorCode = "CLUST_004"
)

// Storage and messaging codes.
const (
	ErrCodeDatabaseError ErrorCode = "STORE_001"
	ErrCodeMigration     ErrorCode = "STORE_002"
	ErrCodeOutputWrite   ErrorCode = "STORE_003"
	ErrCodePublishFailed ErrorCode = "STORE_004"
)

// String returns the raw code value.
func (c ErrorCode) String() string { return string(c) }
