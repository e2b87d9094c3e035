package errors

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Configuration errors
	CodeConfigTokenEmpty Code = "CONFIG_TOKEN_EMPTY"

	// Validation errors
	CodeQueryEmpty Code = "QUERY_EMPTY"

	// Upstream retrieval errors
	CodeUpstreamStatus    Code = "UPSTREAM_STATUS"
	CodeUpstreamTransport Code = "UPSTREAM_TRANSPORT"
	CodeUpstreamDecode    Code = "UPSTREAM_DECODE"
)
