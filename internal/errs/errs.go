package errs

import "fmt"

// TransportError wraps network-level failures (timeout, refused connection)
// so callers can match retry eligibility without string comparison.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport: %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// UpstreamError is an application-level error returned inside a 200 response
// (non-zero result code) or as a non-success HTTP status with an error body.
type UpstreamError struct {
	Code    int
	Message string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream: code %d: %s", e.Code, e.Message)
}

// ConfigError marks missing or invalid configuration, fatal at construction
// time of the affected component.
type ConfigError struct {
	Field string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s is required", e.Field)
}
