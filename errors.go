package rdap

import (
	"errors"
	"fmt"
	"time"
)

// Kind classifies an Error without requiring callers to string-match.
type Kind int

const (
	_ Kind = iota
	// InvalidQuery means the classifier or IP normalizer rejected the input.
	InvalidQuery
	// RequiresExplicitServer means the query type has no bootstrap mapping
	// (entity, nameserver, search) and no override server was supplied.
	RequiresExplicitServer
	// NoAuthoritativeServer means the bootstrap resolver found no matching service.
	NoAuthoritativeServer
	// BootstrapUnavailable means both the network fetch and the disk fallback failed.
	BootstrapUnavailable
	// Timeout means the request exceeded its configured deadline.
	Timeout
	// NotFound means HTTP 404 or an RDAP error object with code 404.
	NotFound
	// RateLimited means HTTP 429; Error.RetryAfter carries the advisory delay.
	RateLimited
	// RemoteError means the server returned a decoded RDAP error object.
	RemoteError
	// HttpStatus means a non-RDAP HTTP failure.
	HttpStatus
	// BadResponseType means the response content-type was not JSON-family.
	BadResponseType
	// DecodeError means the JSON structure did not match expectations at a
	// required point (not to be confused with a per-field DecodeWarning).
	DecodeError
	// Cancelled means the caller cancelled the operation.
	Cancelled
)

func (k Kind) String() string {
	switch k {
	case InvalidQuery:
		return "InvalidQuery"
	case RequiresExplicitServer:
		return "RequiresExplicitServer"
	case NoAuthoritativeServer:
		return "NoAuthoritativeServer"
	case BootstrapUnavailable:
		return "BootstrapUnavailable"
	case Timeout:
		return "Timeout"
	case NotFound:
		return "NotFound"
	case RateLimited:
		return "RateLimited"
	case RemoteError:
		return "RemoteError"
	case HttpStatus:
		return "HttpStatus"
	case BadResponseType:
		return "BadResponseType"
	case DecodeError:
		return "DecodeError"
	case Cancelled:
		return "Cancelled"
	default:
		return "Unknown"
	}
}

// Error is the single error type returned across the package; Kind is the
// machine-checkable discriminator, Op names the failing operation, and Err
// (when present) wraps the underlying cause.
type Error struct {
	Kind Kind
	Op   string
	Err  error

	// The response's HTTP status code, set for Kind == HttpStatus,
	// RemoteError, NotFound and RateLimited.
	HTTPStatus int
	// Set only for Kind == RateLimited.
	RetryAfter time.Duration
	// Set when the body decoded as an RDAP error object: always for
	// Kind == RemoteError, and for NotFound when the 404 body carried one.
	Code        int
	Title       string
	Description []string
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("rdap: %s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("rdap: %s: %s", e.Op, e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

// LogFields folds Error's Op/Kind taxonomy (and, when set, the HTTP status
// and rate-limit advisory) into structured key/value pairs that
// internal/logx's Err can render alongside a caller's own kv — without
// internal/logx needing to import this package to know about Kind.
func (e *Error) LogFields() []any {
	fields := []any{"op", e.Op, "kind", e.Kind.String()}
	if e.HTTPStatus != 0 {
		fields = append(fields, "http_status", e.HTTPStatus)
	}
	if e.RetryAfter != 0 {
		fields = append(fields, "retry_after", e.RetryAfter)
	}
	return fields
}

// Is reports whether target is an *Error of the same Kind, so callers can
// test for a Kind by wrapping the constant in an *Error:
// errors.Is(err, &Error{Kind: rdap.NotFound}).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Kind == 0 {
		return false
	}
	return e.Kind == t.Kind
}

func newErr(op string, kind Kind, err error) *Error {
	return &Error{Op: op, Kind: kind, Err: err}
}

// KindOf extracts the Kind from err if it is (or wraps) an *Error.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}

// ErrUnexpectedObject indicates the RDAP response was not the expected object
// class. Kept as a distinct sentinel (rather than folded into Kind) because
// it is a decoder-local programmer error, not a propagating request failure.
type ErrUnexpectedObject string

func (e ErrUnexpectedObject) Error() string {
	return fmt.Sprintf("unexpected RDAP objectClassName, want %s", string(e))
}
