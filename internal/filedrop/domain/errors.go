package domain

import (
	"errors"
	"fmt"
)

// ErrorKind is the machine-checkable category of a failure. NotFound and
// Incomplete are expected client-driven conditions; Internal is a server
// fault and is the only kind logged at error severity.
type ErrorKind int

const (
	KindNotFound ErrorKind = iota
	KindInvalidRequest
	KindIncomplete
	KindInternal
)

func (k ErrorKind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindInvalidRequest:
		return "invalid_request"
	case KindIncomplete:
		return "incomplete"
	case KindInternal:
		return "internal"
	default:
		return "unknown"
	}
}

// Error carries a category alongside a human-readable message. Incomplete
// errors additionally report the chunk shortfall.
type Error struct {
	Kind ErrorKind
	// Received and Total are set for KindIncomplete only.
	Received int
	Total    uint64

	msg string
	err error
}

func (e *Error) Error() string { return e.msg }

func (e *Error) Unwrap() error { return e.err }

// NotFound signals an unknown, expired or already-completed upload id, or
// a missing file. Always a client-addressable condition.
func NotFound(format string, args ...interface{}) *Error {
	return &Error{Kind: KindNotFound, msg: fmt.Sprintf(format, args...)}
}

// InvalidRequest signals a request the server refuses to act on, such as a
// zero chunk size or a filename with no usable characters.
func InvalidRequest(format string, args ...interface{}) *Error {
	return &Error{Kind: KindInvalidRequest, msg: fmt.Sprintf(format, args...)}
}

// Incomplete signals a complete call issued before every chunk arrived.
// The session stays active; the client retries the missing chunks.
func Incomplete(received int, total uint64) *Error {
	return &Error{
		Kind:     KindIncomplete,
		Received: received,
		Total:    total,
		msg:      fmt.Sprintf("missing chunks: received %d/%d", received, total),
	}
}

// Internal wraps an I/O or invariant failure that the client cannot fix.
func Internal(msg string, err error) *Error {
	if err != nil {
		return &Error{Kind: KindInternal, msg: fmt.Sprintf("%s: %v", msg, err), err: err}
	}
	return &Error{Kind: KindInternal, msg: msg}
}

// KindOf extracts the category from any error in the chain. Errors outside
// the taxonomy are treated as internal faults.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// IsNotFound reports whether err is a NotFound condition.
func IsNotFound(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == KindNotFound
}
