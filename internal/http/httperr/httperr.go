// Package httperr holds the typed failures raised while framing, parsing and
// dispatching HTTP messages.
package httperr

import (
	"errors"
	"fmt"
)

// Kind is the category of a protocol failure.
type Kind string

const (
	KindUnclassified       Kind = "unclassified"
	KindMalformedHeader    Kind = "malformed-header"
	KindMalformedRequest   Kind = "malformed-request"
	KindMalformedResponse  Kind = "malformed-response"
	KindUnsupportedMethod  Kind = "unsupported-method"
	KindUnsupportedVersion Kind = "unsupported-version"
	KindStreamTerminated   Kind = "stream-terminated"
)

// Error is a protocol failure with the raw line that caused it, if any.
type Error struct {
	Kind  Kind
	Line  string
	Cause error
}

func (e *Error) Error() string {
	msg := string(e.Kind)
	if e.Line != "" {
		msg = fmt.Sprintf("%s: %q", msg, e.Line)
	}
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches any *Error of the same kind, so sentinels such as
// ErrMalformedHeader work with errors.Is.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Kind == t.Kind
	}
	return false
}

var (
	ErrMalformedHeader    = &Error{Kind: KindMalformedHeader}
	ErrMalformedRequest   = &Error{Kind: KindMalformedRequest}
	ErrMalformedResponse  = &Error{Kind: KindMalformedResponse}
	ErrUnsupportedMethod  = &Error{Kind: KindUnsupportedMethod}
	ErrUnsupportedVersion = &Error{Kind: KindUnsupportedVersion}
	ErrStreamTerminated   = &Error{Kind: KindStreamTerminated}
)

func MalformedHeader(line string) *Error {
	return &Error{Kind: KindMalformedHeader, Line: line}
}

func MalformedRequest(line string) *Error {
	return &Error{Kind: KindMalformedRequest, Line: line}
}

func MalformedResponse(line string) *Error {
	return &Error{Kind: KindMalformedResponse, Line: line}
}

func UnsupportedMethod(method string) *Error {
	return &Error{Kind: KindUnsupportedMethod, Line: method}
}

func UnsupportedVersion(version string) *Error {
	return &Error{Kind: KindUnsupportedVersion, Line: version}
}

// StreamTerminated wraps a read failure on the underlying connection.
func StreamTerminated(cause error) *Error {
	return &Error{Kind: KindStreamTerminated, Cause: cause}
}

// KindOf reports the kind of the first *Error in err's chain, or
// KindUnclassified.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnclassified
}

// LineOf returns the offending line recorded on err, if any.
func LineOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Line
	}
	return ""
}
