// Package apperr defines the error taxonomy surfaced by a capture attempt.
//
// Every failure that reaches the user is one of three kinds. A selection that
// is too small is not an error at all and never reaches this package.
package apperr

import (
	"errors"
	"fmt"
)

// ConfigurationError reports missing or invalid user configuration, such as
// an absent API key. It aborts a capture before any network call.
type ConfigurationError struct {
	Msg string
}

func (e *ConfigurationError) Error() string { return e.Msg }

// TransportError wraps a failed screenshot, network request or non-2xx reply.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	if e.Err == nil {
		return e.Op
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ParseError reports a service reply that is not valid JSON or lacks the
// expected shape.
type ParseError struct {
	Body string
	Err  error
}

func (e *ParseError) Error() string {
	if e.Err == nil {
		return "invalid response"
	}
	return fmt.Sprintf("invalid response: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

func Config(format string, args ...any) error {
	return &ConfigurationError{Msg: fmt.Sprintf(format, args...)}
}

func Transport(op string, err error) error {
	return &TransportError{Op: op, Err: err}
}

func Parse(body string, err error) error {
	return &ParseError{Body: body, Err: err}
}

// Kind classifies an error for presentation.
type Kind int

const (
	KindUnknown Kind = iota
	KindConfiguration
	KindTransport
	KindParse
)

func (k Kind) String() string {
	switch k {
	case KindConfiguration:
		return "configuration"
	case KindTransport:
		return "transport"
	case KindParse:
		return "parse"
	default:
		return "unknown"
	}
}

// KindOf walks the wrap chain and returns the first recognised kind.
func KindOf(err error) Kind {
	var cfgErr *ConfigurationError
	var trErr *TransportError
	var parseErr *ParseError
	switch {
	case err == nil:
		return KindUnknown
	case errors.As(err, &cfgErr):
		return KindConfiguration
	case errors.As(err, &parseErr):
		return KindParse
	case errors.As(err, &trErr):
		return KindTransport
	default:
		return KindUnknown
	}
}

// Blocking reports whether the error must be acknowledged by the user rather
// than shown as a dismissible toast.
func Blocking(err error) bool { return KindOf(err) == KindConfiguration }
