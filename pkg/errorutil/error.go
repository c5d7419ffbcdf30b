package errorutil

import (
	"errors"
	"fmt"
)

// Kind classifies a diagnosis failure
type Kind string

const (
	KindInputUnavailable     Kind = "input_unavailable"
	KindGeometryMismatch     Kind = "geometry_mismatch"
	KindGridMisalignment     Kind = "grid_misalignment"
	KindInsufficientCoverage Kind = "insufficient_coverage"
	KindConfiguration        Kind = "configuration_error"
	KindLayerUnavailable     Kind = "layer_unavailable"
	KindLayerInvalid         Kind = "layer_invalid"
	KindMapRenderDegraded    Kind = "map_render_degraded"
	KindClusteringDegraded   Kind = "clustering_degraded"
	KindInternal             Kind = "internal"
)

// Error typed error with retryability and a detail payload
type Error struct {
	Kind      Kind              `json:"kind"`
	Message   string            `json:"message"`
	Retryable bool              `json:"retryable"`
	Details   map[string]string `json:"details,omitempty"`
}

// Error implements the error interface
func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// WithDetail attaches a key/value to the detail payload
func (e *Error) WithDetail(key, value string) *Error {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// New creates a non-retryable error of the given kind
func New(kind Kind, message string) *Error {
	return &Error{
		Kind:      kind,
		Message:   message,
		Retryable: kind == KindInputUnavailable,
	}
}

// Newf creates a non-retryable error with a formatted message
func Newf(kind Kind, format string, args ...interface{}) *Error {
	return New(kind, fmt.Sprintf(format, args...))
}

// Retriable creates a retryable error (network errors, transient faults)
func Retriable(kind Kind, message string) *Error {
	return &Error{
		Kind:      kind,
		Message:   message,
		Retryable: true,
	}
}

// Wrap coerces any error into *Error; unknown errors become internal
func Wrap(err error) *Error {
	if err == nil {
		return nil
	}

	var e *Error
	if errors.As(err, &e) {
		return e
	}

	return &Error{
		Kind:      KindInternal,
		Message:   err.Error(),
		Retryable: false,
	}
}

// KindOf returns the kind of an error, or KindInternal for foreign errors
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// ExitCode maps an error to the CLI exit code contract:
// 2 inputs unavailable, 3 insufficient coverage, 4 configuration, 1 other.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	switch KindOf(err) {
	case KindInputUnavailable:
		return 2
	case KindInsufficientCoverage:
		return 3
	case KindConfiguration:
		return 4
	default:
		return 1
	}
}
