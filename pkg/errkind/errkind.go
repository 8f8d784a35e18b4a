// Package errkind defines the closed set of error kinds the screening
// pipeline distinguishes when deciding whether a failure is fatal to the run
// or isolated to a single object, pair, or event.
package errkind

import "github.com/pkg/errors"

// Kind tags an error with the handling policy spec'd for it.
type Kind string

const (
	// CatalogIOError is fatal: the driver aborts the run.
	CatalogIOError Kind = "CatalogIOError"
	// SGP4InitError is per-TLE: logged, the object is dropped.
	SGP4InitError Kind = "SGP4InitError"
	// SGP4PropError is per-object or per-pair: logged, the artifact is dropped.
	SGP4PropError Kind = "SGP4PropError"
	// NumericNonFinite is treated as pc=0; pervasive occurrence skips the event.
	NumericNonFinite Kind = "NumericNonFinite"
	// ArtifactIOError is fatal.
	ArtifactIOError Kind = "ArtifactIOError"
	// LinkageError drops an event whose references fall outside the snapshot.
	LinkageError Kind = "LinkageError"
	// ConfigError is fatal with exit code 1.
	ConfigError Kind = "ConfigError"
)

// Error wraps an underlying cause with a Kind and enough identifying context
// to log without needing to inspect unrelated state. Context keys are
// freeform (e.g. "norad_id", "pair", "stage") so each kind can carry what is
// relevant to it.
type Error struct {
	Kind    Kind
	Context map[string]string
	cause   error
}

func (e *Error) Error() string {
	msg := string(e.Kind)
	if e.cause != nil {
		msg += ": " + e.cause.Error()
	}
	return msg
}

// Unwrap exposes the cause for errors.Is/errors.As.
func (e *Error) Unwrap() error { return e.cause }

// New builds a Error of the given kind wrapping cause, with optional context
// pairs supplied as alternating key/value strings.
func New(kind Kind, cause error, kv ...string) *Error {
	ctx := make(map[string]string, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		ctx[kv[i]] = kv[i+1]
	}
	return &Error{Kind: kind, Context: ctx, cause: errors.WithStack(cause)}
}

// Is reports whether err (or any error it wraps) carries the given Kind.
func Is(err error, kind Kind) bool {
	var e *Error
	for err != nil {
		if as, ok := err.(*Error); ok {
			e = as
			if e.Kind == kind {
				return true
			}
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			break
		}
		err = u.Unwrap()
	}
	return false
}

// Fatal reports whether errors of this kind must abort the entire run.
func Fatal(kind Kind) bool {
	switch kind {
	case CatalogIOError, ArtifactIOError, ConfigError:
		return true
	default:
		return false
	}
}
