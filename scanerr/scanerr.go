// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package scanerr holds the scanner's error taxonomy (spec.md §7): tagged
// error values with a human-readable message, the same shape
// internal/core/process.go uses for its load-time errors (fmt-wrapped,
// never a bare string).
package scanerr

import "fmt"

// Kind classifies a scan failure.
type Kind int

const (
	// NoSuchProcess: pid has no memory map, or the memory reader could
	// not be opened because the process doesn't exist.
	NoSuchProcess Kind = iota
	// PermissionDenied: the memory reader could not be opened due to
	// insufficient privilege.
	PermissionDenied
	// MapParseError: the process's virtual memory map could not be
	// parsed.
	MapParseError
	// RoutineUnavailable: the scan routine factory had no resolution
	// for the requested (dataType, matchType, ...) combination.
	RoutineUnavailable
	// RegionReadError: a single region could not be read. Non-fatal;
	// handled locally by skipping the region and recording a warning.
	RegionReadError
	// InvalidArguments: a malformed user value (mask/pattern length
	// mismatch, zero-length required pattern, etc).
	InvalidArguments
	// Cancelled: the caller's stop signal was observed.
	Cancelled
)

func (k Kind) String() string {
	switch k {
	case NoSuchProcess:
		return "no such process"
	case PermissionDenied:
		return "permission denied"
	case MapParseError:
		return "memory map parse error"
	case RoutineUnavailable:
		return "no routine for requested scan parameters"
	case RegionReadError:
		return "region read error"
	case InvalidArguments:
		return "invalid arguments"
	case Cancelled:
		return "cancelled"
	default:
		return "unknown scan error"
	}
}

// Error is a tagged scan failure.
type Error struct {
	Kind Kind
	Msg  string
	Err  error // wrapped cause, if any
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	if e.Msg != "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
	}
	return e.Kind.String()
}

func (e *Error) Unwrap() error { return e.Err }

// New builds an Error of the given kind with a message.
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

// Wrap builds an Error of the given kind wrapping cause, with a message.
func Wrap(kind Kind, msg string, cause error) *Error {
	return &Error{Kind: kind, Msg: msg, Err: cause}
}

// Is reports whether err is a *Error of the given kind.
func Is(err error, kind Kind) bool {
	se, ok := err.(*Error)
	return ok && se.Kind == kind
}
