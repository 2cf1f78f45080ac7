// Package fault classifies the failures a synthesis run can surface.
//
// Every error crossing a package boundary in sax carries a Kind so callers
// can decide between degrading (probe), collecting (store access, tool
// invocation) and failing the run (store open, persist).
package fault

import (
	"errors"
	"fmt"
)

// Kind identifies the class of a failure.
type Kind string

const (
	// KindProbe indicates a probe log was unreadable.
	KindProbe Kind = "probe"
	// KindToolInvocation indicates the timing tool was missing, failed, or
	// produced output without the expected modeline shape.
	KindToolInvocation Kind = "tool-invocation"
	// KindToolTimeout indicates an external process exceeded its deadline.
	KindToolTimeout Kind = "tool-timeout"
	// KindStoreOpen indicates the configuration store could not be loaded.
	KindStoreOpen Kind = "store-open"
	// KindStoreAccess indicates a match, get or set against the store failed.
	KindStoreAccess Kind = "store-access"
	// KindPersist indicates saving the store failed.
	KindPersist Kind = "persist"
	// KindAborted indicates the user abandoned the run before confirming.
	KindAborted Kind = "aborted"
)

// Error wraps an underlying error with its Kind and the operation context
// needed to diagnose it.
type Error struct {
	Kind Kind
	Op   string // e.g. "set", "match", "compute"
	Path string // store path or file path, if any
	Err  error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	msg := string(e.Kind)
	if e.Op != "" {
		msg += " " + e.Op
	}
	if e.Path != "" {
		msg += " " + e.Path
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes the underlying error to errors.Is/As.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// New creates an error of the given kind.
func New(kind Kind, op, path string, err error) error {
	if err == nil {
		err = errors.New(string(kind))
	}
	return &Error{Kind: kind, Op: op, Path: path, Err: err}
}

// Newf creates an error of the given kind from a format string.
func Newf(kind Kind, op, path, format string, args ...any) error {
	return &Error{Kind: kind, Op: op, Path: path, Err: fmt.Errorf(format, args...)}
}

// KindOf returns the Kind of the outermost *Error in err's chain, or "".
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return ""
}

// Is reports whether any error in err's chain (including joined errors) is
// an *Error of the given kind.
func Is(err error, kind Kind) bool {
	if err == nil {
		return false
	}
	var fe *Error
	if errors.As(err, &fe) && fe.Kind == kind {
		return true
	}
	switch x := err.(type) {
	case interface{ Unwrap() []error }:
		for _, e := range x.Unwrap() {
			if Is(e, kind) {
				return true
			}
		}
	case interface{ Unwrap() error }:
		return Is(x.Unwrap(), kind)
	}
	return false
}
