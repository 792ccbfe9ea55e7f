package mover

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
)

// Kind classifies a failed move so callers can decide how loudly to report
// it. SourceVanished is the only kind that is routinely dropped in silence.
type Kind string

const (
	KindSourceVanished   Kind = "source_vanished"
	KindPermissionDenied Kind = "permission_denied"
	KindDestUnwritable   Kind = "destination_unwritable"
	KindUnexpectedIO     Kind = "unexpected_io"
)

// Error is a structured move failure. It never terminates a watch; the
// handler converts it into a reported outcome.
type Error struct {
	Kind   Kind
	Source string
	Dest   string
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("move %s -> %s: %s: %v", e.Source, e.Dest, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf extracts the Kind from err, or KindUnexpectedIO when err is not a
// mover error.
func KindOf(err error) Kind {
	var me *Error
	if errors.As(err, &me) {
		return me.Kind
	}
	return KindUnexpectedIO
}

// classifySource maps an error hit while reading the source file.
func classifySource(src, dest string, err error) *Error {
	kind := KindUnexpectedIO
	switch {
	case os.IsNotExist(err):
		kind = KindSourceVanished
	case errors.Is(err, fs.ErrPermission):
		kind = KindPermissionDenied
	}
	return &Error{Kind: kind, Source: src, Dest: dest, Err: err}
}

// classifyDest maps an error hit while preparing or writing the destination.
func classifyDest(src, dest string, err error) *Error {
	kind := KindUnexpectedIO
	if errors.Is(err, fs.ErrPermission) {
		kind = KindDestUnwritable
	}
	return &Error{Kind: kind, Source: src, Dest: dest, Err: err}
}
