// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package vfs

// Code is a VFS error code (spec §7's error taxonomy). Codes are plain
// strings, not typed constants on the wire, so that an embedder's VFS
// can return codes this package has never heard of — the Error
// Normalizer's fallback (HTTP 500 / numeric passthrough) handles those.
type Code string

const (
	CodeBadRequest   Code = "EBADREQUEST"
	CodeAccessDenied Code = "EACCES"
	CodeNotFound     Code = "ENOENT"
	CodeNotReady     Code = "ENOTREADY"
	CodeIsDirectory  Code = "EISDIR"
	CodeInvalidPath  Code = "EINVALIDPATH"
	CodeDisconnect   Code = "EDISCONNECT"
)

// Error is the concrete error type VFS operations return for
// classifiable failures. The Error Normalizer inspects NumericCode
// (and, failing that, Code) to pick an HTTP status (spec §7).
type Error struct {
	// Code is the VFS error code (e.g. "ENOENT").
	Code Code

	// NumericCode, when non-zero and in [100,999], passes through
	// directly as the HTTP status (spec §7's numeric-code rule). Takes
	// priority over Code when both are set, matching source behavior
	// where err.code may be either a string or a number.
	NumericCode int

	// Message is the human-readable error message. Falls back to the
	// wrapped error's message when empty.
	Message string

	// Stdout and Stderr carry captured process output for errors
	// originating from Spawn/ExecFile/Tmux command failures.
	Stdout string
	Stderr string

	// Err is the underlying error, if any, for errors.Is/As chaining.
	Err error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return string(e.Code)
}

func (e *Error) Unwrap() error { return e.Err }

// NewError constructs a classified VFS error.
func NewError(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap constructs a classified VFS error that wraps err.
func Wrap(code Code, err error) *Error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Err: err}
}

// ErrInvalidPath is returned by the RPC dispatcher's §4.5(c) fast-fail
// when a routed VFS operation's path is nil/undefined on the wire.
var ErrInvalidPath = NewError(CodeInvalidPath, "path must not be null")

// ErrDisconnect is the error synthesized for every handle torn down by
// a channel disconnect (spec §4.1, §5).
var ErrDisconnect = NewError(CodeDisconnect, "channel disconnected")

// IsNotFound reports whether err is (or wraps) an ENOENT VFS error.
func IsNotFound(err error) bool {
	var vfsErr *Error
	return asError(err, &vfsErr) && vfsErr.Code == CodeNotFound
}

// asError is a small errors.As wrapper kept local to avoid importing
// errors in every call site that just wants IsNotFound.
func asError(err error, target **Error) bool {
	for err != nil {
		if e, ok := err.(*Error); ok {
			*target = e
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
