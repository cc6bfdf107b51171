// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package errnorm

import (
	"errors"
	"net/http"

	"github.com/relayfs/relayfs/vfs"
)

// ContentType is the response content type for every normalized error
// body (spec §7).
const ContentType = "text/x-error"

// codeStatus is the VFS error code to HTTP status taxonomy (spec §7).
// ENOENT intentionally maps to 200: the client is expected to inspect
// Content-Type to distinguish a successful body from an error one.
var codeStatus = map[vfs.Code]int{
	vfs.CodeBadRequest:   http.StatusBadRequest,
	vfs.CodeAccessDenied: http.StatusForbidden,
	vfs.CodeNotFound:     http.StatusOK,
	vfs.CodeNotReady:     http.StatusServiceUnavailable,
	vfs.CodeIsDirectory:  http.StatusServiceUnavailable,
}

// Status resolves the HTTP status for err per spec §7: a classified
// vfs.Error returns its NumericCode when in [100,999] (this takes
// priority over Code when both are set), otherwise consults
// codeStatus, and falls back to 500 for any other code; any
// unclassified error is a 500.
func Status(err error) int {
	var vfsErr *vfs.Error
	if !errors.As(err, &vfsErr) {
		return http.StatusInternalServerError
	}
	if vfsErr.NumericCode >= 100 && vfsErr.NumericCode <= 999 {
		return vfsErr.NumericCode
	}
	if status, ok := codeStatus[vfsErr.Code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// Body renders err's text/x-error response body: the message (or the
// error's string form), terminated with a newline.
func Body(err error) string {
	var vfsErr *vfs.Error
	if errors.As(err, &vfsErr) && vfsErr.Message != "" {
		return vfsErr.Message + "\n"
	}
	return err.Error() + "\n"
}

// ShouldLog reports whether err merits a server-side log entry.
// Only ENOENT errors are silenced (spec §7); everything else should be
// logged with its stack/wrapped chain.
func ShouldLog(err error) bool {
	return !vfs.IsNotFound(err)
}
