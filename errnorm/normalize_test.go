// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package errnorm

import (
	"errors"
	"net/http"
	"testing"

	"github.com/relayfs/relayfs/vfs"
)

func TestStatusTaxonomy(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{vfs.NewError(vfs.CodeBadRequest, "bad"), http.StatusBadRequest},
		{vfs.NewError(vfs.CodeAccessDenied, "nope"), http.StatusForbidden},
		{vfs.NewError(vfs.CodeNotFound, "missing"), http.StatusOK},
		{vfs.NewError(vfs.CodeNotReady, "later"), http.StatusServiceUnavailable},
		{vfs.NewError(vfs.CodeIsDirectory, "oops"), http.StatusServiceUnavailable},
		{&vfs.Error{NumericCode: 429, Message: "slow down"}, 429},
		{errors.New("unclassified"), http.StatusInternalServerError},
	}
	for _, c := range cases {
		if got := Status(c.err); got != c.status {
			t.Errorf("Status(%v) = %d, want %d", c.err, got, c.status)
		}
	}
}

func TestNumericCodeTakesPriorityOverCode(t *testing.T) {
	err := &vfs.Error{Code: vfs.CodeAccessDenied, NumericCode: 418, Message: "teapot"}
	if got := Status(err); got != 418 {
		t.Errorf("Status = %d, want 418", got)
	}
}

func TestBodyUsesMessage(t *testing.T) {
	err := vfs.NewError(vfs.CodeBadRequest, "malformed request")
	if got := Body(err); got != "malformed request\n" {
		t.Errorf("Body = %q", got)
	}
}

func TestShouldLogSilencesNotFound(t *testing.T) {
	if ShouldLog(vfs.NewError(vfs.CodeNotFound, "missing")) {
		t.Error("expected ENOENT to be silenced")
	}
	if !ShouldLog(vfs.NewError(vfs.CodeBadRequest, "bad")) {
		t.Error("expected non-ENOENT errors to be logged")
	}
}
