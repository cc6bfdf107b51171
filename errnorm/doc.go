// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package errnorm implements the Error Normalizer (spec §4.7, §7): the
// VFS error code to HTTP status taxonomy, the text/x-error response
// body convention, and the log-silencing rule for ENOENT.
package errnorm
