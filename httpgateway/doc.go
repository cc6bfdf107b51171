// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package httpgateway implements the HTTP Gateway (spec §4.6): a
// mount-prefix HTTP handler that translates GET/HEAD/PUT/DELETE/POST/
// PROPFIND onto a vfs.FS, with Range/ETag/conditional-GET semantics,
// multipart upload, and directory JSON streaming. Requests outside the
// mount prefix, and writes under read-only mode, fall through to the
// configured next handler.
package httpgateway
