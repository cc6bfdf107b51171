// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package vfs

import "time"

// Meta is the result of a VFS operation (spec §3). The five
// resource-carrying fields (Stream, Process, Pty, Watcher, Api) are the
// ones the Callback Marshaller rewrites into registry tokens; every
// other field is a scalar hint that passes through unchanged.
type Meta struct {
	// Resource-carrying fields. At most one is non-nil for any given
	// result; the Callback Marshaller keys off whichever is set.
	Stream  Stream
	Process Process
	Pty     PTY
	Watcher Watcher
	Api     Api

	// Etag is an opaque content version identifier. When empty, the
	// HTTP gateway may synthesize one (see httpgateway's BLAKE3 hook).
	Etag string

	// NotModified, when true, short-circuits a conditional GET to an
	// HTTP 304 with no body.
	NotModified bool

	// PartialContent describes a satisfied byte-range request.
	PartialContent *PartialContent

	// RangeNotSatisfiable, when non-nil, describes why a Range request
	// could not be satisfied; the HTTP gateway responds 416 with its
	// text as the body.
	RangeNotSatisfiable *RangeNotSatisfiable

	// Mime is the content's detected or declared MIME type.
	Mime string

	// Size is the resource's byte size, when known up front.
	Size int64

	// MetadataSize and MetadataStringLength describe out-of-band
	// metadata bundled alongside a file body (spec §6.2's
	// X-Metadata-Length header).
	MetadataSize         int64
	MetadataStringLength int64

	// Stat carries structured file/directory metadata for Stat and
	// Metadata results.
	Stat *Stat

	// Extra carries VFS-specific scalar values that have no dedicated
	// field (e.g. a spawn/execFile command's buffered output, or an
	// extension API's custom result shape). Keys here pass through the
	// Callback Marshaller unchanged, like any other scalar.
	Extra map[string]any
}

// PartialContent describes the byte range actually returned for a Range
// request (spec §3/§4.6).
type PartialContent struct {
	Start int64
	End   int64
	Size  int64
}

// RangeNotSatisfiable carries the message body for an HTTP 416 response.
type RangeNotSatisfiable struct {
	Message string
}

// Stat models a filesystem entry's metadata, returned by Stat,
// Metadata, and as directory-listing entries from ReadDir.
type Stat struct {
	Name        string         `json:"name"`
	Path        string         `json:"path,omitempty"`
	Size        int64          `json:"size"`
	IsDirectory bool           `json:"directory,omitempty"`
	IsSymlink   bool           `json:"symlink,omitempty"`
	Mode        uint32         `json:"mode,omitempty"`
	ModTime     time.Time      `json:"mtime"`
	Mime        string         `json:"mime,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// RangeRequest describes a parsed HTTP Range header (spec §4.6).
type RangeRequest struct {
	// Start is the first byte requested. Nil means "suffix range"
	// (last End bytes of the resource).
	Start *int64
	// End is the last byte requested, inclusive. Nil means "to EOF".
	End *int64
	// Etag carries the If-Range header's validator, when present.
	Etag string
}

// Options carries the per-call parameters for every VFS operation. Not
// every field is meaningful for every operation — see the doc comment
// on the corresponding [FS] method.
type Options struct {
	// Head, when true, requests metadata only (no stream) for an
	// operation that would otherwise return one (ReadFile's HEAD mode).
	Head bool

	// Etag is the If-None-Match validator for a conditional GET.
	Etag string

	// Range is the parsed Range/If-Range header, or nil.
	Range *RangeRequest

	// Metadata requests that out-of-band metadata accompany the
	// result (spec §4.6's X-Request-Metadata header), or, for the
	// POST {metadata} command and the Metadata VFS call, carries the
	// metadata value to write.
	Metadata      bool
	MetadataValue map[string]any

	// Encoding selects how ReadDir delivers entries. "" streams JSON
	// bytes of an already-encoded listing; "null" requests an object
	// stream (spec §4.6's directory JSON mode), which the HTTP gateway
	// frames as a JSON array itself. The Handle Registry forwards only
	// OnData chunks, so entries delivered through ObjectSource do not
	// reach an RPC peer.
	Encoding string

	// Parents requests that MkDir/MkFile create missing intermediate
	// directories (mkdir -p semantics).
	Parents bool

	// BufferWrite requests that MkFile/AppendFile buffer the entire
	// request body in memory before writing, rather than streaming it
	// directly to the backing store. The HTTP gateway sets this for
	// small uploads (Content-Length below a threshold) to avoid the
	// overhead of a partial-write-then-retry path on tiny files.
	BufferWrite bool

	// StreamInput supplies the bytes to write for MkFile/AppendFile,
	// when the caller is driving the write from an existing io.Reader
	// (an HTTP request body or multipart part) rather than handing
	// back a [Writable] for the caller to drive.
	StreamInput ReaderWithLen

	// From is the source path for Rename and Copy.
	From string

	// Target is the link target for Symlink.
	Target string

	// Mode is the permission bits for Chmod.
	Mode uint32

	// PTYCols and PTYRows size a newly created PTY.
	PTYCols, PTYRows int

	// Command and Args specify the program to run for Spawn, PTY,
	// Tmux, and ExecFile.
	Command string
	Args    []string
	Env     map[string]string
	Dir     string

	// Stream, when set by a caller that already holds a live
	// [Writable]/[Readable] (as opposed to a raw io.Reader), lets the
	// RPC dispatcher pass through an options.stream proxy conversion
	// per spec §4.5(b) without an intermediate copy.
	Stream Stream

	// Raw carries any additional VFS-specific or extension-API option
	// that has no dedicated field, keyed exactly as received over the
	// wire.
	Raw map[string]any
}

// ReaderWithLen is an io.Reader that additionally reports its known
// length, or -1 if unknown. The HTTP gateway implements this over
// http.Request.Body using Content-Length.
type ReaderWithLen interface {
	Read(p []byte) (int, error)
	Len() int64
}
