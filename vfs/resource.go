// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package vfs

// Stream is the common surface of every live byte stream the VFS can
// return. A stream is Readable, Writable, or both; callers discover which
// via type assertion against [Readable] and [Writable], the way io.Copy
// probes for io.WriterTo/io.ReaderFrom.
type Stream interface {
	// OnClose registers a handler invoked exactly once when the stream
	// is fully torn down. OnClose is idempotent with OnEnd for readable
	// streams: both may fire, and registry cleanup runs on whichever
	// fires first.
	OnClose(handler func())
}

// Readable is a stream that emits data read from the underlying
// resource. Implementations must support pausing and resuming delivery
// for backpressure (spec §4.4/§5).
type Readable interface {
	Stream

	// OnData registers the handler invoked for each chunk read from the
	// resource. The handler's bool return reports whether the consumer
	// is still accepting data; when it returns false, the Readable
	// pauses itself exactly as if Pause had been called directly.
	OnData(handler func(chunk []byte) bool)

	// OnEnd registers the handler invoked when the resource reaches
	// natural end-of-data (no more bytes, but the handle may still
	// receive OnClose separately).
	OnEnd(handler func())

	// OnError registers the handler invoked on a read error. OnError
	// does not imply termination; OnClose always follows.
	OnError(handler func(err error))

	// Pause stops emitting OnData callbacks until Resume is called.
	Pause()

	// Resume restarts emitting OnData callbacks after a Pause.
	Resume()

	// Destroy immediately and forcibly terminates the stream.
	Destroy()
}

// ObjectSource marks a Readable whose OnData-equivalent delivers
// directory-entry-shaped values rather than raw bytes. ReadDir returns a
// stream implementing ObjectSource when the caller requested
// Options.Encoding == "null" (the object-stream directory listing mode
// of spec §4.6).
type ObjectSource interface {
	// OnObject registers the handler invoked for each entry. The bool
	// return has the same pause-on-false semantics as Readable.OnData.
	OnObject(handler func(entry any) bool)
}

// Writable is a stream that accepts data to write to the underlying
// resource.
type Writable interface {
	Stream

	// Write submits chunk for writing. The bool return reports whether
	// the stream is still accepting writes; false means the caller
	// should stop writing until an OnDrain-equivalent signal (delivered
	// at the RPC channel level, not here — see rpc.WireFlowController).
	Write(chunk []byte) bool

	// End submits a final chunk (which may be empty) and signals no
	// further writes will occur.
	End(chunk []byte)
}

// Process is a live child process returned by Spawn.
type Process interface {
	// PID returns the operating system process ID.
	PID() int

	// Stdin returns the process's standard input stream, or nil if it
	// was not requested.
	Stdin() Writable

	// Stdout returns the process's standard output stream, or nil.
	Stdout() Readable

	// Stderr returns the process's standard error stream, or nil.
	Stderr() Readable

	// OnExit registers the handler invoked when the process exits.
	// signal is empty when the process exited normally.
	OnExit(handler func(code int, signal string))

	// OnClose registers the handler invoked once the process has
	// exited AND all of its stdio streams have closed.
	OnClose(handler func(code int, signal string))

	// Kill sends signal (e.g. "SIGTERM", "SIGKILL") to the process.
	Kill(signal string) error

	// Unref marks the process as not keeping the connection's
	// teardown from proceeding: disconnect teardown skips killing
	// unreffed processes.
	Unref()
}

// PTY is a pseudo-terminal-backed process. Spec §3 models it as "a
// process and a stream sharing one token": PTY embeds both process
// identity (PID) and stream identity (a single bidirectional channel of
// terminal I/O) because a pseudo-terminal has no separate stdout/stderr.
type PTY interface {
	PID() int

	OnData(handler func(chunk []byte) bool)
	OnEnd(handler func())
	OnError(handler func(err error))
	OnClose(handler func())
	Pause()
	Resume()
	Destroy()

	Write(chunk []byte) bool
	End(chunk []byte)

	// Resize changes the terminal's column/row dimensions.
	Resize(cols, rows int) error

	// OnKill registers the handler invoked when the PTY's underlying
	// pane process is killed (as opposed to exiting on its own).
	OnKill(handler func())
}

// Watcher is a live filesystem change subscription returned by Watch.
type Watcher interface {
	// OnChange registers the handler invoked for each filesystem
	// event. stat and files are nil/empty when the underlying watch
	// implementation does not supply them.
	OnChange(handler func(event, filename string, stat *Stat, files []string))

	// Close stops the watch and releases its resources.
	Close() error
}

// Api is a pluggable, named collection of callable methods exposed
// through Extend/Use (spec §6.1) and addressed over RPC via the "call"
// method (spec §4.5).
type Api interface {
	// Name returns the API's registration name.
	Name() string

	// Names lists the callable method names.
	Names() []string

	// Call invokes the named method with args, returning its result.
	// If the VFS-side method accepts a trailing callback argument, args
	// includes a sentinel value the caller substitutes for it;
	// implementations that don't use callback-shaped methods can ignore
	// the distinction entirely.
	Call(fnName string, args []any) (any, error)
}
