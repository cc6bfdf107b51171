// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package httpgateway

import (
	"context"
	"encoding/json"
	"io"

	"github.com/relayfs/relayfs/vfs"
)

// byteEvent carries one delivery from a vfs.Readable's callback surface
// onto a channel a blocking loop can select on. Only one of chunk,
// end, or err is ever set.
type byteEvent struct {
	chunk []byte
	end   bool
	err   error
}

// pumpBytes drains readable into w until OnEnd, OnError, or ctx is
// cancelled (an HTTP client disconnect). It is the adapter the HTTP
// Gateway needs because vfs.Readable is callback-shaped, not an
// io.Reader (spec §5: suspension happens only at I/O boundaries, and
// here the boundary is the unbuffered events channel — the callback
// that delivers a chunk does not return until the loop below has
// received it, and the loop does not receive the next chunk until
// w.Write has taken this one).
func pumpBytes(ctx context.Context, w io.Writer, readable vfs.Readable) error {
	events := make(chan byteEvent)

	readable.OnData(func(chunk []byte) bool {
		events <- byteEvent{chunk: chunk}
		return true
	})
	readable.OnEnd(func() {
		events <- byteEvent{end: true}
	})
	readable.OnError(func(err error) {
		events <- byteEvent{err: err}
	})

	for {
		select {
		case ev := <-events:
			switch {
			case ev.err != nil:
				readable.Destroy()
				return ev.err
			case ev.end:
				return nil
			default:
				if _, err := w.Write(ev.chunk); err != nil {
					readable.Destroy()
					return err
				}
			}
		case <-ctx.Done():
			readable.Destroy()
			return ctx.Err()
		}
	}
}

// objectEvent is pumpObjects's analog of byteEvent for directory
// entries delivered through vfs.ObjectSource.
type objectEvent struct {
	entry any
	end   bool
	err   error
}

// pumpObjects drains source into w, framing each delivered entry as a
// JSON array element per spec §4.6/§8 S2/S6: `[\n  ` before the first
// entry, `,\n  ` between entries, `\n]` after the last, and `[]` for an
// empty stream. readable supplies OnEnd/OnError/Destroy — the same
// underlying stream implements both vfs.Readable and vfs.ObjectSource.
func pumpObjects(ctx context.Context, w io.Writer, readable vfs.Readable, source vfs.ObjectSource) error {
	events := make(chan objectEvent)

	readable.OnEnd(func() {
		events <- objectEvent{end: true}
	})
	readable.OnError(func(err error) {
		events <- objectEvent{err: err}
	})
	source.OnObject(func(entry any) bool {
		events <- objectEvent{entry: entry}
		return true
	})

	if _, err := io.WriteString(w, "["); err != nil {
		readable.Destroy()
		return err
	}

	first := true
	for {
		select {
		case ev := <-events:
			switch {
			case ev.err != nil:
				readable.Destroy()
				return ev.err
			case ev.end:
				if first {
					_, err := io.WriteString(w, "]")
					return err
				}
				_, err := io.WriteString(w, "\n]")
				return err
			default:
				separator := ",\n  "
				if first {
					separator = "\n  "
					first = false
				}
				encoded, err := json.Marshal(ev.entry)
				if err != nil {
					continue
				}
				if _, err := io.WriteString(w, separator); err != nil {
					readable.Destroy()
					return err
				}
				if _, err := w.Write(encoded); err != nil {
					readable.Destroy()
					return err
				}
			}
		case <-ctx.Done():
			readable.Destroy()
			return ctx.Err()
		}
	}
}
