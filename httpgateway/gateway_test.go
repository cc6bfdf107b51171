// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package httpgateway

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/relayfs/relayfs/lib/config"
	"github.com/relayfs/relayfs/vfs"
)

// fakeReadable is a minimal vfs.Readable that emits a fixed sequence
// of chunks, then ends, once start is called. fakeDirStream below is
// its ObjectSource counterpart.
type fakeReadable struct {
	chunks    [][]byte
	destroyed bool

	dataFn func([]byte) bool
	endFn  func()
	errFn  func(error)
}

func (f *fakeReadable) OnData(h func([]byte) bool) { f.dataFn = h }
func (f *fakeReadable) OnEnd(h func())             { f.endFn = h }
func (f *fakeReadable) OnError(h func(error))      { f.errFn = h }
func (f *fakeReadable) OnClose(func())             {}
func (f *fakeReadable) Pause()                     {}
func (f *fakeReadable) Resume()                    {}
func (f *fakeReadable) Destroy()                   { f.destroyed = true }

func (f *fakeReadable) start() {
	go func() {
		for _, c := range f.chunks {
			f.dataFn(c)
		}
		f.endFn()
	}()
}

var _ vfs.Readable = (*fakeReadable)(nil)

// fakeDirStream emits directory entries through vfs.ObjectSource
// instead of raw bytes.
type fakeDirStream struct {
	entries []any
	objFn   func(any) bool
	endFn   func()
	errFn   func(error)
}

func (f *fakeDirStream) OnData(func([]byte) bool) {}
func (f *fakeDirStream) OnEnd(h func())            { f.endFn = h }
func (f *fakeDirStream) OnError(h func(error))     { f.errFn = h }
func (f *fakeDirStream) OnClose(func())            {}
func (f *fakeDirStream) Pause()                    {}
func (f *fakeDirStream) Resume()                   {}
func (f *fakeDirStream) Destroy()                  {}
func (f *fakeDirStream) OnObject(h func(any) bool) { f.objFn = h }

func (f *fakeDirStream) start() {
	go func() {
		for _, e := range f.entries {
			f.objFn(e)
		}
		f.endFn()
	}()
}

var _ vfs.Readable = (*fakeDirStream)(nil)
var _ vfs.ObjectSource = (*fakeDirStream)(nil)

// stubFS implements vfs.FS with overridable hooks for the handful of
// methods each test exercises; everything else returns an empty Meta.
type stubFS struct {
	readFile func(context.Context, string, vfs.Options) (*vfs.Meta, error)
	readDir  func(context.Context, string, vfs.Options) (*vfs.Meta, error)
	rename   func(context.Context, string, vfs.Options) (*vfs.Meta, error)
}

func (s *stubFS) Resolve(context.Context, string, vfs.Options) (*vfs.Meta, error) { return &vfs.Meta{}, nil }
func (s *stubFS) Stat(context.Context, string, vfs.Options) (*vfs.Meta, error)    { return &vfs.Meta{}, nil }
func (s *stubFS) Metadata(context.Context, string, vfs.Options) (*vfs.Meta, error) {
	return &vfs.Meta{}, nil
}
func (s *stubFS) ReadFile(ctx context.Context, path string, opts vfs.Options) (*vfs.Meta, error) {
	if s.readFile != nil {
		return s.readFile(ctx, path, opts)
	}
	return &vfs.Meta{}, nil
}
func (s *stubFS) ReadDir(ctx context.Context, path string, opts vfs.Options) (*vfs.Meta, error) {
	if s.readDir != nil {
		return s.readDir(ctx, path, opts)
	}
	return &vfs.Meta{}, nil
}
func (s *stubFS) MkFile(context.Context, string, vfs.Options) (*vfs.Meta, error) { return &vfs.Meta{}, nil }
func (s *stubFS) MkDir(context.Context, string, vfs.Options) (*vfs.Meta, error)  { return &vfs.Meta{}, nil }
func (s *stubFS) MkDirP(context.Context, string, vfs.Options) (*vfs.Meta, error) { return &vfs.Meta{}, nil }
func (s *stubFS) AppendFile(context.Context, string, vfs.Options) (*vfs.Meta, error) {
	return &vfs.Meta{}, nil
}
func (s *stubFS) RmFile(context.Context, string, vfs.Options) (*vfs.Meta, error) { return &vfs.Meta{}, nil }
func (s *stubFS) RmDir(context.Context, string, vfs.Options) (*vfs.Meta, error)  { return &vfs.Meta{}, nil }
func (s *stubFS) Rename(ctx context.Context, path string, opts vfs.Options) (*vfs.Meta, error) {
	if s.rename != nil {
		return s.rename(ctx, path, opts)
	}
	return &vfs.Meta{}, nil
}
func (s *stubFS) Copy(context.Context, string, vfs.Options) (*vfs.Meta, error)    { return &vfs.Meta{}, nil }
func (s *stubFS) Chmod(context.Context, string, vfs.Options) (*vfs.Meta, error)   { return &vfs.Meta{}, nil }
func (s *stubFS) Symlink(context.Context, string, vfs.Options) (*vfs.Meta, error) { return &vfs.Meta{}, nil }
func (s *stubFS) Watch(context.Context, string, vfs.Options) (*vfs.Meta, error)   { return &vfs.Meta{}, nil }
func (s *stubFS) Connect(context.Context, string, vfs.Options) (*vfs.Meta, error) { return &vfs.Meta{}, nil }
func (s *stubFS) Spawn(context.Context, string, vfs.Options) (*vfs.Meta, error)   { return &vfs.Meta{}, nil }
func (s *stubFS) KillTree(context.Context, int, vfs.Options) error                { return nil }
func (s *stubFS) PTY(context.Context, string, vfs.Options) (*vfs.Meta, error)     { return &vfs.Meta{}, nil }
func (s *stubFS) Tmux(context.Context, string, vfs.Options) (*vfs.Meta, error)    { return &vfs.Meta{}, nil }
func (s *stubFS) ExecFile(context.Context, string, vfs.Options) (*vfs.Meta, error) {
	return &vfs.Meta{}, nil
}
func (s *stubFS) Extend(string, vfs.Api) error { return nil }
func (s *stubFS) Unextend(string) error        { return nil }
func (s *stubFS) Use(name string) (vfs.Api, error) {
	return nil, vfs.NewError(vfs.CodeNotFound, "no such api: "+name)
}
func (s *stubFS) Env() map[string]string { return nil }
func (s *stubFS) On(string, func(args ...any)) func() {
	return func() {}
}
func (s *stubFS) Emit(string, ...any) {}

var _ vfs.FS = (*stubFS)(nil)

// TestHeadOfFile covers spec §8 S1.
func TestHeadOfFile(t *testing.T) {
	fs := &stubFS{
		readFile: func(ctx context.Context, path string, opts vfs.Options) (*vfs.Meta, error) {
			if path != "/foo" || !opts.Head {
				t.Fatalf("unexpected call: path=%q head=%v", path, opts.Head)
			}
			return &vfs.Meta{Mime: "text/plain", Size: 17}, nil
		},
	}
	gw := New(fs, config.GatewayConfig{MountPrefix: "/m/"}, nil, nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("HEAD", "/m/foo", nil)
	gw.ServeHTTP(w, req)

	if w.Code != 200 {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if got := w.Header().Get("Content-Type"); got != "text/plain" {
		t.Fatalf("Content-Type = %q", got)
	}
	if got := w.Header().Get("Content-Length"); got != "17" {
		t.Fatalf("Content-Length = %q", got)
	}
	if body := w.Body.String(); body != "" {
		t.Fatalf("expected empty body, got %q", body)
	}
}

// TestDirectoryListing covers spec §8 S2.
func TestDirectoryListing(t *testing.T) {
	dir := &fakeDirStream{entries: []any{map[string]string{"name": "a"}, map[string]string{"name": "b"}}}
	fs := &stubFS{
		readDir: func(ctx context.Context, path string, opts vfs.Options) (*vfs.Meta, error) {
			if path != "/d/" || opts.Encoding != "null" {
				t.Fatalf("unexpected call: path=%q encoding=%q", path, opts.Encoding)
			}
			dir.start()
			return &vfs.Meta{Stream: dir}, nil
		},
	}
	gw := New(fs, config.GatewayConfig{MountPrefix: "/m/"}, nil, nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/m/d/", nil)
	gw.ServeHTTP(w, req)

	if w.Code != 200 {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if got := w.Header().Get("Content-Type"); got != "application/json" {
		t.Fatalf("Content-Type = %q", got)
	}
	want := "[\n  {\"name\":\"a\"},\n  {\"name\":\"b\"}\n]"
	if got := w.Body.String(); got != want {
		t.Fatalf("body = %q, want %q", got, want)
	}
}

// TestRangeHit covers spec §8 S3.
func TestRangeHit(t *testing.T) {
	stream := &fakeReadable{chunks: [][]byte{[]byte("0123456789")}}
	fs := &stubFS{
		readFile: func(ctx context.Context, path string, opts vfs.Options) (*vfs.Meta, error) {
			if opts.Range == nil || opts.Range.Start == nil || *opts.Range.Start != 10 {
				t.Fatalf("unexpected range options: %+v", opts.Range)
			}
			stream.start()
			return &vfs.Meta{
				Stream:         stream,
				Size:           10,
				PartialContent: &vfs.PartialContent{Start: 10, End: 19, Size: 100},
			}, nil
		},
	}
	gw := New(fs, config.GatewayConfig{MountPrefix: "/m/"}, nil, nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/m/f", nil)
	req.Header.Set("Range", "bytes=10-19")
	gw.ServeHTTP(w, req)

	if w.Code != 206 {
		t.Fatalf("status = %d, want 206", w.Code)
	}
	if got := w.Header().Get("Content-Range"); got != "bytes 10-19/100" {
		t.Fatalf("Content-Range = %q", got)
	}
	if got := w.Header().Get("Content-Length"); got != "10" {
		t.Fatalf("Content-Length = %q", got)
	}
}

// TestOversizedStream covers spec §8 S4.
func TestOversizedStream(t *testing.T) {
	const size = 9 * 1024 * 1024
	stream := &fakeReadable{}
	fs := &stubFS{
		readFile: func(ctx context.Context, path string, opts vfs.Options) (*vfs.Meta, error) {
			return &vfs.Meta{Stream: stream, Size: size}, nil
		},
	}
	gw := New(fs, config.GatewayConfig{MountPrefix: "/m/"}, nil, nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/m/huge", nil)
	gw.ServeHTTP(w, req)

	if w.Code != 513 {
		t.Fatalf("status = %d, want 513", w.Code)
	}
	want := "File size is bigger than allowed (8MB). Size is 9437184 bytes\n"
	if got := w.Body.String(); got != want {
		t.Fatalf("body = %q, want %q", got, want)
	}
	if !stream.destroyed {
		t.Fatal("expected stream to be destroyed")
	}
}

// TestPostRename covers spec §8 S5.
func TestPostRename(t *testing.T) {
	var gotPath, gotFrom string
	fs := &stubFS{
		rename: func(ctx context.Context, path string, opts vfs.Options) (*vfs.Meta, error) {
			gotPath, gotFrom = path, opts.From
			return &vfs.Meta{}, nil
		},
	}
	gw := New(fs, config.GatewayConfig{MountPrefix: "/m/"}, nil, nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/m/a", strings.NewReader(`{"renameFrom":"/b"}`))
	gw.ServeHTTP(w, req)

	if w.Code != 200 {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if gotPath != "/a" || gotFrom != "/b" {
		t.Fatalf("rename(%q, {from: %q})", gotPath, gotFrom)
	}
	if body := w.Body.String(); body != "" {
		t.Fatalf("expected empty body, got %q", body)
	}
	if got := w.Header().Get("Content-Type"); got != "text/plain" {
		t.Fatalf("Content-Type = %q", got)
	}
}

// TestOutsideMountForwarded verifies a request outside the mount
// prefix is handed to the next handler untouched.
func TestOutsideMountForwarded(t *testing.T) {
	called := false
	next := http.HandlerFunc(func(http.ResponseWriter, *http.Request) { called = true })
	gw := New(&stubFS{}, config.GatewayConfig{MountPrefix: "/m/"}, next, nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/other", nil)
	gw.ServeHTTP(w, req)

	if !called {
		t.Fatal("expected request to be forwarded to next handler")
	}
}

// TestReadOnlyForwardsWrites verifies read-only mode hands non-GET/HEAD
// methods to the next handler instead of dispatching to the VFS.
func TestReadOnlyForwardsWrites(t *testing.T) {
	called := false
	next := http.HandlerFunc(func(http.ResponseWriter, *http.Request) { called = true })
	gw := New(&stubFS{}, config.GatewayConfig{MountPrefix: "/m/", ReadOnly: true}, next, nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("PUT", "/m/foo", nil)
	gw.ServeHTTP(w, req)

	if !called {
		t.Fatal("expected write request to be forwarded in read-only mode")
	}
}
