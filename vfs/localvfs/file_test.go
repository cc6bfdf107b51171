// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package localvfs

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/relayfs/relayfs/vfs"
)

type bytesReaderWithLen struct {
	*bytes.Reader
}

func (b bytesReaderWithLen) Len() int64 { return int64(b.Reader.Len()) }

func newTestFS(t *testing.T) *FS {
	t.Helper()
	dir := t.TempDir()
	fs, err := New(Options{Root: dir})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return fs
}

func readAll(t *testing.T, readable vfs.Readable) []byte {
	t.Helper()
	var buf bytes.Buffer
	done := make(chan struct{})
	readable.OnData(func(chunk []byte) bool {
		buf.Write(chunk)
		return true
	})
	readable.OnEnd(func() { close(done) })
	<-done
	return buf.Bytes()
}

func TestMkFileThenReadFile(t *testing.T) {
	fs := newTestFS(t)
	ctx := context.Background()

	content := []byte("hello relayfs")
	meta, err := fs.MkFile(ctx, "/greeting.txt", vfs.Options{
		StreamInput: bytesReaderWithLen{bytes.NewReader(content)},
	})
	if err != nil {
		t.Fatalf("MkFile: %v", err)
	}
	if meta.Size != int64(len(content)) {
		t.Fatalf("MkFile size = %d, want %d", meta.Size, len(content))
	}

	readMeta, err := fs.ReadFile(ctx, "/greeting.txt", vfs.Options{})
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	readable, ok := readMeta.Stream.(vfs.Readable)
	if !ok {
		t.Fatal("ReadFile did not return a vfs.Readable stream")
	}
	if got := readAll(t, readable); !bytes.Equal(got, content) {
		t.Fatalf("read back %q, want %q", got, content)
	}
}

func TestReadFileNotFound(t *testing.T) {
	fs := newTestFS(t)
	_, err := fs.ReadFile(context.Background(), "/missing.txt", vfs.Options{})
	if !vfs.IsNotFound(err) {
		t.Fatalf("expected a not-found error, got %v", err)
	}
}

func TestReadFileEtagShortCircuitsNotModified(t *testing.T) {
	fs := newTestFS(t)
	ctx := context.Background()

	if _, err := fs.MkFile(ctx, "/a.txt", vfs.Options{
		StreamInput: bytesReaderWithLen{bytes.NewReader([]byte("a"))},
	}); err != nil {
		t.Fatalf("MkFile: %v", err)
	}

	first, err := fs.ReadFile(ctx, "/a.txt", vfs.Options{})
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if first.Etag == "" {
		t.Fatal("expected a synthesized etag")
	}

	second, err := fs.ReadFile(ctx, "/a.txt", vfs.Options{Etag: first.Etag})
	if err != nil {
		t.Fatalf("ReadFile (conditional): %v", err)
	}
	if !second.NotModified {
		t.Fatal("expected NotModified when etag matches")
	}
}

func TestReadFileRange(t *testing.T) {
	fs := newTestFS(t)
	ctx := context.Background()

	content := []byte("0123456789")
	if _, err := fs.MkFile(ctx, "/range.bin", vfs.Options{
		StreamInput: bytesReaderWithLen{bytes.NewReader(content)},
	}); err != nil {
		t.Fatalf("MkFile: %v", err)
	}

	start, end := int64(2), int64(5)
	meta, err := fs.ReadFile(ctx, "/range.bin", vfs.Options{
		Range: &vfs.RangeRequest{Start: &start, End: &end},
	})
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if meta.PartialContent == nil {
		t.Fatal("expected PartialContent to be set")
	}
	readable := meta.Stream.(vfs.Readable)
	got := readAll(t, readable)
	if string(got) != "2345" {
		t.Fatalf("range read = %q, want %q", got, "2345")
	}
}

func TestAppendFile(t *testing.T) {
	fs := newTestFS(t)
	ctx := context.Background()

	if _, err := fs.MkFile(ctx, "/log.txt", vfs.Options{
		StreamInput: bytesReaderWithLen{bytes.NewReader([]byte("first\n"))},
	}); err != nil {
		t.Fatalf("MkFile: %v", err)
	}
	if _, err := fs.AppendFile(ctx, "/log.txt", vfs.Options{
		StreamInput: bytesReaderWithLen{bytes.NewReader([]byte("second\n"))},
	}); err != nil {
		t.Fatalf("AppendFile: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(fs.root, "log.txt"))
	if err != nil {
		t.Fatalf("reading appended file: %v", err)
	}
	if string(data) != "first\nsecond\n" {
		t.Fatalf("appended content = %q", data)
	}
}

func TestRmFile(t *testing.T) {
	fs := newTestFS(t)
	ctx := context.Background()

	if _, err := fs.MkFile(ctx, "/gone.txt", vfs.Options{
		StreamInput: bytesReaderWithLen{bytes.NewReader([]byte("x"))},
	}); err != nil {
		t.Fatalf("MkFile: %v", err)
	}
	if _, err := fs.RmFile(ctx, "/gone.txt", vfs.Options{}); err != nil {
		t.Fatalf("RmFile: %v", err)
	}
	if _, err := os.Stat(filepath.Join(fs.root, "gone.txt")); !os.IsNotExist(err) {
		t.Fatal("expected file to be removed")
	}
}

func TestMkFileWithoutStreamInputReturnsWritable(t *testing.T) {
	fs := newTestFS(t)
	ctx := context.Background()

	meta, err := fs.MkFile(ctx, "/driven.txt", vfs.Options{})
	if err != nil {
		t.Fatalf("MkFile: %v", err)
	}
	writable, ok := meta.Stream.(vfs.Writable)
	if !ok {
		t.Fatal("expected a vfs.Writable when StreamInput is absent")
	}
	writable.End([]byte("driven by caller"))

	data, err := os.ReadFile(filepath.Join(fs.root, "driven.txt"))
	if err != nil {
		t.Fatalf("reading file: %v", err)
	}
	if string(data) != "driven by caller" {
		t.Fatalf("content = %q", data)
	}
}

var _ io.Reader = bytesReaderWithLen{}
