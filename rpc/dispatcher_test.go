// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package rpc

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	gorillaws "github.com/gorilla/websocket"

	"github.com/relayfs/relayfs/rpcchannel"
	"github.com/relayfs/relayfs/vfs"
)

// fakeFS is a minimal vfs.FS used to exercise the dispatcher without
// a real filesystem backing it.
type fakeFS struct {
	stats map[string]*vfs.Stat
}

func newFakeFS() *fakeFS {
	return &fakeFS{stats: map[string]*vfs.Stat{
		"/hello": {Name: "hello", Size: 17, Mime: "text/plain"},
	}}
}

func (f *fakeFS) Resolve(ctx context.Context, path string, opts vfs.Options) (*vfs.Meta, error) {
	return &vfs.Meta{}, nil
}

func (f *fakeFS) Stat(ctx context.Context, path string, opts vfs.Options) (*vfs.Meta, error) {
	st, ok := f.stats[path]
	if !ok {
		return nil, vfs.NewError(vfs.CodeNotFound, "not found: "+path)
	}
	return &vfs.Meta{Stat: st}, nil
}

func (f *fakeFS) Metadata(ctx context.Context, path string, opts vfs.Options) (*vfs.Meta, error) {
	return &vfs.Meta{}, nil
}
func (f *fakeFS) ReadFile(ctx context.Context, path string, opts vfs.Options) (*vfs.Meta, error) {
	return &vfs.Meta{}, nil
}
func (f *fakeFS) ReadDir(ctx context.Context, path string, opts vfs.Options) (*vfs.Meta, error) {
	return &vfs.Meta{}, nil
}
func (f *fakeFS) MkFile(ctx context.Context, path string, opts vfs.Options) (*vfs.Meta, error) {
	return &vfs.Meta{}, nil
}
func (f *fakeFS) MkDir(ctx context.Context, path string, opts vfs.Options) (*vfs.Meta, error) {
	return &vfs.Meta{}, nil
}
func (f *fakeFS) MkDirP(ctx context.Context, path string, opts vfs.Options) (*vfs.Meta, error) {
	return &vfs.Meta{}, nil
}
func (f *fakeFS) AppendFile(ctx context.Context, path string, opts vfs.Options) (*vfs.Meta, error) {
	return &vfs.Meta{}, nil
}
func (f *fakeFS) RmFile(ctx context.Context, path string, opts vfs.Options) (*vfs.Meta, error) {
	return &vfs.Meta{}, nil
}
func (f *fakeFS) RmDir(ctx context.Context, path string, opts vfs.Options) (*vfs.Meta, error) {
	return &vfs.Meta{}, nil
}
func (f *fakeFS) Rename(ctx context.Context, path string, opts vfs.Options) (*vfs.Meta, error) {
	return &vfs.Meta{}, nil
}
func (f *fakeFS) Copy(ctx context.Context, path string, opts vfs.Options) (*vfs.Meta, error) {
	return &vfs.Meta{}, nil
}
func (f *fakeFS) Chmod(ctx context.Context, path string, opts vfs.Options) (*vfs.Meta, error) {
	return &vfs.Meta{}, nil
}
func (f *fakeFS) Symlink(ctx context.Context, path string, opts vfs.Options) (*vfs.Meta, error) {
	return &vfs.Meta{}, nil
}
func (f *fakeFS) Watch(ctx context.Context, path string, opts vfs.Options) (*vfs.Meta, error) {
	return &vfs.Meta{}, nil
}
func (f *fakeFS) Connect(ctx context.Context, path string, opts vfs.Options) (*vfs.Meta, error) {
	return &vfs.Meta{}, nil
}
func (f *fakeFS) Spawn(ctx context.Context, path string, opts vfs.Options) (*vfs.Meta, error) {
	return &vfs.Meta{}, nil
}
func (f *fakeFS) KillTree(ctx context.Context, pid int, opts vfs.Options) error { return nil }
func (f *fakeFS) PTY(ctx context.Context, path string, opts vfs.Options) (*vfs.Meta, error) {
	return &vfs.Meta{}, nil
}
func (f *fakeFS) Tmux(ctx context.Context, path string, opts vfs.Options) (*vfs.Meta, error) {
	return &vfs.Meta{}, nil
}
func (f *fakeFS) ExecFile(ctx context.Context, path string, opts vfs.Options) (*vfs.Meta, error) {
	return &vfs.Meta{}, nil
}
func (f *fakeFS) Extend(name string, api vfs.Api) error { return nil }
func (f *fakeFS) Unextend(name string) error            { return nil }
func (f *fakeFS) Use(name string) (vfs.Api, error) {
	return nil, vfs.NewError(vfs.CodeNotFound, "no such api: "+name)
}
func (f *fakeFS) Env() map[string]string { return nil }
func (f *fakeFS) On(event string, handler func(args ...any)) func() {
	return func() {}
}
func (f *fakeFS) Emit(event string, args ...any) {}

var _ vfs.FS = (*fakeFS)(nil)

// dispatcherPair starts a Dispatcher on a server-side Channel and
// returns it alongside a raw peer Channel for driving messages in.
func dispatcherPair(t *testing.T, fs vfs.FS) (*Dispatcher, *rpcchannel.Channel) {
	t.Helper()

	mux := http.NewServeMux()
	serverCh := make(chan *rpcchannel.Channel, 1)
	rpcchannel.Mount(mux, rpcchannel.DefaultCapacity, nil, func(ch *rpcchannel.Channel) {
		serverCh <- ch
	})
	httpServer := httptest.NewServer(mux)
	t.Cleanup(httpServer.Close)

	wsURL := "ws" + strings.TrimPrefix(httpServer.URL, "http") + "/__relayfs_rpc__"
	conn, _, err := gorillaws.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dialing: %v", err)
	}
	peer := rpcchannel.New(conn, rpcchannel.DefaultCapacity, nil)

	var server *rpcchannel.Channel
	select {
	case server = <-serverCh:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for server channel")
	}

	dispatcher := NewDispatcher(fs, server, nil)
	ctx, cancel := context.WithCancel(context.Background())
	go server.Run(ctx)
	go peer.Run(context.Background())
	go dispatcher.Run(ctx)

	t.Cleanup(func() {
		cancel()
		peer.Close()
	})

	return dispatcher, peer
}

func TestDispatcherPingServerTime(t *testing.T) {
	_, peer := dispatcherPair(t, newFakeFS())

	peer.Send(rpcchannel.Message{Method: "ping", Call: 1, Args: []any{"serverTime"}})

	select {
	case reply := <-peer.Inbound():
		if !reply.Reply || reply.Call != 1 {
			t.Fatalf("unexpected reply: %+v", reply)
		}
		result, ok := reply.Args[0].(map[string]any)
		if !ok {
			t.Fatalf("expected map result, got %T", reply.Args[0])
		}
		elapsed, ok := toInt64(result["serverTime"])
		if !ok || elapsed < 0 {
			t.Fatalf("unexpected serverTime: %+v", result)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for ping reply")
	}
}

func TestDispatcherRoutedStat(t *testing.T) {
	_, peer := dispatcherPair(t, newFakeFS())

	peer.Send(rpcchannel.Message{Method: "stat", Call: 7, Args: []any{"/hello", map[string]any{}}})

	select {
	case reply := <-peer.Inbound():
		if reply.Err != nil {
			t.Fatalf("unexpected error: %+v", reply.Err)
		}
		result, ok := reply.Args[0].(map[string]any)
		if !ok {
			t.Fatalf("expected map result, got %T", reply.Args[0])
		}
		if _, ok := result["stat"]; !ok {
			t.Fatalf("expected stat key in result: %+v", result)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for stat reply")
	}
}

func TestDispatcherRoutedInvalidPath(t *testing.T) {
	_, peer := dispatcherPair(t, newFakeFS())

	peer.Send(rpcchannel.Message{Method: "stat", Call: 3, Args: []any{"", map[string]any{}}})

	select {
	case reply := <-peer.Inbound():
		if reply.Err == nil || reply.Err.Code != string(vfs.CodeInvalidPath) {
			t.Fatalf("expected EINVALIDPATH, got %+v", reply.Err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for reply")
	}
}

func TestDispatcherUnknownMethodSilentlyIgnored(t *testing.T) {
	_, peer := dispatcherPair(t, newFakeFS())

	peer.Send(rpcchannel.Message{Method: "notAMethod", Call: 9})

	select {
	case reply := <-peer.Inbound():
		t.Fatalf("expected no reply for unknown method, got %+v", reply)
	case <-time.After(300 * time.Millisecond):
	}
}
