// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package rpcchannel

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// pair establishes a connected client/server Channel over an
// httptest.Server, for use by tests that need a live Channel without
// going through the transport package's TCP listener.
func pair(t *testing.T, capacity int) (server *Channel, client *Channel) {
	t.Helper()

	mux := http.NewServeMux()
	serverCh := make(chan *Channel, 1)
	Mount(mux, capacity, nil, func(ch *Channel) { serverCh <- ch })

	httpServer := httptest.NewServer(mux)
	t.Cleanup(httpServer.Close)

	wsURL := "ws" + strings.TrimPrefix(httpServer.URL, "http") + rpcPath
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dialing: %v", err)
	}
	client = New(conn, capacity, nil)

	select {
	case server = <-serverCh:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for server-side channel")
	}

	go server.Run(context.Background())
	go client.Run(context.Background())

	t.Cleanup(func() {
		server.Close()
		client.Close()
	})

	return server, client
}

func TestChannelRoundTrip(t *testing.T) {
	server, client := pair(t, DefaultCapacity)

	if !client.Send(Message{Method: "ping", Call: 1}) {
		t.Fatal("expected Send to succeed on an empty queue")
	}

	select {
	case msg := <-server.Inbound():
		if msg.Method != "ping" || msg.Call != 1 {
			t.Fatalf("unexpected message: %+v", msg)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for message")
	}
}

func TestChannelBackpressureAndDrain(t *testing.T) {
	_, client := pair(t, 4)

	// Stall the client's write loop by closing its underlying
	// connection out from under it isn't safe to test directly, so
	// instead we fill the queue faster than the (fast, local) write
	// loop can drain it by sending a burst and relying on the queue's
	// bounded capacity: once full, Send must report false.
	accepted := 0
	for i := 0; i < 10000; i++ {
		if !client.Send(Message{Method: "noop", Args: []any{i}}) {
			break
		}
		accepted++
	}

	drained := make(chan struct{}, 1)
	client.OnDrain(func() {
		select {
		case drained <- struct{}{}:
		default:
		}
	})

	// Whether or not we observed a full queue (the write loop may
	// have kept pace), the channel must still be usable afterward.
	if !client.Send(Message{Method: "noop"}) {
		t.Skip("write loop kept pace with the burst; backpressure not observable in this run")
	}
}
