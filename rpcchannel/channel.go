// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package rpcchannel

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/gorilla/websocket"

	"github.com/relayfs/relayfs/lib/codec"
	"github.com/relayfs/relayfs/transport"
)

// DefaultCapacity is the default bound on a Channel's outbound queue
// before Send reports "not accepting" (spec §4.4/§5 backpressure).
const DefaultCapacity = 256

// rpcPath is the fixed HTTP path the RPC worker's WebSocket upgrade
// is mounted at, alongside the HTTP Gateway's mount prefix, on the
// same transport.Listener.
const rpcPath = "/__relayfs_rpc__"

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	// Origin checking is meaningless for a non-browser peer-to-peer
	// connection and would only get in the way.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Channel is a bidirectional, message-oriented, backpressured
// connection carrying rpcchannel Messages between one connection's
// RPC dispatcher and its peer.
type Channel struct {
	conn     *websocket.Conn
	logger   *slog.Logger
	capacity int

	outbound chan Message
	inbound  chan Message

	highWater atomic.Bool
	drainMu   sync.Mutex
	drainFns  []func()

	closeOnce sync.Once
	closed    chan struct{}
	closeErr  error
}

// New wraps an already-established WebSocket connection in a Channel.
// capacity bounds the outbound queue; zero uses DefaultCapacity. If
// logger is nil, slog.Default() is used.
func New(conn *websocket.Conn, capacity int, logger *slog.Logger) *Channel {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Channel{
		conn:     conn,
		logger:   logger,
		capacity: capacity,
		outbound: make(chan Message, capacity),
		inbound:  make(chan Message, capacity),
		closed:   make(chan struct{}),
	}
}

// Upgrade completes a server-side WebSocket handshake on an inbound
// HTTP request and returns the resulting Channel. Mount a handler for
// rpcPath on the same mux that serves the HTTP Gateway.
func Upgrade(w http.ResponseWriter, r *http.Request, capacity int, logger *slog.Logger) (*Channel, error) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return nil, fmt.Errorf("rpcchannel: upgrade: %w", err)
	}
	return New(conn, capacity, logger), nil
}

// Mount registers the RPC WebSocket endpoint at rpcPath on mux,
// calling onChannel for every successfully established Channel.
func Mount(mux *http.ServeMux, capacity int, logger *slog.Logger, onChannel func(*Channel)) {
	mux.HandleFunc(rpcPath, func(w http.ResponseWriter, r *http.Request) {
		ch, err := Upgrade(w, r, capacity, logger)
		if err != nil {
			logger.Error("rpc channel upgrade failed", "error", err)
			return
		}
		onChannel(ch)
	})
}

// Dial opens a client-side Channel to a peer's RPC endpoint through
// dialer, which resolves address the same way transport.Dialer always
// does (TCP host:port).
func Dial(ctx context.Context, dialer transport.Dialer, address string, capacity int, logger *slog.Logger) (*Channel, error) {
	wsDialer := &websocket.Dialer{
		NetDialContext: func(ctx context.Context, _, _ string) (net.Conn, error) {
			return dialer.DialContext(ctx, address)
		},
	}
	conn, _, err := wsDialer.DialContext(ctx, "ws://"+address+rpcPath, nil)
	if err != nil {
		return nil, fmt.Errorf("rpcchannel: dial %s: %w", address, err)
	}
	return New(conn, capacity, logger), nil
}

// Run starts the channel's read and write loops. The write loop runs
// in a background goroutine; the read loop runs on the calling
// goroutine and Run blocks until the connection fails, Close is
// called, or ctx is cancelled. The returned error is the terminal
// read error, or nil on a clean Close.
func (c *Channel) Run(ctx context.Context) error {
	go c.writeLoop()

	go func() {
		<-ctx.Done()
		c.Close()
	}()

	return c.readLoop()
}

func (c *Channel) readLoop() error {
	defer close(c.inbound)
	defer c.Close()

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return err
		}
		var msg Message
		if err := codec.Unmarshal(data, &msg); err != nil {
			c.logger.Error("rpc channel: malformed message, dropping", "error", err)
			continue
		}
		select {
		case c.inbound <- msg:
		case <-c.closed:
			return nil
		}
	}
}

func (c *Channel) writeLoop() {
	for {
		select {
		case msg, ok := <-c.outbound:
			if !ok {
				return
			}
			data, err := codec.Marshal(msg)
			if err != nil {
				c.logger.Error("rpc channel: failed to encode message, dropping", "error", err)
				c.checkDrain()
				continue
			}
			if err := c.conn.WriteMessage(websocket.BinaryMessage, data); err != nil {
				c.logger.Debug("rpc channel: write failed", "error", err)
				c.Close()
				return
			}
			c.checkDrain()
		case <-c.closed:
			return
		}
	}
}

// checkDrain fires every registered drain handler exactly once per
// crossing of the outbound queue's occupancy back below half
// capacity, after having been observed at or above it.
func (c *Channel) checkDrain() {
	occupancy := len(c.outbound)
	if occupancy*2 >= c.capacity {
		c.highWater.Store(true)
		return
	}
	if c.highWater.CompareAndSwap(true, false) {
		c.drainMu.Lock()
		fns := append([]func(){}, c.drainFns...)
		c.drainMu.Unlock()
		for _, fn := range fns {
			fn()
		}
	}
}

// Send enqueues msg for delivery and reports whether the outbound
// queue accepted it. A false return is the concrete "not accepting"
// signal spec §4.4 backpressure is built on: the caller (the Handle
// Registry's stream subscription, typically) must pause its source
// until OnDrain fires.
func (c *Channel) Send(msg Message) bool {
	select {
	case c.outbound <- msg:
		if len(c.outbound)*2 >= c.capacity {
			c.highWater.Store(true)
		}
		return true
	default:
		c.highWater.Store(true)
		return false
	}
}

// OnDrain registers a handler invoked whenever the outbound queue's
// occupancy crosses back below half capacity after being at or above
// it (spec §4.4's "drain" signal).
func (c *Channel) OnDrain(handler func()) {
	c.drainMu.Lock()
	c.drainFns = append(c.drainFns, handler)
	c.drainMu.Unlock()
}

// Inbound returns the channel of messages received from the peer.
// Closed once the read loop exits.
func (c *Channel) Inbound() <-chan Message {
	return c.inbound
}

// Closed returns a channel closed once the Channel has shut down,
// either via Close or a terminal read/write error.
func (c *Channel) Closed() <-chan struct{} {
	return c.closed
}

// Close shuts down the underlying connection. Idempotent.
func (c *Channel) Close() error {
	c.closeOnce.Do(func() {
		close(c.closed)
		c.closeErr = c.conn.Close()
	})
	return c.closeErr
}
