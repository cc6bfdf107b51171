// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package rpc

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/relayfs/relayfs/registry"
	"github.com/relayfs/relayfs/rpcchannel"
	"github.com/relayfs/relayfs/vfs"
)

// Dispatcher is the RPC Dispatcher (spec §4.5): it owns one
// connection's Handle Registry and routes every inbound Message to
// the matching handler from the fixed method table.
type Dispatcher struct {
	fs     vfs.FS
	reg    *registry.Registry
	ch     *rpcchannel.Channel
	peer   *peerBridge
	remote *remoteControl
	logger *slog.Logger
	start  time.Time

	subMu         sync.Mutex
	subscriptions map[string]func()
}

// NewDispatcher constructs a Dispatcher serving fs over ch. If logger
// is nil, slog.Default() is used.
func NewDispatcher(fs vfs.FS, ch *rpcchannel.Channel, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	bridge := &peerBridge{ch: ch}
	reg := registry.New(bridge, logger)
	remote := &remoteControl{ch: ch}

	d := &Dispatcher{
		fs:            fs,
		reg:           reg,
		ch:            ch,
		peer:          bridge,
		remote:        remote,
		logger:        logger,
		start:         time.Now(),
		subscriptions: make(map[string]func()),
	}
	WireFlowController(reg, ch)
	return d
}

// Registry returns the connection's Handle Registry.
func (d *Dispatcher) Registry() *registry.Registry { return d.reg }

// SetWatcherCompressionThreshold sets the byte size above which
// OnChange's files[] listing is lz4-compressed before being sent
// (lib/config.RegistryConfig.WatcherPayloadCompressionThreshold).
func (d *Dispatcher) SetWatcherCompressionThreshold(threshold int) {
	d.peer.watcherCompressionThreshold = threshold
}

// Run drains the channel's inbound messages and dispatches each to
// the matching handler, until ctx is cancelled or the channel closes.
// On exit it runs the spec §4.1 disconnect teardown.
func (d *Dispatcher) Run(ctx context.Context) {
	defer d.teardown()
	for {
		select {
		case msg, ok := <-d.ch.Inbound():
			if !ok {
				return
			}
			d.handle(ctx, msg)
		case <-ctx.Done():
			return
		}
	}
}

func (d *Dispatcher) teardown() {
	d.subMu.Lock()
	subs := d.subscriptions
	d.subscriptions = make(map[string]func())
	d.subMu.Unlock()
	for _, unsubscribe := range subs {
		unsubscribe()
	}
	d.reg.Teardown(vfs.ErrDisconnect)
}

// handle routes one inbound Message. Unknown methods yield no
// response (spec §4.5's "dispatcher silently ignores absent handles
// rather than faulting" extends to unknown method names too).
func (d *Dispatcher) handle(ctx context.Context, msg rpcchannel.Message) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("rpc dispatcher: handler panic", "method", msg.Method, "panic", r)
		}
	}()

	switch msg.Method {
	case "write":
		d.handleWrite(msg)
	case "end":
		d.handleEnd(msg)
	case "destroy":
		d.handleDestroy(msg)
	case "pause":
		d.handlePause(msg)
	case "resume":
		d.handleResume(msg)

	case "onData":
		d.handleProxyData(msg)
	case "onEnd":
		d.handleProxyEnd(msg)
	case "onClose":
		d.handleProxyClose(msg)
	case "onError":
		d.handleProxyError(msg)

	case "kill":
		d.handleKill(msg)
	case "unref":
		d.handleUnref(msg)

	case "resize":
		d.handleResize(msg)

	case "close":
		d.handleWatcherClose(msg)

	case "call":
		d.handleCall(msg)

	case "subscribe":
		d.handleSubscribe(msg)
	case "unsubscribe":
		d.handleUnsubscribe(msg)
	case "emit":
		d.handleEmit(msg)

	case "ping":
		d.handlePing(msg)

	case "killtree":
		d.handleKillTree(ctx, msg)
	case "use":
		d.handleUse(msg)

	default:
		if op, ok := routedOperations[msg.Method]; ok {
			d.handleRoutedOp(ctx, op, msg)
		}
	}
}

// reply sends a correlated Reply for msg, when msg.Call requested
// one. One-way messages (Call == 0) get no response.
func (d *Dispatcher) reply(msg rpcchannel.Message, attributeTo int, result any, err error) {
	if msg.Call == 0 {
		return
	}
	d.ch.Send(rpcchannel.Message{
		Call:  msg.Call,
		Reply: true,
		Err:   BuildErrorEnvelope(attributeTo, err),
		Args:  []any{result},
	})
}

// --- per-stream: remote writes to our local writable ---

func (d *Dispatcher) handleWrite(msg rpcchannel.Message) {
	id, ok := toInt(argAt(msg.Args, 0))
	if !ok {
		return
	}
	chunk, _ := argAt(msg.Args, 1).([]byte)
	if s, ok := d.reg.LookupStream(id); ok {
		if w, ok := s.(vfs.Writable); ok {
			w.Write(chunk)
			return
		}
	}
	if p, ok := d.reg.LookupPty(id); ok {
		p.Write(chunk)
	}
}

func (d *Dispatcher) handleEnd(msg rpcchannel.Message) {
	id, ok := toInt(argAt(msg.Args, 0))
	if !ok {
		return
	}
	chunk, _ := argAt(msg.Args, 1).([]byte)
	if s, ok := d.reg.LookupStream(id); ok {
		if w, ok := s.(vfs.Writable); ok {
			w.End(chunk)
			return
		}
	}
	if p, ok := d.reg.LookupPty(id); ok {
		p.End(chunk)
	}
}

// --- per-stream: remote controls our local readable ---

func (d *Dispatcher) handleDestroy(msg rpcchannel.Message) {
	id, ok := toInt(argAt(msg.Args, 0))
	if !ok {
		return
	}
	if s, ok := d.reg.LookupStream(id); ok {
		if r, ok := s.(vfs.Readable); ok {
			r.Destroy()
			return
		}
	}
	if p, ok := d.reg.LookupPty(id); ok {
		p.Destroy()
	}
}

func (d *Dispatcher) handlePause(msg rpcchannel.Message) {
	id, ok := toInt(argAt(msg.Args, 0))
	if !ok {
		return
	}
	if s, ok := d.reg.LookupStream(id); ok {
		if r, ok := s.(vfs.Readable); ok {
			r.Pause()
			return
		}
	}
	if p, ok := d.reg.LookupPty(id); ok {
		p.Pause()
	}
}

func (d *Dispatcher) handleResume(msg rpcchannel.Message) {
	id, ok := toInt(argAt(msg.Args, 0))
	if !ok {
		return
	}
	if s, ok := d.reg.LookupStream(id); ok {
		if r, ok := s.(vfs.Readable); ok {
			r.Resume()
			return
		}
	}
	if p, ok := d.reg.LookupPty(id); ok {
		p.Resume()
	}
}

// --- per-stream: peer is our proxy target ---

func (d *Dispatcher) handleProxyData(msg rpcchannel.Message) {
	id, ok := toInt(argAt(msg.Args, 0))
	if !ok {
		return
	}
	chunk, _ := argAt(msg.Args, 1).([]byte)
	if proxy, ok := d.reg.LookupProxy(id); ok {
		proxy.DeliverData(chunk)
	}
}

func (d *Dispatcher) handleProxyEnd(msg rpcchannel.Message) {
	id, ok := toInt(argAt(msg.Args, 0))
	if !ok {
		return
	}
	if proxy, ok := d.reg.LookupProxy(id); ok {
		proxy.DeliverEnd()
	}
}

func (d *Dispatcher) handleProxyClose(msg rpcchannel.Message) {
	id, ok := toInt(argAt(msg.Args, 0))
	if !ok {
		return
	}
	if proxy, ok := d.reg.LookupProxy(id); ok {
		proxy.DeliverClose()
	}
}

func (d *Dispatcher) handleProxyError(msg rpcchannel.Message) {
	id, ok := toInt(argAt(msg.Args, 0))
	if !ok {
		return
	}
	if proxy, ok := d.reg.LookupProxy(id); ok {
		proxy.DeliverError(envelopeToError(msg.Err))
	}
}

// --- per-process ---

func (d *Dispatcher) handleKill(msg rpcchannel.Message) {
	pid, ok := toInt(argAt(msg.Args, 0))
	if !ok {
		return
	}
	signal, ok := toString(argAt(msg.Args, 1))
	if !ok || signal == "" {
		signal = "SIGTERM"
	}
	if p, ok := d.reg.LookupProcess(pid); ok {
		if err := p.Kill(signal); err != nil {
			d.logger.Debug("rpc: kill failed", "pid", pid, "error", err)
		}
	}
}

func (d *Dispatcher) handleUnref(msg rpcchannel.Message) {
	pid, ok := toInt(argAt(msg.Args, 0))
	if !ok {
		return
	}
	if p, ok := d.reg.LookupProcess(pid); ok {
		p.Unref()
	}
}

// --- per-PTY ---

// handleResize must swallow failures from the underlying resize call
// (spec §4.5): a remote peer racing a resize against PTY teardown is
// expected, not exceptional.
func (d *Dispatcher) handleResize(msg rpcchannel.Message) {
	id, ok := toInt(argAt(msg.Args, 0))
	if !ok {
		return
	}
	cols, _ := toInt(argAt(msg.Args, 1))
	rows, _ := toInt(argAt(msg.Args, 2))
	if p, ok := d.reg.LookupPty(id); ok {
		if err := p.Resize(cols, rows); err != nil {
			d.logger.Debug("rpc: pty resize failed", "id", id, "error", err)
		}
	}
}

// --- per-watcher ---

func (d *Dispatcher) handleWatcherClose(msg rpcchannel.Message) {
	id, ok := toInt(argAt(msg.Args, 0))
	if !ok {
		return
	}
	if w, ok := d.reg.LookupWatcher(id); ok {
		if err := w.Close(); err != nil {
			d.logger.Debug("rpc: watcher close failed", "id", id, "error", err)
		}
	}
	d.reg.RemoveWatcher(id)
}

// --- per-API ---

func (d *Dispatcher) handleCall(msg rpcchannel.Message) {
	name, ok := toString(argAt(msg.Args, 0))
	if !ok {
		d.reply(msg, 0, nil, vfs.NewError(vfs.CodeBadRequest, "call: missing api name"))
		return
	}
	fnName, ok := toString(argAt(msg.Args, 1))
	if !ok {
		d.reply(msg, 0, nil, vfs.NewError(vfs.CodeBadRequest, "call: missing function name"))
		return
	}
	var callArgs []any
	if list, ok := argAt(msg.Args, 2).([]any); ok {
		callArgs = list
	}

	api, ok := d.reg.LookupApi(name)
	if !ok {
		d.reply(msg, 0, nil, vfs.NewError(vfs.CodeNotFound, "call: unknown api "+name))
		return
	}
	result, err := api.Call(fnName, callArgs)
	d.reply(msg, 0, result, err)
}

// --- events ---

func (d *Dispatcher) handleSubscribe(msg rpcchannel.Message) {
	name, ok := toString(argAt(msg.Args, 0))
	if !ok {
		return
	}
	d.subMu.Lock()
	defer d.subMu.Unlock()
	if _, already := d.subscriptions[name]; already {
		return
	}
	d.subscriptions[name] = d.fs.On(name, func(args ...any) {
		d.peer.emitEvent(name, args)
	})
}

func (d *Dispatcher) handleUnsubscribe(msg rpcchannel.Message) {
	name, ok := toString(argAt(msg.Args, 0))
	if !ok {
		return
	}
	d.subMu.Lock()
	unsubscribe, ok := d.subscriptions[name]
	delete(d.subscriptions, name)
	d.subMu.Unlock()
	if ok {
		unsubscribe()
	}
}

func (d *Dispatcher) handleEmit(msg rpcchannel.Message) {
	name, ok := toString(argAt(msg.Args, 0))
	if !ok {
		return
	}
	d.fs.Emit(name, msg.Args[1:]...)
}

// --- ping ---

// handlePing implements spec §8 S7: ping("serverTime", cb) returns
// the elapsed time since the dispatcher (connection) was constructed.
// A plain ping with no recognized argument just acknowledges.
func (d *Dispatcher) handlePing(msg rpcchannel.Message) {
	if arg, ok := toString(argAt(msg.Args, 0)); ok && arg == "serverTime" {
		elapsed := time.Since(d.start).Milliseconds()
		d.reply(msg, 0, map[string]any{"serverTime": elapsed}, nil)
		return
	}
	d.reply(msg, 0, nil, nil)
}

// --- killtree / use (incompatible signatures, handled individually) ---

func (d *Dispatcher) handleKillTree(ctx context.Context, msg rpcchannel.Message) {
	pid, ok := toInt(argAt(msg.Args, 0))
	if !ok {
		d.reply(msg, 0, nil, vfs.ErrInvalidPath)
		return
	}
	rawOpts, _ := argAt(msg.Args, 1).(map[string]any)
	opts := decodeOptions(rawOpts, d.reg, d.remote)
	err := d.fs.KillTree(ctx, pid, opts)
	d.reply(msg, pid, nil, err)
}

func (d *Dispatcher) handleUse(msg rpcchannel.Message) {
	name, ok := toString(argAt(msg.Args, 0))
	if !ok {
		d.reply(msg, 0, nil, vfs.NewError(vfs.CodeBadRequest, "use: missing api name"))
		return
	}
	api, err := d.fs.Use(name)
	if err != nil {
		d.reply(msg, 0, nil, err)
		return
	}
	d.reply(msg, 0, map[string]any{"api": d.reg.StoreApi(api)}, nil)
}

// --- routed VFS operations (spec §4.5 bullet 8) ---

func (d *Dispatcher) handleRoutedOp(ctx context.Context, op routedOp, msg rpcchannel.Message) {
	if msg.Call == 0 {
		d.logger.Error("rpc: routed operation invoked without a callback", "method", msg.Method)
		return
	}
	path, _ := toString(argAt(msg.Args, 0))
	if path == "" {
		d.reply(msg, 0, nil, vfs.ErrInvalidPath)
		return
	}
	rawOpts, _ := argAt(msg.Args, 1).(map[string]any)
	opts := decodeOptions(rawOpts, d.reg, d.remote)

	meta, err := op(ctx, d.fs, path, opts)
	if err != nil {
		d.reply(msg, 0, nil, err)
		return
	}
	d.reply(msg, 0, ProjectMeta(d.reg, meta), nil)
}

// envelopeToError reconstructs a *vfs.Error from a wire ErrorEnvelope
// for delivery to a ProxyStream's local OnError listeners.
func envelopeToError(env *rpcchannel.ErrorEnvelope) error {
	if env == nil {
		return nil
	}
	return &vfs.Error{
		Code:    vfs.Code(env.Code),
		Message: env.Message,
		Stdout:  env.Stdout,
		Stderr:  env.Stderr,
	}
}
