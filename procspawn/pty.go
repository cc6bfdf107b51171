// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package procspawn

import (
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/relayfs/relayfs/lib/tmux"
	"github.com/relayfs/relayfs/vfs"
)

// pollInterval is how often a PTY session's pane is checked for exit,
// mirroring the 250ms budget lib/tmux's own PaneStatus retry window is
// sized against.
const pollInterval = 250 * time.Millisecond

// PtyManager owns a dedicated tmux server and hands out vfs.PTY handles
// backed by its sessions. One PtyManager is shared by every PTY/Tmux
// call a VFS implementation serves, the same way bureau's sandboxes all
// share one Launcher-owned tmux server.
type PtyManager struct {
	server *tmux.Server
	runDir string

	mu       sync.Mutex
	sessions map[string]*ptyHandle
	anon     int
}

// NewPtyManager starts (lazily, on first session) a tmux server rooted
// at socketPath, loading no configuration file. runDir holds the pipe
// FIFOs used to relay pane output.
func NewPtyManager(socketPath, runDir string) *PtyManager {
	return &PtyManager{
		server:   tmux.NewServer(socketPath, "/dev/null"),
		runDir:   runDir,
		sessions: make(map[string]*ptyHandle),
	}
}

// Spawn creates an anonymous, disposable tmux session running command
// and returns it as a vfs.PTY.
func (m *PtyManager) Spawn(command string, args []string, cols, rows int) (vfs.PTY, error) {
	m.mu.Lock()
	m.anon++
	name := fmt.Sprintf("relayfs-pty-%d-%d", os.Getpid(), m.anon)
	m.mu.Unlock()
	return m.open(name, command, args, cols, rows, true)
}

// Attach creates the named tmux session if it doesn't already exist and
// returns a vfs.PTY attached to it. Unlike Spawn, the session survives
// the returned handle being destroyed — path names a durable session,
// not a disposable one (spec §3's Tmux semantics).
func (m *PtyManager) Attach(name string, command string, args []string, cols, rows int) (vfs.PTY, error) {
	return m.open(name, command, args, cols, rows, false)
}

func (m *PtyManager) open(name, command string, args []string, cols, rows int, ephemeral bool) (vfs.PTY, error) {
	m.mu.Lock()
	if existing, ok := m.sessions[name]; ok {
		m.mu.Unlock()
		return existing, nil
	}
	m.mu.Unlock()

	fullCommand := command
	if fullCommand == "" {
		fullCommand = os.Getenv("SHELL")
		if fullCommand == "" {
			fullCommand = "/bin/sh"
		}
	}

	if !m.server.HasSession(name) {
		cmdline := append([]string{fullCommand}, args...)
		if err := m.server.NewSession(name, cmdline...); err != nil {
			return nil, err
		}
		m.server.SetOption(name, "remain-on-exit", "on")
		if cols > 0 && rows > 0 {
			m.server.Run("resize-window", "-t", name, "-x", strconv.Itoa(cols), "-y", strconv.Itoa(rows))
		}
	}

	fifoPath := fmt.Sprintf("%s/pty-%s.fifo", m.runDir, name)
	os.Remove(fifoPath)
	if err := mkfifo(fifoPath); err != nil {
		return nil, fmt.Errorf("procspawn: creating pty relay fifo: %w", err)
	}

	if _, err := m.server.Run("pipe-pane", "-t", name, "-o", "cat >> "+fifoPath); err != nil {
		os.Remove(fifoPath)
		return nil, err
	}

	h := &ptyHandle{
		manager:   m,
		name:      name,
		ephemeral: ephemeral,
		fifoPath:  fifoPath,
	}
	h.reader = newPipeReadable(h)

	m.mu.Lock()
	m.sessions[name] = h
	m.mu.Unlock()

	go h.watch()

	return h, nil
}

// mkfifo creates a named pipe; split out so it is the single place a
// platform without mkfifo(2) would need to special-case.
func mkfifo(path string) error {
	return mkfifoSyscall(path, 0600)
}

// ptyHandle implements vfs.PTY over a tmux session: reads come from a
// pipe-pane FIFO relayed through pipeReadable, writes go through
// send-keys in literal mode, and Resize/Destroy map onto resize-window
// and kill-session.
type ptyHandle struct {
	manager   *PtyManager
	name      string
	ephemeral bool
	fifoPath  string

	reader *pipeReadable
	file   *os.File

	mu        sync.Mutex
	killHooks []func()
	pid       int
}

// Read satisfies io.ReadCloser so ptyHandle can feed pipeReadable's
// loop directly: the FIFO is opened lazily on first Read because open()
// on a FIFO blocks until a writer (tmux's pipe-pane "cat") attaches.
func (h *ptyHandle) Read(p []byte) (int, error) {
	if h.file == nil {
		file, err := os.OpenFile(h.fifoPath, os.O_RDONLY, 0)
		if err != nil {
			return 0, err
		}
		h.file = file
	}
	return h.file.Read(p)
}

func (h *ptyHandle) Close() error {
	if h.file != nil {
		h.file.Close()
	}
	os.Remove(h.fifoPath)
	return nil
}

func (h *ptyHandle) watch() {
	for {
		time.Sleep(pollInterval)

		dead, _, killed, err := h.status()
		if err != nil {
			return
		}
		if !dead {
			continue
		}

		h.manager.mu.Lock()
		delete(h.manager.sessions, h.name)
		h.manager.mu.Unlock()

		if killed {
			h.mu.Lock()
			hooks := append([]func(){}, h.killHooks...)
			h.mu.Unlock()
			for _, hook := range hooks {
				hook()
			}
		}

		h.reader.Destroy()
		if !h.ephemeral {
			return
		}
		h.manager.server.KillSession(h.name)
		return
	}
}

// status reports whether the pane's command has exited and, when it
// has, whether the exit looks like it was caused by a signal (a proxy
// for "killed" — spec §3's PTY.OnKill distinguishes this from the
// process exiting on its own).
func (h *ptyHandle) status() (dead bool, exitCode int, killed bool, err error) {
	d, code, statusErr := h.manager.server.PaneStatus(h.name)
	if statusErr != nil {
		return false, 0, false, statusErr
	}
	return d, code, d && code >= 128, nil
}

func (h *ptyHandle) PID() int { return h.pid }

func (h *ptyHandle) OnData(handler func(chunk []byte) bool) { h.reader.OnData(handler) }
func (h *ptyHandle) OnEnd(handler func())                    { h.reader.OnEnd(handler) }
func (h *ptyHandle) OnError(handler func(err error))         { h.reader.OnError(handler) }
func (h *ptyHandle) OnClose(handler func())                  { h.reader.OnClose(handler) }
func (h *ptyHandle) Pause()                                  { h.reader.Pause() }
func (h *ptyHandle) Resume()                                 { h.reader.Resume() }

func (h *ptyHandle) Destroy() {
	h.reader.Destroy()
	if h.ephemeral {
		h.manager.server.KillSession(h.name)
	}
}

func (h *ptyHandle) Write(chunk []byte) bool {
	_, err := h.manager.server.Run("send-keys", "-l", "-t", h.name, "--", string(chunk))
	return err == nil
}

func (h *ptyHandle) End(chunk []byte) {
	if len(chunk) > 0 {
		h.Write(chunk)
	}
}

func (h *ptyHandle) Resize(cols, rows int) error {
	_, err := h.manager.server.Run("resize-window", "-t", h.name,
		"-x", strconv.Itoa(cols), "-y", strconv.Itoa(rows))
	return err
}

func (h *ptyHandle) OnKill(handler func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.killHooks = append(h.killHooks, handler)
}
