// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package terminal implements the Terminal session component: one PTY
// pair, its spawned shell, its byte-reader, and its resize/write surface.
package terminal

import (
	"log"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/creack/pty"

	"github.com/amirdauti/virtualagency/internal/bus"
)

const readBufferSize = 4096

// Session is one PTY-backed interactive shell. Exactly one reader
// goroutine exists per session for its lifetime.
type Session struct {
	ID      string
	WorkDir string

	pub bus.Bus

	writeMu sync.Mutex
	master  *os.File
	cmd     *exec.Cmd

	killCh   chan struct{}
	killOnce sync.Once
}

// Create opens a PTY master/slave pair sized rows×cols, resolves the
// login shell from $SHELL (default /bin/bash), spawns it on the slave
// with TERM=xterm-256color / COLORTERM=truecolor, and starts the reader
// goroutine.
func Create(id, workDir string, cols, rows uint16, pub bus.Bus) (*Session, error) {
	shell := os.Getenv("SHELL")
	if shell == "" {
		shell = "/bin/bash"
	}

	cmd := exec.Command(shell)
	cmd.Dir = workDir
	cmd.Env = append(os.Environ(), "TERM=xterm-256color", "COLORTERM=truecolor")

	master, err := pty.StartWithSize(cmd, &pty.Winsize{Rows: rows, Cols: cols})
	if err != nil {
		return nil, err
	}

	s := &Session{
		ID:      id,
		WorkDir: workDir,
		pub:     pub,
		master:  master,
		cmd:     cmd,
		killCh:  make(chan struct{}),
	}

	go s.readLoop()

	return s, nil
}

// Write appends data to the shell's input and flushes.
func (s *Session) Write(data []byte) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	_, err := s.master.Write(data)
	return err
}

// Resize re-sizes the master so the window-size change reaches the
// shell.
func (s *Session) Resize(cols, rows uint16) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return pty.Setsize(s.master, &pty.Winsize{Rows: rows, Cols: cols})
}

// Kill signals the reader goroutine via the single-shot kill channel and
// terminates the child. Idempotent: a second call is a no-op. The
// master field itself is never cleared: it's read without a lock by
// the reader goroutine, so teardown must go entirely through closing
// the file, not through nil-ing the field out from under it.
func (s *Session) Kill() {
	s.killOnce.Do(func() {
		close(s.killCh)
	})
	s.writeMu.Lock()
	_ = s.master.Close()
	s.writeMu.Unlock()
	if s.cmd != nil && s.cmd.Process != nil {
		_ = s.cmd.Process.Kill()
	}
}

// readLoop is the dedicated blocking reader task. It captures the
// master handle once, since Kill never reassigns the field, then reads
// into a 4 KiB buffer; on each successful read it checks the kill
// channel non-blockingly, then publishes a lossy-UTF8-decoded
// terminal-output event. Primary teardown is Kill() closing the master,
// which unblocks the blocking read with an error; the kill channel is a
// best-effort cooperative signal whose effectiveness depends on the
// shell producing further output.
func (s *Session) readLoop() {
	master := s.master
	buf := make([]byte, readBufferSize)
	for {
		n, err := master.Read(buf)
		if n > 0 {
			select {
			case <-s.killCh:
				return
			default:
			}
			data := strings.ToValidUTF8(string(buf[:n]), "")
			s.pub.Publish(bus.NewTerminalOutput(s.ID, data))
		}
		if err != nil {
			if isWouldBlock(err) {
				time.Sleep(10 * time.Millisecond)
				continue
			}
			log.Printf("terminal %s: reader ended: %v", s.ID, err)
			return
		}
	}
}

// isWouldBlock reports whether err is an EAGAIN/EWOULDBLOCK-class error.
// creack/pty's Read is a normal blocking os.File.Read on POSIX systems,
// so this case is not expected to trigger in practice, but is handled
// in case a platform's PTY binding ever surfaces it.
func isWouldBlock(err error) bool {
	type timeout interface{ Timeout() bool }
	te, ok := err.(timeout)
	return ok && te.Timeout()
}
