// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/amirdauti/virtualagency/internal/bus"
	"github.com/amirdauti/virtualagency/internal/registry"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

const (
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// GatewayHandler implements the subscriber gateway: per-client duplex
// that forwards bus events outward and demultiplexes inbound control
// frames to the right session.
type GatewayHandler struct {
	reg *registry.Registry
	bus bus.Bus
}

// NewGatewayHandler creates a new gateway handler.
func NewGatewayHandler(reg *registry.Registry, b bus.Bus) *GatewayHandler {
	return &GatewayHandler{reg: reg, bus: b}
}

// inboundFrame is the tagged shape of every frame a client sends.
type inboundFrame struct {
	Type       string `json:"type"`
	TerminalID string `json:"terminal_id"`
	Data       string `json:"data"`
	Cols       uint16 `json:"cols"`
	Rows       uint16 `json:"rows"`
}

// ServeWS upgrades the connection and runs the outbound/inbound halves
// as two independent loops racing to termination, with no shared
// mutable state between them beyond the write mutex.
func (h *GatewayHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("gateway: upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	ch, unsubscribe := h.bus.Subscribe()
	defer unsubscribe()

	var writeMu sync.Mutex

	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	done := make(chan struct{})
	outboundDone := make(chan struct{})

	go func() {
		defer close(outboundDone)
		h.outbound(conn, ch, &writeMu, done)
		// Outbound finishing first ends the gateway as well: closing the
		// connection makes inbound's blocking read return.
		conn.Close()
	}()

	h.inbound(conn, &writeMu)
	close(done)
	<-outboundDone
}

// outbound subscribes to the bus and forwards every event as a tagged
// envelope text frame, interleaved with periodic pings. A failed send
// terminates the half.
func (h *GatewayHandler) outbound(conn *websocket.Conn, ch <-chan bus.Event, writeMu *sync.Mutex, done <-chan struct{}) {
	pingTicker := time.NewTicker(pingPeriod)
	defer pingTicker.Stop()

	for {
		select {
		case e, ok := <-ch:
			if !ok {
				return
			}
			writeMu.Lock()
			conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			err := conn.WriteJSON(e.Envelope())
			writeMu.Unlock()
			if err != nil {
				return
			}
		case <-pingTicker.C:
			writeMu.Lock()
			err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(10*time.Second))
			writeMu.Unlock()
			if err != nil {
				return
			}
		case <-done:
			return
		}
	}
}

// inbound decodes each text frame as a tagged object and routes
// terminal-input/terminal-resize to the matching session. It uses the
// terminal session's own write lock, independent of the bus, so it
// never blocks outbound.
func (h *GatewayHandler) inbound(conn *websocket.Conn, writeMu *sync.Mutex) {
	for {
		messageType, message, err := conn.ReadMessage()
		if err != nil {
			return
		}
		if messageType != websocket.TextMessage {
			continue
		}

		var frame inboundFrame
		if err := json.Unmarshal(message, &frame); err != nil {
			log.Printf("gateway: failed to parse inbound frame: %v", err)
			continue
		}

		switch frame.Type {
		case "terminal-input":
			sess, err := h.reg.GetTerminal(frame.TerminalID)
			if err != nil {
				log.Printf("gateway: terminal-input for unknown terminal %q", frame.TerminalID)
				continue
			}
			if err := sess.Write([]byte(frame.Data)); err != nil {
				log.Printf("gateway: terminal %q write failed: %v", frame.TerminalID, err)
			}
		case "terminal-resize":
			sess, err := h.reg.GetTerminal(frame.TerminalID)
			if err != nil {
				log.Printf("gateway: terminal-resize for unknown terminal %q", frame.TerminalID)
				continue
			}
			if err := sess.Resize(frame.Cols, frame.Rows); err != nil {
				log.Printf("gateway: terminal %q resize failed: %v", frame.TerminalID, err)
			}
		default:
			// Unknown frames are ignored.
		}
	}
}
