package stream

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingInterval   = 30 * time.Second
	maxInboundSize = 1024
	sendQueueSize  = 256
)

// WSSink adapts a gorilla WebSocket connection to the Sink interface.
// A buffered send channel decouples the production loop from the
// socket; writePump owns all writes, readPump owns all reads. Frames
// are dropped (not blocked on) when the client cannot keep up; Emit
// fails with ErrSinkClosed once the peer is gone.
type WSSink struct {
	conn *websocket.Conn
	send chan []byte
	done chan struct{}
	log  *slog.Logger

	closeOnce sync.Once
	exitOnce  sync.Once
}

// NewWSSink wraps an upgraded connection. Call Start to begin pumping.
func NewWSSink(conn *websocket.Conn, log *slog.Logger) *WSSink {
	return &WSSink{
		conn: conn,
		send: make(chan []byte, sendQueueSize),
		done: make(chan struct{}),
		log:  log,
	}
}

// Start launches the read and write pumps. onExit runs exactly once,
// after either pump stops — callers use it to close the owning session.
func (s *WSSink) Start(onExit func()) {
	exit := func() {
		s.exitOnce.Do(func() {
			s.Close()
			if onExit != nil {
				onExit()
			}
		})
	}
	go s.writePump(exit)
	go s.readPump(exit)
}

// Emit queues a frame for delivery. Returns ErrSinkClosed if the peer
// is gone; silently drops the frame if the client is too slow to drain
// its queue.
func (s *WSSink) Emit(v any) error {
	select {
	case <-s.done:
		return ErrSinkClosed
	default:
	}

	buf, err := json.Marshal(v)
	if err != nil {
		return err
	}

	select {
	case s.send <- buf:
		return nil
	case <-s.done:
		return ErrSinkClosed
	default:
		// Slow client: dropping a frame beats stalling the producer.
		return nil
	}
}

// Close tears the sink down. Safe to call multiple times and
// concurrently with the pumps' own failure paths.
func (s *WSSink) Close() error {
	s.closeOnce.Do(func() {
		close(s.done)
		s.conn.Close()
	})
	return nil
}

func (s *WSSink) writePump(exit func()) {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		exit()
	}()

	for {
		select {
		case msg := <-s.send:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-s.done:
			s.conn.WriteControl(websocket.CloseMessage, []byte{}, time.Now().Add(writeWait))
			return
		}
	}
}

func (s *WSSink) readPump(exit func()) {
	defer exit()

	s.conn.SetReadLimit(maxInboundSize)
	s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		s.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, msg, err := s.conn.ReadMessage()
		if err != nil {
			return
		}

		var base struct {
			Type string `json:"type"`
		}
		if json.Unmarshal(msg, &base) != nil {
			// Unrecognized inbound frames are ignored, not errors.
			continue
		}

		switch base.Type {
		case "ping":
			if err := s.Emit(map[string]string{"type": FramePong}); err != nil {
				return
			}
		default:
			// ignore
		}
	}
}
