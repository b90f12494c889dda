package stream

import "errors"

// ErrSinkClosed reports that the peer behind a sink is gone. Terminal
// for the owning session only; other sessions are unaffected.
var ErrSinkClosed = errors.New("sink closed")

// Sink abstracts the outbound message channel to one connected client.
// Emit must not block the caller indefinitely: implementations either
// queue the frame or drop it under backpressure, and return
// ErrSinkClosed once the peer has disconnected.
type Sink interface {
	Emit(v any) error
	Close() error
}
