package sync

import (
	"errors"
	gosync "sync"

	"github.com/gorilla/websocket"
)

var ErrBackpressure = errors.New("backpressure")

// Conn abstracts the outbound side of a participant's transport so the
// protocol handlers never touch a websocket directly.
// Owned by the adapter; the adapter must Close() it.
type Conn interface {
	TrySend(payload []byte) error
	Close()
}

// WsConn wraps a websocket with a buffered send queue. TrySend never blocks:
// a full queue drops the payload and reports backpressure.
type WsConn struct {
	conn *websocket.Conn
	send chan []byte

	mu     gosync.RWMutex
	closed bool
}

func NewWsConn(conn *websocket.Conn) *WsConn {
	return &WsConn{
		conn: conn,
		send: make(chan []byte, 32),
	}
}

func (c *WsConn) TrySend(payload []byte) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return errors.New("connection closed")
	}
	select {
	case c.send <- payload:
	default:
		return ErrBackpressure
	}
	return nil
}

func (c *WsConn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	_ = c.conn.Close()
	c.mu.Unlock()
}
