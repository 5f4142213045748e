package sync

import (
	gosync "sync"

	"github.com/audiospace/audiospace-backend/internal/domain"
)

type SessionState int

const (
	// Unbound: connected, not yet in a room. A failed join stays here.
	Unbound SessionState = iota
	// Bound: in a room. A session binds to exactly one room for its
	// lifetime; rebinding is not supported.
	Bound
	// Closed: terminal. A closed session is discarded, never reused.
	Closed
)

// Session is the per-connection protocol state machine:
// Unbound -> Bound -> Closed.
type Session struct {
	ID   string
	conn Conn

	mu     gosync.Mutex
	state  SessionState
	roomID domain.RoomID
	name   string
}

func NewSession(id string, conn Conn) *Session {
	return &Session{ID: id, conn: conn}
}

// bind moves the session to Bound. Only an Unbound session can bind.
func (s *Session) bind(roomID domain.RoomID, name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Unbound {
		return false
	}
	s.state = Bound
	s.roomID = roomID
	s.name = name
	return true
}

// binding reports the bound room and name, false unless the session is Bound.
func (s *Session) binding() (domain.RoomID, string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Bound {
		return "", "", false
	}
	return s.roomID, s.name, true
}

// close makes the session terminal. Returns the binding it held, if any,
// so the caller can run the leave flow exactly once.
func (s *Session) close() (domain.RoomID, string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == Closed {
		return "", "", false
	}
	wasBound := s.state == Bound
	s.state = Closed
	return s.roomID, s.name, wasBound
}
