package sync

import (
	"encoding/json"
	gosync "sync"

	"github.com/rs/zerolog/log"

	"github.com/audiospace/audiospace-backend/internal/domain"
)

// hub tracks which sessions are bound to which room. Each room entry has its
// own lock, held by handlers across the registry mutation and the resulting
// broadcast, so two causally-related broadcasts for one room are never
// observed out of order by any recipient.
type hub struct {
	mu    gosync.Mutex
	rooms map[domain.RoomID]*roomSessions
}

type roomSessions struct {
	mu       gosync.Mutex
	sessions map[*Session]struct{}
}

func newHub() *hub {
	return &hub{rooms: make(map[domain.RoomID]*roomSessions)}
}

// acquire returns the session set for a room, creating it when absent.
func (h *hub) acquire(id domain.RoomID) *roomSessions {
	h.mu.Lock()
	defer h.mu.Unlock()
	rs, ok := h.rooms[id]
	if !ok {
		rs = &roomSessions{sessions: make(map[*Session]struct{})}
		h.rooms[id] = rs
	}
	return rs
}

// release drops the room entry when no sessions remain.
func (h *hub) release(id domain.RoomID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if rs, ok := h.rooms[id]; ok {
		rs.mu.Lock()
		empty := len(rs.sessions) == 0
		rs.mu.Unlock()
		if empty {
			delete(h.rooms, id)
		}
	}
}

// broadcast fans v out to every session in the room. Callers hold rs.mu.
// Sends never block; a full send queue drops the message for that session.
func (rs *roomSessions) broadcast(v any) {
	payload, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "sync.hub").Msg("broadcast marshal")
		return
	}
	for sess := range rs.sessions {
		if err := sess.conn.TrySend(payload); err != nil {
			log.Warn().Err(err).Str("module", "sync.hub").Str("sid", sess.ID).Msg("broadcast dropped")
		}
	}
}
