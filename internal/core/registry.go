// Package core owns the live room state. The registry is authoritative for
// membership and playback while the process is alive; the durable store is a
// best-effort shadow written off the hot path.
package core

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/audiospace/audiospace-backend/internal/domain"
)

const (
	storeReadTimeout  = 2 * time.Second
	storeWriteTimeout = 5 * time.Second
)

// Registry maps room ids to live rooms. Each room carries its own lock, so
// operations on different rooms never contend; the registry lock guards only
// the map itself.
type Registry struct {
	mu    sync.RWMutex
	rooms map[domain.RoomID]*room
	store MembershipStore // nil when running without durability
}

func NewRegistry(store MembershipStore) *Registry {
	return &Registry{
		rooms: make(map[domain.RoomID]*room),
		store: store,
	}
}

// CreateRoom allocates a fresh room id and a room whose only member is name.
// Identifier generation is collision-free, so creation always succeeds.
func (reg *Registry) CreateRoom(name string) (domain.RoomID, domain.RoomState) {
	id := domain.RoomID(uuid.NewString())
	r := newRoom([]string{name})

	reg.mu.Lock()
	reg.rooms[id] = r
	reg.mu.Unlock()

	log.Info().Str("module", "core.registry").Str("room", string(id)).Str("member", name).Msg("room created")
	reg.persist(id, "add member", func(ctx context.Context) error {
		return reg.store.AddMember(ctx, id, name)
	})
	return id, r.state()
}

// JoinRoom appends name to the room's members. When no live room exists the
// durable shadow is consulted and, if it still records members, the room is
// revived seeded with them. Returns domain.ErrRoomNotFound or
// domain.ErrNameTaken.
func (reg *Registry) JoinRoom(id domain.RoomID, name string) (domain.RoomState, error) {
	for {
		reg.mu.RLock()
		r, ok := reg.rooms[id]
		reg.mu.RUnlock()

		if !ok {
			var err error
			if r, err = reg.revive(id); err != nil {
				return domain.RoomState{}, err
			}
		}

		state, alive, err := r.addMember(name)
		if err != nil {
			return domain.RoomState{}, err
		}
		if !alive {
			// Lost a race with the last member's departure; the map entry
			// is gone, so retry from the top.
			continue
		}

		log.Info().Str("module", "core.registry").Str("room", string(id)).Str("member", name).Msg("member joined")
		reg.persist(id, "add member", func(ctx context.Context) error {
			return reg.store.AddMember(ctx, id, name)
		})
		return state, nil
	}
}

// revive looks the room up in the durable store and installs a live entry
// seeded with the recorded members. The store read happens before any room
// lock is taken.
func (reg *Registry) revive(id domain.RoomID) (*room, error) {
	if reg.store == nil {
		return nil, domain.ErrRoomNotFound
	}

	ctx, cancel := context.WithTimeout(context.Background(), storeReadTimeout)
	defer cancel()
	members, err := reg.store.Members(ctx, id)
	if err != nil {
		log.Warn().Err(err).Str("module", "core.registry").Str("room", string(id)).Msg("membership store lookup failed")
		return nil, domain.ErrRoomNotFound
	}
	if len(members) == 0 {
		return nil, domain.ErrRoomNotFound
	}

	reg.mu.Lock()
	defer reg.mu.Unlock()
	if r, ok := reg.rooms[id]; ok {
		// Another join revived it first.
		return r, nil
	}
	r := newRoom(members)
	reg.rooms[id] = r
	log.Info().Str("module", "core.registry").Str("room", string(id)).Int("members", len(members)).Msg("room revived from store")
	return r, nil
}

// LeaveRoom removes name from the room. Idempotent with respect to an
// already-absent member and a no-op for an unknown room. The room is deleted
// atomically with the last member's departure.
func (reg *Registry) LeaveRoom(id domain.RoomID, name string) (state domain.RoomState, removed, empty bool) {
	reg.mu.RLock()
	r, ok := reg.rooms[id]
	reg.mu.RUnlock()
	if !ok {
		return domain.RoomState{}, false, false
	}

	state, removed, empty = r.removeMember(name)
	if empty {
		reg.mu.Lock()
		if reg.rooms[id] == r {
			delete(reg.rooms, id)
		}
		reg.mu.Unlock()
		log.Info().Str("module", "core.registry").Str("room", string(id)).Msg("room closed")
	}
	if removed {
		log.Info().Str("module", "core.registry").Str("room", string(id)).Str("member", name).Msg("member left")
		reg.persist(id, "remove member", func(ctx context.Context) error {
			return reg.store.RemoveMember(ctx, id, name)
		})
	}
	return state, removed, empty
}

// ApplyPlay records a play action. Silently ignored when the room does not
// exist: a stale message after room teardown must not resurrect state.
func (reg *Registry) ApplyPlay(id domain.RoomID, track domain.Track, position float64) bool {
	reg.mu.RLock()
	r, ok := reg.rooms[id]
	reg.mu.RUnlock()
	if !ok {
		return false
	}
	return r.applyPlay(track, position)
}

// ApplyPause records a pause action, with the same missing-room policy as
// ApplyPlay.
func (reg *Registry) ApplyPause(id domain.RoomID, position float64) bool {
	reg.mu.RLock()
	r, ok := reg.rooms[id]
	reg.mu.RUnlock()
	if !ok {
		return false
	}
	return r.applyPause(position)
}

// Snapshot returns the room's playback state without side effects.
func (reg *Registry) Snapshot(id domain.RoomID) (domain.PlaybackState, bool) {
	reg.mu.RLock()
	r, ok := reg.rooms[id]
	reg.mu.RUnlock()
	if !ok {
		return domain.PlaybackState{}, false
	}
	s := r.state()
	return domain.PlaybackState{Track: s.Track, Position: s.Position, Playing: s.Playing}, true
}

// persist runs a durable-store write in the background. Store failures are
// logged and swallowed: availability of the live session takes precedence
// over durability.
func (reg *Registry) persist(id domain.RoomID, what string, op func(ctx context.Context) error) {
	if reg.store == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), storeWriteTimeout)
		defer cancel()
		if err := op(ctx); err != nil {
			log.Warn().Err(err).Str("module", "core.registry").Str("room", string(id)).Str("op", what).Msg("membership store write failed")
		}
	}()
}
