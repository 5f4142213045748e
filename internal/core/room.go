package core

import (
	"slices"
	"sync"

	"github.com/audiospace/audiospace-backend/internal/domain"
)

// room is the live, threadsafe state of a single room. Members are kept in
// join order. A room marked dead has been removed from the registry map and
// must never accept a member again.
type room struct {
	mu       sync.Mutex
	members  []string
	track    domain.Track
	position float64
	playing  bool
	dead     bool
}

func newRoom(members []string) *room {
	return &room{members: slices.Clone(members)}
}

// addMember appends name to the member list. Returns false with
// domain.ErrNameTaken on a duplicate name and false with nil error when the
// room is dead (caller retries against the registry).
func (r *room) addMember(name string) (domain.RoomState, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.dead {
		return domain.RoomState{}, false, nil
	}
	if slices.Contains(r.members, name) {
		return domain.RoomState{}, true, domain.ErrNameTaken
	}
	r.members = append(r.members, name)
	return r.stateLocked(), true, nil
}

// removeMember drops name from the member list. Idempotent: removing an
// already-absent member changes nothing. When the last member leaves the
// room is marked dead in the same critical section, so there is no window
// where a zero-member room is joinable.
func (r *room) removeMember(name string) (state domain.RoomState, removed, empty bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if i := slices.Index(r.members, name); i >= 0 {
		r.members = slices.Delete(r.members, i, i+1)
		removed = true
	}
	if len(r.members) == 0 {
		r.dead = true
		empty = true
	}
	return r.stateLocked(), removed, empty
}

func (r *room) applyPlay(track domain.Track, position float64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.dead {
		return false
	}
	r.track = track
	r.position = position
	r.playing = true
	return true
}

func (r *room) applyPause(position float64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.dead {
		return false
	}
	r.position = position
	r.playing = false
	return true
}

func (r *room) state() domain.RoomState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stateLocked()
}

func (r *room) stateLocked() domain.RoomState {
	return domain.RoomState{
		Members:  slices.Clone(r.members),
		Track:    r.track,
		Position: r.position,
		Playing:  r.playing,
	}
}
