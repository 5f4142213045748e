// Package sync is the websocket adapter for the room synchronization
// protocol: create/join/play/pause/syncRequest in, replies and room
// broadcasts out.
package sync

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/audiospace/audiospace-backend/internal/core"
	"github.com/audiospace/audiospace-backend/internal/domain"
)

const (
	msgRoomNotFound = "Room does not exist"
	msgNameTaken    = "Username already taken in this room"
	msgNameInvalid  = "Display name required"
	msgAlreadyBound = "Already in a room"
)

type Controller struct {
	registry *core.Registry
	hub      *hub

	readLimit  int64
	pingPeriod time.Duration
}

func NewController(registry *core.Registry, readLimit int64, pingPeriod time.Duration) *Controller {
	return &Controller{
		registry:   registry,
		hub:        newHub(),
		readLimit:  readLimit,
		pingPeriod: pingPeriod,
	}
}

// handle dispatches one inbound protocol message for a session.
func (ctl *Controller) handle(sess *Session, data []byte) {
	var env struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		log.Debug().Err(err).Str("module", "sync").Str("sid", sess.ID).Msg("bad json")
		return
	}

	switch env.Type {
	case "create":
		ctl.handleCreate(sess, data)
	case "join":
		ctl.handleJoin(sess, data)
	case "play":
		ctl.handlePlay(sess, data)
	case "pause":
		ctl.handlePause(sess, data)
	case "syncRequest":
		ctl.handleSyncRequest(sess, data)
	default:
		log.Warn().Str("module", "sync").Str("type", env.Type).Msg("unknown message")
	}
}

func (ctl *Controller) handleCreate(sess *Session, data []byte) {
	var p createPayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Debug().Err(err).Str("module", "sync").Str("sid", sess.ID).Msg("bad create payload")
		return
	}
	if err := domain.ValidateDisplayName(p.DisplayName); err != nil {
		ctl.sendError(sess, msgNameInvalid)
		return
	}
	if _, _, bound := sess.binding(); bound {
		ctl.sendError(sess, msgAlreadyBound)
		return
	}

	roomID, state := ctl.registry.CreateRoom(p.DisplayName)

	rs := ctl.hub.acquire(roomID)
	rs.mu.Lock()
	rs.sessions[sess] = struct{}{}
	sess.bind(roomID, p.DisplayName)
	ctl.send(sess, createdMsg{Type: "created", RoomID: roomID, Members: state.Members})
	// Only the creator is in the room yet, but the broadcast path is uniform.
	rs.broadcast(newMembershipUpdate(state))
	rs.mu.Unlock()

	log.Info().Str("module", "sync").Str("sid", sess.ID).Str("room", string(roomID)).Msg("room created")
}

func (ctl *Controller) handleJoin(sess *Session, data []byte) {
	var p joinPayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Debug().Err(err).Str("module", "sync").Str("sid", sess.ID).Msg("bad join payload")
		return
	}
	if err := domain.ValidateDisplayName(p.DisplayName); err != nil {
		ctl.sendError(sess, msgNameInvalid)
		return
	}
	if p.RoomID == "" {
		ctl.sendError(sess, msgRoomNotFound)
		return
	}
	if _, _, bound := sess.binding(); bound {
		ctl.sendError(sess, msgAlreadyBound)
		return
	}

	rs := ctl.hub.acquire(p.RoomID)
	rs.mu.Lock()
	state, err := ctl.registry.JoinRoom(p.RoomID, p.DisplayName)
	if err != nil {
		rs.mu.Unlock()
		ctl.hub.release(p.RoomID)
		switch {
		case errors.Is(err, domain.ErrRoomNotFound):
			ctl.sendError(sess, msgRoomNotFound)
		case errors.Is(err, domain.ErrNameTaken):
			ctl.sendError(sess, msgNameTaken)
		default:
			log.Error().Err(err).Str("module", "sync").Str("sid", sess.ID).Msg("join failed")
			ctl.sendError(sess, msgRoomNotFound)
		}
		return
	}
	rs.sessions[sess] = struct{}{}
	sess.bind(p.RoomID, p.DisplayName)
	rs.broadcast(newMembershipUpdate(state))
	rs.mu.Unlock()

	log.Info().Str("module", "sync").Str("sid", sess.ID).Str("room", string(p.RoomID)).Str("name", p.DisplayName).Msg("joined room")
}

func (ctl *Controller) handlePlay(sess *Session, data []byte) {
	var p playPayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Debug().Err(err).Str("module", "sync").Str("sid", sess.ID).Msg("bad play payload")
		return
	}
	roomID, _, bound := sess.binding()
	if !bound || p.RoomID != roomID {
		return
	}

	rs := ctl.hub.acquire(roomID)
	rs.mu.Lock()
	if ctl.registry.ApplyPlay(roomID, p.Track, p.Position) {
		// Broadcast includes the originator; echo suppression is the
		// client's concern.
		rs.broadcast(playMsg{Type: "play", Track: p.Track, Position: p.Position})
	}
	rs.mu.Unlock()
}

func (ctl *Controller) handlePause(sess *Session, data []byte) {
	var p pausePayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Debug().Err(err).Str("module", "sync").Str("sid", sess.ID).Msg("bad pause payload")
		return
	}
	roomID, _, bound := sess.binding()
	if !bound || p.RoomID != roomID {
		return
	}

	rs := ctl.hub.acquire(roomID)
	rs.mu.Lock()
	if ctl.registry.ApplyPause(roomID, p.Position) {
		rs.broadcast(pauseMsg{Type: "pause", Position: p.Position})
	}
	rs.mu.Unlock()
}

func (ctl *Controller) handleSyncRequest(sess *Session, data []byte) {
	var p syncRequestPayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Debug().Err(err).Str("module", "sync").Str("sid", sess.ID).Msg("bad sync payload")
		return
	}
	roomID, _, bound := sess.binding()
	if !bound || p.RoomID != roomID {
		return
	}

	snap, ok := ctl.registry.Snapshot(roomID)
	if !ok {
		return
	}
	ctl.send(sess, syncStateMsg{
		Type:     "syncState",
		Track:    snap.Track,
		Position: snap.Position,
		Playing:  snap.Playing,
	})
}

// disconnect runs the transport-level teardown: a Bound session leaves its
// room, and the remaining members get a membership update. Safe to call once
// per session; the state machine makes later calls no-ops.
func (ctl *Controller) disconnect(sess *Session) {
	roomID, name, wasBound := sess.close()
	if !wasBound {
		return
	}

	rs := ctl.hub.acquire(roomID)
	rs.mu.Lock()
	delete(rs.sessions, sess)
	state, removed, empty := ctl.registry.LeaveRoom(roomID, name)
	if removed && !empty {
		rs.broadcast(newMembershipUpdate(state))
	}
	rs.mu.Unlock()
	ctl.hub.release(roomID)

	log.Info().Str("module", "sync").Str("sid", sess.ID).Str("room", string(roomID)).Str("name", name).Msg("session disconnected")
}

func (ctl *Controller) send(sess *Session, v any) {
	payload, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "sync").Msg("send marshal")
		return
	}
	if err := sess.conn.TrySend(payload); err != nil {
		log.Warn().Err(err).Str("module", "sync").Str("sid", sess.ID).Msg("send dropped")
	}
}

func (ctl *Controller) sendError(sess *Session, message string) {
	ctl.send(sess, errorMsg{Type: "errorMsg", Message: message})
}
