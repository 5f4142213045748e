// Package domain contains entity types without logic, just meta-data
// and validation shared by every layer.
package domain

import "errors"

const MaxDisplayNameLen = 36

var (
	ErrRoomNotFound = errors.New("room not found")
	ErrNameTaken    = errors.New("display name already taken in this room")
	ErrNameEmpty    = errors.New("display name empty")
	ErrNameTooLong  = errors.New("display name too long")
)

type RoomID string

// RoomState is a read-only view of a room: the member list in join order
// plus the last reported playback state.
type RoomState struct {
	Members  []string
	Track    Track
	Position float64
	Playing  bool
}

// PlaybackState is the playback subset of RoomState, served on sync requests.
type PlaybackState struct {
	Track    Track
	Position float64
	Playing  bool
}

// ValidateDisplayName checks a self-asserted participant name. Names are
// untrusted strings; uniqueness within a room is enforced by the registry,
// not here.
func ValidateDisplayName(name string) error {
	if len(name) == 0 {
		return ErrNameEmpty
	}
	if len(name) > MaxDisplayNameLen {
		return ErrNameTooLong
	}
	return nil
}
