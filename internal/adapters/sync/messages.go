package sync

import "github.com/audiospace/audiospace-backend/internal/domain"

// Inbound payloads. Every message carries its type in a flat envelope;
// each handler unmarshals its own shape.

type createPayload struct {
	Type        string `json:"type"`
	DisplayName string `json:"displayName"`
}

type joinPayload struct {
	Type        string        `json:"type"`
	RoomID      domain.RoomID `json:"roomId"`
	DisplayName string        `json:"displayName"`
}

type playPayload struct {
	Type     string        `json:"type"`
	RoomID   domain.RoomID `json:"roomId"`
	Track    domain.Track  `json:"track"`
	Position float64       `json:"position"`
}

type pausePayload struct {
	Type     string        `json:"type"`
	RoomID   domain.RoomID `json:"roomId"`
	Position float64       `json:"position"`
}

type syncRequestPayload struct {
	Type   string        `json:"type"`
	RoomID domain.RoomID `json:"roomId"`
}

// Outbound messages.

type createdMsg struct {
	Type    string        `json:"type"`
	RoomID  domain.RoomID `json:"roomId"`
	Members []string      `json:"members"`
}

type membershipUpdateMsg struct {
	Type     string       `json:"type"`
	Members  []string     `json:"members"`
	Track    domain.Track `json:"track"`
	Position float64      `json:"position"`
	Playing  bool         `json:"playing"`
}

type errorMsg struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type playMsg struct {
	Type     string       `json:"type"`
	Track    domain.Track `json:"track"`
	Position float64      `json:"position"`
}

type pauseMsg struct {
	Type     string  `json:"type"`
	Position float64 `json:"position"`
}

type syncStateMsg struct {
	Type     string       `json:"type"`
	Track    domain.Track `json:"track"`
	Position float64      `json:"position"`
	Playing  bool         `json:"playing"`
}

func newMembershipUpdate(state domain.RoomState) membershipUpdateMsg {
	return membershipUpdateMsg{
		Type:     "membershipUpdate",
		Members:  state.Members,
		Track:    state.Track,
		Position: state.Position,
		Playing:  state.Playing,
	}
}
