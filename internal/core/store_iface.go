package core

import (
	"context"

	"github.com/audiospace/audiospace-backend/internal/domain"
)

// MembershipStore is the durable shadow of room membership. It is never
// authoritative for live state: the registry consults it only to validate
// room existence on join and to seed a revived room after a restart.
// Owned by the adapter; the adapter must Close() it.
type MembershipStore interface {
	AddMember(ctx context.Context, id domain.RoomID, member string) error
	RemoveMember(ctx context.Context, id domain.RoomID, member string) error
	Members(ctx context.Context, id domain.RoomID) ([]string, error)
	RoomsOf(ctx context.Context, member string) ([]domain.RoomID, error)
}
