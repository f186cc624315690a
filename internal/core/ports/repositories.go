package ports

import (
	"context"

	"beamcast/internal/core/domain"
)

// ChannelRegistry is the bounded, TTL-expiring store of live channels. All
// mutation happens inside the registry so that read-modify-write sequences
// stay under its lock; Get and List return snapshots, never live state.
type ChannelRegistry interface {
	// Create inserts a new channel owned by owner. An empty id means the
	// registry generates one. Returns domain.ErrChannelExists on a duplicate
	// id and domain.ErrCapacityExceeded when the registry is full and no
	// entry is expired.
	Create(ctx context.Context, id domain.ChannelID, owner domain.ConnID) (*domain.Channel, error)

	// Get returns a snapshot of the channel or domain.ErrChannelNotFound.
	Get(ctx context.Context, id domain.ChannelID) (*domain.Channel, error)

	// Touch refreshes the channel's last-activity timestamp.
	Touch(ctx context.Context, id domain.ChannelID) error

	// TouchByMember refreshes the channel (at most one) containing conn as
	// broadcaster or viewer. Reports whether a channel matched.
	TouchByMember(ctx context.Context, conn domain.ConnID) bool

	// Remove deletes the channel and returns its final snapshot so callers
	// can notify viewers.
	Remove(ctx context.Context, id domain.ChannelID) (*domain.Channel, error)

	// List returns a point-in-time directory of live channels.
	List(ctx context.Context) []domain.ChannelInfo

	// AddViewer adds conn to the channel's viewer set (idempotent), detaching
	// it from any other channel first, refreshes activity and returns a
	// snapshot. The broadcaster itself is rejected with domain.ErrNotViewer.
	AddViewer(ctx context.Context, id domain.ChannelID, conn domain.ConnID) (*domain.Channel, error)

	// SetAlias stores a display name for a current viewer of the channel.
	SetAlias(ctx context.Context, id domain.ChannelID, conn domain.ConnID, alias string) error

	// DropConnection reconciles a disconnect: every channel owned by conn is
	// removed and returned as final snapshots; if conn was a viewer
	// somewhere, it is detached. A connection that never joined anything
	// yields an empty result.
	DropConnection(ctx context.Context, conn domain.ConnID) []*domain.Channel

	// Len reports the number of live (non-expired) channels.
	Len(ctx context.Context) int
}
