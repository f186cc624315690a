package ports

import (
	"context"

	"beamcast/internal/core/domain"
)

// MembershipService implements channel join/leave and alias management.
type MembershipService interface {
	// JoinAsBroadcaster creates a channel owned by conn. requestedID may be
	// empty, in which case an id is generated.
	JoinAsBroadcaster(ctx context.Context, conn domain.ConnID, requestedID string) (*domain.BroadcasterReadyPayload, error)

	// JoinAsViewer adds conn to the channel's viewer set and returns the
	// broadcaster to handshake with. With an empty channelID it instead
	// returns the channel directory.
	JoinAsViewer(ctx context.Context, conn domain.ConnID, channelID string) (*domain.BroadcasterAvailablePayload, *domain.ChannelListPayload, error)

	// SetAlias stores a chat display name for a viewer.
	SetAlias(ctx context.Context, conn domain.ConnID, channelID, alias string) (*domain.AliasSetPayload, error)

	// StopBroadcast closes the channel, notifying every viewer.
	StopBroadcast(ctx context.Context, conn domain.ConnID, channelID string) error

	// Disconnect reconciles registry state after the transport loses conn.
	Disconnect(ctx context.Context, conn domain.ConnID)
}

// SignalingService routes handshake and chat payloads between connections.
type SignalingService interface {
	ForwardOffer(ctx context.Context, sender, target domain.ConnID, sdp string) error
	ForwardAnswer(ctx context.Context, sender, target domain.ConnID, sdp string) error
	ForwardICECandidate(ctx context.Context, sender, target domain.ConnID, candidate string) error

	// SendMessage delivers a chat message from a viewer to the channel's
	// broadcaster. The message is never stored.
	SendMessage(ctx context.Context, sender domain.ConnID, channelID, message string) error
}
