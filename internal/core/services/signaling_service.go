package services

import (
	"context"
	"fmt"
	"time"

	"beamcast/internal/core/domain"
	"beamcast/internal/core/ports"
	apperrors "beamcast/pkg/errors"
	"beamcast/pkg/validation"

	"go.uber.org/zap"
)

type signalingService struct {
	registry ports.ChannelRegistry
	notifier ports.Notifier
	logger   *zap.SugaredLogger
}

func NewSignalingService(registry ports.ChannelRegistry, notifier ports.Notifier, logger *zap.Logger) ports.SignalingService {
	return &signalingService{
		registry: registry,
		notifier: notifier,
		logger:   logger.Sugar(),
	}
}

func (s *signalingService) ForwardOffer(ctx context.Context, sender, target domain.ConnID, sdp string) error {
	return s.forwardDescription(ctx, domain.EventOffer, sender, target, sdp)
}

func (s *signalingService) ForwardAnswer(ctx context.Context, sender, target domain.ConnID, sdp string) error {
	return s.forwardDescription(ctx, domain.EventAnswer, sender, target, sdp)
}

// forwardDescription relays an offer or answer verbatim. Forwarding is not
// gated on channel membership: a target id is only ever learned through a
// join response, so an unknown pairing is tolerated and merely skips the
// activity refresh.
func (s *signalingService) forwardDescription(ctx context.Context, kind string, sender, target domain.ConnID, sdp string) error {
	if target == "" {
		return apperrors.NewValidationError("target", "target is required")
	}
	if sdp == "" {
		return apperrors.NewValidationError("sdp", "sdp is required")
	}

	s.touchEitherParty(ctx, sender, target)

	s.logger.Debugw("forwarding session description", "kind", kind, "from", sender, "to", target, "sdp_length", len(sdp))
	if err := s.notifier.Send(target, kind, domain.SessionDescriptionPayload{SDP: sdp, Sender: sender}); err != nil {
		return apperrors.NewNotFoundError(fmt.Sprintf("target %s", target))
	}
	return nil
}

func (s *signalingService) ForwardICECandidate(ctx context.Context, sender, target domain.ConnID, candidate string) error {
	if target == "" {
		return apperrors.NewValidationError("target", "target is required")
	}
	if candidate == "" {
		return apperrors.NewValidationError("candidate", "candidate is required")
	}

	// Trickled candidates count as channel activity too, so a slow handshake
	// cannot expire the channel mid-negotiation.
	s.touchEitherParty(ctx, sender, target)

	if err := s.notifier.Send(target, domain.EventICECandidate, domain.ICECandidatePayload{Candidate: candidate, Sender: sender}); err != nil {
		return apperrors.NewNotFoundError(fmt.Sprintf("target %s", target))
	}
	return nil
}

func (s *signalingService) SendMessage(ctx context.Context, sender domain.ConnID, channelID, message string) error {
	if err := validation.ValidateChannelID(channelID, true); err != nil {
		return apperrors.NewValidationError("channel_id", err.Error())
	}
	if err := validation.ValidateMessage(message); err != nil {
		return apperrors.NewValidationError("message", err.Error())
	}

	ch, err := s.registry.Get(ctx, domain.ChannelID(channelID))
	if err != nil {
		return apperrors.NewNotFoundError(fmt.Sprintf("channel %s", channelID))
	}
	if !ch.HasViewer(sender) {
		return apperrors.NewForbiddenError("you must be a viewer in this channel to send messages")
	}

	senderName, ok := ch.Aliases[sender]
	if !ok {
		senderName = defaultViewerName(sender)
	}

	s.logger.Debugw("chat message", "channel_id", channelID, "sender", senderName)
	if err := s.notifier.Send(ch.Broadcaster, domain.EventNewMessage, domain.NewMessagePayload{
		SenderName: senderName,
		Message:    message,
		Timestamp:  time.Now().Unix(),
	}); err != nil {
		return apperrors.NewNotFoundError("broadcaster")
	}
	return nil
}

// touchEitherParty refreshes the channel containing either end of a forward.
func (s *signalingService) touchEitherParty(ctx context.Context, sender, target domain.ConnID) {
	if s.registry.TouchByMember(ctx, sender) {
		return
	}
	s.registry.TouchByMember(ctx, target)
}

func defaultViewerName(conn domain.ConnID) string {
	id := string(conn)
	if len(id) > 8 {
		id = id[:8]
	}
	return "Viewer-" + id
}
