package services

import (
	"context"
	"fmt"
	"strings"

	"beamcast/internal/core/domain"
	"beamcast/internal/core/ports"
	apperrors "beamcast/pkg/errors"
	"beamcast/pkg/validation"

	"go.uber.org/zap"
)

type membershipService struct {
	registry ports.ChannelRegistry
	notifier ports.Notifier
	logger   *zap.SugaredLogger
}

func NewMembershipService(registry ports.ChannelRegistry, notifier ports.Notifier, logger *zap.Logger) ports.MembershipService {
	return &membershipService{
		registry: registry,
		notifier: notifier,
		logger:   logger.Sugar(),
	}
}

func (s *membershipService) JoinAsBroadcaster(ctx context.Context, conn domain.ConnID, requestedID string) (*domain.BroadcasterReadyPayload, error) {
	if err := validation.ValidateChannelID(requestedID, false); err != nil {
		return nil, apperrors.NewValidationError("channel_id", err.Error())
	}

	ch, err := s.registry.Create(ctx, domain.ChannelID(requestedID), conn)
	switch {
	case err == domain.ErrChannelExists:
		return nil, apperrors.NewConflictError(fmt.Sprintf("channel %s already has a broadcaster", requestedID))
	case err == domain.ErrCapacityExceeded:
		return nil, apperrors.NewCapacityExceededError("no channel slots available")
	case err != nil:
		return nil, apperrors.WrapError(err, apperrors.ErrCodeInternal, "failed to create channel", 500)
	}

	s.logger.Infow("broadcaster joined channel", "channel_id", ch.ID, "conn_id", conn)
	return &domain.BroadcasterReadyPayload{ID: conn, ChannelID: ch.ID}, nil
}

func (s *membershipService) JoinAsViewer(ctx context.Context, conn domain.ConnID, channelID string) (*domain.BroadcasterAvailablePayload, *domain.ChannelListPayload, error) {
	if err := validation.ValidateChannelID(channelID, false); err != nil {
		return nil, nil, apperrors.NewValidationError("channel_id", err.Error())
	}

	// No channel requested: return the directory for discovery UIs.
	if channelID == "" {
		return nil, &domain.ChannelListPayload{Channels: s.registry.List(ctx)}, nil
	}

	ch, err := s.registry.AddViewer(ctx, domain.ChannelID(channelID), conn)
	switch {
	case err == domain.ErrChannelNotFound:
		return nil, nil, apperrors.NewNotFoundError(fmt.Sprintf("channel %s", channelID))
	case err == domain.ErrNotViewer:
		return nil, nil, apperrors.NewForbiddenError("broadcaster cannot join its own channel as viewer")
	case err != nil:
		return nil, nil, apperrors.WrapError(err, apperrors.ErrCodeInternal, "failed to join channel", 500)
	}

	s.logger.Infow("viewer joined channel", "channel_id", ch.ID, "conn_id", conn, "viewer_count", len(ch.Viewers))
	return &domain.BroadcasterAvailablePayload{BroadcasterID: ch.Broadcaster, ChannelID: ch.ID}, nil, nil
}

func (s *membershipService) SetAlias(ctx context.Context, conn domain.ConnID, channelID, alias string) (*domain.AliasSetPayload, error) {
	if err := validation.ValidateChannelID(channelID, true); err != nil {
		return nil, apperrors.NewValidationError("channel_id", err.Error())
	}
	if err := validation.ValidateAlias(alias); err != nil {
		return nil, apperrors.NewValidationError("alias", err.Error())
	}
	alias = strings.TrimSpace(alias)

	err := s.registry.SetAlias(ctx, domain.ChannelID(channelID), conn, alias)
	switch {
	case err == domain.ErrChannelNotFound:
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("channel %s", channelID))
	case err == domain.ErrNotViewer:
		return nil, apperrors.NewForbiddenError("you must be a viewer in this channel")
	case err != nil:
		return nil, apperrors.WrapError(err, apperrors.ErrCodeInternal, "failed to set alias", 500)
	}

	s.logger.Debugw("viewer set alias", "channel_id", channelID, "conn_id", conn, "alias", alias)
	return &domain.AliasSetPayload{Alias: alias, Success: true}, nil
}

func (s *membershipService) StopBroadcast(ctx context.Context, conn domain.ConnID, channelID string) error {
	if err := validation.ValidateChannelID(channelID, true); err != nil {
		return apperrors.NewValidationError("channel_id", err.Error())
	}

	ch, err := s.registry.Get(ctx, domain.ChannelID(channelID))
	if err != nil {
		return apperrors.NewNotFoundError(fmt.Sprintf("channel %s", channelID))
	}
	if ch.Broadcaster != conn {
		return apperrors.NewForbiddenError("you are not the broadcaster of this channel")
	}

	removed, err := s.registry.Remove(ctx, domain.ChannelID(channelID))
	if err != nil {
		// Expired between Get and Remove; nothing left to notify.
		return apperrors.NewNotFoundError(fmt.Sprintf("channel %s", channelID))
	}

	s.logger.Infow("broadcast stopped", "channel_id", channelID, "viewer_count", len(removed.Viewers))
	for _, viewer := range removed.ViewerList() {
		if err := s.notifier.Send(viewer, domain.EventBroadcasterStopped, domain.BroadcasterStoppedPayload{ChannelID: removed.ID}); err != nil {
			s.logger.Warnw("failed to notify viewer of stopped broadcast", "conn_id", viewer, "error", err)
		}
	}
	return nil
}

func (s *membershipService) Disconnect(ctx context.Context, conn domain.ConnID) {
	closed := s.registry.DropConnection(ctx, conn)
	for _, ch := range closed {
		s.logger.Infow("broadcaster disconnected, closing channel", "channel_id", ch.ID, "viewer_count", len(ch.Viewers))
		for _, viewer := range ch.ViewerList() {
			if err := s.notifier.Send(viewer, domain.EventBroadcasterDisconnected, struct{}{}); err != nil {
				s.logger.Warnw("failed to notify viewer of disconnect", "conn_id", viewer, "error", err)
			}
		}
	}
}
