package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"beamcast/internal/core/domain"
	"beamcast/internal/infrastructure/repositories/memory"
	apperrors "beamcast/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// failingNotifier simulates a transport that has lost every connection.
type failingNotifier struct{}

func (failingNotifier) Send(domain.ConnID, string, interface{}) error {
	return errors.New("connection gone")
}

func newSignalingFixture(t *testing.T) (*memory.ChannelRegistry, *recordingNotifier, *signalingService) {
	t.Helper()
	registry := memory.NewChannelRegistry(100, time.Hour)
	notifier := &recordingNotifier{}
	svc := NewSignalingService(registry, notifier, zap.NewNop()).(*signalingService)
	return registry, notifier, svc
}

func TestForwardOffer_RelaysVerbatimWithSender(t *testing.T) {
	_, notifier, svc := newSignalingFixture(t)

	err := svc.ForwardOffer(context.Background(), "viewer-1", "conn-1", "v=0...")
	require.NoError(t, err)

	events := notifier.sentTo("conn-1", domain.EventOffer)
	require.Len(t, events, 1)
	payload := events[0].Payload.(domain.SessionDescriptionPayload)
	assert.Equal(t, "v=0...", payload.SDP)
	assert.Equal(t, domain.ConnID("viewer-1"), payload.Sender)
}

func TestForwardAnswer_RelaysVerbatimWithSender(t *testing.T) {
	_, notifier, svc := newSignalingFixture(t)

	err := svc.ForwardAnswer(context.Background(), "conn-1", "viewer-1", "v=0-ans")
	require.NoError(t, err)

	events := notifier.sentTo("viewer-1", domain.EventAnswer)
	require.Len(t, events, 1)
	payload := events[0].Payload.(domain.SessionDescriptionPayload)
	assert.Equal(t, "v=0-ans", payload.SDP)
	assert.Equal(t, domain.ConnID("conn-1"), payload.Sender)
}

func TestForward_RefreshesChannelActivity(t *testing.T) {
	registry, _, svc := newSignalingFixture(t)
	ctx := context.Background()

	_, err := registry.Create(ctx, "room1", "conn-1")
	require.NoError(t, err)
	_, err = registry.AddViewer(ctx, "room1", "viewer-1")
	require.NoError(t, err)

	before, err := registry.Get(ctx, "room1")
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)
	require.NoError(t, svc.ForwardOffer(ctx, "viewer-1", "conn-1", "v=0..."))

	after, err := registry.Get(ctx, "room1")
	require.NoError(t, err)
	assert.True(t, after.LastActivity.After(before.LastActivity))
}

func TestForwardICECandidate_RefreshesActivityToo(t *testing.T) {
	registry, notifier, svc := newSignalingFixture(t)
	ctx := context.Background()

	_, err := registry.Create(ctx, "room1", "conn-1")
	require.NoError(t, err)

	before, err := registry.Get(ctx, "room1")
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)
	require.NoError(t, svc.ForwardICECandidate(ctx, "viewer-1", "conn-1", "candidate:1 1 UDP ..."))

	events := notifier.sentTo("conn-1", domain.EventICECandidate)
	require.Len(t, events, 1)
	payload := events[0].Payload.(domain.ICECandidatePayload)
	assert.Equal(t, "candidate:1 1 UDP ...", payload.Candidate)

	after, err := registry.Get(ctx, "room1")
	require.NoError(t, err)
	assert.True(t, after.LastActivity.After(before.LastActivity))
}

func TestForward_UnknownPartiesStillForwarded(t *testing.T) {
	_, notifier, svc := newSignalingFixture(t)

	// Neither side belongs to any channel; the relay forwards anyway.
	require.NoError(t, svc.ForwardOffer(context.Background(), "ghost-a", "ghost-b", "v=0..."))
	assert.Len(t, notifier.sentTo("ghost-b", domain.EventOffer), 1)
}

func TestForward_UnknownTargetReportedToSenderOnly(t *testing.T) {
	registry := memory.NewChannelRegistry(100, time.Hour)
	svc := NewSignalingService(registry, failingNotifier{}, zap.NewNop())

	err := svc.ForwardOffer(context.Background(), "viewer-1", "gone", "v=0...")
	appErr := apperrors.GetAppError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, apperrors.ErrCodeNotFound, appErr.Code)
}

func TestForward_MissingTargetOrPayloadRejected(t *testing.T) {
	_, _, svc := newSignalingFixture(t)
	ctx := context.Background()

	assert.NotNil(t, apperrors.GetAppError(svc.ForwardOffer(ctx, "a", "", "v=0")))
	assert.NotNil(t, apperrors.GetAppError(svc.ForwardOffer(ctx, "a", "b", "")))
	assert.NotNil(t, apperrors.GetAppError(svc.ForwardICECandidate(ctx, "a", "b", "")))
}

func TestSendMessage_DeliversToBroadcasterWithAlias(t *testing.T) {
	registry, notifier, svc := newSignalingFixture(t)
	ctx := context.Background()

	_, err := registry.Create(ctx, "room1", "conn-1")
	require.NoError(t, err)
	_, err = registry.AddViewer(ctx, "room1", "viewer-1")
	require.NoError(t, err)
	require.NoError(t, registry.SetAlias(ctx, "room1", "viewer-1", "Al_99"))

	require.NoError(t, svc.SendMessage(ctx, "viewer-1", "room1", "hello"))

	events := notifier.sentTo("conn-1", domain.EventNewMessage)
	require.Len(t, events, 1)
	payload := events[0].Payload.(domain.NewMessagePayload)
	assert.Equal(t, "Al_99", payload.SenderName)
	assert.Equal(t, "hello", payload.Message)
	assert.NotZero(t, payload.Timestamp)
}

func TestSendMessage_FallsBackToTruncatedID(t *testing.T) {
	registry, notifier, svc := newSignalingFixture(t)
	ctx := context.Background()

	_, err := registry.Create(ctx, "room1", "conn-1")
	require.NoError(t, err)
	_, err = registry.AddViewer(ctx, "room1", "abcdef1234567890")
	require.NoError(t, err)

	require.NoError(t, svc.SendMessage(ctx, "abcdef1234567890", "room1", "hi there"))

	events := notifier.sentTo("conn-1", domain.EventNewMessage)
	require.Len(t, events, 1)
	payload := events[0].Payload.(domain.NewMessagePayload)
	assert.Equal(t, "Viewer-abcdef12", payload.SenderName)
}

func TestSendMessage_ForbiddenForNonViewers(t *testing.T) {
	registry, notifier, svc := newSignalingFixture(t)
	ctx := context.Background()

	_, err := registry.Create(ctx, "room1", "conn-1")
	require.NoError(t, err)

	err = svc.SendMessage(ctx, "outsider", "room1", "hello")
	appErr := apperrors.GetAppError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, apperrors.ErrCodeForbidden, appErr.Code)
	assert.Empty(t, notifier.sentTo("conn-1", domain.EventNewMessage))
}

func TestSendMessage_ScriptInjectionNeverReachesBroadcaster(t *testing.T) {
	registry, notifier, svc := newSignalingFixture(t)
	ctx := context.Background()

	_, err := registry.Create(ctx, "room1", "conn-1")
	require.NoError(t, err)
	_, err = registry.AddViewer(ctx, "room1", "viewer-1")
	require.NoError(t, err)

	err = svc.SendMessage(ctx, "viewer-1", "room1", "<script>alert(1)</script>")
	appErr := apperrors.GetAppError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, apperrors.ErrCodeValidation, appErr.Code)
	assert.Equal(t, "message", appErr.Field)
	assert.Empty(t, notifier.sentTo("conn-1", domain.EventNewMessage))
}

func TestSendMessage_UnknownChannel(t *testing.T) {
	_, _, svc := newSignalingFixture(t)

	err := svc.SendMessage(context.Background(), "viewer-1", "ghost", "hello")
	appErr := apperrors.GetAppError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, apperrors.ErrCodeNotFound, appErr.Code)
}
