package signal

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"beamcast/internal/core/domain"
	"beamcast/internal/core/ports"
	"beamcast/internal/infrastructure/monitoring"
	"beamcast/pkg/config"
	apperrors "beamcast/pkg/errors"
	"beamcast/pkg/tracing"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Should be configured properly for production
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// Inbound message kinds.
const (
	kindJoinAsBroadcaster = "join_as_broadcaster"
	kindJoinAsViewer      = "join_as_viewer"
	kindOffer             = "offer"
	kindAnswer            = "answer"
	kindICECandidate      = "ice_candidate"
	kindStopBroadcast     = "stop_broadcast"
	kindSetAlias          = "set_alias"
	kindSendMessage       = "send_message"
)

// SignalMessage is the inbound envelope; payloads decode per kind.
type SignalMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type JoinBroadcasterPayload struct {
	ChannelID string `json:"channel_id,omitempty"`
}

type JoinViewerPayload struct {
	ChannelID string `json:"channel_id,omitempty"`
}

type DescriptionPayload struct {
	Target string `json:"target"`
	SDP    string `json:"sdp"`
}

type CandidatePayload struct {
	Target    string `json:"target"`
	Candidate string `json:"candidate"`
}

type StopBroadcastPayload struct {
	ChannelID string `json:"channel_id"`
}

type SetAliasPayload struct {
	ChannelID string `json:"channel_id"`
	Alias     string `json:"alias"`
}

type SendMessagePayload struct {
	ChannelID string `json:"channel_id"`
	Message   string `json:"message"`
}

// ErrorPayload is the structured validation/failure report sent back to the
// offending connection only.
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

type WebSocketServer struct {
	hub        *Hub
	membership ports.MembershipService
	signaling  ports.SignalingService
	registry   ports.ChannelRegistry
	metrics    *monitoring.PrometheusCollector

	pingInterval time.Duration
	pongTimeout  time.Duration
	readTimeout  time.Duration

	msgRate        rate.Limit
	msgBurst       int
	maxMessageSize int64

	logger *zap.SugaredLogger
}

func NewWebSocketServer(
	hub *Hub,
	membership ports.MembershipService,
	signaling ports.SignalingService,
	registry ports.ChannelRegistry,
	metrics *monitoring.PrometheusCollector,
	cfg *config.Config,
	logger *zap.Logger,
) *WebSocketServer {
	s := &WebSocketServer{
		hub:          hub,
		membership:   membership,
		signaling:    signaling,
		registry:     registry,
		metrics:      metrics,
		pingInterval: cfg.Signal.PingInterval,
		pongTimeout:  cfg.Signal.PongTimeout,
		readTimeout:  cfg.Signal.ReadTimeout,
		logger:       logger.Sugar(),
	}
	if cfg.RateLimiting.Enabled {
		s.msgRate = rate.Limit(cfg.RateLimiting.WebSocket.MessagesPerSecond)
		s.msgBurst = cfg.RateLimiting.WebSocket.Burst
		s.maxMessageSize = cfg.RateLimiting.WebSocket.MaxMessageSizeBytes
	}
	return s
}

func (s *WebSocketServer) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Errorw("websocket upgrade failed", "error", err)
		return
	}
	defer ws.Close()

	connID := domain.ConnID(uuid.NewString())
	s.hub.Register(connID, ws)
	s.metrics.SetConnectionsActive(s.hub.Count())
	s.logger.Infow("client connected", "conn_id", connID)

	// Acknowledge the connection with its opaque identifier.
	if err := s.hub.Send(connID, domain.EventClientID, domain.ClientIDPayload{ID: connID}); err != nil {
		s.logger.Warnw("failed to send client id", "conn_id", connID, "error", err)
	}

	if s.maxMessageSize > 0 {
		ws.SetReadLimit(s.maxMessageSize)
	}
	ws.SetReadDeadline(time.Now().Add(s.readTimeout))
	ws.SetPongHandler(func(string) error {
		ws.SetReadDeadline(time.Now().Add(s.readTimeout))
		return nil
	})

	var limiter *rate.Limiter
	if s.msgRate > 0 {
		limiter = rate.NewLimiter(s.msgRate, s.msgBurst)
	}

	pingTicker := time.NewTicker(s.pingInterval)
	defer pingTicker.Stop()

	messageChan := make(chan SignalMessage, 10)
	errorChan := make(chan error, 1)

	go func() {
		for {
			var msg SignalMessage
			if err := ws.ReadJSON(&msg); err != nil {
				errorChan <- err
				return
			}
			ws.SetReadDeadline(time.Now().Add(s.readTimeout))
			messageChan <- msg
		}
	}()

loop:
	for {
		select {
		case msg := <-messageChan:
			if limiter != nil && !limiter.Allow() {
				s.sendError(connID, apperrors.NewRateLimitError())
				continue
			}
			if err := s.dispatch(r.Context(), connID, msg); err != nil {
				s.sendError(connID, err)
			}

		case <-pingTicker.C:
			deadline := time.Now().Add(s.hub.writeTimeout)
			if err := ws.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				s.logger.Infow("error sending ping", "conn_id", connID, "error", err)
				break loop
			}

		case err := <-errorChan:
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				s.logger.Infow("error reading message", "conn_id", connID, "error", err)
			}
			break loop
		}
	}

	// Clean up on disconnect
	s.hub.Unregister(connID)
	s.membership.Disconnect(context.Background(), connID)
	s.metrics.SetConnectionsActive(s.hub.Count())
	s.metrics.SetChannelsActive(s.registry.Len(context.Background()))
	s.logger.Infow("client disconnected", "conn_id", connID)
}

// dispatch decodes one inbound message and routes it to the core services.
// A panicking handler is reported to the sender instead of escaping into the
// connection loop.
func (s *WebSocketServer) dispatch(ctx context.Context, connID domain.ConnID, msg SignalMessage) (err error) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Errorw("handler panicked", "conn_id", connID, "kind", msg.Type, "panic", r)
			err = apperrors.NewInternalError("internal error")
		}
	}()

	if msg.Type == "" {
		return apperrors.NewValidationError("type", "message type is required")
	}

	ctx, span := tracing.TraceSignalMessage(ctx, msg.Type, string(connID))
	defer span.End()

	switch msg.Type {
	case kindJoinAsBroadcaster:
		err = s.handleJoinBroadcaster(ctx, connID, msg.Payload)
	case kindJoinAsViewer:
		err = s.handleJoinViewer(ctx, connID, msg.Payload)
	case kindOffer:
		err = s.handleDescription(ctx, connID, kindOffer, msg.Payload)
	case kindAnswer:
		err = s.handleDescription(ctx, connID, kindAnswer, msg.Payload)
	case kindICECandidate:
		err = s.handleICECandidate(ctx, connID, msg.Payload)
	case kindStopBroadcast:
		err = s.handleStopBroadcast(ctx, connID, msg.Payload)
	case kindSetAlias:
		err = s.handleSetAlias(ctx, connID, msg.Payload)
	case kindSendMessage:
		err = s.handleSendMessage(ctx, connID, msg.Payload)
	default:
		err = apperrors.NewValidationError("type", fmt.Sprintf("unknown message type: %s", msg.Type))
	}

	if err != nil {
		tracing.RecordError(ctx, err)
	}
	return err
}

func (s *WebSocketServer) handleJoinBroadcaster(ctx context.Context, connID domain.ConnID, raw json.RawMessage) error {
	var payload JoinBroadcasterPayload
	if err := decodePayload(raw, &payload); err != nil {
		return err
	}

	ready, err := s.membership.JoinAsBroadcaster(ctx, connID, payload.ChannelID)
	if err != nil {
		return err
	}

	s.metrics.IncChannelsCreated()
	s.metrics.SetChannelsActive(s.registry.Len(ctx))
	return s.hub.Send(connID, domain.EventBroadcasterReady, ready)
}

func (s *WebSocketServer) handleJoinViewer(ctx context.Context, connID domain.ConnID, raw json.RawMessage) error {
	var payload JoinViewerPayload
	if err := decodePayload(raw, &payload); err != nil {
		return err
	}

	available, list, err := s.membership.JoinAsViewer(ctx, connID, payload.ChannelID)
	if err != nil {
		return err
	}
	if list != nil {
		return s.hub.Send(connID, domain.EventChannelList, list)
	}
	return s.hub.Send(connID, domain.EventBroadcasterAvailable, available)
}

func (s *WebSocketServer) handleDescription(ctx context.Context, connID domain.ConnID, kind string, raw json.RawMessage) error {
	var payload DescriptionPayload
	if err := decodePayload(raw, &payload); err != nil {
		return err
	}

	var err error
	if kind == kindOffer {
		err = s.signaling.ForwardOffer(ctx, connID, domain.ConnID(payload.Target), payload.SDP)
	} else {
		err = s.signaling.ForwardAnswer(ctx, connID, domain.ConnID(payload.Target), payload.SDP)
	}
	if err != nil {
		return err
	}
	s.metrics.IncSignalForwarded(kind)
	return nil
}

func (s *WebSocketServer) handleICECandidate(ctx context.Context, connID domain.ConnID, raw json.RawMessage) error {
	var payload CandidatePayload
	if err := decodePayload(raw, &payload); err != nil {
		return err
	}

	if err := s.signaling.ForwardICECandidate(ctx, connID, domain.ConnID(payload.Target), payload.Candidate); err != nil {
		return err
	}
	s.metrics.IncSignalForwarded(kindICECandidate)
	return nil
}

func (s *WebSocketServer) handleStopBroadcast(ctx context.Context, connID domain.ConnID, raw json.RawMessage) error {
	var payload StopBroadcastPayload
	if err := decodePayload(raw, &payload); err != nil {
		return err
	}

	if err := s.membership.StopBroadcast(ctx, connID, payload.ChannelID); err != nil {
		return err
	}
	s.metrics.SetChannelsActive(s.registry.Len(ctx))
	return nil
}

func (s *WebSocketServer) handleSetAlias(ctx context.Context, connID domain.ConnID, raw json.RawMessage) error {
	var payload SetAliasPayload
	if err := decodePayload(raw, &payload); err != nil {
		return err
	}

	ack, err := s.membership.SetAlias(ctx, connID, payload.ChannelID, payload.Alias)
	if err != nil {
		return err
	}
	return s.hub.Send(connID, domain.EventAliasSet, ack)
}

func (s *WebSocketServer) handleSendMessage(ctx context.Context, connID domain.ConnID, raw json.RawMessage) error {
	var payload SendMessagePayload
	if err := decodePayload(raw, &payload); err != nil {
		return err
	}

	if err := s.signaling.SendMessage(ctx, connID, payload.ChannelID, payload.Message); err != nil {
		return err
	}
	s.metrics.IncChatMessages()
	return nil
}

// sendError reports a failure to the offending connection only.
func (s *WebSocketServer) sendError(connID domain.ConnID, err error) {
	payload := ErrorPayload{
		Code:    string(apperrors.ErrCodeInternal),
		Message: "internal error",
	}
	if appErr := apperrors.GetAppError(err); appErr != nil {
		payload.Code = string(appErr.Code)
		payload.Message = appErr.Message
		payload.Field = appErr.Field
	}

	s.metrics.IncError(payload.Code)
	if sendErr := s.hub.Send(connID, domain.EventError, payload); sendErr != nil {
		s.logger.Debugw("could not deliver error", "conn_id", connID, "error", sendErr)
	}
}

func decodePayload(raw json.RawMessage, v interface{}) error {
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return apperrors.NewValidationError("payload", fmt.Sprintf("invalid payload: %v", err))
	}
	return nil
}
