package domain

// Outbound event names on the signaling transport.
const (
	EventClientID                = "client_id"
	EventBroadcasterReady        = "broadcaster_ready"
	EventBroadcasterAvailable    = "broadcaster_available"
	EventChannelList             = "channel_list"
	EventOffer                   = "offer"
	EventAnswer                  = "answer"
	EventICECandidate            = "ice_candidate"
	EventBroadcasterStopped      = "broadcaster_stopped"
	EventBroadcasterDisconnected = "broadcaster_disconnected"
	EventAliasSet                = "alias_set"
	EventNewMessage              = "new_message"
	EventError                   = "error"
)

type ClientIDPayload struct {
	ID ConnID `json:"id"`
}

type BroadcasterReadyPayload struct {
	ID        ConnID    `json:"id"`
	ChannelID ChannelID `json:"channel_id"`
}

type BroadcasterAvailablePayload struct {
	BroadcasterID ConnID    `json:"broadcaster_id"`
	ChannelID     ChannelID `json:"channel_id"`
}

type ChannelListPayload struct {
	Channels []ChannelInfo `json:"channels"`
}

// SessionDescriptionPayload carries a forwarded offer or answer. The SDP is
// opaque to the relay.
type SessionDescriptionPayload struct {
	SDP    string `json:"sdp"`
	Sender ConnID `json:"sender"`
}

type ICECandidatePayload struct {
	Candidate string `json:"candidate"`
	Sender    ConnID `json:"sender"`
}

type BroadcasterStoppedPayload struct {
	ChannelID ChannelID `json:"channel_id"`
}

type AliasSetPayload struct {
	Alias   string `json:"alias"`
	Success bool   `json:"success"`
}

type NewMessagePayload struct {
	SenderName string `json:"sender_name"`
	Message    string `json:"message"`
	Timestamp  int64  `json:"timestamp"`
}
