package ports

import "beamcast/internal/core/domain"

// Notifier is the outbound side of the signaling transport: deliver one
// event to one live connection. Implementations must be safe for concurrent
// use and must not be called while holding registry locks.
type Notifier interface {
	Send(conn domain.ConnID, event string, payload interface{}) error
}
