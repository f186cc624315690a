package domain

import "errors"

var (
	ErrChannelNotFound  = errors.New("channel not found")
	ErrChannelExists    = errors.New("channel already has a broadcaster")
	ErrCapacityExceeded = errors.New("channel capacity exceeded")
	ErrNotBroadcaster   = errors.New("connection is not the channel broadcaster")
	ErrNotViewer        = errors.New("connection is not a viewer of the channel")
	ErrTargetNotFound   = errors.New("target connection not found")
)
