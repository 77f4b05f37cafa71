package domain

import "errors"

var (
	ErrNotFound           = errors.New("not found")
	ErrAlreadyExists      = errors.New("already exists")
	ErrInvalidInput       = errors.New("invalid input")
	ErrTransport          = errors.New("provider transport error")
	ErrStore              = errors.New("store error")
	ErrInsufficientData   = errors.New("insufficient data")
	ErrReconnectExhausted = errors.New("reconnect attempts exhausted")
	ErrWSDisconnect       = errors.New("websocket disconnected")
)
