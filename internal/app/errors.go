package service

import "errors"

// Sentinel kinds for service errors.
var (
	ErrNotStarted    = errors.New("service not started")
	ErrUnavailable   = errors.New("rankings unavailable")
	ErrAggregate     = errors.New("ranking aggregation failed")
	ErrInvalidQuery  = errors.New("invalid table query")
	ErrUnknownView   = errors.New("unknown view")
	ErrInvalidOption = errors.New("invalid service option")
)
