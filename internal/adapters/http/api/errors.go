package api

import (
	"errors"
	"fmt"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest   = errors.New("bad request")
	ErrUnknownView  = errors.New("unknown view")
	ErrRateLimited  = errors.New("rate limit exceeded")
	ErrUnavailable  = errors.New("rankings unavailable")
	ErrMethodDenied = errors.New("method not allowed")
)

// NewKind tags a sentinel kind with the operation that produced it.
func NewKind(op string, kind error) error {
	return fmt.Errorf("%s: %w", op, kind)
}

// WrapKind tags err with op and kind, keeping both matchable.
func WrapKind(op string, kind, err error) error {
	return fmt.Errorf("%s: %w: %w", op, kind, err)
}
