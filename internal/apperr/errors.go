// Package apperr defines the error kinds shared by the room coordination
// layer and the HTTP edge. Specific errors wrap a kind, so callers can match
// either the exact error or the whole kind with errors.Is.
package apperr

import (
	"errors"
	"fmt"
)

// Kinds.
var (
	ErrUnauthenticated  = errors.New("authentication required")
	ErrNotAuthorized    = errors.New("not authorized")
	ErrNotFound         = errors.New("not found")
	ErrCapacityExceeded = errors.New("capacity exceeded")
	ErrInvalidState     = errors.New("invalid state")
	ErrInvalidInput     = errors.New("invalid input")
)

// Specific errors.
var (
	ErrInvalidToken      = fmt.Errorf("invalid token: %w", ErrUnauthenticated)
	ErrRoomNotFound      = fmt.Errorf("room %w", ErrNotFound)
	ErrUserNotFound      = fmt.Errorf("user %w", ErrNotFound)
	ErrRoomFull          = fmt.Errorf("room is full: %w", ErrCapacityExceeded)
	ErrProfileIncomplete = fmt.Errorf("please set your region and campus first: %w", ErrInvalidState)
	ErrRoomNameRequired  = fmt.Errorf("room name is required: %w", ErrInvalidInput)
	ErrRoomCodeRequired  = fmt.Errorf("room code is required: %w", ErrInvalidInput)

	// ErrPasswordRequired and ErrInvalidPassword are authorization failures
	// that the REST layer reports with distinct reasons.
	ErrPasswordRequired = fmt.Errorf("password required: %w", ErrNotAuthorized)
	ErrInvalidPassword  = fmt.Errorf("invalid password: %w", ErrNotAuthorized)

	ErrRoomCodeTaken            = errors.New("room code already taken")
	ErrRoomCodeGenerationFailed = errors.New("failed to generate unique room code after multiple attempts")
)
