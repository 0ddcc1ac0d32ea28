/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package game

import (
	"errors"
	"fmt"
)

var (
	ErrUnauthorized      = errors.New("unauthorized command")
	ErrAdminTaken        = errors.New("admin already exists")
	ErrUnknownPlayer     = errors.New("unknown player")
	ErrUnknownSession    = errors.New("game not found")
	ErrInvalidTransition = errors.New("invalid move")
	ErrNotEnoughPlayers  = fmt.Errorf("%w: not enough players", ErrInvalidTransition)
	ErrDuplicateIdentity = errors.New("player already exists")
	ErrOverflowMove      = errors.New("cannot move beyond the last tile")
	ErrInvalidInput      = errors.New("invalid message")
	ErrInvalidToken      = errors.New("invalid rejoin token")
	ErrRateLimited       = errors.New("too many messages")
)

// ErrorCode maps an engine error onto the stable code sent to clients.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrAdminTaken):
		return "admin_taken"
	case errors.Is(err, ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, ErrUnknownPlayer):
		return "unknown_player"
	case errors.Is(err, ErrUnknownSession):
		return "unknown_session"
	case errors.Is(err, ErrNotEnoughPlayers):
		return "not_enough_players"
	case errors.Is(err, ErrInvalidTransition):
		return "invalid_transition"
	case errors.Is(err, ErrDuplicateIdentity):
		return "duplicate_identity"
	case errors.Is(err, ErrOverflowMove):
		return "overflow_move"
	case errors.Is(err, ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, ErrInvalidToken):
		return "invalid_token"
	case errors.Is(err, ErrRateLimited):
		return "rate_limited"
	default:
		return "internal"
	}
}
