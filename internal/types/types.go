// Package types defines the JSON wire messages exchanged with clients
// and the mapping from engine errors to stable error codes.
package types

import (
	"errors"

	"github.com/ludojam/ludo-backend/internal/engine"
	"github.com/ludojam/ludo-backend/internal/gameroom"
	"github.com/ludojam/ludo-backend/internal/store"
)

type ClientMessage struct {
	Type    string `json:"type"` // "join" | "leave" | "start" | "roll" | "move"
	UID     string `json:"uid,omitempty"`
	Name    string `json:"name,omitempty"`
	TokenID int    `json:"token_id,omitempty"`
}

type ServerMessage struct {
	Type    string        `json:"type"` // "state" | "joined" | "error"
	Version int64         `json:"version,omitempty"`
	State   *engine.State `json:"state,omitempty"`
	UID     string        `json:"uid,omitempty"` // "joined": the uid this connection plays as
	Code    string        `json:"code,omitempty"`
	Error   string        `json:"error,omitempty"`
}

// Wire error codes, stable for client-side messaging.
const (
	CodeRoomNotFound       = "ROOM_NOT_FOUND"
	CodeRoomFull           = "ROOM_FULL"
	CodeNotAuthorized      = "NOT_AUTHORIZED"
	CodeInvalidTurn        = "INVALID_TURN"
	CodeRollAlreadyPending = "ROLL_ALREADY_PENDING"
	CodeNoPendingRoll      = "NO_PENDING_ROLL"
	CodeInvalidMove        = "INVALID_MOVE"
	CodeNotEnoughPlayers   = "NOT_ENOUGH_PLAYERS"
	CodeStaleState         = "STALE_STATE"
	CodeStoreUnavailable   = "STORE_UNAVAILABLE"
	CodeBadRequest         = "BAD_REQUEST"
)

// ErrorCode maps a failure to its wire code. Unknown errors fall back
// to STORE_UNAVAILABLE: everything else the engine can produce is
// enumerated here.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return CodeRoomNotFound
	case errors.Is(err, engine.ErrRoomFull):
		return CodeRoomFull
	case errors.Is(err, engine.ErrNotAuthorized), errors.Is(err, engine.ErrUnknownPlayer):
		return CodeNotAuthorized
	case errors.Is(err, engine.ErrInvalidTurn):
		return CodeInvalidTurn
	case errors.Is(err, engine.ErrRollAlreadyPending):
		return CodeRollAlreadyPending
	case errors.Is(err, engine.ErrNoPendingRoll):
		return CodeNoPendingRoll
	case errors.Is(err, engine.ErrInvalidMove), errors.Is(err, engine.ErrBadDiceValue):
		return CodeInvalidMove
	case errors.Is(err, engine.ErrNotEnoughPlayers):
		return CodeNotEnoughPlayers
	case errors.Is(err, gameroom.ErrStaleState), errors.Is(err, store.ErrConflict):
		return CodeStaleState
	case errors.Is(err, engine.ErrUnsupportedCommand):
		return CodeBadRequest
	default:
		return CodeStoreUnavailable
	}
}
