// Package engine implements the turn and token resolution state machine
// as a pure transition function over room snapshots. Apply never mutates
// its input; callers commit the returned state through the store's
// compare-and-set and treat only the echoed document as authoritative.
package engine

import (
	"errors"
	"time"

	"github.com/ludojam/ludo-backend/internal/board"
)

var ErrRoomFull = errors.New("room is full")
var ErrNotAuthorized = errors.New("not authorized")
var ErrInvalidTurn = errors.New("invalid turn")
var ErrRollAlreadyPending = errors.New("roll already pending")
var ErrNoPendingRoll = errors.New("no pending roll")
var ErrInvalidMove = errors.New("invalid move")
var ErrNotEnoughPlayers = errors.New("not enough players")
var ErrUnknownPlayer = errors.New("unknown player")
var ErrBadDiceValue = errors.New("dice value out of range")
var ErrUnsupportedCommand = errors.New("unsupported command")

type CommandType string

const (
	CmdJoin      CommandType = "Join"
	CmdLeave     CommandType = "Leave"
	CmdStartGame CommandType = "StartGame"
	CmdRollDice  CommandType = "RollDice"
	CmdMoveToken CommandType = "MoveToken"
)

type Command struct {
	Type    CommandType
	UID     string
	Name    string    // Join
	Value   int       // RollDice: the drawn value, 1..6
	TokenID int       // MoveToken
	At      time.Time // Join: seated-at timestamp
}

type EventType string

const (
	EvtPlayerJoined EventType = "PlayerJoined"
	EvtPlayerLeft   EventType = "PlayerLeft"
	EvtGameStarted  EventType = "GameStarted"
	EvtDiceRolled   EventType = "DiceRolled"
	EvtTurnPassed   EventType = "TurnPassed" // auto-pass: no legal move
	EvtTokenMoved   EventType = "TokenMoved"
	EvtTurnAdvanced EventType = "TurnAdvanced"
	EvtGameWon      EventType = "GameWon"
)

type Event struct {
	Type    EventType
	UID     string
	Value   int
	TokenID int
}

// Apply validates cmd against s and returns the emitted events plus the
// successor state. On error the input state is returned unchanged.
func Apply(s State, cmd Command) ([]Event, State, error) {
	switch cmd.Type {
	case CmdJoin:
		return applyJoin(s, cmd)
	case CmdLeave:
		return applyLeave(s, cmd)
	case CmdStartGame:
		return applyStart(s, cmd)
	case CmdRollDice:
		return applyRoll(s, cmd)
	case CmdMoveToken:
		return applyMove(s, cmd)
	default:
		return nil, s, ErrUnsupportedCommand
	}
}

func applyJoin(s State, cmd Command) ([]Event, State, error) {
	next := s.Clone()

	if p, ok := next.Players[cmd.UID]; ok {
		// Rejoin: reactivate the existing seat, keep color and tokens.
		p.Active = true
		if cmd.Name != "" {
			p.Name = cmd.Name
		}
		next.Players[cmd.UID] = p
		return []Event{{Type: EvtPlayerJoined, UID: cmd.UID}}, next, nil
	}

	if len(next.Players) >= board.MaxPlayers {
		return nil, s, ErrRoomFull
	}

	seat := lowestFreeSeat(next)
	next.Players[cmd.UID] = newPlayer(cmd.UID, cmd.Name, seat, cmd.At)
	return []Event{{Type: EvtPlayerJoined, UID: cmd.UID}}, next, nil
}

func applyLeave(s State, cmd Command) ([]Event, State, error) {
	p, ok := s.Players[cmd.UID]
	if !ok {
		return nil, s, ErrUnknownPlayer
	}

	next := s.Clone()
	p.Active = false
	next.Players[cmd.UID] = p

	events := []Event{{Type: EvtPlayerLeft, UID: cmd.UID}}
	if next.CurrentTurn == cmd.UID && next.Status != StatusFinished {
		// The seat keeps its color but loses the die.
		next.PendingRoll = nil
		if heir := nextActive(next, cmd.UID); heir != "" {
			next.CurrentTurn = heir
			events = append(events, Event{Type: EvtTurnAdvanced, UID: heir})
		}
	}
	return events, next, nil
}

func applyStart(s State, cmd Command) ([]Event, State, error) {
	if s.Status != StatusLobby {
		return nil, s, ErrInvalidTurn
	}
	host, ok := s.SeatPlayer(0)
	if !ok || host.UID != cmd.UID {
		return nil, s, ErrNotAuthorized
	}
	if s.ActiveCount() < board.MinPlayers {
		return nil, s, ErrNotEnoughPlayers
	}

	next := s.Clone()
	next.Status = StatusInProgress
	next.CurrentTurn = cmd.UID
	return []Event{{Type: EvtGameStarted, UID: cmd.UID}}, next, nil
}

func applyRoll(s State, cmd Command) ([]Event, State, error) {
	if s.Status != StatusInProgress || s.CurrentTurn != cmd.UID {
		return nil, s, ErrInvalidTurn
	}
	if s.PendingRoll != nil {
		return nil, s, ErrRollAlreadyPending
	}
	if cmd.Value < board.DiceMin || cmd.Value > board.DiceMax {
		return nil, s, ErrBadDiceValue
	}

	next := s.Clone()
	v := cmd.Value
	next.PendingRoll = &v
	events := []Event{{Type: EvtDiceRolled, UID: cmd.UID, Value: v}}

	// Auto-pass: a roll the player cannot use must not stall the game.
	if !hasLegalMove(next.Players[cmd.UID], v) {
		next.PendingRoll = nil
		heir := nextActive(next, cmd.UID)
		if heir == "" { // sole active player: the turn wraps back
			heir = cmd.UID
		}
		next.CurrentTurn = heir
		events = append(events,
			Event{Type: EvtTurnPassed, UID: cmd.UID, Value: v},
			Event{Type: EvtTurnAdvanced, UID: heir})
	}
	return events, next, nil
}

func applyMove(s State, cmd Command) ([]Event, State, error) {
	if s.Status != StatusInProgress || s.CurrentTurn != cmd.UID {
		return nil, s, ErrInvalidTurn
	}
	if s.PendingRoll == nil {
		return nil, s, ErrNoPendingRoll
	}
	if cmd.TokenID < 0 || cmd.TokenID >= board.TokensPerPlayer {
		return nil, s, ErrInvalidMove
	}

	roll := *s.PendingRoll
	p := s.Players[cmd.UID]
	tok, ok := resolveMove(p, p.Tokens[cmd.TokenID], roll)
	if !ok {
		return nil, s, ErrInvalidMove
	}

	next := s.Clone()
	p = next.Players[cmd.UID]
	p.Tokens[cmd.TokenID] = tok
	next.Players[cmd.UID] = p
	next.PendingRoll = nil

	events := []Event{{Type: EvtTokenMoved, UID: cmd.UID, TokenID: cmd.TokenID, Value: roll}}

	if allFinished(p) {
		next.Status = StatusFinished
		next.Winner = cmd.UID
		events = append(events, Event{Type: EvtGameWon, UID: cmd.UID})
		return events, next, nil
	}

	if roll != board.ExitRoll {
		heir := nextActive(next, cmd.UID)
		if heir == "" {
			heir = cmd.UID
		}
		next.CurrentTurn = heir
		events = append(events, Event{Type: EvtTurnAdvanced, UID: heir})
	}
	return events, next, nil
}

// resolveMove computes a token's landing spot for the given roll, or
// reports the move illegal.
func resolveMove(p Player, tok Token, roll int) (Token, bool) {
	switch tok.State {
	case TokenHome:
		if roll != board.ExitRoll {
			return tok, false
		}
		tok.State = TokenBoard
		tok.Offset = board.EntryOffset(p.Seat)
		return tok, true

	case TokenBoard:
		v := board.Advance(tok.Offset, roll)
		if board.InSafeZone(p.Seat, v) {
			tok.State = TokenSafe
			tok.Offset = board.SafeZoneBase + board.SafeZoneIndex(p.Seat, v)
			if tok.Offset >= board.FinishOffset {
				tok.State = TokenFinished
				tok.Offset = board.FinishOffset
			}
		} else {
			tok.Offset = v
		}
		return tok, true

	case TokenSafe:
		// Overshoot clamps: reaching or passing the end finishes.
		tok.Offset += roll
		if tok.Offset >= board.FinishOffset {
			tok.State = TokenFinished
			tok.Offset = board.FinishOffset
		}
		return tok, true

	default: // finished tokens are never selectable
		return tok, false
	}
}

func hasLegalMove(p Player, roll int) bool {
	for _, tok := range p.Tokens {
		switch tok.State {
		case TokenHome:
			if roll == board.ExitRoll {
				return true
			}
		case TokenBoard, TokenSafe:
			return true
		}
	}
	return false
}

func allFinished(p Player) bool {
	for _, tok := range p.Tokens {
		if tok.State != TokenFinished {
			return false
		}
	}
	return true
}

func ContainsEvent(events []Event, t EventType) bool {
	for _, e := range events {
		if e.Type == t {
			return true
		}
	}
	return false
}
