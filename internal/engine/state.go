package engine

import (
	"time"

	"github.com/ludojam/ludo-backend/internal/board"
)

type Status string

const (
	StatusLobby      Status = "lobby"
	StatusInProgress Status = "in-progress"
	StatusFinished   Status = "finished"
)

type Color string

const (
	ColorRed    Color = "red"
	ColorGreen  Color = "green"
	ColorBlue   Color = "blue"
	ColorYellow Color = "yellow"
)

// Seat order fixes color priority: seat n gets the nth free color.
var ColorOrder = []Color{ColorRed, ColorGreen, ColorBlue, ColorYellow}

type TokenState string

const (
	TokenHome     TokenState = "home"
	TokenBoard    TokenState = "board"
	TokenSafe     TokenState = "safe"
	TokenFinished TokenState = "finished"
)

// Token offsets: -1 at home, 0..55 on the board, 56..61 in the safe
// zone, 62 once finished. State only ever moves forward.
type Token struct {
	ID     int        `json:"id"`
	State  TokenState `json:"state"`
	Offset int        `json:"offset"`
}

type Player struct {
	UID      string                       `json:"uid"`
	Name     string                       `json:"name"`
	Color    Color                        `json:"color"`
	Seat     int                          `json:"seat"`
	Tokens   [board.TokensPerPlayer]Token `json:"tokens"`
	Active   bool                         `json:"active"`
	JoinedAt time.Time                    `json:"joined_at"`
}

// State is the canonical room document. The revision counter lives in
// the store layer; the engine only ever sees and produces snapshots.
type State struct {
	RoomID      string            `json:"room_id"`
	Status      Status            `json:"status"`
	CurrentTurn string            `json:"current_turn"`
	PendingRoll *int              `json:"pending_roll"`
	Winner      string            `json:"winner,omitempty"`
	Players     map[string]Player `json:"players"`
	CreatedAt   time.Time         `json:"created_at"`
}

// NewState seats the host at seat 0 (red) and opens the lobby.
func NewState(roomID, hostUID, hostName string, now time.Time) State {
	s := State{
		RoomID:      roomID,
		Status:      StatusLobby,
		CurrentTurn: hostUID,
		Players:     map[string]Player{},
		CreatedAt:   now,
	}
	s.Players[hostUID] = newPlayer(hostUID, hostName, 0, now)
	return s
}

func newPlayer(uid, name string, seat int, now time.Time) Player {
	p := Player{
		UID:      uid,
		Name:     name,
		Color:    ColorOrder[seat],
		Seat:     seat,
		Active:   true,
		JoinedAt: now,
	}
	for i := range p.Tokens {
		p.Tokens[i] = Token{ID: i, State: TokenHome, Offset: board.HomeOffset}
	}
	return p
}

// Clone deep-copies the state so transitions never mutate their input.
func (s State) Clone() State {
	out := s
	out.Players = make(map[string]Player, len(s.Players))
	for uid, p := range s.Players {
		out.Players[uid] = p // Tokens is an array, copied by value
	}
	if s.PendingRoll != nil {
		v := *s.PendingRoll
		out.PendingRoll = &v
	}
	return out
}

func (s State) ActiveCount() int {
	n := 0
	for _, p := range s.Players {
		if p.Active {
			n++
		}
	}
	return n
}

// SeatPlayer returns the player occupying the given seat, if any.
func (s State) SeatPlayer(seat int) (Player, bool) {
	for _, p := range s.Players {
		if p.Seat == seat {
			return p, true
		}
	}
	return Player{}, false
}
