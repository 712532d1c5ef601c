package engine

import (
	"errors"
	"testing"
	"time"

	"github.com/ludojam/ludo-backend/internal/board"
)

var t0 = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func roll(v int) *int { return &v }

// twoPlayerGame returns an in-progress room: red-uid on seat 0 holding
// the turn, green-uid on seat 1, all tokens home.
func twoPlayerGame(t *testing.T) State {
	t.Helper()
	s := NewState("ROOM01", "red-uid", "Red", t0)
	_, s, err := Apply(s, Command{Type: CmdJoin, UID: "green-uid", Name: "Green", At: t0})
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	_, s, err = Apply(s, Command{Type: CmdStartGame, UID: "red-uid"})
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	return s
}

func setToken(s State, uid string, tokenID int, ts TokenState, offset int) State {
	out := s.Clone()
	p := out.Players[uid]
	p.Tokens[tokenID] = Token{ID: tokenID, State: ts, Offset: offset}
	out.Players[uid] = p
	return out
}

func TestJoinAssignsSeatsAndColorsInOrder(t *testing.T) {
	s := NewState("ROOM01", "u0", "Host", t0)

	joins := []struct {
		uid   string
		seat  int
		color Color
	}{
		{"u1", 1, ColorGreen},
		{"u2", 2, ColorBlue},
		{"u3", 3, ColorYellow},
	}
	for _, j := range joins {
		var err error
		_, s, err = Apply(s, Command{Type: CmdJoin, UID: j.uid, Name: j.uid, At: t0})
		if err != nil {
			t.Fatalf("join %s: %v", j.uid, err)
		}
		p := s.Players[j.uid]
		if p.Seat != j.seat || p.Color != j.color {
			t.Fatalf("join %s: got seat %d color %s, want seat %d color %s",
				j.uid, p.Seat, p.Color, j.seat, j.color)
		}
	}

	_, _, err := Apply(s, Command{Type: CmdJoin, UID: "u4", Name: "u4", At: t0})
	if !errors.Is(err, ErrRoomFull) {
		t.Fatalf("fifth join: want ErrRoomFull, got %v", err)
	}
}

func TestRejoinReactivatesSeat(t *testing.T) {
	s := twoPlayerGame(t)
	_, s, err := Apply(s, Command{Type: CmdLeave, UID: "green-uid"})
	if err != nil {
		t.Fatalf("leave: %v", err)
	}
	if s.Players["green-uid"].Active {
		t.Fatal("leave should deactivate the seat")
	}

	_, s, err = Apply(s, Command{Type: CmdJoin, UID: "green-uid", Name: "Greenest", At: t0})
	if err != nil {
		t.Fatalf("rejoin: %v", err)
	}
	p := s.Players["green-uid"]
	if !p.Active || p.Name != "Greenest" || p.Seat != 1 || p.Color != ColorGreen {
		t.Fatalf("rejoin should keep seat and color and refresh name, got %+v", p)
	}
	if len(s.Players) != 2 {
		t.Fatalf("rejoin must not add a seat, got %d players", len(s.Players))
	}
}

func TestStartGameGuards(t *testing.T) {
	solo := NewState("ROOM01", "red-uid", "Red", t0)

	cases := []struct {
		name    string
		state   State
		uid     string
		wantErr error
	}{
		{"needs two players", solo, "red-uid", ErrNotEnoughPlayers},
		{"seat zero only", withSecondPlayer(solo), "green-uid", ErrNotAuthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := Apply(tc.state, Command{Type: CmdStartGame, UID: tc.uid})
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("want %v, got %v", tc.wantErr, err)
			}
		})
	}

	_, started, err := Apply(withSecondPlayer(solo), Command{Type: CmdStartGame, UID: "red-uid"})
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if started.Status != StatusInProgress {
		t.Fatalf("want in-progress, got %s", started.Status)
	}

	_, _, err = Apply(started, Command{Type: CmdStartGame, UID: "red-uid"})
	if err == nil {
		t.Fatal("starting twice must fail")
	}
}

func withSecondPlayer(s State) State {
	_, out, _ := Apply(s, Command{Type: CmdJoin, UID: "green-uid", Name: "Green", At: t0})
	return out
}

func TestRollPreconditions(t *testing.T) {
	s := twoPlayerGame(t)

	_, _, err := Apply(s, Command{Type: CmdRollDice, UID: "green-uid", Value: 4})
	if !errors.Is(err, ErrInvalidTurn) {
		t.Fatalf("off-turn roll: want ErrInvalidTurn, got %v", err)
	}

	s = setToken(s, "red-uid", 0, TokenBoard, 10)
	_, s, err = Apply(s, Command{Type: CmdRollDice, UID: "red-uid", Value: 4})
	if err != nil {
		t.Fatalf("roll: %v", err)
	}
	_, _, err = Apply(s, Command{Type: CmdRollDice, UID: "red-uid", Value: 2})
	if !errors.Is(err, ErrRollAlreadyPending) {
		t.Fatalf("double roll: want ErrRollAlreadyPending, got %v", err)
	}

	lobby := NewState("ROOM01", "red-uid", "Red", t0)
	_, _, err = Apply(lobby, Command{Type: CmdRollDice, UID: "red-uid", Value: 4})
	if !errors.Is(err, ErrInvalidTurn) {
		t.Fatalf("lobby roll: want ErrInvalidTurn, got %v", err)
	}
}

func TestRollSixExitsHomeAndKeepsTurn(t *testing.T) {
	s := twoPlayerGame(t)

	events, s, err := Apply(s, Command{Type: CmdRollDice, UID: "red-uid", Value: 6})
	if err != nil {
		t.Fatalf("roll: %v", err)
	}
	if s.PendingRoll == nil || *s.PendingRoll != 6 {
		t.Fatalf("want pending roll 6, got %v", s.PendingRoll)
	}
	if s.CurrentTurn != "red-uid" {
		t.Fatalf("roll must not rotate the turn, got %s", s.CurrentTurn)
	}
	if !ContainsEvent(events, EvtDiceRolled) {
		t.Fatal("want DiceRolled event")
	}

	events, s, err = Apply(s, Command{Type: CmdMoveToken, UID: "red-uid", TokenID: 0})
	if err != nil {
		t.Fatalf("move: %v", err)
	}
	tok := s.Players["red-uid"].Tokens[0]
	if tok.State != TokenBoard || tok.Offset != board.EntryOffset(0) {
		t.Fatalf("want token on board at entry 0, got %+v", tok)
	}
	if s.PendingRoll != nil {
		t.Fatal("move must consume the pending roll")
	}
	if s.CurrentTurn != "red-uid" {
		t.Fatal("a six keeps the turn after the move")
	}
	if ContainsEvent(events, EvtTurnAdvanced) {
		t.Fatal("no TurnAdvanced after a six")
	}
}

func TestAutoPassWhenNoLegalMove(t *testing.T) {
	s := twoPlayerGame(t) // all tokens home

	events, s, err := Apply(s, Command{Type: CmdRollDice, UID: "red-uid", Value: 3})
	if err != nil {
		t.Fatalf("roll: %v", err)
	}
	if s.PendingRoll != nil {
		t.Fatal("unusable roll must be cleared")
	}
	if s.CurrentTurn != "green-uid" {
		t.Fatalf("turn must pass to green, got %s", s.CurrentTurn)
	}
	if !ContainsEvent(events, EvtTurnPassed) || !ContainsEvent(events, EvtTurnAdvanced) {
		t.Fatalf("want TurnPassed and TurnAdvanced, got %+v", events)
	}
}

func TestMoveResolution(t *testing.T) {
	cases := []struct {
		name       string
		tokenState TokenState
		offset     int
		roll       int
		wantState  TokenState
		wantOffset int
	}{
		{"board advance", TokenBoard, 10, 4, TokenBoard, 14},
		{"board wraps", TokenBoard, 54, 4, TokenBoard, 2},
		{"board enters safe zone", TokenBoard, 50, 3, TokenSafe, 59}, // index 3
		{"board lands on zone start", TokenBoard, 47, 3, TokenSafe, 56},
		{"safe advances", TokenSafe, 56, 2, TokenSafe, 58},
		{"safe exact finish", TokenSafe, 59, 3, TokenFinished, board.FinishOffset},
		{"safe overshoot clamps", TokenSafe, 60, 5, TokenFinished, board.FinishOffset},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := twoPlayerGame(t)
			s = setToken(s, "red-uid", 0, tc.tokenState, tc.offset)
			s.PendingRoll = roll(tc.roll)

			_, next, err := Apply(s, Command{Type: CmdMoveToken, UID: "red-uid", TokenID: 0})
			if err != nil {
				t.Fatalf("move: %v", err)
			}
			tok := next.Players["red-uid"].Tokens[0]
			if tok.State != tc.wantState || tok.Offset != tc.wantOffset {
				t.Fatalf("got %s/%d, want %s/%d", tok.State, tok.Offset, tc.wantState, tc.wantOffset)
			}
		})
	}
}

func TestMoveRejections(t *testing.T) {
	base := twoPlayerGame(t)

	t.Run("no pending roll", func(t *testing.T) {
		_, _, err := Apply(base, Command{Type: CmdMoveToken, UID: "red-uid", TokenID: 0})
		if !errors.Is(err, ErrNoPendingRoll) {
			t.Fatalf("want ErrNoPendingRoll, got %v", err)
		}
	})

	t.Run("home token needs a six", func(t *testing.T) {
		s := setToken(base, "red-uid", 1, TokenBoard, 10) // makes a 3 usable
		s.PendingRoll = roll(3)
		_, _, err := Apply(s, Command{Type: CmdMoveToken, UID: "red-uid", TokenID: 0})
		if !errors.Is(err, ErrInvalidMove) {
			t.Fatalf("want ErrInvalidMove, got %v", err)
		}
	})

	t.Run("finished token is never selectable", func(t *testing.T) {
		s := setToken(base, "red-uid", 0, TokenFinished, board.FinishOffset)
		s = setToken(s, "red-uid", 1, TokenBoard, 10)
		s.PendingRoll = roll(3)
		_, _, err := Apply(s, Command{Type: CmdMoveToken, UID: "red-uid", TokenID: 0})
		if !errors.Is(err, ErrInvalidMove) {
			t.Fatalf("want ErrInvalidMove, got %v", err)
		}
	})

	t.Run("token id out of range", func(t *testing.T) {
		s := setToken(base, "red-uid", 0, TokenBoard, 10)
		s.PendingRoll = roll(3)
		_, _, err := Apply(s, Command{Type: CmdMoveToken, UID: "red-uid", TokenID: 4})
		if !errors.Is(err, ErrInvalidMove) {
			t.Fatalf("want ErrInvalidMove, got %v", err)
		}
	})

	t.Run("off-turn move", func(t *testing.T) {
		s := setToken(base, "red-uid", 0, TokenBoard, 10)
		s.PendingRoll = roll(3)
		_, _, err := Apply(s, Command{Type: CmdMoveToken, UID: "green-uid", TokenID: 0})
		if !errors.Is(err, ErrInvalidTurn) {
			t.Fatalf("want ErrInvalidTurn, got %v", err)
		}
	})
}

func TestTurnRotatesAfterNonSixMove(t *testing.T) {
	s := twoPlayerGame(t)
	s = setToken(s, "red-uid", 0, TokenBoard, 10)
	s.PendingRoll = roll(3)

	events, s, err := Apply(s, Command{Type: CmdMoveToken, UID: "red-uid", TokenID: 0})
	if err != nil {
		t.Fatalf("move: %v", err)
	}
	if s.CurrentTurn != "green-uid" {
		t.Fatalf("want turn green-uid, got %s", s.CurrentTurn)
	}
	if !ContainsEvent(events, EvtTurnAdvanced) {
		t.Fatal("want TurnAdvanced event")
	}
}

func TestTurnRotationSkipsInactiveSeats(t *testing.T) {
	s := twoPlayerGame(t)
	_, s, err := Apply(s, Command{Type: CmdJoin, UID: "blue-uid", Name: "Blue", At: t0})
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	_, s, err = Apply(s, Command{Type: CmdLeave, UID: "green-uid"})
	if err != nil {
		t.Fatalf("leave: %v", err)
	}

	s = setToken(s, "red-uid", 0, TokenBoard, 10)
	s.PendingRoll = roll(3)
	_, s, err = Apply(s, Command{Type: CmdMoveToken, UID: "red-uid", TokenID: 0})
	if err != nil {
		t.Fatalf("move: %v", err)
	}
	if s.CurrentTurn != "blue-uid" {
		t.Fatalf("rotation must skip the inactive seat, got %s", s.CurrentTurn)
	}
}

func TestLeaveByTurnHolderRotatesAndClearsRoll(t *testing.T) {
	s := twoPlayerGame(t)
	s = setToken(s, "red-uid", 0, TokenBoard, 10)
	_, s, err := Apply(s, Command{Type: CmdRollDice, UID: "red-uid", Value: 4})
	if err != nil {
		t.Fatalf("roll: %v", err)
	}

	_, s, err = Apply(s, Command{Type: CmdLeave, UID: "red-uid"})
	if err != nil {
		t.Fatalf("leave: %v", err)
	}
	if s.CurrentTurn != "green-uid" {
		t.Fatalf("want turn green-uid, got %s", s.CurrentTurn)
	}
	if s.PendingRoll != nil {
		t.Fatal("leaver's pending roll must be cleared")
	}
}

func TestWinDetection(t *testing.T) {
	s := twoPlayerGame(t)
	for i := 0; i < 3; i++ {
		s = setToken(s, "red-uid", i, TokenFinished, board.FinishOffset)
	}
	s = setToken(s, "red-uid", 3, TokenSafe, 60)
	s.PendingRoll = roll(5) // overshoots index 5, clamps to finished

	events, s, err := Apply(s, Command{Type: CmdMoveToken, UID: "red-uid", TokenID: 3})
	if err != nil {
		t.Fatalf("move: %v", err)
	}
	if s.Status != StatusFinished || s.Winner != "red-uid" {
		t.Fatalf("want finished/red-uid, got %s/%s", s.Status, s.Winner)
	}
	if !ContainsEvent(events, EvtGameWon) {
		t.Fatal("want GameWon event")
	}

	_, _, err = Apply(s, Command{Type: CmdRollDice, UID: "green-uid", Value: 2})
	if !errors.Is(err, ErrInvalidTurn) {
		t.Fatalf("finished game must reject rolls, got %v", err)
	}
}

func TestApplyNeverMutatesInput(t *testing.T) {
	s := twoPlayerGame(t)
	s = setToken(s, "red-uid", 0, TokenBoard, 10)
	s.PendingRoll = roll(3)

	_, _, err := Apply(s, Command{Type: CmdMoveToken, UID: "red-uid", TokenID: 0})
	if err != nil {
		t.Fatalf("move: %v", err)
	}

	if s.PendingRoll == nil || *s.PendingRoll != 3 {
		t.Fatal("input pending roll was mutated")
	}
	if tok := s.Players["red-uid"].Tokens[0]; tok.Offset != 10 || tok.State != TokenBoard {
		t.Fatalf("input token was mutated: %+v", tok)
	}
	if s.CurrentTurn != "red-uid" {
		t.Fatal("input turn was mutated")
	}
}
