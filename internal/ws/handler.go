// Package ws carries the realtime session: engine commands in, room
// snapshots out. One websocket connection plays as one uid.
package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ludojam/ludo-backend/internal/engine"
	"github.com/ludojam/ludo-backend/internal/gameroom"
	"github.com/ludojam/ludo-backend/internal/hub"
	"github.com/ludojam/ludo-backend/internal/types"
)

const writeTimeout = 3 * time.Second

func Handler(h *hub.Hub, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := r.URL.Query().Get("room")
		if code == "" {
			http.Error(w, "missing room", http.StatusBadRequest)
			return
		}

		room := h.Room(code)
		if room == nil {
			http.Error(w, "room not found", http.StatusNotFound)
			return
		}

		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "bye")

		sess := &session{
			room:     room,
			conn:     conn,
			clientID: uuid.NewString(),
			log:      log.With(zap.String("room", code)),
		}
		sess.run(r.Context())
	}
}

type session struct {
	room     *gameroom.Room
	conn     *websocket.Conn
	clientID string
	uid      string // set once the client joins
	log      *zap.Logger
}

func (s *session) run(ctx context.Context) {
	out := make(chan gameroom.Snapshot, 8)
	s.room.Inbox() <- gameroom.Attach{ClientID: s.clientID, Outbox: out}
	defer func() { s.room.Inbox() <- gameroom.Detach{ClientID: s.clientID} }()

	writeCtx, writeCancel := context.WithCancel(ctx)
	defer writeCancel()
	go func() {
		for snap := range out {
			s.write(writeCtx, types.ServerMessage{
				Type:    "state",
				Version: snap.Version,
				State:   &snap.State,
			})
		}
		// Outbox closed: the room is gone or dropped us. Kick the
		// reader loose so the session ends too.
		_ = s.conn.Close(websocket.StatusGoingAway, "room closed")
	}()

	for {
		_, data, err := s.conn.Read(ctx)
		if err != nil {
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				return
			}
			return
		}

		var cm types.ClientMessage
		if err := json.Unmarshal(data, &cm); err != nil {
			s.writeError(ctx, types.CodeBadRequest, "bad json")
			continue
		}
		if done := s.handle(ctx, cm); done {
			return
		}
	}
}

// handle dispatches one client message; a true return ends the session.
func (s *session) handle(ctx context.Context, cm types.ClientMessage) bool {
	cmd, ok := s.toCommand(cm)
	if !ok {
		s.writeError(ctx, types.CodeBadRequest, "unknown or out-of-order message")
		return false
	}

	reply := make(chan gameroom.Result, 1)
	select {
	case s.room.Inbox() <- gameroom.Do{Cmd: cmd, Reply: reply}:
	case <-ctx.Done():
		return true
	}
	var res gameroom.Result
	select {
	case res = <-reply:
	case <-ctx.Done():
		return true
	}
	if res.Err != nil {
		s.writeError(ctx, types.ErrorCode(res.Err), res.Err.Error())
		return false
	}

	switch cmd.Type {
	case engine.CmdJoin:
		s.uid = cmd.UID
		s.write(ctx, types.ServerMessage{Type: "joined", UID: s.uid, Version: res.Version})
	case engine.CmdLeave:
		return true
	}
	return false
}

func (s *session) toCommand(cm types.ClientMessage) (engine.Command, bool) {
	if cm.Type == "join" {
		uid := cm.UID
		if uid == "" {
			uid = uuid.NewString() // anonymous client, mint an identity
		}
		return engine.Command{Type: engine.CmdJoin, UID: uid, Name: cm.Name}, true
	}

	if s.uid == "" {
		return engine.Command{}, false // must join before playing
	}
	switch cm.Type {
	case "leave":
		return engine.Command{Type: engine.CmdLeave, UID: s.uid}, true
	case "start":
		return engine.Command{Type: engine.CmdStartGame, UID: s.uid}, true
	case "roll":
		return engine.Command{Type: engine.CmdRollDice, UID: s.uid}, true
	case "move":
		return engine.Command{Type: engine.CmdMoveToken, UID: s.uid, TokenID: cm.TokenID}, true
	default:
		return engine.Command{}, false
	}
}

func (s *session) write(ctx context.Context, msg types.ServerMessage) {
	payload, err := json.Marshal(msg)
	if err != nil {
		return
	}
	wctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	if err := s.conn.Write(wctx, websocket.MessageText, payload); err != nil {
		s.log.Debug("ws write", zap.Error(err))
	}
}

func (s *session) writeError(ctx context.Context, code, msg string) {
	s.write(ctx, types.ServerMessage{Type: "error", Code: code, Error: msg})
}
