// Package hub owns the map of live room actors. It is itself an actor:
// lookups and lifecycle changes are messages on its inbox, so the map
// needs no lock. A room that exists in the store but has no running
// actor (say, after a restart) is revived on demand.
package hub

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/ludojam/ludo-backend/internal/engine"
	"github.com/ludojam/ludo-backend/internal/gameroom"
	"github.com/ludojam/ludo-backend/internal/store"
)

type Msg interface{ isHubMsg() }

// Ensure replies with the running actor for the room, spawning one from
// the stored document if needed. Replies nil when the room is unknown.
type Ensure struct {
	ID    string
	Reply chan *gameroom.Room
}

// Adopt registers an actor for a just-created room document.
type Adopt struct {
	ID    string
	Snap  store.Snapshot[engine.State]
	Reply chan *gameroom.Room
}

type Remove struct{ ID string }

type Shutdown struct{}

func (Ensure) isHubMsg()   {}
func (Adopt) isHubMsg()    {}
func (Remove) isHubMsg()   {}
func (Shutdown) isHubMsg() {}

type Hub struct {
	inbox  chan Msg
	rooms  map[string]*gameroom.Room
	store  store.Store[engine.State]
	opts   gameroom.Options
	log    *zap.Logger
	ctx    context.Context
	cancel context.CancelFunc
}

func New(parent context.Context, st store.Store[engine.State], opts gameroom.Options, log *zap.Logger) *Hub {
	ctx, cancel := context.WithCancel(parent)
	if log == nil {
		log = zap.NewNop()
	}
	h := &Hub{
		inbox:  make(chan Msg, 64),
		rooms:  make(map[string]*gameroom.Room),
		store:  st,
		opts:   opts,
		log:    log,
		ctx:    ctx,
		cancel: cancel,
	}
	go h.loop()
	return h
}

func (h *Hub) Inbox() chan<- Msg { return h.inbox }

// Room is a convenience wrapper around the Ensure message. It replies
// nil once the hub is shutting down rather than blocking the caller.
func (h *Hub) Room(id string) *gameroom.Room {
	reply := make(chan *gameroom.Room, 1)
	select {
	case h.inbox <- Ensure{ID: id, Reply: reply}:
	case <-h.ctx.Done():
		return nil
	}
	select {
	case room := <-reply:
		return room
	case <-h.ctx.Done():
		return nil
	}
}

func (h *Hub) loop() {
	for {
		select {
		case <-h.ctx.Done():
			h.shutdown()
			return

		case m := <-h.inbox:
			switch msg := m.(type) {
			case Ensure:
				if room := h.rooms[msg.ID]; room != nil {
					msg.Reply <- room
					break
				}
				snap, err := h.store.Get(h.ctx, msg.ID)
				if err != nil {
					if !errors.Is(err, store.ErrNotFound) {
						h.log.Warn("load room", zap.String("room", msg.ID), zap.Error(err))
					}
					msg.Reply <- nil
					break
				}
				msg.Reply <- h.spawn(msg.ID, snap)

			case Adopt:
				if room := h.rooms[msg.ID]; room != nil {
					msg.Reply <- room
					break
				}
				msg.Reply <- h.spawn(msg.ID, msg.Snap)

			case Remove:
				delete(h.rooms, msg.ID)

			case Shutdown:
				h.shutdown()
				return
			}
		}
	}
}

func (h *Hub) spawn(id string, snap store.Snapshot[engine.State]) *gameroom.Room {
	opts := h.opts
	opts.Log = h.log
	opts.Retired = func(id string) {
		select {
		case h.inbox <- Remove{ID: id}:
		case <-h.ctx.Done():
		}
	}
	room := gameroom.New(h.ctx, id, h.store, snap, opts)
	h.rooms[id] = room
	return room
}

func (h *Hub) shutdown() {
	for id, room := range h.rooms {
		room.Inbox() <- gameroom.Shutdown{}
		delete(h.rooms, id)
	}
	h.cancel()
}
