// Package gameroom runs one actor goroutine per live room. The actor is
// the room's logical sequencer: it applies engine transitions to its
// cached snapshot and commits them through the store's compare-and-set,
// retrying a bounded number of times against fresh state before giving
// up with ErrStaleState. Snapshots reach attached clients only via the
// store's change feed, so nothing locally computed is treated as
// authoritative until the store has echoed it.
package gameroom

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/ludojam/ludo-backend/internal/board"
	"github.com/ludojam/ludo-backend/internal/engine"
	"github.com/ludojam/ludo-backend/internal/store"
)

var ErrStaleState = errors.New("stale state")

const casRetries = 3

type Msg interface{ isRoomMsg() }

// Attach registers a client outbox; the current snapshot is sent to it
// immediately.
type Attach struct {
	ClientID string
	Outbox   chan Snapshot
}

func (Attach) isRoomMsg() {}

type Detach struct{ ClientID string }

func (Detach) isRoomMsg() {}

// Do submits an engine command; the outcome is delivered on Reply.
type Do struct {
	Cmd   engine.Command
	Reply chan Result
}

func (Do) isRoomMsg() {}

type GetState struct{ Reply chan View }

func (GetState) isRoomMsg() {}

type Shutdown struct{}

func (Shutdown) isRoomMsg() {}

type Snapshot struct {
	Version int64
	State   engine.State
}

type Result struct {
	Version int64
	State   engine.State
	Events  []engine.Event
	Err     error
}

// View is a test-only reflection of actor internals.
type View struct {
	Version    int64
	NumClients int
	State      engine.State
}

// Recorder receives the final state of won games. Implementations must
// tolerate being called from a short-lived goroutine.
type Recorder interface {
	Record(ctx context.Context, final engine.State)
}

type Room struct {
	id      string
	inbox   chan Msg
	store   store.Store[engine.State]
	feed    <-chan store.Snapshot[engine.State]
	snap    store.Snapshot[engine.State]
	// Highest revision already pushed to any client; echoes at or below
	// it are suppressed so nobody sees a version twice.
	sent    int64
	clients map[string]chan Snapshot
	dice    func() int
	rec     Recorder
	retired func(id string)
	log     *zap.Logger
	ctx     context.Context
	cancel  context.CancelFunc
}

// Options carries the optional collaborators; zero values are fine.
type Options struct {
	Dice    func() int   // defaults to a uniform 1..6 draw
	Rec     Recorder     // finished-game archive, may be nil
	Retired func(string) // called once when the room empties out
	Log     *zap.Logger
}

func New(parent context.Context, id string, st store.Store[engine.State], initial store.Snapshot[engine.State], opts Options) *Room {
	ctx, cancel := context.WithCancel(parent)
	if opts.Dice == nil {
		opts.Dice = func() int { return rand.Intn(board.DiceMax) + board.DiceMin }
	}
	if opts.Log == nil {
		opts.Log = zap.NewNop()
	}
	r := &Room{
		id:      id,
		inbox:   make(chan Msg, 64),
		store:   st,
		feed:    st.Subscribe(id),
		snap:    initial,
		sent:    initial.Revision,
		clients: make(map[string]chan Snapshot),
		dice:    opts.Dice,
		rec:     opts.Rec,
		retired: opts.Retired,
		log:     opts.Log.With(zap.String("room", id)),
		ctx:     ctx,
		cancel:  cancel,
	}
	go r.loop()
	return r
}

func (r *Room) Inbox() chan<- Msg { return r.inbox }

func (r *Room) loop() {
	for {
		select {
		case <-r.ctx.Done():
			r.shutdown()
			return

		case committed, ok := <-r.feed:
			if !ok {
				r.shutdown()
				return
			}
			// The store echo is the authoritative state, whether the
			// write was ours or another node's.
			if committed.Revision > r.snap.Revision {
				r.snap = committed
			}
			if committed.Revision > r.sent {
				r.sent = committed.Revision
				r.broadcast(Snapshot{Version: committed.Revision, State: committed.Doc})
			}

		case m := <-r.inbox:
			switch msg := m.(type) {
			case Attach:
				r.clients[msg.ClientID] = msg.Outbox
				if r.snap.Revision > r.sent {
					// A commit is still awaiting its echo; deliver it
					// to everyone now so the echo can be suppressed.
					r.sent = r.snap.Revision
					r.broadcast(Snapshot{Version: r.snap.Revision, State: r.snap.Doc})
				} else {
					msg.Outbox <- Snapshot{Version: r.snap.Revision, State: r.snap.Doc}
				}

			case Detach:
				delete(r.clients, msg.ClientID)

			case Do:
				res := r.execute(msg.Cmd)
				if msg.Reply != nil {
					msg.Reply <- res
				}
				if res.Err == nil && msg.Cmd.Type == engine.CmdLeave && res.State.ActiveCount() == 0 {
					r.retire()
					return
				}

			case GetState:
				msg.Reply <- View{
					Version:    r.snap.Revision,
					NumClients: len(r.clients),
					State:      r.snap.Doc,
				}

			case Shutdown:
				r.shutdown()
				return
			}
		}
	}
}

func (r *Room) execute(cmd engine.Command) Result {
	if cmd.Type == engine.CmdRollDice && cmd.Value == 0 {
		cmd.Value = r.dice() // one draw, reused across commit retries
	}
	if cmd.Type == engine.CmdJoin && cmd.At.IsZero() {
		cmd.At = time.Now().UTC()
	}

	for attempt := 0; attempt < casRetries; attempt++ {
		events, next, err := engine.Apply(r.snap.Doc, cmd)
		if err != nil {
			return Result{Version: r.snap.Revision, State: r.snap.Doc, Err: err}
		}

		committed, err := r.store.CompareAndSet(r.ctx, r.id, r.snap.Revision, next)
		if errors.Is(err, store.ErrConflict) {
			fresh, gerr := r.store.Get(r.ctx, r.id)
			if gerr != nil {
				return Result{Err: fmt.Errorf("refetch after conflict: %w", gerr)}
			}
			r.snap = fresh
			continue
		}
		if err != nil {
			return Result{Err: fmt.Errorf("commit: %w", err)}
		}

		r.snap = committed
		r.log.Debug("committed",
			zap.String("cmd", string(cmd.Type)),
			zap.Int64("revision", committed.Revision))

		if r.rec != nil && engine.ContainsEvent(events, engine.EvtGameWon) {
			go r.rec.Record(context.WithoutCancel(r.ctx), committed.Doc)
		}
		return Result{Version: committed.Revision, State: committed.Doc, Events: events}
	}

	r.log.Warn("commit lost the race repeatedly", zap.String("cmd", string(cmd.Type)))
	return Result{Version: r.snap.Revision, State: r.snap.Doc, Err: ErrStaleState}
}

// retire deletes the emptied room document and tears the actor down.
func (r *Room) retire() {
	if err := r.store.Delete(r.ctx, r.id); err != nil && !errors.Is(err, store.ErrNotFound) {
		r.log.Warn("delete emptied room", zap.Error(err))
	}
	if r.retired != nil {
		r.retired(r.id)
	}
	r.shutdown()
}

func (r *Room) shutdown() {
	for id, ch := range r.clients {
		close(ch)
		delete(r.clients, id)
	}
	r.store.Unsubscribe(r.id, r.feed)
	r.cancel()
}

func (r *Room) broadcast(snap Snapshot) {
	for id, ch := range r.clients {
		select {
		case ch <- snap:
		default:
			// Client is slow/full - drop them.
			close(ch)
			delete(r.clients, id)
		}
	}
}
