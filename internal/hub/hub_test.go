package hub

import (
	"context"
	"testing"
	"time"

	"github.com/ludojam/ludo-backend/internal/engine"
	"github.com/ludojam/ludo-backend/internal/gameroom"
	"github.com/ludojam/ludo-backend/internal/store"
)

var t0 = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func TestHub_AdoptThenEnsureSamePointer(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory[engine.State]()
	h := New(ctx, st, gameroom.Options{}, nil)

	snap, err := st.Create(ctx, "ZED123", engine.NewState("ZED123", "u1", "Host", t0))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	reply := make(chan *gameroom.Room, 1)
	h.Inbox() <- Adopt{ID: "ZED123", Snap: snap, Reply: reply}
	r1 := <-reply

	r2 := h.Room("ZED123")
	if r1 == nil || r2 == nil || r1 != r2 {
		t.Fatalf("expected same room pointer")
	}
}

func TestHub_EnsureRevivesFromStore(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory[engine.State]()
	if _, err := st.Create(ctx, "ABC123", engine.NewState("ABC123", "u1", "Host", t0)); err != nil {
		t.Fatalf("create: %v", err)
	}

	// A hub with no running actors, as after a restart.
	h := New(ctx, st, gameroom.Options{}, nil)
	if h.Room("ABC123") == nil {
		t.Fatal("expected actor revived from the stored document")
	}
}

func TestHub_EnsureUnknownRoomIsNil(t *testing.T) {
	h := New(context.Background(), store.NewMemory[engine.State](), gameroom.Options{}, nil)
	if h.Room("NOPE00") != nil {
		t.Fatal("unknown room must yield nil")
	}
}

func TestHub_RoomAfterShutdownDoesNotBlock(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	h := New(ctx, store.NewMemory[engine.State](), gameroom.Options{}, nil)
	cancel()

	got := make(chan *gameroom.Room, 1)
	go func() { got <- h.Room("GONE00") }()
	select {
	case room := <-got:
		if room != nil {
			t.Fatalf("want nil after shutdown, got %p", room)
		}
	case <-time.After(500 * time.Millisecond):
		t.Fatal("Room blocked after shutdown")
	}
}
