package registry

import (
	"context"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ludojam/ludo-backend/internal/engine"
	"github.com/ludojam/ludo-backend/internal/store"
)

var codePattern = regexp.MustCompile(`^[A-Z0-9]{6}$`)

func TestNewCodeFormat(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		code, err := NewCode()
		require.NoError(t, err)
		assert.Regexp(t, codePattern, code)
		seen[code] = true
	}
	// Not a randomness proof, just a sanity check against a constant generator.
	assert.Greater(t, len(seen), 90)
}

func TestCreateSeatsHostInFreshLobby(t *testing.T) {
	st := store.NewMemory[engine.State]()
	reg := New(st, nil)

	snap, err := reg.Create(context.Background(), "host-uid", "Host")
	require.NoError(t, err)

	assert.EqualValues(t, 0, snap.Revision)
	assert.Equal(t, engine.StatusLobby, snap.Doc.Status)
	assert.Regexp(t, codePattern, snap.Doc.RoomID)
	assert.Equal(t, "host-uid", snap.Doc.CurrentTurn)
	assert.Nil(t, snap.Doc.PendingRoll)
	assert.Empty(t, snap.Doc.Winner)

	host := snap.Doc.Players["host-uid"]
	require.NotZero(t, host.UID)
	assert.Equal(t, 0, host.Seat)
	assert.Equal(t, engine.ColorRed, host.Color)
	assert.True(t, host.Active)
	for _, tok := range host.Tokens {
		assert.Equal(t, engine.TokenHome, tok.State)
	}

	// The document is readable back under its allocated code.
	got, err := reg.Snapshot(context.Background(), snap.Doc.RoomID)
	require.NoError(t, err)
	assert.Equal(t, snap, got)
}

func TestSnapshotUnknownRoom(t *testing.T) {
	reg := New(store.NewMemory[engine.State](), nil)
	_, err := reg.Snapshot(context.Background(), "NOPE00")
	assert.ErrorIs(t, err, store.ErrNotFound)
}
