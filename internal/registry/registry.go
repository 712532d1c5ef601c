// Package registry allocates rooms: collision-checked 6-character codes
// and the initial lobby document with the host in seat 0.
package registry

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"go.uber.org/zap"

	"github.com/ludojam/ludo-backend/internal/engine"
	"github.com/ludojam/ludo-backend/internal/store"
)

const (
	codeCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	codeLength  = 6

	// How many colliding codes we tolerate before giving up. With 36^6
	// ids a second collision already means something is badly wrong.
	createAttempts = 5
)

type Registry struct {
	store store.Store[engine.State]
	log   *zap.Logger
	now   func() time.Time
}

func New(st store.Store[engine.State], log *zap.Logger) *Registry {
	if log == nil {
		log = zap.NewNop()
	}
	return &Registry{store: st, log: log, now: func() time.Time { return time.Now().UTC() }}
}

// Create seats the host in a fresh lobby room and returns its snapshot
// at revision 0.
func (r *Registry) Create(ctx context.Context, hostUID, hostName string) (store.Snapshot[engine.State], error) {
	for attempt := 0; attempt < createAttempts; attempt++ {
		code, err := NewCode()
		if err != nil {
			return store.Snapshot[engine.State]{}, err
		}

		state := engine.NewState(code, hostUID, hostName, r.now())
		snap, err := r.store.Create(ctx, code, state)
		if errors.Is(err, store.ErrExists) {
			r.log.Info("room code collision, regenerating", zap.String("code", code))
			continue
		}
		if err != nil {
			return store.Snapshot[engine.State]{}, fmt.Errorf("create room: %w", err)
		}
		return snap, nil
	}
	return store.Snapshot[engine.State]{}, fmt.Errorf("%w: could not allocate a room code", store.ErrUnavailable)
}

// Snapshot reads a room document without touching its actor.
func (r *Registry) Snapshot(ctx context.Context, roomID string) (store.Snapshot[engine.State], error) {
	return r.store.Get(ctx, roomID)
}

// NewCode draws a 6-character uppercase alphanumeric room id.
func NewCode() (string, error) {
	code := make([]byte, codeLength)
	for i := range code {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(codeCharset))))
		if err != nil {
			return "", err
		}
		code[i] = codeCharset[n.Int64()]
	}
	return string(code), nil
}
