package store

import (
	"context"
	"sync"
)

// Memory is the in-process Store: a mutex-guarded map of snapshots plus
// a per-key subscriber set. It is the default backend and the one the
// tests run against.
type Memory[T any] struct {
	mu   sync.RWMutex
	docs map[string]Snapshot[T]
	subs map[string]map[chan Snapshot[T]]struct{}
}

func NewMemory[T any]() *Memory[T] {
	return &Memory[T]{
		docs: make(map[string]Snapshot[T]),
		subs: make(map[string]map[chan Snapshot[T]]struct{}),
	}
}

func (m *Memory[T]) Get(ctx context.Context, key string) (Snapshot[T], error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	snap, ok := m.docs[key]
	if !ok {
		return Snapshot[T]{}, ErrNotFound
	}
	return snap, nil
}

func (m *Memory[T]) Create(ctx context.Context, key string, doc T) (Snapshot[T], error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.docs[key]; ok {
		return Snapshot[T]{}, ErrExists
	}
	snap := Snapshot[T]{Revision: 0, Doc: doc}
	m.docs[key] = snap
	m.publishLocked(key, snap)
	return snap, nil
}

func (m *Memory[T]) CompareAndSet(ctx context.Context, key string, expected int64, doc T) (Snapshot[T], error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.docs[key]
	if !ok {
		return Snapshot[T]{}, ErrNotFound
	}
	if cur.Revision != expected {
		return Snapshot[T]{}, ErrConflict
	}
	snap := Snapshot[T]{Revision: expected + 1, Doc: doc}
	m.docs[key] = snap
	m.publishLocked(key, snap)
	return snap, nil
}

func (m *Memory[T]) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.docs[key]; !ok {
		return ErrNotFound
	}
	delete(m.docs, key)
	return nil
}

func (m *Memory[T]) Subscribe(key string) <-chan Snapshot[T] {
	ch := make(chan Snapshot[T], 8)
	m.mu.Lock()
	set, ok := m.subs[key]
	if !ok {
		set = make(map[chan Snapshot[T]]struct{})
		m.subs[key] = set
	}
	set[ch] = struct{}{}
	m.mu.Unlock()
	return ch
}

func (m *Memory[T]) Unsubscribe(key string, ch <-chan Snapshot[T]) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for sub := range m.subs[key] {
		if sub == ch {
			delete(m.subs[key], sub)
			close(sub)
			break
		}
	}
	if len(m.subs[key]) == 0 {
		delete(m.subs, key)
	}
}

func (m *Memory[T]) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key, set := range m.subs {
		for ch := range set {
			close(ch)
		}
		delete(m.subs, key)
	}
	return nil
}

func (m *Memory[T]) publishLocked(key string, snap Snapshot[T]) {
	for ch := range m.subs[key] {
		select {
		case ch <- snap:
		default:
			// Receiver is lagging; it re-reads on its next turn.
		}
	}
}
