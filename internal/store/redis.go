package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/go-redis/redis"
)

// Redis backs the Store with a Redis instance so several server nodes
// can share one set of rooms. Documents are JSON envelopes carrying
// their revision; compare-and-set runs inside a WATCH/MULTI
// transaction, and change notification rides Pub/Sub per key.
type Redis[T any] struct {
	client *redis.Client
	prefix string

	mu   sync.Mutex
	subs map[<-chan Snapshot[T]]*redis.PubSub
}

type envelope[T any] struct {
	Rev int64 `json:"rev"`
	Doc T     `json:"doc"`
}

func NewRedis[T any](client *redis.Client, prefix string) *Redis[T] {
	return &Redis[T]{
		client: client,
		prefix: prefix,
		subs:   make(map[<-chan Snapshot[T]]*redis.PubSub),
	}
}

// Dial connects and pings before handing the client over.
func Dial(addr, password string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{Addr: addr, Password: password})
	if err := client.Ping().Err(); err != nil {
		return nil, fmt.Errorf("%w: redis ping: %v", ErrUnavailable, err)
	}
	return client, nil
}

func (r *Redis[T]) key(key string) string     { return r.prefix + key }
func (r *Redis[T]) channel(key string) string { return r.prefix + key + ":changes" }

func (r *Redis[T]) Get(ctx context.Context, key string) (Snapshot[T], error) {
	raw, err := r.client.Get(r.key(key)).Result()
	if err == redis.Nil {
		return Snapshot[T]{}, ErrNotFound
	}
	if err != nil {
		return Snapshot[T]{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return decode[T](raw)
}

func (r *Redis[T]) Create(ctx context.Context, key string, doc T) (Snapshot[T], error) {
	payload, err := json.Marshal(envelope[T]{Rev: 0, Doc: doc})
	if err != nil {
		return Snapshot[T]{}, err
	}
	ok, err := r.client.SetNX(r.key(key), payload, 0).Result()
	if err != nil {
		return Snapshot[T]{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if !ok {
		return Snapshot[T]{}, ErrExists
	}
	r.client.Publish(r.channel(key), payload)
	return Snapshot[T]{Revision: 0, Doc: doc}, nil
}

func (r *Redis[T]) CompareAndSet(ctx context.Context, key string, expected int64, doc T) (Snapshot[T], error) {
	payload, err := json.Marshal(envelope[T]{Rev: expected + 1, Doc: doc})
	if err != nil {
		return Snapshot[T]{}, err
	}

	txn := func(tx *redis.Tx) error {
		raw, err := tx.Get(r.key(key)).Result()
		if err == redis.Nil {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		cur, err := decode[T](raw)
		if err != nil {
			return err
		}
		if cur.Revision != expected {
			return ErrConflict
		}
		_, err = tx.Pipelined(func(pipe redis.Pipeliner) error {
			pipe.Set(r.key(key), payload, 0)
			pipe.Publish(r.channel(key), payload)
			return nil
		})
		return err
	}

	err = r.client.Watch(txn, r.key(key))
	if err == redis.TxFailedErr {
		// Another writer slipped in between WATCH and EXEC.
		return Snapshot[T]{}, ErrConflict
	}
	if err != nil {
		return Snapshot[T]{}, err
	}
	return Snapshot[T]{Revision: expected + 1, Doc: doc}, nil
}

func (r *Redis[T]) Delete(ctx context.Context, key string) error {
	n, err := r.client.Del(r.key(key)).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Redis[T]) Subscribe(key string) <-chan Snapshot[T] {
	pubsub := r.client.Subscribe(r.channel(key))
	out := make(chan Snapshot[T], 8)

	r.mu.Lock()
	r.subs[out] = pubsub
	r.mu.Unlock()

	go func() {
		defer close(out)
		for msg := range pubsub.Channel() {
			snap, err := decode[T](msg.Payload)
			if err != nil {
				continue
			}
			select {
			case out <- snap:
			default:
			}
		}
	}()
	return out
}

func (r *Redis[T]) Unsubscribe(key string, ch <-chan Snapshot[T]) {
	r.mu.Lock()
	pubsub, ok := r.subs[ch]
	delete(r.subs, ch)
	r.mu.Unlock()
	if ok {
		_ = pubsub.Close() // forwarder drains and closes ch
	}
}

func (r *Redis[T]) Close() error {
	r.mu.Lock()
	for ch, pubsub := range r.subs {
		_ = pubsub.Close()
		delete(r.subs, ch)
	}
	r.mu.Unlock()
	return r.client.Close()
}

func decode[T any](raw string) (Snapshot[T], error) {
	var env envelope[T]
	if err := json.Unmarshal([]byte(raw), &env); err != nil {
		return Snapshot[T]{}, fmt.Errorf("decode document: %w", err)
	}
	return Snapshot[T]{Revision: env.Rev, Doc: env.Doc}, nil
}
