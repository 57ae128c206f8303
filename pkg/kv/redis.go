package kv

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/uchsash/medistore/pkg/logger"
)

// RedisClient is the slice of pkg/redis.Client the redis backend needs.
type RedisClient interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Publish(ctx context.Context, channel, message string) error
	Subscribe(ctx context.Context, channel string) (<-chan string, func() error, error)
	KVKey(key string) string
	ChangeChannel() string
}

type changeMessage struct {
	Key    string `json:"key"`
	Origin string `json:"origin"`
}

// Redis keeps entries as plain redis strings and announces every write on a
// shared pub/sub channel so handles in other processes can react.
type Redis struct {
	client RedisClient
	logg   *logger.Logger
	origin string
	watch  watchers

	mu      sync.Mutex
	started bool
	cancel  context.CancelFunc
	closeFn func() error
	done    chan struct{}
}

func NewRedis(client RedisClient, logg *logger.Logger) *Redis {
	if logg == nil {
		logg = logger.Nop()
	}
	return &Redis{client: client, logg: logg, origin: newOrigin()}
}

func (r *Redis) Get(ctx context.Context, key string) (string, bool, error) {
	return r.client.Get(ctx, r.client.KVKey(key))
}

func (r *Redis) Set(ctx context.Context, key, value string) error {
	if err := r.client.Set(ctx, r.client.KVKey(key), value); err != nil {
		return err
	}
	payload, err := json.Marshal(changeMessage{Key: key, Origin: r.origin})
	if err != nil {
		return err
	}
	// the value is already stored; a lost announcement only delays other handles
	if err := r.client.Publish(ctx, r.client.ChangeChannel(), string(payload)); err != nil {
		r.logg.Warn(r.logg.WithField(ctx, "kv_key", key), "kv.redis.publish_failed")
	}
	return nil
}

// Watch lazily starts the shared subscription on first use.
func (r *Redis) Watch(key string, fn func(Change)) func() {
	cancel := r.watch.add(key, fn)
	if err := r.listen(); err != nil {
		r.logg.Error(r.logg.WithField(context.Background(), "kv_key", key), "kv.redis.subscribe_failed", err)
	}
	return cancel
}

func (r *Redis) listen() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.started {
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	msgs, closeFn, err := r.client.Subscribe(ctx, r.client.ChangeChannel())
	if err != nil {
		cancel()
		return err
	}
	r.started = true
	r.cancel = cancel
	r.closeFn = closeFn
	r.done = make(chan struct{})

	go func() {
		defer close(r.done)
		for payload := range msgs {
			r.dispatch(payload)
		}
	}()
	return nil
}

func (r *Redis) dispatch(payload string) {
	var msg changeMessage
	if err := json.Unmarshal([]byte(payload), &msg); err != nil {
		r.logg.Warn(r.logg.WithField(context.Background(), "payload", payload), "kv.redis.bad_change_message")
		return
	}
	if msg.Origin == r.origin || msg.Key == "" {
		return
	}
	r.watch.notify(Change{Key: msg.Key, Origin: msg.Origin})
}

// Close stops the subscription. The underlying redis client is owned by the caller.
func (r *Redis) Close() error {
	r.mu.Lock()
	started, cancel, closeFn, done := r.started, r.cancel, r.closeFn, r.done
	r.started = false
	r.mu.Unlock()

	if !started {
		return nil
	}
	cancel()
	var err error
	if closeFn != nil {
		err = closeFn()
	}
	<-done
	return err
}
