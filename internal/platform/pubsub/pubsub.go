// Package pubsub fans user-addressed messages out to every running instance.
package pubsub

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const DefaultChannel = "pms:notifications"

var ErrNoSubscriber = errors.New("no subscriber attached")

type Message struct {
	UserID  string          `json:"user_id"`
	Payload json.RawMessage `json:"payload"`
}

type Broker interface {
	Publish(ctx context.Context, msg Message) error
	// Run delivers every published message to deliver until ctx is done.
	Run(ctx context.Context, deliver func(Message)) error
	Close() error
}

// New returns a redis broker when redisURL is set, otherwise an in-process one.
func New(redisURL string) (Broker, error) {
	if redisURL == "" {
		return NewLocal(), nil
	}
	return NewRedis(redisURL, DefaultChannel)
}

// Local delivers in-process. It is used when only one instance runs.
type Local struct {
	mu      sync.RWMutex
	deliver func(Message)
}

func NewLocal() *Local {
	return &Local{}
}

func (l *Local) Publish(_ context.Context, msg Message) error {
	l.mu.RLock()
	deliver := l.deliver
	l.mu.RUnlock()
	if deliver == nil {
		return ErrNoSubscriber
	}
	deliver(msg)
	return nil
}

func (l *Local) Run(ctx context.Context, deliver func(Message)) error {
	l.mu.Lock()
	l.deliver = deliver
	l.mu.Unlock()
	<-ctx.Done()
	l.mu.Lock()
	l.deliver = nil
	l.mu.Unlock()
	return nil
}

func (l *Local) Close() error {
	return nil
}

type Redis struct {
	client  *redis.Client
	channel string
}

func NewRedis(redisURL, channel string) (*Redis, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return &Redis{client: client, channel: channel}, nil
}

func (r *Redis) Publish(ctx context.Context, msg Message) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return r.client.Publish(ctx, r.channel, payload).Err()
}

func (r *Redis) Run(ctx context.Context, deliver func(Message)) error {
	sub := r.client.Subscribe(ctx, r.channel)
	defer sub.Close()
	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %s: %w", r.channel, err)
	}
	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case raw, ok := <-ch:
			if !ok {
				return nil
			}
			var msg Message
			if err := json.Unmarshal([]byte(raw.Payload), &msg); err != nil {
				continue
			}
			deliver(msg)
		}
	}
}

// Hit counts one request against a fixed window keyed by key. The window
// starts with the first hit, so every instance sharing the server sees the
// same count and reset.
func (r *Redis) Hit(ctx context.Context, key string, window time.Duration) (int, time.Duration, error) {
	key = "pms:ratelimit:" + key
	count, err := r.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, 0, err
	}
	if count == 1 {
		if err := r.client.PExpire(ctx, key, window).Err(); err != nil {
			return 0, 0, err
		}
		return 1, window, nil
	}
	ttl, err := r.client.PTTL(ctx, key).Result()
	if err != nil {
		return 0, 0, err
	}
	if ttl < 0 {
		// a crash between INCR and PEXPIRE leaves the key without a deadline
		if err := r.client.PExpire(ctx, key, window).Err(); err != nil {
			return 0, 0, err
		}
		ttl = window
	}
	return int(count), ttl, nil
}

func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *Redis) Close() error {
	return r.client.Close()
}
