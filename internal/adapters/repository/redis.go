package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	model "github.com/okian/housecup/internal/domain/model"
	"github.com/okian/housecup/pkg/logger"
	"github.com/okian/housecup/pkg/metrics"
)

const (
	redisDialTimeout  = 5 * time.Second
	redisRetryDelay   = 500 * time.Millisecond
	redisPoolSize     = 20
	redisReloadBudget = 5 * time.Second
)

// KEYS: docs hash, order zset, seq counter, change channel.
// ARGV: id, document.
var createScript = redis.NewScript(`
local seq = redis.call('INCR', KEYS[3])
redis.call('HSET', KEYS[1], ARGV[1], ARGV[2])
redis.call('ZADD', KEYS[2], seq, ARGV[1])
redis.call('PUBLISH', KEYS[4], 'create:' .. ARGV[1])
return seq
`)

// KEYS: docs hash, change channel. ARGV: id, document.
var replaceScript = redis.NewScript(`
if redis.call('HEXISTS', KEYS[1], ARGV[1]) == 0 then
  return 0
end
redis.call('HSET', KEYS[1], ARGV[1], ARGV[2])
redis.call('PUBLISH', KEYS[2], 'replace:' .. ARGV[1])
return 1
`)

// KEYS: docs hash, order zset, change channel. ARGV: id.
var removeScript = redis.NewScript(`
if redis.call('HDEL', KEYS[1], ARGV[1]) == 0 then
  return 0
end
redis.call('ZREM', KEYS[2], ARGV[1])
redis.call('PUBLISH', KEYS[3], 'remove:' .. ARGV[1])
return 1
`)

// KEYS: docs hash, order zset.
var loadScript = redis.NewScript(`
local ids = redis.call('ZRANGE', KEYS[2], 0, -1)
if #ids == 0 then
  return {}
end
return redis.call('HMGET', KEYS[1], unpack(ids))
`)

// DialRedis connects to a Redis server and verifies it answers.
func DialRedis(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
		PoolSize: redisPoolSize,
	})
	ctx, cancel := context.WithTimeout(ctx, redisDialTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("%w: ping redis %s: %w", ErrUnavailable, addr, err)
	}
	return client, nil
}

// RedisStore keeps documents in a hash and their order in a sorted set.
// Every write publishes on a change channel inside the same script, so
// subscribers in any process learn about it.
type RedisStore struct {
	client *redis.Client
	logger logger.Logger

	docsKey, orderKey, seqKey, channel string

	mu     sync.Mutex
	subs   map[*redis.PubSub]struct{}
	closed bool
	wg     sync.WaitGroup
}

// NewRedisStore wraps an existing client.
func NewRedisStore(client *redis.Client, opts ...Option) *RedisStore {
	cfg := newSettings("redis-store", opts)
	return &RedisStore{
		client:   client,
		logger:   cfg.logger,
		docsKey:  cfg.keyPrefix + "events",
		orderKey: cfg.keyPrefix + "events:order",
		seqKey:   cfg.keyPrefix + "events:seq",
		channel:  cfg.keyPrefix + "events:changes",
		subs:     make(map[*redis.PubSub]struct{}),
	}
}

// Create implements Store.
func (s *RedisStore) Create(ctx context.Context, e model.Event) (string, error) {
	if err := s.usable(ctx); err != nil {
		return "", err
	}
	e.ID = uuid.NewString()
	doc, err := json.Marshal(e)
	if err != nil {
		return "", fmt.Errorf("encode event: %w", err)
	}
	keys := []string{s.docsKey, s.orderKey, s.seqKey, s.channel}
	if err := createScript.Run(ctx, s.client, keys, e.ID, doc).Err(); err != nil {
		return "", fmt.Errorf("%w: create event: %w", ErrUnavailable, err)
	}
	return e.ID, nil
}

// Replace implements Store.
func (s *RedisStore) Replace(ctx context.Context, id string, e model.Event) error {
	if err := s.usable(ctx); err != nil {
		return err
	}
	e.ID = id
	doc, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	n, err := replaceScript.Run(ctx, s.client, []string{s.docsKey, s.channel}, id, doc).Int()
	if err != nil {
		return fmt.Errorf("%w: replace %s: %w", ErrUnavailable, id, err)
	}
	if n == 0 {
		return fmt.Errorf("replace %s: %w", id, ErrNotFound)
	}
	return nil
}

// Remove implements Store.
func (s *RedisStore) Remove(ctx context.Context, id string) error {
	if err := s.usable(ctx); err != nil {
		return err
	}
	n, err := removeScript.Run(ctx, s.client, []string{s.docsKey, s.orderKey, s.channel}, id).Int()
	if err != nil {
		return fmt.Errorf("%w: remove %s: %w", ErrUnavailable, id, err)
	}
	if n == 0 {
		return fmt.Errorf("remove %s: %w", id, ErrNotFound)
	}
	return nil
}

// Subscribe implements Store. The change channel is joined before the
// initial load so no write between the two is missed.
func (s *RedisStore) Subscribe(ctx context.Context, obs Observer) (Unsubscribe, error) {
	if err := s.usable(ctx); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSubscription, err)
	}
	ps := s.client.Subscribe(ctx, s.channel)
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("%w: join %s: %w", ErrSubscription, s.channel, err)
	}
	events, err := s.load(ctx)
	if err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("%w: %w", ErrSubscription, err)
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		_ = ps.Close()
		return nil, fmt.Errorf("%w: %w", ErrSubscription, ErrClosed)
	}
	s.subs[ps] = struct{}{}
	metrics.UpdateSubscribers(len(s.subs))
	s.mu.Unlock()

	obs.Snapshot(events)

	watchCtx, cancel := context.WithCancel(context.Background())
	exited := make(chan struct{})
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer close(exited)
		s.watch(watchCtx, ps, obs)
	}()

	return bindContext(ctx, func() {
		cancel()
		s.mu.Lock()
		delete(s.subs, ps)
		metrics.UpdateSubscribers(len(s.subs))
		s.mu.Unlock()
		_ = ps.Close()
		<-exited
	}), nil
}

// watch reloads the collection on every change message. Receive errors are
// reported once per outage; the resubscription that follows a reconnect
// triggers a fresh snapshot. While degraded, a quiet channel still retries
// the reload every redisRetryDelay.
func (s *RedisStore) watch(ctx context.Context, ps *redis.PubSub, obs Observer) {
	failing := false
	for {
		var (
			msg any
			err error
		)
		if failing {
			msg, err = ps.ReceiveTimeout(ctx, redisRetryDelay)
		} else {
			msg, err = ps.Receive(ctx)
		}
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			if s.isClosed() {
				obs.Fail(fmt.Errorf("%w: %w", ErrSubscription, ErrClosed))
				return
			}
			if failing && isTimeout(err) {
				failing = !s.reload(ctx, obs, failing)
				continue
			}
			if !failing {
				failing = true
				s.fail(obs, err)
			}
			select {
			case <-ctx.Done():
				return
			case <-time.After(redisRetryDelay):
			}
			continue
		}

		switch m := msg.(type) {
		case *redis.Subscription:
			if !failing {
				continue
			}
		case *redis.Message:
			s.logger.Debug(ctx, "change received", logger.String("payload", m.Payload))
		default:
			continue
		}
		failing = !s.reload(ctx, obs, failing)
	}
}

// reload delivers a fresh snapshot and reports whether it succeeded. The
// first failure of an outage is passed to obs.
func (s *RedisStore) reload(ctx context.Context, obs Observer, failing bool) bool {
	loadCtx, cancel := context.WithTimeout(ctx, redisReloadBudget)
	events, err := s.load(loadCtx)
	cancel()
	if err != nil {
		if ctx.Err() == nil && !failing {
			s.fail(obs, err)
		}
		return false
	}
	obs.Snapshot(events)
	return true
}

func isTimeout(err error) bool {
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

func (s *RedisStore) fail(obs Observer, err error) {
	metrics.RecordErrorByComponent("repository", "redis_subscription")
	s.logger.Warn(context.Background(), "redis subscription degraded", logger.Error(err))
	obs.Fail(fmt.Errorf("%w: %w", ErrSubscription, err))
}

// load reads every document in insertion order with a single script call.
func (s *RedisStore) load(ctx context.Context) ([]model.Event, error) {
	raw, err := loadScript.Run(ctx, s.client, []string{s.docsKey, s.orderKey}).Slice()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: load events: %w", ErrUnavailable, err)
	}
	events := make([]model.Event, 0, len(raw))
	for _, item := range raw {
		doc, ok := item.(string)
		if !ok {
			// hash and order disagree; skip the orphaned id
			continue
		}
		var e model.Event
		if err := json.Unmarshal([]byte(doc), &e); err != nil {
			return nil, fmt.Errorf("decode event: %w", err)
		}
		events = append(events, e)
	}
	return events, nil
}

func (s *RedisStore) usable(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.isClosed() {
		return ErrClosed
	}
	return nil
}

func (s *RedisStore) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Close ends every subscription. The client is owned by the caller and is
// left open.
func (s *RedisStore) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	subs := s.subs
	s.subs = make(map[*redis.PubSub]struct{})
	s.mu.Unlock()

	var errs []error
	for ps := range subs {
		if err := ps.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	s.wg.Wait()
	metrics.UpdateSubscribers(0)
	return errors.Join(errs...)
}
