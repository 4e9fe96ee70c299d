package infra

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// ErrLockTimeout is returned when a day lock cannot be acquired in time.
var ErrLockTimeout = errors.New("no se pudo obtener el bloqueo de caja")

const (
	lockPrefix   = "lock:"
	lockWait     = 5 * time.Second
	lockInterval = 25 * time.Millisecond
)

// unlockScript deletes the key only if it still holds our token, so an
// expired lock re-acquired by another process is never released by us.
var unlockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0`)

// RedisLocker serializes register writes across API replicas with
// SET NX PX. The TTL bounds how long a crashed holder blocks a day.
type RedisLocker struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisLocker(rdb *redis.Client, ttl time.Duration) *RedisLocker {
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	return &RedisLocker{rdb: rdb, ttl: ttl}
}

func (l *RedisLocker) Lock(ctx context.Context, key string) (func(), error) {
	token := uuid.NewString()
	k := lockPrefix + key

	waitCtx, cancel := context.WithTimeout(ctx, lockWait)
	defer cancel()

	ticker := time.NewTicker(lockInterval)
	defer ticker.Stop()
	for {
		ok, err := l.rdb.SetNX(waitCtx, k, token, l.ttl).Result()
		if err != nil && !errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		if ok {
			return func() {
				// The request context may already be done; release anyway.
				if err := unlockScript.Run(context.Background(), l.rdb, []string{k}, token).Err(); err != nil {
					log.Warn().Err(err).Str("key", k).Msg("lock: release failed")
				}
			}, nil
		}
		select {
		case <-waitCtx.Done():
			return nil, ErrLockTimeout
		case <-ticker.C:
		}
	}
}

// LocalLocker is an in-process keyed mutex for single-replica deployments
// and tests. Entries are reference counted and dropped when unused.
type LocalLocker struct {
	mu    sync.Mutex
	locks map[string]*localLock
}

type localLock struct {
	ch   chan struct{}
	refs int
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{locks: map[string]*localLock{}}
}

func (l *LocalLocker) Lock(ctx context.Context, key string) (func(), error) {
	l.mu.Lock()
	ll, ok := l.locks[key]
	if !ok {
		ll = &localLock{ch: make(chan struct{}, 1)}
		l.locks[key] = ll
	}
	ll.refs++
	l.mu.Unlock()

	select {
	case ll.ch <- struct{}{}:
	case <-ctx.Done():
		l.release(key, ll, false)
		return nil, ErrLockTimeout
	}
	var once sync.Once
	return func() { once.Do(func() { l.release(key, ll, true) }) }, nil
}

func (l *LocalLocker) release(key string, ll *localLock, held bool) {
	if held {
		<-ll.ch
	}
	l.mu.Lock()
	ll.refs--
	if ll.refs == 0 {
		delete(l.locks, key)
	}
	l.mu.Unlock()
}
