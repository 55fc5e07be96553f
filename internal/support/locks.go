package support

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/redis/go-redis/v9"
)

const (
	DefaultLeadershipTTL = 45 * time.Second

	// Namespace write locks guard the short read-validate-persist window
	// around subnet creation and address allocation.
	DefaultNamespaceLockTTL  = 10 * time.Second
	defaultNamespaceLockWait = 5 * time.Second

	lockRetryDelay         = time.Second
	namespaceRetryDelay    = 50 * time.Millisecond
	renewalTimeout         = 5 * time.Second
	minRenewalInterval     = time.Second
	defaultRenewalFraction = 3
)

// ErrLockBusy is returned when a namespace lock could not be acquired
// before the wait deadline.
var ErrLockBusy = errors.New("support: lock busy")

var (
	lockCounter atomic.Uint64

	renewScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
else
	return 0
end`)

	releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
else
	return 0
end`)
)

// NamespaceLockKey returns the Redis key guarding writes in one namespace.
func NamespaceLockKey(namespaceID uint) string {
	return fmt.Sprintf("ipamcore:lock:namespace:%d", namespaceID)
}

// WithNamespaceLock runs fn while holding the namespace's write lock.
// Concurrent writers on other instances block briefly and then give up
// with ErrLockBusy; the database's unique indexes remain the conflict
// detector of last resort if the lock is ever bypassed.
func WithNamespaceLock(ctx context.Context, namespaceID uint, fn func() error) error {
	if fn == nil {
		return errors.New("support: namespace lock function cannot be nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	client, err := GetRedisClient()
	if err != nil {
		log.Warn("namespace lock: redis unavailable, running unlocked", "namespace", namespaceID, "error", err)
		return fn()
	}

	key := NamespaceLockKey(namespaceID)
	value := generateLockID()
	deadline := time.Now().Add(defaultNamespaceLockWait)

	for {
		ok, err := client.SetNX(ctx, key, value, DefaultNamespaceLockTTL).Result()
		if err != nil {
			// Single-instance deployments run without redis; the unique
			// indexes still catch racing writers.
			log.Warn("namespace lock: acquire failed, running unlocked", "key", key, "error", err)
			return fn()
		}
		if ok {
			break
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("%w: namespace %d", ErrLockBusy, namespaceID)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(namespaceRetryDelay):
		}
	}

	defer func() {
		releaseCtx, cancel := context.WithTimeout(context.Background(), renewalTimeout)
		defer cancel()
		if _, err := releaseScript.Run(releaseCtx, client, []string{key}, value).Result(); err != nil && !errors.Is(err, redis.Nil) {
			log.Warn("namespace lock: release failed", "key", key, "error", err)
		}
	}()

	return fn()
}

// RunWithLeader acquires a Redis-based leadership lock and invokes run
// while the lock is held. The run function gets a context that is
// cancelled when leadership is lost or the parent context is done. The
// lock is renewed periodically and released when run returns.
func RunWithLeader(ctx context.Context, key string, ttl time.Duration, run func(context.Context)) error {
	if run == nil {
		return errors.New("support: leader run function cannot be nil")
	}

	if ctx == nil {
		ctx = context.Background()
	}

	if ttl <= 0 {
		ttl = DefaultLeadershipTTL
	}

	client, err := GetRedisClient()
	if err != nil {
		log.Warn("leader lock: redis unavailable, running without leadership", "key", key, "error", err)
		run(ctx)
		return ctx.Err()
	}

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		session, err := acquireLockSession(ctx, client, key, ttl)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return ctx.Err()
			}
			log.Warn("leader lock: failed to acquire", "key", key, "error", err)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(lockRetryDelay):
				continue
			}
		}

		log.Debug("leader lock: acquired", "key", key)
		run(session.ctx)
		session.Close()
		log.Debug("leader lock: released", "key", key)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(lockRetryDelay):
		}
	}
}

type lockSession struct {
	client    *redis.Client
	key       string
	value     string
	ttl       time.Duration
	ctx       context.Context
	cancel    context.CancelFunc
	stopRenew chan struct{}
	closeOnce sync.Once
}

func acquireLockSession(ctx context.Context, client *redis.Client, key string, ttl time.Duration) (*lockSession, error) {
	value := generateLockID()

	for {
		ok, err := client.SetNX(ctx, key, value, ttl).Result()
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			log.Warn("leader lock: setnx failed", "key", key, "error", err)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(lockRetryDelay):
				continue
			}
		}

		if ok {
			sessionCtx, cancel := context.WithCancel(ctx)
			session := &lockSession{
				client:    client,
				key:       key,
				value:     value,
				ttl:       ttl,
				ctx:       sessionCtx,
				cancel:    cancel,
				stopRenew: make(chan struct{}),
			}
			go session.renewLoop()
			return session, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(lockRetryDelay):
		}
	}
}

func (ls *lockSession) Close() {
	ls.closeOnce.Do(func() {
		close(ls.stopRenew)
		if err := ls.releaseLock(); err != nil {
			log.Warn("leader lock: release failed", "key", ls.key, "error", err)
		}
	})
}

func (ls *lockSession) renewLoop() {
	interval := ls.ttl / defaultRenewalFraction
	if interval < minRenewalInterval {
		interval = minRenewalInterval
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ls.stopRenew:
			return
		case <-ls.ctx.Done():
			return
		case <-ticker.C:
			if err := ls.renewLock(); err != nil {
				log.Warn("leader lock: renewal failed", "key", ls.key, "error", err)
				ls.cancel()
				return
			}
		}
	}
}

func (ls *lockSession) renewLock() error {
	ctx, cancel := context.WithTimeout(context.Background(), renewalTimeout)
	defer cancel()

	ttlMs := ls.ttl.Milliseconds()
	if ttlMs <= 0 {
		ttlMs = DefaultLeadershipTTL.Milliseconds()
	}

	res, err := renewScript.Run(ctx, ls.client, []string{ls.key}, ls.value, ttlMs).Result()
	if err != nil {
		return err
	}

	if updated, ok := res.(int64); ok && updated == 0 {
		return errors.New("lock lost")
	}

	return nil
}

func (ls *lockSession) releaseLock() error {
	ctx, cancel := context.WithTimeout(context.Background(), renewalTimeout)
	defer cancel()

	_, err := releaseScript.Run(ctx, ls.client, []string{ls.key}, ls.value).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return err
	}
	return nil
}

func generateLockID() string {
	host, _ := os.Hostname()
	counter := lockCounter.Add(1)
	return fmt.Sprintf("%s-%d-%d-%d", host, os.Getpid(), time.Now().UnixNano(), counter)
}
