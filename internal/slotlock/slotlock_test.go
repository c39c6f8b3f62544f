package slotlock

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestKey(t *testing.T) {
	if got := Key(5, "2024-06-01"); got != "court:5:2024-06-01" {
		t.Fatalf("unexpected key: %q", got)
	}
}

func exerciseMutualExclusion(t *testing.T, locker Locker) {
	t.Helper()

	var (
		active  int32
		maxSeen int32
		wg      sync.WaitGroup
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			release, err := locker.Lock(ctx, Key(1, "2024-06-01"))
			if err != nil {
				t.Errorf("lock: %v", err)
				return
			}
			n := atomic.AddInt32(&active, 1)
			for {
				seen := atomic.LoadInt32(&maxSeen)
				if n <= seen || atomic.CompareAndSwapInt32(&maxSeen, seen, n) {
					break
				}
			}
			time.Sleep(2 * time.Millisecond)
			atomic.AddInt32(&active, -1)
			release()
		}()
	}
	wg.Wait()

	if maxSeen != 1 {
		t.Fatalf("expected at most one holder at a time, saw %d", maxSeen)
	}
}

func TestMemoryMutualExclusion(t *testing.T) {
	m := NewMemory()
	exerciseMutualExclusion(t, m)
	if m.size() != 0 {
		t.Fatalf("expected entries to be released, got %d", m.size())
	}
}

func TestMemoryIndependentKeys(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	releaseA, err := m.Lock(ctx, Key(1, "2024-06-01"))
	if err != nil {
		t.Fatalf("lock a: %v", err)
	}
	defer releaseA()

	releaseB, err := m.Lock(ctx, Key(1, "2024-06-02"))
	if err != nil {
		t.Fatalf("lock b: %v", err)
	}
	releaseB()
}

func TestMemoryLockHonoursContext(t *testing.T) {
	m := NewMemory()
	release, err := m.Lock(context.Background(), "k")
	if err != nil {
		t.Fatalf("lock: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := m.Lock(ctx, "k"); !errors.Is(err, ErrNotAcquired) {
		t.Fatalf("expected ErrNotAcquired, got %v", err)
	}

	release()
	release()
	if m.size() != 0 {
		t.Fatalf("expected no tracked keys, got %d", m.size())
	}
}

func newTestRedis(t *testing.T) (*Redis, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		client.Close()
		mr.Close()
	})
	return NewRedisWithClient(client, time.Second, 5*time.Millisecond), mr
}

func TestRedisMutualExclusion(t *testing.T) {
	locker, _ := newTestRedis(t)
	exerciseMutualExclusion(t, locker)
}

func TestRedisLockReleaseAndTimeout(t *testing.T) {
	locker, mr := newTestRedis(t)

	release, err := locker.Lock(context.Background(), "court:2:2024-06-01")
	if err != nil {
		t.Fatalf("lock: %v", err)
	}
	if !mr.Exists(redisKeyPrefix + "court:2:2024-06-01") {
		t.Fatalf("expected lock key in redis")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	if _, err := locker.Lock(ctx, "court:2:2024-06-01"); !errors.Is(err, ErrNotAcquired) {
		t.Fatalf("expected ErrNotAcquired, got %v", err)
	}

	release()
	if mr.Exists(redisKeyPrefix + "court:2:2024-06-01") {
		t.Fatalf("expected lock key removed after release")
	}
}

func TestRedisReleaseKeepsForeignToken(t *testing.T) {
	locker, mr := newTestRedis(t)
	key := redisKeyPrefix + "court:3:2024-06-01"

	release, err := locker.Lock(context.Background(), "court:3:2024-06-01")
	if err != nil {
		t.Fatalf("lock: %v", err)
	}

	// Simulate the TTL lapsing and another instance taking the lock.
	if err := mr.Set(key, "someone-else"); err != nil {
		t.Fatalf("set: %v", err)
	}
	release()

	got, err := mr.Get(key)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != "someone-else" {
		t.Fatalf("expected foreign lock to survive, got %q", got)
	}
}
