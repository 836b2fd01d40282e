package state

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newRedisTestStore(t *testing.T, opts ...StoreOption) (*RedisSessionStore, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	store, err := NewRedisSessionStore(rdb, opts...)
	if err != nil {
		t.Fatalf("NewRedisSessionStore() error = %v", err)
	}
	return store, mr
}

func TestRedisSessionStorePutGet(t *testing.T) {
	t.Parallel()

	store, mr := newRedisTestStore(t, WithTTL(time.Hour))
	ctx := context.Background()

	if err := store.Put(ctx, SessionRecord{Username: "alice", UserID: 7}); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	if got := mr.HGet("user_session_alice", "user_id"); got != "7" {
		t.Fatalf("user_id field = %q, want 7", got)
	}
	if got := mr.HGet("user_session_alice", "session_expired"); got != "0" {
		t.Fatalf("session_expired field = %q, want 0", got)
	}
	if ttl := mr.TTL("user_session_alice"); ttl != time.Hour {
		t.Fatalf("ttl = %v, want 1h", ttl)
	}

	rec, err := store.Get(ctx, "alice")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !rec.Usable() {
		t.Fatalf("expected usable record, got %+v", rec)
	}
}

func TestRedisSessionStoreGetMissing(t *testing.T) {
	t.Parallel()

	store, _ := newRedisTestStore(t)
	_, err := store.Get(context.Background(), "nobody")
	if !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("Get() error = %v, want ErrSessionNotFound", err)
	}
}

func TestRedisSessionStoreMarkExpired(t *testing.T) {
	t.Parallel()

	store, mr := newRedisTestStore(t)
	ctx := context.Background()

	if err := store.Put(ctx, SessionRecord{Username: "alice", UserID: 7}); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if err := store.MarkExpired(ctx, "alice"); err != nil {
		t.Fatalf("MarkExpired() error = %v", err)
	}

	rec, err := store.Get(ctx, "alice")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !rec.SessionExpired || rec.UserID != 7 {
		t.Fatalf("unexpected record after MarkExpired: %+v", rec)
	}

	if err := store.MarkExpired(ctx, "bob"); err != nil {
		t.Fatalf("MarkExpired(bob) error = %v", err)
	}
	if mr.Exists("user_session_bob") {
		t.Fatal("MarkExpired must not create a record for an unknown user")
	}
}

func TestRedisSessionStoreReadsLegacyFlag(t *testing.T) {
	t.Parallel()

	store, mr := newRedisTestStore(t)
	mr.HSet("user_session_carol", "user_id", "9", "session_expired", "False")

	rec, err := store.Get(context.Background(), "carol")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if rec.SessionExpired {
		t.Fatalf("expected False to decode as not expired, got %+v", rec)
	}
}

func TestRedisSessionStoreKeysByUsername(t *testing.T) {
	t.Parallel()

	store, _ := newRedisTestStore(t)
	ctx := context.Background()

	if err := store.Put(ctx, SessionRecord{Username: "alice", UserID: 7}); err != nil {
		t.Fatalf("Put(alice) error = %v", err)
	}
	if err := store.Put(ctx, SessionRecord{Username: "bob", UserID: 8}); err != nil {
		t.Fatalf("Put(bob) error = %v", err)
	}
	if err := store.MarkExpired(ctx, "bob"); err != nil {
		t.Fatalf("MarkExpired(bob) error = %v", err)
	}

	alice, err := store.Get(ctx, "alice")
	if err != nil {
		t.Fatalf("Get(alice) error = %v", err)
	}
	if !alice.Usable() || alice.UserID != 7 {
		t.Fatalf("alice affected by bob's state: %+v", alice)
	}
}
