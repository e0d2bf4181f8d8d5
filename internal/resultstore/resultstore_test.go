package resultstore_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	. "github.com/mini-maxit/judge-harness/internal/resultstore"
	customErr "github.com/mini-maxit/judge-harness/pkg/errors"
	"github.com/redis/go-redis/v9"
)

func newTestStore(t *testing.T, ttl time.Duration) (Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewRedisStoreWithClient(client, ttl)
	t.Cleanup(func() { _ = store.Close() })
	return store, mr
}

func TestSaveAndGet(t *testing.T) {
	store, mr := newTestStore(t, time.Minute)
	ctx := context.Background()

	payload := []byte(`{"totalTests":1,"passed":1,"failed":0}`)
	if err := store.Save(ctx, "msg-1", payload); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	if !mr.Exists("judge:result:msg-1") {
		t.Fatalf("expected key judge:result:msg-1 to exist")
	}
	if ttl := mr.TTL("judge:result:msg-1"); ttl != time.Minute {
		t.Fatalf("expected ttl 1m, got %s", ttl)
	}

	got, err := store.Get(ctx, "msg-1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(got) != string(payload) {
		t.Fatalf("expected %s, got %s", payload, got)
	}
}

func TestGet_Missing(t *testing.T) {
	store, _ := newTestStore(t, time.Minute)

	_, err := store.Get(context.Background(), "unknown")
	if !errors.Is(err, customErr.ErrResultNotFound) {
		t.Fatalf("expected ErrResultNotFound, got %v", err)
	}
}

func TestGet_Expired(t *testing.T) {
	store, mr := newTestStore(t, 10*time.Second)
	ctx := context.Background()

	if err := store.Save(ctx, "msg-2", []byte("{}")); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	mr.FastForward(11 * time.Second)

	_, err := store.Get(ctx, "msg-2")
	if !errors.Is(err, customErr.ErrResultNotFound) {
		t.Fatalf("expected ErrResultNotFound after expiry, got %v", err)
	}
}

func TestGet_ServerDown(t *testing.T) {
	store, mr := newTestStore(t, time.Minute)
	mr.Close()

	_, err := store.Get(context.Background(), "msg-3")
	if err == nil || errors.Is(err, customErr.ErrResultNotFound) {
		t.Fatalf("expected connection error, got %v", err)
	}
}

func TestNewRedisStore(t *testing.T) {
	mr := miniredis.RunT(t)

	store, err := NewRedisStore(Options{Addr: mr.Addr(), TTL: time.Minute})
	if err != nil {
		t.Fatalf("NewRedisStore failed: %v", err)
	}
	defer store.Close()

	if err := store.Save(context.Background(), "msg-4", []byte("{}")); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
}

func TestNewRedisStore_NoAddr(t *testing.T) {
	_, err := NewRedisStore(Options{})
	if !errors.Is(err, customErr.ErrResultStoreUnavailable) {
		t.Fatalf("expected ErrResultStoreUnavailable, got %v", err)
	}
}
