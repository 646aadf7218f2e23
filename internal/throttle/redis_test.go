package throttle

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = client.Close()
		mr.Close()
	})
	return mr, client
}

func TestRedisWindowAllowsFiveThenDenies(t *testing.T) {
	mr, client := newTestRedis(t)
	w := NewRedis(client, Config{MaxAttempts: 5, Window: time.Minute})
	ctx := context.Background()

	for i := 1; i <= 5; i++ {
		d, err := w.Check(ctx, "198.51.100.1")
		if err != nil {
			t.Fatalf("check %d: %v", i, err)
		}
		if !d.Allowed || d.Count != i {
			t.Fatalf("check %d: expected allowed count %d, got %+v", i, i, d)
		}
	}

	d, err := w.Check(ctx, "198.51.100.1")
	if err != nil {
		t.Fatalf("sixth check: %v", err)
	}
	if d.Allowed {
		t.Fatal("sixth check must be denied")
	}
	if secs := d.RetryAfterSeconds(); secs < 1 || secs > 60 {
		t.Fatalf("retry after out of range: %d", secs)
	}

	got, err := client.Get(ctx, redisKey("198.51.100.1")).Int()
	if err != nil {
		t.Fatalf("get counter: %v", err)
	}
	if got != 5 {
		t.Fatalf("denied checks must not increment the counter, got %d", got)
	}

	mr.FastForward(61 * time.Second)
	d, err = w.Check(ctx, "198.51.100.1")
	if err != nil {
		t.Fatalf("check after window: %v", err)
	}
	if !d.Allowed || d.Count != 1 {
		t.Fatalf("expected fresh window, got %+v", d)
	}
}

func TestRedisWindowSharedAcrossInstances(t *testing.T) {
	_, client := newTestRedis(t)
	a := NewRedis(client, Config{MaxAttempts: 2, Window: time.Minute})
	b := NewRedis(client, Config{MaxAttempts: 2, Window: time.Minute})
	ctx := context.Background()

	_, _ = a.Check(ctx, "o")
	_, _ = b.Check(ctx, "o")
	d, err := a.Check(ctx, "o")
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if d.Allowed {
		t.Fatal("expected the shared counter to deny the third attempt")
	}

	if err := b.Reset(ctx, "o"); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if d, _ := a.Check(ctx, "o"); !d.Allowed {
		t.Fatal("expected allow after reset")
	}
}

func TestRedisWindowUnavailable(t *testing.T) {
	mr, client := newTestRedis(t)
	w := NewRedis(client, Config{})
	mr.Close()

	_, err := w.Check(context.Background(), "o")
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}
