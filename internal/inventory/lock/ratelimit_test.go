package lock

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestRedisRateLimiter_Allow(t *testing.T) {
	client := getRedisClient(t)
	defer client.Close()

	ctx := context.Background()
	l := NewRedisRateLimiter(client, 3, time.Minute)
	id := "tenant-" + uuid.NewString()
	defer client.Del(ctx, "ratelimit:"+id)

	for i := 0; i < 3; i++ {
		q, err := l.Allow(ctx, id)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !q.Allowed {
			t.Fatalf("request %d should be allowed", i+1)
		}
		if q.Remaining != 2-i {
			t.Errorf("request %d: expected remaining %d, got %d", i+1, 2-i, q.Remaining)
		}
	}

	q, err := l.Allow(ctx, id)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q.Allowed || q.Remaining != 0 || q.Limit != 3 {
		t.Errorf("expected fourth request to be rejected, got %+v", q)
	}
}

func TestRedisRateLimiter_WindowSlides(t *testing.T) {
	client := getRedisClient(t)
	defer client.Close()

	ctx := context.Background()
	l := NewRedisRateLimiter(client, 1, time.Second)
	id := "tenant-" + uuid.NewString()
	defer client.Del(ctx, "ratelimit:"+id)

	start := time.Now()
	l.now = func() time.Time { return start }
	if q, _ := l.Allow(ctx, id); !q.Allowed {
		t.Fatal("expected first request to be allowed")
	}
	if q, _ := l.Allow(ctx, id); q.Allowed {
		t.Fatal("expected second request in the window to be rejected")
	}

	l.now = func() time.Time { return start.Add(2 * time.Second) }
	if q, _ := l.Allow(ctx, id); !q.Allowed {
		t.Error("expected request after the window to be allowed")
	}
}
