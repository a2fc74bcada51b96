package http

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/mux"

	"github.com/tair/supply-ledger/internal/inventory/lock"
)

type countingLimiter struct {
	mu     sync.Mutex
	max    int
	counts map[string]int
	err    error
}

func (l *countingLimiter) Allow(_ context.Context, identifier string) (lock.Quota, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return lock.Quota{}, l.err
	}
	l.counts[identifier]++
	n := l.counts[identifier]
	remaining := l.max - n
	if remaining < 0 {
		remaining = 0
	}
	return lock.Quota{Allowed: n <= l.max, Limit: l.max, Remaining: remaining, Reset: time.Now().Add(time.Minute)}, nil
}

func (s *testServer) withLimiter(l RateLimiter) {
	s.handler.limiter = l
	s.router = mux.NewRouter()
	s.handler.RegisterRoutes(s.router)
}

func TestRateLimitPerTenant(t *testing.T) {
	s := newTestServer(t)
	s.withLimiter(&countingLimiter{max: 2, counts: map[string]int{}})

	tok := s.token(t, "school-1", "staff")
	id := s.createItem(t, tok, 10)

	apply := call{
		method: http.MethodPost,
		path:   "/api/inventory/items/" + id + "/transactions",
		token:  tok,
		body:   map[string]interface{}{"type": "check-out", "quantity": 1},
	}
	if code, resp := s.do(t, apply); code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", code, resp.Error)
	}
	if code, _ := s.do(t, apply); code != http.StatusTooManyRequests {
		t.Errorf("expected 429, got %d", code)
	}

	// reads are not throttled
	if code, _ := s.do(t, call{method: http.MethodGet, path: "/api/inventory/items/" + id, token: tok}); code != http.StatusOK {
		t.Errorf("expected 200, got %d", code)
	}

	// another tenant has its own budget
	s.createItem(t, s.token(t, "school-2", "staff"), 1)
}

func TestRateLimitFailsOpen(t *testing.T) {
	s := newTestServer(t)
	s.withLimiter(&countingLimiter{err: errors.New("redis down"), counts: map[string]int{}})

	s.createItem(t, s.token(t, "school-1", "staff"), 3)
}
