package inventory

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/tair/supply-ledger/internal/inventory/domain"
	"github.com/tair/supply-ledger/internal/inventory/ledger"
	"github.com/tair/supply-ledger/internal/inventory/lock"
	"github.com/tair/supply-ledger/internal/inventory/repository"
	"github.com/tair/supply-ledger/internal/inventory/usecase/command"
	"github.com/tair/supply-ledger/pkg/auth"
)

type recordingPublisher struct {
	mu  sync.Mutex
	txs []domain.Transaction
}

func (p *recordingPublisher) PublishTransactionRecorded(_ context.Context, _ *domain.InventoryItem, tx *domain.Transaction) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.txs = append(p.txs, *tx)
	return nil
}

func TestInitializeService(t *testing.T) {
	repo := repository.NewMemoryRepository()
	publisher := &recordingPublisher{}
	tokens := auth.NewTokenManager("wire-secret", time.Hour)
	reg := prometheus.NewRegistry()

	svc, err := InitializeService(repo, lock.NewLocalLocker(), publisher, nil, nil, tokens, reg)
	if err != nil {
		t.Fatalf("failed to initialize service: %v", err)
	}
	if svc.HTTP == nil || svc.GRPC == nil || svc.Interceptors == nil || svc.ApplyTransaction == nil {
		t.Fatalf("incomplete service: %+v", svc)
	}

	item, _, err := svc.Engine.CreateItem(context.Background(), ledger.CreateItemRequest{
		TenantID: "school-1", Name: "Markers", Quantity: 12, MinThreshold: 2, MaxThreshold: 40, ActorID: "admin",
	})
	if err != nil {
		t.Fatalf("failed to create item: %v", err)
	}

	// the HTTP handler and the shared apply handler sit on the same engine
	router := mux.NewRouter()
	svc.HTTP.RegisterRoutes(router)

	tok, err := tokens.GenerateToken("teacher-1", "teacher", "school-1", auth.RoleTeacher)
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/api/inventory/items/"+item.ID+"/transactions",
		bytes.NewBufferString(`{"type":"check-out","quantity":5,"reason":"art class"}`))
	req.Header.Set("Authorization", "Bearer "+tok)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	if _, err := svc.ApplyTransaction.Handle(context.Background(), command.ApplyTransactionCommand{
		TenantID: "school-1", ItemID: item.ID, ActorID: "svc-orders", Type: "check-in", Quantity: 3,
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	stored, err := repo.GetItem(context.Background(), "school-1", item.ID)
	if err != nil {
		t.Fatalf("failed to load item: %v", err)
	}
	if stored.Quantity != 10 {
		t.Errorf("expected quantity 10, got %d", stored.Quantity)
	}

	// initial stock, check-out, check-in
	if len(publisher.txs) != 3 {
		t.Errorf("expected 3 published transactions, got %d", len(publisher.txs))
	}

	expected := `
		# HELP inventory_ledger_insufficient_stock_total Total number of check-outs rejected for insufficient stock
		# TYPE inventory_ledger_insufficient_stock_total counter
		inventory_ledger_insufficient_stock_total 0
	`
	if err := testutil.GatherAndCompare(reg, strings.NewReader(expected), "inventory_ledger_insufficient_stock_total"); err != nil {
		t.Error(err)
	}
	if n, err := testutil.GatherAndCount(reg, "inventory_service_requests_total"); err != nil || n != 1 {
		t.Errorf("expected one request series, got %d (%v)", n, err)
	}
}

func TestProvideEngineWithoutPublisher(t *testing.T) {
	engine := ProvideEngine(repository.NewMemoryRepository(), lock.NewLocalLocker(), nil, nil)
	if _, _, err := engine.CreateItem(context.Background(), ledger.CreateItemRequest{
		TenantID: "school-1", Name: "Tape", Quantity: 1, MaxThreshold: 10, ActorID: "admin",
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
