package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/shopspring/decimal"

	"github.com/tair/supply-ledger/internal/inventory/domain"
	"github.com/tair/supply-ledger/internal/inventory/ledger"
	"github.com/tair/supply-ledger/internal/inventory/lock"
	"github.com/tair/supply-ledger/internal/inventory/repository"
	"github.com/tair/supply-ledger/internal/inventory/usecase/command"
)

type memoryDedup struct {
	mu   sync.Mutex
	seen map[string]bool
}

func (d *memoryDedup) Claim(_ context.Context, scope, key string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.seen[scope+key] {
		return false, nil
	}
	d.seen[scope+key] = true
	return true, nil
}

func (d *memoryDedup) Forget(_ context.Context, scope, key string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.seen, scope+key)
	return nil
}

func TestPublishTransactionRecorded(t *testing.T) {
	producer := mocks.NewSyncProducer(t, ProducerConfig())

	var sent TransactionRecordedEvent
	producer.ExpectSendMessageWithMessageCheckerFunctionAndSucceed(func(msg *sarama.ProducerMessage) error {
		if msg.Topic != TopicInventoryTransactions {
			return errors.New("unexpected topic " + msg.Topic)
		}
		key, _ := msg.Key.Encode()
		if string(key) != "school-1:item-1" {
			return errors.New("unexpected key " + string(key))
		}
		raw, _ := msg.Value.Encode()
		return json.Unmarshal(raw, &sent)
	})

	p := NewPublisherWithProducer(producer, nil)
	defer p.Close()

	item := &domain.InventoryItem{ID: "item-1", TenantID: "school-1", Name: "Glue", Quantity: 2, MinThreshold: 3, MaxThreshold: 10}
	tx := &domain.Transaction{
		ID: "tx-1", TenantID: "school-1", ItemID: "item-1", UserID: "teacher-1",
		Type: domain.TypeCheckOut, Quantity: -3, PreviousQuantity: 5, NewQuantity: 2,
		UnitCost: decimal.RequireFromString("1.25"),
	}

	if err := p.PublishTransactionRecorded(context.Background(), item, tx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sent.TransactionID != "tx-1" || sent.StockStatus != string(domain.StatusLowStock) || sent.EventType != EventTypeTransactionRecorded {
		t.Errorf("unexpected event: %+v", sent)
	}
}

func TestPublishFailure(t *testing.T) {
	producer := mocks.NewSyncProducer(t, ProducerConfig())
	producer.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	p := NewPublisherWithProducer(producer, nil)
	defer p.Close()

	err := p.PublishTransactionRecorded(context.Background(), &domain.InventoryItem{}, &domain.Transaction{})
	if !errors.Is(err, sarama.ErrOutOfBrokers) {
		t.Errorf("expected broker error, got %v", err)
	}
}

type movementFixture struct {
	repo     *repository.MemoryRepository
	consumer *Consumer
	itemID   string
}

func newMovementFixture(t *testing.T, opts ...ledger.Option) *movementFixture {
	t.Helper()
	repo := repository.NewMemoryRepository()
	engine := ledger.New(repo, opts...)
	item, _, err := engine.CreateItem(context.Background(), ledger.CreateItemRequest{
		TenantID: "school-1", Name: "Crayons", Quantity: 5, MinThreshold: 1, MaxThreshold: 50, ActorID: "admin",
	})
	if err != nil {
		t.Fatalf("failed to seed item: %v", err)
	}

	c := newConsumer([]string{TopicStockMovements})
	c.RegisterHandler(EventTypeStockMovementRequested,
		NewStockMovementHandler(command.NewApplyTransactionHandler(engine), &memoryDedup{seen: map[string]bool{}}))
	return &movementFixture{repo: repo, consumer: c, itemID: item.ID}
}

func (f *movementFixture) message(t *testing.T, event StockMovementRequestedEvent) *sarama.ConsumerMessage {
	t.Helper()
	payload, err := json.Marshal(event)
	if err != nil {
		t.Fatalf("failed to marshal: %v", err)
	}
	return &sarama.ConsumerMessage{
		Topic: TopicStockMovements,
		Value: payload,
		Headers: []*sarama.RecordHeader{
			{Key: []byte(headerEventType), Value: []byte(EventTypeStockMovementRequested)},
			{Key: []byte(headerEventID), Value: []byte(event.EventID)},
		},
	}
}

func (f *movementFixture) quantity(t *testing.T) int {
	t.Helper()
	item, err := f.repo.GetItem(context.Background(), "school-1", f.itemID)
	if err != nil {
		t.Fatalf("failed to load item: %v", err)
	}
	return item.Quantity
}

func TestStockMovementConsumer(t *testing.T) {
	f := newMovementFixture(t)
	ctx := context.Background()

	event := StockMovementRequestedEvent{
		EventID: "evt-1", TenantID: "school-1", ItemID: f.itemID, ActorID: "svc-orders",
		Type: "check-out", Quantity: 2, Reason: "class order",
	}

	if err := f.consumer.dispatch(ctx, f.message(t, event)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := f.quantity(t); got != 3 {
		t.Fatalf("expected quantity 3, got %d", got)
	}

	// redelivery is skipped
	if err := f.consumer.dispatch(ctx, f.message(t, event)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := f.quantity(t); got != 3 {
		t.Errorf("expected redelivery to be skipped, got quantity %d", got)
	}

	// insufficient stock is swallowed and leaves the item unchanged
	event.EventID = "evt-2"
	event.Quantity = 10
	if err := f.consumer.dispatch(ctx, f.message(t, event)); err != nil {
		t.Errorf("expected business rejection to be swallowed, got %v", err)
	}
	if got := f.quantity(t); got != 3 {
		t.Errorf("expected quantity 3, got %d", got)
	}
}

// unreliableLocker fails the first failures acquisitions
type unreliableLocker struct {
	mu       sync.Mutex
	failures int
	next     lock.Locker
}

func (l *unreliableLocker) Lock(ctx context.Context, key string) (func(), error) {
	l.mu.Lock()
	if l.failures > 0 {
		l.failures--
		l.mu.Unlock()
		return nil, errors.New("dial tcp 127.0.0.1:6379: connection refused")
	}
	l.mu.Unlock()
	return l.next.Lock(ctx, key)
}

func TestStockMovementRetriedAfterLockFailure(t *testing.T) {
	f := newMovementFixture(t, ledger.WithLocker(&unreliableLocker{failures: 1, next: lock.NewLocalLocker()}))
	ctx := context.Background()

	event := StockMovementRequestedEvent{
		EventID: "ev-1", TenantID: "school-1", ItemID: f.itemID, ActorID: "svc-orders",
		Type: "check-in", Quantity: 3,
	}

	if err := f.consumer.dispatch(ctx, f.message(t, event)); err == nil {
		t.Fatal("expected the lock failure to be returned for retry")
	}
	if got := f.quantity(t); got != 5 {
		t.Fatalf("expected quantity 5, got %d", got)
	}

	// redelivery is applied, not skipped as a duplicate
	if err := f.consumer.dispatch(ctx, f.message(t, event)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := f.quantity(t); got != 8 {
		t.Errorf("expected quantity 8, got %d", got)
	}
}

func TestStockMovementRetriedThroughHandle(t *testing.T) {
	f := newMovementFixture(t, ledger.WithLocker(&unreliableLocker{failures: 2, next: lock.NewLocalLocker()}))
	f.consumer.retryBackoff = time.Millisecond

	event := StockMovementRequestedEvent{
		EventID: "ev-2", TenantID: "school-1", ItemID: f.itemID, ActorID: "svc-orders",
		Type: "check-out", Quantity: 4,
	}
	if !f.consumer.handle(context.Background(), f.message(t, event)) {
		t.Fatal("expected the movement to be handled")
	}
	if got := f.quantity(t); got != 1 {
		t.Errorf("expected quantity 1, got %d", got)
	}
}

func TestDispatchUnknownEventType(t *testing.T) {
	c := newConsumer(nil)
	msg := &sarama.ConsumerMessage{
		Headers: []*sarama.RecordHeader{{Key: []byte(headerEventType), Value: []byte("order.created")}},
	}
	if err := c.dispatch(context.Background(), msg); !errors.Is(err, ErrNoHandler) {
		t.Errorf("expected ErrNoHandler, got %v", err)
	}
}

func TestDispatchMalformedPayload(t *testing.T) {
	f := newMovementFixture(t)
	msg := &sarama.ConsumerMessage{
		Value:   []byte("{not json"),
		Headers: []*sarama.RecordHeader{{Key: []byte(headerEventType), Value: []byte(EventTypeStockMovementRequested)}},
	}
	if err := f.consumer.dispatch(context.Background(), msg); !errors.Is(err, ErrMalformedEvent) {
		t.Errorf("expected ErrMalformedEvent, got %v", err)
	}
}

func TestHandleRetriesTransientFailures(t *testing.T) {
	c := newConsumer(nil)
	c.retryBackoff = time.Millisecond

	calls := 0
	c.RegisterHandler("item.counted", func(context.Context, string, []byte) error {
		calls++
		if calls < 3 {
			return domain.ErrPersistenceFailure
		}
		return nil
	})
	msg := &sarama.ConsumerMessage{
		Headers: []*sarama.RecordHeader{{Key: []byte(headerEventType), Value: []byte("item.counted")}},
	}

	if !c.handle(context.Background(), msg) {
		t.Fatal("expected message to be settled")
	}
	if calls != 3 {
		t.Errorf("expected 3 attempts, got %d", calls)
	}
}

func TestHandleGivesUp(t *testing.T) {
	c := newConsumer(nil)
	c.retryBackoff = time.Millisecond
	c.maxAttempts = 2

	calls := 0
	c.RegisterHandler("item.counted", func(context.Context, string, []byte) error {
		calls++
		return domain.ErrPersistenceFailure
	})
	msg := &sarama.ConsumerMessage{
		Headers: []*sarama.RecordHeader{{Key: []byte(headerEventType), Value: []byte("item.counted")}},
	}

	if !c.handle(context.Background(), msg) {
		t.Fatal("expected message to be settled")
	}
	if calls != 2 {
		t.Errorf("expected 2 attempts, got %d", calls)
	}

	// a finished session leaves the message for redelivery
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c.maxAttempts = 5
	if c.handle(ctx, msg) {
		t.Error("expected unsettled message after cancellation")
	}
}

func TestMalformedEventIsNotRetried(t *testing.T) {
	f := newMovementFixture(t)
	f.consumer.retryBackoff = time.Hour
	msg := &sarama.ConsumerMessage{
		Value:   []byte("{not json"),
		Headers: []*sarama.RecordHeader{{Key: []byte(headerEventType), Value: []byte(EventTypeStockMovementRequested)}},
	}
	if !f.consumer.handle(context.Background(), msg) {
		t.Error("expected malformed event to be settled")
	}
}
