package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/tair/supply-ledger/internal/inventory/domain"
	"github.com/tair/supply-ledger/pkg/logger"
)

// Publisher wraps Kafka producer
type Publisher struct {
	producer sarama.SyncProducer
	brokers  []string
}

// NewPublisher creates a new Kafka publisher
func NewPublisher(brokers []string) (*Publisher, error) {
	producer, err := sarama.NewSyncProducer(brokers, ProducerConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka producer: %w", err)
	}

	logger.Logger.Info().
		Strs("brokers", brokers).
		Msg("Kafka publisher initialized")

	return NewPublisherWithProducer(producer, brokers), nil
}

// NewPublisherWithProducer wraps an existing producer
func NewPublisherWithProducer(producer sarama.SyncProducer, brokers []string) *Publisher {
	return &Publisher{
		producer: producer,
		brokers:  brokers,
	}
}

// ProducerConfig is the sarama configuration used by NewPublisher
func ProducerConfig() *sarama.Config {
	config := sarama.NewConfig()
	config.Producer.Return.Successes = true
	config.Producer.Retry.Max = 3
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Compression = sarama.CompressionSnappy
	config.Producer.MaxMessageBytes = 1000000
	return config
}

// PublishTransactionRecorded publishes a committed transaction. Messages are
// keyed by tenant and item so one item's events stay ordered on a partition.
func (p *Publisher) PublishTransactionRecorded(ctx context.Context, item *domain.InventoryItem, tx *domain.Transaction) error {
	event := TransactionRecordedEvent{
		EventID:          uuid.NewString(),
		EventType:        EventTypeTransactionRecorded,
		TenantID:         tx.TenantID,
		ItemID:           tx.ItemID,
		ItemName:         item.Name,
		TransactionID:    tx.ID,
		TransactionType:  string(tx.Type),
		Quantity:         tx.Quantity,
		PreviousQuantity: tx.PreviousQuantity,
		NewQuantity:      tx.NewQuantity,
		UnitCost:         tx.UnitCost,
		UserID:           tx.UserID,
		Reason:           tx.Reason,
		StockStatus:      string(item.StockStatus()),
		Timestamp:        tx.CreatedAt,
	}

	tracer := otel.Tracer("kafka-publisher")
	ctx, span := tracer.Start(ctx, "kafka.publish.transaction_recorded",
		trace.WithSpanKind(trace.SpanKindProducer),
		trace.WithAttributes(
			attribute.String("messaging.system", "kafka"),
			attribute.String("messaging.destination", TopicInventoryTransactions),
			attribute.String("messaging.destination_kind", "topic"),
			attribute.String("event.type", EventTypeTransactionRecorded),
			attribute.String("event.id", event.EventID),
			attribute.String("tenant.id", event.TenantID),
			attribute.String("inventory.item_id", event.ItemID),
			attribute.String("transaction.type", event.TransactionType),
		),
	)
	defer span.End()

	payload, err := json.Marshal(event)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to marshal event")
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := &sarama.ProducerMessage{
		Topic:   TopicInventoryTransactions,
		Key:     sarama.StringEncoder(event.TenantID + ":" + event.ItemID),
		Value:   sarama.ByteEncoder(payload),
		Headers: headers(ctx, EventTypeTransactionRecorded, event.EventID),
	}

	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to send message")
		return fmt.Errorf("failed to send message to Kafka: %w", err)
	}

	span.SetAttributes(
		attribute.Int("messaging.kafka.partition", int(partition)),
		attribute.Int64("messaging.kafka.offset", offset),
	)
	span.SetStatus(codes.Ok, "Event published successfully")

	logger.ForItem(ctx, event.TenantID, event.ItemID).Debug().
		Str("event_id", event.EventID).
		Str("topic", TopicInventoryTransactions).
		Int32("partition", partition).
		Int64("offset", offset).
		Msg("Transaction recorded event published")

	return nil
}

// PublishStockMovementRequested publishes a movement request, as an upstream
// service would
func (p *Publisher) PublishStockMovementRequested(ctx context.Context, event StockMovementRequestedEvent) error {
	if event.EventID == "" {
		event.EventID = uuid.NewString()
	}
	event.EventType = EventTypeStockMovementRequested

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	_, _, err = p.producer.SendMessage(&sarama.ProducerMessage{
		Topic:   TopicStockMovements,
		Key:     sarama.StringEncoder(event.TenantID + ":" + event.ItemID),
		Value:   sarama.ByteEncoder(payload),
		Headers: headers(ctx, EventTypeStockMovementRequested, event.EventID),
	})
	if err != nil {
		return fmt.Errorf("failed to send message to Kafka: %w", err)
	}
	return nil
}

// Close closes the Kafka producer
func (p *Publisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}

// headers carries the event metadata and the trace context
func headers(ctx context.Context, eventType, eventID string) []sarama.RecordHeader {
	carrier := propagation.MapCarrier{}
	otel.GetTextMapPropagator().Inject(ctx, carrier)

	out := []sarama.RecordHeader{
		{Key: []byte(headerEventType), Value: []byte(eventType)},
		{Key: []byte(headerEventID), Value: []byte(eventID)},
	}
	for key, value := range carrier {
		out = append(out, sarama.RecordHeader{Key: []byte(key), Value: []byte(value)})
	}
	return out
}
