package repository

import (
	"context"
	"fmt"

	"RegimeCast/internal/domain/models"
	pkgkafka "RegimeCast/pkg/kafka"
	applogger "RegimeCast/pkg/logger"
)

// KafkaReceiptPublisher implements ReceiptSink by publishing each receipt
// as a JSON message. The library version hash keys the message so receipts
// from the same library build land on the same partition.
type KafkaReceiptPublisher struct {
	producer *pkgkafka.Producer
	topic    string
	l        *applogger.Logger
}

func NewKafkaReceiptPublisher(producer *pkgkafka.Producer, topic string) *KafkaReceiptPublisher {
	return &KafkaReceiptPublisher{producer: producer, topic: topic}
}

// SetLogger injects a structured logger.
func (p *KafkaReceiptPublisher) SetLogger(l *applogger.Logger) { p.l = l }

func (p *KafkaReceiptPublisher) Append(ctx context.Context, r models.ProvenanceReceipt) error {
	if err := p.producer.Publish(ctx, p.topic, []byte(r.LibraryVersionHash), r); err != nil {
		if p.l != nil {
			p.l.Error("kafka receipt publish error",
				applogger.String("topic", p.topic),
				applogger.String("hash", r.LibraryVersionHash),
				applogger.Error(err),
			)
		}
		return fmt.Errorf("publish receipt: %w", err)
	}
	if p.l != nil {
		p.l.Debug("kafka receipt published",
			applogger.String("topic", p.topic),
			applogger.String("hash", r.LibraryVersionHash),
		)
	}
	return nil
}
