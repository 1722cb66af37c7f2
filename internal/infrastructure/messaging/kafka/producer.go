// Package kafka publishes query audit events.  Every facade call emits one
// QueryAudit record to a single topic; downstream consumers reconstruct
// usage and latency from the stream.
package kafka

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/turtacn/HexaTopo/internal/config"
	"github.com/turtacn/HexaTopo/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/HexaTopo/pkg/errors"
	"github.com/turtacn/HexaTopo/pkg/types/common"
)

var ErrProducerClosed = errors.New(errors.ErrCodeInternal, "audit producer closed")

// WriterInterface abstracts kafka.Writer for testing.
type WriterInterface interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// AuditProducer writes QueryAudit events to the configured topic.  Audit is
// best effort: the facade logs a failed publish and carries on, so the
// producer never blocks a query result on broker availability beyond the
// write timeout.
type AuditProducer struct {
	writer WriterInterface
	topic  string
	logger logging.Logger
	closed atomic.Bool

	sent   atomic.Int64
	failed atomic.Int64
}

// NewAuditProducer builds a producer over the configured brokers.
func NewAuditProducer(cfg *config.KafkaConfig, log logging.Logger) (*AuditProducer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New(errors.ErrCodeValidation, "kafka brokers required")
	}
	if cfg.Topic == "" {
		return nil, errors.New(errors.ErrCodeValidation, "kafka topic required")
	}

	batchSize := cfg.BatchSize
	if batchSize == 0 {
		batchSize = 100
	}
	batchTimeout := cfg.BatchTimeout
	if batchTimeout == 0 {
		batchTimeout = time.Second
	}
	writeTimeout := cfg.WriteTimeout
	if writeTimeout == 0 {
		writeTimeout = 10 * time.Second
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		BatchSize:    batchSize,
		BatchTimeout: batchTimeout,
		WriteTimeout: writeTimeout,
		RequiredAcks: kafka.RequireOne,
	}

	return &AuditProducer{
		writer: writer,
		topic:  cfg.Topic,
		logger: log.Named("audit"),
	}, nil
}

// Publish serializes one audit event and writes it keyed by query id, so
// events of a retried query land in the same partition.
func (p *AuditProducer) Publish(ctx context.Context, event *common.QueryAudit) error {
	if p.closed.Load() {
		return ErrProducerClosed
	}

	value, err := json.Marshal(event)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "failed to serialize audit event")
	}

	msg := kafka.Message{
		Key:   []byte(event.QueryID),
		Value: value,
		Time:  event.At,
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.failed.Add(1)
		return errors.Wrap(err, errors.ErrCodeInternal, "failed to publish audit event")
	}

	p.sent.Add(1)
	p.logger.Debug("audit event published",
		logging.String("query_id", string(event.QueryID)),
		logging.String("operation", string(event.Operation)),
	)
	return nil
}

// Sent and Failed expose publish counters for the stats endpoint.
func (p *AuditProducer) Sent() int64   { return p.sent.Load() }
func (p *AuditProducer) Failed() int64 { return p.failed.Load() }

// Close flushes and closes the underlying writer.
func (p *AuditProducer) Close() error {
	if !p.closed.CompareAndSwap(false, true) {
		return nil
	}
	err := p.writer.Close()
	p.logger.Info("audit producer closed", logging.Int64("sent", p.sent.Load()))
	return err
}
