// Package kafka publishes viewer events to a Kafka topic.
package kafka

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/irisuniflora/VF/internal/config"
	"github.com/irisuniflora/VF/internal/infrastructure/monitoring/logging"
	"github.com/irisuniflora/VF/pkg/errors"
)

var (
	ErrProducerClosed = errors.New(errors.ErrCodeServiceUnavailable, "producer closed")
	ErrQueueFull      = errors.New(errors.ErrCodeServiceUnavailable, "producer queue full")
)

const (
	defaultMaxMessageBytes = 1 << 20
	defaultQueueSize       = 256
)

// Message is one record to publish.
type Message struct {
	Topic     string
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Timestamp time.Time
}

// ProducerMetrics counts producer outcomes.
type ProducerMetrics struct {
	MessagesSent    atomic.Int64
	MessagesFailed  atomic.Int64
	MessagesDropped atomic.Int64
	BytesSent       atomic.Int64
}

// WriterInterface abstracts kafka.Writer for testing.
type WriterInterface interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
	Stats() kafka.WriterStats
}

// Producer writes messages synchronously with Publish or through a bounded
// background queue with PublishAsync.
type Producer struct {
	writer          WriterInterface
	logger          logging.Logger
	maxMessageBytes int
	writeTimeout    time.Duration
	onAsyncError    func(err error, msg Message)

	queue   chan Message
	done    chan struct{}
	closed  atomic.Bool
	metrics ProducerMetrics
}

// ProducerOption configures a Producer.
type ProducerOption func(*Producer)

// WithAsyncErrorHandler is called for every failed or dropped async message.
func WithAsyncErrorHandler(fn func(err error, msg Message)) ProducerOption {
	return func(p *Producer) { p.onAsyncError = fn }
}

// WithQueueSize sets the async queue capacity.
func WithQueueSize(n int) ProducerOption {
	return func(p *Producer) {
		if n > 0 {
			p.queue = make(chan Message, n)
		}
	}
}

// NewProducer builds a kafka.Writer from the configuration.
func NewProducer(cfg config.KafkaConfig, logger logging.Logger, opts ...ProducerOption) (*Producer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New(errors.ErrCodeValidation, "kafka brokers required")
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = 10 * time.Second
	}
	if cfg.BatchTimeout == 0 {
		cfg.BatchTimeout = 100 * time.Millisecond
	}

	var acks kafka.RequiredAcks
	switch cfg.Acks {
	case "none":
		acks = kafka.RequireNone
	case "all":
		acks = kafka.RequireAll
	default:
		acks = kafka.RequireOne
	}

	var compression kafka.Compression
	switch cfg.Compression {
	case "gzip":
		compression = kafka.Gzip
	case "snappy":
		compression = kafka.Snappy
	case "lz4":
		compression = kafka.Lz4
	case "zstd":
		compression = kafka.Zstd
	}

	w := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Balancer:               &kafka.Hash{},
		MaxAttempts:            3,
		BatchTimeout:           cfg.BatchTimeout,
		WriteTimeout:           cfg.WriteTimeout,
		RequiredAcks:           acks,
		Compression:            compression,
		AllowAutoTopicCreation: true,
	}
	return NewProducerWithWriter(w, cfg.WriteTimeout, logger, opts...), nil
}

// NewProducerWithWriter wraps an existing writer and starts the async worker.
func NewProducerWithWriter(w WriterInterface, writeTimeout time.Duration, logger logging.Logger, opts ...ProducerOption) *Producer {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	if writeTimeout <= 0 {
		writeTimeout = 10 * time.Second
	}
	p := &Producer{
		writer:          w,
		logger:          logger,
		maxMessageBytes: defaultMaxMessageBytes,
		writeTimeout:    writeTimeout,
		queue:           make(chan Message, defaultQueueSize),
		done:            make(chan struct{}),
	}
	for _, o := range opts {
		o(p)
	}
	go p.run()
	return p
}

// Publish writes one message and waits for the broker.
func (p *Producer) Publish(ctx context.Context, msg Message) error {
	if p.closed.Load() {
		return ErrProducerClosed
	}
	if err := p.validate(msg); err != nil {
		return err
	}
	return p.write(ctx, msg)
}

// PublishAsync queues msg without blocking.  When the queue is full the
// message is dropped and reported to the async error handler.
func (p *Producer) PublishAsync(msg Message) {
	if p.closed.Load() {
		p.asyncFailed(ErrProducerClosed, msg)
		return
	}
	if err := p.validate(msg); err != nil {
		p.asyncFailed(err, msg)
		return
	}
	select {
	case p.queue <- msg:
	default:
		p.metrics.MessagesDropped.Add(1)
		p.asyncFailed(ErrQueueFull, msg)
	}
}

func (p *Producer) run() {
	defer close(p.done)
	for msg := range p.queue {
		ctx, cancel := context.WithTimeout(context.Background(), p.writeTimeout)
		if err := p.write(ctx, msg); err != nil {
			p.asyncFailed(err, msg)
		}
		cancel()
	}
}

func (p *Producer) asyncFailed(err error, msg Message) {
	p.logger.Warn("async publish failed", logging.String("topic", msg.Topic), logging.Err(err))
	if p.onAsyncError != nil {
		p.onAsyncError(err, msg)
	}
}

func (p *Producer) validate(msg Message) error {
	if msg.Topic == "" {
		return errors.New(errors.ErrCodeValidation, "topic required")
	}
	if len(msg.Value) == 0 {
		return errors.New(errors.ErrCodeValidation, "value required")
	}
	if len(msg.Value) > p.maxMessageBytes {
		return errors.New(errors.ErrCodeValidation, "message too large")
	}
	return nil
}

func (p *Producer) write(ctx context.Context, msg Message) error {
	start := time.Now()
	if err := p.writer.WriteMessages(ctx, toKafkaMessage(msg)); err != nil {
		p.metrics.MessagesFailed.Add(1)
		return errors.Wrap(err, errors.ErrCodeExternalService, "publish failed")
	}
	p.metrics.MessagesSent.Add(1)
	p.metrics.BytesSent.Add(int64(len(msg.Value)))
	p.logger.Debug("Message published",
		logging.String("topic", msg.Topic),
		logging.Duration("latency", time.Since(start)))
	return nil
}

// Sent, Failed and Dropped report counters.
func (p *Producer) Sent() int64    { return p.metrics.MessagesSent.Load() }
func (p *Producer) Failed() int64  { return p.metrics.MessagesFailed.Load() }
func (p *Producer) Dropped() int64 { return p.metrics.MessagesDropped.Load() }

// Close drains the async queue and closes the writer.
func (p *Producer) Close() error {
	if !p.closed.CompareAndSwap(false, true) {
		return nil
	}
	close(p.queue)
	<-p.done
	err := p.writer.Close()
	p.logger.Info("Kafka producer closed",
		logging.Int64("sent", p.Sent()),
		logging.Int64("failed", p.Failed()),
		logging.Int64("dropped", p.Dropped()))
	return err
}

func toKafkaMessage(msg Message) kafka.Message {
	headers := make([]kafka.Header, 0, len(msg.Headers))
	for k, v := range msg.Headers {
		headers = append(headers, kafka.Header{Key: k, Value: []byte(v)})
	}
	ts := msg.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	return kafka.Message{Topic: msg.Topic, Key: msg.Key, Value: msg.Value, Headers: headers, Time: ts}
}
