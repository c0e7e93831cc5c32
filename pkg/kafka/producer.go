package kafka

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	kafka_config "itemshare/pkg/kafka/config"
	"itemshare/pkg/logger"

	"github.com/segmentio/kafka-go"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer wraps a kafka-go writer with a middleware chain and an
// optional dead letter topic.
type Producer struct {
	writer     messageWriter
	dlqWriter  messageWriter
	topic      string
	dlqTopic   string
	log        *logger.Logger
	middleware []ProducerMiddleware
	closed     bool
	mu         sync.RWMutex
}

type ProducerMiddleware func(ctx context.Context, msg Message, next func(ctx context.Context, msg Message) error) error

func NewProducer(cfg *kafka_config.Config, topic string, log *logger.Logger) (*Producer, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("at least one broker is required")
	}

	if topic == "" {
		return nil, fmt.Errorf("topic cannot be empty")
	}

	compression, err := cfg.Codec()
	if err != nil {
		return nil, err
	}
	requiredAcks, err := cfg.Acks()
	if err != nil {
		return nil, err
	}

	errorLogger := kafka.LoggerFunc(func(msg string, args ...any) {
		log.Error("kafka writer error", "topic", topic, "detail", fmt.Sprintf(msg, args...))
	})

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{}, // per-recipient ordering
		RequiredAcks: requiredAcks,
		Compression:  compression,
		MaxAttempts:  cfg.ProducerMaxAttempts,
		BatchTimeout: cfg.ProducerBatchTimeout,
		ErrorLogger:  errorLogger,
	}

	var dlqWriter messageWriter
	if cfg.DLQTopic != "" {
		dlqWriter = &kafka.Writer{
			Addr:         kafka.TCP(cfg.Brokers...),
			Topic:        cfg.DLQTopic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
			Compression:  compression,
			MaxAttempts:  3,
			ErrorLogger:  errorLogger,
		}
	}

	return newProducer(writer, dlqWriter, topic, cfg.DLQTopic, log), nil
}

func newProducer(writer, dlqWriter messageWriter, topic, dlqTopic string, log *logger.Logger) *Producer {
	return &Producer{
		writer:     writer,
		dlqWriter:  dlqWriter,
		topic:      topic,
		dlqTopic:   dlqTopic,
		log:        log,
		middleware: make([]ProducerMiddleware, 0),
	}
}

func (p *Producer) Use(middleware ProducerMiddleware) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.middleware = append(p.middleware, middleware)
}

func (p *Producer) Topic() string {
	return p.topic
}

func (p *Producer) Publish(ctx context.Context, msg Message) error {
	if err := p.checkOpen(); err != nil {
		return err
	}
	if msg.Key == "" {
		return ErrEmptyKey
	}
	if len(msg.Value) == 0 {
		return ErrEmptyValue
	}

	msg.Topic = p.topic
	return p.chain(func(ctx context.Context, m Message) error {
		return p.write(ctx, []Message{m})
	})(ctx, msg)
}

// PublishBatch writes all messages in one request. Messages without a key
// or value are rejected up front. The middleware chain sees each message
// once, in order, before the batch is written.
func (p *Producer) PublishBatch(ctx context.Context, messages []Message) error {
	if err := p.checkOpen(); err != nil {
		return err
	}
	if len(messages) == 0 {
		return nil
	}

	for i := range messages {
		if messages[i].Key == "" || len(messages[i].Value) == 0 {
			return fmt.Errorf("%w: message %d has no key or value", ErrInvalidMessage, i)
		}
		messages[i].Topic = p.topic
	}

	var pending []Message
	collect := p.chain(func(_ context.Context, m Message) error {
		pending = append(pending, m)
		return nil
	})
	for _, msg := range messages {
		if err := collect(ctx, msg); err != nil {
			return err
		}
	}

	return p.write(ctx, pending)
}

func (p *Producer) chain(final func(ctx context.Context, m Message) error) func(ctx context.Context, m Message) error {
	p.mu.RLock()
	middleware := p.middleware
	p.mu.RUnlock()

	handler := final
	for i := len(middleware) - 1; i >= 0; i-- {
		mw := middleware[i]
		next := handler
		handler = func(ctx context.Context, m Message) error {
			return mw(ctx, m, next)
		}
	}
	return handler
}

func (p *Producer) write(ctx context.Context, messages []Message) error {
	kafkaMessages := make([]kafka.Message, 0, len(messages))
	for _, msg := range messages {
		kafkaMessages = append(kafkaMessages, toKafkaMessage(msg, msg.Timestamp))
	}

	err := p.writer.WriteMessages(ctx, kafkaMessages...)
	if err == nil {
		return nil
	}

	if ClassifyError(err) != ErrorTypePermanent || p.dlqWriter == nil {
		return err
	}

	if dlqErr := p.sendToDLQ(ctx, messages, err); dlqErr != nil {
		return fmt.Errorf("failed to send to DLQ: %v (original error: %w)", dlqErr, err)
	}
	p.log.Warn("Notifications parked on dead letter topic",
		"topic", p.topic,
		"dlq_topic", p.dlqTopic,
		"count", len(messages),
		"error", err,
	)
	return nil
}

func (p *Producer) sendToDLQ(ctx context.Context, messages []Message, originalErr error) error {
	now := time.Now().UTC()
	parked := make([]kafka.Message, 0, len(messages))
	for _, msg := range messages {
		headers := make(map[string]string, len(msg.Headers)+3)
		for k, v := range msg.Headers {
			headers[k] = v
		}
		headers[HeaderOriginalTopic] = p.topic
		headers[HeaderDLQError] = originalErr.Error()
		headers[HeaderDLQTimestamp] = now.Format(time.RFC3339)
		msg.Headers = headers
		parked = append(parked, toKafkaMessage(msg, now))
	}
	return p.dlqWriter.WriteMessages(ctx, parked...)
}

func toKafkaMessage(msg Message, ts time.Time) kafka.Message {
	km := kafka.Message{
		Key:   []byte(msg.Key),
		Value: msg.Value,
		Time:  ts,
	}
	for k, v := range msg.Headers {
		km.Headers = append(km.Headers, kafka.Header{Key: k, Value: []byte(v)})
	}
	return km
}

func (p *Producer) checkOpen() error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrProducerClosed
	}
	return nil
}

func (p *Producer) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true

	var errs []error
	if p.writer != nil {
		errs = append(errs, p.writer.Close())
	}
	if p.dlqWriter != nil {
		errs = append(errs, p.dlqWriter.Close())
	}
	return errors.Join(errs...)
}
