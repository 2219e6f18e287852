package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

// Message is an outbound email. Body is rendered HTML.
type Message struct {
	Recipients []string `json:"recipients"`
	Subject    string   `json:"subject"`
	Body       string   `json:"body"`
}

// Dispatcher enqueues a message for delivery. It must not wait for delivery.
type Dispatcher interface {
	Send(ctx context.Context, msg Message) error
}

var errNoRecipients = errors.New("notification has no recipients")

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type KafkaConfig struct {
	Brokers      []string
	Topic        string
	WriteTimeout time.Duration
	// BatchTimeout bounds how long a partial batch waits before it is
	// flushed. Sends are synchronous, so this is added to every request
	// that enqueues an email.
	BatchTimeout time.Duration
}

const defaultBatchTimeout = 10 * time.Millisecond

// KafkaDispatcher publishes messages to a topic consumed by the mail worker.
type KafkaDispatcher struct {
	writer messageWriter
	topic  string
}

func NewKafkaDispatcher(cfg KafkaConfig) (*KafkaDispatcher, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("kafka brokers are required")
	}
	if strings.TrimSpace(cfg.Topic) == "" {
		return nil, errors.New("kafka topic is required")
	}

	return newKafkaDispatcher(newKafkaWriter(cfg), cfg.Topic), nil
}

func newKafkaWriter(cfg KafkaConfig) *kafka.Writer {
	timeout := cfg.WriteTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	batchTimeout := cfg.BatchTimeout
	if batchTimeout <= 0 {
		batchTimeout = defaultBatchTimeout
	}

	return &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  cfg.Topic,
		Balancer:               &kafka.LeastBytes{},
		RequiredAcks:           kafka.RequireOne,
		WriteTimeout:           timeout,
		BatchSize:              1,
		BatchTimeout:           batchTimeout,
		AllowAutoTopicCreation: true,
	}
}

func newKafkaDispatcher(w messageWriter, topic string) *KafkaDispatcher {
	return &KafkaDispatcher{writer: w, topic: topic}
}

func (d *KafkaDispatcher) Send(ctx context.Context, msg Message) error {
	if len(msg.Recipients) == 0 {
		return errNoRecipients
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}

	err = d.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(uuid.NewString()),
		Value: payload,
		Time:  time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("publish notification to %s: %w", d.topic, err)
	}
	return nil
}

func (d *KafkaDispatcher) Close() error {
	return d.writer.Close()
}

// LogDispatcher writes messages to the log instead of a queue.
type LogDispatcher struct {
	logger *slog.Logger
}

func NewLogDispatcher(logger *slog.Logger) *LogDispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogDispatcher{logger: logger}
}

func (d *LogDispatcher) Send(ctx context.Context, msg Message) error {
	if len(msg.Recipients) == 0 {
		return errNoRecipients
	}

	d.logger.InfoContext(ctx, "notification queued",
		"recipients", msg.Recipients,
		"subject", msg.Subject,
		"body_bytes", len(msg.Body),
	)
	d.logger.DebugContext(ctx, "notification body", "body", msg.Body)
	return nil
}
