package kafka_config

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/segmentio/kafka-go/compress"
)

var codecs = map[string]compress.Compression{
	"none":   compress.None,
	"gzip":   compress.Gzip,
	"snappy": compress.Snappy,
	"lz4":    compress.Lz4,
	"zstd":   compress.Zstd,
}

var acks = map[int]kafka.RequiredAcks{
	-1: kafka.RequireAll,
	0:  kafka.RequireNone,
	1:  kafka.RequireOne,
}

type Config struct {
	Brokers []string

	ProducerMaxAttempts  int
	ProducerBatchTimeout time.Duration
	ProducerRequireAcks  int    // -1 = all, 0 = none, 1 = leader only
	ProducerCompression  string // none, gzip, snappy, lz4, zstd

	// DLQTopic receives notifications the broker rejected permanently.
	// Empty disables the dead letter writer.
	DLQTopic string

	EnableMiddleware bool
}

// Load reads the producer settings from the environment.
func Load() (*Config, error) {
	cfg := &Config{
		Brokers:              splitBrokers(envOr(EnvKafkaBrokers, DefaultKafkaBrokers)),
		ProducerMaxAttempts:  envInt(EnvKafkaProducerMaxAttempts, DefaultProducerMaxAttempts),
		ProducerBatchTimeout: envDuration(EnvKafkaProducerBatchTimeout, DefaultProducerBatchTimeout),
		ProducerRequireAcks:  envInt(EnvKafkaProducerRequireAcks, DefaultProducerRequireAcks),
		ProducerCompression:  strings.ToLower(envOr(EnvKafkaProducerCompression, DefaultProducerCompression)),
		DLQTopic:             DefaultDLQTopic,
		EnableMiddleware:     envBool(EnvKafkaEnableMiddleware, DefaultEnableMiddleware),
	}
	// An explicitly empty KAFKA_DLQ_TOPIC turns the dead letter writer off.
	if v, set := os.LookupEnv(EnvKafkaDLQTopic); set {
		cfg.DLQTopic = strings.TrimSpace(v)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (cfg *Config) Validate() error {
	var errs []error

	if len(cfg.Brokers) == 0 {
		errs = append(errs, errors.New("At least one Kafka broker is required"))
	}
	for i, broker := range cfg.Brokers {
		if broker == "" {
			errs = append(errs, fmt.Errorf("Broker %d cannot be empty", i))
		}
	}
	if cfg.ProducerMaxAttempts <= 0 {
		errs = append(errs, fmt.Errorf("ProducerMaxAttempts must be positive, got: %d", cfg.ProducerMaxAttempts))
	}
	if cfg.ProducerBatchTimeout <= 0 {
		errs = append(errs, fmt.Errorf("ProducerBatchTimeout must be positive, got: %s", cfg.ProducerBatchTimeout))
	}
	if _, err := cfg.Codec(); err != nil {
		errs = append(errs, err)
	}
	if _, err := cfg.Acks(); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return fmt.Errorf("kafka configuration validation failed: %w", errors.Join(errs...))
	}
	return nil
}

// Codec resolves ProducerCompression.
func (cfg *Config) Codec() (compress.Compression, error) {
	c, ok := codecs[cfg.ProducerCompression]
	if !ok {
		names := make([]string, 0, len(codecs))
		for name := range codecs {
			names = append(names, name)
		}
		sort.Strings(names)
		return 0, fmt.Errorf("ProducerCompression must be one of [%s], got: %s", strings.Join(names, ", "), cfg.ProducerCompression)
	}
	return c, nil
}

// Acks resolves ProducerRequireAcks.
func (cfg *Config) Acks() (kafka.RequiredAcks, error) {
	a, ok := acks[cfg.ProducerRequireAcks]
	if !ok {
		return 0, fmt.Errorf("ProducerRequireAcks must be -1, 0, or 1, got: %d", cfg.ProducerRequireAcks)
	}
	return a, nil
}

func (cfg *Config) LogConfiguration(logFunc func(msg string, keysAndValues ...any)) {
	if logFunc == nil {
		return
	}

	logFunc("Kafka configuration loaded successfully",
		"brokers", cfg.Brokers,
		"producer_max_attempts", cfg.ProducerMaxAttempts,
		"producer_batch_timeout", cfg.ProducerBatchTimeout,
		"producer_require_acks", cfg.ProducerRequireAcks,
		"producer_compression", cfg.ProducerCompression,
		"dlq_topic", cfg.DLQTopic,
		"enable_middleware", cfg.EnableMiddleware,
	)
}

func splitBrokers(raw string) []string {
	brokers := strings.Split(raw, ",")
	for i := range brokers {
		brokers[i] = strings.TrimSpace(brokers[i])
	}
	return brokers
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if n, err := strconv.Atoi(envOr(key, "")); err == nil {
		return n
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if b, err := strconv.ParseBool(envOr(key, "")); err == nil {
		return b
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if d, err := time.ParseDuration(envOr(key, "")); err == nil {
		return d
	}
	return fallback
}
