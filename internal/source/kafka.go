package source

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/sanspareilsmyn/timerlens/internal/config"
)

type kafkaZapLogger struct {
	log *zap.Logger
}

func (l kafkaZapLogger) Printf(msg string, args ...interface{}) {
	l.log.Debug(fmt.Sprintf(msg, args...))
}

type kafkaZapErrorLogger struct {
	log *zap.Logger
}

func (l kafkaZapErrorLogger) Printf(msg string, args ...interface{}) {
	l.log.Error(fmt.Sprintf(msg, args...))
}

// KafkaSource collects timer records published on a Kafka topic. Reading
// stops once the topic has been idle for IdleTimeout or MaxMessages values
// have been read; the values are joined by newlines into one stream.
type KafkaSource struct {
	reader *kafka.Reader
	cfg    config.KafkaConfig
	logger *zap.Logger
}

// NewKafkaSource creates and configures a Kafka-backed source.
func NewKafkaSource(cfg config.KafkaConfig, logger *zap.Logger) (*KafkaSource, error) {
	if len(cfg.Brokers) == 0 || cfg.Topic == "" || cfg.GroupID == "" || cfg.IdleTimeout <= 0 {
		logger.Error("Kafka configuration validation failed",
			zap.Strings("brokers", cfg.Brokers),
			zap.String("topic", cfg.Topic),
			zap.String("group_id", cfg.GroupID),
			zap.Duration("idle_timeout", cfg.IdleTimeout),
		)
		return nil, ErrInvalidKafkaConfig
	}

	readerCfg := kafka.ReaderConfig{
		Brokers:     cfg.Brokers,
		GroupID:     cfg.GroupID,
		Topic:       cfg.Topic,
		Logger:      kafkaZapLogger{logger.Named("kafka-reader")},
		ErrorLogger: kafkaZapErrorLogger{logger.Named("kafka-reader-error")},
	}
	r := kafka.NewReader(readerCfg)

	logger.Info("Kafka source created",
		zap.String("topic", cfg.Topic),
		zap.String("group_id", cfg.GroupID),
		zap.Strings("brokers", cfg.Brokers),
		zap.Int("max_messages", cfg.MaxMessages),
		zap.Duration("idle_timeout", cfg.IdleTimeout),
	)

	return &KafkaSource{
		reader: r,
		cfg:    cfg,
		logger: logger,
	}, nil
}

// Name identifies the source in logs and run history.
func (k *KafkaSource) Name() string {
	return "kafka:" + k.cfg.Topic
}

// Read drains the topic and closes the reader. It blocks until the topic goes
// idle, the message limit is hit, or ctx is cancelled.
func (k *KafkaSource) Read(ctx context.Context) (string, error) {
	defer func() {
		if err := k.reader.Close(); err != nil {
			k.logger.Error("Failed to close Kafka reader cleanly", zap.Error(err))
		}
	}()

	var b strings.Builder
	read := 0
	for k.cfg.MaxMessages == 0 || read < k.cfg.MaxMessages {
		fetchCtx, cancel := context.WithTimeout(ctx, k.cfg.IdleTimeout)
		m, err := k.reader.ReadMessage(fetchCtx)
		cancel()
		if err != nil {
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			if errors.Is(err, context.DeadlineExceeded) {
				k.logger.Debug("Kafka topic idle, stopping read", zap.Int("messages", read))
				break
			}
			k.logger.Error("Error reading message from Kafka", zap.Error(err))
			return "", fmt.Errorf("%w: %w", ErrKafkaFetchFailed, err)
		}
		b.Write(m.Value)
		b.WriteByte('\n')
		read++
	}

	k.logger.Info("Kafka source drained", zap.Int("messages", read), zap.Int("bytes", b.Len()))
	return b.String(), nil
}
