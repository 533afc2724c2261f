package consumer

import (
	"context"
	"fmt"
	"time"

	"medicore-monitor/internal/config"
	"medicore-monitor/internal/events"
	"medicore-monitor/internal/metrics"
	"medicore-monitor/internal/models"
	"medicore-monitor/internal/store"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// StreamConsumer Redis Streams 读数消费者
// 通过消费者组维护断点续读游标：重启后不会重新处理整个流
type StreamConsumer struct {
	config      *config.Config
	redisClient *redis.Client
	store       *store.PatientStore
	bus         *events.Bus
	logger      *zap.Logger
}

// NewStreamConsumer 创建 Streams 消费者
func NewStreamConsumer(
	cfg *config.Config,
	redisClient *redis.Client,
	patientStore *store.PatientStore,
	bus *events.Bus,
	logger *zap.Logger,
) *StreamConsumer {
	return &StreamConsumer{
		config:      cfg,
		redisClient: redisClient,
		store:       patientStore,
		bus:         bus,
		logger:      logger,
	}
}

// Start 启动消费循环，直到上下文取消
func (c *StreamConsumer) Start(ctx context.Context) error {
	stream := c.config.Ingest.Stream
	group := c.config.Ingest.ConsumerGroup

	if err := createConsumerGroup(ctx, c.redisClient, stream, group); err != nil {
		return fmt.Errorf("failed to create consumer group for %s: %w", stream, err)
	}

	c.logger.Info("Stream consumer started",
		zap.String("stream", stream),
		zap.String("consumer_group", group),
		zap.String("consumer_name", c.config.Ingest.ConsumerName),
	)

	backoffDuration := time.Second
	maxBackoff := 30 * time.Second

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("Stream consumer stopped")
			return nil
		default:
			if err := c.consumeOnce(ctx); err != nil {
				c.logger.Error("Failed to consume stream",
					zap.Error(err),
					zap.Duration("backoff", backoffDuration),
				)
				// 指数退避后重试
				select {
				case <-ctx.Done():
					return nil
				case <-time.After(backoffDuration):
					backoffDuration *= 2
					if backoffDuration > maxBackoff {
						backoffDuration = maxBackoff
					}
				}
			} else {
				backoffDuration = time.Second
			}
		}
	}
}

// consumeOnce 读取并处理一批消息
func (c *StreamConsumer) consumeOnce(ctx context.Context) error {
	block := time.Duration(c.config.Ingest.PollIntervalSeconds) * time.Second
	if block <= 0 {
		block = time.Second
	}

	messages, err := readFromStream(
		ctx,
		c.redisClient,
		c.config.Ingest.Stream,
		c.config.Ingest.ConsumerGroup,
		c.config.Ingest.ConsumerName,
		c.config.Ingest.BatchSize,
		block,
	)
	if err != nil {
		if err == context.Canceled || ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("failed to read from stream: %w", err)
	}

	for _, msg := range messages {
		if err := c.processMessage(msg); err != nil {
			metrics.IngestErrors.WithLabelValues("stream").Inc()
			c.logger.Error("Failed to process message",
				zap.String("message_id", msg.ID),
				zap.Error(err),
			)
			// 继续处理下一条消息，不中断
		}
		// 无论成败都确认，避免毒消息无限重投
		if err := c.redisClient.XAck(ctx, c.config.Ingest.Stream, c.config.Ingest.ConsumerGroup, msg.ID).Err(); err != nil {
			c.logger.Warn("Failed to ack message",
				zap.String("message_id", msg.ID),
				zap.Error(err),
			)
		}
	}

	return nil
}

// processMessage 解析单条消息并写入状态仓库
func (c *StreamConsumer) processMessage(msg StreamMessage) error {
	raw, ok := msg.Values["data"].(string)
	if !ok {
		return fmt.Errorf("message %s has no data field", msg.ID)
	}

	reading, err := models.ParseReading([]byte(raw))
	if err != nil {
		return fmt.Errorf("failed to parse reading: %w", err)
	}
	if reading.DeviceID == "" {
		return fmt.Errorf("message %s has no device_id", msg.ID)
	}

	c.store.Upsert(reading.DeviceID, reading)
	metrics.ReadingsIngested.WithLabelValues("stream").Inc()

	c.bus.Publish(events.EventSensorUpdate, map[string]any{
		"device_id": reading.DeviceID,
		"reading":   reading,
	})

	c.logger.Debug("Reading ingested",
		zap.String("device_id", reading.DeviceID),
		zap.String("message_id", msg.ID),
	)

	return nil
}
