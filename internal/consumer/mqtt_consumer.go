package consumer

import (
	"context"
	"fmt"
	"strings"

	"medicore-monitor/internal/config"
	"medicore-monitor/internal/events"
	"medicore-monitor/internal/metrics"
	"medicore-monitor/internal/models"
	"medicore-monitor/internal/store"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"
)

// MQTTConsumer MQTT 遥测消费者
// 订阅 medicore/+/telemetry，设备ID取自主题的第二段
type MQTTConsumer struct {
	config *config.Config
	client mqtt.Client
	store  *store.PatientStore
	bus    *events.Bus
	logger *zap.Logger
}

// NewMQTTConsumer 创建MQTT消费者并连接代理
func NewMQTTConsumer(
	cfg *config.Config,
	patientStore *store.PatientStore,
	bus *events.Bus,
	logger *zap.Logger,
) (*MQTTConsumer, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.MQTT.Broker)
	opts.SetClientID(cfg.MQTT.ClientID)

	if cfg.MQTT.Username != "" {
		opts.SetUsername(cfg.MQTT.Username)
	}
	if cfg.MQTT.Password != "" {
		opts.SetPassword(cfg.MQTT.Password)
	}

	opts.SetAutoReconnect(true)
	opts.SetCleanSession(true)

	client := mqtt.NewClient(opts)

	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("failed to connect to MQTT broker: %w", token.Error())
	}

	return &MQTTConsumer{
		config: cfg,
		client: client,
		store:  patientStore,
		bus:    bus,
		logger: logger,
	}, nil
}

// Start 订阅遥测主题，直到上下文取消
func (c *MQTTConsumer) Start(ctx context.Context) error {
	topic := c.config.Ingest.MQTTTopic

	token := c.client.Subscribe(topic, 1, func(_ mqtt.Client, msg mqtt.Message) {
		if err := c.handleMessage(msg.Topic(), msg.Payload()); err != nil {
			metrics.IngestErrors.WithLabelValues("mqtt").Inc()
			c.logger.Error("Failed to handle MQTT message",
				zap.String("topic", msg.Topic()),
				zap.Error(err),
			)
		}
	})
	if token.Wait() && token.Error() != nil {
		return fmt.Errorf("failed to subscribe to topic %s: %w", topic, token.Error())
	}

	c.logger.Info("MQTT consumer started",
		zap.String("broker", c.config.MQTT.Broker),
		zap.String("topic", topic),
	)

	<-ctx.Done()
	c.client.Unsubscribe(topic)
	c.client.Disconnect(250)
	c.logger.Info("MQTT consumer stopped")
	return nil
}

// handleMessage 解析遥测载荷并写入状态仓库
func (c *MQTTConsumer) handleMessage(topic string, payload []byte) error {
	reading, err := models.ParseReading(payload)
	if err != nil {
		return fmt.Errorf("failed to parse reading: %w", err)
	}

	// 载荷未携带设备ID时回退到主题段：medicore/{device_id}/telemetry
	if reading.DeviceID == "" {
		parts := strings.Split(topic, "/")
		if len(parts) >= 2 {
			reading.DeviceID = parts[1]
		}
	}
	if reading.DeviceID == "" {
		return fmt.Errorf("cannot determine device_id from topic %s", topic)
	}

	c.store.Upsert(reading.DeviceID, reading)
	metrics.ReadingsIngested.WithLabelValues("mqtt").Inc()

	c.bus.Publish(events.EventSensorUpdate, map[string]any{
		"device_id": reading.DeviceID,
		"reading":   reading,
	})

	return nil
}
