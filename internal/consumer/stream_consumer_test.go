package consumer

import (
	"context"
	"testing"
	"time"

	"medicore-monitor/internal/config"
	"medicore-monitor/internal/events"
	"medicore-monitor/internal/store"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupStreamConsumer(t *testing.T) (*miniredis.Miniredis, *redis.Client, *StreamConsumer, *store.PatientStore, *events.Bus) {
	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})

	cfg := &config.Config{}
	cfg.Ingest.Stream = "medicore:readings:stream"
	cfg.Ingest.ConsumerGroup = "medicore-monitor"
	cfg.Ingest.ConsumerName = "monitor-test"
	cfg.Ingest.BatchSize = 50
	cfg.Ingest.PollIntervalSeconds = 1

	bus := events.NewBus(32, zap.NewNop())
	patientStore := store.NewPatientStore(100)
	consumer := NewStreamConsumer(cfg, redisClient, patientStore, bus, zap.NewNop())

	return mr, redisClient, consumer, patientStore, bus
}

func addReading(t *testing.T, mr *miniredis.Miniredis, payload string) {
	t.Helper()
	_, err := mr.XAdd("medicore:readings:stream", "*", []string{"data", payload})
	require.NoError(t, err)
}

func TestStreamConsumer_IngestsReadings(t *testing.T) {
	mr, redisClient, consumer, patientStore, bus := setupStreamConsumer(t)

	ch, cancel := bus.Subscribe()
	defer cancel()

	addReading(t, mr, `{"device_id": "dev-001", "HR": 72, "Blood_oxygen": 97, "Posture_state": 1, "Area": 7}`)
	addReading(t, mr, `{"device_id": "dev-001", "HR": 75, "Blood_oxygen": 96, "Posture_state": 2, "Area": 5}`)

	ctx := context.Background()
	require.NoError(t, createConsumerGroup(ctx, redisClient, "medicore:readings:stream", "medicore-monitor"))
	require.NoError(t, consumer.consumeOnce(ctx))

	snapshot, err := patientStore.Snapshot("dev-001")
	require.NoError(t, err)
	require.Len(t, snapshot, 2)
	assert.Equal(t, 72, snapshot[0].HR)
	assert.Equal(t, 75, snapshot[1].HR)

	// sensor_update event published per reading
	assert.Equal(t, events.EventSensorUpdate, (<-ch).Name)
	assert.Equal(t, events.EventSensorUpdate, (<-ch).Name)
}

func TestStreamConsumer_BadMessageDoesNotBlockBatch(t *testing.T) {
	mr, redisClient, consumer, patientStore, _ := setupStreamConsumer(t)

	addReading(t, mr, `not json at all`)
	addReading(t, mr, `{"HR": 70}`) // 没有设备ID
	addReading(t, mr, `{"device_id": "dev-002", "HR": 80}`)

	ctx := context.Background()
	require.NoError(t, createConsumerGroup(ctx, redisClient, "medicore:readings:stream", "medicore-monitor"))
	require.NoError(t, consumer.consumeOnce(ctx))

	// 坏消息被跳过，好消息正常入库
	snapshot, err := patientStore.Snapshot("dev-002")
	require.NoError(t, err)
	assert.Len(t, snapshot, 1)
	assert.Len(t, patientStore.DeviceIDs(), 1)
}

func TestStreamConsumer_ResumesFromGroupCursor(t *testing.T) {
	mr, redisClient, consumer, patientStore, _ := setupStreamConsumer(t)

	ctx := context.Background()
	require.NoError(t, createConsumerGroup(ctx, redisClient, "medicore:readings:stream", "medicore-monitor"))

	addReading(t, mr, `{"device_id": "dev-003", "HR": 70}`)
	require.NoError(t, consumer.consumeOnce(ctx))

	// 第二批只消费新消息，不重放已确认的
	addReading(t, mr, `{"device_id": "dev-003", "HR": 71}`)
	require.NoError(t, consumer.consumeOnce(ctx))

	snapshot, err := patientStore.Snapshot("dev-003")
	require.NoError(t, err)
	require.Len(t, snapshot, 2)
	assert.Equal(t, 70, snapshot[0].HR)
	assert.Equal(t, 71, snapshot[1].HR)
}

func TestStreamConsumer_StartStopsOnContextCancel(t *testing.T) {
	_, _, consumer, _, _ := setupStreamConsumer(t)

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- consumer.Start(ctx)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("consumer did not stop after context cancellation")
	}
}

func TestCreateConsumerGroup_Idempotent(t *testing.T) {
	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	ctx := context.Background()
	require.NoError(t, createConsumerGroup(ctx, redisClient, "some:stream", "group"))
	// 重复创建不报错
	require.NoError(t, createConsumerGroup(ctx, redisClient, "some:stream", "group"))
}
