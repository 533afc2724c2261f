package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultValues(t *testing.T) {
	// 清除环境变量
	os.Clearenv()

	cfg, err := Load()
	require.NoError(t, err)
	assert.NotNil(t, cfg)

	// 验证默认值
	assert.Equal(t, 100, cfg.Analysis.HistoryWindow)
	assert.Equal(t, 45, cfg.Analysis.HRLow)
	assert.Equal(t, 110, cfg.Analysis.HRHigh)
	assert.Equal(t, 90, cfg.Analysis.HypoxiaThreshold)
	assert.True(t, cfg.Analysis.AutoAlertEnabled)
	assert.Equal(t, 10, cfg.Analysis.IntervalSeconds)
	assert.Equal(t, 100, cfg.Analysis.ActivityLogSize)
	assert.Equal(t, 100, cfg.Analysis.AlertLogSize)

	assert.Equal(t, 1, cfg.Ingest.PollIntervalSeconds)
	assert.Equal(t, int64(50), cfg.Ingest.BatchSize)
	assert.Equal(t, "medicore:readings:stream", cfg.Ingest.Stream)
	assert.Equal(t, "medicore-monitor", cfg.Ingest.ConsumerGroup)
	assert.Equal(t, "medicore/+/telemetry", cfg.Ingest.MQTTTopic)

	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, "", cfg.Redis.Password)
	assert.Equal(t, 0, cfg.Redis.DB)

	assert.Equal(t, "", cfg.MQTT.Broker)
	assert.Equal(t, "", cfg.Database.Host)
	assert.Equal(t, 5432, cfg.Database.Port)

	assert.False(t, cfg.Summary.Enabled)
	assert.Equal(t, 25, cfg.Summary.TimeoutSeconds)

	assert.Equal(t, ":7000", cfg.HTTP.Addr)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoad_EnvironmentVariables(t *testing.T) {
	// 设置环境变量
	os.Setenv("HISTORY_WINDOW", "50")
	os.Setenv("HR_LOW", "40")
	os.Setenv("HR_HIGH", "120")
	os.Setenv("AUTO_ALERT_ENABLED", "false")
	os.Setenv("ANALYSIS_INTERVAL", "5")
	os.Setenv("REDIS_ADDR", "test-redis:6380")
	os.Setenv("MQTT_BROKER", "tcp://test-broker:1883")
	os.Setenv("DB_HOST", "test-host")
	os.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)
	assert.NotNil(t, cfg)

	// 验证环境变量覆盖
	assert.Equal(t, 50, cfg.Analysis.HistoryWindow)
	assert.Equal(t, 40, cfg.Analysis.HRLow)
	assert.Equal(t, 120, cfg.Analysis.HRHigh)
	assert.False(t, cfg.Analysis.AutoAlertEnabled)
	assert.Equal(t, 5, cfg.Analysis.IntervalSeconds)
	assert.Equal(t, "test-redis:6380", cfg.Redis.Addr)
	assert.Equal(t, "tcp://test-broker:1883", cfg.MQTT.Broker)
	assert.Equal(t, "test-host", cfg.Database.Host)
	assert.Equal(t, "debug", cfg.Log.Level)

	// 清理环境变量
	os.Clearenv()
}

func TestGetEnvInt_InvalidValue(t *testing.T) {
	os.Setenv("TEST_INT_KEY", "not-a-number")
	defer os.Unsetenv("TEST_INT_KEY")

	value := getEnvInt("TEST_INT_KEY", 42)
	assert.Equal(t, 42, value)
}

func TestGetEnvBool(t *testing.T) {
	os.Clearenv()
	assert.True(t, getEnvBool("TEST_BOOL_KEY", true))

	os.Setenv("TEST_BOOL_KEY", "false")
	assert.False(t, getEnvBool("TEST_BOOL_KEY", true))
	os.Unsetenv("TEST_BOOL_KEY")
}
