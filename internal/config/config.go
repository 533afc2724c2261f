package config

import (
	"os"
	"strconv"
)

// Config 监护服务配置
type Config struct {
	// 分析流水线配置
	Analysis struct {
		HistoryWindow    int  // 每设备历史窗口容量，默认 100
		HRLow            int  // 心动过缓阈值，默认 45
		HRHigh           int  // 心动过速阈值，默认 110
		HypoxiaThreshold int  // 低血氧阈值，默认 90
		AutoAlertEnabled bool // 是否自动生成报警，默认 true
		IntervalSeconds  int  // 调度器分析间隔（秒），默认 10
		ActivityLogSize  int  // 活动日志环形缓冲容量，默认 100
		AlertLogSize     int  // 报警日志环形缓冲容量，默认 100
	}

	// 数据接入配置
	Ingest struct {
		PollIntervalSeconds int    // 轮询间隔（秒），默认 1
		BatchSize           int64  // 每次读取的消息数，默认 50
		Stream              string // Redis Stream 名称
		ConsumerGroup       string // 消费者组（断点续读游标）
		ConsumerName        string // 消费者名称
		MQTTTopic           string // MQTT 订阅主题（含设备ID通配符）
	}

	Redis struct {
		Addr     string
		Password string
		DB       int
	}

	MQTT struct {
		Broker   string // 为空时不启用 MQTT 接入
		ClientID string
		Username string
		Password string
	}

	Database struct {
		Host     string // 为空时不启用报警持久化
		Port     int
		User     string
		Password string
		Database string
		SSLMode  string
	}

	// LLM 摘要配置
	Summary struct {
		Enabled        bool
		BaseURL        string
		Model          string
		TimeoutSeconds int
	}

	HTTP struct {
		Addr string
	}

	Log struct {
		Level  string
		Format string
	}
}

// Load 从环境变量加载配置（带默认值）
func Load() (*Config, error) {
	cfg := &Config{}

	cfg.Analysis.HistoryWindow = getEnvInt("HISTORY_WINDOW", 100)
	cfg.Analysis.HRLow = getEnvInt("HR_LOW", 45)
	cfg.Analysis.HRHigh = getEnvInt("HR_HIGH", 110)
	cfg.Analysis.HypoxiaThreshold = getEnvInt("HYPOXIA_THRESHOLD", 90)
	cfg.Analysis.AutoAlertEnabled = getEnvBool("AUTO_ALERT_ENABLED", true)
	cfg.Analysis.IntervalSeconds = getEnvInt("ANALYSIS_INTERVAL", 10)
	cfg.Analysis.ActivityLogSize = getEnvInt("ACTIVITY_LOG_CAPACITY", 100)
	cfg.Analysis.AlertLogSize = getEnvInt("ALERT_LOG_CAPACITY", 100)

	cfg.Ingest.PollIntervalSeconds = getEnvInt("INGEST_POLL_INTERVAL", 1)
	cfg.Ingest.BatchSize = int64(getEnvInt("INGEST_BATCH_SIZE", 50))
	cfg.Ingest.Stream = getEnv("INGEST_STREAM", "medicore:readings:stream")
	cfg.Ingest.ConsumerGroup = getEnv("INGEST_CONSUMER_GROUP", "medicore-monitor")
	cfg.Ingest.ConsumerName = getEnv("INGEST_CONSUMER_NAME", "monitor-1")
	cfg.Ingest.MQTTTopic = getEnv("INGEST_MQTT_TOPIC", "medicore/+/telemetry")

	cfg.Redis.Addr = getEnv("REDIS_ADDR", "localhost:6379")
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", "")
	cfg.Redis.DB = getEnvInt("REDIS_DB", 0)

	cfg.MQTT.Broker = getEnv("MQTT_BROKER", "")
	cfg.MQTT.ClientID = getEnv("MQTT_CLIENT_ID", "medicore-monitor")
	cfg.MQTT.Username = getEnv("MQTT_USERNAME", "")
	cfg.MQTT.Password = getEnv("MQTT_PASSWORD", "")

	cfg.Database.Host = getEnv("DB_HOST", "")
	cfg.Database.Port = getEnvInt("DB_PORT", 5432)
	cfg.Database.User = getEnv("DB_USER", "postgres")
	cfg.Database.Password = getEnv("DB_PASSWORD", "postgres")
	cfg.Database.Database = getEnv("DB_NAME", "medicore")
	cfg.Database.SSLMode = getEnv("DB_SSLMODE", "disable")

	cfg.Summary.Enabled = getEnvBool("SUMMARY_ENABLED", false)
	cfg.Summary.BaseURL = getEnv("SUMMARY_BASE_URL", "http://localhost:11434")
	cfg.Summary.Model = getEnv("SUMMARY_MODEL", "lfm2.5-thinking:1.2b")
	cfg.Summary.TimeoutSeconds = getEnvInt("SUMMARY_TIMEOUT", 25)

	cfg.HTTP.Addr = getEnv("HTTP_ADDR", ":7000")

	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "json")

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
