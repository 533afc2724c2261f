package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"medicore-monitor/internal/alert"
	"medicore-monitor/internal/analyzer"
	"medicore-monitor/internal/config"
	"medicore-monitor/internal/consumer"
	"medicore-monitor/internal/coordinator"
	"medicore-monitor/internal/events"
	"medicore-monitor/internal/httpapi"
	"medicore-monitor/internal/monitor"
	"medicore-monitor/internal/predictor"
	"medicore-monitor/internal/repository"
	"medicore-monitor/internal/scheduler"
	"medicore-monitor/internal/store"
	"medicore-monitor/internal/summary"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	_ "github.com/lib/pq"
)

// MonitorService 监护服务（整合各层）
type MonitorService struct {
	config      *config.Config
	db          *sql.DB // 可为 nil（未配置数据库时）
	redisClient *redis.Client
	logger      *zap.Logger

	// 各层组件
	patientStore   *store.PatientStore
	activityLog    *store.ActivityLog
	alertLog       *store.AlertLog
	bus            *events.Bus
	coordinator    *coordinator.Coordinator
	scheduler      *scheduler.Scheduler
	streamConsumer *consumer.StreamConsumer
	mqttConsumer   *consumer.MQTTConsumer // 可为 nil（未配置 MQTT 时）
	httpServer     *httpapi.Server
}

// NewMonitorService 创建监护服务
func NewMonitorService(cfg *config.Config, logger *zap.Logger) (*MonitorService, error) {
	// 1. 连接 Redis（读数接入必需）
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx := context.Background()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	// 2. 连接数据库（可选：报警持久化）
	var db *sql.DB
	var persister coordinator.AlertPersister
	if cfg.Database.Host != "" {
		var err error
		db, err = sql.Open("postgres", buildDSN(cfg))
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		if err := db.Ping(); err != nil {
			return nil, fmt.Errorf("failed to ping database: %w", err)
		}
		persister = repository.NewAlertsRepository(db, logger)
	}

	// 3. 内存状态层
	bus := events.NewBus(64, logger)
	patientStore := store.NewPatientStore(cfg.Analysis.HistoryWindow)
	activityLog := store.NewActivityLog(cfg.Analysis.ActivityLogSize, bus, logger)
	alertLog := store.NewAlertLog(cfg.Analysis.AlertLogSize)

	// 4. 分析阶段
	var summarizer coordinator.Summarizer
	if cfg.Summary.Enabled {
		summarizer = summary.NewClient(cfg, logger)
	}

	coord := coordinator.NewCoordinator(
		cfg,
		patientStore,
		activityLog,
		alertLog,
		bus,
		monitor.NewMonitor(cfg),
		analyzer.NewAnalyzer(cfg),
		predictor.NewPredictor(),
		alert.NewComposer(),
		persister,
		summarizer,
		logger,
	)

	sched := scheduler.NewScheduler(cfg, patientStore, coord, logger)

	// 5. 数据接入
	streamConsumer := consumer.NewStreamConsumer(cfg, redisClient, patientStore, bus, logger)

	var mqttConsumer *consumer.MQTTConsumer
	if cfg.MQTT.Broker != "" {
		var err error
		mqttConsumer, err = consumer.NewMQTTConsumer(cfg, patientStore, bus, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create mqtt consumer: %w", err)
		}
	}

	// 6. HTTP API
	router := httpapi.NewRouter(logger)
	router.RegisterMonitorRoutes(
		httpapi.NewMonitorHandler(patientStore, activityLog, alertLog, coord, logger),
		httpapi.NewWebSocketHandler(bus, logger),
	)
	httpServer := httpapi.NewServer(cfg.HTTP.Addr, router, logger)

	return &MonitorService{
		config:         cfg,
		db:             db,
		redisClient:    redisClient,
		logger:         logger,
		patientStore:   patientStore,
		activityLog:    activityLog,
		alertLog:       alertLog,
		bus:            bus,
		coordinator:    coord,
		scheduler:      sched,
		streamConsumer: streamConsumer,
		mqttConsumer:   mqttConsumer,
		httpServer:     httpServer,
	}, nil
}

// Start 启动所有组件，阻塞直到上下文取消或某个组件失败
func (s *MonitorService) Start(ctx context.Context) error {
	s.logger.Info("Starting monitor service")

	errChan := make(chan error, 4)

	go func() {
		if err := s.streamConsumer.Start(ctx); err != nil {
			errChan <- fmt.Errorf("stream consumer: %w", err)
		}
	}()

	if s.mqttConsumer != nil {
		go func() {
			if err := s.mqttConsumer.Start(ctx); err != nil {
				errChan <- fmt.Errorf("mqtt consumer: %w", err)
			}
		}()
	}

	go func() {
		if err := s.scheduler.Start(ctx); err != nil {
			errChan <- fmt.Errorf("scheduler: %w", err)
		}
	}()

	go func() {
		if err := s.httpServer.Start(); err != nil {
			errChan <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		return nil
	case err := <-errChan:
		return err
	}
}

// Stop 停止服务并释放连接
func (s *MonitorService) Stop() error {
	s.logger.Info("Stopping monitor service")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.httpServer.Stop(shutdownCtx); err != nil {
		s.logger.Error("Failed to stop http server",
			zap.Error(err),
		)
	}

	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.logger.Error("Failed to close database",
				zap.Error(err),
			)
		}
	}

	if err := s.redisClient.Close(); err != nil {
		s.logger.Error("Failed to close redis",
			zap.Error(err),
		)
	}

	return nil
}

// buildDSN 构建数据库连接字符串
func buildDSN(cfg *config.Config) string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Database.Host,
		cfg.Database.Port,
		cfg.Database.User,
		cfg.Database.Password,
		cfg.Database.Database,
		cfg.Database.SSLMode,
	)
}
