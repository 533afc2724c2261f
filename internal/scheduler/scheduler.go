package scheduler

import (
	"context"
	"fmt"
	"time"

	"medicore-monitor/internal/config"
	"medicore-monitor/internal/coordinator"
	"medicore-monitor/internal/metrics"
	"medicore-monitor/internal/store"

	"go.uber.org/zap"
)

// Analyzer 单设备分析接口（由 coordinator.Coordinator 实现）
type Analyzer interface {
	Analyze(ctx context.Context, deviceID string) (*coordinator.Result, error)
}

// Scheduler 周期性驱动所有已知设备的分析
// 单设备失败被隔离：不会中断本轮 tick，也不会终止循环
type Scheduler struct {
	config   *config.Config
	store    *store.PatientStore
	analyzer Analyzer
	interval time.Duration
	logger   *zap.Logger
}

// NewScheduler 创建调度器
func NewScheduler(cfg *config.Config, patientStore *store.PatientStore, analyzer Analyzer, logger *zap.Logger) *Scheduler {
	interval := time.Duration(cfg.Analysis.IntervalSeconds) * time.Second
	if interval <= 0 {
		interval = 10 * time.Second
	}
	return &Scheduler{
		config:   cfg,
		store:    patientStore,
		analyzer: analyzer,
		interval: interval,
		logger:   logger,
	}
}

// Start 启动调度循环，直到上下文取消
func (s *Scheduler) Start(ctx context.Context) error {
	s.logger.Info("Scheduler started",
		zap.Duration("interval", s.interval),
	)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	// 立即执行一次
	s.Tick(ctx)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Scheduler stopped")
			return nil
		case <-ticker.C:
			s.Tick(ctx)
		}
	}
}

// Tick 对当前已知的所有设备各执行一次分析
func (s *Scheduler) Tick(ctx context.Context) {
	deviceIDs := s.store.DeviceIDs()
	metrics.AnalysisTicks.Inc()
	metrics.TrackedDevices.Set(float64(len(deviceIDs)))

	for _, deviceID := range deviceIDs {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if err := s.analyzeDevice(ctx, deviceID); err != nil {
			s.logger.Error("Failed to analyze device",
				zap.String("device_id", deviceID),
				zap.Error(err),
			)
			// 继续处理下一个设备，不中断
		}
	}
}

// analyzeDevice 分析单个设备（panic 安全）
func (s *Scheduler) analyzeDevice(ctx context.Context, deviceID string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("analysis panicked: %v", r)
		}
	}()

	result, err := s.analyzer.Analyze(ctx, deviceID)
	if err != nil {
		return err
	}

	if result.Alert != nil {
		s.logger.Info("Alert raised during scheduled analysis",
			zap.String("device_id", deviceID),
			zap.String("severity", result.Alert.Severity.String()),
		)
	}
	return nil
}
