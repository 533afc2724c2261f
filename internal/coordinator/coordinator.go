package coordinator

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"medicore-monitor/internal/analyzer"
	"medicore-monitor/internal/config"
	"medicore-monitor/internal/events"
	"medicore-monitor/internal/metrics"
	"medicore-monitor/internal/models"
	"medicore-monitor/internal/monitor"
	"medicore-monitor/internal/predictor"
	"medicore-monitor/internal/store"
	"medicore-monitor/internal/summary"

	"go.uber.org/zap"
)

// 阶段名称（活动日志用）
const (
	StageCoordinator = "Coordinator"
	StageMonitor     = "Monitor"
	StageAnalyzer    = "Analyzer"
	StagePredictor   = "Predictor"
	StageAlert       = "Alert"
)

// AnomalyDetector 异常检测阶段接口
type AnomalyDetector interface {
	Analyze(deviceID string, history []models.Reading) monitor.Result
}

// PatternAnalyzer 模式分析阶段接口
type PatternAnalyzer interface {
	Analyze(history []models.Reading) analyzer.Result
}

// RiskPredictor 风险预测阶段接口
type RiskPredictor interface {
	Predict(history []models.Reading) predictor.Result
}

// AlertComposer 报警组装阶段接口
type AlertComposer interface {
	Compose(report *models.AnomalyReport) models.Alert
}

// AlertPersister 报警持久化接口（可选协作方）
type AlertPersister interface {
	InsertAlert(ctx context.Context, alert *models.Alert) error
}

// Summarizer LLM 摘要接口（可选协作方）
type Summarizer interface {
	Summarize(ctx context.Context, analysisContext string) string
}

// Result 一次完整分析的聚合结果
type Result struct {
	Timestamp   time.Time        `json:"timestamp"`
	DeviceID    string           `json:"device_id"`
	Monitoring  monitor.Result   `json:"monitoring"`
	Patterns    analyzer.Result  `json:"patterns"`
	Prediction  predictor.Result `json:"prediction"`
	OverallRisk float64          `json:"overall_risk"`
	Alert       *models.Alert    `json:"alert,omitempty"`
}

// Coordinator 单设备分析编排器
// 阶段失败在本层捕获并降级为"数据不足"语义，绝不向调用方抛出
type Coordinator struct {
	config      *config.Config
	store       *store.PatientStore
	activityLog *store.ActivityLog
	alertLog    *store.AlertLog
	bus         *events.Bus
	detector    AnomalyDetector
	analyzer    PatternAnalyzer
	predictor   RiskPredictor
	composer    AlertComposer
	persister   AlertPersister // 可为 nil
	summarizer  Summarizer     // 可为 nil
	logger      *zap.Logger
}

// NewCoordinator 创建编排器
func NewCoordinator(
	cfg *config.Config,
	patientStore *store.PatientStore,
	activityLog *store.ActivityLog,
	alertLog *store.AlertLog,
	bus *events.Bus,
	detector AnomalyDetector,
	patternAnalyzer PatternAnalyzer,
	riskPredictor RiskPredictor,
	composer AlertComposer,
	persister AlertPersister,
	summarizer Summarizer,
	logger *zap.Logger,
) *Coordinator {
	return &Coordinator{
		config:      cfg,
		store:       patientStore,
		activityLog: activityLog,
		alertLog:    alertLog,
		bus:         bus,
		detector:    detector,
		analyzer:    patternAnalyzer,
		predictor:   riskPredictor,
		composer:    composer,
		persister:   persister,
		summarizer:  summarizer,
		logger:      logger,
	}
}

// Analyze 对单个设备执行完整分析
// 返回 store.ErrDeviceNotFound 表示设备没有任何状态
func (c *Coordinator) Analyze(ctx context.Context, deviceID string) (*Result, error) {
	snapshot, err := c.store.Snapshot(deviceID)
	if err != nil {
		c.activityLog.Add(StageCoordinator, "Patient state not found", deviceID,
			models.StatusError, "No data available for this device", nil)
		return nil, err
	}

	c.activityLog.Add(StageCoordinator, "Starting coordinated analysis", deviceID,
		models.StatusRunning, fmt.Sprintf("Analyzing %d data points", len(snapshot)), nil)

	result := &Result{
		Timestamp: time.Now(),
		DeviceID:  deviceID,
	}

	result.Monitoring = c.runMonitor(deviceID, snapshot)
	result.Patterns = c.runAnalyzer(deviceID, snapshot)
	result.Prediction = c.runPredictor(deviceID, snapshot)

	// 模式分析产生风险评分时写回状态仓库
	if result.Patterns.Summary != nil {
		if err := c.store.SetRisk(deviceID, result.Patterns.Summary.RiskAssessment); err != nil {
			c.logger.Warn("Failed to write back risk score",
				zap.String("device_id", deviceID),
				zap.Error(err),
			)
		}
		if err := c.store.SetPatterns(deviceID, result.Patterns.Summary); err != nil {
			c.logger.Warn("Failed to write back patterns",
				zap.String("device_id", deviceID),
				zap.Error(err),
			)
		}
		result.OverallRisk = result.Patterns.Summary.RiskAssessment
	} else if view, err := c.store.Get(deviceID); err == nil {
		result.OverallRisk = view.RiskScore
	}

	// 检测到异常且启用自动报警时生成报警
	if result.Monitoring.Status == monitor.StatusAnomaly && c.config.Analysis.AutoAlertEnabled {
		result.Alert = c.raiseAlert(ctx, result.Monitoring.Report)
	}

	c.activityLog.Add(StageCoordinator, "Coordination completed", deviceID,
		models.StatusSuccess, fmt.Sprintf("All stages executed, risk=%.2f", result.OverallRisk), nil)

	return result, nil
}

// runMonitor 执行异常检测阶段（panic 安全）
func (c *Coordinator) runMonitor(deviceID string, snapshot []models.Reading) (res monitor.Result) {
	defer c.recoverStage(StageMonitor, deviceID, func() {
		res = monitor.Result{Status: monitor.StatusInsufficient}
	})

	res = c.detector.Analyze(deviceID, snapshot)

	switch res.Status {
	case monitor.StatusInsufficient:
		c.activityLog.Add(StageMonitor, "Waiting for sufficient data", deviceID,
			models.StatusWarning,
			fmt.Sprintf("Have %d data points, need %d more", len(snapshot), res.Needed), nil)
	case monitor.StatusNoAnomaly:
		latest := snapshot[len(snapshot)-1]
		c.activityLog.Add(StageMonitor, "All vitals normal", deviceID,
			models.StatusSuccess,
			fmt.Sprintf("HR: %d bpm | SpO2: %d%% | Posture: %s | Area: %s",
				latest.HR, latest.SpO2, latest.PostureLabel(), latest.AreaLabel()),
			nil)
	case monitor.StatusAnomaly:
		status := models.StatusWarning
		if res.Report.Severity == models.SeverityCritical {
			status = models.StatusError
		}
		c.activityLog.Add(StageMonitor,
			fmt.Sprintf("%s: %d anomalies detected", res.Report.Severity, len(res.Report.Anomalies)),
			deviceID, status, res.Report.AnomalyText(),
			map[string]any{
				"severity":  res.Report.Severity.String(),
				"anomalies": res.Report.Anomalies,
				"snapshot":  res.Report.Snapshot,
			})
	}
	return res
}

// runAnalyzer 执行模式分析阶段（panic 安全）
func (c *Coordinator) runAnalyzer(deviceID string, snapshot []models.Reading) (res analyzer.Result) {
	defer c.recoverStage(StageAnalyzer, deviceID, func() {
		res = analyzer.Result{Insufficient: true}
	})

	res = c.analyzer.Analyze(snapshot)

	if res.Insufficient {
		c.activityLog.Add(StageAnalyzer, "Insufficient data for patterns", deviceID,
			models.StatusWarning,
			fmt.Sprintf("Need %d more data points", res.Needed), nil)
	} else {
		topActivity := "Unknown"
		if len(res.Summary.ActivityDistribution) > 0 {
			topActivity = res.Summary.ActivityDistribution[0].Label
		}
		c.activityLog.Add(StageAnalyzer, "Pattern analysis completed", deviceID,
			models.StatusSuccess,
			fmt.Sprintf("Risk=%.2f | Top activity=%s", res.Summary.RiskAssessment, topActivity),
			map[string]any{"patterns": res.Summary})
	}
	return res
}

// runPredictor 执行风险预测阶段（panic 安全）
func (c *Coordinator) runPredictor(deviceID string, snapshot []models.Reading) (res predictor.Result) {
	defer c.recoverStage(StagePredictor, deviceID, func() {
		res = predictor.Result{Insufficient: true}
	})

	res = c.predictor.Predict(snapshot)

	if res.Insufficient {
		c.activityLog.Add(StagePredictor, "Insufficient data for prediction", deviceID,
			models.StatusWarning,
			fmt.Sprintf("Need %d more data points", res.Needed), nil)
	} else {
		status := models.StatusSuccess
		if res.Prediction.NextHourRisk > 0.7 {
			status = models.StatusWarning
		}
		c.activityLog.Add(StagePredictor, "Prediction completed", deviceID, status,
			fmt.Sprintf("Next-hour risk=%.2f | Trend: %s | %d recommendations",
				res.Prediction.NextHourRisk, res.Prediction.TrendDirection, len(res.Prediction.Recommendations)),
			map[string]any{"prediction": res.Prediction})
	}
	return res
}

// raiseAlert 组装报警并追加到报警日志、持久化、发布事件
// 持久化/事件发布失败只记日志，不影响报警本身
func (c *Coordinator) raiseAlert(ctx context.Context, report *models.AnomalyReport) *models.Alert {
	var alert models.Alert
	composed := func() (ok bool) {
		defer c.recoverStage(StageAlert, report.DeviceID, func() { ok = false })
		alert = c.composer.Compose(report)
		return true
	}()
	if !composed {
		return nil
	}

	c.alertLog.Append(alert)
	c.store.IncrementAlerts(alert.DeviceID)
	metrics.AlertsRaised.WithLabelValues(alert.Severity.String()).Inc()

	if c.persister != nil {
		if err := c.persister.InsertAlert(ctx, &alert); err != nil {
			c.activityLog.Add(StageAlert, "Failed to persist alert", alert.DeviceID,
				models.StatusError, err.Error(), nil)
		}
	}

	c.bus.Publish(events.EventAlertRaised, alert)

	status := models.StatusWarning
	if alert.Severity == models.SeverityCritical {
		status = models.StatusError
	}
	c.activityLog.Add(StageAlert, "Alert created", alert.DeviceID, status,
		fmt.Sprintf("%s (%d actions, auto_notify=%t)", alert.Message, len(alert.ActionsRequired), alert.AutoNotify),
		map[string]any{"alert": alert})

	return &alert
}

// recoverStage 阶段级 panic 恢复：记一条 error 活动日志并执行降级回调
func (c *Coordinator) recoverStage(stage, deviceID string, degrade func()) {
	if r := recover(); r != nil {
		metrics.StageFailures.WithLabelValues(stage).Inc()
		c.activityLog.Add(stage, "Stage failed unexpectedly", deviceID,
			models.StatusError, fmt.Sprintf("recovered: %v", r), nil)
		degrade()
	}
}

// Summarize 为聚合结果生成自然语言摘要
// 摘要协作方不可用或失败时返回固定回退文案
func (c *Coordinator) Summarize(ctx context.Context, result *Result) string {
	if result == nil {
		return "No data available for analysis."
	}
	if c.summarizer == nil {
		return summary.FallbackSummary
	}
	return c.summarizer.Summarize(ctx, buildSummaryContext(result))
}

// buildSummaryContext 把聚合结果渲染为 LLM 输入
func buildSummaryContext(result *Result) string {
	monitoring, _ := json.MarshalIndent(result.Monitoring, "", "  ")
	patterns, _ := json.MarshalIndent(result.Patterns, "", "  ")
	prediction, _ := json.MarshalIndent(result.Prediction, "", "  ")

	return fmt.Sprintf(`AUTONOMOUS ANALYSIS REPORT
Device: %s
Time: %s

REAL-TIME MONITORING:
%s

PATTERN ANALYSIS:
%s

PREDICTIVE INSIGHTS:
%s

Overall Risk Score: %.2f
`,
		result.DeviceID,
		result.Timestamp.Format(time.RFC3339),
		monitoring,
		patterns,
		prediction,
		result.OverallRisk,
	)
}
