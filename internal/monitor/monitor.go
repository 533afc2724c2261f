package monitor

import (
	"fmt"
	"strings"
	"time"

	"medicore-monitor/internal/config"
	"medicore-monitor/internal/models"
)

// MinReadings 可靠检测所需的最少读数
const MinReadings = 3

// Status 检测结果状态
type Status int

const (
	// StatusInsufficient 历史数据不足（不是"无异常"）
	StatusInsufficient Status = iota
	// StatusNoAnomaly 明确的阴性结果
	StatusNoAnomaly
	// StatusAnomaly 检测到异常
	StatusAnomaly
)

// String 状态显示名称
func (s Status) String() string {
	switch s {
	case StatusNoAnomaly:
		return "no_anomaly"
	case StatusAnomaly:
		return "anomaly"
	default:
		return "insufficient_data"
	}
}

// MarshalJSON 按显示名称序列化
func (s Status) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

// Result 异常检测结果
type Result struct {
	Status Status                `json:"status"`
	Needed int                   `json:"needed,omitempty"` // Status == StatusInsufficient 时还缺多少条读数
	Report *models.AnomalyReport `json:"report,omitempty"` // Status == StatusAnomaly 时非空
}

// Monitor 实时异常检测器
// 仅检查最新读数与固定阈值，同样的输入永远产生同样的输出
type Monitor struct {
	hrLow            int
	hrHigh           int
	hypoxiaThreshold int
}

// NewMonitor 创建异常检测器
func NewMonitor(cfg *config.Config) *Monitor {
	return &Monitor{
		hrLow:            cfg.Analysis.HRLow,
		hrHigh:           cfg.Analysis.HRHigh,
		hypoxiaThreshold: cfg.Analysis.HypoxiaThreshold,
	}
}

// Analyze 检测历史窗口最新读数中的异常
func (m *Monitor) Analyze(deviceID string, history []models.Reading) Result {
	if len(history) < MinReadings {
		return Result{
			Status: StatusInsufficient,
			Needed: MinReadings - len(history),
		}
	}

	latest := history[len(history)-1]
	severity := models.SeverityNormal
	var anomalies []models.Anomaly

	// 1. 跌倒检测
	if latest.PostureCode == models.PostureFalling {
		anomalies = append(anomalies, models.Anomaly{Tag: models.TagFallDetected})
		severity = severity.Max(models.SeverityCritical)
	}

	// 2. 生命体征检查（HR=0 / SpO2=0 视为传感器无数据，跳过）
	if latest.HR > 0 {
		if latest.HR < m.hrLow {
			anomalies = append(anomalies, models.Anomaly{
				Tag:    models.TagBradycardia,
				Detail: fmt.Sprintf("HR=%d", latest.HR),
			})
			severity = severity.Max(models.SeverityWarning)
		} else if latest.HR > m.hrHigh {
			anomalies = append(anomalies, models.Anomaly{
				Tag:    models.TagTachycardia,
				Detail: fmt.Sprintf("HR=%d", latest.HR),
			})
			severity = severity.Max(models.SeverityWarning)
		}
	}

	if latest.SpO2 > 0 && latest.SpO2 < m.hypoxiaThreshold {
		anomalies = append(anomalies, models.Anomaly{
			Tag:    models.TagHypoxia,
			Detail: fmt.Sprintf("SpO2=%d%%", latest.SpO2),
		})
		severity = severity.Max(models.SeverityCritical)
	}

	// 3. 情境风险评估（区域 × 姿态 × 心率）
	if context, contextSeverity, ok := m.assessContextRisk(latest); ok {
		anomalies = append(anomalies, context)
		severity = severity.Max(contextSeverity)
	}

	if len(anomalies) == 0 {
		return Result{Status: StatusNoAnomaly}
	}

	return Result{
		Status: StatusAnomaly,
		Report: &models.AnomalyReport{
			Timestamp: time.Now(),
			DeviceID:  deviceID,
			Severity:  severity,
			Anomalies: anomalies,
			Snapshot:  latest,
		},
	}
}

// assessContextRisk 情境风险规则
// 注意："lying" 按姿态名称文本匹配（Lying Down / Lying on ... Side），
// Falling 与 Prone 不命中，与跌倒规则互斥
func (m *Monitor) assessContextRisk(latest models.Reading) (models.Anomaly, models.Severity, bool) {
	area := strings.ToLower(latest.AreaLabel())
	posture := strings.ToLower(latest.PostureLabel())

	if strings.Contains(area, "bathroom") && strings.Contains(posture, "lying") {
		return models.Anomaly{
			Tag:    models.TagLyingInBathroom,
			Detail: "patient lying in bathroom",
		}, models.SeverityCritical, true
	}
	if strings.Contains(area, "corridor") && strings.Contains(posture, "lying") {
		return models.Anomaly{
			Tag:    models.TagLyingInCorridor,
			Detail: "patient lying in corridor",
		}, models.SeverityWarning, true
	}
	if latest.HR > m.hrHigh && strings.Contains(posture, "sitting") {
		return models.Anomaly{
			Tag:    models.TagHighHRSedentary,
			Detail: fmt.Sprintf("HR=%d while sedentary", latest.HR),
		}, models.SeverityWarning, true
	}

	return models.Anomaly{}, models.SeverityNormal, false
}
