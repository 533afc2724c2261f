package alert

import (
	"medicore-monitor/internal/models"

	"github.com/google/uuid"
)

// Composer 报警组装器
// 纯转换：AnomalyReport → Alert，不产生任何副作用，持久化/发布由调用方负责
type Composer struct{}

// NewComposer 创建报警组装器
func NewComposer() *Composer {
	return &Composer{}
}

// Compose 从异常报告生成结构化报警
func (c *Composer) Compose(report *models.AnomalyReport) models.Alert {
	return models.Alert{
		ID:              uuid.New().String(),
		Timestamp:       report.Timestamp,
		DeviceID:        report.DeviceID,
		Severity:        report.Severity,
		SeverityText:    report.Severity.String(),
		Message:         composeMessage(report),
		ActionsRequired: suggestActions(report),
		AutoNotify:      report.Severity == models.SeverityCritical,
	}
}

// composeMessage 生成带严重程度前缀的报警消息
func composeMessage(report *models.AnomalyReport) string {
	var prefix string
	switch report.Severity {
	case models.SeverityCritical:
		prefix = "CRITICAL ALERT: "
	case models.SeverityWarning:
		prefix = "WARNING: "
	default:
		prefix = "INFO: "
	}
	return prefix + report.AnomalyText()
}

// suggestActions 按异常标签推导处置动作
func suggestActions(report *models.AnomalyReport) []string {
	actions := make([]string, 0, 4)
	for _, anomaly := range report.Anomalies {
		switch anomaly.Tag {
		case models.TagFallDetected:
			actions = append(actions,
				"Dispatch emergency response immediately",
				"Check for head injury or fracture",
			)
		case models.TagHypoxia:
			actions = append(actions,
				"Administer oxygen if available",
				"Check respiratory rate",
			)
		case models.TagBradycardia:
			actions = append(actions,
				"Check consciousness level",
				"Monitor for dizziness or syncope",
			)
		case models.TagLyingInBathroom:
			actions = append(actions,
				"Check patient status in bathroom",
				"Ensure safe exit pathway",
			)
		}
	}
	return actions
}
