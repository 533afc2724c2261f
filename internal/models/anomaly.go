package models

import (
	"strings"
	"time"
)

// Severity 异常严重程度（全序：NORMAL < WARNING < CRITICAL）
type Severity int

const (
	SeverityNormal Severity = iota
	SeverityWarning
	SeverityCritical
)

// String 返回严重程度的显示名称
func (s Severity) String() string {
	switch s {
	case SeverityWarning:
		return "WARNING"
	case SeverityCritical:
		return "CRITICAL"
	default:
		return "NORMAL"
	}
}

// Max 返回两个严重程度中较高的一个
func (s Severity) Max(other Severity) Severity {
	if other > s {
		return other
	}
	return s
}

// AnomalyTag 异常类型标签
type AnomalyTag string

const (
	TagFallDetected    AnomalyTag = "FALL_DETECTED"
	TagBradycardia     AnomalyTag = "BRADYCARDIA"
	TagTachycardia     AnomalyTag = "TACHYCARDIA"
	TagHypoxia         AnomalyTag = "HYPOXIA"
	TagLyingInBathroom AnomalyTag = "LYING_IN_BATHROOM"
	TagLyingInCorridor AnomalyTag = "LYING_IN_CORRIDOR"
	TagHighHRSedentary AnomalyTag = "HIGH_HR_SEDENTARY"
)

// Anomaly 单条异常（标签 + 触发细节，如 "HR=125"）
type Anomaly struct {
	Tag    AnomalyTag `json:"tag"`
	Detail string     `json:"detail,omitempty"`
}

// String 返回异常的显示文本
func (a Anomaly) String() string {
	if a.Detail == "" {
		return string(a.Tag)
	}
	return string(a.Tag) + " (" + a.Detail + ")"
}

// AnomalyReport 异常检测结果（包含触发读数的快照）
type AnomalyReport struct {
	Timestamp time.Time `json:"timestamp"`
	DeviceID  string    `json:"device_id"`
	Severity  Severity  `json:"severity"`
	Anomalies []Anomaly `json:"anomalies"`
	Snapshot  Reading   `json:"snapshot"`
}

// HasTag 检查报告中是否包含指定标签
func (r *AnomalyReport) HasTag(tag AnomalyTag) bool {
	for _, a := range r.Anomalies {
		if a.Tag == tag {
			return true
		}
	}
	return false
}

// AnomalyText 返回逗号分隔的异常描述列表
func (r *AnomalyReport) AnomalyText() string {
	parts := make([]string, 0, len(r.Anomalies))
	for _, a := range r.Anomalies {
		parts = append(parts, a.String())
	}
	return strings.Join(parts, ", ")
}
