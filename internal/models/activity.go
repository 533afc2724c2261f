package models

import "time"

// ActivityStatus 阶段执行状态
type ActivityStatus string

const (
	StatusSuccess ActivityStatus = "success"
	StatusWarning ActivityStatus = "warning"
	StatusError   ActivityStatus = "error"
	StatusRunning ActivityStatus = "running"
)

// ActivityEntry 分析流水线的活动日志条目
type ActivityEntry struct {
	ID        string         `json:"id"`
	Timestamp time.Time      `json:"timestamp"`
	Stage     string         `json:"stage"` // 产生该条目的阶段，如 "Monitor"、"Coordinator"
	Action    string         `json:"action"`
	DeviceID  string         `json:"device_id,omitempty"`
	Status    ActivityStatus `json:"status"`
	Details   string         `json:"details,omitempty"`
	Payload   map[string]any `json:"payload,omitempty"` // 可展开的结构化数据
}
