package models

import "time"

// Alert 结构化报警（创建后不可变）
type Alert struct {
	ID              string    `json:"id"`
	Timestamp       time.Time `json:"timestamp"`
	DeviceID        string    `json:"device_id"`
	Severity        Severity  `json:"severity"`
	SeverityText    string    `json:"severity_text"`
	Message         string    `json:"message"`
	ActionsRequired []string  `json:"actions_required"`
	AutoNotify      bool      `json:"auto_notify"`
}
