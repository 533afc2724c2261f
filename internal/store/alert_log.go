package store

import (
	"sync"

	"medicore-monitor/internal/models"
)

// AlertLog 报警日志（有界环形缓冲，条目创建后不可变）
type AlertLog struct {
	mu       sync.Mutex
	alerts   []models.Alert
	head     int
	count    int
	capacity int
}

// NewAlertLog 创建报警日志
func NewAlertLog(capacity int) *AlertLog {
	if capacity <= 0 {
		capacity = 100
	}
	return &AlertLog{
		alerts:   make([]models.Alert, capacity),
		capacity: capacity,
	}
}

// Append 追加一条报警（满时淘汰最旧）
func (l *AlertLog) Append(alert models.Alert) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.alerts[l.head] = alert
	l.head = (l.head + 1) % l.capacity
	if l.count < l.capacity {
		l.count++
	}
}

// Recent 返回最近的报警（最新在前），limit<=0 时返回全部
func (l *AlertLog) Recent(limit int) []models.Alert {
	l.mu.Lock()
	defer l.mu.Unlock()

	if limit <= 0 || limit > l.count {
		limit = l.count
	}
	out := make([]models.Alert, 0, limit)
	for i := 0; i < limit; i++ {
		idx := (l.head - 1 - i + l.capacity*2) % l.capacity
		out = append(out, l.alerts[idx])
	}
	return out
}

// RecentForDevice 返回指定设备最近的报警（最新在前）
func (l *AlertLog) RecentForDevice(deviceID string, limit int) []models.Alert {
	l.mu.Lock()
	defer l.mu.Unlock()

	if limit <= 0 {
		limit = l.count
	}
	out := make([]models.Alert, 0, limit)
	for i := 0; i < l.count && len(out) < limit; i++ {
		idx := (l.head - 1 - i + l.capacity*2) % l.capacity
		if l.alerts[idx].DeviceID == deviceID {
			out = append(out, l.alerts[idx])
		}
	}
	return out
}

// Len 当前持有的报警数量
func (l *AlertLog) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.count
}
