package store

import (
	"fmt"
	"sync"
	"time"

	"medicore-monitor/internal/events"
	"medicore-monitor/internal/models"

	"go.uber.org/zap"
)

// ActivityLog 活动日志（有界环形缓冲，满时静默丢弃最旧条目）
type ActivityLog struct {
	mu       sync.Mutex
	entries  []models.ActivityEntry
	head     int
	count    int
	capacity int
	seq      int64
	bus      *events.Bus
	logger   *zap.Logger
}

// NewActivityLog 创建活动日志
// bus 可为 nil（不发布 agent_activity 事件）
func NewActivityLog(capacity int, bus *events.Bus, logger *zap.Logger) *ActivityLog {
	if capacity <= 0 {
		capacity = 100
	}
	return &ActivityLog{
		entries:  make([]models.ActivityEntry, capacity),
		capacity: capacity,
		bus:      bus,
		logger:   logger,
	}
}

// Add 记录一条活动并发布 agent_activity 事件，返回条目ID
func (l *ActivityLog) Add(stage, action, deviceID string, status models.ActivityStatus, details string, payload map[string]any) models.ActivityEntry {
	l.mu.Lock()
	l.seq++
	entry := models.ActivityEntry{
		ID:        fmt.Sprintf("ACT_%d_%d", time.Now().UnixMilli(), l.seq),
		Timestamp: time.Now(),
		Stage:     stage,
		Action:    action,
		DeviceID:  deviceID,
		Status:    status,
		Details:   details,
		Payload:   payload,
	}
	l.entries[l.head] = entry
	l.head = (l.head + 1) % l.capacity
	if l.count < l.capacity {
		l.count++
	}
	l.mu.Unlock()

	// 镜像到结构化日志
	switch status {
	case models.StatusError:
		l.logger.Error(action,
			zap.String("stage", stage),
			zap.String("device_id", deviceID),
			zap.String("details", details),
		)
	case models.StatusWarning:
		l.logger.Warn(action,
			zap.String("stage", stage),
			zap.String("device_id", deviceID),
			zap.String("details", details),
		)
	default:
		l.logger.Info(action,
			zap.String("stage", stage),
			zap.String("device_id", deviceID),
			zap.String("details", details),
		)
	}

	if l.bus != nil {
		l.bus.Publish(events.EventAgentActivity, entry)
	}
	return entry
}

// Recent 返回最近的条目（最新在前），limit<=0 时返回全部
func (l *ActivityLog) Recent(limit int) []models.ActivityEntry {
	l.mu.Lock()
	defer l.mu.Unlock()

	if limit <= 0 || limit > l.count {
		limit = l.count
	}
	out := make([]models.ActivityEntry, 0, limit)
	for i := 0; i < limit; i++ {
		idx := (l.head - 1 - i + l.capacity*2) % l.capacity
		out = append(out, l.entries[idx])
	}
	return out
}

// Get 按ID查找条目
func (l *ActivityLog) Get(id string) (models.ActivityEntry, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for i := 0; i < l.count; i++ {
		idx := (l.head - 1 - i + l.capacity*2) % l.capacity
		if l.entries[idx].ID == id {
			return l.entries[idx], true
		}
	}
	return models.ActivityEntry{}, false
}

// Len 当前持有的条目数量
func (l *ActivityLog) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.count
}
