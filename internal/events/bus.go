package events

import (
	"sync"

	"go.uber.org/zap"
)

// 事件名称（与前端订阅的名称保持一致）
const (
	EventSensorUpdate  = "sensor_update"
	EventAgentActivity = "agent_activity"
	EventAlertRaised   = "alert_raised"
)

// Event 命名事件
type Event struct {
	Name    string `json:"event"`
	Payload any    `json:"payload"`
}

// Bus 进程内事件总线
// Publish 为 fire-and-forget：订阅者缓冲满时直接丢弃，绝不阻塞发布方
type Bus struct {
	mu          sync.RWMutex
	subscribers map[int]chan Event
	nextID      int
	bufferSize  int
	logger      *zap.Logger
}

// NewBus 创建事件总线
func NewBus(bufferSize int, logger *zap.Logger) *Bus {
	if bufferSize <= 0 {
		bufferSize = 64
	}
	return &Bus{
		subscribers: make(map[int]chan Event),
		bufferSize:  bufferSize,
		logger:      logger,
	}
}

// Subscribe 订阅事件，返回接收通道和取消函数
func (b *Bus) Subscribe() (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	ch := make(chan Event, b.bufferSize)
	b.subscribers[id] = ch

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if sub, ok := b.subscribers[id]; ok {
			delete(b.subscribers, id)
			close(sub)
		}
	}
	return ch, cancel
}

// Publish 发布事件到所有订阅者（非阻塞）
func (b *Bus) Publish(name string, payload any) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	event := Event{Name: name, Payload: payload}
	for _, ch := range b.subscribers {
		select {
		case ch <- event:
		default:
			// 订阅者太慢，丢弃该事件
			b.logger.Debug("Dropped event for slow subscriber",
				zap.String("event", name),
			)
		}
	}
}

// SubscriberCount 当前订阅者数量
func (b *Bus) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}
