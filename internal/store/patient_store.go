package store

import (
	"errors"
	"sort"
	"sync"

	"medicore-monitor/internal/models"
)

// ErrDeviceNotFound 请求的设备没有任何状态
var ErrDeviceNotFound = errors.New("device not found")

// PatientStore 按设备维护有界历史窗口和派生状态
// 所有方法并发安全；Snapshot 返回的历史副本不受后续 Upsert 影响
type PatientStore struct {
	mu       sync.RWMutex
	capacity int
	states   map[string]*patientState
}

// patientState 单设备状态（环形缓冲历史 + 派生数据）
type patientState struct {
	history     []models.Reading // 容量固定的环形缓冲
	head        int              // 下一个写入位置
	count       int              // 当前持有的读数数量
	riskScore   float64
	patterns    *models.PatternSummary
	alertsCount int
}

// StateView 设备状态的只读视图
type StateView struct {
	DeviceID    string                 `json:"device_id"`
	RiskScore   float64                `json:"risk_score"`
	DataPoints  int                    `json:"data_points"`
	Latest      *models.Reading        `json:"latest,omitempty"`
	Patterns    *models.PatternSummary `json:"patterns,omitempty"`
	AlertsCount int                    `json:"alerts_count"`
}

// NewPatientStore 创建状态仓库
// capacity: 每设备历史窗口容量（<=0 时按 100 处理）
func NewPatientStore(capacity int) *PatientStore {
	if capacity <= 0 {
		capacity = 100
	}
	return &PatientStore{
		capacity: capacity,
		states:   make(map[string]*patientState),
	}
}

// Upsert 追加一条读数；首次出现的设备自动创建状态
// 窗口满时淘汰最旧读数（FIFO），摊销 O(1)
func (s *PatientStore) Upsert(deviceID string, reading models.Reading) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.states[deviceID]
	if !ok {
		state = &patientState{
			history: make([]models.Reading, s.capacity),
		}
		s.states[deviceID] = state
	}

	state.history[state.head] = reading
	state.head = (state.head + 1) % s.capacity
	if state.count < s.capacity {
		state.count++
	}
}

// Snapshot 返回设备历史的时间点副本（最旧在前）
func (s *PatientStore) Snapshot(deviceID string) ([]models.Reading, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state, ok := s.states[deviceID]
	if !ok {
		return nil, ErrDeviceNotFound
	}

	out := make([]models.Reading, state.count)
	start := (state.head - state.count + s.capacity) % s.capacity
	for i := 0; i < state.count; i++ {
		out[i] = state.history[(start+i)%s.capacity]
	}
	return out, nil
}

// SetRisk 写回风险评分
func (s *PatientStore) SetRisk(deviceID string, score float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.states[deviceID]
	if !ok {
		return ErrDeviceNotFound
	}
	state.riskScore = score
	return nil
}

// SetPatterns 写回模式分析结果
func (s *PatientStore) SetPatterns(deviceID string, patterns *models.PatternSummary) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.states[deviceID]
	if !ok {
		return ErrDeviceNotFound
	}
	state.patterns = patterns
	return nil
}

// IncrementAlerts 报警计数 +1
func (s *PatientStore) IncrementAlerts(deviceID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if state, ok := s.states[deviceID]; ok {
		state.alertsCount++
	}
}

// Get 返回设备状态的只读视图
func (s *PatientStore) Get(deviceID string) (StateView, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state, ok := s.states[deviceID]
	if !ok {
		return StateView{}, ErrDeviceNotFound
	}
	return s.viewLocked(deviceID, state), nil
}

// All 返回所有设备状态的只读视图（按设备ID排序）
func (s *PatientStore) All() []StateView {
	s.mu.RLock()
	defer s.mu.RUnlock()

	views := make([]StateView, 0, len(s.states))
	for deviceID, state := range s.states {
		views = append(views, s.viewLocked(deviceID, state))
	}
	sort.Slice(views, func(i, j int) bool { return views[i].DeviceID < views[j].DeviceID })
	return views
}

// DeviceIDs 返回已知设备ID的排序副本
func (s *PatientStore) DeviceIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.states))
	for id := range s.states {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// viewLocked 构建只读视图（调用方需持有锁）
func (s *PatientStore) viewLocked(deviceID string, state *patientState) StateView {
	view := StateView{
		DeviceID:    deviceID,
		RiskScore:   state.riskScore,
		DataPoints:  state.count,
		Patterns:    state.patterns,
		AlertsCount: state.alertsCount,
	}
	if state.count > 0 {
		latest := state.history[(state.head-1+s.capacity)%s.capacity]
		view.Latest = &latest
	}
	return view
}
