package store

import (
	"fmt"
	"testing"

	"medicore-monitor/internal/events"
	"medicore-monitor/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestActivityLog_AddAndRecent(t *testing.T) {
	log := NewActivityLog(10, nil, zap.NewNop())

	first := log.Add("Monitor", "All vitals normal", "dev-001", models.StatusSuccess, "HR: 72", nil)
	second := log.Add("Analyzer", "Pattern analysis completed", "dev-001", models.StatusSuccess, "Risk=0.10", nil)

	assert.NotEmpty(t, first.ID)
	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, 2, log.Len())

	// Newest first
	recent := log.Recent(10)
	require.Len(t, recent, 2)
	assert.Equal(t, second.ID, recent[0].ID)
	assert.Equal(t, first.ID, recent[1].ID)
}

func TestActivityLog_CapacityEviction(t *testing.T) {
	log := NewActivityLog(5, nil, zap.NewNop())

	var ids []string
	for i := 0; i < 7; i++ {
		entry := log.Add("Monitor", fmt.Sprintf("action-%d", i), "dev-001", models.StatusSuccess, "", nil)
		ids = append(ids, entry.ID)
	}

	assert.Equal(t, 5, log.Len())

	// 最旧两条被淘汰
	_, ok := log.Get(ids[0])
	assert.False(t, ok)
	_, ok = log.Get(ids[1])
	assert.False(t, ok)
	_, ok = log.Get(ids[6])
	assert.True(t, ok)
}

func TestActivityLog_GetByID(t *testing.T) {
	log := NewActivityLog(10, nil, zap.NewNop())

	entry := log.Add("Predictor", "Prediction completed", "dev-002", models.StatusWarning, "Next-hour risk=0.80",
		map[string]any{"risk": 0.8})

	got, ok := log.Get(entry.ID)
	require.True(t, ok)
	assert.Equal(t, "Predictor", got.Stage)
	assert.Equal(t, models.StatusWarning, got.Status)
	assert.Equal(t, 0.8, got.Payload["risk"])

	_, ok = log.Get("ACT_0_0")
	assert.False(t, ok)
}

func TestActivityLog_PublishesEvent(t *testing.T) {
	bus := events.NewBus(8, zap.NewNop())
	ch, cancel := bus.Subscribe()
	defer cancel()

	log := NewActivityLog(10, bus, zap.NewNop())
	log.Add("Monitor", "All vitals normal", "dev-001", models.StatusSuccess, "", nil)

	event := <-ch
	assert.Equal(t, events.EventAgentActivity, event.Name)
	entry, ok := event.Payload.(models.ActivityEntry)
	require.True(t, ok)
	assert.Equal(t, "Monitor", entry.Stage)
}

func TestActivityLog_RecentLimit(t *testing.T) {
	log := NewActivityLog(10, nil, zap.NewNop())
	for i := 0; i < 6; i++ {
		log.Add("Monitor", fmt.Sprintf("action-%d", i), "dev-001", models.StatusSuccess, "", nil)
	}

	assert.Len(t, log.Recent(3), 3)
	assert.Len(t, log.Recent(0), 6)
	assert.Len(t, log.Recent(100), 6)
}
