package store

import (
	"fmt"
	"testing"

	"medicore-monitor/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeAlert(id, deviceID string) models.Alert {
	return models.Alert{
		ID:       id,
		DeviceID: deviceID,
		Severity: models.SeverityWarning,
		Message:  "WARNING: TACHYCARDIA (HR=120)",
	}
}

func TestAlertLog_AppendAndRecent(t *testing.T) {
	log := NewAlertLog(10)

	log.Append(makeAlert("a1", "dev-001"))
	log.Append(makeAlert("a2", "dev-002"))

	recent := log.Recent(10)
	require.Len(t, recent, 2)
	// Newest first
	assert.Equal(t, "a2", recent[0].ID)
	assert.Equal(t, "a1", recent[1].ID)
	assert.Equal(t, 2, log.Len())
}

func TestAlertLog_CapacityEviction(t *testing.T) {
	log := NewAlertLog(3)

	for i := 0; i < 5; i++ {
		log.Append(makeAlert(fmt.Sprintf("a%d", i), "dev-001"))
	}

	recent := log.Recent(0)
	require.Len(t, recent, 3)
	assert.Equal(t, "a4", recent[0].ID)
	assert.Equal(t, "a2", recent[2].ID)
}

func TestAlertLog_RecentForDevice(t *testing.T) {
	log := NewAlertLog(10)

	log.Append(makeAlert("a1", "dev-001"))
	log.Append(makeAlert("a2", "dev-002"))
	log.Append(makeAlert("a3", "dev-001"))

	alerts := log.RecentForDevice("dev-001", 10)
	require.Len(t, alerts, 2)
	assert.Equal(t, "a3", alerts[0].ID)
	assert.Equal(t, "a1", alerts[1].ID)

	assert.Empty(t, log.RecentForDevice("dev-999", 10))
	assert.Len(t, log.RecentForDevice("dev-001", 1), 1)
}
