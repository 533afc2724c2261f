package predictor

import (
	"testing"

	"medicore-monitor/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func flatReadings(n, hr int) []models.Reading {
	out := make([]models.Reading, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, models.Reading{
			DeviceID:    "dev-001",
			HR:          hr,
			SpO2:        97,
			PostureCode: models.PostureSitting,
		})
	}
	return out
}

func TestPredictor_InsufficientData(t *testing.T) {
	p := NewPredictor()

	result := p.Predict(flatReadings(49, 72))

	assert.True(t, result.Insufficient)
	assert.Equal(t, 1, result.Needed)
	assert.Nil(t, result.Prediction)
}

func TestPredictor_StableTrend(t *testing.T) {
	p := NewPredictor()

	result := p.Predict(flatReadings(50, 72))

	require.NotNil(t, result.Prediction)
	assert.Equal(t, models.TrendStable, result.Prediction.TrendDirection)
	assert.Equal(t, 0.0, result.Prediction.NextHourRisk)
	assert.Empty(t, result.Prediction.Recommendations)
}

func TestPredictor_DeterioratingTrend(t *testing.T) {
	p := NewPredictor()

	// 最近30条读数心率从 70 爬升到 157（斜率 +3/条）
	readings := flatReadings(20, 70)
	for i := 0; i < 30; i++ {
		readings = append(readings, models.Reading{
			DeviceID: "dev-001",
			HR:       70 + i*3,
			SpO2:     97,
		})
	}

	result := p.Predict(readings)

	require.NotNil(t, result.Prediction)
	assert.Equal(t, models.TrendDeteriorating, result.Prediction.TrendDirection)
	assert.Contains(t, result.Prediction.Recommendations, "Consider preventive intervention")
}

func TestPredictor_ImprovingTrend(t *testing.T) {
	p := NewPredictor()

	// 心率从 150 回落到 92
	readings := flatReadings(20, 150)
	for i := 0; i < 30; i++ {
		readings = append(readings, models.Reading{
			DeviceID: "dev-001",
			HR:       150 - i*2,
			SpO2:     97,
		})
	}

	result := p.Predict(readings)

	require.NotNil(t, result.Prediction)
	assert.Equal(t, models.TrendImproving, result.Prediction.TrendDirection)
}

func TestPredictor_FewValidPointsDefaultsStable(t *testing.T) {
	p := NewPredictor()

	// 最近窗口只有5个有效心率点（< 10），趋势默认平稳
	readings := flatReadings(50, 0)
	for i := 45; i < 50; i++ {
		readings[i].HR = 70 + (i-45)*20
	}

	result := p.Predict(readings)

	require.NotNil(t, result.Prediction)
	assert.Equal(t, models.TrendStable, result.Prediction.TrendDirection)
}

func TestPredictor_ShortTermRiskFromLastFive(t *testing.T) {
	p := NewPredictor()

	readings := flatReadings(50, 72)
	// Only the last 5 readings feed the short-term risk heuristic
	for i := 45; i < 50; i++ {
		readings[i].HR = 120 // +0.15 each
		readings[i].SpO2 = 85 // +0.2 each
	}

	result := p.Predict(readings)

	require.NotNil(t, result.Prediction)
	// 5*(0.15+0.2) = 1.75, capped at 1.0
	assert.Equal(t, 1.0, result.Prediction.NextHourRisk)
	assert.Contains(t, result.Prediction.Recommendations, "Increase monitoring frequency")
}

func TestPredictor_AbnormalReadingsOutsideLastFiveIgnoredForRisk(t *testing.T) {
	p := NewPredictor()

	readings := flatReadings(50, 72)
	// 异常只出现在倒数第6条之前，不影响短期风险
	readings[40].HR = 180
	readings[41].SpO2 = 70

	result := p.Predict(readings)

	require.NotNil(t, result.Prediction)
	assert.Equal(t, 0.0, result.Prediction.NextHourRisk)
}

func TestPredictor_ZeroVitalsSkippedInRisk(t *testing.T) {
	p := NewPredictor()

	readings := flatReadings(50, 0)
	for i := range readings {
		readings[i].SpO2 = 0
	}

	result := p.Predict(readings)

	require.NotNil(t, result.Prediction)
	assert.Equal(t, 0.0, result.Prediction.NextHourRisk)
}
