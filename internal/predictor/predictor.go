package predictor

import (
	"math"

	"medicore-monitor/internal/models"
)

// 预测器常量
const (
	// MinReadings 风险预测所需的最少历史读数
	MinReadings = 50
	// recentWindow 参与预测的最近读数数量
	recentWindow = 30
	// minTrendPoints 趋势判断所需的最少有效心率点
	minTrendPoints = 10
	// slopeEpsilon 斜率绝对值小于该值时视为平稳
	slopeEpsilon = 0.5
)

// Result 风险预测结果
type Result struct {
	Insufficient bool               `json:"insufficient"`
	Needed       int                `json:"needed,omitempty"`     // Insufficient 时还缺多少条读数
	Prediction   *models.Prediction `json:"prediction,omitempty"` // Insufficient 为 false 时非空
}

// Predictor 短期风险预测器（最近子窗口趋势外推）
type Predictor struct{}

// NewPredictor 创建风险预测器
func NewPredictor() *Predictor {
	return &Predictor{}
}

// Predict 基于最近趋势预测短期风险
func (p *Predictor) Predict(history []models.Reading) Result {
	if len(history) < MinReadings {
		return Result{
			Insufficient: true,
			Needed:       MinReadings - len(history),
		}
	}

	recent := history[len(history)-recentWindow:]

	var hrs []float64
	for _, r := range recent {
		if r.HR > 0 {
			hrs = append(hrs, float64(r.HR))
		}
	}

	prediction := &models.Prediction{
		NextHourRisk:    p.shortTermRisk(recent),
		TrendDirection:  p.detectTrend(hrs),
		Recommendations: []string{},
	}

	if prediction.NextHourRisk > 0.7 {
		prediction.Recommendations = append(prediction.Recommendations, "Increase monitoring frequency")
	}
	if prediction.TrendDirection == models.TrendDeteriorating {
		prediction.Recommendations = append(prediction.Recommendations, "Consider preventive intervention")
	}

	return Result{Prediction: prediction}
}

// shortTermRisk 近一小时风险启发式（只看最近5条读数，封顶1.0）
func (p *Predictor) shortTermRisk(recent []models.Reading) float64 {
	last5 := recent
	if len(last5) > 5 {
		last5 = last5[len(last5)-5:]
	}

	risk := 0.0
	for _, r := range last5 {
		if r.HR > 110 || (r.HR > 0 && r.HR < 50) {
			risk += 0.15
		}
		if r.SpO2 > 0 && r.SpO2 < 90 {
			risk += 0.2
		}
	}
	return math.Min(risk, 1.0)
}

// detectTrend 心率趋势方向（一阶最小二乘拟合）
// 有效点不足 minTrendPoints 时默认平稳
func (p *Predictor) detectTrend(values []float64) models.TrendDirection {
	if len(values) < minTrendPoints {
		return models.TrendStable
	}

	slope := leastSquaresSlope(values)
	switch {
	case math.Abs(slope) < slopeEpsilon:
		return models.TrendStable
	case slope > 0:
		return models.TrendDeteriorating
	default:
		return models.TrendImproving
	}
}

// leastSquaresSlope 一阶最小二乘拟合的斜率（x = 0..n-1）
func leastSquaresSlope(values []float64) float64 {
	n := float64(len(values))
	var sumX, sumY, sumXY, sumXX float64
	for i, y := range values {
		x := float64(i)
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
	}

	denom := n*sumXX - sumX*sumX
	if denom == 0 {
		return 0
	}
	return (n*sumXY - sumX*sumY) / denom
}
