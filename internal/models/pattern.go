package models

// VitalsTrend 生命体征统计（仅统计有效读数：HR>0 / SpO2>0）
type VitalsTrend struct {
	HasHR   bool    `json:"has_hr"`
	HRAvg   float64 `json:"hr_avg,omitempty"`
	HRStd   float64 `json:"hr_std,omitempty"`
	HRMin   int     `json:"hr_min,omitempty"`
	HRMax   int     `json:"hr_max,omitempty"`
	HasSpO2 bool    `json:"has_spo2"`
	SpO2Avg float64 `json:"spo2_avg,omitempty"`
	SpO2Min int     `json:"spo2_min,omitempty"`
}

// LabelShare 标签占比（如 "Sitting" → "62.5%"）
type LabelShare struct {
	Label   string `json:"label"`
	Percent string `json:"percent"`
}

// LabelCount 标签计数（如 "Bedroom" → 48）
type LabelCount struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// PatternSummary 历史窗口的行为模式分析结果
type PatternSummary struct {
	ActivityDistribution []LabelShare `json:"activity_distribution"` // top-5 姿态占比
	VitalsTrend          VitalsTrend  `json:"vitals_trend"`
	LocationHotspots     []LabelCount `json:"location_hotspots"` // top-3 区域计数
	RiskAssessment       float64      `json:"risk_assessment"`   // [0,1]，保留2位小数
}

// TrendDirection 趋势方向
type TrendDirection string

const (
	TrendImproving     TrendDirection = "improving"
	TrendStable        TrendDirection = "stable"
	TrendDeteriorating TrendDirection = "deteriorating"
)

// Prediction 短期风险预测结果
type Prediction struct {
	NextHourRisk    float64        `json:"next_hour_risk"` // [0,1]
	TrendDirection  TrendDirection `json:"trend_direction"`
	Recommendations []string       `json:"recommendations"`
}
