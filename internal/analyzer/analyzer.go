package analyzer

import (
	"fmt"
	"math"
	"sort"

	"medicore-monitor/internal/config"
	"medicore-monitor/internal/models"
)

// MinReadings 模式分析所需的最少读数
const MinReadings = 20

// Result 模式分析结果
type Result struct {
	Insufficient bool                   `json:"insufficient"`
	Needed       int                    `json:"needed,omitempty"`  // Insufficient 时还缺多少条读数
	Summary      *models.PatternSummary `json:"summary,omitempty"` // Insufficient 为 false 时非空
}

// Analyzer 行为模式分析器
// 对整个历史窗口做纯函数聚合：同一窗口重复分析结果完全一致
type Analyzer struct {
	hrLow            int
	hrHigh           int
	hypoxiaThreshold int
}

// NewAnalyzer 创建模式分析器
func NewAnalyzer(cfg *config.Config) *Analyzer {
	return &Analyzer{
		hrLow:            cfg.Analysis.HRLow,
		hrHigh:           cfg.Analysis.HRHigh,
		hypoxiaThreshold: cfg.Analysis.HypoxiaThreshold,
	}
}

// Analyze 分析历史窗口的行为模式
func (a *Analyzer) Analyze(history []models.Reading) Result {
	if len(history) < MinReadings {
		return Result{
			Insufficient: true,
			Needed:       MinReadings - len(history),
		}
	}

	return Result{
		Summary: &models.PatternSummary{
			ActivityDistribution: a.activityDistribution(history),
			VitalsTrend:          a.vitalsTrend(history),
			LocationHotspots:     a.locationHotspots(history),
			RiskAssessment:       a.riskScore(history),
		},
	}
}

// activityDistribution 姿态分布（top-5，窗口占比）
func (a *Analyzer) activityDistribution(history []models.Reading) []models.LabelShare {
	counts := make(map[string]int)
	for _, r := range history {
		counts[r.PostureLabel()]++
	}

	labels := rankLabels(counts, 5)
	total := float64(len(history))
	out := make([]models.LabelShare, 0, len(labels))
	for _, label := range labels {
		out = append(out, models.LabelShare{
			Label:   label,
			Percent: fmt.Sprintf("%.1f%%", float64(counts[label])/total*100),
		})
	}
	return out
}

// vitalsTrend 生命体征统计（只统计有效读数）
func (a *Analyzer) vitalsTrend(history []models.Reading) models.VitalsTrend {
	var hrs, spo2s []int
	for _, r := range history {
		if r.HR > 0 {
			hrs = append(hrs, r.HR)
		}
		if r.SpO2 > 0 {
			spo2s = append(spo2s, r.SpO2)
		}
	}

	trend := models.VitalsTrend{}
	if len(hrs) > 0 {
		trend.HasHR = true
		trend.HRAvg = mean(hrs)
		trend.HRStd = stddev(hrs, trend.HRAvg)
		trend.HRMin, trend.HRMax = minMax(hrs)
	}
	if len(spo2s) > 0 {
		trend.HasSpO2 = true
		trend.SpO2Avg = mean(spo2s)
		trend.SpO2Min, _ = minMax(spo2s)
	}
	return trend
}

// locationHotspots 区域热点（top-3 计数）
func (a *Analyzer) locationHotspots(history []models.Reading) []models.LabelCount {
	counts := make(map[string]int)
	for _, r := range history {
		counts[r.AreaLabel()]++
	}

	labels := rankLabels(counts, 3)
	out := make([]models.LabelCount, 0, len(labels))
	for _, label := range labels {
		out = append(out, models.LabelCount{Label: label, Count: counts[label]})
	}
	return out
}

// riskScore 综合风险评分 [0,1]
// 跌倒次数、异常心率占比、低血氧占比各自封顶后求和，保留2位小数
func (a *Analyzer) riskScore(history []models.Reading) float64 {
	n := float64(len(history))
	var falls, abnormalHR, hypoxia int
	for _, r := range history {
		if r.PostureCode == models.PostureFalling {
			falls++
		}
		if r.HR > a.hrHigh || (r.HR > 0 && r.HR < a.hrLow) {
			abnormalHR++
		}
		if r.SpO2 > 0 && r.SpO2 < a.hypoxiaThreshold {
			hypoxia++
		}
	}

	risk := math.Min(float64(falls)*0.2, 0.4)
	risk += math.Min(float64(abnormalHR)/n, 0.3)
	risk += math.Min(float64(hypoxia)/n, 0.3)
	return math.Round(risk*100) / 100
}

// rankLabels 按计数降序取前 n 个标签；计数相同时按标签名排序保证输出稳定
func rankLabels(counts map[string]int, n int) []string {
	labels := make([]string, 0, len(counts))
	for label := range counts {
		labels = append(labels, label)
	}
	sort.Slice(labels, func(i, j int) bool {
		if counts[labels[i]] != counts[labels[j]] {
			return counts[labels[i]] > counts[labels[j]]
		}
		return labels[i] < labels[j]
	})
	if len(labels) > n {
		labels = labels[:n]
	}
	return labels
}

func mean(values []int) float64 {
	sum := 0
	for _, v := range values {
		sum += v
	}
	return float64(sum) / float64(len(values))
}

func stddev(values []int, avg float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		d := float64(v) - avg
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(values)))
}

func minMax(values []int) (int, int) {
	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi
}
