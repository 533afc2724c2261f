package httpapi

import (
	"context"
	"errors"
	"math"
	"net/http"
	"time"

	"medicore-monitor/internal/coordinator"
	"medicore-monitor/internal/models"
	"medicore-monitor/internal/store"

	"go.uber.org/zap"
)

// Analyzer 按设备触发一轮完整分析
type Analyzer interface {
	Analyze(ctx context.Context, deviceID string) (*coordinator.Result, error)
	Summarize(ctx context.Context, result *coordinator.Result) string
}

// MonitorHandler 监护查询与手动分析API
type MonitorHandler struct {
	store       *store.PatientStore
	activityLog *store.ActivityLog
	alertLog    *store.AlertLog
	analyzer    Analyzer
	logger      *zap.Logger
}

func NewMonitorHandler(
	patientStore *store.PatientStore,
	activityLog *store.ActivityLog,
	alertLog *store.AlertLog,
	analyzer Analyzer,
	logger *zap.Logger,
) *MonitorHandler {
	return &MonitorHandler{
		store:       patientStore,
		activityLog: activityLog,
		alertLog:    alertLog,
		analyzer:    analyzer,
		logger:      logger,
	}
}

// GetPatientStates 所有设备的状态摘要
func (h *MonitorHandler) GetPatientStates(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"patients": h.store.All(),
	})
}

// vitalsStats 详情页的简要体征统计
type vitalsStats struct {
	HRAvg   float64 `json:"hr_avg"`
	HRMin   int     `json:"hr_min"`
	HRMax   int     `json:"hr_max"`
	SpO2Avg float64 `json:"spo2_avg"`
	SpO2Min int     `json:"spo2_min"`
}

// GetPatientDetail 单设备详情：状态、最近20条读数、体征统计、相关报警
func (h *MonitorHandler) GetPatientDetail(w http.ResponseWriter, _ *http.Request, deviceID string) {
	view, err := h.store.Get(deviceID)
	if err != nil {
		if errors.Is(err, store.ErrDeviceNotFound) {
			writeError(w, http.StatusNotFound, "device not found")
			return
		}
		h.logger.Error("Failed to get patient state", zap.String("device_id", deviceID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	snapshot, err := h.store.Snapshot(deviceID)
	if err != nil {
		writeError(w, http.StatusNotFound, "device not found")
		return
	}

	recent := snapshot
	if len(recent) > 20 {
		recent = recent[len(recent)-20:]
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"state":           view,
		"recent_readings": recent,
		"vitals_stats":    computeVitalsStats(snapshot),
		"alerts":          h.alertLog.RecentForDevice(deviceID, 10),
	})
}

// GetActiveAlerts 最近报警（默认20条，?limit= 可调）
func (h *MonitorHandler) GetActiveAlerts(w http.ResponseWriter, r *http.Request) {
	limit := parseInt(r.URL.Query().Get("limit"), 20)
	writeJSON(w, http.StatusOK, map[string]any{
		"alerts": h.alertLog.Recent(limit),
	})
}

// GetAgentActivity 最近的分析活动条目（默认50条）
func (h *MonitorHandler) GetAgentActivity(w http.ResponseWriter, r *http.Request) {
	limit := parseInt(r.URL.Query().Get("limit"), 50)
	writeJSON(w, http.StatusOK, map[string]any{
		"activities": h.activityLog.Recent(limit),
	})
}

// GetAgentActivityDetail 按ID查询单条活动（含完整载荷）
func (h *MonitorHandler) GetAgentActivityDetail(w http.ResponseWriter, _ *http.Request, id string) {
	entry, ok := h.activityLog.Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, "activity not found")
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

// ForceAnalysis 立即对单设备执行一轮分析并返回结果与摘要
func (h *MonitorHandler) ForceAnalysis(w http.ResponseWriter, r *http.Request, deviceID string) {
	ctx, cancel := context.WithTimeout(r.Context(), 60*time.Second)
	defer cancel()

	result, err := h.analyzer.Analyze(ctx, deviceID)
	if err != nil {
		if errors.Is(err, store.ErrDeviceNotFound) {
			writeError(w, http.StatusNotFound, "device not found")
			return
		}
		h.logger.Error("Forced analysis failed", zap.String("device_id", deviceID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "analysis failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"result":  result,
		"summary": h.analyzer.Summarize(ctx, result),
	})
}

func computeVitalsStats(readings []models.Reading) vitalsStats {
	stats := vitalsStats{}

	var hrSum, hrN, spo2Sum, spo2N int
	hrMin, spo2Min := math.MaxInt, math.MaxInt
	for _, r := range readings {
		if r.HR > 0 {
			hrSum += r.HR
			hrN++
			if r.HR < hrMin {
				hrMin = r.HR
			}
			if r.HR > stats.HRMax {
				stats.HRMax = r.HR
			}
		}
		if r.SpO2 > 0 {
			spo2Sum += r.SpO2
			spo2N++
			if r.SpO2 < spo2Min {
				spo2Min = r.SpO2
			}
		}
	}
	if hrN > 0 {
		stats.HRAvg = math.Round(float64(hrSum)/float64(hrN)*10) / 10
		stats.HRMin = hrMin
	}
	if spo2N > 0 {
		stats.SpO2Avg = math.Round(float64(spo2Sum)/float64(spo2N)*10) / 10
		stats.SpO2Min = spo2Min
	}
	return stats
}
