package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// 数据接入
	ReadingsIngested = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "medicore_readings_ingested_total",
			Help: "Total number of sensor readings ingested",
		},
		[]string{"source"},
	)

	IngestErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "medicore_ingest_errors_total",
			Help: "Total number of ingestion failures",
		},
		[]string{"source"},
	)

	// 分析流水线
	AnalysisTicks = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "medicore_analysis_ticks_total",
			Help: "Total number of scheduler analysis passes",
		},
	)

	StageFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "medicore_stage_failures_total",
			Help: "Total number of recovered analysis stage failures",
		},
		[]string{"stage"},
	)

	AlertsRaised = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "medicore_alerts_raised_total",
			Help: "Total number of alerts raised",
		},
		[]string{"severity"},
	)

	TrackedDevices = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "medicore_tracked_devices",
			Help: "Number of devices with patient state",
		},
	)
)

// Handler 返回 /metrics 的 HTTP 处理器
func Handler() http.Handler {
	return promhttp.Handler()
}
