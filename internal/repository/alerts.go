package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"medicore-monitor/internal/models"

	"go.uber.org/zap"
)

// AlertsRepository 报警持久化仓库（对应 alerts 表）
type AlertsRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewAlertsRepository 创建报警仓库
func NewAlertsRepository(db *sql.DB, logger *zap.Logger) *AlertsRepository {
	return &AlertsRepository{
		db:     db,
		logger: logger,
	}
}

// InsertAlert 写入一条报警
func (r *AlertsRepository) InsertAlert(ctx context.Context, alert *models.Alert) error {
	actions, err := json.Marshal(alert.ActionsRequired)
	if err != nil {
		return fmt.Errorf("failed to marshal actions: %w", err)
	}
	snapshot, err := json.Marshal(alert)
	if err != nil {
		return fmt.Errorf("failed to marshal alert: %w", err)
	}

	query := `
		INSERT INTO alerts (
			alert_id,
			device_id,
			severity,
			message,
			actions_required,
			auto_notify,
			raised_at,
			payload
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err = r.db.ExecContext(ctx, query,
		alert.ID,
		alert.DeviceID,
		alert.Severity.String(),
		alert.Message,
		string(actions),
		alert.AutoNotify,
		alert.Timestamp,
		string(snapshot),
	)
	if err != nil {
		return fmt.Errorf("failed to insert alert: %w", err)
	}

	r.logger.Debug("Alert persisted",
		zap.String("alert_id", alert.ID),
		zap.String("device_id", alert.DeviceID),
		zap.String("severity", alert.Severity.String()),
	)

	return nil
}

// ListRecent 按时间倒序返回最近的报警
func (r *AlertsRepository) ListRecent(ctx context.Context, limit int) ([]models.Alert, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `
		SELECT payload
		FROM alerts
		ORDER BY raised_at DESC
		LIMIT $1
	`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query alerts: %w", err)
	}
	defer rows.Close()

	var alerts []models.Alert
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("failed to scan alert row: %w", err)
		}
		var alert models.Alert
		if err := json.Unmarshal([]byte(payload), &alert); err != nil {
			return nil, fmt.Errorf("failed to unmarshal alert payload: %w", err)
		}
		alerts = append(alerts, alert)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate alert rows: %w", err)
	}

	return alerts, nil
}
