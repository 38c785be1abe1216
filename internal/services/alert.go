package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/resqlink/disaster-server/internal/models"
)

// AlertService persists raised alerts for history and querying
type AlertService struct {
	db     DB
	logger *zap.SugaredLogger
}

// NewAlertService creates a new alert service
func NewAlertService(db DB, logger *zap.SugaredLogger) *AlertService {
	return &AlertService{db: db, logger: logger}
}

// Create stores a new alert record
func (s *AlertService) Create(ctx context.Context, alertType, severity string, location models.Location, description, source string) (*models.AlertRecord, error) {
	record := &models.AlertRecord{
		ID:          uuid.New(),
		Type:        alertType,
		Severity:    severity,
		Location:    location,
		Description: description,
		Source:      source,
		Active:      true,
		CreatedAt:   time.Now(),
	}

	query := `
		INSERT INTO alerts (id, type, severity, location, description, source, active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := s.db.Exec(ctx, query,
		record.ID, record.Type, record.Severity, record.Location,
		record.Description, record.Source, record.Active, record.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert alert: %w", err)
	}

	s.logger.Infow("Alert recorded",
		"id", record.ID,
		"type", record.Type,
		"severity", record.Severity,
		"source", record.Source,
	)

	return record, nil
}

// ListRecent returns alerts newest first, optionally filtered by type and severity
func (s *AlertService) ListRecent(ctx context.Context, alertType, severity string, limit int) ([]models.AlertRecord, error) {
	query := `
		SELECT id, type, severity, location, description, source, active, created_at
		FROM alerts
		WHERE ($1 = '' OR type = $1) AND ($2 = '' OR severity = $2)
		ORDER BY created_at DESC
		LIMIT $3
	`

	rows, err := s.db.Query(ctx, query, alertType, severity, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var alerts []models.AlertRecord
	for rows.Next() {
		var a models.AlertRecord
		if err := rows.Scan(&a.ID, &a.Type, &a.Severity, &a.Location,
			&a.Description, &a.Source, &a.Active, &a.CreatedAt); err != nil {
			continue
		}
		alerts = append(alerts, a)
	}

	return alerts, nil
}

// Count returns the total number of alerts
func (s *AlertService) Count(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRow(ctx, "SELECT COUNT(*) FROM alerts").Scan(&count)
	return count, err
}
