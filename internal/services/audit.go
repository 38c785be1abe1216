package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/resqlink/disaster-server/internal/models"
)

// AdminAuditService records admin operations (verifications, alert sends,
// broadcasts) in the database. This accountability trail is separate from the
// hash-chained verification ledger: the ledger proves what was verified, the
// audit log records who did what and when across all admin actions.
type AdminAuditService struct {
	db     DB
	logger *zap.SugaredLogger
}

// NewAdminAuditService creates a new admin audit service
func NewAdminAuditService(db DB, logger *zap.SugaredLogger) *AdminAuditService {
	return &AdminAuditService{db: db, logger: logger}
}

// Log records an admin action
func (s *AdminAuditService) Log(ctx context.Context, reportID *uuid.UUID, actionType, description, authority string) error {
	query := `
		INSERT INTO admin_actions (id, report_id, action_type, description, authority, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
	`

	if _, err := s.db.Exec(ctx, query, uuid.New(), reportID, actionType, description, authority); err != nil {
		return fmt.Errorf("insert admin action: %w", err)
	}

	s.logger.Infow("Admin action logged",
		"authority", authority,
		"type", actionType,
		"action", description,
	)

	return nil
}

// FetchRecent returns the newest admin actions
func (s *AdminAuditService) FetchRecent(ctx context.Context, limit int) ([]models.AdminAction, error) {
	query := `
		SELECT id, report_id, action_type, description, authority, created_at
		FROM admin_actions
		ORDER BY created_at DESC
		LIMIT $1
	`

	rows, err := s.db.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var actions []models.AdminAction
	for rows.Next() {
		var a models.AdminAction
		if err := rows.Scan(&a.ID, &a.ReportID, &a.ActionType,
			&a.Description, &a.Authority, &a.CreatedAt); err != nil {
			continue
		}
		actions = append(actions, a)
	}

	return actions, nil
}
