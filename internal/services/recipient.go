package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/resqlink/disaster-server/internal/models"
)

// RecipientService manages the registry of alert recipients and their
// last-known locations. The dispatcher's candidate set comes from here.
type RecipientService struct {
	db     DB
	logger *zap.SugaredLogger
}

// NewRecipientService creates a new recipient service
func NewRecipientService(db DB, logger *zap.SugaredLogger) *RecipientService {
	return &RecipientService{db: db, logger: logger}
}

// ListCandidates returns every recipient with a known location, in stable
// registration order.
func (s *RecipientService) ListCandidates(ctx context.Context) ([]models.RecipientCandidate, error) {
	query := `
		SELECT id, lat, lng, COALESCE(contact_ref, '')
		FROM recipients
		WHERE lat IS NOT NULL AND lng IS NOT NULL
		ORDER BY created_at
	`

	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list candidates: %w", err)
	}
	defer rows.Close()

	var candidates []models.RecipientCandidate
	for rows.Next() {
		var c models.RecipientCandidate
		if err := rows.Scan(&c.ID, &c.Lat, &c.Lng, &c.ContactRef); err != nil {
			s.logger.Warnw("Skipping unreadable recipient row", "error", err)
			continue
		}
		candidates = append(candidates, c)
	}

	return candidates, nil
}

// UpdateLocation stores a recipient's latest position and contact reference.
// An empty contactRef keeps whatever reference the row already carries.
func (s *RecipientService) UpdateLocation(ctx context.Context, id string, lat, lng float64, address, contactRef string) error {
	query := `
		INSERT INTO recipients (id, lat, lng, address, contact_ref, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		ON CONFLICT (id) DO UPDATE SET
			lat = $2, lng = $3, address = $4,
			contact_ref = COALESCE(NULLIF($5, ''), recipients.contact_ref)
	`

	if _, err := s.db.Exec(ctx, query, id, lat, lng, address, contactRef); err != nil {
		return fmt.Errorf("update recipient location: %w", err)
	}

	s.logger.Debugw("Recipient location updated", "id", id)
	return nil
}

// CountRecipients returns the number of registered recipients
func (s *RecipientService) CountRecipients(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRow(ctx, "SELECT COUNT(*) FROM recipients").Scan(&count)
	return count, err
}
