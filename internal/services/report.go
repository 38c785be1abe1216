// Package services contains business logic layers.
// Services are called by handlers and interact with the database.
package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"github.com/resqlink/disaster-server/internal/models"
)

// DB is the query surface services need from the connection pool.
// *pgxpool.Pool satisfies it.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// ReportService handles disaster report persistence
type ReportService struct {
	db     DB
	logger *zap.SugaredLogger
}

// NewReportService creates a new report service
func NewReportService(db DB, logger *zap.SugaredLogger) *ReportService {
	return &ReportService{db: db, logger: logger}
}

const reportColumns = `id, submitter_id, type, description, image_refs, location, hashtags, severity, verified, COALESCE(verified_by, ''), classification, created_at`

// Create stores a newly submitted report
func (s *ReportService) Create(ctx context.Context, req *models.ReportSubmission) (*models.Report, error) {
	report := &models.Report{
		ID:          uuid.New(),
		SubmitterID: req.SubmitterID,
		Type:        req.Type,
		Description: req.Description,
		ImageRefs:   req.ImageRefs,
		Location:    req.Location,
		Hashtags:    req.Hashtags,
		Severity:    req.Severity,
		CreatedAt:   time.Now(),
	}
	if report.Severity == "" {
		report.Severity = models.SeverityMedium
	}

	query := `
		INSERT INTO reports (id, submitter_id, type, description, image_refs, location, hashtags, severity, verified, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, FALSE, $9)
	`

	_, err := s.db.Exec(ctx, query,
		report.ID, report.SubmitterID, report.Type, report.Description,
		report.ImageRefs, report.Location, report.Hashtags, report.Severity,
		report.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert report: %w", err)
	}

	return report, nil
}

// AttachClassification stores the classifier verdict on a report, replacing
// any previous classification wholesale.
func (s *ReportService) AttachClassification(ctx context.Context, id uuid.UUID, c models.Classification) error {
	_, err := s.db.Exec(ctx, `UPDATE reports SET classification = $1 WHERE id = $2`, c, id)
	if err != nil {
		return fmt.Errorf("attach classification: %w", err)
	}
	return nil
}

// FindByID returns a single report
func (s *ReportService) FindByID(ctx context.Context, id uuid.UUID) (*models.Report, error) {
	query := `SELECT ` + reportColumns + ` FROM reports WHERE id = $1`

	var r models.Report
	row := s.db.QueryRow(ctx, query, id)
	err := row.Scan(&r.ID, &r.SubmitterID, &r.Type, &r.Description, &r.ImageRefs,
		&r.Location, &r.Hashtags, &r.Severity, &r.Verified, &r.VerifiedBy,
		&r.Classification, &r.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("report not found: %w", err)
	}

	return &r, nil
}

// MarkVerified flips a report's verified flag from false to true. A report
// that is already verified (or missing) is an error: verification happens
// exactly once.
func (s *ReportService) MarkVerified(ctx context.Context, id uuid.UUID, verifiedBy string) (*models.Report, error) {
	query := `
		UPDATE reports SET verified = TRUE, verified_by = $1
		WHERE id = $2 AND verified = FALSE
	`

	tag, err := s.db.Exec(ctx, query, verifiedBy, id)
	if err != nil {
		return nil, fmt.Errorf("mark verified: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, fmt.Errorf("report %s not found or already verified", id)
	}

	return s.FindByID(ctx, id)
}

// ListRecent returns the newest reports
func (s *ReportService) ListRecent(ctx context.Context, limit int) ([]models.Report, error) {
	query := `SELECT ` + reportColumns + ` FROM reports ORDER BY created_at DESC LIMIT $1`
	return s.list(ctx, query, limit)
}

// ListVerified returns verified reports, newest first
func (s *ReportService) ListVerified(ctx context.Context, limit int) ([]models.Report, error) {
	query := `SELECT ` + reportColumns + ` FROM reports WHERE verified = TRUE ORDER BY created_at DESC LIMIT $1`
	return s.list(ctx, query, limit)
}

// ListBySubmitter returns one submitter's reports, newest first
func (s *ReportService) ListBySubmitter(ctx context.Context, submitterID string, limit int) ([]models.Report, error) {
	query := `SELECT ` + reportColumns + ` FROM reports WHERE submitter_id = $1 ORDER BY created_at DESC LIMIT $2`
	return s.list(ctx, query, submitterID, limit)
}

func (s *ReportService) list(ctx context.Context, query string, args ...any) ([]models.Report, error) {
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reports []models.Report
	for rows.Next() {
		var r models.Report
		if err := rows.Scan(&r.ID, &r.SubmitterID, &r.Type, &r.Description, &r.ImageRefs,
			&r.Location, &r.Hashtags, &r.Severity, &r.Verified, &r.VerifiedBy,
			&r.Classification, &r.CreatedAt); err != nil {
			continue
		}
		reports = append(reports, r)
	}

	return reports, nil
}

// Count returns the total number of reports
func (s *ReportService) Count(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRow(ctx, "SELECT COUNT(*) FROM reports").Scan(&count)
	return count, err
}

// CountUnverified returns the number of reports awaiting admin review
func (s *ReportService) CountUnverified(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRow(ctx, "SELECT COUNT(*) FROM reports WHERE verified = FALSE").Scan(&count)
	return count, err
}

// Stats aggregates classification outcomes across all stored reports
func (s *ReportService) Stats(ctx context.Context) (*models.ClassifierStats, error) {
	query := `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE (classification->>'is_authentic')::BOOLEAN),
			COUNT(*) FILTER (WHERE NOT (classification->>'is_authentic')::BOOLEAN),
			COUNT(*) FILTER (WHERE classification IS NULL)
		FROM reports
	`

	var stats models.ClassifierStats
	err := s.db.QueryRow(ctx, query).Scan(
		&stats.TotalReports, &stats.AuthenticReports,
		&stats.SuspiciousReports, &stats.Unanalyzed,
	)
	if err != nil {
		return nil, fmt.Errorf("report stats: %w", err)
	}

	if stats.TotalReports > 0 {
		stats.AccuracyRate = stats.AuthenticReports * 100 / stats.TotalReports
	}

	return &stats, nil
}
