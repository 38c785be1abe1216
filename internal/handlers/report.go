// Package handlers contains HTTP request handlers for the disaster response
// API. Handlers parse requests, call services and the core engines, and
// return JSON responses.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/resqlink/disaster-server/internal/classifier"
	"github.com/resqlink/disaster-server/internal/models"
	"github.com/resqlink/disaster-server/internal/observability"
	"github.com/resqlink/disaster-server/internal/services"
)

// ReportHandler handles report submission, listing, and re-analysis
type ReportHandler struct {
	reportSvc  *services.ReportService
	classifier *classifier.Classifier
	metrics    *observability.Metrics
	logger     *zap.SugaredLogger
}

// NewReportHandler creates a new report handler
func NewReportHandler(rs *services.ReportService, cl *classifier.Classifier, m *observability.Metrics, logger *zap.SugaredLogger) *ReportHandler {
	return &ReportHandler{reportSvc: rs, classifier: cl, metrics: m, logger: logger}
}

// Submit handles POST /api/v1/reports
// Stores the report and runs authenticity classification on it.
func (h *ReportHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req models.ReportSubmission
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.SubmitterID == "" || req.Type == "" {
		respondError(w, http.StatusBadRequest, "Missing required fields: submitter_id, type")
		return
	}

	report, err := h.reportSvc.Create(r.Context(), &req)
	if err != nil {
		h.logger.Errorw("Failed to create report", "error", err)
		respondError(w, http.StatusInternalServerError, "Failed to submit report")
		return
	}

	classification := h.classifier.Classify(classifier.Input{
		Description: report.Description,
		ImageRefs:   report.ImageRefs,
		Location:    &report.Location,
	})
	report.Classification = &classification

	if err := h.reportSvc.AttachClassification(r.Context(), report.ID, classification); err != nil {
		h.logger.Errorw("Failed to attach classification", "report_id", report.ID, "error", err)
	}

	h.metrics.ReportsClassified.WithLabelValues(classification.RiskLevel).Inc()

	h.logger.Infow("Report submitted",
		"id", report.ID,
		"type", report.Type,
		"confidence", classification.Confidence,
		"risk_level", classification.RiskLevel,
	)

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"message":        "Report submitted and analyzed",
		"report":         report,
		"classification": classification,
	})
}

// All handles GET /api/v1/reports
func (h *ReportHandler) All(w http.ResponseWriter, r *http.Request) {
	reports, err := h.reportSvc.ListRecent(r.Context(), 20)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch reports")
		return
	}
	respondJSON(w, http.StatusOK, reports)
}

// Verified handles GET /api/v1/reports/verified
func (h *ReportHandler) Verified(w http.ResponseWriter, r *http.Request) {
	reports, err := h.reportSvc.ListVerified(r.Context(), 50)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch verified reports")
		return
	}
	respondJSON(w, http.StatusOK, reports)
}

// BySubmitter handles GET /api/v1/reports/submitter/{submitterID}
func (h *ReportHandler) BySubmitter(w http.ResponseWriter, r *http.Request) {
	submitterID := chi.URLParam(r, "submitterID")
	if submitterID == "" {
		respondError(w, http.StatusBadRequest, "Submitter ID required")
		return
	}

	reports, err := h.reportSvc.ListBySubmitter(r.Context(), submitterID, 50)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch reports")
		return
	}
	respondJSON(w, http.StatusOK, reports)
}

// Reanalyze handles POST /api/v1/admin/reports/{id}/analyze
// Re-runs the classifier and replaces the stored classification.
func (h *ReportHandler) Reanalyze(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid report ID")
		return
	}

	report, err := h.reportSvc.FindByID(r.Context(), id)
	if err != nil {
		respondError(w, http.StatusNotFound, "Report not found")
		return
	}

	classification := h.classifier.Classify(classifier.Input{
		Description: report.Description,
		ImageRefs:   report.ImageRefs,
		Location:    &report.Location,
	})
	report.Classification = &classification

	if err := h.reportSvc.AttachClassification(r.Context(), report.ID, classification); err != nil {
		h.logger.Errorw("Failed to attach classification", "report_id", report.ID, "error", err)
		respondError(w, http.StatusInternalServerError, "Failed to store classification")
		return
	}

	h.metrics.ReportsClassified.WithLabelValues(classification.RiskLevel).Inc()

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"report":         report,
		"classification": classification,
	})
}

// Stats handles GET /api/v1/admin/ml/stats
func (h *ReportHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.reportSvc.Stats(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch stats")
		return
	}
	respondJSON(w, http.StatusOK, stats)
}

// Helper: respond with JSON
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// Helper: respond with error
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
