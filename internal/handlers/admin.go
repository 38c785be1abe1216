package handlers

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/resqlink/disaster-server/internal/dispatch"
	"github.com/resqlink/disaster-server/internal/ledger"
	"github.com/resqlink/disaster-server/internal/models"
	"github.com/resqlink/disaster-server/internal/notify"
	"github.com/resqlink/disaster-server/internal/observability"
	"github.com/resqlink/disaster-server/internal/services"
)

// AdminHandler handles admin operations: report verification (ledger append),
// geofenced alert dispatch, and emergency broadcast.
type AdminHandler struct {
	reportSvc    *services.ReportService
	alertSvc     *services.AlertService
	recipientSvc *services.RecipientService
	auditSvc     *services.AdminAuditService
	chain        *ledger.Chain
	dispatcher   *dispatch.Dispatcher
	publisher    notify.Publisher
	metrics      *observability.Metrics
	logger       *zap.SugaredLogger

	defaultRadiusKm float64
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(
	rs *services.ReportService,
	as *services.AlertService,
	recs *services.RecipientService,
	audit *services.AdminAuditService,
	chain *ledger.Chain,
	dispatcher *dispatch.Dispatcher,
	publisher notify.Publisher,
	m *observability.Metrics,
	defaultRadiusKm float64,
	logger *zap.SugaredLogger,
) *AdminHandler {
	if defaultRadiusKm <= 0 {
		defaultRadiusKm = dispatch.DefaultRadiusKm
	}
	return &AdminHandler{
		reportSvc:       rs,
		alertSvc:        as,
		recipientSvc:    recs,
		auditSvc:        audit,
		chain:           chain,
		dispatcher:      dispatcher,
		publisher:       publisher,
		metrics:         m,
		logger:          logger,
		defaultRadiusKm: defaultRadiusKm,
	}
}

// VerifyReport handles PUT /api/v1/admin/reports/{id}/verify
// Marks the report verified (exactly once), appends a verification block to
// the ledger, and raises an official alert from the verified report.
func (h *AdminHandler) VerifyReport(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid report ID")
		return
	}

	verifiedBy := adminID(r)

	report, err := h.reportSvc.MarkVerified(r.Context(), id, verifiedBy)
	if err != nil {
		respondError(w, http.StatusConflict, "Report not found or already verified")
		return
	}

	block := h.chain.Append(models.BlockPayload{
		ReportID:    report.ID.String(),
		Type:        report.Type,
		Location:    report.Location,
		VerifiedBy:  verifiedBy,
		ImageHashes: hashImageRefs(report.ImageRefs),
	})
	h.metrics.LedgerAppends.Inc()

	alert, err := h.alertSvc.Create(r.Context(), report.Type, report.Severity,
		report.Location, report.Description, "User Report (Verified)")
	if err != nil {
		h.logger.Errorw("Failed to create alert from verified report", "report_id", id, "error", err)
	}

	_ = h.auditSvc.Log(r.Context(), &report.ID, "verification",
		fmt.Sprintf("Report verified, ledger block %d appended", block.Index), verifiedBy)

	h.logger.Infow("Report verified",
		"report_id", report.ID,
		"block_index", block.Index,
		"verified_by", verifiedBy,
	)

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"report": report,
		"block":  block,
		"alert":  alert,
	})
}

// SendAlert handles POST /api/v1/admin/alerts/send
// Raises a location-scoped alert: persists it, selects recipients within the
// radius (default 3 km), publishes the payload, and returns the target list.
func (h *AdminHandler) SendAlert(w http.ResponseWriter, r *http.Request) {
	var req models.AlertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Type == "" || req.Severity == "" {
		respondError(w, http.StatusBadRequest, "Missing required fields: type, severity")
		return
	}

	radius := h.defaultRadiusKm
	if req.RadiusKm != nil {
		radius = *req.RadiusKm
	}

	record, err := h.alertSvc.Create(r.Context(), req.Type, req.Severity,
		req.Location, req.Description, "Admin Alert")
	if err != nil {
		h.logger.Errorw("Failed to persist alert", "error", err)
		respondError(w, http.StatusInternalServerError, "Failed to create alert")
		return
	}

	candidates, err := h.recipientSvc.ListCandidates(r.Context())
	if err != nil {
		h.logger.Errorw("Failed to list recipients", "error", err)
		respondError(w, http.StatusInternalServerError, "Failed to load recipients")
		return
	}

	result := h.dispatcher.Dispatch(models.AlertEvent{
		Type:        req.Type,
		Severity:    req.Severity,
		Origin:      req.Location,
		Description: req.Description,
		RadiusKm:    radius,
		CreatedAt:   record.CreatedAt,
	}, candidates)

	if err := h.publisher.Publish(r.Context(), notify.ChannelLocationAlerts, result.Notification); err != nil {
		h.logger.Errorw("Failed to publish alert notification", "error", err)
	}

	h.metrics.AlertsDispatched.WithLabelValues("geofenced").Inc()
	h.metrics.RecipientsPerAlert.Observe(float64(len(result.Selected)))

	_ = h.auditSvc.Log(r.Context(), nil, "alert_dispatch",
		fmt.Sprintf("%s %s alert, %d recipients within %gkm", req.Severity, req.Type, len(result.Selected), radius),
		adminID(r))

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"alert":          record,
		"notified_users": len(result.Selected),
		"target_users":   result.Selected,
		"notification":   result.Notification,
	})
}

// LocationAlert handles POST /api/v1/admin/alerts/location
// Targets recipients near a raw coordinate pair with a free-form message.
// Unlike SendAlert nothing is persisted: this is a direct tap on the
// real-time channel.
func (h *AdminHandler) LocationAlert(w http.ResponseWriter, r *http.Request) {
	var req models.LocationAlertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Message == "" {
		respondError(w, http.StatusBadRequest, "Message required")
		return
	}

	radius := h.defaultRadiusKm
	if req.RadiusKm != nil {
		radius = *req.RadiusKm
	}

	candidates, err := h.recipientSvc.ListCandidates(r.Context())
	if err != nil {
		h.logger.Errorw("Failed to list recipients", "error", err)
		respondError(w, http.StatusInternalServerError, "Failed to load recipients")
		return
	}

	result := h.dispatcher.Target(req.Message, req.Lat, req.Lng, radius, candidates)

	if err := h.publisher.Publish(r.Context(), notify.ChannelTargeted, result.Notification); err != nil {
		h.logger.Errorw("Failed to publish targeted alert", "error", err)
	}

	h.metrics.AlertsDispatched.WithLabelValues("targeted").Inc()
	h.metrics.RecipientsPerAlert.Observe(float64(len(result.Selected)))

	_ = h.auditSvc.Log(r.Context(), nil, "location_alert",
		fmt.Sprintf("Targeted alert, %d recipients within %gkm of (%g, %g)",
			len(result.Selected), radius, req.Lat, req.Lng),
		adminID(r))

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"notified_users": len(result.Selected),
		"target_users":   result.Selected,
	})
}

// Broadcast handles POST /api/v1/admin/broadcast
// Targets every known recipient, bypassing the geofence.
func (h *AdminHandler) Broadcast(w http.ResponseWriter, r *http.Request) {
	var req models.BroadcastRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Message == "" {
		respondError(w, http.StatusBadRequest, "Message required")
		return
	}

	candidates, err := h.recipientSvc.ListCandidates(r.Context())
	if err != nil {
		h.logger.Errorw("Failed to list recipients", "error", err)
		respondError(w, http.StatusInternalServerError, "Failed to load recipients")
		return
	}

	result := h.dispatcher.Broadcast(req.Message, candidates)

	if err := h.publisher.Publish(r.Context(), notify.ChannelBroadcast, result.Notification); err != nil {
		h.logger.Errorw("Failed to publish broadcast", "error", err)
	}

	h.metrics.AlertsDispatched.WithLabelValues("broadcast").Inc()
	h.metrics.RecipientsPerAlert.Observe(float64(len(result.Selected)))

	_ = h.auditSvc.Log(r.Context(), nil, "broadcast",
		fmt.Sprintf("Emergency broadcast to %d recipients", len(result.Selected)),
		adminID(r))

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"message":        "Broadcast sent successfully",
		"notified_users": len(result.Selected),
	})
}

// Stats handles GET /api/v1/admin/stats
func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	totalReports, err := h.reportSvc.Count(r.Context())
	if err != nil {
		h.logger.Errorw("Failed to count reports", "error", err)
		respondError(w, http.StatusInternalServerError, "Failed to fetch stats")
		return
	}
	unverified, err := h.reportSvc.CountUnverified(r.Context())
	if err != nil {
		h.logger.Errorw("Failed to count unverified reports", "error", err)
		respondError(w, http.StatusInternalServerError, "Failed to fetch stats")
		return
	}
	totalAlerts, err := h.alertSvc.Count(r.Context())
	if err != nil {
		h.logger.Errorw("Failed to count alerts", "error", err)
		respondError(w, http.StatusInternalServerError, "Failed to fetch stats")
		return
	}
	totalRecipients, err := h.recipientSvc.CountRecipients(r.Context())
	if err != nil {
		h.logger.Errorw("Failed to count recipients", "error", err)
		respondError(w, http.StatusInternalServerError, "Failed to fetch stats")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"total_reports":      totalReports,
		"unverified_reports": unverified,
		"total_alerts":       totalAlerts,
		"total_recipients":   totalRecipients,
		"chain_length":       h.chain.Length(),
	})
}

// RecentActions handles GET /api/v1/admin/actions
func (h *AdminHandler) RecentActions(w http.ResponseWriter, r *http.Request) {
	actions, err := h.auditSvc.FetchRecent(r.Context(), 100)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch admin actions")
		return
	}
	respondJSON(w, http.StatusOK, actions)
}

// adminID identifies the acting admin from the request headers.
func adminID(r *http.Request) string {
	if id := r.Header.Get("X-Admin-ID"); id != "" {
		return id
	}
	return "admin"
}

// hashImageRefs digests each image reference for the ledger payload. The
// refs are storage keys, so hashing them pins which artifacts were reviewed
// without embedding the keys themselves in the chain.
func hashImageRefs(refs []string) []string {
	hashes := make([]string, 0, len(refs))
	for _, ref := range refs {
		sum := sha256.Sum256([]byte(ref))
		hashes = append(hashes, hex.EncodeToString(sum[:]))
	}
	return hashes
}
