package handlers

import (
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/resqlink/disaster-server/internal/services"
)

// AlertHandler handles public alert listing
type AlertHandler struct {
	alertSvc *services.AlertService
	logger   *zap.SugaredLogger
}

// NewAlertHandler creates a new alert handler
func NewAlertHandler(as *services.AlertService, logger *zap.SugaredLogger) *AlertHandler {
	return &AlertHandler{alertSvc: as, logger: logger}
}

// List handles GET /api/v1/alerts?type=&severity=&limit=
func (h *AlertHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}

	alerts, err := h.alertSvc.ListRecent(r.Context(),
		r.URL.Query().Get("type"), r.URL.Query().Get("severity"), limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch alerts")
		return
	}

	respondJSON(w, http.StatusOK, alerts)
}
