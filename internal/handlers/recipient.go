package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/resqlink/disaster-server/internal/services"
)

// RecipientHandler manages alert recipient registrations
type RecipientHandler struct {
	recipientSvc *services.RecipientService
	logger       *zap.SugaredLogger
}

// NewRecipientHandler creates a new recipient handler
func NewRecipientHandler(rs *services.RecipientService, logger *zap.SugaredLogger) *RecipientHandler {
	return &RecipientHandler{recipientSvc: rs, logger: logger}
}

// locationUpdate is the request body for a location update. ContactRef is
// the push/socket reference alerts are delivered to; it is optional on
// subsequent updates once registered.
type locationUpdate struct {
	Lat        float64 `json:"lat"`
	Lng        float64 `json:"lng"`
	Address    string  `json:"address"`
	ContactRef string  `json:"contact_ref"`
}

// UpdateLocation handles PUT /api/v1/recipients/{id}/location
// Stores the recipient's latest position so future geofenced alerts can
// target them.
func (h *RecipientHandler) UpdateLocation(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		respondError(w, http.StatusBadRequest, "Recipient ID required")
		return
	}

	var update locationUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.recipientSvc.UpdateLocation(r.Context(), id, update.Lat, update.Lng, update.Address, update.ContactRef); err != nil {
		h.logger.Errorw("Failed to update recipient location", "id", id, "error", err)
		respondError(w, http.StatusInternalServerError, "Failed to update location")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"message": "Location updated successfully"})
}
