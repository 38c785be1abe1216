package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/resqlink/disaster-server/internal/models"
	"github.com/resqlink/disaster-server/internal/securemsg"
)

// SecureMessageHandler seals and opens emergency messages relayed through
// untrusted channels.
type SecureMessageHandler struct {
	messenger *securemsg.Messenger
	logger    *zap.SugaredLogger
}

// NewSecureMessageHandler creates a new secure message handler
func NewSecureMessageHandler(m *securemsg.Messenger, logger *zap.SugaredLogger) *SecureMessageHandler {
	return &SecureMessageHandler{messenger: m, logger: logger}
}

// encryptRequest is the request body for sealing a message
type encryptRequest struct {
	Message     string `json:"message"`
	RecipientID string `json:"recipient_id"`
}

// Encrypt handles POST /api/v1/secure/encrypt
func (h *SecureMessageHandler) Encrypt(w http.ResponseWriter, r *http.Request) {
	var req encryptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Message == "" {
		respondError(w, http.StatusBadRequest, "Message required")
		return
	}

	payload, err := h.messenger.Encrypt(req.Message, req.RecipientID)
	if err != nil {
		h.logger.Errorw("Failed to encrypt message", "error", err)
		respondError(w, http.StatusInternalServerError, "Encryption failed")
		return
	}

	respondJSON(w, http.StatusOK, payload)
}

// Decrypt handles POST /api/v1/secure/decrypt
// Always responds 200 with a DecryptResult: verification failure is a
// result, not an HTTP error.
func (h *SecureMessageHandler) Decrypt(w http.ResponseWriter, r *http.Request) {
	var payload models.EncryptedMessage
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	respondJSON(w, http.StatusOK, h.messenger.Decrypt(payload))
}
