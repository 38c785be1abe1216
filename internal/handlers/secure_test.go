package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/resqlink/disaster-server/internal/handlers"
	"github.com/resqlink/disaster-server/internal/models"
	"github.com/resqlink/disaster-server/internal/securemsg"
)

func newSecureHandler(t *testing.T) *handlers.SecureMessageHandler {
	t.Helper()
	clock := clockwork.NewFakeClockAt(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	messenger, err := securemsg.New("test-secret", clock, zap.NewNop().Sugar())
	require.NoError(t, err)
	return handlers.NewSecureMessageHandler(messenger, zap.NewNop().Sugar())
}

func TestSecureMessageHandler_EncryptDecryptRoundTrip(t *testing.T) {
	h := newSecureHandler(t)

	body := `{"message": "medical supplies needed at shelter 4", "recipient_id": "responder-9"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/secure/encrypt", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Encrypt(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var payload models.EncryptedMessage
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&payload))
	assert.NotEmpty(t, payload.Ciphertext)
	assert.Equal(t, "responder-9", payload.RecipientID)

	encoded, err := json.Marshal(payload)
	require.NoError(t, err)

	req = httptest.NewRequest(http.MethodPost, "/api/v1/secure/decrypt", bytes.NewReader(encoded))
	rec = httptest.NewRecorder()
	h.Decrypt(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var result models.DecryptResult
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&result))
	assert.True(t, result.Verified)
	assert.Equal(t, "medical supplies needed at shelter 4", result.Message)
}

func TestSecureMessageHandler_EncryptRequiresMessage(t *testing.T) {
	h := newSecureHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/secure/encrypt", strings.NewReader(`{"recipient_id": "r-1"}`))
	rec := httptest.NewRecorder()
	h.Encrypt(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSecureMessageHandler_DecryptFailureIsNotAnHTTPError(t *testing.T) {
	h := newSecureHandler(t)

	garbage := models.EncryptedMessage{
		Ciphertext:       "00112233",
		IV:               "000000000000000000000000",
		AuthTag:          "00000000000000000000000000000000",
		QuantumSignature: "junk",
	}
	encoded, err := json.Marshal(garbage)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/secure/decrypt", bytes.NewReader(encoded))
	rec := httptest.NewRecorder()
	h.Decrypt(rec, req)

	// Verification failure is a result, not an HTTP error.
	require.Equal(t, http.StatusOK, rec.Code)

	var result models.DecryptResult
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&result))
	assert.False(t, result.Verified)
}

func TestSecureMessageHandler_DecryptRejectsBadJSON(t *testing.T) {
	h := newSecureHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/secure/decrypt", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	h.Decrypt(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
