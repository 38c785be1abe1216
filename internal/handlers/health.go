package handlers

import (
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/resqlink/disaster-server/internal/ledger"
	"github.com/resqlink/disaster-server/internal/models"
)

var startTime = time.Now()

const version = "1.2.0"

// HealthHandler provides health check endpoints
type HealthHandler struct {
	db     *pgxpool.Pool
	chain  *ledger.Chain
	logger *zap.SugaredLogger
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(db *pgxpool.Pool, chain *ledger.Chain, logger *zap.SugaredLogger) *HealthHandler {
	return &HealthHandler{db: db, chain: chain, logger: logger}
}

// Check handles GET /api/v1/health (liveness probe)
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, models.HealthStatus{
		Status:  "ok",
		Version: version,
		Uptime:  time.Since(startTime).String(),
	})
}

// Ready handles GET /api/v1/health/ready (readiness probe)
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	dbStatus := "connected"
	if err := h.db.Ping(r.Context()); err != nil {
		dbStatus = "disconnected"
		respondJSON(w, http.StatusServiceUnavailable, models.HealthStatus{
			Status:   "not ready",
			Version:  version,
			Database: dbStatus,
		})
		return
	}

	respondJSON(w, http.StatusOK, models.HealthStatus{
		Status:      "ready",
		Version:     version,
		Uptime:      time.Since(startTime).String(),
		Database:    dbStatus,
		ChainLength: h.chain.Length(),
	})
}
