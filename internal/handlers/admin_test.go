package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/resqlink/disaster-server/internal/dispatch"
	"github.com/resqlink/disaster-server/internal/handlers"
	"github.com/resqlink/disaster-server/internal/ledger"
	"github.com/resqlink/disaster-server/internal/observability"
	"github.com/resqlink/disaster-server/internal/services"
)

// publisherStub records published channels without a Redis connection.
type publisherStub struct {
	channels []string
}

func (p *publisherStub) Publish(ctx context.Context, channel string, payload any) error {
	p.channels = append(p.channels, channel)
	return nil
}

func newAdminHandler(t *testing.T) (*handlers.AdminHandler, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)

	nop := zap.NewNop().Sugar()
	clock := clockwork.NewFakeClockAt(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))

	h := handlers.NewAdminHandler(
		services.NewReportService(mock, nop),
		services.NewAlertService(mock, nop),
		services.NewRecipientService(mock, nop),
		services.NewAdminAuditService(mock, nop),
		ledger.New(clock, nop),
		dispatch.New(clock, nop),
		&publisherStub{},
		observability.NewMetricsForTesting(),
		3.0,
		nop,
	)
	return h, mock
}

func countRow(n int64) *pgxmock.Rows {
	return pgxmock.NewRows([]string{"count"}).AddRow(n)
}

func TestAdminStats_ReportsCounts(t *testing.T) {
	h, mock := newAdminHandler(t)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM reports`).WillReturnRows(countRow(12))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM reports WHERE verified = FALSE`).WillReturnRows(countRow(5))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM alerts`).WillReturnRows(countRow(3))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM recipients`).WillReturnRows(countRow(40))

	rec := httptest.NewRecorder()
	h.Stats(rec, httptest.NewRequest(http.MethodGet, "/api/v1/admin/stats", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.EqualValues(t, 12, body["total_reports"])
	assert.EqualValues(t, 5, body["unverified_reports"])
	assert.EqualValues(t, 3, body["total_alerts"])
	assert.EqualValues(t, 40, body["total_recipients"])
	assert.EqualValues(t, 1, body["chain_length"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

// A database outage must surface as a server error, not as all-zero stats.
func TestAdminStats_DatabaseErrorIs500(t *testing.T) {
	h, mock := newAdminHandler(t)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM reports`).
		WillReturnError(errors.New("connection refused"))

	rec := httptest.NewRecorder()
	h.Stats(rec, httptest.NewRequest(http.MethodGet, "/api/v1/admin/stats", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Failed to fetch stats", body["error"])
}

func TestLocationAlert_TargetsNearbyRecipients(t *testing.T) {
	h, mock := newAdminHandler(t)

	rows := pgxmock.NewRows([]string{"id", "lat", "lng", "contact_ref"}).
		AddRow("user-1", 28.6139, 77.2090, "push:user-1").
		AddRow("user-2", 29.5, 78.0, "push:user-2") // ~125 km away

	mock.ExpectQuery(`SELECT id, lat, lng, COALESCE\(contact_ref, ''\)`).
		WillReturnRows(rows)
	mock.ExpectExec(`INSERT INTO admin_actions`).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	payload := `{"lat": 28.6139, "lng": 77.2090, "message": "Chemical spill, avoid the area"}`
	rec := httptest.NewRecorder()
	h.LocationAlert(rec, httptest.NewRequest(http.MethodPost, "/api/v1/admin/alerts/location",
		bytes.NewBufferString(payload)))

	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		NotifiedUsers int `json:"notified_users"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 1, body.NotifiedUsers)
}

func TestLocationAlert_MessageRequired(t *testing.T) {
	h, _ := newAdminHandler(t)

	rec := httptest.NewRecorder()
	h.LocationAlert(rec, httptest.NewRequest(http.MethodPost, "/api/v1/admin/alerts/location",
		bytes.NewBufferString(`{"lat": 1, "lng": 2}`)))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
