package dispatch_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/resqlink/disaster-server/internal/dispatch"
	"github.com/resqlink/disaster-server/internal/models"
)

var origin = models.Location{Lat: 28.6139, Lng: 77.2090, Address: "Connaught Place, New Delhi"}

func newDispatcher() *dispatch.Dispatcher {
	clock := clockwork.NewFakeClockAt(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	return dispatch.New(clock, zap.NewNop().Sugar())
}

// nearCandidate is ~1.1 km from the origin per 0.01 degrees of latitude.
func nearCandidate(id int, latOffset float64) models.RecipientCandidate {
	return models.RecipientCandidate{
		ID:         fmt.Sprintf("user-%d", id),
		Lat:        origin.Lat + latOffset,
		Lng:        origin.Lng,
		ContactRef: fmt.Sprintf("push:user-%d", id),
	}
}

func alertEvent(radiusKm float64) models.AlertEvent {
	return models.AlertEvent{
		Type:        "earthquake",
		Severity:    models.SeverityHigh,
		Origin:      origin,
		Description: "Strong tremors reported",
		RadiusKm:    radiusKm,
	}
}

func TestDispatch_CapsFanOutAtTen(t *testing.T) {
	d := newDispatcher()

	// 12 candidates inside the 3 km radius, 3 far outside.
	candidates := make([]models.RecipientCandidate, 0, 15)
	for i := 0; i < 12; i++ {
		candidates = append(candidates, nearCandidate(i, 0.001*float64(i)))
	}
	for i := 12; i < 15; i++ {
		candidates = append(candidates, nearCandidate(i, 1.0))
	}

	result := d.Dispatch(alertEvent(3), candidates)

	require.Len(t, result.Selected, dispatch.MaxRecipients)
	for i, selected := range result.Selected {
		// Discovery order preserved: first ten in-radius candidates win.
		assert.Equal(t, fmt.Sprintf("user-%d", i), selected.ID)
		assert.LessOrEqual(t, selected.DistanceKm, 3.0)
	}
	assert.Len(t, result.Notification.TargetIDs, dispatch.MaxRecipients)
}

func TestDispatch_FiltersByRadius(t *testing.T) {
	d := newDispatcher()

	candidates := []models.RecipientCandidate{
		nearCandidate(0, 0.01), // ~1.1 km, in
		nearCandidate(1, 0.05), // ~5.6 km, out
		nearCandidate(2, 0.02), // ~2.2 km, in
	}

	result := d.Dispatch(alertEvent(3), candidates)

	require.Len(t, result.Selected, 2)
	assert.Equal(t, "user-0", result.Selected[0].ID)
	assert.Equal(t, "user-2", result.Selected[1].ID)
}

func TestDispatch_EmptyCandidates(t *testing.T) {
	d := newDispatcher()

	result := d.Dispatch(alertEvent(3), nil)

	assert.Empty(t, result.Selected)
	assert.Empty(t, result.Notification.TargetIDs)
	assert.NotEmpty(t, result.Notification.Message)
	assert.Equal(t, origin.Address, result.Notification.Address)
}

func TestDispatch_ZeroRadiusSelectsOnlyColocated(t *testing.T) {
	d := newDispatcher()

	colocated := models.RecipientCandidate{ID: "user-here", Lat: origin.Lat, Lng: origin.Lng}
	candidates := []models.RecipientCandidate{nearCandidate(0, 0.001), colocated}

	result := d.Dispatch(alertEvent(0), candidates)

	require.Len(t, result.Selected, 1)
	assert.Equal(t, "user-here", result.Selected[0].ID)
	assert.Equal(t, 0.0, result.Selected[0].DistanceKm)
}

func TestDispatch_NegativeRadiusSelectsNone(t *testing.T) {
	d := newDispatcher()

	candidates := []models.RecipientCandidate{
		{ID: "user-here", Lat: origin.Lat, Lng: origin.Lng},
		nearCandidate(0, 0.001),
	}

	result := d.Dispatch(alertEvent(-1), candidates)
	assert.Empty(t, result.Selected)
}

func TestDispatch_MessageCarriesSeverityAndRadius(t *testing.T) {
	d := newDispatcher()

	result := d.Dispatch(alertEvent(3), nil)

	assert.Contains(t, result.Notification.Message, "HIGH")
	assert.Contains(t, result.Notification.Message, "earthquake")
	assert.Contains(t, result.Notification.Message, "3km")
	assert.Contains(t, result.Notification.Message, "Strong tremors reported")
	assert.False(t, result.Notification.Broadcast)
}

func TestTarget_SelectsByCoordinatesAndWrapsMessage(t *testing.T) {
	d := newDispatcher()

	candidates := []models.RecipientCandidate{
		nearCandidate(0, 0.01), // ~1.1 km, in
		nearCandidate(1, 0.5),  // ~56 km, out
		nearCandidate(2, 0.02), // ~2.2 km, in
	}

	result := d.Target("Chemical spill reported, avoid the area", origin.Lat, origin.Lng, 3, candidates)

	require.Len(t, result.Selected, 2)
	assert.Equal(t, "user-0", result.Selected[0].ID)
	assert.Equal(t, "user-2", result.Selected[1].ID)
	assert.Equal(t, "🚨 LOCATION ALERT: Chemical spill reported, avoid the area", result.Notification.Message)
	assert.Equal(t, origin.Lat, result.Notification.Lat)
	assert.Equal(t, origin.Lng, result.Notification.Lng)
	assert.False(t, result.Notification.Broadcast)
}

func TestTarget_CapsFanOutAtTen(t *testing.T) {
	d := newDispatcher()

	candidates := make([]models.RecipientCandidate, 0, 12)
	for i := 0; i < 12; i++ {
		candidates = append(candidates, nearCandidate(i, 0.001*float64(i)))
	}

	result := d.Target("stay indoors", origin.Lat, origin.Lng, 3, candidates)
	assert.Len(t, result.Selected, dispatch.MaxRecipients)
}

func TestBroadcast_TargetsEveryone(t *testing.T) {
	d := newDispatcher()

	candidates := make([]models.RecipientCandidate, 0, 25)
	for i := 0; i < 25; i++ {
		candidates = append(candidates, nearCandidate(i, float64(i))) // most far outside any radius
	}

	result := d.Broadcast("Evacuate low-lying areas immediately", candidates)

	assert.Len(t, result.Selected, 25)
	assert.Len(t, result.Notification.TargetIDs, 25)
	assert.True(t, result.Notification.Broadcast)
	assert.Contains(t, result.Notification.Message, "EMERGENCY BROADCAST")
	assert.Contains(t, result.Notification.Message, "Evacuate low-lying areas immediately")
}

func TestBroadcast_EmptyCandidates(t *testing.T) {
	d := newDispatcher()

	result := d.Broadcast("test message", nil)

	assert.Empty(t, result.Selected)
	assert.True(t, result.Notification.Broadcast)
}
