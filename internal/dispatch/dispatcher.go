// Package dispatch selects alert recipients by distance from an alert origin
// and builds the notification payload handed to the real-time transport.
// The dispatcher is pure selection logic: fan-out to connected clients is the
// publisher's job.
package dispatch

import (
	"fmt"
	"strings"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/resqlink/disaster-server/internal/geo"
	"github.com/resqlink/disaster-server/internal/models"
)

const (
	// DefaultRadiusKm applies when an alert request carries no radius.
	DefaultRadiusKm = 3.0

	// MaxRecipients caps the fan-out of a single geofenced dispatch.
	MaxRecipients = 10
)

// Result is the outcome of a dispatch: the chosen recipients with their
// distances, and the payload to publish.
type Result struct {
	Selected     []models.SelectedRecipient `json:"selected"`
	Notification models.NotificationPayload `json:"notification"`
}

// Dispatcher performs geofenced recipient selection. Stateless and safe for
// concurrent use.
type Dispatcher struct {
	clock  clockwork.Clock
	logger *zap.SugaredLogger
}

// New creates a dispatcher.
func New(clock clockwork.Clock, logger *zap.SugaredLogger) *Dispatcher {
	return &Dispatcher{clock: clock, logger: logger}
}

// Dispatch filters candidates to those within alert.RadiusKm of the origin,
// preserving candidate order and capping the selection at MaxRecipients.
// An empty candidate set yields an empty selection and a well-formed payload.
// The radius is honored as given: a zero radius selects only co-located
// candidates, a negative radius selects none.
func (d *Dispatcher) Dispatch(alert models.AlertEvent, candidates []models.RecipientCandidate) Result {
	selected := selectWithin(alert.Origin.Lat, alert.Origin.Lng, alert.RadiusKm, candidates)

	message := fmt.Sprintf("🚨 URGENT: %s %s alert within %gkm of your location: %s",
		strings.ToUpper(alert.Severity), alert.Type, alert.RadiusKm, alert.Description)

	result := Result{
		Selected: selected,
		Notification: models.NotificationPayload{
			Message:   message,
			TargetIDs: targetIDs(selected),
			Address:   alert.Origin.Address,
			Lat:       alert.Origin.Lat,
			Lng:       alert.Origin.Lng,
			IssuedAt:  d.clock.Now(),
		},
	}

	if d.logger != nil {
		d.logger.Infow("Alert dispatched",
			"type", alert.Type,
			"severity", alert.Severity,
			"radius_km", alert.RadiusKm,
			"candidates", len(candidates),
			"selected", len(selected),
		)
	}

	return result
}

// Target selects candidates within radiusKm of a raw coordinate pair and
// wraps the given message verbatim. Unlike Dispatch it carries no alert
// metadata: the caller supplies the full message text.
func (d *Dispatcher) Target(message string, lat, lng, radiusKm float64, candidates []models.RecipientCandidate) Result {
	selected := selectWithin(lat, lng, radiusKm, candidates)

	result := Result{
		Selected: selected,
		Notification: models.NotificationPayload{
			Message:   fmt.Sprintf("🚨 LOCATION ALERT: %s", message),
			TargetIDs: targetIDs(selected),
			Lat:       lat,
			Lng:       lng,
			IssuedAt:  d.clock.Now(),
		},
	}

	if d.logger != nil {
		d.logger.Infow("Targeted alert dispatched",
			"radius_km", radiusKm,
			"candidates", len(candidates),
			"selected", len(selected),
		)
	}

	return result
}

// Broadcast targets every known recipient, bypassing the geofence and the
// fan-out cap.
func (d *Dispatcher) Broadcast(message string, candidates []models.RecipientCandidate) Result {
	selected := make([]models.SelectedRecipient, 0, len(candidates))
	for _, candidate := range candidates {
		selected = append(selected, models.SelectedRecipient{RecipientCandidate: candidate})
	}

	result := Result{
		Selected: selected,
		Notification: models.NotificationPayload{
			Message:   fmt.Sprintf("🚨 EMERGENCY BROADCAST: %s", message),
			TargetIDs: targetIDs(selected),
			Broadcast: true,
			IssuedAt:  d.clock.Now(),
		},
	}

	if d.logger != nil {
		d.logger.Infow("Broadcast dispatched", "recipients", len(selected))
	}

	return result
}

// selectWithin keeps candidates no farther than radiusKm from the point,
// preserving candidate order and stopping at MaxRecipients.
func selectWithin(lat, lng, radiusKm float64, candidates []models.RecipientCandidate) []models.SelectedRecipient {
	selected := make([]models.SelectedRecipient, 0, MaxRecipients)
	for _, candidate := range candidates {
		if len(selected) == MaxRecipients {
			break
		}
		distance := geo.DistanceKm(lat, lng, candidate.Lat, candidate.Lng)
		if distance <= radiusKm {
			selected = append(selected, models.SelectedRecipient{
				RecipientCandidate: candidate,
				DistanceKm:         distance,
			})
		}
	}
	return selected
}

func targetIDs(selected []models.SelectedRecipient) []string {
	ids := make([]string, 0, len(selected))
	for _, s := range selected {
		ids = append(ids, s.ID)
	}
	return ids
}
