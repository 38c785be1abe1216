// Package models defines the data structures used across the application.
// These map to the PostgreSQL schema and the JSON payloads exchanged with
// the frontend and the real-time alert channel.
package models

import (
	"time"

	"github.com/google/uuid"
)

// Severity levels accepted on reports and alerts.
const (
	SeverityLow      = "low"
	SeverityMedium   = "medium"
	SeverityHigh     = "high"
	SeverityCritical = "critical"
)

// Risk levels produced by the authenticity classifier.
const (
	RiskHighFake  = "high_fake_risk"
	RiskMedium    = "medium_risk"
	RiskLow       = "low_risk"
	RiskAuthentic = "authentic"
)

// Location is a point on the map with an optional human-readable address.
type Location struct {
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
	Address string  `json:"address,omitempty"`
}

// HasCoordinates reports whether the location carries a usable coordinate pair.
func (l Location) HasCoordinates() bool {
	return l.Lat != 0 || l.Lng != 0
}

// Report is a citizen-submitted disaster report.
// Verified flips exactly once (false -> true) by an admin action, which also
// appends a block to the verification ledger. Classification is attached by
// the classifier after submission and replaced wholesale on re-analysis.
type Report struct {
	ID             uuid.UUID       `json:"id" db:"id"`
	SubmitterID    string          `json:"submitter_id" db:"submitter_id"`
	Type           string          `json:"type" db:"type"`
	Description    string          `json:"description" db:"description"`
	ImageRefs      []string        `json:"image_refs" db:"image_refs"`
	Location       Location        `json:"location" db:"location"`
	Hashtags       []string        `json:"hashtags,omitempty" db:"hashtags"`
	Severity       string          `json:"severity" db:"severity"`
	Verified       bool            `json:"verified" db:"verified"`
	VerifiedBy     string          `json:"verified_by,omitempty" db:"verified_by"`
	Classification *Classification `json:"classification,omitempty" db:"classification"`
	CreatedAt      time.Time       `json:"created_at" db:"created_at"`
}

// ReportSubmission is the request body for filing a new report.
type ReportSubmission struct {
	SubmitterID string   `json:"submitter_id" validate:"required"`
	Type        string   `json:"type" validate:"required"`
	Description string   `json:"description"`
	ImageRefs   []string `json:"image_refs,omitempty"`
	Location    Location `json:"location"`
	Hashtags    []string `json:"hashtags,omitempty"`
	Severity    string   `json:"severity"`
}

// Classification is the classifier's verdict on a report. Immutable once
// produced; re-scoring creates a new Classification that replaces the old one.
type Classification struct {
	TextScore     float64  `json:"text_score"`
	ImageScore    float64  `json:"image_score"`
	LocationScore float64  `json:"location_score"`
	UserScore     float64  `json:"user_score"`
	Confidence    int      `json:"confidence"`
	IsAuthentic   bool     `json:"is_authentic"`
	RiskLevel     string   `json:"risk_level"`
	Reasoning     []string `json:"reasoning"`
}

// BlockPayload is the verified-report metadata committed to a ledger block.
type BlockPayload struct {
	ReportID    string   `json:"report_id"`
	Type        string   `json:"type"`
	Location    Location `json:"location"`
	VerifiedBy  string   `json:"verified_by"`
	ImageHashes []string `json:"image_hashes,omitempty"`
}

// LedgerBlock is a single block in the append-only verification chain.
// PreviousHash must equal the prior block's Hash; Hash is a SHA-256 digest
// over (index, timestamp, payload, previousHash).
type LedgerBlock struct {
	Index        uint64       `json:"index"`
	Timestamp    int64        `json:"timestamp"` // unix milliseconds
	Payload      BlockPayload `json:"payload"`
	PreviousHash string       `json:"previous_hash"`
	Hash         string       `json:"hash"`
}

// AlertEvent is a single dispatch request handed to the geofenced dispatcher.
type AlertEvent struct {
	Type        string    `json:"type"`
	Severity    string    `json:"severity"`
	Origin      Location  `json:"origin"`
	Description string    `json:"description"`
	RadiusKm    float64   `json:"radius_km"`
	CreatedAt   time.Time `json:"created_at"`
}

// AlertRecord is an alert persisted for history and listing.
type AlertRecord struct {
	ID          uuid.UUID `json:"id" db:"id"`
	Type        string    `json:"type" db:"type"`
	Severity    string    `json:"severity" db:"severity"`
	Location    Location  `json:"location" db:"location"`
	Description string    `json:"description" db:"description"`
	Source      string    `json:"source" db:"source"`
	Active      bool      `json:"active" db:"active"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// AlertRequest is the request body for raising a location-scoped alert.
// RadiusKm is a pointer so an absent field can fall back to the default.
type AlertRequest struct {
	Type        string   `json:"type" validate:"required"`
	Severity    string   `json:"severity" validate:"required"`
	Location    Location `json:"location"`
	Description string   `json:"description"`
	RadiusKm    *float64 `json:"radius_km,omitempty"`
}

// LocationAlertRequest is the request body for an alert aimed at a raw
// coordinate pair. The message is delivered as written; nothing is persisted.
type LocationAlertRequest struct {
	Lat      float64  `json:"lat"`
	Lng      float64  `json:"lng"`
	Message  string   `json:"message" validate:"required"`
	RadiusKm *float64 `json:"radius_km,omitempty"`
}

// BroadcastRequest is the request body for an all-recipients broadcast.
type BroadcastRequest struct {
	Message string `json:"message" validate:"required"`
}

// RecipientCandidate is a potential alert recipient with a last-known location.
// The dispatcher only reads candidates; it never mutates them.
type RecipientCandidate struct {
	ID         string  `json:"id" db:"id"`
	Lat        float64 `json:"lat" db:"lat"`
	Lng        float64 `json:"lng" db:"lng"`
	ContactRef string  `json:"contact_ref" db:"contact_ref"`
}

// SelectedRecipient is a candidate chosen by the dispatcher, annotated with
// its distance from the alert origin.
type SelectedRecipient struct {
	RecipientCandidate
	DistanceKm float64 `json:"distance_km"`
}

// NotificationPayload is what the dispatcher hands to the real-time transport.
type NotificationPayload struct {
	Message   string    `json:"message"`
	TargetIDs []string  `json:"target_ids"`
	Address   string    `json:"address,omitempty"`
	Lat       float64   `json:"lat"`
	Lng       float64   `json:"lng"`
	Broadcast bool      `json:"broadcast"`
	IssuedAt  time.Time `json:"issued_at"`
}

// EncryptedMessage is the sealed form of a relayed emergency message.
// QuantumSignature is a keyed SHA-256 over (plaintext, shared key). It is a
// labeled simulation of quantum-resistant signing layered on top of the GCM
// tag, not real quantum cryptography.
type EncryptedMessage struct {
	Ciphertext       string    `json:"ciphertext"`
	IV               string    `json:"iv"`
	AuthTag          string    `json:"auth_tag"`
	RecipientID      string    `json:"recipient_id"`
	QuantumSignature string    `json:"quantum_signature"`
	Timestamp        time.Time `json:"timestamp"`
}

// DecryptResult carries the outcome of decrypting an EncryptedMessage.
// Verified is false on any tag, signature, or format failure; decryption
// problems never surface as raw cipher errors.
type DecryptResult struct {
	Message   string    `json:"message,omitempty"`
	Verified  bool      `json:"verified"`
	Timestamp time.Time `json:"timestamp,omitempty"`
}

// AdminAction is an audit entry recording an admin operation (report
// verification, alert dispatch, broadcast) for accountability.
type AdminAction struct {
	ID          uuid.UUID  `json:"id" db:"id"`
	ReportID    *uuid.UUID `json:"report_id,omitempty" db:"report_id"`
	ActionType  string     `json:"action_type" db:"action_type"`
	Description string     `json:"description" db:"description"`
	Authority   string     `json:"authority" db:"authority"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
}

// ClassifierStats summarizes classification outcomes across stored reports.
type ClassifierStats struct {
	TotalReports      int64 `json:"total_reports"`
	AuthenticReports  int64 `json:"authentic_reports"`
	SuspiciousReports int64 `json:"suspicious_reports"`
	Unanalyzed        int64 `json:"unanalyzed"`
	AccuracyRate      int64 `json:"accuracy_rate"`
}

// HealthStatus represents the server health check response.
type HealthStatus struct {
	Status      string `json:"status"`
	Version     string `json:"version"`
	Uptime      string `json:"uptime"`
	Database    string `json:"database,omitempty"`
	ChainLength int    `json:"chain_length,omitempty"`
}
