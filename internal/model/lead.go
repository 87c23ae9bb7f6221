package model

import (
	"encoding/json"
	"time"
)

// EnrichmentStatus represents the lifecycle state of a lead or task.
// For a task it is the state of a single attempt; for a lead it is the
// aggregate derived from all of its tasks.
type EnrichmentStatus string

const (
	StatusPending    EnrichmentStatus = "pending"
	StatusProcessing EnrichmentStatus = "processing"
	StatusCompleted  EnrichmentStatus = "completed"
	StatusFailed     EnrichmentStatus = "failed"
)

// Terminal reports whether the status is a terminal state.
func (s EnrichmentStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Lead represents a contact record subject to enrichment. Identity fields
// are all optional; enrichment fills gaps but never overwrites a known value.
type Lead struct {
	ID          string `json:"id"`
	FirstName   string `json:"first_name,omitempty"`
	LastName    string `json:"last_name,omitempty"`
	Company     string `json:"company,omitempty"`
	Title       string `json:"title,omitempty"`
	Website     string `json:"website,omitempty"`
	LinkedInURL string `json:"linkedin_url,omitempty"`
	Email       string `json:"email,omitempty"`
	Phone       string `json:"phone,omitempty"`

	EnrichmentStatus EnrichmentStatus `json:"enrichment_status"`

	// EnrichedData maps enrichment kind name to that provider's last
	// successful result. Updates are per-kind upserts; one kind's failure
	// never disturbs another kind's stored data.
	EnrichedData map[string]json.RawMessage `json:"enriched_data,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Snapshot returns a read-only view of the lead's identity fields for
// handing to provider adapters.
func (l *Lead) Snapshot() LeadSnapshot {
	return LeadSnapshot{
		ID:          l.ID,
		FirstName:   l.FirstName,
		LastName:    l.LastName,
		Company:     l.Company,
		Title:       l.Title,
		Website:     l.Website,
		LinkedInURL: l.LinkedInURL,
		Email:       l.Email,
		Phone:       l.Phone,
	}
}

// LeadSnapshot is the immutable lead view passed to provider adapters.
// Adapters read it and return an outcome; they never mutate lead state.
type LeadSnapshot struct {
	ID          string `json:"id"`
	FirstName   string `json:"first_name,omitempty"`
	LastName    string `json:"last_name,omitempty"`
	Company     string `json:"company,omitempty"`
	Title       string `json:"title,omitempty"`
	Website     string `json:"website,omitempty"`
	LinkedInURL string `json:"linkedin_url,omitempty"`
	Email       string `json:"email,omitempty"`
	Phone       string `json:"phone,omitempty"`
}

// LeadField identifies a plain lead field that an adapter may propose to fill.
type LeadField string

const (
	FieldEmail       LeadField = "email"
	FieldPhone       LeadField = "phone"
	FieldTitle       LeadField = "title"
	FieldLinkedInURL LeadField = "linkedin_url"
)

// FieldUpdate is a fill-in proposed by a successful adapter run. The
// executor applies it only if the target field is currently empty, re-checked
// inside the same transaction as the task completion.
type FieldUpdate struct {
	Field LeadField `json:"field"`
	Value string    `json:"value"`
}
