package model

import (
	"encoding/json"
	"time"

	"github.com/rotisserie/eris"
)

// Kind identifies one enrichment operation.
type Kind string

const (
	KindEmail   Kind = "email"
	KindApollo  Kind = "apollo"
	KindAI      Kind = "ai"
	KindScraper Kind = "scraper"
)

// Kinds lists all supported enrichment kinds.
func Kinds() []Kind {
	return []Kind{KindEmail, KindApollo, KindAI, KindScraper}
}

// ParseKind validates a kind name from an API request.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindEmail, KindApollo, KindAI, KindScraper:
		return Kind(s), nil
	}
	return "", eris.Errorf("unsupported enrichment kind: %q", s)
}

// EnrichmentTask is one attempt to run one enrichment kind against one lead.
// Rows are never deleted; together they form the audit trail of attempts.
type EnrichmentTask struct {
	ID     string           `json:"id"`
	LeadID string           `json:"lead_id"`
	Kind   Kind             `json:"kind"`
	Status EnrichmentStatus `json:"status"`

	// Result holds the provider payload of the last successful run.
	Result json.RawMessage `json:"result,omitempty"`

	// ErrorMessage holds the failure reason when Status is failed. Cleared
	// when the task is reset for retry.
	ErrorMessage string `json:"error_message,omitempty"`

	// JobID is the external work-queue handle for the current attempt.
	JobID string `json:"job_id,omitempty"`

	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}
