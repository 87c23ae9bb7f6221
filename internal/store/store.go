package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/lead-enrichment/internal/model"
)

// ErrNotFound is returned when a lead or task does not exist.
var ErrNotFound = eris.New("not found")

// LeadFilter specifies criteria for listing leads.
type LeadFilter struct {
	Status model.EnrichmentStatus `json:"status,omitempty"`
	Limit  int                    `json:"limit,omitempty"`
	Offset int                    `json:"offset,omitempty"`
}

// Store defines the persistence interface for leads and enrichment tasks.
//
// The executor-facing operations (MarkTaskProcessing, CompleteTask, FailTask,
// ResetFailedTasks) each run as a single transaction scoped to the lead, so
// concurrent task completions for the same lead never lose each other's
// updates and field fill-ins re-check emptiness atomically.
type Store interface {
	// Leads
	CreateLead(ctx context.Context, lead *model.Lead) error
	CreateLeads(ctx context.Context, leads []*model.Lead) (int, error)
	GetLead(ctx context.Context, id string) (*model.Lead, error)
	ListLeads(ctx context.Context, filter LeadFilter) ([]model.Lead, error)
	UpdateLead(ctx context.Context, lead *model.Lead) error
	DeleteLead(ctx context.Context, id string) error

	// Tasks
	CreateTasks(ctx context.Context, leadIDs []string, kinds []model.Kind) ([]model.EnrichmentTask, error)
	GetTask(ctx context.Context, id string) (*model.EnrichmentTask, error)
	ListTasksByLead(ctx context.Context, leadID string) ([]model.EnrichmentTask, error)
	ListTasksByLeadAndStatus(ctx context.Context, leadID string, status model.EnrichmentStatus) ([]model.EnrichmentTask, error)
	ListStalePending(ctx context.Context, olderThan time.Duration, limit int) ([]model.EnrichmentTask, error)
	ResetStaleProcessing(ctx context.Context, olderThan time.Duration, limit int) ([]model.EnrichmentTask, error)
	SetTaskJobID(ctx context.Context, taskID, jobID string) error

	// Metrics
	CountLeadsByStatus(ctx context.Context) (map[model.EnrichmentStatus]int, error)
	CountTasksByKindStatus(ctx context.Context) (map[model.Kind]map[model.EnrichmentStatus]int, error)

	// Executor operations
	MarkTaskProcessing(ctx context.Context, taskID string) (bool, error)
	CompleteTask(ctx context.Context, taskID, leadID string, kind model.Kind, payload json.RawMessage, updates []model.FieldUpdate) error
	FailTask(ctx context.Context, taskID, leadID, reason string) error
	ResetFailedTasks(ctx context.Context, leadID string) ([]model.EnrichmentTask, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}

// fillableColumns whitelists the lead columns adapters may propose to fill.
var fillableColumns = map[model.LeadField]string{
	model.FieldEmail:       "email",
	model.FieldPhone:       "phone",
	model.FieldTitle:       "title",
	model.FieldLinkedInURL: "linkedin_url",
}
