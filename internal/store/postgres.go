package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/lead-enrichment/internal/db"
	"github.com/sells-group/lead-enrichment/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS leads (
	id                TEXT PRIMARY KEY,
	first_name        TEXT NOT NULL DEFAULT '',
	last_name         TEXT NOT NULL DEFAULT '',
	company           TEXT NOT NULL DEFAULT '',
	title             TEXT NOT NULL DEFAULT '',
	website           TEXT NOT NULL DEFAULT '',
	linkedin_url      TEXT NOT NULL DEFAULT '',
	email             TEXT NOT NULL DEFAULT '',
	phone             TEXT NOT NULL DEFAULT '',
	enrichment_status TEXT NOT NULL DEFAULT 'pending',
	enriched_data     JSONB,
	created_at        TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at        TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS enrichment_tasks (
	id            TEXT PRIMARY KEY,
	lead_id       TEXT NOT NULL REFERENCES leads(id) ON DELETE CASCADE,
	kind          TEXT NOT NULL,
	status        TEXT NOT NULL DEFAULT 'pending',
	result        JSONB,
	error_message TEXT NOT NULL DEFAULT '',
	job_id        TEXT NOT NULL DEFAULT '',
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
	started_at    TIMESTAMPTZ,
	completed_at  TIMESTAMPTZ
);

CREATE INDEX IF NOT EXISTS idx_leads_status ON leads(enrichment_status);
CREATE INDEX IF NOT EXISTS idx_tasks_lead_id ON enrichment_tasks(lead_id);
CREATE INDEX IF NOT EXISTS idx_tasks_lead_status ON enrichment_tasks(lead_id, status);
CREATE INDEX IF NOT EXISTS idx_tasks_pending_created ON enrichment_tasks(created_at) WHERE status = 'pending';
`

const leadColumns = `id, first_name, last_name, company, title, website, linkedin_url, email, phone, enrichment_status, enriched_data, created_at, updated_at`

const taskColumns = `id, lead_id, kind, status, result, error_message, job_id, created_at, completed_at`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) CreateLead(ctx context.Context, lead *model.Lead) error {
	prepareLead(lead)

	dataJSON, err := marshalEnrichedData(lead.EnrichedData)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal enriched data")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO leads (`+leadColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		lead.ID, lead.FirstName, lead.LastName, lead.Company, lead.Title, lead.Website,
		lead.LinkedInURL, lead.Email, lead.Phone, string(lead.EnrichmentStatus), dataJSON,
		lead.CreatedAt, lead.UpdatedAt,
	)
	return eris.Wrap(err, "postgres: insert lead")
}

// CreateLeads bulk-inserts leads via the COPY protocol.
func (s *PostgresStore) CreateLeads(ctx context.Context, leads []*model.Lead) (int, error) {
	if len(leads) == 0 {
		return 0, nil
	}

	columns := []string{"id", "first_name", "last_name", "company", "title", "website",
		"linkedin_url", "email", "phone", "enrichment_status", "created_at", "updated_at"}

	rows := make([][]any, 0, len(leads))
	for _, lead := range leads {
		prepareLead(lead)
		rows = append(rows, []any{
			lead.ID, lead.FirstName, lead.LastName, lead.Company, lead.Title, lead.Website,
			lead.LinkedInURL, lead.Email, lead.Phone, string(lead.EnrichmentStatus),
			lead.CreatedAt, lead.UpdatedAt,
		})
	}

	n, err := db.CopyFrom(ctx, s.pool, "leads", columns, rows)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: bulk insert leads")
	}
	return int(n), nil
}

func (s *PostgresStore) GetLead(ctx context.Context, id string) (*model.Lead, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+leadColumns+` FROM leads WHERE id = $1`, id)
	lead, err := scanLead(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, eris.Wrapf(ErrNotFound, "postgres: lead %s", id)
		}
		return nil, eris.Wrapf(err, "postgres: get lead %s", id)
	}
	return lead, nil
}

func (s *PostgresStore) ListLeads(ctx context.Context, filter LeadFilter) ([]model.Lead, error) {
	query := `SELECT ` + leadColumns + ` FROM leads WHERE true`
	args := []any{}
	argIdx := 1

	if filter.Status != "" {
		query += fmt.Sprintf(` AND enrichment_status = $%d`, argIdx)
		args = append(args, string(filter.Status))
		argIdx++
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += fmt.Sprintf(` LIMIT $%d`, argIdx)
	args = append(args, limit)
	argIdx++

	if filter.Offset > 0 {
		query += fmt.Sprintf(` OFFSET $%d`, argIdx)
		args = append(args, filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list leads")
	}
	defer rows.Close()

	var leads []model.Lead
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan lead")
		}
		leads = append(leads, *lead)
	}
	return leads, eris.Wrap(rows.Err(), "postgres: list leads rows")
}

func (s *PostgresStore) UpdateLead(ctx context.Context, lead *model.Lead) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE leads SET first_name = $1, last_name = $2, company = $3, title = $4,
			website = $5, linkedin_url = $6, email = $7, phone = $8, updated_at = $9
		WHERE id = $10`,
		lead.FirstName, lead.LastName, lead.Company, lead.Title, lead.Website,
		lead.LinkedInURL, lead.Email, lead.Phone, time.Now().UTC(), lead.ID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update lead %s", lead.ID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "postgres: lead %s", lead.ID)
	}
	return nil
}

func (s *PostgresStore) DeleteLead(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM leads WHERE id = $1`, id)
	if err != nil {
		return eris.Wrapf(err, "postgres: delete lead %s", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "postgres: lead %s", id)
	}
	return nil
}

// CreateTasks creates one pending task per (lead, kind) pair and flips each
// lead to processing, all in a single transaction. Enqueueing happens after
// commit; a task whose enqueue fails stays pending for the reconcile poller.
func (s *PostgresStore) CreateTasks(ctx context.Context, leadIDs []string, kinds []model.Kind) ([]model.EnrichmentTask, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: begin create tasks")
	}
	defer tx.Rollback(ctx)

	now := time.Now().UTC()
	tasks := make([]model.EnrichmentTask, 0, len(leadIDs)*len(kinds))

	for _, leadID := range leadIDs {
		tag, err := tx.Exec(ctx,
			`UPDATE leads SET enrichment_status = $1, updated_at = $2 WHERE id = $3`,
			string(model.StatusProcessing), now, leadID,
		)
		if err != nil {
			return nil, eris.Wrapf(err, "postgres: mark lead processing %s", leadID)
		}
		if tag.RowsAffected() == 0 {
			return nil, eris.Wrapf(ErrNotFound, "postgres: lead %s", leadID)
		}

		for _, kind := range kinds {
			task := model.EnrichmentTask{
				ID:        uuid.New().String(),
				LeadID:    leadID,
				Kind:      kind,
				Status:    model.StatusPending,
				CreatedAt: now,
			}
			_, err := tx.Exec(ctx,
				`INSERT INTO enrichment_tasks (id, lead_id, kind, status, created_at) VALUES ($1, $2, $3, $4, $5)`,
				task.ID, task.LeadID, string(task.Kind), string(task.Status), task.CreatedAt,
			)
			if err != nil {
				return nil, eris.Wrapf(err, "postgres: insert task %s/%s", leadID, kind)
			}
			tasks = append(tasks, task)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, eris.Wrap(err, "postgres: commit create tasks")
	}
	return tasks, nil
}

func (s *PostgresStore) GetTask(ctx context.Context, id string) (*model.EnrichmentTask, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+taskColumns+` FROM enrichment_tasks WHERE id = $1`, id)
	task, err := scanTask(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, eris.Wrapf(ErrNotFound, "postgres: task %s", id)
		}
		return nil, eris.Wrapf(err, "postgres: get task %s", id)
	}
	return task, nil
}

func (s *PostgresStore) ListTasksByLead(ctx context.Context, leadID string) ([]model.EnrichmentTask, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+taskColumns+` FROM enrichment_tasks WHERE lead_id = $1 ORDER BY created_at`, leadID)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: list tasks for lead %s", leadID)
	}
	defer rows.Close()
	return collectTasks(rows)
}

func (s *PostgresStore) ListTasksByLeadAndStatus(ctx context.Context, leadID string, status model.EnrichmentStatus) ([]model.EnrichmentTask, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+taskColumns+` FROM enrichment_tasks WHERE lead_id = $1 AND status = $2 ORDER BY created_at`,
		leadID, string(status))
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: list %s tasks for lead %s", status, leadID)
	}
	defer rows.Close()
	return collectTasks(rows)
}

// ListStalePending returns pending tasks older than the given age, used by
// the reconcile poller to recover tasks whose enqueue was lost.
func (s *PostgresStore) ListStalePending(ctx context.Context, olderThan time.Duration, limit int) ([]model.EnrichmentTask, error) {
	cutoff := time.Now().UTC().Add(-olderThan)
	rows, err := s.pool.Query(ctx,
		`SELECT `+taskColumns+` FROM enrichment_tasks WHERE status = $1 AND created_at < $2 ORDER BY created_at LIMIT $3`,
		string(model.StatusPending), cutoff, limit)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list stale pending tasks")
	}
	defer rows.Close()
	return collectTasks(rows)
}

// ResetStaleProcessing flips processing tasks claimed longer ago than the
// given age back to pending and returns them for re-enqueue. A worker crash
// or a failed outcome write otherwise leaves such tasks claimed forever,
// since redelivered messages are absorbed as duplicates.
func (s *PostgresStore) ResetStaleProcessing(ctx context.Context, olderThan time.Duration, limit int) ([]model.EnrichmentTask, error) {
	cutoff := time.Now().UTC().Add(-olderThan)
	rows, err := s.pool.Query(ctx,
		`UPDATE enrichment_tasks SET status = $1, started_at = NULL
		 WHERE id IN (
			SELECT id FROM enrichment_tasks
			WHERE status = $2 AND started_at < $3
			ORDER BY started_at LIMIT $4
			FOR UPDATE SKIP LOCKED
		 )
		 RETURNING `+taskColumns,
		string(model.StatusPending), string(model.StatusProcessing), cutoff, limit)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: reset stale processing tasks")
	}
	defer rows.Close()
	return collectTasks(rows)
}

func (s *PostgresStore) SetTaskJobID(ctx context.Context, taskID, jobID string) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE enrichment_tasks SET job_id = $1 WHERE id = $2`, jobID, taskID)
	return eris.Wrapf(err, "postgres: set job id for task %s", taskID)
}

func (s *PostgresStore) CountLeadsByStatus(ctx context.Context) (map[model.EnrichmentStatus]int, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT enrichment_status, COUNT(*) FROM leads GROUP BY enrichment_status`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: count leads by status")
	}
	defer rows.Close()

	counts := make(map[model.EnrichmentStatus]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, eris.Wrap(err, "postgres: scan lead count")
		}
		counts[model.EnrichmentStatus(status)] = n
	}
	return counts, rows.Err()
}

func (s *PostgresStore) CountTasksByKindStatus(ctx context.Context) (map[model.Kind]map[model.EnrichmentStatus]int, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT kind, status, COUNT(*) FROM enrichment_tasks GROUP BY kind, status`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: count tasks by kind and status")
	}
	defer rows.Close()

	counts := make(map[model.Kind]map[model.EnrichmentStatus]int)
	for rows.Next() {
		var kind, status string
		var n int
		if err := rows.Scan(&kind, &status, &n); err != nil {
			return nil, eris.Wrap(err, "postgres: scan task count")
		}
		k := model.Kind(kind)
		if counts[k] == nil {
			counts[k] = make(map[model.EnrichmentStatus]int)
		}
		counts[k][model.EnrichmentStatus(status)] = n
	}
	return counts, rows.Err()
}

// MarkTaskProcessing transitions a task pending → processing, recording the
// claim time. It returns false without error when the task is no longer
// pending, which lets the executor skip duplicate queue deliveries and
// superseded attempts.
func (s *PostgresStore) MarkTaskProcessing(ctx context.Context, taskID string) (bool, error) {
	tag, err := s.pool.Exec(ctx,
		`UPDATE enrichment_tasks SET status = $1, started_at = $2 WHERE id = $3 AND status = $4`,
		string(model.StatusProcessing), time.Now().UTC(), taskID, string(model.StatusPending),
	)
	if err != nil {
		return false, eris.Wrapf(err, "postgres: mark task processing %s", taskID)
	}
	return tag.RowsAffected() == 1, nil
}

// CompleteTask records a successful outcome: task completed with its payload,
// the payload upserted under the kind's key in the lead's enriched data, and
// proposed field fill-ins applied only where the column is still empty. The
// lead's aggregate status is recomputed in the same transaction.
func (s *PostgresStore) CompleteTask(ctx context.Context, taskID, leadID string, kind model.Kind, payload json.RawMessage, updates []model.FieldUpdate) error {
	if len(payload) == 0 {
		payload = json.RawMessage(`{}`)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "postgres: begin complete task")
	}
	defer tx.Rollback(ctx)

	now := time.Now().UTC()

	tag, err := tx.Exec(ctx,
		`UPDATE enrichment_tasks SET status = $1, result = $2, error_message = '', completed_at = $3 WHERE id = $4`,
		string(model.StatusCompleted), []byte(payload), now, taskID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: complete task %s", taskID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "postgres: task %s", taskID)
	}

	// Per-kind upsert: other kinds' entries are never disturbed.
	_, err = tx.Exec(ctx,
		`UPDATE leads SET enriched_data = COALESCE(enriched_data, '{}'::jsonb) || jsonb_build_object($1::text, $2::jsonb), updated_at = $3 WHERE id = $4`,
		string(kind), []byte(payload), now, leadID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: upsert enriched data for lead %s", leadID)
	}

	// Fill-ins only land on columns that are empty at commit time.
	for _, u := range updates {
		col, ok := fillableColumns[u.Field]
		if !ok || u.Value == "" {
			continue
		}
		query := fmt.Sprintf(`UPDATE leads SET %s = $1, updated_at = $2 WHERE id = $3 AND %s = ''`, col, col)
		if _, err := tx.Exec(ctx, query, u.Value, now, leadID); err != nil {
			return eris.Wrapf(err, "postgres: fill %s for lead %s", col, leadID)
		}
	}

	if err := refreshLeadStatusTx(ctx, tx, leadID, now); err != nil {
		return err
	}

	return eris.Wrap(tx.Commit(ctx), "postgres: commit complete task")
}

// FailTask records a failure outcome and recomputes the lead's aggregate
// status in the same transaction. The lead's identity fields are untouched.
func (s *PostgresStore) FailTask(ctx context.Context, taskID, leadID, reason string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "postgres: begin fail task")
	}
	defer tx.Rollback(ctx)

	now := time.Now().UTC()

	tag, err := tx.Exec(ctx,
		`UPDATE enrichment_tasks SET status = $1, error_message = $2, completed_at = $3 WHERE id = $4`,
		string(model.StatusFailed), reason, now, taskID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: fail task %s", taskID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "postgres: task %s", taskID)
	}

	if err := refreshLeadStatusTx(ctx, tx, leadID, now); err != nil {
		return err
	}

	return eris.Wrap(tx.Commit(ctx), "postgres: commit fail task")
}

// ResetFailedTasks flips every failed task for the lead back to pending,
// clearing errors and completion times, and marks the lead processing. The
// same task rows are reused; completed tasks and their results are untouched.
func (s *PostgresStore) ResetFailedTasks(ctx context.Context, leadID string) ([]model.EnrichmentTask, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: begin reset failed tasks")
	}
	defer tx.Rollback(ctx)

	rows, err := tx.Query(ctx,
		`SELECT `+taskColumns+` FROM enrichment_tasks WHERE lead_id = $1 AND status = $2 ORDER BY created_at`,
		leadID, string(model.StatusFailed))
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: select failed tasks for lead %s", leadID)
	}
	failed, err := collectTasks(rows)
	rows.Close()
	if err != nil {
		return nil, err
	}

	if len(failed) == 0 {
		// Nothing to retry; no status change either.
		return nil, tx.Commit(ctx)
	}

	now := time.Now().UTC()

	_, err = tx.Exec(ctx,
		`UPDATE enrichment_tasks SET status = $1, error_message = '', completed_at = NULL WHERE lead_id = $2 AND status = $3`,
		string(model.StatusPending), leadID, string(model.StatusFailed),
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: reset failed tasks for lead %s", leadID)
	}

	_, err = tx.Exec(ctx,
		`UPDATE leads SET enrichment_status = $1, updated_at = $2 WHERE id = $3`,
		string(model.StatusProcessing), now, leadID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: mark lead processing %s", leadID)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, eris.Wrap(err, "postgres: commit reset failed tasks")
	}

	for i := range failed {
		failed[i].Status = model.StatusPending
		failed[i].ErrorMessage = ""
		failed[i].CompletedAt = nil
	}
	return failed, nil
}

// refreshLeadStatusTx recomputes the lead's aggregate status from all of its
// tasks and persists it, inside the caller's transaction.
func refreshLeadStatusTx(ctx context.Context, tx pgx.Tx, leadID string, now time.Time) error {
	rows, err := tx.Query(ctx,
		`SELECT `+taskColumns+` FROM enrichment_tasks WHERE lead_id = $1`, leadID)
	if err != nil {
		return eris.Wrapf(err, "postgres: load tasks for lead %s", leadID)
	}
	tasks, err := collectTasks(rows)
	rows.Close()
	if err != nil {
		return err
	}

	status := model.AggregateStatus(tasks)
	_, err = tx.Exec(ctx,
		`UPDATE leads SET enrichment_status = $1, updated_at = $2 WHERE id = $3`,
		string(status), now, leadID,
	)
	return eris.Wrapf(err, "postgres: refresh status for lead %s", leadID)
}

// rowScanner is satisfied by both pgx.Row and pgx.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanLead(row rowScanner) (*model.Lead, error) {
	var lead model.Lead
	var status string
	var dataJSON []byte

	err := row.Scan(&lead.ID, &lead.FirstName, &lead.LastName, &lead.Company, &lead.Title,
		&lead.Website, &lead.LinkedInURL, &lead.Email, &lead.Phone, &status, &dataJSON,
		&lead.CreatedAt, &lead.UpdatedAt)
	if err != nil {
		return nil, err
	}

	lead.EnrichmentStatus = model.EnrichmentStatus(status)
	if len(dataJSON) > 0 {
		if err := json.Unmarshal(dataJSON, &lead.EnrichedData); err != nil {
			return nil, eris.Wrap(err, "unmarshal enriched data")
		}
	}
	return &lead, nil
}

func scanTask(row rowScanner) (*model.EnrichmentTask, error) {
	var task model.EnrichmentTask
	var kind, status string
	var result []byte

	err := row.Scan(&task.ID, &task.LeadID, &kind, &status, &result,
		&task.ErrorMessage, &task.JobID, &task.CreatedAt, &task.CompletedAt)
	if err != nil {
		return nil, err
	}

	task.Kind = model.Kind(kind)
	task.Status = model.EnrichmentStatus(status)
	if len(result) > 0 {
		task.Result = json.RawMessage(result)
	}
	return &task, nil
}

func collectTasks(rows pgx.Rows) ([]model.EnrichmentTask, error) {
	var tasks []model.EnrichmentTask
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan task")
		}
		tasks = append(tasks, *task)
	}
	return tasks, eris.Wrap(rows.Err(), "postgres: task rows")
}

func prepareLead(lead *model.Lead) {
	if lead.ID == "" {
		lead.ID = uuid.New().String()
	}
	if lead.EnrichmentStatus == "" {
		lead.EnrichmentStatus = model.StatusPending
	}
	now := time.Now().UTC()
	if lead.CreatedAt.IsZero() {
		lead.CreatedAt = now
	}
	lead.UpdatedAt = now
}

func marshalEnrichedData(data map[string]json.RawMessage) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}
	return json.Marshal(data)
}
