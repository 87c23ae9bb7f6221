package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/lead-enrichment/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite, for local and
// single-process deployments.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := sqlDB.Exec(pragma); err != nil {
			sqlDB.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: sqlDB}, nil
}

const sqliteMigration = `
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
	enriched_data     TEXT,
	created_at        DATETIME NOT NULL,
	updated_at        DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS enrichment_tasks (
	id            TEXT PRIMARY KEY,
	lead_id       TEXT NOT NULL REFERENCES leads(id) ON DELETE CASCADE,
	kind          TEXT NOT NULL,
	status        TEXT NOT NULL DEFAULT 'pending',
	result        TEXT,
	error_message TEXT NOT NULL DEFAULT '',
	job_id        TEXT NOT NULL DEFAULT '',
	created_at    DATETIME NOT NULL,
	started_at    DATETIME,
	completed_at  DATETIME
);

CREATE INDEX IF NOT EXISTS idx_leads_status ON leads(enrichment_status);
CREATE INDEX IF NOT EXISTS idx_tasks_lead_id ON enrichment_tasks(lead_id);
CREATE INDEX IF NOT EXISTS idx_tasks_lead_status ON enrichment_tasks(lead_id, status);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.db.PingContext(ctx), "sqlite: ping")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateLead(ctx context.Context, lead *model.Lead) error {
	prepareLead(lead)

	dataJSON, err := marshalEnrichedData(lead.EnrichedData)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal enriched data")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO leads (`+leadColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		lead.ID, lead.FirstName, lead.LastName, lead.Company, lead.Title, lead.Website,
		lead.LinkedInURL, lead.Email, lead.Phone, string(lead.EnrichmentStatus), nullString(dataJSON),
		lead.CreatedAt, lead.UpdatedAt,
	)
	return eris.Wrap(err, "sqlite: insert lead")
}

func (s *SQLiteStore) CreateLeads(ctx context.Context, leads []*model.Lead) (int, error) {
	if len(leads) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin bulk insert")
	}
	defer tx.Rollback()

	for _, lead := range leads {
		prepareLead(lead)
		_, err := tx.ExecContext(ctx,
			`INSERT INTO leads (id, first_name, last_name, company, title, website,
				linkedin_url, email, phone, enrichment_status, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			lead.ID, lead.FirstName, lead.LastName, lead.Company, lead.Title, lead.Website,
			lead.LinkedInURL, lead.Email, lead.Phone, string(lead.EnrichmentStatus),
			lead.CreatedAt, lead.UpdatedAt,
		)
		if err != nil {
			return 0, eris.Wrap(err, "sqlite: bulk insert lead")
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: commit bulk insert")
	}
	return len(leads), nil
}

func (s *SQLiteStore) GetLead(ctx context.Context, id string) (*model.Lead, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+leadColumns+` FROM leads WHERE id = ?`, id)
	lead, err := scanSQLiteLead(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, eris.Wrapf(ErrNotFound, "sqlite: lead %s", id)
		}
		return nil, eris.Wrapf(err, "sqlite: get lead %s", id)
	}
	return lead, nil
}

func (s *SQLiteStore) ListLeads(ctx context.Context, filter LeadFilter) ([]model.Lead, error) {
	query := `SELECT ` + leadColumns + ` FROM leads WHERE 1=1`
	var args []any

	if filter.Status != "" {
		query += ` AND enrichment_status = ?`
		args = append(args, string(filter.Status))
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list leads")
	}
	defer rows.Close()

	var leads []model.Lead
	for rows.Next() {
		lead, err := scanSQLiteLead(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan lead")
		}
		leads = append(leads, *lead)
	}
	return leads, eris.Wrap(rows.Err(), "sqlite: list leads iterate")
}

func (s *SQLiteStore) UpdateLead(ctx context.Context, lead *model.Lead) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE leads SET first_name = ?, last_name = ?, company = ?, title = ?,
			website = ?, linkedin_url = ?, email = ?, phone = ?, updated_at = ?
		WHERE id = ?`,
		lead.FirstName, lead.LastName, lead.Company, lead.Title, lead.Website,
		lead.LinkedInURL, lead.Email, lead.Phone, time.Now().UTC(), lead.ID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update lead %s", lead.ID)
	}
	return checkRowsAffected(res, "lead", lead.ID)
}

func (s *SQLiteStore) DeleteLead(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM leads WHERE id = ?`, id)
	if err != nil {
		return eris.Wrapf(err, "sqlite: delete lead %s", id)
	}
	return checkRowsAffected(res, "lead", id)
}

func (s *SQLiteStore) CreateTasks(ctx context.Context, leadIDs []string, kinds []model.Kind) ([]model.EnrichmentTask, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: begin create tasks")
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	tasks := make([]model.EnrichmentTask, 0, len(leadIDs)*len(kinds))

	for _, leadID := range leadIDs {
		res, err := tx.ExecContext(ctx,
			`UPDATE leads SET enrichment_status = ?, updated_at = ? WHERE id = ?`,
			string(model.StatusProcessing), now, leadID,
		)
		if err != nil {
			return nil, eris.Wrapf(err, "sqlite: mark lead processing %s", leadID)
		}
		if err := checkRowsAffected(res, "lead", leadID); err != nil {
			return nil, err
		}

		for _, kind := range kinds {
			task := model.EnrichmentTask{
				ID:        uuid.New().String(),
				LeadID:    leadID,
				Kind:      kind,
				Status:    model.StatusPending,
				CreatedAt: now,
			}
			_, err := tx.ExecContext(ctx,
				`INSERT INTO enrichment_tasks (id, lead_id, kind, status, created_at) VALUES (?, ?, ?, ?, ?)`,
				task.ID, task.LeadID, string(task.Kind), string(task.Status), task.CreatedAt,
			)
			if err != nil {
				return nil, eris.Wrapf(err, "sqlite: insert task %s/%s", leadID, kind)
			}
			tasks = append(tasks, task)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, eris.Wrap(err, "sqlite: commit create tasks")
	}
	return tasks, nil
}

func (s *SQLiteStore) GetTask(ctx context.Context, id string) (*model.EnrichmentTask, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM enrichment_tasks WHERE id = ?`, id)
	task, err := scanSQLiteTask(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, eris.Wrapf(ErrNotFound, "sqlite: task %s", id)
		}
		return nil, eris.Wrapf(err, "sqlite: get task %s", id)
	}
	return task, nil
}

func (s *SQLiteStore) ListTasksByLead(ctx context.Context, leadID string) ([]model.EnrichmentTask, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+taskColumns+` FROM enrichment_tasks WHERE lead_id = ? ORDER BY created_at`, leadID)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: list tasks for lead %s", leadID)
	}
	defer rows.Close()
	return collectSQLiteTasks(rows)
}

func (s *SQLiteStore) ListTasksByLeadAndStatus(ctx context.Context, leadID string, status model.EnrichmentStatus) ([]model.EnrichmentTask, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+taskColumns+` FROM enrichment_tasks WHERE lead_id = ? AND status = ? ORDER BY created_at`,
		leadID, string(status))
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: list %s tasks for lead %s", status, leadID)
	}
	defer rows.Close()
	return collectSQLiteTasks(rows)
}

func (s *SQLiteStore) ListStalePending(ctx context.Context, olderThan time.Duration, limit int) ([]model.EnrichmentTask, error) {
	cutoff := time.Now().UTC().Add(-olderThan)
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+taskColumns+` FROM enrichment_tasks WHERE status = ? AND created_at < ? ORDER BY created_at LIMIT ?`,
		string(model.StatusPending), cutoff, limit)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list stale pending tasks")
	}
	defer rows.Close()
	return collectSQLiteTasks(rows)
}

// ResetStaleProcessing flips processing tasks claimed longer ago than the
// given age back to pending and returns them for re-enqueue.
func (s *SQLiteStore) ResetStaleProcessing(ctx context.Context, olderThan time.Duration, limit int) ([]model.EnrichmentTask, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: begin reset stale processing")
	}
	defer tx.Rollback()

	cutoff := time.Now().UTC().Add(-olderThan)
	rows, err := tx.QueryContext(ctx,
		`SELECT `+taskColumns+` FROM enrichment_tasks WHERE status = ? AND started_at < ? ORDER BY started_at LIMIT ?`,
		string(model.StatusProcessing), cutoff, limit)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list stale processing tasks")
	}
	stale, err := collectSQLiteTasks(rows)
	rows.Close()
	if err != nil {
		return nil, err
	}

	if len(stale) == 0 {
		return nil, tx.Commit()
	}

	for _, task := range stale {
		_, err := tx.ExecContext(ctx,
			`UPDATE enrichment_tasks SET status = ?, started_at = NULL WHERE id = ?`,
			string(model.StatusPending), task.ID,
		)
		if err != nil {
			return nil, eris.Wrapf(err, "sqlite: reset stale processing task %s", task.ID)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, eris.Wrap(err, "sqlite: commit reset stale processing")
	}

	for i := range stale {
		stale[i].Status = model.StatusPending
	}
	return stale, nil
}

func (s *SQLiteStore) SetTaskJobID(ctx context.Context, taskID, jobID string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE enrichment_tasks SET job_id = ? WHERE id = ?`, jobID, taskID)
	return eris.Wrapf(err, "sqlite: set job id for task %s", taskID)
}

func (s *SQLiteStore) CountLeadsByStatus(ctx context.Context) (map[model.EnrichmentStatus]int, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT enrichment_status, COUNT(*) FROM leads GROUP BY enrichment_status`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: count leads by status")
	}
	defer rows.Close()

	counts := make(map[model.EnrichmentStatus]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan lead count")
		}
		counts[model.EnrichmentStatus(status)] = n
	}
	return counts, rows.Err()
}

func (s *SQLiteStore) CountTasksByKindStatus(ctx context.Context) (map[model.Kind]map[model.EnrichmentStatus]int, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT kind, status, COUNT(*) FROM enrichment_tasks GROUP BY kind, status`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: count tasks by kind and status")
	}
	defer rows.Close()

	counts := make(map[model.Kind]map[model.EnrichmentStatus]int)
	for rows.Next() {
		var kind, status string
		var n int
		if err := rows.Scan(&kind, &status, &n); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan task count")
		}
		k := model.Kind(kind)
		if counts[k] == nil {
			counts[k] = make(map[model.EnrichmentStatus]int)
		}
		counts[k][model.EnrichmentStatus(status)] = n
	}
	return counts, rows.Err()
}

func (s *SQLiteStore) MarkTaskProcessing(ctx context.Context, taskID string) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE enrichment_tasks SET status = ?, started_at = ? WHERE id = ? AND status = ?`,
		string(model.StatusProcessing), time.Now().UTC(), taskID, string(model.StatusPending),
	)
	if err != nil {
		return false, eris.Wrapf(err, "sqlite: mark task processing %s", taskID)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, eris.Wrap(err, "sqlite: rows affected")
	}
	return n == 1, nil
}

func (s *SQLiteStore) CompleteTask(ctx context.Context, taskID, leadID string, kind model.Kind, payload json.RawMessage, updates []model.FieldUpdate) error {
	if len(payload) == 0 {
		payload = json.RawMessage(`{}`)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin complete task")
	}
	defer tx.Rollback()

	now := time.Now().UTC()

	res, err := tx.ExecContext(ctx,
		`UPDATE enrichment_tasks SET status = ?, result = ?, error_message = '', completed_at = ? WHERE id = ?`,
		string(model.StatusCompleted), string(payload), now, taskID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: complete task %s", taskID)
	}
	if err := checkRowsAffected(res, "task", taskID); err != nil {
		return err
	}

	// SQLite has no jsonb concat; merge the per-kind entry in Go within the tx.
	var dataJSON sql.NullString
	if err := tx.QueryRowContext(ctx, `SELECT enriched_data FROM leads WHERE id = ?`, leadID).Scan(&dataJSON); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return eris.Wrapf(ErrNotFound, "sqlite: lead %s", leadID)
		}
		return eris.Wrapf(err, "sqlite: load enriched data for lead %s", leadID)
	}

	enriched := map[string]json.RawMessage{}
	if dataJSON.Valid && dataJSON.String != "" {
		if err := json.Unmarshal([]byte(dataJSON.String), &enriched); err != nil {
			return eris.Wrapf(err, "sqlite: unmarshal enriched data for lead %s", leadID)
		}
	}
	enriched[string(kind)] = payload

	merged, err := json.Marshal(enriched)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal enriched data")
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE leads SET enriched_data = ?, updated_at = ? WHERE id = ?`,
		string(merged), now, leadID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: upsert enriched data for lead %s", leadID)
	}

	for _, u := range updates {
		col, ok := fillableColumns[u.Field]
		if !ok || u.Value == "" {
			continue
		}
		query := fmt.Sprintf(`UPDATE leads SET %s = ?, updated_at = ? WHERE id = ? AND %s = ''`, col, col)
		if _, err := tx.ExecContext(ctx, query, u.Value, now, leadID); err != nil {
			return eris.Wrapf(err, "sqlite: fill %s for lead %s", col, leadID)
		}
	}

	if err := s.refreshLeadStatusTx(ctx, tx, leadID, now); err != nil {
		return err
	}

	return eris.Wrap(tx.Commit(), "sqlite: commit complete task")
}

func (s *SQLiteStore) FailTask(ctx context.Context, taskID, leadID, reason string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin fail task")
	}
	defer tx.Rollback()

	now := time.Now().UTC()

	res, err := tx.ExecContext(ctx,
		`UPDATE enrichment_tasks SET status = ?, error_message = ?, completed_at = ? WHERE id = ?`,
		string(model.StatusFailed), reason, now, taskID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: fail task %s", taskID)
	}
	if err := checkRowsAffected(res, "task", taskID); err != nil {
		return err
	}

	if err := s.refreshLeadStatusTx(ctx, tx, leadID, now); err != nil {
		return err
	}

	return eris.Wrap(tx.Commit(), "sqlite: commit fail task")
}

func (s *SQLiteStore) ResetFailedTasks(ctx context.Context, leadID string) ([]model.EnrichmentTask, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: begin reset failed tasks")
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx,
		`SELECT `+taskColumns+` FROM enrichment_tasks WHERE lead_id = ? AND status = ? ORDER BY created_at`,
		leadID, string(model.StatusFailed))
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: select failed tasks for lead %s", leadID)
	}
	failed, err := collectSQLiteTasks(rows)
	rows.Close()
	if err != nil {
		return nil, err
	}

	if len(failed) == 0 {
		return nil, tx.Commit()
	}

	now := time.Now().UTC()

	_, err = tx.ExecContext(ctx,
		`UPDATE enrichment_tasks SET status = ?, error_message = '', completed_at = NULL WHERE lead_id = ? AND status = ?`,
		string(model.StatusPending), leadID, string(model.StatusFailed),
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: reset failed tasks for lead %s", leadID)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE leads SET enrichment_status = ?, updated_at = ? WHERE id = ?`,
		string(model.StatusProcessing), now, leadID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: mark lead processing %s", leadID)
	}

	if err := tx.Commit(); err != nil {
		return nil, eris.Wrap(err, "sqlite: commit reset failed tasks")
	}

	for i := range failed {
		failed[i].Status = model.StatusPending
		failed[i].ErrorMessage = ""
		failed[i].CompletedAt = nil
	}
	return failed, nil
}

func (s *SQLiteStore) refreshLeadStatusTx(ctx context.Context, tx *sql.Tx, leadID string, now time.Time) error {
	rows, err := tx.QueryContext(ctx,
		`SELECT `+taskColumns+` FROM enrichment_tasks WHERE lead_id = ?`, leadID)
	if err != nil {
		return eris.Wrapf(err, "sqlite: load tasks for lead %s", leadID)
	}
	tasks, err := collectSQLiteTasks(rows)
	rows.Close()
	if err != nil {
		return err
	}

	status := model.AggregateStatus(tasks)
	_, err = tx.ExecContext(ctx,
		`UPDATE leads SET enrichment_status = ?, updated_at = ? WHERE id = ?`,
		string(status), now, leadID,
	)
	return eris.Wrapf(err, "sqlite: refresh status for lead %s", leadID)
}

func scanSQLiteLead(row rowScanner) (*model.Lead, error) {
	var lead model.Lead
	var status string
	var dataJSON sql.NullString

	err := row.Scan(&lead.ID, &lead.FirstName, &lead.LastName, &lead.Company, &lead.Title,
		&lead.Website, &lead.LinkedInURL, &lead.Email, &lead.Phone, &status, &dataJSON,
		&lead.CreatedAt, &lead.UpdatedAt)
	if err != nil {
		return nil, err
	}

	lead.EnrichmentStatus = model.EnrichmentStatus(status)
	if dataJSON.Valid && dataJSON.String != "" {
		if err := json.Unmarshal([]byte(dataJSON.String), &lead.EnrichedData); err != nil {
			return nil, eris.Wrap(err, "unmarshal enriched data")
		}
	}
	return &lead, nil
}

func scanSQLiteTask(row rowScanner) (*model.EnrichmentTask, error) {
	var task model.EnrichmentTask
	var kind, status string
	var result sql.NullString
	var completedAt sql.NullTime

	err := row.Scan(&task.ID, &task.LeadID, &kind, &status, &result,
		&task.ErrorMessage, &task.JobID, &task.CreatedAt, &completedAt)
	if err != nil {
		return nil, err
	}

	task.Kind = model.Kind(kind)
	task.Status = model.EnrichmentStatus(status)
	if result.Valid && result.String != "" {
		task.Result = json.RawMessage(result.String)
	}
	if completedAt.Valid {
		t := completedAt.Time
		task.CompletedAt = &t
	}
	return &task, nil
}

func collectSQLiteTasks(rows *sql.Rows) ([]model.EnrichmentTask, error) {
	var tasks []model.EnrichmentTask
	for rows.Next() {
		task, err := scanSQLiteTask(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan task")
		}
		tasks = append(tasks, *task)
	}
	return tasks, eris.Wrap(rows.Err(), "sqlite: task rows")
}

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "sqlite: rows affected")
	}
	if n == 0 {
		return eris.Wrapf(ErrNotFound, "sqlite: %s %s", entity, id)
	}
	return nil
}

func nullString(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return string(b)
}
