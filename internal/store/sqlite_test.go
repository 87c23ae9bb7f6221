package store

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/lead-enrichment/internal/model"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "leads.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func createTestLead(t *testing.T, s *SQLiteStore, lead *model.Lead) *model.Lead {
	t.Helper()
	require.NoError(t, s.CreateLead(context.Background(), lead))
	return lead
}

func TestSQLiteStore_LeadCRUD(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	lead := createTestLead(t, s, &model.Lead{FirstName: "Jane", LastName: "Doe", Company: "Acme"})
	assert.NotEmpty(t, lead.ID)
	assert.Equal(t, model.StatusPending, lead.EnrichmentStatus)

	got, err := s.GetLead(ctx, lead.ID)
	require.NoError(t, err)
	assert.Equal(t, "Jane", got.FirstName)
	assert.Nil(t, got.EnrichedData)

	got.Title = "CTO"
	require.NoError(t, s.UpdateLead(ctx, got))

	got, err = s.GetLead(ctx, lead.ID)
	require.NoError(t, err)
	assert.Equal(t, "CTO", got.Title)

	leads, err := s.ListLeads(ctx, LeadFilter{})
	require.NoError(t, err)
	assert.Len(t, leads, 1)

	require.NoError(t, s.DeleteLead(ctx, lead.ID))
	_, err = s.GetLead(ctx, lead.ID)
	assert.True(t, eris.Is(err, ErrNotFound))
}

func TestSQLiteStore_GetLead_NotFound(t *testing.T) {
	s := newTestSQLiteStore(t)

	_, err := s.GetLead(context.Background(), "nope")
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrNotFound))
}

func TestSQLiteStore_CreateLeads_Bulk(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	n, err := s.CreateLeads(ctx, []*model.Lead{
		{FirstName: "A"}, {FirstName: "B"}, {FirstName: "C"},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	leads, err := s.ListLeads(ctx, LeadFilter{})
	require.NoError(t, err)
	assert.Len(t, leads, 3)
}

func TestSQLiteStore_CreateTasks_AllOrNothing(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	lead := createTestLead(t, s, &model.Lead{FirstName: "Jane"})

	// One missing lead rejects the whole batch: no tasks, no status flip.
	_, err := s.CreateTasks(ctx, []string{lead.ID, "missing"}, []model.Kind{model.KindEmail})
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrNotFound))

	tasks, err := s.ListTasksByLead(ctx, lead.ID)
	require.NoError(t, err)
	assert.Empty(t, tasks)

	got, err := s.GetLead(ctx, lead.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, got.EnrichmentStatus)
}

func TestSQLiteStore_CreateTasks_PendingPerPair(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	a := createTestLead(t, s, &model.Lead{FirstName: "A"})
	b := createTestLead(t, s, &model.Lead{FirstName: "B"})

	kinds := []model.Kind{model.KindEmail, model.KindApollo, model.KindAI}
	tasks, err := s.CreateTasks(ctx, []string{a.ID, b.ID}, kinds)
	require.NoError(t, err)
	assert.Len(t, tasks, 6)

	for _, task := range tasks {
		assert.Equal(t, model.StatusPending, task.Status)
	}

	got, err := s.GetLead(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusProcessing, got.EnrichmentStatus)
}

func TestSQLiteStore_CompleteTask_MergeNeverOverwrites(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	lead := createTestLead(t, s, &model.Lead{FirstName: "Jane", LastName: "Doe", Website: "https://acme.com"})

	tasks, err := s.CreateTasks(ctx, []string{lead.ID}, []model.Kind{model.KindApollo, model.KindEmail})
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	apolloTask, emailTask := tasks[0], tasks[1]

	// Apollo completes first and fills the empty email field.
	require.NoError(t, s.CompleteTask(ctx, apolloTask.ID, lead.ID, model.KindApollo,
		json.RawMessage(`{"person":{"email":"jane@acme.com"}}`),
		[]model.FieldUpdate{{Field: model.FieldEmail, Value: "jane@acme.com"}}))

	got, err := s.GetLead(ctx, lead.ID)
	require.NoError(t, err)
	assert.Equal(t, "jane@acme.com", got.Email)
	assert.Equal(t, model.StatusProcessing, got.EnrichmentStatus)

	// Email kind completes later with a different discovery; the non-empty
	// field keeps the first writer's value, but both kinds' payloads persist.
	require.NoError(t, s.CompleteTask(ctx, emailTask.ID, lead.ID, model.KindEmail,
		json.RawMessage(`{"email":"j.doe@acme.com","valid":true}`),
		[]model.FieldUpdate{{Field: model.FieldEmail, Value: "j.doe@acme.com"}}))

	got, err = s.GetLead(ctx, lead.ID)
	require.NoError(t, err)
	assert.Equal(t, "jane@acme.com", got.Email)
	assert.Contains(t, got.EnrichedData, "apollo")
	assert.Contains(t, got.EnrichedData, "email")
	assert.Equal(t, model.StatusCompleted, got.EnrichmentStatus)
}

func TestSQLiteStore_FailTask_KeepsOtherKindsData(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	lead := createTestLead(t, s, &model.Lead{FirstName: "Jane"})

	tasks, err := s.CreateTasks(ctx, []string{lead.ID}, []model.Kind{model.KindAI, model.KindScraper})
	require.NoError(t, err)

	require.NoError(t, s.CompleteTask(ctx, tasks[0].ID, lead.ID, model.KindAI,
		json.RawMessage(`{"insights":"decision maker"}`), nil))
	require.NoError(t, s.FailTask(ctx, tasks[1].ID, lead.ID, "website URL required for scraping"))

	got, err := s.GetLead(ctx, lead.ID)
	require.NoError(t, err)
	assert.Contains(t, got.EnrichedData, "ai")
	assert.Equal(t, model.StatusProcessing, got.EnrichmentStatus)

	failed, err := s.ListTasksByLeadAndStatus(ctx, lead.ID, model.StatusFailed)
	require.NoError(t, err)
	require.Len(t, failed, 1)
	assert.Equal(t, "website URL required for scraping", failed[0].ErrorMessage)
	assert.NotNil(t, failed[0].CompletedAt)
}

func TestSQLiteStore_MarkTaskProcessing_OnlyOnce(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	lead := createTestLead(t, s, &model.Lead{FirstName: "Jane"})
	tasks, err := s.CreateTasks(ctx, []string{lead.ID}, []model.Kind{model.KindAI})
	require.NoError(t, err)

	ok, err := s.MarkTaskProcessing(ctx, tasks[0].ID)
	require.NoError(t, err)
	assert.True(t, ok)

	// Duplicate queue delivery is skipped.
	ok, err = s.MarkTaskProcessing(ctx, tasks[0].ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSQLiteStore_ResetStaleProcessing(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	lead := createTestLead(t, s, &model.Lead{FirstName: "Jane"})
	tasks, err := s.CreateTasks(ctx, []string{lead.ID}, []model.Kind{model.KindAI, model.KindEmail})
	require.NoError(t, err)

	ok, err := s.MarkTaskProcessing(ctx, tasks[0].ID)
	require.NoError(t, err)
	require.True(t, ok)

	// A freshly claimed task is not orphaned yet.
	reset, err := s.ResetStaleProcessing(ctx, time.Hour, 10)
	require.NoError(t, err)
	assert.Empty(t, reset)

	// Zero age expires every claim.
	reset, err = s.ResetStaleProcessing(ctx, 0, 10)
	require.NoError(t, err)
	require.Len(t, reset, 1)
	assert.Equal(t, tasks[0].ID, reset[0].ID)
	assert.Equal(t, model.StatusPending, reset[0].Status)

	// The released row can be claimed again.
	ok, err = s.MarkTaskProcessing(ctx, tasks[0].ID)
	require.NoError(t, err)
	assert.True(t, ok)

	// The task that was never claimed stays pending and is not returned.
	task, err := s.GetTask(ctx, tasks[1].ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, task.Status)
}

func TestSQLiteStore_ResetFailedTasks(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	lead := createTestLead(t, s, &model.Lead{FirstName: "Jane", Website: "https://acme.com"})
	tasks, err := s.CreateTasks(ctx, []string{lead.ID}, []model.Kind{model.KindEmail, model.KindScraper})
	require.NoError(t, err)

	require.NoError(t, s.CompleteTask(ctx, tasks[0].ID, lead.ID, model.KindEmail,
		json.RawMessage(`{"valid":true}`), nil))
	require.NoError(t, s.FailTask(ctx, tasks[1].ID, lead.ID, "timeout"))

	reset, err := s.ResetFailedTasks(ctx, lead.ID)
	require.NoError(t, err)
	require.Len(t, reset, 1)
	assert.Equal(t, tasks[1].ID, reset[0].ID, "retry reuses the same task row")
	assert.Equal(t, model.StatusPending, reset[0].Status)

	// Completed task and its result are untouched.
	completed, err := s.GetTask(ctx, tasks[0].ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, completed.Status)
	assert.JSONEq(t, `{"valid":true}`, string(completed.Result))

	got, err := s.GetLead(ctx, lead.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusProcessing, got.EnrichmentStatus)

	// All tasks resolved again: no failed left, second reset is a no-op.
	reset, err = s.ResetFailedTasks(ctx, lead.ID)
	require.NoError(t, err)
	assert.Empty(t, reset)
}

func TestSQLiteStore_TaskAuditTrailSurvivesRetry(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	lead := createTestLead(t, s, &model.Lead{FirstName: "Jane"})
	tasks, err := s.CreateTasks(ctx, []string{lead.ID}, []model.Kind{model.KindAI})
	require.NoError(t, err)

	require.NoError(t, s.FailTask(ctx, tasks[0].ID, lead.ID, "boom"))
	_, err = s.ResetFailedTasks(ctx, lead.ID)
	require.NoError(t, err)

	all, err := s.ListTasksByLead(ctx, lead.ID)
	require.NoError(t, err)
	assert.Len(t, all, 1)
	assert.Empty(t, all[0].ErrorMessage)
	assert.Nil(t, all[0].CompletedAt)
}

func TestSQLiteStore_SetTaskJobID(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	lead := createTestLead(t, s, &model.Lead{FirstName: "Jane"})
	tasks, err := s.CreateTasks(ctx, []string{lead.ID}, []model.Kind{model.KindAI})
	require.NoError(t, err)

	require.NoError(t, s.SetTaskJobID(ctx, tasks[0].ID, "job-7"))

	got, err := s.GetTask(ctx, tasks[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "job-7", got.JobID)
}

func TestSQLiteStore_CountsForMetrics(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	a := createTestLead(t, s, &model.Lead{FirstName: "A"})
	b := createTestLead(t, s, &model.Lead{FirstName: "B"})

	tasks, err := s.CreateTasks(ctx, []string{a.ID}, []model.Kind{model.KindEmail, model.KindAI})
	require.NoError(t, err)
	require.NoError(t, s.CompleteTask(ctx, tasks[0].ID, a.ID, model.KindEmail, json.RawMessage(`{}`), nil))
	require.NoError(t, s.FailTask(ctx, tasks[1].ID, a.ID, "boom"))

	leadCounts, err := s.CountLeadsByStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, leadCounts[model.StatusPending], "lead %s untouched", b.ID)
	assert.Equal(t, 1, leadCounts[model.StatusProcessing])

	taskCounts, err := s.CountTasksByKindStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, taskCounts[model.KindEmail][model.StatusCompleted])
	assert.Equal(t, 1, taskCounts[model.KindAI][model.StatusFailed])
	assert.Empty(t, taskCounts[model.KindScraper])
}
