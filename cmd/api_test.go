//go:build !integration

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/lead-enrichment/internal/enrich"
	"github.com/sells-group/lead-enrichment/internal/model"
	"github.com/sells-group/lead-enrichment/internal/monitoring"
	"github.com/sells-group/lead-enrichment/internal/queue"
	"github.com/sells-group/lead-enrichment/internal/store"
)

func newTestAPI(t *testing.T) (*apiServer, http.Handler, *queue.MemoryQueue) {
	t.Helper()

	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "leads.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	require.NoError(t, st.Migrate(context.Background()))

	q := queue.NewMemory(64)
	api := &apiServer{
		store:      st,
		dispatcher: enrich.NewDispatcher(st, q),
		retrier:    enrich.NewRetrier(st, q),
		collector:  monitoring.NewCollector(st),
	}
	return api, newRouter(api), q
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decodeBody[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v), rr.Body.String())
	return v
}

func TestAPI_Health(t *testing.T) {
	_, h, _ := newTestAPI(t)

	rr := doJSON(t, h, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rr.Code)

	body := decodeBody[map[string]string](t, rr)
	assert.Equal(t, "ok", body["status"])
}

func TestAPI_LeadCRUD(t *testing.T) {
	_, h, _ := newTestAPI(t)

	// Create
	rr := doJSON(t, h, http.MethodPost, "/api/leads", model.Lead{
		FirstName: "Jane", LastName: "Doe", Company: "Acme",
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	created := decodeBody[model.Lead](t, rr)
	require.NotEmpty(t, created.ID)
	assert.Equal(t, model.StatusPending, created.EnrichmentStatus)

	// Get
	rr = doJSON(t, h, http.MethodGet, "/api/leads/"+created.ID, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	got := decodeBody[model.Lead](t, rr)
	assert.Equal(t, "Jane", got.FirstName)

	// Update
	got.Title = "CTO"
	rr = doJSON(t, h, http.MethodPut, "/api/leads/"+created.ID, got)
	require.Equal(t, http.StatusOK, rr.Code)
	updated := decodeBody[model.Lead](t, rr)
	assert.Equal(t, "CTO", updated.Title)

	// List
	rr = doJSON(t, h, http.MethodGet, "/api/leads?limit=10", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	list := decodeBody[map[string]any](t, rr)
	assert.EqualValues(t, 1, list["count"])

	// Delete
	rr = doJSON(t, h, http.MethodDelete, "/api/leads/"+created.ID, nil)
	assert.Equal(t, http.StatusNoContent, rr.Code)

	rr = doJSON(t, h, http.MethodGet, "/api/leads/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestAPI_GetLead_NotFound(t *testing.T) {
	_, h, _ := newTestAPI(t)

	rr := doJSON(t, h, http.MethodGet, "/api/leads/nope", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestAPI_CreateLeadsBulk(t *testing.T) {
	_, h, _ := newTestAPI(t)

	rr := doJSON(t, h, http.MethodPost, "/api/leads/bulk", map[string]any{
		"leads": []model.Lead{
			{FirstName: "Jane", Company: "Acme"},
			{FirstName: "John", Company: "Globex"},
		},
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	body := decodeBody[map[string]int](t, rr)
	assert.Equal(t, 2, body["created"])
}

func TestAPI_CreateLeadsBulk_Empty(t *testing.T) {
	_, h, _ := newTestAPI(t)

	rr := doJSON(t, h, http.MethodPost, "/api/leads/bulk", map[string]any{"leads": []model.Lead{}})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestAPI_UploadCSV(t *testing.T) {
	_, h, _ := newTestAPI(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "leads.csv")
	require.NoError(t, err)
	_, err = fw.Write([]byte("first_name,last_name,email\nJane,Doe,jane@acme.com\nJohn,Smith,\n"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/leads/upload-csv", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	body := decodeBody[map[string]int](t, rr)
	assert.Equal(t, 2, body["created"])
}

func TestAPI_UploadCSV_MissingFile(t *testing.T) {
	_, h, _ := newTestAPI(t)

	rr := doJSON(t, h, http.MethodPost, "/api/leads/upload-csv", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestAPI_Enrich_DispatchesTasks(t *testing.T) {
	api, h, q := newTestAPI(t)

	lead := &model.Lead{FirstName: "Jane", LastName: "Doe"}
	require.NoError(t, api.store.CreateLead(context.Background(), lead))

	rr := doJSON(t, h, http.MethodPost, "/api/enrich", map[string]any{
		"lead_ids": []string{lead.ID},
		"kinds":    []string{"email", "ai"},
	})
	require.Equal(t, http.StatusAccepted, rr.Code, rr.Body.String())

	body := decodeBody[map[string]any](t, rr)
	assert.EqualValues(t, 1, body["lead_count"])
	assert.Len(t, body["task_ids"], 2)
	assert.Equal(t, 2, q.Len())

	got, err := api.store.GetLead(context.Background(), lead.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusProcessing, got.EnrichmentStatus)
}

func TestAPI_Enrich_MissingLeadRejectsBatch(t *testing.T) {
	api, h, q := newTestAPI(t)

	lead := &model.Lead{FirstName: "Jane"}
	require.NoError(t, api.store.CreateLead(context.Background(), lead))

	rr := doJSON(t, h, http.MethodPost, "/api/enrich", map[string]any{
		"lead_ids": []string{lead.ID, "missing"},
	})
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Zero(t, q.Len(), "nothing enqueued for a rejected batch")
}

func TestAPI_Enrich_UnknownKind(t *testing.T) {
	api, h, _ := newTestAPI(t)

	lead := &model.Lead{FirstName: "Jane"}
	require.NoError(t, api.store.CreateLead(context.Background(), lead))

	rr := doJSON(t, h, http.MethodPost, "/api/enrich", map[string]any{
		"lead_ids": []string{lead.ID},
		"kinds":    []string{"clearbit"},
	})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "unsupported enrichment kind")
}

func TestAPI_Enrich_NoLeadIDs(t *testing.T) {
	_, h, _ := newTestAPI(t)

	rr := doJSON(t, h, http.MethodPost, "/api/enrich", map[string]any{"lead_ids": []string{}})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestAPI_EnrichStatus(t *testing.T) {
	api, h, _ := newTestAPI(t)
	ctx := context.Background()

	lead := &model.Lead{FirstName: "Jane"}
	require.NoError(t, api.store.CreateLead(ctx, lead))

	tasks, err := api.store.CreateTasks(ctx, []string{lead.ID}, []model.Kind{model.KindEmail, model.KindAI})
	require.NoError(t, err)
	require.NoError(t, api.store.CompleteTask(ctx, tasks[0].ID, lead.ID, model.KindEmail,
		json.RawMessage(`{"valid":true}`), nil))
	require.NoError(t, api.store.FailTask(ctx, tasks[1].ID, lead.ID, "model overloaded"))

	rr := doJSON(t, h, http.MethodGet, "/api/enrich/status/"+lead.ID, nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var body struct {
		LeadID           string                 `json:"lead_id"`
		EnrichmentStatus model.EnrichmentStatus `json:"enrichment_status"`
		Tasks            []taskView             `json:"tasks"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))

	assert.Equal(t, lead.ID, body.LeadID)
	assert.Equal(t, model.StatusProcessing, body.EnrichmentStatus)
	require.Len(t, body.Tasks, 2)

	byKind := map[model.Kind]taskView{}
	for _, v := range body.Tasks {
		byKind[v.Kind] = v
	}
	assert.Equal(t, model.StatusCompleted, byKind[model.KindEmail].Status)
	assert.NotEmpty(t, byKind[model.KindEmail].CompletedAt)
	assert.Equal(t, model.StatusFailed, byKind[model.KindAI].Status)
	assert.Equal(t, "model overloaded", byKind[model.KindAI].ErrorMessage)
}

func TestAPI_EnrichStatus_NotFound(t *testing.T) {
	_, h, _ := newTestAPI(t)

	rr := doJSON(t, h, http.MethodGet, "/api/enrich/status/missing", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestAPI_Retry(t *testing.T) {
	api, h, q := newTestAPI(t)
	ctx := context.Background()

	lead := &model.Lead{FirstName: "Jane"}
	require.NoError(t, api.store.CreateLead(ctx, lead))
	tasks, err := api.store.CreateTasks(ctx, []string{lead.ID}, []model.Kind{model.KindEmail})
	require.NoError(t, err)
	require.NoError(t, api.store.FailTask(ctx, tasks[0].ID, lead.ID, "boom"))

	rr := doJSON(t, h, http.MethodPost, "/api/enrich/retry/"+lead.ID, nil)
	require.Equal(t, http.StatusAccepted, rr.Code, rr.Body.String())

	var body struct {
		TaskIDs []string `json:"task_ids"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	require.Len(t, body.TaskIDs, 1)
	assert.Equal(t, tasks[0].ID, body.TaskIDs[0], "retry reuses the failed task row")
	assert.Equal(t, 1, q.Len())
}

func TestAPI_Retry_NotFound(t *testing.T) {
	_, h, _ := newTestAPI(t)

	rr := doJSON(t, h, http.MethodPost, "/api/enrich/retry/missing", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestAPI_Metrics(t *testing.T) {
	api, h, _ := newTestAPI(t)
	ctx := context.Background()

	lead := &model.Lead{FirstName: "Jane"}
	require.NoError(t, api.store.CreateLead(ctx, lead))
	tasks, err := api.store.CreateTasks(ctx, []string{lead.ID}, []model.Kind{model.KindEmail})
	require.NoError(t, err)
	require.NoError(t, api.store.CompleteTask(ctx, tasks[0].ID, lead.ID, model.KindEmail,
		json.RawMessage(`{}`), nil))

	rr := doJSON(t, h, http.MethodGet, "/api/metrics", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	snap := decodeBody[monitoring.MetricsSnapshot](t, rr)
	assert.Equal(t, 1, snap.LeadsTotal)
	assert.Equal(t, 1, snap.TasksTotal)
	assert.Equal(t, 1, snap.TasksCompleted)
	assert.Zero(t, snap.TaskFailRate)
}
