package main

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/lead-enrichment/internal/enrich"
	"github.com/sells-group/lead-enrichment/internal/model"
	"github.com/sells-group/lead-enrichment/internal/monitoring"
	"github.com/sells-group/lead-enrichment/internal/store"
)

// apiServer holds the HTTP handler dependencies.
type apiServer struct {
	store      store.Store
	dispatcher *enrich.Dispatcher
	retrier    *enrich.Retrier
	collector  *monitoring.Collector
}

// newRouter builds the chi router with all API routes.
func newRouter(api *apiServer) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Get("/health", api.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Route("/leads", func(r chi.Router) {
			r.Post("/", api.handleCreateLead)
			r.Post("/bulk", api.handleCreateLeadsBulk)
			r.Post("/upload-csv", api.handleUploadCSV)
			r.Get("/", api.handleListLeads)
			r.Get("/{id}", api.handleGetLead)
			r.Put("/{id}", api.handleUpdateLead)
			r.Delete("/{id}", api.handleDeleteLead)
		})

		r.Route("/enrich", func(r chi.Router) {
			r.Post("/", api.handleEnrich)
			r.Get("/status/{leadID}", api.handleEnrichStatus)
			r.Post("/retry/{leadID}", api.handleRetry)
		})

		r.Get("/metrics", api.handleMetrics)
	})

	return r
}

func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		zap.L().Error("api: encode response", zap.Error(err))
	}
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]string{"error": msg})
}

// respondStoreError maps store errors onto HTTP statuses.
func respondStoreError(w http.ResponseWriter, err error) {
	if eris.Is(err, store.ErrNotFound) {
		respondError(w, http.StatusNotFound, "not found")
		return
	}
	zap.L().Error("api: store error", zap.Error(err))
	respondError(w, http.StatusInternalServerError, "internal error")
}

func (a *apiServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := a.store.Ping(r.Context()); err != nil {
		respondJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "degraded",
			"store":  err.Error(),
		})
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *apiServer) handleCreateLead(w http.ResponseWriter, r *http.Request) {
	var lead model.Lead
	if err := json.NewDecoder(r.Body).Decode(&lead); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := a.store.CreateLead(r.Context(), &lead); err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, lead)
}

func (a *apiServer) handleCreateLeadsBulk(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Leads []*model.Lead `json:"leads"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Leads) == 0 {
		respondError(w, http.StatusBadRequest, "leads is required")
		return
	}

	created, err := a.store.CreateLeads(r.Context(), req.Leads)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]int{"created": created})
}

func (a *apiServer) handleUploadCSV(w http.ResponseWriter, r *http.Request) {
	file, _, err := r.FormFile("file")
	if err != nil {
		respondError(w, http.StatusBadRequest, "multipart field \"file\" is required")
		return
	}
	defer file.Close()

	leads, err := readLeadsCSV(file)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if len(leads) == 0 {
		respondError(w, http.StatusBadRequest, "no lead rows in CSV")
		return
	}

	created, err := a.store.CreateLeads(r.Context(), leads)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]int{"created": created})
}

func (a *apiServer) handleListLeads(w http.ResponseWriter, r *http.Request) {
	filter := store.LeadFilter{
		Status: model.EnrichmentStatus(r.URL.Query().Get("status")),
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		filter.Limit, _ = strconv.Atoi(v)
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		filter.Offset, _ = strconv.Atoi(v)
	}

	leads, err := a.store.ListLeads(r.Context(), filter)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	if leads == nil {
		leads = []model.Lead{}
	}
	respondJSON(w, http.StatusOK, map[string]any{"leads": leads, "count": len(leads)})
}

func (a *apiServer) handleGetLead(w http.ResponseWriter, r *http.Request) {
	lead, err := a.store.GetLead(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, lead)
}

func (a *apiServer) handleUpdateLead(w http.ResponseWriter, r *http.Request) {
	var lead model.Lead
	if err := json.NewDecoder(r.Body).Decode(&lead); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	lead.ID = chi.URLParam(r, "id")

	if err := a.store.UpdateLead(r.Context(), &lead); err != nil {
		respondStoreError(w, err)
		return
	}

	updated, err := a.store.GetLead(r.Context(), lead.ID)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, updated)
}

func (a *apiServer) handleDeleteLead(w http.ResponseWriter, r *http.Request) {
	if err := a.store.DeleteLead(r.Context(), chi.URLParam(r, "id")); err != nil {
		respondStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *apiServer) handleEnrich(w http.ResponseWriter, r *http.Request) {
	var req struct {
		LeadIDs []string `json:"lead_ids"`
		Kinds   []string `json:"kinds"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.LeadIDs) == 0 {
		respondError(w, http.StatusBadRequest, "lead_ids is required")
		return
	}

	kinds := make([]model.Kind, 0, len(req.Kinds))
	for _, k := range req.Kinds {
		kind, err := model.ParseKind(k)
		if err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		kinds = append(kinds, kind)
	}

	result, err := a.dispatcher.Dispatch(r.Context(), req.LeadIDs, kinds)
	if err != nil {
		if eris.Is(err, store.ErrNotFound) {
			respondError(w, http.StatusNotFound, "one or more leads not found")
			return
		}
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	respondJSON(w, http.StatusAccepted, map[string]any{
		"message":    "enrichment dispatched",
		"task_ids":   result.TaskIDs,
		"lead_count": result.LeadCount,
	})
}

// taskView is the per-task shape returned by the status endpoint.
type taskView struct {
	ID           string                 `json:"id"`
	Kind         model.Kind             `json:"kind"`
	Status       model.EnrichmentStatus `json:"status"`
	Result       json.RawMessage        `json:"result,omitempty"`
	ErrorMessage string                 `json:"error_message,omitempty"`
	CreatedAt    string                 `json:"created_at"`
	CompletedAt  string                 `json:"completed_at,omitempty"`
}

func (a *apiServer) handleEnrichStatus(w http.ResponseWriter, r *http.Request) {
	leadID := chi.URLParam(r, "leadID")

	lead, err := a.store.GetLead(r.Context(), leadID)
	if err != nil {
		respondStoreError(w, err)
		return
	}

	tasks, err := a.store.ListTasksByLead(r.Context(), leadID)
	if err != nil {
		respondStoreError(w, err)
		return
	}

	views := make([]taskView, 0, len(tasks))
	for _, task := range tasks {
		v := taskView{
			ID:           task.ID,
			Kind:         task.Kind,
			Status:       task.Status,
			Result:       task.Result,
			ErrorMessage: task.ErrorMessage,
			CreatedAt:    task.CreatedAt.Format(time.RFC3339Nano),
		}
		if task.CompletedAt != nil {
			v.CompletedAt = task.CompletedAt.Format(time.RFC3339Nano)
		}
		views = append(views, v)
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"lead_id":           lead.ID,
		"enrichment_status": lead.EnrichmentStatus,
		"tasks":             views,
	})
}

func (a *apiServer) handleRetry(w http.ResponseWriter, r *http.Request) {
	result, err := a.retrier.Retry(r.Context(), chi.URLParam(r, "leadID"))
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusAccepted, map[string]any{
		"message":  "failed tasks requeued",
		"task_ids": result.TaskIDs,
	})
}

func (a *apiServer) handleMetrics(w http.ResponseWriter, r *http.Request) {
	snap, err := a.collector.Collect(r.Context())
	if err != nil {
		zap.L().Error("api: collect metrics", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	respondJSON(w, http.StatusOK, snap)
}
