package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/spoilsapp/spoils-api/internal/api/shared"
	"github.com/spoilsapp/spoils-api/internal/store"
	"github.com/spoilsapp/spoils-api/internal/task"
)

// JobsHandler handles job scheduling and inspection HTTP requests.
type JobsHandler struct {
	enqueuer  task.Enqueuer
	taskStore task.Store
}

// NewJobsHandler creates a new JobsHandler.
func NewJobsHandler(enqueuer task.Enqueuer, taskStore task.Store) *JobsHandler {
	return &JobsHandler{
		enqueuer:  enqueuer,
		taskStore: taskStore,
	}
}

// FetchProduct handles POST /api/jobs/fetch-product requests.
func (h *JobsHandler) FetchProduct(w http.ResponseWriter, r *http.Request) {
	var req FetchProductRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	h.enqueue(w, r, task.TypeFetchProduct, task.FetchProductPayload{Barcode: req.Barcode})
}

// AnalyzeIngredients handles POST /api/jobs/analyze-ingredients requests.
func (h *JobsHandler) AnalyzeIngredients(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeIngredientsRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid product ID")
		return
	}

	h.enqueue(w, r, task.TypeAnalyzeIngredients, task.AnalyzeIngredientsPayload{ProductID: productID})
}

// enqueue schedules a task and writes the 202 response. An already pending
// equivalent task is reported as a duplicate, not an error.
func (h *JobsHandler) enqueue(w http.ResponseWriter, r *http.Request, typeTag string, payload any) {
	taskID, err := h.enqueuer.Enqueue(r.Context(), typeTag, payload)
	if err != nil {
		if errors.Is(err, task.ErrDuplicateTask) {
			shared.RespondWithJSON(w, r, http.StatusAccepted, JobAcceptedResponse{
				TaskID:    taskIDString(taskID),
				Duplicate: true,
			})
			return
		}
		shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError,
			"Failed to schedule job", err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusAccepted, JobAcceptedResponse{
		TaskID: taskID.String(),
	})
}

// GetJob handles GET /api/jobs/{id} requests.
func (h *JobsHandler) GetJob(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid job ID")
		return
	}

	t, err := h.taskStore.GetByID(r.Context(), id)
	if err != nil {
		if store.IsNotFoundError(err) {
			shared.RespondWithError(w, r, http.StatusNotFound, "Job not found")
			return
		}
		shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError,
			"Failed to load job", err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, taskToResponse(t))
}

// ListJobs handles GET /api/jobs requests, filtered by payload correlation
// (currently barcode only).
func (h *JobsHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	barcode := r.URL.Query().Get("barcode")
	if barcode == "" {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Missing barcode query parameter")
		return
	}

	tasks, err := h.taskStore.FindByCorrelation(r.Context(), "barcode", barcode)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError,
			"Failed to list jobs", err)
		return
	}

	responses := make([]JobResponse, len(tasks))
	for i, t := range tasks {
		responses[i] = taskToResponse(t)
	}
	shared.RespondWithJSON(w, r, http.StatusOK, responses)
}

// JobStatus handles GET /api/jobs/status requests.
func (h *JobsHandler) JobStatus(w http.ResponseWriter, r *http.Request) {
	counts, err := h.taskStore.CountByState(r.Context())
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError,
			"Failed to load job status", err)
		return
	}

	out := make(map[string]int, len(counts))
	for state, n := range counts {
		out[string(state)] = n
	}
	shared.RespondWithJSON(w, r, http.StatusOK, JobStatusResponse{Counts: out})
}

func taskIDString(id uuid.UUID) string {
	if id == uuid.Nil {
		return ""
	}
	return id.String()
}
