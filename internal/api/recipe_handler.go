// Package api implements the HTTP surface of the extraction service.
package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tastebase/recipe-api/internal/api/shared"
	"github.com/tastebase/recipe-api/internal/pipeline"
)

// QueueService is the submission surface of the pipeline the handlers
// talk to.
type QueueService interface {
	SubmitURL(url string) (jobID string, position int, err error)
	SubmitText(text string) (jobID string, position int, err error)
	Snapshot() []pipeline.Job
	Status(jobID string) (pipeline.Job, bool)
}

// ExtractURLRequest is the request body for URL-based extraction.
type ExtractURLRequest struct {
	URL string `json:"url" validate:"required"`
}

// ExtractTextRequest is the request body for literal-text extraction.
type ExtractTextRequest struct {
	Text string `json:"text" validate:"required"`
}

// QueuedResponse acknowledges an accepted submission.
type QueuedResponse struct {
	Message  string `json:"message"`
	JobID    string `json:"jobId"`
	Position int    `json:"position"`
}

// RecipeHandler handles recipe extraction HTTP requests.
type RecipeHandler struct {
	queue  QueueService
	logger *slog.Logger
}

// NewRecipeHandler creates a RecipeHandler.
func NewRecipeHandler(queue QueueService, logger *slog.Logger) *RecipeHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &RecipeHandler{
		queue:  queue,
		logger: logger.With(slog.String("component", "recipe_handler")),
	}
}

// ExtractFromURL handles POST /api/extract requests. The job is queued and
// processed asynchronously; the response carries its queue position.
func (h *RecipeHandler) ExtractFromURL(w http.ResponseWriter, r *http.Request) {
	var req ExtractURLRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "URL is required")
		return
	}

	jobID, position, err := h.queue.SubmitURL(req.URL)
	if err != nil {
		h.respondSubmitError(w, r, err)
		return
	}

	h.logger.Info("extraction queued", "job_id", jobID, "url", req.URL)
	shared.RespondWithJSON(w, r, http.StatusAccepted, QueuedResponse{
		Message:  "Job queued",
		JobID:    jobID,
		Position: position,
	})
}

// ExtractFromText handles POST /api/extract/text requests.
func (h *RecipeHandler) ExtractFromText(w http.ResponseWriter, r *http.Request) {
	var req ExtractTextRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Text is required")
		return
	}

	jobID, position, err := h.queue.SubmitText(req.Text)
	if err != nil {
		h.respondSubmitError(w, r, err)
		return
	}

	h.logger.Info("text extraction queued", "job_id", jobID, "chars", len(req.Text))
	shared.RespondWithJSON(w, r, http.StatusAccepted, QueuedResponse{
		Message:  "Job queued",
		JobID:    jobID,
		Position: position,
	})
}

// ListQueue handles GET /api/queue requests, returning every job still
// queued or currently processing.
func (h *RecipeHandler) ListQueue(w http.ResponseWriter, r *http.Request) {
	shared.RespondWithJSON(w, r, http.StatusOK, h.queue.Snapshot())
}

// GetJob handles GET /api/jobs/{id} requests. Finished jobs remain
// queryable until they age out of the terminal-job buffer.
func (h *RecipeHandler) GetJob(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "id")
	if jobID == "" {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Job ID is required")
		return
	}

	job, ok := h.queue.Status(jobID)
	if !ok {
		shared.RespondWithError(w, r, http.StatusNotFound, "Job not found")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, job)
}

func (h *RecipeHandler) respondSubmitError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, pipeline.ErrEmptyURL):
		shared.RespondWithError(w, r, http.StatusBadRequest, "URL is required")
	case errors.Is(err, pipeline.ErrEmptyText):
		shared.RespondWithError(w, r, http.StatusBadRequest, "Text is required")
	default:
		h.logger.Error("failed to queue job", "error", err)
		shared.RespondWithError(w, r, http.StatusInternalServerError, "Failed to queue job")
	}
}
