package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/user/bookmark-service/internal/delivery/http/request"
	"github.com/user/bookmark-service/internal/delivery/http/response"
	"github.com/user/bookmark-service/internal/entity"
	"github.com/user/bookmark-service/internal/repository"
	"github.com/user/bookmark-service/internal/usecase"
	"go.uber.org/zap"
)

// HealthCheck is one backing service probed by the health endpoint.
type HealthCheck struct {
	Name string
	Ping func(ctx context.Context) error
}

type Handler struct {
	runs   usecase.RunManager
	queue  repository.TriggerQueue
	checks []HealthCheck
	logger *zap.Logger
}

func NewHandler(runs usecase.RunManager, queue repository.TriggerQueue, checks []HealthCheck, logger *zap.Logger) *Handler {
	return &Handler{
		runs:   runs,
		queue:  queue,
		checks: checks,
		logger: logger,
	}
}

// HandleMessage enqueues a trigger message; the run itself happens in the background.
func (h *Handler) HandleMessage(w http.ResponseWriter, r *http.Request) {
	var req request.MessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	msg := entity.Message{Action: req.Action}
	if err := usecase.ValidateMessage(msg); err != nil {
		h.writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.queue.Push(r.Context(), msg); err != nil {
		h.logger.Error("Failed to enqueue message", zap.String("action", msg.Action), zap.Error(err))
		h.writeJSONError(w, "Could not enqueue message", http.StatusServiceUnavailable)
		return
	}

	h.writeJSON(w, http.StatusAccepted, response.MessageAcceptedResponse{
		Status:  "accepted",
		Message: "Bookmark analysis queued",
	})
}

// HandleAnalyze analyzes the tree in the request body and responds with the finished run.
func (h *Handler) HandleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req request.AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Tree == nil {
		h.writeJSONError(w, "tree is required", http.StatusBadRequest)
		return
	}

	run, err := h.runs.AnalyzeTree(r.Context(), entity.TriggerInline, req.Tree)
	if err != nil {
		switch {
		case errors.Is(err, context.DeadlineExceeded):
			h.writeJSONError(w, err.Error(), http.StatusGatewayTimeout)
		case errors.Is(err, usecase.ErrRunCanceled):
			h.writeJSONError(w, err.Error(), http.StatusConflict)
		default:
			h.logger.Error("Failed to analyze tree", zap.Error(err))
			h.writeJSONError(w, "Internal server error", http.StatusInternalServerError)
		}
		return
	}

	h.writeJSON(w, http.StatusOK, response.NewRunResponse(run, run.Results))
}

func (h *Handler) HandleGetLatestRun(w http.ResponseWriter, r *http.Request) {
	run, err := h.runs.LatestRun(r.Context())
	h.respondWithRun(w, r, run, err)
}

func (h *Handler) HandleGetRun(w http.ResponseWriter, r *http.Request) {
	run, err := h.runs.GetRun(r.Context(), chi.URLParam(r, "id"))
	h.respondWithRun(w, r, run, err)
}

func (h *Handler) respondWithRun(w http.ResponseWriter, r *http.Request, run *entity.AnalysisRun, err error) {
	if err != nil {
		if errors.Is(err, usecase.ErrRunNotFound) {
			h.writeJSONError(w, "Analysis run not found", http.StatusNotFound)
			return
		}
		h.logger.Error("Failed to load analysis run", zap.Error(err))
		h.writeJSONError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	results, err := usecase.FilterResults(run.Results, r.URL.Query().Get("filter"))
	if err != nil {
		h.writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	h.writeJSON(w, http.StatusOK, response.NewRunResponse(run, results))
}

func (h *Handler) HandleHealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	healthStatus := map[string]string{"status": "ok"}
	healthy := true
	for _, c := range h.checks {
		if err := c.Ping(ctx); err != nil {
			healthStatus[c.Name] = "unhealthy"
			healthy = false
			h.logger.Error("health check failed", zap.String("service", c.Name), zap.Error(err))
			continue
		}
		healthStatus[c.Name] = "healthy"
	}

	if !healthy {
		healthStatus["status"] = "degraded"
		h.writeJSON(w, http.StatusServiceUnavailable, healthStatus)
		return
	}
	h.writeJSON(w, http.StatusOK, healthStatus)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("Failed to write JSON response", zap.Error(err))
	}
}

func (h *Handler) writeJSONError(w http.ResponseWriter, message string, status int) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
