package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sgerhart/aegisrange/internal/model"
	"github.com/sgerhart/aegisrange/internal/rules"
	"github.com/sgerhart/aegisrange/internal/sim"
)

// defaultEventLimit caps GET /events responses unless the caller asks for a
// different window.
const defaultEventLimit = 50

// HTTPAPI exposes the player command surface over HTTP. It is the
// presentation-layer boundary: every handler translates a request into a
// controller command and a JSON reply, nothing more.
type HTTPAPI struct {
	controller *sim.Controller
	logger     *slog.Logger
}

// NewHTTPAPI creates the API over a controller.
func NewHTTPAPI(controller *sim.Controller, logger *slog.Logger) *HTTPAPI {
	if logger == nil {
		logger = slog.Default()
	}
	return &HTTPAPI{controller: controller, logger: logger}
}

// Router builds the route table.
func (api *HTTPAPI) Router() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/sim/start", api.handleStart).Methods(http.MethodPost)
	r.HandleFunc("/sim/pause", api.handlePause).Methods(http.MethodPost)
	r.HandleFunc("/sim/reset", api.handleReset).Methods(http.MethodPost)
	r.HandleFunc("/rules", api.handleSaveRule).Methods(http.MethodPost)
	r.HandleFunc("/rules", api.handleListRules).Methods(http.MethodGet)
	r.HandleFunc("/rules/test", api.handleTestRule).Methods(http.MethodPost)
	r.HandleFunc("/actions", api.handleApplyAction).Methods(http.MethodPost)
	r.HandleFunc("/state", api.handleState).Methods(http.MethodGet)
	r.HandleFunc("/events", api.handleEvents).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	r.HandleFunc("/healthz", api.handleHealth).Methods(http.MethodGet)

	return r
}

func (api *HTTPAPI) handleStart(w http.ResponseWriter, r *http.Request) {
	api.controller.Start()
	api.writeJSON(w, http.StatusOK, map[string]string{"status": "running"})
}

func (api *HTTPAPI) handlePause(w http.ResponseWriter, r *http.Request) {
	api.controller.Pause()
	api.writeJSON(w, http.StatusOK, map[string]string{"status": "paused"})
}

func (api *HTTPAPI) handleReset(w http.ResponseWriter, r *http.Request) {
	api.controller.Reset()
	api.writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

func (api *HTTPAPI) handleSaveRule(w http.ResponseWriter, r *http.Request) {
	var sub rules.Submission
	if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
		api.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	rule, err := api.controller.SaveRule(sub)
	if err != nil {
		// Validation failures are player errors with a reported reason, not
		// server faults.
		api.writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	api.writeJSON(w, http.StatusCreated, rule)
}

func (api *HTTPAPI) handleListRules(w http.ResponseWriter, r *http.Request) {
	api.writeJSON(w, http.StatusOK, api.controller.Rules())
}

func (api *HTTPAPI) handleTestRule(w http.ResponseWriter, r *http.Request) {
	var sub rules.Submission
	if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
		api.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	matches, err := api.controller.TestRule(sub)
	if err != nil {
		api.writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if matches == nil {
		matches = []*model.Event{}
	}

	api.writeJSON(w, http.StatusOK, map[string]any{
		"match_count": len(matches),
		"matches":     matches,
	})
}

// applyActionRequest is the apply-action command body.
type applyActionRequest struct {
	EventID string `json:"event_id"`
	Action  string `json:"action"`
}

func (api *HTTPAPI) handleApplyAction(w http.ResponseWriter, r *http.Request) {
	var req applyActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.EventID == "" || req.Action == "" {
		api.writeError(w, http.StatusBadRequest, "event_id and action are required")
		return
	}

	result, err := api.controller.ApplyAction(req.EventID, model.ActionTag(req.Action))
	if err != nil {
		if errors.Is(err, sim.ErrEventNotFound) {
			api.writeError(w, http.StatusNotFound, err.Error())
			return
		}
		api.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	api.writeJSON(w, http.StatusOK, result)
}

func (api *HTTPAPI) handleState(w http.ResponseWriter, r *http.Request) {
	api.writeJSON(w, http.StatusOK, api.controller.State())
}

func (api *HTTPAPI) handleEvents(w http.ResponseWriter, r *http.Request) {
	limit := defaultEventLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			api.writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	events := api.controller.Events(limit)
	if events == nil {
		events = []*model.Event{}
	}
	api.writeJSON(w, http.StatusOK, events)
}

func (api *HTTPAPI) handleHealth(w http.ResponseWriter, r *http.Request) {
	api.writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (api *HTTPAPI) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		api.logger.Error("Failed to encode response", "error", err)
	}
}

func (api *HTTPAPI) writeError(w http.ResponseWriter, status int, msg string) {
	api.writeJSON(w, status, map[string]string{"error": msg})
}
