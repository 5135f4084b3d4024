package placements

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/avoda-labs/jobboard/backend/internal/httputil"
	"github.com/avoda-labs/jobboard/backend/internal/notifications"
)

// Handlers provides HTTP handlers for the placements API. All routes are
// admin-only; workers and employers see placement changes as notifications.
type Handlers struct {
	store    *Store
	producer *notifications.EventProducer
}

func NewHandlers(store *Store, producer *notifications.EventProducer) *Handlers {
	return &Handlers{store: store, producer: producer}
}

// RegisterAdminRoutes wires the placement endpoints onto the admin router.
func (h *Handlers) RegisterAdminRoutes(r *mux.Router) {
	r.HandleFunc("/api/admin/placements", h.CreatePlacement).Methods("POST")
	r.HandleFunc("/api/admin/placements", h.ListPlacements).Methods("GET")
	r.HandleFunc("/api/admin/placements/{id}/status", h.UpdateStatus).Methods("PUT")
}

// CreatePlacement handles POST /api/admin/placements
func (h *Handlers) CreatePlacement(w http.ResponseWriter, r *http.Request) {
	var req struct {
		JobID      string `json:"job_id"`
		WorkerID   string `json:"worker_id"`
		EmployerID string `json:"employer_id"`
	}
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.JobID) == "" || strings.TrimSpace(req.WorkerID) == "" || strings.TrimSpace(req.EmployerID) == "" {
		httputil.WriteError(w, http.StatusBadRequest, "job_id, worker_id and employer_id are required")
		return
	}

	p := &Placement{
		JobID:      req.JobID,
		WorkerID:   req.WorkerID,
		EmployerID: req.EmployerID,
	}
	if err := h.store.Create(r.Context(), p); err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.producer.PublishPlacementUpdated(p, p.WorkerID, p.Status)

	httputil.WriteJSON(w, http.StatusCreated, p)
}

// ListPlacements handles GET /api/admin/placements
func (h *Handlers) ListPlacements(w http.ResponseWriter, r *http.Request) {
	placements, err := h.store.List(r.Context(), r.URL.Query().Get("status"))
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{"placements": placements})
}

// UpdateStatus handles PUT /api/admin/placements/:id/status
func (h *Handlers) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status string `json:"status"`
	}
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !ValidStatus(req.Status) {
		httputil.WriteError(w, http.StatusBadRequest, "unknown status")
		return
	}

	p, err := h.store.GetByID(r.Context(), mux.Vars(r)["id"])
	if errors.Is(err, ErrNotFound) {
		httputil.WriteError(w, http.StatusNotFound, "placement not found")
		return
	}
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if err := h.store.SetStatus(r.Context(), p.ID, req.Status); err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	p.Status = req.Status

	h.producer.PublishPlacementUpdated(p, p.WorkerID, p.Status)

	httputil.WriteJSON(w, http.StatusOK, p)
}
