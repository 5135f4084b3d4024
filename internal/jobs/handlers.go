package jobs

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/avoda-labs/jobboard/backend/internal/auth"
	"github.com/avoda-labs/jobboard/backend/internal/httputil"
	"github.com/avoda-labs/jobboard/backend/internal/notifications"
)

// Handlers provides HTTP handlers for the jobs API.
type Handlers struct {
	store    *Store
	producer *notifications.EventProducer
}

func NewHandlers(store *Store, producer *notifications.EventProducer) *Handlers {
	return &Handlers{store: store, producer: producer}
}

// RegisterRoutes wires the public job endpoints (browsing requires no auth).
func (h *Handlers) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/api/jobs", h.ListJobs).Methods("GET")
	r.HandleFunc("/api/jobs/{id}", h.GetJob).Methods("GET")
}

// RegisterProtectedRoutes wires the endpoints that require a valid token.
func (h *Handlers) RegisterProtectedRoutes(r *mux.Router) {
	r.HandleFunc("/api/jobs", h.CreateJob).Methods("POST")
	r.HandleFunc("/api/jobs/{id}", h.UpdateJob).Methods("PUT")
	r.HandleFunc("/api/jobs/{id}/close", h.CloseJob).Methods("POST")
	r.HandleFunc("/api/jobs/{id}", h.DeleteJob).Methods("DELETE")
	r.HandleFunc("/api/worker/suggested-jobs", h.SuggestedJobs).Methods("GET")
	r.HandleFunc("/api/employer/jobs", h.EmployerJobs).Methods("GET")
}

type jobRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Region      string `json:"region"`
	Category    string `json:"category"`
	Salary      string `json:"salary"`
}

func (req *jobRequest) validate() string {
	if strings.TrimSpace(req.Title) == "" {
		return "title is required"
	}
	if strings.TrimSpace(req.Region) == "" {
		return "region is required"
	}
	if strings.TrimSpace(req.Category) == "" {
		return "category is required"
	}
	return ""
}

// ListJobs handles GET /api/jobs
func (h *Handlers) ListJobs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))

	status := q.Get("status")
	if status == "" {
		status = StatusActive
	}

	params := ListParams{
		Region:   q.Get("region"),
		Category: q.Get("category"),
		Search:   q.Get("search"),
		Status:   status,
		Limit:    limit,
		Offset:   offset,
	}

	jobs, total, err := h.store.List(r.Context(), params)
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"jobs":   jobs,
		"total":  total,
		"limit":  params.Limit,
		"offset": params.Offset,
	})
}

// GetJob handles GET /api/jobs/:id
func (h *Handlers) GetJob(w http.ResponseWriter, r *http.Request) {
	job, err := h.store.GetByID(r.Context(), mux.Vars(r)["id"])
	if errors.Is(err, ErrNotFound) {
		httputil.WriteError(w, http.StatusNotFound, "job not found")
		return
	}
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	httputil.WriteJSON(w, http.StatusOK, job)
}

// CreateJob handles POST /api/jobs
func (h *Handlers) CreateJob(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok || (claims.Role != auth.RoleEmployer && claims.Role != auth.RoleAdmin) {
		httputil.WriteError(w, http.StatusForbidden, "only employers can post jobs")
		return
	}

	var req jobRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if msg := req.validate(); msg != "" {
		httputil.WriteError(w, http.StatusBadRequest, msg)
		return
	}

	job := &Job{
		EmployerID:  claims.UserID,
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		Region:      req.Region,
		Category:    req.Category,
		Salary:      req.Salary,
	}
	if err := h.store.Create(r.Context(), job); err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.producer.PublishJobCreated(job, job.Title, job.Region, job.Category)

	httputil.WriteJSON(w, http.StatusCreated, job)
}

// UpdateJob handles PUT /api/jobs/:id
func (h *Handlers) UpdateJob(w http.ResponseWriter, r *http.Request) {
	job, ok := h.ownedJob(w, r)
	if !ok {
		return
	}

	var req jobRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if msg := req.validate(); msg != "" {
		httputil.WriteError(w, http.StatusBadRequest, msg)
		return
	}

	job.Title = strings.TrimSpace(req.Title)
	job.Description = req.Description
	job.Region = req.Region
	job.Category = req.Category
	job.Salary = req.Salary

	if err := h.store.Update(r.Context(), job); err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	httputil.WriteJSON(w, http.StatusOK, job)
}

// CloseJob handles POST /api/jobs/:id/close
func (h *Handlers) CloseJob(w http.ResponseWriter, r *http.Request) {
	job, ok := h.ownedJob(w, r)
	if !ok {
		return
	}

	if err := h.store.SetStatus(r.Context(), job.ID, StatusClosed); err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.producer.PublishJobClosed(job.ID, job.Title)

	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// DeleteJob handles DELETE /api/jobs/:id
func (h *Handlers) DeleteJob(w http.ResponseWriter, r *http.Request) {
	job, ok := h.ownedJob(w, r)
	if !ok {
		return
	}

	if err := h.store.Delete(r.Context(), job.ID); err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// SuggestedJobs handles GET /api/worker/suggested-jobs
func (h *Handlers) SuggestedJobs(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok || claims.Role != auth.RoleWorker {
		httputil.WriteError(w, http.StatusForbidden, "suggested jobs are for workers")
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	jobs, err := h.store.SuggestedForWorker(r.Context(), claims.UserID, limit)
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{"jobs": jobs})
}

// EmployerJobs handles GET /api/employer/jobs
func (h *Handlers) EmployerJobs(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok || claims.Role != auth.RoleEmployer {
		httputil.WriteError(w, http.StatusForbidden, "employer account required")
		return
	}

	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))

	jobs, total, err := h.store.List(r.Context(), ListParams{
		EmployerID: claims.UserID,
		Status:     q.Get("status"),
		Limit:      limit,
		Offset:     offset,
	})
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{"jobs": jobs, "total": total})
}

// ownedJob loads the job from the path and verifies the caller owns it or is
// an admin. On failure it writes the response and returns ok=false.
func (h *Handlers) ownedJob(w http.ResponseWriter, r *http.Request) (*Job, bool) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		httputil.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return nil, false
	}

	job, err := h.store.GetByID(r.Context(), mux.Vars(r)["id"])
	if errors.Is(err, ErrNotFound) {
		httputil.WriteError(w, http.StatusNotFound, "job not found")
		return nil, false
	}
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, err.Error())
		return nil, false
	}

	if claims.Role != auth.RoleAdmin && job.EmployerID != claims.UserID {
		httputil.WriteError(w, http.StatusForbidden, "not your job posting")
		return nil, false
	}
	return job, true
}
