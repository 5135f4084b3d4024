package applications

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/avoda-labs/jobboard/backend/internal/auth"
	"github.com/avoda-labs/jobboard/backend/internal/httputil"
	"github.com/avoda-labs/jobboard/backend/internal/jobs"
	"github.com/avoda-labs/jobboard/backend/internal/notifications"
	"github.com/avoda-labs/jobboard/backend/internal/upload"
)

// Handlers provides HTTP handlers for the applications API.
type Handlers struct {
	store    *Store
	jobStore *jobs.Store
	uploads  *upload.Store
	producer *notifications.EventProducer
}

func NewHandlers(store *Store, jobStore *jobs.Store, uploads *upload.Store, producer *notifications.EventProducer) *Handlers {
	return &Handlers{
		store:    store,
		jobStore: jobStore,
		uploads:  uploads,
		producer: producer,
	}
}

// RegisterProtectedRoutes wires the endpoints that require a valid token.
func (h *Handlers) RegisterProtectedRoutes(r *mux.Router) {
	r.HandleFunc("/api/jobs/{id}/apply", h.Apply).Methods("POST")
	r.HandleFunc("/api/jobs/{id}/applications", h.ListForJob).Methods("GET")
	r.HandleFunc("/api/applications/mine", h.ListMine).Methods("GET")
	r.HandleFunc("/api/applications/{id}/status", h.UpdateStatus).Methods("PUT")
	r.HandleFunc("/api/applications/{id}/cv", h.DownloadCV).Methods("GET")
}

// RegisterAdminRoutes wires the admin-only endpoints.
func (h *Handlers) RegisterAdminRoutes(r *mux.Router) {
	r.HandleFunc("/api/admin/applications/{id}/notify", h.NotifyApplicant).Methods("POST")
}

// Apply handles POST /api/jobs/:id/apply. The body is multipart form data
// with an optional `cv` file part and an optional `cover_note` field.
func (h *Handlers) Apply(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok || claims.Role != auth.RoleWorker {
		httputil.WriteError(w, http.StatusForbidden, "only workers can apply")
		return
	}

	job, err := h.jobStore.GetByID(r.Context(), mux.Vars(r)["id"])
	if errors.Is(err, jobs.ErrNotFound) {
		httputil.WriteError(w, http.StatusNotFound, "job not found")
		return
	}
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if job.Status != jobs.StatusActive {
		httputil.WriteError(w, http.StatusConflict, "job is no longer accepting applications")
		return
	}

	if err := r.ParseMultipartForm(upload.MaxFileSize); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid multipart body")
		return
	}

	app := &Application{
		JobID:     job.ID,
		WorkerID:  claims.UserID,
		CoverNote: strings.TrimSpace(r.FormValue("cover_note")),
	}

	if file, header, ferr := r.FormFile("cv"); ferr == nil {
		defer file.Close()
		name, serr := h.uploads.Save(file, header)
		if serr != nil {
			httputil.WriteError(w, http.StatusBadRequest, serr.Error())
			return
		}
		app.CVFile = name
	}

	if err := h.store.Create(r.Context(), app); err != nil {
		if app.CVFile != "" {
			_ = h.uploads.Delete(app.CVFile)
		}
		if errors.Is(err, ErrDuplicate) {
			httputil.WriteError(w, http.StatusConflict, "already applied to this job")
			return
		}
		httputil.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.producer.PublishApplicationCreated(app, job.EmployerID, job.Title)

	httputil.WriteJSON(w, http.StatusCreated, app)
}

// ListMine handles GET /api/applications/mine
func (h *Handlers) ListMine(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok || claims.Role != auth.RoleWorker {
		httputil.WriteError(w, http.StatusForbidden, "worker account required")
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	apps, err := h.store.ListForWorker(r.Context(), claims.UserID, limit)
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{"applications": apps})
}

// ListForJob handles GET /api/jobs/:id/applications
func (h *Handlers) ListForJob(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		httputil.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	job, err := h.jobStore.GetByID(r.Context(), mux.Vars(r)["id"])
	if errors.Is(err, jobs.ErrNotFound) {
		httputil.WriteError(w, http.StatusNotFound, "job not found")
		return
	}
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if claims.Role != auth.RoleAdmin && job.EmployerID != claims.UserID {
		httputil.WriteError(w, http.StatusForbidden, "not your job posting")
		return
	}

	apps, err := h.store.ListForJob(r.Context(), job.ID)
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{"applications": apps})
}

// UpdateStatus handles PUT /api/applications/:id/status
func (h *Handlers) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		httputil.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

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

	app, err := h.store.GetByID(r.Context(), mux.Vars(r)["id"])
	if errors.Is(err, ErrNotFound) {
		httputil.WriteError(w, http.StatusNotFound, "application not found")
		return
	}
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	job, err := h.jobStore.GetByID(r.Context(), app.JobID)
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if claims.Role != auth.RoleAdmin && job.EmployerID != claims.UserID {
		httputil.WriteError(w, http.StatusForbidden, "not your job posting")
		return
	}

	if err := h.store.SetStatus(r.Context(), app.ID, req.Status); err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	app.Status = req.Status

	h.producer.PublishApplicationStatus(app, app.WorkerID, app.Status, app.JobTitle)

	httputil.WriteJSON(w, http.StatusOK, app)
}

// NotifyApplicant handles POST /api/admin/applications/:id/notify. It sends a
// personal message to the applicant over their live sockets and stores it as a
// notification.
func (h *Handlers) NotifyApplicant(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Message string `json:"message"`
	}
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		httputil.WriteError(w, http.StatusBadRequest, "message is required")
		return
	}

	app, err := h.store.GetByID(r.Context(), mux.Vars(r)["id"])
	if errors.Is(err, ErrNotFound) {
		httputil.WriteError(w, http.StatusNotFound, "application not found")
		return
	}
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.producer.PublishApplicationNotice(app.WorkerID, app.ID, app.JobTitle, app.Status, strings.TrimSpace(req.Message))

	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// DownloadCV handles GET /api/applications/:id/cv. Only the applicant, the
// owning employer, or an admin may download the file.
func (h *Handlers) DownloadCV(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		httputil.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	app, err := h.store.GetByID(r.Context(), mux.Vars(r)["id"])
	if errors.Is(err, ErrNotFound) {
		httputil.WriteError(w, http.StatusNotFound, "application not found")
		return
	}
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if app.CVFile == "" {
		httputil.WriteError(w, http.StatusNotFound, "no CV attached")
		return
	}

	if claims.Role != auth.RoleAdmin && claims.UserID != app.WorkerID {
		job, jerr := h.jobStore.GetByID(r.Context(), app.JobID)
		if jerr != nil || job.EmployerID != claims.UserID {
			httputil.WriteError(w, http.StatusForbidden, "not allowed to view this CV")
			return
		}
	}

	data, err := h.uploads.Open(app.CVFile)
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "could not read stored file")
		return
	}

	w.Header().Set("Content-Type", upload.ContentType(app.CVFile))
	w.Header().Set("Content-Disposition", `attachment; filename="cv-`+app.ID+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
