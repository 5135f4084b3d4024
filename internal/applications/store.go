// Package applications implements job applications: workers apply with an
// optional CV, employers review and update status, admins can message
// applicants directly.
package applications

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when an application does not exist.
var ErrNotFound = errors.New("application not found")

// ErrDuplicate is returned when a worker applies twice to the same job.
var ErrDuplicate = errors.New("already applied to this job")

// Application statuses.
const (
	StatusPending  = "pending"
	StatusReviewed = "reviewed"
	StatusAccepted = "accepted"
	StatusRejected = "rejected"
)

// ValidStatus reports whether status is one of the known application states.
func ValidStatus(status string) bool {
	switch status {
	case StatusPending, StatusReviewed, StatusAccepted, StatusRejected:
		return true
	}
	return false
}

// Application represents a worker's application to a job. JobTitle and
// WorkerName are joined in for list views.
type Application struct {
	ID         string    `json:"id"`
	JobID      string    `json:"job_id"`
	WorkerID   string    `json:"worker_id"`
	Status     string    `json:"status"`
	CoverNote  string    `json:"cover_note,omitempty"`
	CVFile     string    `json:"cv_file,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
	JobTitle   string    `json:"job_title,omitempty"`
	WorkerName string    `json:"worker_name,omitempty"`
}

// Store provides CRUD operations for the applications table.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

const selectWithJoins = `
	SELECT a.id, a.job_id, a.worker_id, a.status, a.cover_note, a.cv_file,
	       a.created_at, a.updated_at, j.title, u.full_name
	FROM applications a
	JOIN jobs j ON a.job_id = j.id
	JOIN users u ON a.worker_id = u.id`

// Create inserts a new application in pending state. A unique constraint on
// (job_id, worker_id) blocks duplicate applications.
func (s *Store) Create(ctx context.Context, a *Application) error {
	a.Status = StatusPending
	err := s.pool.QueryRow(ctx,
		`INSERT INTO applications (job_id, worker_id, status, cover_note, cv_file)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at, updated_at`,
		a.JobID, a.WorkerID, a.Status, a.CoverNote, a.CVFile,
	).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("insert application: %w", err)
	}
	return nil
}

// GetByID returns a single application with the job title and worker name
// joined in.
func (s *Store) GetByID(ctx context.Context, id string) (*Application, error) {
	a := &Application{}
	err := s.pool.QueryRow(ctx, selectWithJoins+` WHERE a.id = $1`, id).Scan(
		&a.ID, &a.JobID, &a.WorkerID, &a.Status, &a.CoverNote, &a.CVFile,
		&a.CreatedAt, &a.UpdatedAt, &a.JobTitle, &a.WorkerName,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get application: %w", err)
	}
	return a, nil
}

// ListForWorker returns the worker's applications, newest first.
func (s *Store) ListForWorker(ctx context.Context, workerID string, limit int) ([]Application, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.list(ctx, selectWithJoins+` WHERE a.worker_id = $1 ORDER BY a.created_at DESC LIMIT $2`, workerID, limit)
}

// ListForJob returns all applications to one job, newest first.
func (s *Store) ListForJob(ctx context.Context, jobID string) ([]Application, error) {
	return s.list(ctx, selectWithJoins+` WHERE a.job_id = $1 ORDER BY a.created_at DESC`, jobID)
}

// RecentForEmployer returns the newest pending applications across all of the
// employer's jobs, capped at limit. It backs the recent_applications snapshot.
func (s *Store) RecentForEmployer(ctx context.Context, employerID string, limit int) ([]Application, error) {
	if limit <= 0 {
		limit = 5
	}
	return s.list(ctx, selectWithJoins+` WHERE j.employer_id = $1 AND a.status = 'pending' ORDER BY a.created_at DESC LIMIT $2`, employerID, limit)
}

// SetStatus updates an application's status.
func (s *Store) SetStatus(ctx context.Context, id, status string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE applications SET status = $1, updated_at = now() WHERE id = $2`,
		status, id,
	)
	if err != nil {
		return fmt.Errorf("set application status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) list(ctx context.Context, query string, args ...interface{}) ([]Application, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list applications: %w", err)
	}
	defer rows.Close()

	apps := []Application{}
	for rows.Next() {
		var a Application
		if err := rows.Scan(&a.ID, &a.JobID, &a.WorkerID, &a.Status, &a.CoverNote, &a.CVFile,
			&a.CreatedAt, &a.UpdatedAt, &a.JobTitle, &a.WorkerName); err != nil {
			return nil, err
		}
		apps = append(apps, a)
	}
	return apps, rows.Err()
}

// isUniqueViolation reports whether err is a Postgres unique constraint error.
func isUniqueViolation(err error) bool {
	var pgErr interface{ SQLState() string }
	return errors.As(err, &pgErr) && pgErr.SQLState() == "23505"
}
