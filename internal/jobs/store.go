// Package jobs implements job postings: employer CRUD, public browsing with
// filters, and the suggested-jobs query used by worker dashboards.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when a job does not exist.
var ErrNotFound = errors.New("job not found")

// Job statuses.
const (
	StatusActive = "active"
	StatusClosed = "closed"
)

// Job represents a posted job.
type Job struct {
	ID          string    `json:"id"`
	EmployerID  string    `json:"employer_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Region      string    `json:"region"`
	Category    string    `json:"category"`
	Salary      string    `json:"salary,omitempty"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ListParams holds filters and pagination for listing jobs.
type ListParams struct {
	Region     string
	Category   string
	Search     string // matches title and description
	EmployerID string
	Status     string
	Limit      int
	Offset     int
}

// Store provides CRUD operations for the jobs table.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Create inserts a new job and fills in the generated fields.
func (s *Store) Create(ctx context.Context, j *Job) error {
	if j.Status == "" {
		j.Status = StatusActive
	}
	err := s.pool.QueryRow(ctx,
		`INSERT INTO jobs (employer_id, title, description, region, category, salary, status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id, created_at, updated_at`,
		j.EmployerID, j.Title, j.Description, j.Region, j.Category, j.Salary, j.Status,
	).Scan(&j.ID, &j.CreatedAt, &j.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert job: %w", err)
	}
	return nil
}

// GetByID returns a single job.
func (s *Store) GetByID(ctx context.Context, id string) (*Job, error) {
	j := &Job{}
	err := s.pool.QueryRow(ctx,
		`SELECT id, employer_id, title, description, region, category, salary, status, created_at, updated_at
		 FROM jobs WHERE id = $1`, id,
	).Scan(&j.ID, &j.EmployerID, &j.Title, &j.Description, &j.Region, &j.Category, &j.Salary, &j.Status, &j.CreatedAt, &j.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	return j, nil
}

// List returns jobs matching the given filters, newest first.
func (s *Store) List(ctx context.Context, params ListParams) ([]Job, int, error) {
	if params.Limit <= 0 || params.Limit > 100 {
		params.Limit = 20
	}

	where := ` WHERE 1=1`
	args := []interface{}{}
	argIdx := 1

	add := func(clause string, value interface{}) {
		where += ` AND ` + clause + ` $` + strconv.Itoa(argIdx)
		args = append(args, value)
		argIdx++
	}

	if params.Status != "" {
		add(`status =`, params.Status)
	}
	if params.Region != "" {
		add(`region =`, params.Region)
	}
	if params.Category != "" {
		add(`category =`, params.Category)
	}
	if params.EmployerID != "" {
		add(`employer_id =`, params.EmployerID)
	}
	if params.Search != "" {
		where += ` AND (title ILIKE $` + strconv.Itoa(argIdx) + ` OR description ILIKE $` + strconv.Itoa(argIdx) + `)`
		args = append(args, "%"+params.Search+"%")
		argIdx++
	}

	var total int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM jobs`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT id, employer_id, title, description, region, category, salary, status, created_at, updated_at
	          FROM jobs` + where + ` ORDER BY created_at DESC LIMIT $` + strconv.Itoa(argIdx)
	args = append(args, params.Limit)
	argIdx++
	query += ` OFFSET $` + strconv.Itoa(argIdx)
	args = append(args, params.Offset)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	jobs := []Job{}
	for rows.Next() {
		var j Job
		if err := rows.Scan(&j.ID, &j.EmployerID, &j.Title, &j.Description, &j.Region, &j.Category, &j.Salary, &j.Status, &j.CreatedAt, &j.UpdatedAt); err != nil {
			return nil, 0, err
		}
		jobs = append(jobs, j)
	}
	return jobs, total, rows.Err()
}

// Update modifies a job's editable fields. Only the owning employer may call
// this; ownership is checked by the handler.
func (s *Store) Update(ctx context.Context, j *Job) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE jobs SET title = $1, description = $2, region = $3, category = $4, salary = $5, updated_at = now()
		 WHERE id = $6`,
		j.Title, j.Description, j.Region, j.Category, j.Salary, j.ID,
	)
	if err != nil {
		return fmt.Errorf("update job: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SetStatus transitions a job between active and closed.
func (s *Store) SetStatus(ctx context.Context, id, status string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE jobs SET status = $1, updated_at = now() WHERE id = $2`,
		status, id,
	)
	if err != nil {
		return fmt.Errorf("set job status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a job and its applications (via FK cascade).
func (s *Store) Delete(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM jobs WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete job: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SuggestedForWorker returns up to limit active jobs matching the worker's
// region that the worker has not already applied to, newest first.
func (s *Store) SuggestedForWorker(ctx context.Context, workerID string, limit int) ([]Job, error) {
	if limit <= 0 {
		limit = 5
	}
	rows, err := s.pool.Query(ctx,
		`SELECT j.id, j.employer_id, j.title, j.description, j.region, j.category, j.salary, j.status, j.created_at, j.updated_at
		 FROM jobs j
		 WHERE j.status = 'active'
		   AND (j.region = (SELECT region FROM users WHERE id = $1) OR (SELECT region FROM users WHERE id = $1) = '')
		   AND NOT EXISTS (SELECT 1 FROM applications a WHERE a.job_id = j.id AND a.worker_id = $1)
		 ORDER BY j.created_at DESC
		 LIMIT $2`,
		workerID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("suggested jobs: %w", err)
	}
	defer rows.Close()

	jobs := []Job{}
	for rows.Next() {
		var j Job
		if err := rows.Scan(&j.ID, &j.EmployerID, &j.Title, &j.Description, &j.Region, &j.Category, &j.Salary, &j.Status, &j.CreatedAt, &j.UpdatedAt); err != nil {
			return nil, err
		}
		jobs = append(jobs, j)
	}
	return jobs, rows.Err()
}
