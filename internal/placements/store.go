// Package placements tracks confirmed worker-to-job placements. Placements
// are managed by admins after an application is accepted.
package placements

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when a placement does not exist.
var ErrNotFound = errors.New("placement not found")

// Placement statuses.
const (
	StatusActive    = "active"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

// ValidStatus reports whether status is one of the known placement states.
func ValidStatus(status string) bool {
	switch status {
	case StatusActive, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Placement represents a confirmed placement of a worker into a job.
type Placement struct {
	ID         string    `json:"id"`
	JobID      string    `json:"job_id"`
	WorkerID   string    `json:"worker_id"`
	EmployerID string    `json:"employer_id"`
	Status     string    `json:"status"`
	StartDate  time.Time `json:"start_date"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
	JobTitle   string    `json:"job_title,omitempty"`
	WorkerName string    `json:"worker_name,omitempty"`
}

// Store provides CRUD operations for the placements table.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

const selectWithJoins = `
	SELECT p.id, p.job_id, p.worker_id, p.employer_id, p.status, p.start_date,
	       p.created_at, p.updated_at, j.title, u.full_name
	FROM placements p
	JOIN jobs j ON p.job_id = j.id
	JOIN users u ON p.worker_id = u.id`

// Create inserts a new placement in active state.
func (s *Store) Create(ctx context.Context, p *Placement) error {
	if p.Status == "" {
		p.Status = StatusActive
	}
	if p.StartDate.IsZero() {
		p.StartDate = time.Now().UTC()
	}
	err := s.pool.QueryRow(ctx,
		`INSERT INTO placements (job_id, worker_id, employer_id, status, start_date)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at, updated_at`,
		p.JobID, p.WorkerID, p.EmployerID, p.Status, p.StartDate,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert placement: %w", err)
	}
	return nil
}

// GetByID returns a single placement with the job title and worker name
// joined in.
func (s *Store) GetByID(ctx context.Context, id string) (*Placement, error) {
	p := &Placement{}
	err := s.pool.QueryRow(ctx, selectWithJoins+` WHERE p.id = $1`, id).Scan(
		&p.ID, &p.JobID, &p.WorkerID, &p.EmployerID, &p.Status, &p.StartDate,
		&p.CreatedAt, &p.UpdatedAt, &p.JobTitle, &p.WorkerName,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get placement: %w", err)
	}
	return p, nil
}

// List returns all placements, newest first, optionally filtered by status.
func (s *Store) List(ctx context.Context, status string) ([]Placement, error) {
	query := selectWithJoins
	args := []interface{}{}
	if status != "" {
		query += ` WHERE p.status = $1`
		args = append(args, status)
	}
	query += ` ORDER BY p.created_at DESC`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list placements: %w", err)
	}
	defer rows.Close()

	placements := []Placement{}
	for rows.Next() {
		var p Placement
		if err := rows.Scan(&p.ID, &p.JobID, &p.WorkerID, &p.EmployerID, &p.Status, &p.StartDate,
			&p.CreatedAt, &p.UpdatedAt, &p.JobTitle, &p.WorkerName); err != nil {
			return nil, err
		}
		placements = append(placements, p)
	}
	return placements, rows.Err()
}

// SetStatus transitions a placement between active, completed and cancelled.
func (s *Store) SetStatus(ctx context.Context, id, status string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE placements SET status = $1, updated_at = now() WHERE id = $2`,
		status, id,
	)
	if err != nil {
		return fmt.Errorf("set placement status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
