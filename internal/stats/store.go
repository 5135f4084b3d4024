// Package stats produces the aggregate counters pushed to every connection
// as the `stats` message and to employer dashboards as `employer_stats`.
package stats

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// StatusCount is one grouped counter row.
type StatusCount struct {
	Status string `json:"status"`
	Count  int    `json:"count"`
}

// Overview is the role-agnostic aggregate pushed on connect and after
// job/placement changes.
type Overview struct {
	Jobs         []StatusCount `json:"jobs"`
	Candidates   []StatusCount `json:"candidates"`
	Placements   []StatusCount `json:"placements"`
	Applications []StatusCount `json:"applications"`
}

// EmployerOverview is the aggregate scoped to a single employer.
type EmployerOverview struct {
	OpenJobs            int `json:"open_jobs"`
	TotalApplications   int `json:"total_applications"`
	PendingApplications int `json:"pending_applications"`
	Placements          int `json:"placements"`
}

// Store runs the aggregate queries.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Overview returns grouped counts for jobs, candidates, placements and
// applications.
func (s *Store) Overview(ctx context.Context) (*Overview, error) {
	o := &Overview{}

	var err error
	if o.Jobs, err = s.grouped(ctx, `SELECT status, COUNT(*) FROM jobs GROUP BY status`); err != nil {
		return nil, fmt.Errorf("job counts: %w", err)
	}
	// Candidates are grouped by region; worker accounts have no status.
	if o.Candidates, err = s.grouped(ctx,
		`SELECT COALESCE(NULLIF(region, ''), 'unknown'), COUNT(*) FROM users WHERE role = 'worker' GROUP BY 1`); err != nil {
		return nil, fmt.Errorf("candidate counts: %w", err)
	}
	if o.Placements, err = s.grouped(ctx, `SELECT status, COUNT(*) FROM placements GROUP BY status`); err != nil {
		return nil, fmt.Errorf("placement counts: %w", err)
	}
	if o.Applications, err = s.grouped(ctx, `SELECT status, COUNT(*) FROM applications GROUP BY status`); err != nil {
		return nil, fmt.Errorf("application counts: %w", err)
	}
	return o, nil
}

// EmployerOverview returns the counters for one employer's dashboard.
func (s *Store) EmployerOverview(ctx context.Context, employerID string) (*EmployerOverview, error) {
	o := &EmployerOverview{}
	err := s.pool.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM jobs WHERE employer_id = $1 AND status = 'active'),
			(SELECT COUNT(*) FROM applications a JOIN jobs j ON a.job_id = j.id WHERE j.employer_id = $1),
			(SELECT COUNT(*) FROM applications a JOIN jobs j ON a.job_id = j.id WHERE j.employer_id = $1 AND a.status = 'pending'),
			(SELECT COUNT(*) FROM placements WHERE employer_id = $1)`,
		employerID,
	).Scan(&o.OpenJobs, &o.TotalApplications, &o.PendingApplications, &o.Placements)
	if err != nil {
		return nil, fmt.Errorf("employer counts: %w", err)
	}
	return o, nil
}

func (s *Store) grouped(ctx context.Context, query string) ([]StatusCount, error) {
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := []StatusCount{}
	for rows.Next() {
		var c StatusCount
		if err := rows.Scan(&c.Status, &c.Count); err != nil {
			return nil, err
		}
		counts = append(counts, c)
	}
	return counts, rows.Err()
}
