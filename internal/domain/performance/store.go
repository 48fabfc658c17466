package performance

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

func (s *Store) GetCycle(ctx context.Context, cycleID string) (Cycle, error) {
	var c Cycle
	err := s.DB.QueryRow(ctx, `
    SELECT id, name, COALESCE(period, ''), start_date, end_date, status
    FROM review_cycles
    WHERE id = $1
  `, cycleID).Scan(&c.ID, &c.Name, &c.Period, &c.StartDate, &c.EndDate, &c.Status)
	return c, err
}

// Inputs gathers, for every reviewee of the cycle, the scores of approved
// initiatives reviewed inside the cycle window and their scaled trait scores.
func (s *Store) Inputs(ctx context.Context, cycle Cycle) ([]Input, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT u.id, u.name, COALESCE(u.organization_id::text, ''),
           ARRAY(
             SELECT i.score
             FROM initiatives i
             JOIN initiative_assignments ia ON ia.initiative_id = i.id
             WHERE ia.user_id = u.id AND i.status = 'APPROVED' AND i.score IS NOT NULL
               AND i.reviewed_at::date BETWEEN $2 AND $3
           ),
           ARRAY(
             SELECT rs.scaled_score
             FROM review_scores rs
             WHERE rs.cycle_id = $1 AND rs.user_id = u.id AND rs.scaled_score IS NOT NULL
           )
    FROM users u
    WHERE u.id IN (SELECT DISTINCT reviewee_id FROM review_assignments WHERE cycle_id = $1)
    ORDER BY u.name
  `, cycle.ID, cycle.StartDate, cycle.EndDate)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Input
	for rows.Next() {
		var in Input
		if err := rows.Scan(&in.UserID, &in.UserName, &in.OrganizationID, &in.TaskScores, &in.ReviewScores); err != nil {
			return nil, err
		}
		out = append(out, in)
	}
	return out, rows.Err()
}

func (s *Store) SaveScores(ctx context.Context, cycleID string, scores []Score) error {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for _, sc := range scores {
		if _, err := tx.Exec(ctx, `
      INSERT INTO performance_scores (user_id, cycle_id, task_performance_score, review_performance_score,
        overall_performance_score, performance_band, organization_rank, department_rank, directorate_rank, calculated_at)
      VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
      ON CONFLICT (user_id, cycle_id) DO UPDATE SET
        task_performance_score = EXCLUDED.task_performance_score,
        review_performance_score = EXCLUDED.review_performance_score,
        overall_performance_score = EXCLUDED.overall_performance_score,
        performance_band = EXCLUDED.performance_band,
        organization_rank = EXCLUDED.organization_rank,
        department_rank = EXCLUDED.department_rank,
        directorate_rank = EXCLUDED.directorate_rank,
        calculated_at = EXCLUDED.calculated_at
    `, sc.UserID, cycleID, sc.TaskScore, sc.ReviewScore, sc.OverallScore, nullIfEmpty(sc.Band),
			sc.OrganizationRank, sc.DepartmentRank, sc.DirectorateRank, sc.CalculatedAt); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

const scoreSelect = `
    SELECT p.user_id, u.name, COALESCE(u.job_title, ''), COALESCE(u.organization_id::text, ''), COALESCE(o.name, ''),
           p.cycle_id, p.task_performance_score, p.review_performance_score, p.overall_performance_score,
           COALESCE(p.performance_band, ''), p.organization_rank, p.department_rank, p.directorate_rank, p.calculated_at
    FROM performance_scores p
    JOIN users u ON u.id = p.user_id
    LEFT JOIN organizations o ON o.id = u.organization_id
`

func scanScore(row pgx.Row) (Score, error) {
	var sc Score
	err := row.Scan(&sc.UserID, &sc.UserName, &sc.JobTitle, &sc.OrganizationID, &sc.OrganizationName,
		&sc.CycleID, &sc.TaskScore, &sc.ReviewScore, &sc.OverallScore,
		&sc.Band, &sc.OrganizationRank, &sc.DepartmentRank, &sc.DirectorateRank, &sc.CalculatedAt)
	return sc, err
}

func (s *Store) Score(ctx context.Context, cycleID, userID string) (Score, error) {
	return scanScore(s.DB.QueryRow(ctx, scoreSelect+` WHERE p.cycle_id = $1 AND p.user_id = $2`, cycleID, userID))
}

func (s *Store) Scores(ctx context.Context, cycleID string) ([]Score, error) {
	rows, err := s.DB.Query(ctx, scoreSelect+`
    WHERE p.cycle_id = $1
    ORDER BY p.organization_rank NULLS LAST, u.name
  `, cycleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Score{}
	for rows.Next() {
		sc, err := scanScore(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sc)
	}
	return out, rows.Err()
}

func (s *Store) TraitScores(ctx context.Context, cycleID, userID string) ([]TraitLine, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT t.name, s.scaled_score
    FROM review_scores s
    JOIN review_traits t ON t.id = s.trait_id
    WHERE s.cycle_id = $1 AND s.user_id = $2
    ORDER BY t.display_order, t.name
  `, cycleID, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []TraitLine
	for rows.Next() {
		var line TraitLine
		if err := rows.Scan(&line.Name, &line.ScaledScore); err != nil {
			return nil, err
		}
		out = append(out, line)
	}
	return out, rows.Err()
}

func nullIfEmpty(value string) any {
	if value == "" {
		return nil
	}
	return value
}
