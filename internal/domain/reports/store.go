package reports

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

func (s *Store) statusCounts(ctx context.Context, query string, args ...any) ([]StatusCount, error) {
	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []StatusCount
	for rows.Next() {
		var row StatusCount
		if err := rows.Scan(&row.Status, &row.Count, &row.ProgressSum); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (s *Store) GoalStatusCounts(ctx context.Context, ownerID string) ([]StatusCount, error) {
	return s.statusCounts(ctx, `
    SELECT status, COUNT(1), COALESCE(SUM(progress_percentage), 0)
    FROM goals
    WHERE owner_id = $1
    GROUP BY status
  `, ownerID)
}

func (s *Store) AssignedInitiativeCounts(ctx context.Context, userID string) ([]StatusCount, error) {
	return s.statusCounts(ctx, `
    SELECT i.status, COUNT(1), 0
    FROM initiatives i
    JOIN initiative_assignments ia ON ia.initiative_id = i.id
    WHERE ia.user_id = $1
    GROUP BY i.status
  `, userID)
}

func (s *Store) PendingReviewCount(ctx context.Context, reviewerID string) (int, error) {
	var count int
	err := s.DB.QueryRow(ctx, `
    SELECT COUNT(1)
    FROM review_assignments ra
    JOIN review_cycles c ON c.id = ra.cycle_id
    WHERE ra.reviewer_id = $1 AND ra.status IN ('pending', 'in_progress') AND c.status = 'ACTIVE'
  `, reviewerID).Scan(&count)
	return count, err
}

func (s *Store) LatestScore(ctx context.Context, userID string) (*LatestScore, error) {
	var out LatestScore
	err := s.DB.QueryRow(ctx, `
    SELECT ps.cycle_id, c.name, ps.overall_performance_score, COALESCE(ps.performance_band, '')
    FROM performance_scores ps
    JOIN review_cycles c ON c.id = ps.cycle_id
    WHERE ps.user_id = $1
    ORDER BY c.end_date DESC, ps.calculated_at DESC
    LIMIT 1
  `, userID).Scan(&out.CycleID, &out.CycleName, &out.OverallScore, &out.Band)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// TeamCounts treats the initiative creator as its reviewer.
func (s *Store) TeamCounts(ctx context.Context, supervisorID string) (TeamCounts, error) {
	var out TeamCounts
	err := s.DB.QueryRow(ctx, `
    SELECT
      (SELECT COUNT(1) FROM users WHERE supervisor_id = $1 AND status <> 'archived'),
      (SELECT COUNT(1) FROM goals g JOIN users u ON u.id = g.owner_id
        WHERE u.supervisor_id = $1 AND g.status = 'PENDING_APPROVAL'),
      (SELECT COUNT(1) FROM initiatives WHERE created_by = $1 AND status = 'UNDER_REVIEW'),
      (SELECT COUNT(1) FROM initiative_extensions e JOIN initiatives i ON i.id = e.initiative_id
        WHERE i.created_by = $1 AND e.status = 'PENDING'),
      (SELECT COUNT(DISTINCT i.id) FROM initiatives i
        JOIN initiative_assignments ia ON ia.initiative_id = i.id
        JOIN users u ON u.id = ia.user_id
        WHERE u.supervisor_id = $1 AND i.status = 'OVERDUE')
  `, supervisorID).Scan(&out.DirectReports, &out.GoalsAwaitingApproval, &out.InitiativesToReview,
		&out.PendingExtensions, &out.OverdueInitiatives)
	return out, err
}

func (s *Store) ActiveUserCount(ctx context.Context, orgIDs []string) (int, error) {
	var count int
	err := s.DB.QueryRow(ctx, `
    SELECT COUNT(1)
    FROM users
    WHERE status = 'active' AND ($1::uuid[] IS NULL OR organization_id = ANY($1::uuid[]))
  `, orgIDs).Scan(&count)
	return count, err
}

// OrgGoalStatusCounts files individual goals under their owner's organization.
func (s *Store) OrgGoalStatusCounts(ctx context.Context, orgIDs []string) ([]StatusCount, error) {
	return s.statusCounts(ctx, `
    SELECT g.status, COUNT(1), COALESCE(SUM(g.progress_percentage), 0)
    FROM goals g
    LEFT JOIN users u ON u.id = g.owner_id
    WHERE $1::uuid[] IS NULL OR COALESCE(g.organization_id, u.organization_id) = ANY($1::uuid[])
    GROUP BY g.status
  `, orgIDs)
}

func (s *Store) OrgInitiativeStatusCounts(ctx context.Context, orgIDs []string) ([]StatusCount, error) {
	return s.statusCounts(ctx, `
    SELECT i.status, COUNT(1), 0
    FROM initiatives i
    JOIN users u ON u.id = i.created_by
    WHERE $1::uuid[] IS NULL OR u.organization_id = ANY($1::uuid[])
    GROUP BY i.status
  `, orgIDs)
}

func (s *Store) ActiveCycleCount(ctx context.Context) (int, error) {
	var count int
	err := s.DB.QueryRow(ctx, "SELECT COUNT(1) FROM review_cycles WHERE status = 'ACTIVE'").Scan(&count)
	return count, err
}

func (s *Store) ActiveReviewProgress(ctx context.Context, orgIDs []string) (ReviewProgress, error) {
	var out ReviewProgress
	err := s.DB.QueryRow(ctx, `
    SELECT COUNT(1), COUNT(1) FILTER (WHERE ra.status = 'completed')
    FROM review_assignments ra
    JOIN review_cycles c ON c.id = ra.cycle_id
    JOIN users u ON u.id = ra.reviewee_id
    WHERE c.status = 'ACTIVE' AND ($1::uuid[] IS NULL OR u.organization_id = ANY($1::uuid[]))
  `, orgIDs).Scan(&out.Assignments, &out.Completed)
	return out, err
}

const jobRunColumns = "id, job_type, status, COALESCE(details_json, '{}'::jsonb), started_at, completed_at"

func (s *Store) ListJobRuns(ctx context.Context, filter JobRunFilter) ([]JobRun, error) {
	query, args := buildJobRunsQuery("SELECT "+jobRunColumns, filter)
	query += " ORDER BY started_at DESC LIMIT $" + strconv.Itoa(len(args)+1) + " OFFSET $" + strconv.Itoa(len(args)+2)
	args = append(args, filter.Limit, filter.Offset)

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	runs := []JobRun{}
	for rows.Next() {
		run, err := scanJobRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

func (s *Store) CountJobRuns(ctx context.Context, filter JobRunFilter) (int, error) {
	query, args := buildJobRunsQuery("SELECT COUNT(1)", filter)
	var total int
	err := s.DB.QueryRow(ctx, query, args...).Scan(&total)
	return total, err
}

func (s *Store) JobRun(ctx context.Context, id string) (JobRun, error) {
	return scanJobRun(s.DB.QueryRow(ctx, "SELECT "+jobRunColumns+" FROM job_runs WHERE id = $1", id))
}

func scanJobRun(row pgx.Row) (JobRun, error) {
	var run JobRun
	var details []byte
	if err := row.Scan(&run.ID, &run.JobType, &run.Status, &details, &run.StartedAt, &run.CompletedAt); err != nil {
		return JobRun{}, err
	}
	run.Details = details
	return run, nil
}

func buildJobRunsQuery(selectClause string, filter JobRunFilter) (string, []any) {
	query := selectClause + " FROM job_runs WHERE 1=1"
	args := []any{}
	if value := strings.TrimSpace(filter.JobType); value != "" {
		args = append(args, value)
		query += " AND job_type = $" + strconv.Itoa(len(args))
	}
	if value := strings.TrimSpace(filter.Status); value != "" {
		args = append(args, value)
		query += " AND status = $" + strconv.Itoa(len(args))
	}
	if filter.StartedFrom != nil && !filter.StartedFrom.IsZero() {
		args = append(args, *filter.StartedFrom)
		query += " AND started_at >= $" + strconv.Itoa(len(args))
	}
	if filter.StartedTo != nil && !filter.StartedTo.IsZero() {
		args = append(args, *filter.StartedTo)
		query += " AND started_at <= $" + strconv.Itoa(len(args))
	}
	return query, args
}
