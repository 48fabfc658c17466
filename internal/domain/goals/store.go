package goals

import (
	"context"
	"fmt"
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

const goalColumns = `
    g.id, g.title, COALESCE(g.description, ''), g.scope, g.type, g.status, g.progress_percentage,
    COALESCE(g.quarter, ''), g.year, g.start_date, g.end_date,
    COALESCE(g.organization_id::text, ''), COALESCE(g.parent_goal_id::text, ''),
    g.created_by, COALESCE(g.owner_id::text, ''), COALESCE(o.name, ''),
    COALESCE(g.approved_by::text, ''), g.approved_at, COALESCE(g.rejection_reason, ''),
    g.frozen, g.frozen_at, COALESCE(g.frozen_by::text, ''),
    g.achieved_at, g.discarded_at, COALESCE(g.discard_reason, ''),
    (SELECT COUNT(1) FROM goals c WHERE c.parent_goal_id = g.id),
    g.created_at, g.updated_at
`

const goalJoins = `
    FROM goals g
    LEFT JOIN users o ON o.id = g.owner_id
`

func scanGoal(row pgx.Row) (Goal, error) {
	var g Goal
	err := row.Scan(&g.ID, &g.Title, &g.Description, &g.Scope, &g.Type, &g.Status, &g.ProgressPercentage,
		&g.Quarter, &g.Year, &g.StartDate, &g.EndDate,
		&g.OrganizationID, &g.ParentGoalID,
		&g.CreatedBy, &g.OwnerID, &g.OwnerName,
		&g.ApprovedBy, &g.ApprovedAt, &g.RejectionReason,
		&g.Frozen, &g.FrozenAt, &g.FrozenBy,
		&g.AchievedAt, &g.DiscardedAt, &g.DiscardReason,
		&g.ChildCount,
		&g.CreatedAt, &g.UpdatedAt)
	return g, err
}

func collectGoals(rows pgx.Rows) ([]Goal, error) {
	defer rows.Close()
	out := []Goal{}
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func (s *Store) GetGoal(ctx context.Context, goalID string) (Goal, error) {
	return scanGoal(s.DB.QueryRow(ctx, "SELECT "+goalColumns+goalJoins+" WHERE g.id = $1", goalID))
}

func filterClause(filter ListFilter) (string, []any) {
	var where []string
	var args []any
	add := func(clause string, value any) {
		args = append(args, value)
		where = append(where, fmt.Sprintf(clause, len(args)))
	}
	if filter.Scope != "" {
		add("g.scope = $%d", filter.Scope)
	}
	if filter.Type != "" {
		add("g.type = $%d", filter.Type)
	}
	if filter.Status != "" {
		add("g.status = $%d", filter.Status)
	}
	if filter.ViewerID != "" {
		args = append(args, filter.ViewerID)
		viewer := len(args)
		orgClause := "false"
		if filter.OrgIDs != nil {
			args = append(args, filter.OrgIDs)
			orgClause = fmt.Sprintf("g.organization_id::text = ANY($%d)", len(args))
		}
		where = append(where, fmt.Sprintf(`(
        g.scope = 'COMPANY_WIDE'
        OR (g.scope = 'DEPARTMENTAL' AND %[2]s)
        OR g.owner_id = $%[1]d
        OR g.created_by = $%[1]d
        OR g.owner_id IN (SELECT id FROM users WHERE supervisor_id = $%[1]d)
      )`, viewer, orgClause))
	}
	if len(where) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(where, " AND "), args
}

func (s *Store) ListGoals(ctx context.Context, filter ListFilter) ([]Goal, int, error) {
	clause, args := filterClause(filter)
	var total int
	if err := s.DB.QueryRow(ctx, "SELECT COUNT(1) FROM goals g"+clause, args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	args = append(args, filter.Limit, filter.Offset)
	rows, err := s.DB.Query(ctx, fmt.Sprintf("SELECT %s %s %s ORDER BY g.created_at DESC LIMIT $%d OFFSET $%d",
		goalColumns, goalJoins, clause, len(args)-1, len(args)), args...)
	if err != nil {
		return nil, 0, err
	}
	goals, err := collectGoals(rows)
	return goals, total, err
}

func (s *Store) StatsGoals(ctx context.Context, filter ListFilter) ([]Goal, error) {
	clause, args := filterClause(filter)
	rows, err := s.DB.Query(ctx, "SELECT "+goalColumns+goalJoins+clause, args...)
	if err != nil {
		return nil, err
	}
	return collectGoals(rows)
}

func (s *Store) SuperviseeGoals(ctx context.Context, supervisorID string) ([]Goal, error) {
	rows, err := s.DB.Query(ctx, "SELECT "+goalColumns+goalJoins+`
    WHERE g.scope = 'INDIVIDUAL' AND o.supervisor_id = $1
    ORDER BY g.created_at DESC`, supervisorID)
	if err != nil {
		return nil, err
	}
	return collectGoals(rows)
}

func (s *Store) CreateGoal(ctx context.Context, g Goal) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO goals (title, description, scope, type, status, quarter, year, start_date, end_date,
                       organization_id, parent_goal_id, created_by, owner_id, approved_by, approved_at)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
    RETURNING id
  `, g.Title, nullIfEmpty(g.Description), g.Scope, g.Type, g.Status, nullIfEmpty(g.Quarter), g.Year,
		g.StartDate, g.EndDate, nullIfEmpty(g.OrganizationID), nullIfEmpty(g.ParentGoalID), g.CreatedBy,
		nullIfEmpty(g.OwnerID), nullIfEmpty(g.ApprovedBy), g.ApprovedAt).Scan(&id)
	return id, err
}

func (s *Store) UpdateGoal(ctx context.Context, goalID string, in UpdateInput) error {
	_, err := s.DB.Exec(ctx, `
    UPDATE goals SET
      title = COALESCE($2, title),
      description = COALESCE($3, description),
      start_date = COALESCE($4, start_date),
      end_date = COALESCE($5, end_date),
      updated_at = now()
    WHERE id = $1
  `, goalID, in.Title, in.Description, in.StartDate, in.EndDate)
	return err
}

func (s *Store) DeleteGoal(ctx context.Context, goalID string) error {
	_, err := s.DB.Exec(ctx, "DELETE FROM goals WHERE id = $1", goalID)
	return err
}

func (s *Store) Children(ctx context.Context, goalID string) ([]Goal, error) {
	rows, err := s.DB.Query(ctx, "SELECT "+goalColumns+goalJoins+" WHERE g.parent_goal_id = $1 ORDER BY g.created_at", goalID)
	if err != nil {
		return nil, err
	}
	return collectGoals(rows)
}

func (s *Store) ChildStatuses(ctx context.Context, goalID string) ([]string, error) {
	rows, err := s.DB.Query(ctx, "SELECT status FROM goals WHERE parent_goal_id = $1", goalID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var status string
		if err := rows.Scan(&status); err != nil {
			return nil, err
		}
		out = append(out, status)
	}
	return out, rows.Err()
}

// Subtree returns the goal and its descendants. The depth bound keeps a
// corrupted parent loop from recursing forever.
func (s *Store) Subtree(ctx context.Context, goalID string) ([]Goal, error) {
	rows, err := s.DB.Query(ctx, fmt.Sprintf(`
    WITH RECURSIVE tree(id, depth) AS (
      SELECT id, 0 FROM goals WHERE id = $1
      UNION ALL
      SELECT c.id, t.depth + 1 FROM goals c JOIN tree t ON c.parent_goal_id = t.id WHERE t.depth < %d
    )
    SELECT %s %s WHERE g.id IN (SELECT id FROM tree) ORDER BY g.created_at`, maxDepth+1, goalColumns, goalJoins), goalID)
	if err != nil {
		return nil, err
	}
	return collectGoals(rows)
}

func (s *Store) SetProgress(ctx context.Context, goalID string, oldPct, newPct int, report, actorID string) error {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `
    INSERT INTO goal_progress_reports (goal_id, old_percentage, new_percentage, report, updated_by)
    VALUES ($1,$2,$3,$4,$5)
  `, goalID, oldPct, newPct, report, actorID); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, "UPDATE goals SET progress_percentage = $1, updated_at = now() WHERE id = $2", newPct, goalID); err != nil {
		return err
	}
	if err := propagateProgress(ctx, txTree{tx}, goalID); err != nil {
		return fmt.Errorf("propagate progress: %w", err)
	}
	return tx.Commit(ctx)
}

// txTree reads and writes the ancestor chain inside a progress transaction.
type txTree struct {
	tx pgx.Tx
}

func (t txTree) parentOf(ctx context.Context, goalID string) (string, error) {
	var parent string
	err := t.tx.QueryRow(ctx, "SELECT COALESCE(parent_goal_id::text, '') FROM goals WHERE id = $1", goalID).Scan(&parent)
	return parent, err
}

func (t txTree) childProgress(ctx context.Context, goalID string) ([]ChildProgress, error) {
	rows, err := t.tx.Query(ctx, "SELECT status, progress_percentage FROM goals WHERE parent_goal_id = $1", goalID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []ChildProgress
	for rows.Next() {
		var c ChildProgress
		if err := rows.Scan(&c.Status, &c.Percentage); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Achieved goals keep their 100%.
func (t txTree) setDerivedProgress(ctx context.Context, goalID string, pct int) error {
	_, err := t.tx.Exec(ctx, `
    UPDATE goals SET progress_percentage = $2, updated_at = now()
    WHERE id = $1 AND status <> 'ACHIEVED' AND progress_percentage <> $2
  `, goalID, pct)
	return err
}

func (s *Store) ProgressReports(ctx context.Context, goalID string) ([]ProgressReport, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT r.id, r.goal_id, r.old_percentage, r.new_percentage, r.report, r.updated_by, COALESCE(u.name, ''), r.created_at
    FROM goal_progress_reports r
    LEFT JOIN users u ON u.id = r.updated_by
    WHERE r.goal_id = $1
    ORDER BY r.created_at DESC
  `, goalID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []ProgressReport{}
	for rows.Next() {
		var r ProgressReport
		if err := rows.Scan(&r.ID, &r.GoalID, &r.OldPercentage, &r.NewPercentage, &r.Report, &r.UpdatedBy, &r.UpdatedByName, &r.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) SetStatus(ctx context.Context, goalID, status string) error {
	_, err := s.DB.Exec(ctx, "UPDATE goals SET status = $1, updated_at = now() WHERE id = $2", status, goalID)
	return err
}

func (s *Store) MarkAchieved(ctx context.Context, goalID string) error {
	_, err := s.DB.Exec(ctx, `
    UPDATE goals SET status = 'ACHIEVED', progress_percentage = 100, achieved_at = now(), updated_at = now()
    WHERE id = $1
  `, goalID)
	return err
}

func (s *Store) MarkDiscarded(ctx context.Context, goalID, reason string) error {
	_, err := s.DB.Exec(ctx, `
    UPDATE goals SET status = 'DISCARDED', discarded_at = now(), discard_reason = $2, updated_at = now()
    WHERE id = $1
  `, goalID, reason)
	return err
}

func (s *Store) SetApproval(ctx context.Context, goalID, status, approverID, rejectionReason string) error {
	_, err := s.DB.Exec(ctx, `
    UPDATE goals SET status = $2, approved_by = $3, approved_at = now(), rejection_reason = $4, updated_at = now()
    WHERE id = $1
  `, goalID, status, approverID, nullIfEmpty(rejectionReason))
	return err
}

func (s *Store) RequestChange(ctx context.Context, goalID, reason string) error {
	_, err := s.DB.Exec(ctx, `
    UPDATE goals SET status = 'PENDING_APPROVAL', rejection_reason = $2, approved_by = NULL, approved_at = NULL, updated_at = now()
    WHERE id = $1
  `, goalID, reason)
	return err
}

func (s *Store) CreateAssignment(ctx context.Context, goalID, assignedBy, assignedTo, status string) error {
	_, err := s.DB.Exec(ctx, `
    INSERT INTO goal_assignments (goal_id, assigned_by, assigned_to, status)
    VALUES ($1,$2,$3,$4)
    ON CONFLICT (goal_id, assigned_to) DO UPDATE SET assigned_by = EXCLUDED.assigned_by, status = EXCLUDED.status, assigned_at = now()
  `, goalID, assignedBy, assignedTo, status)
	return err
}

func (s *Store) GetAssignment(ctx context.Context, goalID, assignedTo string) (Assignment, error) {
	var a Assignment
	err := s.DB.QueryRow(ctx, `
    SELECT id, goal_id, assigned_by, assigned_to, status, COALESCE(response_message, ''), assigned_at, responded_at
    FROM goal_assignments
    WHERE goal_id = $1 AND assigned_to = $2
  `, goalID, assignedTo).Scan(&a.ID, &a.GoalID, &a.AssignedBy, &a.AssignedTo, &a.Status, &a.ResponseMessage, &a.AssignedAt, &a.RespondedAt)
	return a, err
}

func (s *Store) RespondAssignment(ctx context.Context, goalID, assignedTo, status, message string) error {
	_, err := s.DB.Exec(ctx, `
    UPDATE goal_assignments SET status = $3, response_message = $4, responded_at = now()
    WHERE goal_id = $1 AND assigned_to = $2
  `, goalID, assignedTo, status, nullIfEmpty(message))
	return err
}

// Freeze locks every unfrozen individual goal of the period and writes the
// log row in the same transaction. It returns the distinct affected owners.
func (s *Store) Freeze(ctx context.Context, in FreezeInput, actorID string) ([]string, int, error) {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return nil, 0, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	owners, count, err := toggleFrozen(ctx, tx, in.Quarter, in.Year, true, actorID)
	if err != nil {
		return nil, 0, err
	}
	if _, err := tx.Exec(ctx, `
    INSERT INTO goal_freeze_logs (action, quarter, year, affected_goals_count, scheduled_unfreeze_date, performed_by)
    VALUES ('freeze',$1,$2,$3,$4,$5)
  `, in.Quarter, in.Year, count, in.ScheduledUnfreezeDate, actorID); err != nil {
		return nil, 0, err
	}
	return owners, count, tx.Commit(ctx)
}

func (s *Store) Unfreeze(ctx context.Context, in UnfreezeInput, actorID string) ([]string, int, error) {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return nil, 0, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	owners, count, err := toggleFrozen(ctx, tx, in.Quarter, in.Year, false, actorID)
	if err != nil {
		return nil, 0, err
	}
	if _, err := tx.Exec(ctx, `
    INSERT INTO goal_freeze_logs (action, quarter, year, affected_goals_count, is_emergency_override, emergency_reason, performed_by)
    VALUES ('unfreeze',$1,$2,$3,$4,$5,$6)
  `, in.Quarter, in.Year, count, in.IsEmergencyOverride, nullIfEmpty(in.EmergencyReason), actorID); err != nil {
		return nil, 0, err
	}
	return owners, count, tx.Commit(ctx)
}

func toggleFrozen(ctx context.Context, tx pgx.Tx, quarter string, year int, frozen bool, actorID string) ([]string, int, error) {
	query := `
    UPDATE goals SET frozen = true, frozen_at = now(), frozen_by = $3, updated_at = now()
    WHERE scope = 'INDIVIDUAL' AND quarter = $1 AND year = $2 AND frozen = false
    RETURNING COALESCE(owner_id::text, '')`
	args := []any{quarter, year, actorID}
	if !frozen {
		query = `
    UPDATE goals SET frozen = false, frozen_at = NULL, frozen_by = NULL, updated_at = now()
    WHERE scope = 'INDIVIDUAL' AND quarter = $1 AND year = $2 AND frozen = true
    RETURNING COALESCE(owner_id::text, '')`
		args = args[:2]
	}
	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	count := 0
	seen := map[string]struct{}{}
	var owners []string
	for rows.Next() {
		var owner string
		if err := rows.Scan(&owner); err != nil {
			return nil, 0, err
		}
		count++
		if owner == "" {
			continue
		}
		if _, ok := seen[owner]; !ok {
			seen[owner] = struct{}{}
			owners = append(owners, owner)
		}
	}
	return owners, count, rows.Err()
}

func (s *Store) FreezeLogs(ctx context.Context, quarter string, year int) ([]FreezeLog, error) {
	var where []string
	var args []any
	if quarter != "" {
		args = append(args, quarter)
		where = append(where, fmt.Sprintf("l.quarter = $%d", len(args)))
	}
	if year != 0 {
		args = append(args, year)
		where = append(where, fmt.Sprintf("l.year = $%d", len(args)))
	}
	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}
	rows, err := s.DB.Query(ctx, `
    SELECT l.id, l.action, l.quarter, l.year, l.affected_goals_count, l.scheduled_unfreeze_date,
           l.is_emergency_override, COALESCE(l.emergency_reason, ''), l.performed_by, COALESCE(u.name, ''), l.performed_at
    FROM goal_freeze_logs l
    LEFT JOIN users u ON u.id = l.performed_by`+clause+`
    ORDER BY l.performed_at DESC`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []FreezeLog{}
	for rows.Next() {
		var l FreezeLog
		if err := rows.Scan(&l.ID, &l.Action, &l.Quarter, &l.Year, &l.AffectedGoalsCount, &l.ScheduledUnfreezeDate,
			&l.IsEmergencyOverride, &l.EmergencyReason, &l.PerformedBy, &l.PerformerName, &l.PerformedAt); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (s *Store) UserRef(ctx context.Context, userID string) (UserRef, error) {
	var u UserRef
	err := s.DB.QueryRow(ctx, `
    SELECT id, name, COALESCE(supervisor_id::text, ''), COALESCE(organization_id::text, ''), status
    FROM users WHERE id = $1
  `, userID).Scan(&u.ID, &u.Name, &u.SupervisorID, &u.OrganizationID, &u.Status)
	return u, err
}

// ClearAll removes every goal and its dependent rows.
func (s *Store) ClearAll(ctx context.Context) (int64, error) {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, "UPDATE initiatives SET goal_id = NULL WHERE goal_id IS NOT NULL"); err != nil {
		return 0, err
	}
	if _, err := tx.Exec(ctx, "DELETE FROM goal_freeze_logs"); err != nil {
		return 0, err
	}
	if _, err := tx.Exec(ctx, "UPDATE goals SET parent_goal_id = NULL"); err != nil {
		return 0, err
	}
	tag, err := tx.Exec(ctx, "DELETE FROM goals")
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), tx.Commit(ctx)
}

func nullIfEmpty(value string) any {
	if value == "" {
		return nil
	}
	return value
}
