package reviews

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

const cycleColumns = `
    c.id, c.name, c.type, COALESCE(c.period, ''), c.start_date, c.end_date, c.status, c.components,
    c.participants_count, c.completion_rate, c.created_by,
    ARRAY(SELECT ct.trait_id::text FROM review_cycle_traits ct WHERE ct.cycle_id = c.id AND ct.is_active),
    c.created_at, c.updated_at
`

func scanCycle(row pgx.Row) (Cycle, error) {
	var c Cycle
	var components []byte
	err := row.Scan(&c.ID, &c.Name, &c.Type, &c.Period, &c.StartDate, &c.EndDate, &c.Status, &components,
		&c.ParticipantsCount, &c.CompletionRate, &c.CreatedBy, &c.SelectedTraits,
		&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return Cycle{}, err
	}
	if len(components) > 0 {
		if err := json.Unmarshal(components, &c.Components); err != nil {
			return Cycle{}, fmt.Errorf("decode cycle components: %w", err)
		}
	}
	if c.SelectedTraits == nil {
		c.SelectedTraits = []string{}
	}
	return c, nil
}

func collectCycles(rows pgx.Rows) ([]Cycle, error) {
	defer rows.Close()
	out := []Cycle{}
	for rows.Next() {
		c, err := scanCycle(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func collectIDs(rows pgx.Rows) ([]string, error) {
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *Store) ListCycles(ctx context.Context, filter CycleFilter) ([]Cycle, error) {
	var where []string
	var args []any
	add := func(clause string, value any) {
		args = append(args, value)
		where = append(where, fmt.Sprintf(clause, len(args)))
	}
	if filter.Status != "" {
		add("c.status = $%d", filter.Status)
	}
	if filter.ViewerID != "" {
		add(`(c.created_by = $%[1]d OR EXISTS (
        SELECT 1 FROM review_assignments a WHERE a.cycle_id = c.id AND (a.reviewer_id = $%[1]d OR a.reviewee_id = $%[1]d)))`, filter.ViewerID)
	}
	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}
	rows, err := s.DB.Query(ctx, "SELECT "+cycleColumns+" FROM review_cycles c"+clause+" ORDER BY c.start_date DESC, c.created_at DESC", args...)
	if err != nil {
		return nil, err
	}
	return collectCycles(rows)
}

func (s *Store) GetCycle(ctx context.Context, cycleID string) (Cycle, error) {
	return scanCycle(s.DB.QueryRow(ctx, "SELECT "+cycleColumns+" FROM review_cycles c WHERE c.id = $1", cycleID))
}

// CreateCycle inserts a DRAFT cycle and links traitIDs, or every active
// trait when none are given.
func (s *Store) CreateCycle(ctx context.Context, c Cycle, traitIDs []string) (string, error) {
	components, err := json.Marshal(c.Components)
	if err != nil {
		return "", err
	}
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return "", err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var id string
	if err := tx.QueryRow(ctx, `
    INSERT INTO review_cycles (name, type, period, start_date, end_date, status, components, created_by)
    VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
    RETURNING id
  `, c.Name, c.Type, nullIfEmpty(c.Period), c.StartDate, c.EndDate, c.Status, components, c.CreatedBy).Scan(&id); err != nil {
		return "", err
	}
	if err := linkTraits(ctx, tx, id, traitIDs); err != nil {
		return "", err
	}
	return id, tx.Commit(ctx)
}

func linkTraits(ctx context.Context, tx pgx.Tx, cycleID string, traitIDs []string) error {
	if len(traitIDs) == 0 {
		_, err := tx.Exec(ctx, `
      INSERT INTO review_cycle_traits (cycle_id, trait_id)
      SELECT $1, id FROM review_traits WHERE is_active
      ON CONFLICT DO NOTHING
    `, cycleID)
		return err
	}
	tag, err := tx.Exec(ctx, `
    INSERT INTO review_cycle_traits (cycle_id, trait_id)
    SELECT $1, id FROM review_traits WHERE id = ANY($2::uuid[])
    ON CONFLICT DO NOTHING
  `, cycleID, traitIDs)
	if err != nil {
		return err
	}
	if int(tag.RowsAffected()) != len(uniqueStrings(traitIDs)) {
		return ErrTraitNotFound
	}
	return nil
}

func (s *Store) UpdateCycle(ctx context.Context, cycleID string, in CycleUpdate) error {
	var components []byte
	if in.Components != nil {
		encoded, err := json.Marshal(in.Components)
		if err != nil {
			return err
		}
		components = encoded
	}
	_, err := s.DB.Exec(ctx, `
    UPDATE review_cycles SET
      name = COALESCE($2, name),
      type = COALESCE($3, type),
      period = COALESCE($4, period),
      start_date = COALESCE($5, start_date),
      end_date = COALESCE($6, end_date),
      components = COALESCE($7::jsonb, components),
      updated_at = now()
    WHERE id = $1
  `, cycleID, in.Name, in.Type, in.Period, in.StartDate, in.EndDate, components)
	return err
}

func (s *Store) DeleteCycle(ctx context.Context, cycleID string) error {
	_, err := s.DB.Exec(ctx, "DELETE FROM review_cycles WHERE id = $1", cycleID)
	return err
}

func (s *Store) SetCycleStatus(ctx context.Context, cycleID, status string) error {
	_, err := s.DB.Exec(ctx, "UPDATE review_cycles SET status = $2, updated_at = now() WHERE id = $1", cycleID, status)
	return err
}

func (s *Store) SetCycleTraits(ctx context.Context, cycleID string, traitIDs []string) error {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, "DELETE FROM review_cycle_traits WHERE cycle_id = $1", cycleID); err != nil {
		return err
	}
	if err := linkTraits(ctx, tx, cycleID, traitIDs); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *Store) ActiveParticipants(ctx context.Context) ([]Participant, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, name, email, COALESCE(supervisor_id::text, ''), COALESCE(organization_id::text, '')
    FROM users WHERE status = 'active'
    ORDER BY id
  `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Participant
	for rows.Next() {
		var p Participant
		if err := rows.Scan(&p.ID, &p.Name, &p.Email, &p.SupervisorID, &p.OrganizationID); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// ActivateCycle replaces the cycle's assignments with plan and schedules it.
// The cycle row is locked so two concurrent activations cannot both pass the
// DRAFT check.
func (s *Store) ActivateCycle(ctx context.Context, cycleID string, plan []PlannedAssignment) (int, error) {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var status string
	if err := tx.QueryRow(ctx, "SELECT status FROM review_cycles WHERE id = $1 FOR UPDATE", cycleID).Scan(&status); err != nil {
		return 0, err
	}
	if status != CycleDraft {
		return 0, ErrNotDraft
	}
	if _, err := tx.Exec(ctx, "DELETE FROM review_assignments WHERE cycle_id = $1", cycleID); err != nil {
		return 0, err
	}
	reviewees := map[string]bool{}
	rows := make([][]any, 0, len(plan))
	for _, a := range plan {
		reviewees[a.RevieweeID] = true
		rows = append(rows, []any{cycleID, a.ReviewerID, a.RevieweeID, a.ReviewType})
	}
	if _, err := tx.CopyFrom(ctx,
		pgx.Identifier{"review_assignments"},
		[]string{"cycle_id", "reviewer_id", "reviewee_id", "review_type"},
		pgx.CopyFromRows(rows),
	); err != nil {
		return 0, err
	}
	if _, err := tx.Exec(ctx, `
    UPDATE review_cycles
    SET status = 'SCHEDULED', participants_count = $2, completion_rate = 0, updated_at = now()
    WHERE id = $1
  `, cycleID, len(reviewees)); err != nil {
		return 0, err
	}
	return len(reviewees), tx.Commit(ctx)
}

// ActivateScheduledCycles opens scheduled cycles whose start date has come
// and closes active cycles whose end date has passed. Rows held by another
// run are skipped.
func (s *Store) ActivateScheduledCycles(ctx context.Context, today time.Time) ([]string, []string, error) {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return nil, nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	rows, err := tx.Query(ctx, `
    UPDATE review_cycles SET status = 'ACTIVE', updated_at = now()
    WHERE id IN (
      SELECT id FROM review_cycles
      WHERE status = 'SCHEDULED' AND start_date <= $1::date
      FOR UPDATE SKIP LOCKED
    )
    RETURNING id
  `, today)
	if err != nil {
		return nil, nil, err
	}
	activated, err := collectIDs(rows)
	if err != nil {
		return nil, nil, err
	}
	rows, err = tx.Query(ctx, `
    UPDATE review_cycles SET status = 'COMPLETED', updated_at = now()
    WHERE id IN (
      SELECT id FROM review_cycles
      WHERE status = 'ACTIVE' AND end_date < $1::date
      FOR UPDATE SKIP LOCKED
    )
    RETURNING id
  `, today)
	if err != nil {
		return nil, nil, err
	}
	completed, err := collectIDs(rows)
	if err != nil {
		return nil, nil, err
	}
	return activated, completed, tx.Commit(ctx)
}

const traitColumns = `
    t.id, t.name, COALESCE(t.description, ''), t.is_active, t.display_order, t.scope_type,
    COALESCE(t.organization_id::text, ''), COALESCE(o.name, ''),
    (SELECT COUNT(1) FROM review_questions q WHERE q.trait_id = t.id AND q.is_active),
    t.created_at
`

const traitJoins = `
    FROM review_traits t
    LEFT JOIN organizations o ON o.id = t.organization_id
`

func scanTrait(row pgx.Row) (Trait, error) {
	var t Trait
	err := row.Scan(&t.ID, &t.Name, &t.Description, &t.IsActive, &t.DisplayOrder, &t.ScopeType,
		&t.OrganizationID, &t.OrganizationName, &t.QuestionCount, &t.CreatedAt)
	return t, err
}

func collectTraits(rows pgx.Rows) ([]Trait, error) {
	defer rows.Close()
	out := []Trait{}
	for rows.Next() {
		t, err := scanTrait(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *Store) ListTraits(ctx context.Context, includeInactive bool) ([]Trait, error) {
	rows, err := s.DB.Query(ctx, "SELECT "+traitColumns+traitJoins+" WHERE ($1 OR t.is_active) ORDER BY t.display_order, t.name", includeInactive)
	if err != nil {
		return nil, err
	}
	return collectTraits(rows)
}

func (s *Store) GetTrait(ctx context.Context, traitID string) (Trait, error) {
	return scanTrait(s.DB.QueryRow(ctx, "SELECT "+traitColumns+traitJoins+" WHERE t.id = $1", traitID))
}

func (s *Store) TraitNameTaken(ctx context.Context, name, scopeType, orgID string) (bool, error) {
	var taken bool
	err := s.DB.QueryRow(ctx, `
    SELECT EXISTS (
      SELECT 1 FROM review_traits
      WHERE lower(name) = lower($1) AND scope_type = $2 AND organization_id IS NOT DISTINCT FROM $3::uuid
    )
  `, name, scopeType, nullIfEmpty(orgID)).Scan(&taken)
	return taken, err
}

// CreateTrait appends the trait after the current last one when no display
// order is given.
func (s *Store) CreateTrait(ctx context.Context, t Trait) (string, error) {
	var order any
	if t.DisplayOrder > 0 {
		order = t.DisplayOrder
	}
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO review_traits (name, description, display_order, scope_type, organization_id)
    VALUES ($1, $2, COALESCE($3, (SELECT COALESCE(MAX(display_order), 0) + 1 FROM review_traits)), $4, $5)
    RETURNING id
  `, t.Name, nullIfEmpty(t.Description), order, t.ScopeType, nullIfEmpty(t.OrganizationID)).Scan(&id)
	return id, err
}

func (s *Store) UpdateTrait(ctx context.Context, traitID string, in TraitUpdate) error {
	_, err := s.DB.Exec(ctx, `
    UPDATE review_traits SET
      name = COALESCE($2, name),
      description = COALESCE($3, description),
      display_order = COALESCE($4, display_order),
      is_active = COALESCE($5, is_active)
    WHERE id = $1
  `, traitID, in.Name, in.Description, in.DisplayOrder, in.IsActive)
	return err
}

func (s *Store) DeleteTrait(ctx context.Context, traitID string) error {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, "DELETE FROM review_scores WHERE trait_id = $1", traitID); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, "DELETE FROM review_traits WHERE id = $1", traitID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *Store) TraitOpenCycles(ctx context.Context, traitID string) (int, error) {
	var count int
	err := s.DB.QueryRow(ctx, `
    SELECT COUNT(1) FROM review_cycle_traits ct
    JOIN review_cycles c ON c.id = ct.cycle_id
    WHERE ct.trait_id = $1 AND c.status IN ('DRAFT', 'SCHEDULED', 'ACTIVE')
  `, traitID).Scan(&count)
	return count, err
}

func (s *Store) OrgExists(ctx context.Context, orgID string) (bool, error) {
	var exists bool
	err := s.DB.QueryRow(ctx, "SELECT EXISTS (SELECT 1 FROM organizations WHERE id = $1)", orgID).Scan(&exists)
	return exists, err
}

func (s *Store) CycleTraits(ctx context.Context, cycleID string) ([]Trait, error) {
	rows, err := s.DB.Query(ctx, "SELECT "+traitColumns+traitJoins+`
    JOIN review_cycle_traits ct ON ct.trait_id = t.id
    WHERE ct.cycle_id = $1 AND ct.is_active AND t.is_active
    ORDER BY t.display_order, t.name
  `, cycleID)
	if err != nil {
		return nil, err
	}
	return collectTraits(rows)
}

const questionColumns = `
    id, trait_id, question_text, applies_to_self, applies_to_peer, applies_to_supervisor,
    display_order, is_active, created_at
`

func scanQuestion(row pgx.Row) (Question, error) {
	var q Question
	err := row.Scan(&q.ID, &q.TraitID, &q.Text, &q.AppliesToSelf, &q.AppliesToPeer, &q.AppliesToSupervisor,
		&q.DisplayOrder, &q.IsActive, &q.CreatedAt)
	return q, err
}

// Questions returns the active questions of the given traits.
func (s *Store) Questions(ctx context.Context, traitIDs []string) ([]Question, error) {
	rows, err := s.DB.Query(ctx, "SELECT "+questionColumns+`
    FROM review_questions
    WHERE trait_id = ANY($1::uuid[]) AND is_active
    ORDER BY display_order, created_at
  `, traitIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Question{}
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

func (s *Store) GetQuestion(ctx context.Context, questionID string) (Question, error) {
	return scanQuestion(s.DB.QueryRow(ctx, "SELECT "+questionColumns+" FROM review_questions WHERE id = $1", questionID))
}

func (s *Store) CreateQuestion(ctx context.Context, q Question) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO review_questions (trait_id, question_text, applies_to_self, applies_to_peer, applies_to_supervisor, display_order)
    VALUES ($1, $2, $3, $4, $5, $6)
    RETURNING id
  `, q.TraitID, q.Text, q.AppliesToSelf, q.AppliesToPeer, q.AppliesToSupervisor, q.DisplayOrder).Scan(&id)
	return id, err
}

func (s *Store) UpdateQuestion(ctx context.Context, questionID string, in QuestionUpdate) error {
	_, err := s.DB.Exec(ctx, `
    UPDATE review_questions SET
      question_text = COALESCE($2, question_text),
      applies_to_self = COALESCE($3, applies_to_self),
      applies_to_peer = COALESCE($4, applies_to_peer),
      applies_to_supervisor = COALESCE($5, applies_to_supervisor),
      is_active = COALESCE($6, is_active)
    WHERE id = $1
  `, questionID, in.Text, in.AppliesToSelf, in.AppliesToPeer, in.AppliesToSupervisor, in.IsActive)
	return err
}

func (s *Store) DeleteQuestion(ctx context.Context, questionID string) error {
	_, err := s.DB.Exec(ctx, "DELETE FROM review_questions WHERE id = $1", questionID)
	return err
}

func (s *Store) QuestionUsed(ctx context.Context, questionID string) (bool, error) {
	var used bool
	err := s.DB.QueryRow(ctx, "SELECT EXISTS (SELECT 1 FROM review_responses WHERE question_id = $1)", questionID).Scan(&used)
	return used, err
}

const assignmentColumns = `
    a.id, a.cycle_id, c.name, c.status, a.reviewer_id, a.reviewee_id, u.name,
    a.review_type, a.status, a.completed_at, a.created_at
`

const assignmentJoins = `
    FROM review_assignments a
    JOIN review_cycles c ON c.id = a.cycle_id
    JOIN users u ON u.id = a.reviewee_id
`

func scanAssignment(row pgx.Row) (Assignment, error) {
	var a Assignment
	err := row.Scan(&a.ID, &a.CycleID, &a.CycleName, &a.CycleStatus, &a.ReviewerID, &a.RevieweeID, &a.RevieweeName,
		&a.ReviewType, &a.Status, &a.CompletedAt, &a.CreatedAt)
	return a, err
}

func (s *Store) ReviewerAssignments(ctx context.Context, reviewerID string) ([]Assignment, error) {
	rows, err := s.DB.Query(ctx, "SELECT "+assignmentColumns+assignmentJoins+`
    WHERE a.reviewer_id = $1 AND c.status IN ('SCHEDULED', 'ACTIVE', 'COMPLETED')
    ORDER BY c.start_date DESC, a.review_type, u.name
  `, reviewerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Assignment{}
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *Store) GetAssignment(ctx context.Context, assignmentID string) (Assignment, error) {
	return scanAssignment(s.DB.QueryRow(ctx, "SELECT "+assignmentColumns+assignmentJoins+" WHERE a.id = $1", assignmentID))
}

func (s *Store) Responses(ctx context.Context, assignmentID string) ([]SavedResponse, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT question_id, rating, COALESCE(comment, '')
    FROM review_responses WHERE assignment_id = $1
  `, assignmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []SavedResponse
	for rows.Next() {
		var r SavedResponse
		if err := rows.Scan(&r.QuestionID, &r.Rating, &r.Comment); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// SaveResponses upserts the answers of an assignment. On completion the
// assignment is closed and the cycle completion rate refreshed in the same
// transaction.
func (s *Store) SaveResponses(ctx context.Context, assignmentID string, responses []SavedResponse, complete bool) (Assignment, error) {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return Assignment{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for _, r := range responses {
		if _, err := tx.Exec(ctx, `
      INSERT INTO review_responses (assignment_id, question_id, rating, comment)
      VALUES ($1, $2, $3, $4)
      ON CONFLICT (assignment_id, question_id)
      DO UPDATE SET rating = EXCLUDED.rating, comment = EXCLUDED.comment, updated_at = now()
    `, assignmentID, r.QuestionID, r.Rating, nullIfEmpty(r.Comment)); err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && (pgErr.Code == "23503" || pgErr.Code == "22P02") {
				return Assignment{}, ErrQuestionNotFound
			}
			return Assignment{}, err
		}
	}

	if complete {
		var cycleID string
		if err := tx.QueryRow(ctx, `
      UPDATE review_assignments SET status = 'completed', completed_at = now()
      WHERE id = $1 AND status <> 'completed'
      RETURNING cycle_id
    `, assignmentID).Scan(&cycleID); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return Assignment{}, ErrAlreadyCompleted
			}
			return Assignment{}, err
		}
		if _, err := tx.Exec(ctx, `
      UPDATE review_cycles SET completion_rate = (
        SELECT COALESCE(100.0 * COUNT(1) FILTER (WHERE status = 'completed') / NULLIF(COUNT(1), 0), 0)
        FROM review_assignments WHERE cycle_id = $1
      ), updated_at = now()
      WHERE id = $1
    `, cycleID); err != nil {
			return Assignment{}, err
		}
	} else if _, err := tx.Exec(ctx, `
    UPDATE review_assignments SET status = 'in_progress'
    WHERE id = $1 AND status IN ('pending', 'overdue')
  `, assignmentID); err != nil {
		return Assignment{}, err
	}

	a, err := scanAssignment(tx.QueryRow(ctx, "SELECT "+assignmentColumns+assignmentJoins+" WHERE a.id = $1", assignmentID))
	if err != nil {
		return Assignment{}, err
	}
	return a, tx.Commit(ctx)
}

func (s *Store) RevieweeProgress(ctx context.Context, cycleID, revieweeID string) (int, int, error) {
	var total, completed int
	err := s.DB.QueryRow(ctx, `
    SELECT COUNT(1), COUNT(1) FILTER (WHERE status = 'completed')
    FROM review_assignments WHERE cycle_id = $1 AND reviewee_id = $2
  `, cycleID, revieweeID).Scan(&total, &completed)
	return total, completed, err
}

func (s *Store) AssignmentStats(ctx context.Context, cycleID string) ([]AssignmentStat, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT a.reviewee_id, u.name, COALESCE(u.job_title, ''), COALESCE(o.name, ''), a.review_type, a.status
    FROM review_assignments a
    JOIN users u ON u.id = a.reviewee_id
    LEFT JOIN organizations o ON o.id = u.organization_id
    WHERE a.cycle_id = $1
    ORDER BY u.name, a.reviewee_id
  `, cycleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []AssignmentStat
	for rows.Next() {
		var st AssignmentStat
		if err := rows.Scan(&st.RevieweeID, &st.Name, &st.JobTitle, &st.Department, &st.ReviewType, &st.Status); err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

// Ratings returns every rating a reviewee received in completed assignments
// of the cycle, limited to active questions of the cycle's active traits that
// apply to the assignment's review type.
func (s *Store) Ratings(ctx context.Context, cycleID, userID string) ([]Rating, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT q.trait_id, a.review_type, r.rating
    FROM review_responses r
    JOIN review_assignments a ON a.id = r.assignment_id
    JOIN review_questions q ON q.id = r.question_id
    JOIN review_cycle_traits ct ON ct.cycle_id = a.cycle_id AND ct.trait_id = q.trait_id AND ct.is_active
    WHERE a.cycle_id = $1 AND a.reviewee_id = $2 AND a.status = 'completed' AND q.is_active
      AND CASE a.review_type
            WHEN 'self' THEN q.applies_to_self
            WHEN 'peer' THEN q.applies_to_peer
            ELSE q.applies_to_supervisor
          END
  `, cycleID, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Rating
	for rows.Next() {
		var r Rating
		if err := rows.Scan(&r.TraitID, &r.ReviewType, &r.Value); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) Reviewees(ctx context.Context, cycleID string) ([]string, error) {
	rows, err := s.DB.Query(ctx, "SELECT DISTINCT reviewee_id FROM review_assignments WHERE cycle_id = $1 ORDER BY reviewee_id", cycleID)
	if err != nil {
		return nil, err
	}
	return collectIDs(rows)
}

func (s *Store) SaveScores(ctx context.Context, cycleID, userID string, scores []Score) error {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for _, sc := range scores {
		if _, err := tx.Exec(ctx, `
      INSERT INTO review_scores (cycle_id, user_id, trait_id, self_score, peer_score, supervisor_score, weighted_score, scaled_score, calculated_at)
      VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
      ON CONFLICT (cycle_id, user_id, trait_id) DO UPDATE SET
        self_score = EXCLUDED.self_score,
        peer_score = EXCLUDED.peer_score,
        supervisor_score = EXCLUDED.supervisor_score,
        weighted_score = EXCLUDED.weighted_score,
        scaled_score = EXCLUDED.scaled_score,
        calculated_at = EXCLUDED.calculated_at
    `, cycleID, userID, sc.TraitID, sc.SelfScore, sc.PeerScore, sc.SupervisorScore,
			sc.WeightedScore, sc.ScaledScore, sc.CalculatedAt); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (s *Store) Scores(ctx context.Context, cycleID, userID string) ([]Score, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT s.cycle_id, s.user_id, s.trait_id, t.name,
           s.self_score, s.peer_score, s.supervisor_score, s.weighted_score, s.scaled_score, s.calculated_at
    FROM review_scores s
    JOIN review_traits t ON t.id = s.trait_id
    WHERE s.cycle_id = $1 AND s.user_id = $2
    ORDER BY t.display_order, t.name
  `, cycleID, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Score{}
	for rows.Next() {
		var sc Score
		if err := rows.Scan(&sc.CycleID, &sc.UserID, &sc.TraitID, &sc.TraitName,
			&sc.SelfScore, &sc.PeerScore, &sc.SupervisorScore, &sc.WeightedScore, &sc.ScaledScore, &sc.CalculatedAt); err != nil {
			return nil, err
		}
		out = append(out, sc)
	}
	return out, rows.Err()
}

func (s *Store) UserRef(ctx context.Context, userID string) (UserRef, error) {
	var u UserRef
	err := s.DB.QueryRow(ctx, `
    SELECT u.id, u.name, COALESCE(u.job_title, ''), COALESCE(o.name, ''), COALESCE(u.organization_id::text, '')
    FROM users u
    LEFT JOIN organizations o ON o.id = u.organization_id
    WHERE u.id = $1
  `, userID).Scan(&u.ID, &u.Name, &u.JobTitle, &u.Department, &u.OrganizationID)
	return u, err
}

func uniqueStrings(values []string) []string {
	seen := map[string]bool{}
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}

func nullIfEmpty(value string) any {
	if value == "" {
		return nil
	}
	return value
}
