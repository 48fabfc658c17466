package initiatives

import (
	"context"
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

const initiativeColumns = `
    i.id, i.title, COALESCE(i.description, ''), i.type, i.urgency, i.due_date, i.status,
    i.score, COALESCE(i.feedback, ''),
    COALESCE(i.goal_id::text, ''), COALESCE(g.title, ''),
    COALESCE(i.team_head_id::text, ''), COALESCE(th.name, ''),
    i.created_by, COALESCE(c.name, ''), COALESCE(c.organization_id::text, ''),
    COALESCE(i.assigned_by::text, ''), i.approved_at, i.rejected_at, i.reviewed_at,
    (SELECT COUNT(1) FROM initiative_submissions s WHERE s.initiative_id = i.id),
    (SELECT COUNT(1) FROM initiative_documents d WHERE d.initiative_id = i.id),
    (SELECT COUNT(1) FROM initiative_extensions e WHERE e.initiative_id = i.id),
    i.created_at, i.updated_at
`

const initiativeJoins = `
    FROM initiatives i
    JOIN users c ON c.id = i.created_by
    LEFT JOIN users th ON th.id = i.team_head_id
    LEFT JOIN goals g ON g.id = i.goal_id
`

func scanInitiative(row pgx.Row) (Initiative, error) {
	var in Initiative
	err := row.Scan(&in.ID, &in.Title, &in.Description, &in.Type, &in.Urgency, &in.DueDate, &in.Status,
		&in.Score, &in.Feedback,
		&in.GoalID, &in.GoalTitle,
		&in.TeamHeadID, &in.TeamHeadName,
		&in.CreatedBy, &in.CreatorName, &in.CreatorOrgID,
		&in.AssignedBy, &in.ApprovedAt, &in.RejectedAt, &in.ReviewedAt,
		&in.SubmissionCount, &in.DocumentCount, &in.ExtensionCount,
		&in.CreatedAt, &in.UpdatedAt)
	in.Assignments = []Assignee{}
	return in, err
}

func collectInitiatives(rows pgx.Rows) ([]Initiative, error) {
	defer rows.Close()
	out := []Initiative{}
	for rows.Next() {
		in, err := scanInitiative(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, in)
	}
	return out, rows.Err()
}

// loadAssignees fills the assignment lists of list in one query.
func (s *Store) loadAssignees(ctx context.Context, list []Initiative) error {
	if len(list) == 0 {
		return nil
	}
	index := make(map[string]int, len(list))
	ids := make([]string, 0, len(list))
	for i, in := range list {
		index[in.ID] = i
		ids = append(ids, in.ID)
	}
	rows, err := s.DB.Query(ctx, `
    SELECT a.initiative_id, a.user_id, u.name, u.email, a.created_at
    FROM initiative_assignments a
    JOIN users u ON u.id = a.user_id
    WHERE a.initiative_id::text = ANY($1)
    ORDER BY a.created_at, u.name
  `, ids)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var initiativeID string
		var a Assignee
		if err := rows.Scan(&initiativeID, &a.UserID, &a.UserName, &a.UserEmail, &a.AssignedAt); err != nil {
			return err
		}
		i := index[initiativeID]
		list[i].Assignments = append(list[i].Assignments, a)
		list[i].AssigneeCount++
	}
	return rows.Err()
}

func (s *Store) Get(ctx context.Context, id string) (Initiative, error) {
	in, err := scanInitiative(s.DB.QueryRow(ctx, "SELECT "+initiativeColumns+initiativeJoins+" WHERE i.id = $1", id))
	if err != nil {
		return Initiative{}, err
	}
	list := []Initiative{in}
	if err := s.loadAssignees(ctx, list); err != nil {
		return Initiative{}, err
	}
	return list[0], nil
}

func filterClause(filter ListFilter) (string, []any) {
	var where []string
	var args []any
	add := func(clause string, value any) {
		args = append(args, value)
		where = append(where, fmt.Sprintf(clause, len(args)))
	}
	if len(filter.Statuses) > 0 {
		add("i.status = ANY($%d)", filter.Statuses)
	}
	if filter.Type != "" {
		add("i.type = $%d", filter.Type)
	}
	if filter.Urgency != "" {
		add("i.urgency = $%d", filter.Urgency)
	}
	if filter.AssigneeID != "" {
		add("i.id IN (SELECT initiative_id FROM initiative_assignments WHERE user_id = $%d)", filter.AssigneeID)
	}
	if filter.CreatorID != "" {
		add("i.created_by = $%d", filter.CreatorID)
	}
	if filter.InvolvedID != "" {
		add("(i.created_by = $%[1]d OR i.id IN (SELECT initiative_id FROM initiative_assignments WHERE user_id = $%[1]d))", filter.InvolvedID)
	}
	if filter.ViewerID != "" {
		args = append(args, filter.ViewerID)
		viewer := len(args)
		orgClause := "false"
		if len(filter.OrgIDs) > 0 {
			args = append(args, filter.OrgIDs)
			orgClause = fmt.Sprintf("c.organization_id::text = ANY($%d)", len(args))
		}
		where = append(where, fmt.Sprintf(`(
        i.created_by = $%[1]d
        OR i.team_head_id = $%[1]d
        OR i.id IN (SELECT initiative_id FROM initiative_assignments WHERE user_id = $%[1]d)
        OR %[2]s
      )`, viewer, orgClause))
	}
	if len(where) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(where, " AND "), args
}

// List returns a page of initiatives. A non-positive Limit returns every row.
func (s *Store) List(ctx context.Context, filter ListFilter) ([]Initiative, int, error) {
	clause, args := filterClause(filter)
	var total int
	if err := s.DB.QueryRow(ctx, "SELECT COUNT(1)"+initiativeJoins+clause, args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	query := "SELECT " + initiativeColumns + initiativeJoins + clause + " ORDER BY i.created_at DESC"
	if filter.Limit > 0 {
		args = append(args, filter.Limit, filter.Offset)
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args))
	}
	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	list, err := collectInitiatives(rows)
	if err != nil {
		return nil, 0, err
	}
	return list, total, s.loadAssignees(ctx, list)
}

func (s *Store) SuperviseeInitiatives(ctx context.Context, supervisorID string) ([]Initiative, error) {
	rows, err := s.DB.Query(ctx, "SELECT "+initiativeColumns+initiativeJoins+`
    WHERE c.supervisor_id = $1
       OR i.id IN (
         SELECT a.initiative_id FROM initiative_assignments a
         JOIN users u ON u.id = a.user_id
         WHERE u.supervisor_id = $1
       )
    ORDER BY i.created_at DESC`, supervisorID)
	if err != nil {
		return nil, err
	}
	list, err := collectInitiatives(rows)
	if err != nil {
		return nil, err
	}
	return list, s.loadAssignees(ctx, list)
}

func (s *Store) Create(ctx context.Context, in Initiative, assigneeIDs, documentIDs []string) (string, error) {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return "", err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var id string
	err = tx.QueryRow(ctx, `
    INSERT INTO initiatives (title, description, type, urgency, due_date, status, created_by,
                             assigned_by, team_head_id, goal_id, approved_at)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
    RETURNING id
  `, in.Title, nullIfEmpty(in.Description), in.Type, in.Urgency, in.DueDate, in.Status, in.CreatedBy,
		nullIfEmpty(in.AssignedBy), nullIfEmpty(in.TeamHeadID), nullIfEmpty(in.GoalID), in.ApprovedAt).Scan(&id)
	if err != nil {
		return "", err
	}
	for _, userID := range assigneeIDs {
		if _, err := tx.Exec(ctx, `
      INSERT INTO initiative_assignments (initiative_id, user_id) VALUES ($1, $2)
      ON CONFLICT (initiative_id, user_id) DO NOTHING
    `, id, userID); err != nil {
			return "", err
		}
	}
	if len(documentIDs) > 0 {
		if _, err := tx.Exec(ctx, `
      UPDATE initiative_documents SET initiative_id = $1
      WHERE id::text = ANY($2) AND initiative_id IS NULL
    `, id, documentIDs); err != nil {
			return "", err
		}
	}
	return id, tx.Commit(ctx)
}

func (s *Store) Update(ctx context.Context, id string, in UpdateInput) error {
	var goalID any
	if in.GoalID != nil {
		goalID = nullIfEmpty(*in.GoalID)
	}
	_, err := s.DB.Exec(ctx, `
    UPDATE initiatives SET
      title = COALESCE($2, title),
      description = COALESCE($3, description),
      urgency = COALESCE($4, urgency),
      due_date = COALESCE($5, due_date),
      goal_id = CASE WHEN $6 THEN $7::uuid ELSE goal_id END,
      updated_at = now()
    WHERE id = $1
  `, id, in.Title, in.Description, in.Urgency, in.DueDate, in.GoalID != nil, goalID)
	return err
}

func (s *Store) Delete(ctx context.Context, id string) error {
	_, err := s.DB.Exec(ctx, "DELETE FROM initiatives WHERE id = $1", id)
	return err
}

func (s *Store) SetStatus(ctx context.Context, id, status string) error {
	_, err := s.DB.Exec(ctx, "UPDATE initiatives SET status = $2, updated_at = now() WHERE id = $1", id, status)
	return err
}

func (s *Store) Approve(ctx context.Context, id, approverID string) error {
	_, err := s.DB.Exec(ctx, `
    UPDATE initiatives
    SET status = 'PENDING', assigned_by = $2, approved_at = now(), rejected_at = NULL, updated_at = now()
    WHERE id = $1
  `, id, approverID)
	return err
}

func (s *Store) Reject(ctx context.Context, id, reason string) error {
	_, err := s.DB.Exec(ctx, `
    UPDATE initiatives
    SET status = 'REJECTED', feedback = $2, rejected_at = now(), assigned_by = NULL, updated_at = now()
    WHERE id = $1
  `, id, reason)
	return err
}

func (s *Store) Review(ctx context.Context, id string, score int, feedback, status string) error {
	_, err := s.DB.Exec(ctx, `
    UPDATE initiatives
    SET score = $2, feedback = $3, status = $4, reviewed_at = now(), updated_at = now()
    WHERE id = $1
  `, id, score, nullIfEmpty(feedback), status)
	return err
}

// MarkOverdue moves past-due active initiatives to OVERDUE and returns their ids.
func (s *Store) MarkOverdue(ctx context.Context, now time.Time) ([]string, error) {
	rows, err := s.DB.Query(ctx, `
    UPDATE initiatives SET status = 'OVERDUE', updated_at = now()
    WHERE id IN (
      SELECT id FROM initiatives
      WHERE status IN ('PENDING', 'ONGOING', 'UNDER_REVIEW') AND due_date < $1
      FOR UPDATE SKIP LOCKED
    )
    RETURNING id
  `, now)
	if err != nil {
		return nil, err
	}
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

func (s *Store) Submit(ctx context.Context, id, userID, report string, documentIDs []string) (Submission, error) {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return Submission{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	sub := Submission{InitiativeID: id, Report: report, SubmittedBy: userID, Documents: []Document{}}
	err = tx.QueryRow(ctx, `
    INSERT INTO initiative_submissions (initiative_id, report, submitted_by)
    VALUES ($1, $2, $3)
    RETURNING id, submitted_at
  `, id, report, userID).Scan(&sub.ID, &sub.SubmittedAt)
	if err != nil {
		return Submission{}, err
	}
	if len(documentIDs) > 0 {
		tag, err := tx.Exec(ctx, `
      UPDATE initiative_documents SET initiative_id = $1
      WHERE id::text = ANY($2) AND (initiative_id IS NULL OR initiative_id = $1)
    `, id, documentIDs)
		if err != nil {
			return Submission{}, err
		}
		if tag.RowsAffected() != int64(len(documentIDs)) {
			return Submission{}, ErrDocumentNotFound
		}
	}
	if _, err := tx.Exec(ctx, "UPDATE initiatives SET status = 'UNDER_REVIEW', updated_at = now() WHERE id = $1", id); err != nil {
		return Submission{}, err
	}
	return sub, tx.Commit(ctx)
}

func (s *Store) Submissions(ctx context.Context, id string) ([]Submission, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT s.id, s.initiative_id, s.report, s.submitted_by, COALESCE(u.name, ''), s.submitted_at
    FROM initiative_submissions s
    LEFT JOIN users u ON u.id = s.submitted_by
    WHERE s.initiative_id = $1
    ORDER BY s.submitted_at DESC
  `, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Submission{}
	for rows.Next() {
		var sub Submission
		if err := rows.Scan(&sub.ID, &sub.InitiativeID, &sub.Report, &sub.SubmittedBy, &sub.SubmitterName, &sub.SubmittedAt); err != nil {
			return nil, err
		}
		out = append(out, sub)
	}
	return out, rows.Err()
}

func (s *Store) HasPendingExtension(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := s.DB.QueryRow(ctx, `
    SELECT EXISTS (SELECT 1 FROM initiative_extensions WHERE initiative_id = $1 AND status = 'PENDING')
  `, id).Scan(&exists)
	return exists, err
}

const extensionColumns = `
    id, initiative_id, new_due_date, reason, status, requested_by,
    COALESCE(reviewed_by::text, ''), reviewed_at, created_at
`

func scanExtension(row pgx.Row) (Extension, error) {
	var e Extension
	err := row.Scan(&e.ID, &e.InitiativeID, &e.NewDueDate, &e.Reason, &e.Status, &e.RequestedBy,
		&e.ReviewedBy, &e.ReviewedAt, &e.CreatedAt)
	return e, err
}

// CreateExtension relies on the partial unique index to reject a second
// pending request raced past the service check.
func (s *Store) CreateExtension(ctx context.Context, ext Extension) (Extension, error) {
	created, err := scanExtension(s.DB.QueryRow(ctx, `
    INSERT INTO initiative_extensions (initiative_id, new_due_date, reason, requested_by)
    VALUES ($1, $2, $3, $4)
    RETURNING `+extensionColumns, ext.InitiativeID, ext.NewDueDate, ext.Reason, ext.RequestedBy))
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return Extension{}, ErrExtensionPending
	}
	return created, err
}

func (s *Store) GetExtension(ctx context.Context, extensionID string) (Extension, error) {
	return scanExtension(s.DB.QueryRow(ctx, "SELECT "+extensionColumns+" FROM initiative_extensions WHERE id = $1", extensionID))
}

// ReviewExtension settles a pending extension. Approval moves the due date and
// brings an OVERDUE initiative back to ONGOING.
func (s *Store) ReviewExtension(ctx context.Context, extensionID, reviewerID string, approved bool) (Extension, error) {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return Extension{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	status := ExtensionDenied
	if approved {
		status = ExtensionApproved
	}
	ext, err := scanExtension(tx.QueryRow(ctx, `
    UPDATE initiative_extensions
    SET status = $2, reviewed_by = $3, reviewed_at = now()
    WHERE id = $1 AND status = 'PENDING'
    RETURNING `+extensionColumns, extensionID, status, reviewerID))
	if errors.Is(err, pgx.ErrNoRows) {
		return Extension{}, ErrExtensionReviewed
	}
	if err != nil {
		return Extension{}, err
	}
	if approved {
		if _, err := tx.Exec(ctx, `
      UPDATE initiatives
      SET due_date = $2,
          status = CASE WHEN status = 'OVERDUE' THEN 'ONGOING' ELSE status END,
          updated_at = now()
      WHERE id = $1
    `, ext.InitiativeID, ext.NewDueDate); err != nil {
			return Extension{}, err
		}
	}
	return ext, tx.Commit(ctx)
}

const documentColumns = `
    id, COALESCE(initiative_id::text, ''), file_name, object_key, content_type, size_bytes, uploaded_by, uploaded_at
`

func scanDocument(row pgx.Row) (Document, error) {
	var d Document
	err := row.Scan(&d.ID, &d.InitiativeID, &d.FileName, &d.ObjectKey, &d.ContentType, &d.SizeBytes, &d.UploadedBy, &d.UploadedAt)
	return d, err
}

func (s *Store) CreateDocument(ctx context.Context, doc Document) (Document, error) {
	return scanDocument(s.DB.QueryRow(ctx, `
    INSERT INTO initiative_documents (initiative_id, file_name, object_key, content_type, size_bytes, uploaded_by)
    VALUES ($1, $2, $3, $4, $5, $6)
    RETURNING `+documentColumns,
		nullIfEmpty(doc.InitiativeID), doc.FileName, doc.ObjectKey, doc.ContentType, doc.SizeBytes, doc.UploadedBy))
}

func (s *Store) GetDocument(ctx context.Context, documentID string) (Document, error) {
	return scanDocument(s.DB.QueryRow(ctx, "SELECT "+documentColumns+" FROM initiative_documents WHERE id = $1", documentID))
}

func (s *Store) Documents(ctx context.Context, initiativeID string) ([]Document, error) {
	rows, err := s.DB.Query(ctx, "SELECT "+documentColumns+" FROM initiative_documents WHERE initiative_id = $1 ORDER BY uploaded_at", initiativeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Document{}
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (s *Store) UserRef(ctx context.Context, userID string) (UserRef, error) {
	var u UserRef
	err := s.DB.QueryRow(ctx, `
    SELECT id, name, email, COALESCE(job_title, ''), COALESCE(supervisor_id::text, ''),
           COALESCE(organization_id::text, ''), status
    FROM users WHERE id = $1
  `, userID).Scan(&u.ID, &u.Name, &u.Email, &u.JobTitle, &u.SupervisorID, &u.OrganizationID, &u.Status)
	return u, err
}

func (s *Store) SuperviseeCount(ctx context.Context, userID string) (int, error) {
	var count int
	err := s.DB.QueryRow(ctx, "SELECT COUNT(1) FROM users WHERE supervisor_id = $1", userID).Scan(&count)
	return count, err
}

func (s *Store) AssignableUsers(ctx context.Context, orgIDs []string) ([]UserRef, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, name, email, COALESCE(job_title, ''), COALESCE(supervisor_id::text, ''),
           COALESCE(organization_id::text, ''), status
    FROM users
    WHERE status = 'active' AND organization_id::text = ANY($1)
    ORDER BY name
  `, orgIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []UserRef{}
	for rows.Next() {
		var u UserRef
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.JobTitle, &u.SupervisorID, &u.OrganizationID, &u.Status); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func nullIfEmpty(value string) any {
	if value == "" {
		return nil
	}
	return value
}
