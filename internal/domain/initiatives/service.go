// Package initiatives runs the initiative workflow: assignment, approval,
// execution, submission, review, deadline extensions and overdue tracking.
package initiatives

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"pms/internal/domain/access"
	"pms/internal/domain/apperr"
	"pms/internal/domain/auth"
	"pms/internal/domain/notifications"
	"pms/internal/platform/storage"
)

type Notifier interface {
	Notify(ctx context.Context, in notifications.Input)
	NotifyMany(ctx context.Context, userIDs []string, in notifications.Input)
}

type OrgAccess interface {
	CanAccessOrg(ctx context.Context, p access.Principal, orgID string) (bool, error)
	AccessibleOrgs(ctx context.Context, p access.Principal) ([]string, error)
}

type Service struct {
	store   StoreAPI
	Access  OrgAccess
	Notify  Notifier
	Objects storage.Store
	now     func() time.Time
}

func NewService(store StoreAPI, orgs OrgAccess, notify Notifier, objects storage.Store) *Service {
	return &Service{store: store, Access: orgs, Notify: notify, Objects: objects, now: time.Now}
}

func notFound(err, kind error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return kind
	}
	return err
}

func link(id string) string {
	return "/initiatives/" + id
}

func (s *Service) notify(ctx context.Context, in notifications.Input) {
	if s.Notify == nil || in.UserID == "" {
		return
	}
	s.Notify.Notify(ctx, in)
}

func (s *Service) notifyMany(ctx context.Context, userIDs []string, in notifications.Input) {
	if s.Notify == nil || len(userIDs) == 0 {
		return
	}
	s.Notify.NotifyMany(ctx, userIDs, in)
}

func (s *Service) load(ctx context.Context, id string) (Initiative, error) {
	in, err := s.store.Get(ctx, id)
	if err != nil {
		return Initiative{}, notFound(err, ErrInitiativeNotFound)
	}
	return in, nil
}

func (s *Service) canView(ctx context.Context, p access.Principal, in Initiative) (bool, error) {
	if in.CreatedBy == p.UserID || in.TeamHeadID == p.UserID || in.IsAssignee(p.UserID) {
		return true, nil
	}
	if p.Has(auth.PermInitiativeViewAll) {
		ok, err := s.Access.CanAccessOrg(ctx, p, in.CreatorOrgID)
		if err != nil || ok {
			return ok, err
		}
	}
	creator, err := s.store.UserRef(ctx, in.CreatedBy)
	if err != nil {
		return false, notFound(err, ErrUserNotFound)
	}
	return creator.SupervisorID == p.UserID, nil
}

func (s *Service) Get(ctx context.Context, p access.Principal, id string) (Initiative, error) {
	in, err := s.load(ctx, id)
	if err != nil {
		return Initiative{}, err
	}
	ok, err := s.canView(ctx, p, in)
	if err != nil {
		return Initiative{}, err
	}
	if !ok {
		return Initiative{}, ErrAccessDenied
	}
	return in, nil
}

func (s *Service) restrict(ctx context.Context, p access.Principal, filter *ListFilter) error {
	if !p.Has(auth.PermInitiativeViewAll) {
		filter.ViewerID = p.UserID
		return nil
	}
	if p.Scope == access.ScopeGlobal {
		return nil
	}
	orgIDs, err := s.Access.AccessibleOrgs(ctx, p)
	if err != nil {
		return err
	}
	filter.ViewerID = p.UserID
	filter.OrgIDs = orgIDs
	return nil
}

// List returns initiatives visible to the caller. A filter on the caller's own
// assignments skips the visibility rules.
func (s *Service) List(ctx context.Context, p access.Principal, filter ListFilter) ([]Initiative, int, error) {
	if filter.AssigneeID != p.UserID {
		filter.AssigneeID = ""
		if err := s.restrict(ctx, p, &filter); err != nil {
			return nil, 0, err
		}
	}
	return s.store.List(ctx, filter)
}

func (s *Service) Stats(ctx context.Context, p access.Principal) (Stats, error) {
	filter := ListFilter{}
	if err := s.restrict(ctx, p, &filter); err != nil {
		return Stats{}, err
	}
	list, _, err := s.store.List(ctx, filter)
	if err != nil {
		return Stats{}, err
	}
	return ComputeStats(list), nil
}

func (s *Service) Assigned(ctx context.Context, p access.Principal, statuses []string) ([]Initiative, error) {
	list, _, err := s.store.List(ctx, ListFilter{AssigneeID: p.UserID, Statuses: statuses})
	return list, err
}

func (s *Service) Created(ctx context.Context, p access.Principal, statuses []string) ([]Initiative, error) {
	list, _, err := s.store.List(ctx, ListFilter{CreatorID: p.UserID, Statuses: statuses})
	return list, err
}

// ReviewQueue lists the caller's initiatives waiting for review.
func (s *Service) ReviewQueue(ctx context.Context, p access.Principal) ([]Initiative, error) {
	return s.Created(ctx, p, []string{StatusUnderReview})
}

func (s *Service) Supervisees(ctx context.Context, p access.Principal) ([]Initiative, error) {
	return s.store.SuperviseeInitiatives(ctx, p.UserID)
}

func (s *Service) HasSupervisees(ctx context.Context, p access.Principal) (SuperviseeSummary, error) {
	count, err := s.store.SuperviseeCount(ctx, p.UserID)
	if err != nil {
		return SuperviseeSummary{}, err
	}
	return SuperviseeSummary{HasSupervisees: count > 0, SuperviseeCount: count}, nil
}

// AssignableUsers lists active users the caller may assign work to: anyone in
// a reachable org for initiative_view_all holders, their own org otherwise.
func (s *Service) AssignableUsers(ctx context.Context, p access.Principal) ([]UserRef, error) {
	var orgIDs []string
	if p.Has(auth.PermInitiativeViewAll) {
		ids, err := s.Access.AccessibleOrgs(ctx, p)
		if err != nil {
			return nil, err
		}
		orgIDs = ids
	} else {
		me, err := s.store.UserRef(ctx, p.UserID)
		if err != nil {
			return nil, notFound(err, ErrUserNotFound)
		}
		if me.OrganizationID == "" {
			return []UserRef{}, nil
		}
		orgIDs = []string{me.OrganizationID}
	}
	return s.store.AssignableUsers(ctx, orgIDs)
}

func normalizeCreate(in *CreateInput) {
	in.Title = strings.TrimSpace(in.Title)
	in.Type = strings.ToUpper(strings.TrimSpace(in.Type))
	in.Urgency = strings.ToUpper(strings.TrimSpace(in.Urgency))
	if in.Type == "" {
		in.Type = TypeIndividual
	}
	if in.Urgency == "" {
		in.Urgency = UrgencyMedium
	}
	ids := make([]string, 0, len(in.AssigneeIDs))
	for _, id := range in.AssigneeIDs {
		id = strings.TrimSpace(id)
		if id != "" && !slices.Contains(ids, id) {
			ids = append(ids, id)
		}
	}
	in.AssigneeIDs = ids
}

func (s *Service) validateAssignees(ctx context.Context, p access.Principal, creator UserRef, ids []string) error {
	viewAll := p.Has(auth.PermInitiativeViewAll)
	for _, id := range ids {
		assignee, err := s.store.UserRef(ctx, id)
		if errors.Is(err, pgx.ErrNoRows) {
			return apperr.Validation("User %s not found", id)
		}
		if err != nil {
			return err
		}
		if viewAll {
			ok, err := s.Access.CanAccessOrg(ctx, p, assignee.OrganizationID)
			if err != nil {
				return err
			}
			if !ok {
				return apperr.Validation("Cannot assign initiative to user outside your scope: %s", assignee.Name)
			}
		} else if creator.OrganizationID != assignee.OrganizationID {
			return apperr.Validation("Cannot assign initiative to user outside your department: %s", assignee.Name)
		}
		if assignee.Status != "active" {
			return apperr.Validation("Cannot assign initiative to inactive user: %s", assignee.Name)
		}
	}
	return nil
}

func (s *Service) validateDocuments(ctx context.Context, ownerID, initiativeID string, ids []string) ([]Document, error) {
	docs := make([]Document, 0, len(ids))
	for _, id := range ids {
		doc, err := s.store.GetDocument(ctx, id)
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.Validation("Document %s not found", id)
		}
		if err != nil {
			return nil, err
		}
		if doc.UploadedBy != ownerID {
			return nil, apperr.Validation("Cannot attach document not owned by you: %s", doc.FileName)
		}
		if doc.InitiativeID != "" && doc.InitiativeID != initiativeID {
			return nil, apperr.Validation("Document %s is already attached to another initiative", doc.FileName)
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// Create validates and stores a new initiative. Self-assigned work waits for
// the creator's supervisor; a supervisor assigning others skips approval.
func (s *Service) Create(ctx context.Context, p access.Principal, in CreateInput) (Initiative, error) {
	normalizeCreate(&in)
	if err := ValidateCreate(in); err != nil {
		return Initiative{}, err
	}
	creator, err := s.store.UserRef(ctx, p.UserID)
	if err != nil {
		return Initiative{}, notFound(err, ErrUserNotFound)
	}
	if err := s.validateAssignees(ctx, p, creator, in.AssigneeIDs); err != nil {
		return Initiative{}, err
	}
	if _, err := s.validateDocuments(ctx, p.UserID, "", in.DocumentIDs); err != nil {
		return Initiative{}, err
	}
	supervisees, err := s.store.SuperviseeCount(ctx, p.UserID)
	if err != nil {
		return Initiative{}, err
	}

	record := Initiative{
		Title:       in.Title,
		Description: strings.TrimSpace(in.Description),
		Type:        in.Type,
		Urgency:     in.Urgency,
		DueDate:     *in.DueDate,
		Status:      InitialStatus(p.UserID, in.AssigneeIDs, supervisees > 0),
		GoalID:      in.GoalID,
		CreatedBy:   p.UserID,
	}
	if record.Type == TypeGroup {
		record.TeamHeadID = in.TeamHeadID
	}
	if record.Status == StatusAssigned {
		now := s.now()
		record.AssignedBy = p.UserID
		record.ApprovedAt = &now
	}

	id, err := s.store.Create(ctx, record, in.AssigneeIDs, in.DocumentIDs)
	if err != nil {
		return Initiative{}, fmt.Errorf("create initiative: %w", err)
	}
	created, err := s.load(ctx, id)
	if err != nil {
		return Initiative{}, err
	}

	switch created.Status {
	case StatusPendingApproval:
		s.notify(ctx, notifications.Input{
			UserID:      creator.SupervisorID,
			Type:        notifications.TypeInitiativeCreated,
			Title:       "Initiative awaiting approval",
			Message:     fmt.Sprintf("%s created the initiative %q and needs your approval", creator.Name, created.Title),
			ActionURL:   link(created.ID),
			Data:        map[string]any{"initiative_id": created.ID},
			TriggeredBy: p.UserID,
		})
	case StatusAssigned:
		s.notifyMany(ctx, created.AssigneeIDs(), notifications.Input{
			Type:        notifications.TypeInitiativeAssigned,
			Priority:    urgencyPriority(created.Urgency),
			Title:       "New initiative assigned",
			Message:     fmt.Sprintf("%s assigned you the initiative %q due %s", creator.Name, created.Title, created.DueDate.Format("2006-01-02")),
			ActionURL:   link(created.ID),
			Data:        map[string]any{"initiative_id": created.ID},
			TriggeredBy: p.UserID,
		})
	}
	return created, nil
}

func urgencyPriority(urgency string) string {
	switch urgency {
	case UrgencyUrgent:
		return notifications.PriorityUrgent
	case UrgencyHigh:
		return notifications.PriorityHigh
	case UrgencyLow:
		return notifications.PriorityLow
	}
	return notifications.PriorityMedium
}

func (s *Service) Update(ctx context.Context, p access.Principal, id string, in UpdateInput) (Initiative, error) {
	current, err := s.load(ctx, id)
	if err != nil {
		return Initiative{}, err
	}
	if current.CreatedBy != p.UserID {
		return Initiative{}, ErrNotCreator
	}
	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" {
			return Initiative{}, ErrTitleRequired
		}
		in.Title = &title
	}
	if in.Urgency != nil {
		urgency := strings.ToUpper(strings.TrimSpace(*in.Urgency))
		if !slices.Contains(Urgencies, urgency) {
			return Initiative{}, ErrInvalidUrgency
		}
		in.Urgency = &urgency
	}
	if err := s.store.Update(ctx, id, in); err != nil {
		return Initiative{}, err
	}
	return s.load(ctx, id)
}

// Delete removes an initiative and its stored documents.
func (s *Service) Delete(ctx context.Context, p access.Principal, id string) error {
	if !p.Has(auth.PermInitiativeDelete) {
		return ErrInsufficientPermission
	}
	current, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if current.CreatedBy != p.UserID {
		return ErrDeleteDenied
	}
	if current.Status == StatusApproved {
		return ErrDeleteApproved
	}
	docs, err := s.store.Documents(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	for _, doc := range docs {
		if err := s.Objects.Delete(ctx, doc.ObjectKey); err != nil {
			slog.Warn("delete initiative document failed", "initiativeId", id, "documentId", doc.ID, "err", err)
		}
	}
	return nil
}

// Approve settles a PENDING_APPROVAL initiative. Only the creator's
// supervisor may act; a rejection needs a reason.
func (s *Service) Approve(ctx context.Context, p access.Principal, id string, approved bool, reason string) (Initiative, error) {
	current, err := s.load(ctx, id)
	if err != nil {
		return Initiative{}, err
	}
	creator, err := s.store.UserRef(ctx, current.CreatedBy)
	if err != nil {
		return Initiative{}, notFound(err, ErrUserNotFound)
	}
	if creator.SupervisorID == "" || creator.SupervisorID != p.UserID {
		return Initiative{}, ErrNotApprover
	}
	if current.Status != StatusPendingApproval {
		return Initiative{}, apperr.Validation("Initiative is not pending approval (current status: %s)", current.Status)
	}

	if approved {
		if err := s.store.Approve(ctx, id, p.UserID); err != nil {
			return Initiative{}, err
		}
		s.notifyMany(ctx, current.AssigneeIDs(), notifications.Input{
			Type:        notifications.TypeInitiativeApproved,
			Title:       "Initiative approved",
			Message:     fmt.Sprintf("The initiative %q was approved and can be started", current.Title),
			ActionURL:   link(id),
			Data:        map[string]any{"initiative_id": id},
			TriggeredBy: p.UserID,
		})
		return s.load(ctx, id)
	}

	reason = strings.TrimSpace(reason)
	if reason == "" {
		return Initiative{}, ErrRejectionReason
	}
	if err := s.store.Reject(ctx, id, reason); err != nil {
		return Initiative{}, err
	}
	s.notify(ctx, notifications.Input{
		UserID:      current.CreatedBy,
		Type:        notifications.TypeInitiativeRejected,
		Priority:    notifications.PriorityHigh,
		Title:       "Initiative rejected",
		Message:     fmt.Sprintf("The initiative %q was rejected: %s", current.Title, reason),
		ActionURL:   link(id),
		Data:        map[string]any{"initiative_id": id, "reason": reason},
		TriggeredBy: p.UserID,
	})
	return s.load(ctx, id)
}

// move applies an assignee-driven transition.
func (s *Service) move(ctx context.Context, p access.Principal, id, action, to string, from ...string) (Initiative, error) {
	current, err := s.load(ctx, id)
	if err != nil {
		return Initiative{}, err
	}
	if !current.IsAssignee(p.UserID) {
		return Initiative{}, ErrNotAssignee
	}
	if !slices.Contains(from, current.Status) {
		return Initiative{}, errStatus(action, from[0], current.Status)
	}
	if err := s.store.SetStatus(ctx, id, to); err != nil {
		return Initiative{}, err
	}
	current.Status = to
	return current, nil
}

// Accept takes on an ASSIGNED initiative.
func (s *Service) Accept(ctx context.Context, p access.Principal, id string) (Initiative, error) {
	if _, err := s.move(ctx, p, id, "accept", StatusPending, StatusAssigned); err != nil {
		return Initiative{}, err
	}
	return s.load(ctx, id)
}

func (s *Service) Start(ctx context.Context, p access.Principal, id string) (Initiative, error) {
	if _, err := s.move(ctx, p, id, "start", StatusOngoing, StatusPending, StatusAssigned); err != nil {
		return Initiative{}, err
	}
	return s.load(ctx, id)
}

// ChangeStatus is the generic status endpoint. Assignee moves are routed to
// Accept, Start and Complete; what remains (reopening, marking overdue) is the
// creator's. Approval and review keep their own endpoints.
func (s *Service) ChangeStatus(ctx context.Context, p access.Principal, id, status string) (Initiative, error) {
	to := strings.ToUpper(strings.TrimSpace(status))
	if !slices.Contains(Statuses, to) {
		return Initiative{}, ErrInvalidStatus
	}
	current, err := s.load(ctx, id)
	if err != nil {
		return Initiative{}, err
	}
	switch {
	case current.Status == StatusPendingApproval:
		return Initiative{}, ErrStatusNeedsApproval
	case to == StatusApproved:
		return Initiative{}, ErrStatusNeedsReview
	case !CanTransition(current.Status, to):
		return Initiative{}, errTransition(current.Status, to)
	case to == StatusPending:
		return s.Accept(ctx, p, id)
	case to == StatusOngoing && (current.Status == StatusAssigned || current.Status == StatusPending):
		return s.Start(ctx, p, id)
	case to == StatusUnderReview && current.Status == StatusOngoing:
		return s.Complete(ctx, p, id)
	}
	if current.CreatedBy != p.UserID {
		return Initiative{}, ErrStatusChangeDenied
	}
	if err := s.store.SetStatus(ctx, id, to); err != nil {
		return Initiative{}, err
	}
	return s.load(ctx, id)
}

// ForUser lists initiatives a user is assigned to or created. Looking at
// someone else needs initiative_view_all.
func (s *Service) ForUser(ctx context.Context, p access.Principal, userID string, statuses []string) ([]Initiative, error) {
	if userID != p.UserID && !p.Has(auth.PermInitiativeViewAll) {
		return nil, ErrViewOthersDenied
	}
	if _, err := s.store.UserRef(ctx, userID); err != nil {
		return nil, notFound(err, ErrUserNotFound)
	}
	list, _, err := s.store.List(ctx, ListFilter{InvolvedID: userID, Statuses: statuses})
	return list, err
}

// Complete hands an ONGOING initiative to review without a report.
func (s *Service) Complete(ctx context.Context, p access.Principal, id string) (Initiative, error) {
	current, err := s.move(ctx, p, id, "complete", StatusUnderReview, StatusOngoing)
	if err != nil {
		return Initiative{}, err
	}
	s.notify(ctx, notifications.Input{
		UserID:      current.CreatedBy,
		Type:        notifications.TypeInitiativeSubmitted,
		Title:       "Initiative ready for review",
		Message:     fmt.Sprintf("The initiative %q was marked complete", current.Title),
		ActionURL:   link(id),
		Data:        map[string]any{"initiative_id": id},
		TriggeredBy: p.UserID,
	})
	return s.load(ctx, id)
}

func (s *Service) Submit(ctx context.Context, p access.Principal, id, report string, documentIDs []string) (Submission, error) {
	current, err := s.load(ctx, id)
	if err != nil {
		return Submission{}, err
	}
	pending := false
	if current.Status == StatusOverdue {
		if pending, err = s.store.HasPendingExtension(ctx, id); err != nil {
			return Submission{}, err
		}
	}
	if err := CheckSubmit(current, p.UserID, pending); err != nil {
		return Submission{}, err
	}
	report = strings.TrimSpace(report)
	if report == "" {
		return Submission{}, ErrReportRequired
	}
	docs, err := s.validateDocuments(ctx, p.UserID, id, documentIDs)
	if err != nil {
		return Submission{}, err
	}

	sub, err := s.store.Submit(ctx, id, p.UserID, report, documentIDs)
	if err != nil {
		return Submission{}, fmt.Errorf("submit initiative: %w", err)
	}
	sub.Documents = docs

	s.notify(ctx, notifications.Input{
		UserID:      current.CreatedBy,
		Type:        notifications.TypeInitiativeSubmitted,
		Title:       "Initiative submitted",
		Message:     fmt.Sprintf("The initiative %q was submitted for review", current.Title),
		ActionURL:   link(id),
		Data:        map[string]any{"initiative_id": id, "submission_id": sub.ID},
		TriggeredBy: p.UserID,
	})
	return sub, nil
}

func (s *Service) Submissions(ctx context.Context, p access.Principal, id string) ([]Submission, error) {
	if _, err := s.Get(ctx, p, id); err != nil {
		return nil, err
	}
	return s.store.Submissions(ctx, id)
}

// LatestSubmission returns the newest submission with the initiative's
// documents, for the creator or the creator's supervisor.
func (s *Service) LatestSubmission(ctx context.Context, p access.Principal, id string) (Submission, error) {
	current, err := s.load(ctx, id)
	if err != nil {
		return Submission{}, err
	}
	ok, err := s.isReviewer(ctx, p, current)
	if err != nil {
		return Submission{}, err
	}
	if !ok {
		return Submission{}, ErrSubmissionDenied
	}
	subs, err := s.store.Submissions(ctx, id)
	if err != nil {
		return Submission{}, err
	}
	if len(subs) == 0 {
		return Submission{}, ErrSubmissionNotFound
	}
	docs, err := s.store.Documents(ctx, id)
	if err != nil {
		return Submission{}, err
	}
	latest := subs[0]
	latest.Documents = docs
	return latest, nil
}

func (s *Service) isReviewer(ctx context.Context, p access.Principal, in Initiative) (bool, error) {
	if in.CreatedBy == p.UserID {
		return true, nil
	}
	creator, err := s.store.UserRef(ctx, in.CreatedBy)
	if err != nil {
		return false, notFound(err, ErrUserNotFound)
	}
	return creator.SupervisorID != "" && creator.SupervisorID == p.UserID, nil
}

// Review scores an UNDER_REVIEW initiative. Approval is final; otherwise the
// work goes back to ONGOING with the feedback.
func (s *Service) Review(ctx context.Context, p access.Principal, id string, score int, approved bool, feedback string) (Initiative, error) {
	current, err := s.load(ctx, id)
	if err != nil {
		return Initiative{}, err
	}
	if current.Status != StatusUnderReview {
		return Initiative{}, apperr.Validation("Initiative must be UNDER_REVIEW to review (current status: %s)", current.Status)
	}
	ok, err := s.isReviewer(ctx, p, current)
	if err != nil {
		return Initiative{}, err
	}
	if !ok {
		return Initiative{}, ErrNotReviewer
	}
	if err := ValidateScore(score); err != nil {
		return Initiative{}, err
	}
	feedback = strings.TrimSpace(feedback)

	status := StatusApproved
	if !approved {
		status = StatusOngoing
	}
	if err := s.store.Review(ctx, id, score, feedback, status); err != nil {
		return Initiative{}, err
	}

	msg := notifications.Input{
		Type:        notifications.TypeInitiativeReviewed,
		Title:       "Initiative approved",
		Message:     fmt.Sprintf("The initiative %q was approved with a score of %d/10", current.Title, score),
		ActionURL:   link(id),
		Data:        map[string]any{"initiative_id": id, "score": score},
		TriggeredBy: p.UserID,
	}
	if !approved {
		msg.Type = notifications.TypeInitiativeRedo
		msg.Priority = notifications.PriorityHigh
		msg.Title = "Initiative needs rework"
		msg.Message = fmt.Sprintf("The initiative %q was sent back for rework", current.Title)
		if feedback != "" {
			msg.Message += ": " + feedback
		}
	}
	s.notifyMany(ctx, current.AssigneeIDs(), msg)
	return s.load(ctx, id)
}

func (s *Service) RequestExtension(ctx context.Context, p access.Principal, id string, newDueDate time.Time, reason string) (Extension, error) {
	current, err := s.load(ctx, id)
	if err != nil {
		return Extension{}, err
	}
	if err := CheckSubmitter(current, p.UserID, ErrNotTeamHeadExtension); err != nil {
		return Extension{}, err
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return Extension{}, ErrReasonRequired
	}
	if newDueDate.IsZero() {
		return Extension{}, ErrDueDateRequired
	}
	pending, err := s.store.HasPendingExtension(ctx, id)
	if err != nil {
		return Extension{}, err
	}
	if pending {
		return Extension{}, ErrExtensionPending
	}

	ext, err := s.store.CreateExtension(ctx, Extension{
		InitiativeID: id,
		NewDueDate:   newDueDate,
		Reason:       reason,
		RequestedBy:  p.UserID,
	})
	if err != nil {
		return Extension{}, err
	}
	s.notify(ctx, notifications.Input{
		UserID:      current.CreatedBy,
		Type:        notifications.TypeInitiativeExtensionRequest,
		Title:       "Deadline extension requested",
		Message:     fmt.Sprintf("An extension to %s was requested for %q: %s", newDueDate.Format("2006-01-02"), current.Title, reason),
		ActionURL:   link(id),
		Data:        map[string]any{"initiative_id": id, "extension_id": ext.ID},
		TriggeredBy: p.UserID,
	})
	return ext, nil
}

func (s *Service) ReviewExtension(ctx context.Context, p access.Principal, id, extensionID string, approved bool, reason string) (Extension, error) {
	ext, err := s.store.GetExtension(ctx, extensionID)
	if err != nil {
		return Extension{}, notFound(err, ErrExtensionNotFound)
	}
	if ext.InitiativeID != id {
		return Extension{}, ErrExtensionNotFound
	}
	current, err := s.load(ctx, id)
	if err != nil {
		return Extension{}, err
	}
	if current.CreatedBy != p.UserID {
		return Extension{}, ErrNotExtensionReviewer
	}
	if ext.Status != ExtensionPending {
		return Extension{}, ErrExtensionReviewed
	}

	ext, err = s.store.ReviewExtension(ctx, extensionID, p.UserID, approved)
	if err != nil {
		return Extension{}, err
	}
	outcome := "denied"
	if approved {
		outcome = "approved"
	}
	message := fmt.Sprintf("Your extension request for %q was %s", current.Title, outcome)
	if reason = strings.TrimSpace(reason); reason != "" {
		message += ": " + reason
	}
	s.notify(ctx, notifications.Input{
		UserID:      ext.RequestedBy,
		Type:        notifications.TypeInitiativeExtensionReviewed,
		Title:       "Extension request " + outcome,
		Message:     message,
		ActionURL:   link(id),
		Data:        map[string]any{"initiative_id": id, "extension_id": ext.ID, "approved": approved},
		TriggeredBy: p.UserID,
	})
	return ext, nil
}

// MarkOverdue flags past-due initiatives and notifies their assignees and
// creators. It returns how many initiatives changed.
func (s *Service) MarkOverdue(ctx context.Context, now time.Time) (int, error) {
	ids, err := s.store.MarkOverdue(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("mark overdue initiatives: %w", err)
	}
	for _, id := range ids {
		in, err := s.store.Get(ctx, id)
		if err != nil {
			slog.Warn("load overdue initiative failed", "initiativeId", id, "err", err)
			continue
		}
		s.notifyMany(ctx, append(in.AssigneeIDs(), in.CreatedBy), notifications.Input{
			Type:      notifications.TypeInitiativeOverdue,
			Priority:  notifications.PriorityUrgent,
			Title:     "Initiative overdue",
			Message:   fmt.Sprintf("The initiative %q passed its due date of %s", in.Title, in.DueDate.Format("2006-01-02")),
			ActionURL: link(id),
			Data:      map[string]any{"initiative_id": id},
		})
	}
	return len(ids), nil
}

// UploadDocument stores a file. With an empty initiativeID the document stays
// unattached until an initiative or submission claims it.
func (s *Service) UploadDocument(ctx context.Context, p access.Principal, initiativeID, fileName, contentType string, size int64, body io.Reader) (Document, error) {
	contentType = strings.ToLower(strings.TrimSpace(strings.Split(contentType, ";")[0]))
	if !slices.Contains(DocumentContentTypes, contentType) {
		return Document{}, ErrFileTypeNotAllowed
	}
	if initiativeID != "" {
		if _, err := s.Get(ctx, p, initiativeID); err != nil {
			return Document{}, err
		}
	}
	if strings.TrimSpace(fileName) == "" {
		fileName = "document"
	}

	key := storage.NewKey("initiative-documents/"+p.UserID, fileName)
	if err := s.Objects.Put(ctx, key, body, size, contentType); err != nil {
		return Document{}, fmt.Errorf("store initiative document: %w", err)
	}
	doc, err := s.store.CreateDocument(ctx, Document{
		InitiativeID: initiativeID,
		FileName:     fileName,
		ObjectKey:    key,
		ContentType:  contentType,
		SizeBytes:    size,
		UploadedBy:   p.UserID,
	})
	if err != nil {
		if delErr := s.Objects.Delete(ctx, key); delErr != nil {
			slog.Warn("cleanup initiative document failed", "key", key, "err", delErr)
		}
		return Document{}, err
	}
	return doc, nil
}

func (s *Service) Documents(ctx context.Context, p access.Principal, id string) ([]Document, error) {
	if _, err := s.Get(ctx, p, id); err != nil {
		return nil, err
	}
	return s.store.Documents(ctx, id)
}

// OpenDocument returns a document and its content. The caller must own the
// upload or be able to see the initiative it belongs to.
func (s *Service) OpenDocument(ctx context.Context, p access.Principal, documentID string) (Document, storage.Object, error) {
	doc, err := s.store.GetDocument(ctx, documentID)
	if err != nil {
		return Document{}, storage.Object{}, notFound(err, ErrDocumentNotFound)
	}
	if doc.UploadedBy != p.UserID {
		if doc.InitiativeID == "" {
			return Document{}, storage.Object{}, ErrDocumentAccessDenied
		}
		if _, err := s.Get(ctx, p, doc.InitiativeID); err != nil {
			if errors.Is(err, apperr.ErrForbidden) {
				return Document{}, storage.Object{}, ErrDocumentAccessDenied
			}
			return Document{}, storage.Object{}, err
		}
	}
	obj, err := s.Objects.Get(ctx, doc.ObjectKey)
	if errors.Is(err, storage.ErrObjectNotFound) {
		return Document{}, storage.Object{}, ErrFileNotFound
	}
	if err != nil {
		return Document{}, storage.Object{}, err
	}
	return doc, obj, nil
}
