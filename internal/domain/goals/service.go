// Package goals implements the goal hierarchy: creation, progress, the
// upward achievement cascade, approval and the quarterly freeze.
package goals

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"pms/internal/domain/access"
	"pms/internal/domain/apperr"
	"pms/internal/domain/auth"
	"pms/internal/domain/notifications"
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
	store  StoreAPI
	Access OrgAccess
	Notify Notifier
	now    func() time.Time
}

func NewService(store StoreAPI, orgs OrgAccess, notify Notifier) *Service {
	return &Service{store: store, Access: orgs, Notify: notify, now: time.Now}
}

func notFound(err, kind error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return kind
	}
	return err
}

func (s *Service) notify(ctx context.Context, in notifications.Input) {
	if s.Notify == nil || in.UserID == "" {
		return
	}
	s.Notify.Notify(ctx, in)
}

func goalLink(goalID string) string {
	return "/goals/" + goalID
}

// List returns goals visible to the caller. Holders of goal_view_all see
// everything; others see company goals, departmental goals of reachable orgs
// and individual goals they own, created or supervise.
func (s *Service) List(ctx context.Context, p access.Principal, filter ListFilter) ([]Goal, int, error) {
	if err := s.restrict(ctx, p, &filter); err != nil {
		return nil, 0, err
	}
	return s.store.ListGoals(ctx, filter)
}

func (s *Service) restrict(ctx context.Context, p access.Principal, filter *ListFilter) error {
	if p.Has(auth.PermGoalViewAll) {
		return nil
	}
	filter.ViewerID = p.UserID
	if p.Scope == access.ScopeGlobal {
		return nil
	}
	orgIDs, err := s.Access.AccessibleOrgs(ctx, p)
	if err != nil {
		return err
	}
	if orgIDs == nil {
		orgIDs = []string{}
	}
	filter.OrgIDs = orgIDs
	return nil
}

func (s *Service) Stats(ctx context.Context, p access.Principal) (Stats, error) {
	filter := ListFilter{}
	if err := s.restrict(ctx, p, &filter); err != nil {
		return Stats{}, err
	}
	goals, err := s.store.StatsGoals(ctx, filter)
	if err != nil {
		return Stats{}, err
	}
	today := s.now()
	return ComputeStats(goals, func(g Goal) bool {
		return g.EndDate != nil && g.EndDate.Before(today)
	}), nil
}

func (s *Service) SuperviseeGoals(ctx context.Context, p access.Principal) ([]Goal, error) {
	return s.store.SuperviseeGoals(ctx, p.UserID)
}

func (s *Service) Get(ctx context.Context, p access.Principal, goalID string) (Goal, error) {
	goal, err := s.store.GetGoal(ctx, goalID)
	if err != nil {
		return Goal{}, notFound(err, ErrGoalNotFound)
	}
	ok, err := s.canView(ctx, p, goal)
	if err != nil {
		return Goal{}, err
	}
	if !ok {
		return Goal{}, ErrGoalAccessDenied
	}
	return goal, nil
}

func (s *Service) canView(ctx context.Context, p access.Principal, goal Goal) (bool, error) {
	if p.Has(auth.PermGoalViewAll) || goal.Scope == ScopeCompanyWide {
		return true, nil
	}
	if goal.OwnerID == p.UserID || goal.CreatedBy == p.UserID {
		return true, nil
	}
	if goal.Scope == ScopeDepartmental {
		return s.Access.CanAccessOrg(ctx, p, goal.OrganizationID)
	}
	if goal.OwnerID == "" {
		return false, nil
	}
	owner, err := s.store.UserRef(ctx, goal.OwnerID)
	if err != nil {
		return false, notFound(err, ErrUserNotFound)
	}
	return owner.SupervisorID == p.UserID, nil
}

func createPermission(in CreateInput) string {
	switch in.Scope {
	case ScopeDepartmental:
		return auth.PermGoalCreateDepartmental
	case ScopeCompanyWide:
		if in.Type == TypeQuarterly {
			return auth.PermGoalCreateQuarterly
		}
		return auth.PermGoalCreateYearly
	}
	return ""
}

func (s *Service) validateCreate(ctx context.Context, p access.Principal, in *CreateInput) error {
	in.Title = strings.TrimSpace(in.Title)
	in.Scope = strings.ToUpper(strings.TrimSpace(in.Scope))
	in.Type = strings.ToUpper(strings.TrimSpace(in.Type))
	in.Quarter = strings.ToUpper(strings.TrimSpace(in.Quarter))
	if in.Title == "" {
		return ErrTitleRequired
	}
	if in.Scope == "" {
		in.Scope = ScopeIndividual
	}
	if !validScope(in.Scope) {
		return ErrInvalidScope
	}
	if in.Type == "" {
		in.Type = TypeQuarterly
		if in.Scope != ScopeIndividual && in.Quarter == "" {
			in.Type = TypeYearly
		}
	}
	if !validType(in.Type) {
		return ErrInvalidType
	}
	if perm := createPermission(*in); perm != "" && !p.Has(perm) {
		return apperr.Forbidden("Missing permission: %s", perm)
	}
	if in.Quarter != "" && !validQuarter(in.Quarter) {
		return ErrInvalidQuarter
	}

	if in.ParentGoalID != "" {
		parent, err := s.store.GetGoal(ctx, in.ParentGoalID)
		if err != nil {
			return notFound(err, ErrParentNotFound)
		}
		if !ValidParent(in.Scope, parent.Scope) {
			return ErrInvalidRelationship
		}
	}

	switch in.Scope {
	case ScopeIndividual:
		if in.Quarter == "" {
			return ErrQuarterRequired
		}
		if in.Year == nil {
			return ErrYearRequired
		}
	case ScopeDepartmental:
		if in.OrganizationID == "" {
			return ErrOrgRequired
		}
		ok, err := s.Access.CanAccessOrg(ctx, p, in.OrganizationID)
		if err != nil {
			return err
		}
		if !ok {
			return ErrOrgAccessDenied
		}
	}
	return nil
}

// Create adds a goal. Every scope starts ACTIVE; an individual goal notifies
// the owner's supervisor.
func (s *Service) Create(ctx context.Context, p access.Principal, in CreateInput) (Goal, error) {
	if err := s.validateCreate(ctx, p, &in); err != nil {
		return Goal{}, err
	}
	if in.OwnerID == "" {
		in.OwnerID = p.UserID
	}
	if in.Scope == ScopeIndividual && in.OwnerID != p.UserID {
		return Goal{}, ErrIndividualOwner
	}

	id, err := s.store.CreateGoal(ctx, newGoal(in, p.UserID))
	if err != nil {
		return Goal{}, fmt.Errorf("create goal: %w", err)
	}
	goal, err := s.store.GetGoal(ctx, id)
	if err != nil {
		return Goal{}, err
	}

	if goal.Scope == ScopeIndividual {
		creator, err := s.store.UserRef(ctx, p.UserID)
		if err == nil && creator.SupervisorID != "" {
			s.notify(ctx, notifications.Input{
				UserID:      creator.SupervisorID,
				Type:        notifications.TypeGoalCreated,
				Title:       "New goal created",
				Message:     fmt.Sprintf("%s created the goal %q for %s %d", creator.Name, goal.Title, goal.Quarter, derefInt(goal.Year)),
				ActionURL:   goalLink(goal.ID),
				Data:        map[string]any{"goal_id": goal.ID},
				TriggeredBy: p.UserID,
			})
		}
	}
	return goal, nil
}

// CreateForSupervisee creates an individual goal owned by a direct report.
func (s *Service) CreateForSupervisee(ctx context.Context, p access.Principal, superviseeID string, in CreateInput) (Goal, error) {
	supervisee, err := s.store.UserRef(ctx, superviseeID)
	if err != nil {
		return Goal{}, notFound(err, ErrSuperviseeNotFound)
	}
	if supervisee.SupervisorID != p.UserID {
		return Goal{}, ErrNotSupervisor
	}
	if in.Scope != "" && strings.ToUpper(in.Scope) != ScopeIndividual {
		return Goal{}, ErrSuperviseeScope
	}
	in.Scope = ScopeIndividual
	if err := s.validateCreate(ctx, p, &in); err != nil {
		return Goal{}, err
	}
	in.OwnerID = superviseeID

	id, err := s.store.CreateGoal(ctx, newGoal(in, p.UserID))
	if err != nil {
		return Goal{}, fmt.Errorf("create goal: %w", err)
	}
	if err := s.store.CreateAssignment(ctx, id, p.UserID, superviseeID, StatusActive); err != nil {
		return Goal{}, fmt.Errorf("record goal assignment: %w", err)
	}
	goal, err := s.store.GetGoal(ctx, id)
	if err != nil {
		return Goal{}, err
	}

	s.notify(ctx, notifications.Input{
		UserID:      superviseeID,
		Type:        notifications.TypeGoalAssigned,
		Priority:    notifications.PriorityHigh,
		Title:       "New goal assigned",
		Message:     fmt.Sprintf("You have been assigned the goal %q for %s %d", goal.Title, goal.Quarter, derefInt(goal.Year)),
		ActionURL:   goalLink(goal.ID),
		Data:        map[string]any{"goal_id": goal.ID},
		TriggeredBy: p.UserID,
	})
	return goal, nil
}

func newGoal(in CreateInput, creatorID string) Goal {
	return Goal{
		Title:          in.Title,
		Description:    in.Description,
		Scope:          in.Scope,
		Type:           in.Type,
		Status:         StatusActive,
		Quarter:        in.Quarter,
		Year:           in.Year,
		StartDate:      in.StartDate,
		EndDate:        in.EndDate,
		OrganizationID: in.OrganizationID,
		ParentGoalID:   in.ParentGoalID,
		CreatedBy:      creatorID,
		OwnerID:        in.OwnerID,
	}
}

func (s *Service) Update(ctx context.Context, p access.Principal, goalID string, in UpdateInput) (Goal, error) {
	goal, err := s.store.GetGoal(ctx, goalID)
	if err != nil {
		return Goal{}, notFound(err, ErrGoalNotFound)
	}
	if !p.Has(auth.PermGoalEdit) && goal.CreatedBy != p.UserID {
		return Goal{}, ErrGoalModifyDenied
	}
	if goal.Frozen {
		return Goal{}, ErrGoalFrozen
	}
	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" {
			return Goal{}, ErrTitleRequired
		}
		in.Title = &title
	}
	if err := s.store.UpdateGoal(ctx, goalID, in); err != nil {
		return Goal{}, err
	}
	return s.store.GetGoal(ctx, goalID)
}

// UpdateProgress records a manual percentage change on a leaf goal.
func (s *Service) UpdateProgress(ctx context.Context, p access.Principal, goalID string, percentage int, report string) (Goal, error) {
	admin := p.Has(auth.PermSystemAdmin)
	if !admin && !p.Has(auth.PermGoalProgressUpdate) {
		return Goal{}, ErrInsufficientPermission
	}
	goal, err := s.store.GetGoal(ctx, goalID)
	if err != nil {
		return Goal{}, notFound(err, ErrGoalNotFound)
	}
	if !admin && goal.CreatedBy != p.UserID && goal.OwnerID != p.UserID {
		return Goal{}, ErrProgressDenied
	}
	if err := ValidateProgress(goal, percentage, report, goal.ChildCount); err != nil {
		return Goal{}, err
	}
	if err := s.store.SetProgress(ctx, goalID, goal.ProgressPercentage, percentage, strings.TrimSpace(report), p.UserID); err != nil {
		return Goal{}, err
	}
	return s.store.GetGoal(ctx, goalID)
}

func (s *Service) ProgressReports(ctx context.Context, p access.Principal, goalID string) ([]ProgressReport, error) {
	if _, err := s.Get(ctx, p, goalID); err != nil {
		return nil, err
	}
	return s.store.ProgressReports(ctx, goalID)
}

// ChangeStatus moves a goal to ACTIVE, ACHIEVED or DISCARDED. Achieving a
// goal runs the cascade on its ancestors.
func (s *Service) ChangeStatus(ctx context.Context, p access.Principal, goalID, status, reason string) (Goal, error) {
	if !p.Has(auth.PermGoalStatusChange) {
		return Goal{}, ErrInsufficientPermission
	}
	goal, err := s.store.GetGoal(ctx, goalID)
	if err != nil {
		return Goal{}, notFound(err, ErrGoalNotFound)
	}
	switch strings.ToUpper(status) {
	case StatusDiscarded:
		if strings.TrimSpace(reason) == "" {
			reason = "Manual discard"
		}
		return s.Discard(ctx, p, goalID, reason)
	case StatusAchieved:
		if err := s.store.MarkAchieved(ctx, goalID); err != nil {
			return Goal{}, err
		}
		if goal.OwnerID != "" && goal.OwnerID != p.UserID {
			s.notify(ctx, notifications.Input{
				UserID:      goal.OwnerID,
				Type:        notifications.TypeGoalAchieved,
				Title:       "Goal achieved",
				Message:     fmt.Sprintf("The goal %q was marked as achieved", goal.Title),
				ActionURL:   goalLink(goal.ID),
				TriggeredBy: p.UserID,
			})
		}
		if goal.ParentGoalID != "" {
			if _, err := s.CheckAutoAchievement(ctx, goal.ParentGoalID); err != nil {
				return Goal{}, err
			}
		}
	case StatusActive:
		if err := s.store.SetStatus(ctx, goalID, StatusActive); err != nil {
			return Goal{}, err
		}
	default:
		return Goal{}, ErrInvalidStatus
	}
	return s.store.GetGoal(ctx, goalID)
}

// CheckAutoAchievement walks upward from parentID, achieving each ancestor
// whose children are all ACHIEVED. It returns the ids it achieved.
func (s *Service) CheckAutoAchievement(ctx context.Context, parentID string) ([]string, error) {
	var achieved []string
	visited := map[string]struct{}{}
	current := parentID
	for depth := 0; current != ""; depth++ {
		if _, seen := visited[current]; seen || depth > maxDepth {
			return achieved, ErrHierarchyCorrupt
		}
		visited[current] = struct{}{}

		goal, err := s.store.GetGoal(ctx, current)
		if err != nil {
			return achieved, notFound(err, ErrGoalNotFound)
		}
		if goal.Status == StatusAchieved {
			return achieved, nil
		}
		statuses, err := s.store.ChildStatuses(ctx, current)
		if err != nil {
			return achieved, err
		}
		if !AllAchieved(statuses) {
			return achieved, nil
		}
		if err := s.store.MarkAchieved(ctx, current); err != nil {
			return achieved, err
		}
		achieved = append(achieved, current)
		if goal.OwnerID != "" {
			s.notify(ctx, notifications.Input{
				UserID:    goal.OwnerID,
				Type:      notifications.TypeGoalAchieved,
				Title:     "Goal achieved",
				Message:   fmt.Sprintf("All child goals of %q are achieved, so it has been marked as achieved", goal.Title),
				ActionURL: goalLink(goal.ID),
			})
		}
		current = goal.ParentGoalID
	}
	return achieved, nil
}

// Discard retires a goal. Holders of goal_status_change may discard any goal;
// otherwise only the creator or owner may. Frozen goals stay as they are.
func (s *Service) Discard(ctx context.Context, p access.Principal, goalID, reason string) (Goal, error) {
	goal, err := s.store.GetGoal(ctx, goalID)
	if err != nil {
		return Goal{}, notFound(err, ErrGoalNotFound)
	}
	if !p.Has(auth.PermGoalStatusChange) && goal.CreatedBy != p.UserID && goal.OwnerID != p.UserID {
		return Goal{}, ErrGoalModifyDenied
	}
	if goal.Frozen {
		return Goal{}, ErrGoalFrozen
	}
	if goal.Status == StatusAchieved {
		return Goal{}, ErrAlreadyAchieved
	}
	if err := s.store.MarkDiscarded(ctx, goalID, strings.TrimSpace(reason)); err != nil {
		return Goal{}, err
	}
	return s.store.GetGoal(ctx, goalID)
}

func (s *Service) Children(ctx context.Context, p access.Principal, goalID string) ([]Goal, error) {
	if _, err := s.Get(ctx, p, goalID); err != nil {
		return nil, err
	}
	return s.store.Children(ctx, goalID)
}

func (s *Service) Hierarchy(ctx context.Context, p access.Principal, goalID string) (*Node, error) {
	if _, err := s.Get(ctx, p, goalID); err != nil {
		return nil, err
	}
	goals, err := s.store.Subtree(ctx, goalID)
	if err != nil {
		return nil, err
	}
	return BuildHierarchy(goalID, goals)
}

// Approve decides on a pending individual goal. The approver check runs
// before any state check.
func (s *Service) Approve(ctx context.Context, p access.Principal, goalID string, approved bool, reason string) (Goal, error) {
	goal, err := s.store.GetGoal(ctx, goalID)
	if err != nil {
		return Goal{}, notFound(err, ErrGoalNotFound)
	}
	var owner UserRef
	if goal.OwnerID != "" {
		owner, err = s.store.UserRef(ctx, goal.OwnerID)
		if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return Goal{}, err
		}
	}
	if owner.SupervisorID != p.UserID && !p.Has(auth.PermGoalApprove) {
		return Goal{}, ErrNotApprover
	}
	if goal.Scope != ScopeIndividual {
		return Goal{}, ErrApprovalScope
	}
	if goal.Status != StatusPendingApproval {
		return Goal{}, apperr.Validation("Goal is not pending approval (current status: %s)", goal.Status)
	}
	if goal.Frozen {
		return Goal{}, ErrGoalFrozen
	}
	reason = strings.TrimSpace(reason)
	status := StatusActive
	if !approved {
		if reason == "" {
			return Goal{}, ErrRejectionReason
		}
		status = StatusRejected
	} else {
		reason = ""
	}
	if err := s.store.SetApproval(ctx, goalID, status, p.UserID, reason); err != nil {
		return Goal{}, err
	}

	in := notifications.Input{
		UserID:      goal.OwnerID,
		Type:        notifications.TypeGoalApproved,
		Title:       "Goal approved",
		Message:     fmt.Sprintf("Your goal %q has been approved", goal.Title),
		ActionURL:   goalLink(goal.ID),
		TriggeredBy: p.UserID,
	}
	if !approved {
		in.Type = notifications.TypeGoalRejected
		in.Priority = notifications.PriorityHigh
		in.Title = "Goal rejected"
		in.Message = fmt.Sprintf("Your goal %q was rejected: %s", goal.Title, reason)
	}
	s.notify(ctx, in)
	return s.store.GetGoal(ctx, goalID)
}

// Respond lets the owner accept or decline a goal awaiting their answer.
func (s *Service) Respond(ctx context.Context, p access.Principal, goalID string, accepted bool, message string) (Goal, error) {
	goal, err := s.store.GetGoal(ctx, goalID)
	if err != nil {
		return Goal{}, notFound(err, ErrGoalNotFound)
	}
	if goal.OwnerID != p.UserID {
		return Goal{}, ErrNotOwnerRespond
	}
	if goal.Status != StatusPendingApproval {
		return Goal{}, apperr.Validation("Goal is not pending approval (current status: %s)", goal.Status)
	}
	if goal.Frozen {
		return Goal{}, ErrGoalFrozen
	}
	if _, err := s.store.GetAssignment(ctx, goalID, p.UserID); err != nil {
		return Goal{}, notFound(err, ErrAssignmentNotFound)
	}

	message = strings.TrimSpace(message)
	status := StatusActive
	if accepted {
		err = s.store.SetApproval(ctx, goalID, StatusActive, p.UserID, "")
	} else {
		status = StatusRejected
		reason := message
		if reason == "" {
			reason = "Declined by supervisee"
		}
		err = s.store.SetApproval(ctx, goalID, StatusRejected, p.UserID, reason)
	}
	if err != nil {
		return Goal{}, err
	}
	if err := s.store.RespondAssignment(ctx, goalID, p.UserID, status, message); err != nil {
		return Goal{}, err
	}

	in := notifications.Input{
		UserID:      goal.CreatedBy,
		Type:        notifications.TypeGoalAccepted,
		Title:       "Goal accepted",
		Message:     fmt.Sprintf("%s accepted the goal %q", goal.OwnerName, goal.Title),
		ActionURL:   goalLink(goal.ID),
		TriggeredBy: p.UserID,
	}
	if !accepted {
		in.Type = notifications.TypeGoalDeclined
		in.Title = "Goal declined"
		in.Message = fmt.Sprintf("%s declined the goal %q", goal.OwnerName, goal.Title)
		if message != "" {
			in.Message += ": " + message
		}
	}
	if goal.CreatedBy != p.UserID {
		s.notify(ctx, in)
	}
	return s.store.GetGoal(ctx, goalID)
}

// RequestChange sends an owned goal back for approval.
func (s *Service) RequestChange(ctx context.Context, p access.Principal, goalID, reason string) (Goal, error) {
	goal, err := s.store.GetGoal(ctx, goalID)
	if err != nil {
		return Goal{}, notFound(err, ErrGoalNotFound)
	}
	if goal.OwnerID != p.UserID {
		return Goal{}, ErrNotOwnerChange
	}
	if goal.Frozen {
		return Goal{}, ErrGoalFrozen
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return Goal{}, ErrChangeReason
	}
	if err := s.store.RequestChange(ctx, goalID, "Change requested: "+reason); err != nil {
		return Goal{}, err
	}

	recipient := goal.CreatedBy
	if recipient == p.UserID {
		if owner, err := s.store.UserRef(ctx, p.UserID); err == nil {
			recipient = owner.SupervisorID
		}
	}
	if recipient != p.UserID {
		s.notify(ctx, notifications.Input{
			UserID:      recipient,
			Type:        notifications.TypeGoalChangeRequested,
			Title:       "Goal change requested",
			Message:     fmt.Sprintf("%s requested a change to %q: %s", goal.OwnerName, goal.Title, reason),
			ActionURL:   goalLink(goal.ID),
			TriggeredBy: p.UserID,
		})
	}
	return s.store.GetGoal(ctx, goalID)
}

func (s *Service) Delete(ctx context.Context, p access.Principal, goalID string) error {
	goal, err := s.store.GetGoal(ctx, goalID)
	if err != nil {
		return notFound(err, ErrGoalNotFound)
	}
	if goal.Frozen {
		return ErrGoalFrozen
	}
	if goal.CreatedBy != p.UserID && goal.OwnerID != p.UserID && !p.Has(auth.PermGoalEdit) {
		return ErrDeleteDenied
	}
	if goal.ChildCount > 0 {
		return ErrDeleteWithChildren
	}
	return s.store.DeleteGoal(ctx, goalID)
}

// Freeze locks the individual goals of a quarter. The log row is written even
// when nothing matched.
func (s *Service) Freeze(ctx context.Context, p access.Principal, in FreezeInput) (FreezeResult, error) {
	if !p.Has(auth.PermGoalFreeze) {
		return FreezeResult{}, ErrFreezeDenied
	}
	in.Quarter = strings.ToUpper(strings.TrimSpace(in.Quarter))
	if !validQuarter(in.Quarter) {
		return FreezeResult{}, ErrInvalidQuarter
	}
	if in.Year == 0 {
		return FreezeResult{}, ErrYearRequired
	}
	owners, count, err := s.store.Freeze(ctx, in, p.UserID)
	if err != nil {
		return FreezeResult{}, fmt.Errorf("freeze goals: %w", err)
	}
	if count == 0 {
		return FreezeResult{Message: fmt.Sprintf("No unfrozen individual goals found for %s %d", in.Quarter, in.Year)}, nil
	}
	if s.Notify != nil {
		s.Notify.NotifyMany(ctx, owners, notifications.Input{
			Type:        notifications.TypeGoalFrozen,
			Priority:    notifications.PriorityHigh,
			Title:       "Goals frozen",
			Message:     fmt.Sprintf("Your goals for %s %d have been frozen and can no longer be edited", in.Quarter, in.Year),
			ActionURL:   "/goals",
			TriggeredBy: p.UserID,
		})
	}
	return FreezeResult{
		AffectedCount: count,
		Message:       fmt.Sprintf("Successfully frozen %d goal(s) for %s %d", count, in.Quarter, in.Year),
	}, nil
}

func (s *Service) Unfreeze(ctx context.Context, p access.Principal, in UnfreezeInput) (FreezeResult, error) {
	if !p.Has(auth.PermGoalFreeze) {
		return FreezeResult{}, apperr.Forbidden("You do not have permission to unfreeze goals")
	}
	in.Quarter = strings.ToUpper(strings.TrimSpace(in.Quarter))
	in.EmergencyReason = strings.TrimSpace(in.EmergencyReason)
	if !validQuarter(in.Quarter) {
		return FreezeResult{}, ErrInvalidQuarter
	}
	if in.Year == 0 {
		return FreezeResult{}, ErrYearRequired
	}
	if in.IsEmergencyOverride && in.EmergencyReason == "" {
		return FreezeResult{}, ErrEmergencyReason
	}
	owners, count, err := s.store.Unfreeze(ctx, in, p.UserID)
	if err != nil {
		return FreezeResult{}, fmt.Errorf("unfreeze goals: %w", err)
	}
	if count == 0 {
		return FreezeResult{Message: fmt.Sprintf("No frozen individual goals found for %s %d", in.Quarter, in.Year)}, nil
	}
	suffix := ""
	if in.IsEmergencyOverride {
		suffix = " (Emergency Override)"
	}
	if s.Notify != nil {
		s.Notify.NotifyMany(ctx, owners, notifications.Input{
			Type:        notifications.TypeGoalUnfrozen,
			Title:       "Goals unfrozen",
			Message:     fmt.Sprintf("Your goals for %s %d are editable again%s", in.Quarter, in.Year, suffix),
			ActionURL:   "/goals",
			TriggeredBy: p.UserID,
		})
	}
	return FreezeResult{
		AffectedCount: count,
		Message:       fmt.Sprintf("Successfully unfrozen %d goal(s) for %s %d%s", count, in.Quarter, in.Year, suffix),
	}, nil
}

func (s *Service) FreezeLogs(ctx context.Context, quarter string, year int) ([]FreezeLog, error) {
	return s.store.FreezeLogs(ctx, strings.ToUpper(strings.TrimSpace(quarter)), year)
}

// ClearAll deletes every goal. It backs the maintenance CLI.
func (s *Service) ClearAll(ctx context.Context) (int64, error) {
	return s.store.ClearAll(ctx)
}

func derefInt(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}
