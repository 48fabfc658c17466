// Package reviews runs review cycles: trait and question catalogues, cycle
// activation with generated assignments, response collection and the
// weighted per-trait scoring.
package reviews

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"slices"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"pms/internal/domain/access"
	"pms/internal/domain/auth"
	"pms/internal/domain/notifications"
)

type Notifier interface {
	Notify(ctx context.Context, in notifications.Input)
	NotifyMany(ctx context.Context, userIDs []string, in notifications.Input)
}

type Service struct {
	store     StoreAPI
	Notify    Notifier
	PeerCount int
	now       func() time.Time
	newRand   func() *rand.Rand
}

func NewService(store StoreAPI, notify Notifier, peerCount int) *Service {
	return &Service{
		store:     store,
		Notify:    notify,
		PeerCount: peerCount,
		now:       time.Now,
		newRand: func() *rand.Rand {
			return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
		},
	}
}

func notFound(err, kind error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return kind
	}
	return err
}

func (s *Service) ListCycles(ctx context.Context, p access.Principal, status string) ([]Cycle, error) {
	status = strings.ToUpper(strings.TrimSpace(status))
	if status != "" && !slices.Contains(CycleStatuses, status) {
		return nil, ErrInvalidStatus
	}
	filter := CycleFilter{Status: status}
	if !p.Has(auth.PermReviewViewAll) && !p.Has(auth.PermReviewCreateCycle) {
		filter.ViewerID = p.UserID
	}
	return s.store.ListCycles(ctx, filter)
}

func (s *Service) GetCycle(ctx context.Context, cycleID string) (Cycle, error) {
	cycle, err := s.store.GetCycle(ctx, cycleID)
	if err != nil {
		return Cycle{}, notFound(err, ErrCycleNotFound)
	}
	return cycle, nil
}

func validateComponents(c *Components) error {
	if c != nil && c.PeerCount != nil && *c.PeerCount < 0 {
		return ErrInvalidPeerCount
	}
	return nil
}

func (s *Service) CreateCycle(ctx context.Context, p access.Principal, in CycleInput) (Cycle, error) {
	if !p.Has(auth.PermReviewCreateCycle) {
		return Cycle{}, ErrCreateDenied
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return Cycle{}, ErrNameRequired
	}
	if in.StartDate == nil || in.EndDate == nil {
		return Cycle{}, ErrDatesRequired
	}
	if in.EndDate.Before(*in.StartDate) {
		return Cycle{}, ErrInvalidDates
	}
	if err := validateComponents(in.Components); err != nil {
		return Cycle{}, err
	}
	cycle := Cycle{
		Name:      name,
		Type:      strings.ToLower(strings.TrimSpace(in.Type)),
		Period:    strings.TrimSpace(in.Period),
		StartDate: *in.StartDate,
		EndDate:   *in.EndDate,
		Status:    CycleDraft,
		CreatedBy: p.UserID,
	}
	if cycle.Type == "" {
		cycle.Type = "quarterly"
	}
	if in.Components != nil {
		cycle.Components = *in.Components
	}
	id, err := s.store.CreateCycle(ctx, cycle, uniqueStrings(in.TraitIDs))
	if err != nil {
		return Cycle{}, err
	}
	return s.GetCycle(ctx, id)
}

func (s *Service) editableCycle(ctx context.Context, p access.Principal, cycleID string) (Cycle, error) {
	cycle, err := s.GetCycle(ctx, cycleID)
	if err != nil {
		return Cycle{}, err
	}
	if cycle.CreatedBy != p.UserID && !p.Has(auth.PermReviewEditCycle) {
		return Cycle{}, ErrUpdateDenied
	}
	if cycle.Status != CycleDraft {
		return Cycle{}, ErrNotDraft
	}
	return cycle, nil
}

// UpdateCycle edits a draft cycle. Its creator or a holder of
// review_edit_cycle may edit it.
func (s *Service) UpdateCycle(ctx context.Context, p access.Principal, cycleID string, in CycleUpdate) (Cycle, error) {
	cycle, err := s.editableCycle(ctx, p, cycleID)
	if err != nil {
		return Cycle{}, err
	}
	if in.Name != nil {
		trimmed := strings.TrimSpace(*in.Name)
		if trimmed == "" {
			return Cycle{}, ErrNameRequired
		}
		in.Name = &trimmed
	}
	start, end := cycle.StartDate, cycle.EndDate
	if in.StartDate != nil {
		start = *in.StartDate
	}
	if in.EndDate != nil {
		end = *in.EndDate
	}
	if end.Before(start) {
		return Cycle{}, ErrInvalidDates
	}
	if err := validateComponents(in.Components); err != nil {
		return Cycle{}, err
	}
	if err := s.store.UpdateCycle(ctx, cycleID, in); err != nil {
		return Cycle{}, err
	}
	return s.GetCycle(ctx, cycleID)
}

func (s *Service) SetCycleTraits(ctx context.Context, p access.Principal, cycleID string, traitIDs []string) (Cycle, error) {
	if _, err := s.editableCycle(ctx, p, cycleID); err != nil {
		return Cycle{}, err
	}
	if err := s.store.SetCycleTraits(ctx, cycleID, uniqueStrings(traitIDs)); err != nil {
		return Cycle{}, err
	}
	return s.GetCycle(ctx, cycleID)
}

func (s *Service) DeleteCycle(ctx context.Context, p access.Principal, cycleID string) error {
	if !p.Has(auth.PermReviewManageCycle) {
		return ErrManageDenied
	}
	cycle, err := s.GetCycle(ctx, cycleID)
	if err != nil {
		return err
	}
	if cycle.Status != CycleDraft {
		return ErrNotDraft
	}
	return s.store.DeleteCycle(ctx, cycleID)
}

func (s *Service) CancelCycle(ctx context.Context, p access.Principal, cycleID string) (Cycle, error) {
	if !p.Has(auth.PermReviewManageCycle) {
		return Cycle{}, ErrManageDenied
	}
	cycle, err := s.GetCycle(ctx, cycleID)
	if err != nil {
		return Cycle{}, err
	}
	switch cycle.Status {
	case CycleDraft, CycleScheduled, CycleActive:
	default:
		return Cycle{}, ErrCannotCancel
	}
	if err := s.store.SetCycleStatus(ctx, cycleID, CycleCancelled); err != nil {
		return Cycle{}, err
	}
	cycle.Status = CycleCancelled
	return cycle, nil
}

// Activate schedules a draft cycle and generates its assignments from the
// current active users. The cycle opens on its start date.
func (s *Service) Activate(ctx context.Context, p access.Principal, cycleID string) (Cycle, error) {
	if !p.Has(auth.PermReviewCreateCycle) {
		return Cycle{}, ErrActivateDenied
	}
	cycle, err := s.GetCycle(ctx, cycleID)
	if err != nil {
		return Cycle{}, err
	}
	if cycle.Status != CycleDraft {
		return Cycle{}, ErrNotDraft
	}
	participants, err := s.store.ActiveParticipants(ctx)
	if err != nil {
		return Cycle{}, err
	}
	plan := PlanAssignments(participants, PeerCount(cycle.Components, s.PeerCount), s.newRand())
	count, err := s.store.ActivateCycle(ctx, cycleID, plan)
	if err != nil {
		return Cycle{}, notFound(err, ErrCycleNotFound)
	}
	cycle.Status = CycleScheduled
	cycle.ParticipantsCount = count
	cycle.CompletionRate = 0

	if s.Notify != nil {
		s.Notify.NotifyMany(ctx, Reviewers(plan), notifications.Input{
			Type:        notifications.TypeReviewAssigned,
			Priority:    notifications.PriorityMedium,
			Title:       "Review assignments ready",
			Message:     fmt.Sprintf("You have review assignments in %s, opening %s.", cycle.Name, cycle.StartDate.Format("2006-01-02")),
			ActionURL:   "/reviews/assignments",
			Data:        map[string]any{"cycle_id": cycleID},
			TriggeredBy: p.UserID,
		})
	}
	slog.Info("review cycle scheduled", "cycleId", cycleID, "participants", count, "assignments", len(plan))
	return cycle, nil
}

// ActivateScheduledCycles moves cycles along their calendar: SCHEDULED opens
// on its start date and ACTIVE closes after its end date.
func (s *Service) ActivateScheduledCycles(ctx context.Context, today time.Time) (int, int, error) {
	activated, completed, err := s.store.ActivateScheduledCycles(ctx, today)
	if err != nil {
		return 0, 0, err
	}
	if len(activated) > 0 || len(completed) > 0 {
		slog.Info("review cycles advanced", "activated", len(activated), "completed", len(completed))
	}
	return len(activated), len(completed), nil
}

func (s *Service) ListTraits(ctx context.Context, p access.Principal, includeInactive bool) ([]Trait, error) {
	if includeInactive && !p.Has(auth.PermReviewManageCycle) {
		return nil, ErrTraitDenied
	}
	return s.store.ListTraits(ctx, includeInactive)
}

func (s *Service) GetTrait(ctx context.Context, traitID string) (Trait, error) {
	trait, err := s.store.GetTrait(ctx, traitID)
	if err != nil {
		return Trait{}, notFound(err, ErrTraitNotFound)
	}
	return trait, nil
}

func (s *Service) CreateTrait(ctx context.Context, p access.Principal, in TraitInput) (Trait, error) {
	if !p.Has(auth.PermReviewManageCycle) {
		return Trait{}, ErrTraitDenied
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return Trait{}, ErrNameRequired
	}
	scope := strings.ToLower(strings.TrimSpace(in.ScopeType))
	if scope == "" {
		scope = TraitScopeGlobal
	}
	if !slices.Contains(TraitScopes, scope) {
		return Trait{}, ErrInvalidScopeType
	}
	if scope != TraitScopeGlobal && in.OrganizationID == "" {
		return Trait{}, ErrScopedTraitOrg
	}
	if scope == TraitScopeGlobal && in.OrganizationID != "" {
		return Trait{}, ErrGlobalTraitOrg
	}
	if in.OrganizationID != "" {
		exists, err := s.store.OrgExists(ctx, in.OrganizationID)
		if err != nil {
			return Trait{}, err
		}
		if !exists {
			return Trait{}, ErrOrgNotFound
		}
	}
	taken, err := s.store.TraitNameTaken(ctx, name, scope, in.OrganizationID)
	if err != nil {
		return Trait{}, err
	}
	if taken {
		return Trait{}, ErrTraitNameTaken
	}
	trait := Trait{
		Name:           name,
		Description:    strings.TrimSpace(in.Description),
		ScopeType:      scope,
		OrganizationID: in.OrganizationID,
	}
	if in.DisplayOrder != nil {
		trait.DisplayOrder = *in.DisplayOrder
	}
	id, err := s.store.CreateTrait(ctx, trait)
	if err != nil {
		return Trait{}, err
	}
	return s.GetTrait(ctx, id)
}

func (s *Service) UpdateTrait(ctx context.Context, p access.Principal, traitID string, in TraitUpdate) (Trait, error) {
	if !p.Has(auth.PermReviewManageCycle) {
		return Trait{}, ErrTraitDenied
	}
	trait, err := s.GetTrait(ctx, traitID)
	if err != nil {
		return Trait{}, err
	}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return Trait{}, ErrNameRequired
		}
		if !strings.EqualFold(name, trait.Name) {
			taken, err := s.store.TraitNameTaken(ctx, name, trait.ScopeType, trait.OrganizationID)
			if err != nil {
				return Trait{}, err
			}
			if taken {
				return Trait{}, ErrTraitNameTaken
			}
		}
		in.Name = &name
	}
	if err := s.store.UpdateTrait(ctx, traitID, in); err != nil {
		return Trait{}, err
	}
	return s.GetTrait(ctx, traitID)
}

// DeleteTrait removes a trait that no open cycle uses.
func (s *Service) DeleteTrait(ctx context.Context, p access.Principal, traitID string) error {
	if !p.Has(auth.PermReviewManageCycle) {
		return ErrTraitDenied
	}
	if _, err := s.GetTrait(ctx, traitID); err != nil {
		return err
	}
	open, err := s.store.TraitOpenCycles(ctx, traitID)
	if err != nil {
		return err
	}
	if open > 0 {
		return errTraitInUse(open)
	}
	return s.store.DeleteTrait(ctx, traitID)
}

func (s *Service) TraitQuestions(ctx context.Context, traitID string) ([]Question, error) {
	if _, err := s.GetTrait(ctx, traitID); err != nil {
		return nil, err
	}
	return s.store.Questions(ctx, []string{traitID})
}

func boolOr(v *bool, fallback bool) bool {
	if v == nil {
		return fallback
	}
	return *v
}

func (s *Service) CreateQuestion(ctx context.Context, p access.Principal, traitID string, in QuestionInput) (Question, error) {
	if !p.Has(auth.PermReviewManageCycle) {
		return Question{}, ErrTraitDenied
	}
	text := strings.TrimSpace(in.Text)
	if text == "" {
		return Question{}, ErrQuestionTextMissing
	}
	if _, err := s.GetTrait(ctx, traitID); err != nil {
		return Question{}, err
	}
	q := Question{
		TraitID:             traitID,
		Text:                text,
		AppliesToSelf:       boolOr(in.AppliesToSelf, true),
		AppliesToPeer:       boolOr(in.AppliesToPeer, true),
		AppliesToSupervisor: boolOr(in.AppliesToSupervisor, true),
		DisplayOrder:        in.DisplayOrder,
		IsActive:            true,
	}
	id, err := s.store.CreateQuestion(ctx, q)
	if err != nil {
		return Question{}, err
	}
	created, err := s.store.GetQuestion(ctx, id)
	return created, notFound(err, ErrQuestionNotFound)
}

func (s *Service) UpdateQuestion(ctx context.Context, p access.Principal, questionID string, in QuestionUpdate) (Question, error) {
	if !p.Has(auth.PermReviewManageCycle) {
		return Question{}, ErrTraitDenied
	}
	if _, err := s.store.GetQuestion(ctx, questionID); err != nil {
		return Question{}, notFound(err, ErrQuestionNotFound)
	}
	if in.Text != nil {
		text := strings.TrimSpace(*in.Text)
		if text == "" {
			return Question{}, ErrQuestionTextMissing
		}
		in.Text = &text
	}
	if err := s.store.UpdateQuestion(ctx, questionID, in); err != nil {
		return Question{}, err
	}
	updated, err := s.store.GetQuestion(ctx, questionID)
	return updated, notFound(err, ErrQuestionNotFound)
}

// DeleteQuestion removes an unanswered question. Answered questions can only
// be deactivated so past scores stay explainable.
func (s *Service) DeleteQuestion(ctx context.Context, p access.Principal, questionID string) error {
	if !p.Has(auth.PermReviewManageCycle) {
		return ErrTraitDenied
	}
	if _, err := s.store.GetQuestion(ctx, questionID); err != nil {
		return notFound(err, ErrQuestionNotFound)
	}
	used, err := s.store.QuestionUsed(ctx, questionID)
	if err != nil {
		return err
	}
	if used {
		return ErrQuestionUsed
	}
	return s.store.DeleteQuestion(ctx, questionID)
}

func (s *Service) MyAssignments(ctx context.Context, p access.Principal) ([]Assignment, error) {
	return s.store.ReviewerAssignments(ctx, p.UserID)
}

func (s *Service) reviewerAssignment(ctx context.Context, p access.Principal, assignmentID string) (Assignment, error) {
	a, err := s.store.GetAssignment(ctx, assignmentID)
	if err != nil {
		return Assignment{}, notFound(err, ErrAssignmentNotFound)
	}
	if a.ReviewerID != p.UserID {
		return Assignment{}, ErrAccessDenied
	}
	return a, nil
}

// formTraits returns the cycle's traits with only the questions that apply
// to the review type. Traits left without questions are dropped.
func (s *Service) formTraits(ctx context.Context, cycleID, reviewType string) ([]FormTrait, error) {
	traits, err := s.store.CycleTraits(ctx, cycleID)
	if err != nil {
		return nil, err
	}
	if len(traits) == 0 {
		return []FormTrait{}, nil
	}
	ids := make([]string, 0, len(traits))
	for _, t := range traits {
		ids = append(ids, t.ID)
	}
	questions, err := s.store.Questions(ctx, ids)
	if err != nil {
		return nil, err
	}
	byTrait := map[string][]FormQuestion{}
	for _, q := range questions {
		if !q.AppliesTo(reviewType) {
			continue
		}
		byTrait[q.TraitID] = append(byTrait[q.TraitID], FormQuestion{ID: q.ID, Text: q.Text})
	}
	out := []FormTrait{}
	for _, t := range traits {
		if len(byTrait[t.ID]) == 0 {
			continue
		}
		out = append(out, FormTrait{ID: t.ID, Name: t.Name, Description: t.Description, Questions: byTrait[t.ID]})
	}
	return out, nil
}

func (s *Service) Form(ctx context.Context, p access.Principal, assignmentID string) (Form, error) {
	a, err := s.reviewerAssignment(ctx, p, assignmentID)
	if err != nil {
		return Form{}, err
	}
	reviewee, err := s.store.UserRef(ctx, a.RevieweeID)
	if err != nil {
		return Form{}, notFound(err, ErrRevieweeNotFound)
	}
	cycle, err := s.GetCycle(ctx, a.CycleID)
	if err != nil {
		return Form{}, err
	}
	traits, err := s.formTraits(ctx, a.CycleID, a.ReviewType)
	if err != nil {
		return Form{}, err
	}
	saved, err := s.store.Responses(ctx, assignmentID)
	if err != nil {
		return Form{}, err
	}
	answers := make(map[string]SavedResponse, len(saved))
	for _, r := range saved {
		answers[r.QuestionID] = r
	}
	for i := range traits {
		for j := range traits[i].Questions {
			q := &traits[i].Questions[j]
			if r, ok := answers[q.ID]; ok {
				rating := r.Rating
				q.Rating = &rating
				q.Comment = r.Comment
			}
		}
	}
	return Form{
		AssignmentID: a.ID,
		ReviewType:   a.ReviewType,
		Status:       a.Status,
		CompletedAt:  a.CompletedAt,
		Reviewee:     PersonRef{ID: reviewee.ID, Name: reviewee.Name, JobTitle: reviewee.JobTitle, Department: reviewee.Department},
		Cycle:        CycleRef{ID: cycle.ID, Name: cycle.Name, Period: cycle.Period},
		Traits:       traits,
	}, nil
}

// ValidateResponses keeps the answered entries and checks their ratings.
// Entries without a question or a rating are ignored.
func ValidateResponses(in []Response) ([]SavedResponse, error) {
	out := make([]SavedResponse, 0, len(in))
	for _, r := range in {
		if r.QuestionID == "" || r.Rating == nil {
			continue
		}
		if *r.Rating < MinRating || *r.Rating > MaxRating {
			return nil, errRatingRange(*r.Rating)
		}
		out = append(out, SavedResponse{QuestionID: r.QuestionID, Rating: *r.Rating, Comment: strings.TrimSpace(r.Comment)})
	}
	return out, nil
}

// Submit records the reviewer's answers. A draft keeps the assignment in
// progress; a final submission completes it, and once every assignment about
// the reviewee is complete their trait scores are computed.
func (s *Service) Submit(ctx context.Context, p access.Principal, assignmentID string, in SubmitInput) (SubmitResult, error) {
	a, err := s.reviewerAssignment(ctx, p, assignmentID)
	if err != nil {
		return SubmitResult{}, err
	}
	if a.Status == AssignmentCompleted {
		return SubmitResult{}, ErrAlreadyCompleted
	}
	if a.CycleStatus == CycleCompleted || a.CycleStatus == CycleCancelled {
		return SubmitResult{}, ErrCycleClosed
	}
	responses, err := ValidateResponses(in.Responses)
	if err != nil {
		return SubmitResult{}, err
	}
	if len(responses) > 0 {
		traits, err := s.formTraits(ctx, a.CycleID, a.ReviewType)
		if err != nil {
			return SubmitResult{}, err
		}
		allowed := map[string]bool{}
		for _, t := range traits {
			for _, q := range t.Questions {
				allowed[q.ID] = true
			}
		}
		for _, r := range responses {
			if !allowed[r.QuestionID] {
				return SubmitResult{}, ErrQuestionTrait
			}
		}
	}

	saved, err := s.store.SaveResponses(ctx, assignmentID, responses, !in.IsDraft)
	if err != nil {
		return SubmitResult{}, err
	}
	result := SubmitResult{
		AssignmentID: saved.ID,
		Status:       saved.Status,
		CompletedAt:  saved.CompletedAt,
		Message:      "Progress saved successfully",
	}
	if in.IsDraft {
		return result, nil
	}
	result.Message = "Review submitted successfully"

	scored, err := s.scoreIfReady(ctx, saved.CycleID, saved.RevieweeID)
	if err != nil {
		slog.Warn("review scoring failed", "err", err, "cycleId", saved.CycleID, "userId", saved.RevieweeID)
		return result, nil
	}
	result.Scored = scored
	return result, nil
}

func (s *Service) scoreIfReady(ctx context.Context, cycleID, revieweeID string) (bool, error) {
	total, completed, err := s.store.RevieweeProgress(ctx, cycleID, revieweeID)
	if err != nil {
		return false, err
	}
	if total == 0 || total != completed {
		return false, nil
	}
	if err := s.scoreUser(ctx, cycleID, revieweeID); err != nil {
		return false, err
	}
	if s.Notify != nil {
		s.Notify.Notify(ctx, notifications.Input{
			UserID:    revieweeID,
			Type:      notifications.TypeReviewCompleted,
			Priority:  notifications.PriorityMedium,
			Title:     "Your review is complete",
			Message:   "All reviews about you in this cycle are in and your scores are ready.",
			ActionURL: "/reviews/scores/" + cycleID,
			Data:      map[string]any{"cycle_id": cycleID},
		})
	}
	return true, nil
}

func (s *Service) scoreUser(ctx context.Context, cycleID, userID string) error {
	traits, err := s.store.CycleTraits(ctx, cycleID)
	if err != nil {
		return err
	}
	ratings, err := s.store.Ratings(ctx, cycleID, userID)
	if err != nil {
		return err
	}
	ids := make([]string, 0, len(traits))
	for _, t := range traits {
		ids = append(ids, t.ID)
	}
	return s.store.SaveScores(ctx, cycleID, userID, ScoreTraits(cycleID, userID, ids, ratings, s.now()))
}

// Recompute scores every reviewee of the cycle and returns how many were
// processed.
func (s *Service) Recompute(ctx context.Context, p access.Principal, cycleID string) (int, error) {
	if !p.Has(auth.PermReviewCreateCycle) {
		return 0, ErrCalculateDenied
	}
	if _, err := s.GetCycle(ctx, cycleID); err != nil {
		return 0, err
	}
	reviewees, err := s.store.Reviewees(ctx, cycleID)
	if err != nil {
		return 0, err
	}
	for _, userID := range reviewees {
		if err := s.scoreUser(ctx, cycleID, userID); err != nil {
			return 0, fmt.Errorf("score user %s: %w", userID, err)
		}
	}
	return len(reviewees), nil
}

func (s *Service) Dashboard(ctx context.Context, p access.Principal, cycleID string) (Dashboard, error) {
	if !p.Has(auth.PermReviewViewAll) {
		return Dashboard{}, ErrDashboardDenied
	}
	cycle, err := s.GetCycle(ctx, cycleID)
	if err != nil {
		return Dashboard{}, err
	}
	stats, err := s.store.AssignmentStats(ctx, cycleID)
	if err != nil {
		return Dashboard{}, err
	}
	return BuildDashboard(cycle, stats), nil
}

func (s *Service) UserProgress(ctx context.Context, p access.Principal, cycleID string) ([]UserProgress, error) {
	if !p.Has(auth.PermReviewViewAll) {
		return nil, ErrProgressDenied
	}
	if _, err := s.GetCycle(ctx, cycleID); err != nil {
		return nil, err
	}
	stats, err := s.store.AssignmentStats(ctx, cycleID)
	if err != nil {
		return nil, err
	}
	return BuildProgress(stats), nil
}

// UserScores returns a user's trait scores for a cycle. Users may read their
// own; anyone else needs review_view_all.
func (s *Service) UserScores(ctx context.Context, p access.Principal, userID, cycleID string) (UserScores, error) {
	if p.UserID != userID && !p.Has(auth.PermReviewViewAll) {
		return UserScores{}, ErrScoresDenied
	}
	user, err := s.store.UserRef(ctx, userID)
	if err != nil {
		return UserScores{}, notFound(err, ErrUserNotFound)
	}
	cycle, err := s.GetCycle(ctx, cycleID)
	if err != nil {
		return UserScores{}, err
	}
	scores, err := s.store.Scores(ctx, cycleID, userID)
	if err != nil {
		return UserScores{}, err
	}
	return UserScores{
		User:     PersonRef{ID: user.ID, Name: user.Name, JobTitle: user.JobTitle, Department: user.Department},
		Cycle:    CycleRef{ID: cycle.ID, Name: cycle.Name, Period: cycle.Period},
		Traits:   scores,
		Averages: Summarize(scores),
	}, nil
}
