// Package reports builds the dashboard summaries and exposes the job run
// history written by the scheduler.
package reports

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"pms/internal/domain/access"
	"pms/internal/domain/auth"
	"pms/internal/platform/jobs"
)

type Orgs interface {
	AccessibleOrgs(ctx context.Context, p access.Principal) ([]string, error)
}

type JobTrigger interface {
	Trigger(jobType string) error
}

type Service struct {
	store StoreAPI
	orgs  Orgs
	jobs  JobTrigger
}

func NewService(store StoreAPI, orgs Orgs, trigger JobTrigger) *Service {
	return &Service{store: store, orgs: orgs, jobs: trigger}
}

func (s *Service) Personal(ctx context.Context, p access.Principal) (PersonalDashboard, error) {
	goalRows, err := s.store.GoalStatusCounts(ctx, p.UserID)
	if err != nil {
		return PersonalDashboard{}, fmt.Errorf("goal counts: %w", err)
	}
	initiativeRows, err := s.store.AssignedInitiativeCounts(ctx, p.UserID)
	if err != nil {
		return PersonalDashboard{}, fmt.Errorf("initiative counts: %w", err)
	}
	pending, err := s.store.PendingReviewCount(ctx, p.UserID)
	if err != nil {
		return PersonalDashboard{}, fmt.Errorf("pending reviews: %w", err)
	}
	latest, err := s.store.LatestScore(ctx, p.UserID)
	if err != nil {
		return PersonalDashboard{}, fmt.Errorf("latest score: %w", err)
	}

	out := PersonalDashboard{PendingReviews: pending, LatestScore: latest}
	out.GoalsByStatus, out.AverageGoalProgress = GoalSummary(goalRows)
	out.InitiativesByStatus, out.OpenInitiatives, out.OverdueInitiatives = InitiativeSummary(initiativeRows)
	return out, nil
}

func (s *Service) Team(ctx context.Context, p access.Principal) (TeamDashboard, error) {
	counts, err := s.store.TeamCounts(ctx, p.UserID)
	if err != nil {
		return TeamDashboard{}, fmt.Errorf("team counts: %w", err)
	}
	return TeamDashboard{TeamCounts: counts, HasSupervisees: counts.DirectReports > 0}, nil
}

// Organization summarizes every org the caller can see. It needs
// reports_generate.
func (s *Service) Organization(ctx context.Context, p access.Principal) (OrganizationDashboard, error) {
	if !p.Has(auth.PermReportsGenerate) {
		return OrganizationDashboard{}, ErrReportDenied
	}
	var orgIDs []string
	if p.Scope != access.ScopeGlobal {
		ids, err := s.orgs.AccessibleOrgs(ctx, p)
		if err != nil {
			return OrganizationDashboard{}, err
		}
		orgIDs = append([]string{}, ids...)
	}

	users, err := s.store.ActiveUserCount(ctx, orgIDs)
	if err != nil {
		return OrganizationDashboard{}, fmt.Errorf("user count: %w", err)
	}
	goalRows, err := s.store.OrgGoalStatusCounts(ctx, orgIDs)
	if err != nil {
		return OrganizationDashboard{}, fmt.Errorf("goal counts: %w", err)
	}
	initiativeRows, err := s.store.OrgInitiativeStatusCounts(ctx, orgIDs)
	if err != nil {
		return OrganizationDashboard{}, fmt.Errorf("initiative counts: %w", err)
	}
	cycles, err := s.store.ActiveCycleCount(ctx)
	if err != nil {
		return OrganizationDashboard{}, fmt.Errorf("cycle count: %w", err)
	}
	progress, err := s.store.ActiveReviewProgress(ctx, orgIDs)
	if err != nil {
		return OrganizationDashboard{}, fmt.Errorf("review progress: %w", err)
	}

	out := OrganizationDashboard{
		ActiveUsers:          users,
		ActiveReviewCycles:   cycles,
		ReviewCompletionRate: CompletionRate(progress),
	}
	out.GoalsByStatus, out.AverageGoalProgress = GoalSummary(goalRows)
	out.InitiativesByStatus, _, _ = InitiativeSummary(initiativeRows)
	return out, nil
}

func (s *Service) JobRuns(ctx context.Context, filter JobRunFilter) ([]JobRun, int, error) {
	runs, err := s.store.ListJobRuns(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.store.CountJobRuns(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	return runs, total, nil
}

func (s *Service) JobRun(ctx context.Context, id string) (JobRun, error) {
	run, err := s.store.JobRun(ctx, id)
	if errors.Is(err, pgx.ErrNoRows) {
		return JobRun{}, ErrJobRunNotFound
	}
	return run, err
}

// TriggerJob queues a scheduler job outside its interval.
func (s *Service) TriggerJob(jobType string) error {
	if s.jobs == nil {
		return ErrUnknownJob
	}
	err := s.jobs.Trigger(jobType)
	switch {
	case errors.Is(err, jobs.ErrUnknownJob):
		return ErrUnknownJob
	case errors.Is(err, jobs.ErrQueueFull):
		return ErrJobQueueFull
	}
	return err
}
