package reports

import "context"

type StoreAPI interface {
	GoalStatusCounts(ctx context.Context, ownerID string) ([]StatusCount, error)
	AssignedInitiativeCounts(ctx context.Context, userID string) ([]StatusCount, error)
	PendingReviewCount(ctx context.Context, reviewerID string) (int, error)
	LatestScore(ctx context.Context, userID string) (*LatestScore, error)
	TeamCounts(ctx context.Context, supervisorID string) (TeamCounts, error)

	// A nil orgIDs means every organization.
	ActiveUserCount(ctx context.Context, orgIDs []string) (int, error)
	OrgGoalStatusCounts(ctx context.Context, orgIDs []string) ([]StatusCount, error)
	OrgInitiativeStatusCounts(ctx context.Context, orgIDs []string) ([]StatusCount, error)
	ActiveCycleCount(ctx context.Context) (int, error)
	ActiveReviewProgress(ctx context.Context, orgIDs []string) (ReviewProgress, error)

	ListJobRuns(ctx context.Context, filter JobRunFilter) ([]JobRun, error)
	CountJobRuns(ctx context.Context, filter JobRunFilter) (int, error)
	JobRun(ctx context.Context, id string) (JobRun, error)
}
