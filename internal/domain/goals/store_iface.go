package goals

import "context"

type StoreAPI interface {
	GetGoal(ctx context.Context, goalID string) (Goal, error)
	ListGoals(ctx context.Context, filter ListFilter) ([]Goal, int, error)
	StatsGoals(ctx context.Context, filter ListFilter) ([]Goal, error)
	SuperviseeGoals(ctx context.Context, supervisorID string) ([]Goal, error)
	CreateGoal(ctx context.Context, goal Goal) (string, error)
	UpdateGoal(ctx context.Context, goalID string, in UpdateInput) error
	DeleteGoal(ctx context.Context, goalID string) error
	Children(ctx context.Context, goalID string) ([]Goal, error)
	ChildStatuses(ctx context.Context, goalID string) ([]string, error)
	Subtree(ctx context.Context, goalID string) ([]Goal, error)

	SetProgress(ctx context.Context, goalID string, oldPct, newPct int, report, actorID string) error
	ProgressReports(ctx context.Context, goalID string) ([]ProgressReport, error)
	SetStatus(ctx context.Context, goalID, status string) error
	MarkAchieved(ctx context.Context, goalID string) error
	MarkDiscarded(ctx context.Context, goalID, reason string) error
	SetApproval(ctx context.Context, goalID, status, approverID, rejectionReason string) error
	RequestChange(ctx context.Context, goalID, reason string) error

	CreateAssignment(ctx context.Context, goalID, assignedBy, assignedTo, status string) error
	GetAssignment(ctx context.Context, goalID, assignedTo string) (Assignment, error)
	RespondAssignment(ctx context.Context, goalID, assignedTo, status, message string) error

	Freeze(ctx context.Context, in FreezeInput, actorID string) ([]string, int, error)
	Unfreeze(ctx context.Context, in UnfreezeInput, actorID string) ([]string, int, error)
	FreezeLogs(ctx context.Context, quarter string, year int) ([]FreezeLog, error)

	UserRef(ctx context.Context, userID string) (UserRef, error)
	ClearAll(ctx context.Context) (int64, error)
}
