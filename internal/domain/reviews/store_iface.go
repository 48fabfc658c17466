package reviews

import (
	"context"
	"time"
)

type StoreAPI interface {
	ListCycles(ctx context.Context, filter CycleFilter) ([]Cycle, error)
	GetCycle(ctx context.Context, cycleID string) (Cycle, error)
	CreateCycle(ctx context.Context, c Cycle, traitIDs []string) (string, error)
	UpdateCycle(ctx context.Context, cycleID string, in CycleUpdate) error
	DeleteCycle(ctx context.Context, cycleID string) error
	SetCycleStatus(ctx context.Context, cycleID, status string) error
	SetCycleTraits(ctx context.Context, cycleID string, traitIDs []string) error
	ActiveParticipants(ctx context.Context) ([]Participant, error)
	ActivateCycle(ctx context.Context, cycleID string, plan []PlannedAssignment) (int, error)
	ActivateScheduledCycles(ctx context.Context, today time.Time) (activated, completed []string, err error)

	ListTraits(ctx context.Context, includeInactive bool) ([]Trait, error)
	GetTrait(ctx context.Context, traitID string) (Trait, error)
	TraitNameTaken(ctx context.Context, name, scopeType, orgID string) (bool, error)
	CreateTrait(ctx context.Context, t Trait) (string, error)
	UpdateTrait(ctx context.Context, traitID string, in TraitUpdate) error
	DeleteTrait(ctx context.Context, traitID string) error
	TraitOpenCycles(ctx context.Context, traitID string) (int, error)
	OrgExists(ctx context.Context, orgID string) (bool, error)
	CycleTraits(ctx context.Context, cycleID string) ([]Trait, error)

	Questions(ctx context.Context, traitIDs []string) ([]Question, error)
	GetQuestion(ctx context.Context, questionID string) (Question, error)
	CreateQuestion(ctx context.Context, q Question) (string, error)
	UpdateQuestion(ctx context.Context, questionID string, in QuestionUpdate) error
	DeleteQuestion(ctx context.Context, questionID string) error
	QuestionUsed(ctx context.Context, questionID string) (bool, error)

	ReviewerAssignments(ctx context.Context, reviewerID string) ([]Assignment, error)
	GetAssignment(ctx context.Context, assignmentID string) (Assignment, error)
	Responses(ctx context.Context, assignmentID string) ([]SavedResponse, error)
	SaveResponses(ctx context.Context, assignmentID string, responses []SavedResponse, complete bool) (Assignment, error)
	RevieweeProgress(ctx context.Context, cycleID, revieweeID string) (total, completed int, err error)
	AssignmentStats(ctx context.Context, cycleID string) ([]AssignmentStat, error)

	Ratings(ctx context.Context, cycleID, userID string) ([]Rating, error)
	Reviewees(ctx context.Context, cycleID string) ([]string, error)
	SaveScores(ctx context.Context, cycleID, userID string, scores []Score) error
	Scores(ctx context.Context, cycleID, userID string) ([]Score, error)

	UserRef(ctx context.Context, userID string) (UserRef, error)
}
