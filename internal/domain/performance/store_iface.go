package performance

import "context"

type StoreAPI interface {
	GetCycle(ctx context.Context, cycleID string) (Cycle, error)
	Inputs(ctx context.Context, cycle Cycle) ([]Input, error)
	SaveScores(ctx context.Context, cycleID string, scores []Score) error
	Score(ctx context.Context, cycleID, userID string) (Score, error)
	Scores(ctx context.Context, cycleID string) ([]Score, error)
	TraitScores(ctx context.Context, cycleID, userID string) ([]TraitLine, error)
}
