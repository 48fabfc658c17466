package performance

import "pms/internal/domain/apperr"

var (
	ErrCycleNotFound = apperr.NotFound("Review cycle not found")
	ErrScoreNotFound = apperr.NotFound("Performance score not found")

	ErrCycleNotScorable = apperr.Validation("Performance can only be calculated for active or completed cycles")

	ErrCalculateDenied   = apperr.Forbidden("Not authorized to calculate performance scores")
	ErrViewDenied        = apperr.Forbidden("Not authorized to view this performance score")
	ErrLeaderboardDenied = apperr.Forbidden("Not authorized to view the performance leaderboard")
)
