package reports

import "pms/internal/domain/apperr"

var (
	ErrReportDenied   = apperr.Forbidden("Not authorized to view organization reports")
	ErrJobRunNotFound = apperr.NotFound("Job run not found")
	ErrUnknownJob     = apperr.Validation("Unknown job type")
	ErrJobQueueFull   = apperr.Conflict("Job queue is full, try again shortly")
)
