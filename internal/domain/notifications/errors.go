package notifications

import "pms/internal/domain/apperr"

var (
	ErrNotificationNotFound = apperr.NotFound("Notification not found")
	ErrInvalidPriority      = apperr.Validation("priority must be low, medium, high or urgent")
	ErrAnnouncementRequired = apperr.Validation("title and message are required")
)
