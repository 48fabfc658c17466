package notifications

import "context"

type StoreAPI interface {
	Create(ctx context.Context, in Input) (Notification, error)
	List(ctx context.Context, userID string, filter Filter) ([]Notification, int, error)
	Stats(ctx context.Context, userID string) (Stats, error)
	MarkRead(ctx context.Context, userID, notificationID string) (bool, error)
	MarkAllRead(ctx context.Context, userID string) (int64, error)
	Delete(ctx context.Context, userID, notificationID string) (bool, error)
	Contact(ctx context.Context, userID string) (Contact, error)
	ActiveUserIDs(ctx context.Context) ([]string, error)
}
