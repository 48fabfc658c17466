// Package notifications stores user notifications and fans them out over
// WebSocket and email through a bounded dispatcher.
package notifications

import (
	"context"
	"log/slog"
	"strings"
)

// Enqueuer accepts deliveries without blocking the caller.
type Enqueuer interface {
	Enqueue(d Delivery) bool
}

type Service struct {
	store      StoreAPI
	Dispatcher Enqueuer
	failures   func()
}

func NewService(store StoreAPI, dispatcher Enqueuer) *Service {
	return &Service{store: store, Dispatcher: dispatcher}
}

// OnFailure registers a hook called whenever Notify swallows an error.
func (s *Service) OnFailure(fn func()) {
	s.failures = fn
}

// Notify stores the notification and queues its delivery. Errors are logged,
// never returned: a failed notification must not fail the caller's request.
func (s *Service) Notify(ctx context.Context, in Input) {
	if s == nil || strings.TrimSpace(in.UserID) == "" {
		return
	}
	if in.Priority == "" {
		in.Priority = PriorityMedium
	}
	if !ValidPriority(in.Priority) {
		in.Priority = PriorityMedium
	}

	n, err := s.store.Create(ctx, in)
	if err != nil {
		slog.Warn("notification create failed", "err", err, "userId", in.UserID, "type", in.Type)
		s.failed()
		return
	}
	if s.Dispatcher == nil {
		return
	}

	contact, err := s.store.Contact(ctx, in.UserID)
	if err != nil {
		slog.Warn("notification contact lookup failed", "err", err, "userId", in.UserID)
	}
	s.Dispatcher.Enqueue(Delivery{Notification: n, Contact: contact})
}

// NotifyMany sends the same notification to each distinct user once.
func (s *Service) NotifyMany(ctx context.Context, userIDs []string, in Input) {
	seen := map[string]struct{}{}
	for _, id := range userIDs {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		next := in
		next.UserID = id
		s.Notify(ctx, next)
	}
}

func (s *Service) List(ctx context.Context, userID string, filter Filter) ([]Notification, int, error) {
	return s.store.List(ctx, userID, filter)
}

func (s *Service) Stats(ctx context.Context, userID string) (Stats, error) {
	return s.store.Stats(ctx, userID)
}

func (s *Service) MarkRead(ctx context.Context, userID, notificationID string) error {
	ok, err := s.store.MarkRead(ctx, userID, notificationID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotificationNotFound
	}
	return nil
}

func (s *Service) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	return s.store.MarkAllRead(ctx, userID)
}

func (s *Service) Delete(ctx context.Context, userID, notificationID string) error {
	ok, err := s.store.Delete(ctx, userID, notificationID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotificationNotFound
	}
	return nil
}

// Announce sends a system announcement to every active user and returns the
// number of recipients.
func (s *Service) Announce(ctx context.Context, actorID, title, message, priority string) (int, error) {
	title = strings.TrimSpace(title)
	message = strings.TrimSpace(message)
	if title == "" || message == "" {
		return 0, ErrAnnouncementRequired
	}
	if priority == "" {
		priority = PriorityMedium
	}
	if !ValidPriority(priority) {
		return 0, ErrInvalidPriority
	}
	ids, err := s.store.ActiveUserIDs(ctx)
	if err != nil {
		return 0, err
	}
	s.NotifyMany(ctx, ids, Input{
		Type:        TypeSystemAnnouncement,
		Priority:    priority,
		Title:       title,
		Message:     message,
		TriggeredBy: actorID,
	})
	return len(ids), nil
}

func (s *Service) failed() {
	if s.failures != nil {
		s.failures()
	}
}
