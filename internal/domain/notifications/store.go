package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

const notificationColumns = `
    id, user_id, type, priority, title, message, COALESCE(action_url, ''), data,
    is_read, read_at, COALESCE(triggered_by::text, ''), expires_at, created_at
`

func scanNotification(row pgx.Row) (Notification, error) {
	var n Notification
	var data []byte
	err := row.Scan(&n.ID, &n.UserID, &n.Type, &n.Priority, &n.Title, &n.Message, &n.ActionURL, &data,
		&n.IsRead, &n.ReadAt, &n.TriggeredBy, &n.ExpiresAt, &n.CreatedAt)
	if err != nil {
		return Notification{}, err
	}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &n.Data); err != nil {
			return Notification{}, fmt.Errorf("decode notification data: %w", err)
		}
	}
	return n, nil
}

func (s *Store) Create(ctx context.Context, in Input) (Notification, error) {
	var data []byte
	if len(in.Data) > 0 {
		encoded, err := json.Marshal(in.Data)
		if err != nil {
			return Notification{}, err
		}
		data = encoded
	}
	return scanNotification(s.DB.QueryRow(ctx, `
    INSERT INTO notifications (user_id, type, priority, title, message, action_url, data, triggered_by, expires_at)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
    RETURNING `+notificationColumns,
		in.UserID, in.Type, in.Priority, in.Title, in.Message, nullIfEmpty(in.ActionURL), data,
		nullIfEmpty(in.TriggeredBy), in.ExpiresAt))
}

func (s *Store) List(ctx context.Context, userID string, filter Filter) ([]Notification, int, error) {
	where := []string{"user_id = $1", "(expires_at IS NULL OR expires_at > now())"}
	args := []any{userID}
	if filter.UnreadOnly {
		where = append(where, "is_read = false")
	}
	if filter.Type != "" {
		args = append(args, filter.Type)
		where = append(where, fmt.Sprintf("type = $%d", len(args)))
	}
	clause := " WHERE " + strings.Join(where, " AND ")

	var total int
	if err := s.DB.QueryRow(ctx, "SELECT COUNT(1) FROM notifications"+clause, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, filter.Limit, filter.Offset)
	rows, err := s.DB.Query(ctx, fmt.Sprintf("SELECT %s FROM notifications%s ORDER BY created_at DESC LIMIT $%d OFFSET $%d",
		notificationColumns, clause, len(args)-1, len(args)), args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := []Notification{}
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, n)
	}
	return out, total, rows.Err()
}

func (s *Store) Stats(ctx context.Context, userID string) (Stats, error) {
	stats := Stats{ByType: map[string]int{}, ByPriority: map[string]int{}}
	rows, err := s.DB.Query(ctx, `
    SELECT type, priority, is_read, COUNT(1)
    FROM notifications
    WHERE user_id = $1 AND (expires_at IS NULL OR expires_at > now())
    GROUP BY type, priority, is_read
  `, userID)
	if err != nil {
		return stats, err
	}
	defer rows.Close()
	for rows.Next() {
		var ntype, priority string
		var read bool
		var count int
		if err := rows.Scan(&ntype, &priority, &read, &count); err != nil {
			return stats, err
		}
		stats.Total += count
		if !read {
			stats.Unread += count
		}
		stats.ByType[ntype] += count
		stats.ByPriority[priority] += count
	}
	return stats, rows.Err()
}

func (s *Store) MarkRead(ctx context.Context, userID, notificationID string) (bool, error) {
	tag, err := s.DB.Exec(ctx, `
    UPDATE notifications SET is_read = true, read_at = COALESCE(read_at, now())
    WHERE user_id = $1 AND id = $2
  `, userID, notificationID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (s *Store) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	tag, err := s.DB.Exec(ctx, "UPDATE notifications SET is_read = true, read_at = now() WHERE user_id = $1 AND is_read = false", userID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (s *Store) Delete(ctx context.Context, userID, notificationID string) (bool, error) {
	tag, err := s.DB.Exec(ctx, "DELETE FROM notifications WHERE user_id = $1 AND id = $2", userID, notificationID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (s *Store) Contact(ctx context.Context, userID string) (Contact, error) {
	var c Contact
	err := s.DB.QueryRow(ctx, "SELECT COALESCE(email, ''), name FROM users WHERE id = $1", userID).Scan(&c.Email, &c.Name)
	return c, err
}

func (s *Store) ActiveUserIDs(ctx context.Context) ([]string, error) {
	rows, err := s.DB.Query(ctx, "SELECT id FROM users WHERE status = 'active' ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func nullIfEmpty(value string) any {
	if value == "" {
		return nil
	}
	return value
}
