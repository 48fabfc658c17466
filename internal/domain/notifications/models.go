package notifications

import "time"

// Input describes a notification to persist and deliver.
type Input struct {
	UserID      string
	Type        string
	Priority    string
	Title       string
	Message     string
	ActionURL   string
	Data        map[string]any
	TriggeredBy string
	ExpiresAt   *time.Time
}

type Notification struct {
	ID          string         `json:"id"`
	UserID      string         `json:"user_id"`
	Type        string         `json:"type"`
	Priority    string         `json:"priority"`
	Title       string         `json:"title"`
	Message     string         `json:"message"`
	ActionURL   string         `json:"action_url,omitempty"`
	Data        map[string]any `json:"data,omitempty"`
	IsRead      bool           `json:"is_read"`
	ReadAt      *time.Time     `json:"read_at,omitempty"`
	TriggeredBy string         `json:"triggered_by,omitempty"`
	ExpiresAt   *time.Time     `json:"expires_at,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
}

type Filter struct {
	UnreadOnly bool
	Type       string
	Limit      int
	Offset     int
}

type Stats struct {
	Total      int            `json:"total"`
	Unread     int            `json:"unread"`
	ByType     map[string]int `json:"by_type"`
	ByPriority map[string]int `json:"by_priority"`
}

type Contact struct {
	Email string
	Name  string
}

// Delivery is one queued fan-out of a stored notification.
type Delivery struct {
	Notification Notification
	Contact      Contact
}
