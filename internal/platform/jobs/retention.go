package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Cutoffs are the horizons for one retention pass. A zero time keeps that
// category forever.
type Cutoffs struct {
	Now           time.Time
	Notifications time.Time
	JobRuns       time.Time
	AuditEvents   time.Time
}

// CutoffsAt derives the retention horizons for now from the configured ages.
func CutoffsAt(now time.Time, notifications, jobRuns, audit time.Duration) Cutoffs {
	c := Cutoffs{Now: now}
	if notifications > 0 {
		c.Notifications = now.Add(-notifications)
	}
	if jobRuns > 0 {
		c.JobRuns = now.Add(-jobRuns)
	}
	if audit > 0 {
		c.AuditEvents = now.Add(-audit)
	}
	return c
}

type Retainer interface {
	Purge(ctx context.Context, c Cutoffs) (map[string]int64, error)
}

type pgRetention struct {
	DB *pgxpool.Pool
}

type purgeStep struct {
	name   string
	query  string
	cutoff time.Time
}

// Purge drops dead credentials and aged history. Unread notifications are
// kept regardless of age.
func (p *pgRetention) Purge(ctx context.Context, c Cutoffs) (map[string]int64, error) {
	steps := []purgeStep{
		{"sessions", `DELETE FROM sessions WHERE expires_at < $1 OR revoked_at < $1`, c.Now},
		{"password_resets", `DELETE FROM password_resets WHERE expires_at < $1 OR used_at IS NOT NULL`, c.Now},
		{"notifications", `DELETE FROM notifications WHERE is_read AND created_at < $1`, c.Notifications},
		{"expired_notifications", `DELETE FROM notifications WHERE expires_at < $1`, c.Now},
		{"job_runs", `DELETE FROM job_runs WHERE started_at < $1 AND status <> 'running'`, c.JobRuns},
		{"audit_events", `DELETE FROM audit_events WHERE created_at < $1`, c.AuditEvents},
	}
	out := make(map[string]int64, len(steps))
	for _, step := range steps {
		if step.cutoff.IsZero() {
			continue
		}
		tag, err := p.DB.Exec(ctx, step.query, step.cutoff)
		if err != nil {
			return out, fmt.Errorf("purge %s: %w", step.name, err)
		}
		out[step.name] = tag.RowsAffected()
	}
	return out, nil
}
