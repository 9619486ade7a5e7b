package admin

import (
	"context"
	"fmt"
	"time"
)

type Stats struct {
	TotalVisits         int64   `json:"total_visits"`
	UniqueVisitors      int64   `json:"unique_visitors"`
	VisitsToday         int64   `json:"visits_today"`
	VisitsThisWeek      int64   `json:"visits_this_week"`
	Messages            int64   `json:"messages"`
	UndeliveredMessages int64   `json:"undelivered_messages"`
	RecentVisits        []Visit `json:"recent_visits"`
}

// MessageCounter is satisfied by contact.Repository.
type MessageCounter interface {
	Counts(ctx context.Context) (total, undelivered int64, err error)
}

// Stats gathers visit and inbox figures. messages may be nil.
func (t *Tracker) Stats(ctx context.Context, messages MessageCounter, recent int) (*Stats, error) {
	now := t.now().UTC()
	startOfDay := now.Truncate(24 * time.Hour)
	weekAgo := now.Add(-7 * 24 * time.Hour)

	st := &Stats{RecentVisits: []Visit{}}
	err := t.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COUNT(DISTINCT hashed_ip),
			COALESCE(SUM(CASE WHEN visited_at >= ? THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN visited_at >= ? THEN 1 ELSE 0 END), 0)
		FROM visits
	`, startOfDay, weekAgo).Scan(&st.TotalVisits, &st.UniqueVisitors, &st.VisitsToday, &st.VisitsThisWeek)
	if err != nil {
		return nil, fmt.Errorf("visit counts: %w", err)
	}

	if recent > 0 {
		visits, err := t.Recent(ctx, recent)
		if err != nil {
			return nil, err
		}
		st.RecentVisits = visits
	}

	if messages != nil {
		st.Messages, st.UndeliveredMessages, err = messages.Counts(ctx)
		if err != nil {
			return nil, err
		}
	}
	return st, nil
}

// Recent returns the newest visits first.
func (t *Tracker) Recent(ctx context.Context, limit int) ([]Visit, error) {
	rows, err := t.db.QueryContext(ctx, `
		SELECT id, hashed_ip, user_agent, path, visited_at
		FROM visits
		ORDER BY visited_at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("recent visits: %w", err)
	}
	defer rows.Close()

	visits := []Visit{}
	for rows.Next() {
		var v Visit
		if err := rows.Scan(&v.ID, &v.HashedIP, &v.UserAgent, &v.Path, &v.VisitedAt); err != nil {
			return nil, fmt.Errorf("scan visit: %w", err)
		}
		visits = append(visits, v)
	}
	return visits, rows.Err()
}
