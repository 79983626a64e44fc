package sqlite

import (
	"context"
	"time"
)

// Watch polls key versions and reports every key whose version changed,
// appeared, or disappeared since the previous poll. SQLite has no change
// notification that crosses process boundaries, so polling is the only
// option for a database file shared by several agents.
func (s *Store) Watch(ctx context.Context, fn func(key string)) error {
	interval := s.PollInterval
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	last, err := s.versions(ctx)
	if err != nil {
		return err
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		current, err := s.versions(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}

		for key, version := range current {
			if prev, ok := last[key]; !ok || prev != version {
				fn(key)
			}
		}
		for key := range last {
			if _, ok := current[key]; !ok {
				fn(key)
			}
		}
		last = current
	}
}

func (s *Store) versions(ctx context.Context) (map[string]int64, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key, version FROM kv`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]int64)
	for rows.Next() {
		var (
			key     string
			version int64
		)
		if err := rows.Scan(&key, &version); err != nil {
			return nil, err
		}
		out[key] = version
	}
	return out, rows.Err()
}
