package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// Watermark returns the stage's progress date, or the zero time when the
// stage has never completed.
func (s *Store) Watermark(ctx context.Context, stage string) (time.Time, error) {
	var t time.Time
	err := s.pool.QueryRow(ctx,
		`SELECT watermark FROM progress WHERE stage = $1`, stage).Scan(&t)
	if errors.Is(err, pgx.ErrNoRows) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to read watermark for %s: %v", stage, err)
	}
	return t, nil
}

// SetWatermark records that the stage has processed everything up to t.
func (s *Store) SetWatermark(ctx context.Context, stage string, t time.Time) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO progress (stage, watermark) VALUES ($1, $2)
		ON CONFLICT (stage) DO UPDATE SET watermark = EXCLUDED.watermark`,
		stage, t)
	if err != nil {
		return fmt.Errorf("failed to set watermark for %s: %v", stage, err)
	}
	return nil
}

// Watermarks returns every stage's progress date.
func (s *Store) Watermarks(ctx context.Context) (map[string]time.Time, error) {
	rows, err := s.pool.Query(ctx, `SELECT stage, watermark FROM progress`)
	if err != nil {
		return nil, fmt.Errorf("failed to read watermarks: %v", err)
	}
	defer rows.Close()

	marks := make(map[string]time.Time)
	for rows.Next() {
		var stage string
		var t time.Time
		if err := rows.Scan(&stage, &t); err != nil {
			return nil, fmt.Errorf("failed to scan watermark: %v", err)
		}
		marks[stage] = t
	}
	return marks, rows.Err()
}
