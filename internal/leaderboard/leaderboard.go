// Package leaderboard persists retired players and serves the all-time
// records list (C7), backed by PostgreSQL via pgx/pgxpool.
package leaderboard

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RetiredPlayer is one row of the permanent leaderboard.
type RetiredPlayer struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	Score    int       `json:"score"`
	PlayTime float64   `json:"playTime"`
}

// maxItems bounds how many records a single query ever returns (§6.5).
const maxItems = 100

// Store persists retired players to Postgres and serves the ranked list.
type Store struct {
	pg *pgxpool.Pool
}

// New wraps an already-connected pool. Schema is created by the caller's
// migration step (or EnsureSchema below) before first use.
func New(pg *pgxpool.Pool) *Store {
	return &Store{pg: pg}
}

// EnsureSchema creates the retired_players table if it doesn't exist yet.
// Safe to call on every startup.
func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.pg.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS retired_players (
			id         UUID PRIMARY KEY,
			name       VARCHAR(100) NOT NULL,
			score      INTEGER NOT NULL,
			play_time  DOUBLE PRECISION NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("leaderboard: ensure schema: %w", err)
	}
	_, err = s.pg.Exec(ctx, `
		CREATE INDEX IF NOT EXISTS retired_players_rank_idx
		ON retired_players (score DESC, play_time ASC)
	`)
	if err != nil {
		return fmt.Errorf("leaderboard: ensure index: %w", err)
	}
	return nil
}

// Retire inserts one retired player. Implements simulate.RetirementSink,
// so the simulate package never imports pgx directly.
func (s *Store) Retire(ctx context.Context, name string, score int, playTime float64) error {
	id, err := uuid.NewRandom()
	if err != nil {
		return fmt.Errorf("leaderboard: generate id: %w", err)
	}
	_, err = s.pg.Exec(ctx,
		`INSERT INTO retired_players (id, name, score, play_time) VALUES ($1, $2, $3, $4)`,
		id, name, score, playTime,
	)
	if err != nil {
		return fmt.Errorf("leaderboard: insert retired player: %w", err)
	}
	return nil
}

// List returns up to max records (clamped to maxItems) ordered by score
// descending, ties broken by play time ascending, starting at offset
// start (§6.5).
func (s *Store) List(ctx context.Context, start, max int) ([]RetiredPlayer, error) {
	if max <= 0 || max > maxItems {
		max = maxItems
	}
	if start < 0 {
		start = 0
	}

	rows, err := s.pg.Query(ctx,
		`SELECT id, name, score, play_time FROM retired_players
		 ORDER BY score DESC, play_time ASC
		 OFFSET $1 LIMIT $2`,
		start, max,
	)
	if err != nil {
		return nil, fmt.Errorf("leaderboard: query records: %w", err)
	}
	defer rows.Close()

	var out []RetiredPlayer
	for rows.Next() {
		var rp RetiredPlayer
		if err := rows.Scan(&rp.ID, &rp.Name, &rp.Score, &rp.PlayTime); err != nil {
			return nil, fmt.Errorf("leaderboard: scan record: %w", err)
		}
		out = append(out, rp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("leaderboard: iterate records: %w", err)
	}
	return out, nil
}

// MaxItems is exported so the HTTP layer can reject out-of-range requests
// before they reach the store.
func MaxItems() int { return maxItems }
