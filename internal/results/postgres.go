package results

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"github.com/park285/bancho-mp-bot/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS mp_plays (
	id            BIGSERIAL PRIMARY KEY,
	play_uuid     TEXT NOT NULL UNIQUE,
	match_id      BIGINT NOT NULL,
	channel       TEXT NOT NULL,
	title         TEXT NOT NULL DEFAULT '',
	beatmap_id    BIGINT NOT NULL DEFAULT 0,
	beatmap_name  TEXT NOT NULL DEFAULT '',
	game_mode     TEXT NOT NULL DEFAULT '',
	team_mode     TEXT NOT NULL DEFAULT '',
	win_condition TEXT NOT NULL DEFAULT '',
	mods          JSONB NOT NULL DEFAULT '[]',
	aborted       BOOLEAN NOT NULL DEFAULT FALSE,
	scores        JSONB NOT NULL DEFAULT '[]',
	started_at    TIMESTAMPTZ NOT NULL,
	ended_at      TIMESTAMPTZ NOT NULL,
	duration_ms   BIGINT NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS mp_plays_match_idx ON mp_plays (match_id, ended_at DESC);
`

type postgresRepo struct {
	db *sql.DB
}

// NewRepository opens databaseURL with lib/pq, pings it and ensures the
// mp_plays table exists.
func NewRepository(databaseURL string) (Repository, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(8)
	db.SetMaxIdleConns(4)
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate mp_plays: %w", err)
	}
	return &postgresRepo{db: db}, nil
}

func (r *postgresRepo) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.Close()
}

type scoreRow struct {
	Username string   `json:"username"`
	Slot     int      `json:"slot"`
	Team     string   `json:"team,omitempty"`
	Score    int64    `json:"score"`
	Passed   bool     `json:"passed"`
	Mods     []string `json:"mods,omitempty"`
}

// SavePlay upserts by play UUID so a retried write does not duplicate rows.
func (r *postgresRepo) SavePlay(ctx context.Context, play *domain.Play) (int64, error) {
	if play == nil || strings.TrimSpace(play.PlayUUID) == "" {
		return 0, fmt.Errorf("nil play payload")
	}
	mods := play.Mods
	if mods == nil {
		mods = []string{}
	}
	modsRaw, err := json.Marshal(mods)
	if err != nil {
		return 0, fmt.Errorf("marshal mods: %w", err)
	}
	rows := make([]scoreRow, 0, len(play.Scores))
	for _, s := range play.Scores {
		rows = append(rows, scoreRow(s))
	}
	scoresRaw, err := json.Marshal(rows)
	if err != nil {
		return 0, fmt.Errorf("marshal scores: %w", err)
	}

	const query = `
		INSERT INTO mp_plays (
			play_uuid, match_id, channel, title,
			beatmap_id, beatmap_name, game_mode, team_mode, win_condition,
			mods, aborted, scores, started_at, ended_at, duration_ms
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
		ON CONFLICT (play_uuid) DO UPDATE SET
			aborted=EXCLUDED.aborted,
			scores=EXCLUDED.scores,
			ended_at=EXCLUDED.ended_at,
			duration_ms=EXCLUDED.duration_ms
		RETURNING id`

	var id int64
	err = r.db.QueryRowContext(ctx, query,
		play.PlayUUID, play.MatchID, play.Channel, play.Title,
		play.BeatmapID, play.BeatmapName, play.GameMode, play.TeamMode, play.WinCondition,
		string(modsRaw), play.Aborted, string(scoresRaw),
		play.StartedAt, play.EndedAt, play.Duration.Milliseconds(),
	).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

const selectPlay = `
	SELECT id, play_uuid, match_id, channel, title,
		beatmap_id, beatmap_name, game_mode, team_mode, win_condition,
		mods, aborted, scores, started_at, ended_at, duration_ms
	FROM mp_plays`

func (r *postgresRepo) RecentPlays(ctx context.Context, matchID int64, limit int) ([]*domain.Play, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.db.QueryContext(ctx, selectPlay+` WHERE match_id = $1 ORDER BY ended_at DESC, id DESC LIMIT $2`, matchID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]*domain.Play, 0)
	for rows.Next() {
		p, err := scanPlay(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *postgresRepo) GetPlay(ctx context.Context, playUUID string) (*domain.Play, error) {
	row := r.db.QueryRowContext(ctx, selectPlay+` WHERE play_uuid = $1`, playUUID)
	p, err := scanPlay(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return p, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPlay(s scanner) (*domain.Play, error) {
	var (
		p          domain.Play
		modsRaw    []byte
		scoresRaw  []byte
		durationMS int64
	)
	if err := s.Scan(&p.ID, &p.PlayUUID, &p.MatchID, &p.Channel, &p.Title,
		&p.BeatmapID, &p.BeatmapName, &p.GameMode, &p.TeamMode, &p.WinCondition,
		&modsRaw, &p.Aborted, &scoresRaw, &p.StartedAt, &p.EndedAt, &durationMS); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(modsRaw, &p.Mods); err != nil {
		return nil, fmt.Errorf("unmarshal mods: %w", err)
	}
	var rows []scoreRow
	if err := json.Unmarshal(scoresRaw, &rows); err != nil {
		return nil, fmt.Errorf("unmarshal scores: %w", err)
	}
	for _, row := range rows {
		p.Scores = append(p.Scores, domain.PlayScore(row))
	}
	p.Duration = time.Duration(durationMS) * time.Millisecond
	return &p, nil
}
