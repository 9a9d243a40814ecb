package mpdto

import "time"

type Score struct {
	Username string   `json:"username"`
	Slot     int      `json:"slot"`
	Team     string   `json:"team,omitempty"`
	Score    int64    `json:"score"`
	Passed   bool     `json:"passed"`
	Mods     []string `json:"mods,omitempty"`
}

// PlayResult is one finished (or aborted) map in a match.
type PlayResult struct {
	PlayID       string    `json:"play_id"`
	MatchID      int64     `json:"match_id"`
	Title        string    `json:"title,omitempty"`
	Beatmap      Beatmap   `json:"beatmap"`
	GameMode     string    `json:"game_mode,omitempty"`
	TeamMode     string    `json:"team_mode,omitempty"`
	WinCondition string    `json:"win_condition,omitempty"`
	Mods         []string  `json:"mods,omitempty"`
	Aborted      bool      `json:"aborted,omitempty"`
	Scores       []Score   `json:"scores"`
	StartedAt    time.Time `json:"started_at"`
	EndedAt      time.Time `json:"ended_at"`
}
