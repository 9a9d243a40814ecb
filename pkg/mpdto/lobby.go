package mpdto

import "time"

// Player is one occupied slot as seen from outside the bot.
type Player struct {
	Slot     int      `json:"slot"`
	UserID   int64    `json:"user_id,omitempty"`
	Username string   `json:"username"`
	Host     bool     `json:"host,omitempty"`
	Ready    bool     `json:"ready,omitempty"`
	Team     string   `json:"team,omitempty"`
	Mods     []string `json:"mods,omitempty"`
}

type Beatmap struct {
	ID   int64  `json:"id"`
	Name string `json:"name,omitempty"`
}

// LobbySnapshot is the persisted and relayed view of one match.
type LobbySnapshot struct {
	Channel      string    `json:"channel"`
	MatchID      int64     `json:"match_id"`
	Title        string    `json:"title,omitempty"`
	TeamMode     string    `json:"team_mode,omitempty"`
	WinCondition string    `json:"win_condition,omitempty"`
	Mods         []string  `json:"mods,omitempty"`
	Freemod      bool      `json:"freemod,omitempty"`
	Size         int       `json:"size"`
	Beatmap      *Beatmap  `json:"beatmap,omitempty"`
	GameMode     string    `json:"game_mode,omitempty"`
	Host         string    `json:"host,omitempty"`
	Referees     []string  `json:"referees,omitempty"`
	Players      []Player  `json:"players"`
	Expected     int       `json:"expected"`
	Settled      bool      `json:"settled"`
	Locked       bool      `json:"locked,omitempty"`
	HasPassword  bool      `json:"has_password,omitempty"`
	InProgress   bool      `json:"in_progress,omitempty"`
	UpdatedAt    time.Time `json:"updated_at"`
}
