package domain

import "time"

// Play is one map played (or aborted) in a match, as persisted.
type Play struct {
	ID           int64
	PlayUUID     string
	MatchID      int64
	Channel      string
	Title        string
	BeatmapID    int64
	BeatmapName  string
	GameMode     string
	TeamMode     string
	WinCondition string
	Mods         []string
	Aborted      bool
	StartedAt    time.Time
	EndedAt      time.Time
	Duration     time.Duration
	Scores       []PlayScore
}

type PlayScore struct {
	Username string
	Slot     int
	Team     string
	Score    int64
	Passed   bool
	Mods     []string
}

// TeamTotals sums scores per team; players without a team are ignored.
func (p *Play) TeamTotals() map[string]int64 {
	out := make(map[string]int64)
	for _, s := range p.Scores {
		if s.Team != "" {
			out[s.Team] += s.Score
		}
	}
	return out
}
