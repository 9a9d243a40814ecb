package recorder

import (
	"time"

	"github.com/park285/bancho-mp-bot/internal/domain"
	"github.com/park285/bancho-mp-bot/internal/lobby"
	"github.com/park285/bancho-mp-bot/pkg/mpdto"
)

// SnapshotOf converts a lobby state into its wire form.
func SnapshotOf(st lobby.State, now time.Time) *mpdto.LobbySnapshot {
	snap := &mpdto.LobbySnapshot{
		Channel:      st.Name,
		MatchID:      st.MatchID,
		Title:        st.Title,
		TeamMode:     st.TeamMode,
		WinCondition: st.WinCondition,
		Mods:         st.Mods,
		Freemod:      st.Freemod,
		Size:         st.Size,
		GameMode:     st.GameMode,
		Host:         st.Host,
		Referees:     st.Referees,
		Players:      make([]mpdto.Player, 0, len(st.Players)),
		Expected:     st.Expected,
		Settled:      st.Settled,
		Locked:       st.Locked,
		HasPassword:  st.HasPassword,
		InProgress:   st.InProgress,
		UpdatedAt:    now,
	}
	if st.Beatmap.ID != 0 || st.Beatmap.Name != "" {
		snap.Beatmap = &mpdto.Beatmap{ID: st.Beatmap.ID, Name: st.Beatmap.Name}
	}
	for _, p := range st.Players {
		snap.Players = append(snap.Players, mpdto.Player{
			Slot:     p.Slot,
			UserID:   p.UserID,
			Username: p.Username,
			Host:     p.IsHost,
			Ready:    p.Ready,
			Team:     p.Team,
			Mods:     p.Mods,
		})
	}
	return snap
}

func PlayResultOf(p *domain.Play) *mpdto.PlayResult {
	out := &mpdto.PlayResult{
		PlayID:       p.PlayUUID,
		MatchID:      p.MatchID,
		Title:        p.Title,
		Beatmap:      mpdto.Beatmap{ID: p.BeatmapID, Name: p.BeatmapName},
		GameMode:     p.GameMode,
		TeamMode:     p.TeamMode,
		WinCondition: p.WinCondition,
		Mods:         p.Mods,
		Aborted:      p.Aborted,
		Scores:       make([]mpdto.Score, 0, len(p.Scores)),
		StartedAt:    p.StartedAt,
		EndedAt:      p.EndedAt,
	}
	for _, s := range p.Scores {
		out.Scores = append(out.Scores, mpdto.Score(s))
	}
	return out
}
