package recorder

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/park285/bancho-mp-bot/internal/announce"
	"github.com/park285/bancho-mp-bot/internal/domain"
	"github.com/park285/bancho-mp-bot/internal/lobby"
	"github.com/park285/bancho-mp-bot/pkg/mpdto"
)

func (r *Recorder) onAnnouncement(a lobby.Announcement) {
	l := a.Lobby
	r.publish(l, &mpdto.Event{Type: mpdto.EventAnnouncement, Kind: a.Event.Kind().String(), Text: a.Text})

	switch ev := a.Event.(type) {
	case announce.Notice:
		switch ev.K {
		case announce.KindMatchStarted:
			r.startPlay(l)
		case announce.KindMatchFinished:
			r.finishPlay(l, false)
		case announce.KindMatchAborted:
			r.finishPlay(l, true)
		}
	case announce.PlayerFinished:
		r.addScore(l, ev)
	}
}

func (r *Recorder) startPlay(l *lobby.Lobby) {
	st := l.Snapshot()
	p := &domain.Play{
		PlayUUID:     uuid.NewString(),
		MatchID:      st.MatchID,
		Channel:      st.Name,
		Title:        st.Title,
		BeatmapID:    st.Beatmap.ID,
		BeatmapName:  st.Beatmap.Name,
		GameMode:     st.GameMode,
		TeamMode:     st.TeamMode,
		WinCondition: st.WinCondition,
		Mods:         append([]string(nil), st.Mods...),
		StartedAt:    r.opts.Now(),
	}
	r.mu.Lock()
	prev := r.plays[st.Name]
	r.plays[st.Name] = p
	r.mu.Unlock()
	if prev != nil {
		r.log.Warn("recorder_play_replaced", zap.String("channel", st.Name), zap.String("play_id", prev.PlayUUID))
	}
}

func (r *Recorder) addScore(l *lobby.Lobby, ev announce.PlayerFinished) {
	score := domain.PlayScore{Username: ev.Username, Slot: -1, Score: ev.Score, Passed: ev.Passed}
	for _, pl := range l.Snapshot().Players {
		if strings.EqualFold(pl.Username, ev.Username) {
			score.Username = pl.Username
			score.Slot = pl.Slot
			score.Team = pl.Team
			score.Mods = append([]string(nil), pl.Mods...)
			break
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	p := r.plays[l.Name()]
	if p == nil {
		return
	}
	for i := range p.Scores {
		if strings.EqualFold(p.Scores[i].Username, score.Username) {
			p.Scores[i] = score
			return
		}
	}
	p.Scores = append(p.Scores, score)
}

func (r *Recorder) finishPlay(l *lobby.Lobby, aborted bool) {
	r.mu.Lock()
	p := r.plays[l.Name()]
	delete(r.plays, l.Name())
	r.mu.Unlock()
	if p == nil {
		return
	}
	p.Aborted = aborted
	p.EndedAt = r.opts.Now()
	p.Duration = p.EndedAt.Sub(p.StartedAt)
	if p.Duration < 0 {
		p.Duration = 0
	}

	r.log.Info("recorder_play_finished",
		zap.String("channel", p.Channel),
		zap.String("play_id", p.PlayUUID),
		zap.Int("scores", len(p.Scores)),
		zap.Bool("aborted", aborted),
	)
	if r.opts.Results != nil {
		r.enqueue("save_play", func(ctx context.Context) error {
			_, err := r.opts.Results.SavePlay(ctx, p)
			return err
		})
	}
	if r.opts.Store != nil && p.MatchID != 0 {
		r.enqueue("append_play", func(ctx context.Context) error { return r.opts.Store.AppendPlay(ctx, p.MatchID, p.PlayUUID) })
	}
	r.publish(l, &mpdto.Event{Type: mpdto.EventPlayFinished, Play: PlayResultOf(p)})
}
