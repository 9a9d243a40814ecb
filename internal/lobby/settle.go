package lobby

import (
	"context"
	"errors"

	"github.com/park285/bancho-mp-bot/internal/event"
)

var ErrNotMultiplayer = errors.New("lobby: not a multiplayer channel")

// Players returns a consistent roster. When the locally held roster already
// matches the last announced player count it is returned at once; otherwise a
// settings dump is requested and the call waits until the dump completes.
// There is no built-in deadline: ctx bounds the wait, and an abandoned wait
// does not retract the request already sent.
func (l *Lobby) Players(ctx context.Context) ([]Player, error) {
	if !l.multiplayer {
		return nil, ErrNotMultiplayer
	}
	l.mu.Lock()
	if l.countKnown && l.expected == 0 {
		l.mu.Unlock()
		return []Player{}, nil
	}
	if l.countKnown && l.countLocked() == l.expected {
		out := l.playersLocked()
		l.mu.Unlock()
		return out, nil
	}
	sig := event.NewSignal[[]Player]()
	l.waiters = append(l.waiters, sig)
	l.mu.Unlock()

	if _, err := l.RequestSettings(); err != nil {
		l.dropWaiter(sig)
		return nil, err
	}
	players, err := sig.Wait(ctx)
	if err != nil {
		l.dropWaiter(sig)
		return nil, err
	}
	return players, nil
}

func (l *Lobby) dropWaiter(sig *event.Signal[[]Player]) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i, w := range l.waiters {
		if w == sig {
			l.waiters = append(l.waiters[:i], l.waiters[i+1:]...)
			return
		}
	}
}

// Settled reports whether the last settings dump completed and no player
// count has been announced since.
func (l *Lobby) Settled() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.settled
}
