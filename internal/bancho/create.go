package bancho

import (
	"context"
	"fmt"

	"github.com/park285/bancho-mp-bot/internal/event"
	"github.com/park285/bancho-mp-bot/internal/lobby"
	"github.com/park285/bancho-mp-bot/internal/msgcat"
	"go.uber.org/zap"
)

type createWaiter struct {
	title string
	sig   *event.Signal[*lobby.Lobby]
}

// CreateMultiplayer asks the assistant to make a match titled title and waits
// for the new lobby to report itself empty. The only link between request and
// lobby is the title: requests are matched oldest first, so two concurrent
// requests with the same title may each receive the other's lobby.
func (c *Client) CreateMultiplayer(ctx context.Context, title string) (*lobby.Lobby, error) {
	if hasLineBreak(title) {
		return nil, ErrLineBreak
	}
	text, err := c.commands.Render(msgcat.KeyMake, map[string]any{"Title": title})
	if err != nil {
		return nil, fmt.Errorf("render make: %w", err)
	}
	w := &createWaiter{title: title, sig: event.NewSignal[*lobby.Lobby]()}

	c.waitMu.Lock()
	c.creates = append(c.creates, w)
	c.waitMu.Unlock()

	if _, err := c.PM(c.cfg.Assistant, text); err != nil {
		c.dropCreate(w)
		return nil, err
	}
	l, err := w.sig.Wait(ctx)
	if err != nil {
		c.dropCreate(w)
		return nil, err
	}
	return l, nil
}

func (c *Client) dropCreate(w *createWaiter) {
	c.waitMu.Lock()
	defer c.waitMu.Unlock()
	for i, cw := range c.creates {
		if cw == w {
			c.creates = append(c.creates[:i], c.creates[i+1:]...)
			return
		}
	}
}

// onLobbyEmptied pairs an empty-room report with the oldest creation request
// of the same title. A lobby is handed out at most once.
func (c *Client) onLobbyEmptied(l *lobby.Lobby) {
	title := l.Title()
	c.waitMu.Lock()
	if _, done := c.claimed[l]; done {
		c.waitMu.Unlock()
		return
	}
	var w *createWaiter
	for i, cw := range c.creates {
		if cw.title == title {
			w = cw
			c.creates = append(c.creates[:i], c.creates[i+1:]...)
			break
		}
	}
	if w != nil {
		c.claimed[l] = struct{}{}
	}
	c.waitMu.Unlock()

	if w == nil {
		return
	}
	w.sig.Resolve(l)
	c.log.Info("bancho_multiplayer_created", zap.String("channel", l.Name()), zap.String("title", title))
	c.Events.MultiplayerCreated.Publish(l)
}

// rejectWaiters fails every pending join and creation request.
func (c *Client) rejectWaiters(err error) {
	c.waitMu.Lock()
	joins := c.joins
	creates := c.creates
	c.joins = make(map[string][]*event.Signal[*lobby.Lobby])
	c.creates = nil
	c.claimed = make(map[*lobby.Lobby]struct{})
	c.waitMu.Unlock()

	for _, list := range joins {
		for _, sig := range list {
			sig.Reject(err)
		}
	}
	for _, w := range creates {
		w.sig.Reject(err)
	}
}
