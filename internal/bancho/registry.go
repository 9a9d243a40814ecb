package bancho

import (
	"context"
	"sort"
	"strings"

	"github.com/park285/bancho-mp-bot/internal/event"
	"github.com/park285/bancho-mp-bot/internal/irc"
	"github.com/park285/bancho-mp-bot/internal/lobby"
)

// Channel returns the registered lobby for name ('#' optional), or nil.
func (c *Client) Channel(name string) *lobby.Lobby {
	c.chMu.RLock()
	defer c.chMu.RUnlock()
	return c.channels[strings.ToLower(irc.ChannelName(name))]
}

// Channels lists the registered lobbies ordered by name.
func (c *Client) Channels() []*lobby.Lobby {
	c.chMu.RLock()
	out := make([]*lobby.Lobby, 0, len(c.channels))
	for _, l := range c.channels {
		out = append(out, l)
	}
	c.chMu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}

func (c *Client) removeChannel(name string) *lobby.Lobby {
	key := strings.ToLower(irc.ChannelName(name))
	c.chMu.Lock()
	l := c.channels[key]
	delete(c.channels, key)
	c.chMu.Unlock()
	if l != nil {
		c.waitMu.Lock()
		delete(c.claimed, l)
		c.waitMu.Unlock()
	}
	return l
}

// JoinWait joins channel and waits for the server to confirm it. A channel
// the server does not know fails with ErrNoSuchChannel.
func (c *Client) JoinWait(ctx context.Context, channel string) (*lobby.Lobby, error) {
	name := irc.ChannelName(channel)
	key := strings.ToLower(name)
	sig := event.NewSignal[*lobby.Lobby]()

	c.waitMu.Lock()
	c.joins[key] = append(c.joins[key], sig)
	c.waitMu.Unlock()

	if _, err := c.Join(name); err != nil {
		c.dropJoin(key, sig)
		return nil, err
	}
	l, err := sig.Wait(ctx)
	if err != nil {
		c.dropJoin(key, sig)
		return nil, err
	}
	return l, nil
}

func (c *Client) dropJoin(key string, sig *event.Signal[*lobby.Lobby]) {
	c.waitMu.Lock()
	defer c.waitMu.Unlock()
	list := c.joins[key]
	for i, s := range list {
		if s == sig {
			list = append(list[:i], list[i+1:]...)
			break
		}
	}
	if len(list) == 0 {
		delete(c.joins, key)
	} else {
		c.joins[key] = list
	}
}

func (c *Client) takeJoins(name string) []*event.Signal[*lobby.Lobby] {
	key := strings.ToLower(irc.ChannelName(name))
	c.waitMu.Lock()
	defer c.waitMu.Unlock()
	list := c.joins[key]
	delete(c.joins, key)
	return list
}

func (c *Client) resolveJoin(name string, l *lobby.Lobby) {
	for _, sig := range c.takeJoins(name) {
		sig.Resolve(l)
	}
}

func (c *Client) rejectJoin(name string, err error) {
	for _, sig := range c.takeJoins(name) {
		sig.Reject(err)
	}
}
