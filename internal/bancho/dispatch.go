package bancho

import (
	"strconv"
	"strings"
	"time"

	"github.com/park285/bancho-mp-bot/internal/irc"
	"github.com/park285/bancho-mp-bot/internal/lobby"
	"go.uber.org/zap"
)

const spectatorChannel = "#spectator"

// handleLine decodes and routes one line on the receive goroutine. A non-nil
// return is fatal for the session.
func (c *Client) handleLine(s *session, line string) error {
	if token, ok := irc.PingToken(line); ok {
		if err := c.write(s, irc.Pong(token)); err != nil {
			return err
		}
		return nil
	}

	msg := irc.Parse(line)
	c.Events.RawLine.Publish(msg)

	switch msg.Type {
	case irc.CmdQuit:
	case irc.ErrPasswdMismatch:
		return ErrBadAuth
	case irc.RplWelcome:
		c.onWelcome(s)
	case irc.CmdJoin:
		c.onJoin(msg)
	case irc.CmdPart:
		c.onPart(msg)
	case irc.CmdPrivmsg:
		c.onPrivmsg(msg)
	case irc.ErrNoSuchChannel:
		c.onNoSuchChannel(msg)
	case irc.ErrNoSuchNick:
		nick := msg.Arg(1)
		c.log.Debug("bancho_no_such_nick", zap.String("nick", nick))
		c.Events.NickNotFound.Publish(NickNotFound{Nick: nick, Err: ErrNoSuchNick})
	case irc.RplTopic:
		if l := c.Channel(msg.Arg(1)); l != nil {
			l.HandleTopic(msg.Trailing())
		}
	case irc.RplTopicWhoTime:
		if l := c.Channel(msg.Arg(1)); l != nil {
			if sec, err := strconv.ParseInt(msg.Arg(3), 10, 64); err == nil {
				l.HandleCreatedAt(time.Unix(sec, 0))
			}
		}
	case irc.RplNamReply:
		// :cho.ppy.sh 353 nick = #mp_1 :a b c
		if l := c.Channel(msg.Arg(2)); l != nil {
			l.HandleNames(strings.Fields(msg.Trailing()))
		}
	case irc.RplEndOfNames:
		if l := c.Channel(msg.Arg(1)); l != nil {
			l.HandleEndOfNames()
		}
	default:
		c.Events.Message.Publish(msg)
	}
	return nil
}

func (c *Client) onWelcome(s *session) {
	c.setState(StateReady)
	nick := c.Nick()
	s.queue.Start(func(line string) error { return c.write(s, line) })
	s.ready.Resolve(nick)
	c.log.Info("bancho_ready", zap.String("nick", nick))
	c.Events.Ready.Publish(nick)
}

// IsSelf reports whether nick is the authenticated user.
func (c *Client) IsSelf(nick string) bool {
	own := c.Nick()
	return own != "" && strings.EqualFold(nick, own)
}

func (c *Client) onJoin(msg irc.Message) {
	name := irc.ChannelName(msg.Arg(0))
	nick := msg.Nick()
	l := c.ensureChannel(name)
	l.HandleJoin(nick)
	if c.IsSelf(nick) {
		c.log.Info("bancho_channel_join", zap.String("channel", name))
		c.resolveJoin(name, l)
	}
	c.Events.ChannelJoin.Publish(ChannelEvent{Name: name, Nick: nick, Lobby: l})
}

// onPart drops the channel whoever left; a later line for it recreates the
// lobby, which re-requests the settings dump.
func (c *Client) onPart(msg irc.Message) {
	name := irc.ChannelName(msg.Arg(0))
	nick := msg.Nick()
	l := c.removeChannel(name)
	if l != nil {
		l.HandlePart(nick)
	}
	if c.IsSelf(nick) {
		c.log.Info("bancho_channel_leave", zap.String("channel", name))
	}
	c.Events.ChannelLeave.Publish(ChannelEvent{Name: name, Nick: nick, Lobby: l})
}

func (c *Client) onNoSuchChannel(msg irc.Message) {
	// :cho.ppy.sh 403 nick #mp_1 :No such channel #mp_1
	name := msg.Arg(1)
	l := c.removeChannel(name)
	c.rejectJoin(name, ErrNoSuchChannel)
	c.log.Debug("bancho_no_such_channel", zap.String("channel", name))
	c.Events.ChannelLeave.Publish(ChannelEvent{Name: name, Lobby: l, Err: ErrNoSuchChannel})
}

func (c *Client) onPrivmsg(msg irc.Message) {
	from := msg.Nick()
	target := msg.Arg(0)
	chat := Chat{From: from, Target: target, Text: msg.Trailing(), Raw: msg}

	if c.IsSelf(target) {
		c.Events.PrivateMessage.Publish(chat)
		return
	}
	if !strings.HasPrefix(target, "#") {
		return
	}
	l := c.ensureChannel(target)
	chat.Channel = l
	l.HandleChat(from, chat.Text)
	switch {
	case l.IsMultiplayer():
		c.Events.Multiplayer.Publish(chat)
	case strings.EqualFold(target, spectatorChannel):
		c.Events.Spectator.Publish(chat)
	}
}

// ensureChannel returns the registered lobby for name, creating it when
// missing.
func (c *Client) ensureChannel(name string) *lobby.Lobby {
	name = irc.ChannelName(name)
	key := strings.ToLower(name)
	c.chMu.Lock()
	if l, ok := c.channels[key]; ok {
		c.chMu.Unlock()
		return l
	}
	l := lobby.New(name, lobby.Options{
		Sender:    c,
		Nick:      c.Nick(),
		Assistant: c.cfg.Assistant,
		Commands:  c.commands,
		Logger:    c.log,
	})
	c.channels[key] = l
	c.chMu.Unlock()

	if l.IsMultiplayer() {
		l.Events.Emptied.Subscribe(c.onLobbyEmptied)
	}
	c.Events.ChannelCreated.Publish(l)
	return l
}
