package bancho

import (
	"github.com/park285/bancho-mp-bot/internal/event"
	"github.com/park285/bancho-mp-bot/internal/irc"
	"github.com/park285/bancho-mp-bot/internal/lobby"
)

// Chat is an addressed PRIVMSG. Channel is nil for private messages.
type Chat struct {
	Channel *lobby.Lobby
	From    string
	Target  string
	Text    string
	Raw     irc.Message
}

// ChannelEvent reports a join or leave. Err is ErrNoSuchChannel when the
// server rejected the channel.
type ChannelEvent struct {
	Name  string
	Nick  string
	Lobby *lobby.Lobby
	Err   error
}

type NickNotFound struct {
	Nick string
	Err  error
}

// Events are the client's typed streams. Handlers run on the receive
// goroutine, except Sent which runs on the send governor's goroutine.
type Events struct {
	Connected event.Bus[string]
	// Ready carries the authenticated nick.
	Ready event.Bus[string]
	// Disconnected carries the fatal error, or nil after Close.
	Disconnected event.Bus[error]
	Error        event.Bus[error]
	RawLine      event.Bus[irc.Message]
	// Message receives decoded lines that no other route consumed.
	Message        event.Bus[irc.Message]
	PrivateMessage event.Bus[Chat]
	Multiplayer    event.Bus[Chat]
	Spectator      event.Bus[Chat]
	// ChannelCreated fires when a lobby is registered, before it sees any
	// line.
	ChannelCreated     event.Bus[*lobby.Lobby]
	ChannelJoin        event.Bus[ChannelEvent]
	ChannelLeave       event.Bus[ChannelEvent]
	NickNotFound       event.Bus[NickNotFound]
	Sent               event.Bus[string]
	MultiplayerCreated event.Bus[*lobby.Lobby]
}
