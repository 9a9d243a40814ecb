package mpdto

import "time"

// Event types relayed to the egress.
const (
	EventAnnouncement = "announcement"
	EventSnapshot     = "snapshot"
	EventPlayFinished = "play_finished"
	EventLobbyCreated = "lobby_created"
	EventLobbyClosed  = "lobby_closed"
)

// Event is the envelope written to the webhook or WebSocket relay.
type Event struct {
	ID       string         `json:"id"`
	Type     string         `json:"type"`
	Channel  string         `json:"channel"`
	MatchID  int64          `json:"match_id,omitempty"`
	Kind     string         `json:"kind,omitempty"`
	Text     string         `json:"text,omitempty"`
	Snapshot *LobbySnapshot `json:"snapshot,omitempty"`
	Play     *PlayResult    `json:"play,omitempty"`
	At       time.Time      `json:"at"`
}

// Command is an inbound frame from the WebSocket relay. Say posts Text to
// Channel; settings asks the lobby for a fresh dump.
type Command struct {
	Type    string `json:"type"`
	Channel string `json:"channel"`
	Text    string `json:"text,omitempty"`
}

const (
	CommandSay      = "say"
	CommandSettings = "settings"
	CommandJoin     = "join"
	CommandPart     = "part"
)
