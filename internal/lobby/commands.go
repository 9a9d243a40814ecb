package lobby

import (
	"errors"
	"fmt"
	"strings"

	"github.com/park285/bancho-mp-bot/internal/msgcat"
	"github.com/park285/bancho-mp-bot/internal/sendq"
)

var ErrNoSender = errors.New("lobby: no sender")

// Send posts text to this channel.
func (l *Lobby) Send(text string) (*sendq.Pending, error) {
	if l.opts.Sender == nil {
		return nil, ErrNoSender
	}
	return l.opts.Sender.Send(l.name, text)
}

// Leave parts the channel.
func (l *Lobby) Leave() (*sendq.Pending, error) {
	if l.opts.Sender == nil {
		return nil, ErrNoSender
	}
	return l.opts.Sender.Leave(l.name)
}

// Command renders the catalog entry key with data and posts it here.
func (l *Lobby) Command(key string, data any) (*sendq.Pending, error) {
	text, err := l.opts.Commands.Render(key, data)
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", key, err)
	}
	return l.Send(text)
}

type args map[string]any

func (l *Lobby) RequestSettings() (*sendq.Pending, error) {
	return l.Command(msgcat.KeySettings, nil)
}

func (l *Lobby) SetName(title string) (*sendq.Pending, error) {
	return l.Command("mp.name", args{"Title": title})
}

func (l *Lobby) Invite(user string) (*sendq.Pending, error) {
	return l.Command("mp.invite", args{"User": user})
}

func (l *Lobby) SetHost(user string) (*sendq.Pending, error) {
	return l.Command("mp.host", args{"User": user})
}

func (l *Lobby) ClearHost() (*sendq.Pending, error) { return l.Command("mp.clearhost", nil) }
func (l *Lobby) Lock() (*sendq.Pending, error)      { return l.Command("mp.lock", nil) }
func (l *Lobby) Unlock() (*sendq.Pending, error)    { return l.Command("mp.unlock", nil) }
func (l *Lobby) AbortTimer() (*sendq.Pending, error) {
	return l.Command("mp.aborttimer", nil)
}
func (l *Lobby) Abort() (*sendq.Pending, error)      { return l.Command("mp.abort", nil) }
func (l *Lobby) CloseMatch() (*sendq.Pending, error) { return l.Command("mp.close", nil) }

func (l *Lobby) SetSize(size int) (*sendq.Pending, error) {
	return l.Command("mp.size", args{"Size": size})
}

// SetMatch issues "!mp set". winCondition and size are omitted when zero.
func (l *Lobby) SetMatch(teamMode, winCondition, size int) (*sendq.Pending, error) {
	return l.Command("mp.set", args{"TeamMode": teamMode, "WinCondition": winCondition, "Size": size})
}

// Move takes a zero-based slot index.
func (l *Lobby) Move(user string, slot int) (*sendq.Pending, error) {
	return l.Command("mp.move", args{"User": user, "Slot": slot + 1})
}

func (l *Lobby) SetTeam(user, team string) (*sendq.Pending, error) {
	return l.Command("mp.team", args{"User": user, "Team": strings.ToLower(team)})
}

// SetMap changes the beatmap; gameMode is omitted when empty.
func (l *Lobby) SetMap(beatmapID int64, gameMode string) (*sendq.Pending, error) {
	return l.Command("mp.map", args{"BeatmapID": beatmapID, "GameMode": gameMode})
}

// SetMods takes mod acronyms or names ("HD", "Freemod").
func (l *Lobby) SetMods(mods ...string) (*sendq.Pending, error) {
	return l.Command("mp.mods", args{"Mods": strings.Join(mods, " ")})
}

// Start starts the match, after a countdown when seconds > 0.
func (l *Lobby) Start(seconds int) (*sendq.Pending, error) {
	return l.Command("mp.start", args{"Seconds": seconds})
}

func (l *Lobby) Kick(user string) (*sendq.Pending, error) {
	return l.Command("mp.kick", args{"User": user})
}

func (l *Lobby) Ban(user string) (*sendq.Pending, error) {
	return l.Command("mp.ban", args{"User": user})
}

// SetPassword sets the password, or removes it when password is empty.
func (l *Lobby) SetPassword(password string) (*sendq.Pending, error) {
	return l.Command("mp.password", args{"Password": password})
}

func (l *Lobby) AddRef(user string) (*sendq.Pending, error) {
	return l.Command("mp.addref", args{"User": user})
}

func (l *Lobby) RemoveRef(user string) (*sendq.Pending, error) {
	return l.Command("mp.removeref", args{"User": user})
}
