package lobby

import (
	"strconv"
	"strings"
	"time"

	"github.com/park285/bancho-mp-bot/internal/announce"
)

// DefaultSize is the slot count of a freshly made match.
const DefaultSize = 16

const (
	TeamBlue = "blue"
	TeamRed  = "red"
)

// Player is the fixed-shape record held in one slot. Username is the
// identity; Slot mirrors the index of the slot holding the record.
type Player struct {
	Slot     int
	UserID   int64 // 0 until a settings dump reported it
	Username string
	IsHost   bool
	Ready    bool
	Team     string
	Mods     []string
}

func (p Player) clone() Player {
	p.Mods = append([]string(nil), p.Mods...)
	return p
}

// applyStatus merges one settings dump line into p.
func (p *Player) applyStatus(ev announce.SlotStatus) {
	p.Username = ev.Username
	p.UserID = ev.UserID
	p.Ready = ev.Ready
	p.IsHost = ev.Host
	p.Team = ev.Team
	p.Mods = append([]string(nil), ev.Mods...)
}

// applyJoin merges a join announcement. The team is only overwritten when
// the announcement carries one.
func (p *Player) applyJoin(ev announce.PlayerJoined) {
	p.Username = ev.Username
	if ev.Team != "" {
		p.Team = ev.Team
	}
	p.Ready = false
}

type Beatmap struct {
	ID   int64
	Name string
}

// State is a point-in-time copy of a lobby. Players holds the occupied slots
// in slot order.
type State struct {
	Name         string
	Multiplayer  bool
	MatchID      int64
	Title        string
	TeamMode     string
	WinCondition string
	Mods         []string
	Freemod      bool
	Size         int
	Beatmap      Beatmap
	GameMode     string
	Referees     []string
	Host         string
	Players      []Player
	Expected     int
	Settled      bool
	Locked       bool
	HasPassword  bool
	InProgress   bool
	Members      []string
	CreatedAt    time.Time
}

// Announcement is one classified assistant line in a multiplayer channel.
type Announcement struct {
	Lobby *Lobby
	Event announce.Event
	Text  string
}

// ChatLine is any channel message, announcements included.
type ChatLine struct {
	Lobby *Lobby
	From  string
	Text  string
}

// ParseMatchID extracts the id from a "#mp_<id>" channel name.
func ParseMatchID(name string) (int64, bool) {
	rest, ok := strings.CutPrefix(name, "#mp_")
	if !ok || rest == "" {
		return 0, false
	}
	id, err := strconv.ParseInt(rest, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// IsMultiplayer reports whether name follows the multiplayer channel
// convention.
func IsMultiplayer(name string) bool {
	_, ok := ParseMatchID(name)
	return ok
}
