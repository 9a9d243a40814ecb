package lobby

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/park285/bancho-mp-bot/internal/event"
	"github.com/park285/bancho-mp-bot/internal/msgcat"
	"github.com/park285/bancho-mp-bot/internal/obslog"
	"github.com/park285/bancho-mp-bot/internal/sendq"
	"go.uber.org/zap"
)

// Sender is the outbound side a lobby needs from the session.
type Sender interface {
	Send(target, text string) (*sendq.Pending, error)
	Leave(channel string) (*sendq.Pending, error)
}

type Options struct {
	Sender Sender
	// Nick is the session's own username, used for the referee flag.
	Nick string
	// Assistant is the account whose lines are classified. Defaults to
	// BanchoBot.
	Assistant string
	Commands  *msgcat.Catalog
	Logger    *zap.Logger
}

// Events are the typed streams a lobby publishes. Handlers run on the
// session's receive goroutine.
type Events struct {
	Chat           event.Bus[ChatLine]
	Announcement   event.Bus[Announcement]
	MembersUpdated event.Bus[[]string]
	Settled        event.Bus[[]Player]
	// Emptied fires on every "Players: 0" report.
	Emptied event.Bus[*Lobby]
}

// Lobby is the per-channel aggregate. Any channel tracks membership; a
// "#mp_<id>" channel additionally folds assistant announcements into a room
// model. Mutation happens on the session's receive goroutine; readers on
// other goroutines only see copies.
type Lobby struct {
	name        string
	multiplayer bool
	opts        Options
	log         *zap.Logger

	Events Events

	mu           sync.Mutex
	matchID      int64
	title        string
	teamMode     string
	winCondition string
	mods         []string
	freemod      bool
	size         int
	beatmap      Beatmap
	gameMode     string
	referees     map[string]string // lower(name) -> name
	amReferee    bool
	host         string
	slots        []*Player
	expected     int
	countKnown   bool
	dumped       int
	reported     map[int]bool // slots named by the dump in progress
	settled      bool
	locked       bool
	hasPassword  bool
	inProgress   bool
	createdAt    time.Time
	members      map[string]string
	namesBuf     []string
	waiters      []*event.Signal[[]Player]
}

// New creates the lobby for channel name. A multiplayer lobby immediately
// asks the assistant for a settings dump.
func New(name string, opts Options) *Lobby {
	if opts.Assistant == "" {
		opts.Assistant = "BanchoBot"
	}
	if opts.Commands == nil {
		opts.Commands = msgcat.Default()
	}
	if opts.Logger == nil {
		opts.Logger = obslog.L()
	}
	name = channelName(name)
	l := &Lobby{
		name:     name,
		opts:     opts,
		log:      opts.Logger.With(zap.String("channel", name)),
		size:     DefaultSize,
		slots:    make([]*Player, DefaultSize),
		referees: make(map[string]string),
		members:  make(map[string]string),
	}
	if id, ok := ParseMatchID(name); ok {
		l.multiplayer = true
		l.matchID = id
		if _, err := l.RequestSettings(); err != nil {
			l.log.Warn("lobby_bootstrap_settings_failed", zap.Error(err))
		}
	}
	return l
}

func channelName(name string) string {
	name = strings.TrimSpace(name)
	if !strings.HasPrefix(name, "#") {
		name = "#" + name
	}
	return name
}

func (l *Lobby) Name() string        { return l.name }
func (l *Lobby) IsMultiplayer() bool { return l.multiplayer }

func (l *Lobby) MatchID() int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.matchID
}

func (l *Lobby) Title() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.title
}

// AmReferee reports whether the session's own user was announced as a
// referee of this match.
func (l *Lobby) AmReferee() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.amReferee
}

// Snapshot copies the current state.
func (l *Lobby) Snapshot() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	st := State{
		Name:         l.name,
		Multiplayer:  l.multiplayer,
		MatchID:      l.matchID,
		Title:        l.title,
		TeamMode:     l.teamMode,
		WinCondition: l.winCondition,
		Mods:         append([]string(nil), l.mods...),
		Freemod:      l.freemod,
		Size:         l.size,
		Beatmap:      l.beatmap,
		GameMode:     l.gameMode,
		Host:         l.host,
		Players:      l.playersLocked(),
		Expected:     l.expected,
		Settled:      l.settled,
		Locked:       l.locked,
		HasPassword:  l.hasPassword,
		InProgress:   l.inProgress,
		CreatedAt:    l.createdAt,
		Members:      sortedValues(l.members),
		Referees:     sortedValues(l.referees),
	}
	return st
}

// Slots returns a copy of the slot array; nil entries are empty slots.
func (l *Lobby) Slots() []*Player {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]*Player, len(l.slots))
	for i, p := range l.slots {
		if p != nil {
			c := p.clone()
			out[i] = &c
		}
	}
	return out
}

// Members lists the channel members from the last completed user list,
// adjusted by joins and parts seen since.
func (l *Lobby) Members() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return sortedValues(l.members)
}

func (l *Lobby) playersLocked() []Player {
	out := make([]Player, 0, len(l.slots))
	for _, p := range l.slots {
		if p != nil {
			out = append(out, p.clone())
		}
	}
	return out
}

func (l *Lobby) countLocked() int {
	n := 0
	for _, p := range l.slots {
		if p != nil {
			n++
		}
	}
	return n
}

func sortedValues(m map[string]string) []string {
	out := make([]string, 0, len(m))
	for _, v := range m {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// HandleJoin records a channel JOIN by nick.
func (l *Lobby) HandleJoin(nick string) {
	if nick == "" {
		return
	}
	l.mu.Lock()
	l.members[strings.ToLower(nick)] = nick
	l.mu.Unlock()
}

// HandlePart records a channel PART by nick.
func (l *Lobby) HandlePart(nick string) {
	l.mu.Lock()
	delete(l.members, strings.ToLower(nick))
	l.mu.Unlock()
}

// HandleNames buffers one user list line (353). Channel mode prefixes are
// stripped.
func (l *Lobby) HandleNames(names []string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, n := range names {
		n = strings.TrimLeft(n, "@+")
		if n != "" {
			l.namesBuf = append(l.namesBuf, n)
		}
	}
}

// HandleEndOfNames flushes the buffered user list (366) into the member set.
func (l *Lobby) HandleEndOfNames() {
	l.mu.Lock()
	l.members = make(map[string]string, len(l.namesBuf))
	for _, n := range l.namesBuf {
		l.members[strings.ToLower(n)] = n
	}
	l.namesBuf = nil
	members := sortedValues(l.members)
	l.mu.Unlock()
	l.Events.MembersUpdated.Publish(members)
}

// HandleTopic takes the 332 topic ("multiplayer game #<id>") and adopts the
// id when the channel name did not carry it.
func (l *Lobby) HandleTopic(topic string) {
	i := strings.LastIndexByte(topic, '#')
	if i < 0 {
		return
	}
	id, ok := ParseMatchID("#mp_" + strings.TrimSpace(topic[i+1:]))
	if !ok {
		return
	}
	l.mu.Lock()
	if l.matchID != id {
		l.log.Debug("lobby_match_id_from_topic", zap.Int64("old", l.matchID), zap.Int64("new", id))
		l.matchID = id
	}
	l.mu.Unlock()
}

// HandleCreatedAt takes the 333 creation time.
func (l *Lobby) HandleCreatedAt(t time.Time) {
	l.mu.Lock()
	l.createdAt = t
	l.mu.Unlock()
}

// HandleChat takes one PRIVMSG addressed to this channel. Lines from the
// assistant in a multiplayer channel are classified and folded into state.
func (l *Lobby) HandleChat(from, text string) {
	l.Events.Chat.Publish(ChatLine{Lobby: l, From: from, Text: text})
	if !l.multiplayer || !strings.EqualFold(from, l.opts.Assistant) {
		return
	}
	l.HandleAnnouncement(text)
}
