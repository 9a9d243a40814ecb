package lobby

import (
	"strings"

	"github.com/park285/bancho-mp-bot/internal/announce"
	"github.com/park285/bancho-mp-bot/internal/event"
	"go.uber.org/zap"
)

// effects collects what a transition released, so that signals and events
// fire after the state lock is dropped.
type effects struct {
	release []Player
	waiters bool
	settled bool
	emptied bool
}

// HandleAnnouncement classifies one assistant line and applies it. Text that
// matches no template is ignored.
func (l *Lobby) HandleAnnouncement(text string) {
	ev, ok := announce.Classify(text)
	if !ok {
		return
	}
	l.mu.Lock()
	fx := l.apply(ev)
	var waiters []*event.Signal[[]Player]
	if fx.waiters {
		waiters, l.waiters = l.waiters, nil
	}
	l.mu.Unlock()

	l.Events.Announcement.Publish(Announcement{Lobby: l, Event: ev, Text: text})
	for _, w := range waiters {
		w.Resolve(clonePlayers(fx.release))
	}
	if fx.settled {
		l.Events.Settled.Publish(clonePlayers(fx.release))
	}
	if fx.emptied {
		l.Events.Emptied.Publish(l)
	}
}

func clonePlayers(in []Player) []Player {
	out := make([]Player, len(in))
	for i, p := range in {
		out[i] = p.clone()
	}
	return out
}

func (l *Lobby) apply(ev announce.Event) effects {
	var fx effects
	switch e := ev.(type) {
	case announce.RoomTitle:
		l.title = e.Title
		if e.MatchID != 0 && e.MatchID != l.matchID {
			l.log.Debug("lobby_match_id_mismatch", zap.Int64("name_id", l.matchID), zap.Int64("announced_id", e.MatchID))
			l.matchID = e.MatchID
		}
	case announce.TitleChanged:
		l.title = e.Title
	case announce.TeamMode:
		l.teamMode = e.TeamMode
		l.winCondition = e.WinCondition
	case announce.Mods:
		l.mods = append([]string(nil), e.Mods...)
		l.freemod = e.Freemod
	case announce.GameMode:
		l.gameMode = e.Mode
	case announce.Beatmap:
		l.beatmap = Beatmap{ID: e.ID, Name: e.Name}
	case announce.MatchSize:
		l.resize(e.Size)
	case announce.MatchSettings:
		if e.Size > 0 {
			l.resize(e.Size)
		}
		l.teamMode = e.TeamMode
		if e.WinCondition != "" {
			l.winCondition = e.WinCondition
		}
	case announce.PlayerCount:
		l.expected = e.Count
		l.countKnown = true
		l.dumped = 0
		l.settled = false
		l.reported = make(map[int]bool, e.Count)
		if e.Count == 0 {
			l.clearSlots()
			l.reported = nil
			l.settled = true
			fx.release = []Player{}
			fx.waiters = true
			fx.emptied = true
		}
	case announce.PlayerJoined:
		l.join(e)
	case announce.PlayerMoved:
		l.move(e.Username, e.Slot)
	case announce.User:
		l.applyUser(e)
	case announce.TeamChanged:
		if p := l.find(e.Username); p != nil {
			p.Team = e.Team
		}
	case announce.SlotStatus:
		l.applyStatus(e)
		l.dumped++
		if l.reported != nil {
			l.reported[e.Slot] = true
		}
		if l.countKnown && l.dumped >= l.expected {
			l.dumped = 0
			l.pruneUnreported()
			l.settled = true
			fx.release = l.playersLocked()
			fx.waiters = true
			fx.settled = true
		}
	case announce.PlayerFinished:
		if p := l.find(e.Username); p != nil {
			p.Ready = false
		}
	case announce.Notice:
		l.applyNotice(e.K)
	}
	return fx
}

func (l *Lobby) applyUser(e announce.User) {
	switch e.K {
	case announce.KindPlayerLeft:
		l.leave(e.Username)
	case announce.KindHostChanged:
		l.setHost(e.Username)
	case announce.KindRefereeAdded:
		l.referees[strings.ToLower(e.Username)] = e.Username
		if strings.EqualFold(e.Username, l.opts.Nick) {
			l.amReferee = true
		}
	case announce.KindRefereeRemoved:
		delete(l.referees, strings.ToLower(e.Username))
		if strings.EqualFold(e.Username, l.opts.Nick) {
			l.amReferee = false
		}
	}
}

func (l *Lobby) applyNotice(k announce.Kind) {
	switch k {
	case announce.KindMatchStarted:
		l.inProgress = true
		for _, p := range l.slots {
			if p != nil {
				p.Ready = false
			}
		}
	case announce.KindMatchFinished, announce.KindMatchAborted:
		l.inProgress = false
	case announce.KindAllReady:
		for _, p := range l.slots {
			if p != nil {
				p.Ready = true
			}
		}
	case announce.KindPasswordChanged:
		l.hasPassword = true
	case announce.KindPasswordRemoved:
		l.hasPassword = false
	case announce.KindSlotsLocked:
		l.locked = true
	case announce.KindSlotsUnlocked:
		l.locked = false
	case announce.KindHostCleared:
		l.setHost("")
	}
}

// resize keeps the slot array at least as long as the match size.
func (l *Lobby) resize(size int) {
	if size <= 0 {
		return
	}
	l.size = size
	l.grow(size)
}

// grow lengthens the slot array without touching the announced size.
func (l *Lobby) grow(n int) {
	if n > len(l.slots) {
		grown := make([]*Player, n)
		copy(grown, l.slots)
		l.slots = grown
	}
}

// pruneUnreported drops every record the finished dump did not name. A dump
// without a preceding player count leaves the slots alone.
func (l *Lobby) pruneUnreported() {
	if l.reported == nil {
		return
	}
	for i, p := range l.slots {
		if p == nil || l.reported[i] {
			continue
		}
		l.log.Debug("lobby_dump_pruned", zap.String("user", p.Username), zap.Int("slot", i))
		l.slots[i] = nil
		if p.IsHost || strings.EqualFold(l.host, p.Username) {
			l.host = ""
		}
	}
	l.reported = nil
}

func (l *Lobby) inRange(slot int) bool { return slot >= 0 && slot < len(l.slots) }

func (l *Lobby) find(username string) *Player {
	for _, p := range l.slots {
		if p != nil && strings.EqualFold(p.Username, username) {
			return p
		}
	}
	return nil
}

func (l *Lobby) clearSlots() {
	for i := range l.slots {
		l.slots[i] = nil
	}
	l.host = ""
}

// place puts p at slot and returns the other record it evicted, if any.
func (l *Lobby) place(p *Player, slot int) *Player {
	old := l.slots[slot]
	if old == p {
		old = nil
	}
	if old != nil && old.IsHost {
		l.host = ""
	}
	if p.Slot != slot && l.inRange(p.Slot) && l.slots[p.Slot] == p {
		l.slots[p.Slot] = nil
	}
	p.Slot = slot
	l.slots[slot] = p
	return old
}

// evicted handles a join or move announced into a slot we still held for
// someone else. The server only fills free slots, so the old record is stale
// and its player is treated as having left.
func (l *Lobby) evicted(old *Player, by string) {
	if old == nil {
		return
	}
	l.log.Debug("lobby_slot_evicted", zap.String("user", old.Username), zap.String("by", by), zap.Int("slot", old.Slot))
	if l.expected > 0 {
		l.expected--
	}
}

func (l *Lobby) join(e announce.PlayerJoined) {
	if !l.inRange(e.Slot) {
		l.log.Debug("lobby_join_slot_out_of_range", zap.String("user", e.Username), zap.Int("slot", e.Slot))
		return
	}
	p := l.find(e.Username)
	if p == nil {
		p = &Player{Slot: e.Slot}
		l.expected++
	}
	p.applyJoin(e)
	l.evicted(l.place(p, e.Slot), e.Username)
}

func (l *Lobby) move(username string, slot int) {
	if !l.inRange(slot) {
		return
	}
	p := l.find(username)
	if p == nil {
		p = &Player{Slot: slot, Username: username}
	}
	l.evicted(l.place(p, slot), username)
}

func (l *Lobby) leave(username string) {
	if p := l.find(username); p != nil {
		l.slots[p.Slot] = nil
		if p.IsHost {
			l.host = ""
		}
	}
	if l.expected > 0 {
		l.expected--
	}
}

// setHost moves the host flag to username, or clears it when username is
// empty or unknown.
func (l *Lobby) setHost(username string) {
	for _, p := range l.slots {
		if p != nil {
			p.IsHost = false
		}
	}
	l.host = username
	if username == "" {
		return
	}
	if p := l.find(username); p != nil {
		p.IsHost = true
		l.host = p.Username
	}
}

func (l *Lobby) applyStatus(e announce.SlotStatus) {
	if e.Slot < 0 {
		return
	}
	if !l.inRange(e.Slot) {
		l.grow(e.Slot + 1)
	}
	p := l.find(e.Username)
	if p == nil {
		if cur := l.slots[e.Slot]; cur != nil && cur.Username == "" {
			p = cur
		} else {
			p = &Player{Slot: e.Slot}
		}
	}
	p.applyStatus(e)
	l.place(p, e.Slot)
	if e.Host {
		l.setHost(e.Username)
	} else if strings.EqualFold(l.host, e.Username) {
		l.host = ""
	}
}
