package announce

import (
	"regexp"
	"strconv"
	"strings"
)

type matcher struct {
	kind    Kind
	re      *regexp.Regexp
	extract func(m []string) (Event, bool)
}

// table is tested top to bottom and the first hit wins, so the order is the
// disambiguation priority between templates that can match the same text.
var table = []matcher{
	{KindRoomTitle, regexp.MustCompile(`^Room name: (.+), History: https://osu\.ppy\.sh/mp/(\d+)$`), func(m []string) (Event, bool) {
		id, ok := parseID(m[2])
		return RoomTitle{Title: m[1], MatchID: id}, ok
	}},
	{KindTitleChanged, regexp.MustCompile(`^Room name updated to "(.+)"$`), func(m []string) (Event, bool) {
		return TitleChanged{Title: m[1]}, true
	}},
	{KindTeamMode, regexp.MustCompile(`^Team mode: (\w+), Win condition: (\w+)$`), func(m []string) (Event, bool) {
		return TeamMode{TeamMode: m[1], WinCondition: m[2]}, true
	}},
	{KindActiveMods, regexp.MustCompile(`^Active mods: (.+)$`), func(m []string) (Event, bool) {
		mods, freemod := splitMods(m[1])
		return Mods{K: KindActiveMods, Mods: mods, Freemod: freemod}, true
	}},
	{KindPlayerCount, regexp.MustCompile(`^Players: (\d+)$`), func(m []string) (Event, bool) {
		n, err := strconv.Atoi(m[1])
		return PlayerCount{Count: n}, err == nil
	}},
	{KindPlayerBeatmap, regexp.MustCompile(`^Beatmap changed to: (.+) \(https://osu\.ppy\.sh/b/(\d+)\)$`), func(m []string) (Event, bool) {
		id, ok := parseID(m[2])
		return Beatmap{K: KindPlayerBeatmap, ID: id, Name: m[1]}, ok
	}},
	{KindTeamChanged, regexp.MustCompile(`^(.+) changed to (Blue|Red)$`), func(m []string) (Event, bool) {
		return TeamChanged{Username: m[1], Team: strings.ToLower(m[2])}, true
	}},
	{KindRefereeBeatmap, regexp.MustCompile(`^Changed beatmap to https://osu\.ppy\.sh/b/(\d+) (.+)$`), func(m []string) (Event, bool) {
		id, ok := parseID(m[1])
		return Beatmap{K: KindRefereeBeatmap, ID: id, Name: m[2]}, ok
	}},
	{KindGameMode, regexp.MustCompile(`^Changed match mode to (Osu|Taiko|CatchTheBeat|OsuMania)$`), func(m []string) (Event, bool) {
		return GameMode{Mode: m[1]}, true
	}},
	{KindSettingsBeatmap, regexp.MustCompile(`^Beatmap: https://osu\.ppy\.sh/b/(\d+) (.+)$`), func(m []string) (Event, bool) {
		id, ok := parseID(m[1])
		return Beatmap{K: KindSettingsBeatmap, ID: id, Name: m[2]}, ok
	}},
	notice(KindInvalidBeatmap, `^Invalid map ID provided$`),
	notice(KindHostChangingBeatmap, `^Host is changing map\.\.\.$`),
	{KindRefereeMods, regexp.MustCompile(`^(Enabled (.+)|Disabled all mods), (disabled|enabled) FreeMod$`), func(m []string) (Event, bool) {
		var mods []string
		if m[2] != "" {
			mods, _ = splitMods(m[2])
		}
		return Mods{K: KindRefereeMods, Mods: mods, Freemod: m[3] == "enabled"}, true
	}},
	{KindPlayerJoined, regexp.MustCompile(`^(.+) joined in slot (\d+)(?: for team (blue|red))?\.$`), func(m []string) (Event, bool) {
		slot, ok := parseSlot(m[2])
		return PlayerJoined{Username: m[1], Slot: slot, Team: m[3]}, ok
	}},
	{KindPlayerMoved, regexp.MustCompile(`^(.+) moved to slot (\d+)$`), func(m []string) (Event, bool) {
		slot, ok := parseSlot(m[2])
		return PlayerMoved{Username: m[1], Slot: slot}, ok
	}},
	user(KindPlayerLeft, `^(.+) left the game\.$`),
	user(KindHostChanged, `^(.+) became the host\.$`),
	notice(KindAllReady, `^All players are ready$`),
	notice(KindMatchStarted, `^The match has started!$`),
	notice(KindMatchAborted, `^Aborted the match$`),
	{KindPlayerFinished, regexp.MustCompile(`^(.+) finished playing \(Score: (\d+), (FAIL|PASS)ED\)\.$`), func(m []string) (Event, bool) {
		score, err := strconv.ParseInt(m[2], 10, 64)
		return PlayerFinished{Username: m[1], Score: score, Passed: m[3] == "PASS"}, err == nil
	}},
	notice(KindMatchFinished, `^The match has finished!$`),
	notice(KindPasswordRemoved, `^Removed the match password$`),
	notice(KindPasswordChanged, `^Changed the match password$`),
	user(KindRefereeAdded, `^Added (.+) to the match referees$`),
	user(KindRefereeRemoved, `^Removed (.+) from the match referees$`),
	notice(KindUserNotFound, `^User not found$`),
	user(KindUserNotFoundNamed, `^User not found: (.+)$`),
	notice(KindSlotsLocked, `^Locked the match$`),
	notice(KindSlotsUnlocked, `^Unlocked the match$`),
	{KindMatchSize, regexp.MustCompile(`^Changed match to size (\d+)$`), func(m []string) (Event, bool) {
		n, err := strconv.Atoi(m[1])
		return MatchSize{Size: n}, err == nil
	}},
	{KindMatchSettings, regexp.MustCompile(`^Changed match settings to (?:(\d+) slots, )?(HeadToHead|TagCoop|TeamVs|TagTeamVs)(?:, (Score|Accuracy|Combo|ScoreV2))?$`), func(m []string) (Event, bool) {
		ev := MatchSettings{TeamMode: m[2], WinCondition: m[3]}
		if m[1] != "" {
			n, err := strconv.Atoi(m[1])
			if err != nil {
				return nil, false
			}
			ev.Size = n
		}
		return ev, true
	}},
	{KindSlotStatus, regexp.MustCompile(`^Slot (\d+)\s+(?:\|\s*)?(Not Ready|Ready|No Map)\s*(?:\|\s*)?https://osu\.ppy\.sh/u/(\d+) (.+?)\s*(?:\[(.*)\])?$`), func(m []string) (Event, bool) {
		slot, ok := parseSlot(m[1])
		if !ok {
			return nil, false
		}
		id, ok := parseID(m[3])
		if !ok {
			return nil, false
		}
		ev := SlotStatus{
			Slot:       slot,
			Ready:      m[2] == "Ready",
			UserID:     id,
			Username:   m[4],
			Attributes: m[5],
		}
		ev.Host, ev.Team, ev.Mods = ParseAttributes(m[5])
		return ev, true
	}},
	notice(KindHostCleared, `^Cleared match host$`),
}

func notice(kind Kind, pattern string) matcher {
	return matcher{kind, regexp.MustCompile(pattern), func([]string) (Event, bool) {
		return Notice{K: kind}, true
	}}
}

func user(kind Kind, pattern string) matcher {
	return matcher{kind, regexp.MustCompile(pattern), func(m []string) (Event, bool) {
		return User{K: kind, Username: m[1]}, true
	}}
}

// Classify returns the event of the first template matching text. Chatter
// that matches nothing returns false and is expected to be common.
func Classify(text string) (Event, bool) {
	for _, mt := range table {
		m := mt.re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		if ev, ok := mt.extract(m); ok {
			return ev, true
		}
	}
	return nil, false
}

// Kinds lists the template kinds in priority order.
func Kinds() []Kind {
	out := make([]Kind, len(table))
	for i, mt := range table {
		out[i] = mt.kind
	}
	return out
}

// ParseAttributes decodes the bracketed column of a slot line, read left to
// right: an optional "Host" marker, an optional "Team <colour>" marker, then
// comma separated mods.
func ParseAttributes(attrs string) (host bool, team string, mods []string) {
	if strings.TrimSpace(attrs) == "" {
		return false, "", nil
	}
	parts := strings.Split(attrs, "/")
	i := 0
	if strings.EqualFold(strings.TrimSpace(parts[i]), "host") {
		host = true
		i++
	}
	if i < len(parts) {
		p := strings.TrimSpace(parts[i])
		if len(p) > 5 && strings.EqualFold(p[:5], "team ") {
			team = strings.ToLower(strings.TrimSpace(p[5:]))
			i++
		}
	}
	if i < len(parts) {
		for _, mod := range strings.Split(strings.Join(parts[i:], "/"), ",") {
			if mod = strings.TrimSpace(mod); mod != "" {
				mods = append(mods, mod)
			}
		}
	}
	return host, team, mods
}

func splitMods(s string) (mods []string, freemod bool) {
	for _, mod := range strings.Split(s, ",") {
		mod = strings.TrimSpace(mod)
		switch {
		case mod == "":
		case strings.EqualFold(mod, "freemod"):
			freemod = true
		case strings.EqualFold(mod, "none"):
		default:
			mods = append(mods, mod)
		}
	}
	return mods, freemod
}

func parseID(s string) (int64, bool) {
	n, err := strconv.ParseInt(s, 10, 64)
	return n, err == nil
}

// parseSlot converts the one-based slot number used in chat to an index.
func parseSlot(s string) (int, bool) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0, false
	}
	return n - 1, true
}
