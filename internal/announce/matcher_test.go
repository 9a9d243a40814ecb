package announce

import (
	"reflect"
	"testing"
)

func mustClassify(t *testing.T, text string) Event {
	t.Helper()
	ev, ok := Classify(text)
	if !ok {
		t.Fatalf("no match for %q", text)
	}
	return ev
}

func TestRoomTitle(t *testing.T) {
	ev, ok := mustClassify(t, "Room name: Test Cup, History: https://osu.ppy.sh/mp/123").(RoomTitle)
	if !ok { t.Fatalf("expected RoomTitle") }
	if ev.Title != "Test Cup" || ev.MatchID != 123 {
		t.Fatalf("unexpected %+v", ev)
	}
}

func TestPlayerJoinedWithTeam(t *testing.T) {
	ev, ok := mustClassify(t, "Alice joined in slot 3 for team blue.").(PlayerJoined)
	if !ok { t.Fatalf("expected PlayerJoined") }
	if ev.Username != "Alice" || ev.Slot != 2 || ev.Team != "blue" {
		t.Fatalf("unexpected %+v", ev)
	}

	ev = mustClassify(t, "Some Player joined in slot 1.").(PlayerJoined)
	if ev.Username != "Some Player" || ev.Slot != 0 || ev.Team != "" {
		t.Fatalf("unexpected %+v", ev)
	}
}

func TestTeamChanged(t *testing.T) {
	ev, ok := mustClassify(t, "Bob changed to Red").(TeamChanged)
	if !ok { t.Fatalf("expected TeamChanged") }
	if ev.Username != "Bob" || ev.Team != "red" {
		t.Fatalf("unexpected %+v", ev)
	}
}

func TestSlotStatus(t *testing.T) {
	ev, ok := mustClassify(t, "Slot 4 | Ready    | https://osu.ppy.sh/u/55 Carol [host/ Team Blue/ Hidden, HardRock]").(SlotStatus)
	if !ok { t.Fatalf("expected SlotStatus") }
	if ev.Slot != 3 || !ev.Ready || ev.UserID != 55 || ev.Username != "Carol" {
		t.Fatalf("unexpected header fields %+v", ev)
	}
	if !ev.Host || ev.Team != "blue" || !reflect.DeepEqual(ev.Mods, []string{"Hidden", "HardRock"}) {
		t.Fatalf("unexpected attributes %+v", ev)
	}
}

func TestSlotStatusVariants(t *testing.T) {
	cases := []struct {
		line     string
		slot     int
		ready    bool
		username string
		host     bool
		team     string
		mods     []string
	}{
		{"Slot 1  Not Ready https://osu.ppy.sh/u/2 Dave Smith          ", 0, false, "Dave Smith", false, "", nil},
		{"Slot 2  No Map    https://osu.ppy.sh/u/3 Eve             [Host]", 1, false, "Eve", true, "", nil},
		{"Slot 16 Ready     https://osu.ppy.sh/u/4 Frank           [Team Red / Hidden, DoubleTime]", 15, true, "Frank", false, "red", []string{"Hidden", "DoubleTime"}},
		{"Slot 3  Ready     https://osu.ppy.sh/u/5 Gina            [Hidden]", 2, true, "Gina", false, "", []string{"Hidden"}},
	}
	for _, c := range cases {
		ev, ok := mustClassify(t, c.line).(SlotStatus)
		if !ok { t.Fatalf("%q: expected SlotStatus", c.line) }
		if ev.Slot != c.slot || ev.Ready != c.ready || ev.Username != c.username {
			t.Fatalf("%q: unexpected %+v", c.line, ev)
		}
		if ev.Host != c.host || ev.Team != c.team || !reflect.DeepEqual(ev.Mods, c.mods) {
			t.Fatalf("%q: unexpected attributes %+v", c.line, ev)
		}
	}
}

func TestTablePriority(t *testing.T) {
	cases := []struct {
		text string
		want Kind
	}{
		// satisfies both active-mods and team-changed
		{"Active mods: Hidden changed to Blue", KindActiveMods},
		// satisfies both room-title and team-changed
		{"Room name: A changed to Red, History: https://osu.ppy.sh/mp/5", KindRoomTitle},
		// a player named like a template still reads as a join
		{"Players: 3 joined in slot 2.", KindPlayerJoined},
		{"User not found", KindUserNotFound},
		{"User not found: ghost", KindUserNotFoundNamed},
	}
	for _, c := range cases {
		if got := mustClassify(t, c.text).Kind(); got != c.want {
			t.Fatalf("%q: got %v want %v", c.text, got, c.want)
		}
	}
}

func TestEveryKind(t *testing.T) {
	cases := []struct {
		text string
		want Event
	}{
		{`Room name updated to "New Title"`, TitleChanged{Title: "New Title"}},
		{"Team mode: TeamVs, Win condition: ScoreV2", TeamMode{TeamMode: "TeamVs", WinCondition: "ScoreV2"}},
		{"Active mods: Freemod", Mods{K: KindActiveMods, Freemod: true}},
		{"Active mods: Hidden, DoubleTime", Mods{K: KindActiveMods, Mods: []string{"Hidden", "DoubleTime"}}},
		{"Players: 7", PlayerCount{Count: 7}},
		{"Beatmap changed to: Artist - Song [Hard] (https://osu.ppy.sh/b/75)", Beatmap{K: KindPlayerBeatmap, ID: 75, Name: "Artist - Song [Hard]"}},
		{"Changed beatmap to https://osu.ppy.sh/b/76 Artist - Song", Beatmap{K: KindRefereeBeatmap, ID: 76, Name: "Artist - Song"}},
		{"Changed match mode to Taiko", GameMode{Mode: "Taiko"}},
		{"Beatmap: https://osu.ppy.sh/b/77 Artist - Song [Insane]", Beatmap{K: KindSettingsBeatmap, ID: 77, Name: "Artist - Song [Insane]"}},
		{"Invalid map ID provided", Notice{K: KindInvalidBeatmap}},
		{"Host is changing map...", Notice{K: KindHostChangingBeatmap}},
		{"Enabled Hidden, HardRock, disabled FreeMod", Mods{K: KindRefereeMods, Mods: []string{"Hidden", "HardRock"}}},
		{"Disabled all mods, enabled FreeMod", Mods{K: KindRefereeMods, Freemod: true}},
		{"Alice moved to slot 5", PlayerMoved{Username: "Alice", Slot: 4}},
		{"Alice left the game.", User{K: KindPlayerLeft, Username: "Alice"}},
		{"Alice became the host.", User{K: KindHostChanged, Username: "Alice"}},
		{"All players are ready", Notice{K: KindAllReady}},
		{"The match has started!", Notice{K: KindMatchStarted}},
		{"Aborted the match", Notice{K: KindMatchAborted}},
		{"Alice finished playing (Score: 1234567, PASSED).", PlayerFinished{Username: "Alice", Score: 1234567, Passed: true}},
		{"Bob finished playing (Score: 12, FAILED).", PlayerFinished{Username: "Bob", Score: 12}},
		{"The match has finished!", Notice{K: KindMatchFinished}},
		{"Removed the match password", Notice{K: KindPasswordRemoved}},
		{"Changed the match password", Notice{K: KindPasswordChanged}},
		{"Added Alice to the match referees", User{K: KindRefereeAdded, Username: "Alice"}},
		{"Removed Alice from the match referees", User{K: KindRefereeRemoved, Username: "Alice"}},
		{"Locked the match", Notice{K: KindSlotsLocked}},
		{"Unlocked the match", Notice{K: KindSlotsUnlocked}},
		{"Changed match to size 8", MatchSize{Size: 8}},
		{"Changed match settings to 8 slots, TeamVs, ScoreV2", MatchSettings{Size: 8, TeamMode: "TeamVs", WinCondition: "ScoreV2"}},
		{"Changed match settings to HeadToHead", MatchSettings{TeamMode: "HeadToHead"}},
		{"Cleared match host", Notice{K: KindHostCleared}},
	}
	seen := map[Kind]bool{}
	for _, c := range cases {
		got := mustClassify(t, c.text)
		if !reflect.DeepEqual(got, c.want) {
			t.Fatalf("%q: got %#v want %#v", c.text, got, c.want)
		}
		seen[got.Kind()] = true
	}
	for _, k := range []Kind{KindRoomTitle, KindTeamChanged, KindPlayerJoined, KindUserNotFound, KindUserNotFoundNamed, KindSlotStatus} {
		seen[k] = true
	}
	for _, k := range Kinds() {
		if !seen[k] {
			t.Fatalf("kind %v has no case", k)
		}
	}
}

func TestUnmatchedChatter(t *testing.T) {
	for _, text := range []string{
		"",
		"gl hf",
		"Countdown ends in 10 seconds",
		"Slot 1 | Ready | https://osu.ppy.sh/u/abc Dave",
		"Alice joined in slot 0.",
		"Room name: Test Cup, History: https://osu.ppy.sh/mp/123 trailing",
	} {
		if ev, ok := Classify(text); ok {
			t.Fatalf("%q classified as %v", text, ev.Kind())
		}
	}
}

func TestKindString(t *testing.T) {
	if KindSlotStatus.String() != "slot_status" || Kind(999).String() != "unknown" {
		t.Fatalf("unexpected names %q %q", KindSlotStatus, Kind(999))
	}
}
