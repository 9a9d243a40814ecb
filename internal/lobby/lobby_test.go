package lobby

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/park285/bancho-mp-bot/internal/announce"
	"github.com/park285/bancho-mp-bot/internal/sendq"
)

type fakeSender struct {
	mu    sync.Mutex
	sent  []string
	parts []string
}

func (f *fakeSender) Send(target, text string) (*sendq.Pending, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, target+" "+text)
	return nil, nil
}

func (f *fakeSender) Leave(channel string) (*sendq.Pending, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.parts = append(f.parts, channel)
	return nil, nil
}

func (f *fakeSender) lines() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.sent...)
}

func newTestLobby(t *testing.T) (*Lobby, *fakeSender) {
	t.Helper()
	s := &fakeSender{}
	l := New("mp_42", Options{Sender: s, Nick: "tawan475"})
	return l, s
}

func bot(l *Lobby, lines ...string) {
	for _, line := range lines {
		l.HandleChat("BanchoBot", line)
	}
}

func hosts(l *Lobby) int {
	n := 0
	for _, p := range l.Slots() {
		if p != nil && p.IsHost {
			n++
		}
	}
	return n
}

func TestBootstrapRequestsSettings(t *testing.T) {
	l, s := newTestLobby(t)
	if l.Name() != "#mp_42" || !l.IsMultiplayer() || l.MatchID() != 42 {
		t.Fatalf("unexpected identity %q %v %d", l.Name(), l.IsMultiplayer(), l.MatchID())
	}
	if got := s.lines(); len(got) != 1 || got[0] != "#mp_42 !mp settings" {
		t.Fatalf("expected bootstrap settings request, got %q", got)
	}

	plain := New("#osu", Options{Sender: s})
	if plain.IsMultiplayer() { t.Fatalf("#osu is not multiplayer") }
	if len(s.lines()) != 1 { t.Fatalf("non-multiplayer lobby must not request settings") }
}

func TestRosterConvergence(t *testing.T) {
	l, s := newTestLobby(t)
	done := make(chan []Player, 1)
	errc := make(chan error, 1)
	go func() {
		players, err := l.Players(context.Background())
		if err != nil {
			errc <- err
			return
		}
		done <- players
	}()

	// wait for the waiter's settings request
	deadline := time.Now().Add(time.Second)
	for len(s.lines()) < 2 {
		if time.Now().After(deadline) { t.Fatalf("no settings request issued: %q", s.lines()) }
		time.Sleep(time.Millisecond)
	}

	bot(l,
		"Room name: Test Cup, History: https://osu.ppy.sh/mp/42",
		"Team mode: HeadToHead, Win condition: ScoreV2",
		"Active mods: Freemod",
		"Players: 2",
		"Slot 1  Not Ready https://osu.ppy.sh/u/2 Alice           [Host]",
	)
	select {
	case <-done:
		t.Fatalf("resolved before the dump finished")
	default:
	}
	bot(l, "Slot 3  Ready     https://osu.ppy.sh/u/3 Bob Smith       [Hidden]")

	select {
	case err := <-errc:
		t.Fatalf("Players: %v", err)
	case players := <-done:
		if len(players) != 2 { t.Fatalf("expected 2 players, got %+v", players) }
		if players[0].Username != "Alice" || players[0].Slot != 0 || !players[0].IsHost || players[0].UserID != 2 {
			t.Fatalf("unexpected first player %+v", players[0])
		}
		if players[1].Username != "Bob Smith" || players[1].Slot != 2 || !players[1].Ready || players[1].Mods[0] != "Hidden" {
			t.Fatalf("unexpected second player %+v", players[1])
		}
	case <-time.After(time.Second):
		t.Fatalf("Players did not resolve")
	}

	st := l.Snapshot()
	if st.Title != "Test Cup" || st.WinCondition != "ScoreV2" || !st.Freemod || st.Host != "Alice" || !st.Settled {
		t.Fatalf("unexpected snapshot %+v", st)
	}

	// consistent now, so no further round trip
	before := len(s.lines())
	players, err := l.Players(context.Background())
	if err != nil || len(players) != 2 { t.Fatalf("cached Players: %v %+v", err, players) }
	if len(s.lines()) != before { t.Fatalf("unexpected extra request") }
}

// awaitRequests waits until n lines were sent.
func awaitRequests(t *testing.T, s *fakeSender, n int) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for len(s.lines()) < n {
		if time.Now().After(deadline) { t.Fatalf("expected %d requests, got %q", n, s.lines()) }
		time.Sleep(time.Millisecond)
	}
}

func usernames(players []Player) []string {
	out := make([]string, len(players))
	for i, p := range players {
		out[i] = p.Username
	}
	return out
}

func TestDumpDropsUnreportedPlayers(t *testing.T) {
	l, s := newTestLobby(t)
	bot(l, "Players: 1", "Slot 1  Not Ready https://osu.ppy.sh/u/2 Alice           [Host]")
	if !l.Settled() { t.Fatalf("dump not settled") }

	// 덤프 이후 알 수 없는 이동: 로컬 로스터가 공지된 인원과 어긋남
	bot(l, "Ghost moved to slot 5")
	if st := l.Snapshot(); len(st.Players) != 2 || st.Expected != 1 { t.Fatalf("setup: %+v", st) }

	done := make(chan []Player, 1)
	go func() {
		players, err := l.Players(context.Background())
		if err != nil {
			t.Errorf("Players: %v", err)
		}
		done <- players
	}()
	awaitRequests(t, s, 2)
	bot(l, "Players: 1", "Slot 1  Not Ready https://osu.ppy.sh/u/2 Alice           [Host]")

	select {
	case players := <-done:
		if got := usernames(players); len(got) != 1 || got[0] != "Alice" { t.Fatalf("unexpected roster %q", got) }
	case <-time.After(time.Second):
		t.Fatalf("Players did not resolve")
	}
	if p := l.Slots()[4]; p != nil { t.Fatalf("Ghost kept in slot 5: %+v", p) }

	// converged: the next call answers locally
	before := len(s.lines())
	players, err := l.Players(context.Background())
	if err != nil || len(players) != 1 { t.Fatalf("Players: %v %+v", err, players) }
	if len(s.lines()) != before { t.Fatalf("roster did not converge, new request issued") }
}

func TestDumpDropsUnreportedHost(t *testing.T) {
	l, _ := newTestLobby(t)
	bot(l,
		"Players: 0",
		"Alice joined in slot 1.",
		"Bob joined in slot 2.",
		"Alice became the host.",
		"Players: 1",
		"Slot 2  Ready     https://osu.ppy.sh/u/3 Bob",
	)
	st := l.Snapshot()
	if got := usernames(st.Players); len(got) != 1 || got[0] != "Bob" { t.Fatalf("unexpected roster %q", got) }
	if st.Host != "" || hosts(l) != 0 { t.Fatalf("pruned host kept: %q", st.Host) }
}

func TestJoinIntoOccupiedSlot(t *testing.T) {
	l, _ := newTestLobby(t)
	bot(l, "Players: 0", "Alice joined in slot 1.", "Alice became the host.", "Bob joined in slot 1.")
	st := l.Snapshot()
	if got := usernames(st.Players); len(got) != 1 || got[0] != "Bob" { t.Fatalf("unexpected roster %q", got) }
	if st.Expected != 1 { t.Fatalf("evicted player still counted: expected=%d", st.Expected) }
	if st.Host != "" || hosts(l) != 0 { t.Fatalf("evicted host kept: %q", st.Host) }

	bot(l, "Carol moved to slot 1")
	st = l.Snapshot()
	if got := usernames(st.Players); len(got) != 1 || got[0] != "Carol" { t.Fatalf("unexpected after move %q", got) }
}

func TestSlotLineBeyondSizeKeepsSize(t *testing.T) {
	l, _ := newTestLobby(t)
	bot(l, "Changed match to size 4", "Slot 20 Ready     https://osu.ppy.sh/u/9 Far")
	st := l.Snapshot()
	if st.Size != 4 { t.Fatalf("size overwritten by slot line: %d", st.Size) }
	slots := l.Slots()
	if len(slots) < 20 || slots[19] == nil || slots[19].Username != "Far" { t.Fatalf("slot 20 not stored") }
}

func TestEmptyRoomResolvesAtOnce(t *testing.T) {
	l, s := newTestLobby(t)
	var emptied int
	l.Events.Emptied.Subscribe(func(*Lobby) { emptied++ })
	bot(l, "Players: 0")
	if emptied != 1 { t.Fatalf("expected Emptied, got %d", emptied) }

	before := len(s.lines())
	players, err := l.Players(context.Background())
	if err != nil || len(players) != 0 { t.Fatalf("Players: %v %+v", err, players) }
	if len(s.lines()) != before { t.Fatalf("empty room must not round trip") }
}

func TestPlayersHonoursContext(t *testing.T) {
	l, _ := newTestLobby(t)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := l.Players(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline, got %v", err)
	}
	l.mu.Lock()
	n := len(l.waiters)
	l.mu.Unlock()
	if n != 0 { t.Fatalf("abandoned waiter kept: %d", n) }
}

func TestJoinIsIdempotent(t *testing.T) {
	l, _ := newTestLobby(t)
	bot(l, "Players: 0", "Alice joined in slot 3 for team blue.", "Alice joined in slot 3 for team blue.")
	st := l.Snapshot()
	if len(st.Players) != 1 || st.Expected != 1 {
		t.Fatalf("expected one player, got %+v (expected=%d)", st.Players, st.Expected)
	}
	if p := st.Players[0]; p.Slot != 2 || p.Team != TeamBlue {
		t.Fatalf("unexpected player %+v", p)
	}
}

func TestMoveAndLeave(t *testing.T) {
	l, _ := newTestLobby(t)
	bot(l, "Players: 0", "Alice joined in slot 1.", "Alice moved to slot 4")
	slots := l.Slots()
	if slots[0] != nil || slots[3] == nil || slots[3].Username != "Alice" || slots[3].Slot != 3 {
		t.Fatalf("move not applied: %+v", slots[:4])
	}

	// unknown mover gets a minimal record
	bot(l, "Ghost moved to slot 2")
	if p := l.Slots()[1]; p == nil || p.Username != "Ghost" { t.Fatalf("minimal record missing: %+v", p) }

	bot(l, "Alice left the game.", "Nobody left the game.", "Nobody left the game.")
	st := l.Snapshot()
	if st.Expected != 0 { t.Fatalf("expected count floors at zero, got %d", st.Expected) }
	for _, p := range st.Players {
		if p.Username == "Alice" { t.Fatalf("Alice still present") }
	}
}

func TestHostInvariant(t *testing.T) {
	l, _ := newTestLobby(t)
	bot(l, "Players: 0", "A joined in slot 1.", "B joined in slot 2.", "C joined in slot 3.")
	for _, line := range []string{
		"A became the host.",
		"B became the host.",
		"Unknown became the host.",
		"C became the host.",
		"Slot 1  Ready https://osu.ppy.sh/u/1 A [Host]",
		"B became the host.",
		"Cleared match host",
	} {
		bot(l, line)
		if n := hosts(l); n > 1 { t.Fatalf("after %q: %d hosts", line, n) }
	}
	if hosts(l) != 0 || l.Snapshot().Host != "" { t.Fatalf("host not cleared") }
}

func TestReferees(t *testing.T) {
	l, _ := newTestLobby(t)
	bot(l, "Added Tawan475 to the match referees", "Added Other to the match referees")
	if !l.AmReferee() { t.Fatalf("own referee flag not set") }
	bot(l, "Removed tawan475 from the match referees")
	st := l.Snapshot()
	if l.AmReferee() || len(st.Referees) != 1 || st.Referees[0] != "Other" {
		t.Fatalf("unexpected referees %q (am=%v)", st.Referees, l.AmReferee())
	}
}

func TestSettingsAndFlags(t *testing.T) {
	l, _ := newTestLobby(t)
	bot(l,
		"Changed match settings to 8 slots, TeamVs, Accuracy",
		"Changed match mode to OsuMania",
		"Changed beatmap to https://osu.ppy.sh/b/100 Artist - Title",
		"Enabled Hidden, HardRock, disabled FreeMod",
		"Locked the match",
		"Changed the match password",
		"The match has started!",
		"Changed match to size 20",
	)
	st := l.Snapshot()
	if st.TeamMode != "TeamVs" || st.WinCondition != "Accuracy" || st.GameMode != "OsuMania" {
		t.Fatalf("unexpected settings %+v", st)
	}
	if st.Beatmap.ID != 100 || len(st.Mods) != 2 || st.Freemod {
		t.Fatalf("unexpected map/mods %+v", st)
	}
	if !st.Locked || !st.HasPassword || !st.InProgress || st.Size != 20 || len(l.Slots()) != 20 {
		t.Fatalf("unexpected flags %+v", st)
	}
	bot(l, "The match has finished!", "Removed the match password", "Unlocked the match", "Changed match to size 4")
	st = l.Snapshot()
	if st.InProgress || st.HasPassword || st.Locked || st.Size != 4 || len(l.Slots()) < 16 {
		t.Fatalf("unexpected flags after reset %+v", st)
	}
}

func TestOnlyAssistantLinesApply(t *testing.T) {
	l, _ := newTestLobby(t)
	var chat, ann int
	l.Events.Chat.Subscribe(func(ChatLine) { chat++ })
	l.Events.Announcement.Subscribe(func(a Announcement) {
		ann++
		if a.Event.Kind() != announce.KindTitleChanged { t.Fatalf("unexpected kind %v", a.Event.Kind()) }
	})
	l.HandleChat("Mallory", `Room name updated to "pwned"`)
	l.HandleChat("BanchoBot", "just chatting")
	l.HandleChat("banchobot", `Room name updated to "Real"`)
	if chat != 3 || ann != 1 || l.Title() != "Real" {
		t.Fatalf("chat=%d ann=%d title=%q", chat, ann, l.Title())
	}
}

func TestMembership(t *testing.T) {
	l, _ := newTestLobby(t)
	var got []string
	l.Events.MembersUpdated.Subscribe(func(m []string) { got = m })
	l.HandleNames([]string{"@BanchoBot", "+Alice"})
	l.HandleNames([]string{"Bob"})
	if got != nil { t.Fatalf("published before end of names") }
	l.HandleEndOfNames()
	if len(got) != 3 || got[0] != "Alice" || got[1] != "BanchoBot" || got[2] != "Bob" {
		t.Fatalf("unexpected members %q", got)
	}
	l.HandleJoin("Carol")
	l.HandlePart("bob")
	if m := l.Members(); len(m) != 3 || m[2] != "Carol" { t.Fatalf("unexpected members %q", m) }

	l.HandleTopic("multiplayer game #77")
	if l.MatchID() != 77 { t.Fatalf("topic id not adopted: %d", l.MatchID()) }
}

func TestCommands(t *testing.T) {
	l, s := newTestLobby(t)
	if _, err := l.Move("Some Player", 0); err != nil { t.Fatalf("Move: %v", err) }
	if _, err := l.SetMatch(2, 3, 0); err != nil { t.Fatalf("SetMatch: %v", err) }
	if _, err := l.Start(10); err != nil { t.Fatalf("Start: %v", err) }
	if _, err := l.Leave(); err != nil { t.Fatalf("Leave: %v", err) }
	got := s.lines()[1:]
	want := []string{"#mp_42 !mp move Some Player 1", "#mp_42 !mp set 2 3", "#mp_42 !mp start 10"}
	for i := range want {
		if got[i] != want[i] { t.Fatalf("line %d: got %q want %q", i, got[i], want[i]) }
	}
	if len(s.parts) != 1 || s.parts[0] != "#mp_42" { t.Fatalf("unexpected parts %q", s.parts) }

	noSender := New("#osu", Options{})
	if _, err := noSender.Send("x"); !errors.Is(err, ErrNoSender) { t.Fatalf("expected ErrNoSender, got %v", err) }
}
