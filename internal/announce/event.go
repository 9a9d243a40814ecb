package announce

// Event is the result of classifying one announcement. The set of
// implementations is closed: every value is one of the types below.
type Event interface {
	Kind() Kind
	sealed()
}

// Notice is a template without captured fields (match started, slots locked,
// ...).
type Notice struct{ K Kind }

// RoomTitle carries the title and the match id from the history link.
type RoomTitle struct {
	Title   string
	MatchID int64
}

type TitleChanged struct{ Title string }

type TeamMode struct {
	TeamMode     string
	WinCondition string
}

// Mods is shared by the settings dump line and the referee toggle reply.
// "Freemod" is reported through the flag, not the list.
type Mods struct {
	K       Kind
	Mods    []string
	Freemod bool
}

type PlayerCount struct{ Count int }

// Beatmap is shared by the three beatmap templates.
type Beatmap struct {
	K    Kind
	ID   int64
	Name string
}

type GameMode struct{ Mode string }

// User is shared by templates that only name a user (left, host, referee
// added or removed, named user-not-found).
type User struct {
	K        Kind
	Username string
}

// PlayerJoined has a zero-based slot. Team is "" outside team modes.
type PlayerJoined struct {
	Username string
	Slot     int
	Team     string
}

type PlayerMoved struct {
	Username string
	Slot     int
}

type TeamChanged struct {
	Username string
	Team     string
}

type PlayerFinished struct {
	Username string
	Score    int64
	Passed   bool
}

type MatchSize struct{ Size int }

// MatchSettings leaves Size zero and WinCondition empty when the referee did
// not set them.
type MatchSettings struct {
	Size         int
	TeamMode     string
	WinCondition string
}

// SlotStatus is one per-slot line of a settings dump. Attributes is the raw
// bracketed column; Host, Team and Mods are decoded from it.
type SlotStatus struct {
	Slot       int
	Ready      bool
	UserID     int64
	Username   string
	Attributes string
	Host       bool
	Team       string
	Mods       []string
}

func (n Notice) Kind() Kind       { return n.K }
func (RoomTitle) Kind() Kind      { return KindRoomTitle }
func (TitleChanged) Kind() Kind   { return KindTitleChanged }
func (TeamMode) Kind() Kind       { return KindTeamMode }
func (m Mods) Kind() Kind         { return m.K }
func (PlayerCount) Kind() Kind    { return KindPlayerCount }
func (b Beatmap) Kind() Kind      { return b.K }
func (GameMode) Kind() Kind       { return KindGameMode }
func (u User) Kind() Kind         { return u.K }
func (PlayerJoined) Kind() Kind   { return KindPlayerJoined }
func (PlayerMoved) Kind() Kind    { return KindPlayerMoved }
func (TeamChanged) Kind() Kind    { return KindTeamChanged }
func (PlayerFinished) Kind() Kind { return KindPlayerFinished }
func (MatchSize) Kind() Kind      { return KindMatchSize }
func (MatchSettings) Kind() Kind  { return KindMatchSettings }
func (SlotStatus) Kind() Kind     { return KindSlotStatus }
func (Notice) sealed()            {}
func (RoomTitle) sealed()         {}
func (TitleChanged) sealed()      {}
func (TeamMode) sealed()          {}
func (Mods) sealed()              {}
func (PlayerCount) sealed()       {}
func (Beatmap) sealed()           {}
func (GameMode) sealed()          {}
func (User) sealed()              {}
func (PlayerJoined) sealed()      {}
func (PlayerMoved) sealed()       {}
func (TeamChanged) sealed()       {}
func (PlayerFinished) sealed()    {}
func (MatchSize) sealed()         {}
func (MatchSettings) sealed()     {}
func (SlotStatus) sealed()        {}
