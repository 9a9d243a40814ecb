package announce

// Kind tags one BanchoBot announcement template.
type Kind int

const (
	KindUnknown Kind = iota
	// KindRoomTitle is the first settings line: title and history link.
	KindRoomTitle
	// KindTitleChanged follows a referee's !mp name.
	KindTitleChanged
	KindTeamMode
	KindActiveMods
	// KindPlayerCount announces how many slots are occupied; it precedes the
	// per-slot lines of a settings dump.
	KindPlayerCount
	KindPlayerBeatmap
	KindTeamChanged
	KindRefereeBeatmap
	KindGameMode
	KindSettingsBeatmap
	KindInvalidBeatmap
	KindHostChangingBeatmap
	KindRefereeMods
	KindPlayerJoined
	KindPlayerMoved
	KindPlayerLeft
	KindHostChanged
	KindAllReady
	KindMatchStarted
	KindMatchAborted
	KindPlayerFinished
	KindMatchFinished
	KindPasswordRemoved
	KindPasswordChanged
	KindRefereeAdded
	KindRefereeRemoved
	KindUserNotFound
	KindUserNotFoundNamed
	KindSlotsLocked
	KindSlotsUnlocked
	KindMatchSize
	KindMatchSettings
	KindHostCleared
	// KindSlotStatus is one per-slot line of a settings dump.
	KindSlotStatus
)

var kindNames = map[Kind]string{
	KindUnknown:             "unknown",
	KindRoomTitle:           "room_title",
	KindTitleChanged:        "title_changed",
	KindTeamMode:            "team_mode",
	KindActiveMods:          "active_mods",
	KindPlayerCount:         "player_count",
	KindPlayerBeatmap:       "player_beatmap",
	KindTeamChanged:         "team_changed",
	KindRefereeBeatmap:      "referee_beatmap",
	KindGameMode:            "game_mode",
	KindSettingsBeatmap:     "settings_beatmap",
	KindInvalidBeatmap:      "invalid_beatmap",
	KindHostChangingBeatmap: "host_changing_beatmap",
	KindRefereeMods:         "referee_mods",
	KindPlayerJoined:        "player_joined",
	KindPlayerMoved:         "player_moved",
	KindPlayerLeft:          "player_left",
	KindHostChanged:         "host_changed",
	KindAllReady:            "all_ready",
	KindMatchStarted:        "match_started",
	KindMatchAborted:        "match_aborted",
	KindPlayerFinished:      "player_finished",
	KindMatchFinished:       "match_finished",
	KindPasswordRemoved:     "password_removed",
	KindPasswordChanged:     "password_changed",
	KindRefereeAdded:        "referee_added",
	KindRefereeRemoved:      "referee_removed",
	KindUserNotFound:        "user_not_found",
	KindUserNotFoundNamed:   "user_not_found_named",
	KindSlotsLocked:         "slots_locked",
	KindSlotsUnlocked:       "slots_unlocked",
	KindMatchSize:           "match_size",
	KindMatchSettings:       "match_settings",
	KindHostCleared:         "host_cleared",
	KindSlotStatus:          "slot_status",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "unknown"
}
