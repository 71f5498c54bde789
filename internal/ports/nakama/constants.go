package nakama

const (
	// RpcQuickMatch is the Nakama RPC id clients call to find or create a bingo lobby.
	RpcQuickMatch = "quick_match"

	// RpcTeamVoiceToken returns a Vivox token for the caller's team channel.
	RpcTeamVoiceToken = "team_voice_token"

	// MatchNameBingo is the authoritative match handler name registered with Nakama.
	MatchNameBingo = "bingo_match"
)

// Op codes for client messages and server events.
const (
	// Client -> Server
	OpCreateTeam      int64 = 1
	OpJoinTeam        int64 = 2
	OpLeaveTeam       int64 = 3
	OpUpdateSettings  int64 = 4
	OpStartMatch      int64 = 5
	OpQuestAcquired   int64 = 6
	OpQuestLost       int64 = 7
	OpRequestSnapshot int64 = 8

	// Server -> Client events
	OpSnapshot       int64 = 101
	OpMatchStarted   int64 = 102
	OpTeamFoundQuest int64 = 103
	OpQuestRevoked   int64 = 104
	OpMatchEnded     int64 = 105
	OpGameError      int64 = 106
)

// Error codes carried by OpGameError.
const (
	ErrCodeBadRequest = 400
	ErrCodeNotOwner   = 403
	ErrCodeConflict   = 409
	ErrCodeInternal   = 500
)
