package nakama

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"bingo/internal/app"

	"github.com/heroiclabs/nakama-common/runtime"
)

// Nakama runtime error codes (gRPC status codes).
const (
	codeInvalidArgument    = 3
	codeNotFound           = 5
	codeFailedPrecondition = 9
	codeInternal           = 13
	codeUnauthenticated    = 16
)

type teamVoiceRequest struct {
	Action  string `json:"action"`
	MatchID string `json:"match_id"`
}

type teamVoiceResponse struct {
	Token   string `json:"token"`
	Channel string `json:"channel,omitempty"`
}

// rpcTeamVoiceToken issues Vivox tokens. "login" signs the caller in; "join"
// admits them to the voice channel of their team in match_id.
//
// Payload: {"action": "login" | "join", "match_id": "..."}
// Returns: {"token": "...", "channel": "..."}
func rpcTeamVoiceToken(vivox *app.VivoxService) func(context.Context, runtime.Logger, *sql.DB, runtime.NakamaModule, string) (string, error) {
	return func(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
		userID, _ := ctx.Value(runtime.RUNTIME_CTX_USER_ID).(string)
		if userID == "" {
			return "", runtime.NewError("authentication required", codeUnauthenticated)
		}

		var req teamVoiceRequest
		if err := decode([]byte(payload), &req); err != nil {
			return "", runtime.NewError("invalid payload", codeInvalidArgument)
		}

		var resp teamVoiceResponse
		var err error
		switch req.Action {
		case app.VivoxTokenActionLogin, "":
			resp.Token, err = vivox.LoginToken(userID)
		case app.VivoxTokenActionJoin:
			if req.MatchID == "" {
				return "", runtime.NewError("match_id required for join", codeInvalidArgument)
			}
			team, signalErr := nk.MatchSignal(ctx, req.MatchID, teamOfSignal(userID))
			if signalErr != nil {
				logger.Warn("TeamVoice [User:%s]: Signal to %s failed: %v", userID, req.MatchID, signalErr)
				return "", runtime.NewError("match not found", codeNotFound)
			}
			if team == "" {
				return "", runtime.NewError("not on a team", codeFailedPrecondition)
			}
			resp.Channel = app.TeamChannel(req.MatchID, team)
			resp.Token, err = vivox.JoinToken(userID, resp.Channel)
		default:
			return "", runtime.NewError("unknown action", codeInvalidArgument)
		}

		if errors.Is(err, app.ErrVivoxNotConfigured) {
			logger.Warn("TeamVoice: Vivox credentials are not configured.")
			return "", runtime.NewError("voice unavailable", codeFailedPrecondition)
		}
		if err != nil {
			logger.Error("TeamVoice [User:%s]: Failed to sign token: %v", userID, err)
			return "", runtime.NewError("internal error", codeInternal)
		}

		b, _ := json.Marshal(resp)
		return string(b), nil
	}
}

func teamOfSignal(userID string) string {
	b, _ := json.Marshal(signalRequest{Command: SignalTeamOf, UserID: userID})
	return string(b)
}
