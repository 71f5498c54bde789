package nakama

import (
	"context"
	"database/sql"
	"encoding/json"

	"bingo/internal/app"
	"bingo/internal/domain"

	"github.com/heroiclabs/nakama-common/runtime"
)

// QuickMatchResponse is the payload returned to clients when requesting a lobby.
type QuickMatchResponse struct {
	MatchID string `json:"match_id"`
	IsNew   bool   `json:"is_new"`
}

// quickMatchQuery finds open bingo lobbies; running matches reject new players.
const quickMatchQuery = "+label.open:T +label.game:bingo"

// RegisterRPCs registers Nakama RPC endpoints.
func RegisterRPCs(initializer runtime.Initializer, vivox *app.VivoxService) error {
	if err := initializer.RegisterRpc(RpcQuickMatch, rpcQuickMatch); err != nil {
		return err
	}
	return initializer.RegisterRpc(RpcTeamVoiceToken, rpcTeamVoiceToken(vivox))
}

// rpcQuickMatch returns an open lobby, creating one when none exists. The
// optional payload holds settings for a newly created match.
func rpcQuickMatch(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	userID, _ := ctx.Value(runtime.RUNTIME_CTX_USER_ID).(string)

	limit := 10
	authoritative := true
	minSize := 1

	matches, err := nk.MatchList(ctx, limit, authoritative, "", &minSize, nil, quickMatchQuery)
	if err != nil {
		logger.Error("MatchList error: %v", err)
		return "", err
	}

	if len(matches) > 0 {
		logger.Debug("QuickMatch [User:%s]: Found lobby %s", userID, matches[0].MatchId)
		b, _ := json.Marshal(QuickMatchResponse{MatchID: matches[0].MatchId, IsNew: false})
		return string(b), nil
	}

	params := map[string]interface{}{}
	if payload != "" {
		var req updateSettingsRequest
		if err := decode([]byte(payload), &req); err != nil {
			return "", runtime.NewError("invalid settings payload", codeInvalidArgument)
		}
		settings := domain.DefaultSettings()
		req.apply(&settings)
		if err := settings.Validate(); err != nil {
			return "", runtime.NewError(err.Error(), codeInvalidArgument)
		}
		if err := json.Unmarshal([]byte(payload), &params); err != nil {
			return "", runtime.NewError("invalid settings payload", codeInvalidArgument)
		}
	}

	// Ownership goes to the first player to join in MatchJoin.
	matchID, err := nk.MatchCreate(ctx, MatchNameBingo, params)
	if err != nil {
		logger.Error("MatchCreate error: %v", err)
		return "", err
	}

	logger.Info("QuickMatch [User:%s]: Created lobby %s", userID, matchID)
	b, _ := json.Marshal(QuickMatchResponse{MatchID: matchID, IsNew: true})
	return string(b), nil
}
