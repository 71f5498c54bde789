package nakama

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"bingo/internal/app"
	"bingo/internal/config"
	"bingo/internal/domain"
	"bingo/internal/schedule"

	"github.com/heroiclabs/nakama-common/runtime"
)

// MatchState holds the authoritative runtime state for the Nakama match handler.
type MatchState struct {
	Presences map[string]runtime.Presence `json:"-"` // UserId -> Presence for targeted messaging
	// joinOrder keeps user ids in arrival order so ownership passes to the
	// longest-present player.
	joinOrder []string
	OwnerID   string `json:"owner_id"`
	Tick      int64  `json:"tick"`

	Engine    *app.Engine             `json:"-"`
	Events    *app.EventRecorder      `json:"-"`
	Scheduler *schedule.TickScheduler `json:"-"`

	SnapshotInterval int64 `json:"snapshot_interval"`
	lastSnapshotTick int64
}

func (ms *MatchState) addPresence(p runtime.Presence) {
	id := p.GetUserId()
	if _, ok := ms.Presences[id]; !ok {
		ms.joinOrder = append(ms.joinOrder, id)
	}
	ms.Presences[id] = p
	if ms.OwnerID == "" {
		ms.OwnerID = id
	}
}

// removePresence forgets the user and hands ownership to the next present user.
func (ms *MatchState) removePresence(userID string) {
	delete(ms.Presences, userID)
	for i, id := range ms.joinOrder {
		if id == userID {
			ms.joinOrder = append(ms.joinOrder[:i], ms.joinOrder[i+1:]...)
			break
		}
	}
	if ms.OwnerID == userID {
		ms.OwnerID = ""
		if len(ms.joinOrder) > 0 {
			ms.OwnerID = ms.joinOrder[0]
		}
	}
}

func newMatchHandler(cfg *config.Config, catalog *domain.Catalog) *matchHandler {
	return &matchHandler{cfg: cfg, catalog: catalog}
}

type matchHandler struct {
	cfg     *config.Config
	catalog *domain.Catalog
}

// MatchInit is called when the match is created. Params may override the
// configured lobby settings with the same keys clients use for OpUpdateSettings.
func (mh *matchHandler) MatchInit(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, params map[string]interface{}) (interface{}, int, string) {
	logger.Debug("MatchInit: Initializing bingo match.")

	settings := mh.cfg.MatchSettings()
	if len(params) > 0 {
		override, err := overrideSettings(settings, params)
		if err != nil {
			logger.Warn("MatchInit: Ignoring invalid params: %v", err)
		} else {
			settings = override
		}
	}

	events := &app.EventRecorder{}
	scheduler := schedule.NewTickScheduler(mh.cfg.TickRate)
	engine, err := app.NewEngine(mh.catalog, settings, events, scheduler)
	if err != nil {
		logger.Error("MatchInit: Failed to create engine: %v", err)
		return nil, 0, ""
	}

	state := &MatchState{
		Presences:        make(map[string]runtime.Presence),
		Engine:           engine,
		Events:           events,
		Scheduler:        scheduler,
		SnapshotInterval: int64(mh.cfg.SnapshotIntervalTicks),
	}

	label, err := mh.label(state)
	if err != nil {
		logger.Error("MatchInit: Failed to marshal label: %v", err)
		return nil, 0, ""
	}
	return state, mh.cfg.TickRate, label
}

// overrideSettings applies params on top of base. Params that do not decode or
// that produce invalid settings are an error and base is left as is.
func overrideSettings(base domain.Settings, params map[string]interface{}) (domain.Settings, error) {
	raw, err := json.Marshal(params)
	if err != nil {
		return base, err
	}
	var override updateSettingsRequest
	if err := decode(raw, &override); err != nil {
		return base, err
	}
	settings := base
	override.apply(&settings)
	if err := settings.Validate(); err != nil {
		return base, err
	}
	return settings, nil
}

// MatchJoinAttempt admits anyone to a lobby and lets players rejoin a running match.
func (mh *matchHandler) MatchJoinAttempt(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presence runtime.Presence, metadata map[string]string) (interface{}, bool, string) {
	matchState, ok := state.(*MatchState)
	if !ok {
		return state, false, "state not found"
	}
	if matchState.Engine.Phase() != domain.PhaseLobby && !matchState.Engine.HasPlayer(presence.GetUserId()) {
		return state, false, "Match in progress"
	}
	return state, true, ""
}

func (mh *matchHandler) MatchJoin(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presences []runtime.Presence) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		logger.Error("MatchJoin: state not found")
		return state
	}

	for _, p := range presences {
		matchState.addPresence(p)
		if matchState.Engine.AddPlayer(domain.Player{ID: p.GetUserId(), Name: p.GetUsername()}) {
			logger.Debug("MatchJoin: Player %s (%s) joined.", p.GetUsername(), p.GetUserId())
		} else {
			logger.Debug("MatchJoin: Player %s rejoined.", p.GetUserId())
		}
	}

	mh.updateLabel(matchState, dispatcher, logger)
	mh.broadcastSnapshot(matchState, dispatcher, logger)
	return matchState
}

// MatchLeave is called when one or more players leave the match. Lobby
// players lose their team; players in a running match keep it so they can
// rejoin.
func (mh *matchHandler) MatchLeave(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presences []runtime.Presence) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		logger.Error("MatchLeave: state not found")
		return state
	}

	for _, p := range presences {
		matchState.removePresence(p.GetUserId())
		if matchState.Engine.Phase() == domain.PhaseLobby {
			matchState.Engine.RemovePlayer(p.GetUserId())
		}
		logger.Debug("MatchLeave: User %s left.", p.GetUserId())
	}

	if len(matchState.Presences) == 0 {
		logger.Info("MatchLeave: Terminating empty match.")
		return nil
	}

	mh.updateLabel(matchState, dispatcher, logger)
	mh.broadcastSnapshot(matchState, dispatcher, logger)
	return matchState
}

func (mh *matchHandler) MatchLoop(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, messages []runtime.MatchData) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		return state
	}

	matchState.Tick = tick
	before := matchState.Engine.Phase()

	if fired := matchState.Scheduler.Advance(tick); fired > 0 {
		logger.Debug("MatchLoop: %d timer(s) fired at tick %d", fired, tick)
	}

	for _, msg := range messages {
		switch msg.GetOpCode() {
		case OpCreateTeam:
			mh.handleCreateTeam(matchState, dispatcher, logger, msg)
		case OpJoinTeam:
			mh.handleJoinTeam(matchState, dispatcher, logger, msg)
		case OpLeaveTeam:
			mh.handleLeaveTeam(matchState, dispatcher, logger, msg)
		case OpUpdateSettings:
			mh.handleUpdateSettings(matchState, dispatcher, logger, msg)
		case OpStartMatch:
			mh.handleStartMatch(matchState, dispatcher, logger, msg)
		case OpQuestAcquired:
			mh.handleQuestAcquired(matchState, dispatcher, logger, msg)
		case OpQuestLost:
			mh.handleQuestLost(matchState, dispatcher, logger, msg)
		case OpRequestSnapshot:
			mh.sendSnapshot(matchState, dispatcher, logger, msg.GetUserId())
		default:
			logger.Warn("MatchLoop: Unknown opcode received: %d", msg.GetOpCode())
		}
	}

	mh.flushEvents(matchState, dispatcher, logger)
	mh.afterPhaseChange(matchState, dispatcher, logger, before)

	if matchState.Engine.Phase() == domain.PhaseInProgress && tick-matchState.lastSnapshotTick >= matchState.SnapshotInterval {
		mh.broadcastSnapshot(matchState, dispatcher, logger)
	}
	return matchState
}

// afterPhaseChange refreshes the label when the phase moved. A finished
// match clears the engine's players, so connected users are put back into the
// new lobby.
func (mh *matchHandler) afterPhaseChange(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, before domain.Phase) {
	after := state.Engine.Phase()
	changed := before != after
	if after == domain.PhaseLobby && len(state.Engine.Players()) < len(state.joinOrder) {
		restorePlayers(state)
		logger.Info("Match finished, %d player(s) back in the lobby.", len(state.joinOrder))
		changed = true
	}
	if !changed {
		return
	}
	mh.updateLabel(state, dispatcher, logger)
	mh.broadcastSnapshot(state, dispatcher, logger)
}

// restorePlayers adds every connected user to the engine.
func restorePlayers(state *MatchState) {
	for _, id := range state.joinOrder {
		state.Engine.AddPlayer(domain.Player{ID: id, Name: state.Presences[id].GetUsername()})
	}
}

func (mh *matchHandler) handleCreateTeam(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, msg runtime.MatchData) {
	senderID := msg.GetUserId()
	var req createTeamRequest
	if err := decode(msg.GetData(), &req); err != nil {
		mh.sendError(state, dispatcher, logger, senderID, ErrCodeBadRequest, err.Error())
		return
	}
	if !mh.requireLobby(state, dispatcher, logger, senderID) {
		return
	}

	if _, err := state.Engine.CreateTeam(req.Name); err != nil {
		logger.Warn("handleCreateTeam: User %s failed to create %q: %v", senderID, req.Name, err)
		mh.sendError(state, dispatcher, logger, senderID, errorCode(err), err.Error())
		return
	}
	// The creator joins the new team.
	if _, err := state.Engine.JoinTeam(senderID, req.Name); err != nil {
		mh.sendError(state, dispatcher, logger, senderID, errorCode(err), err.Error())
	}
	mh.updateLabel(state, dispatcher, logger)
	mh.broadcastSnapshot(state, dispatcher, logger)
}

func (mh *matchHandler) handleJoinTeam(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, msg runtime.MatchData) {
	senderID := msg.GetUserId()
	var req joinTeamRequest
	if err := decode(msg.GetData(), &req); err != nil {
		mh.sendError(state, dispatcher, logger, senderID, ErrCodeBadRequest, err.Error())
		return
	}
	if !mh.requireLobby(state, dispatcher, logger, senderID) {
		return
	}

	if _, err := state.Engine.JoinTeam(senderID, req.Team); err != nil {
		logger.Warn("handleJoinTeam: User %s failed to join %q: %v", senderID, req.Team, err)
		mh.sendError(state, dispatcher, logger, senderID, errorCode(err), err.Error())
		return
	}
	mh.updateLabel(state, dispatcher, logger)
	mh.broadcastSnapshot(state, dispatcher, logger)
}

func (mh *matchHandler) handleLeaveTeam(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, msg runtime.MatchData) {
	senderID := msg.GetUserId()
	if !mh.requireLobby(state, dispatcher, logger, senderID) {
		return
	}
	if state.Engine.LeaveTeam(senderID) {
		mh.updateLabel(state, dispatcher, logger)
		mh.broadcastSnapshot(state, dispatcher, logger)
	}
}

func (mh *matchHandler) handleUpdateSettings(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, msg runtime.MatchData) {
	senderID := msg.GetUserId()
	if senderID != state.OwnerID {
		logger.Warn("handleUpdateSettings: User %s is not owner (owner=%s)", senderID, state.OwnerID)
		mh.sendError(state, dispatcher, logger, senderID, ErrCodeNotOwner, "only the match owner can change settings")
		return
	}
	var req updateSettingsRequest
	if err := decode(msg.GetData(), &req); err != nil {
		mh.sendError(state, dispatcher, logger, senderID, ErrCodeBadRequest, err.Error())
		return
	}
	if err := state.Engine.UpdateSettings(req.apply); err != nil {
		logger.Warn("handleUpdateSettings: %v", err)
		mh.sendError(state, dispatcher, logger, senderID, errorCode(err), err.Error())
		return
	}
	mh.updateLabel(state, dispatcher, logger)
	mh.broadcastSnapshot(state, dispatcher, logger)
}

func (mh *matchHandler) handleStartMatch(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, msg runtime.MatchData) {
	senderID := msg.GetUserId()
	logger.Info("StartMatch: Request received from %s (owner=%s, players=%d)", senderID, state.OwnerID, len(state.Engine.Players()))

	if senderID != state.OwnerID {
		logger.Warn("StartMatch: User %s tried to start but is not owner", senderID)
		mh.sendError(state, dispatcher, logger, senderID, ErrCodeNotOwner, "only the match owner can start")
		return
	}
	if err := state.Engine.Start(); err != nil {
		logger.Warn("StartMatch: Failed to start: %v", err)
		mh.sendError(state, dispatcher, logger, senderID, errorCode(err), err.Error())
		return
	}
	logger.Info("StartMatch: Match started with %d team(s).", len(state.Engine.Teams()))
}

func (mh *matchHandler) handleQuestAcquired(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, msg runtime.MatchData) {
	senderID := msg.GetUserId()
	quest, ok := mh.readQuest(state, dispatcher, logger, msg)
	if !ok {
		return
	}
	result := state.Engine.OnQuestAcquired(senderID, quest)
	logger.Debug("handleQuestAcquired: %s acquired %s: %s", senderID, quest, result)
}

func (mh *matchHandler) handleQuestLost(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, msg runtime.MatchData) {
	senderID := msg.GetUserId()
	quest, ok := mh.readQuest(state, dispatcher, logger, msg)
	if !ok {
		return
	}
	if _, err := state.Engine.RevokeQuest(senderID, quest); err != nil {
		logger.Debug("handleQuestLost: %s lost %s: %v", senderID, quest, err)
	}
}

func (mh *matchHandler) readQuest(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, msg runtime.MatchData) (domain.Quest, bool) {
	var req questMessage
	err := decode(msg.GetData(), &req)
	var quest domain.Quest
	if err == nil {
		quest, err = req.toQuest()
	}
	if err != nil {
		logger.Warn("readQuest: Invalid quest from %s: %v", msg.GetUserId(), err)
		mh.sendError(state, dispatcher, logger, msg.GetUserId(), ErrCodeBadRequest, err.Error())
		return domain.Quest{}, false
	}
	return quest, true
}

func (mh *matchHandler) requireLobby(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, userID string) bool {
	if state.Engine.Phase() == domain.PhaseLobby {
		return true
	}
	mh.sendError(state, dispatcher, logger, userID, ErrCodeConflict, app.ErrNotInLobby.Error())
	return false
}

// errorCode maps engine and domain errors to OpGameError codes.
func errorCode(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidSettings),
		errors.Is(err, domain.ErrInvalidTeamName),
		errors.Is(err, app.ErrUnknownPlayer),
		errors.Is(err, domain.ErrUnknownTeam),
		errors.Is(err, errBadPayload):
		return ErrCodeBadRequest
	case errors.Is(err, app.ErrNotInLobby),
		errors.Is(err, app.ErrNotInProgress),
		errors.Is(err, app.ErrNoTeams),
		errors.Is(err, domain.ErrNameConflict),
		errors.Is(err, domain.ErrTeamFull):
		return ErrCodeConflict
	default:
		return ErrCodeInternal
	}
}

// flushEvents dispatches everything the engine announced since the last flush.
func (mh *matchHandler) flushEvents(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	for _, ev := range state.Events.Drain() {
		mh.broadcastEvent(state, dispatcher, logger, ev)
	}
}

// broadcastEvent handles the conversion and dispatching of app events to Nakama.
func (mh *matchHandler) broadcastEvent(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, ev app.Event) {
	opCode, payload, err := eventMessage(ev)
	if err != nil {
		logger.Warn("broadcastEvent: %v", err)
		return
	}
	bytes, err := encodeMessage(payload)
	if err != nil {
		logger.Error("Failed to marshal event %v: %v", ev.Kind, err)
		return
	}

	// Determine recipients (default to broadcast)
	var recipients []runtime.Presence
	if len(ev.Recipients) > 0 {
		for _, uid := range ev.Recipients {
			if p, ok := state.Presences[uid]; ok {
				recipients = append(recipients, p)
			}
		}
		// Targeted events never fall back to a broadcast.
		if len(recipients) == 0 {
			return
		}
	}

	if ev.Kind == app.EventMatchEnded {
		logger.Info("Event: match_ended %s", bytes)
	}
	dispatcher.BroadcastMessage(opCode, bytes, recipients, nil, true)
}

func (mh *matchHandler) broadcastSnapshot(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	bytes, err := encodeMessage(snapshotValue(state.Engine.Snapshot(), state.OwnerID, state.Tick))
	if err != nil {
		logger.Error("broadcastSnapshot: Failed to marshal: %v", err)
		return
	}
	state.lastSnapshotTick = state.Tick
	dispatcher.BroadcastMessage(OpSnapshot, bytes, nil, nil, true)
}

func (mh *matchHandler) sendSnapshot(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, userID string) {
	presence, ok := state.Presences[userID]
	if !ok {
		return
	}
	bytes, err := encodeMessage(snapshotValue(state.Engine.Snapshot(), state.OwnerID, state.Tick))
	if err != nil {
		logger.Error("sendSnapshot: Failed to marshal: %v", err)
		return
	}
	dispatcher.BroadcastMessage(OpSnapshot, bytes, []runtime.Presence{presence}, nil, true)
}

// sendError sends an OpGameError payload to a specific user.
func (mh *matchHandler) sendError(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, userID string, code int, message string) {
	bytes, err := encodeMessage(errorValue(code, message))
	if err != nil {
		logger.Error("Failed to marshal error: %v", err)
		return
	}

	presence, ok := state.Presences[userID]
	if !ok {
		logger.Warn("Cannot send error to %s: Presence not found", userID)
		return
	}

	dispatcher.BroadcastMessage(OpGameError, bytes, []runtime.Presence{presence}, nil, true)
}

func (mh *matchHandler) label(state *MatchState) (string, error) {
	label := domain.ComputeLabel(state.Engine.Phase(), state.Engine.Settings(), len(state.Presences), len(state.Engine.Teams()))
	b, err := json.Marshal(label)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (mh *matchHandler) updateLabel(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	label, err := mh.label(state)
	if err != nil {
		logger.Error("UpdateLabel: Failed to marshal: %v", err)
		return
	}
	if err := dispatcher.MatchLabelUpdate(label); err != nil {
		logger.Error("UpdateLabel: Failed to update: %v", err)
	}
}

func (mh *matchHandler) MatchTerminate(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, reason int) interface{} {
	logger.Debug("MatchTerminate: Match terminated for reason %d", reason)
	if matchState, ok := state.(*MatchState); ok {
		matchState.Engine.Reset()
	}
	return state
}

// signalRequest is the JSON accepted by MatchSignal.
type signalRequest struct {
	Command string `json:"command"`
	UserID  string `json:"user_id"`
}

// Operator and RPC commands delivered through nk.MatchSignal.
const (
	SignalStart      = "start"
	SignalEnd        = "end"
	SignalReset      = "reset"
	SignalRegenerate = "regenerate"
	SignalTeamOf     = "team_of"
)

// MatchSignal runs operator commands against the match. "end" finishes the
// match with the current leaders; "team_of" answers with the team name of
// user_id.
func (mh *matchHandler) MatchSignal(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, data string) (interface{}, string) {
	matchState, ok := state.(*MatchState)
	if !ok {
		return state, ""
	}
	var req signalRequest
	if err := decode([]byte(data), &req); err != nil {
		return state, signalReply(err)
	}

	before := matchState.Engine.Phase()
	var err error
	switch req.Command {
	case SignalStart:
		err = matchState.Engine.Start()
	case SignalEnd:
		err = matchState.Engine.End(matchState.Engine.LeadingTeams())
	case SignalReset:
		matchState.Engine.Reset()
	case SignalRegenerate:
		err = matchState.Engine.RegenerateCard()
	case SignalTeamOf:
		if t, ok := matchState.Engine.TeamOf(req.UserID); ok {
			return state, t.Name()
		}
		return state, ""
	default:
		err = fmt.Errorf("%w: unknown command %q", errBadPayload, req.Command)
	}
	if err != nil {
		logger.Warn("MatchSignal: %s failed: %v", req.Command, err)
		return state, signalReply(err)
	}
	logger.Info("MatchSignal: %s", req.Command)

	mh.flushEvents(matchState, dispatcher, logger)
	if req.Command == SignalRegenerate {
		mh.broadcastSnapshot(matchState, dispatcher, logger)
	}
	mh.afterPhaseChange(matchState, dispatcher, logger, before)
	return state, signalReply(nil)
}

func signalReply(err error) string {
	reply := map[string]interface{}{"ok": err == nil}
	if err != nil {
		reply["error"] = err.Error()
	}
	b, _ := json.Marshal(reply)
	return string(b)
}
