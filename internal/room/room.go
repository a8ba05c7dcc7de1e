// internal/room/room.go
package room

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/quickparty/quickparty/internal/config"
	"github.com/quickparty/quickparty/internal/lobbydir"
)

// Result is one row of a finished game's ordered results.
type Result struct {
	PlayerID uuid.UUID `json:"playerId"`
	Name     string    `json:"name"`
	Score    int       `json:"score"`
	Rank     int       `json:"rank"`
}

// Room owns a single game session: its player registry, phase machine,
// connection bookkeeping and timers. All state is serialized behind one
// mutex; timer callbacks re-acquire it and re-check the condition they
// guard before acting. Rooms share nothing with each other except the
// lobby publisher's channel.
type Room struct {
	ID       uuid.UUID
	Code     string
	GameType string

	// Collaborators. Set before Start; immutable afterwards.
	Transport Transport
	Hooks     GameHooks
	Publisher lobbydir.Publisher
	Logger    *logrus.Logger

	// OnDisposed is invoked exactly once after disposal, typically to drop
	// the room from its store.
	OnDisposed func(roomID uuid.UUID)

	mu                 sync.Mutex
	cfg                config.RoomConfig
	registry           *Registry
	phase              Phase
	phaseStartedAt     time.Time
	phaseEndsAt        time.Time // zero while the phase is untimed
	countdownRemaining int
	createdAt          time.Time
	updatedAt          time.Time
	results            []Result
	disposed           bool
	timers             *timerSet
}

// New builds a room in LOBBY phase with no players. Attach Transport, Hooks
// and Publisher before calling Start.
func New(gameType string, cfg config.RoomConfig) *Room {
	id, _ := uuid.NewV7()
	now := time.Now()
	return &Room{
		ID:        id,
		Code:      newRoomCode(),
		GameType:  gameType,
		Transport: NopTransport{},
		Hooks:     NopHooks{},
		Publisher: lobbydir.NopPublisher{},
		Logger:    logrus.StandardLogger(),
		cfg:       cfg,
		registry:  NewRegistry(),
		phase:     PhaseLobby,
		createdAt: now,
		updatedAt: now,
		timers:    newTimerSet(),
	}
}

// Start begins the idle sweep and announces the room to the lobby directory.
func (r *Room) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.scheduleIdleSweep()
	r.publishState()
}

// Snapshot returns the room's current lobby directory entry.
func (r *Room) Snapshot() lobbydir.Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.entry()
}

// CanStart reports the quorum predicate: every connected player is ready and
// the connected count meets the configured minimum.
func (r *Room) CanStart() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.canStart()
}

// CurrentPhase returns the room's phase.
func (r *Room) CurrentPhase() Phase {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.phase
}

// GameSettings returns the opaque per-game settings blob for this room.
// Intended for hooks; the core never inspects it.
func (r *Room) GameSettings() []byte {
	return r.cfg.GameSettings
}

// Players returns every registered player in join order. Hook-context only:
// the room lock must already be held.
func (r *Room) Players() []*Player {
	return r.registry.All()
}

// PlayerByID returns a registered player. Hook-context only.
func (r *Room) PlayerByID(id uuid.UUID) (*Player, bool) {
	return r.registry.Get(id)
}

// HandleJoin admits a session into the room, or completes a reconnection if
// the identifier is already registered. Returns whether this was a
// reconnect.
func (r *Room) HandleJoin(sessionID uuid.UUID, displayName string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.disposed {
		return false, fmt.Errorf("room %s is disposed", r.Code)
	}

	if p, ok := r.registry.Get(sessionID); ok {
		// Reconnection: same row, same score, same game data. Cancel the
		// grace timer before anything else so it cannot fire against the
		// rejoined player.
		r.timers.cancel(reconnectTimerName(sessionID.String()))
		r.timers.cancel(timerDispose)
		p.IsConnected = true
		p.LastActivity = time.Now()
		r.Logger.Infof("room %s: player %s reconnected", r.Code, sessionID)
		r.Transport.Send(sessionID, NotifyWelcome, r.welcomePayload(p))
		r.Transport.BroadcastExcept(sessionID, NotifyPlayerReconnected, map[string]interface{}{
			"playerId": sessionID.String(),
			"name":     p.Name,
		})
		r.publishState()
		return true, nil
	}

	if r.phase != PhaseLobby {
		return false, fmt.Errorf("room %s is not accepting new players in phase %s", r.Code, r.phase)
	}
	if len(r.registry.ConnectedPlayers()) >= r.cfg.MaxPlayers {
		r.sendError(sessionID, ReasonRoomFull, "room is full")
		return false, fmt.Errorf("room %s is full", r.Code)
	}

	r.timers.cancel(timerDispose)
	p, _ := r.registry.Upsert(sessionID, displayName)
	if _, ok := r.registry.CurrentHost(); !ok {
		p.IsHost = true
	}
	r.Logger.Infof("room %s: player %s (%s) joined, host=%v", r.Code, sessionID, displayName, p.IsHost)

	r.Transport.Send(sessionID, NotifyWelcome, r.welcomePayload(p))
	r.Transport.BroadcastExcept(sessionID, NotifyPlayerJoined, map[string]interface{}{
		"playerId":    sessionID.String(),
		"name":        p.Name,
		"isHost":      p.IsHost,
		"playerCount": len(r.registry.ConnectedPlayers()),
	})
	r.publishState()
	return false, nil
}

// HandleLeave processes a voluntary leave (consented) or an involuntary
// disconnect. Unconsented leaves outside LOBBY start the reconnection grace
// period instead of removing the player.
func (r *Room) HandleLeave(sessionID uuid.UUID, consented bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.registry.Get(sessionID)
	if !ok || r.disposed {
		return
	}

	if consented || r.phase == PhaseLobby {
		// Nothing mid-game to preserve; remove immediately.
		r.removePlayer(p, "left")
		return
	}

	if !p.IsConnected {
		return // duplicate disconnect
	}
	p.IsConnected = false
	r.Logger.Infof("room %s: player %s disconnected, grace %s", r.Code, sessionID, r.cfg.ReconnectGrace)
	r.Transport.Broadcast(NotifyPlayerDisconnected, map[string]interface{}{
		"playerId": sessionID.String(),
		"name":     p.Name,
	})

	if p.IsHost {
		r.reassignHost()
	}

	id := sessionID
	r.timers.schedule(reconnectTimerName(id.String()), r.cfg.ReconnectGrace, func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		if r.disposed {
			return
		}
		stale, ok := r.registry.Get(id)
		if !ok || stale.IsConnected {
			return // rejoined in the meantime
		}
		r.Logger.Infof("room %s: reconnect grace expired for %s", r.Code, id)
		r.removePlayer(stale, "reconnect_timeout")
	})

	r.checkCountdownQuorum()
	r.maybeScheduleDisposal()
	r.publishState()
}

// HandleMessage routes one inbound client message. Built-in types are
// handled here; everything else goes to the game hooks. Any inbound message
// refreshes the player's activity timestamp.
func (r *Room) HandleMessage(sessionID uuid.UUID, msgType string, payload map[string]interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.disposed {
		return
	}
	p, ok := r.registry.Get(sessionID)
	if !ok {
		r.sendError(sessionID, ReasonUnknownPlayer, "you are not in this room")
		return
	}
	p.LastActivity = time.Now()

	switch msgType {
	case MsgReady:
		ready, ok := payload["ready"].(bool)
		if !ok {
			r.sendError(sessionID, ReasonBadPayload, "ready must carry {ready: bool}")
			return
		}
		r.setReady(p, ready)
	case MsgStartGame:
		r.requestStart(p)
	case MsgRematch:
		r.castRematchVote(p)
	case MsgChat:
		msg, _ := payload["msg"].(string)
		if msg != "" {
			r.Transport.Broadcast(NotifyChat, map[string]interface{}{
				"playerId": sessionID.String(),
				"name":     p.Name,
				"msg":      msg,
				"ts":       time.Now().Unix(),
			})
		}
	case MsgUpdateSettings:
		r.updateSettings(p, payload)
	case MsgKeepalive:
		// Activity already refreshed above.
	default:
		if err := r.callGameMessage(p, msgType, payload); err != nil {
			r.sendError(sessionID, ReasonGameRejected, err.Error())
		}
	}
}

// SetReady updates a player's ready flag. No-op outside LOBBY.
func (r *Room) SetReady(sessionID uuid.UUID, ready bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.registry.Get(sessionID); ok {
		p.LastActivity = time.Now()
		r.setReady(p, ready)
	}
}

// RequestStart begins the countdown if the caller is host, the room is in
// LOBBY, and quorum holds.
func (r *Room) RequestStart(sessionID uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.registry.Get(sessionID)
	if !ok {
		r.sendError(sessionID, ReasonUnknownPlayer, "you are not in this room")
		return
	}
	r.requestStart(p)
}

// CastRematchVote toggles the caller's rematch vote while in RESULTS.
func (r *Room) CastRematchVote(sessionID uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.registry.Get(sessionID); ok {
		r.castRematchVote(p)
	}
}

// EndGame records ordered results and moves the room to RESULTS. Callable
// only from game hooks, which run with the room lock held; the core itself
// never ends an in-progress game.
func (r *Room) EndGame(results []Result) error {
	if r.phase != PhasePlaying {
		return fmt.Errorf("cannot end game from phase %s", r.phase)
	}

	for i := range results {
		if results[i].Name == "" {
			if p, ok := r.registry.Get(results[i].PlayerID); ok {
				results[i].Name = p.Name
			}
		}
		if results[i].Rank == 0 {
			results[i].Rank = i + 1
		}
	}
	r.results = results

	// Ready flags are repurposed as rematch votes for the RESULTS phase.
	for _, p := range r.registry.All() {
		p.IsReady = false
	}

	duration := time.Since(r.phaseStartedAt)
	if !r.transitionTo(PhaseResults, "game_over", r.cfg.ResultsWindow) {
		return fmt.Errorf("results transition rejected from phase %s", r.phase)
	}

	payload := map[string]interface{}{
		"results":    resultPayload(results),
		"durationMs": duration.Milliseconds(),
	}
	if len(results) > 0 {
		payload["winner"] = results[0].PlayerID.String()
	}
	r.Transport.Broadcast(NotifyGameEnded, payload)

	r.timers.schedule(timerResultsReset, r.cfg.ResultsWindow, func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		if r.phase != PhaseResults {
			return // rematch or disposal got there first
		}
		r.resetGame("AUTO")
	})
	return nil
}

// ResetGame returns the room to LOBBY, passing through the RESET phase when
// a game was in flight.
func (r *Room) ResetGame(reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resetGame(reason)
}

// Dispose cancels every pending timer, publishes the final lobby event and
// releases the room. Safe to call more than once and with zero players.
func (r *Room) Dispose() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dispose()
}

// --- internals; all assume the room lock is held ---

func (r *Room) canStart() bool {
	connected := len(r.registry.ConnectedPlayers())
	if connected == 0 || connected < r.cfg.MinPlayers {
		return false
	}
	return len(r.registry.ReadyPlayers()) == connected
}

func (r *Room) setReady(p *Player, ready bool) {
	if r.phase != PhaseLobby {
		return
	}
	p.IsReady = ready
	r.broadcastReady(p)
}

func (r *Room) broadcastReady(p *Player) {
	r.Transport.Broadcast(NotifyPlayerReady, map[string]interface{}{
		"playerId":       p.ID.String(),
		"isReady":        p.IsReady,
		"readyCount":     len(r.registry.ReadyPlayers()),
		"connectedCount": len(r.registry.ConnectedPlayers()),
		"canStart":       r.canStart(),
	})
}

func (r *Room) requestStart(p *Player) {
	if !p.IsHost {
		r.sendError(p.ID, ReasonNotHost, "only the host can start the game")
		return
	}
	if r.phase != PhaseLobby {
		r.sendError(p.ID, ReasonBadPhase, "game can only be started from the lobby")
		return
	}
	if !r.canStart() {
		r.sendError(p.ID, ReasonNotReady, "not enough ready players")
		return
	}

	seconds := r.cfg.CountdownSeconds
	r.countdownRemaining = seconds
	if !r.transitionTo(PhaseCountdown, "host_start", time.Duration(seconds)*time.Second) {
		return
	}
	r.Transport.Broadcast(NotifyCountdownStarted, map[string]interface{}{
		"seconds": seconds,
	})
	r.scheduleCountdownTick()
}

func (r *Room) scheduleCountdownTick() {
	r.timers.schedule(timerCountdownTick, time.Second, func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		if r.phase != PhaseCountdown {
			return
		}
		// Quorum is re-checked every tick; losing it cancels the countdown.
		if !r.canStart() {
			r.cancelCountdown("quorum_lost")
			return
		}
		r.countdownRemaining--
		if r.countdownRemaining > 0 {
			r.Transport.Broadcast(NotifyCountdownTick, map[string]interface{}{
				"remaining": r.countdownRemaining,
			})
			r.scheduleCountdownTick()
			return
		}
		r.beginPlaying()
	})
}

func (r *Room) cancelCountdown(reason string) {
	r.timers.cancel(timerCountdownTick)
	r.countdownRemaining = 0
	r.Transport.Broadcast(NotifyCountdownCancelled, map[string]interface{}{
		"reason": reason,
	})
	r.transitionTo(PhaseLobby, reason, 0)
}

func (r *Room) checkCountdownQuorum() {
	if r.phase == PhaseCountdown && len(r.registry.ConnectedPlayers()) < r.cfg.MinPlayers {
		r.cancelCountdown("quorum_lost")
	}
}

func (r *Room) beginPlaying() {
	for _, p := range r.registry.ConnectedPlayers() {
		p.IsAlive = true
		p.IsReady = false
	}
	if !r.transitionTo(PhasePlaying, "countdown_complete", 0) {
		return
	}
	r.Transport.Broadcast(NotifyGameStarted, map[string]interface{}{
		"gameType": r.GameType,
		"players":  r.playerListPayload(),
	})
	r.callHook("OnGameStart", func() { r.Hooks.OnGameStart(r) })
}

func (r *Room) castRematchVote(p *Player) {
	if r.phase != PhaseResults {
		return
	}
	p.IsReady = !p.IsReady
	p.LastActivity = time.Now()
	r.broadcastReady(p)

	connected := len(r.registry.ConnectedPlayers())
	if connected > 0 && len(r.registry.ReadyPlayers()) == connected {
		r.timers.cancel(timerResultsReset)
		r.resetGame("REMATCH")
	}
}

func (r *Room) resetGame(reason string) {
	switch r.phase {
	case PhaseLobby:
		r.clearGameState()
		return
	case PhaseCountdown:
		r.timers.cancel(timerCountdownTick)
		r.clearGameState()
		r.transitionTo(PhaseLobby, reason, 0)
		return
	}

	if !r.transitionTo(PhaseReset, reason, r.cfg.ResetDelay) {
		return
	}
	r.timers.cancel(timerResultsReset)
	r.clearGameState()
	r.callHook("OnGameReset", func() { r.Hooks.OnGameReset(r) })
	r.Transport.Broadcast(NotifyGameReset, map[string]interface{}{
		"reason": reason,
	})
	r.timers.schedule(timerResetDelay, r.cfg.ResetDelay, func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		if r.phase != PhaseReset {
			return
		}
		r.transitionTo(PhaseLobby, "reset_complete", 0)
	})
}

func (r *Room) clearGameState() {
	r.countdownRemaining = 0
	r.results = nil
	for _, p := range r.registry.All() {
		p.Score = 0
		p.IsAlive = false
		p.IsReady = false
		p.GameData = nil
	}
}

// removePlayer permanently removes p: cancels their grace timer, reassigns
// the host if needed, and schedules room disposal when nobody is left.
func (r *Room) removePlayer(p *Player, cause string) {
	r.timers.cancel(reconnectTimerName(p.ID.String()))
	wasHost := p.IsHost
	r.registry.Remove(p.ID)

	r.Logger.Infof("room %s: player %s removed (%s)", r.Code, p.ID, cause)
	r.Transport.Broadcast(NotifyPlayerLeft, map[string]interface{}{
		"playerId": p.ID.String(),
		"name":     p.Name,
		"cause":    cause,
	})

	if wasHost {
		r.reassignHost()
	}

	r.checkCountdownQuorum()

	if r.phase == PhasePlaying {
		// The core does not know how to end every game type; let the game
		// decide whether the survivors still make a game.
		r.callHook("OnPlayerRemoved", func() { r.Hooks.OnPlayerRemoved(r, p) })
	}

	r.maybeScheduleDisposal()
	r.publishState()
}

func (r *Room) reassignHost() {
	newHost, ok := r.registry.ReassignHost()
	if !ok {
		return
	}
	r.Logger.Infof("room %s: host reassigned to %s", r.Code, newHost.ID)
	r.Transport.Broadcast(NotifyNewHost, map[string]interface{}{
		"playerId": newHost.ID.String(),
		"name":     newHost.Name,
	})
}

// maybeScheduleDisposal arms the empty-room disposal timer once the last
// registered player is gone. A disconnected player with a pending reconnect
// grace period still counts as registered and keeps the room alive; grace
// expiry removes them and re-enters here. A short extra window absorbs
// racing rejoins after the final removal.
func (r *Room) maybeScheduleDisposal() {
	if r.disposed || r.registry.Len() > 0 {
		return
	}
	if r.phase != PhasePlaying && r.phase != PhaseLobby {
		r.clearGameState()
		r.transitionTo(PhaseLobby, "room_empty", 0)
	}
	r.timers.schedule(timerDispose, r.cfg.DisposeGrace, func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		if r.disposed || r.registry.Len() > 0 {
			return
		}
		r.dispose()
	})
}

func (r *Room) dispose() {
	if r.disposed {
		return
	}
	r.disposed = true
	r.timers.cancelAll()
	r.Logger.Infof("room %s: disposed", r.Code)

	entry := r.entry()
	pub, logger := r.Publisher, r.Logger
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := pub.Publish(ctx, lobbydir.EventRoomDisposed, entry); err != nil {
			logger.Warnf("room %s: final lobby publish failed: %v", entry.RoomCode, err)
		}
	}()

	if r.OnDisposed != nil {
		r.OnDisposed(r.ID)
	}
}

func (r *Room) scheduleIdleSweep() {
	if r.cfg.SweepInterval <= 0 || r.cfg.AFKTimeout <= 0 {
		return // sweeping disabled
	}
	r.timers.schedule(timerIdleSweep, r.cfg.SweepInterval, func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		if r.disposed {
			return
		}
		cutoff := time.Now().Add(-r.cfg.AFKTimeout)
		for _, p := range r.registry.ConnectedPlayers() {
			if p.LastActivity.Before(cutoff) {
				// Advisory eviction, never silent: tell the player first.
				r.sendError(p.ID, "afk_timeout", "removed for inactivity")
				r.removePlayer(p, "afk")
			}
		}
		if !r.disposed {
			r.scheduleIdleSweep()
		}
	})
}

func (r *Room) updateSettings(p *Player, payload map[string]interface{}) {
	if !p.IsHost {
		r.sendError(p.ID, ReasonNotHost, "only the host can update settings")
		return
	}
	if r.phase != PhaseLobby {
		r.sendError(p.ID, ReasonBadPhase, "settings can only change in the lobby")
		return
	}
	raw, err := encodeOverrides(payload["settings"])
	if err != nil {
		r.sendError(p.ID, ReasonBadPayload, err.Error())
		return
	}
	merged, err := r.cfg.Merge(raw)
	if err != nil {
		r.sendError(p.ID, ReasonBadPayload, err.Error())
		return
	}
	r.cfg = merged
	r.Transport.Broadcast(NotifySettingsUpdated, map[string]interface{}{
		"minPlayers":       r.cfg.MinPlayers,
		"maxPlayers":       r.cfg.MaxPlayers,
		"countdownSeconds": r.cfg.CountdownSeconds,
		"private":          r.cfg.Private,
	})
	r.publishState()
}

// transitionTo applies a phase change if the transition table allows it.
// A self-transition is a no-op success. On success the change is broadcast
// to clients and published to the lobby directory.
func (r *Room) transitionTo(target Phase, reason string, duration time.Duration) bool {
	if r.phase == target {
		return true
	}
	if !r.phase.CanTransitionTo(target) {
		r.Logger.Warnf("room %s: rejected transition %s -> %s (%s)", r.Code, r.phase, target, reason)
		return false
	}

	previous := r.phase
	now := time.Now()
	r.phase = target
	r.phaseStartedAt = now
	if duration > 0 {
		r.phaseEndsAt = now.Add(duration)
	} else {
		r.phaseEndsAt = time.Time{}
	}
	r.updatedAt = now

	payload := map[string]interface{}{
		"phase":          string(target),
		"previousPhase":  string(previous),
		"reason":         reason,
		"playerCount":    len(r.registry.ConnectedPlayers()),
		"phaseStartedAt": now.UnixMilli(),
	}
	if !r.phaseEndsAt.IsZero() {
		payload["phaseEndsAt"] = r.phaseEndsAt.UnixMilli()
	}
	r.Transport.Broadcast(NotifyRoomState, payload)
	r.publishState()
	return true
}

// publishState pushes the current snapshot to the lobby directory without
// blocking the room. Failures degrade to a warning.
func (r *Room) publishState() {
	entry := r.entry()
	pub, logger := r.Publisher, r.Logger
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := pub.Publish(ctx, lobbydir.EventRoomStateChanged, entry); err != nil {
			logger.Warnf("room %s: lobby publish failed: %v", entry.RoomCode, err)
		}
	}()
}

func (r *Room) entry() lobbydir.Entry {
	return lobbydir.Entry{
		RoomID:      r.ID.String(),
		RoomCode:    r.Code,
		GameType:    r.GameType,
		Phase:       string(r.phase),
		PlayerCount: len(r.registry.ConnectedPlayers()),
		MaxPlayers:  r.cfg.MaxPlayers,
		Private:     r.cfg.Private,
		CreatedAt:   r.createdAt,
		UpdatedAt:   r.updatedAt,
	}
}

func (r *Room) sendError(sessionID uuid.UUID, code, message string) {
	r.Transport.Send(sessionID, NotifyError, map[string]interface{}{
		"code":    code,
		"message": message,
	})
}

func (r *Room) welcomePayload(p *Player) map[string]interface{} {
	payload := map[string]interface{}{
		"sessionId": p.ID.String(),
		"roomCode":  r.Code,
		"gameType":  r.GameType,
		"isHost":    p.IsHost,
		"phase":     string(r.phase),
		"players":   r.playerListPayload(),
	}
	if !r.phaseEndsAt.IsZero() {
		payload["phaseEndsAt"] = r.phaseEndsAt.UnixMilli()
	}
	return payload
}

func (r *Room) playerListPayload() []map[string]interface{} {
	players := r.registry.All()
	out := make([]map[string]interface{}, 0, len(players))
	for _, p := range players {
		out = append(out, map[string]interface{}{
			"playerId":    p.ID.String(),
			"name":        p.Name,
			"isHost":      p.IsHost,
			"isReady":     p.IsReady,
			"isConnected": p.IsConnected,
			"score":       p.Score,
		})
	}
	return out
}

func resultPayload(results []Result) []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(results))
	for _, res := range results {
		out = append(out, map[string]interface{}{
			"playerId": res.PlayerID.String(),
			"name":     res.Name,
			"score":    res.Score,
			"rank":     res.Rank,
		})
	}
	return out
}

// callHook runs a game hook, containing any panic so game-specific failures
// never break the room's own state machine.
func (r *Room) callHook(name string, fn func()) {
	defer func() {
		if rec := recover(); rec != nil {
			r.Logger.Errorf("room %s: game hook %s panicked: %v", r.Code, name, rec)
		}
	}()
	fn()
}

func (r *Room) callGameMessage(p *Player, msgType string, payload map[string]interface{}) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			r.Logger.Errorf("room %s: game hook OnGameMessage panicked: %v", r.Code, rec)
			err = fmt.Errorf("game logic failed")
		}
	}()
	return r.Hooks.OnGameMessage(r, p, msgType, payload)
}

// encodeOverrides re-encodes the client-supplied settings object so it can
// be merged through the same JSON path as room-creation overrides.
func encodeOverrides(v interface{}) (json.RawMessage, error) {
	obj, ok := v.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("update_settings must carry {settings: object}")
	}
	raw, err := json.Marshal(obj)
	if err != nil {
		return nil, fmt.Errorf("invalid settings object: %w", err)
	}
	return raw, nil
}

const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// newRoomCode returns a 6-character human-shareable join code, skipping
// ambiguous characters.
func newRoomCode() string {
	buf := make([]byte, 6)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand never fails on supported platforms; fall back to a
		// uuid-derived code just in case.
		return uuid.NewString()[:6]
	}
	for i, b := range buf {
		buf[i] = codeAlphabet[int(b)%len(codeAlphabet)]
	}
	return string(buf)
}
