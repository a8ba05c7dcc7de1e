// internal/room/room_test.go
package room

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quickparty/quickparty/internal/config"
	"github.com/quickparty/quickparty/internal/lobbydir"
)

// sentEvent is one captured transport delivery. target is uuid.Nil for
// broadcasts; except is set for BroadcastExcept.
type sentEvent struct {
	target uuid.UUID
	except uuid.UUID
	typ    string
	data   map[string]interface{}
}

// recordingTransport captures everything the room sends so tests can assert
// on notification order and payloads.
type recordingTransport struct {
	mu     sync.Mutex
	events []sentEvent
}

func (t *recordingTransport) Send(sessionID uuid.UUID, msgType string, data map[string]interface{}) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.events = append(t.events, sentEvent{target: sessionID, typ: msgType, data: data})
}

func (t *recordingTransport) Broadcast(msgType string, data map[string]interface{}) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.events = append(t.events, sentEvent{typ: msgType, data: data})
}

func (t *recordingTransport) BroadcastExcept(sessionID uuid.UUID, msgType string, data map[string]interface{}) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.events = append(t.events, sentEvent{except: sessionID, typ: msgType, data: data})
}

func (t *recordingTransport) count(msgType string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := 0
	for _, e := range t.events {
		if e.typ == msgType {
			n++
		}
	}
	return n
}

func (t *recordingTransport) last(msgType string) (sentEvent, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i := len(t.events) - 1; i >= 0; i-- {
		if t.events[i].typ == msgType {
			return t.events[i], true
		}
	}
	return sentEvent{}, false
}

// recordingPublisher captures lobby directory events.
type recordingPublisher struct {
	mu     sync.Mutex
	events []string
}

func (p *recordingPublisher) Publish(_ context.Context, eventType string, _ lobbydir.Entry) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, eventType)
	return nil
}

func (p *recordingPublisher) count(eventType string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, e := range p.events {
		if e == eventType {
			n++
		}
	}
	return n
}

// testHooks lets a test stand in for a game implementation.
type testHooks struct {
	onStart   func(r *Room)
	onReset   func(r *Room)
	onMessage func(r *Room, p *Player, msgType string, payload map[string]interface{}) error
	onRemoved func(r *Room, p *Player)
}

func (h *testHooks) OnGameStart(r *Room) {
	if h.onStart != nil {
		h.onStart(r)
	}
}

func (h *testHooks) OnGameReset(r *Room) {
	if h.onReset != nil {
		h.onReset(r)
	}
}

func (h *testHooks) OnGameMessage(r *Room, p *Player, msgType string, payload map[string]interface{}) error {
	if h.onMessage != nil {
		return h.onMessage(r, p, msgType, payload)
	}
	return nil
}

func (h *testHooks) OnPlayerRemoved(r *Room, p *Player) {
	if h.onRemoved != nil {
		h.onRemoved(r, p)
	}
}

func testCfg() config.RoomConfig {
	return config.RoomConfig{
		MinPlayers:       2,
		MaxPlayers:       4,
		CountdownSeconds: 1,
		ResultsWindow:    80 * time.Millisecond,
		ResetDelay:       40 * time.Millisecond,
		ReconnectGrace:   60 * time.Millisecond,
		AFKTimeout:       time.Hour,
		SweepInterval:    time.Hour,
		DisposeGrace:     50 * time.Millisecond,
	}
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func newTestRoom(cfg config.RoomConfig) (*Room, *recordingTransport, *recordingPublisher) {
	rm := New("freeplay", cfg)
	transport := &recordingTransport{}
	publisher := &recordingPublisher{}
	rm.Transport = transport
	rm.Publisher = publisher
	rm.Logger = quietLogger()
	return rm, transport, publisher
}

func join(t *testing.T, rm *Room, name string) uuid.UUID {
	t.Helper()
	id := uuid.New()
	reconnect, err := rm.HandleJoin(id, name)
	require.NoError(t, err)
	require.False(t, reconnect)
	return id
}

// forcePlaying skips the countdown wait for tests that only care about
// in-game behavior.
func forcePlaying(rm *Room) {
	rm.mu.Lock()
	rm.phase = PhaseCountdown
	rm.beginPlaying()
	rm.mu.Unlock()
}

func TestFirstJoinerBecomesHost(t *testing.T) {
	rm, transport, _ := newTestRoom(testCfg())
	host := join(t, rm, "alice")
	join(t, rm, "bob")

	welcome, ok := transport.last(NotifyWelcome)
	require.True(t, ok)
	assert.False(t, welcome.data["isHost"].(bool), "second joiner must not be host")

	rm.mu.Lock()
	p, _ := rm.registry.Get(host)
	rm.mu.Unlock()
	assert.True(t, p.IsHost)
}

func TestJoinRejectedWhenFull(t *testing.T) {
	cfg := testCfg()
	cfg.MinPlayers = 1
	cfg.MaxPlayers = 2
	rm, transport, _ := newTestRoom(cfg)
	join(t, rm, "a")
	join(t, rm, "b")

	late := uuid.New()
	_, err := rm.HandleJoin(late, "c")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "full")

	// The rejected client gets a machine-readable reason before the close.
	e, ok := transport.last(NotifyError)
	require.True(t, ok)
	assert.Equal(t, ReasonRoomFull, e.data["code"])
	assert.Equal(t, late, e.target)
}

func TestJoinRejectedOutsideLobby(t *testing.T) {
	rm, _, _ := newTestRoom(testCfg())
	join(t, rm, "a")
	join(t, rm, "b")
	forcePlaying(rm)

	_, err := rm.HandleJoin(uuid.New(), "late")
	require.Error(t, err)
	assert.Equal(t, PhasePlaying, rm.CurrentPhase())
}

func TestStartRequiresHostAndQuorum(t *testing.T) {
	rm, transport, _ := newTestRoom(testCfg())
	host := join(t, rm, "alice")
	guest := join(t, rm, "bob")

	// Non-host cannot start.
	rm.RequestStart(guest)
	e, ok := transport.last(NotifyError)
	require.True(t, ok)
	assert.Equal(t, ReasonNotHost, e.data["code"])
	assert.Equal(t, PhaseLobby, rm.CurrentPhase())

	// Host cannot start before everyone is ready.
	rm.RequestStart(host)
	e, _ = transport.last(NotifyError)
	assert.Equal(t, ReasonNotReady, e.data["code"])
	assert.Equal(t, PhaseLobby, rm.CurrentPhase())

	rm.SetReady(host, true)
	rm.SetReady(guest, true)
	assert.True(t, rm.CanStart())

	before := time.Now()
	rm.RequestStart(host)
	assert.Equal(t, PhaseCountdown, rm.CurrentPhase())
	assert.Equal(t, 1, transport.count(NotifyCountdownStarted))

	// The phase broadcast carries the countdown deadline.
	state, ok := transport.last(NotifyRoomState)
	require.True(t, ok)
	endsAt := time.UnixMilli(state.data["phaseEndsAt"].(int64))
	expected := before.Add(time.Duration(testCfg().CountdownSeconds) * time.Second)
	assert.WithinDuration(t, expected, endsAt, 200*time.Millisecond)
}

func TestCanStartQuorum(t *testing.T) {
	rm, _, _ := newTestRoom(testCfg())
	a := join(t, rm, "a")
	b := join(t, rm, "b")

	assert.False(t, rm.CanStart(), "nobody ready")
	rm.SetReady(a, true)
	assert.False(t, rm.CanStart(), "one of two ready")
	rm.SetReady(b, true)
	assert.True(t, rm.CanStart())

	// A third unready joiner breaks unanimity again.
	c := join(t, rm, "c")
	assert.False(t, rm.CanStart())
	rm.SetReady(c, true)
	assert.True(t, rm.CanStart())
}

func TestCountdownCompletesIntoPlaying(t *testing.T) {
	rm, transport, _ := newTestRoom(testCfg())
	started := false
	rm.Hooks = &testHooks{onStart: func(r *Room) { started = true }}

	host := join(t, rm, "alice")
	guest := join(t, rm, "bob")
	rm.SetReady(host, true)
	rm.SetReady(guest, true)
	rm.RequestStart(host)

	require.Eventually(t, func() bool {
		return rm.CurrentPhase() == PhasePlaying
	}, 3*time.Second, 10*time.Millisecond)

	assert.True(t, started, "game hooks must see the start")
	assert.Equal(t, 1, transport.count(NotifyGameStarted))

	rm.mu.Lock()
	for _, p := range rm.registry.All() {
		assert.True(t, p.IsAlive)
		assert.False(t, p.IsReady, "ready flags reset when the game starts")
	}
	rm.mu.Unlock()
}

func TestCountdownCancelledWhenQuorumLost(t *testing.T) {
	rm, transport, _ := newTestRoom(testCfg())
	host := join(t, rm, "alice")
	guest := join(t, rm, "bob")
	rm.SetReady(host, true)
	rm.SetReady(guest, true)
	rm.RequestStart(host)
	require.Equal(t, PhaseCountdown, rm.CurrentPhase())

	rm.HandleLeave(guest, false)

	assert.Equal(t, PhaseLobby, rm.CurrentPhase())
	cancelled, ok := transport.last(NotifyCountdownCancelled)
	require.True(t, ok)
	assert.Equal(t, "quorum_lost", cancelled.data["reason"])
	assert.Equal(t, 0, transport.count(NotifyGameStarted))
}

func TestReconnectPreservesIdentity(t *testing.T) {
	rm, transport, _ := newTestRoom(testCfg())
	join(t, rm, "alice")
	guest := join(t, rm, "bob")
	forcePlaying(rm)

	rm.mu.Lock()
	p, _ := rm.registry.Get(guest)
	p.Score = 7
	p.GameData = []byte(`{"streak":3}`)
	rm.mu.Unlock()

	rm.HandleLeave(guest, false)
	assert.Equal(t, 1, transport.count(NotifyPlayerDisconnected))

	reconnect, err := rm.HandleJoin(guest, "someone else")
	require.NoError(t, err)
	assert.True(t, reconnect)

	rm.mu.Lock()
	p2, ok := rm.registry.Get(guest)
	rm.mu.Unlock()
	require.True(t, ok)
	assert.Same(t, p, p2)
	assert.Equal(t, 7, p2.Score)
	assert.JSONEq(t, `{"streak":3}`, string(p2.GameData))
	assert.Equal(t, "bob", p2.Name, "display name survives a reconnect attempt with a new name")
	assert.True(t, p2.IsConnected)

	// The expired grace timer must not fire against the rejoined player.
	time.Sleep(2 * testCfg().ReconnectGrace)
	assert.Equal(t, 0, transport.count(NotifyPlayerLeft))
}

func TestGraceExpiryRemovesPlayer(t *testing.T) {
	rm, transport, _ := newTestRoom(testCfg())
	join(t, rm, "alice")
	guest := join(t, rm, "bob")
	forcePlaying(rm)

	rm.HandleLeave(guest, false)

	require.Eventually(t, func() bool {
		return transport.count(NotifyPlayerLeft) == 1
	}, time.Second, 5*time.Millisecond)

	left, _ := transport.last(NotifyPlayerLeft)
	assert.Equal(t, "reconnect_timeout", left.data["cause"])

	rm.mu.Lock()
	_, ok := rm.registry.Get(guest)
	rm.mu.Unlock()
	assert.False(t, ok)
}

func TestHostDisconnectReassignsImmediately(t *testing.T) {
	rm, transport, _ := newTestRoom(testCfg())
	host := join(t, rm, "alice")
	guest := join(t, rm, "bob")
	forcePlaying(rm)

	rm.HandleLeave(host, false)

	newHost, ok := transport.last(NotifyNewHost)
	require.True(t, ok, "host must be reassigned as soon as the old host drops")
	assert.Equal(t, guest.String(), newHost.data["playerId"])
	assert.Equal(t, 1, transport.count(NotifyNewHost))

	// Grace expiry removes the old host without a second reassignment.
	require.Eventually(t, func() bool {
		return transport.count(NotifyPlayerLeft) == 1
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, 1, transport.count(NotifyNewHost))
}

func TestConsentedLeaveSkipsGracePeriod(t *testing.T) {
	rm, transport, _ := newTestRoom(testCfg())
	join(t, rm, "alice")
	guest := join(t, rm, "bob")
	forcePlaying(rm)

	rm.HandleLeave(guest, true)

	left, ok := transport.last(NotifyPlayerLeft)
	require.True(t, ok)
	assert.Equal(t, "left", left.data["cause"])
	assert.Equal(t, 0, transport.count(NotifyPlayerDisconnected))
}

func TestEndGameRecordsResultsAndAutoResets(t *testing.T) {
	rm, transport, _ := newTestRoom(testCfg())
	rm.Hooks = &testHooks{
		onMessage: func(r *Room, p *Player, msgType string, _ map[string]interface{}) error {
			if msgType == "finish" {
				return r.EndGame([]Result{
					{PlayerID: p.ID, Score: 10},
				})
			}
			return nil
		},
	}
	host := join(t, rm, "alice")
	join(t, rm, "bob")
	forcePlaying(rm)

	rm.HandleMessage(host, "finish", nil)

	require.Equal(t, PhaseResults, rm.CurrentPhase())
	ended, ok := transport.last(NotifyGameEnded)
	require.True(t, ok)
	assert.Equal(t, host.String(), ended.data["winner"])
	results := ended.data["results"].([]map[string]interface{})
	require.Len(t, results, 1)
	assert.Equal(t, "alice", results[0]["name"], "names are filled in from the registry")
	assert.Equal(t, 1, results[0]["rank"])

	// Nobody votes rematch: the results window elapses and the room resets
	// back to LOBBY on its own.
	require.Eventually(t, func() bool {
		return rm.CurrentPhase() == PhaseLobby
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, 1, transport.count(NotifyGameReset))

	rm.mu.Lock()
	assert.Nil(t, rm.results)
	for _, p := range rm.registry.All() {
		assert.Zero(t, p.Score)
		assert.False(t, p.IsAlive)
	}
	rm.mu.Unlock()
}

func TestEndGameOnlyFromPlaying(t *testing.T) {
	rm, _, _ := newTestRoom(testCfg())
	join(t, rm, "alice")

	rm.mu.Lock()
	err := rm.EndGame(nil)
	rm.mu.Unlock()
	require.Error(t, err)
	assert.Equal(t, PhaseLobby, rm.CurrentPhase())
}

func TestUnanimousRematchResetsEarly(t *testing.T) {
	cfg := testCfg()
	cfg.ResultsWindow = time.Hour // auto-reset must not be what resets us
	rm, transport, _ := newTestRoom(cfg)
	rm.Hooks = &testHooks{
		onMessage: func(r *Room, p *Player, msgType string, _ map[string]interface{}) error {
			if msgType == "finish" {
				return r.EndGame(nil)
			}
			return nil
		},
	}
	host := join(t, rm, "alice")
	guest := join(t, rm, "bob")
	forcePlaying(rm)
	rm.HandleMessage(host, "finish", nil)
	require.Equal(t, PhaseResults, rm.CurrentPhase())

	rm.CastRematchVote(host)
	assert.Equal(t, PhaseResults, rm.CurrentPhase(), "one vote of two is not unanimous")

	rm.CastRematchVote(guest)
	assert.Equal(t, PhaseReset, rm.CurrentPhase())

	require.Eventually(t, func() bool {
		return rm.CurrentPhase() == PhaseLobby
	}, time.Second, 5*time.Millisecond)
	reset, _ := transport.last(NotifyGameReset)
	assert.Equal(t, "REMATCH", reset.data["reason"])
}

func TestRematchVoteToggles(t *testing.T) {
	rm, _, _ := newTestRoom(testCfg())
	rm.Hooks = &testHooks{
		onMessage: func(r *Room, p *Player, msgType string, _ map[string]interface{}) error {
			if msgType == "finish" {
				return r.EndGame(nil)
			}
			return nil
		},
	}
	host := join(t, rm, "alice")
	guest := join(t, rm, "bob")
	forcePlaying(rm)
	rm.HandleMessage(host, "finish", nil)

	rm.CastRematchVote(host)
	rm.CastRematchVote(host) // changed their mind
	rm.CastRematchVote(guest)
	assert.Equal(t, PhaseResults, rm.CurrentPhase(), "a withdrawn vote must not count")
}

func TestEmptyRoomDisposes(t *testing.T) {
	rm, _, publisher := newTestRoom(testCfg())
	disposedID := make(chan uuid.UUID, 1)
	rm.OnDisposed = func(id uuid.UUID) { disposedID <- id }
	rm.Start()

	a := join(t, rm, "alice")
	b := join(t, rm, "bob")
	rm.HandleLeave(a, true)
	rm.HandleLeave(b, true)

	select {
	case id := <-disposedID:
		assert.Equal(t, rm.ID, id)
	case <-time.After(time.Second):
		t.Fatal("room was not disposed after the last player left")
	}

	require.Eventually(t, func() bool {
		return publisher.count(lobbydir.EventRoomDisposed) == 1
	}, time.Second, 5*time.Millisecond)

	_, err := rm.HandleJoin(uuid.New(), "late")
	assert.Error(t, err, "a disposed room accepts nobody")
}

func TestDisposalWaitsForReconnectGrace(t *testing.T) {
	cfg := testCfg()
	cfg.ReconnectGrace = 200 * time.Millisecond
	cfg.DisposeGrace = 20 * time.Millisecond
	rm, _, _ := newTestRoom(cfg)
	disposed := make(chan struct{}, 1)
	rm.OnDisposed = func(uuid.UUID) { disposed <- struct{}{} }
	rm.Start()

	sole := join(t, rm, "alice")
	forcePlaying(rm)
	rm.HandleLeave(sole, false)

	// Well past the dispose window but inside the grace period the room must
	// still exist and still accept the reconnect.
	time.Sleep(4 * cfg.DisposeGrace)
	reconnect, err := rm.HandleJoin(sole, "alice")
	require.NoError(t, err, "room must survive while a grace period is pending")
	assert.True(t, reconnect)

	select {
	case <-disposed:
		t.Fatal("room disposed while a reconnect grace period was pending")
	default:
	}
}

func TestGraceExpiryWithoutRejoinDisposesRoom(t *testing.T) {
	cfg := testCfg()
	cfg.ReconnectGrace = 40 * time.Millisecond
	cfg.DisposeGrace = 20 * time.Millisecond
	rm, _, _ := newTestRoom(cfg)
	disposed := make(chan struct{}, 1)
	rm.OnDisposed = func(uuid.UUID) { disposed <- struct{}{} }
	rm.Start()

	a := join(t, rm, "alice")
	b := join(t, rm, "bob")
	forcePlaying(rm)
	rm.HandleLeave(a, true)
	rm.HandleLeave(b, false)

	// Grace expires with nobody left: removal re-arms disposal and the room
	// goes away on its own.
	select {
	case <-disposed:
	case <-time.After(time.Second):
		t.Fatal("room was not disposed after the last grace period expired")
	}
}

func TestDisposalCancelledByRejoin(t *testing.T) {
	rm, _, _ := newTestRoom(testCfg())
	disposed := make(chan struct{}, 1)
	rm.OnDisposed = func(uuid.UUID) { disposed <- struct{}{} }
	rm.Start()

	a := join(t, rm, "alice")
	rm.HandleLeave(a, true)

	// Someone grabs the room code again inside the dispose grace window.
	join(t, rm, "bob")

	select {
	case <-disposed:
		t.Fatal("room disposed despite a player rejoining in time")
	case <-time.After(3 * testCfg().DisposeGrace):
	}
}

func TestDisposeIsIdempotent(t *testing.T) {
	rm, _, publisher := newTestRoom(testCfg())
	calls := 0
	rm.OnDisposed = func(uuid.UUID) { calls++ }

	rm.Dispose()
	rm.Dispose()

	assert.Equal(t, 1, calls)
	require.Eventually(t, func() bool {
		return publisher.count(lobbydir.EventRoomDisposed) == 1
	}, time.Second, 5*time.Millisecond)
}

func TestIdleSweepEvictsAFKPlayers(t *testing.T) {
	cfg := testCfg()
	cfg.AFKTimeout = 30 * time.Millisecond
	cfg.SweepInterval = 20 * time.Millisecond
	cfg.DisposeGrace = time.Hour
	rm, transport, _ := newTestRoom(cfg)
	rm.Start()

	active := join(t, rm, "alice")
	join(t, rm, "bob")

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 12; i++ {
			rm.HandleMessage(active, MsgKeepalive, nil)
			time.Sleep(10 * time.Millisecond)
		}
	}()
	<-done

	require.Eventually(t, func() bool {
		return transport.count(NotifyPlayerLeft) >= 1
	}, time.Second, 5*time.Millisecond)

	left, _ := transport.last(NotifyPlayerLeft)
	assert.Equal(t, "afk", left.data["cause"])

	rm.mu.Lock()
	_, activeStillIn := rm.registry.Get(active)
	rm.mu.Unlock()
	assert.True(t, activeStillIn, "keepalives must keep a player out of the sweep")

	// Eviction is never silent.
	e, ok := transport.last(NotifyError)
	require.True(t, ok)
	assert.Equal(t, "afk_timeout", e.data["code"])
}

func TestHostUpdatesSettings(t *testing.T) {
	rm, transport, _ := newTestRoom(testCfg())
	host := join(t, rm, "alice")
	guest := join(t, rm, "bob")

	rm.HandleMessage(guest, MsgUpdateSettings, map[string]interface{}{
		"settings": map[string]interface{}{"maxPlayers": 3},
	})
	e, ok := transport.last(NotifyError)
	require.True(t, ok)
	assert.Equal(t, ReasonNotHost, e.data["code"])

	rm.HandleMessage(host, MsgUpdateSettings, map[string]interface{}{
		"settings": map[string]interface{}{"minPlayers": 3, "maxPlayers": 3},
	})
	updated, ok := transport.last(NotifySettingsUpdated)
	require.True(t, ok)
	assert.Equal(t, 3, updated.data["maxPlayers"])

	// Bounds are validated.
	rm.HandleMessage(host, MsgUpdateSettings, map[string]interface{}{
		"settings": map[string]interface{}{"minPlayers": 5, "maxPlayers": 2},
	})
	e, _ = transport.last(NotifyError)
	assert.Equal(t, ReasonBadPayload, e.data["code"])

	rm.mu.Lock()
	assert.Equal(t, 3, rm.cfg.MaxPlayers, "rejected update must not stick")
	rm.mu.Unlock()
}

func TestChatRelay(t *testing.T) {
	rm, transport, _ := newTestRoom(testCfg())
	a := join(t, rm, "alice")

	rm.HandleMessage(a, MsgChat, map[string]interface{}{"msg": "gl hf"})
	chat, ok := transport.last(NotifyChat)
	require.True(t, ok)
	assert.Equal(t, "gl hf", chat.data["msg"])
	assert.Equal(t, "alice", chat.data["name"])

	// Empty messages are dropped.
	rm.HandleMessage(a, MsgChat, map[string]interface{}{"msg": ""})
	assert.Equal(t, 1, transport.count(NotifyChat))
}

func TestUnknownSessionGetsError(t *testing.T) {
	rm, transport, _ := newTestRoom(testCfg())
	join(t, rm, "alice")

	stranger := uuid.New()
	rm.HandleMessage(stranger, MsgChat, map[string]interface{}{"msg": "hi"})
	e, ok := transport.last(NotifyError)
	require.True(t, ok)
	assert.Equal(t, ReasonUnknownPlayer, e.data["code"])
	assert.Equal(t, stranger, e.target)
}

func TestPanickingHooksDoNotKillTheRoom(t *testing.T) {
	rm, transport, _ := newTestRoom(testCfg())
	rm.Hooks = &testHooks{
		onStart: func(*Room) { panic("bad game code") },
		onMessage: func(*Room, *Player, string, map[string]interface{}) error {
			panic("worse game code")
		},
	}
	host := join(t, rm, "alice")
	join(t, rm, "bob")
	forcePlaying(rm)

	assert.Equal(t, PhasePlaying, rm.CurrentPhase(), "OnGameStart panic must be contained")

	rm.HandleMessage(host, "tap", nil)
	e, ok := transport.last(NotifyError)
	require.True(t, ok)
	assert.Equal(t, ReasonGameRejected, e.data["code"])
	assert.Equal(t, PhasePlaying, rm.CurrentPhase())
}

func TestSnapshotReflectsState(t *testing.T) {
	cfg := testCfg()
	cfg.Private = true
	rm, _, _ := newTestRoom(cfg)
	join(t, rm, "alice")
	join(t, rm, "bob")

	entry := rm.Snapshot()
	assert.Equal(t, rm.ID.String(), entry.RoomID)
	assert.Equal(t, rm.Code, entry.RoomCode)
	assert.Equal(t, string(PhaseLobby), entry.Phase)
	assert.Equal(t, 2, entry.PlayerCount)
	assert.Equal(t, cfg.MaxPlayers, entry.MaxPlayers)
	assert.True(t, entry.Private)
}

func TestRoomCodeShape(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		code := newRoomCode()
		require.Len(t, code, 6)
		for _, ch := range code {
			assert.Contains(t, codeAlphabet, string(ch))
		}
		seen[code] = true
	}
	assert.Greater(t, len(seen), 45, "codes should almost never collide")
}
