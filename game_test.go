package main

import (
	"encoding/json"
	"math"
	"math/rand/v2"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockBroadcaster captures sent messages for testing
type mockBroadcaster struct {
	mu       sync.Mutex
	messages []Envelope
}

func (m *mockBroadcaster) Send(msg Envelope) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, msg)
}

func (m *mockBroadcaster) types() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.messages))
	for i, msg := range m.messages {
		out[i] = msg.T
	}
	return out
}

func (m *mockBroadcaster) reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = nil
}

func (m *mockBroadcaster) last(t string) (Envelope, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.messages) - 1; i >= 0; i-- {
		if m.messages[i].T == t {
			return m.messages[i], true
		}
	}
	return Envelope{}, false
}

// place moves a player to a fixed spot so tests do not depend on random spawns
func place(g *Game, id string, x, y float64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	p := g.players[id]
	p.X, p.Y, p.VX, p.VY = x, y, 0, 0
}

func TestGameAddRemovePlayer(t *testing.T) {
	g := NewGame(DefaultWorld(), 0)
	m1 := &mockBroadcaster{}
	p1 := g.AddPlayer(m1)
	require.NotNil(t, p1)
	assert.Equal(t, 1, g.PlayerCount())
	assert.Equal(t, []string{MsgWelcome, MsgInitialSnapshot, MsgInitialBall}, m1.types())

	m2 := &mockBroadcaster{}
	p2 := g.AddPlayer(m2)
	require.NotNil(t, p2)
	assert.NotEqual(t, p1.ID, p2.ID)

	joined, ok := m1.last(MsgPlayerJoined)
	require.True(t, ok, "existing player is told about the newcomer")
	assert.Equal(t, p2.ID, joined.Data.(PlayerState).ID)

	snap, ok := m2.last(MsgInitialSnapshot)
	require.True(t, ok)
	players := snap.Data.(map[string]PlayerState)
	assert.Len(t, players, 2)
	assert.Contains(t, players, p1.ID)
	assert.Contains(t, players, p2.ID)
	_, ok = m2.last(MsgPlayerJoined)
	assert.False(t, ok, "newcomer does not get its own join")

	g.RemovePlayer(p2.ID)
	assert.Equal(t, 1, g.PlayerCount())
	assert.False(t, g.HasPlayer(p2.ID))
	left, ok := m1.last(MsgPlayerLeft)
	require.True(t, ok)
	assert.Equal(t, p2.ID, left.Data.(PlayerLeftMsg).ID)

	m1.reset()
	g.RemovePlayer("nobody")
	assert.Empty(t, m1.types(), "unknown removal is silent")
}

func TestGameInitialBall(t *testing.T) {
	g := NewGame(DefaultWorld(), 0)
	m := &mockBroadcaster{}
	g.AddPlayer(m)

	env, ok := m.last(MsgInitialBall)
	require.True(t, ok)
	ball := env.Data.(BallState)
	assert.Equal(t, BallState{X: 400, Y: 400, Radius: 20}, ball)
}

func TestGameMaxPlayers(t *testing.T) {
	g := NewGame(DefaultWorld(), 2)
	require.NotNil(t, g.AddPlayer(&mockBroadcaster{}))
	require.NotNil(t, g.AddPlayer(&mockBroadcaster{}))
	assert.Nil(t, g.AddPlayer(&mockBroadcaster{}), "arena is full")
	assert.Equal(t, 2, g.PlayerCount())
}

func TestGameHandleInput(t *testing.T) {
	g := NewGame(DefaultWorld(), 0)
	p := g.AddPlayer(&mockBroadcaster{})

	g.HandleInput(p.ID, InputState{Right: true})
	state, ok := g.Player(p.ID)
	require.True(t, ok)
	assert.True(t, state.Keys.Right)

	// snapshots replace rather than merge
	g.HandleInput(p.ID, InputState{Up: true})
	state, _ = g.Player(p.ID)
	assert.Equal(t, InputState{Up: true}, state.Keys)

	// input for a departed player is dropped
	g.RemovePlayer(p.ID)
	g.HandleInput(p.ID, InputState{Left: true})
	assert.False(t, g.HasPlayer(p.ID))
}

func TestGameUpdateBroadcastOrder(t *testing.T) {
	g := NewGame(DefaultWorld(), 0)
	m := &mockBroadcaster{}
	p1 := g.AddPlayer(m)
	p2 := g.AddPlayer(&mockBroadcaster{})
	p3 := g.AddPlayer(&mockBroadcaster{})
	place(g, p1.ID, 0, 0)
	place(g, p2.ID, 700, 0)
	place(g, p3.ID, 0, 700)
	m.reset()

	g.update()

	require.Equal(t, []string{MsgPlayerMoved, MsgPlayerMoved, MsgPlayerMoved, MsgBallMoved}, m.types())
	m.mu.Lock()
	ids := []string{
		m.messages[0].Data.(PlayerState).ID,
		m.messages[1].Data.(PlayerState).ID,
		m.messages[2].Data.(PlayerState).ID,
	}
	m.mu.Unlock()
	assert.Equal(t, []string{p1.ID, p2.ID, p3.ID}, ids, "players are processed in join order")

	g.RemovePlayer(p2.ID)
	m.reset()
	g.update()
	assert.Equal(t, []string{MsgPlayerMoved, MsgPlayerMoved, MsgBallMoved}, m.types())
	assert.Equal(t, uint64(2), g.Stats().Tick)
}

func TestGameTicksWithoutPlayers(t *testing.T) {
	g := NewGame(DefaultWorld(), 0)
	g.ball.VX = 10
	for i := 0; i < 10; i++ {
		g.update()
	}
	stats := g.Stats()
	assert.Equal(t, uint64(10), stats.Tick)
	assert.Equal(t, 0, stats.Players)
	assert.Greater(t, stats.Ball.X, 400.0, "ball keeps rolling with nobody connected")
}

func TestGamePlayerRestsAgainstRightWall(t *testing.T) {
	g := NewGame(DefaultWorld(), 0)
	p := g.AddPlayer(&mockBroadcaster{})
	place(g, p.ID, 100, 0)
	g.HandleInput(p.ID, InputState{Right: true})

	w := g.World()
	limit := w.Width - w.SquareSize
	for i := 0; i < 120; i++ {
		g.update()
		state, _ := g.Player(p.ID)
		require.LessOrEqual(t, state.X, limit, "tick %d", i)
	}
	state, _ := g.Player(p.ID)
	assert.Equal(t, limit, state.X)
	assert.Zero(t, state.VX)
}

func TestGamePlayerKicksBall(t *testing.T) {
	g := NewGame(DefaultWorld(), 0)
	m := &mockBroadcaster{}
	p := g.AddPlayer(m)
	place(g, p.ID, 200, 375)
	g.HandleInput(p.ID, InputState{Right: true})

	for i := 0; i < 60 && g.Stats().Ball.VX == 0; i++ {
		g.update()
	}
	ball := g.Stats().Ball
	assert.Greater(t, ball.VX, 0.0, "ball is pushed to the right")
	assert.InDelta(t, 0, ball.VY, 1e-9)
}

func TestGameBoundsInvariant(t *testing.T) {
	w := DefaultWorld()
	g := NewGame(w, 0)
	var ids []string
	for i := 0; i < 8; i++ {
		ids = append(ids, g.AddPlayer(&mockBroadcaster{}).ID)
	}

	rng := rand.New(rand.NewPCG(7, 11))
	playerBounds := w.PlayerBounds()
	ballBounds := w.BallBounds(w.BallRadius)
	for tick := 0; tick < 3000; tick++ {
		if tick%15 == 0 {
			for _, id := range ids {
				g.HandleInput(id, InputState{
					Up:    rng.IntN(3) == 0,
					Down:  rng.IntN(3) == 0,
					Left:  rng.IntN(3) == 0,
					Right: rng.IntN(3) == 0,
				})
			}
		}
		g.update()

		g.mu.Lock()
		for _, p := range g.players {
			if !playerBounds.Contains(p.X, p.Y) {
				g.mu.Unlock()
				t.Fatalf("tick %d: player %s at (%g, %g)", tick, p.ID, p.X, p.Y)
			}
			if math.Abs(p.VX) > w.MaxSpeed || math.Abs(p.VY) > w.MaxSpeed {
				g.mu.Unlock()
				t.Fatalf("tick %d: player %s velocity (%g, %g)", tick, p.ID, p.VX, p.VY)
			}
		}
		b := g.ball
		if !ballBounds.Contains(b.X, b.Y) {
			g.mu.Unlock()
			t.Fatalf("tick %d: ball at (%g, %g)", tick, b.X, b.Y)
		}
		g.mu.Unlock()
	}
}

func TestGameRunStop(t *testing.T) {
	g := NewGame(DefaultWorld(), 0)
	done := make(chan struct{})
	go func() {
		g.Run()
		close(done)
	}()
	assert.Eventually(t, func() bool { return g.Stats().Tick > 3 }, 2*time.Second, 10*time.Millisecond)
	g.Stop()
	<-done
	g.Stop() // idempotent
}

func TestGameStopBeforeRun(t *testing.T) {
	g := NewGame(DefaultWorld(), 0)
	g.Stop()

	done := make(chan struct{})
	go func() {
		g.Run()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run kept ticking after Stop")
	}
	assert.Zero(t, g.Stats().Tick)
}

// launch places a player and gives it a velocity without touching its input
func launch(g *Game, id string, x, y, vx float64) {
	place(g, id, x, y)
	g.mu.Lock()
	defer g.mu.Unlock()
	g.players[id].VX = vx
}

func TestGameBallContactAnalytics(t *testing.T) {
	a := NewAnalytics(openTestDB(t))
	g := NewGame(DefaultWorld(), 0)
	g.SetAnalytics(a)
	kicker := g.AddPlayer(&mockBroadcaster{})
	toucher := g.AddPlayer(&mockBroadcaster{})

	g.mu.Lock()
	k, tp := g.players[kicker.ID], g.players[toucher.ID]
	k.X, k.Y, k.VX, k.VY = 330, 375, 30, 0
	tp.X, tp.Y, tp.VX, tp.VY = 375, 375, 0, 0
	g.hitBall(k)
	g.ball.X, g.ball.Y, g.ball.VX, g.ball.VY = 400, 400, 0, 0
	g.hitBall(tp)
	g.mu.Unlock()
	a.Stop()

	counts, err := a.EventCounts(1)
	require.NoError(t, err)
	assert.Equal(t, 1, counts[EvtBallKick], "touches are not recorded")

	top, err := a.TopKickers(5)
	require.NoError(t, err)
	assert.Equal(t, []PlayerCount{{PlayerID: kicker.ID, Count: 1}}, top)
}

func TestGameHitInPlayerPhaseSwitch(t *testing.T) {
	run := func(inPlayerPhase bool) ([]string, BallState) {
		w := DefaultWorld()
		w.HitInPlayerPhase = inPlayerPhase
		g := NewGame(w, 0)
		m := &mockBroadcaster{}
		p := g.AddPlayer(m)
		launch(g, p.ID, 300, 375, 30)
		m.reset()
		g.update()
		return m.types(), g.Stats().Ball
	}

	types, ball := run(true)
	assert.Equal(t, []string{MsgBallMoved, MsgPlayerMoved, MsgBallMoved}, types,
		"kicked during the player pass, ball already clear in the ball pass")
	assert.InDelta(t, 481.0, ball.X, 1e-9)

	types, ball = run(false)
	assert.Equal(t, []string{MsgPlayerMoved, MsgBallMoved, MsgBallMoved}, types,
		"same contact is only found in the ball pass")
	assert.InDelta(t, 440.5, ball.X, 1e-9)
}

// recordingSink takes pre-encoded frames like a websocket client does
type recordingSink struct {
	mockBroadcaster
	codec  Codec
	frames [][]byte
}

func (r *recordingSink) Codec() Codec { return r.codec }

func (r *recordingSink) SendRaw(data []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frames = append(r.frames, data)
}

func TestGameBroadcastEncodesOncePerCodec(t *testing.T) {
	g := NewGame(DefaultWorld(), 0)
	j1 := &recordingSink{codec: CodecJSON}
	j2 := &recordingSink{codec: CodecJSON}
	mp := &recordingSink{codec: CodecMsgpack}
	p := g.AddPlayer(j1)
	place(g, p.ID, 0, 0)
	place(g, g.AddPlayer(j2).ID, 700, 0)
	place(g, g.AddPlayer(mp).ID, 0, 700)
	for _, s := range []*recordingSink{j1, j2, mp} {
		s.frames = nil
	}

	g.HandleInput(p.ID, InputState{Left: true})
	g.update()

	require.Len(t, j1.frames, 4)
	require.Len(t, j2.frames, 4)
	require.Len(t, mp.frames, 4)
	for i := range j1.frames {
		assert.Same(t, &j1.frames[i][0], &j2.frames[i][0], "frame %d shared between JSON sinks", i)
	}

	var first map[string]interface{}
	require.NoError(t, json.Unmarshal(j1.frames[0], &first))
	assert.Equal(t, MsgPlayerMoved, first["t"])

	var fromMsgpack map[string]interface{}
	require.NoError(t, DecodeMsgpack(mp.frames[3], &fromMsgpack))
	assert.Equal(t, MsgBallMoved, fromMsgpack["t"])
}
