package main

import (
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Broadcaster is a fire-and-forget sink for one connection
type Broadcaster interface {
	Send(msg Envelope)
}

// frameSink is a Broadcaster that accepts pre-encoded frames, so a broadcast
// is encoded once per codec instead of once per connection
type frameSink interface {
	Broadcaster
	Codec() Codec
	SendRaw(data []byte)
}

// Game owns every player and the ball. A single mutex serializes ticks,
// inputs, joins and leaves, so a resolver never sees a half-applied update.
type Game struct {
	mu         sync.Mutex
	world      World
	maxPlayers int // 0 = unlimited
	players    map[string]*Player
	order      []string // join order, fixes resolver iteration order
	ball       *Ball
	clients    map[string]Broadcaster // playerID -> sink
	analytics  *Analytics
	tick       uint64
	stop       chan struct{}
	stopOnce   sync.Once

	scratch []*Player
}

// NewGame creates a Game with the ball resting at the center
func NewGame(w World, maxPlayers int) *Game {
	return &Game{
		world:      w,
		maxPlayers: maxPlayers,
		players:    make(map[string]*Player),
		ball:       NewBall(&w),
		clients:    make(map[string]Broadcaster),
		stop:       make(chan struct{}),
	}
}

// SetAnalytics attaches an event recorder; nil disables recording
func (g *Game) SetAnalytics(a *Analytics) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.analytics = a
}

// World returns the geometry the game was built with
func (g *Game) World() World {
	return g.world
}

// Run starts the game loop. It ticks whether or not anyone is connected,
// and returns at once if Stop was already called.
func (g *Game) Run() {
	select {
	case <-g.stop:
		return
	default:
	}

	ticker := time.NewTicker(g.world.TickDuration())
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			g.update()
		case <-g.stop:
			return
		}
	}
}

// Stop terminates the game loop. Safe to call more than once, before or
// after Run.
func (g *Game) Stop() {
	g.stopOnce.Do(func() { close(g.stop) })
}

// AddPlayer registers a new connection's player and sends it the current
// world. Everyone else is told about the newcomer. Returns nil when the
// arena is full.
func (g *Game) AddPlayer(client Broadcaster) *Player {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.maxPlayers > 0 && len(g.players) >= g.maxPlayers {
		return nil
	}

	player := NewPlayer(uuid.NewString(), &g.world)
	g.players[player.ID] = player
	g.order = append(g.order, player.ID)

	snapshot := make(map[string]PlayerState, len(g.players))
	for id, p := range g.players {
		snapshot[id] = p.ToState()
	}

	if client != nil {
		client.Send(Envelope{T: MsgWelcome, Data: WelcomeMsg{
			ID:         player.ID,
			Width:      g.world.Width,
			Height:     g.world.Height,
			SquareSize: g.world.SquareSize,
			TickRate:   g.world.TickRate,
		}})
		client.Send(Envelope{T: MsgInitialSnapshot, Data: snapshot})
		client.Send(Envelope{T: MsgInitialBall, Data: g.ball.ToState()})
	}

	g.broadcastMsg(Envelope{T: MsgPlayerJoined, Data: player.ToState()})

	if client != nil {
		g.clients[player.ID] = client
	}
	return player
}

// RemovePlayer removes a player from the game and tells everyone
func (g *Game) RemovePlayer(id string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.players[id]; !ok {
		return
	}
	delete(g.players, id)
	delete(g.clients, id)
	for i, pid := range g.order {
		if pid == id {
			g.order = append(g.order[:i], g.order[i+1:]...)
			break
		}
	}

	g.broadcastMsg(Envelope{T: MsgPlayerLeft, Data: PlayerLeftMsg{ID: id}})
}

// HandleInput replaces a player's held keys. Input for an unknown player,
// e.g. one that just disconnected, is dropped.
func (g *Game) HandleInput(playerID string, input InputState) {
	g.mu.Lock()
	defer g.mu.Unlock()

	p, ok := g.players[playerID]
	if !ok {
		return
	}
	p.Input = input
}

// HasPlayer checks whether a player is registered
func (g *Game) HasPlayer(id string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.players[id]
	return ok
}

// PlayerCount returns the number of players
func (g *Game) PlayerCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.players)
}

// Player returns a copy of a player's state
func (g *Game) Player(id string) (PlayerState, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	p, ok := g.players[id]
	if !ok {
		return PlayerState{}, false
	}
	return p.ToState(), true
}

// Stats returns a snapshot of the arena
func (g *Game) Stats() GameStats {
	g.mu.Lock()
	defer g.mu.Unlock()
	return GameStats{
		Players: len(g.players),
		Tick:    g.tick,
		Ball:    g.ball.ToState(),
	}
}

// update runs one game tick: every player in join order, then the ball
func (g *Game) update() {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.tick++
	players := g.orderedPlayers()
	w := &g.world
	bounds := w.PlayerBounds()

	for _, p := range players {
		p.Integrate(w)
		ResolveWalls(&p.Body, bounds, WallStop)
		ResolvePlayerCollisions(p, players, w.SquareSize)
		// a snap against another square can land outside the field
		ResolveWalls(&p.Body, bounds, WallStop)

		if w.HitInPlayerPhase {
			g.hitBall(p)
		}
		g.broadcastMsg(Envelope{T: MsgPlayerMoved, Data: p.ToState()})
	}

	g.ball.Advance(w)
	for _, p := range players {
		g.hitBall(p)
	}
	g.broadcastMsg(Envelope{T: MsgBallMoved, Data: g.ball.ToState()})
}

// hitBall resolves one player's contact with the ball
func (g *Game) hitBall(p *Player) {
	kind := ResolveBallHit(g.ball, p, &g.world)
	if kind == HitNone {
		return
	}
	g.broadcastMsg(Envelope{T: MsgBallMoved, Data: g.ball.ToState()})
	if kind == HitKick && g.analytics != nil {
		g.analytics.Track(EvtBallKick, p.ID, "")
	}
}

// orderedPlayers lists players in join order, reusing a scratch slice
func (g *Game) orderedPlayers() []*Player {
	g.scratch = g.scratch[:0]
	for _, id := range g.order {
		if p, ok := g.players[id]; ok {
			g.scratch = append(g.scratch, p)
		}
	}
	return g.scratch
}

// broadcastMsg sends a message to every connected player. Frame sinks
// share one encoding per codec.
func (g *Game) broadcastMsg(msg Envelope) {
	var frames map[Codec][]byte
	for _, client := range g.clients {
		fs, ok := client.(frameSink)
		if !ok {
			client.Send(msg)
			continue
		}
		codec := fs.Codec()
		data, ok := frames[codec]
		if !ok {
			var err error
			data, err = codec.Encode(msg)
			if err != nil {
				log.Printf("encode %s (%s): %v", msg.T, codec, err)
				return
			}
			if frames == nil {
				frames = make(map[Codec][]byte, 2)
			}
			frames[codec] = data
		}
		fs.SendRaw(data)
	}
}
