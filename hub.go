package main

import (
	"fmt"
	"log"
	"sync"
	"time"
)

const (
	maxConnsPerIP = 5
	maxTotalConns = 1000
)

// Hub tracks connected clients and binds each one to a player in the game
type Hub struct {
	mu         sync.RWMutex
	clients    map[*Client]bool
	unregister chan *Client
	game       *Game
	analytics  *Analytics
	auth       *Auth
	publicURL  string
	// Connection limiting (mutex-protected, accessed from HTTP handlers)
	connMu     sync.Mutex
	ipConns    map[string]int
	totalConns int
}

// NewHub creates a new Hub. analytics and auth may be nil.
func NewHub(game *Game, analytics *Analytics, auth *Auth, publicURL string) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		unregister: make(chan *Client, 64),
		game:       game,
		analytics:  analytics,
		auth:       auth,
		publicURL:  publicURL,
		ipConns:    make(map[string]int),
	}
}

func (h *Hub) CanAccept(ip string) bool {
	h.connMu.Lock()
	defer h.connMu.Unlock()
	if h.totalConns >= maxTotalConns {
		return false
	}
	if h.ipConns[ip] >= maxConnsPerIP {
		return false
	}
	return true
}

func (h *Hub) TrackConnect(ip string) {
	h.connMu.Lock()
	defer h.connMu.Unlock()
	h.ipConns[ip]++
	h.totalConns++
}

func (h *Hub) TrackDisconnect(ip string) {
	h.connMu.Lock()
	defer h.connMu.Unlock()
	h.ipConns[ip]--
	if h.ipConns[ip] <= 0 {
		delete(h.ipConns, ip)
	}
	h.totalConns--
}

// Register adds a client and spawns its player. It must run before the
// client's pumps start so playerID is fixed for their lifetime. Returns
// false when the arena is full.
func (h *Hub) Register(client *Client) bool {
	player := h.game.AddPlayer(client)
	if player == nil {
		h.track(EvtArenaFull, "", "")
		return false
	}
	client.playerID = player.ID

	h.mu.Lock()
	h.clients[client] = true
	h.mu.Unlock()

	log.Printf("player %s connected from %s (%s)", player.ID, client.remoteAddr, client.codec)
	h.track(EvtSessionStart, player.ID, "")
	return true
}

// Run processes unregister events
func (h *Hub) Run() {
	for client := range h.unregister {
		h.mu.Lock()
		_, ok := h.clients[client]
		if ok {
			delete(h.clients, client)
		}
		h.mu.Unlock()
		if !ok {
			continue
		}

		// Drop the player before closing the queue so the game never
		// sends on a closed channel.
		h.game.RemovePlayer(client.playerID)
		close(client.send)

		dur := time.Since(client.connectedAt).Seconds()
		log.Printf("player %s disconnected after %.1fs", client.playerID, dur)
		h.track(EvtSessionEnd, client.playerID, fmt.Sprintf(`{"duration":%.3f}`, dur))
	}
}

func (h *Hub) track(evt, playerID, data string) {
	if h.analytics != nil {
		h.analytics.Track(evt, playerID, data)
	}
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// TotalConns returns the tracked connection count
func (h *Hub) TotalConns() int {
	h.connMu.Lock()
	defer h.connMu.Unlock()
	return h.totalConns
}
