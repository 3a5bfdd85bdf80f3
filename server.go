package main

import (
	"encoding/json"
	"log"
	"net"
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/skip2/go-qrcode"
)

const (
	qrSize      = 256
	statsDays   = 7
	topKickersN = 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true // Non-browser clients don't send Origin
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		return u.Host == r.Host
	},
}

func extractIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// SetupRoutes configures HTTP routes
func SetupRoutes(hub *Hub, clientDir string) *http.ServeMux {
	mux := http.NewServeMux()

	// Serve static files with no-cache so browsers always revalidate
	fs := http.FileServer(http.Dir(clientDir))
	mux.Handle("/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-cache")
		fs.ServeHTTP(w, r)
	}))

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})

	// WebSocket endpoint
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		ip := extractIP(r)
		if !hub.CanAccept(ip) {
			http.Error(w, "too many connections", http.StatusServiceUnavailable)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("upgrade error: %v", err)
			return
		}

		hub.TrackConnect(ip)

		client := NewClient(hub, conn, ip, ParseCodec(r.URL.Query().Get("enc")))
		if !hub.Register(client) {
			client.Send(Envelope{T: MsgError, Data: ErrorMsg{Msg: "arena full"}})
			close(client.send)
			client.WritePump()
			hub.TrackDisconnect(ip)
			return
		}

		go client.WritePump()
		go client.ReadPump()
	})

	mux.HandleFunc("/qr", func(w http.ResponseWriter, r *http.Request) {
		target := hub.publicURL
		if target == "" {
			target = "http://" + r.Host + "/"
		}
		png, err := qrcode.Encode(target, qrcode.Medium, qrSize)
		if err != nil {
			http.Error(w, "qr encode failed", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Write(png)
	})

	mux.HandleFunc("/api/login", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		var req struct {
			Password string `json:"password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		token, err := hub.auth.Login(req.Password, extractIP(r))
		switch err {
		case nil:
			writeJSON(w, map[string]string{"token": token})
		case ErrAdminDisabled:
			http.Error(w, err.Error(), http.StatusForbidden)
		case ErrTooManyAttempts:
			http.Error(w, err.Error(), http.StatusTooManyRequests)
		default:
			http.Error(w, err.Error(), http.StatusUnauthorized)
		}
	})

	mux.HandleFunc("/api/stats", func(w http.ResponseWriter, r *http.Request) {
		if !hub.auth.Enabled() {
			http.Error(w, ErrAdminDisabled.Error(), http.StatusForbidden)
			return
		}
		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		if err := hub.auth.ValidateToken(token); err != nil {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		writeJSON(w, hub.Stats())
	})

	return mux
}

// StatsResponse is the admin view of the server
type StatsResponse struct {
	GameStats
	Connections int            `json:"connections"`
	Events      map[string]int `json:"events,omitempty"`
	TopKickers  []PlayerCount  `json:"top_kickers,omitempty"`
}

// Stats gathers live and recorded metrics
func (h *Hub) Stats() StatsResponse {
	resp := StatsResponse{
		GameStats:   h.game.Stats(),
		Connections: h.ClientCount(),
	}
	if h.analytics == nil {
		return resp
	}
	var err error
	if resp.Events, err = h.analytics.EventCounts(statsDays); err != nil {
		log.Printf("stats: event counts: %v", err)
	}
	if resp.TopKickers, err = h.analytics.TopKickers(topKickersN); err != nil {
		log.Printf("stats: top kickers: %v", err)
	}
	return resp
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("write json: %v", err)
	}
}
