package main

import (
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
)

func main() {
	configPath := flag.String("config", "arena.yaml", "Path to YAML config (optional)")
	addr := flag.String("addr", "", "HTTP listen address (overrides config)")
	clientDir := flag.String("client", "", "Path to client directory (overrides config)")
	dbPath := flag.String("db", "", "SQLite analytics database (overrides config)")
	hashPassword := flag.String("hash-password", "", "Print a bcrypt hash for the given admin password and exit")
	flag.Parse()

	if *hashPassword != "" {
		hash, err := HashPassword(*hashPassword)
		if err != nil {
			log.Fatalf("hash password: %v", err)
		}
		fmt.Println(hash)
		return
	}

	// .env is optional
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("warning: .env: %v", err)
	}

	cfg, err := LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if *addr != "" {
		cfg.Addr = *addr
	}
	if *clientDir != "" {
		cfg.ClientDir = *clientDir
	}
	if *dbPath != "" {
		cfg.DBPath = *dbPath
	}

	var db *DB
	var analytics *Analytics
	if cfg.DBPath != "" {
		db, err = OpenDB(cfg.DBPath)
		if err != nil {
			log.Fatalf("database: %v", err)
		}
		defer db.Close()
		analytics = NewAnalytics(db)
	}
	auth := NewAuth(db, cfg.AdminPasswordHash)
	if !auth.Enabled() {
		log.Printf("admin API disabled (no admin_password_hash)")
	}

	game := NewGame(cfg.World, cfg.MaxPlayers)
	game.SetAnalytics(analytics)
	go game.Run()

	hub := NewHub(game, analytics, auth, cfg.PublicURL)
	go hub.Run()

	mux := SetupRoutes(hub, cfg.ClientDir)

	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	server := &http.Server{Addr: cfg.Addr, Handler: mux}

	go func() {
		log.Printf("Server starting on %s", cfg.Addr)
		log.Printf("Serving client files from %s", cfg.ClientDir)
		log.Printf("Arena %gx%g at %d ticks/s", cfg.World.Width, cfg.World.Height, cfg.World.TickRate)
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatalf("ListenAndServe: %v", err)
		}
	}()

	<-stop
	log.Println("Shutting down...")
	server.Close()
	game.Stop()
	if analytics != nil {
		analytics.Stop()
	}
}
