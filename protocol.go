package main

import "encoding/json"

// Client -> Server message types
const (
	MsgMove = "move" // full held-keys snapshot
)

// Server -> Client message types
const (
	MsgWelcome         = "welcome"
	MsgInitialSnapshot = "initial_snapshot"
	MsgInitialBall     = "initial_ball"
	MsgPlayerJoined    = "player_joined"
	MsgPlayerMoved     = "player_moved"
	MsgBallMoved       = "ball_moved"
	MsgPlayerLeft      = "player_left"
	MsgError           = "error"
)

// Envelope wraps all outgoing messages with a type field
type Envelope struct {
	T    string      `json:"t"`
	Data interface{} `json:"d,omitempty"`
}

// InEnvelope is used for incoming messages; D stays raw until T is known
type InEnvelope struct {
	T string          `json:"t"`
	D json.RawMessage `json:"d,omitempty"`
}

// PlayerState is the full player record sent every tick
type PlayerState struct {
	ID    string     `json:"id"`
	X     float64    `json:"x"`
	Y     float64    `json:"y"`
	VX    float64    `json:"vx"`
	VY    float64    `json:"vy"`
	Color string     `json:"color"`
	Keys  InputState `json:"keys"`
}

// BallState is the full ball record
type BallState struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Radius float64 `json:"r"`
	VX     float64 `json:"vx"`
	VY     float64 `json:"vy"`
}

// WelcomeMsg tells a new connection who it is and what the field looks like
type WelcomeMsg struct {
	ID         string  `json:"id"`
	Width      float64 `json:"w"`
	Height     float64 `json:"h"`
	SquareSize float64 `json:"sq"`
	TickRate   int     `json:"tick"`
}

// PlayerLeftMsg names the player that disconnected
type PlayerLeftMsg struct {
	ID string `json:"id"`
}

// ErrorMsg sends error to client
type ErrorMsg struct {
	Msg string `json:"msg"`
}

// GameStats is a point-in-time summary of the arena
type GameStats struct {
	Players int       `json:"players"`
	Tick    uint64    `json:"tick"`
	Ball    BallState `json:"ball"`
}
