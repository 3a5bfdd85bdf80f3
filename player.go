package main

import (
	"math"
	"math/rand/v2"
)

// Player is one connected avatar. X, Y is the top-left corner of its square.
type Player struct {
	Body
	ID    string
	Color string
	Input InputState
}

// NewPlayer creates a player at a random position inside the field
func NewPlayer(id string, w *World) *Player {
	return &Player{
		Body: Body{
			X: rand.Float64() * (w.Width - w.SquareSize),
			Y: rand.Float64() * (w.Height - w.SquareSize),
		},
		ID:    id,
		Color: RandomColor(),
	}
}

// Integrate advances the player one tick from its held keys. Each axis is
// independent: a held key accelerates up to MaxSpeed, no key decays the
// velocity geometrically. Up wins over down and left over right.
func (p *Player) Integrate(w *World) {
	switch {
	case p.Input.Up:
		p.VY = math.Max(p.VY-w.Acceleration, -w.MaxSpeed)
	case p.Input.Down:
		p.VY = math.Min(p.VY+w.Acceleration, w.MaxSpeed)
	default:
		p.VY *= 1 - w.Deceleration
	}

	switch {
	case p.Input.Left:
		p.VX = math.Max(p.VX-w.Acceleration, -w.MaxSpeed)
	case p.Input.Right:
		p.VX = math.Min(p.VX+w.Acceleration, w.MaxSpeed)
	default:
		p.VX *= 1 - w.Deceleration
	}

	p.X += p.VX
	p.Y += p.VY
}

// Speed is the scalar magnitude of the velocity
func (p *Player) Speed() float64 {
	return math.Hypot(p.VX, p.VY)
}

// Center returns the middle of the player's square
func (p *Player) Center(size float64) (float64, float64) {
	return p.X + size/2, p.Y + size/2
}

// ToState converts to protocol state
func (p *Player) ToState() PlayerState {
	return PlayerState{
		ID:    p.ID,
		X:     p.X,
		Y:     p.Y,
		VX:    p.VX,
		VY:    p.VY,
		Color: p.Color,
		Keys:  p.Input,
	}
}
