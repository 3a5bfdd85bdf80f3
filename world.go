package main

import (
	"fmt"
	"time"
)

// World holds the arena geometry and tuning. All rates are per tick, not per
// second: changing TickRate changes how fast everything feels.
type World struct {
	Width           float64 `yaml:"width"`
	Height          float64 `yaml:"height"`
	SquareSize      float64 `yaml:"square_size"`
	BallRadius      float64 `yaml:"ball_radius"`
	HitBuffer       float64 `yaml:"hit_buffer"`    // extra reach around the ball hit box, 0 = none
	BaseVelocity    float64 `yaml:"base_velocity"` // ball speed per unit of hit force
	Friction        float64 `yaml:"friction"`      // ball velocity multiplier per tick
	Acceleration    float64 `yaml:"acceleration"`
	Deceleration    float64 `yaml:"deceleration"` // fraction of player velocity lost per idle tick
	MaxSpeed        float64 `yaml:"max_speed"`
	HitForceDivisor float64 `yaml:"hit_force_divisor"`
	TickRate        int     `yaml:"tick_rate"`

	// SoftTouch lets a stationary player nudge the ball instead of
	// overriding its velocity with a zero-force kick.
	SoftTouch bool `yaml:"soft_touch"`
	// HitInPlayerPhase also checks ball contact right after each player moves.
	HitInPlayerPhase bool `yaml:"hit_in_player_phase"`
}

// DefaultWorld returns the stock arena tuning
func DefaultWorld() World {
	return World{
		Width:            800,
		Height:           800,
		SquareSize:       50,
		BallRadius:       20,
		HitBuffer:        10,
		BaseVelocity:     15,
		Friction:         0.98,
		Acceleration:     2,
		Deceleration:     0.1,
		MaxSpeed:         30,
		HitForceDivisor:  10,
		TickRate:         60,
		SoftTouch:        true,
		HitInPlayerPhase: true,
	}
}

// Validate reports geometry that cannot keep bodies inside the field
func (w World) Validate() error {
	switch {
	case w.Width <= 0 || w.Height <= 0:
		return fmt.Errorf("field size must be positive, got %gx%g", w.Width, w.Height)
	case w.SquareSize <= 0 || w.SquareSize > w.Width || w.SquareSize > w.Height:
		return fmt.Errorf("square size %g does not fit a %gx%g field", w.SquareSize, w.Width, w.Height)
	case w.BallRadius <= 0 || 2*w.BallRadius > w.Width || 2*w.BallRadius > w.Height:
		return fmt.Errorf("ball radius %g does not fit a %gx%g field", w.BallRadius, w.Width, w.Height)
	case w.HitBuffer < 0:
		return fmt.Errorf("hit buffer must not be negative, got %g", w.HitBuffer)
	case w.Friction < 0 || w.Friction > 1:
		return fmt.Errorf("friction must be in [0,1], got %g", w.Friction)
	case w.Deceleration < 0 || w.Deceleration > 1:
		return fmt.Errorf("deceleration must be in [0,1], got %g", w.Deceleration)
	case w.Acceleration < 0 || w.MaxSpeed < 0 || w.BaseVelocity < 0:
		return fmt.Errorf("acceleration, max speed and base velocity must not be negative")
	case w.HitForceDivisor <= 0:
		return fmt.Errorf("hit force divisor must be positive, got %g", w.HitForceDivisor)
	case w.TickRate <= 0:
		return fmt.Errorf("tick rate must be positive, got %d", w.TickRate)
	}
	return nil
}

// TickDuration is the wall-clock period of one simulation tick
func (w World) TickDuration() time.Duration {
	return time.Second / time.Duration(w.TickRate)
}

// Bounds is the rectangle a body's reference point must stay in
type Bounds struct {
	MinX, MinY, MaxX, MaxY float64
}

// PlayerBounds constrains a square's top-left corner
func (w World) PlayerBounds() Bounds {
	return Bounds{MinX: 0, MinY: 0, MaxX: w.Width - w.SquareSize, MaxY: w.Height - w.SquareSize}
}

// BallBounds constrains a ball's center
func (w World) BallBounds(radius float64) Bounds {
	return Bounds{MinX: radius, MinY: radius, MaxX: w.Width - radius, MaxY: w.Height - radius}
}

// Contains reports whether (x, y) lies inside b, edges included
func (b Bounds) Contains(x, y float64) bool {
	return x >= b.MinX && x <= b.MaxX && y >= b.MinY && y <= b.MaxY
}
