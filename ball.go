package main

// Ball is the single shared ball; X, Y is its center
type Ball struct {
	Body
	Radius float64
}

// NewBall places a resting ball at the center of the field
func NewBall(w *World) *Ball {
	return &Ball{
		Body:   Body{X: w.Width / 2, Y: w.Height / 2},
		Radius: w.BallRadius,
	}
}

// Advance moves the ball by its velocity, applies friction and bounces it
// off the walls
func (b *Ball) Advance(w *World) {
	b.X += b.VX
	b.Y += b.VY

	b.VX *= w.Friction
	b.VY *= w.Friction

	ResolveWalls(&b.Body, w.BallBounds(b.Radius), WallBounce)
}

// ToState converts to protocol state
func (b *Ball) ToState() BallState {
	return BallState{
		X:      b.X,
		Y:      b.Y,
		Radius: b.Radius,
		VX:     b.VX,
		VY:     b.VY,
	}
}
