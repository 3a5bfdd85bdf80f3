package main

import "math"

// Body is the moving part shared by players and the ball
type Body struct {
	X, Y   float64
	VX, VY float64
}

// WallResponse decides what a wall does to the velocity component that hit it
type WallResponse int

const (
	WallStop   WallResponse = iota // players stop dead
	WallBounce                     // the ball reflects
)

// HitKind classifies a ball contact
type HitKind int

const (
	HitNone  HitKind = iota
	HitKick          // moving player, velocity replaced
	HitTouch         // stationary player, velocity nudged or zeroed
)

func (k HitKind) String() string {
	switch k {
	case HitKick:
		return "kick"
	case HitTouch:
		return "touch"
	default:
		return "none"
	}
}

// RectsOverlap checks strict overlap of two axis-aligned rectangles.
// Rectangles that only share an edge do not overlap.
func RectsOverlap(ax, ay, aw, ah, bx, by, bw, bh float64) bool {
	return ax < bx+bw && ax+aw > bx && ay < by+bh && ay+ah > by
}

// ResolveWalls clamps the body into bounds. Edges are checked left, right,
// top, bottom; with inverted bounds the last violated edge wins.
func ResolveWalls(b *Body, bounds Bounds, resp WallResponse) {
	if b.X < bounds.MinX {
		b.X = bounds.MinX
		b.VX = wallVelocity(b.VX, resp)
	}
	if b.X > bounds.MaxX {
		b.X = bounds.MaxX
		b.VX = wallVelocity(b.VX, resp)
	}
	if b.Y < bounds.MinY {
		b.Y = bounds.MinY
		b.VY = wallVelocity(b.VY, resp)
	}
	if b.Y > bounds.MaxY {
		b.Y = bounds.MaxY
		b.VY = wallVelocity(b.VY, resp)
	}
}

func wallVelocity(v float64, resp WallResponse) float64 {
	if resp == WallBounce {
		return -v
	}
	return 0
}

// ResolvePlayerCollisions snaps p against the edge of every other square it
// overlaps, along whichever axes it was moving into that square. Only p is
// corrected; the other square fixes itself on its own turn.
func ResolvePlayerCollisions(p *Player, others []*Player, size float64) {
	for _, o := range others {
		if o == nil || o.ID == p.ID {
			continue
		}
		if !RectsOverlap(p.X, p.Y, size, size, o.X, o.Y, size, size) {
			continue
		}
		if p.VX > 0 && p.X < o.X {
			p.X = o.X - size
			p.VX = 0
		}
		if p.VX < 0 && p.X > o.X {
			p.X = o.X + size
			p.VX = 0
		}
		if p.VY > 0 && p.Y < o.Y {
			p.Y = o.Y - size
			p.VY = 0
		}
		if p.VY < 0 && p.Y > o.Y {
			p.Y = o.Y + size
			p.VY = 0
		}
	}
}

// ResolveBallHit applies a player's contact to the ball. The ball's box is
// widened by the world's hit buffer. A moving player replaces the ball's
// velocity with a kick away from the player's center; a stationary one
// either nudges it (SoftTouch) or zeroes it. The ball then moves one step
// and bounces off walls.
func ResolveBallHit(b *Ball, p *Player, w *World) HitKind {
	reach := b.Radius + w.HitBuffer
	if !RectsOverlap(p.X, p.Y, w.SquareSize, w.SquareSize, b.X-reach, b.Y-reach, 2*reach, 2*reach) {
		return HitNone
	}

	cx, cy := p.Center(w.SquareSize)
	angle := math.Atan2(b.Y-cy, b.X-cx)
	force := p.Speed() / w.HitForceDivisor

	kind := HitKick
	switch {
	case force > 0:
		b.VX = math.Cos(angle) * w.BaseVelocity * force
		b.VY = math.Sin(angle) * w.BaseVelocity * force
	case w.SoftTouch:
		kind = HitTouch
		b.VX += math.Cos(angle) * w.BaseVelocity * w.Friction
		b.VY += math.Sin(angle) * w.BaseVelocity * w.Friction
	default:
		kind = HitTouch
		b.VX = 0
		b.VY = 0
	}

	b.X += b.VX
	b.Y += b.VY
	ResolveWalls(&b.Body, w.BallBounds(b.Radius), WallBounce)
	return kind
}
