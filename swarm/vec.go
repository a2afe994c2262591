package swarm

import "math"

// Vec2 is a 2D vector used for positions, velocities and forces
type Vec2 struct {
	X, Y float64
}

// V is shorthand for Vec2{x, y}
func V(x, y float64) Vec2 {
	return Vec2{X: x, Y: y}
}

func (v Vec2) Add(o Vec2) Vec2 {
	return Vec2{v.X + o.X, v.Y + o.Y}
}

func (v Vec2) Sub(o Vec2) Vec2 {
	return Vec2{v.X - o.X, v.Y - o.Y}
}

func (v Vec2) Scale(s float64) Vec2 {
	return Vec2{v.X * s, v.Y * s}
}

// Div divides both components by s. Division by zero yields the zero vector.
func (v Vec2) Div(s float64) Vec2 {
	if s == 0 {
		return Vec2{}
	}
	return Vec2{v.X / s, v.Y / s}
}

// Mag returns the Euclidean length
func (v Vec2) Mag() float64 {
	return math.Hypot(v.X, v.Y)
}

// MagSq returns the squared length
func (v Vec2) MagSq() float64 {
	return v.X*v.X + v.Y*v.Y
}

func (v Vec2) IsZero() bool {
	return v.X == 0 && v.Y == 0
}

// Norm rescales v to the given length. The zero vector stays zero.
func (v Vec2) Norm(length float64) Vec2 {
	m := v.Mag()
	if m == 0 {
		return Vec2{}
	}
	return v.Scale(length / m)
}

// Limit clamps the magnitude of v to max, keeping its direction
func (v Vec2) Limit(max float64) Vec2 {
	m := v.Mag()
	if m > max && m > 0 {
		return v.Scale(max / m)
	}
	return v
}

// LimitMin raises the magnitude of v to at least min. The zero vector stays zero.
func (v Vec2) LimitMin(min float64) Vec2 {
	m := v.Mag()
	if m < min && m > 0 {
		return v.Scale(min / m)
	}
	return v
}

// Dist is the straight-line distance, ignoring wraparound
func (v Vec2) Dist(o Vec2) float64 {
	return o.Sub(v).Mag()
}

func (v Vec2) DistSq(o Vec2) float64 {
	return o.Sub(v).MagSq()
}

// Rel returns the image of o (o translated by whole world extents) that lies
// closest to v on a w x h torus. Vector math between v and the result needs
// no further wrap handling.
func (v Vec2) Rel(o Vec2, w, h float64) Vec2 {
	return Vec2{
		X: v.X + wrapDelta(o.X-v.X, w),
		Y: v.Y + wrapDelta(o.Y-v.Y, h),
	}
}

// DistMod is the minimal distance between v and o on a w x h torus
func (v Vec2) DistMod(o Vec2, w, h float64) float64 {
	return math.Hypot(wrapDelta(o.X-v.X, w), wrapDelta(o.Y-v.Y, h))
}

// DistModSq is the squared toroidal distance
func (v Vec2) DistModSq(o Vec2, w, h float64) float64 {
	dx := wrapDelta(o.X-v.X, w)
	dy := wrapDelta(o.Y-v.Y, h)
	return dx*dx + dy*dy
}

// Wrap reduces p into [0,w) x [0,h)
func Wrap(p Vec2, w, h float64) Vec2 {
	return Vec2{wrapCoord(p.X, w), wrapCoord(p.Y, h)}
}

// wrapDelta maps an axis difference onto [-extent/2, extent/2].
// A difference of exactly half the extent is left alone.
func wrapDelta(d, extent float64) float64 {
	half := extent / 2
	if d >= -half && d <= half {
		return d
	}
	d = math.Mod(d, extent)
	if d > half {
		d -= extent
	} else if d < -half {
		d += extent
	}
	return d
}

// wrapCoord adds or subtracts the extent until x lands in [0, extent).
// Overshoots of several extents are folded with Mod first so the loops stay short.
func wrapCoord(x, extent float64) float64 {
	if x >= 0 && x < extent {
		return x
	}
	if x >= 2*extent || x < -extent {
		x = math.Mod(x, extent)
	}
	for x >= extent {
		x -= extent
	}
	for x < 0 {
		x += extent
	}
	// -tiny + extent can round up to extent
	if x >= extent {
		x = 0
	}
	return x
}
