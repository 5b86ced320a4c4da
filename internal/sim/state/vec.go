package state

import "math"

// Vec2 is a position in field pixels; Y grows from the player's edge toward the enemy's.
type Vec2 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (a Vec2) Add(b Vec2) Vec2        { return Vec2{X: a.X + b.X, Y: a.Y + b.Y} }
func (a Vec2) Sub(b Vec2) Vec2        { return Vec2{X: a.X - b.X, Y: a.Y - b.Y} }
func (a Vec2) Scale(k float64) Vec2   { return Vec2{X: a.X * k, Y: a.Y * k} }
func (a Vec2) Len() float64           { return math.Hypot(a.X, a.Y) }
func (a Vec2) Dist(b Vec2) float64    { return a.Sub(b).Len() }
func (a Vec2) AngleTo(b Vec2) float64 { d := b.Sub(a); return math.Atan2(d.Y, d.X) * 180 / math.Pi }

// MoveTowards moves a toward b by at most maxDelta. A negative maxDelta moves away from b.
func (a Vec2) MoveTowards(b Vec2, maxDelta float64) Vec2 {
	d := b.Sub(a)
	dist := d.Len()
	if dist == 0 || (maxDelta >= 0 && dist <= maxDelta) {
		return b
	}
	return a.Add(d.Scale(maxDelta / dist))
}

// FromAngle returns the unit vector for an angle in degrees.
func FromAngle(deg float64) Vec2 {
	r := deg * math.Pi / 180
	return Vec2{X: math.Cos(r), Y: math.Sin(r)}
}

// DeltaAngle is the shortest signed difference b-a in degrees, in [-180, 180].
func DeltaAngle(a, b float64) float64 {
	d := math.Mod(b-a, 360)
	if d < 0 {
		d += 360
	}
	if d > 180 {
		d -= 360
	}
	return d
}

// RotateTowards turns current toward desired by at most degPerSec*dt.
func RotateTowards(current, desired, degPerSec, dt float64) float64 {
	delta := DeltaAngle(desired, current)
	step := math.Min(math.Abs(delta), degPerSec*dt)
	if delta < 0 {
		return current + step
	}
	return current - step
}

func Clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

func Clamp01(x float64) float64 {
	if math.IsNaN(x) {
		return 0
	}
	return Clamp(x, 0, 1)
}
