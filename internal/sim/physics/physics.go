// Package physics separates overlapping soldiers and keeps them inside their lane.
package physics

import (
	"lanewars.io/internal/sim/lanemap"
	"lanewars.io/internal/sim/queries"
	"lanewars.io/internal/sim/state"
)

// nudge breaks the tie when two soldiers share a position exactly.
var nudge = state.Vec2{X: 0, Y: 0.001}

type Resolver struct {
	Map     lanemap.Map
	Radius  float64
	Padding float64
}

func New(m lanemap.Map, radius, padding float64) Resolver {
	return Resolver{Map: m, Radius: radius, Padding: padding}
}

// Resolve runs one separation pass per lane, then clamps every soldier horizontally.
// Pairs are visited i<j in bucket order, which keeps the pass deterministic.
func (r Resolver) Resolve(ix *queries.Index) {
	isSoldier := func(u *state.Unit) bool { return u.Type == state.UnitSoldier }
	for lane := 0; lane < ix.Lanes(); lane++ {
		units := ix.UnitsByLane(state.LaneKey(lane), isSoldier)
		r.separate(units)
		r.clamp(lane, units)
	}
}

func (r Resolver) separate(units []*state.Unit) {
	minSep := 2 * r.Radius
	for i := 0; i < len(units); i++ {
		a := units[i]
		for j := i + 1; j < len(units); j++ {
			b := units[j]
			if a.Pos == b.Pos {
				b.Pos = b.Pos.Add(nudge)
			}
			d := b.Pos.Sub(a.Pos)
			dist := d.Len()
			if dist >= minSep {
				continue
			}
			push := d.Scale((minSep - dist) * 0.5 / dist)
			a.Pos = a.Pos.Sub(push)
			b.Pos = b.Pos.Add(push)
		}
	}
}

func (r Resolver) clamp(lane int, units []*state.Unit) {
	lo := r.Map.LeftEdge(lane) + r.Radius + r.Padding
	hi := r.Map.RightEdge(lane) - r.Radius - r.Padding
	for _, u := range units {
		u.Pos.X = state.Clamp(u.Pos.X, lo, hi)
	}
}
