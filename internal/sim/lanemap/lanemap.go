// Package lanemap holds the field geometry: lane edges, spawn points and the
// initial set of map objects.
package lanemap

import (
	"lanewars.io/internal/sim/state"
	"lanewars.io/internal/sim/tuning"
)

const (
	turretInset        = 130.0
	soldierSpawnInset  = 340.0
	controlPointSpread = 275.0
)

type Map struct {
	Lanes  int
	Width  float64
	Height float64
}

func New(t tuning.Tuning) Map {
	return Map{Lanes: t.Lanes, Width: t.Field.Width, Height: t.Field.Height}
}

func (m Map) LaneWidth() float64 { return m.Width / float64(m.Lanes) }

func (m Map) LeftEdge(lane int) float64  { return float64(lane) * m.LaneWidth() }
func (m Map) RightEdge(lane int) float64 { return float64(lane+1) * m.LaneWidth() }
func (m Map) CenterX(lane int) float64   { return (m.LeftEdge(lane) + m.RightEdge(lane)) * 0.5 }

// LaneKeys lists every lane key in index order.
func (m Map) LaneKeys() []string {
	keys := make([]string, m.Lanes)
	for i := range keys {
		keys[i] = state.LaneKey(i)
	}
	return keys
}

// FaceAngle is the direction a side marches in, in degrees.
func FaceAngle(side state.Side) float64 {
	if side == state.SideEnemy {
		return 270
	}
	return 90
}

func (m Map) TurretSpawn(lane int, side state.Side) state.Vec2 {
	y := turretInset
	if side != state.SidePlayer {
		y = m.Height - turretInset
	}
	return state.Vec2{X: m.CenterX(lane), Y: y}
}

func (m Map) SoldierSpawn(lane int, side state.Side) state.Vec2 {
	y := soldierSpawnInset
	if side != state.SidePlayer {
		y = m.Height - soldierSpawnInset
	}
	return state.Vec2{X: m.CenterX(lane), Y: y}
}

// ControlPointYs are the rows control points sit on, top to bottom.
func (m Map) ControlPointYs() []float64 {
	h := m.Height * 0.5
	return []float64{h + controlPointSpread, h, h - controlPointSpread}
}

// InBounds reports whether y is still on the field, with a margin past either edge.
func (m Map) InBounds(y float64) bool {
	return y >= -100 && y <= m.Height+100
}
