package lanemap

import (
	"lanewars.io/internal/sim/events"
	"lanewars.io/internal/sim/state"
)

// SpawnEvents builds the starting map: the enemy controller, then per lane a barrier on its
// right edge (except the last lane), one turret per side and a column of neutral control points.
func (m Map) SpawnEvents() []events.Event {
	out := []events.Event{events.Spawn(state.Vec2{}, events.ObjectEnemyAI)}
	playerAngle := FaceAngle(state.SidePlayer)
	enemyAngle := FaceAngle(state.SideEnemy)

	for lane := 0; lane < m.Lanes; lane++ {
		key := state.LaneKey(lane)
		if lane < m.Lanes-1 {
			barrier := state.Vec2{X: m.RightEdge(lane), Y: m.Height * 0.5}
			out = append(out, events.SpawnUnit(barrier, playerAngle, state.SideNeutral, key, events.ObjectMapBarrier))
		}

		out = append(out,
			events.SpawnUnit(m.TurretSpawn(lane, state.SidePlayer), playerAngle, state.SidePlayer, key, events.ObjectUnitTurret),
			events.SpawnUnit(m.TurretSpawn(lane, state.SideEnemy), enemyAngle, state.SideEnemy, key, events.ObjectUnitTurret),
		)

		x := m.CenterX(lane)
		for _, y := range m.ControlPointYs() {
			out = append(out, events.SpawnUnit(state.Vec2{X: x, Y: y}, 0, state.SideNeutral, key, events.ObjectUnitControlPoint))
		}
	}
	return out
}
