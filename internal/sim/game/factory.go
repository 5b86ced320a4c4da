package game

import (
	"lanewars.io/internal/sim/events"
	"lanewars.io/internal/sim/state"
)

// spawn builds simulation state for unit objects and the enemy controller, then asks the
// spawner to instantiate the object. Cosmetic objects only produce the request.
func (g *Game) spawn(e events.Event) *state.Unit {
	var u *state.Unit
	switch e.Object {
	case events.ObjectUnitSoldier:
		u = state.NewSoldier(e.Side, e.LaneKey, e.Pos, e.Angle, g.cfg.Soldier.Health)
		u.Effectiveness = 0.8 + 0.2*g.rng.Float64()
	case events.ObjectUnitTurret:
		production := g.cfg.ControlPoint.ProductionCooldown * (0.8 + 0.2*g.rng.Float64())
		u = state.NewTurret(e.Side, e.LaneKey, e.Pos, e.Angle, g.cfg.Turret.Health, production)
	case events.ObjectUnitControlPoint:
		u = state.NewControlPoint(e.Side, e.LaneKey, e.Pos)
	case events.ObjectEnemyAI:
		g.priv.EnemyAI = &state.EnemyAIState{SpawnCooldown: g.cfg.EnemyAI.SpawnCooldown}
	}
	if u != nil {
		u.ID = g.priv.NewID()
		g.priv.Add(u)
	}
	g.col.Spawner.RequestSpawn(e.Object, u.Clone(), e.Pos)
	return u
}

func (g *Game) spawnEffect(pos state.Vec2, obj events.ObjectType) {
	g.col.Spawner.RequestSpawn(obj, nil, pos)
}
