package game

import (
	"math"

	"lanewars.io/internal/sim/events"
	"lanewars.io/internal/sim/lanemap"
	"lanewars.io/internal/sim/queries"
	"lanewars.io/internal/sim/state"
)

const (
	aimToleranceDeg = 5.0
	turretDeathStep = 80.0
)

// runBehaviours advances every unit's own logic by dt. Units read the index rebuilt at the
// start of the phase; anything they decide to do to others goes through the event queue.
func (g *Game) runBehaviours(dt float64) {
	for _, u := range append([]*state.Unit(nil), g.priv.Soldiers...) {
		g.updateSoldier(u, dt)
	}
	for _, u := range append([]*state.Unit(nil), g.priv.Turrets...) {
		g.updateTurret(u, dt)
	}
	for _, u := range g.priv.ControlPoints {
		g.updateControlPoint(u, dt)
	}
	g.updateEnemyAI(dt)
}

func (g *Game) updateSoldier(u *state.Unit, dt float64) {
	sc := g.cfg.Soldier
	eff := u.Efficiency()
	u.ShootCooldown -= dt

	target := g.privIx.NearestFrom(u, sc.AttackDistance)
	desired := lanemap.FaceAngle(u.Side)
	if target != nil {
		desired = u.Pos.AngleTo(target.Pos)
	}
	u.Angle = state.RotateTowards(u.Angle, desired, sc.RotateSpeed*eff, dt)

	if target != nil {
		aimed := math.Abs(state.DeltaAngle(desired, u.Angle)) < aimToleranceDeg
		if u.ShootCooldown <= 0 && aimed {
			g.PushEvent(events.SoldierAttack(u.ID, target.ID, sc.Damage))
			u.ShootCooldown = sc.AttackCooldown * eff
			u.TargetID = target.ID
		}
	} else {
		u.Pos = u.Pos.Add(state.FromAngle(u.Angle).Scale(sc.MoveSpeed * eff * dt))
		if !g.field.InBounds(u.Pos.Y) {
			g.priv.RemoveUnit(u.ID)
			return
		}
	}

	if u.Health < 0 {
		g.priv.RemoveUnit(u.ID)
		g.PushEvent(events.SoldierDie(u.ID, u.Pos))
	}
}

func (g *Game) updateTurret(u *state.Unit, dt float64) {
	tc := g.cfg.Turret
	u.ShootCooldown -= dt

	u.ProductionCooldown -= dt
	if u.ProductionCooldown <= 0 {
		u.ProductionCooldown = g.cfg.ControlPoint.ProductionCooldown
		g.PushEvent(events.ProduceResource(u.ID))
		if u.Side == state.SidePlayer {
			pos := g.field.SoldierSpawn(state.LaneIndex(u.LaneKey), u.Side)
			g.PushEvent(events.Spawn(pos, events.ObjectParticleResource))
		}
	}

	target := g.privIx.NearestFrom(u, tc.AttackDistance)
	desired := lanemap.FaceAngle(u.Side)
	if target != nil {
		desired = u.Pos.AngleTo(target.Pos)
	}
	u.Angle = state.RotateTowards(u.Angle, desired, tc.RotateSpeed, dt)

	if target != nil {
		aimed := math.Abs(state.DeltaAngle(desired, u.Angle)) < aimToleranceDeg
		if u.ShootCooldown <= 0 && aimed {
			g.PushEvent(events.TurretAttack(u.ID, target.ID, tc.Damage))
			splash := target.Pos.Add(g.radialSpread().Scale(g.cfg.Soldier.Radius * 1.5))
			g.PushEvent(events.Explosion(splash, tc.SplashDamage, tc.SplashRadius, 1, u.LaneKey, u.Side))
			u.ShootCooldown = tc.AttackCooldown
			u.TargetID = target.ID
		}
	}

	if u.Health < 0 {
		g.destroyTurret(u)
	}
}

// destroyTurret takes the turret out of the world and queues its death, a short chain of
// explosions walking back toward its own edge, and the delayed end-of-game check.
func (g *Game) destroyTurret(u *state.Unit) {
	tc := g.cfg.Turret
	g.priv.RemoveUnit(u.ID)
	g.PushEvent(events.TurretDie(u.ID, u.Pos, u.Side))

	step := turretDeathStep
	if u.Side != state.SidePlayer {
		step = -step
	}
	for v := 0; v < 3; v++ {
		pos := u.Pos.Add(g.radialSpread().Scale(60)).Add(state.Vec2{Y: float64(v) * step})
		delay := float64(v) * 0.3
		g.PushEvent(events.Explosion(pos, tc.SplashDamage, tc.SplashRadius, 1, u.LaneKey, u.Side).Delayed(delay))
		g.PushEvent(events.PlaySound(events.SoundTurretShoot).Delayed(delay))
		g.PushEvent(events.CheckGameEnd(g.cfg.GameEndDelaySec))
	}
}

func (g *Game) updateControlPoint(u *state.Unit, dt float64) {
	g.captureControlPoint(u)

	u.ProductionCooldown -= dt
	if u.ProductionCooldown < 0 && u.Side != state.SideNeutral {
		u.ProductionCooldown = g.cfg.ControlPoint.ProductionCooldown
		g.PushEvent(events.ProduceResource(u.ID))
		if u.Side == state.SidePlayer {
			g.PushEvent(events.Spawn(u.Pos, events.ObjectParticleResource))
		}
	}
}

// captureControlPoint flips the point to whichever side alone has soldiers inside its
// capture strip: the lane's full width, CaptureDistance above and below the point.
func (g *Game) captureControlPoint(u *state.Unit) {
	w := g.field.LaneWidth()
	capDist := g.cfg.ControlPoint.CaptureDistance
	minX, maxX := u.Pos.X-w*0.5, u.Pos.X+w*0.5
	minY, maxY := u.Pos.Y-capDist, u.Pos.Y+capDist
	inside := func(p state.Vec2) bool {
		return p.X >= minX && p.X < maxX && p.Y >= minY && p.Y < maxY
	}

	q := queries.NearestUnitQuery{From: u.Pos, MaxDistance: w, LaneKey: u.LaneKey}
	var hasPlayer, hasEnemy bool
	for _, t := range g.privIx.NearestUnitTuples(q, func(s *state.Unit) bool { return s.Type == state.UnitSoldier }) {
		if !inside(t.Unit.Pos) {
			continue
		}
		switch t.Unit.Side {
		case state.SidePlayer:
			hasPlayer = true
		case state.SideEnemy:
			hasEnemy = true
		}
	}
	if hasPlayer == hasEnemy {
		return
	}
	side := state.SidePlayer
	if hasEnemy {
		side = state.SideEnemy
	}
	if u.Side == side {
		return
	}
	sound := events.SoundCapture
	if side == state.SideEnemy {
		sound = events.SoundLoseCapture
	}
	g.PushEvent(events.PlaySound(sound))
	u.Side = side
}

func (g *Game) updateEnemyAI(dt float64) {
	ai := g.priv.EnemyAI
	if ai == nil || g.priv.Winner != state.SideNeutral {
		return
	}
	if ai.SpawnCooldown > 0 || g.priv.EnemyResources <= 0 {
		ai.SpawnCooldown -= dt
		return
	}
	key, ok, err := g.ai.SpawnLaneKey(g.priv, g.privIx, g.rng)
	if err != nil {
		g.log.Printf("enemy ai: %v", err)
		return
	}
	if !ok {
		return
	}
	g.PushEvent(events.Purchase(state.SideEnemy, state.LaneIndex(key)))
	ai.SpawnCooldown = g.ai.CooldownForDifficulty(g.priv.Difficulty)
}
