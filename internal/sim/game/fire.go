package game

import (
	"fmt"

	"lanewars.io/internal/sim/events"
	"lanewars.io/internal/sim/queries"
	"lanewars.io/internal/sim/state"
)

type fireFunc func(g *Game, e events.Event)

var dispatch = map[events.Kind]fireFunc{
	events.KindPlaySound:       (*Game).firePlaySound,
	events.KindGameStart:       (*Game).fireGameStart,
	events.KindCheckGameEnd:    (*Game).fireCheckGameEnd,
	events.KindSoldierAttack:   (*Game).fireSoldierAttack,
	events.KindTurretAttack:    (*Game).fireTurretAttack,
	events.KindExplosion:       (*Game).fireExplosion,
	events.KindSoldierDie:      (*Game).fireSoldierDie,
	events.KindTurretDie:       (*Game).fireTurretDie,
	events.KindProduceResource: (*Game).fireProduceResource,
	events.KindPurchase:        (*Game).firePurchase,
	events.KindSpawn:           (*Game).fireSpawn,
}

// fireEvent runs e against private state and the index from the previous tick.
func (g *Game) fireEvent(e events.Event) {
	f, ok := dispatch[e.Kind]
	if !ok {
		g.log.Printf("event not handled: kind=%d source=%q", uint8(e.Kind), e.SourceID)
		return
	}
	f(g, e)
}

func (g *Game) firePlaySound(e events.Event) {
	g.col.Sounds.PlaySound(e.Sound)
}

func (g *Game) fireGameStart(events.Event) {
	g.col.Messenger.ShowMessage("Hold the points!", MessageInfo)
}

func (g *Game) fireCheckGameEnd(events.Event) {
	if g.priv.Winner != state.SideNeutral {
		g.col.Scenes.LoadScene(SceneMenu)
	}
}

func (g *Game) fireSoldierAttack(e events.Event) {
	source := g.privIx.UnitByID(e.SourceID)
	target := g.privIx.UnitByID(e.TargetID)
	if source == nil || target == nil {
		return
	}
	muzzle := source.Pos.MoveTowards(target.Pos, g.cfg.Soldier.MuzzleLength)
	g.spawnEffect(muzzle, events.ObjectLightMuzzle)

	impact := target.Pos.Add(g.radialSpread().Scale(g.cfg.Soldier.MuzzleLength))
	g.spawnEffect(impact, events.ObjectParticleBulletImpact)
	target.Health -= e.Damage

	g.col.Sounds.PlaySound(events.SoundShoot)
}

func (g *Game) fireTurretAttack(e events.Event) {
	source := g.privIx.UnitByID(e.SourceID)
	target := g.privIx.UnitByID(e.TargetID)
	if source == nil || target == nil {
		return
	}
	muzzle := source.Pos.MoveTowards(target.Pos, g.cfg.Turret.MuzzleLength)
	g.spawnEffect(muzzle, events.ObjectLightTurretMuzzle)
	g.col.Sounds.PlaySound(events.SoundTurretShoot)

	target.Health -= e.Damage
}

func (g *Game) fireExplosion(e events.Event) {
	if e.Radius > 0 {
		q := queries.NearestUnitQuery{From: e.Pos, MaxDistance: e.Radius, LaneKey: e.LaneKey}
		for _, t := range g.privIx.NearestUnitTuples(q, func(u *state.Unit) bool { return u.Side != e.Side }) {
			t.Unit.Health -= (1 - t.Distance/e.Radius) * e.Damage
		}
	}
	for _, obj := range []events.ObjectType{
		events.ObjectDecalExplosion,
		events.ObjectLightExplosion,
		events.ObjectParticleExplosionSmoke,
		events.ObjectParticleExplosionFire,
	} {
		g.spawnEffect(e.Pos, obj)
	}
}

func (g *Game) fireSoldierDie(e events.Event) {
	g.spawnEffect(e.Pos, events.ObjectDecalBlood)
	g.spawnEffect(e.Pos, events.ObjectParticleBlood)
	g.col.Sounds.PlaySound(events.SoundSplat)
	g.priv.RemoveUnit(e.SourceID)
}

func (g *Game) fireTurretDie(e events.Event) {
	pos, side := e.Pos, e.Side
	if t := g.privIx.UnitByID(e.SourceID); t != nil && t.Type == state.UnitTurret {
		pos, side = t.Pos, t.Side
		g.priv.RemoveUnit(t.ID)
	}

	g.spawnEffect(pos, events.ObjectDecalExplosion)
	g.spawnEffect(pos, events.ObjectParticleBlood)

	who := "Enemy"
	if side == state.SidePlayer {
		who = "Player"
	}
	g.col.Messenger.ShowMessage(fmt.Sprintf("%s base destroyed!", who), MessageInfo)

	// The index stays stale until the next rebuild, so bases are counted on the state.
	switch {
	case !g.priv.HasBase(state.SidePlayer):
		if g.priv.SetWinner(state.SideEnemy) {
			g.log.Printf("tick=%d winner=%s", g.priv.Tick, state.SideEnemy)
			g.col.Messenger.ShowMessage("The enemy has won!", MessageLose)
			g.col.Sounds.PlaySound(events.SoundDefeat)
		}
	case !g.priv.HasBase(state.SideEnemy):
		if g.priv.SetWinner(state.SidePlayer) {
			g.log.Printf("tick=%d winner=%s", g.priv.Tick, state.SidePlayer)
			g.col.Messenger.ShowMessage("You have won!", MessageWin)
			g.col.Sounds.PlaySound(events.SoundVictory)
		}
	}
}

func (g *Game) fireProduceResource(e events.Event) {
	u := g.privIx.UnitByID(e.SourceID)
	if u == nil {
		g.log.Printf("produce resource: unit %q not found", e.SourceID)
		return
	}
	switch u.Side {
	case state.SidePlayer:
		g.priv.PlayerResources++
	case state.SideEnemy:
		g.priv.EnemyResources++
	}
}

func (g *Game) firePurchase(e events.Event) {
	if purse := g.priv.Resources(e.Side); purse != nil {
		*purse -= g.cfg.PurchaseCost
	}

	pos := g.field.SoldierSpawn(e.Lane, e.Side)
	g.spawnEffect(pos, events.ObjectParticleSpawn)
	g.col.Sounds.PlaySound(events.SoundSpawn)

	angle := g.rng.Float64() * 360
	g.spawn(events.SpawnUnit(pos, angle, e.Side, state.LaneKey(e.Lane), events.ObjectUnitSoldier))
}

func (g *Game) fireSpawn(e events.Event) {
	g.spawn(e)
}
