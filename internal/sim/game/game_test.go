package game

import (
	"bytes"
	"errors"
	"log"
	"math"
	"strings"
	"testing"

	"lanewars.io/internal/sim/events"
	"lanewars.io/internal/sim/state"
	"lanewars.io/internal/sim/tuning"
)

type recorder struct {
	spawns   []events.ObjectType
	sounds   []events.SoundKind
	messages []string
	kinds    []MessageKind
	scenes   []string
}

func (r *recorder) RequestSpawn(obj events.ObjectType, _ *state.Unit, _ state.Vec2) {
	r.spawns = append(r.spawns, obj)
}
func (r *recorder) PlaySound(s events.SoundKind) { r.sounds = append(r.sounds, s) }
func (r *recorder) ShowMessage(text string, kind MessageKind) {
	r.messages = append(r.messages, text)
	r.kinds = append(r.kinds, kind)
}
func (r *recorder) LoadScene(target string) { r.scenes = append(r.scenes, target) }

func (r *recorder) count(kind MessageKind) int {
	n := 0
	for _, k := range r.kinds {
		if k == kind {
			n++
		}
	}
	return n
}

func newTestGame(t *testing.T) (*Game, *recorder) {
	t.Helper()
	rec := &recorder{}
	g, err := New(tuning.Defaults(), Collaborators{Spawner: rec, Sounds: rec, Messenger: rec, Scenes: rec}, nil)
	if err != nil {
		t.Fatalf("new game: %v", err)
	}
	return g, rec
}

func add(s *state.GameState, u *state.Unit, id string) *state.Unit {
	u.ID = id
	s.Add(u)
	return u
}

func TestNew_RejectsInvalidTuning(t *testing.T) {
	cfg := tuning.Defaults()
	cfg.Lanes = 0
	if _, err := New(cfg, Collaborators{}, nil); err == nil {
		t.Fatalf("expected error")
	}
}

func TestProcessEvents_AttackDamagesTarget(t *testing.T) {
	g, rec := newTestGame(t)
	s := state.New(state.Easy, 12)
	add(s, state.NewSoldier(state.SideEnemy, "0", state.Vec2{X: 180, Y: 500}, 270, 10), "0")
	add(s, state.NewSoldier(state.SidePlayer, "0", state.Vec2{X: 180, Y: 800}, 90, 10), "1")
	g.LoadFromState(s)

	g.PushEvent(events.SoldierAttack("0", "1", 5))
	g.ProcessEvents()

	if got := g.State().Soldiers[1].Health; got != 5 {
		t.Fatalf("health: got %v want 5", got)
	}
	if len(rec.sounds) != 1 || rec.sounds[0] != events.SoundShoot {
		t.Fatalf("sounds: %v", rec.sounds)
	}
}

func TestProcessEvents_AttackOnMissingUnitIsSkipped(t *testing.T) {
	g, rec := newTestGame(t)
	s := state.New(state.Easy, 12)
	add(s, state.NewSoldier(state.SidePlayer, "0", state.Vec2{X: 180, Y: 800}, 90, 10), "1")
	g.LoadFromState(s)

	g.PushEvent(events.SoldierAttack("gone", "1", 5))
	g.ProcessEvents()

	if got := g.State().Soldiers[0].Health; got != 10 {
		t.Fatalf("health: %v", got)
	}
	if len(rec.sounds) != 0 || len(rec.spawns) != 0 {
		t.Fatalf("no side effects expected: %v %v", rec.sounds, rec.spawns)
	}
}

func TestSnapshot_Independence(t *testing.T) {
	g, _ := newTestGame(t)
	g.StartNewGame()

	pub := g.State()
	tick := pub.Tick
	id := pub.Turrets[0].ID
	pub.Turrets[0].Health = -100
	pub.PlayerResources = 999
	pub.Soldiers = append(pub.Soldiers, &state.Unit{ID: "ghost", LaneKey: "0", Type: state.UnitSoldier})

	g.ProcessEventsAndSync()
	next := g.State()
	if next == pub {
		t.Fatalf("snapshot reused")
	}
	if next.Turrets[0].Health != 50 || next.PlayerResources == 999 || len(next.Soldiers) != 0 {
		t.Fatalf("mutating a snapshot leaked into private state: %+v", next)
	}
	if pub.Tick != tick {
		t.Fatalf("old snapshot changed by tick: %d -> %d", tick, pub.Tick)
	}

	// The published index aliases the published copy, never the private state.
	if g.Queries().UnitByID(id) != next.Turrets[0] {
		t.Fatalf("queries not built over published state")
	}
	g.Queries().UnitByID(id).Health = 1
	g.ProcessEvents()
	if g.State().Turrets[0].Health != 50 {
		t.Fatalf("mutating queries leaked into private state")
	}
}

func TestProcessEvents_FIFOAndDelay(t *testing.T) {
	g, rec := newTestGame(t)
	g.LoadFromState(state.New(state.Easy, 12))

	dt := g.Tuning().TickSeconds()
	g.PushEvents([]events.Event{
		events.PlaySound(events.SoundCapture),
		events.PlaySound(events.SoundVictory).Delayed(2 * dt),
		events.PlaySound(events.SoundSplat),
	})

	g.ProcessEvents()
	if len(rec.sounds) != 2 || rec.sounds[0] != events.SoundCapture || rec.sounds[1] != events.SoundSplat {
		t.Fatalf("tick 1: %v", rec.sounds)
	}
	g.ProcessEvents()
	if len(rec.sounds) != 2 {
		t.Fatalf("tick 2: %v", rec.sounds)
	}
	g.ProcessEvents()
	if len(rec.sounds) != 3 || rec.sounds[2] != events.SoundVictory {
		t.Fatalf("tick 3: %v", rec.sounds)
	}
	if g.Pending() != 0 {
		t.Fatalf("pending: %d", g.Pending())
	}
}

func TestProcessEvents_EventsPushedWhileFiringWait(t *testing.T) {
	const chain events.Kind = 200
	dispatch[chain] = func(g *Game, e events.Event) {
		g.PushEvent(events.PlaySound(events.SoundSpawn))
	}
	t.Cleanup(func() { delete(dispatch, chain) })

	g, rec := newTestGame(t)
	g.LoadFromState(state.New(state.Easy, 12))
	g.PushEvent(events.Event{Kind: chain})
	g.ProcessEvents()
	if len(rec.sounds) != 0 || g.Pending() != 1 {
		t.Fatalf("chained event fired in the same tick: sounds=%v pending=%d", rec.sounds, g.Pending())
	}
	g.ProcessEvents()
	if len(rec.sounds) != 1 || rec.sounds[0] != events.SoundSpawn {
		t.Fatalf("sounds: %v", rec.sounds)
	}
}

func TestProcessEvents_UnknownKindLogged(t *testing.T) {
	var buf bytes.Buffer
	g, err := New(tuning.Defaults(), Collaborators{}, log.New(&buf, "", 0))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	g.PushEvent(events.Event{Kind: 250})
	g.PushEvent(events.PlaySound(events.SoundShoot))
	g.ProcessEvents()
	if !strings.Contains(buf.String(), "event not handled") {
		t.Fatalf("log: %q", buf.String())
	}
	if g.Pending() != 0 {
		t.Fatalf("pending: %d", g.Pending())
	}
}

func TestLoadFromState_ClearsQueueAndResolvesPhysics(t *testing.T) {
	g, rec := newTestGame(t)
	g.PushEvent(events.PlaySound(events.SoundShoot).Delayed(10))

	s := state.New(state.Easy, 12)
	add(s, state.NewSoldier(state.SidePlayer, "0", state.Vec2{X: 60, Y: 0}, 90, 10), "0")
	add(s, state.NewSoldier(state.SideEnemy, "0", state.Vec2{X: 60, Y: 20}, 270, 10), "1")
	add(s, state.NewSoldier(state.SidePlayer, "0", state.Vec2{X: 60, Y: 320}, 90, 10), "2")
	add(s, state.NewSoldier(state.SideEnemy, "0", state.Vec2{X: 60, Y: 320}, 270, 10), "3")
	g.LoadFromState(s)

	if g.Pending() != 0 || len(rec.sounds) != 0 {
		t.Fatalf("queue not cleared")
	}
	pub := g.State()
	r2 := 2 * g.Tuning().Soldier.Radius
	if d := pub.Soldiers[0].Pos.Dist(pub.Soldiers[1].Pos); math.Abs(d-r2) > 1e-9 {
		t.Fatalf("pair a/b: %v", d)
	}
	if d := pub.Soldiers[2].Pos.Dist(pub.Soldiers[3].Pos); math.Abs(d-r2) > 1e-9 {
		t.Fatalf("pair c/d: %v", d)
	}
	if pub.Soldiers[0].Pos.X == 60 {
		t.Fatalf("boundary clamp not applied")
	}
}

func winFixture(g *Game) (player0, enemy0, enemy1 string) {
	s := state.New(state.Medium, 12)
	cfg := g.Tuning()
	m := g.Map()
	add(s, state.NewTurret(state.SidePlayer, "0", m.TurretSpawn(0, state.SidePlayer), 90, cfg.Turret.Health, 100), "P0")
	add(s, state.NewTurret(state.SideEnemy, "0", m.TurretSpawn(0, state.SideEnemy), 270, cfg.Turret.Health, 100), "E0")
	add(s, state.NewTurret(state.SideEnemy, "1", m.TurretSpawn(1, state.SideEnemy), 270, cfg.Turret.Health, 100), "E1")
	g.LoadFromState(s)
	return "P0", "E0", "E1"
}

func TestTurretDie_WinnerSetOnce(t *testing.T) {
	g, rec := newTestGame(t)
	p0, e0, e1 := winFixture(g)

	g.PushEvent(events.TurretDie(e0, state.Vec2{}, state.SideEnemy))
	g.ProcessEvents()
	if w := g.State().Winner; w != state.SideNeutral {
		t.Fatalf("winner after first enemy base: %s", w)
	}
	if len(g.State().Turrets) != 2 {
		t.Fatalf("turret not removed: %d", len(g.State().Turrets))
	}

	g.PushEvent(events.TurretDie(p0, state.Vec2{}, state.SidePlayer))
	g.ProcessEvents()
	if w := g.State().Winner; w != state.SideEnemy {
		t.Fatalf("winner: %s", w)
	}

	g.PushEvent(events.TurretDie(e1, state.Vec2{}, state.SideEnemy))
	g.ProcessEvents()
	if w := g.State().Winner; w != state.SideEnemy {
		t.Fatalf("winner changed to %s", w)
	}
	if rec.count(MessageLose) != 1 || rec.count(MessageWin) != 0 {
		t.Fatalf("messages: %v", rec.messages)
	}
	if !strings.Contains(strings.Join(rec.messages, "|"), "Player base destroyed!") {
		t.Fatalf("messages: %v", rec.messages)
	}
}

func TestTurretDestroyedByDamage_EndsGame(t *testing.T) {
	g, rec := newTestGame(t)
	s := state.New(state.Medium, 12)
	cfg := g.Tuning()
	m := g.Map()
	add(s, state.NewTurret(state.SidePlayer, "0", m.TurretSpawn(0, state.SidePlayer), 90, cfg.Turret.Health, 100), "P0")
	add(s, state.NewTurret(state.SideEnemy, "2", m.TurretSpawn(2, state.SideEnemy), 270, cfg.Turret.Health, 100), "E2")
	g.LoadFromStateAndSync(s)

	g.SubmitCommand(ApplyDamage("E2", 1000))
	g.ProcessEventsAndSync()
	if len(g.State().Turrets) != 1 {
		t.Fatalf("dead turret still present")
	}
	g.ProcessEventsAndSync()
	if g.State().Winner != state.SidePlayer {
		t.Fatalf("winner: %s", g.State().Winner)
	}
	if rec.count(MessageWin) != 1 {
		t.Fatalf("win messages: %v", rec.messages)
	}

	ticks := int(cfg.GameEndDelaySec*float64(cfg.TickRateHz)) + 5
	for i := 0; i < ticks; i++ {
		g.ProcessEvents()
	}
	if len(rec.scenes) == 0 || rec.scenes[0] != SceneMenu {
		t.Fatalf("scenes: %v", rec.scenes)
	}
}

func TestStartNewGame_LaysOutMap(t *testing.T) {
	g, rec := newTestGame(t)
	g.SetDifficulty(state.Hard)
	g.StartNewGame()

	s := g.State()
	if s.Difficulty != state.Hard {
		t.Fatalf("difficulty: %s", s.Difficulty)
	}
	if len(s.Turrets) != 6 || len(s.ControlPoints) != 9 || s.EnemyAI == nil {
		t.Fatalf("map: turrets=%d cps=%d ai=%v", len(s.Turrets), len(s.ControlPoints), s.EnemyAI)
	}
	if len(rec.messages) != 1 || rec.messages[0] != "Hold the points!" {
		t.Fatalf("messages: %v", rec.messages)
	}
	seen := map[string]bool{}
	for _, u := range s.Units() {
		if seen[u.ID] {
			t.Fatalf("duplicate id %s", u.ID)
		}
		seen[u.ID] = true
	}
	gm := g.Queries().GameMetrics()
	if gm.PlayerBaseCount != 3 || gm.EnemyBaseCount != 3 {
		t.Fatalf("game metrics: %+v", gm)
	}
}

func TestDeterminism_SameSeedSameDigest(t *testing.T) {
	run := func() []string {
		g, _ := newTestGame(t)
		g.SetDifficulty(state.Hard)
		g.StartNewGame()
		var out []string
		for i := 0; i < 600; i++ {
			if i%45 == 0 {
				_ = g.RequestPurchase(i % 3)
			}
			g.ProcessEventsAndSync()
			if i%50 == 0 {
				out = append(out, StateDigest(g.State()))
			}
		}
		return out
	}
	a, b := run(), run()
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("digest %d differs: %s vs %s", i, a[i], b[i])
		}
	}
	if a[0] == a[len(a)-1] {
		t.Fatalf("state never changed")
	}
}

func TestEnemyAI_BuysSoldiers(t *testing.T) {
	g, _ := newTestGame(t)
	g.SetDifficulty(state.Hard)
	g.StartNewGame()
	for i := 0; i < 150; i++ {
		g.ProcessEventsAndSync()
	}
	enemies := 0
	for _, u := range g.State().Soldiers {
		if u.Side == state.SideEnemy {
			enemies++
			if u.Effectiveness < 0.8 || u.Effectiveness > 1 {
				t.Fatalf("effectiveness: %v", u.Effectiveness)
			}
		}
	}
	if enemies == 0 {
		t.Fatalf("enemy ai bought nothing")
	}
	if g.State().EnemyResources >= 12+5 {
		t.Fatalf("enemy resources never spent: %d", g.State().EnemyResources)
	}
}

func TestRequestPurchase(t *testing.T) {
	g, rec := newTestGame(t)
	g.StartNewGame()

	if err := g.RequestPurchase(7); !errors.Is(err, ErrInvalidLane) {
		t.Fatalf("invalid lane: %v", err)
	}
	if err := g.RequestPurchase(1); err != nil {
		t.Fatalf("purchase: %v", err)
	}
	before := g.State().PlayerResources
	g.ProcessEventsAndSync()
	if got := g.State().PlayerResources; got != before-1 {
		t.Fatalf("resources: %d want %d", got, before-1)
	}
	var found bool
	for _, u := range g.State().Soldiers {
		if u.Side == state.SidePlayer && u.LaneKey == "1" {
			found = true
		}
	}
	if !found {
		t.Fatalf("no player soldier in lane 1")
	}
	if rec.sounds[len(rec.sounds)-1] != events.SoundSpawn {
		t.Fatalf("sounds: %v", rec.sounds)
	}
}

func TestRequestPurchase_Rejections(t *testing.T) {
	g, _ := newTestGame(t)
	s := state.New(state.Easy, 0)
	add(s, state.NewTurret(state.SidePlayer, "0", state.Vec2{X: 180, Y: 130}, 90, 50, 100), "P0")
	add(s, state.NewTurret(state.SideEnemy, "0", state.Vec2{X: 180, Y: 1790}, 270, 50, 100), "E0")
	g.LoadFromState(s)
	if err := g.RequestPurchase(0); !errors.Is(err, ErrNoResources) {
		t.Fatalf("no resources: %v", err)
	}

	s = state.New(state.Easy, 3)
	add(s, state.NewTurret(state.SidePlayer, "0", state.Vec2{X: 180, Y: 130}, 90, 50, 100), "P0")
	add(s, state.NewTurret(state.SideEnemy, "0", state.Vec2{X: 180, Y: 1790}, 270, 50, 100), "E0")
	g.LoadFromState(s)
	if err := g.RequestPurchase(2); !errors.Is(err, ErrBaseDestroyed) {
		t.Fatalf("no base: %v", err)
	}

	s = state.New(state.Easy, 3)
	s.SetWinner(state.SideEnemy)
	g.LoadFromState(s)
	if err := g.RequestPurchase(0); !errors.Is(err, ErrGameOver) {
		t.Fatalf("game over: %v", err)
	}
}

func TestSoldiers_FightInLane(t *testing.T) {
	g, rec := newTestGame(t)
	s := state.New(state.Easy, 12)
	add(s, state.NewSoldier(state.SidePlayer, "1", state.Vec2{X: 540, Y: 800}, 90, 10), "A")
	add(s, state.NewSoldier(state.SideEnemy, "1", state.Vec2{X: 540, Y: 950}, 270, 10), "B")
	g.LoadFromStateAndSync(s)

	for i := 0; i < 60; i++ {
		g.ProcessEventsAndSync()
	}
	var hurt bool
	for _, u := range g.State().Soldiers {
		if u.Health < 10 {
			hurt = true
		}
		if u.TargetID == "" {
			t.Fatalf("soldier %s never locked a target", u.ID)
		}
	}
	if !hurt {
		t.Fatalf("no damage dealt: %+v", g.State().Soldiers)
	}
	var shots int
	for _, s := range rec.sounds {
		if s == events.SoundShoot {
			shots++
		}
	}
	if shots == 0 {
		t.Fatalf("no shots fired")
	}
}

func TestSoldier_DiesAndIsRemoved(t *testing.T) {
	g, rec := newTestGame(t)
	s := state.New(state.Easy, 12)
	add(s, state.NewSoldier(state.SidePlayer, "1", state.Vec2{X: 540, Y: 800}, 90, 10), "A")
	g.LoadFromStateAndSync(s)

	g.SubmitCommand(ApplyDamage("A", 11))
	g.SubmitCommand(ApplyDamage("missing", 11))
	g.ProcessEventsAndSync()
	if len(g.State().Soldiers) != 0 {
		t.Fatalf("dead soldier still present")
	}
	g.ProcessEventsAndSync()
	if rec.sounds[len(rec.sounds)-1] != events.SoundSplat {
		t.Fatalf("sounds: %v", rec.sounds)
	}
}

func TestSoldier_MarchesAndLeavesField(t *testing.T) {
	g, _ := newTestGame(t)
	s := state.New(state.Easy, 12)
	add(s, state.NewSoldier(state.SidePlayer, "0", state.Vec2{X: 180, Y: 1900}, 90, 10), "A")
	g.LoadFromStateAndSync(s)
	for i := 0; i < 120 && len(g.State().Soldiers) > 0; i++ {
		g.ProcessEventsAndSync()
	}
	if len(g.State().Soldiers) != 0 {
		t.Fatalf("soldier should have left the field: %+v", g.State().Soldiers[0].Pos)
	}
}

func TestControlPoint_CaptureAndProduce(t *testing.T) {
	g, rec := newTestGame(t)
	s := state.New(state.Easy, 0)
	add(s, state.NewControlPoint(state.SideNeutral, "0", state.Vec2{X: 180, Y: 960}), "CP")
	add(s, state.NewSoldier(state.SidePlayer, "0", state.Vec2{X: 150, Y: 965}, 0, 10), "A")
	g.LoadFromState(s)

	g.SubmitCommand(MoveTo("A", state.Vec2{X: 150, Y: 965}))
	g.ProcessEventsAndSync()
	if side := g.State().ControlPoints[0].Side; side != state.SidePlayer {
		t.Fatalf("capture: %s", side)
	}
	g.ProcessEventsAndSync()
	if rec.sounds[0] != events.SoundCapture {
		t.Fatalf("sounds: %v", rec.sounds)
	}
	g.ProcessEventsAndSync()
	if got := g.State().PlayerResources; got != 1 {
		t.Fatalf("resources: %d", got)
	}
}

func TestCommands_SetCooldown(t *testing.T) {
	g, _ := newTestGame(t)
	s := state.New(state.Easy, 12)
	add(s, state.NewTurret(state.SidePlayer, "0", state.Vec2{X: 180, Y: 130}, 90, 50, 100), "P0")
	g.LoadFromState(s)
	g.SubmitCommand(SetCooldown("P0", 3, 4))
	g.ProcessEventsAndSync()
	dt := g.Tuning().TickSeconds()
	u := g.State().Turrets[0]
	if math.Abs(u.ShootCooldown-(3-dt)) > 1e-9 || math.Abs(u.ProductionCooldown-(4-dt)) > 1e-9 {
		t.Fatalf("cooldowns: %v %v", u.ShootCooldown, u.ProductionCooldown)
	}
}

func TestLoadFromState_SpawnedIDsStayUnique(t *testing.T) {
	g, _ := newTestGame(t)
	s := state.New(state.Medium, 12)
	m := g.Map()
	add(s, state.NewSoldier(state.SidePlayer, "0", m.SoldierSpawn(0, state.SidePlayer), 90, 10), "U000001")
	add(s, state.NewSoldier(state.SideEnemy, "1", m.SoldierSpawn(1, state.SideEnemy), 270, 10), "U000007")
	g.LoadFromState(s)

	g.PushEvent(events.Purchase(state.SidePlayer, 0))
	g.PushEvent(events.Purchase(state.SidePlayer, 2))
	g.ProcessEvents()

	seen := map[string]int{}
	for _, u := range g.State().Units() {
		seen[u.ID]++
	}
	if len(g.State().Soldiers) != 4 {
		t.Fatalf("soldiers: %d", len(g.State().Soldiers))
	}
	for id, n := range seen {
		if n != 1 {
			t.Fatalf("id %q used %d times: %v", id, n, seen)
		}
	}
	if g.State().NextID < 9 {
		t.Fatalf("next id: %d", g.State().NextID)
	}
}

func TestTurretDie_DoesNotRefreshIndexMidTick(t *testing.T) {
	g, _ := newTestGame(t)
	_, e0, _ := winFixture(g)
	spawnPos := g.Map().SoldierSpawn(0, state.SidePlayer)

	g.PushEvents([]events.Event{
		events.Purchase(state.SidePlayer, 0),
		events.TurretDie(e0, state.Vec2{}, state.SideEnemy),
		events.Explosion(spawnPos, 5, 180, 1, "0", state.SideEnemy),
	})
	g.ProcessEvents()

	if len(g.State().Soldiers) != 1 {
		t.Fatalf("soldiers: %d", len(g.State().Soldiers))
	}
	full := g.Tuning().Soldier.Health
	if u := g.State().Soldiers[0]; u.Health != full {
		t.Fatalf("soldier %s hit by explosion: health=%v want %v", u.ID, u.Health, full)
	}
	if len(g.State().Turrets) != 2 {
		t.Fatalf("turrets: %d", len(g.State().Turrets))
	}
	if w := g.State().Winner; w != state.SideNeutral {
		t.Fatalf("winner: %s", w)
	}
}
