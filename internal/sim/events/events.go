// Package events defines the closed set of gameplay events the processor fires.
package events

import "lanewars.io/internal/sim/state"

type Kind uint8

const (
	KindPlaySound Kind = iota + 1
	KindGameStart
	KindCheckGameEnd
	KindSoldierAttack
	KindTurretAttack
	KindExplosion
	KindSoldierDie
	KindTurretDie
	KindProduceResource
	KindPurchase
	KindSpawn
)

var kindNames = map[Kind]string{
	KindPlaySound:       "PLAY_SOUND",
	KindGameStart:       "GAME_START",
	KindCheckGameEnd:    "CHECK_GAME_END",
	KindSoldierAttack:   "SOLDIER_ATTACK",
	KindTurretAttack:    "TURRET_ATTACK",
	KindExplosion:       "EXPLOSION",
	KindSoldierDie:      "SOLDIER_DIE",
	KindTurretDie:       "TURRET_DIE",
	KindProduceResource: "PRODUCE_RESOURCE",
	KindPurchase:        "PURCHASE",
	KindSpawn:           "SPAWN",
}

func (k Kind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return "UNKNOWN"
}

func (k Kind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// Event is a tagged record; Kind decides which payload fields are meaningful.
type Event struct {
	Kind      Kind    `json:"kind"`
	SourceID  string  `json:"source_id,omitempty"`
	FireDelay float64 `json:"fire_delay,omitempty"`

	TargetID string  `json:"target_id,omitempty"`
	Damage   float64 `json:"damage,omitempty"`

	Pos     state.Vec2 `json:"pos"`
	Angle   float64    `json:"angle,omitempty"`
	Radius  float64    `json:"radius,omitempty"`
	Scale   float64    `json:"scale,omitempty"`
	LaneKey string     `json:"lane_key,omitempty"`
	Lane    int        `json:"lane,omitempty"`
	Side    state.Side `json:"side"`

	Sound  SoundKind  `json:"sound,omitempty"`
	Object ObjectType `json:"object,omitempty"`
}

// Delayed returns a copy of e that becomes due after d seconds.
func (e Event) Delayed(d float64) Event {
	e.FireDelay = d
	return e
}

func PlaySound(s SoundKind) Event { return Event{Kind: KindPlaySound, Sound: s} }

func GameStart() Event { return Event{Kind: KindGameStart} }

func CheckGameEnd(delay float64) Event { return Event{Kind: KindCheckGameEnd, FireDelay: delay} }

func SoldierAttack(sourceID, targetID string, damage float64) Event {
	return Event{Kind: KindSoldierAttack, SourceID: sourceID, TargetID: targetID, Damage: damage}
}

func TurretAttack(sourceID, targetID string, damage float64) Event {
	return Event{Kind: KindTurretAttack, SourceID: sourceID, TargetID: targetID, Damage: damage}
}

// Explosion damages every unit not on side within radius of pos, falling off linearly.
func Explosion(pos state.Vec2, damage, radius, scale float64, laneKey string, side state.Side) Event {
	return Event{
		Kind:    KindExplosion,
		Pos:     pos,
		Damage:  damage,
		Radius:  radius,
		Scale:   scale,
		LaneKey: laneKey,
		Side:    side,
	}
}

func SoldierDie(sourceID string, pos state.Vec2) Event {
	return Event{Kind: KindSoldierDie, SourceID: sourceID, Pos: pos}
}

// TurretDie carries the turret's last position and side; the turret itself is already gone
// from the world when this fires.
func TurretDie(sourceID string, pos state.Vec2, side state.Side) Event {
	return Event{Kind: KindTurretDie, SourceID: sourceID, Pos: pos, Side: side}
}

func ProduceResource(sourceID string) Event {
	return Event{Kind: KindProduceResource, SourceID: sourceID}
}

func Purchase(side state.Side, lane int) Event {
	return Event{Kind: KindPurchase, Side: side, Lane: lane}
}

// Spawn requests a cosmetic object with no simulation state.
func Spawn(pos state.Vec2, obj ObjectType) Event {
	return Event{Kind: KindSpawn, Pos: pos, Object: obj}
}

// SpawnUnit requests an object that belongs to a side and lane.
func SpawnUnit(pos state.Vec2, angle float64, side state.Side, laneKey string, obj ObjectType) Event {
	return Event{Kind: KindSpawn, Pos: pos, Angle: angle, Side: side, LaneKey: laneKey, Object: obj}
}
