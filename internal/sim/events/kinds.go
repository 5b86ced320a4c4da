package events

// ObjectType names everything the factory can be asked to instantiate.
type ObjectType uint8

const (
	ObjectMapBarrier ObjectType = iota + 1

	ObjectUnitSoldier
	ObjectUnitControlPoint
	ObjectUnitTurret

	ObjectDecalBlood
	ObjectDecalBullet
	ObjectDecalExplosion

	ObjectParticleBlood
	ObjectParticleExplosionSmoke
	ObjectParticleExplosionFire
	ObjectParticleBulletImpact
	ObjectParticleSpawn
	ObjectParticleResource

	ObjectLightMuzzle
	ObjectLightTurretMuzzle
	ObjectLightExplosion

	ObjectEnemyAI
)

var objectNames = map[ObjectType]string{
	ObjectMapBarrier:             "MAP_BARRIER",
	ObjectUnitSoldier:            "UNIT_SOLDIER",
	ObjectUnitControlPoint:       "UNIT_CONTROL_POINT",
	ObjectUnitTurret:             "UNIT_TURRET",
	ObjectDecalBlood:             "DECAL_BLOOD",
	ObjectDecalBullet:            "DECAL_BULLET",
	ObjectDecalExplosion:         "DECAL_EXPLOSION",
	ObjectParticleBlood:          "PARTICLE_BLOOD",
	ObjectParticleExplosionSmoke: "PARTICLE_EXPLOSION_SMOKE",
	ObjectParticleExplosionFire:  "PARTICLE_EXPLOSION_FIRE",
	ObjectParticleBulletImpact:   "PARTICLE_BULLET_IMPACT",
	ObjectParticleSpawn:          "PARTICLE_SPAWN",
	ObjectParticleResource:       "PARTICLE_RESOURCE",
	ObjectLightMuzzle:            "LIGHT_MUZZLE",
	ObjectLightTurretMuzzle:      "LIGHT_TURRET_MUZZLE",
	ObjectLightExplosion:         "LIGHT_EXPLOSION",
	ObjectEnemyAI:                "ENEMY_AI",
}

func (o ObjectType) String() string {
	if n, ok := objectNames[o]; ok {
		return n
	}
	return "UNKNOWN"
}

func (o ObjectType) MarshalText() ([]byte, error) { return []byte(o.String()), nil }

// IsUnit reports whether the object carries simulation state.
func (o ObjectType) IsUnit() bool {
	return o == ObjectUnitSoldier || o == ObjectUnitControlPoint || o == ObjectUnitTurret
}

type SoundKind uint8

const (
	SoundShoot SoundKind = iota + 1
	SoundSplat
	SoundVictory
	SoundDefeat
	SoundCapture
	SoundLoseCapture
	SoundGainResource
	SoundSpawn
	SoundPurchaseUpgrade
	SoundTurretShoot
)

var soundNames = map[SoundKind]string{
	SoundShoot:           "SHOOT",
	SoundSplat:           "SPLAT",
	SoundVictory:         "VICTORY",
	SoundDefeat:          "DEFEAT",
	SoundCapture:         "CAPTURE",
	SoundLoseCapture:     "LOSE_CAPTURE",
	SoundGainResource:    "GAIN_RESOURCE",
	SoundSpawn:           "SPAWN",
	SoundPurchaseUpgrade: "PURCHASE_UPGRADE",
	SoundTurretShoot:     "TURRET_SHOOT",
}

func (s SoundKind) String() string {
	if n, ok := soundNames[s]; ok {
		return n
	}
	return "UNKNOWN"
}

func (s SoundKind) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// AllSounds lists every sound kind in declaration order.
func AllSounds() []SoundKind {
	out := make([]SoundKind, 0, len(soundNames))
	for k := SoundShoot; k <= SoundTurretShoot; k++ {
		out = append(out, k)
	}
	return out
}
