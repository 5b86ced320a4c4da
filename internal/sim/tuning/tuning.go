package tuning

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Tuning struct {
	TickRateHz int   `yaml:"tick_rate_hz"`
	Seed       int64 `yaml:"seed"`

	Lanes             int `yaml:"lanes"`
	StartingResources int `yaml:"starting_resources"`

	Field        Field        `yaml:"field"`
	Soldier      Soldier      `yaml:"soldier"`
	Turret       Turret       `yaml:"turret"`
	ControlPoint ControlPoint `yaml:"control_point"`
	EnemyAI      EnemyAI      `yaml:"enemy_ai"`

	BarrierPadding    float64 `yaml:"barrier_padding"`
	GameEndDelaySec   float64 `yaml:"game_end_delay_sec"`
	PurchaseCost      int     `yaml:"purchase_cost"`
	SnapshotEveryTick int     `yaml:"snapshot_every_ticks"`
}

type Field struct {
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
}

type Soldier struct {
	Radius         float64 `yaml:"radius"`
	MoveSpeed      float64 `yaml:"move_speed"`
	MuzzleLength   float64 `yaml:"muzzle_length"`
	Damage         float64 `yaml:"damage"`
	AttackCooldown float64 `yaml:"attack_cooldown"`
	AttackDistance float64 `yaml:"attack_distance"`
	Health         float64 `yaml:"health"`
	RotateSpeed    float64 `yaml:"rotate_speed"`
}

type Turret struct {
	Damage         float64 `yaml:"damage"`
	SplashDamage   float64 `yaml:"splash_damage"`
	SplashRadius   float64 `yaml:"splash_radius"`
	AttackCooldown float64 `yaml:"attack_cooldown"`
	AttackDistance float64 `yaml:"attack_distance"`
	Health         float64 `yaml:"health"`
	RotateSpeed    float64 `yaml:"rotate_speed"`
	MuzzleLength   float64 `yaml:"muzzle_length"`
}

type ControlPoint struct {
	CaptureDistance    float64 `yaml:"capture_distance"`
	ProductionCooldown float64 `yaml:"production_cooldown"`
}

// EnemyAI tables are indexed by difficulty, easiest first.
type EnemyAI struct {
	SpawnCooldown float64     `yaml:"spawn_cooldown"`
	Cooldowns     []float64   `yaml:"cooldowns"`
	Distributions [][]float64 `yaml:"distributions"`
}

func Defaults() Tuning {
	return Tuning{
		TickRateHz:        30,
		Seed:              1337,
		Lanes:             3,
		StartingResources: 12,
		Field:             Field{Width: 1080, Height: 1920},
		Soldier: Soldier{
			Radius:         32,
			MoveSpeed:      65,
			MuzzleLength:   32 * 1.4,
			Damage:         1,
			AttackCooldown: 0.4,
			AttackDistance: 240,
			Health:         10,
			RotateSpeed:    90,
		},
		Turret: Turret{
			Damage:         5,
			SplashDamage:   5,
			SplashRadius:   180,
			AttackCooldown: 2,
			AttackDistance: 500,
			Health:         50,
			RotateSpeed:    40,
			MuzzleLength:   140,
		},
		ControlPoint: ControlPoint{
			CaptureDistance:    22,
			ProductionCooldown: 6,
		},
		EnemyAI: EnemyAI{
			SpawnCooldown: 3,
			Cooldowns:     []float64{1.0, 0.75, 0.5, 0.3},
			Distributions: [][]float64{
				{0.4, 0.3, 0.3},
				{0.5, 0.3, 0.2},
				{0.6, 0.3, 0.1},
				{0.7, 0.2, 0.1},
			},
		},
		BarrierPadding:    30,
		GameEndDelaySec:   6,
		PurchaseCost:      1,
		SnapshotEveryTick: 1800,
	}
}

// TickSeconds is the simulated time that passes in one tick.
func (t Tuning) TickSeconds() float64 {
	if t.TickRateHz <= 0 {
		return 1.0 / 30.0
	}
	return 1.0 / float64(t.TickRateHz)
}

// Load reads a tuning file on top of Defaults, so partial files are valid.
func Load(path string) (Tuning, error) {
	t := Defaults()
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	if err := t.Validate(); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	return t, nil
}

func (t Tuning) Validate() error {
	if t.Lanes <= 0 {
		return fmt.Errorf("lanes must be positive, got %d", t.Lanes)
	}
	if t.TickRateHz <= 0 {
		return fmt.Errorf("tick_rate_hz must be positive, got %d", t.TickRateHz)
	}
	if t.Field.Width <= 0 || t.Field.Height <= 0 {
		return fmt.Errorf("field must have positive size, got %vx%v", t.Field.Width, t.Field.Height)
	}
	if t.Turret.Health <= 0 {
		return fmt.Errorf("turret.health must be positive")
	}
	if len(t.EnemyAI.Cooldowns) != 4 || len(t.EnemyAI.Distributions) != 4 {
		return fmt.Errorf("enemy_ai tables need one entry per difficulty (4)")
	}
	return nil
}
