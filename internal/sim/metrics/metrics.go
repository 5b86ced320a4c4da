// Package metrics scores lanes and the whole match for the opponent and the HUD.
package metrics

import "lanewars.io/internal/sim/state"

// LaneMetrics aggregates one lane. Base health fractions are 0 when the lane has no turret
// for that side.
type LaneMetrics struct {
	UncontrolledPoints     int `json:"uncontrolled_points"`
	EnemyControlledPoints  int `json:"enemy_controlled_points"`
	PlayerControlledPoints int `json:"player_controlled_points"`
	PlayerUnits            int `json:"player_units"`
	EnemyUnits             int `json:"enemy_units"`

	EnemyBaseHealthPercentage  float64 `json:"enemy_base_health"`
	PlayerBaseHealthPercentage float64 `json:"player_base_health"`
}

// Accumulate visits each unit of a lane once.
func Accumulate(units []*state.Unit, maxTurretHealth float64) LaneMetrics {
	var m LaneMetrics
	for _, u := range units {
		switch u.Type {
		case state.UnitControlPoint:
			switch u.Side {
			case state.SideEnemy:
				m.EnemyControlledPoints++
			case state.SidePlayer:
				m.PlayerControlledPoints++
			default:
				m.UncontrolledPoints++
			}
		case state.UnitSoldier:
			switch u.Side {
			case state.SideEnemy:
				m.EnemyUnits++
			case state.SidePlayer:
				m.PlayerUnits++
			}
		case state.UnitTurret:
			v := state.Clamp01(u.Health / maxTurretHealth)
			if u.Side == state.SidePlayer {
				m.PlayerBaseHealthPercentage = v
			} else {
				m.EnemyBaseHealthPercentage = v
			}
		}
	}
	return m
}

func (m LaneMetrics) TotalPoints() int {
	return m.EnemyControlledPoints + m.PlayerControlledPoints + m.UncontrolledPoints
}

// EconomyValue is the share of the lane's points the player holds, counting neutral points
// as half. A lane without control points is worth 0.
func (m LaneMetrics) EconomyValue() float64 {
	total := m.TotalPoints()
	if total == 0 {
		return 0
	}
	c := 1 / float64(total)
	return float64(m.PlayerControlledPoints)*c + float64(m.UncontrolledPoints)*c*0.5
}

// MilitaryValue is high when the enemy is outnumbered relative to a 10% margin over the player.
func (m LaneMetrics) MilitaryValue() float64 {
	desired := float64(m.PlayerUnits) * 1.1
	enemy := float64(m.EnemyUnits)
	if enemy >= desired {
		if m.EnemyUnits > 0 {
			return 0
		}
		return 0.1
	}
	return state.Clamp01(1 - enemy/desired)
}

// ObjectiveValue rewards pushing a damaged player base; a destroyed base is worth nothing.
func (m LaneMetrics) ObjectiveValue() float64 {
	h := m.PlayerBaseHealthPercentage
	if h >= 1 {
		return 0.5
	}
	if h > 0 {
		return state.Clamp01(0.5 + (1-h)*0.5)
	}
	return 0
}

// TargetValue is the composite desirability of attacking down this lane.
func (m LaneMetrics) TargetValue() float64 {
	return m.EconomyValue() + m.MilitaryValue() + m.ObjectiveValue()
}

type GameMetrics struct {
	PlayerHasBase   bool `json:"player_has_base"`
	EnemyHasBase    bool `json:"enemy_has_base"`
	PlayerBaseCount int  `json:"player_base_count"`
	EnemyBaseCount  int  `json:"enemy_base_count"`
	PlayerIncome    int  `json:"player_income"`
	EnemyIncome     int  `json:"enemy_income"`
}

// Summarize folds lane metrics into global counts. Income is points held plus live bases.
func Summarize(lanes []LaneMetrics) GameMetrics {
	var g GameMetrics
	var playerPoints, enemyPoints int
	for _, m := range lanes {
		if m.PlayerBaseHealthPercentage > 0 {
			g.PlayerBaseCount++
		}
		if m.EnemyBaseHealthPercentage > 0 {
			g.EnemyBaseCount++
		}
		playerPoints += m.PlayerControlledPoints
		enemyPoints += m.EnemyControlledPoints
	}
	g.PlayerIncome = playerPoints + g.PlayerBaseCount
	g.EnemyIncome = enemyPoints + g.EnemyBaseCount
	g.PlayerHasBase = g.PlayerBaseCount > 0
	g.EnemyHasBase = g.EnemyBaseCount > 0
	return g
}
