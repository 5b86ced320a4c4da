package state

// Unit is the shared record for soldiers, turrets and control points. Type selects the
// variant; control points leave the combat fields at zero.
type Unit struct {
	ID      string   `json:"id"`
	Type    UnitType `json:"type"`
	Pos     Vec2     `json:"pos"`
	Angle   float64  `json:"angle"`
	LaneKey string   `json:"lane_key"`
	Side    Side     `json:"side"`

	Health             float64 `json:"health"`
	ShootCooldown      float64 `json:"shoot_cooldown"`
	ProductionCooldown float64 `json:"production_cooldown"`
	TargetID           string  `json:"target_id,omitempty"`

	// Effectiveness scales a soldier's speed and fire rate (0.8..1.0). Zero means 1.
	Effectiveness float64 `json:"effectiveness,omitempty"`
}

func NewSoldier(side Side, laneKey string, pos Vec2, angle, health float64) *Unit {
	return &Unit{
		Type:    UnitSoldier,
		Side:    side,
		LaneKey: laneKey,
		Pos:     pos,
		Angle:   angle,
		Health:  health,
	}
}

func NewTurret(side Side, laneKey string, pos Vec2, angle, health, productionCooldown float64) *Unit {
	return &Unit{
		Type:               UnitTurret,
		Side:               side,
		LaneKey:            laneKey,
		Pos:                pos,
		Angle:              angle,
		Health:             health,
		ProductionCooldown: productionCooldown,
	}
}

func NewControlPoint(side Side, laneKey string, pos Vec2) *Unit {
	return &Unit{
		Type:    UnitControlPoint,
		Side:    side,
		LaneKey: laneKey,
		Pos:     pos,
	}
}

func (u *Unit) Efficiency() float64 {
	if u.Effectiveness <= 0 {
		return 1
	}
	return u.Effectiveness
}

// Clone copies u; Unit holds no reference fields, so a value copy is deep.
func (u *Unit) Clone() *Unit {
	if u == nil {
		return nil
	}
	c := *u
	return &c
}
