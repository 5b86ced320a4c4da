package game

import (
	"fmt"

	"lanewars.io/internal/sim/state"
)

type CommandKind uint8

const (
	CommandMoveTo CommandKind = iota + 1
	CommandApplyDamage
	CommandSetCooldown
)

func (k CommandKind) String() string {
	switch k {
	case CommandMoveTo:
		return "MOVE_TO"
	case CommandApplyDamage:
		return "APPLY_DAMAGE"
	case CommandSetCooldown:
		return "SET_COOLDOWN"
	default:
		return "UNKNOWN"
	}
}

func (k CommandKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

func (k *CommandKind) UnmarshalText(b []byte) error {
	for c := CommandMoveTo; c <= CommandSetCooldown; c++ {
		if c.String() == string(b) {
			*k = c
			return nil
		}
	}
	return fmt.Errorf("unknown command kind %q", string(b))
}

// Command is a one-way request from outside the simulation to change a unit. Commands are
// applied in submission order at the start of the next synced tick.
type Command struct {
	Kind   CommandKind `json:"kind"`
	UnitID string      `json:"unit_id"`

	Pos                state.Vec2 `json:"pos"`
	Damage             float64    `json:"damage,omitempty"`
	ShootCooldown      float64    `json:"shoot_cooldown,omitempty"`
	ProductionCooldown float64    `json:"production_cooldown,omitempty"`
}

// MoveTo places a unit at pos; physics still separates and clamps it afterwards.
func MoveTo(unitID string, pos state.Vec2) Command {
	return Command{Kind: CommandMoveTo, UnitID: unitID, Pos: pos}
}

func ApplyDamage(unitID string, damage float64) Command {
	return Command{Kind: CommandApplyDamage, UnitID: unitID, Damage: damage}
}

func SetCooldown(unitID string, shoot, production float64) Command {
	return Command{Kind: CommandSetCooldown, UnitID: unitID, ShootCooldown: shoot, ProductionCooldown: production}
}

func (g *Game) SubmitCommand(c Command) { g.commands = append(g.commands, c) }

func (g *Game) applyCommands() {
	cmds := g.commands
	g.commands = nil
	for _, c := range cmds {
		u := g.privIx.UnitByID(c.UnitID)
		if u == nil {
			g.log.Printf("command %s: unit %q not found", c.Kind, c.UnitID)
			continue
		}
		switch c.Kind {
		case CommandMoveTo:
			u.Pos = c.Pos
		case CommandApplyDamage:
			u.Health -= c.Damage
		case CommandSetCooldown:
			u.ShootCooldown = c.ShootCooldown
			u.ProductionCooldown = c.ProductionCooldown
		default:
			g.log.Printf("command kind %d not handled", uint8(c.Kind))
		}
	}
}
