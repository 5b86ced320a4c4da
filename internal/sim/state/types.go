package state

import (
	"fmt"
	"strconv"
)

type Side uint8

const (
	SideNeutral Side = iota
	SidePlayer
	SideEnemy
)

func (s Side) String() string {
	switch s {
	case SidePlayer:
		return "PLAYER"
	case SideEnemy:
		return "ENEMY"
	default:
		return "NEUTRAL"
	}
}

// Opponent returns the opposing faction; Neutral has none.
func (s Side) Opponent() Side {
	switch s {
	case SidePlayer:
		return SideEnemy
	case SideEnemy:
		return SidePlayer
	default:
		return SideNeutral
	}
}

func (s Side) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *Side) UnmarshalText(b []byte) error {
	switch string(b) {
	case "PLAYER":
		*s = SidePlayer
	case "ENEMY":
		*s = SideEnemy
	case "NEUTRAL", "":
		*s = SideNeutral
	default:
		return fmt.Errorf("unknown side %q", string(b))
	}
	return nil
}

type Difficulty uint8

const (
	VeryEasy Difficulty = iota
	Easy
	Medium
	Hard
)

var difficultyNames = [...]string{"VERY_EASY", "EASY", "MEDIUM", "HARD"}

func (d Difficulty) String() string {
	if int(d) < len(difficultyNames) {
		return difficultyNames[d]
	}
	return "HARD"
}

// Index clamps to the last tier so tables indexed by difficulty never go out of range.
func (d Difficulty) Index() int {
	if int(d) >= len(difficultyNames) {
		return len(difficultyNames) - 1
	}
	return int(d)
}

func (d Difficulty) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

func (d *Difficulty) UnmarshalText(b []byte) error {
	for i, n := range difficultyNames {
		if n == string(b) {
			*d = Difficulty(i)
			return nil
		}
	}
	return fmt.Errorf("unknown difficulty %q", string(b))
}

func ParseDifficulty(s string) (Difficulty, error) {
	var d Difficulty
	err := d.UnmarshalText([]byte(s))
	return d, err
}

// UnitType tags the variant of a Unit.
type UnitType uint8

const (
	UnitSoldier UnitType = iota
	UnitControlPoint
	UnitTurret
)

func (t UnitType) String() string {
	switch t {
	case UnitSoldier:
		return "SOLDIER"
	case UnitControlPoint:
		return "CONTROL_POINT"
	case UnitTurret:
		return "TURRET"
	default:
		return "UNKNOWN"
	}
}

func (t UnitType) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

func (t *UnitType) UnmarshalText(b []byte) error {
	switch string(b) {
	case "SOLDIER":
		*t = UnitSoldier
	case "CONTROL_POINT":
		*t = UnitControlPoint
	case "TURRET":
		*t = UnitTurret
	default:
		return fmt.Errorf("unknown unit type %q", string(b))
	}
	return nil
}

// LaneKey returns the bucket key for a lane index.
func LaneKey(i int) string { return strconv.Itoa(i) }

// LaneIndex parses a lane key. Keys are produced by LaneKey, so a parse error is a bug.
func LaneIndex(key string) int {
	i, err := strconv.Atoi(key)
	if err != nil {
		panic(fmt.Sprintf("bad lane key %q", key))
	}
	return i
}
