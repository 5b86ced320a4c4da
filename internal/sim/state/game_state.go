package state

import "fmt"

const DefaultSpawnCooldown = 3.0

// EnemyAIState is the opponent controller's own state.
type EnemyAIState struct {
	SpawnCooldown float64 `json:"spawn_cooldown"`
}

func NewEnemyAIState() *EnemyAIState {
	return &EnemyAIState{SpawnCooldown: DefaultSpawnCooldown}
}

// GameState is the whole simulated world. Units are held by pointer so lookups built over the
// state stay valid while lists grow during a tick.
type GameState struct {
	Soldiers      []*Unit       `json:"soldiers"`
	ControlPoints []*Unit       `json:"control_points"`
	Turrets       []*Unit       `json:"turrets"`
	EnemyAI       *EnemyAIState `json:"enemy_ai,omitempty"`

	Winner     Side       `json:"winner"`
	Difficulty Difficulty `json:"difficulty"`

	PlayerResources int `json:"player_resources"`
	EnemyResources  int `json:"enemy_resources"`

	Tick   uint64 `json:"tick"`
	NextID uint64 `json:"next_id"`
}

func New(d Difficulty, startingResources int) *GameState {
	return &GameState{
		Difficulty:      d,
		Winner:          SideNeutral,
		PlayerResources: startingResources,
		EnemyResources:  startingResources,
	}
}

// SetWinner records the first decided winner and ignores every later call.
func (s *GameState) SetWinner(side Side) bool {
	if s.Winner != SideNeutral || side == SideNeutral {
		return false
	}
	s.Winner = side
	return true
}

// NewID hands out the next provisional unit id.
func (s *GameState) NewID() string {
	s.NextID++
	return fmt.Sprintf("U%06d", s.NextID)
}

// SyncNextID raises NextID past every id of the form NewID produces.
func (s *GameState) SyncNextID() {
	for _, u := range s.Units() {
		var n uint64
		if _, err := fmt.Sscanf(u.ID, "U%d", &n); err == nil && n > s.NextID {
			s.NextID = n
		}
	}
}

// HasBase reports whether side still owns a turret.
func (s *GameState) HasBase(side Side) bool {
	for _, t := range s.Turrets {
		if t.Side == side {
			return true
		}
	}
	return false
}

// Resources returns a pointer to the side's purse, or nil for Neutral.
func (s *GameState) Resources(side Side) *int {
	switch side {
	case SidePlayer:
		return &s.PlayerResources
	case SideEnemy:
		return &s.EnemyResources
	}
	return nil
}

// Add appends u to the list owned by its type.
func (s *GameState) Add(u *Unit) {
	switch u.Type {
	case UnitSoldier:
		s.Soldiers = append(s.Soldiers, u)
	case UnitControlPoint:
		s.ControlPoints = append(s.ControlPoints, u)
	case UnitTurret:
		s.Turrets = append(s.Turrets, u)
	}
}

// RemoveUnit drops the unit with the given id, preserving the order of the rest.
func (s *GameState) RemoveUnit(id string) bool {
	for _, list := range []*[]*Unit{&s.Soldiers, &s.ControlPoints, &s.Turrets} {
		for i, u := range *list {
			if u.ID == id {
				*list = append((*list)[:i], (*list)[i+1:]...)
				return true
			}
		}
	}
	return false
}

// Units returns every unit in bucket order: soldiers, control points, turrets.
func (s *GameState) Units() []*Unit {
	out := make([]*Unit, 0, len(s.Soldiers)+len(s.ControlPoints)+len(s.Turrets))
	out = append(out, s.Soldiers...)
	out = append(out, s.ControlPoints...)
	out = append(out, s.Turrets...)
	return out
}

// Clone returns a fully independent copy.
func (s *GameState) Clone() *GameState {
	if s == nil {
		return nil
	}
	c := &GameState{
		Soldiers:        cloneUnits(s.Soldiers),
		ControlPoints:   cloneUnits(s.ControlPoints),
		Turrets:         cloneUnits(s.Turrets),
		Winner:          s.Winner,
		Difficulty:      s.Difficulty,
		PlayerResources: s.PlayerResources,
		EnemyResources:  s.EnemyResources,
		Tick:            s.Tick,
		NextID:          s.NextID,
	}
	if s.EnemyAI != nil {
		ai := *s.EnemyAI
		c.EnemyAI = &ai
	}
	return c
}

func cloneUnits(in []*Unit) []*Unit {
	if in == nil {
		return nil
	}
	out := make([]*Unit, len(in))
	for i, u := range in {
		out[i] = u.Clone()
	}
	return out
}
