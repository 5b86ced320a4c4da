package game

import (
	"lanewars.io/internal/sim/events"
	"lanewars.io/internal/sim/state"
)

type MessageKind uint8

const (
	MessageInfo MessageKind = iota
	MessageWin
	MessageLose
)

func (k MessageKind) String() string {
	switch k {
	case MessageWin:
		return "WIN"
	case MessageLose:
		return "LOSE"
	default:
		return "INFO"
	}
}

// Spawner instantiates the visual side of an object. u is a copy and is nil for cosmetic
// objects.
type Spawner interface {
	RequestSpawn(obj events.ObjectType, u *state.Unit, pos state.Vec2)
}

type SoundPlayer interface {
	PlaySound(s events.SoundKind)
}

type Messenger interface {
	ShowMessage(text string, kind MessageKind)
}

type SceneLoader interface {
	LoadScene(target string)
}

// Collaborators receive fire-and-forget commands from the simulation. Nil fields are no-ops.
type Collaborators struct {
	Spawner   Spawner
	Sounds    SoundPlayer
	Messenger Messenger
	Scenes    SceneLoader
}

const SceneMenu = "menu"

type nop struct{}

func (nop) RequestSpawn(events.ObjectType, *state.Unit, state.Vec2) {}
func (nop) PlaySound(events.SoundKind)                              {}
func (nop) ShowMessage(string, MessageKind)                         {}
func (nop) LoadScene(string)                                        {}

func (c Collaborators) withDefaults() Collaborators {
	if c.Spawner == nil {
		c.Spawner = nop{}
	}
	if c.Sounds == nil {
		c.Sounds = nop{}
	}
	if c.Messenger == nil {
		c.Messenger = nop{}
	}
	if c.Scenes == nil {
		c.Scenes = nop{}
	}
	return c
}
