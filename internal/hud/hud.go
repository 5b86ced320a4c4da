package hud

import (
	"fmt"
	"sync"

	"github.com/gdamore/tcell/v2"

	"lanewars.io/internal/sim/game"
	"lanewars.io/internal/sim/state"
	"lanewars.io/internal/sim/tuning"
)

const (
	glyphPlayerSoldier = 'p'
	glyphEnemySoldier  = 'e'
	glyphTurret        = '#'
	glyphControlPoint  = 'O'
	glyphBarrier       = '|'
)

var (
	styleDefault = tcell.StyleDefault
	stylePlayer  = tcell.StyleDefault.Foreground(tcell.ColorGreen)
	styleEnemy   = tcell.StyleDefault.Foreground(tcell.ColorRed)
	styleNeutral = tcell.StyleDefault.Foreground(tcell.ColorWhite)
	styleDim     = tcell.StyleDefault.Foreground(tcell.ColorGray)
	styleWin     = tcell.StyleDefault.Foreground(tcell.ColorYellow).Bold(true)
)

func sideStyle(s state.Side) tcell.Style {
	switch s {
	case state.SidePlayer:
		return stylePlayer
	case state.SideEnemy:
		return styleEnemy
	default:
		return styleNeutral
	}
}

// HUD draws published frames to a terminal screen. It also serves as the Messenger and
// SceneLoader collaborator, so its message state is guarded for calls from the sim goroutine.
type HUD struct {
	screen tcell.Screen
	cfg    tuning.Tuning

	mu      sync.Mutex
	message string
	msgKind game.MessageKind
	scene   string
}

func New(screen tcell.Screen, cfg tuning.Tuning) *HUD {
	return &HUD{screen: screen, cfg: cfg}
}

func (h *HUD) ShowMessage(text string, kind game.MessageKind) {
	h.mu.Lock()
	h.message = text
	h.msgKind = kind
	h.mu.Unlock()
}

func (h *HUD) LoadScene(target string) {
	h.mu.Lock()
	h.scene = target
	h.mu.Unlock()
}

// Scene is the last scene requested by the simulation, or "" while the match runs.
func (h *HUD) Scene() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.scene
}

func (h *HUD) Message() (string, game.MessageKind) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.message, h.msgKind
}

// Draw renders f: a status line, the lanes as columns with the player at the bottom, and
// per-lane metrics under the field.
func (h *HUD) Draw(f game.Frame) {
	h.mu.Lock()
	msg, kind, scene := h.message, h.msgKind, h.scene
	h.mu.Unlock()

	h.screen.Clear()
	w, ht := h.screen.Size()
	if w < 10 || ht < 8 || f.State == nil {
		h.screen.Show()
		return
	}
	s := f.State

	status := fmt.Sprintf("tick %d  money %d  enemy %d  %s", f.Tick, s.PlayerResources, s.EnemyResources, s.Difficulty)
	if s.Winner != state.SideNeutral {
		status += "  winner " + s.Winner.String()
	}
	h.putString(0, 0, status, styleDefault)

	lanes := h.cfg.Lanes
	top, bottom := 1, ht-5
	rows := bottom - top
	colW := w / lanes
	for lane := 1; lane < lanes; lane++ {
		for y := top; y < bottom; y++ {
			h.screen.SetContent(lane*colW-1, y, glyphBarrier, nil, styleDim)
		}
	}

	cell := func(p state.Vec2) (int, int) {
		x := int(p.X / h.cfg.Field.Width * float64(colW*lanes))
		y := top + int((h.cfg.Field.Height-p.Y)/h.cfg.Field.Height*float64(rows))
		return clamp(x, 0, colW*lanes-1), clamp(y, top, bottom-1)
	}
	for _, u := range s.ControlPoints {
		x, y := cell(u.Pos)
		h.screen.SetContent(x, y, glyphControlPoint, nil, sideStyle(u.Side))
	}
	for _, u := range s.Turrets {
		x, y := cell(u.Pos)
		h.screen.SetContent(x, y, glyphTurret, nil, sideStyle(u.Side))
	}
	for _, u := range s.Soldiers {
		x, y := cell(u.Pos)
		g := glyphPlayerSoldier
		if u.Side == state.SideEnemy {
			g = glyphEnemySoldier
		}
		h.screen.SetContent(x, y, g, nil, sideStyle(u.Side))
	}

	for lane, m := range f.Lanes {
		x := lane * colW
		h.putString(x, bottom, fmt.Sprintf("[%d] P%d E%d", lane+1, m.PlayerUnits, m.EnemyUnits), styleDefault)
		h.putString(x, bottom+1, fmt.Sprintf("pts %d/%d/%d", m.PlayerControlledPoints, m.UncontrolledPoints, m.EnemyControlledPoints), styleDefault)
		h.putString(x, bottom+2, fmt.Sprintf("base %3.0f%% %3.0f%%", m.PlayerBaseHealthPercentage*100, m.EnemyBaseHealthPercentage*100), styleDefault)
	}

	line := "1-" + fmt.Sprint(lanes) + " buy soldier  q quit"
	if scene == game.SceneMenu {
		line = "game over  q quit"
	}
	if msg != "" {
		st := styleDefault
		if kind != game.MessageInfo {
			st = styleWin
		}
		h.putString(0, ht-2, msg, st)
	}
	h.putString(0, ht-1, line, styleDim)
	h.screen.Show()
}

func (h *HUD) putString(x, y int, s string, st tcell.Style) {
	for i, r := range []rune(s) {
		h.screen.SetContent(x+i, y, r, nil, st)
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
