package hud

import "github.com/gdamore/tcell/v2"

type Action struct {
	Quit     bool
	Purchase bool
	Lane     int
}

// KeyAction maps a key press to a HUD action. Digits 1..9 buy a soldier in that lane.
func KeyAction(key tcell.Key, r rune, lanes int) Action {
	switch key {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return Action{Quit: true}
	case tcell.KeyRune:
		switch {
		case r == 'q' || r == 'Q':
			return Action{Quit: true}
		case r >= '1' && r <= '9' && int(r-'1') < lanes:
			return Action{Purchase: true, Lane: int(r - '1')}
		}
	}
	return Action{}
}

func EventAction(ev *tcell.EventKey, lanes int) Action {
	return KeyAction(ev.Key(), ev.Rune(), lanes)
}
