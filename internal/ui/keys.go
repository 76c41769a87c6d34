package ui

// ActionKind is what a key press asks for
type ActionKind int

const (
	ActionNone ActionKind = iota
	ActionQuit
	ActionSelectBead
	ActionChangePattern
)

// Action is a decoded key press
type Action struct {
	Kind ActionKind
	Bead int // 0-based, for ActionSelectBead
}

const keyEscape = 27

// MapKey decodes a WaitKey result. Digits 1-9 select beads, 'c' changes
// the path pattern and 'q' or Escape quits.
func MapKey(key int) Action {
	if key < 0 {
		return Action{}
	}
	key &= 0xff
	switch {
	case key == 'q' || key == 'Q' || key == keyEscape:
		return Action{Kind: ActionQuit}
	case key == 'c' || key == 'C':
		return Action{Kind: ActionChangePattern}
	case key >= '1' && key <= '9':
		return Action{Kind: ActionSelectBead, Bead: key - '1'}
	default:
		return Action{}
	}
}
