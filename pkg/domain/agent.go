package domain

import "fmt"

// Facing is the direction the agent looks at.
type Facing string

const (
	FacingUp    Facing = "up"
	FacingDown  Facing = "down"
	FacingLeft  Facing = "left"
	FacingRight Facing = "right"
)

// ParseFacing validates a facing name.
func ParseFacing(name string) (Facing, error) {
	switch f := Facing(name); f {
	case FacingUp, FacingDown, FacingLeft, FacingRight:
		return f, nil
	}
	return "", fmt.Errorf("unknown facing %q", name)
}

// Right returns the facing after a clockwise quarter turn.
func (f Facing) Right() Facing {
	switch f {
	case FacingUp:
		return FacingRight
	case FacingRight:
		return FacingDown
	case FacingDown:
		return FacingLeft
	case FacingLeft:
		return FacingUp
	}
	return f
}

// Left returns the facing after a counter-clockwise quarter turn.
func (f Facing) Left() Facing {
	switch f {
	case FacingUp:
		return FacingLeft
	case FacingLeft:
		return FacingDown
	case FacingDown:
		return FacingRight
	case FacingRight:
		return FacingUp
	}
	return f
}

// Delta returns the unit step for moving forward. Y grows downwards.
func (f Facing) Delta() (dx, dy int) {
	switch f {
	case FacingUp:
		return 0, -1
	case FacingDown:
		return 0, 1
	case FacingLeft:
		return -1, 0
	case FacingRight:
		return 1, 0
	}
	return 0, 0
}

// Position is a cell on the grid.
type Position struct {
	X int `json:"x" yaml:"x" mapstructure:"x"`
	Y int `json:"y" yaml:"y" mapstructure:"y"`
}

func (p Position) String() string { return fmt.Sprintf("(%d,%d)", p.X, p.Y) }

// Agent is the walker driven by a program.
type Agent struct {
	Position Position `json:"position"`
	Facing   Facing   `json:"facing"`
}

// NewAgent creates an agent at the given cell.
func NewAgent(x, y int, facing Facing) *Agent {
	return &Agent{Position: Position{X: x, Y: y}, Facing: facing}
}

// Ahead returns the cell the agent would reach by moving forward.
func (a Agent) Ahead() Position {
	dx, dy := a.Facing.Delta()
	return Position{X: a.Position.X + dx, Y: a.Position.Y + dy}
}

// Plan computes the position and facing produced by an instruction kind,
// without checking the grid.
func (a Agent) Plan(kind Kind) (Position, Facing) {
	pos, facing := a.Position, a.Facing
	dx, dy := facing.Delta()
	switch kind {
	case KindMoveForward:
		pos = Position{X: pos.X + dx, Y: pos.Y + dy}
	case KindMoveBack:
		pos = Position{X: pos.X - dx, Y: pos.Y - dy}
	case KindTurnLeft:
		facing = facing.Left()
	case KindTurnRight:
		facing = facing.Right()
	}
	return pos, facing
}
