package domain

import "sort"

// Grid is the bounded board the agent walks on.
type Grid struct {
	Width     int
	Height    int
	obstacles map[Position]bool
	marks     map[string]map[Position]bool
}

// NewGrid creates an empty grid.
func NewGrid(width, height int) *Grid {
	return &Grid{
		Width:     width,
		Height:    height,
		obstacles: make(map[Position]bool),
		marks:     make(map[string]map[Position]bool),
	}
}

// Block marks cells as occupied.
func (g *Grid) Block(cells ...Position) *Grid {
	for _, c := range cells {
		g.obstacles[c] = true
	}
	return g
}

// Mark tags cells with a name (e.g. "coin") that condition tests can query.
func (g *Grid) Mark(name string, cells ...Position) *Grid {
	set, ok := g.marks[name]
	if !ok {
		set = make(map[Position]bool)
		g.marks[name] = set
	}
	for _, c := range cells {
		set[c] = true
	}
	return g
}

// InBounds reports whether the cell lies inside the grid.
func (g *Grid) InBounds(p Position) bool {
	return p.X >= 0 && p.Y >= 0 && p.X < g.Width && p.Y < g.Height
}

// Blocked reports whether the cell holds an obstacle.
func (g *Grid) Blocked(p Position) bool {
	return g.obstacles[p]
}

// CanMoveTo is the occupancy and bounds check applied to moves.
func (g *Grid) CanMoveTo(p Position) bool {
	return g.InBounds(p) && !g.Blocked(p)
}

// HasMark reports whether the cell carries the named mark.
func (g *Grid) HasMark(name string, p Position) bool {
	return g.marks[name][p]
}

// MarkNames returns the names of every mark defined on the grid.
func (g *Grid) MarkNames() []string {
	names := make([]string, 0, len(g.marks))
	for name := range g.marks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
