package tui

import (
	"strings"

	"github.com/aretw0/mazecode/pkg/domain"
)

var agentGlyphs = map[domain.Facing]string{
	domain.FacingUp:    "^",
	domain.FacingDown:  "v",
	domain.FacingLeft:  "<",
	domain.FacingRight: ">",
}

type cellRole int

const (
	cellFree cellRole = iota
	cellAgent
	cellObstacle
	cellMark
)

// RenderBoard draws the grid one character per cell.
// The agent is drawn as an arrow, obstacles as '#', marked cells with the
// first letter of their first mark and free cells as '.'.
func RenderBoard(grid *domain.Grid, agent domain.Agent) string {
	return renderBoard(grid, agent, nil)
}

func renderBoard(grid *domain.Grid, agent domain.Agent, th *theme) string {
	marks := grid.MarkNames()

	var sb strings.Builder
	for y := 0; y < grid.Height; y++ {
		if y > 0 {
			sb.WriteByte('\n')
		}
		for x := 0; x < grid.Width; x++ {
			glyph, role := cellAt(grid, marks, agent, domain.Position{X: x, Y: y})
			if th != nil {
				glyph = th.cell(role).Render(glyph)
			}
			sb.WriteString(glyph)
		}
	}
	return sb.String()
}

func cellAt(grid *domain.Grid, marks []string, agent domain.Agent, p domain.Position) (string, cellRole) {
	if p == agent.Position {
		return agentGlyphs[agent.Facing], cellAgent
	}
	if grid.Blocked(p) {
		return "#", cellObstacle
	}
	for _, m := range marks {
		if m != "" && grid.HasMark(m, p) {
			return m[:1], cellMark
		}
	}
	return ".", cellFree
}
