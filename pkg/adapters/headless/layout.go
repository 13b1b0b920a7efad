package headless

import (
	"github.com/aretw0/mazecode/pkg/domain"
	"github.com/aretw0/mazecode/pkg/editor"
	"github.com/aretw0/mazecode/pkg/program"
)

// gap separates neighbouring tiles of a program row.
const gap = 4

// Arrange places every placed instruction in a row inside its program zone,
// with its condition drawn on top. Palette tokens are placed by the editor.
func (p *Presentation) Arrange(ws *program.Workspace, layout editor.Layout) {
	zones := make(map[domain.ProgramName]domain.Rect, len(layout.Zones))
	for _, z := range layout.Zones {
		if z.Kind == editor.ZoneProgram {
			zones[z.Program] = z.Rect
		}
	}

	for _, prog := range ws.Programs() {
		rect, ok := zones[prog.Name]
		if !ok {
			continue
		}
		for i, instr := range prog.Instructions() {
			at := Slot(rect, layout, i)
			p.Place(instr.ID, at)
			if cond := instr.Condition(); cond != nil {
				p.Place(cond.ID, domain.Point{X: at.X, Y: at.Y - layout.TileHeight/2})
			}
		}
	}
}

// Slot returns the centre of the index-th tile inside a program zone.
func Slot(rect domain.Rect, layout editor.Layout, index int) domain.Point {
	return domain.Point{
		X: rect.X + gap + layout.TileWidth/2 + float64(index)*(layout.TileWidth+gap),
		Y: rect.Y + rect.Height/2,
	}
}
