package editor

import (
	"github.com/aretw0/mazecode/pkg/domain"
	"github.com/aretw0/mazecode/pkg/ports"
)

// ZoneKind classifies drop zones.
type ZoneKind int

const (
	// ZoneTrash removes whatever is dropped on it.
	ZoneTrash ZoneKind = iota + 1
	// ZoneProgram appends to a program slot.
	ZoneProgram
	// ZoneTile is the area drawn around a placed instruction.
	ZoneTile
)

func (k ZoneKind) String() string {
	switch k {
	case ZoneTrash:
		return "trash"
	case ZoneProgram:
		return "program"
	case ZoneTile:
		return "tile"
	default:
		return "unknown"
	}
}

// Zone is a region an instruction can be released onto.
type Zone struct {
	Name    string
	Kind    ZoneKind
	Program domain.ProgramName
	Anchor  domain.InstructionID
	Rect    domain.Rect
	Z       int
}

// TrashZone builds the trash drop zone.
func TrashZone(rect domain.Rect, z int) Zone {
	return Zone{Name: ports.TargetTrash, Kind: ZoneTrash, Rect: rect, Z: z}
}

// ProgramZone builds the drop zone of a program slot.
func ProgramZone(name domain.ProgramName, rect domain.Rect, z int) Zone {
	return Zone{Name: ports.ProgramTarget(name), Kind: ZoneProgram, Program: name, Rect: rect, Z: z}
}

// Layout is the static geometry of the editing canvas.
type Layout struct {
	Zones      []Zone
	TileWidth  float64
	TileHeight float64
	TileZ      int
	// Palette holds the resting position of each palette token.
	Palette map[domain.Kind]domain.Point
}

// DefaultLayout is a single-column canvas: palette on the left, the three
// program slots stacked in the middle and the trash at the bottom right.
func DefaultLayout() Layout {
	l := Layout{
		TileWidth:  48,
		TileHeight: 48,
		TileZ:      10,
		Palette:    make(map[domain.Kind]domain.Point, len(domain.Kinds)),
	}
	for i, kind := range domain.Kinds {
		l.Palette[kind] = domain.Point{X: 40, Y: 60 + float64(i)*56}
	}
	for i, name := range domain.ProgramNames {
		l.Zones = append(l.Zones, ProgramZone(name, domain.Rect{X: 120, Y: 40 + float64(i)*140, Width: 480, Height: 120}, 1))
	}
	l.Zones = append(l.Zones, TrashZone(domain.Rect{X: 620, Y: 380, Width: 80, Height: 80}, 5))
	return l
}

// topmost returns the zone with the highest z among candidates containing p.
// Later zones win ties.
func topmost(zones []Zone, p domain.Point) (Zone, bool) {
	var best Zone
	found := false
	for _, z := range zones {
		if !z.Rect.Contains(p) {
			continue
		}
		if !found || z.Z >= best.Z {
			best = z
			found = true
		}
	}
	return best, found
}
