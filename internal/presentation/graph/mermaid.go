package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/mazecode/pkg/domain"
)

// GraphOverlay contains run state to visualize on the graph.
type GraphOverlay struct {
	// Visited lists the instructions that settled during a run.
	Visited []domain.InstructionID
	// Blocked lists the instructions whose move was refused.
	Blocked []domain.InstructionID
	// Current is the instruction in flight, if any.
	Current domain.InstructionID
}

// OverlayFromResult builds an overlay out of the steps of a finished run.
func OverlayFromResult(res domain.RunResult) *GraphOverlay {
	o := &GraphOverlay{}
	for _, s := range res.Steps {
		if s.Outcome == domain.OutcomeBlocked {
			o.Blocked = append(o.Blocked, s.Instruction)
			continue
		}
		o.Visited = append(o.Visited, s.Instruction)
	}
	return o
}

// GenerateMermaid produces a Mermaid flowchart of the three programs.
// Each program is a subgraph whose instructions are chained in order.
// Shapes follow the instruction role:
// - Call: [[Subroutine]] with a dotted edge to the callee entry
// - Conditional host: {Rhombus} labeled with its predicate
// - Default: [Rectangle]
func GenerateMermaid(snap *domain.Snapshot, overlay *GraphOverlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	var calls []string
	for _, name := range domain.ProgramNames {
		instrs := snap.Program(name)
		entry := programID(name)

		sb.WriteString(fmt.Sprintf("    subgraph %s[\"%s\"]\n", entry+"_box", name))
		sb.WriteString(fmt.Sprintf("    %s((\"%s\"))\n", entry, name))
		prev := entry
		for i, in := range instrs {
			id := nodeID(in.ID)
			opener, closer := "[", "]"
			label := fmt.Sprintf("%d: %s", i, in.Kind)
			switch {
			case in.Kind.IsCall():
				opener, closer = "[[", "]]"
			case in.Condition != "":
				opener, closer = "{", "}"
			}
			if in.Condition != "" {
				label = fmt.Sprintf("%s <br/> %s", label, strings.ReplaceAll(in.Condition, "\"", "'"))
			}
			sb.WriteString(fmt.Sprintf("    %s%s\"%s\"%s\n", id, opener, label, closer))
			sb.WriteString(fmt.Sprintf("    %s --> %s\n", prev, id))
			prev = id

			if callee, ok := in.Kind.Callee(); ok {
				calls = append(calls, fmt.Sprintf("    %s -.-> %s\n", id, programID(callee)))
			}
		}
		sb.WriteString("    end\n")
	}
	for _, c := range calls {
		sb.WriteString(c)
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text (color:#000) for high-contrast on light backgrounds
		sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef blocked fill:#ffcdd2,stroke:#b71c1c,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		writeClass(&sb, "visited", overlay.Visited)
		writeClass(&sb, "blocked", overlay.Blocked)
		if overlay.Current != 0 {
			sb.WriteString(fmt.Sprintf("    class %s current;\n", nodeID(overlay.Current)))
		}
	}

	return sb.String()
}

func writeClass(sb *strings.Builder, class string, ids []domain.InstructionID) {
	seen := make(map[domain.InstructionID]bool)
	for _, id := range ids {
		if id == 0 || seen[id] {
			continue
		}
		seen[id] = true
		sb.WriteString(fmt.Sprintf("    class %s %s;\n", nodeID(id), class))
	}
}

func nodeID(id domain.InstructionID) string {
	return fmt.Sprintf("i%d", id)
}

func programID(name domain.ProgramName) string {
	return strings.ReplaceAll(string(name), "-", "_")
}
