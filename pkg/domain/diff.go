package domain

// SnapshotDiff represents the programs that changed between two snapshots.
// It is designed to be serialized to JSON for partial updates on the client.
type SnapshotDiff struct {
	Programs map[ProgramName]*ProgramDelta `json:"programs"`
}

// ProgramDelta holds both versions of a changed program.
type ProgramDelta struct {
	Before []InstructionSnapshot `json:"before"`
	After  []InstructionSnapshot `json:"after"`
}

// Diff calculates the difference between oldSnap and newSnap.
// Instruction identities are ignored: two programs are equal when their kinds
// and conditions match position by position.
// If oldSnap is nil, every non-empty program of newSnap is reported.
// It returns nil when nothing changed.
func Diff(oldSnap, newSnap *Snapshot) *SnapshotDiff {
	if newSnap == nil {
		return nil
	}

	diff := &SnapshotDiff{Programs: make(map[ProgramName]*ProgramDelta)}
	for _, name := range ProgramNames {
		before := oldSnap.Program(name)
		after := newSnap.Program(name)
		if sameShape(before, after) {
			continue
		}
		diff.Programs[name] = &ProgramDelta{Before: before, After: after}
	}

	if len(diff.Programs) == 0 {
		return nil
	}
	return diff
}

func sameShape(a, b []InstructionSnapshot) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Kind != b[i].Kind || a[i].Condition != b[i].Condition {
			return false
		}
	}
	return true
}
