package ports

import (
	"strconv"

	"github.com/aretw0/mazecode/pkg/domain"
)

// Presentation is the rendering/audio collaborator.
// The core calls it but owns no rendering state.
type Presentation interface {
	// PlayFeedback requests a player-facing cue (sound, tint, vibration).
	PlayFeedback(kind domain.Feedback)

	// Highlight toggles the emphasis of a drop target or instruction.
	Highlight(target string, on bool)

	// ScreenPosition reports where an instruction is currently drawn.
	ScreenPosition(id domain.InstructionID) (domain.Point, bool)

	// Place moves an instruction sprite (snap back, palette placement).
	Place(id domain.InstructionID, at domain.Point)

	// Scale sets the presentation scale of an instruction sprite.
	Scale(id domain.InstructionID, factor float64)

	// Release drops the sprite and tile drop zone of an instruction that
	// left the scene.
	Release(id domain.InstructionID)

	// Animate plays a named animation on a subject ("agent" or an instruction).
	// onComplete may be nil.
	Animate(subject string, animation string, onComplete func())

	// AgentReached reports whether the agent marker visually reached the target cell.
	// It is polled at a fixed short interval while a move is in flight.
	AgentReached(target domain.Position) bool
}

// SubjectAgent is the animation subject naming the agent sprite.
const SubjectAgent = "agent"

// Highlight targets understood by every presentation.
const (
	TargetTrash = "trash"
)

// ProgramTarget names the drop slot of a program.
func ProgramTarget(name domain.ProgramName) string {
	return "program/" + string(name)
}

// InstructionTarget names a single instruction sprite.
func InstructionTarget(id domain.InstructionID) string {
	return "instruction/" + strconv.FormatUint(uint64(id), 10)
}
