package domain

import "time"

// MoveOutcome is the settled result of a single Move.
type MoveOutcome string

const (
	// OutcomeExecuted means the instruction had its effect on the agent.
	OutcomeExecuted MoveOutcome = "executed"
	// OutcomeBlocked means the move failed the bounds/occupancy check.
	OutcomeBlocked MoveOutcome = "blocked"
	// OutcomeSkipped means the attached condition evaluated false and the host did not run.
	OutcomeSkipped MoveOutcome = "skipped"
	// OutcomeBranched means a subprogram was called and has returned.
	OutcomeBranched MoveOutcome = "branched"
)

// RunStatus is the terminal status of a program run.
type RunStatus string

const (
	RunCompleted RunStatus = "completed"
	RunStopped   RunStatus = "stopped"
	RunFailed    RunStatus = "failed"
)

// Step is the per-move report collected during a run.
type Step struct {
	Program     ProgramName   `json:"program"`
	Index       int           `json:"index"`
	Instruction InstructionID `json:"instruction"`
	Kind        Kind          `json:"kind"`
	Condition   string        `json:"condition,omitempty"`
	Outcome     MoveOutcome   `json:"outcome"`
	Agent       Agent         `json:"agent"`
	Depth       int           `json:"depth"`
}

// RunResult is handed to the completion callback of a run.
type RunResult struct {
	Status   RunStatus     `json:"status"`
	Steps    []Step        `json:"steps"`
	Agent    Agent         `json:"agent"`
	Err      error         `json:"-"`
	Duration time.Duration `json:"duration"`
}

// Blocked counts the steps that ended blocked.
func (r RunResult) Blocked() int {
	n := 0
	for _, s := range r.Steps {
		if s.Outcome == OutcomeBlocked {
			n++
		}
	}
	return n
}
