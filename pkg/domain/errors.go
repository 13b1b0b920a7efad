package domain

import "errors"

// ErrInvalidEdit is returned when a structural edit would break the program invariants
// (e.g. dropping a condition onto a non-host target, attaching to a placeholder).
var ErrInvalidEdit = errors.New("invalid structural edit")

// ErrFrozen is returned when a program is mutated while it is being executed.
var ErrFrozen = errors.New("program is frozen during execution")

// ErrUnknownProgram is returned when a program name is not one of the fixed slots.
var ErrUnknownProgram = errors.New("unknown program")

// ErrUnknownInstruction is returned when an instruction ID is not in the workspace.
var ErrUnknownInstruction = errors.New("unknown instruction")

// ErrUnknownKind is returned when an instruction kind name cannot be parsed.
var ErrUnknownKind = errors.New("unknown instruction kind")

// ErrCallDepthExceeded is returned when subprogram calls nest deeper than the engine allows.
var ErrCallDepthExceeded = errors.New("subprogram call depth exceeded")

// ErrAlreadyRunning is returned when a run is requested while another one is in progress.
var ErrAlreadyRunning = errors.New("program is already running")

// ErrDragActive is returned when a drag starts while another instruction is being dragged.
var ErrDragActive = errors.New("another instruction is already being dragged")

// ErrSnapshotNotFound is returned when a snapshot key cannot be found in the store.
var ErrSnapshotNotFound = errors.New("snapshot not found")

// ErrUnknownCondition is returned when a condition predicate is not registered.
var ErrUnknownCondition = errors.New("unknown condition predicate")
