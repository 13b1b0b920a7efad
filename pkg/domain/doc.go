/*
Package domain contains the core domain models of the mazecode block-programming engine.

It defines the closed instruction vocabulary, the agent and the grid it walks on,
execution outcomes and the lifecycle events emitted while a program runs.
This package is kept pure and free of external dependencies like I/O or
persistence, following Hexagonal Architecture principles.

# Key Entities

  - Kind: The closed set of instruction kinds (moves, turns, calls, condition tests).
  - ProgramName: One of the three fixed program slots (main, subprogram-1, subprogram-2).
  - Agent: Position and facing on a bounded Grid.
  - Snapshot: An immutable copy of the three programs, consumed by the engine and by persistence.
  - LifecycleHooks: Observability callbacks fired by the execution engine.
*/
package domain
