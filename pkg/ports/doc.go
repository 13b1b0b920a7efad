/*
Package ports defines the driven ports (interfaces) of the mazecode engine.

These interfaces decouple the core logic from external implementations, allowing
the editor and the execution engine to work with any presentation layer, clock
or storage backend.

# Key Interfaces

  - Presentation: Feedback cues, highlights, screen positions and animations.
  - Clock: Time source used to classify taps and drive the scheduler.
  - SnapshotStore: Persists program snapshots (memory, file, Redis).
  - DistributedLocker: Coordinates snapshot writes across replicas.
*/
package ports
