/*
Package session implements save-slot management and persistence orchestration.

It serializes concurrent access to saved program snapshots, optionally across
replicas through a distributed lock, on top of any ports.SnapshotStore.
*/
package session
