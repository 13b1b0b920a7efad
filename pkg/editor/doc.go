/*
Package editor implements the drag-and-drop editing state machine.

The Editor is the only writer of programs during a session. It turns discrete
gesture events from the input layer into structural edits on a
program.Workspace:

	idle -> pressed -> (tap | dragging) -> settled

A gesture that cannot be honoured (frozen workspace, invalid target, another
drag in flight) ends as a cancel: the model is left untouched and the
instruction snaps back to where it was before the drag.
*/
package editor
