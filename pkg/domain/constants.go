package domain

import "time"

// Timing constants of the interactive loop.
const (
	// TapThreshold separates a tap from a drag: a gesture shorter than this is a tap.
	TapThreshold = 400 * time.Millisecond

	// TurnSettle is the pause after a turn before the next Move starts.
	TurnSettle = 600 * time.Millisecond

	// BlockedSettle is the pause after a blocked move or a failed condition.
	BlockedSettle = 500 * time.Millisecond

	// ArrivalPoll is the interval at which agent arrival is polled.
	ArrivalPoll = 30 * time.Millisecond

	// ArrivalTimeout caps arrival polling when the presentation never reports the agent in place.
	ArrivalTimeout = 3 * time.Second

	// DefaultMaxCallDepth bounds nested subprogram calls.
	DefaultMaxCallDepth = 16

	// HoverScale is the presentation scale applied to hovered or dragged instructions.
	HoverScale = 1.2
)
