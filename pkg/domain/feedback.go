package domain

// Feedback is a player-facing cue (sound, tint, vibration) requested from the presentation layer.
type Feedback string

const (
	FeedbackHover          Feedback = "hover"
	FeedbackDrag           Feedback = "drag"
	FeedbackDrop           Feedback = "drop"
	FeedbackRemove         Feedback = "remove"
	FeedbackStep           Feedback = "step"
	FeedbackTurn           Feedback = "turn"
	FeedbackBlocked        Feedback = "blocked"
	FeedbackConditionTrue  Feedback = "condition-true"
	FeedbackConditionFalse Feedback = "condition-false"
	FeedbackComplete       Feedback = "complete"
	FeedbackStop           Feedback = "stop"
)
