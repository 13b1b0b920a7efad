// Package headless provides a ports.Presentation that draws nothing.
// It keeps sprite positions and highlights in memory, records every cue, and
// walks the agent marker one poll at a time, which makes it suitable for the
// CLI, servers, and tests.
package headless

import (
	"sync"

	"github.com/aretw0/mazecode/pkg/domain"
	"github.com/aretw0/mazecode/pkg/ports"
)

// Call is one recorded presentation request.
type Call struct {
	Method string
	Target string
	Value  any
}

// Presentation implements ports.Presentation in memory.
// Safe for concurrent use.
type Presentation struct {
	mu         sync.Mutex
	positions  map[domain.InstructionID]domain.Point
	scales     map[domain.InstructionID]float64
	highlights map[string]bool
	feedback   []domain.Feedback
	calls      []Call

	latency int
	polls   int
	target  *domain.Position
	agent   *domain.Position
}

// Option configures the Presentation.
type Option func(*Presentation)

// WithLatency makes the agent marker need n polls before reaching a target.
// Zero means the marker arrives on the first poll.
func WithLatency(n int) Option {
	return func(p *Presentation) {
		p.latency = n
	}
}

// New creates an empty headless presentation.
func New(opts ...Option) *Presentation {
	p := &Presentation{
		positions:  make(map[domain.InstructionID]domain.Point),
		scales:     make(map[domain.InstructionID]float64),
		highlights: make(map[string]bool),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

var _ ports.Presentation = (*Presentation)(nil)

func (p *Presentation) record(c Call) {
	p.calls = append(p.calls, c)
}

// PlayFeedback records the cue.
func (p *Presentation) PlayFeedback(kind domain.Feedback) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.feedback = append(p.feedback, kind)
	p.record(Call{Method: "PlayFeedback", Value: kind})
}

// Highlight records the emphasis state of a target.
func (p *Presentation) Highlight(target string, on bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if on {
		p.highlights[target] = true
	} else {
		delete(p.highlights, target)
	}
	p.record(Call{Method: "Highlight", Target: target, Value: on})
}

// ScreenPosition returns the last position an instruction was placed at.
func (p *Presentation) ScreenPosition(id domain.InstructionID) (domain.Point, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	at, ok := p.positions[id]
	return at, ok
}

// Place stores the position of an instruction sprite.
func (p *Presentation) Place(id domain.InstructionID, at domain.Point) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.positions[id] = at
	p.record(Call{Method: "Place", Target: ports.InstructionTarget(id), Value: at})
}

// Scale stores the scale of an instruction sprite.
func (p *Presentation) Scale(id domain.InstructionID, factor float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if factor == 1 {
		delete(p.scales, id)
	} else {
		p.scales[id] = factor
	}
	p.record(Call{Method: "Scale", Target: ports.InstructionTarget(id), Value: factor})
}

// Release forgets the sprite state of a removed instruction.
func (p *Presentation) Release(id domain.InstructionID) {
	p.mu.Lock()
	defer p.mu.Unlock()
	target := ports.InstructionTarget(id)
	delete(p.positions, id)
	delete(p.scales, id)
	delete(p.highlights, target)
	p.record(Call{Method: "Release", Target: target})
}

// Animate records the animation and completes it immediately.
func (p *Presentation) Animate(subject string, animation string, onComplete func()) {
	p.mu.Lock()
	p.record(Call{Method: "Animate", Target: subject, Value: animation})
	p.mu.Unlock()
	if onComplete != nil {
		onComplete()
	}
}

// AgentReached moves the marker toward target, arriving after the configured latency.
func (p *Presentation) AgentReached(target domain.Position) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.target == nil || *p.target != target {
		t := target
		p.target = &t
		p.polls = 0
	}
	p.polls++
	if p.polls <= p.latency {
		return false
	}
	p.agent = &target
	return true
}

// Agent returns where the marker last arrived.
func (p *Presentation) Agent() (domain.Position, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.agent == nil {
		return domain.Position{}, false
	}
	return *p.agent, true
}

// Highlighted reports whether a target is currently emphasized.
func (p *Presentation) Highlighted(target string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.highlights[target]
}

// ScaleOf returns the current scale of an instruction sprite.
func (p *Presentation) ScaleOf(id domain.InstructionID) float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	if f, ok := p.scales[id]; ok {
		return f
	}
	return 1
}

// Feedback returns every cue played so far.
func (p *Presentation) Feedback() []domain.Feedback {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]domain.Feedback(nil), p.feedback...)
}

// Calls returns every recorded request.
func (p *Presentation) Calls() []Call {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Call(nil), p.calls...)
}

// Reset forgets recorded cues and calls, keeping sprite state.
func (p *Presentation) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.feedback = nil
	p.calls = nil
}
