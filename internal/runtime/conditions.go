package runtime

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/aretw0/mazecode/pkg/domain"
)

// ConditionFunc evaluates a predicate against the agent's current pose.
type ConditionFunc func(agent domain.Agent, grid *domain.Grid) bool

// MarkPrefix selects cell-mark predicates: "if_coin" is true when the agent
// stands on a cell marked "coin".
const MarkPrefix = "if_"

// Conditions manages the available condition predicates.
type Conditions struct {
	mu  sync.RWMutex
	fns map[string]ConditionFunc
}

// NewConditions creates a registry with the built-in predicates.
func NewConditions() *Conditions {
	c := &Conditions{fns: make(map[string]ConditionFunc)}
	c.Register("if_free", func(a domain.Agent, g *domain.Grid) bool {
		return g.CanMoveTo(a.Ahead())
	})
	c.Register("if_blocked", func(a domain.Agent, g *domain.Grid) bool {
		return !g.CanMoveTo(a.Ahead())
	})
	return c
}

// Register adds a predicate to the registry.
// If a predicate with the same name exists, it is overwritten.
func (c *Conditions) Register(name string, fn ConditionFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fns[name] = fn
}

// Evaluate looks up a predicate by name and evaluates it.
// Unregistered names with the mark prefix test the agent's cell for that mark
// when the grid declares it.
func (c *Conditions) Evaluate(name string, agent domain.Agent, grid *domain.Grid) (bool, error) {
	c.mu.RLock()
	fn, ok := c.fns[name]
	c.mu.RUnlock()
	if ok {
		return fn(agent, grid), nil
	}

	if mark, found := strings.CutPrefix(name, MarkPrefix); found && mark != "" {
		for _, m := range grid.MarkNames() {
			if m == mark {
				return grid.HasMark(mark, agent.Position), nil
			}
		}
	}
	return false, fmt.Errorf("%w: %s", domain.ErrUnknownCondition, name)
}

// Known reports whether a predicate name can be evaluated on the grid.
func (c *Conditions) Known(name string, grid *domain.Grid) bool {
	_, err := c.Evaluate(name, domain.Agent{}, grid)
	return err == nil
}

// Names lists the registered predicates, sorted.
func (c *Conditions) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := make([]string, 0, len(c.fns))
	for name := range c.fns {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
