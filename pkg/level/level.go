package level

import (
	"fmt"
	"os"
	"sort"

	"github.com/aretw0/mazecode/pkg/domain"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// Level is a decoded puzzle definition.
type Level struct {
	Name         string
	Briefing     string
	Grid         *domain.Grid
	Agent        domain.Agent
	Palette      []domain.Kind
	Conditions   []string
	MaxCallDepth int
	Programs     *domain.Snapshot
}

// definition mirrors the YAML layout.
type definition struct {
	Name         string              `mapstructure:"name"`
	Briefing     string              `mapstructure:"briefing"`
	Grid         gridDefinition      `mapstructure:"grid"`
	Agent        agentDefinition     `mapstructure:"agent"`
	Palette      []string            `mapstructure:"palette"`
	Conditions   []string            `mapstructure:"conditions"`
	MaxCallDepth int                 `mapstructure:"max_call_depth"`
	Programs     map[string][]string `mapstructure:"programs"`
}

type gridDefinition struct {
	Width   int                          `mapstructure:"width"`
	Height  int                          `mapstructure:"height"`
	Blocked []domain.Position            `mapstructure:"blocked"`
	Marks   map[string][]domain.Position `mapstructure:"marks"`
}

type agentDefinition struct {
	X      int    `mapstructure:"x"`
	Y      int    `mapstructure:"y"`
	Facing string `mapstructure:"facing"`
}

// Load reads and parses a level file.
func Load(path string) (*Level, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read level: %w", err)
	}
	return Parse(data)
}

// Parse decodes a YAML level and checks its structure.
// Structural problems are reported together as an *AggregateError.
func Parse(data []byte) (*Level, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse level yaml: %w", err)
	}

	var def definition
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:      &def,
		ErrorUnused: true,
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(raw); err != nil {
		return nil, fmt.Errorf("failed to decode level: %w", err)
	}

	return build(def)
}

func build(def definition) (*Level, error) {
	var c collector
	lvl := &Level{
		Name:         def.Name,
		Briefing:     def.Briefing,
		Conditions:   def.Conditions,
		MaxCallDepth: def.MaxCallDepth,
		Programs:     domain.NewSnapshot(),
	}

	if def.Grid.Width <= 0 || def.Grid.Height <= 0 {
		c.add("grid", "width and height must be positive", fmt.Sprintf("%dx%d", def.Grid.Width, def.Grid.Height))
		return nil, c.err()
	}
	grid := domain.NewGrid(def.Grid.Width, def.Grid.Height)
	for i, p := range def.Grid.Blocked {
		if !grid.InBounds(p) {
			c.add(fmt.Sprintf("grid.blocked[%d]", i), "cell out of bounds", p)
			continue
		}
		grid.Block(p)
	}
	markNames := make([]string, 0, len(def.Grid.Marks))
	for name := range def.Grid.Marks {
		markNames = append(markNames, name)
	}
	sort.Strings(markNames)
	for _, name := range markNames {
		for i, p := range def.Grid.Marks[name] {
			if !grid.InBounds(p) {
				c.add(fmt.Sprintf("grid.marks.%s[%d]", name, i), "cell out of bounds", p)
				continue
			}
			grid.Mark(name, p)
		}
	}
	lvl.Grid = grid

	facing := domain.FacingRight
	if def.Agent.Facing != "" {
		f, err := domain.ParseFacing(def.Agent.Facing)
		if err != nil {
			c.add("agent.facing", err.Error(), def.Agent.Facing)
		} else {
			facing = f
		}
	}
	lvl.Agent = *domain.NewAgent(def.Agent.X, def.Agent.Y, facing)
	if !grid.CanMoveTo(lvl.Agent.Position) {
		c.add("agent", "start cell must be free and in bounds", lvl.Agent.Position)
	}

	if len(def.Palette) == 0 {
		for _, k := range domain.Kinds {
			if !k.IsCondition() {
				lvl.Palette = append(lvl.Palette, k)
			}
		}
	}
	for i, name := range def.Palette {
		kind, err := domain.ParseKind(name)
		if err != nil {
			c.add(fmt.Sprintf("palette[%d]", i), err.Error(), name)
			continue
		}
		if kind.IsCondition() {
			c.add(fmt.Sprintf("palette[%d]", i), "condition tokens come from the conditions list", name)
			continue
		}
		lvl.Palette = append(lvl.Palette, kind)
	}

	if def.MaxCallDepth < 0 {
		c.add("max_call_depth", "must not be negative", def.MaxCallDepth)
	}

	rawNames := make([]string, 0, len(def.Programs))
	for rawName := range def.Programs {
		rawNames = append(rawNames, rawName)
	}
	sort.Strings(rawNames)
	for _, rawName := range rawNames {
		if _, err := domain.ParseProgramName(rawName); err != nil {
			c.add("programs."+rawName, err.Error(), nil)
		}
	}

	var nextID domain.InstructionID
	for _, name := range domain.ProgramNames {
		tokens, ok := def.Programs[string(name)]
		if !ok {
			continue
		}
		items := make([]domain.InstructionSnapshot, 0, len(tokens))
		for i, s := range tokens {
			tok, err := ParseToken(s)
			if err != nil {
				c.add(fmt.Sprintf("programs.%s[%d]", name, i), err.Error(), s)
				continue
			}
			nextID++
			item := domain.InstructionSnapshot{ID: nextID, Kind: tok.Kind}
			if tok.Condition != "" {
				nextID++
				item.ConditionID = nextID
				item.Condition = tok.Condition
			}
			items = append(items, item)
		}
		lvl.Programs.Programs[name] = items
	}

	if err := c.err(); err != nil {
		return nil, err
	}
	return lvl, nil
}

// Predicates lists every condition predicate the level refers to, sorted and
// without duplicates: the conditions offered in the palette and those used in
// starting programs.
func (l *Level) Predicates() []string {
	seen := make(map[string]bool)
	for _, c := range l.Conditions {
		seen[c] = true
	}
	for _, name := range domain.ProgramNames {
		for _, it := range l.Programs.Program(name) {
			if it.Condition != "" {
				seen[it.Condition] = true
			}
		}
	}
	out := make([]string, 0, len(seen))
	for c := range seen {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// ConditionChecker reports whether a predicate can be evaluated on a grid.
type ConditionChecker interface {
	Known(name string, grid *domain.Grid) bool
}

// Validate checks that every predicate used by the level can be evaluated.
func (l *Level) Validate(conditions ConditionChecker) error {
	var c collector
	for _, pred := range l.Predicates() {
		if !conditions.Known(pred, l.Grid) {
			c.add("conditions", "unknown condition predicate", pred)
		}
	}
	return c.err()
}
