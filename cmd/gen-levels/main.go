package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/aretw0/mazecode/pkg/domain"
	"github.com/aretw0/mazecode/pkg/dsl"
	"github.com/aretw0/mazecode/pkg/level"
	"gopkg.in/yaml.v3"
)

type position struct {
	X int `yaml:"x"`
	Y int `yaml:"y"`
}

type levelFile struct {
	Name       string              `yaml:"name"`
	Briefing   string              `yaml:"briefing,omitempty"`
	Grid       gridFile            `yaml:"grid"`
	Agent      agentFile           `yaml:"agent"`
	Palette    []string            `yaml:"palette,omitempty"`
	Conditions []string            `yaml:"conditions,omitempty"`
	Programs   map[string][]string `yaml:"programs,omitempty"`
}

type gridFile struct {
	Width   int                   `yaml:"width"`
	Height  int                   `yaml:"height"`
	Blocked []position            `yaml:"blocked,omitempty"`
	Marks   map[string][]position `yaml:"marks,omitempty"`
}

type agentFile struct {
	X      int    `yaml:"x"`
	Y      int    `yaml:"y"`
	Facing string `yaml:"facing"`
}

func main() {
	targetDir := "examples/levels"
	if len(os.Args) > 1 {
		targetDir = os.Args[1]
	}

	// Ensure dir exists
	if err := os.MkdirAll(targetDir, 0755); err != nil {
		panic(err)
	}

	fmt.Printf("Generating levels in: %s\n", targetDir)

	// 1. Corridor: a straight walk finished by a guarded subprogram
	write(targetDir, levelFile{
		Name:     "corridor",
		Briefing: "# Corridor\n\nWalk up the corridor and stop on the **coin**.\n",
		Grid: gridFile{Width: 1, Height: 3, Marks: map[string][]position{
			"coin": {{X: 0, Y: 0}},
		}},
		Agent:      agentFile{X: 0, Y: 2, Facing: string(domain.FacingUp)},
		Conditions: []string{"if_coin", "if_free"},
	}, dsl.New().
		Main(func(p *dsl.ProgramBuilder) { p.Forward().Call1() }).
		Sub1(func(p *dsl.ProgramBuilder) { p.If("if_free").Forward() }))

	// 2. Detour: walk around a wall using both subprograms
	write(targetDir, levelFile{
		Name:     "detour",
		Briefing: "# Detour\n\nA wall blocks the way. Use **subprogram 1** to step around it.\n",
		Grid: gridFile{
			Width: 3, Height: 3,
			Blocked: []position{{X: 1, Y: 1}},
			Marks:   map[string][]position{"goal": {{X: 2, Y: 2}}},
		},
		Agent:      agentFile{X: 0, Y: 0, Facing: string(domain.FacingRight)},
		Palette:    []string{"move-forward", "turn-left", "turn-right", "call-subprogram-1", "call-subprogram-2"},
		Conditions: []string{"if_free", "if_blocked", "if_goal"},
	}, dsl.New().
		Main(func(p *dsl.ProgramBuilder) { p.Call1().Right().Call1() }).
		Sub1(func(p *dsl.ProgramBuilder) { p.Forward().Forward() }))

	// 3. Empty: a blank level for free play
	write(targetDir, levelFile{
		Name:       "sandbox",
		Grid:       gridFile{Width: 5, Height: 5},
		Agent:      agentFile{X: 0, Y: 0, Facing: string(domain.FacingRight)},
		Conditions: []string{"if_free", "if_blocked"},
	}, dsl.New())

	fmt.Println("Done. Verify contents in", targetDir)
}

// write fills in the programs, checks that the level parses back and saves it.
func write(dir string, lf levelFile, programs *dsl.Builder) {
	snap, err := programs.Build()
	check(err)
	for _, name := range domain.ProgramNames {
		if items := snap.Program(name); len(items) > 0 {
			if lf.Programs == nil {
				lf.Programs = make(map[string][]string)
			}
			lf.Programs[string(name)] = level.Tokens(items)
		}
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	check(enc.Encode(lf))
	check(enc.Close())

	_, err = level.Parse(buf.Bytes())
	check(err)

	path := filepath.Join(dir, lf.Name+".yaml")
	check(os.WriteFile(path, buf.Bytes(), 0644))
	fmt.Println("  wrote", path)
}

func check(err error) {
	if err != nil {
		panic(err)
	}
}
