package cli

import (
	"fmt"
	"os"
	"path/filepath"
)

// RunOptions contains all the configuration for the Run command.
type RunOptions struct {
	LevelPath string
	Watch     bool
	JSON      bool
	Debug     bool
	LogFile   string
	Quiet     bool
	SaveSlot  string
	Fresh     bool
	Trace     bool
	Store     StoreOptions
}

// Execute handles the 'run' command logic, dispatching to Session or Watch mode.
func Execute(opts RunOptions) error {
	opts = ResolveLevel(opts)
	if opts.Watch {
		if opts.JSON {
			return fmt.Errorf("--watch and --json cannot be used together")
		}
		return RunWatch(opts)
	}
	return RunSession(opts)
}

// ResolveLevel points a directory level path at the level.yaml inside it.
func ResolveLevel(opts RunOptions) RunOptions {
	if info, err := os.Stat(opts.LevelPath); err == nil && info.IsDir() {
		opts.LevelPath = filepath.Join(opts.LevelPath, DefaultLevelFile)
	}
	return opts
}
