package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aretw0/mazecode"
	"github.com/aretw0/mazecode/internal/logging"
	"github.com/aretw0/mazecode/internal/presentation/graph"
	"github.com/aretw0/mazecode/pkg/domain"
	"github.com/aretw0/mazecode/pkg/level"
	"github.com/aretw0/mazecode/pkg/session"
	"gopkg.in/yaml.v3"
)

// ValidateLevel loads a level and checks that its programs can be built,
// reporting every structural problem at once.
func ValidateLevel(path string) error {
	s, err := mazecode.LoadLevel(path)
	if err != nil {
		return err
	}
	defer s.Close()
	return s.Workspace().Check()
}

// GraphLevel renders the level programs as a Mermaid flowchart. With run set,
// the main program is executed first and its steps are overlaid.
func GraphLevel(ctx context.Context, path string, run bool) (string, error) {
	s, err := mazecode.LoadLevel(path, mazecode.WithLogger(logging.NewNop()))
	if err != nil {
		return "", err
	}
	defer s.Close()

	var overlay *graph.GraphOverlay
	if run {
		res, err := s.RunToCompletion(ctx)
		if res.Status == "" {
			return "", err
		}
		overlay = graph.OverlayFromResult(res)
	}
	return graph.GenerateMermaid(s.Snapshot(), overlay), nil
}

// savedPrograms is the YAML shape of an exported save, matching the
// programs section of a level file.
type savedPrograms struct {
	SavedAt  string              `yaml:"saved_at,omitempty"`
	Programs map[string][]string `yaml:"programs"`
}

// WriteSave prints a save slot as YAML, ready to paste into a level.
func WriteSave(ctx context.Context, w io.Writer, saves *session.Manager, key string) error {
	snap, err := saves.Load(ctx, key)
	if err != nil {
		return fmt.Errorf("failed to load save '%s': %w", key, err)
	}
	out := savedPrograms{Programs: make(map[string][]string)}
	if !snap.SavedAt.IsZero() {
		out.SavedAt = snap.SavedAt.UTC().Format("2006-01-02T15:04:05Z")
	}
	for _, name := range domain.ProgramNames {
		out.Programs[string(name)] = level.Tokens(snap.Program(name))
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(out); err != nil {
		return err
	}
	return enc.Close()
}

// WriteSaveList prints the save slots, one per line.
func WriteSaveList(ctx context.Context, w io.Writer, saves *session.Manager) error {
	keys, err := saves.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list saves: %w", err)
	}
	if len(keys) == 0 {
		fmt.Fprintln(w, "No saves found.")
		return nil
	}
	fmt.Fprintln(w, "Saves:")
	fmt.Fprintln(w, "- "+strings.Join(keys, "\n- "))
	return nil
}
