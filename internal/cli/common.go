package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/danieljhkim/workbench/internal/clock"
	"github.com/danieljhkim/workbench/internal/config"
	"github.com/danieljhkim/workbench/internal/engine"
	"github.com/danieljhkim/workbench/internal/envbuild"
	"github.com/danieljhkim/workbench/internal/fingerprint"
	"github.com/danieljhkim/workbench/internal/fsops"
)

// newEngine creates a new engine with real implementations of all
// dependencies, rooted at the workspace selected by --home.
func newEngine(cmd *cobra.Command) (*engine.Engine, error) {
	root, err := config.ResolveRoot(homeDir)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", engine.ErrConfiguration, err)
	}

	settings, err := config.Load(root)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", engine.ErrConfiguration, err)
	}

	paths := config.NewPaths(root, settings.Layout)
	fs := fsops.NewRealFS()
	hasher := fingerprint.NewSHA256Hasher()
	clk := &clock.RealClock{}
	builder := envbuild.NewDockerfileBuilder(fs, settings.Environment.BaseImage, settings.Environment.GPU)
	confirmer := newPromptConfirmer(cmd.InOrStdin(), cmd.ErrOrStderr())

	return engine.New(fs, hasher, clk, paths, settings, builder, confirmer), nil
}

// outputJSON writes a value as indented JSON.
func outputJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
