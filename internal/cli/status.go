package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/danieljhkim/workbench/internal/config"
	"github.com/danieljhkim/workbench/internal/engine"
	"github.com/danieljhkim/workbench/internal/ledger"
	"github.com/danieljhkim/workbench/internal/watch"
)

var statusWatch bool

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show which facets changed since the last snapshot",
	Long: `Compare the code, environment, and files facets against the latest snapshot.

A facet is unstaged when its content differs from the latest snapshot. Before
the first snapshot, any non-empty facet is unstaged.

With --watch, status is printed again whenever files in the workspace change,
until interrupted.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := newEngine(cmd)
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		out := cmd.OutOrStdout()

		if err := printStatus(ctx, out, eng); err != nil {
			return err
		}
		if !statusWatch {
			return nil
		}

		ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
		defer stop()

		PrintInfo(out, "Watching for changes (Ctrl+C to stop)")
		w := watch.New(eng.Paths().Root, []string{config.StateDirName}, watch.DefaultDebounce)
		return w.Run(ctx, func() {
			if err := printStatus(ctx, out, eng); err != nil {
				log.Warn().Err(err).Msg("status refresh failed")
			}
		})
	},
}

func init() {
	statusCmd.Flags().BoolVarP(&statusWatch, "watch", "w", false, "Re-run status when files change")
}

func printStatus(ctx context.Context, out io.Writer, eng *engine.Engine) error {
	result, err := eng.Status(ctx)
	if err != nil {
		return err
	}

	if jsonOutput {
		return outputJSON(out, result)
	}

	PrintSection(out, "Project")
	PrintLabelValue(out, "Name", result.Project.Name)
	PrintLabelValue(out, "ID", result.Project.ID)
	if result.Project.Description != "" {
		PrintLabelValue(out, "Description", result.Project.Description)
	}
	PrintLabelValue(out, "Session", result.Session.Name)

	PrintSection(out, "Facets")
	for _, facet := range result.Facets() {
		label, clr := formatUnstaged(facet.Unstaged)
		PrintLabelValueWithColor(out, fmt.Sprintf("%-11s", facet.Facet), fmt.Sprintf("%s (%s)", label, facet.Current.Short()), clr)
	}

	var unstaged []string
	for _, facet := range result.Facets() {
		if facet.Unstaged {
			unstaged = append(unstaged, string(facet.Facet))
		}
	}
	_, _ = fmt.Fprintln(out)
	if len(unstaged) == 0 {
		PrintInfo(out, "All facets match the latest snapshot")
	} else {
		PrintInfo(out, "Unstaged facets:")
		PrintList(out, unstaged, 1)
	}

	PrintSection(out, "Snapshots")
	printLatest(out, "Latest", result.Latest)
	printLatest(out, "Latest user", result.LatestUser)
	printLatest(out, "Latest auto", result.LatestAuto)
	return nil
}

func printLatest(out io.Writer, label string, s *ledger.Snapshot) {
	if s == nil {
		PrintLabelValue(out, label, "none")
		return
	}
	PrintLabelValue(out, label, fmt.Sprintf("%s at %s", s.ID, s.CreatedAt.Local().Format(time.DateTime)))
}
