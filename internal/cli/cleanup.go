package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var cleanupYes bool

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Remove all workbench state from the workspace",
	Long: `Delete the project record, sessions, snapshot ledger, the .workbench
directory, and the .workbenchignore file.

Your code, environment definition, and staged files are not touched. This
cannot be undone. You are asked to confirm unless --yes is given.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := newEngine(cmd)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()

		confirmed := cleanupYes
		if !confirmed {
			question := fmt.Sprintf("Remove all workbench state at %s? [y/N]", eng.Paths().Root)
			confirmed, err = newPromptConfirmer(cmd.InOrStdin(), cmd.ErrOrStderr()).Confirm(question)
			if errors.Is(err, errNotInteractive) {
				return fmt.Errorf("refusing to prompt: %w; pass --yes to confirm", err)
			}
			if err != nil {
				confirmed = false
			}
		}
		if !confirmed {
			PrintWarning(out, "Cleanup cancelled")
			return nil
		}

		removed, err := eng.Teardown(cmd.Context(), true)
		if err != nil {
			return err
		}
		if jsonOutput {
			return outputJSON(out, map[string]any{"removed": removed, "home": eng.Paths().Root})
		}
		if !removed {
			PrintEmptyState(out, "No project found; nothing to remove")
			return nil
		}
		PrintSuccess(out, fmt.Sprintf("Removed workbench state from %s", eng.Paths().Root))
		return nil
	},
}

func init() {
	cleanupCmd.Flags().BoolVarP(&cleanupYes, "yes", "y", false, "Skip the confirmation prompt")
}
