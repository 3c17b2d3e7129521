package cli

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/danieljhkim/workbench/internal/engine"
)

var (
	initName        string
	initDescription string
	initSkipEnv     bool
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize or update the project in the workspace",
	Long: `Initialize a workbench project at the workspace root, or update it.

On first use this creates the private .workbench directory, the project record,
the "default" session, the snapshot ledger, and a .workbenchignore file. The
project name defaults to the name of the workspace directory.

On an existing project only the fields given with a non-empty value are
changed; the project id never changes.

Unless --skip-env is given and no environment definition exists yet, you are
asked whether to write a default one.`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

func init() {
	initCmd.Flags().StringVarP(&initName, "name", "n", "", "Project name")
	initCmd.Flags().StringVarP(&initDescription, "description", "d", "", "Project description")
	initCmd.Flags().BoolVar(&initSkipEnv, "skip-env", false, "Do not offer to set up an environment")
}

func runInit(cmd *cobra.Command, args []string) error {
	fields := map[string]string{}
	if cmd.Flags().Changed("name") {
		fields[engine.ArgName] = initName
	}
	if cmd.Flags().Changed("description") {
		fields[engine.ArgDescription] = initDescription
	}
	if cmd.Flags().Changed("skip-env") {
		fields[engine.ArgSkipEnvironmentSetup] = strconv.FormatBool(initSkipEnv)
	}
	req, err := engine.ParseInitArgs(fields)
	if err != nil {
		return err
	}

	eng, err := newEngine(cmd)
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	_, loadErr := eng.Project(ctx)
	existed := loadErr == nil
	if loadErr != nil && !errors.Is(loadErr, engine.ErrNotInitialized) {
		return loadErr
	}

	p, err := eng.Init(ctx, req)
	if err != nil {
		return err
	}

	if jsonOutput {
		return outputJSON(cmd.OutOrStdout(), p)
	}

	out := cmd.OutOrStdout()
	if existed {
		PrintSuccess(out, fmt.Sprintf("Updated project %s", p.Name))
	} else {
		PrintSuccess(out, fmt.Sprintf("Initialized project %s", p.Name))
	}
	PrintLabelValue(out, "ID", p.ID)
	PrintLabelValue(out, "Name", p.Name)
	if p.Description != "" {
		PrintLabelValue(out, "Description", p.Description)
	}
	PrintLabelValue(out, "Home", p.HomePath)
	return nil
}
