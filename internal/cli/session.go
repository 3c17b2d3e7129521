package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/danieljhkim/workbench/internal/export"
	"github.com/danieljhkim/workbench/internal/fsops"
	"github.com/danieljhkim/workbench/internal/session"
)

var (
	sessionCreateName string
	sessionUpdateName string
	sessionUpdateDesc string
	listFormat        string
	listDownload      bool
	listDownloadPath  string
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Manage sessions",
	Long: `Manage the named sessions of the project.

Exactly one session is current at any time. The "default" session always exists
and cannot be renamed or deleted.`,
}

var sessionCreateCmd = &cobra.Command{
	Use:   "create [name]",
	Short: "Create a new session",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := sessionCreateName
		if len(args) == 1 {
			if name != "" && name != args[0] {
				return fmt.Errorf("conflicting session names %q and %q", args[0], name)
			}
			name = args[0]
		}
		if name == "" {
			return fmt.Errorf("session name is required")
		}

		eng, err := newEngine(cmd)
		if err != nil {
			return err
		}
		s, err := eng.CreateSession(cmd.Context(), name)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if jsonOutput {
			return outputJSON(out, s)
		}
		PrintSuccess(out, fmt.Sprintf("Created session %s", s.Name))
		PrintLabelValue(out, "ID", s.ID)
		return nil
	},
}

var sessionSelectCmd = &cobra.Command{
	Use:   "select <name-or-id>",
	Short: "Make a session current",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := newEngine(cmd)
		if err != nil {
			return err
		}
		s, err := eng.SelectSession(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if jsonOutput {
			return outputJSON(out, s)
		}
		PrintSuccess(out, fmt.Sprintf("Switched to session %s", s.Name))
		return nil
	},
}

var sessionListCmd = &cobra.Command{
	Use:     "ls",
	Aliases: []string{"list"},
	Short:   "List sessions",
	Long: `List the project's sessions in creation order.

--format selects table (default) or csv output. --download writes the listing
to a file instead of stdout, named session_ls_<timestamp>.<ext> in the
workspace root unless --download-path is given.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := export.ParseFormat(listFormat)
		if err != nil {
			return err
		}

		eng, err := newEngine(cmd)
		if err != nil {
			return err
		}
		sessions, err := eng.ListSessions(cmd.Context())
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if jsonOutput {
			return outputJSON(out, sessions)
		}

		listing := sessionListing(sessions)
		if listDownload || listDownloadPath != "" {
			path, err := export.Download(fsops.NewRealFS(), eng.Paths().Root, listDownloadPath, "session_ls", format, listing, time.Now())
			if err != nil {
				return err
			}
			PrintSuccess(out, fmt.Sprintf("Wrote %s to %s", PrintCount(len(sessions), "session", "sessions"), path))
			return nil
		}
		return export.Render(out, format, listing)
	},
}

var sessionUpdateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Rename a session or change its description",
	Long: `Update a session by id. Only flags given with a non-empty value are applied.

The "default" session cannot be renamed, and no session can be renamed to
"default"; such requests are ignored.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var u session.Update
		if cmd.Flags().Changed("name") {
			u.Name = &sessionUpdateName
		}
		if cmd.Flags().Changed("description") {
			u.Description = &sessionUpdateDesc
		}

		eng, err := newEngine(cmd)
		if err != nil {
			return err
		}
		s, err := eng.UpdateSession(cmd.Context(), args[0], u)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if jsonOutput {
			return outputJSON(out, s)
		}
		if s == nil {
			PrintWarning(out, fmt.Sprintf("Session %s was not updated", args[0]))
			return nil
		}
		PrintSuccess(out, fmt.Sprintf("Updated session %s", s.Name))
		if s.Description != "" {
			PrintLabelValue(out, "Description", s.Description)
		}
		return nil
	},
}

var sessionDeleteCmd = &cobra.Command{
	Use:     "delete <name-or-id>",
	Aliases: []string{"rm"},
	Short:   "Delete a session",
	Long: `Delete a session by name or id. The "default" session and the current
session cannot be deleted; select another session first.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := newEngine(cmd)
		if err != nil {
			return err
		}
		deleted, err := eng.DeleteSession(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if jsonOutput {
			return outputJSON(out, map[string]any{"deleted": deleted, "session": args[0]})
		}
		if !deleted {
			PrintWarning(out, fmt.Sprintf("Session %s was not deleted", args[0]))
			return nil
		}
		PrintSuccess(out, fmt.Sprintf("Deleted session %s", args[0]))
		return nil
	},
}

func init() {
	sessionCreateCmd.Flags().StringVarP(&sessionCreateName, "name", "n", "", "Session name")

	sessionUpdateCmd.Flags().StringVarP(&sessionUpdateName, "name", "n", "", "New session name")
	sessionUpdateCmd.Flags().StringVarP(&sessionUpdateDesc, "description", "d", "", "New session description")

	addListingFlags(sessionListCmd)

	sessionCmd.AddCommand(sessionCreateCmd)
	sessionCmd.AddCommand(sessionSelectCmd)
	sessionCmd.AddCommand(sessionListCmd)
	sessionCmd.AddCommand(sessionUpdateCmd)
	sessionCmd.AddCommand(sessionDeleteCmd)
}

// addListingFlags registers the output flags shared by the ls commands.
func addListingFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&listFormat, "format", "f", "table", "Output format: table or csv")
	cmd.Flags().BoolVar(&listDownload, "download", false, "Write the listing to a file")
	cmd.Flags().StringVar(&listDownloadPath, "download-path", "", "File to write the listing to (implies --download)")
}

func sessionListing(sessions []session.Session) export.Listing {
	l := export.Listing{Headers: []string{"", "NAME", "ID", "DESCRIPTION", "CREATED"}}
	for _, s := range sessions {
		marker := ""
		if s.Current {
			marker = "*"
		}
		l.Rows = append(l.Rows, []string{
			marker,
			s.Name,
			s.ID,
			s.Description,
			s.CreatedAt.Local().Format(time.DateTime),
		})
	}
	return l
}
