package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/danieljhkim/workbench/internal/export"
	"github.com/danieljhkim/workbench/internal/fsops"
	"github.com/danieljhkim/workbench/internal/ledger"
)

var (
	snapshotSession string
	snapshotAll     bool
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Inspect the snapshot ledger",
}

var snapshotListCmd = &cobra.Command{
	Use:     "ls",
	Aliases: []string{"list"},
	Short:   "List snapshots",
	Long: `List recorded snapshots in creation order.

By default only the current session's snapshots are shown. --session selects
another session by name or id, and --all lists every session.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if snapshotAll && snapshotSession != "" {
			return fmt.Errorf("--all and --session cannot be used together")
		}
		format, err := export.ParseFormat(listFormat)
		if err != nil {
			return err
		}

		eng, err := newEngine(cmd)
		if err != nil {
			return err
		}
		ctx := cmd.Context()

		sessionID := ""
		if !snapshotAll {
			s, err := eng.GetSession(ctx, snapshotSession)
			if err != nil {
				return err
			}
			sessionID = s.ID
		}

		snapshots, err := eng.ListSnapshots(ctx, sessionID)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if jsonOutput {
			return outputJSON(out, snapshots)
		}
		if len(snapshots) == 0 && !listDownload && listDownloadPath == "" {
			PrintEmptyState(out, "No snapshots recorded")
			return nil
		}

		listing := snapshotListing(snapshots)
		if listDownload || listDownloadPath != "" {
			path, err := export.Download(fsops.NewRealFS(), eng.Paths().Root, listDownloadPath, "snapshot_ls", format, listing, time.Now())
			if err != nil {
				return err
			}
			PrintSuccess(out, fmt.Sprintf("Wrote %s to %s", PrintCount(len(snapshots), "snapshot", "snapshots"), path))
			return nil
		}
		return export.Render(out, format, listing)
	},
}

func init() {
	snapshotListCmd.Flags().StringVarP(&snapshotSession, "session", "s", "", "Session name or id (default: current session)")
	snapshotListCmd.Flags().BoolVarP(&snapshotAll, "all", "a", false, "List snapshots of every session")
	addListingFlags(snapshotListCmd)

	snapshotCmd.AddCommand(snapshotListCmd)
}

func snapshotListing(snapshots []ledger.Snapshot) export.Listing {
	l := export.Listing{Headers: []string{"ID", "SESSION", "ORIGIN", "CODE", "ENVIRONMENT", "FILES", "MESSAGE", "CREATED"}}
	for _, s := range snapshots {
		l.Rows = append(l.Rows, []string{
			s.ID,
			s.SessionID,
			string(s.Origin),
			s.Code.Short(),
			s.Environment.Short(),
			s.Files.Short(),
			s.Message,
			s.CreatedAt.Local().Format(time.DateTime),
		})
	}
	return l
}
