package cmd

import (
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

// versionsCmd works with the retained master data versions.
var versionsCmd = &cobra.Command{
	Use:   "versions",
	Short: "List committed master data versions",
	Long: `Versions lists the append-only log of committed master data snapshots.
Every import commit and rollback appends an entry, and the snapshot files
themselves are retained so any version can be restored.`,
	RunE: runVersions,
}

var versionsRollbackCmd = &cobra.Command{
	Use:   "rollback <version>",
	Short: "Restore a previously committed version",
	Args:  cobra.ExactArgs(1),
	RunE:  runVersionsRollback,
}

func init() {
	versionsCmd.AddCommand(versionsRollbackCmd)
	rootCmd.AddCommand(versionsCmd)
}

func runVersions(_ *cobra.Command, _ []string) error {
	rt, err := newRuntime()
	if err != nil {
		return err
	}
	defer rt.close()

	entries, err := rt.graph.Versions()
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println("no committed versions")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "VERSION\tCOMMITTED\tACTOR\tSUMMARY")
	for _, entry := range entries {
		summary := entry.Summary
		if entry.Rollback {
			summary = "[rollback] " + summary
		}
		fmt.Fprintf(w, "v%d\t%s\t%s\t%s\n",
			entry.Version, entry.CommittedAt.Format("2006-01-02 15:04:05"), entry.Actor, summary)
	}
	return w.Flush()
}

func runVersionsRollback(_ *cobra.Command, args []string) error {
	rt, err := newRuntime()
	if err != nil {
		return err
	}
	defer rt.close()

	version, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid version %q", args[0])
	}

	actor := os.Getenv("USER")
	if actor == "" {
		actor = "mediaintel"
	}

	newVersion, err := rt.graph.Rollback(version, actor)
	if err != nil {
		return err
	}
	if err := rt.saveMaster(); err != nil {
		return err
	}

	fmt.Printf("restored v%d as v%d\n", version, newVersion)
	return nil
}
