package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/navigator1103/MediaIntel-sub006/internal/store/sqlite"
	"github.com/navigator1103/MediaIntel-sub006/pkg/logging"
	"github.com/navigator1103/MediaIntel-sub006/pkg/sync"
)

var syncDryRun bool

// syncCmd reconciles the reporting mirror with the operational store.
var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Reconcile the reporting mirror with the operational store",
	Long: `Sync compares every taxonomy table between the operational store and
the reporting mirror, then repairs both sides: rows missing from either
store are copied across, and divergent rows are overwritten with the
operational store's value.

Runs take an exclusive advisory lock, so overlapping syncs are refused
rather than interleaved.`,
	RunE: runSync,
}

func init() {
	syncCmd.Flags().BoolVar(&syncDryRun, "dry-run", false, "report differences without repairing them")
	rootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, _ []string) error {
	rt, err := newRuntime()
	if err != nil {
		return err
	}
	defer rt.close()

	mirror, err := sqlite.Open(rt.cfg.MirrorPath, *logging.Default())
	if err != nil {
		return err
	}
	defer mirror.Close()

	hostname, _ := os.Hostname()
	owner := fmt.Sprintf("%s-%d", hostname, os.Getpid())

	syncer := sync.New(rt.store, mirror, rt.store,
		sync.WithOwner(owner),
		sync.WithDryRun(syncDryRun),
		sync.WithLogger(rt.logger),
	)
	report, err := syncer.Run(cmd.Context())
	if err != nil {
		return err
	}

	for _, result := range report.Results {
		status := "in sync"
		if !result.InSync() {
			status = fmt.Sprintf("copied %d, overwrote %d, copied back %d",
				len(result.InSourceOnly), len(result.Divergent), len(result.InTargetOnly))
			if report.DryRun {
				status = fmt.Sprintf("would copy %d, overwrite %d, copy back %d",
					len(result.InSourceOnly), len(result.Divergent), len(result.InTargetOnly))
			}
		}
		fmt.Printf("%-14s %4d -> %4d  %s\n", result.Type, result.SourceCount, result.TargetCount, status)
	}
	fmt.Printf("%d change(s) applied\n", report.Applied())
	if failed := report.Failed(); failed > 0 {
		fmt.Printf("%d copy failure(s); see the log for details\n", failed)
	}
	return nil
}
