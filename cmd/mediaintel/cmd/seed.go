package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/navigator1103/MediaIntel-sub006/pkg/consistency"
	"github.com/navigator1103/MediaIntel-sub006/pkg/taxonomy"
)

// seedCmd loads master YAML files into the operational store.
var seedCmd = &cobra.Command{
	Use:   "seed [dir]",
	Short: "Load master data files into the operational store",
	Long: `Seed reads the master taxonomy YAML files (from the given directory, or
the configured master dir) and replaces the operational store's taxonomy
tables with their contents. The data is consistency-checked first; a seed
with critical violations is refused.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSeed,
}

func init() {
	rootCmd.AddCommand(seedCmd)
}

func runSeed(cmd *cobra.Command, args []string) error {
	rt, err := newRuntime()
	if err != nil {
		return err
	}
	defer rt.close()

	dir := rt.cfg.MasterDir
	if len(args) == 1 {
		dir = args[0]
	}

	snapshot, err := taxonomy.LoadDir(dir)
	if err != nil {
		return err
	}
	if err := consistency.Gate().Check(snapshot); err != nil {
		return fmt.Errorf("refusing to seed: %w", err)
	}

	if err := rt.store.SaveSnapshot(cmd.Context(), snapshot); err != nil {
		return err
	}

	fmt.Printf("seeded %d business units, %d categories, %d ranges, %d campaigns from %s\n",
		snapshot.BusinessUnits().Len(),
		snapshot.Categories().Len(),
		snapshot.Ranges().Len(),
		snapshot.Campaigns().Len(),
		dir)
	return nil
}
