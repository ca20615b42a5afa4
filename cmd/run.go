package cmd

import (
	"context"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"woonstat/internal/artifact"
	"woonstat/internal/config"
	"woonstat/internal/pipeline"
	"woonstat/internal/ui"
)

var (
	runDryRun    bool
	runRawDir    string
	runStore     string
	runArtifacts string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Transform the latest extracts and load the store",
	Long: `Run the full transform-and-load pass: resolve the newest CBS cube extracts,
normalize dimensions, derive risk metrics, rebuild the star schema in one
transaction, and publish the run artifact.`,
	Run: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().BoolVarP(&runDryRun, "dry-run", "d", false, "Derive everything but do not touch the store")
	runCmd.Flags().StringVar(&runRawDir, "raw-dir", "", "Override the raw extract directory")
	runCmd.Flags().StringVar(&runStore, "store", "", "Override the store path")
	runCmd.Flags().StringVar(&runArtifacts, "artifacts", "", "Override the artifact directory")
}

func runRun(cmd *cobra.Command, args []string) {
	cfg, err := config.Load()
	if err != nil {
		ui.ShowError(fmt.Errorf("failed to load configuration: %w", err))
		os.Exit(1)
	}

	// Env overrides for the window, useful in scheduled runs
	if v := viper.GetInt("start_year"); v != 0 {
		cfg.Window.StartYear = v
	}
	if v := viper.GetInt("end_year"); v != 0 {
		cfg.Window.EndYear = v
	}
	if runRawDir != "" {
		cfg.Datasets.RawDir = runRawDir
	}
	if runStore != "" {
		cfg.Store.Path = runStore
	}
	if runArtifacts != "" {
		cfg.Artifacts.Dir = runArtifacts
	}

	if err := cfg.Validate(); err != nil {
		ui.ShowError(err)
		os.Exit(1)
	}

	ui.ShowHeader("Woonstat Transform & Load")
	ui.ShowInfo(fmt.Sprintf("Window %s, store %s", cfg.Window.String(), cfg.Store.Path))
	if runDryRun {
		ui.ShowWarning("Dry run: the store and artifacts will not change")
	}

	a, err := pipeline.NewRunner(cfg, pipeline.Options{DryRun: runDryRun}).Run(context.Background())
	if err != nil {
		ui.ShowError(err)
		os.Exit(1)
	}

	renderRunSummary(a)

	if runDryRun {
		ui.ShowSuccess("Dry run completed")
		return
	}
	ui.ShowSuccess(fmt.Sprintf("Run %s published (%d rows in %s)",
		a.ID, a.TotalRows(), time.Duration(a.DurationMS)*time.Millisecond))
}

func renderRunSummary(a *artifact.RunArtifact) {
	fmt.Println()
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Table", "Rows"})
	table.SetBorder(false)
	table.SetAutoWrapText(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)

	names := make([]string, 0, len(a.Tables))
	for name := range a.Tables {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		table.Append([]string{name, fmt.Sprintf("%d", a.Tables[name])})
	}
	table.Render()

	if len(a.Nulled) > 0 {
		fmt.Println()
		nulled := tablewriter.NewWriter(os.Stdout)
		nulled.SetHeader([]string{"Nulled metric", "Cells"})
		nulled.SetBorder(false)
		nulled.SetAutoWrapText(false)
		nulled.SetAlignment(tablewriter.ALIGN_LEFT)

		metrics := make([]string, 0, len(a.Nulled))
		for m := range a.Nulled {
			metrics = append(metrics, m)
		}
		sort.Strings(metrics)
		for _, m := range metrics {
			nulled.Append([]string{color.YellowString(m), fmt.Sprintf("%d", a.Nulled[m])})
		}
		nulled.Render()
	}
	fmt.Println()
}
