package cmd

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"woonstat/internal/artifact"
	"woonstat/internal/config"
	"woonstat/internal/ui"
	"woonstat/pkg/errors"
)

var latestHistory bool

var latestCmd = &cobra.Command{
	Use:   "latest",
	Short: "Resolve the latest run artifact for the configured window",
	Long: `Resolve latest.yaml and verify the published run covers the configured
analysis window. Exits non-zero when no run exists or the window does not
match, so downstream jobs can gate on it.`,
	Run: runLatest,
}

func init() {
	rootCmd.AddCommand(latestCmd)

	latestCmd.Flags().BoolVar(&latestHistory, "history", false, "Also list all published runs")
}

func runLatest(cmd *cobra.Command, args []string) {
	cfg, err := config.Load()
	if err != nil {
		ui.ShowError(fmt.Errorf("failed to load configuration: %w", err))
		os.Exit(1)
	}

	mgr := artifact.NewManager(cfg.Artifacts.Dir)

	a, err := mgr.Resolve(cfg.Window)
	if err != nil {
		ui.ShowError(err)
		if errors.IsCode(err, errors.ErrCodeConfigMismatch) {
			os.Exit(2)
		}
		os.Exit(1)
	}

	ui.ShowSuccess(fmt.Sprintf("Run %s covers window %s", a.ID, a.Window.String()))
	fmt.Printf("  Created:  %s\n", a.CreatedAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Printf("  Store:    %s\n", a.StorePath)
	fmt.Printf("  Rows:     %d\n", a.TotalRows())
	if n := len(a.Nulled); n > 0 {
		fmt.Printf("  Nulled:   %d metric(s) degraded, see the run artifact\n", n)
	}

	if !latestHistory {
		return
	}

	runs, err := mgr.List()
	if err != nil {
		ui.ShowError(err)
		os.Exit(1)
	}

	fmt.Println()
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Run", "Window", "Rows", "Duration"})
	table.SetBorder(false)
	table.SetAutoWrapText(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)

	for _, r := range runs {
		id := r.ID
		if r.ID == a.ID {
			id = color.GreenString(id + " *")
		}
		table.Append([]string{
			id,
			r.Window.String(),
			fmt.Sprintf("%d", r.TotalRows()),
			fmt.Sprintf("%dms", r.DurationMS),
		})
	}
	table.Render()
}
