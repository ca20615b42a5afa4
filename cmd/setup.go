package cmd

import (
	"fmt"
	"os"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"
	"woonstat/internal/config"
	"woonstat/internal/ui"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Interactive configuration setup",
	Run:   runSetup,
}

func runSetup(cmd *cobra.Command, args []string) {
	if config.Exists() {
		var overwrite bool
		prompt := &survey.Confirm{
			Message: "Configuration already exists. Do you want to overwrite it?",
			Default: false,
		}
		survey.AskOne(prompt, &overwrite)
		if !overwrite {
			fmt.Println("Setup cancelled.")
			return
		}
	}

	base, err := config.Load()
	if err != nil {
		base = config.Default()
	}

	cfg, err := ui.NewConfigWizard().Run(base)
	if err != nil {
		ui.ShowError(err)
		os.Exit(1)
	}

	if err := config.Save(cfg); err != nil {
		ui.ShowError(fmt.Errorf("failed to save configuration: %w", err))
		os.Exit(1)
	}

	ui.ShowSuccess("Configuration saved to " + config.GetConfigFile())
	fmt.Println("Load the store with: woonstat run")
}

func init() {
	rootCmd.AddCommand(setupCmd)
}
