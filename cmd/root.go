package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:   "woonstat",
	Short: "Load Dutch housing statistics into an analytical store",
	Long: "Woonstat transforms CBS housing cube extracts (permit-to-completion lead times\n" +
		"and construction pipeline backlogs) into a SQLite star schema with derived\n" +
		"risk and bottleneck metrics.",
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initViper)
}

func initViper() {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")

	home, err := os.UserHomeDir()
	if err == nil {
		viper.AddConfigPath(home + "/.woonstat")
	}

	viper.SetEnvPrefix("WOONSTAT")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		// Config file not found is okay; commands fall back to defaults
	}
}
