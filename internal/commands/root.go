package commands

import (
	"github.com/spf13/cobra"
)

var (
	verbose    bool
	configPath string
)

// rootCmd starts the widget when called without a subcommand.
var rootCmd = &cobra.Command{
	Use:   "coinwatch",
	Short: "Desktop cryptocurrency price widget",
	Long: `A small always-on-top window showing the USD price of one coin,
refreshed from CoinGecko on a fixed interval.

Favorites carry display colors and optional low/high alert thresholds.
The widget tints its icon by threshold state and logs crossings.`,
	Version:      "1.0.2",
	SilenceUsage: true,
	RunE:         runWidget,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default is $XDG_CONFIG_HOME/coinwatch/config.yaml)")
	addRunFlags(rootCmd)
}
