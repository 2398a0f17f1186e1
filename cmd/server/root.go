package main

import (
	"exoml-server/config"

	"github.com/spf13/cobra"
)

// version is set at build time via -ldflags.
var version = "dev"

var configPath string

var rootCmd = &cobra.Command{
	Use:   "exoml-server",
	Short: "Exoplanet classification API and notebook runner",
	Long: "exoml-server serves candidate-exoplanet predictions from a feature registry,\n" +
		"runs the training notebooks and reports what they produced.",
	SilenceUsage: true,
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "YAML config file (default $EXOML_CONFIG)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.Version = version
}

// loadConfig honours --config before falling back to EXOML_CONFIG
func loadConfig() (*config.Config, error) {
	if configPath != "" {
		return config.LoadFile(configPath)
	}
	return config.Load()
}
