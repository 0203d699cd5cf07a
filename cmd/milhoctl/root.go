package main

import (
	"errors"
	"io/fs"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/milhonews/milho/internal/config"
	"github.com/milhonews/milho/internal/logging"
)

var (
	cfgFile string
	verbose bool
	cfg     *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "milhoctl",
	Short: "Milho News command line",
	Long: `milhoctl reads the Milho News feeds without a browser and helps
operate a local server.

Example usage:
  milhoctl read                        # Print the news section and its summary
  milhoctl read -s opensource -q go    # Search the open source section
  milhoctl open site                   # Open the site in the default browser
  milhoctl config init                 # Write the default config file
  milhoctl smoke -q react              # Check search in a headless browser`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initConfig()
	},
}

func init() {
	rootCmd.Version = version
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is the user config dir)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// initConfig loads the config file, falling back to defaults plus
// environment overrides when none exists yet.
func initConfig() error {
	var err error
	if cfgFile != "" {
		cfg, err = config.LoadFile(cfgFile)
	} else {
		cfg, err = config.Load()
	}
	if errors.Is(err, fs.ErrNotExist) {
		cfg, err = config.FromEnv()
	}
	if err != nil {
		return err
	}

	logCfg := cfg.Log
	if verbose {
		logCfg.Level = "debug"
	}
	logging.Init(logCfg)
	slog.Debug("configuration loaded", "component", "milhoctl", "sections", len(cfg.Sections))
	return nil
}
