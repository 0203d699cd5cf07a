package main

import (
	"fmt"

	"github.com/pkg/browser"
	"github.com/spf13/cobra"

	"github.com/milhonews/milho/internal/config"
	"github.com/milhonews/milho/internal/digest"
)

var openCmd = &cobra.Command{
	Use:   "open <site|config> [section]",
	Short: "Open the site or the config file",
	Long: `Open the configured site in the default browser, or the config file
in the default editor.

Examples:
  milhoctl open site              # Default section
  milhoctl open site opensource   # A specific section
  milhoctl open config            # The config file`,
	Args:      cobra.RangeArgs(1, 2),
	ValidArgs: []string{"site", "config"},
	RunE:      runOpen,
}

func init() {
	rootCmd.AddCommand(openCmd)
}

func runOpen(cmd *cobra.Command, args []string) error {
	switch args[0] {
	case "site":
		target := cfg.Server.BaseURL
		if len(args) == 2 {
			target += digest.SectionURL(args[1])
		}
		return browser.OpenURL(target)
	case "config":
		path := cfgFile
		if path == "" {
			var err error
			if path, err = config.ConfigPath(); err != nil {
				return err
			}
		}
		return browser.OpenFile(path)
	default:
		return fmt.Errorf("unknown target %q (want site or config)", args[0])
	}
}
